package kv

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/tidwall/gjson"
)

func PutInt(ctx context.Context, s Storage, key string, v int) error {
	return s.Put(ctx, key, strconv.Itoa(v))
}

// GetInt returns def when the key is missing or its value is not an int.
func GetInt(ctx context.Context, s Storage, key string, def int) (int, error) {
	return getParsed(ctx, s, key, def, strconv.Atoi)
}

func PutInt64(ctx context.Context, s Storage, key string, v int64) error {
	return s.Put(ctx, key, strconv.FormatInt(v, 10))
}

func GetInt64(ctx context.Context, s Storage, key string, def int64) (int64, error) {
	return getParsed(ctx, s, key, def, func(raw string) (int64, error) {
		return strconv.ParseInt(raw, 10, 64)
	})
}

func PutFloat(ctx context.Context, s Storage, key string, v float64) error {
	return s.Put(ctx, key, strconv.FormatFloat(v, 'g', -1, 64))
}

func GetFloat(ctx context.Context, s Storage, key string, def float64) (float64, error) {
	return getParsed(ctx, s, key, def, func(raw string) (float64, error) {
		return strconv.ParseFloat(raw, 64)
	})
}

func PutBool(ctx context.Context, s Storage, key string, v bool) error {
	return s.Put(ctx, key, strconv.FormatBool(v))
}

func GetBool(ctx context.Context, s Storage, key string, def bool) (bool, error) {
	return getParsed(ctx, s, key, def, strconv.ParseBool)
}

// PutStrings stores v as a JSON array.
func PutStrings(ctx context.Context, s Storage, key string, v []string) error {
	return putJSON(ctx, s, key, v)
}

func GetStrings(ctx context.Context, s Storage, key string, def []string) ([]string, error) {
	return getJSON(ctx, s, key, def)
}

// PutSet stores the distinct members of v as a sorted JSON array.
func PutSet(ctx context.Context, s Storage, key string, v map[string]struct{}) error {
	members := make([]string, 0, len(v))
	for m := range v {
		members = append(members, m)
	}
	slices.Sort(members)
	return putJSON(ctx, s, key, members)
}

func GetSet(ctx context.Context, s Storage, key string, def map[string]struct{}) (map[string]struct{}, error) {
	members, err := getJSON[[]string](ctx, s, key, nil)
	if err != nil || members == nil {
		return def, err
	}
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set, nil
}

// PutMap stores v as a JSON object.
func PutMap(ctx context.Context, s Storage, key string, v map[string]string) error {
	return putJSON(ctx, s, key, v)
}

func GetMap(ctx context.Context, s Storage, key string, def map[string]string) (map[string]string, error) {
	return getJSON(ctx, s, key, def)
}

// GetPath reads a gjson path from the JSON value stored under key.
func GetPath(ctx context.Context, s Storage, key, path string) (gjson.Result, error) {
	raw, err := s.Get(ctx, key, "")
	if err != nil {
		return gjson.Result{}, err
	}
	if raw == "" || !gjson.Valid(raw) {
		return gjson.Result{}, nil
	}
	return gjson.Get(raw, path), nil
}

func getParsed[T any](ctx context.Context, s Storage, key string, def T, parse func(string) (T, error)) (T, error) {
	raw, ok, err := lookup(ctx, s, key)
	if err != nil || !ok {
		return def, err
	}
	v, err := parse(raw)
	if err != nil {
		return def, nil
	}
	return v, nil
}

func putJSON(ctx context.Context, s Storage, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode value of %s: %w", key, err)
	}
	return s.Put(ctx, key, string(raw))
}

func getJSON[T any](ctx context.Context, s Storage, key string, def T) (T, error) {
	raw, ok, err := lookup(ctx, s, key)
	if err != nil || !ok {
		return def, err
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return def, nil
	}
	return v, nil
}

func lookup(ctx context.Context, s Storage, key string) (string, bool, error) {
	ok, err := s.Contains(ctx, key)
	if err != nil || !ok {
		return "", false, err
	}
	raw, err := s.Get(ctx, key, "")
	if err != nil {
		return "", false, err
	}
	return raw, true, nil
}
