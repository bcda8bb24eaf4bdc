package kv_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cxuy/cxkit/internal/kv"
)

func TestTypedHelpers(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := kv.NewMemoryStorage()

	require.NoError(t, kv.PutInt(ctx, s, "int", 42))
	require.NoError(t, kv.PutInt64(ctx, s, "int64", 1<<40))
	require.NoError(t, kv.PutFloat(ctx, s, "float", 2.5))
	require.NoError(t, kv.PutBool(ctx, s, "bool", true))
	require.NoError(t, kv.PutStrings(ctx, s, "strings", []string{"b", "a"}))
	require.NoError(t, kv.PutSet(ctx, s, "set", map[string]struct{}{"x": {}, "y": {}}))
	require.NoError(t, kv.PutMap(ctx, s, "map", map[string]string{"k": "v"}))

	i, err := kv.GetInt(ctx, s, "int", 0)
	require.NoError(t, err)
	assert.Equal(t, 42, i)

	i64, err := kv.GetInt64(ctx, s, "int64", 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1<<40), i64)

	f, err := kv.GetFloat(ctx, s, "float", 0)
	require.NoError(t, err)
	assert.InDelta(t, 2.5, f, 1e-9)

	b, err := kv.GetBool(ctx, s, "bool", false)
	require.NoError(t, err)
	assert.True(t, b)

	strs, err := kv.GetStrings(ctx, s, "strings", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, strs)

	set, err := kv.GetSet(ctx, s, "set", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]struct{}{"x": {}, "y": {}}, set)

	raw, err := s.Get(ctx, "set", "")
	require.NoError(t, err)
	assert.Equal(t, `["x","y"]`, raw)

	m, err := kv.GetMap(ctx, s, "map", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"k": "v"}, m)
}

func TestTypedHelpers_FallBackToDefault(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := kv.NewMemoryStorage()
	require.NoError(t, s.Put(ctx, "text", "not a number"))

	i, err := kv.GetInt(ctx, s, "text", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, i)

	i, err = kv.GetInt(ctx, s, "missing", 8)
	require.NoError(t, err)
	assert.Equal(t, 8, i)

	strs, err := kv.GetStrings(ctx, s, "text", []string{"def"})
	require.NoError(t, err)
	assert.Equal(t, []string{"def"}, strs)
}

func TestGetPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := kv.NewMemoryStorage()
	require.NoError(t, s.Put(ctx, "profile", `{"name":"cx","tags":["a","b"]}`))
	require.NoError(t, s.Put(ctx, "plain", "text"))

	got, err := kv.GetPath(ctx, s, "profile", "tags.1")
	require.NoError(t, err)
	assert.Equal(t, "b", got.String())

	got, err = kv.GetPath(ctx, s, "plain", "name")
	require.NoError(t, err)
	assert.False(t, got.Exists())
}
