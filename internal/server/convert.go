package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
)

var ErrConvert = errors.New("server: cannot convert value")

// convertQuery turns a raw query value into a value of type t. Scalars are
// parsed directly, anything else is decoded as JSON.
func convertQuery(raw string, t reflect.Type) (reflect.Value, error) {
	if t.Kind() == reflect.Pointer {
		elem, err := convertQuery(raw, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(elem)
		return ptr, nil
	}

	v := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.String:
		v.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, convertErr(raw, t, err)
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, convertErr(raw, t, err)
		}
		v.SetUint(n)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return reflect.Value{}, convertErr(raw, t, err)
		}
		v.SetBool(b)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(raw, t.Bits())
		if err != nil {
			return reflect.Value{}, convertErr(raw, t, err)
		}
		v.SetFloat(f)
	default:
		ptr := reflect.New(t)
		if err := json.Unmarshal([]byte(raw), ptr.Interface()); err != nil {
			return reflect.Value{}, convertErr(raw, t, err)
		}
		return ptr.Elem(), nil
	}
	return v, nil
}

// convertBody decodes the JSON body into a value of type t. A string
// parameter receives the raw body when it is not a JSON string.
func convertBody(body []byte, t reflect.Type) (reflect.Value, error) {
	ptr := reflect.New(t)
	if err := json.Unmarshal(body, ptr.Interface()); err != nil {
		if t.Kind() == reflect.String {
			v := reflect.New(t).Elem()
			v.SetString(string(body))
			return v, nil
		}
		return reflect.Value{}, fmt.Errorf("%w: body into %s: %v", ErrConvert, t, err)
	}
	return ptr.Elem(), nil
}

func convertErr(raw string, t reflect.Type, err error) error {
	return fmt.Errorf("%w: %q into %s: %v", ErrConvert, raw, t, err)
}
