package rpc_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/cxuy/cxkit/internal/rpc"
)

func TestEnvelope_Encode(t *testing.T) {
	restore := rpc.SetNow(func() time.Time {
		return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
	})
	defer restore()

	tests := []struct {
		name string
		env  func() ([]byte, error)
		want string
	}{
		{
			name: "empty",
			env:  func() ([]byte, error) { return rpc.Encode(rpc.Empty()) },
			want: `{"timestamp":"2024-01-02 03:04:05","message":"","code":200,"data":null}`,
		},
		{
			name: "failure",
			env:  func() ([]byte, error) { return rpc.Encode(rpc.Fail(rpc.Failure)) },
			want: `{"timestamp":"2024-01-02 03:04:05","message":"","code":201,"data":null}`,
		},
		{
			name: "success",
			env: func() ([]byte, error) {
				return rpc.Encode(rpc.Success("handle successful", map[string]int{"id": 1}))
			},
			want: `{"timestamp":"2024-01-02 03:04:05","message":"handle successful","code":200,"data":{"id":1}}`,
		},
		{
			name: "params error with details",
			env: func() ([]byte, error) {
				return rpc.Encode(rpc.FailWith(rpc.ParamsError, "invalid input", map[string]string{"name": "required"}))
			},
			want: `{"timestamp":"2024-01-02 03:04:05","message":"invalid input","code":202,"data":{"name":"required"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.env()
			if err != nil {
				t.Fatalf("rpc.Encode: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("rpc.Encode() = %s, want: %s", got, tt.want)
			}
		})
	}
}

func TestDecode(t *testing.T) {
	t.Parallel()

	type user struct {
		Name string `json:"name"`
	}

	env, err := rpc.Decode[user]([]byte(`{"timestamp":"x","message":"ok","code":200,"data":{"name":"cx"}}`))
	if err != nil {
		t.Fatalf("rpc.Decode: %v", err)
	}
	if !env.OK() || env.Data.Name != "cx" || env.Message != "ok" {
		t.Errorf("rpc.Decode() = %+v, want a successful envelope for cx", env)
	}

	if _, err := rpc.Decode[user]([]byte(`not json`)); err == nil {
		t.Error("rpc.Decode() error = nil, want an error")
	}

	var raw map[string]any
	b, _ := rpc.Encode(rpc.Fail(rpc.ParamsError))
	if err := json.Unmarshal(b, &raw); err != nil {
		t.Fatal(err)
	}
	if raw["code"].(float64) != 202 {
		t.Errorf("code = %v, want: 202", raw["code"])
	}
}
