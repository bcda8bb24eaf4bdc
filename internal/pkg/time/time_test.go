package time_test

import (
	"encoding/json"
	"testing"
	"time"

	timex "github.com/cxuy/cxkit/internal/pkg/time"
)

func TestDuration_JSON(t *testing.T) {
	t.Parallel()

	var got struct {
		Timeout timex.Duration `json:"timeout"`
	}
	if err := json.Unmarshal([]byte(`{"timeout":"1m30s"}`), &got); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}
	if want := 90 * time.Second; got.Timeout.Duration != want {
		t.Errorf("got.Timeout = %v, want: %v", got.Timeout.Duration, want)
	}

	out, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("json.Marshal: %v", err)
	}
	if want := `{"timeout":"1m30s"}`; string(out) != want {
		t.Errorf("json.Marshal() = %s, want: %s", out, want)
	}
}

func TestDuration_InvalidValue(t *testing.T) {
	t.Parallel()

	var d timex.Duration
	if err := json.Unmarshal([]byte(`"soon"`), &d); err == nil {
		t.Error("json.Unmarshal() error = nil, want an error")
	}
	if err := json.Unmarshal([]byte(`5`), &d); err == nil {
		t.Error("json.Unmarshal() of a number error = nil, want an error")
	}
}

func TestTimestamp(t *testing.T) {
	t.Parallel()

	ts := time.Date(2024, 3, 9, 7, 5, 1, 0, time.Local)
	if got, want := timex.Timestamp(ts), "2024-03-09 07:05:01"; got != want {
		t.Errorf("timex.Timestamp() = %q, want: %q", got, want)
	}
}
