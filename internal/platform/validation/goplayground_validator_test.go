package validation_test

import (
	"testing"

	"github.com/cxuy/cxkit/internal/platform/validation"
)

type greeting struct {
	Name string `json:"name" validate:"required,max=8"`
	ID   int    `json:"id" validate:"gte=0"`
	Mood string `validate:"omitempty,oneof=happy sad"`
}

func TestGoplaygroundValidator_ValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		given    any
		field    string
		hasError bool
		errMsg   string
	}{
		{"valid struct", greeting{Name: "cx", ID: 1}, "name", false, ""},
		{"required field is missing", greeting{ID: 1}, "name", true, "name is required"},
		{"too long", greeting{Name: "abcdefghij"}, "name", true, "name must be at most 8 characters long"},
		{"negative id", &greeting{Name: "cx", ID: -1}, "id", true, "id must be greater than or equal to 0"},
		{"field without json tag", greeting{Name: "cx", Mood: "angry"}, "Mood", true, "Mood must be one of: happy sad"},
		{"not a struct", "plain", "", false, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			v := validation.NewGoPlaygroundValidator()

			errs := v.ValidateStruct(tc.given)
			if errs != nil && !tc.hasError {
				t.Errorf("v.ValidateStruct(%v) = %+v, want: %+v", tc.given, errs, nil)
			}
			if errs == nil && tc.hasError {
				t.Fatalf("v.ValidateStruct(%v) = nil, want errors", tc.given)
			}

			if gotMsg, wantMsg := errs[tc.field], tc.errMsg; gotMsg != wantMsg {
				t.Errorf("errs[%q] = %q, want: %q", tc.field, gotMsg, wantMsg)
			}
		})
	}
}
