package hash_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/cxuy/cxkit/internal/config"
	"github.com/cxuy/cxkit/internal/platform/hash"
)

var testArgon2 = &config.Argon2{
	Memory:     16 * 1024,
	Iterations: 1,
	Threads:    1,
	SaltLength: 16,
	KeyLength:  32,
}

func TestArgon2Hasher_Hash(t *testing.T) {
	t.Parallel()

	hasher := hash.NewArgon2Hasher(testArgon2, "paminta")
	hashed, err := hasher.Hash("rice")
	if err != nil {
		t.Fatal(err)
	}

	parts := strings.Split(hashed, "$")
	if len(parts) != 6 {
		t.Fatalf("len(parts) = %d, want: %d", len(parts), 6)
	}
	if parts[1] != "argon2id" {
		t.Errorf("parts[1] = %q, want: %q", parts[1], "argon2id")
	}
	if parts[3] != "m=16384,t=1,p=1" {
		t.Errorf("parts[3] = %q, want: %q", parts[3], "m=16384,t=1,p=1")
	}

	again, err := hasher.Hash("rice")
	if err != nil {
		t.Fatal(err)
	}
	if again == hashed {
		t.Error("two hashes of the same value are equal, want distinct salts")
	}
}

func TestArgon2Hasher_Verify(t *testing.T) {
	t.Parallel()

	hasher := hash.NewArgon2Hasher(testArgon2, "paminta")
	hashed, err := hasher.Hash("rice")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		hasher *hash.Argon2Hasher
		plain  string
		want   bool
	}{
		{"same value", hasher, "rice", true},
		{"other value", hasher, "garlic", false},
		{"other pepper", hash.NewArgon2Hasher(testArgon2, "asin"), "rice", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := tt.hasher.Verify(tt.plain, hashed)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Verify(%q) = %t, want: %t", tt.plain, got, tt.want)
			}
		})
	}
}

func TestArgon2Hasher_VerifyMalformed(t *testing.T) {
	t.Parallel()

	hasher := hash.NewArgon2Hasher(testArgon2, "")
	for _, hashed := range []string{"", "plain", "$bcrypt$v=19$m=1,t=1,p=1$a$b", "$argon2id$v=1$m=1,t=1,p=1$a$b"} {
		if _, err := hasher.Verify("x", hashed); !errors.Is(err, hash.ErrInvalidHash) {
			t.Errorf("Verify(%q) = %v, want: %v", hashed, err, hash.ErrInvalidHash)
		}
	}
}
