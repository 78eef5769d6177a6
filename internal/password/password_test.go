package password

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestNewCost(t *testing.T) {
	tests := []struct {
		name string
		in   int
		want int
	}{
		{"zero uses default", 0, DefaultCost},
		{"below min is clamped", 1, bcrypt.MinCost},
		{"above max is clamped", 99, bcrypt.MaxCost},
		{"explicit value kept", 10, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := New(tt.in).Cost(); got != tt.want {
				t.Errorf("New(%d).Cost() = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
	if DefaultCost < 10 {
		t.Errorf("DefaultCost = %d, want at least 10", DefaultCost)
	}
}

func TestHashAndVerify(t *testing.T) {
	h := New(bcrypt.MinCost)

	digest, err := h.Hash("admin123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if digest == "admin123" || strings.Contains(digest, "admin123") {
		t.Fatal("digest must not contain the plaintext")
	}
	if !h.Verify("admin123", digest) {
		t.Error("Verify should accept the original password")
	}
	if h.Verify("admin124", digest) {
		t.Error("Verify should reject a different password")
	}

	again, err := h.Hash("admin123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if again == digest {
		t.Error("two hashes of the same password should differ (salt)")
	}
}

func TestVerifyMalformedDigest(t *testing.T) {
	h := New(bcrypt.MinCost)
	for _, digest := range []string{"", "not-a-hash", "$2a$", "admin123"} {
		if h.Verify("admin123", digest) {
			t.Errorf("Verify accepted malformed digest %q", digest)
		}
	}
}

func TestHashUsesConfiguredCost(t *testing.T) {
	h := New(bcrypt.MinCost + 1)
	digest, err := h.Hash("secret")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		t.Fatalf("bcrypt.Cost: %v", err)
	}
	if cost != bcrypt.MinCost+1 {
		t.Errorf("digest cost = %d, want %d", cost, bcrypt.MinCost+1)
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	h := New(bcrypt.MinCost)
	_, err := h.Hash(strings.Repeat("x", 73))
	if !errors.Is(err, ErrTooLong) {
		t.Errorf("Hash(73 bytes) error = %v, want ErrTooLong", err)
	}
}
