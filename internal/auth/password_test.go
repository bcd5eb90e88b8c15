package auth

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func newTestPasswordService() *PasswordService {
	return NewPasswordServiceForTest(bcrypt.MinCost)
}

func TestHash(t *testing.T) {
	ps := newTestPasswordService()

	hash1, err := ps.Hash("same-password")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	hash2, _ := ps.Hash("same-password")

	if !strings.HasPrefix(hash1, "$2") {
		t.Errorf("Hash() does not look like bcrypt: %q", hash1)
	}
	if hash1 == hash2 {
		t.Error("two hashes of one password should differ by salt")
	}
}

func TestHash_Limits(t *testing.T) {
	ps := newTestPasswordService()

	tests := []struct {
		name     string
		password string
		want     error
	}{
		{name: "too short", password: "short", want: ErrPasswordTooShort},
		{name: "too long", password: strings.Repeat("a", 73), want: ErrPasswordTooLong},
		{name: "multibyte counts characters", password: "пароль12", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ps.Hash(tt.password)
			if !errors.Is(err, tt.want) {
				t.Errorf("Hash() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestVerify(t *testing.T) {
	ps := newTestPasswordService()
	hash, err := ps.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name      string
		hash      string
		plaintext string
		want      error
	}{
		{name: "matching password", hash: hash, plaintext: "correct horse"},
		{name: "wrong password", hash: hash, plaintext: "battery staple", want: ErrWrongPassword},
		{name: "no hash", hash: "", plaintext: "correct horse", want: ErrNoPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ps.Verify(tt.hash, tt.plaintext); !errors.Is(err, tt.want) {
				t.Errorf("Verify() error = %v, want %v", err, tt.want)
			}
		})
	}

	if err := ps.Verify("not-a-hash", "correct horse"); err == nil {
		t.Error("Verify() should fail on a malformed hash")
	}
}
