package password_test

import (
	"strings"
	"testing"

	"github.com/tixhive/auth-api/internal/platform/password"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := password.Hash("correct horse battery staple")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$") {
		t.Fatalf("hash %q is not a PHC argon2id string", hash)
	}

	ok, err := password.Verify(hash, "correct horse battery staple")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatal("correct password rejected")
	}

	ok, err = password.Verify(hash, "wrong password")
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatal("wrong password accepted")
	}
}

func TestHashIsSalted(t *testing.T) {
	a, err := password.Hash("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := password.Hash("same input")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if a == b {
		t.Fatal("two hashes of the same password must differ")
	}
}

func TestVerifyMalformedHash(t *testing.T) {
	if _, err := password.Verify("not-a-hash", "whatever"); err == nil {
		t.Fatal("expected error for malformed hash")
	}
}
