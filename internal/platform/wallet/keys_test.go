package wallet_test

import (
	"testing"

	"github.com/tixhive/auth-api/internal/platform/wallet"
)

func TestGenerateSignVerify(t *testing.T) {
	kp, err := wallet.GenerateKeypair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	msg := []byte("login code 482913")
	sig := kp.Sign(msg)

	if !wallet.Verify(msg, kp.PublicKey, sig) {
		t.Fatal("valid signature rejected")
	}
	if wallet.Verify([]byte("login code 000000"), kp.PublicKey, sig) {
		t.Fatal("signature accepted for a different message")
	}

	sig[0] ^= 0xff
	if wallet.Verify(msg, kp.PublicKey, sig) {
		t.Fatal("tampered signature accepted")
	}
}

func TestVerifyBadKeySizes(t *testing.T) {
	if wallet.Verify([]byte("m"), []byte("short"), make([]byte, 64)) {
		t.Fatal("verify accepted a truncated public key")
	}
	kp, err := wallet.GenerateKeypair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if wallet.Verify([]byte("m"), kp.PublicKey, []byte("short")) {
		t.Fatal("verify accepted a truncated signature")
	}
}

func TestGeneratedAccountIsImplicit(t *testing.T) {
	kp, err := wallet.GenerateKeypair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !wallet.IsImplicitAccount(kp.AccountID) {
		t.Fatalf("account id %q is not implicit", kp.AccountID)
	}
	if len(kp.AccountID) != 64 {
		t.Fatalf("account id length = %d, want 64", len(kp.AccountID))
	}
}

func TestKeyWireEncoding(t *testing.T) {
	kp, err := wallet.GenerateKeypair()
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	decoded, err := wallet.DecodeKey(kp.PublicKeyB58())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded) != len(kp.PublicKey) {
		t.Fatalf("decoded key length = %d, want %d", len(decoded), len(kp.PublicKey))
	}
	for i := range decoded {
		if decoded[i] != kp.PublicKey[i] {
			t.Fatal("decoded key differs from original")
		}
	}

	if _, err := wallet.DecodeKey("0OIl"); err == nil {
		t.Fatal("expected error for non-base58 input")
	}
}

func TestAccountClassifiers(t *testing.T) {
	implicit := "98793cd91a3f870fb126f66285808c7e094afcfc4eda8a970f6648cdf0dbd6de"

	cases := []struct {
		id       string
		implicit bool
		system   bool
		named    bool
	}{
		{implicit, true, false, false},
		{"system", false, true, false},
		{"alice.testnet", false, false, true},
		{"sub_account-1.alice", false, false, true},
		{"a", false, false, false},
		{"UPPER.testnet", false, false, false},
		{"double..dot", false, false, false},
		{"trailing.", false, false, false},
		{"", false, false, false},
	}

	for _, c := range cases {
		if got := wallet.IsImplicitAccount(c.id); got != c.implicit {
			t.Errorf("IsImplicitAccount(%q) = %v, want %v", c.id, got, c.implicit)
		}
		if got := wallet.IsSystemAccount(c.id); got != c.system {
			t.Errorf("IsSystemAccount(%q) = %v, want %v", c.id, got, c.system)
		}
		if got := wallet.IsNamedAccount(c.id); got != c.named {
			t.Errorf("IsNamedAccount(%q) = %v, want %v", c.id, got, c.named)
		}
	}
}
