package wallet

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"regexp"

	"github.com/mr-tron/base58"

	"github.com/tixhive/auth-api/internal/domain"
)

// Keypair is freshly generated wallet key material. The secret key is handed
// to the caller exactly once and must be sealed before it reaches storage.
type Keypair struct {
	PublicKey ed25519.PublicKey
	SecretKey ed25519.PrivateKey
	// AccountID is the implicit-account form: hex of the public key.
	AccountID string
}

// accountRe covers named ledger accounts: 2-64 chars of lowercase alnum parts
// separated by single separators.
var accountRe = regexp.MustCompile(`^([a-z0-9]+[-_.])*[a-z0-9]+$`)

var implicitRe = regexp.MustCompile(`^[0-9a-f]{64}$`)

// GenerateKeypair produces an ed25519 keypair and derives the implicit
// account id. The classification re-check guards against key-size drift in
// the underlying library.
func GenerateKeypair() (*Keypair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}

	accountID := hex.EncodeToString(pub)
	if !IsImplicitAccount(accountID) {
		return nil, domain.ErrBadImplicitAccount
	}

	return &Keypair{
		PublicKey: pub,
		SecretKey: priv,
		AccountID: accountID,
	}, nil
}

// Verify reports whether sig is a valid signature of message under pub.
// Pure; no state.
func Verify(message []byte, pub ed25519.PublicKey, sig []byte) bool {
	if len(pub) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(pub, message, sig)
}

// Sign signs message with the keypair's secret key.
func (k *Keypair) Sign(message []byte) []byte {
	return ed25519.Sign(k.SecretKey, message)
}

// PublicKeyB58 is the wire form of the public key.
func (k *Keypair) PublicKeyB58() string {
	return base58.Encode(k.PublicKey)
}

// SecretKeyB58 is the wire form of the secret key. Returned once to the
// caller; never persisted unencrypted.
func (k *Keypair) SecretKeyB58() string {
	return base58.Encode(k.SecretKey)
}

// DecodeKey decodes base58-encoded key or signature material.
func DecodeKey(s string) ([]byte, error) {
	b, err := base58.Decode(s)
	if err != nil {
		return nil, fmt.Errorf("decode base58: %w", err)
	}
	return b, nil
}

// IsImplicitAccount reports whether id is the hex form of an ed25519 public
// key (64 lowercase hex chars).
func IsImplicitAccount(id string) bool {
	return implicitRe.MatchString(id)
}

// IsSystemAccount reports whether id is the reserved system account.
func IsSystemAccount(id string) bool {
	return id == "system"
}

// IsNamedAccount reports whether id is a well-formed, human-readable account
// id that is neither implicit nor reserved.
func IsNamedAccount(id string) bool {
	if len(id) < 2 || len(id) > 64 {
		return false
	}
	if !accountRe.MatchString(id) {
		return false
	}
	return !IsImplicitAccount(id) && !IsSystemAccount(id)
}
