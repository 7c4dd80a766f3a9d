package password

import "github.com/alexedwards/argon2id"

// Hash derives a salted argon2id hash with the library defaults. A fresh
// random salt is generated on every call; the result is a self-describing
// PHC-encoded string.
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, argon2id.DefaultParams)
}

// Verify re-derives the hash under the stored parameters and compares in
// constant time. A malformed stored hash returns an error of the same kind
// as any other verify failure; callers must not branch on the difference.
func Verify(encodedHash, password string) (bool, error) {
	return argon2id.ComparePasswordAndHash(password, encodedHash)
}
