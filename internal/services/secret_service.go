package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// SecretVerifier checks a candidate client secret against the stored
// keyed hash. A single process-wide encryption key is loaded at
// startup; rotating it invalidates every stored hash.
type SecretVerifier interface {
	// HashSecret computes the keyed hash stored for a new secret.
	HashSecret(secret string) string
	// Verify reports whether candidate matches storedHash. An empty
	// storedHash always fails: a client with no stored secret cannot
	// authenticate via secret.
	Verify(storedHash, candidate string) bool
}

type hmacSecretVerifier struct {
	key []byte
}

func NewSecretVerifier(encryptionKey []byte) SecretVerifier {
	return &hmacSecretVerifier{key: encryptionKey}
}

func (v *hmacSecretVerifier) HashSecret(secret string) string {
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(secret))
	return hex.EncodeToString(mac.Sum(nil))
}

func (v *hmacSecretVerifier) Verify(storedHash, candidate string) bool {
	if storedHash == "" {
		return false
	}
	stored, err := hex.DecodeString(storedHash)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, v.key)
	mac.Write([]byte(candidate))
	// hmac.Equal is constant time
	return hmac.Equal(stored, mac.Sum(nil))
}
