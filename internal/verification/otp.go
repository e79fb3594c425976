package verification

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"math/big"
)

var codeSpace = big.NewInt(1_000_000)

// GenerateCode returns a 6-digit settlement code, zero-padded ("042519").
// Drawn uniformly from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// HashCode returns the hex-encoded SHA-256 of the code. Only the hash is
// stored; the plain code exists in memory and in the SMS body only.
func HashCode(code string) string {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:])
}

// CodeEqual compares the provided code against a stored hash in constant time.
func CodeEqual(providedCode, storedHash string) bool {
	got := HashCode(providedCode)
	return subtle.ConstantTimeCompare([]byte(got), []byte(storedHash)) == 1
}
