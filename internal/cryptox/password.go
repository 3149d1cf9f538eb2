// Package cryptox wraps the password hashing scheme used by the credential
// store: argon2id over a random per-user salt.
package cryptox

import (
	"crypto/subtle"

	"github.com/dmitrijs2005/podmate/internal/common"
	"golang.org/x/crypto/argon2"
)

const (
	SaltSize = 32
	KeySize  = 32

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// NewSalt returns SaltSize random bytes.
func NewSalt() []byte {
	return common.GenerateRandByteArray(SaltSize)
}

// HashPassword derives the stored verifier for password under salt.
func HashPassword(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, argonTime, argonMemory, argonThreads, KeySize)
}

// VerifyPassword reports whether password hashes to verifier under salt.
// The comparison is constant time.
func VerifyPassword(password, salt, verifier []byte) bool {
	candidate := HashPassword(password, salt)
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(candidate, verifier) == 1
}
