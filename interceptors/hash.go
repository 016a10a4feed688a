package interceptors

import (
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"

	"golang.org/x/crypto/blake2b"
)

// Hasher turns encoded arguments into a fixed-size cache key.
// Hashers must be deterministic.
type Hasher interface {
	Hash(data []byte) string
}

// HasherFunc adapts a function to Hasher.
type HasherFunc func(data []byte) string

// Hash calls f(data).
func (f HasherFunc) Hash(data []byte) string {
	return f(data)
}

// SHA256Hasher returns hex-encoded SHA-256 digests (64 characters).
func SHA256Hasher() Hasher {
	return HasherFunc(func(data []byte) string {
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	})
}

// SHA512Hasher returns hex-encoded SHA-512 digests (128 characters).
func SHA512Hasher() Hasher {
	return HasherFunc(func(data []byte) string {
		sum := sha512.Sum512(data)
		return hex.EncodeToString(sum[:])
	})
}

// Blake2bHasher returns hex-encoded BLAKE2b-256 digests (64 characters).
// It is the default cache key hasher.
func Blake2bHasher() Hasher {
	return HasherFunc(func(data []byte) string {
		sum := blake2b.Sum256(data)
		return hex.EncodeToString(sum[:])
	})
}
