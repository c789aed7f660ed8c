/*
Package randx generates identifiers from cryptographically secure randomness.

Connection ids are fixed-length Base62 strings; user and message ids are UUID v4.
*/
package randx

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/google/uuid"
)

const (
	// Base62Chars defines the character set used for Base62 encoding (0-9, A-Z, a-z).
	Base62Chars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

	// Base62Len is the total number of characters in the Base62 character set (62).
	Base62Len = int64(len(Base62Chars))

	// ConnectionIDLength is the fixed length of a generated connection id.
	ConnectionIDLength = 20
)

// base62 returns n random Base62 characters.
func base62(n int) (string, error) {
	result := make([]byte, n)

	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(Base62Len))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}

		result[i] = Base62Chars[num.Int64()]
	}

	return string(result), nil
}

// ConnectionID generates the opaque id the server assigns to a new connection.
func ConnectionID() (string, error) {
	return base62(ConnectionIDLength)
}

// IsValidConnectionID reports whether id has the shape produced by ConnectionID.
func IsValidConnectionID(id string) bool {
	if len(id) != ConnectionIDLength {
		return false
	}

	for _, char := range id {
		if !strings.ContainsRune(Base62Chars, char) {
			return false
		}
	}

	return true
}

// UserID generates a new user id.
func UserID() string {
	return uuid.NewString()
}

// MessageID generates a standard UUID v4 string identifying a chat message.
func MessageID() string {
	return uuid.NewString()
}

// ObjectKey builds a random object-store key under prefix keeping ext.
func ObjectKey(prefix, ext string) string {
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
}
