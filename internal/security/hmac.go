package security

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// HMACSHA512Hex returns the lowercase hex HMAC-SHA512 of message
func HMACSHA512Hex(secret, message string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// HMACSHA256Hex returns the lowercase hex HMAC-SHA256 of message
func HMACSHA256Hex(secret, message string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}

// EqualHexSignatures compares two hex signatures in constant time, ignoring case.
// Signatures of different length never match.
func EqualHexSignatures(expected, received string) bool {
	a := []byte(strings.ToLower(strings.TrimSpace(expected)))
	b := []byte(strings.ToLower(strings.TrimSpace(received)))
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	return subtle.ConstantTimeCompare(a, b) == 1
}
