package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

var hashSalt string

func init() {
	hashSalt = os.Getenv("LOG_HASH_SALT")
	if hashSalt == "" {
		hashSalt = "finadm-default-salt"
	}
}

// InitHashSaltForTesting overrides the salt used by HashUserID.
func InitHashSaltForTesting(salt string) {
	hashSalt = salt
}

// HashUserID creates a privacy-preserving hash of a user ID.
func HashUserID(userID string) string {
	if userID == "" {
		return "<none>"
	}
	hash := sha256.Sum256([]byte(userID + ":" + hashSalt))
	return hex.EncodeToString(hash[:])[:8]
}

// RedactToken keeps the last four characters of a credential.
func RedactToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	if len(token) <= 8 {
		return "<redacted>"
	}
	return "..." + token[len(token)-4:]
}

// RedactEmail masks the local part of an email address.
func RedactEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return SanitizeText(email)
	}
	return email[:1] + "***" + email[at:]
}

// SanitizeDescription redacts a description but preserves length information.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	words := strings.Fields(desc)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), len(desc))
}

// SanitizeText is a general-purpose sanitizer for any user-provided text.
func SanitizeText(text string) string {
	if text == "" {
		return "<empty>"
	}

	if len(text) <= 10 {
		return fmt.Sprintf("<%d chars>", len(text))
	}

	return fmt.Sprintf("%s...<%d chars>", text[:3], len(text))
}
