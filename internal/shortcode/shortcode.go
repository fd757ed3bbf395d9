package shortcode

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
)

const (
	// GeneratedLength is the fixed length of generated codes.
	GeneratedLength = 8

	// MinCustomLength and MaxCustomLength bound user-supplied codes.
	MinCustomLength = 4
	MaxCustomLength = 32
)

var codePattern = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// Reserved codes that would shadow routes and cannot be used
var reservedCodes = map[string]bool{
	"health":    true,
	"shorturls": true,
	"qrcode":    true,
	"api":       true,
	"stats":     true,
}

// Generate produces a random URL-safe code of GeneratedLength characters.
// Uniqueness is not guaranteed; callers enforce it against the store.
func Generate() (string, error) {
	// 6 random bytes encode to 8 base64 characters
	bytes := make([]byte, 6)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}

	encoded := base64.URLEncoding.EncodeToString(bytes)
	return encoded[:GeneratedLength], nil
}

// IsValidCustom reports whether a user-supplied code is acceptable:
// 4-32 characters, letters/digits/hyphen/underscore, not a reserved word.
func IsValidCustom(code string) bool {
	if len(code) < MinCustomLength || len(code) > MaxCustomLength {
		return false
	}
	if !codePattern.MatchString(code) {
		return false
	}
	return !reservedCodes[strings.ToLower(code)]
}
