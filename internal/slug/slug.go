package slug

import (
	"crypto/rand"
	"fmt"
	"regexp"
)

const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const (
	MinLength = 3
	MaxLength = 20
)

var validPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Generate returns a random slug of the given length drawn from
// [a-zA-Z0-9]. Uniqueness is not guaranteed; callers retry on
// collision against the store.
func Generate(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("slug length must be positive, got %d", length)
	}

	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("reading random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = charset[int(b)%len(charset)]
	}
	return string(buf), nil
}

// Valid reports whether s is acceptable as a custom slug: 3 to 20
// characters from [a-zA-Z0-9_-].
func Valid(s string) bool {
	if len(s) < MinLength || len(s) > MaxLength {
		return false
	}
	return validPattern.MatchString(s)
}
