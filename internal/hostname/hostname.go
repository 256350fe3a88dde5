// Package hostname parses and validates the user-facing names portless
// assigns to running services, normalizing them into the canonical
// "<label>.localhost" form used as registry keys and Host-header match
// targets.
package hostname

import (
	"fmt"
	"strings"
)

// Parse normalizes input into a canonical "<label>.localhost" hostname. It
// trims whitespace, strips an http(s):// prefix and any path/query suffix,
// lowercases the result, and appends ".localhost" if missing, then
// validates the label grammar. Parse is idempotent: Parse(Parse(s)) always
// equals Parse(s) for any s that parses successfully.
func Parse(input string) (string, error) {
	s := strings.TrimSpace(input)
	s = strings.TrimPrefix(s, "https://")
	s = strings.TrimPrefix(s, "http://")

	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}

	host := strings.ToLower(s)

	if host == "" || host == ".localhost" {
		return "", fmt.Errorf("hostname: cannot be empty")
	}

	if !strings.HasSuffix(host, ".localhost") {
		host += ".localhost"
	}

	if err := validate(host); err != nil {
		return "", err
	}

	return host, nil
}

// validate checks the label preceding ".localhost" against the grammar
// [a-z0-9]([a-z0-9.-]*[a-z0-9])?: a single character must be alphanumeric;
// multiple characters must start and end with alphanumeric, with interior
// characters drawn from lowercase letters, digits, hyphens, and dots, and
// no two dots adjacent.
func validate(host string) error {
	label := strings.TrimSuffix(host, ".localhost")

	if label == "" {
		return fmt.Errorf("hostname: label cannot be empty")
	}

	if strings.Contains(label, "..") {
		return fmt.Errorf("hostname: %q has consecutive dots", label)
	}

	if !labelValid(label) {
		return fmt.Errorf("hostname: %q must contain only lowercase letters, digits, hyphens, and dots", label)
	}

	return nil
}

func labelValid(label string) bool {
	n := len(label)
	if n == 1 {
		return isAlnum(label[0])
	}

	if !isAlnum(label[0]) || !isAlnum(label[n-1]) {
		return false
	}

	for i := 1; i < n-1; i++ {
		c := label[i]
		if !isAlnum(c) && c != '-' && c != '.' {
			return false
		}
	}

	return true
}

func isAlnum(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
