package domain

import (
	"net/url"
	"strings"
)

const (
	// CodeLength is the number of digits in a join code.
	CodeLength = 6
	// MinCode and MaxCode bound the join code space (no leading zero).
	MinCode = 100000
	MaxCode = 999999
)

// ParseJoinCode accepts either a bare code or a URL carrying it in the
// "code" query parameter (the QR payload) and returns the normalized code.
func ParseJoinCode(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if strings.Contains(raw, "?") || strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", ErrInvalidCode
		}
		raw = strings.TrimSpace(u.Query().Get("code"))
	}
	if !ValidCode(raw) {
		return "", ErrInvalidCode
	}
	return raw, nil
}

// ValidCode reports whether code is a well-formed join code.
func ValidCode(code string) bool {
	if len(code) != CodeLength || code[0] == '0' {
		return false
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
