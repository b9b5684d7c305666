package security

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	emailRe     = regexp.MustCompile(`([A-Za-z0-9._%+-])[A-Za-z0-9._%+-]*(@[A-Za-z0-9.-]+\.[A-Za-z]{2,})`)
	kvSecretRe  = regexp.MustCompile(`(?i)\b(password|pass|secret|token|api[_-]?key|authorization)\s*[:=]\s*([^\s,;]+)`)
	bearerRe    = regexp.MustCompile(`(?i)\bBearer\s+([A-Za-z0-9._\-]+)`)
	longTokenRe = regexp.MustCompile(`[A-Za-z0-9_\-.]{24,}`)
)

// Redact masks emails, key=value secrets, bearer tokens and long token-like
// strings. Surrounding text is preserved.
func Redact(s string) string {
	if s == "" {
		return s
	}

	s = emailRe.ReplaceAllString(s, "${1}***${2}")
	s = kvSecretRe.ReplaceAllString(s, "${1}=***")
	s = bearerRe.ReplaceAllString(s, "Bearer ****")
	s = longTokenRe.ReplaceAllStringFunc(s, maskLongToken)
	return s
}

// Slugs and host names are long too; only strings mixing letters and
// digits look like credentials.
func maskLongToken(token string) string {
	if strings.Contains(token, "***") || !hasLetterAndDigit(token) {
		return token
	}
	return MaskToken(token)
}

// MaskToken keeps the first and last four characters of token.
func MaskToken(token string) string {
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "…" + token[len(token)-4:]
}

func hasLetterAndDigit(s string) bool {
	var letter, digit bool
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsLetter(r):
			letter = true
		}
	}
	return letter && digit
}
