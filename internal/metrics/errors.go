package metrics

import (
	"strings"
	"unicode"
)

var friendlyKinds = map[ErrorKind]string{
	ErrorKindHTTPStatus:        "HTTP error response",
	ErrorKindTimeout:           "Request timeout",
	ErrorKindConnectionRefused: "Connection refused",
	ErrorKindDNS:               "DNS lookup failed",
	ErrorKindCanceled:          "Request canceled",
	ErrorKindTransport:         "Transport error",
}

// FriendlyErrorName returns a human-friendly label for an error kind.
// Unknown kinds are humanized from their snake_case form.
func FriendlyErrorName(kind string) string {
	cleaned := strings.TrimSpace(kind)
	if cleaned == "" {
		return "Unknown error"
	}
	if alias, ok := friendlyKinds[ErrorKind(strings.ToLower(cleaned))]; ok {
		return alias
	}
	return humanize(cleaned)
}

func humanize(name string) string {
	words := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || unicode.IsSpace(r)
	})
	for i, word := range words {
		words[i] = capitalize(word)
	}
	if len(words) == 0 {
		return name
	}
	// Only the first word is capitalized, matching the built-in labels.
	for i := 1; i < len(words); i++ {
		if !isAllUpper(words[i]) {
			words[i] = strings.ToLower(words[i])
		}
	}
	return strings.Join(words, " ")
}

func isAllUpper(s string) bool {
	hasLetter := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}

func capitalize(s string) string {
	if s == "" || isAllUpper(s) {
		return s
	}
	runes := []rune(strings.ToLower(s))
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
