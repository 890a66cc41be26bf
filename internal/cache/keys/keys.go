package keys

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"

	"github.com/mohammed-shakir/airport-proximity/internal/core/model"
)

// Version is bumped whenever cached bodies change shape.
const Version = "v1"

// Key identifies one rendered response. kind is the endpoint ("nearest",
// "map"); the allow-list is hashed so reordering its members gives the same
// key; dataset is the loaded data fingerprint.
func Key(kind, code string, mode model.FilterMode, allow model.CountryAllowList, dataset uint64) string {
	kindSafe := sanitizeForKey(strings.TrimSpace(kind))
	codeSafe := sanitizeForKey(strings.ToUpper(strings.TrimSpace(code)))

	var listSum uint64
	if mode == model.FilterFriendly {
		listSum = xxhash.Sum64String(strings.Join(allow.Names(), "\x00"))
	}

	return fmt.Sprintf("nearest:%s:%s:%s:filter=%s:l=%016x:d=%016x",
		Version, kindSafe, codeSafe, sanitizeForKey(string(mode)), listSum, dataset)
}

func sanitizeForKey(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(s))

	var prev rune
	for _, r := range s {
		out := rune(0)
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\v' || r == '\f':
			out = '_'
		case isAlphaNum(r) || r == '_' || r == '-':
			out = r
		default:
			// ':' separates key parts, so it is replaced like any other rune
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') ||
		(r >= 'A' && r <= 'Z') ||
		unicode.IsDigit(r)
}
