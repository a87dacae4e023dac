package normalize

import (
	"strings"
	"unicode"
)

// NormalizeLabel lower-cases s and strips whitespace, punctuation and symbols,
// keeping letters (any script) and digits.
func NormalizeLabel(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func containsAny(label string, keywords []string) bool {
	for _, keyword := range keywords {
		keyword = NormalizeLabel(keyword)
		if keyword != "" && strings.Contains(label, keyword) {
			return true
		}
	}
	return false
}

// Matches reports whether the normalized label satisfies the rule.
func (r FieldRule) Matches(label string) bool {
	if label == "" {
		return false
	}
	if containsAny(label, r.NoneOf) {
		return false
	}
	if containsAny(label, r.AnyOf) {
		return true
	}
	if len(r.AllOf) == 0 {
		return false
	}
	for _, group := range r.AllOf {
		if !containsAny(label, group) {
			return false
		}
	}
	return true
}

// IsSubtotalLabel reports whether a primary-key cell is a total or subtotal
// marker. Numbers are ignored. The cell matches when it equals a marker or its
// trailing words spell one ("Grand Total", "May Total"); "Total Travel" does
// not. Hangul markers also match as a prefix or suffix ("5월합계").
func (r Ruleset) IsSubtotalLabel(cell string) bool {
	words := labelWords(cell)
	if len(words) == 0 {
		return false
	}
	label := strings.Join(words, "")
	for _, marker := range r.SubtotalMarkers {
		marker = NormalizeLabel(marker)
		if marker == "" {
			continue
		}
		if label == marker {
			return true
		}
		if isHangul(marker) {
			if strings.HasPrefix(label, marker) || strings.HasSuffix(label, marker) {
				return true
			}
			continue
		}
		for i := 1; i < len(words); i++ {
			if strings.Join(words[i:], "") == marker {
				return true
			}
		}
	}
	return false
}

// labelWords splits a cell into lower-cased letter and digit runs, dropping
// runs that are only digits.
func labelWords(cell string) []string {
	fields := strings.FieldsFunc(strings.ToLower(cell), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	words := fields[:0]
	for _, f := range fields {
		if strings.IndexFunc(f, unicode.IsLetter) >= 0 {
			words = append(words, f)
		}
	}
	return words
}

func isHangul(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Hangul, r) {
			return true
		}
	}
	return false
}
