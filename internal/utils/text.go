// Package utils holds small text helpers shared by the heuristic and AI
// layers.
package utils

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// tlds are domain labels that carry no signal for keyword learning.
var tlds = map[string]struct{}{
	"com": {}, "org": {}, "net": {}, "io": {}, "co": {}, "ai": {},
	"app": {}, "dev": {}, "edu": {}, "gov": {}, "mil": {}, "us": {},
	"uk": {}, "ca": {}, "au": {}, "de": {}, "fr": {},
}

// skipParts are infrastructure labels that appear in many domains.
var skipParts = map[string]struct{}{
	"www": {}, "mail": {}, "email": {}, "smtp": {}, "mx": {},
}

// ExtractKeywords splits a domain into the labels worth learning from.
// "marketing.example.com" yields ["marketing", "example"]; TLDs, short
// labels, and infrastructure labels are dropped.
func ExtractKeywords(domain string) []string {
	domain = Normalize(domain)
	var keywords []string
	for _, part := range strings.FieldsFunc(domain, func(r rune) bool {
		return r == '.' || r == '-' || r == '_'
	}) {
		if len(part) < 3 {
			continue
		}
		if _, ok := tlds[part]; ok {
			continue
		}
		if _, ok := skipParts[part]; ok {
			continue
		}
		keywords = append(keywords, part)
	}
	return keywords
}

// Normalize lowercases and NFKC-normalizes text so that visually
// equivalent subjects and domains compare equal.
func Normalize(text string) string {
	return strings.ToLower(norm.NFKC.String(text))
}

// TruncateText truncates text to maxSize bytes while keeping the result
// valid UTF-8.
func TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}
	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated
}
