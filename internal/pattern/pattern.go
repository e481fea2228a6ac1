// Package pattern implements the glob matching shared by the rule and
// preset layers. Matching is pure, case-insensitive, and allocation-light.
package pattern

import (
	"path"
	"strings"
)

// Matches reports whether value matches pattern.
//
// Supported forms:
//   - "example.com"   exact match
//   - "*.example.com" strict subdomains of example.com only
//   - "marketing.*"   values beginning with "marketing."
//   - "*bank*"        general glob with one or more '*' wildcards
//
// Note on "*.example.com": the bare domain "example.com" deliberately does
// NOT match. Earlier implementations collapsed the two cases; matching the
// bare domain now requires a separate exact pattern.
func Matches(pat, value string) bool {
	pat = strings.ToLower(strings.TrimSpace(pat))
	value = strings.ToLower(strings.TrimSpace(value))
	if pat == "" || value == "" {
		return false
	}

	if pat == value {
		return true
	}

	// "marketing.*": prefix form, the wildcard covers everything after the
	// first label.
	if strings.HasSuffix(pat, ".*") && !strings.Contains(pat[:len(pat)-2], "*") {
		prefix := pat[:len(pat)-2]
		return strings.HasPrefix(value, prefix+".")
	}

	// "*.example.com": strict subdomain form.
	if strings.HasPrefix(pat, "*.") && !strings.Contains(pat[2:], "*") {
		suffix := pat[1:] // ".example.com"
		return strings.HasSuffix(value, suffix) && len(value) > len(suffix)
	}

	// General glob. Domains contain no '/' so path.Match is a safe
	// fnmatch-style matcher here.
	if strings.Contains(pat, "*") {
		ok, err := path.Match(pat, value)
		return err == nil && ok
	}

	return false
}

// MatchesAny reports whether value matches any of the given patterns.
func MatchesAny(patterns []string, value string) bool {
	for _, p := range patterns {
		if Matches(p, value) {
			return true
		}
	}
	return false
}

// Specificity ranks how precise a pattern is, for rule-precedence
// ordering: more literal characters mean a more specific pattern.
func Specificity(pat string) int {
	return len(strings.ReplaceAll(pat, "*", ""))
}
