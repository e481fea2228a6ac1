package pattern

import "testing"

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		value   string
		want    bool
	}{
		{
			name:    "Exact match",
			pattern: "example.com",
			value:   "example.com",
			want:    true,
		},
		{
			name:    "Exact match is case insensitive",
			pattern: "Example.COM",
			value:   "example.com",
			want:    true,
		},
		{
			name:    "Exact mismatch",
			pattern: "example.com",
			value:   "example.org",
			want:    false,
		},
		{
			name:    "Subdomain wildcard matches subdomain",
			pattern: "*.example.com",
			value:   "mail.example.com",
			want:    true,
		},
		{
			name:    "Subdomain wildcard matches deep subdomain",
			pattern: "*.example.com",
			value:   "a.b.example.com",
			want:    true,
		},
		{
			name:    "Subdomain wildcard does not match bare domain",
			pattern: "*.example.com",
			value:   "example.com",
			want:    false,
		},
		{
			name:    "Subdomain wildcard does not match suffix lookalike",
			pattern: "*.example.com",
			value:   "notexample.com",
			want:    false,
		},
		{
			name:    "Prefix wildcard matches",
			pattern: "marketing.*",
			value:   "marketing.acme.com",
			want:    true,
		},
		{
			name:    "Prefix wildcard requires the dot",
			pattern: "marketing.*",
			value:   "marketingfoo.com",
			want:    false,
		},
		{
			name:    "Prefix wildcard does not match bare label",
			pattern: "marketing.*",
			value:   "marketing",
			want:    false,
		},
		{
			name:    "Infix wildcard matches",
			pattern: "*bank*",
			value:   "mybank.com",
			want:    true,
		},
		{
			name:    "Infix wildcard matches middle",
			pattern: "*bank*",
			value:   "alerts.bankofsomewhere.net",
			want:    true,
		},
		{
			name:    "Infix wildcard mismatch",
			pattern: "*bank*",
			value:   "shop.example.com",
			want:    false,
		},
		{
			name:    "Empty pattern never matches",
			pattern: "",
			value:   "example.com",
			want:    false,
		},
		{
			name:    "Empty value never matches",
			pattern: "*",
			value:   "",
			want:    false,
		},
		{
			name:    "Whitespace is trimmed",
			pattern: " example.com ",
			value:   "example.com",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(tt.pattern, tt.value); got != tt.want {
				t.Errorf("Matches(%q, %q) = %v, want %v", tt.pattern, tt.value, got, tt.want)
			}
		})
	}
}

func TestMatchesAny(t *testing.T) {
	patterns := []string{"*.gov", "*bank*", "marketing.*"}

	if !MatchesAny(patterns, "irs.gov") {
		t.Error("expected irs.gov to match *.gov")
	}
	if !MatchesAny(patterns, "alerts.mybank.com") {
		t.Error("expected alerts.mybank.com to match *bank*")
	}
	if MatchesAny(patterns, "example.com") {
		t.Error("expected example.com to match nothing")
	}
	if MatchesAny(nil, "example.com") {
		t.Error("expected empty pattern list to match nothing")
	}
}

func TestSpecificity(t *testing.T) {
	tests := []struct {
		pattern string
		want    int
	}{
		{"example.com", 11},
		{"*.example.com", 12},
		{"*", 0},
		{"*bank*", 4},
	}
	for _, tt := range tests {
		if got := Specificity(tt.pattern); got != tt.want {
			t.Errorf("Specificity(%q) = %d, want %d", tt.pattern, got, tt.want)
		}
	}
}

func TestSpecificityOrdersExactAboveWildcard(t *testing.T) {
	// An exact pattern for a domain must outrank the wildcard that also
	// covers it once the wildcard character is discounted.
	if Specificity("mail.example.com") <= Specificity("*.example.com") {
		t.Error("exact pattern should be more specific than covering wildcard")
	}
}
