package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name   string
		domain string
		want   []string
	}{
		{
			name:   "Simple domain",
			domain: "newsletter.example.com",
			want:   []string{"newsletter", "example"},
		},
		{
			name:   "TLD is dropped",
			domain: "shop.co",
			want:   []string{"shop"},
		},
		{
			name:   "Infrastructure labels are dropped",
			domain: "mail.bigcorp.com",
			want:   []string{"bigcorp"},
		},
		{
			name:   "Short labels are dropped",
			domain: "ab.example.io",
			want:   []string{"example"},
		},
		{
			name:   "Hyphens and underscores split",
			domain: "daily-news_weekly.example.org",
			want:   []string{"daily", "news", "weekly", "example"},
		},
		{
			name:   "Case is normalized",
			domain: "NewsLetter.Example.COM",
			want:   []string{"newsletter", "example"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractKeywords(tt.domain))
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "hello world", Normalize("HELLO World"))
	// Fullwidth characters compare equal after NFKC.
	assert.Equal(t, "sale", Normalize("ＳＡＬＥ"))
}

func TestTruncateText(t *testing.T) {
	assert.Equal(t, "short", TruncateText("short", 100))
	assert.Equal(t, "abc", TruncateText("abcdef", 3))
	assert.Equal(t, "abcdef", TruncateText("abcdef", 0), "non-positive max disables truncation")

	// Never split a multi-byte rune.
	got := TruncateText("héllo", 2)
	assert.Equal(t, "h", got)
}
