// Package presets implements the preset-pattern layer: a bundled,
// versioned list of domain patterns known to be marketing, protected, or
// outright blockable.
package presets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/pattern"
)

const (
	// confidence for protected/transactional keep matches; never
	// overridden by downstream layers.
	keepConfidence = 0.95
	// confidence for known-marketing unsub matches.
	unsubConfidence = 0.85
	// confidence for known-bad block matches.
	blockConfidence = 0.95
)

// PatternSet is the versioned bundled pattern list.
type PatternSet struct {
	Version       string   `json:"version"`
	UnsubPatterns []string `json:"unsub_patterns"`
	KeepPatterns  []string `json:"keep_patterns"`
	BlockPatterns []string `json:"block_patterns"`
}

// Default returns the pattern set shipped with nothx.
func Default() PatternSet {
	return PatternSet{
		Version: "2025.08",
		UnsubPatterns: []string{
			// Common marketing prefixes
			"marketing.*",
			"promo.*",
			"promotions.*",
			"newsletter.*",
			"news.*",
			"deals.*",
			"offers.*",
			"sales.*",
			"noreply.*",
			"no-reply.*",
			"donotreply.*",
			"updates.*",
			"info.*",
			"hello.*",
			"team.*",
			// Marketing platforms
			"*.mailchimp.com",
			"*.sendgrid.net",
			"*.klaviyo.com",
			"*.sailthru.com",
			"*.exacttarget.com",
			"*.constantcontact.com",
			"*.campaign-archive.com",
		},
		KeepPatterns: []string{
			// Government
			"*.gov",
			"*.gov.uk",
			"*.gov.au",
			// Banking and finance
			"*bank*",
			"*credit*",
			"*finance*",
			"*.visa.com",
			"*.mastercard.com",
			"*.paypal.com",
			"*.stripe.com",
			// Health
			"*health*",
			"*medical*",
			"*hospital*",
			"*clinic*",
			"*pharmacy*",
			// Transactional senders of major services
			"*.amazon.com",
			"*.apple.com",
			"*.google.com",
			"*.microsoft.com",
			"*.github.com",
			// Account security
			"security.*",
			"alert.*",
			"alerts.*",
			"verify.*",
			"verification.*",
			"confirm.*",
			"confirmation.*",
			"receipt.*",
			"receipts.*",
			"order.*",
			"orders.*",
			"shipping.*",
			"delivery.*",
		},
		BlockPatterns: []string{
			"*.spam.com",
			"*.junk.com",
		},
	}
}

// LoadFile reads a pattern set override from a JSON file.
func LoadFile(path string) (PatternSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PatternSet{}, fmt.Errorf("failed to read pattern file: %w", err)
	}
	var set PatternSet
	if err := json.Unmarshal(data, &set); err != nil {
		return PatternSet{}, fmt.Errorf("failed to parse pattern file: %w", err)
	}
	return set, nil
}

// Layer matches senders against the preset pattern set.
type Layer struct {
	set    PatternSet
	logger *zap.Logger
}

// NewLayer creates the preset layer from a pattern set.
func NewLayer(set PatternSet, logger *zap.Logger) *Layer {
	return &Layer{set: set, logger: logger}
}

// Name returns the layer tag.
func (l *Layer) Name() string { return "preset" }

// Version returns the version of the loaded pattern set.
func (l *Layer) Version() string { return l.set.Version }

// Classify checks block patterns first, then keep, then unsub, and defers
// when nothing matches.
func (l *Layer) Classify(_ context.Context, sender *core.SenderStats) core.Decision {
	domain := sender.Domain

	for _, p := range l.set.BlockPatterns {
		if pattern.Matches(p, domain) {
			return core.Decided(core.Classification{
				EmailType:  core.EmailTypeMarketing,
				Action:     core.ActionBlock,
				Confidence: blockConfidence,
				Reasoning:  fmt.Sprintf("matched block pattern: %s", p),
				Layer:      l.Name(),
			})
		}
	}

	for _, p := range l.set.KeepPatterns {
		if pattern.Matches(p, domain) {
			return core.Decided(core.Classification{
				EmailType:  core.EmailTypeTransactional,
				Action:     core.ActionKeep,
				Confidence: keepConfidence,
				Reasoning:  fmt.Sprintf("matched keep pattern: %s", p),
				Layer:      l.Name(),
			})
		}
	}

	for _, p := range l.set.UnsubPatterns {
		if pattern.Matches(p, domain) {
			return core.Decided(core.Classification{
				EmailType:  core.EmailTypeMarketing,
				Action:     core.ActionUnsub,
				Confidence: unsubConfidence,
				Reasoning:  fmt.Sprintf("matched unsub pattern: %s", p),
				Layer:      l.Name(),
			})
		}
	}

	return core.Deferred()
}
