// Package heuristics implements the rule-of-thumb scoring layer, the
// last decision source before manual review. It never defers.
package heuristics

import (
	"context"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/learning"
	"github.com/nothx/nothx/internal/utils"
)

// Subject and domain signal patterns, compiled once at package load.
var (
	spamSubjectPatterns = compile([]string{
		`\b(sale|deals?|discount|off|free|limited|urgent|act now)\b`,
		`\d+%\s*(off|discount)`,
		`(exclusive|special)\s+offer`,
		`(last chance|final|ends? (today|soon|tonight))`,
		`(winner|won|prize|congratulations)`,
		`(click here|open now|don't miss)`,
		`^\s*re:\s*re:`, // fake reply chains
		`[!?]{2,}`,
	})

	safeSubjectPatterns = compile([]string{
		`(order|receipt|invoice|confirmation|shipping|delivery|tracking)`,
		`(password|verify|verification|security|2fa|two-factor|login)`,
		`(account|statement|billing|payment)`,
		`(welcome to|thanks for signing up)`,
		`#\d{5,}`, // order numbers
	})

	coldOutreachPatterns = compile([]string{
		`(quick question|following up|reaching out|touch base)`,
		`(i noticed|i saw|i found)`,
		`(your company|your team|your business)`,
		`(demo|call|meeting|chat|connect)`,
	})

	spamDomainPatterns = compile([]string{
		`^(marketing|promo|sales|deals|offers|newsletter|news|info|hello|team|noreply|no-reply|donotreply)\.`,
	})

	safeDomainPatterns = compile([]string{
		`^(security|alerts?|notifications?|receipts?|orders?|shipping|delivery|support|help|service)\.`,
		`^(verify|verification|confirm|confirmation)\.`,
	})
)

func compile(raw []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(raw))
	for i, r := range raw {
		out[i] = regexp.MustCompile(`(?i)` + r)
	}
	return out
}

// Scorer scores senders on a 0-100 scale (higher = more likely unwanted)
// and maps the score to an action with confidence. The learned profile
// attenuates the open-rate and volume adjustments per user tolerance.
type Scorer struct {
	cfg     config.ScoringConfig
	profile core.LearningProfile
	logger  *zap.Logger
}

// NewScorer creates a scorer bound to one learning profile. Rebuild the
// scorer when a newer profile is loaded; the scorer itself never mutates.
func NewScorer(cfg config.ScoringConfig, profile core.LearningProfile, logger *zap.Logger) *Scorer {
	return &Scorer{cfg: cfg, profile: profile, logger: logger}
}

// Name returns the layer tag.
func (s *Scorer) Name() string { return "heuristics" }

// Score computes the 0-100 spam score for one sender. Adjustments are
// applied from the most extreme threshold down so overlapping ranges
// cannot shadow each other.
func (s *Scorer) Score(sender *core.SenderStats) int {
	cfg := s.cfg
	openWeight, volumeWeight, keywordBoost := learning.Adjustments(s.profile, sender.Domain)

	score := cfg.BaseScore

	// Learned keyword boost, clamped.
	score += clamp(keywordBoost, -cfg.KeywordBoostMax, cfg.KeywordBoostMax)

	// Open-rate adjustment, most extreme tier first.
	openAdj := 0
	switch {
	case sender.OpenRate > 75:
		openAdj = cfg.OpenRateVeryHigh
	case sender.OpenRate > 50:
		openAdj = cfg.OpenRateHigh
	case sender.OpenRate < 5:
		openAdj = cfg.OpenRateVeryLow
	}
	score += int(float64(openAdj) * openWeight)

	// Volume adjustment.
	volumeAdj := 0
	switch {
	case sender.TotalEmails > 50:
		volumeAdj = cfg.VolumeHigh
	case sender.TotalEmails > 20:
		volumeAdj = cfg.VolumeMedium
	}
	score += int(float64(volumeAdj) * volumeWeight)

	// Subject signals: at most one hit per category per subject.
	for _, subject := range sender.SampleSubjects {
		subject = utils.Normalize(subject)
		if matchesAny(spamSubjectPatterns, subject) {
			score += cfg.SubjectSpamPattern
		}
		if matchesAny(safeSubjectPatterns, subject) {
			score += cfg.SubjectSafePattern
		}
		if matchesAny(coldOutreachPatterns, subject) {
			score += cfg.SubjectColdOutreach
		}
	}

	// Domain prefix signals.
	domain := utils.Normalize(sender.Domain)
	if matchesAny(spamDomainPatterns, domain) {
		score += cfg.DomainSpamPattern
	}
	if matchesAny(safeDomainPatterns, domain) {
		score += cfg.DomainSafePattern
	}

	// Senders offering a standard opt-out are safer to act on
	// automatically; senders without one lean slightly toward keep.
	if sender.HasUnsubscribe {
		score += cfg.UnsubscribeHeader
	} else {
		score += cfg.NoUnsubscribeHeader
	}

	return clamp(score, 0, 100)
}

// Classify maps the score to an action and confidence. This layer is the
// layer of last resort and always decides; mid-range scores become review
// decisions below the action threshold.
func (s *Scorer) Classify(_ context.Context, sender *core.SenderStats) core.Decision {
	score := s.Score(sender)
	cfg := s.cfg

	switch {
	case score >= cfg.UnsubScoreThreshold:
		isCold := s.isColdOutreach(sender)
		action := core.ActionUnsub
		emailType := core.EmailTypeMarketing
		reasoning := fmt.Sprintf("heuristic score: %d/100 (threshold: %d)", score, cfg.UnsubScoreThreshold)
		if isCold {
			action = core.ActionBlock
			emailType = core.EmailTypeColdOutreach
			reasoning += " (cold outreach detected)"
		}
		return core.Decided(core.Classification{
			EmailType:  emailType,
			Action:     action,
			Confidence: scaleConfidence(score, cfg.UnsubScoreThreshold, 100),
			Reasoning:  reasoning,
			Layer:      s.Name(),
		})

	case score <= cfg.KeepScoreThreshold:
		return core.Decided(core.Classification{
			EmailType:  core.EmailTypeTransactional,
			Action:     core.ActionKeep,
			Confidence: scaleConfidence(cfg.KeepScoreThreshold-score, 0, cfg.KeepScoreThreshold),
			Reasoning:  fmt.Sprintf("heuristic score: %d/100 (threshold: %d)", score, cfg.KeepScoreThreshold),
			Layer:      s.Name(),
		})

	default:
		return core.Decided(core.Classification{
			EmailType:  core.EmailTypeUnknown,
			Action:     core.ActionReview,
			Confidence: 0.5,
			Reasoning:  fmt.Sprintf("heuristic score: %d/100 between thresholds (%d-%d)", score, cfg.KeepScoreThreshold, cfg.UnsubScoreThreshold),
			Layer:      s.Name(),
		})
	}
}

// scaleConfidence maps score in [lo,hi] linearly onto [0.5,1.0].
func scaleConfidence(score, lo, hi int) float64 {
	if hi <= lo {
		return 0.5
	}
	conf := 0.5 + 0.5*float64(score-lo)/float64(hi-lo)
	if conf > 1.0 {
		return 1.0
	}
	if conf < 0.5 {
		return 0.5
	}
	return conf
}

func (s *Scorer) isColdOutreach(sender *core.SenderStats) bool {
	for _, subject := range sender.SampleSubjects {
		if matchesAny(coldOutreachPatterns, utils.Normalize(subject)) {
			return true
		}
	}
	return false
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
