// Package learning derives per-user weight adjustments from recorded
// corrections. Update is a pure function over LearningProfile values; the
// storage collaborator owns persistence between runs.
package learning

import (
	"math"
	"time"

	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/utils"
)

const (
	// Weight bounds keep a handful of corrections from producing runaway
	// drift; updates clamp rather than error.
	minWeight = 0.2
	maxWeight = 1.5

	// Step sizes for weight nudges.
	againstStep = -0.05
	withStep    = 0.02

	// Recent corrections count more; weight halves every 30 days.
	recencyHalfLifeDays = 30.0

	// A keyword needs this many samples before it influences scoring.
	minKeywordSamples = 3

	// Keep-rate consistency required before a keyword boosts scoring.
	keywordConsistency = 0.7

	// Bound on the combined keyword boost.
	keywordBoostMax = 30
)

// Update folds one correction into the profile and returns the new
// profile. The input profile is never mutated.
func Update(p core.LearningProfile, c core.Correction) core.LearningProfile {
	out := p.Clone()
	if out.Keywords == nil {
		out.Keywords = map[string]core.KeywordStat{}
	}
	if out.OpenRateWeight == 0 {
		out.OpenRateWeight = 1.0
	}
	if out.VolumeWeight == 0 {
		out.VolumeWeight = 1.0
	}

	updateKeywords(&out, c)
	updateOpenRateWeight(&out, c)
	updateVolumeWeight(&out, c)

	out.Version++
	out.UpdatedAt = c.Timestamp
	return out
}

// updateKeywords learns keep-rate associations for the domain's keywords
// using a recency-weighted moving average.
func updateKeywords(p *core.LearningProfile, c core.Correction) {
	keywords := utils.ExtractKeywords(c.Domain)
	keywords = append(keywords, c.Keywords...)

	value := 0.0
	if c.Corrected == core.ActionKeep {
		value = 1.0
	}
	weight := recencyWeight(c.Timestamp)

	seen := map[string]struct{}{}
	for _, kw := range keywords {
		if _, dup := seen[kw]; dup || kw == "" {
			continue
		}
		seen[kw] = struct{}{}

		stat, ok := p.Keywords[kw]
		if !ok {
			p.Keywords[kw] = core.KeywordStat{
				Value:       value,
				Samples:     1,
				LastUpdated: c.Timestamp,
			}
			continue
		}
		total := float64(stat.Samples) + weight
		stat.Value = (stat.Value*float64(stat.Samples) + value*weight) / total
		stat.Samples++
		stat.LastUpdated = c.Timestamp
		p.Keywords[kw] = stat
	}
}

// updateOpenRateWeight learns how much open rate matters to the user.
// Restoring a low-open-rate sender, or dropping a high-open-rate one,
// means the user does not follow the open-rate heuristic.
func updateOpenRateWeight(p *core.LearningProfile, c core.Correction) {
	goesAgainst := (c.OpenRate < 20 && c.Corrected == core.ActionKeep) ||
		(c.OpenRate > 50 && (c.Corrected == core.ActionUnsub || c.Corrected == core.ActionBlock))

	step := withStep
	if goesAgainst {
		step = againstStep
	}
	p.OpenRateWeight = clampWeight(p.OpenRateWeight + step)
	p.OpenRateSamples++
}

// updateVolumeWeight learns the user's volume tolerance. Keeping a
// high-volume sender or blocking a low-volume one means volume is a weak
// signal for this user.
func updateVolumeWeight(p *core.LearningProfile, c core.Correction) {
	highVolume := c.EmailCount > 30
	lowVolume := c.EmailCount > 0 && c.EmailCount < 10

	goesAgainst := (highVolume && c.Corrected == core.ActionKeep) ||
		(lowVolume && (c.Corrected == core.ActionUnsub || c.Corrected == core.ActionBlock))

	step := withStep
	if goesAgainst {
		step = againstStep
	}
	p.VolumeWeight = clampWeight(p.VolumeWeight + step)
	p.VolumeSamples++
}

// Adjustments returns the multipliers and keyword boost the heuristic
// scorer applies for one domain.
func Adjustments(p core.LearningProfile, domain string) (openRateWeight, volumeWeight float64, keywordBoost int) {
	openRateWeight = p.OpenRateWeight
	if openRateWeight == 0 {
		openRateWeight = 1.0
	}
	volumeWeight = p.VolumeWeight
	if volumeWeight == 0 {
		volumeWeight = 1.0
	}
	return openRateWeight, volumeWeight, KeywordBoost(p, domain)
}

// KeywordBoost converts learned keep-rates into a score adjustment:
// keywords the user keeps lower the score, keywords they drop raise it.
func KeywordBoost(p core.LearningProfile, domain string) int {
	boost := 0
	for _, kw := range utils.ExtractKeywords(domain) {
		stat, ok := p.Keywords[kw]
		if !ok || stat.Samples < minKeywordSamples || Confidence(stat.Samples) < 0.5 {
			continue
		}
		if stat.Value > keywordConsistency {
			boost -= int((stat.Value - 0.5) * 20)
		} else if stat.Value < 1-keywordConsistency {
			boost += int((0.5 - stat.Value) * 20)
		}
	}
	if boost > keywordBoostMax {
		return keywordBoostMax
	}
	if boost < -keywordBoostMax {
		return -keywordBoostMax
	}
	return boost
}

// Confidence maps a sample count to an asymptotic 0-1 confidence:
// 1 sample is about 0.28, 3 about 0.63, 10 about 0.96.
func Confidence(samples int) float64 {
	return 1 - math.Exp(-float64(samples)/3)
}

func recencyWeight(t time.Time) float64 {
	days := time.Since(t).Hours() / 24
	if days < 0 {
		days = 0
	}
	return math.Exp(-days / recencyHalfLifeDays)
}

func clampWeight(v float64) float64 {
	if v < minWeight {
		return minWeight
	}
	if v > maxWeight {
		return maxWeight
	}
	return v
}

// Summary describes what has been learned, for display surfaces.
type Summary struct {
	OpenRateImportance string           `json:"open_rate_importance"` // "low", "normal", "high"
	VolumeSensitivity  string           `json:"volume_sensitivity"`
	Keywords           []KeywordInsight `json:"keyword_patterns,omitempty"`
}

// KeywordInsight is one confidently learned keyword tendency.
type KeywordInsight struct {
	Keyword  string `json:"keyword"`
	Tendency string `json:"tendency"` // "keep" or "unsub"
	Strength string `json:"strength"` // "strongly" or "usually"
	Samples  int    `json:"sample_count"`
}

// Summarize interprets the profile's weights and confident keywords.
func Summarize(p core.LearningProfile) Summary {
	s := Summary{
		OpenRateImportance: interpretWeight(p.OpenRateWeight),
		VolumeSensitivity:  interpretWeight(p.VolumeWeight),
	}
	for kw, stat := range p.Keywords {
		if stat.Samples < minKeywordSamples || Confidence(stat.Samples) < 0.5 {
			continue
		}
		tendency := "unsub"
		if stat.Value > 0.5 {
			tendency = "keep"
		}
		strength := "usually"
		if math.Abs(stat.Value-0.5) > 0.3 {
			strength = "strongly"
		}
		s.Keywords = append(s.Keywords, KeywordInsight{
			Keyword:  kw,
			Tendency: tendency,
			Strength: strength,
			Samples:  stat.Samples,
		})
	}
	return s
}

func interpretWeight(w float64) string {
	switch {
	case w != 0 && w < 0.7:
		return "low"
	case w > 1.2:
		return "high"
	default:
		return "normal"
	}
}
