package heuristics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
	"github.com/nothx/nothx/internal/core"
)

func defaultScorer() *Scorer {
	return NewScorer(config.DefaultScoring(), core.DefaultProfile(), zap.NewNop())
}

func TestScoreLowEngagementNewsletter(t *testing.T) {
	s := defaultScorer()

	// base 50, open rate 2 (+20), 40 emails (+5), newsletter. prefix (+10),
	// no unsubscribe header (-5).
	score := s.Score(&core.SenderStats{
		Domain:      "newsletter.example",
		TotalEmails: 40,
		OpenRate:    2,
	})
	assert.Equal(t, 80, score)
}

func TestClassifyLowEngagementNewsletter(t *testing.T) {
	s := defaultScorer()

	d := s.Classify(context.Background(), &core.SenderStats{
		Domain:      "newsletter.example",
		TotalEmails: 40,
		OpenRate:    2,
	})

	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionUnsub, d.Result.Action)
	assert.Equal(t, "heuristics", d.Result.Layer)
	assert.GreaterOrEqual(t, d.Result.Confidence, 0.5)
	assert.LessOrEqual(t, d.Result.Confidence, 1.0)
}

func TestClassifyTransactionalSender(t *testing.T) {
	s := defaultScorer()

	d := s.Classify(context.Background(), &core.SenderStats{
		Domain:         "receipts.shop.example",
		TotalEmails:    10,
		OpenRate:       80,
		SampleSubjects: []string{"Your order #123456 has shipped"},
	})

	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionKeep, d.Result.Action)
	assert.Equal(t, core.EmailTypeTransactional, d.Result.EmailType)
}

func TestClassifyMidScoreGoesToReview(t *testing.T) {
	s := defaultScorer()

	// A sender with no signals stays at the base score of 50 plus the
	// unsubscribe header adjustment, between both thresholds.
	d := s.Classify(context.Background(), &core.SenderStats{
		Domain:         "something.example",
		TotalEmails:    10,
		OpenRate:       30,
		HasUnsubscribe: true,
	})

	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionReview, d.Result.Action)
	assert.Equal(t, 0.5, d.Result.Confidence)
}

func TestScorerNeverDefers(t *testing.T) {
	s := defaultScorer()
	d := s.Classify(context.Background(), &core.SenderStats{})
	assert.True(t, d.Decided)
}

func TestOpenRateAdjustmentIsMonotonic(t *testing.T) {
	s := defaultScorer()
	base := core.SenderStats{Domain: "plain.example", TotalEmails: 10}

	score := func(openRate float64) int {
		st := base
		st.OpenRate = openRate
		return s.Score(&st)
	}

	// Higher engagement must never raise the score.
	assert.Less(t, score(80), score(60))
	assert.Less(t, score(60), score(40))
	assert.Less(t, score(40), score(2))
}

func TestColdOutreachIsBlockedAboveThreshold(t *testing.T) {
	s := defaultScorer()

	d := s.Classify(context.Background(), &core.SenderStats{
		Domain:      "sales.outreach.example",
		TotalEmails: 60,
		OpenRate:    1,
		SampleSubjects: []string{
			"Quick question about your company",
			"Following up on my last email",
		},
	})

	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionBlock, d.Result.Action)
	assert.Equal(t, core.EmailTypeColdOutreach, d.Result.EmailType)
}

func TestLearnedKeywordLowersScore(t *testing.T) {
	cfg := config.DefaultScoring()
	neutral := NewScorer(cfg, core.DefaultProfile(), zap.NewNop())

	kept := core.DefaultProfile()
	kept.Keywords["devnews"] = core.KeywordStat{
		Value:       1.0,
		Samples:     5,
		LastUpdated: time.Now(),
	}
	trained := NewScorer(cfg, kept, zap.NewNop())

	stats := &core.SenderStats{Domain: "devnews.example", TotalEmails: 40, OpenRate: 2}
	assert.Less(t, trained.Score(stats), neutral.Score(stats),
		"a consistently kept keyword should pull the score down")
}

func TestLearnedOpenRateWeightAttenuates(t *testing.T) {
	cfg := config.DefaultScoring()

	distrust := core.DefaultProfile()
	distrust.OpenRateWeight = 0.2
	weak := NewScorer(cfg, distrust, zap.NewNop())
	full := NewScorer(cfg, core.DefaultProfile(), zap.NewNop())

	stats := &core.SenderStats{Domain: "plain.example", TotalEmails: 10, OpenRate: 1}
	assert.Less(t, weak.Score(stats), full.Score(stats),
		"low open-rate weight should shrink the low-engagement penalty")
}

func TestScoreIsClamped(t *testing.T) {
	s := defaultScorer()

	high := s.Score(&core.SenderStats{
		Domain:      "promo.deals.example",
		TotalEmails: 100,
		OpenRate:    0,
		SampleSubjects: []string{
			"FINAL SALE!! 90% off everything, act now",
			"Last chance: exclusive offer ends tonight",
			"You won a prize! Click here",
		},
	})
	assert.LessOrEqual(t, high, 100)
	assert.GreaterOrEqual(t, high, 0)
}
