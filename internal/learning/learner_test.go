package learning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/nothx/nothx/internal/core"
)

func correction(domain string, corrected core.Action) core.Correction {
	return core.Correction{
		Domain:    domain,
		Previous:  core.ActionUnsub,
		Corrected: corrected,
		Timestamp: time.Now(),
	}
}

func TestUpdateDoesNotMutateInput(t *testing.T) {
	before := core.DefaultProfile()
	before.Keywords["existing"] = core.KeywordStat{Value: 0.5, Samples: 2}

	_ = Update(before, correction("newsletter.example", core.ActionKeep))

	assert.Equal(t, 0, before.Version)
	assert.Len(t, before.Keywords, 1, "input profile must not gain keywords")
	assert.Equal(t, 1.0, before.OpenRateWeight)
}

func TestUpdateBumpsVersionAndTimestamp(t *testing.T) {
	c := correction("newsletter.example", core.ActionKeep)
	p := Update(core.DefaultProfile(), c)

	assert.Equal(t, 1, p.Version)
	assert.Equal(t, c.Timestamp, p.UpdatedAt)

	p2 := Update(p, correction("promo.example", core.ActionUnsub))
	assert.Equal(t, 2, p2.Version)
}

func TestKeepCorrectionRaisesKeywordKeepRate(t *testing.T) {
	p := core.DefaultProfile()
	for i := 0; i < 4; i++ {
		p = Update(p, correction("devnews.example", core.ActionKeep))
	}

	stat, ok := p.Keywords["devnews"]
	assert.True(t, ok)
	assert.Equal(t, 4, stat.Samples)
	assert.Greater(t, stat.Value, 0.9, "all-keep history should converge near 1.0")
}

func TestUnsubCorrectionLowersKeywordKeepRate(t *testing.T) {
	p := core.DefaultProfile()
	for i := 0; i < 4; i++ {
		p = Update(p, correction("promoblast.example", core.ActionUnsub))
	}

	stat := p.Keywords["promoblast"]
	assert.Less(t, stat.Value, 0.1)
}

func TestCorrectionKeywordsAreMerged(t *testing.T) {
	c := correction("x9.example", core.ActionKeep)
	c.Keywords = []string{"invoices"}
	p := Update(core.DefaultProfile(), c)

	_, ok := p.Keywords["invoices"]
	assert.True(t, ok, "explicit correction keywords should be learned too")
}

func TestOpenRateWeightDropsWhenUserIgnoresIt(t *testing.T) {
	p := core.DefaultProfile()

	// Restoring low-open-rate senders means open rate is a weak signal.
	c := correction("quietnews.example", core.ActionKeep)
	c.OpenRate = 3
	p = Update(p, c)

	assert.InDelta(t, 0.95, p.OpenRateWeight, 1e-9)
	assert.Equal(t, 1, p.OpenRateSamples)
}

func TestOpenRateWeightGrowsWhenUserFollowsIt(t *testing.T) {
	p := core.DefaultProfile()

	c := correction("quietnews.example", core.ActionUnsub)
	c.OpenRate = 3
	p = Update(p, c)

	assert.InDelta(t, 1.02, p.OpenRateWeight, 1e-9)
}

func TestWeightsAreClamped(t *testing.T) {
	p := core.DefaultProfile()
	for i := 0; i < 50; i++ {
		c := correction("quietnews.example", core.ActionKeep)
		c.OpenRate = 3
		c.EmailCount = 40
		p = Update(p, c)
	}
	assert.InDelta(t, 0.2, p.OpenRateWeight, 1e-9, "weight must clamp at the floor")
	assert.InDelta(t, 0.2, p.VolumeWeight, 1e-9)

	for i := 0; i < 100; i++ {
		c := correction("quietnews.example", core.ActionUnsub)
		c.OpenRate = 3
		c.EmailCount = 40
		p = Update(p, c)
	}
	assert.InDelta(t, 1.5, p.OpenRateWeight, 1e-9, "weight must clamp at the ceiling")
}

func TestKeywordBoostRequiresSamples(t *testing.T) {
	p := core.DefaultProfile()
	p.Keywords["devnews"] = core.KeywordStat{Value: 1.0, Samples: 2}

	assert.Equal(t, 0, KeywordBoost(p, "devnews.example"),
		"fewer than three samples must not influence scoring")

	p.Keywords["devnews"] = core.KeywordStat{Value: 1.0, Samples: 5}
	assert.Negative(t, KeywordBoost(p, "devnews.example"))
}

func TestKeywordBoostIgnoresInconsistentKeywords(t *testing.T) {
	p := core.DefaultProfile()
	p.Keywords["mixed"] = core.KeywordStat{Value: 0.5, Samples: 10}

	assert.Equal(t, 0, KeywordBoost(p, "mixed.example"))
}

func TestKeywordBoostIsBounded(t *testing.T) {
	p := core.DefaultProfile()
	for _, kw := range []string{"aaa", "bbb", "ccc", "ddd", "eee", "fff", "ggg"} {
		p.Keywords[kw] = core.KeywordStat{Value: 0.0, Samples: 10}
	}
	boost := KeywordBoost(p, "aaa.bbb.ccc.ddd.eee.fff.ggg")
	assert.LessOrEqual(t, boost, 30)
	assert.GreaterOrEqual(t, boost, -30)
}

func TestConfidenceIsAsymptotic(t *testing.T) {
	assert.InDelta(t, 0.0, Confidence(0), 1e-9)
	assert.Less(t, Confidence(1), Confidence(3))
	assert.Less(t, Confidence(3), Confidence(10))
	assert.Less(t, Confidence(100), 1.0)
	assert.Greater(t, Confidence(10), 0.95)
}

func TestSummarize(t *testing.T) {
	p := core.DefaultProfile()
	p.OpenRateWeight = 0.3
	p.VolumeWeight = 1.3
	p.Keywords["devnews"] = core.KeywordStat{Value: 0.95, Samples: 6}
	p.Keywords["thin"] = core.KeywordStat{Value: 1.0, Samples: 1}

	s := Summarize(p)
	assert.Equal(t, "low", s.OpenRateImportance)
	assert.Equal(t, "high", s.VolumeSensitivity)
	assert.Len(t, s.Keywords, 1, "keywords without enough samples are omitted")
	assert.Equal(t, "devnews", s.Keywords[0].Keyword)
	assert.Equal(t, "keep", s.Keywords[0].Tendency)
	assert.Equal(t, "strongly", s.Keywords[0].Strength)
}
