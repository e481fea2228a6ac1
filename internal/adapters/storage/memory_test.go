package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/core"
)

func newStore(t *testing.T) *MemoryStore {
	t.Helper()
	return NewMemoryStore(zap.NewNop())
}

func TestRulesRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	rule := core.Rule{
		Pattern:   "*.example.com",
		Action:    core.ActionUnsub,
		Scope:     core.ScopeDomain,
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.AddRule(ctx, rule))

	rules, err := s.Rules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, rule.Pattern, rules[0].Pattern)
	assert.Equal(t, core.ActionUnsub, rules[0].Action)
}

func TestAddRuleReplacesSamePattern(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRule(ctx, core.Rule{Pattern: "example.com", Action: core.ActionUnsub}))
	require.NoError(t, s.AddRule(ctx, core.Rule{Pattern: "example.com", Action: core.ActionKeep}))

	rules, err := s.Rules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, core.ActionKeep, rules[0].Action)
}

func TestDeleteRule(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.AddRule(ctx, core.Rule{Pattern: "example.com", Action: core.ActionKeep}))
	require.NoError(t, s.DeleteRule(ctx, "example.com"))

	rules, err := s.Rules(ctx)
	require.NoError(t, err)
	assert.Empty(t, rules)

	assert.ErrorIs(t, s.DeleteRule(ctx, "example.com"), ErrNotFound)
}

func TestRecentCorrectionsNewestFirst(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for _, domain := range []string{"first.example", "second.example", "third.example"} {
		require.NoError(t, s.RecordCorrection(ctx, core.Correction{
			Domain:    domain,
			Previous:  core.ActionUnsub,
			Corrected: core.ActionKeep,
			Timestamp: time.Now(),
		}))
	}

	got, err := s.RecentCorrections(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "third.example", got[0].Domain)
	assert.Equal(t, "second.example", got[1].Domain)
}

func TestRecentCorrectionsLimitLargerThanHistory(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordCorrection(ctx, core.Correction{Domain: "only.example"}))

	got, err := s.RecentCorrections(ctx, 50)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLoadProfileMissing(t *testing.T) {
	s := newStore(t)

	_, err := s.LoadProfile(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProfileRoundTripIsIsolated(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	p := core.DefaultProfile()
	p.Keywords["devnews"] = core.KeywordStat{Value: 1.0, Samples: 3}
	p.Version = 7
	require.NoError(t, s.SaveProfile(ctx, p))

	// Mutating the caller's copy must not leak into the store.
	p.Keywords["devnews"] = core.KeywordStat{Value: 0.0, Samples: 99}

	got, err := s.LoadProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Version)
	assert.Equal(t, 3, got.Keywords["devnews"].Samples)
}

func TestSaveClassification(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	c := core.Classification{
		EmailType:  core.EmailTypeMarketing,
		Action:     core.ActionUnsub,
		Confidence: 0.9,
		Reasoning:  "test",
		Layer:      "preset",
	}
	require.NoError(t, s.SaveClassification(ctx, "promo.example", c))

	got := s.Classifications()
	require.Len(t, got, 1)
	assert.Equal(t, c, got["promo.example"])
}
