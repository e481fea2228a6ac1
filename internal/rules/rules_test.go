package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/core"
)

func sender(domain string) *core.SenderStats {
	return &core.SenderStats{Domain: domain}
}

func TestClassifyReturnsFullConfidence(t *testing.T) {
	layer := NewLayer([]core.Rule{
		{Pattern: "example.com", Action: core.ActionKeep, Scope: core.ScopeDomain},
	}, zap.NewNop())

	d := layer.Classify(context.Background(), sender("example.com"))

	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionKeep, d.Result.Action)
	assert.Equal(t, 1.0, d.Result.Confidence)
	assert.Equal(t, "rule", d.Result.Layer)
	assert.Contains(t, d.Result.Reasoning, "example.com")
}

func TestClassifyDefersWithoutMatch(t *testing.T) {
	layer := NewLayer([]core.Rule{
		{Pattern: "example.com", Action: core.ActionKeep, Scope: core.ScopeDomain},
	}, zap.NewNop())

	d := layer.Classify(context.Background(), sender("other.com"))
	assert.False(t, d.Decided)
}

func TestMoreSpecificRuleWins(t *testing.T) {
	layer := NewLayer([]core.Rule{
		{Pattern: "*.example.com", Action: core.ActionUnsub, Scope: core.ScopeDomain},
		{Pattern: "mail.example.com", Action: core.ActionKeep, Scope: core.ScopeDomain},
	}, zap.NewNop())

	d := layer.Classify(context.Background(), sender("mail.example.com"))
	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionKeep, d.Result.Action, "exact pattern should beat wildcard")

	d = layer.Classify(context.Background(), sender("promo.example.com"))
	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionUnsub, d.Result.Action)
}

func TestEqualSpecificityNewestWins(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	layer := NewLayer([]core.Rule{
		{Pattern: "example.com", Action: core.ActionUnsub, Scope: core.ScopeDomain, CreatedAt: older},
		{Pattern: "example.org", Action: core.ActionKeep, Scope: core.ScopeDomain, CreatedAt: newer},
	}, zap.NewNop())

	// Both patterns have the same specificity; ordering within the layer
	// should put the newer rule first.
	got := layer.Rules()
	assert.Equal(t, "example.org", got[0].Pattern)
}

func TestWildcardDoesNotMatchBareDomain(t *testing.T) {
	layer := NewLayer([]core.Rule{
		{Pattern: "*.example.com", Action: core.ActionBlock, Scope: core.ScopeDomain},
	}, zap.NewNop())

	d := layer.Classify(context.Background(), sender("example.com"))
	assert.False(t, d.Decided, "*.example.com must not cover the bare domain")
}

func TestAddressScopedRuleMatchesDomainPart(t *testing.T) {
	layer := NewLayer([]core.Rule{
		{Pattern: "news@updates.example.com", Action: core.ActionUnsub, Scope: core.ScopeAddress},
	}, zap.NewNop())

	d := layer.Classify(context.Background(), sender("updates.example.com"))
	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionUnsub, d.Result.Action)
}

func TestInvalidActionRuleIsSkipped(t *testing.T) {
	layer := NewLayer([]core.Rule{
		{Pattern: "example.com", Action: core.Action("shred"), Scope: core.ScopeDomain},
	}, zap.NewNop())

	assert.Empty(t, layer.Rules())
	d := layer.Classify(context.Background(), sender("example.com"))
	assert.False(t, d.Decided)
}
