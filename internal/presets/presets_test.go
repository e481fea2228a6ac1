package presets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/core"
)

func classify(t *testing.T, domain string) core.Decision {
	t.Helper()
	layer := NewLayer(Default(), zap.NewNop())
	return layer.Classify(context.Background(), &core.SenderStats{Domain: domain})
}

func TestGovernmentDomainIsKept(t *testing.T) {
	d := classify(t, "irs.gov")

	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionKeep, d.Result.Action)
	assert.Equal(t, 0.95, d.Result.Confidence)
	assert.Equal(t, "preset", d.Result.Layer)
}

func TestMarketingPrefixGetsUnsub(t *testing.T) {
	for _, domain := range []string{"marketing.acme.com", "noreply.shop.net", "newsletter.blog.org"} {
		d := classify(t, domain)
		assert.True(t, d.Decided, domain)
		assert.Equal(t, core.ActionUnsub, d.Result.Action, domain)
		assert.Equal(t, 0.85, d.Result.Confidence, domain)
	}
}

func TestBankKeywordIsKept(t *testing.T) {
	d := classify(t, "alerts.mybank.com")
	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionKeep, d.Result.Action)
}

func TestKeepBeatsUnsubOnOverlap(t *testing.T) {
	// "alerts.bank.com" matches both the keep keyword *bank* and the keep
	// prefix alerts.*; a hypothetical unsub overlap must not win because
	// keep patterns are checked before unsub patterns.
	set := PatternSet{
		UnsubPatterns: []string{"news.*"},
		KeepPatterns:  []string{"*bank*"},
	}
	layer := NewLayer(set, zap.NewNop())
	d := layer.Classify(context.Background(), &core.SenderStats{Domain: "news.bank.com"})

	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionKeep, d.Result.Action)
}

func TestBlockBeatsKeep(t *testing.T) {
	set := PatternSet{
		KeepPatterns:  []string{"*.spam.com"},
		BlockPatterns: []string{"*.spam.com"},
	}
	layer := NewLayer(set, zap.NewNop())
	d := layer.Classify(context.Background(), &core.SenderStats{Domain: "mail.spam.com"})

	assert.True(t, d.Decided)
	assert.Equal(t, core.ActionBlock, d.Result.Action)
}

func TestUnknownDomainDefers(t *testing.T) {
	d := classify(t, "smallbusiness.example")
	assert.False(t, d.Decided)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.json")
	payload := `{"version":"test","unsub_patterns":["promo.*"],"keep_patterns":["*.gov"],"block_patterns":[]}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0644))

	set, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "test", set.Version)
	assert.Equal(t, []string{"promo.*"}, set.UnsubPatterns)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}
