// Package rules implements the user-rule layer, the highest-precedence
// source in the classification pipeline.
package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/pattern"
)

// Layer matches senders against user-authored rules. Rules are evaluated
// most-specific-pattern-first, ties broken by most-recently-created.
type Layer struct {
	rules  []core.Rule
	logger *zap.Logger
}

// NewLayer builds the rule layer from persisted rules. Rules with an
// empty or unparsable action were already filtered at load time; any that
// slip through are skipped here with a warning rather than aborting runs.
func NewLayer(rules []core.Rule, logger *zap.Logger) *Layer {
	valid := make([]core.Rule, 0, len(rules))
	for _, r := range rules {
		if _, err := core.ParseAction(string(r.Action)); err != nil {
			logger.Warn("Skipping rule with invalid action",
				zap.String("pattern", r.Pattern),
				zap.String("action", string(r.Action)))
			continue
		}
		valid = append(valid, r)
	}

	sort.SliceStable(valid, func(i, j int) bool {
		si, sj := pattern.Specificity(valid[i].Pattern), pattern.Specificity(valid[j].Pattern)
		if si != sj {
			return si > sj
		}
		return valid[i].CreatedAt.After(valid[j].CreatedAt)
	})

	return &Layer{rules: valid, logger: logger}
}

// Name returns the layer tag.
func (l *Layer) Name() string { return "rule" }

// Rules returns the rules in evaluation order.
func (l *Layer) Rules() []core.Rule { return l.rules }

// Classify returns the first matching rule's action with confidence 1.0,
// or defers when no rule matches.
func (l *Layer) Classify(_ context.Context, sender *core.SenderStats) core.Decision {
	for _, r := range l.rules {
		if !matchRule(r, sender.Domain) {
			continue
		}
		l.logger.Debug("Sender matched user rule",
			zap.String("domain", sender.Domain),
			zap.String("pattern", r.Pattern),
			zap.String("action", string(r.Action)))
		return core.Decided(core.Classification{
			EmailType:  core.EmailTypeUnknown,
			Action:     r.Action,
			Confidence: 1.0,
			Reasoning:  fmt.Sprintf("matched user rule: %s", r.Pattern),
			Layer:      l.Name(),
		})
	}
	return core.Deferred()
}

// matchRule matches a rule against a sender domain. Address-scoped rules
// are matched on the domain part of their pattern, since the engine only
// sees per-domain aggregates.
func matchRule(r core.Rule, domain string) bool {
	pat := r.Pattern
	if r.Scope == core.ScopeAddress {
		if i := strings.LastIndex(pat, "@"); i >= 0 {
			pat = pat[i+1:]
		}
	}
	return pattern.Matches(pat, domain)
}
