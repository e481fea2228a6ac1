package core

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/nothx/nothx/internal/metrics"
	"github.com/nothx/nothx/internal/pattern"
)

// EngineConfig is the tuning surface the engine consumes but does not own.
type EngineConfig struct {
	// ConfidenceThreshold gates AI decisions and unsub/block auto-action.
	ConfidenceThreshold float64
	// KeepConfidenceThreshold gates keep auto-action.
	KeepConfidenceThreshold float64
	// OperationMode is one of "hands_off", "notify", "confirm".
	OperationMode string
	// ProtectedPatterns are domain patterns that can never be auto-acted
	// on by the preset, AI, or heuristic layers.
	ProtectedPatterns []string
	// BatchSize bounds how many senders go into one AI request.
	BatchSize int
	// Concurrency bounds concurrent AI batch round-trips.
	Concurrency int
}

// Engine runs the layered classification pipeline:
// user rules, presets, AI, heuristics, review fallback.
type Engine struct {
	rules      Layer
	presets    Layer
	ai         BatchLayer // nil when AI is disabled
	heuristics Layer
	cfg        EngineConfig
	logger     *zap.Logger
}

// NewEngine assembles the pipeline. Any layer may be nil, in which case it
// is skipped; with every layer nil the engine still returns review
// decisions rather than failing.
func NewEngine(rules, presets Layer, ai BatchLayer, heuristics Layer, cfg EngineConfig, logger *zap.Logger) *Engine {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 10
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &Engine{
		rules:      rules,
		presets:    presets,
		ai:         ai,
		heuristics: heuristics,
		cfg:        cfg,
		logger:     logger,
	}
}

// reviewFallback is the terminal decision when every layer has deferred.
func reviewFallback() Classification {
	return Classification{
		EmailType:  EmailTypeUnknown,
		Action:     ActionReview,
		Confidence: 0.0,
		Reasoning:  "no layer produced a decision - needs manual review",
		Layer:      "review",
	}
}

// Classify runs one sender through the pipeline and returns exactly one
// classification. It never fails: every error path ends in a review
// decision, not a propagated error.
func (e *Engine) Classify(ctx context.Context, sender *SenderStats) Classification {
	if d := e.tryLayer(ctx, e.rules, sender); d.Decided {
		return e.finalize(sender, d.Result)
	}
	if d := e.tryLayer(ctx, e.presets, sender); d.Decided {
		return e.finalize(sender, d.Result)
	}
	if e.ai != nil && e.ai.Available() {
		if d := e.ai.Classify(ctx, sender); d.Decided && d.Result.Confidence >= e.cfg.ConfidenceThreshold {
			return e.finalize(sender, d.Result)
		}
	}
	if d := e.tryLayer(ctx, e.heuristics, sender); d.Decided {
		return e.finalize(sender, d.Result)
	}
	return e.finalize(sender, reviewFallback())
}

// ClassifyBatch classifies many senders, amortizing AI round-trips. It is
// semantically equivalent to calling Classify per sender; AI batches are
// chunked and dispatched concurrently up to the configured limit.
func (e *Engine) ClassifyBatch(ctx context.Context, senders []*SenderStats) map[string]Classification {
	results := make(map[string]Classification, len(senders))

	var needsAI []*SenderStats
	for _, sender := range senders {
		if d := e.tryLayer(ctx, e.rules, sender); d.Decided {
			results[domainKey(sender)] = e.finalize(sender, d.Result)
			continue
		}
		if d := e.tryLayer(ctx, e.presets, sender); d.Decided {
			results[domainKey(sender)] = e.finalize(sender, d.Result)
			continue
		}
		needsAI = append(needsAI, sender)
	}

	aiDecisions := map[string]Decision{}
	if len(needsAI) > 0 && e.ai != nil && e.ai.Available() {
		aiDecisions = e.classifyAIChunked(ctx, needsAI)
	}

	for _, sender := range needsAI {
		key := domainKey(sender)
		if d, ok := aiDecisions[key]; ok && d.Decided && d.Result.Confidence >= e.cfg.ConfidenceThreshold {
			results[key] = e.finalize(sender, d.Result)
			continue
		}
		if d := e.tryLayer(ctx, e.heuristics, sender); d.Decided {
			results[key] = e.finalize(sender, d.Result)
			continue
		}
		results[key] = e.finalize(sender, reviewFallback())
	}

	return results
}

// classifyAIChunked splits senders into provider-sized chunks and runs
// them concurrently. A failed chunk defers its senders; it is never
// retried within the run.
func (e *Engine) classifyAIChunked(ctx context.Context, senders []*SenderStats) map[string]Decision {
	var mu sync.Mutex
	decisions := make(map[string]Decision, len(senders))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Concurrency)

	for start := 0; start < len(senders); start += e.cfg.BatchSize {
		end := start + e.cfg.BatchSize
		if end > len(senders) {
			end = len(senders)
		}
		chunk := senders[start:end]
		g.Go(func() error {
			part := e.ai.ClassifyBatch(gctx, chunk)
			mu.Lock()
			for domain, d := range part {
				decisions[domain] = d
			}
			mu.Unlock()
			return nil
		})
	}

	// Chunks report failure as deferral, never as an error.
	_ = g.Wait()
	return decisions
}

// ShouldAutoAct reports whether the surrounding application may act on a
// classification without asking the user first.
func (e *Engine) ShouldAutoAct(c Classification) bool {
	if e.cfg.OperationMode == "confirm" {
		return false
	}
	switch c.Action {
	case ActionUnsub, ActionBlock:
		return c.Confidence >= e.cfg.ConfidenceThreshold
	case ActionKeep:
		return c.Confidence >= e.cfg.KeepConfidenceThreshold
	default:
		return false
	}
}

func (e *Engine) tryLayer(ctx context.Context, layer Layer, sender *SenderStats) Decision {
	if layer == nil {
		return Deferred()
	}
	return layer.Classify(ctx, sender)
}

// finalize applies the protected-category guard and records the outcome.
// Only an explicit user rule may auto-act on a protected sender; any other
// layer's unsub/block is downgraded to review with annotated reasoning.
func (e *Engine) finalize(sender *SenderStats, c Classification) Classification {
	if (c.Action == ActionUnsub || c.Action == ActionBlock) &&
		c.Layer != "rule" &&
		pattern.MatchesAny(e.cfg.ProtectedPatterns, sender.Domain) {
		original := c.Action
		c.Action = ActionReview
		c.Reasoning = fmt.Sprintf("%s; %s on protected domain downgraded to review", c.Reasoning, original)
		metrics.ProtectedDowngradesTotal.Inc()
		e.logger.Info("Downgraded auto-action on protected domain",
			zap.String("domain", sender.Domain),
			zap.String("layer", c.Layer),
			zap.String("original_action", string(original)))
	}

	metrics.ClassificationsTotal.WithLabelValues(c.Layer, string(c.Action)).Inc()
	e.logger.Debug("Classified sender",
		zap.String("domain", sender.Domain),
		zap.String("layer", c.Layer),
		zap.String("action", string(c.Action)),
		zap.Float64("confidence", c.Confidence))
	return c
}

func domainKey(sender *SenderStats) string {
	return strings.ToLower(sender.Domain)
}
