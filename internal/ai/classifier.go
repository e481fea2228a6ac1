// Package ai implements the AI classification layer. It turns sender
// aggregates into one batched provider prompt, parses the structured
// response, and defers rather than failing when the provider cannot answer.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/config"
	"github.com/nothx/nothx/internal/core"
	"github.com/nothx/nothx/internal/metrics"
	"github.com/nothx/nothx/internal/utils"
)

const classificationPrompt = `You are an email classification assistant. Your job is to analyze email senders and classify them to help users manage their inbox.

For each sender, you'll receive:
- Domain name
- Number of emails received
- Open rate (percentage of emails the user has read)
- Sample subject lines
- Whether they have a working unsubscribe link

Classify each sender into one of these types:
- marketing: Promotional emails, sales, deals, advertising
- transactional: Receipts, shipping notifications, order confirmations, account activity
- security: Password resets, 2FA codes, login alerts, security notifications
- newsletter: Content-focused newsletters the user subscribed to
- cold_outreach: Unsolicited sales emails, B2B cold outreach

Then recommend an action:
- keep: Important emails the user should continue receiving
- unsub: Marketing/promotional emails the user likely doesn't want
- block: Spam, cold outreach, or persistent unwanted senders
- review: Uncertain cases that need human decision

Consider these factors:
1. Open rate: Low open rate (<10%%) suggests user doesn't value these emails
2. Subject patterns: "SALE", "%% OFF", urgency words suggest marketing
3. Sender patterns: noreply@, marketing@, promo@ suggest promotional
4. Transactional signals: Order numbers, shipping info, receipts = keep
5. Security signals: Password, verify, confirm, 2FA = always keep

%s

Respond with a JSON array of classifications:
[
  {
    "domain": "example.com",
    "type": "marketing",
    "action": "unsub",
    "confidence": 0.92,
    "reasoning": "Low open rate (3%%), promotional subject lines"
  }
]

Respond only with the JSON array and nothing else.

Here are the senders to classify:
%s
`

// senderSummary is the per-sender payload embedded in the prompt.
type senderSummary struct {
	Domain         string   `json:"domain"`
	TotalEmails    int      `json:"total_emails"`
	OpenRate       string   `json:"open_rate"`
	SampleSubjects []string `json:"sample_subjects"`
	HasUnsubscribe bool     `json:"has_unsubscribe"`
}

// classificationItem is one element of the provider's JSON response.
type classificationItem struct {
	Domain     string  `json:"domain"`
	Type       string  `json:"type"`
	Action     string  `json:"action"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// Classifier is the AI layer. It depends only on the Provider capability
// interface, never on a concrete provider.
type Classifier struct {
	provider core.Provider
	history  core.CorrectionSource // may be nil
	cfg      config.AIConfig
	logger   *zap.Logger
}

// New creates the AI layer. provider may be nil when AI is disabled; the
// layer then reports unavailable and defers everything.
func New(provider core.Provider, history core.CorrectionSource, cfg config.AIConfig, logger *zap.Logger) *Classifier {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxSubjects <= 0 {
		cfg.MaxSubjects = 3
	}
	return &Classifier{provider: provider, history: history, cfg: cfg, logger: logger}
}

// Name returns the layer tag.
func (c *Classifier) Name() string { return "ai" }

// Available reports whether the layer can decide anything right now.
func (c *Classifier) Available() bool {
	return c.cfg.Enabled && c.provider != nil && c.provider.Available()
}

// Classify classifies one sender via a batch of one.
func (c *Classifier) Classify(ctx context.Context, sender *core.SenderStats) core.Decision {
	results := c.ClassifyBatch(ctx, []*core.SenderStats{sender})
	if d, ok := results[strings.ToLower(sender.Domain)]; ok {
		return d
	}
	return core.Deferred()
}

// ClassifyBatch submits one provider round-trip for the whole batch. On
// provider error, timeout, or a malformed response every sender defers to
// the next layer; the failure is logged and counted but never raised.
func (c *Classifier) ClassifyBatch(ctx context.Context, senders []*core.SenderStats) map[string]core.Decision {
	if len(senders) == 0 {
		return map[string]core.Decision{}
	}
	if !c.Available() {
		return c.deferAll(senders, "unavailable", nil)
	}

	prompt, err := c.buildPrompt(ctx, senders)
	if err != nil {
		return c.deferAll(senders, "prompt", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	metrics.AIBatchesTotal.Inc()
	text, err := c.provider.Complete(callCtx, prompt, c.cfg.MaxTokens)
	if err != nil {
		reason := "provider_error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		return c.deferAll(senders, reason, err)
	}

	parsed, err := parseResponse(text)
	if err != nil {
		return c.deferAll(senders, "malformed_response", err)
	}

	decisions := make(map[string]core.Decision, len(senders))
	for _, sender := range senders {
		key := strings.ToLower(sender.Domain)
		if d, ok := parsed[key]; ok {
			decisions[key] = core.Decided(d)
		} else {
			decisions[key] = core.Deferred()
		}
	}
	return decisions
}

// buildPrompt assembles the batch prompt, including recent corrections
// for in-context learning when a history source is wired.
func (c *Classifier) buildPrompt(ctx context.Context, senders []*core.SenderStats) (string, error) {
	summaries := make([]senderSummary, 0, len(senders))
	for _, sender := range senders {
		subjects := sender.SampleSubjects
		if len(subjects) > c.cfg.MaxSubjects {
			subjects = subjects[:c.cfg.MaxSubjects]
		}
		trimmed := make([]string, len(subjects))
		for i, s := range subjects {
			trimmed[i] = utils.TruncateText(s, 120)
		}
		summaries = append(summaries, senderSummary{
			Domain:         sender.Domain,
			TotalEmails:    sender.TotalEmails,
			OpenRate:       fmt.Sprintf("%.1f%%", sender.OpenRate),
			SampleSubjects: trimmed,
			HasUnsubscribe: sender.HasUnsubscribe,
		})
	}

	payload, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode sender summaries: %w", err)
	}

	return fmt.Sprintf(classificationPrompt, c.correctionContext(ctx), string(payload)), nil
}

// correctionContext formats recent user corrections so the provider can
// learn from them in-context. History failures are not fatal to the
// batch; the prompt simply goes out without the context.
func (c *Classifier) correctionContext(ctx context.Context) string {
	if c.history == nil || c.cfg.HistoryLimit <= 0 {
		return ""
	}
	corrections, err := c.history.RecentCorrections(ctx, c.cfg.HistoryLimit)
	if err != nil {
		c.logger.Warn("Failed to load correction history for prompt", zap.Error(err))
		return ""
	}
	if len(corrections) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("User has made these corrections to previous decisions:\n")
	for _, corr := range corrections {
		fmt.Fprintf(&b, "- %s: previously '%s', user changed to '%s'\n",
			corr.Domain, corr.Previous, corr.Corrected)
	}
	b.WriteString("\nLearn from these corrections and adjust your recommendations.")
	return b.String()
}

// parseResponse extracts the JSON array from the completion text and maps
// it to classifications keyed by lowercased domain.
func parseResponse(text string) (map[string]core.Classification, error) {
	start := strings.Index(text, "[")
	end := strings.LastIndex(text, "]")
	if start == -1 || end == -1 || end < start {
		return nil, fmt.Errorf("no JSON array in response")
	}

	var items []classificationItem
	if err := json.Unmarshal([]byte(text[start:end+1]), &items); err != nil {
		return nil, fmt.Errorf("failed to parse response JSON: %w", err)
	}

	results := make(map[string]core.Classification, len(items))
	for _, item := range items {
		domain := strings.ToLower(strings.TrimSpace(item.Domain))
		if domain == "" {
			continue
		}

		action, err := core.ParseAction(item.Action)
		if err != nil {
			// An unrecognized recommendation is routed to review rather
			// than dropped; the provider did answer for this domain.
			action = core.ActionReview
		}

		results[domain] = core.Classification{
			EmailType:  core.ParseEmailType(item.Type),
			Action:     action,
			Confidence: clampConfidence(item.Confidence),
			Reasoning:  item.Reasoning,
			Layer:      "ai",
		}
	}
	return results, nil
}

// deferAll records the failure and defers every sender in the batch.
func (c *Classifier) deferAll(senders []*core.SenderStats, reason string, err error) map[string]core.Decision {
	if reason != "unavailable" {
		metrics.AIFailuresTotal.WithLabelValues(reason).Inc()
		c.logger.Warn("AI batch deferred to next layer",
			zap.String("reason", reason),
			zap.Int("senders", len(senders)),
			zap.Error(err))
	}
	decisions := make(map[string]core.Decision, len(senders))
	for _, sender := range senders {
		decisions[strings.ToLower(sender.Domain)] = core.Deferred()
	}
	return decisions
}

func clampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
