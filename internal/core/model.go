package core

import (
	"fmt"
	"strings"
	"time"
)

// Action is the decision taken for a sender.
type Action string

const (
	ActionKeep   Action = "keep"
	ActionUnsub  Action = "unsub"
	ActionBlock  Action = "block"
	ActionReview Action = "review"
)

// ParseAction validates a persisted action value. Unknown values are
// rejected rather than defaulted so callers can skip malformed rules.
func ParseAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionKeep:
		return ActionKeep, nil
	case ActionUnsub:
		return ActionUnsub, nil
	case ActionBlock:
		return ActionBlock, nil
	case ActionReview:
		return ActionReview, nil
	default:
		return "", fmt.Errorf("unknown action %q", raw)
	}
}

// EmailType categorizes what kind of mail a sender produces.
type EmailType string

const (
	EmailTypeMarketing     EmailType = "marketing"
	EmailTypeTransactional EmailType = "transactional"
	EmailTypeSecurity      EmailType = "security"
	EmailTypeNewsletter    EmailType = "newsletter"
	EmailTypeColdOutreach  EmailType = "cold_outreach"
	EmailTypeUnknown       EmailType = "unknown"
)

// ParseEmailType maps a raw type string to an EmailType, falling back to
// unknown. Email types are advisory, so unlike actions they never fail.
func ParseEmailType(raw string) EmailType {
	switch EmailType(strings.ToLower(strings.TrimSpace(raw))) {
	case EmailTypeMarketing:
		return EmailTypeMarketing
	case EmailTypeTransactional:
		return EmailTypeTransactional
	case EmailTypeSecurity:
		return EmailTypeSecurity
	case EmailTypeNewsletter:
		return EmailTypeNewsletter
	case EmailTypeColdOutreach:
		return EmailTypeColdOutreach
	default:
		return EmailTypeUnknown
	}
}

// SenderStats holds the per-domain aggregate the scanner builds for one
// scan window. The engine reads it, never the underlying messages.
type SenderStats struct {
	Domain         string    `json:"domain"`
	TotalEmails    int       `json:"total_emails"`
	OpenRate       float64   `json:"open_rate"` // 0-100
	FirstSeen      time.Time `json:"first_seen,omitempty"`
	LastSeen       time.Time `json:"last_seen,omitempty"`
	SampleSubjects []string  `json:"sample_subjects,omitempty"`
	HasUnsubscribe bool      `json:"has_unsubscribe"`
	PriorType      EmailType `json:"prior_type,omitempty"`
}

// Classification is the engine's final verdict for one sender. Values are
// produced fresh each run and never mutated afterwards.
type Classification struct {
	EmailType  EmailType `json:"email_type"`
	Action     Action    `json:"action"`
	Confidence float64   `json:"confidence"`
	Reasoning  string    `json:"reasoning"`
	Layer      string    `json:"layer"` // "rule", "preset", "ai", "heuristics", "review"
}

// Decision is a layer's answer: either a Classification or an explicit
// refusal to decide. Deferral is a first-class value here, not a nil.
type Decision struct {
	Decided bool
	Result  Classification
}

// Decided wraps a classification in a decided Decision.
func Decided(c Classification) Decision {
	return Decision{Decided: true, Result: c}
}

// Deferred passes control to the next layer.
func Deferred() Decision {
	return Decision{}
}

// RuleScope selects what a rule's pattern is matched against.
type RuleScope string

const (
	ScopeDomain  RuleScope = "domain"
	ScopeAddress RuleScope = "address"
)

// Rule is a user-authored pattern override. Rules always win over every
// other layer and are the only source allowed to auto-act on protected
// senders.
type Rule struct {
	Pattern   string    `json:"pattern"`
	Action    Action    `json:"action"`
	Scope     RuleScope `json:"scope"`
	CreatedAt time.Time `json:"created_at"`
}

// Correction records a user overriding a prior automatic decision,
// together with the features that decision was based on.
type Correction struct {
	Domain     string    `json:"domain"`
	Previous   Action    `json:"previous_action"`
	Corrected  Action    `json:"new_action"`
	OpenRate   float64   `json:"open_rate"`
	EmailCount int       `json:"email_count"`
	Keywords   []string  `json:"keywords,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// KeywordStat tracks the learned keep-rate for one domain keyword.
// Value 1.0 means the user always keeps senders carrying the keyword,
// 0.0 means they always unsubscribe.
type KeywordStat struct {
	Value       float64   `json:"value"`
	Samples     int       `json:"samples"`
	LastUpdated time.Time `json:"last_updated"`
}

// LearningProfile carries the per-user weights the heuristic scorer
// consumes. It is an explicit value threaded through learning.Update and
// persisted by the storage collaborator; the engine holds no global state.
type LearningProfile struct {
	OpenRateWeight  float64                `json:"open_rate_weight"`
	OpenRateSamples int                    `json:"open_rate_samples"`
	VolumeWeight    float64                `json:"volume_weight"`
	VolumeSamples   int                    `json:"volume_samples"`
	Keywords        map[string]KeywordStat `json:"keywords"`
	Version         int                    `json:"version"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// DefaultProfile returns the neutral starting profile.
func DefaultProfile() LearningProfile {
	return LearningProfile{
		OpenRateWeight: 1.0,
		VolumeWeight:   1.0,
		Keywords:       map[string]KeywordStat{},
	}
}

// Clone deep-copies the profile so updates never alias the original.
func (p LearningProfile) Clone() LearningProfile {
	out := p
	out.Keywords = make(map[string]KeywordStat, len(p.Keywords))
	for k, v := range p.Keywords {
		out.Keywords[k] = v
	}
	return out
}

// EmailHeader is the non-body metadata of one message, as supplied by the
// scanner. Only the unsubscribe executor consumes individual headers; the
// engine sees aggregates.
type EmailHeader struct {
	Sender              string    `json:"sender"`
	Subject             string    `json:"subject"`
	Date                time.Time `json:"date"`
	MessageID           string    `json:"message_id"`
	ListUnsubscribe     string    `json:"list_unsubscribe,omitempty"`
	ListUnsubscribePost bool      `json:"list_unsubscribe_post,omitempty"`
	Seen                bool      `json:"seen"`
}

// Domain extracts the sending domain from the From address.
func (h *EmailHeader) Domain() string {
	addr := h.Sender
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return strings.ToLower(addr[i+1:])
	}
	return strings.ToLower(addr)
}

// UnsubscribeURL returns the first http(s) target from the
// List-Unsubscribe header, if any.
func (h *EmailHeader) UnsubscribeURL() string {
	for _, part := range strings.Split(h.ListUnsubscribe, ",") {
		part = strings.Trim(strings.TrimSpace(part), "<>")
		if strings.HasPrefix(part, "https://") || strings.HasPrefix(part, "http://") {
			return part
		}
	}
	return ""
}

// UnsubscribeMailto returns the first mailto target from the
// List-Unsubscribe header, if any.
func (h *EmailHeader) UnsubscribeMailto() string {
	for _, part := range strings.Split(h.ListUnsubscribe, ",") {
		part = strings.Trim(strings.TrimSpace(part), "<>")
		if strings.HasPrefix(part, "mailto:") {
			return strings.TrimPrefix(part, "mailto:")
		}
	}
	return ""
}
