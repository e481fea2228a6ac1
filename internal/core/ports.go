package core

import (
	"context"
)

// Layer is one policy source in the classification pipeline. A layer
// either decides or defers; it never fails the run.
type Layer interface {
	// Name returns the layer tag recorded on classifications it produces.
	Name() string

	// Classify inspects one sender and decides or defers.
	Classify(ctx context.Context, sender *SenderStats) Decision
}

// BatchLayer is a layer that can amortize work across many senders, such
// as the AI adapter batching provider round-trips.
type BatchLayer interface {
	Layer

	// Available reports whether the layer can currently decide anything.
	// Unavailable batch layers are skipped without dispatch overhead.
	Available() bool

	// ClassifyBatch classifies many senders at once. Domains missing from
	// the returned map are treated as deferred.
	ClassifyBatch(ctx context.Context, senders []*SenderStats) map[string]Decision
}

// Provider is the capability an external AI classification service
// exposes: take a structured prompt, return the raw completion text.
// The adapter, not the provider, owns prompt construction and parsing.
type Provider interface {
	// Name identifies the provider in logs and failure records.
	Name() string

	// Available reports whether the provider is configured and reachable
	// enough to be worth a round-trip.
	Available() bool

	// Complete sends a prompt and returns the completion text. The call
	// must honor ctx cancellation and deadlines.
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// CorrectionSource supplies recent user corrections, most recent first,
// for in-context learning in the AI prompt.
type CorrectionSource interface {
	RecentCorrections(ctx context.Context, limit int) ([]Correction, error)
}

// Store is the persistence collaborator. It holds everything the engine
// reads at run start and accepts what the run emits; the engine itself
// never touches storage mid-classification.
type Store interface {
	CorrectionSource

	// Rules returns the persisted user rules. Rows with malformed actions
	// are skipped with a warning, never surfaced as errors.
	Rules(ctx context.Context) ([]Rule, error)
	AddRule(ctx context.Context, rule Rule) error
	DeleteRule(ctx context.Context, pattern string) error

	RecordCorrection(ctx context.Context, c Correction) error

	// LoadProfile returns ErrNotFound when no profile has been saved yet.
	LoadProfile(ctx context.Context) (LearningProfile, error)
	SaveProfile(ctx context.Context, p LearningProfile) error

	SaveClassification(ctx context.Context, domain string, c Classification) error

	Close() error
}
