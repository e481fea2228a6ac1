package storage

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/core"
)

// MemoryStore is an in-memory implementation of the core.Store interface,
// used for tests and throwaway runs.
type MemoryStore struct {
	mu              sync.RWMutex
	rules           []core.Rule
	corrections     []core.Correction
	profile         *core.LearningProfile
	classifications map[string]core.Classification
	logger          *zap.Logger
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore(logger *zap.Logger) *MemoryStore {
	return &MemoryStore{
		classifications: make(map[string]core.Classification),
		logger:          logger,
	}
}

// Rules returns all persisted rules
func (s *MemoryStore) Rules(_ context.Context) ([]core.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Rule, len(s.rules))
	copy(out, s.rules)
	return out, nil
}

// AddRule stores a rule, replacing any rule with the same pattern
func (s *MemoryStore) AddRule(_ context.Context, rule core.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.rules {
		if r.Pattern == rule.Pattern {
			s.rules[i] = rule
			return nil
		}
	}
	s.rules = append(s.rules, rule)
	return nil
}

// DeleteRule removes a rule by pattern
func (s *MemoryStore) DeleteRule(_ context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, r := range s.rules {
		if r.Pattern == pattern {
			s.rules = append(s.rules[:i], s.rules[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// RecordCorrection appends a user correction
func (s *MemoryStore) RecordCorrection(_ context.Context, c core.Correction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.corrections = append(s.corrections, c)
	return nil
}

// RecentCorrections returns the most recent corrections, newest first
func (s *MemoryStore) RecentCorrections(_ context.Context, limit int) ([]core.Correction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.corrections)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]core.Correction, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.corrections[i])
	}
	return out, nil
}

// LoadProfile returns the stored learning profile
func (s *MemoryStore) LoadProfile(_ context.Context) (core.LearningProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.profile == nil {
		return core.LearningProfile{}, ErrNotFound
	}
	return s.profile.Clone(), nil
}

// SaveProfile stores the learning profile
func (s *MemoryStore) SaveProfile(_ context.Context, p core.LearningProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := p.Clone()
	s.profile = &clone
	return nil
}

// SaveClassification stores the decision for a domain
func (s *MemoryStore) SaveClassification(_ context.Context, domain string, c core.Classification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.classifications[domain] = c
	return nil
}

// Classifications returns all stored decisions
func (s *MemoryStore) Classifications() map[string]core.Classification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]core.Classification, len(s.classifications))
	for k, v := range s.classifications {
		out[k] = v
	}
	return out
}

// Close is a no-op for the memory store
func (s *MemoryStore) Close() error {
	return nil
}
