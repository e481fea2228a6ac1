package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/nothx/nothx/internal/core"
)

// SQLiteStore is a SQLite implementation of the core.Store interface.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore opens (and if needed initializes) the SQLite database
func NewSQLiteStore(dbPath string, logger *zap.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, logger: logger}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rules (
			pattern TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			scope TEXT NOT NULL DEFAULT 'domain',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS corrections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			domain TEXT NOT NULL,
			previous_action TEXT NOT NULL,
			new_action TEXT NOT NULL,
			open_rate REAL NOT NULL DEFAULT 0,
			email_count INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_corrections_created_at ON corrections(created_at)`,
		`CREATE TABLE IF NOT EXISTS learning_profile (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload TEXT NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS classifications (
			domain TEXT PRIMARY KEY,
			email_type TEXT NOT NULL,
			action TEXT NOT NULL,
			confidence REAL NOT NULL,
			reasoning TEXT NOT NULL,
			layer TEXT NOT NULL,
			decided_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}
	return nil
}

// Rules returns all persisted rules. Rows whose action no longer parses
// are skipped with a warning so one bad row cannot poison a run.
func (s *SQLiteStore) Rules(ctx context.Context) ([]core.Rule, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT pattern, action, scope, created_at FROM rules
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var rules []core.Rule
	for rows.Next() {
		var pattern, action, scope string
		var createdAt time.Time
		if err := rows.Scan(&pattern, &action, &scope, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}

		parsed, err := core.ParseAction(action)
		if err != nil {
			s.logger.Warn("Skipping persisted rule with invalid action",
				zap.String("pattern", pattern),
				zap.String("action", action))
			continue
		}
		rules = append(rules, core.Rule{
			Pattern:   pattern,
			Action:    parsed,
			Scope:     core.RuleScope(scope),
			CreatedAt: createdAt,
		})
	}
	return rules, rows.Err()
}

// AddRule inserts or replaces a rule
func (s *SQLiteStore) AddRule(ctx context.Context, rule core.Rule) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO rules (pattern, action, scope, created_at)
		VALUES (?, ?, ?, ?)
	`, rule.Pattern, string(rule.Action), string(rule.Scope), rule.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert rule: %w", err)
	}
	return nil
}

// DeleteRule removes a rule by pattern
func (s *SQLiteStore) DeleteRule(ctx context.Context, pattern string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE pattern = ?`, pattern)
	if err != nil {
		return fmt.Errorf("failed to delete rule: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecordCorrection appends a user correction
func (s *SQLiteStore) RecordCorrection(ctx context.Context, c core.Correction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO corrections (domain, previous_action, new_action, open_rate, email_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, c.Domain, string(c.Previous), string(c.Corrected), c.OpenRate, c.EmailCount, c.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to insert correction: %w", err)
	}
	return nil
}

// RecentCorrections returns the most recent corrections, newest first
func (s *SQLiteStore) RecentCorrections(ctx context.Context, limit int) ([]core.Correction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, previous_action, new_action, open_rate, email_count, created_at
		FROM corrections
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer rows.Close()

	var out []core.Correction
	for rows.Next() {
		var c core.Correction
		var prev, corrected string
		if err := rows.Scan(&c.Domain, &prev, &corrected, &c.OpenRate, &c.EmailCount, &c.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		c.Previous = core.Action(prev)
		c.Corrected = core.Action(corrected)
		out = append(out, c)
	}
	return out, rows.Err()
}

// LoadProfile returns the stored learning profile
func (s *SQLiteStore) LoadProfile(ctx context.Context) (core.LearningProfile, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `
		SELECT payload FROM learning_profile WHERE id = 1
	`).Scan(&payload)
	if err == sql.ErrNoRows {
		return core.LearningProfile{}, ErrNotFound
	}
	if err != nil {
		return core.LearningProfile{}, fmt.Errorf("failed to query learning profile: %w", err)
	}

	var profile core.LearningProfile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return core.LearningProfile{}, fmt.Errorf("failed to decode learning profile: %w", err)
	}
	return profile, nil
}

// SaveProfile stores the learning profile
func (s *SQLiteStore) SaveProfile(ctx context.Context, p core.LearningProfile) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode learning profile: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO learning_profile (id, payload, updated_at)
		VALUES (1, ?, ?)
	`, string(payload), time.Now())
	if err != nil {
		return fmt.Errorf("failed to save learning profile: %w", err)
	}
	return nil
}

// SaveClassification stores the decision for a domain
func (s *SQLiteStore) SaveClassification(ctx context.Context, domain string, c core.Classification) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO classifications (domain, email_type, action, confidence, reasoning, layer, decided_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, domain, string(c.EmailType), string(c.Action), c.Confidence, c.Reasoning, c.Layer, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save classification: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close SQLite database: %w", err)
	}
	return nil
}
