package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Veraticus/loanrecon/internal/model"
)

// LoadRules returns the stored rule configuration. An empty map means no
// rules have been saved yet.
func (s *SQLiteStorage) LoadRules(ctx context.Context) (map[string]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT key, rule FROM validation_rules ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]model.Rule)
	for rows.Next() {
		var key, data string
		if err := rows.Scan(&key, &data); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		var rule model.Rule
		if err := json.Unmarshal([]byte(data), &rule); err != nil {
			return nil, fmt.Errorf("failed to decode rule %q: %w", key, err)
		}
		out[key] = rule
	}
	return out, rows.Err()
}

// SaveRules replaces the stored rule configuration.
func (s *SQLiteStorage) SaveRules(ctx context.Context, rules map[string]model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if rules == nil {
		return fmt.Errorf("%w: rules", ErrNilParameter)
	}

	now := time.Now().UTC()
	return s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM validation_rules`); err != nil {
			return fmt.Errorf("failed to clear rules: %w", err)
		}
		for key, rule := range rules {
			if err := validateString(key, "rule key"); err != nil {
				return err
			}
			data, err := json.Marshal(rule)
			if err != nil {
				return fmt.Errorf("failed to encode rule %q: %w", key, err)
			}
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO validation_rules (key, rule, updated_at) VALUES (?, ?, ?)
			`, key, string(data), now); err != nil {
				return fmt.Errorf("failed to save rule %q: %w", key, err)
			}
		}
		return nil
	})
}
