package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/viper"

	"github.com/Veraticus/loanrecon/internal/common"
	"github.com/Veraticus/loanrecon/internal/config"
	"github.com/Veraticus/loanrecon/internal/engine"
	"github.com/Veraticus/loanrecon/internal/extraction"
	"github.com/Veraticus/loanrecon/internal/rules"
	"github.com/Veraticus/loanrecon/internal/service"
	"github.com/Veraticus/loanrecon/internal/storage"
)

// initStorage opens the configured database, migrates it and seeds the rule
// configuration from rules.file when the database has none yet.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := config.DatabasePath()

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := seedRules(ctx, store); err != nil {
		_ = store.Close()
		return nil, err
	}

	return store, nil
}

func seedRules(ctx context.Context, store service.RuleStore) error {
	path := config.RulesPath()
	if path == "" {
		return nil
	}

	existing, err := store.LoadRules(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	rs, err := rules.LoadFile(path)
	if err != nil {
		return common.NewUserError("Could not load the configured rules file", err)
	}
	if err := store.SaveRules(ctx, rs.Snapshot()); err != nil {
		return fmt.Errorf("failed to save rules: %w", err)
	}
	slog.Info("Seeded validation rules", "file", path, "rules", rs.Len())
	return nil
}

// operator names the person recorded on reconciliations and timeline events.
func operator() string {
	if op := viper.GetString("review.operator"); op != "" {
		return op
	}
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return engine.DefaultConfig().Operator
}

// newExtractor builds the extraction service client from configuration.
func newExtractor() (*extraction.Client, error) {
	cfg, err := config.LoadExtractionConfig()
	if err != nil {
		return nil, err
	}
	return extraction.NewClient(*cfg)
}

// newReviewer wires a reviewer to the store. withExtractor is set for the
// commands that may upload a document.
func newReviewer(store engine.Store, resolver engine.Resolver, withExtractor bool) (*engine.Reviewer, error) {
	var extractor service.Extractor
	if withExtractor {
		client, err := newExtractor()
		if err != nil {
			return nil, err
		}
		extractor = client
	}

	cfg := engine.DefaultConfig()
	cfg.Operator = operator()
	return engine.NewWithConfig(store, extractor, resolver, cfg), nil
}

func parseLoanID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewUserError(fmt.Sprintf("%q is not a valid loan ID", arg), nil)
	}
	return id, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
