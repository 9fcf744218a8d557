// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}

// DataDir returns the directory holding the database and exports.
// It honours XDG_DATA_HOME and falls back to ~/.local/share/recon.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "recon")
	}
	return ExpandPath("~/.local/share/recon")
}

// DatabasePath returns the configured database path, expanded.
func DatabasePath() string {
	if p := viper.GetString("database.path"); p != "" {
		return ExpandPath(p)
	}
	return filepath.Join(DataDir(), "recon.db")
}

// RulesPath returns the configured validation rules file, or "" when rules
// live only in the database.
func RulesPath() string {
	return ExpandPath(viper.GetString("rules.file"))
}
