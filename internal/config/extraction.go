package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/loanrecon/internal/common"
	"github.com/Veraticus/loanrecon/internal/extraction"
)

// LoadExtractionConfig loads the extraction service configuration from Viper
// and environment variables. It follows this precedence:
// 1. Viper configuration (from config file or RECON_ env vars)
// 2. Direct environment variables (EXTRACTION_*)
// 3. Default values
func LoadExtractionConfig() (*extraction.Config, error) {
	config := extraction.DefaultConfig()
	defaults := extraction.DefaultConfig()

	if v := viper.GetString("extraction.base_url"); v != "" {
		config.BaseURL = v
	} else if v := os.Getenv("EXTRACTION_BASE_URL"); v != "" {
		config.BaseURL = v
	}

	if v := viper.GetString("extraction.api_key"); v != "" {
		config.APIKey = v
	} else {
		config.APIKey = os.Getenv("EXTRACTION_API_KEY")
	}

	if viper.IsSet("extraction.timeout") {
		config.Timeout = viper.GetDuration("extraction.timeout")
	} else if v := os.Getenv("EXTRACTION_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("%w: EXTRACTION_TIMEOUT %q: %w", common.ErrInvalidConfig, v, err)
		}
		config.Timeout = d
	}

	if viper.IsSet("extraction.max_attempts") {
		config.RetryAttempts = viper.GetInt("extraction.max_attempts")
	} else if v := os.Getenv("EXTRACTION_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: EXTRACTION_MAX_ATTEMPTS %q: %w", common.ErrInvalidConfig, v, err)
		}
		config.RetryAttempts = n
	}

	if viper.IsSet("extraction.retry_delay") {
		config.RetryDelay = viper.GetDuration("extraction.retry_delay")
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = defaults.RetryDelay
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidConfig, err)
	}

	return &config, nil
}
