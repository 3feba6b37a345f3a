package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ghodss/yaml"
	"github.com/joho/godotenv"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	ListenAddress string `env:"LISTEN" json:"listenAddress"`
	PublicURL     string `env:"PUBLIC_URL" json:"publicUrl"`

	ClientID         string   `env:"WEBEX_CLIENT_ID" json:"clientId"`
	ClientSecret     string   `env:"WEBEX_CLIENT_SECRET" json:"clientSecret"`
	Scopes           []string `env:"WEBEX_SCOPES" json:"scopes"`
	AuthorizationURL string   `env:"WEBEX_AUTHORIZATION_URL, default=https://webexapis.com/v1/authorize" json:"authorizationUrl"`
	TokenURL         string   `env:"WEBEX_TOKEN_URL, default=https://webexapis.com/v1/access_token" json:"tokenUrl"`
	APIBaseURL       string   `env:"WEBEX_API_URL, default=https://webexapis.com/v1" json:"apiBaseUrl"`

	TokenFilePath string `env:"TOKEN_FILE, default=data/token.json" json:"tokenFilePath"`
	CSVOutputDir  string `env:"CSV_OUTPUT_DIR, default=data" json:"csvOutputDir"`

	// Report schedule: a nonzero day-count takes precedence over the
	// start/end date pair.
	ReportDays      int    `env:"REPORT_DAYS" json:"reportDays"`
	ReportStartDate string `env:"REPORT_START_DATE" json:"reportStartDate"` // YYYY-MM-DD
	ReportEndDate   string `env:"REPORT_END_DATE" json:"reportEndDate"`     // YYYY-MM-DD

	PollInterval time.Duration `env:"POLL_INTERVAL, default=30s" json:"pollInterval"`
	PollTimeout  time.Duration `env:"POLL_TIMEOUT, default=30m" json:"pollTimeout"`

	// QuotaRemediation selects the non-interactive remediation strategy
	// used by the web layer: "fail" (default) or "delete-oldest".
	QuotaRemediation string `env:"QUOTA_REMEDIATION, default=fail" json:"quotaRemediation"`

	// Country is the default region for phone-number normalization.
	Country string `env:"COUNTRY, default=US" json:"country"`

	// MongoURL enables the run history store when set.
	MongoURL string `env:"MONGO_URL" json:"mongoUrl"`
	Database string `env:"DATABASE, default=cdr-reports" json:"database"`

	// QuotaWatchInterval is the pause between stored-report checks of the
	// background watcher; StaleReportMaxAge enables auto-deletion of
	// stored reports older than the given age (zero disables it).
	QuotaWatchInterval time.Duration `env:"QUOTA_WATCH_INTERVAL, default=10m" json:"quotaWatchInterval"`
	StaleReportMaxAge  time.Duration `env:"STALE_REPORT_MAX_AGE" json:"staleReportMaxAge"`

	startDate time.Time
	endDate   time.Time
}

// LoadConfig reads the optional YAML/JSON config file at path, overlays
// the environment (including a .env file in the working directory) and
// validates the result.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	// a missing .env file is fine, the environment may be set directly.
	_ = godotenv.Load()

	var cfg Config

	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file at path %q: %w", path, err)
		}

		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			content, err = yaml.YAMLToJSON(content)
			if err != nil {
				return nil, fmt.Errorf("failed to convert YAML to JSON: %w", err)
			}

			fallthrough
		case ".json":
			dec := json.NewDecoder(bytes.NewReader(content))
			dec.DisallowUnknownFields()

			if err := dec.Decode(&cfg); err != nil {
				return nil, fmt.Errorf("failed to decode JSON: %w", err)
			}
		}
	}

	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration from environment: %w", err)
	}

	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8080"
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (cfg *Config) validate() error {
	if cfg.ClientID == "" {
		return fmt.Errorf("missing clientId config setting")
	}

	if cfg.ClientSecret == "" {
		return fmt.Errorf("missing clientSecret config setting")
	}

	if cfg.PublicURL == "" {
		return fmt.Errorf("missing publicUrl config setting")
	}

	if cfg.ReportDays != 0 && (cfg.ReportDays < 1 || cfg.ReportDays > 31) {
		return fmt.Errorf("reportDays must be between 1 and 31, got %d", cfg.ReportDays)
	}

	if (cfg.ReportStartDate == "") != (cfg.ReportEndDate == "") {
		return fmt.Errorf("reportStartDate and reportEndDate must both be set")
	}

	if cfg.ReportStartDate != "" {
		start, err := time.Parse("2006-01-02", cfg.ReportStartDate)
		if err != nil {
			return fmt.Errorf("invalid value for reportStartDate: %w", err)
		}

		end, err := time.Parse("2006-01-02", cfg.ReportEndDate)
		if err != nil {
			return fmt.Errorf("invalid value for reportEndDate: %w", err)
		}

		if end.Before(start) {
			return fmt.Errorf("reportEndDate cannot be earlier than reportStartDate")
		}

		if end.Sub(start) > 30*24*time.Hour {
			return fmt.Errorf("report date range should not exceed 30 days")
		}

		cfg.startDate = start
		cfg.endDate = end
	}

	switch cfg.QuotaRemediation {
	case "", "fail", "delete-oldest":
	default:
		return fmt.Errorf("invalid setting for quotaRemediation, allowed values are fail and delete-oldest")
	}

	return nil
}

// ReportWindow returns the configured schedule: a day-count or a parsed
// start/end date pair. All zero values mean no schedule is configured.
func (cfg *Config) ReportWindow() (days int, start, end time.Time) {
	return cfg.ReportDays, cfg.startDate, cfg.endDate
}

// RedirectURL is the OAuth callback URL derived from the public URL.
func (cfg *Config) RedirectURL() string {
	return cfg.PublicURL + "/callback"
}
