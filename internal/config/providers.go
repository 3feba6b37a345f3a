package config

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/oauth2"

	"github.com/example/webex-cdr-support/internal/database"
	"github.com/example/webex-cdr-support/internal/export"
	"github.com/example/webex-cdr-support/internal/report"
	"github.com/example/webex-cdr-support/internal/token"
	"github.com/example/webex-cdr-support/internal/webex"
)

type Providers struct {
	Tokens   *token.Provider
	Webex    *webex.Client
	Exporter *export.Writer

	// History is nil when no MongoDB URL is configured.
	History database.History

	Config Config
}

func NewProviders(ctx context.Context, cfg Config) (*Providers, error) {
	store := token.NewStore(cfg.TokenFilePath)
	tokens := token.NewProvider(&oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Scopes:       cfg.Scopes,
		RedirectURL:  cfg.RedirectURL(),
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthorizationURL,
			TokenURL: cfg.TokenURL,
		},
	}, store)

	p := &Providers{
		Tokens:   tokens,
		Webex:    webex.NewClient(cfg.APIBaseURL, tokens),
		Exporter: export.NewWriter(cfg.CSVOutputDir),
		Config:   cfg,
	}

	if cfg.MongoURL != "" {
		cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
		}

		// try to ping mongo
		if err := cli.Ping(ctx, nil); err != nil {
			return nil, fmt.Errorf("failed to ping mongodb: %w", err)
		}

		history, err := database.New(ctx, cfg.Database, cli)
		if err != nil {
			return nil, fmt.Errorf("failed to prepare run history db: %w", err)
		}

		p.History = history
	} else {
		slog.Info("no MongoDB URL configured, run history disabled")
	}

	return p, nil
}

// RemediationStrategy returns the configured non-interactive quota
// remediation strategy.
func (p *Providers) RemediationStrategy() report.RemediationStrategy {
	if p.Config.QuotaRemediation == "delete-oldest" {
		return report.DeleteOldest{}
	}

	return report.FailFast{}
}

// NewOrchestrator wires a single-run orchestrator from the configured
// collaborators. strategy and observer may be nil.
func (p *Providers) NewOrchestrator(strategy report.RemediationStrategy, observer report.ProgressObserver) *report.Orchestrator {
	if strategy == nil {
		strategy = p.RemediationStrategy()
	}

	pollerOpts := []report.PollerOption{
		report.WithPollInterval(p.Config.PollInterval),
		report.WithPollTimeout(p.Config.PollTimeout),
	}
	if observer != nil {
		pollerOpts = append(pollerOpts, report.WithObserver(observer))
	}

	days, start, end := p.Config.ReportWindow()

	opts := []report.OrchestratorOption{
		report.WithSink(p.Exporter),
		report.WithNormalizer(report.NewNumberNormalizer(p.Config.Country, slog.Default())),
	}
	if p.History != nil {
		opts = append(opts, report.WithRunRecorder(p.History))
	}

	return report.NewOrchestrator(
		p.Webex,
		report.NewQuotaGuard(p.Webex, strategy),
		report.NewPoller(p.Webex, pollerOpts...),
		report.Schedule{Days: days, Start: start, End: end},
		opts...,
	)
}
