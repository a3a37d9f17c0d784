// Package app wires configured adapters into the orchestrator shared by the CLI, server and worker.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/apify"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/enrich"
	"github.com/unclebandit/outreach-backend/internal/generator"
	"github.com/unclebandit/outreach-backend/internal/leads"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/mailer"
	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/notify"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/service"
	"github.com/unclebandit/outreach-backend/internal/sheets"
	"github.com/unclebandit/outreach-backend/internal/verify"
	"github.com/unclebandit/outreach-backend/internal/website"
)

type Deps struct {
	Config       *config.Config
	Store        sheets.ValueStore
	Configs      *repository.FileConfigStore
	Orchestrator *service.Orchestrator
	Registry     *prometheus.Registry
	Metrics      *metrics.Metrics
	Logger       *zap.Logger

	closers []func() error
}

// Close releases the row store.
func (d *Deps) Close() error {
	var first error
	for _, c := range d.closers {
		if err := c(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// abort closes what Build already opened and reports both failures.
func (d *Deps) abort(err error) error {
	if closeErr := d.Close(); closeErr != nil {
		d.Logger.Error("failed to close partially built dependencies", zap.Error(closeErr))
		return errors.Join(err, fmt.Errorf("close: %w", closeErr))
	}
	return err
}

// Build creates every adapter the configuration allows. Missing optional credentials leave the
// matching collaborator unset, and the operation that needs it reports a ConfigError.
func Build(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Deps, error) {
	log = logger.OrNop(log)
	deps := &Deps{
		Config:   cfg,
		Configs:  repository.NewFileConfigStore(cfg.Campaign.ConfigDir),
		Registry: prometheus.NewRegistry(),
		Logger:   log,
	}
	deps.Metrics = metrics.New(deps.Registry)

	store, err := openStore(ctx, cfg, deps)
	if err != nil {
		return nil, err
	}
	deps.Store = store

	o := &service.Orchestrator{
		Store:     store,
		Configs:   deps.Configs,
		Website:   website.NewFetcher(),
		Verifier:  verify.NewVerifier(),
		Locks:     service.NewSheetLocks(),
		SendDelay: cfg.Campaign.SendDelay,
		Metrics:   deps.Metrics,
		Logger:    log,
	}

	if cfg.RequireApify() == nil {
		runner := apify.NewClient(cfg.Apify.Token)
		o.Maps = &leads.MapsSource{Runner: runner}
		o.Social = &leads.SocialSource{Runner: runner, Logger: log}
		o.Enricher = &enrich.Enricher{Crawler: &enrich.ApifyCrawler{Runner: runner}, Logger: log}
	} else {
		log.Warn("APIFY_API_TOKEN not set, maps searches return sample data")
		o.Maps = leads.SampleSource{}
		o.Enricher = &enrich.Enricher{Crawler: enrich.NewSiteCrawler(), Logger: log}
	}

	if cfg.RequireGemini() == nil {
		llm, err := generator.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, cfg.Gemini.MaxOutputTokens)
		if err != nil {
			return nil, deps.abort(fmt.Errorf("init gemini: %w", err))
		}
		gen := generator.New(llm, log)
		if cfg.Campaign.WebsiteContextChars > 0 {
			gen.ContextBudget = cfg.Campaign.WebsiteContextChars
		}
		o.Writer = gen
	}

	var smtp *mailer.SMTPDialer
	if cfg.RequireSMTP() == nil {
		smtp = mailer.NewSMTPDialer(cfg.SMTP)
		o.Dialer = smtp
	}

	if file := cfg.Mailbox.CredentialsFile; file != "" {
		if _, statErr := os.Stat(file); statErr == nil {
			mailbox, err := mailer.NewGmailMailbox(ctx, file, cfg.Mailbox.User)
			if err != nil {
				log.Warn("gmail mailbox unavailable", zap.Error(err))
			} else {
				o.Mailbox = mailbox
			}
		}
	}

	o.Notifier = buildNotifier(cfg, smtp, log)
	deps.Orchestrator = o
	return deps, nil
}

func openStore(ctx context.Context, cfg *config.Config, deps *Deps) (sheets.ValueStore, error) {
	if cfg.Sheets.Backend == "sqlite" {
		store, err := sheets.OpenSQLiteStore(cfg.Sheets.SQLitePath)
		if err != nil {
			return nil, err
		}
		deps.closers = append(deps.closers, store.Close)
		return store, nil
	}
	if err := cfg.RequireSheet(); err != nil {
		return nil, err
	}
	return sheets.NewGoogleStore(ctx, cfg.Sheets.CredentialsFile)
}

func buildNotifier(cfg *config.Config, smtp *mailer.SMTPDialer, log *zap.Logger) notify.Notifier {
	var telegram, email notify.Notifier
	if cfg.Telegram.BotToken != "" && cfg.Telegram.ChatID != 0 {
		tg, err := notify.NewTelegramNotifier(cfg.Telegram)
		if err != nil {
			log.Warn("telegram unavailable", zap.Error(err))
		} else {
			telegram = tg
		}
	}
	if smtp != nil && cfg.Notification.Email != "" {
		email = &notify.EmailNotifier{Sender: smtp, To: cfg.Notification.Email}
	}
	return notify.Select(cfg.Notification.Method, telegram, email, log)
}
