// Package config reads the environment into explicit settings handed to each adapter.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
)

type Sheets struct {
	SpreadsheetID   string
	CredentialsFile string
	// Backend is "google" or "sqlite".
	Backend    string
	SQLitePath string
}

type Gemini struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailbox struct {
	CredentialsFile string
	User            string
}

type Telegram struct {
	BotToken string
	ChatID   int64
}

type Notification struct {
	Method string
	Email  string
}

type Apify struct {
	Token string
}

type Campaign struct {
	ConfigDir           string
	SendDelay           time.Duration
	WebsiteContextChars int
}

// Config holds every setting of the CLI, server and worker.
type Config struct {
	Sheets       Sheets
	Gemini       Gemini
	SMTP         SMTP
	Mailbox      Mailbox
	Telegram     Telegram
	Notification Notification
	Apify        Apify
	Campaign     Campaign

	DatabaseURL string
	AMQPURL     string
	HTTPPort    int
	Debug       bool
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ROW_STORE", "google")
	v.SetDefault("SQLITE_PATH", ".tmp/outreach.db")
	v.SetDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("GEMINI_MAX_TOKENS", 1000)
	v.SetDefault("SMTP_HOST", "smtp.gmail.com")
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("GMAIL_USER", "me")
	v.SetDefault("CONFIG_DIR", ".tmp")
	v.SetDefault("SEND_DELAY", "5s")
	v.SetDefault("WEBSITE_CONTEXT_CHARS", 500)
	v.SetDefault("PORT", 8080)
	v.SetDefault("DEBUG", false)
}

// Load reads settings from the environment. Pass nil to use a fresh viper instance.
func Load(v *viper.Viper) (*Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v)
	v.AutomaticEnv()

	delay, err := time.ParseDuration(v.GetString("SEND_DELAY"))
	if err != nil {
		return nil, fmt.Errorf("invalid SEND_DELAY: %w", err)
	}
	if delay < 0 {
		return nil, fmt.Errorf("invalid SEND_DELAY: %s is negative", delay)
	}

	backend := strings.ToLower(v.GetString("ROW_STORE"))
	if backend != "google" && backend != "sqlite" {
		return nil, fmt.Errorf("invalid ROW_STORE %q: use google or sqlite", backend)
	}

	password := v.GetString("GMAIL_APP_PASSWORD")
	if password == "" {
		password = v.GetString("GMAIL_PASSWORD")
	}
	address := v.GetString("GMAIL_ADDRESS")
	from := v.GetString("SMTP_FROM")
	if from == "" {
		from = address
	}

	mailboxCreds := v.GetString("GMAIL_CREDENTIALS_FILE")
	if mailboxCreds == "" {
		mailboxCreds = v.GetString("GOOGLE_CREDENTIALS_FILE")
	}

	return &Config{
		Sheets: Sheets{
			SpreadsheetID:   v.GetString("GOOGLE_SPREADSHEET_ID"),
			CredentialsFile: v.GetString("GOOGLE_CREDENTIALS_FILE"),
			Backend:         backend,
			SQLitePath:      v.GetString("SQLITE_PATH"),
		},
		Gemini: Gemini{
			APIKey:          v.GetString("GEMINI_API_KEY"),
			Model:           v.GetString("GEMINI_MODEL"),
			MaxOutputTokens: v.GetInt("GEMINI_MAX_TOKENS"),
		},
		SMTP: SMTP{
			Host:     v.GetString("SMTP_HOST"),
			Port:     v.GetInt("SMTP_PORT"),
			Username: address,
			Password: password,
			From:     from,
		},
		Mailbox: Mailbox{
			CredentialsFile: mailboxCreds,
			User:            v.GetString("GMAIL_USER"),
		},
		Telegram: Telegram{
			BotToken: v.GetString("TELEGRAM_BOT_TOKEN"),
			ChatID:   v.GetInt64("TELEGRAM_CHAT_ID"),
		},
		Notification: Notification{
			Method: strings.ToLower(v.GetString("NOTIFICATION_METHOD")),
			Email:  v.GetString("NOTIFICATION_EMAIL"),
		},
		Apify: Apify{
			Token: v.GetString("APIFY_API_TOKEN"),
		},
		Campaign: Campaign{
			ConfigDir:           v.GetString("CONFIG_DIR"),
			SendDelay:           delay,
			WebsiteContextChars: v.GetInt("WEBSITE_CONTEXT_CHARS"),
		},
		DatabaseURL: v.GetString("DATABASE_URL"),
		AMQPURL:     v.GetString("AMQP_URL"),
		HTTPPort:    v.GetInt("PORT"),
		Debug:       v.GetBool("DEBUG"),
	}, nil
}

func (c *Config) RequireSheet() error {
	if c.Sheets.Backend == "google" && c.Sheets.CredentialsFile == "" {
		return appErrors.NewConfigError("GOOGLE_CREDENTIALS_FILE")
	}
	return nil
}

func (c *Config) RequireSpreadsheetID() error {
	if c.Sheets.SpreadsheetID == "" {
		return appErrors.NewConfigError("GOOGLE_SPREADSHEET_ID")
	}
	return nil
}

func (c *Config) RequireGemini() error {
	if c.Gemini.APIKey == "" {
		return appErrors.NewConfigError("GEMINI_API_KEY")
	}
	return nil
}

func (c *Config) RequireSMTP() error {
	if c.SMTP.Username == "" {
		return appErrors.NewConfigError("GMAIL_ADDRESS")
	}
	if c.SMTP.Password == "" {
		return appErrors.NewConfigError("GMAIL_APP_PASSWORD")
	}
	return nil
}

func (c *Config) RequireApify() error {
	if c.Apify.Token == "" {
		return appErrors.NewConfigError("APIFY_API_TOKEN")
	}
	return nil
}

func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return appErrors.NewConfigError("DATABASE_URL")
	}
	return nil
}
