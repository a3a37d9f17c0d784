// cmd/outreach/main.go
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/app"
	"github.com/unclebandit/outreach-backend/internal/cli"
	"github.com/unclebandit/outreach-backend/internal/config"
	appErrors "github.com/unclebandit/outreach-backend/internal/errors"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/notify"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	logg, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logg.Sync()

	rt := cli.Runtime{
		Open: func(ctx context.Context, in io.Reader, out io.Writer) (*cli.App, func() error, error) {
			deps, err := app.Build(ctx, cfg, logg)
			if err != nil {
				return nil, nil, err
			}
			return cli.NewApp(deps.Orchestrator, cfg.Sheets.SpreadsheetID, in, out, logg), deps.Close, nil
		},
		ChatIDs: func() (map[int64]string, error) {
			if cfg.Telegram.BotToken == "" {
				return nil, appErrors.NewConfigError("TELEGRAM_BOT_TOKEN")
			}
			return notify.ChatIDs(cfg.Telegram.BotToken)
		},
	}

	// SIGTERM ends the process; Ctrl-C is handled per operation by the menu.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand(rt).ExecuteContext(ctx); err != nil {
		logg.Debug("command failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}
