package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/unclebandit/outreach-backend/internal/config"
)

// BotAPI is the part of *tgbotapi.BotAPI the notifier needs.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	api    BotAPI
	chatID int64
}

func NewTelegramNotifier(cfg config.Telegram) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram not configured: set TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID")
	}
	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return &TelegramNotifier{api: api, chatID: cfg.ChatID}, nil
}

func NewTelegramNotifierWithAPI(api BotAPI, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID}
}

func (t *TelegramNotifier) Notify(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := tgbotapi.NewMessage(t.chatID, msg.HTML)
	out.ParseMode = tgbotapi.ModeHTML
	if _, err := t.api.Send(out); err != nil {
		return fmt.Errorf("send telegram notification: %w", err)
	}
	return nil
}

// ChatIDs lists the chats that recently wrote to the bot, for discovering TELEGRAM_CHAT_ID.
func ChatIDs(token string) (map[int64]string, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	updates, err := api.GetUpdates(tgbotapi.NewUpdate(0))
	if err != nil {
		return nil, fmt.Errorf("get updates: %w", err)
	}
	return chatsFromUpdates(updates), nil
}

func chatsFromUpdates(updates []tgbotapi.Update) map[int64]string {
	chats := map[int64]string{}
	for _, u := range updates {
		if u.Message == nil || u.Message.Chat == nil {
			continue
		}
		chat := u.Message.Chat
		name := chat.Title
		if name == "" {
			name = chat.UserName
		}
		if name == "" {
			name = chat.FirstName
		}
		chats[chat.ID] = name
	}
	return chats
}

var _ Notifier = (*TelegramNotifier)(nil)
