// Package bot implements the Telegram command surface and message delivery.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"yt_notify_bot/internal/config"
	"yt_notify_bot/internal/fetcher"
	"yt_notify_bot/internal/resolver"
	"yt_notify_bot/internal/storage"
)

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot handles user commands and sends notification messages.
type Bot struct {
	api      telegramAPI
	store    storage.Store
	cfg      *config.Config
	resolver *resolver.Resolver
	fetcher  *fetcher.Fetcher
	log      *slog.Logger
}

// New creates a Bot with the given Telegram token, storage, and config.
func New(token string, store storage.Store, cfg *config.Config, log *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	return &Bot{
		api:      api,
		store:    store,
		cfg:      cfg,
		resolver: resolver.New(http.DefaultClient),
		fetcher:  fetcher.New(http.DefaultClient),
		log:      log,
	}, nil
}

// Run starts the bot's long-polling loop, blocking until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.MyChatMember != nil {
				b.handleChatMember(update.MyChatMember)
				continue
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			if !b.cfg.IsUserAllowed(update.Message.From.ID) {
				b.reply(update.Message.Chat.ID, "Access denied.")
				continue
			}
			b.handleCommand(ctx, update.Message)
		}
	}
}

// SendMessage sends a text message to the given chat.
func (b *Bot) SendMessage(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func (b *Bot) reply(chatID int64, text string) {
	if err := b.SendMessage(chatID, text); err != nil {
		b.log.Error("reply", "chat_id", chatID, "error", err)
	}
}

// subscriberID is the opaque store key for a chat.
func subscriberID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cmd := msg.Command()
	args := strings.TrimSpace(msg.CommandArguments())
	chatID := msg.Chat.ID

	b.log.Debug("command", "cmd", cmd, "args", args, "chat_id", chatID)

	switch cmd {
	case "start":
		b.handleStart(chatID)
	case "help":
		b.handleHelp(chatID)
	case "ping":
		b.reply(chatID, "I'm alive.")
	case "target":
		b.handleTarget(chatID)
	case "cleartarget":
		b.handleClearTarget(chatID)
	case "subscribe":
		b.handleSubscribe(ctx, chatID, args)
	case "unsubscribe":
		b.handleUnsubscribe(ctx, chatID, args)
	case "list":
		b.handleList(ctx, chatID)
	case "clear":
		b.handleClear(chatID)
	default:
		b.reply(chatID, "Unknown command. Use /help for a list of commands.")
	}
}

// handleChatMember purges all stored data of a chat once the bot is
// removed from it.
func (b *Bot) handleChatMember(m *tgbotapi.ChatMemberUpdated) {
	status := m.NewChatMember.Status
	if status != "kicked" && status != "left" {
		return
	}

	sub := subscriberID(m.Chat.ID)
	removed, err := b.store.RemoveSubscriber(sub)
	if err != nil {
		b.log.Error("purge subscriber", "subscriber", sub, "error", err)
		return
	}
	if removed {
		b.log.Info("bot removed from chat, data purged", "subscriber", sub)
	} else {
		b.log.Info("bot removed from chat, no data to purge", "subscriber", sub)
	}
}
