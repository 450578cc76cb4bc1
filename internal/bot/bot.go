// Package bot принимает апдейты Telegram и превращает их в операции леджера.
package bot

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/linemk/pizza-coin/internal/cooldown"
	"github.com/linemk/pizza-coin/internal/service"
)

// Sender - часть *tgbotapi.BotAPI, через которую бот отвечает в чат
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TokenIssuer выдаёт токен HTTP API для пользователя чата
type TokenIssuer func(userID string) (string, error)

type Options struct {
	LogChatID      int64 // чат для журнала переводов, 0 - не писать
	SendCooldown   time.Duration
	AdminCooldown  time.Duration
	HandlerTimeout time.Duration
}

type Bot struct {
	log        *slog.Logger
	api        Sender
	ledger     service.Ledger
	limiter    cooldown.Limiter
	guard      *service.ResetGuard
	issueToken TokenIssuer
	opts       Options
}

func New(
	log *slog.Logger,
	api Sender,
	ledger service.Ledger,
	limiter cooldown.Limiter,
	guard *service.ResetGuard,
	issueToken TokenIssuer,
	opts Options,
) *Bot {
	return &Bot{
		log:        log,
		api:        api,
		ledger:     ledger,
		limiter:    limiter,
		guard:      guard,
		issueToken: issueToken,
		opts:       opts,
	}
}

// Run обрабатывает апдейты по одному, пока не закроется канал или не отменится ctx
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	const op = "bot.Run"
	b.log.Info("bot is polling updates", slog.String("op", op))

	for {
		select {
		case <-ctx.Done():
			b.log.Info("bot stopped", slog.String("op", op))
			return
		case update, ok := <-updates:
			if !ok {
				b.log.Info("updates channel closed", slog.String("op", op))
				return
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

// HandleUpdate обрабатывает одно входящее событие
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil || msg.From.IsBot {
		return
	}

	if b.opts.HandlerTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.HandlerTimeout)
		defer cancel()
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.earn(ctx, msg)
}

// earn начисляет монеты за обычное сообщение, ответа в чат нет
func (b *Bot) earn(ctx context.Context, msg *tgbotapi.Message) {
	const op = "bot.earn"
	userID := userIDOf(msg.From)
	logger := b.log.With(slog.String("op", op), slog.String("userID", userID))

	rate, err := b.ledger.CoinsPerMessage(ctx)
	if err != nil {
		logger.Error("failed to read coins per message", slog.Any("error", err))
		return
	}

	if err := b.ledger.EarnOnMessage(ctx, userID, rate); err != nil {
		if errors.Is(err, service.ErrUserDisabled) {
			logger.Debug("skipped coin addition: disabled user")
			return
		}
		logger.Error("failed to add coins", slog.Any("error", err))
		return
	}
	logger.Debug("coins added to user", slog.Int64("amount", rate))
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	const op = "bot.handleCommand"
	logger := b.log.With(
		slog.String("op", op),
		slog.String("command", msg.Command()),
		slog.String("userID", userIDOf(msg.From)),
	)
	logger.Info("command received")

	h, ok := b.commands()[msg.Command()]
	if !ok {
		b.reply(msg, textUnknownCommand)
		return
	}

	if window := b.cooldownFor(msg.Command()); window > 0 {
		if !b.allow(ctx, logger, msg, window) {
			return
		}
	}

	if err := h(ctx, msg); err != nil {
		var cmdErr commandError
		if errors.As(err, &cmdErr) || service.IsRejection(err) {
			logger.Info("command rejected", slog.Any("error", err))
		} else {
			logger.Error("command execution failed", slog.Any("error", err))
		}
		b.reply(msg, "❌ "+ErrorText(err))
	}
}

// allow проверяет окно команды. Ошибка хранилища окон не блокирует команду.
func (b *Bot) allow(ctx context.Context, logger *slog.Logger, msg *tgbotapi.Message, window time.Duration) bool {
	if b.limiter == nil {
		return true
	}
	ok, left, err := b.limiter.Allow(ctx, cooldown.Key(msg.Command(), userIDOf(msg.From)), window)
	if err != nil {
		logger.Warn("cooldown check failed", slog.Any("error", err))
		return true
	}
	if !ok {
		b.reply(msg, "❌ "+cooldownText(left))
		return false
	}
	return true
}

func (b *Bot) reply(to *tgbotapi.Message, text string) {
	m := tgbotapi.NewMessage(to.Chat.ID, text)
	m.ReplyToMessageID = to.MessageID
	b.send(m)
}

func (b *Bot) send(m tgbotapi.MessageConfig) {
	if _, err := b.api.Send(m); err != nil {
		b.log.Error("failed to send message",
			slog.String("op", "bot.send"),
			slog.Int64("chatID", m.ChatID),
			slog.Any("error", err),
		)
	}
}

func userIDOf(u *tgbotapi.User) string {
	return strconv.FormatInt(u.ID, 10)
}
