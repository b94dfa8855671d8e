package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/wonny/thesisrouter/pkg/logger"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends winner changes to a chat
type Telegram struct {
	bot        sender
	chatID     int64
	maxRetries int
	retryDelay time.Duration
	logger     *logger.Logger
}

// NewTelegram connects to the Bot API
func NewTelegram(botToken, chatID string, log *logger.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	return newTelegram(bot, chatID, log)
}

func newTelegram(bot sender, chatID string, log *logger.Logger) (*Telegram, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	return &Telegram{
		bot:        bot,
		chatID:     id,
		maxRetries: 3,
		retryDelay: time.Second,
		logger:     log.Module("telegram"),
	}, nil
}

// NotifyChange implements Notifier
func (t *Telegram) NotifyChange(ctx context.Context, change Change) error {
	return t.send(ctx, FormatChange(change))
}

// send posts a MarkdownV2 message with linear backoff
func (t *Telegram) send(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < t.maxRetries; i++ {
		if _, err := t.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		t.logger.WithError(lastErr).WithField("attempt", i+1).Warn("Telegram send failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(t.retryDelay * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed after %d retries: %w", t.maxRetries, lastErr)
}

// FormatChange renders a change as Telegram MarkdownV2
func FormatChange(c Change) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🔀 *Route changed*: %s\n", escape(c.Thesis.Claim))
	fmt.Fprintf(&b, "`%s` · %s\n\n", escape(c.Thesis.ID), escape(string(c.Thesis.Direction)))

	prev := WinnerName(c.Previous)
	if prev == "" {
		prev = "none"
	}
	fmt.Fprintf(&b, "was: %s\n", escape(prev))

	cur := c.Current
	if !cur.HasWinner() {
		reason := ""
		if cur != nil {
			reason = cur.Reason
		}
		fmt.Fprintf(&b, "now: *no trade* \\(%s\\)\n", escape(reason))
		return b.String()
	}

	w := cur.Winner
	fmt.Fprintf(&b, "now: *%s* on %s\n", escape(w.Name), escape(w.Platform))
	fmt.Fprintf(&b, "score %s · β %s · convexity %s\n",
		escape(fmt.Sprintf("%.2f", w.Score)),
		escape(fmt.Sprintf("%.2f", w.ThesisBeta)),
		escape(fmt.Sprintf("%.2f", w.Convexity)),
	)
	if p := w.Profile; p != nil {
		fmt.Fprintf(&b, "right %s · wrong %s\n",
			escape(fmt.Sprintf("%+.1f%%", p.ReturnIfRightPct)),
			escape(fmt.Sprintf("%+.1f%%", p.ReturnIfWrongPct)),
		)
	}
	if cur.Override != nil && cur.Override.Replaced {
		fmt.Fprintf(&b, "cross\\-class override over %s\n", escape(cur.Override.HomeName))
	}
	if cur.WeakConnection {
		b.WriteString("⚠️ weak thesis connection\n")
	}
	return b.String()
}

// escape escapes special characters for Telegram MarkdownV2
func escape(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4)
	for _, r := range text {
		switch r {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

var _ Notifier = (*Telegram)(nil)
var _ Notifier = (*LogNotifier)(nil)
