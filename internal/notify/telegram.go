// internal/notify/telegram.go
package notify

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
	"github.com/rovshanmuradov/token-sniper/internal/events"
)

// Telegram allows about one message per second per chat.
const messagesPerSecond = 1

// Sender is the part of tgbotapi.BotAPI the notifier uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends lifecycle alerts to a single chat.
type Telegram struct {
	sender  Sender
	chatID  int64
	limiter *rate.Limiter
	logger  *zap.Logger
	subs    []events.Subscription
}

// NewTelegram connects to the Bot API with token.
func NewTelegram(token string, chatID int64, logger *zap.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}
	logger.Info("🤖 Telegram bot connected", zap.String("username", api.Self.UserName))
	return NewTelegramWithSender(api, chatID, logger), nil
}

func NewTelegramWithSender(sender Sender, chatID int64, logger *zap.Logger) *Telegram {
	return &Telegram{
		sender:  sender,
		chatID:  chatID,
		limiter: rate.NewLimiter(rate.Limit(messagesPerSecond), 5),
		logger:  logger.Named("telegram"),
	}
}

// Attach subscribes to opened, closed and failed trade events.
func (t *Telegram) Attach(bus *events.Bus) {
	for _, typ := range []events.EventType{events.PositionOpened, events.PositionClosed, events.TradeFailed} {
		t.subs = append(t.subs, bus.Subscribe(typ, t))
	}
}

func (t *Telegram) Detach() {
	for _, s := range t.subs {
		s.Unsubscribe()
	}
	t.subs = nil
}

// Handle implements events.Handler. Delivery failures are logged and
// returned; they never affect trading.
func (t *Telegram) Handle(ctx context.Context, event events.Event) error {
	text := Format(event)
	if text == "" {
		return nil
	}
	if err := t.limiter.Wait(ctx); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := t.sender.Send(msg); err != nil {
		t.logger.Warn("Failed to send alert",
			zap.String("event_type", string(event.Type())),
			zap.Error(err))
		return fmt.Errorf("send telegram alert: %w", err)
	}
	return nil
}

// Format renders event as a Markdown message; unknown events render empty.
func Format(event events.Event) string {
	switch e := event.(type) {
	case events.PositionOpenedEvent:
		p := e.Position
		return fmt.Sprintf("🟢 *POSITION OPENED*\n\n*Token:* %s\n*Tier:* %s\n*Score:* %.2f\n*Buy:* %s\n*Target:* %s\n*Stop:* %s\n\n`%s`",
			esc(p.DisplayName()), p.Category, p.Score,
			price(p.BuyPrice), price(p.TargetPrice), price(p.StopLossPrice),
			p.TokenAddress)
	case events.PositionClosedEvent:
		p := e.Position
		emoji := "✅"
		if e.PnL < 0 {
			emoji = "❌"
		} else if p.State != domain.StateClosedProfit {
			emoji = "⚪"
		}
		var b strings.Builder
		fmt.Fprintf(&b, "%s *POSITION CLOSED* (%s)\n\n", emoji, esc(string(p.State)))
		fmt.Fprintf(&b, "*Token:* %s\n*Entry:* %s\n*Exit:* %s\n*PnL:* %+.4f (%+.2f%%)",
			esc(p.DisplayName()), price(p.BuyPrice), price(p.ExitPrice),
			e.PnL, p.PnLPercent(p.ExitPrice))
		if p.CloseReason != "" {
			fmt.Fprintf(&b, "\n*Reason:* %s", esc(p.CloseReason))
		}
		return b.String()
	case events.TradeFailedEvent:
		errText := "unknown error"
		if e.Err != nil {
			errText = e.Err.Error()
		}
		name := e.Symbol
		if name == "" {
			name = e.TokenAddress
		}
		return fmt.Sprintf("⚠️ *%s FAILED*\n\n*Token:* %s\n*Error:* %s",
			strings.ToUpper(e.Action), esc(name), esc(errText))
	}
	return ""
}

func esc(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func price(p float64) string {
	return "$" + strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.8f", p), "0"), ".")
}
