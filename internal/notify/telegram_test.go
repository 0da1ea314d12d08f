package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
	"github.com/rovshanmuradov/token-sniper/internal/events"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	f.sent = append(f.sent, c.(tgbotapi.MessageConfig))
	return tgbotapi.Message{MessageID: len(f.sent)}, nil
}

func testPosition(t *testing.T) *domain.Position {
	t.Helper()
	p, err := domain.NewPosition(domain.PositionParams{
		Token:            domain.TokenSnapshot{Address: "So1anaMint", Symbol: "MY_TOKEN"},
		Evaluation:       domain.EvaluationResult{Eligible: true, Category: domain.CategoryVeryDegen, Score: 7.7},
		BuyPrice:         0.1,
		RiskAmount:       10,
		ProfitMultiplier: 2,
		StopLossRatio:    0.8,
	})
	require.NoError(t, err)
	return p
}

func TestTelegram_SendsOpenedAlert(t *testing.T) {
	sender := &fakeSender{}
	tg := NewTelegramWithSender(sender, 42, zaptest.NewLogger(t))

	require.NoError(t, tg.Handle(context.Background(), events.NewPositionOpened(testPosition(t))))

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, int64(42), msg.ChatID)
	assert.Equal(t, tgbotapi.ModeMarkdown, msg.ParseMode)
	assert.Contains(t, msg.Text, "POSITION OPENED")
	assert.Contains(t, msg.Text, `MY\_TOKEN`)
	assert.Contains(t, msg.Text, "VeryDegen")
	assert.Contains(t, msg.Text, "$0.2")
}

func TestTelegram_IgnoresRejections(t *testing.T) {
	sender := &fakeSender{}
	tg := NewTelegramWithSender(sender, 42, zaptest.NewLogger(t))

	ev := events.NewTokenRejected(domain.TokenSnapshot{Address: "X"}, domain.EvaluationResult{}, "dust price")
	require.NoError(t, tg.Handle(context.Background(), ev))
	assert.Empty(t, sender.sent)
}

func TestTelegram_SendErrorReturned(t *testing.T) {
	sender := &fakeSender{err: errors.New("forbidden")}
	tg := NewTelegramWithSender(sender, 42, zaptest.NewLogger(t))

	err := tg.Handle(context.Background(), events.NewTradeFailed("A", "", "buy", errors.New("boom")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "forbidden")
}

func TestTelegram_ViaBus(t *testing.T) {
	sender := &fakeSender{}
	tg := NewTelegramWithSender(sender, 7, zaptest.NewLogger(t))
	bus := events.NewBus(zaptest.NewLogger(t), 8)
	tg.Attach(bus)

	p := testPosition(t)
	require.NoError(t, bus.Publish(events.NewPositionOpened(p)))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, bus.Shutdown(ctx))
	tg.Detach()

	sender.mu.Lock()
	defer sender.mu.Unlock()
	assert.Len(t, sender.sent, 1)
}

func TestFormat(t *testing.T) {
	p := testPosition(t)

	win := p.Clone()
	win.State = domain.StateClosedProfit
	win.ExitPrice = 0.2
	win.CloseReason = "target reached"
	text := Format(events.NewPositionClosed(win))
	assert.Contains(t, text, "✅")
	assert.Contains(t, text, "+10.0000")
	assert.Contains(t, text, "+100.00%")
	assert.Contains(t, text, "target reached")

	loss := p.Clone()
	loss.State = domain.StateClosedStopLoss
	loss.ExitPrice = 0.05
	assert.Contains(t, Format(events.NewPositionClosed(loss)), "❌")

	flat := p.Clone()
	flat.State = domain.StateClosedAbandoned
	flat.ExitPrice = 0.1
	assert.Contains(t, Format(events.NewPositionClosed(flat)), "⚪")

	failed := Format(events.NewTradeFailed("Addr", "", "sell", nil))
	assert.Contains(t, failed, "SELL FAILED")
	assert.Contains(t, failed, "Addr")
	assert.Contains(t, failed, "unknown error")

	assert.Equal(t, "$0.1", price(0.1))
	assert.Equal(t, "$10", price(10))
}
