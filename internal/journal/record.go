// internal/journal/record.go
package journal

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rovshanmuradov/token-sniper/internal/domain"
)

// Record is one row of the trade journal.
type Record struct {
	Timestamp   time.Time
	PositionID  string
	Token       string
	Symbol      string
	Action      string // open, close, failed
	Category    domain.Category
	Score       float64
	Quantity    float64
	Price       float64
	EntryPrice  float64
	PnL         float64
	PnLPercent  float64
	HoldTime    string
	State       domain.PositionState
	Reason      string
	TxSignature string
	ErrorMsg    string
}

// Headers returns the header row of the journal file.
func Headers() []string {
	return []string{
		"timestamp",
		"position_id",
		"token",
		"symbol",
		"action",
		"category",
		"score",
		"quantity",
		"price",
		"entry_price",
		"pnl",
		"pnl_percent",
		"hold_time",
		"state",
		"reason",
		"tx_signature",
		"error",
	}
}

// ToCSV converts the record to a CSV row in Headers order.
func (r Record) ToCSV() []string {
	return []string{
		r.Timestamp.UTC().Format(time.RFC3339),
		r.PositionID,
		r.Token,
		r.Symbol,
		r.Action,
		string(r.Category),
		formatFloat(r.Score),
		formatFloat(r.Quantity),
		formatFloat(r.Price),
		formatFloat(r.EntryPrice),
		formatFloat(r.PnL),
		formatFloat(r.PnLPercent),
		r.HoldTime,
		string(r.State),
		r.Reason,
		r.TxSignature,
		r.ErrorMsg,
	}
}

func openRecord(p *domain.Position) Record {
	return Record{
		Timestamp:   p.OpenedAt,
		PositionID:  p.ID,
		Token:       p.TokenAddress,
		Symbol:      p.Symbol,
		Action:      "open",
		Category:    p.Category,
		Score:       p.Score,
		Quantity:    p.Quantity,
		Price:       p.BuyPrice,
		State:       p.State,
		TxSignature: p.OpenReceipt,
	}
}

func closeRecord(p *domain.Position, pnl float64) Record {
	return Record{
		Timestamp:   p.ClosedAt,
		PositionID:  p.ID,
		Token:       p.TokenAddress,
		Symbol:      p.Symbol,
		Action:      "close",
		Category:    p.Category,
		Score:       p.Score,
		Quantity:    p.Quantity,
		Price:       p.ExitPrice,
		EntryPrice:  p.BuyPrice,
		PnL:         pnl,
		PnLPercent:  p.PnLPercent(p.ExitPrice),
		HoldTime:    HoldTime(p.OpenedAt, p.ClosedAt),
		State:       p.State,
		Reason:      p.CloseReason,
		TxSignature: p.CloseReceipt,
	}
}

func formatFloat(f float64) string {
	if f == 0 {
		return ""
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// HoldTime renders the duration between open and close compactly.
func HoldTime(opened, closed time.Time) string {
	d := closed.Sub(opened)
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
	return fmt.Sprintf("%dd%dh", int(d.Hours()/24), int(d.Hours())%24)
}
