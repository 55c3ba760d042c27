// Package report turns one cycle's account data into the status message.
package report

import (
	"fmt"
	"html"
	"strings"
	"time"

	"bybitnotifier/pkg/bybit"
)

// TimeLayout is the generation timestamp format.
const TimeLayout = "2006-01-02 15:04:05"

// BalanceError replaces the balance when it could not be fetched.
const BalanceError = "Error"

// Input is everything the formatter needs from one cycle. A failed positions
// or closed-PnL fetch is passed as a nil slice.
type Input struct {
	AccountLabel string
	Timeframe    string
	Balance      float64
	BalanceErr   error
	Positions    []bybit.Item
	ClosedPnl    []bybit.Item
	ClosedLimit  int
	Now          time.Time
}

// Report is the computed status for one cycle.
type Report struct {
	AccountLabel  string
	Timeframe     string
	Balance       string
	OpenPositions int
	ClosedLimit   int
	ClosedPnl     Sum
	CurrentPnl    Sum
	GeneratedAt   time.Time
}

// Build computes the report. It never fails.
func Build(in Input) Report {
	balance := BalanceError
	if in.BalanceErr == nil {
		balance = fmt.Sprintf("%.2f", in.Balance)
	}

	return Report{
		AccountLabel:  in.AccountLabel,
		Timeframe:     in.Timeframe,
		Balance:       balance,
		OpenPositions: len(in.Positions),
		ClosedLimit:   in.ClosedLimit,
		ClosedPnl:     SumField(in.ClosedPnl, bybit.FieldClosedPnl),
		CurrentPnl:    SumField(in.Positions, bybit.FieldUnrealisedPnl),
		GeneratedAt:   in.Now,
	}
}

// Message renders the report with Telegram HTML markup.
func (r Report) Message() string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>✨ Account Status (%s) ✨</b>\n", html.EscapeString(r.AccountLabel))
	fmt.Fprintf(&b, "<b>💰 Balance:</b> <code>%s USDT</code>\n", r.Balance)
	if r.Timeframe != "" {
		fmt.Fprintf(&b, "<b>⏱️ Timeframe:</b> <code>%s</code>\n", html.EscapeString(r.Timeframe))
	}
	fmt.Fprintf(&b, "<b>📂 Open Positions:</b> <code>%d</code>\n", r.OpenPositions)
	fmt.Fprintf(&b, "<b>💰 Last %d P&amp;L:</b> <code>%s USDT</code>\n", r.ClosedLimit, r.ClosedPnl.Total.StringFixed(2))
	fmt.Fprintf(&b, "<b>💹 Current P&amp;L:</b> <code>%s USDT</code>\n\n", r.CurrentPnl.Total.StringFixed(2))
	fmt.Fprintf(&b, "<i>🔸 Generated at: <code>%s</code></i>", r.GeneratedAt.Format(TimeLayout))
	return b.String()
}

// Format is Build followed by Message.
func Format(in Input) string {
	return Build(in).Message()
}
