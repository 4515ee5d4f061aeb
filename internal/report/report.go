// Package report renders scan batches and Heikin-Ashi series for the terminal.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"HeikinSentinel/internal/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7C3AED")).
			MarginBottom(1)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#3B82F6"))

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	greenStyle  = cellStyle.Foreground(lipgloss.Color("#10B981"))
	redStyle    = cellStyle.Foreground(lipgloss.Color("#EF4444"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

// Summary is the one-line description of a batch.
func Summary(b *model.Batch) string {
	return fmt.Sprintf("batch %s | source %s | period %s | %d scanned | %d detected | %d failed | %s",
		shortID(b.ID), b.Source, b.Period, len(b.Results), len(b.Detected()), len(b.Failed()),
		b.Duration().Round(100*time.Millisecond))
}

// Batch writes the summary, the detected tickers and, when showFailures is
// set, the failures of a batch.
func Batch(w io.Writer, b *model.Batch, showFailures bool) {
	fmt.Fprintln(w, titleStyle.Render("Heikin-Ashi reversal scan"))
	fmt.Fprintln(w, Summary(b))
	fmt.Fprintln(w)

	detected := b.Detected()
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Detected (%d)", len(detected))))
	if len(detected) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no ticker matches red, red, red, green"))
	} else {
		t := newTable("Symbol", "Last candle", "Bars")
		for _, r := range detected {
			t.Row(r.Symbol, r.Signal.LastBarTime.Format("2006-01-02"), fmt.Sprint(r.Bars))
		}
		fmt.Fprintln(w, t.String())
	}

	failed := b.Failed()
	if !showFailures || len(failed) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, sectionStyle.Render(fmt.Sprintf("Failed (%d)", len(failed))))
	t := newTable("Symbol", "Kind", "Error")
	for _, r := range failed {
		t.Row(r.Symbol, string(r.ErrKind), truncate(r.Err, 70))
	}
	fmt.Fprintln(w, t.String())
}

// Chart writes the last n smoothed candles of a symbol, oldest first.
func Chart(w io.Writer, symbol string, bars []model.SmoothedBar, n int) {
	if n > 0 && len(bars) > n {
		bars = bars[len(bars)-n:]
	}
	fmt.Fprintln(w, titleStyle.Render(symbol+" Heikin-Ashi"))

	t := newTable("Date", "Open", "High", "Low", "Close", "Color").
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 5 {
				switch bars[row].Color() {
				case model.Green:
					return greenStyle
				case model.Red:
					return redStyle
				}
			}
			return cellStyle
		})
	for _, b := range bars {
		t.Row(b.Time.Format("2006-01-02"),
			fmt.Sprintf("%.2f", b.Open), fmt.Sprintf("%.2f", b.High),
			fmt.Sprintf("%.2f", b.Low), fmt.Sprintf("%.2f", b.Close),
			b.Color().String())
	}
	fmt.Fprintln(w, t.String())
}

// Symbols writes a resolved universe, several tickers per line.
func Symbols(w io.Writer, name string, symbols []string) {
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Universe %s (%d)", name, len(symbols))))
	const perLine = 8
	for i := 0; i < len(symbols); i += perLine {
		end := min(i+perLine, len(symbols))
		fmt.Fprintln(w, strings.Join(symbols[i:end], "  "))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
