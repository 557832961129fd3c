package panels

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/zappabad/safetrade/internal/orderbook/view"
	"github.com/zappabad/safetrade/tui/styles"
)

// bar is a candle scaled to whole cents for drawing.
type bar struct {
	open, high, low, close int64
	start                  int64
}

func cents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

func toBar(c view.Candle) bar {
	return bar{open: cents(c.Open), high: cents(c.High), low: cents(c.Low), close: cents(c.Close), start: c.Start}
}

// ChartPanel draws a candlestick chart of one symbol's trade tape.
type ChartPanel struct {
	symbol  string
	candles []view.Candle

	focused bool
	width   int
	height  int
}

// NewChartPanel creates a new chart panel.
func NewChartPanel() *ChartPanel {
	return &ChartPanel{}
}

// Init initializes the panel.
func (p *ChartPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *ChartPanel) Update(msg tea.Msg) (*ChartPanel, tea.Cmd) {
	return p, nil
}

// View renders the panel.
func (p *ChartPanel) View() string {
	name := "No symbol"
	if p.symbol != "" {
		name = p.symbol
	}

	var content strings.Builder
	if len(p.candles) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No trading data yet..."))
	} else {
		content.WriteString(p.renderChart(p.width-12, max(p.height-6, 5)))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("Chart - %s", name), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *ChartPanel) renderChart(width, height int) string {
	// 9 chars for the price axis, 1 for the separator, 2 per candle
	show := max((width-10)/2, 1)
	recent := p.candles
	if len(recent) > show {
		recent = recent[len(recent)-show:]
	}
	candles := make([]bar, len(recent))
	for i, c := range recent {
		candles[i] = toBar(c)
	}

	lo, hi := candles[0].low, candles[0].high
	for _, c := range candles {
		lo = min(lo, c.low)
		hi = max(hi, c.high)
	}
	pad := max((hi-lo)/10, 1)
	lo -= pad
	hi += pad

	rows := max(height-3, 5)
	var result strings.Builder

	for row := 0; row < rows; row++ {
		rowPrice := yToPrice(row, lo, hi, rows)
		result.WriteString(styles.ChartAxisStyle.Render(fmt.Sprintf("%8s │", styles.FormatCents(rowPrice))))

		tolerance := max((hi-lo)/int64(rows*2), 1)
		for _, c := range candles {
			style := styles.CandleUpStyle
			if c.close < c.open {
				style = styles.CandleDownStyle
			}
			result.WriteString(style.Render(string(candleChar(c, rowPrice, tolerance))))
			result.WriteString(" ")
		}
		result.WriteString("\n")
	}

	result.WriteString(styles.ChartAxisStyle.Render("─────────┴"))
	for range candles {
		result.WriteString(styles.ChartAxisStyle.Render("──"))
	}
	result.WriteString("\n")

	result.WriteString(styles.ChartAxisStyle.Render("          "))
	for i, c := range candles {
		if i == 0 || i == len(candles)-1 || i%5 == 0 {
			result.WriteString(styles.ChartLabelStyle.Render(time.Unix(0, c.start).Format("05")))
		} else {
			result.WriteString("  ")
		}
	}

	return result.String()
}

// candleChar returns the rune drawn for a candle at the given price row.
func candleChar(c bar, rowPrice, tolerance int64) rune {
	top, bottom := max(c.open, c.close), min(c.open, c.close)
	switch {
	case rowPrice <= top+tolerance && rowPrice >= bottom-tolerance:
		return '┃'
	case rowPrice <= c.high+tolerance && rowPrice > top:
		return '│'
	case rowPrice >= c.low-tolerance && rowPrice < bottom:
		return '│'
	}
	return ' '
}

func yToPrice(y int, lo, hi int64, height int) int64 {
	if height <= 1 {
		return lo
	}
	ratio := float64(y) / float64(height-1)
	return hi - int64(ratio*float64(hi-lo))
}

// SetFocus sets the focus state of the panel.
func (p *ChartPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *ChartPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetSymbol sets the symbol to chart.
func (p *ChartPanel) SetSymbol(symbol string) {
	p.symbol = symbol
	p.candles = nil
}

// SetCandles replaces the candles with the book's latest.
func (p *ChartPanel) SetCandles(candles []view.Candle) {
	p.candles = candles
}

// Candles returns the candles currently drawn.
func (p *ChartPanel) Candles() []view.Candle {
	return p.candles
}
