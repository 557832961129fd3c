package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/safetrade/internal/market"
	marketview "github.com/zappabad/safetrade/internal/market/view"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/tui/styles"
)

// ListingsPanel displays every listed symbol with its session statistics.
type ListingsPanel struct {
	listings      []market.Listing
	summaries     map[string]marketview.Summary
	selectedIndex int
	focused       bool
	width         int
	height        int
}

// NewListingsPanel creates a new listings panel.
func NewListingsPanel(listings []market.Listing) *ListingsPanel {
	return &ListingsPanel{
		listings:  listings,
		summaries: make(map[string]marketview.Summary),
	}
}

// Init initializes the panel.
func (p *ListingsPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel. Enter asks for a quote of the
// selected symbol.
func (p *ListingsPanel) Update(msg tea.Msg) (*ListingsPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.listings)-1 {
				p.selectedIndex++
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if l, ok := p.Selected(); ok {
				return p, func() tea.Msg { return QuoteRequestMsg{Symbol: l.Symbol} }
			}
		}
	}
	return p, nil
}

// View renders the panel.
func (p *ListingsPanel) View() string {
	var content strings.Builder

	header := fmt.Sprintf("%-6s %10s %10s %10s %8s", "Symbol", "Last", "High", "Low", "Vol")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	for i, l := range p.listings {
		last, high, low := l.OpeningPrice, l.OpeningPrice, l.OpeningPrice
		var vol core.Size
		if sum, ok := p.summaries[l.Symbol]; ok && sum.HasTrade {
			last, high, low, vol = sum.Stats.Last, sum.Stats.High, sum.Stats.Low, sum.Stats.Volume
		}

		row := fmt.Sprintf("%-6s %10s %10s %10s %8d",
			l.Symbol, core.FormatMoney(last), core.FormatMoney(high), core.FormatMoney(low), vol)

		style := styles.RowStyle
		if i == p.selectedIndex && p.focused {
			style = styles.SelectedRowStyle
		}
		content.WriteString(style.Render(row))
		if i < len(p.listings)-1 {
			content.WriteString("\n")
		}
	}

	if l, ok := p.Selected(); ok {
		content.WriteString("\n\n")
		content.WriteString(styles.LabelStyle.Render(l.Company))
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("Listings", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *ListingsPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *ListingsPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetListings replaces the listed symbols, keeping the selection in range.
func (p *ListingsPanel) SetListings(listings []market.Listing) {
	p.listings = listings
	if p.selectedIndex >= len(listings) {
		p.selectedIndex = max(len(listings)-1, 0)
	}
}

// SetSnapshot sets all session statistics from a market snapshot.
func (p *ListingsPanel) SetSnapshot(snap marketview.MarketSnapshot) {
	for sym, sum := range snap.BySymbol {
		p.summaries[sym] = sum
	}
}

// Selected returns the currently selected listing.
func (p *ListingsPanel) Selected() (market.Listing, bool) {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.listings) {
		return p.listings[p.selectedIndex], true
	}
	return market.Listing{}, false
}

// QuoteRequestMsg asks the model to fetch a quote for Symbol.
type QuoteRequestMsg struct {
	Symbol string
}

// MarketUpdateMsg is sent when market data updates.
type MarketUpdateMsg struct {
	Symbol string
	Event  core.Event
}
