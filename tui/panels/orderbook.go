package panels

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/safetrade/internal/orderbook/core"
	orderbookview "github.com/zappabad/safetrade/internal/orderbook/view"
	"github.com/zappabad/safetrade/tui/styles"
)

// OrderbookPanel displays the resting orders and recent trades of one symbol.
type OrderbookPanel struct {
	symbol       string
	bids         []orderbookview.RestingOrder
	asks         []orderbookview.RestingOrder
	trades       []core.TradeEvent
	scrollOffset int
	focused      bool
	width        int
	height       int
	maxOrders    int
}

// NewOrderbookPanel creates a new orderbook panel.
func NewOrderbookPanel() *OrderbookPanel {
	return &OrderbookPanel{
		maxOrders: 10,
	}
}

// Init initializes the panel.
func (p *OrderbookPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *OrderbookPanel) Update(msg tea.Msg) (*OrderbookPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.scrollOffset > 0 {
				p.scrollOffset--
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.scrollOffset < max(len(p.bids), len(p.asks))-1 {
				p.scrollOffset++
			}
		}
	}
	return p, nil
}

func orderPrice(o orderbookview.RestingOrder) string {
	if o.Kind == core.OrderKindMarket {
		return "market"
	}
	return core.FormatMoney(o.Price)
}

// View renders the panel.
func (p *OrderbookPanel) View() string {
	var content strings.Builder

	name := "No symbol selected"
	if p.symbol != "" {
		name = p.symbol
	}

	availableHeight := p.height - 6
	rowsToShow := availableHeight / 2
	if rowsToShow > p.maxOrders {
		rowsToShow = p.maxOrders
	}
	if rowsToShow < 3 {
		rowsToShow = 3
	}

	header := fmt.Sprintf("%8s %8s │ %-8s %-8s", "BidSz", "Bid", "Ask", "AskSz")
	content.WriteString(styles.HeaderStyle.Render(header))
	content.WriteString("\n")

	window := func(orders []orderbookview.RestingOrder) []orderbookview.RestingOrder {
		if p.scrollOffset >= len(orders) {
			return nil
		}
		orders = orders[p.scrollOffset:]
		if len(orders) > rowsToShow {
			orders = orders[:rowsToShow]
		}
		return orders
	}
	bids, asks := window(p.bids), window(p.asks)

	for i := 0; i < max(len(bids), len(asks)); i++ {
		var bidSize, bidPrice, askPrice, askSize string
		if i < len(bids) {
			bidSize = fmt.Sprintf("%d", bids[i].Shares)
			bidPrice = orderPrice(bids[i])
		}
		if i < len(asks) {
			askPrice = orderPrice(asks[i])
			askSize = fmt.Sprintf("%d", asks[i].Shares)
		}

		bidPart := styles.BuyStyle.Render(fmt.Sprintf("%8s %8s", bidSize, bidPrice))
		askPart := styles.SellStyle.Render(fmt.Sprintf("%-8s %-8s", askPrice, askSize))
		content.WriteString(fmt.Sprintf("%s │ %s\n", bidPart, askPart))
	}

	content.WriteString("\n")
	content.WriteString(styles.HeaderStyle.Render("Recent Trades"))
	content.WriteString("\n")

	tradesToShow := p.trades
	if len(tradesToShow) > 5 {
		tradesToShow = tradesToShow[len(tradesToShow)-5:]
	}
	for _, trade := range tradesToShow {
		line := fmt.Sprintf("%8d @ %8s  %s←%s", trade.Size, core.FormatMoney(trade.Price), trade.Buyer, trade.Seller)
		content.WriteString(styles.PriceStyle.Render(line))
		content.WriteString("\n")
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle(fmt.Sprintf("Book - %s", name), p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *OrderbookPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *OrderbookPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetSymbol sets the symbol to display and clears the old book.
func (p *OrderbookPanel) SetSymbol(symbol string) {
	p.symbol = symbol
	p.bids = nil
	p.asks = nil
	p.trades = nil
	p.scrollOffset = 0
}

// SetSnapshot sets the resting orders from a book snapshot.
func (p *OrderbookPanel) SetSnapshot(snap orderbookview.BookSnapshot) {
	p.bids = snap.Bids
	p.asks = snap.Asks
}

// SetTrades sets the recent trades.
func (p *OrderbookPanel) SetTrades(trades []core.TradeEvent) {
	p.trades = trades
}

// Symbol returns the current symbol.
func (p *OrderbookPanel) Symbol() string {
	return p.symbol
}
