package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/market"
	marketview "github.com/zappabad/safetrade/internal/market/view"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	orderbookservice "github.com/zappabad/safetrade/internal/orderbook/service"
	orderbookview "github.com/zappabad/safetrade/internal/orderbook/view"
	"github.com/zappabad/safetrade/tui/panels"
	"github.com/zappabad/safetrade/tui/styles"
)

// Brokerage is the part of the brokerage the trader window talks to.
type Brokerage interface {
	PlaceOrder(ctx context.Context, token string, req broker.OrderRequest) (core.OrderID, error)
	Quote(ctx context.Context, token, symbol string) (string, error)
	HasMessages(token string) (bool, error)
	Messages(token string) ([]string, error)
}

// Market is the read side of the market directory.
type Market interface {
	Listings() []market.Listing
	Book(symbol string) (*orderbookservice.Service, bool)
	TradesLast(symbol string, n int) ([]core.TradeEvent, bool)
	Candles(symbol string, n int) ([]orderbookview.Candle, bool)
	Snapshot() marketview.MarketSnapshot
	Events() <-chan marketview.MarketEvent
}

// PanelFocus represents which panel is currently focused.
type PanelFocus int

const (
	FocusListings   PanelFocus = 0
	FocusOrderbook  PanelFocus = 1
	FocusChart      PanelFocus = 2
	FocusMailbox    PanelFocus = 3
	FocusOrderInput PanelFocus = 4
)

const (
	panelCount     = 5
	requestTimeout = 2 * time.Second
	tapeLength     = 200
	chartLength    = 60
)

// Model is the trader window: listings, the selected book, its chart, the
// participant's mailbox and order entry.
type Model struct {
	brokerage Brokerage
	market    Market
	token     string
	name      string

	listingsPanel   *panels.ListingsPanel
	orderbookPanel  *panels.OrderbookPanel
	chartPanel      *panels.ChartPanel
	mailboxPanel    *panels.MailboxPanel
	orderInputPanel *panels.OrderInputPanel

	focusedPanel PanelFocus

	width  int
	height int

	statusMsg string
	statusErr bool
	ready     bool
}

// NewModel creates the trader window for the session identified by token.
func NewModel(brokerage Brokerage, mkt Market, name, token string) *Model {
	listings := mkt.Listings()

	m := &Model{
		brokerage:       brokerage,
		market:          mkt,
		token:           token,
		name:            name,
		listingsPanel:   panels.NewListingsPanel(listings),
		orderbookPanel:  panels.NewOrderbookPanel(),
		chartPanel:      panels.NewChartPanel(),
		mailboxPanel:    panels.NewMailboxPanel(),
		orderInputPanel: panels.NewOrderInputPanel(listings),
		focusedPanel:    FocusOrderInput,
	}
	if len(listings) > 0 {
		m.selectSymbol(listings[0].Symbol)
	}
	return m
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.listingsPanel.Init(),
		m.orderbookPanel.Init(),
		m.chartPanel.Init(),
		m.mailboxPanel.Init(),
		m.orderInputPanel.Init(),
		m.listenMarketEvents(),
		m.tickRefresh(),
	)
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.focusedPanel != FocusOrderInput {
				return m, tea.Quit
			}
		case "tab":
			m.focusedPanel = (m.focusedPanel + 1) % panelCount
		case "shift+tab":
			m.focusedPanel = (m.focusedPanel + panelCount - 1) % panelCount
		case "f1":
			m.focusedPanel = FocusListings
		case "f2":
			m.focusedPanel = FocusOrderbook
		case "f3":
			m.focusedPanel = FocusChart
		case "f4":
			m.focusedPanel = FocusMailbox
		case "f5":
			m.focusedPanel = FocusOrderInput
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case panels.MarketUpdateMsg:
		if msg.Symbol == m.orderbookPanel.Symbol() {
			m.refreshBook()
		}
		m.listingsPanel.SetSnapshot(m.market.Snapshot())
		cmds = append(cmds, m.listenMarketEvents())

	case panels.QuoteRequestMsg:
		m.selectSymbol(msg.Symbol)
		cmds = append(cmds, m.requestQuote(msg.Symbol))

	case panels.MailboxMsg:
		m.mailboxPanel.Add(msg.Notices...)

	case panels.OrderSubmitMsg:
		cmds = append(cmds, m.submitOrder(msg))

	case panels.OrderInvalidMsg:
		m.setStatus("Invalid order: "+msg.Err.Error(), true)

	case orderResultMsg:
		m.setStatus(msg.message, msg.err)
		if !msg.err {
			m.orderInputPanel.Reset()
		}

	case tickMsg:
		m.refresh()
		cmds = append(cmds, m.tickRefresh())
	}

	m.updateFocusedPanel(msg, &cmds)

	return m, tea.Batch(cmds...)
}

func (m *Model) updateFocusedPanel(msg tea.Msg, cmds *[]tea.Cmd) {
	var cmd tea.Cmd

	switch m.focusedPanel {
	case FocusListings:
		m.listingsPanel, cmd = m.listingsPanel.Update(msg)
		if l, ok := m.listingsPanel.Selected(); ok && l.Symbol != m.orderbookPanel.Symbol() {
			m.selectSymbol(l.Symbol)
		}
	case FocusOrderbook:
		m.orderbookPanel, cmd = m.orderbookPanel.Update(msg)
	case FocusChart:
		m.chartPanel, cmd = m.chartPanel.Update(msg)
	case FocusMailbox:
		m.mailboxPanel, cmd = m.mailboxPanel.Update(msg)
	case FocusOrderInput:
		m.orderInputPanel, cmd = m.orderInputPanel.Update(msg)
	}

	if cmd != nil {
		*cmds = append(*cmds, cmd)
	}
}

// View renders the UI.
func (m *Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	m.listingsPanel.SetFocus(m.focusedPanel == FocusListings)
	m.orderbookPanel.SetFocus(m.focusedPanel == FocusOrderbook)
	m.chartPanel.SetFocus(m.focusedPanel == FocusChart)
	m.mailboxPanel.SetFocus(m.focusedPanel == FocusMailbox)
	m.orderInputPanel.SetFocus(m.focusedPanel == FocusOrderInput)

	// ┌──────────────┬─────────────┬───────────┐
	// │   Listings   │  Orderbook  │   Chart   │
	// ├──────────────┼─────────────┴───────────┤
	// │   Mailbox    │       Order Entry       │
	// └──────────────┴─────────────────────────┘
	leftWidth := m.width / 3
	middleWidth := m.width / 3
	rightWidth := m.width - leftWidth - middleWidth

	topHeight := (m.height - 3) * 2 / 3
	bottomHeight := m.height - topHeight - 3

	m.listingsPanel.SetSize(leftWidth, topHeight)
	m.orderbookPanel.SetSize(middleWidth, topHeight)
	m.chartPanel.SetSize(rightWidth, topHeight)

	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.listingsPanel.View(),
		m.orderbookPanel.View(),
		m.chartPanel.View(),
	)

	m.mailboxPanel.SetSize(leftWidth, bottomHeight)
	m.orderInputPanel.SetSize(m.width-leftWidth, bottomHeight)

	bottomRow := lipgloss.JoinHorizontal(lipgloss.Top,
		m.mailboxPanel.View(),
		m.orderInputPanel.View(),
	)

	return lipgloss.JoinVertical(lipgloss.Left, topRow, bottomRow, m.renderStatusBar())
}

func (m *Model) renderStatusBar() string {
	help := lipgloss.JoinHorizontal(lipgloss.Center,
		styles.StatusBarKeyStyle.Render(m.name), " │ ",
		styles.StatusBarKeyStyle.Render("F1-F5")+styles.StatusBarDescStyle.Render(" panels"), " │ ",
		styles.StatusBarKeyStyle.Render("Tab")+styles.StatusBarDescStyle.Render(" cycle"), " │ ",
		styles.StatusBarKeyStyle.Render("Enter")+styles.StatusBarDescStyle.Render(" quote/submit"), " │ ",
		styles.StatusBarKeyStyle.Render("q")+styles.StatusBarDescStyle.Render(" quit"),
	)

	status := ""
	if m.statusMsg != "" {
		style := styles.OKStyle
		if m.statusErr {
			style = styles.ErrorStyle
		}
		status = " │ " + style.Render(m.statusMsg)
	}

	return styles.StatusBarStyle.Width(m.width).Render(help + status)
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
}

// Status returns the status bar message and whether it reports an error.
func (m *Model) Status() (string, bool) {
	return m.statusMsg, m.statusErr
}

// Mailbox returns the notices shown in the mailbox panel.
func (m *Model) Mailbox() []panels.Notice {
	return m.mailboxPanel.Notices()
}

// Selected returns the symbol whose book is displayed.
func (m *Model) Selected() string {
	return m.orderbookPanel.Symbol()
}

func (m *Model) selectSymbol(symbol string) {
	if symbol == m.orderbookPanel.Symbol() {
		return
	}
	m.orderbookPanel.SetSymbol(symbol)
	m.chartPanel.SetSymbol(symbol)
	m.orderInputPanel.SetSymbol(symbol)
	m.refreshBook()
}

func (m *Model) refresh() {
	m.listingsPanel.SetSnapshot(m.market.Snapshot())
	m.refreshBook()
	m.drainMailbox()
}

func (m *Model) refreshBook() {
	symbol := m.orderbookPanel.Symbol()
	book, ok := m.market.Book(symbol)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()
	if snap, err := book.Snapshot(ctx); err == nil {
		m.orderbookPanel.SetSnapshot(snap)
	}

	trades, _ := m.market.TradesLast(symbol, tapeLength)
	m.orderbookPanel.SetTrades(trades)
	candles, _ := m.market.Candles(symbol, chartLength)
	m.chartPanel.SetCandles(candles)
}

func (m *Model) drainMailbox() {
	if has, err := m.brokerage.HasMessages(m.token); err == nil && !has {
		return
	}
	msgs, err := m.brokerage.Messages(m.token)
	if err != nil {
		m.setStatus(err.Error(), true)
		return
	}
	now := time.Now().UnixNano()
	for _, text := range msgs {
		m.mailboxPanel.Add(panels.Notice{Time: now, Text: text})
	}
}

func (m *Model) requestQuote(symbol string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()
		// The reply lands in the mailbox and is picked up on the next tick.
		if _, err := m.brokerage.Quote(ctx, m.token, symbol); err != nil {
			return orderResultMsg{message: "Quote failed: " + err.Error(), err: true}
		}
		return nil
	}
}

func (m *Model) submitOrder(order panels.OrderSubmitMsg) tea.Cmd {
	req := broker.OrderRequest{
		Symbol: order.Symbol,
		Side:   order.Side,
		Kind:   order.Kind,
		Shares: order.Shares,
		Price:  order.Price,
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		id, err := m.brokerage.PlaceOrder(ctx, m.token, req)
		if err != nil {
			return orderResultMsg{message: "Order failed: " + err.Error(), err: true}
		}
		return orderResultMsg{message: fmt.Sprintf("Order %d placed: %s %s %s %s", id, req.Side, req.Shares, req.Symbol, req.Kind)}
	}
}

func (m *Model) listenMarketEvents() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.market.Events()
		if !ok {
			return nil
		}
		return panels.MarketUpdateMsg{Symbol: ev.Symbol, Event: ev.Event}
	}
}

// tickMsg is sent periodically to refresh data.
type tickMsg struct{}

func (m *Model) tickRefresh() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(time.Time) tea.Msg {
		return tickMsg{}
	})
}

// orderResultMsg is sent after an order or quote request is processed.
type orderResultMsg struct {
	message string
	err     bool
}
