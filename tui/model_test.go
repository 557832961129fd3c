package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/zappabad/safetrade/internal/broker"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/internal/venue"
	"github.com/zappabad/safetrade/tui/panels"
)

func newTestModel(t *testing.T) (*Model, *venue.Venue) {
	t.Helper()
	cfg := venue.DefaultConfig()
	cfg.BrokerConfig.BcryptCost = bcrypt.MinCost
	v, err := venue.New(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(v.Close)

	require.NoError(t, v.Brokerage.AddUser("alice", "secret"))
	s, err := v.Brokerage.Login("alice", "secret")
	require.NoError(t, err)
	return NewModel(v.Brokerage, v.Market, "alice", s.Token), v
}

func texts(notices []panels.Notice) []string {
	out := make([]string, len(notices))
	for i, n := range notices {
		out[i] = n.Text
	}
	return out
}

func TestModelSelectsFirstListing(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, "GGGL", m.Selected())
}

func TestModelTickDrainsMailbox(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(tickMsg{})
	assert.Contains(t, texts(m.Mailbox()), broker.Welcome)

	// Already drained.
	m.Update(tickMsg{})
	assert.Len(t, m.Mailbox(), 1)
}

func TestModelSubmitOrder(t *testing.T) {
	m, v := newTestModel(t)

	result := m.submitOrder(panels.OrderSubmitMsg{
		Symbol: "GGGL",
		Side:   core.SideSell,
		Kind:   core.OrderKindLimit,
		Price:  decimal.RequireFromString("11.00"),
		Shares: 5,
	})()
	m.Update(result)
	status, isErr := m.Status()
	assert.False(t, isErr)
	assert.Contains(t, status, "placed")

	book, ok := v.Market.Book("GGGL")
	require.True(t, ok)
	quote, err := book.Quote(context.Background())
	require.NoError(t, err)
	assert.Contains(t, quote, "Ask: 11.00 size: 5")
}

func TestModelSubmitOrderRejected(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(m.submitOrder(panels.OrderSubmitMsg{Symbol: "GGGL", Side: core.SideBuy, Kind: core.OrderKindLimit, Shares: 0})())
	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.True(t, strings.HasPrefix(status, "Order failed"), status)
}

func TestModelInvalidInput(t *testing.T) {
	m, _ := newTestModel(t)
	m.Update(panels.OrderInvalidMsg{Err: errors.New("shares must be a positive whole number")})
	status, isErr := m.Status()
	assert.True(t, isErr)
	assert.Equal(t, "Invalid order: shares must be a positive whole number", status)
}

func TestModelQuoteRequest(t *testing.T) {
	m, _ := newTestModel(t)

	m.Update(panels.QuoteRequestMsg{Symbol: "NSTL"})
	assert.Equal(t, "NSTL", m.Selected())

	assert.Nil(t, m.requestQuote("NSTL")())
	m.Update(tickMsg{})

	found := false
	for _, text := range texts(m.Mailbox()) {
		if strings.HasPrefix(text, "Nasty Loops Inc. (NSTL)") {
			found = true
		}
	}
	assert.True(t, found, "quote not delivered: %v", texts(m.Mailbox()))
}

func TestModelQuoteUnknownSymbol(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Nil(t, m.requestQuote("ZZZZ")())
	m.Update(tickMsg{})
	assert.Contains(t, texts(m.Mailbox()), "ZZZZ not found")
}

func TestModelViewRenders(t *testing.T) {
	m, _ := newTestModel(t)
	assert.Equal(t, "Initializing...", m.View())

	m.Update(tickMsg{})
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 48})
	out := m.View()
	assert.Contains(t, out, "Order Entry")
	assert.Contains(t, out, "GGGL")
}
