package trader

import "github.com/zappabad/safetrade/internal/orderbook/core"

// Trader is a participant known to the venue by screen name.
type Trader struct {
	name    core.UserID
	mailbox *Mailbox
}

// NewTrader creates a trader with an empty mailbox.
func NewTrader(name core.UserID, mailboxSize int) *Trader {
	return &Trader{name: name, mailbox: NewMailbox(mailboxSize)}
}

func (t *Trader) Name() core.UserID { return t.name }

func (t *Trader) Mailbox() *Mailbox { return t.mailbox }

// Deliver queues a notification for the trader.
func (t *Trader) Deliver(msg string) { t.mailbox.Deliver(msg) }

// Messages drains the trader's mailbox.
func (t *Trader) Messages() []string { return t.mailbox.Messages() }

func (t *Trader) HasMessages() bool { return t.mailbox.HasMessages() }
