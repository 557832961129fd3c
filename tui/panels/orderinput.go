package panels

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"

	"github.com/zappabad/safetrade/internal/market"
	"github.com/zappabad/safetrade/internal/orderbook/core"
	"github.com/zappabad/safetrade/tui/styles"
)

// OrderInputField represents the currently focused input field.
type OrderInputField int

const (
	FieldSymbol OrderInputField = iota
	FieldSide
	FieldType
	FieldPrice
	FieldShares
	FieldSubmit
)

// OrderInputPanel handles order entry with symbol autocomplete.
type OrderInputPanel struct {
	symbols     []string
	symbolInput textinput.Model
	priceInput  textinput.Model
	sharesInput textinput.Model

	// Dropdown state
	showDropdown     bool
	dropdownFiltered []string
	dropdownIndex    int

	sideOptions []string
	sideIndex   int

	typeOptions []string
	typeIndex   int

	currentField OrderInputField

	focused bool
	width   int
	height  int
}

// NewOrderInputPanel creates a new order input panel.
func NewOrderInputPanel(listings []market.Listing) *OrderInputPanel {
	symbolInput := textinput.New()
	symbolInput.Placeholder = "Search symbol..."
	symbolInput.Width = 15
	symbolInput.CharLimit = 10

	priceInput := textinput.New()
	priceInput.Placeholder = "Price"
	priceInput.Width = 10
	priceInput.CharLimit = 15

	sharesInput := textinput.New()
	sharesInput.Placeholder = "Shares"
	sharesInput.Width = 10
	sharesInput.CharLimit = 15

	p := &OrderInputPanel{
		symbolInput:  symbolInput,
		priceInput:   priceInput,
		sharesInput:  sharesInput,
		sideOptions:  []string{"BUY", "SELL"},
		typeOptions:  []string{"LIMIT", "MARKET"},
		currentField: FieldSymbol,
	}
	p.SetListings(listings)
	return p
}

// Init initializes the panel.
func (p *OrderInputPanel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the panel.
func (p *OrderInputPanel) Update(msg tea.Msg) (*OrderInputPanel, tea.Cmd) {
	if !p.focused {
		return p, nil
	}

	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("down"))):
			p.nextField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("up"))):
			p.prevField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("enter"))):
			if p.currentField == FieldSubmit {
				return p, p.submitOrder()
			}
			p.nextField()
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("esc"))):
			p.showDropdown = false
			return p, nil

		case key.Matches(msg, key.NewBinding(key.WithKeys("left"))):
			switch {
			case p.showDropdown:
				if p.dropdownIndex > 0 {
					p.dropdownIndex--
				}
				return p, nil
			case p.currentField == FieldSide:
				if p.sideIndex > 0 {
					p.sideIndex--
				}
				return p, nil
			case p.currentField == FieldType:
				if p.typeIndex > 0 {
					p.typeIndex--
				}
				return p, nil
			}

		case key.Matches(msg, key.NewBinding(key.WithKeys("right"))):
			switch {
			case p.showDropdown:
				if p.dropdownIndex < len(p.dropdownFiltered)-1 {
					p.dropdownIndex++
				}
				return p, nil
			case p.currentField == FieldSide:
				if p.sideIndex < len(p.sideOptions)-1 {
					p.sideIndex++
				}
				return p, nil
			case p.currentField == FieldType:
				if p.typeIndex < len(p.typeOptions)-1 {
					p.typeIndex++
				}
				return p, nil
			}
		}
	}

	switch p.currentField {
	case FieldSymbol:
		p.symbolInput, cmd = p.symbolInput.Update(msg)
		p.filterDropdown(p.symbolInput.Value())
		p.showDropdown = len(p.symbolInput.Value()) > 0

	case FieldPrice:
		p.priceInput, cmd = p.priceInput.Update(msg)

	case FieldShares:
		p.sharesInput, cmd = p.sharesInput.Update(msg)
	}

	return p, cmd
}

// View renders the panel.
func (p *OrderInputPanel) View() string {
	var content strings.Builder

	content.WriteString(p.renderField("Symbol", FieldSymbol, p.renderSymbolField()))
	content.WriteString("\n")
	content.WriteString(p.renderField("Side", FieldSide, p.renderOptions(p.sideOptions, p.sideIndex, FieldSide)))
	content.WriteString("\n")
	content.WriteString(p.renderField("Type", FieldType, p.renderOptions(p.typeOptions, p.typeIndex, FieldType)))
	content.WriteString("\n")

	if p.limit() {
		content.WriteString(p.renderField("Price", FieldPrice, p.priceInput.View()))
		content.WriteString("\n")
	}

	content.WriteString(p.renderField("Shares", FieldShares, p.sharesInput.View()))
	content.WriteString("\n\n")

	submitStyle := styles.InputStyle
	if p.currentField == FieldSubmit && p.focused {
		submitStyle = styles.FocusedInputStyle.Bold(true).Foreground(styles.PrimaryColor)
	}
	content.WriteString(submitStyle.Render("  [Submit Order]  "))

	content.WriteString("\n\n")
	content.WriteString(p.renderOrderSummary())

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("Order Entry", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

func (p *OrderInputPanel) limit() bool {
	return p.typeIndex == 0
}

func (p *OrderInputPanel) renderField(label string, field OrderInputField, inputView string) string {
	labelStyle := styles.LabelStyle
	if p.currentField == field && p.focused {
		labelStyle = labelStyle.Foreground(styles.PrimaryColor)
	}
	return labelStyle.Render(fmt.Sprintf("%-8s", label)) + inputView
}

func (p *OrderInputPanel) renderSymbolField() string {
	var result strings.Builder

	inputStyle := styles.InputStyle
	if p.currentField == FieldSymbol && p.focused {
		inputStyle = styles.FocusedInputStyle
		p.symbolInput.Focus()
	} else {
		p.symbolInput.Blur()
	}
	result.WriteString(inputStyle.Render(p.symbolInput.View()))

	if p.showDropdown && len(p.dropdownFiltered) > 0 {
		result.WriteString("\n")
		maxShow := min(len(p.dropdownFiltered), 5)
		for i := 0; i < maxShow; i++ {
			style := styles.DropdownItemStyle
			if i == p.dropdownIndex {
				style = styles.DropdownSelectedStyle
			}
			result.WriteString("         " + style.Render(p.highlightMatch(p.dropdownFiltered[i], p.symbolInput.Value())))
			if i < maxShow-1 {
				result.WriteString("\n")
			}
		}
	}

	return result.String()
}

func (p *OrderInputPanel) renderOptions(options []string, selected int, field OrderInputField) string {
	var items []string
	for i, opt := range options {
		style := styles.DropdownItemStyle
		if i == selected {
			if p.currentField == field && p.focused {
				style = styles.DropdownSelectedStyle
			} else {
				style = styles.DropdownItemStyle.Bold(true)
			}
			switch opt {
			case "BUY":
				style = style.Foreground(styles.BuyColor)
			case "SELL":
				style = style.Foreground(styles.SellColor)
			}
		}
		items = append(items, style.Render(opt))
	}
	return strings.Join(items, " | ")
}

func (p *OrderInputPanel) renderOrderSummary() string {
	symbol := p.symbolInput.Value()
	if symbol == "" {
		symbol = "---"
	}
	parts := []string{symbol}

	side := p.sideOptions[p.sideIndex]
	sideStyle := styles.BuyStyle
	if side == "SELL" {
		sideStyle = styles.SellStyle
	}
	parts = append(parts, sideStyle.Render(side), p.typeOptions[p.typeIndex])

	if p.limit() {
		price := p.priceInput.Value()
		if price == "" {
			price = "0"
		}
		parts = append(parts, "@"+price)
	}

	shares := p.sharesInput.Value()
	if shares == "" {
		shares = "0"
	}
	parts = append(parts, "x"+shares)

	return styles.HeaderStyle.Render("Order: ") + strings.Join(parts, " ")
}

func (p *OrderInputPanel) filterDropdown(query string) {
	query = strings.ToUpper(query)
	p.dropdownFiltered = nil
	p.dropdownIndex = 0
	for _, s := range p.symbols {
		if strings.Contains(strings.ToUpper(s), query) {
			p.dropdownFiltered = append(p.dropdownFiltered, s)
		}
	}
}

func (p *OrderInputPanel) highlightMatch(item, query string) string {
	if query == "" {
		return item
	}
	idx := strings.Index(strings.ToUpper(item), strings.ToUpper(query))
	if idx == -1 {
		return item
	}
	end := idx + len(query)
	return item[:idx] + styles.DropdownMatchStyle.Render(item[idx:end]) + item[end:]
}

func (p *OrderInputPanel) selectDropdownItem() {
	if p.showDropdown && p.dropdownIndex < len(p.dropdownFiltered) {
		p.symbolInput.SetValue(p.dropdownFiltered[p.dropdownIndex])
	}
}

func (p *OrderInputPanel) nextField() {
	switch p.currentField {
	case FieldSymbol:
		p.selectDropdownItem()
		p.currentField = FieldSide
		p.symbolInput.Blur()
	case FieldSide:
		p.currentField = FieldType
	case FieldType:
		if p.limit() {
			p.currentField = FieldPrice
			p.priceInput.Focus()
		} else {
			p.currentField = FieldShares
			p.sharesInput.Focus()
		}
	case FieldPrice:
		p.currentField = FieldShares
		p.priceInput.Blur()
		p.sharesInput.Focus()
	case FieldShares:
		p.currentField = FieldSubmit
		p.sharesInput.Blur()
	case FieldSubmit:
		p.currentField = FieldSymbol
		p.symbolInput.Focus()
	}
	p.showDropdown = false
}

func (p *OrderInputPanel) prevField() {
	p.showDropdown = false
	switch p.currentField {
	case FieldSymbol:
		p.currentField = FieldSubmit
		p.symbolInput.Blur()
	case FieldSide:
		p.currentField = FieldSymbol
		p.symbolInput.Focus()
	case FieldType:
		p.currentField = FieldSide
	case FieldPrice:
		p.currentField = FieldType
		p.priceInput.Blur()
	case FieldShares:
		if p.limit() {
			p.currentField = FieldPrice
			p.priceInput.Focus()
		} else {
			p.currentField = FieldType
		}
		p.sharesInput.Blur()
	case FieldSubmit:
		p.currentField = FieldShares
		p.sharesInput.Focus()
	}
}

// Build turns the current field values into an order submission.
func (p *OrderInputPanel) Build() (OrderSubmitMsg, error) {
	symbol := strings.ToUpper(strings.TrimSpace(p.symbolInput.Value()))
	if symbol == "" {
		return OrderSubmitMsg{}, fmt.Errorf("symbol is required")
	}

	shares, err := strconv.ParseInt(strings.TrimSpace(p.sharesInput.Value()), 10, 64)
	if err != nil || shares <= 0 {
		return OrderSubmitMsg{}, fmt.Errorf("shares must be a positive whole number")
	}

	msg := OrderSubmitMsg{
		Symbol: symbol,
		Side:   core.SideBuy,
		Kind:   core.OrderKindLimit,
		Shares: core.Size(shares),
	}
	if p.sideIndex == 1 {
		msg.Side = core.SideSell
	}
	if !p.limit() {
		msg.Kind = core.OrderKindMarket
		return msg, nil
	}

	price, err := decimal.NewFromString(strings.TrimSpace(p.priceInput.Value()))
	if err != nil || !price.IsPositive() {
		return OrderSubmitMsg{}, fmt.Errorf("price must be a positive number")
	}
	msg.Price = price.Round(2)
	return msg, nil
}

func (p *OrderInputPanel) submitOrder() tea.Cmd {
	msg, err := p.Build()
	if err != nil {
		return func() tea.Msg { return OrderInvalidMsg{Err: err} }
	}
	return func() tea.Msg { return msg }
}

// SetFocus sets the focus state of the panel.
func (p *OrderInputPanel) SetFocus(focused bool) {
	p.focused = focused
	if focused {
		switch p.currentField {
		case FieldSymbol:
			p.symbolInput.Focus()
		case FieldPrice:
			p.priceInput.Focus()
		case FieldShares:
			p.sharesInput.Focus()
		}
	} else {
		p.symbolInput.Blur()
		p.priceInput.Blur()
		p.sharesInput.Blur()
	}
}

// SetSize sets the panel dimensions.
func (p *OrderInputPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// SetListings replaces the symbols offered for autocomplete.
func (p *OrderInputPanel) SetListings(listings []market.Listing) {
	p.symbols = make([]string, len(listings))
	for i, l := range listings {
		p.symbols[i] = l.Symbol
	}
	p.dropdownFiltered = p.symbols
	p.dropdownIndex = 0
}

// SetSymbol pre-fills the symbol field.
func (p *OrderInputPanel) SetSymbol(symbol string) {
	p.symbolInput.SetValue(symbol)
}

// Reset clears the input fields.
func (p *OrderInputPanel) Reset() {
	p.symbolInput.SetValue("")
	p.priceInput.SetValue("")
	p.sharesInput.SetValue("")
	p.currentField = FieldSymbol
	p.sideIndex = 0
	p.typeIndex = 0
	p.showDropdown = false
}

// OrderSubmitMsg is sent when an order is submitted.
type OrderSubmitMsg struct {
	Symbol string
	Side   core.Side
	Kind   core.OrderKind
	Price  decimal.Decimal // zero for market orders
	Shares core.Size
}

// OrderInvalidMsg is sent when the entered fields do not form an order.
type OrderInvalidMsg struct {
	Err error
}
