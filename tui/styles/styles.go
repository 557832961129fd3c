package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	PrimaryColor     = lipgloss.Color("#0EA5E9")
	AccentColor      = lipgloss.Color("#F59E0B")
	BuyColor         = lipgloss.Color("#22C55E")
	SellColor        = lipgloss.Color("#EF4444")
	BorderColor      = lipgloss.Color("#3F3F46")
	FocusBorderColor = PrimaryColor

	TextColor          = lipgloss.Color("#FAFAFA")
	TextSecondaryColor = lipgloss.Color("#A1A1AA")
	TextMutedColor     = lipgloss.Color("#71717A")

	selectedBackground = lipgloss.Color("#27272A")
	statusBackground   = lipgloss.Color("#18181B")
)

func fg(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

func bold(c lipgloss.Color) lipgloss.Style { return fg(c).Bold(true) }

func boxed(b lipgloss.Border, c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Border(b).BorderForeground(c).Padding(0, 1)
}

// Panels and tables.
var (
	PanelStyle        = boxed(lipgloss.RoundedBorder(), BorderColor)
	FocusedPanelStyle = boxed(lipgloss.RoundedBorder(), FocusBorderColor)
	TitleStyle        = bold(PrimaryColor).Padding(0, 1)
	HeaderStyle       = bold(TextSecondaryColor)
	RowStyle          = fg(TextColor)
	SelectedRowStyle  = fg(TextColor).Background(selectedBackground)
)

// Order sides, prices and mailbox notices.
var (
	BuyStyle       = bold(BuyColor)
	SellStyle      = bold(SellColor)
	PriceStyle     = fg(TextColor)
	TimeStyle      = fg(TextMutedColor)
	NoticeStyle    = fg(TextColor)
	ExecutionStyle = bold(AccentColor)
	ErrorStyle     = fg(SellColor)
	OKStyle        = fg(BuyColor)
)

// Order entry and the symbol picker.
var (
	InputStyle            = boxed(lipgloss.NormalBorder(), BorderColor)
	FocusedInputStyle     = boxed(lipgloss.NormalBorder(), FocusBorderColor)
	LabelStyle            = fg(TextSecondaryColor)
	DropdownItemStyle     = fg(TextColor).Padding(0, 1)
	DropdownSelectedStyle = DropdownItemStyle.Background(selectedBackground)
	DropdownMatchStyle    = bold(PrimaryColor)
)

// Candles.
var (
	CandleUpStyle   = fg(BuyColor)
	CandleDownStyle = fg(SellColor)
	ChartAxisStyle  = fg(TextMutedColor)
	ChartLabelStyle = fg(TextSecondaryColor)
)

// Status bar.
var (
	StatusBarStyle     = fg(TextSecondaryColor).Background(statusBackground).Padding(0, 1)
	StatusBarKeyStyle  = bold(PrimaryColor)
	StatusBarDescStyle = fg(TextSecondaryColor)
)

// RenderTitle renders a panel title, highlighted when the panel has focus.
func RenderTitle(title string, focused bool) string {
	style := TitleStyle
	if focused {
		style = style.Foreground(FocusBorderColor)
	}
	return style.Render(title)
}

// FormatCents renders an integer number of cents as dollars.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
