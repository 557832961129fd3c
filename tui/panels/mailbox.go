package panels

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/zappabad/safetrade/tui/styles"
)

// Notice is one message shown in the mailbox panel.
type Notice struct {
	Time int64
	Text string
}

// execution reports whether the notice is a fill.
func (n Notice) execution() bool {
	return strings.HasPrefix(n.Text, "You bought:") || strings.HasPrefix(n.Text, "You sold:")
}

// MailboxPanel displays the participant's notices, newest last.
type MailboxPanel struct {
	notices       []Notice
	selectedIndex int
	scrollOffset  int
	focused       bool
	width         int
	height        int
	maxItems      int
}

// NewMailboxPanel creates a new mailbox panel.
func NewMailboxPanel() *MailboxPanel {
	return &MailboxPanel{
		maxItems: 200,
	}
}

// Init initializes the panel.
func (p *MailboxPanel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the panel.
func (p *MailboxPanel) Update(msg tea.Msg) (*MailboxPanel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if !p.focused {
			return p, nil
		}
		switch {
		case key.Matches(msg, key.NewBinding(key.WithKeys("up", "k"))):
			if p.selectedIndex > 0 {
				p.selectedIndex--
				if p.selectedIndex < p.scrollOffset {
					p.scrollOffset = p.selectedIndex
				}
			}
		case key.Matches(msg, key.NewBinding(key.WithKeys("down", "j"))):
			if p.selectedIndex < len(p.notices)-1 {
				p.selectedIndex++
				p.keepSelectionVisible()
			}
		}
	}
	return p, nil
}

func (p *MailboxPanel) visibleItems() int {
	return max(p.height-4, 1)
}

func (p *MailboxPanel) keepSelectionVisible() {
	if visible := p.visibleItems(); p.selectedIndex >= p.scrollOffset+visible {
		p.scrollOffset = p.selectedIndex - visible + 1
	}
}

// View renders the panel.
func (p *MailboxPanel) View() string {
	var content strings.Builder

	if len(p.notices) == 0 {
		content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render("No messages"))
	} else {
		visible := p.visibleItems()
		start := p.scrollOffset
		end := min(start+visible, len(p.notices))

		for i := start; i < end; i++ {
			n := p.notices[i]
			timeStr := time.Unix(0, n.Time).Format("15:04:05")

			// Multi-line notices are shown on one row.
			text := strings.ReplaceAll(n.Text, "\n", "  ")
			text = strings.ReplaceAll(text, "\t", " ")
			if limit := p.width - 15; limit > 3 && len(text) > limit {
				text = text[:limit-3] + "..."
			}

			textStyle := styles.NoticeStyle
			if n.execution() {
				textStyle = styles.ExecutionStyle
			}

			line := fmt.Sprintf("%s %s", styles.TimeStyle.Render(timeStr), textStyle.Render(text))
			if i == p.selectedIndex && p.focused {
				line = styles.SelectedRowStyle.Render(line)
			}

			content.WriteString(line)
			if i < end-1 {
				content.WriteString("\n")
			}
		}

		if len(p.notices) > visible {
			scrollInfo := fmt.Sprintf(" (%d/%d)", p.selectedIndex+1, len(p.notices))
			content.WriteString("\n")
			content.WriteString(lipgloss.NewStyle().Foreground(styles.TextMutedColor).Render(scrollInfo))
		}
	}

	panelStyle := styles.PanelStyle
	if p.focused {
		panelStyle = styles.FocusedPanelStyle
	}

	title := styles.RenderTitle("Mailbox", p.focused)
	panel := lipgloss.JoinVertical(lipgloss.Left, title, content.String())

	return panelStyle.Width(p.width - 2).Height(p.height - 2).Render(panel)
}

// SetFocus sets the focus state of the panel.
func (p *MailboxPanel) SetFocus(focused bool) {
	p.focused = focused
}

// SetSize sets the panel dimensions.
func (p *MailboxPanel) SetSize(width, height int) {
	p.width = width
	p.height = height
}

// Add appends notices. The selection follows the newest notice unless the
// panel is focused.
func (p *MailboxPanel) Add(notices ...Notice) {
	p.notices = append(p.notices, notices...)
	if len(p.notices) > p.maxItems {
		drop := len(p.notices) - p.maxItems
		p.notices = p.notices[drop:]
		p.selectedIndex = max(p.selectedIndex-drop, 0)
		p.scrollOffset = max(p.scrollOffset-drop, 0)
	}
	if !p.focused && len(p.notices) > 0 {
		p.selectedIndex = len(p.notices) - 1
		p.keepSelectionVisible()
	}
}

// Notices returns the notices currently held.
func (p *MailboxPanel) Notices() []Notice {
	return p.notices
}

// Selected returns the currently selected notice.
func (p *MailboxPanel) Selected() (Notice, bool) {
	if p.selectedIndex >= 0 && p.selectedIndex < len(p.notices) {
		return p.notices[p.selectedIndex], true
	}
	return Notice{}, false
}

// MailboxMsg carries notices drained from the participant's mailbox.
type MailboxMsg struct {
	Notices []Notice
}
