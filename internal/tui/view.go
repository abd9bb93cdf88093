package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/permacommons/chabeau/internal/render"
)

// ═══════════════════════════════════════════════════════════════════════════════
// VIEW
// ═══════════════════════════════════════════════════════════════════════════════

func (m *Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderTitle())
	b.WriteString("\n")

	switch {
	case m.mode == modePicker && m.picker != nil:
		b.WriteString(m.renderPickerPanel())
	case m.mode == modeFilePrompt && m.prompt != nil:
		b.WriteString(m.renderFilePrompt())
	default:
		b.WriteString(m.renderChat())
	}

	b.WriteString("\n")
	b.WriteString(m.renderInputBox())
	return b.String()
}

// ─── Title bar ──────────────────────────────────────────────────────────────────

func (m *Model) renderTitle() string {
	t := m.themes.Current()
	name := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render("chabeau")

	sess := m.ctl.Session()
	parts := []string{name, m.creds.DisplayName}
	if sess.Model != "" {
		parts = append(parts, sess.Model)
	}
	if m.character != nil {
		parts = append(parts, "♦ "+m.character.Name)
	}
	if m.preset != nil {
		parts = append(parts, "["+m.preset.ID+"]")
	}
	left := strings.Join(parts, "  ")

	right := ""
	if m.streaming {
		right = m.spin.View() + " streaming"
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	bar := " " + left + strings.Repeat(" ", gap) + right + " "
	return lipgloss.NewStyle().
		Background(t.Surface).
		Foreground(t.Text).
		Width(m.width).
		MaxHeight(1).
		Render(bar)
}

// ─── Chat area ──────────────────────────────────────────────────────────────────

func (m *Model) renderChat() string {
	layout := m.layout()
	m.scroll.SetHeight(m.chatHeight())
	m.scroll.Update(len(layout.Lines))
	start, end := m.scroll.Visible()

	// Selection masks for edit-select and block-select.
	selStart, selEnd := -1, -1
	if m.mode == modeEditSelect {
		selStart, selEnd = layout.MessageRange(m.editIndex)
	}

	t := m.themes.Current()
	var rows []string
	for i := start; i < end; i++ {
		line := layout.Lines[i]
		inSelection := m.mode == modeEditSelect && i >= selStart && i < selEnd
		rows = append(rows, m.renderLine(line, inSelection, t.Selection))
	}
	for len(rows) < m.chatHeight() {
		rows = append(rows, "")
	}
	return " " + strings.Join(rows, "\n ")
}

// renderLine styles one display line, applying the selection mask in place
// rather than re-laying anything out.
func (m *Model) renderLine(line render.Line, selected bool, selColor lipgloss.Color) string {
	spans := line.Spans
	if line.Table && m.tableShift > 0 {
		spans = shiftSpans(spans, m.tableShift)
	}

	var b strings.Builder
	for _, s := range spans {
		style := s.Style
		if selected {
			style = style.Background(selColor)
		}
		if m.mode == modeBlockSelect &&
			s.Kind.Type == render.SpanCodeBlock && s.Kind.Block == m.blockIndex {
			style = style.Background(selColor)
		}
		text := style.Render(s.Text)
		if s.Kind.Type == render.SpanLink && s.Kind.URL != "" {
			// OSC 8 hyperlink; the helper emits a matched open/close pair
			// so no stale link state survives a redraw.
			text = termenv.Hyperlink(s.Kind.URL, text)
		}
		b.WriteString(text)
	}
	return lipgloss.NewStyle().MaxWidth(m.chatWidth()).Render(b.String())
}

// shiftSpans drops n display columns from the start of a table line.
func shiftSpans(spans []render.Span, n int) []render.Span {
	out := make([]render.Span, 0, len(spans))
	remaining := n
	for _, s := range spans {
		if remaining <= 0 {
			out = append(out, s)
			continue
		}
		w := runewidth.StringWidth(s.Text)
		if w <= remaining {
			remaining -= w
			continue
		}
		runes := []rune(s.Text)
		for len(runes) > 0 && remaining > 0 {
			remaining -= runewidth.RuneWidth(runes[0])
			runes = runes[1:]
		}
		s.Text = string(runes)
		out = append(out, s)
	}
	return out
}

// ─── Input area ─────────────────────────────────────────────────────────────────

func (m *Model) renderInputBox() string {
	t := m.themes.Current()
	border := lipgloss.NewStyle().Foreground(t.Border)
	if m.focusInput {
		border = border.Foreground(t.BorderHighlight)
	}

	inner := m.width - 2
	if inner < 2 {
		inner = 2
	}

	// Top border with the transient status right-aligned inside it.
	top := m.borderWithStatus(border, inner)

	rows := m.input.WrappedStrings(m.inputWidth())
	curRow, curCol := m.input.CursorVisual(m.inputWidth())

	visible := m.inputAreaHeight() - 2
	first := 0
	if curRow >= visible {
		first = curRow - visible + 1
	}
	last := first + visible
	if last > len(rows) {
		last = len(rows)
	}

	var body []string
	for i := first; i < last; i++ {
		row := rows[i]
		if i == curRow && m.focusInput {
			row = renderCursorRow(row, curCol, t.Text, t.Background)
		}
		pad := inner - 2 - lipgloss.Width(row)
		if pad < 0 {
			pad = 0
		}
		body = append(body, border.Render("│")+" "+row+strings.Repeat(" ", pad)+" "+border.Render("│"))
	}
	if len(body) == 0 {
		body = append(body, border.Render("│")+strings.Repeat(" ", inner)+border.Render("│"))
	}

	bottom := border.Render("╰" + strings.Repeat("─", inner) + "╯")
	return top + "\n" + strings.Join(body, "\n") + "\n" + bottom
}

// borderWithStatus embeds the status text right-aligned in the top border.
func (m *Model) borderWithStatus(border lipgloss.Style, inner int) string {
	status := m.status
	maxStatus := inner - 6
	if maxStatus < 0 {
		maxStatus = 0
	}
	if runewidth.StringWidth(status) > maxStatus {
		status = runewidth.Truncate(status, maxStatus, "…")
	}
	if status == "" {
		return border.Render("╭" + strings.Repeat("─", inner) + "╮")
	}
	t := m.themes.Current()
	styled := lipgloss.NewStyle().Foreground(t.TextMuted).Render(" " + status + " ")
	dashes := inner - runewidth.StringWidth(status) - 2 - 2
	if dashes < 0 {
		dashes = 0
	}
	return border.Render("╭"+strings.Repeat("─", dashes)) + styled + border.Render("──╮")
}

// renderCursorRow draws the cursor as a reversed cell at col.
func renderCursorRow(row string, col int, fg, bg lipgloss.Color) string {
	runes := []rune(row)
	cursor := lipgloss.NewStyle().Reverse(true)

	// Map the visual column to a rune index.
	idx := len(runes)
	w := 0
	for i, r := range runes {
		if w >= col {
			idx = i
			break
		}
		w += runewidth.RuneWidth(r)
	}
	if idx >= len(runes) {
		return row + cursor.Render(" ")
	}
	return string(runes[:idx]) + cursor.Render(string(runes[idx])) + string(runes[idx+1:])
}

// ─── Picker panel ───────────────────────────────────────────────────────────────

const pickerRows = 10

func (m *Model) renderPickerPanel() string {
	t := m.themes.Current()
	p := m.picker

	if m.inspectBody != "" {
		return m.panelBox(m.inspectBody, "Esc closes inspect")
	}

	var b strings.Builder
	title := lipgloss.NewStyle().Bold(true).Foreground(t.Primary).Render(p.Title)
	b.WriteString(title)
	if p.Sorted() {
		b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render("  (sorted)"))
	}
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render("Filter: " + p.Filter() + "▏"))
	b.WriteString("\n\n")

	switch {
	case p.Loading:
		b.WriteString(m.spin.View() + " loading models…\n")
	case p.ErrRow != "":
		b.WriteString(lipgloss.NewStyle().Foreground(t.Error).Render(p.ErrRow) + "\n")
	default:
		visible := p.Visible()
		selIdx := p.SelectedIndex()
		first := 0
		if selIdx >= pickerRows {
			first = selIdx - pickerRows + 1
		}
		last := first + pickerRows
		if last > len(visible) {
			last = len(visible)
		}
		if len(visible) == 0 {
			b.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render("(no matches)") + "\n")
		}
		for i := first; i < last; i++ {
			it := visible[i]
			row := it.Display
			if i == selIdx {
				row = lipgloss.NewStyle().
					Background(t.Selection).
					Foreground(t.Text).
					Bold(true).
					Render("▸ " + row)
			} else {
				row = "  " + row
			}
			b.WriteString(row + "\n")
		}
	}

	return m.panelBox(b.String(),
		"Enter apply · Alt+Enter persist · Ctrl+O inspect · F6 sort · Esc close")
}

// panelBox renders overlay content in a bordered panel filling the chat
// area.
func (m *Model) panelBox(content, footer string) string {
	t := m.themes.Current()
	h := m.chatHeight() - 2
	if h < 1 {
		h = 1
	}
	w := m.chatWidth() - 2
	if w < 10 {
		w = 10
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderHighlight).
		Padding(0, 1).
		Width(w).
		Height(h)

	foot := lipgloss.NewStyle().Foreground(t.TextDim).Render(footer)
	body := content + "\n" + foot
	return box.Render(body)
}

// renderInspect renders a picker item's metadata through glamour.
func (m *Model) renderInspect(item PickerItem) string {
	t := m.themes.Current()
	style := t.MarkdownTheme
	if style == "" {
		style = "dark"
		if t.Type == "light" {
			style = "light"
		}
	}
	width := m.chatWidth() - 6
	if width < 20 {
		width = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return item.Meta
	}
	out, err := r.Render(item.Meta)
	if err != nil {
		return item.Meta
	}
	return out
}

// ─── File prompt ────────────────────────────────────────────────────────────────

func (m *Model) renderFilePrompt() string {
	t := m.themes.Current()
	p := m.prompt

	var body string
	if p.overwrite {
		body = fmt.Sprintf("%s exists.\n\n(o)verwrite · (r)ename · Esc cancels",
			lipgloss.NewStyle().Bold(true).Foreground(t.Warning).Render(p.name))
	} else {
		body = "Save to: " + p.name +
			lipgloss.NewStyle().Reverse(true).Render(" ") +
			"\n\nEnter saves · Esc cancels"
	}
	return m.panelBox(body, "")
}
