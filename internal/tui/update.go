package tui

import (
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/permacommons/chabeau/internal/message"
	"github.com/permacommons/chabeau/internal/stream"
)

// ═══════════════════════════════════════════════════════════════════════════════
// UPDATE
// ═══════════════════════════════════════════════════════════════════════════════

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// Width changes invalidate the prewrap cache by key; auto-follow
		// keeps the viewport at the tail if it was there.
		m.relayout(false)
		return m, nil

	case tea.MouseMsg:
		switch msg.Type {
		case tea.MouseWheelUp:
			m.scroll.ScrollBy(-3)
		case tea.MouseWheelDown:
			m.scroll.ScrollBy(3)
		}
		return m, nil

	case spinner.TickMsg:
		if !m.streaming {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case stream.Msg:
		return m.handleStreamMsg(msg)

	case modelsLoadedMsg:
		if m.mode == modePicker && m.picker != nil && m.picker.Kind == PickModel {
			if msg.err != nil {
				m.picker.Loading = false
				m.picker.ErrRow = "Failed to load models: " + msg.err.Error()
			} else {
				m.picker.SetItems(msg.items)
			}
		}
		return m, nil

	case editorDoneMsg:
		if msg.err != nil {
			m.setStatus("Editor failed: " + msg.err.Error())
		} else {
			m.input.SetValue(msg.content)
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// handleStreamMsg applies a stream message through the controller and
// re-arms the channel receive.
func (m *Model) handleStreamMsg(msg stream.Msg) (tea.Model, tea.Cmd) {
	res := m.ctl.Apply(msg)
	if res.Changed {
		m.relayout(true)
	}
	if res.Status != "" {
		m.setStatus(res.Status)
	}
	if res.Done {
		m.streaming = false
	}
	return m, waitForStream(m.svc.Messages())
}

// ─── Key routing ────────────────────────────────────────────────────────────────

func (m *Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Ctrl+C is global: quit, with a double-press guard while streaming.
	if key.String() == "ctrl+c" {
		if m.streaming && time.Since(m.lastCtrlC) > 2*time.Second {
			m.lastCtrlC = time.Now()
			m.setStatus("Streaming — press Ctrl+C again to quit")
			return m, nil
		}
		return m, tea.Quit
	}

	switch m.mode {
	case modeEditSelect:
		return m.handleKeyEditSelect(key)
	case modeBlockSelect:
		return m.handleKeyBlockSelect(key)
	case modePicker:
		return m.handleKeyPicker(key)
	case modeFilePrompt:
		return m.handleKeyFilePrompt(key)
	default:
		return m.handleKeyNormal(key)
	}
}

// ─── Normal / Compose ───────────────────────────────────────────────────────────

func (m *Model) handleKeyNormal(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "esc":
		switch {
		case m.editingIndex >= 0:
			m.cancelInPlaceEdit()
		case m.streaming:
			m.ctl.CancelCurrent()
		default:
			m.setStatus("")
		}
		return m, nil

	case "tab":
		if m.focusInput && strings.HasPrefix(m.input.Value(), "/") {
			m.completeCommand()
			return m, nil
		}
		m.focusInput = !m.focusInput
		return m, nil

	case "f4":
		m.compose = !m.compose
		if m.compose {
			m.setStatus("Compose mode: Enter inserts newline, Alt+Enter sends")
		} else {
			m.setStatus("Compose mode off")
		}
		return m, nil

	case "ctrl+r":
		return m.retry()

	case "ctrl+p":
		return m.enterEditSelect(message.RoleUser)

	case "ctrl+x":
		return m.enterEditSelect(message.RoleAssistant)

	case "ctrl+b":
		return m.enterBlockSelect()

	case "ctrl+t":
		return m.openExternalEditor()

	case "ctrl+l":
		m.setStatus("")
		return m, nil

	case "enter":
		if !m.focusInput {
			return m, nil
		}
		if m.compose {
			m.input.InsertNewline()
			return m, nil
		}
		return m.submit()

	case "alt+enter", "ctrl+j":
		if !m.focusInput {
			return m, nil
		}
		if m.compose {
			return m.submit()
		}
		m.input.InsertNewline()
		return m, nil
	}

	if m.focusInput {
		return m.handleInputKey(key)
	}
	return m.handleTranscriptKey(key)
}

// handleInputKey edits the input buffer.
func (m *Model) handleInputKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "backspace":
		m.input.Backspace()
	case "delete":
		m.input.DeleteForward()
	case "left":
		m.input.Left()
	case "right":
		m.input.Right()
	case "up":
		m.input.Up(m.inputWidth())
	case "down":
		m.input.Down(m.inputWidth())
	case "home":
		m.input.Home()
	case "end":
		m.input.End()
	case "pgup":
		m.scroll.Page(-1)
	case "pgdown":
		m.scroll.Page(1)
	default:
		switch key.Type {
		case tea.KeyRunes:
			if key.Paste {
				m.input.InsertString(string(key.Runes))
			} else {
				for _, r := range key.Runes {
					m.input.InsertRune(r)
				}
			}
		case tea.KeySpace:
			m.input.InsertRune(' ')
		}
	}
	return m, nil
}

// handleTranscriptKey scrolls the chat area.
func (m *Model) handleTranscriptKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "up", "k":
		m.scroll.ScrollBy(-1)
	case "down", "j":
		m.scroll.ScrollBy(1)
	case "pgup":
		m.scroll.Page(-1)
	case "pgdown":
		m.scroll.Page(1)
	case "home", "g":
		m.scroll.Home()
	case "end", "G":
		m.scroll.End()
	case "left":
		if m.tableShift > 0 {
			m.tableShift -= 4
			if m.tableShift < 0 {
				m.tableShift = 0
			}
		}
	case "right":
		m.tableShift += 4
	}
	return m, nil
}

// submit sends the input: a slash command, an in-place edit commit, or a
// chat message.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/") {
		m.input.Clear()
		return m.executeCommand(trimmed)
	}

	if m.editingIndex >= 0 {
		m.commitInPlaceEdit(text)
		return m, nil
	}

	if trimmed == "" {
		return m, nil
	}

	m.ctl.SendUser(text)
	m.input.Clear()
	m.streaming = true
	m.relayout(false)
	m.scroll.End()
	return m, m.spin.Tick
}

func (m *Model) retry() (tea.Model, tea.Cmd) {
	if h := m.ctl.RetryLast(); h == nil {
		m.setStatus("Nothing to retry")
		return m, nil
	}
	m.streaming = true
	m.relayout(false)
	m.scroll.End()
	return m, m.spin.Tick
}

// ─── In-place edit ──────────────────────────────────────────────────────────────

func (m *Model) beginInPlaceEdit(idx int, role message.Role) {
	m.editingIndex = idx
	m.editingRole = role
	m.input.SetValue(m.ctl.Transcript().At(idx).Content)
	m.mode = modeNormal
	m.focusInput = true
	m.setStatus("Editing message — Enter saves, Esc cancels")
}

func (m *Model) commitInPlaceEdit(text string) {
	ok := false
	switch m.editingRole {
	case message.RoleUser:
		ok = m.ctl.EditUserInPlace(m.editingIndex, text)
	case message.RoleAssistant:
		ok = m.ctl.EditAssistantInPlace(m.editingIndex, text)
	}
	if ok {
		m.setStatus("Message updated")
	} else {
		m.setStatus("Edit failed")
	}
	m.editingIndex = -1
	m.input.Clear()
	m.relayout(false)
}

func (m *Model) cancelInPlaceEdit() {
	m.editingIndex = -1
	m.input.Clear()
	m.setStatus("Edit cancelled")
}

// ─── Edit-select ────────────────────────────────────────────────────────────────

func (m *Model) enterEditSelect(target message.Role) (tea.Model, tea.Cmd) {
	indices := m.ctl.Transcript().IndicesOfRole(target)
	if len(indices) == 0 {
		m.setStatus("No messages to select")
		return m, nil
	}
	m.mode = modeEditSelect
	m.editTarget = target
	m.editIndex = indices[len(indices)-1]
	m.focusInput = false
	m.scrollSelectedMessageIntoView()
	return m, nil
}

func (m *Model) handleKeyEditSelect(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	indices := m.ctl.Transcript().IndicesOfRole(m.editTarget)
	if len(indices) == 0 {
		m.mode = modeNormal
		m.focusInput = true
		return m, nil
	}
	pos := 0
	for i, idx := range indices {
		if idx == m.editIndex {
			pos = i
			break
		}
	}

	switch key.String() {
	case "up", "k":
		pos = (pos - 1 + len(indices)) % len(indices)
		m.editIndex = indices[pos]
		m.scrollSelectedMessageIntoView()

	case "down", "j":
		pos = (pos + 1) % len(indices)
		m.editIndex = indices[pos]
		m.scrollSelectedMessageIntoView()

	case "enter":
		if m.editTarget == message.RoleUser {
			if content, ok := m.ctl.TakeUserForResend(m.editIndex); ok {
				m.input.SetValue(content)
				m.setStatus("Loaded message for resend")
			}
			m.mode = modeNormal
			m.focusInput = true
			m.relayout(false)
		} else {
			m.beginInPlaceEdit(m.editIndex, message.RoleAssistant)
		}

	case "e":
		m.beginInPlaceEdit(m.editIndex, m.editTarget)

	case "delete", "backspace":
		m.ctl.TruncateAfter(m.editIndex - 1)
		m.mode = modeNormal
		m.focusInput = true
		m.relayout(false)
		m.setStatus("Truncated conversation")

	case "esc":
		m.mode = modeNormal
		m.focusInput = true
	}
	return m, nil
}

func (m *Model) scrollSelectedMessageIntoView() {
	l := m.layout()
	start, end := l.MessageRange(m.editIndex)
	m.scroll.SetHeight(m.chatHeight())
	m.scroll.ScrollIntoView(start, end)
}

// ─── Block-select ───────────────────────────────────────────────────────────────

func (m *Model) enterBlockSelect() (tea.Model, tea.Cmd) {
	l := m.layout()
	if len(l.Blocks) == 0 {
		m.setStatus("No code blocks")
		return m, nil
	}
	m.mode = modeBlockSelect
	m.blockIndex = len(l.Blocks) - 1
	m.focusInput = false
	m.scrollBlockIntoView()
	return m, nil
}

func (m *Model) handleKeyBlockSelect(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	l := m.layout()
	n := len(l.Blocks)
	if n == 0 {
		m.mode = modeNormal
		m.focusInput = true
		return m, nil
	}

	switch key.String() {
	case "up", "k":
		m.blockIndex = (m.blockIndex - 1 + n) % n
		m.scrollBlockIntoView()

	case "down", "j":
		m.blockIndex = (m.blockIndex + 1) % n
		m.scrollBlockIntoView()

	case "c":
		block := l.Blocks[m.blockIndex]
		if err := clipboard.WriteAll(block.Content); err != nil {
			m.setStatus("Clipboard error: " + err.Error())
		} else {
			m.setStatus("Copied code block")
		}
		m.mode = modeNormal
		m.focusInput = true

	case "s":
		block := l.Blocks[m.blockIndex]
		m.prompt = &filePrompt{
			kind:    "block",
			name:    defaultBlockName(block.Lang),
			payload: block.Content,
		}
		m.mode = modeFilePrompt

	case "esc":
		m.mode = modeNormal
		m.focusInput = true
	}
	return m, nil
}

func (m *Model) scrollBlockIntoView() {
	l := m.layout()
	start, end := l.BlockRange(m.blockIndex)
	m.scroll.SetHeight(m.chatHeight())
	m.scroll.ScrollIntoView(start, end)
}

// ─── Picker keys ────────────────────────────────────────────────────────────────

func (m *Model) handleKeyPicker(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.picker
	if p == nil {
		m.mode = modeNormal
		return m, nil
	}

	switch key.String() {
	case "esc":
		if m.inspectBody != "" {
			m.inspectBody = ""
			return m, nil
		}
		m.closePicker()
		return m, nil

	case "up":
		p.Move(-1)
		return m, nil

	case "down":
		p.Move(1)
		return m, nil

	case "f6":
		p.ToggleSort()
		return m, nil

	case "ctrl+o":
		if it, ok := p.SelectedItem(); ok {
			m.inspectBody = m.renderInspect(it)
		}
		return m, nil

	case "enter":
		return m.applyPicker(false)

	case "alt+enter", "ctrl+j":
		return m.applyPicker(true)

	case "backspace":
		f := p.Filter()
		if f != "" {
			p.SetFilter(f[:len(f)-1])
		}
		return m, nil
	}

	if key.Type == tea.KeyRunes && !key.Paste {
		p.SetFilter(p.Filter() + string(key.Runes))
	} else if key.Type == tea.KeySpace {
		p.SetFilter(p.Filter() + " ")
	}
	return m, nil
}

func (m *Model) closePicker() {
	m.picker = nil
	m.inspectBody = ""
	m.mode = modeNormal
	m.focusInput = true
}

// ─── File prompt ────────────────────────────────────────────────────────────────

func (m *Model) handleKeyFilePrompt(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	p := m.prompt
	if p == nil {
		m.mode = modeNormal
		return m, nil
	}

	if p.overwrite {
		switch key.String() {
		case "o", "y", "enter":
			m.finishFilePrompt(true)
		case "r", "n":
			p.overwrite = false
		case "esc":
			m.prompt = nil
			m.mode = modeNormal
			m.focusInput = true
			m.setStatus("Save cancelled")
		}
		return m, nil
	}

	switch key.String() {
	case "enter":
		m.finishFilePrompt(false)
		return m, nil
	case "esc":
		m.prompt = nil
		m.mode = modeNormal
		m.focusInput = true
		m.setStatus("Save cancelled")
		return m, nil
	case "backspace":
		if p.name != "" {
			p.name = p.name[:len(p.name)-1]
		}
		return m, nil
	}
	if key.Type == tea.KeyRunes && !key.Paste {
		p.name += string(key.Runes)
	} else if key.Type == tea.KeySpace {
		p.name += " "
	}
	return m, nil
}
