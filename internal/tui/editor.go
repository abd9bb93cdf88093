package tui

// editor.go — external $EDITOR integration (ctrl+t)
//
// The current input buffer is written to a temp file, $EDITOR runs via
// tea.ExecProcess, and the file content is read back into the buffer when
// the editor exits.

import (
	"os"
	"os/exec"

	tea "github.com/charmbracelet/bubbletea"
)

// openExternalEditor suspends the TUI and opens $EDITOR on the input text.
func (m *Model) openExternalEditor() (tea.Model, tea.Cmd) {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = os.Getenv("VISUAL")
	}
	if editor == "" {
		for _, e := range []string{"nano", "vim", "vi"} {
			if _, err := exec.LookPath(e); err == nil {
				editor = e
				break
			}
		}
	}
	if editor == "" {
		m.setStatus("$EDITOR is not set")
		return m, nil
	}

	tmp, err := os.CreateTemp("", "chabeau-edit-*.md")
	if err != nil {
		m.setStatus("Failed to create temp file: " + err.Error())
		return m, nil
	}
	if _, err := tmp.WriteString(m.input.Value()); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		m.setStatus("Failed to write temp file: " + err.Error())
		return m, nil
	}
	_ = tmp.Close()
	tmpPath := tmp.Name()

	cmd := exec.Command(editor, tmpPath) //nolint:gosec
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return m, tea.ExecProcess(cmd, func(err error) tea.Msg {
		defer os.Remove(tmpPath)
		if err != nil {
			return editorDoneMsg{err: err}
		}
		data, readErr := os.ReadFile(tmpPath)
		if readErr != nil {
			return editorDoneMsg{err: readErr}
		}
		return editorDoneMsg{content: string(data)}
	})
}
