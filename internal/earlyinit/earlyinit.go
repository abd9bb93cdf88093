// Package earlyinit must be imported before github.com/charmbracelet/bubbletea
// in cmd/chabeau/main.go. Its init function pre-sets lipgloss's dark-background
// flag so that bubbletea's own init finds the value already cached and skips
// the OSC 11 terminal colour query entirely.
//
// Background: bubbletea v1 calls lipgloss.HasDarkBackground() in its package
// init. On WSL2 the cursor-position response arrives before the OSC 11
// response, so termenv concludes "OSC not supported" and leaves the OSC reply
// sitting in the PTY buffer, where it is then read as keyboard input and
// appears as garbage text in the input area. Pre-setting the flag prevents
// the query from ever being sent.
package earlyinit

import "github.com/charmbracelet/lipgloss"

func init() {
	lipgloss.SetHasDarkBackground(true)
}
