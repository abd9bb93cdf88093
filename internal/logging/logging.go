// Package logging writes the conversation to plain-text log files: live
// appends during chat, atomic whole-file rewrites after edits or
// truncation, and one-shot dump snapshots.
package logging

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/permacommons/chabeau/internal/config"
	"github.com/permacommons/chabeau/internal/message"
)

// Sink is the live log writer. Messages are appended one paragraph each,
// separated by a blank line; start/pause/resume leave timestamp markers.
type Sink struct {
	path      string
	active    bool
	userLabel string
}

// NewSink returns an inactive sink.
func NewSink() *Sink {
	return &Sink{userLabel: "You"}
}

// Active reports whether appends are being written.
func (s *Sink) Active() bool { return s.active }

// Path returns the current log file path ("" when unset).
func (s *Sink) Path() string { return s.path }

// SetUserLabel changes the label used for user messages from now on.
// Appends already in the file keep the label they were written with, but
// Rewrite writes every user entry with the current label, so earlier
// entries take the new label once an edit or truncation rewrites the file.
func (s *Sink) SetUserLabel(name string) {
	if name != "" {
		s.userLabel = name
	}
}

// UserLabel returns the current user label.
func (s *Sink) UserLabel() string { return s.userLabel }

// Status describes the sink for the status line.
func (s *Sink) Status() string {
	switch {
	case s.path == "":
		return "disabled"
	case s.active:
		return fmt.Sprintf("active (%s)", s.path)
	default:
		return fmt.Sprintf("paused (%s)", s.path)
	}
}

// SetTarget starts logging to path, verifying writability and stamping a
// start marker.
func (s *Sink) SetTarget(path string) (string, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("open log file: %w", err)
	}
	f.Close()

	s.path = path
	s.active = true
	if err := s.writeRaw(marker("started")); err != nil {
		s.active = false
		return "", err
	}
	return "Logging enabled to: " + path, nil
}

// Toggle pauses or resumes logging, stamping a marker either way.
func (s *Sink) Toggle() (string, error) {
	if s.path == "" {
		return "", fmt.Errorf("no log file set; use /log <filename> first")
	}
	if s.active {
		if err := s.writeRaw(marker("paused")); err != nil {
			return "", err
		}
		s.active = false
		return fmt.Sprintf("Logging paused (file: %s)", s.path), nil
	}
	s.active = true
	if err := s.writeRaw(marker("resumed")); err != nil {
		s.active = false
		return "", err
	}
	return "Logging resumed to: " + s.path, nil
}

// Deactivate turns the sink off without a marker, used when a write fails
// so the user isn't given a false sense of capture.
func (s *Sink) Deactivate() { s.active = false }

// Append writes one message paragraph if the sink is active.
func (s *Sink) Append(m message.Message) error {
	if !s.active || s.path == "" {
		return nil
	}
	return s.writeRaw(FormatMessage(m, s.userLabel))
}

// Rewrite atomically replaces the log with the given messages, used after
// edits and truncation. Markers from the previous life of the file are
// dropped; the rewritten file matches the transcript.
func (s *Sink) Rewrite(msgs []message.Message) error {
	if !s.active || s.path == "" {
		return nil
	}
	var b strings.Builder
	writeMessages(&b, msgs, s.userLabel, true)
	return config.AtomicWriteFile(s.path, []byte(b.String()))
}

// writeRaw appends content plus the separating blank line.
func (s *Sink) writeRaw(content string) error {
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "%s\n\n", content); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return f.Sync()
}

func marker(verb string) string {
	return fmt.Sprintf("## Logging %s at %s", verb, time.Now().UTC().Format(time.RFC3339))
}

// ---------------------------------------------------------------------------
// formatting
// ---------------------------------------------------------------------------

// FormatMessage renders one message for the log: user messages carry the
// user label, app messages a role marker, assistant replies are raw.
func FormatMessage(m message.Message, userLabel string) string {
	switch m.Role {
	case message.RoleUser:
		if userLabel == "" {
			userLabel = "You"
		}
		return userLabel + ": " + m.Content
	case message.RoleAppInfo:
		return "[info] " + m.Content
	case message.RoleAppWarning:
		return "[warning] " + m.Content
	case message.RoleAppError:
		return "[error] " + m.Content
	case message.RoleSystem:
		return "[system] " + m.Content
	default:
		return m.Content
	}
}

func writeMessages(b *strings.Builder, msgs []message.Message, userLabel string, includeApp bool) {
	for _, m := range msgs {
		if m.InProgress {
			continue
		}
		if m.Role.IsApp() && !includeApp {
			continue
		}
		b.WriteString(FormatMessage(m, userLabel))
		b.WriteString("\n\n")
	}
}

// ---------------------------------------------------------------------------
// dumps and block saves
// ---------------------------------------------------------------------------

// WriteDump writes a one-shot transcript snapshot. App messages are
// included by default; includeApp=false drops them.
func WriteDump(path string, msgs []message.Message, userLabel string, includeApp bool) error {
	var b strings.Builder
	writeMessages(&b, msgs, userLabel, includeApp)
	return config.AtomicWriteFile(path, []byte(b.String()))
}

// DefaultDumpName is the default /dump target for a given day.
func DefaultDumpName(now time.Time) string {
	return fmt.Sprintf("chabeau-log-%s.txt", now.Format("2006-01-02"))
}

// DefaultBlockName is the default save target for a code block; the
// extension derives from the fence language.
func DefaultBlockName(now time.Time, lang string) string {
	return fmt.Sprintf("chabeau-block-%s.%s", now.Format("2006-01-02"), ExtForLang(lang))
}

// SaveBlock writes raw code block content (no fences) to path.
func SaveBlock(path, content string) error {
	return config.AtomicWriteFile(path, []byte(content))
}

// extByLang maps fence languages to file extensions; txt is the default.
var extByLang = map[string]string{
	"go":         "go",
	"python":     "py",
	"py":         "py",
	"javascript": "js",
	"js":         "js",
	"typescript": "ts",
	"ts":         "ts",
	"rust":       "rs",
	"c":          "c",
	"cpp":        "cpp",
	"c++":        "cpp",
	"java":       "java",
	"ruby":       "rb",
	"sh":         "sh",
	"bash":       "sh",
	"shell":      "sh",
	"zsh":        "sh",
	"html":       "html",
	"css":        "css",
	"json":       "json",
	"yaml":       "yaml",
	"yml":        "yaml",
	"toml":       "toml",
	"xml":        "xml",
	"sql":        "sql",
	"markdown":   "md",
	"md":         "md",
	"kotlin":     "kt",
	"swift":      "swift",
	"php":        "php",
	"perl":       "pl",
	"lua":        "lua",
	"r":          "r",
	"haskell":    "hs",
	"scala":      "scala",
	"dockerfile": "dockerfile",
}

// ExtForLang returns the file extension for a fence language tag.
func ExtForLang(lang string) string {
	if ext, ok := extByLang[strings.ToLower(lang)]; ok {
		return ext
	}
	return "txt"
}
