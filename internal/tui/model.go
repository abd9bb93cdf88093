package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/permacommons/chabeau/internal/auth"
	"github.com/permacommons/chabeau/internal/chat"
	"github.com/permacommons/chabeau/internal/config"
	"github.com/permacommons/chabeau/internal/logging"
	"github.com/permacommons/chabeau/internal/message"
	"github.com/permacommons/chabeau/internal/render"
	"github.com/permacommons/chabeau/internal/stream"
	"github.com/permacommons/chabeau/internal/theme"
	"github.com/permacommons/chabeau/internal/ui"
)

// ─── Modes ──────────────────────────────────────────────────────────────────────

type modeKind int

const (
	modeNormal modeKind = iota
	modeEditSelect
	modeBlockSelect
	modePicker
	modeFilePrompt
)

// filePrompt is the state of the save-file overlay: a default name the
// user can edit, the payload to write, and whether we are at the
// overwrite-confirmation stage.
type filePrompt struct {
	kind      string // "block" | "dump"
	name      string
	payload   string
	overwrite bool
}

// ─── Messages ───────────────────────────────────────────────────────────────────

// modelsLoadedMsg delivers an async model listing to an open picker.
type modelsLoadedMsg struct {
	provider string
	items    []PickerItem
	err      error
}

// editorDoneMsg is sent after the external $EDITOR exits.
type editorDoneMsg struct {
	content string
	err     error
}

// waitForStream re-arms the stream channel receive; each received message
// schedules the next receive, the teacher pattern for channel-fed UIs.
func waitForStream(ch <-chan stream.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

// ─── Model ──────────────────────────────────────────────────────────────────────

// Options configures a new chat session.
type Options struct {
	Config    *config.Config
	Creds     auth.Credentials
	Model     string
	LogPath   string
	PersonaID string
	PresetID  string
	Character string
}

// Model is the single-owner application state. Background tasks never
// mutate it; they post messages that Update applies.
type Model struct {
	ctl      *chat.Controller
	svc      *stream.Service
	cfg      *config.Config
	creds    auth.Credentials
	themes   *theme.Registry
	renderer *render.Renderer
	cache    *render.PrewrapCache
	scroll   ui.Scroll
	input    *ui.InputBuffer
	spin     spinner.Model

	width  int
	height int

	mode       modeKind
	compose    bool
	focusInput bool

	// Edit-select state.
	editTarget message.Role
	editIndex  int

	// In-place edit: the input buffer holds the message at editingIndex.
	editingIndex int
	editingRole  message.Role

	// Block-select state.
	blockIndex int

	picker      *Picker
	inspectBody string
	prompt      *filePrompt

	persona   *config.Persona
	preset    *config.Preset
	character *config.Character

	markdown bool
	syntax   bool

	status    string
	streaming bool
	lastCtrlC time.Time

	tableShift int
}

// streamIndicator is the 8-frame title-bar animation shown while streaming.
var streamIndicator = spinner.Spinner{
	Frames: []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"},
	FPS:    time.Second / 8,
}

// New builds the application model.
func New(opts Options) (*Model, error) {
	themes := theme.NewRegistry()
	for _, def := range opts.Config.CustomThemes {
		if err := themes.RegisterDefinition(def); err != nil {
			return nil, err
		}
	}
	if opts.Config.Theme != "" {
		// A bad persisted theme name falls back to the default silently.
		_ = themes.SetCurrent(opts.Config.Theme)
	}
	t := themes.Current()

	svc := stream.NewService()
	sink := logging.NewSink()
	ctl := chat.NewController(svc, sink)

	sp := spinner.New()
	sp.Spinner = streamIndicator
	sp.Style = lipgloss.NewStyle().Foreground(t.Primary)

	m := &Model{
		ctl:          ctl,
		svc:          svc,
		cfg:          opts.Config,
		creds:        opts.Creds,
		themes:       themes,
		renderer:     render.NewRenderer(t),
		cache:        render.NewPrewrapCache(),
		input:        ui.NewInputBuffer(),
		spin:         sp,
		focusInput:   true,
		editingIndex: -1,
		markdown:     opts.Config.MarkdownEnabled(),
		syntax:       opts.Config.SyntaxEnabled(),
	}

	if opts.PersonaID != "" {
		if p, ok := opts.Config.FindPersona(opts.PersonaID); ok {
			m.setPersona(p)
		}
	} else if opts.Config.DefaultPersona != "" {
		if p, ok := opts.Config.FindPersona(opts.Config.DefaultPersona); ok {
			m.setPersona(p)
		}
	}
	if opts.PresetID != "" {
		if p, ok := opts.Config.FindPreset(opts.PresetID); ok {
			m.preset = &p
		}
	} else if opts.Config.DefaultPreset != "" {
		if p, ok := opts.Config.FindPreset(opts.Config.DefaultPreset); ok {
			m.preset = &p
		}
	}
	switch {
	case opts.Character != "":
		if ch, ok := opts.Config.FindCharacter(opts.Character); ok {
			m.character = &ch
		}
	default:
		if ch, ok := opts.Config.DefaultCharacterFor(opts.Creds.ProviderID); ok {
			m.character = &ch
		}
	}

	model := opts.Model
	if model == "" {
		model = opts.Config.DefaultModelFor(opts.Creds.ProviderID)
	}
	m.applySession(opts.Creds, model)

	if opts.LogPath != "" {
		if status, err := sink.SetTarget(opts.LogPath); err != nil {
			m.status = "Log error: " + err.Error()
		} else {
			m.status = status
		}
	}

	if m.character != nil && m.character.Greeting != "" {
		ctl.SeedGreeting(m.character.Greeting)
	}

	m.emitCursorColor()
	return m, nil
}

// Init arms the stream channel receive.
func (m *Model) Init() tea.Cmd {
	return waitForStream(m.svc.Messages())
}

// ─── Session plumbing ───────────────────────────────────────────────────────────

func (m *Model) setPersona(p config.Persona) {
	m.persona = &p
	m.ctl.Sink().SetUserLabel(p.Name)
}

// scaffold assembles the system-prompt fragments from the active
// character, persona and preset.
func (m *Model) scaffold() stream.SystemScaffold {
	sc := stream.SystemScaffold{Base: m.cfg.SystemPrompt}
	if m.character != nil {
		sc.Character = m.character.SystemPrompt
	}
	if m.persona != nil && m.persona.Bio != "" {
		sc.PersonaBio = m.persona.Bio
	}
	if m.preset != nil {
		sc.PresetPre = m.preset.Pre
		sc.PresetPost = m.preset.Post
	}
	return sc
}

// applySession pushes the current credentials, model and scaffold into the
// controller. Any in-flight stream is cancelled; nothing auto-resends.
func (m *Model) applySession(creds auth.Credentials, model string) {
	m.creds = creds
	m.ctl.SetSession(chat.Session{
		Target: stream.Target{
			BaseURL: creds.BaseURL,
			APIKey:  creds.APIKey,
			Headers: creds.Headers,
		},
		Model:    model,
		Scaffold: m.scaffold(),
	})
}

// refreshScaffold re-applies the session after persona/preset/character
// changes.
func (m *Model) refreshScaffold() {
	s := m.ctl.Session()
	s.Scaffold = m.scaffold()
	m.ctl.SetSession(s)
}

// ─── Layout plumbing ────────────────────────────────────────────────────────────

func (m *Model) flags() render.Flags {
	label := "You"
	if m.persona != nil {
		label = m.persona.Name
	}
	return render.Flags{Markdown: m.markdown, Syntax: m.syntax, UserLabel: label}
}

func (m *Model) chatWidth() int {
	w := m.width - 2
	if w < 1 {
		w = 1
	}
	return w
}

func (m *Model) chatHeight() int {
	h := m.height - 1 - m.inputAreaHeight()
	if h < 1 {
		h = 1
	}
	return h
}

// inputAreaHeight is the bordered input box height: content rows plus the
// two border lines. Compose mode may grow to half the terminal.
func (m *Model) inputAreaHeight() int {
	rows := len(m.input.WrappedStrings(m.inputWidth()))
	max := 4
	if m.compose {
		max = m.height / 2
		if max < 4 {
			max = 4
		}
	}
	if rows > max {
		rows = max
	}
	if rows < 1 {
		rows = 1
	}
	return rows + 2
}

func (m *Model) inputWidth() int {
	w := m.width - 4
	if w < 1 {
		w = 1
	}
	return w
}

// layout returns the current prewrap layout, rebuilding as needed.
func (m *Model) layout() *render.Layout {
	return m.cache.GetOrBuild(m.ctl.Transcript(), m.renderer, m.flags(), m.chatWidth())
}

// relayout refreshes the cache (splicing the tail on streaming updates)
// and lets the viewport auto-follow.
func (m *Model) relayout(splice bool) {
	var l *render.Layout
	if splice {
		l = m.cache.SpliceLast(m.ctl.Transcript(), m.renderer, m.flags(), m.chatWidth())
	} else {
		l = m.layout()
	}
	m.scroll.SetHeight(m.chatHeight())
	m.scroll.Update(len(l.Lines))
}

func (m *Model) setStatus(s string) { m.status = s }

// applyTheme switches the active theme everywhere styling is derived.
func (m *Model) applyTheme(name string) error {
	if err := m.themes.SetCurrent(name); err != nil {
		return err
	}
	t := m.themes.Current()
	m.renderer.SetTheme(t)
	m.spin.Style = lipgloss.NewStyle().Foreground(t.Primary)
	m.cache.Invalidate()
	m.emitCursorColor()
	return nil
}

// emitCursorColor sends OSC 12 when the theme specifies a cursor color.
func (m *Model) emitCursorColor() {
	t := m.themes.Current()
	if t.CursorColor == "" {
		return
	}
	out := termenv.DefaultOutput()
	out.SetCursorColor(termenv.RGBColor(t.CursorColor))
}

// userLabel is the display name for the user's messages.
func (m *Model) userLabel() string {
	if m.persona != nil {
		return m.persona.Name
	}
	return "You"
}
