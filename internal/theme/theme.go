package theme

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Theme is a color scheme for the chat UI.
type Theme struct {
	Name        string
	Description string
	Type        string // "dark" or "light"

	// Core colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color
	Success   lipgloss.Color
	Warning   lipgloss.Color
	Error     lipgloss.Color
	Info      lipgloss.Color

	// Text colors
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	TextDim   lipgloss.Color

	// UI colors
	Background      lipgloss.Color
	Surface         lipgloss.Color
	Border          lipgloss.Color
	BorderHighlight lipgloss.Color
	Selection       lipgloss.Color

	// Message colors
	User      lipgloss.Color
	Assistant lipgloss.Color

	// Markdown accents
	Heading lipgloss.Color
	Link    lipgloss.Color
	CodeFg  lipgloss.Color
	CodeBg  lipgloss.Color
	Quote   lipgloss.Color

	// CursorColor, when non-empty, is emitted as an OSC 12 sequence so the
	// terminal cursor matches the theme.
	CursorColor string

	// SyntaxTheme names the chroma style used inside code fences.
	SyntaxTheme string

	// MarkdownTheme selects the glamour style for overlay rendering.
	MarkdownTheme string
}

// Definition is a plain-string theme description, used for custom themes
// loaded from the config file. Empty fields inherit from the base theme.
type Definition struct {
	Name        string
	Base        string // builtin theme to inherit from
	Type        string
	Primary     string
	Secondary   string
	Accent      string
	Success     string
	Warning     string
	Error       string
	Text        string
	TextMuted   string
	Background  string
	Surface     string
	Border      string
	Selection   string
	User        string
	Assistant   string
	CursorColor string
	SyntaxTheme string
}

// Registry holds all available themes.
type Registry struct {
	themes  map[string]*Theme
	current string
}

// NewRegistry creates a registry pre-populated with the builtin themes.
func NewRegistry() *Registry {
	r := &Registry{
		themes:  make(map[string]*Theme),
		current: "dark",
	}
	for _, t := range builtinThemes() {
		r.Register(t)
	}
	return r
}

// Get returns a theme by name.
func (r *Registry) Get(name string) (*Theme, error) {
	t, ok := r.themes[name]
	if !ok {
		return nil, fmt.Errorf("theme not found: %s", name)
	}
	return t, nil
}

// Current returns the active theme.
func (r *Registry) Current() *Theme {
	t, err := r.Get(r.current)
	if err != nil {
		return Default()
	}
	return t
}

// SetCurrent switches the active theme.
func (r *Registry) SetCurrent(name string) error {
	if _, ok := r.themes[name]; !ok {
		return fmt.Errorf("theme not found: %s", name)
	}
	r.current = name
	return nil
}

// List returns all theme names, sorted.
func (r *Registry) List() []string {
	names := make([]string, 0, len(r.themes))
	for name := range r.themes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds or replaces a theme.
func (r *Registry) Register(t *Theme) {
	r.themes[t.Name] = t
}

// RegisterDefinition resolves a custom theme definition against its base
// theme and registers the result.
func (r *Registry) RegisterDefinition(def Definition) error {
	if def.Name == "" {
		return fmt.Errorf("custom theme needs a name")
	}
	base := Default()
	if def.Base != "" {
		b, err := r.Get(def.Base)
		if err != nil {
			return fmt.Errorf("custom theme %q: %w", def.Name, err)
		}
		base = b
	}
	t := *base
	t.Name = def.Name
	t.Description = "custom theme"
	if def.Type != "" {
		t.Type = def.Type
	}
	overlay := func(dst *lipgloss.Color, hex string) {
		if hex != "" {
			*dst = lipgloss.Color(hex)
		}
	}
	overlay(&t.Primary, def.Primary)
	overlay(&t.Secondary, def.Secondary)
	overlay(&t.Accent, def.Accent)
	overlay(&t.Success, def.Success)
	overlay(&t.Warning, def.Warning)
	overlay(&t.Error, def.Error)
	overlay(&t.Text, def.Text)
	overlay(&t.TextMuted, def.TextMuted)
	overlay(&t.Background, def.Background)
	overlay(&t.Surface, def.Surface)
	overlay(&t.Border, def.Border)
	overlay(&t.Selection, def.Selection)
	overlay(&t.User, def.User)
	overlay(&t.Assistant, def.Assistant)
	if def.CursorColor != "" {
		t.CursorColor = def.CursorColor
	}
	if def.SyntaxTheme != "" {
		t.SyntaxTheme = def.SyntaxTheme
	}
	r.Register(&t)
	return nil
}

// Default returns the default theme.
func Default() *Theme {
	return Dark()
}
