package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/permacommons/chabeau/internal/auth"
	"github.com/permacommons/chabeau/internal/config"
	"github.com/permacommons/chabeau/internal/logging"
	"github.com/permacommons/chabeau/internal/message"
	"github.com/permacommons/chabeau/internal/provider"
)

// commandNames lists the slash commands for Tab completion.
var commandNames = []string{
	"/help", "/theme", "/provider", "/model", "/char", "/persona", "/preset",
	"/log", "/dump", "/markdown", "/syntax", "/compose", "/clear", "/copy", "/quit",
}

const helpText = `**Keys**

- Enter sends, Alt+Enter / Ctrl+J inserts a newline (F4 swaps them)
- Tab switches focus between input and transcript; with a leading / it completes commands
- Esc cancels the current stream; Ctrl+R retries the last reply
- Ctrl+P / Ctrl+X select a past user / assistant message (Enter edits, Del truncates)
- Ctrl+B selects code blocks (c copies, s saves)
- Ctrl+T opens $EDITOR; Ctrl+L clears the status line

**Commands**

/theme /provider /model /char /persona /preset — pickers (Enter applies, Alt+Enter persists)
/log [file] — start or pause logging · /dump [file] — snapshot the transcript
/markdown /syntax — toggle rendering · /compose — multi-line mode
/copy — copy last reply · /clear — reset conversation · /quit`

// executeCommand runs a parsed slash command line.
func (m *Model) executeCommand(line string) (tea.Model, tea.Cmd) {
	fields := strings.Fields(line)
	cmd := fields[0]
	arg := ""
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}

	switch cmd {
	case "/help":
		m.appendAppInfo(helpText)

	case "/quit":
		return m, tea.Quit

	case "/clear":
		m.ctl.Clear()
		m.relayout(false)
		m.setStatus("Conversation cleared")

	case "/compose":
		m.compose = !m.compose
		m.setStatus(fmt.Sprintf("Compose mode %s", onOff(m.compose)))

	case "/markdown":
		m.markdown = !m.markdown
		m.cache.Invalidate()
		m.relayout(false)
		m.setStatus(fmt.Sprintf("Markdown %s", onOff(m.markdown)))

	case "/syntax":
		m.syntax = !m.syntax
		m.cache.Invalidate()
		m.relayout(false)
		m.setStatus(fmt.Sprintf("Syntax highlighting %s", onOff(m.syntax)))

	case "/copy":
		idx := m.ctl.Transcript().LastIndexOfRole(message.RoleAssistant)
		if idx < 0 {
			m.setStatus("Nothing to copy")
			break
		}
		if err := clipboard.WriteAll(m.ctl.Transcript().At(idx).Content); err != nil {
			m.setStatus("Clipboard error: " + err.Error())
		} else {
			m.setStatus("Copied last reply")
		}

	case "/log":
		m.commandLog(arg)

	case "/dump":
		m.commandDump(arg)

	case "/theme":
		if arg != "" {
			if err := m.applyTheme(arg); err != nil {
				m.setStatus(err.Error())
			} else {
				m.relayout(false)
				m.setStatus("Theme: " + arg)
			}
			break
		}
		m.openThemePicker()

	case "/provider":
		if arg != "" {
			m.switchProvider(arg)
			break
		}
		m.openProviderPicker()

	case "/model":
		if arg != "" {
			m.applySession(m.creds, arg)
			m.setStatus("Model: " + arg)
			break
		}
		cmd := m.openModelPicker()
		return m, cmd

	case "/char":
		if arg != "" {
			if ch, ok := m.cfg.FindCharacter(arg); ok {
				m.character = &ch
				m.refreshScaffold()
				if ch.Greeting != "" {
					m.ctl.SeedGreeting(ch.Greeting)
					m.relayout(false)
				}
				m.setStatus("Character: " + ch.Name)
			} else {
				m.setStatus("Unknown character: " + arg)
			}
			break
		}
		m.openCharacterPicker()

	case "/persona":
		if arg != "" {
			if p, ok := m.cfg.FindPersona(arg); ok {
				m.setPersona(p)
				m.refreshScaffold()
				m.cache.Invalidate()
				m.relayout(false)
				m.setStatus("Persona: " + p.Name)
			} else {
				m.setStatus("Unknown persona: " + arg)
			}
			break
		}
		m.openPersonaPicker()

	case "/preset":
		if arg != "" {
			if p, ok := m.cfg.FindPreset(arg); ok {
				m.preset = &p
				m.refreshScaffold()
				m.setStatus("Preset: " + p.ID)
			} else {
				m.setStatus("Unknown preset: " + arg)
			}
			break
		}
		m.openPresetPicker()

	default:
		m.setStatus("Unknown command: " + cmd)
	}
	return m, nil
}

func (m *Model) commandLog(arg string) {
	sink := m.ctl.Sink()
	if arg != "" {
		status, err := sink.SetTarget(arg)
		if err != nil {
			m.setStatus("Log error: " + err.Error())
			return
		}
		m.setStatus(status)
		return
	}
	status, err := sink.Toggle()
	if err != nil {
		m.setStatus(err.Error())
		return
	}
	m.setStatus(status)
}

func (m *Model) commandDump(arg string) {
	path := arg
	if path == "" {
		path = logging.DefaultDumpName(time.Now())
	}
	if _, err := os.Stat(path); err == nil {
		m.prompt = &filePrompt{kind: "dump", name: path, overwrite: true}
		m.mode = modeFilePrompt
		return
	}
	if err := logging.WriteDump(path, m.ctl.Transcript().Messages(), m.userLabel(), true); err != nil {
		m.setStatus("Dump failed: " + err.Error())
		return
	}
	m.setStatus("Transcript dumped to " + path)
}

// appendAppInfo adds an informational message to the transcript.
func (m *Model) appendAppInfo(content string) {
	m.ctl.Transcript().Append(message.Message{Role: message.RoleAppInfo, Content: content})
	m.relayout(false)
	m.scroll.End()
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// completeCommand extends a leading-slash input to the unique matching
// command, or lists the candidates.
func (m *Model) completeCommand() {
	prefix := strings.TrimSpace(m.input.Value())
	var matches []string
	for _, c := range commandNames {
		if strings.HasPrefix(c, prefix) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		m.setStatus("No matching command")
	case 1:
		m.input.SetValue(matches[0] + " ")
	default:
		m.setStatus(strings.Join(matches, "  "))
	}
}

// ─── Pickers ────────────────────────────────────────────────────────────────────

func (m *Model) openPicker(p *Picker) {
	m.picker = p
	m.mode = modePicker
	m.focusInput = false
}

func (m *Model) openThemePicker() {
	items := make([]PickerItem, 0)
	for _, name := range m.themes.List() {
		t, err := m.themes.Get(name)
		if err != nil {
			continue
		}
		items = append(items, PickerItem{
			ID:      name,
			Display: name,
			Meta:    fmt.Sprintf("# %s\n\n%s\n\n- type: %s\n- syntax style: %s", name, t.Description, t.Type, t.SyntaxTheme),
		})
	}
	m.openPicker(NewPicker(PickTheme, "Theme", items, m.themes.Current().Name))
}

func (m *Model) openProviderPicker() {
	var items []PickerItem
	for _, d := range provider.Builtin() {
		items = append(items, PickerItem{
			ID:      d.ID,
			Display: d.DisplayName,
			Meta:    fmt.Sprintf("# %s\n\n- base URL: `%s`\n- key env: `%s`", d.DisplayName, d.BaseURL, d.KeyEnv),
		})
	}
	for _, p := range m.cfg.Providers {
		items = append(items, PickerItem{
			ID:      p.ID,
			Display: p.DisplayName,
			Meta:    fmt.Sprintf("# %s\n\n- base URL: `%s`\n- custom provider", p.DisplayName, p.BaseURL),
		})
	}
	m.openPicker(NewPicker(PickProvider, "Provider", items, m.creds.ProviderID))
}

// openModelPicker opens a loading picker and fetches the provider's model
// list in the background.
func (m *Model) openModelPicker() tea.Cmd {
	p := NewPicker(PickModel, "Model", nil, m.ctl.Session().Model)
	p.Loading = true
	m.openPicker(p)

	creds := m.creds
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		desc := provider.Custom(creds.ProviderID, creds.DisplayName, creds.BaseURL)
		desc.Headers = creds.Headers
		models, err := provider.ListModels(ctx, desc, creds.APIKey)
		if err != nil {
			return modelsLoadedMsg{provider: creds.ProviderID, err: err}
		}
		items := make([]PickerItem, 0, len(models))
		for _, mo := range models {
			meta := fmt.Sprintf("# %s\n\n- owned by: %s", mo.ID, orDash(mo.OwnedBy))
			if mo.Created > 0 {
				meta += "\n- created: " + time.Unix(mo.Created, 0).UTC().Format("2006-01-02")
			}
			items = append(items, PickerItem{ID: mo.ID, Display: mo.ID, Meta: meta})
		}
		return modelsLoadedMsg{provider: creds.ProviderID, items: items}
	}
}

func (m *Model) openCharacterPicker() {
	var items []PickerItem
	for _, ch := range m.cfg.Characters {
		items = append(items, PickerItem{
			ID:      ch.Name,
			Display: ch.Name,
			Meta:    fmt.Sprintf("# %s\n\n%s\n\n```\n%s\n```", ch.Name, ch.Description, ch.SystemPrompt),
		})
	}
	if len(items) == 0 {
		m.setStatus("No characters configured")
		return
	}
	current := ""
	if m.character != nil {
		current = m.character.Name
	}
	m.openPicker(NewPicker(PickCharacter, "Character", items, current))
}

func (m *Model) openPersonaPicker() {
	var items []PickerItem
	for _, p := range m.cfg.Personas {
		items = append(items, PickerItem{
			ID:      p.ID,
			Display: p.Name,
			Meta:    fmt.Sprintf("# %s\n\n%s", p.Name, p.Bio),
		})
	}
	if len(items) == 0 {
		m.setStatus("No personas configured")
		return
	}
	current := ""
	if m.persona != nil {
		current = m.persona.ID
	}
	m.openPicker(NewPicker(PickPersona, "Persona", items, current))
}

func (m *Model) openPresetPicker() {
	var items []PickerItem
	for _, p := range m.cfg.Presets {
		items = append(items, PickerItem{
			ID:      p.ID,
			Display: p.ID,
			Meta:    fmt.Sprintf("# %s\n\n**pre**\n\n%s\n\n**post**\n\n%s", p.ID, orDash(p.Pre), orDash(p.Post)),
		})
	}
	if len(items) == 0 {
		m.setStatus("No presets configured")
		return
	}
	current := ""
	if m.preset != nil {
		current = m.preset.ID
	}
	m.openPicker(NewPicker(PickPreset, "Preset", items, current))
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}

// applyPicker applies the selected item for the session and, when persist
// is set, writes it to the config file as well. Persistence failures keep
// the session value and surface on the status line.
func (m *Model) applyPicker(persist bool) (tea.Model, tea.Cmd) {
	p := m.picker
	if p == nil {
		return m, nil
	}
	item, ok := p.SelectedItem()
	if !ok {
		return m, nil
	}

	var mutate func(*config.Config) error

	switch p.Kind {
	case PickTheme:
		if err := m.applyTheme(item.ID); err != nil {
			m.setStatus(err.Error())
			return m, nil
		}
		m.relayout(false)
		m.setStatus("Theme: " + item.ID)
		mutate = func(c *config.Config) error { c.Theme = item.ID; return nil }

	case PickProvider:
		if !m.switchProvider(item.ID) {
			return m, nil
		}
		mutate = func(c *config.Config) error { c.DefaultProvider = item.ID; return nil }

	case PickModel:
		m.applySession(m.creds, item.ID)
		m.setStatus("Model: " + item.ID)
		providerID := m.creds.ProviderID
		mutate = func(c *config.Config) error { c.SetDefaultModel(providerID, item.ID); return nil }

	case PickCharacter:
		if ch, ok := m.cfg.FindCharacter(item.ID); ok {
			m.character = &ch
			m.refreshScaffold()
			if ch.Greeting != "" {
				m.ctl.SeedGreeting(ch.Greeting)
				m.relayout(false)
			}
			m.setStatus("Character: " + ch.Name)
			providerID := m.creds.ProviderID
			mutate = func(c *config.Config) error {
				if c.DefaultCharacters == nil {
					c.DefaultCharacters = map[string]string{}
				}
				c.DefaultCharacters[providerID] = item.ID
				return nil
			}
		}

	case PickPersona:
		if p, ok := m.cfg.FindPersona(item.ID); ok {
			m.setPersona(p)
			m.refreshScaffold()
			m.cache.Invalidate()
			m.relayout(false)
			m.setStatus("Persona: " + p.Name)
			mutate = func(c *config.Config) error { c.DefaultPersona = item.ID; return nil }
		}

	case PickPreset:
		if p, ok := m.cfg.FindPreset(item.ID); ok {
			m.preset = &p
			m.refreshScaffold()
			m.setStatus("Preset: " + p.ID)
			mutate = func(c *config.Config) error { c.DefaultPreset = item.ID; return nil }
		}
	}

	if persist && mutate != nil {
		if err := config.Mutate(mutate); err != nil {
			m.setStatus("config write failed: " + err.Error())
		}
	}

	m.closePicker()
	return m, nil
}

// switchProvider re-resolves credentials for a provider and rebinds the
// session. The in-flight stream is cancelled; nothing auto-resends.
func (m *Model) switchProvider(id string) bool {
	creds, err := auth.Resolve(m.cfg, auth.Options{Provider: id})
	if err != nil {
		m.setStatus("Provider switch failed: " + err.Error())
		return false
	}
	model := m.cfg.DefaultModelFor(creds.ProviderID)
	m.applySession(creds, model)
	m.setStatus(fmt.Sprintf("Provider: %s", creds.DisplayName))
	return true
}

// ─── File prompt completion ─────────────────────────────────────────────────────

func defaultBlockName(lang string) string {
	return logging.DefaultBlockName(time.Now(), lang)
}

// finishFilePrompt writes the pending file, asking before overwriting.
func (m *Model) finishFilePrompt(force bool) {
	p := m.prompt
	if p == nil {
		return
	}
	if !force {
		if _, err := os.Stat(p.name); err == nil {
			p.overwrite = true
			return
		}
	}

	var err error
	switch p.kind {
	case "block":
		err = logging.SaveBlock(p.name, p.payload)
	case "dump":
		err = logging.WriteDump(p.name, m.ctl.Transcript().Messages(), m.userLabel(), true)
	}
	if err != nil {
		m.setStatus("Save failed: " + err.Error())
	} else {
		m.setStatus("Saved " + p.name)
	}
	m.prompt = nil
	m.mode = modeNormal
	m.focusInput = true
}
