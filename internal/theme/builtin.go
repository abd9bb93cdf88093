package theme

import "github.com/charmbracelet/lipgloss"

// ─── Dark themes ────────────────────────────────────────────────────────────────

// Dark returns the default dark theme.
func Dark() *Theme {
	return &Theme{
		Name:        "dark",
		Description: "Default dark theme",
		Type:        "dark",

		Primary:   lipgloss.Color("#CBA6F7"),
		Secondary: lipgloss.Color("#89B4FA"),
		Accent:    lipgloss.Color("#F5C2E7"),
		Success:   lipgloss.Color("#A6E3A1"),
		Warning:   lipgloss.Color("#F9E2AF"),
		Error:     lipgloss.Color("#F38BA8"),
		Info:      lipgloss.Color("#89DCEB"),

		Text:      lipgloss.Color("#CDD6F4"),
		TextMuted: lipgloss.Color("#A6ADC8"),
		TextDim:   lipgloss.Color("#6C7086"),

		Background:      lipgloss.Color("#1E1E2E"),
		Surface:         lipgloss.Color("#313244"),
		Border:          lipgloss.Color("#6C7086"),
		BorderHighlight: lipgloss.Color("#CBA6F7"),
		Selection:       lipgloss.Color("#45475A"),

		User:      lipgloss.Color("#89B4FA"),
		Assistant: lipgloss.Color("#CDD6F4"),

		Heading: lipgloss.Color("#CBA6F7"),
		Link:    lipgloss.Color("#89B4FA"),
		CodeFg:  lipgloss.Color("#A6E3A1"),
		CodeBg:  lipgloss.Color("#313244"),
		Quote:   lipgloss.Color("#A6ADC8"),

		CursorColor:   "#CBA6F7",
		SyntaxTheme:   "monokai",
		MarkdownTheme: "dark",
	}
}

// Dracula returns the Dracula theme.
func Dracula() *Theme {
	return &Theme{
		Name:        "dracula",
		Description: "Dark theme with vibrant colors",
		Type:        "dark",

		Primary:   lipgloss.Color("#BD93F9"),
		Secondary: lipgloss.Color("#8BE9FD"),
		Accent:    lipgloss.Color("#FF79C6"),
		Success:   lipgloss.Color("#50FA7B"),
		Warning:   lipgloss.Color("#F1FA8C"),
		Error:     lipgloss.Color("#FF5555"),
		Info:      lipgloss.Color("#8BE9FD"),

		Text:      lipgloss.Color("#F8F8F2"),
		TextMuted: lipgloss.Color("#6272A4"),
		TextDim:   lipgloss.Color("#44475A"),

		Background:      lipgloss.Color("#282A36"),
		Surface:         lipgloss.Color("#44475A"),
		Border:          lipgloss.Color("#6272A4"),
		BorderHighlight: lipgloss.Color("#BD93F9"),
		Selection:       lipgloss.Color("#44475A"),

		User:      lipgloss.Color("#8BE9FD"),
		Assistant: lipgloss.Color("#F8F8F2"),

		Heading: lipgloss.Color("#BD93F9"),
		Link:    lipgloss.Color("#8BE9FD"),
		CodeFg:  lipgloss.Color("#50FA7B"),
		CodeBg:  lipgloss.Color("#44475A"),
		Quote:   lipgloss.Color("#6272A4"),

		CursorColor:   "#BD93F9",
		SyntaxTheme:   "dracula",
		MarkdownTheme: "dracula",
	}
}

// Nord returns the Nord theme.
func Nord() *Theme {
	return &Theme{
		Name:        "nord",
		Description: "Arctic, north-bluish palette",
		Type:        "dark",

		Primary:   lipgloss.Color("#88C0D0"),
		Secondary: lipgloss.Color("#81A1C1"),
		Accent:    lipgloss.Color("#B48EAD"),
		Success:   lipgloss.Color("#A3BE8C"),
		Warning:   lipgloss.Color("#EBCB8B"),
		Error:     lipgloss.Color("#BF616A"),
		Info:      lipgloss.Color("#88C0D0"),

		Text:      lipgloss.Color("#ECEFF4"),
		TextMuted: lipgloss.Color("#D8DEE9"),
		TextDim:   lipgloss.Color("#4C566A"),

		Background:      lipgloss.Color("#2E3440"),
		Surface:         lipgloss.Color("#3B4252"),
		Border:          lipgloss.Color("#4C566A"),
		BorderHighlight: lipgloss.Color("#88C0D0"),
		Selection:       lipgloss.Color("#434C5E"),

		User:      lipgloss.Color("#81A1C1"),
		Assistant: lipgloss.Color("#ECEFF4"),

		Heading: lipgloss.Color("#88C0D0"),
		Link:    lipgloss.Color("#81A1C1"),
		CodeFg:  lipgloss.Color("#A3BE8C"),
		CodeBg:  lipgloss.Color("#3B4252"),
		Quote:   lipgloss.Color("#D8DEE9"),

		CursorColor:   "#88C0D0",
		SyntaxTheme:   "nord",
		MarkdownTheme: "dark",
	}
}

// Gruvbox returns the Gruvbox dark theme.
func Gruvbox() *Theme {
	return &Theme{
		Name:        "gruvbox",
		Description: "Retro groove (dark)",
		Type:        "dark",

		Primary:   lipgloss.Color("#D3869B"),
		Secondary: lipgloss.Color("#83A598"),
		Accent:    lipgloss.Color("#FE8019"),
		Success:   lipgloss.Color("#B8BB26"),
		Warning:   lipgloss.Color("#FABD2F"),
		Error:     lipgloss.Color("#FB4934"),
		Info:      lipgloss.Color("#8EC07C"),

		Text:      lipgloss.Color("#EBDBB2"),
		TextMuted: lipgloss.Color("#BDAE93"),
		TextDim:   lipgloss.Color("#665C54"),

		Background:      lipgloss.Color("#282828"),
		Surface:         lipgloss.Color("#3C3836"),
		Border:          lipgloss.Color("#665C54"),
		BorderHighlight: lipgloss.Color("#D3869B"),
		Selection:       lipgloss.Color("#504945"),

		User:      lipgloss.Color("#83A598"),
		Assistant: lipgloss.Color("#EBDBB2"),

		Heading: lipgloss.Color("#FABD2F"),
		Link:    lipgloss.Color("#83A598"),
		CodeFg:  lipgloss.Color("#B8BB26"),
		CodeBg:  lipgloss.Color("#3C3836"),
		Quote:   lipgloss.Color("#BDAE93"),

		CursorColor:   "#FE8019",
		SyntaxTheme:   "gruvbox",
		MarkdownTheme: "dark",
	}
}

// SolarizedDark returns the Solarized Dark theme.
func SolarizedDark() *Theme {
	return &Theme{
		Name:        "solarized-dark",
		Description: "Precision colors (dark)",
		Type:        "dark",

		Primary:   lipgloss.Color("#268BD2"),
		Secondary: lipgloss.Color("#2AA198"),
		Accent:    lipgloss.Color("#D33682"),
		Success:   lipgloss.Color("#859900"),
		Warning:   lipgloss.Color("#B58900"),
		Error:     lipgloss.Color("#DC322F"),
		Info:      lipgloss.Color("#2AA198"),

		Text:      lipgloss.Color("#839496"),
		TextMuted: lipgloss.Color("#586E75"),
		TextDim:   lipgloss.Color("#073642"),

		Background:      lipgloss.Color("#002B36"),
		Surface:         lipgloss.Color("#073642"),
		Border:          lipgloss.Color("#586E75"),
		BorderHighlight: lipgloss.Color("#268BD2"),
		Selection:       lipgloss.Color("#073642"),

		User:      lipgloss.Color("#268BD2"),
		Assistant: lipgloss.Color("#839496"),

		Heading: lipgloss.Color("#B58900"),
		Link:    lipgloss.Color("#268BD2"),
		CodeFg:  lipgloss.Color("#859900"),
		CodeBg:  lipgloss.Color("#073642"),
		Quote:   lipgloss.Color("#586E75"),

		CursorColor:   "#268BD2",
		SyntaxTheme:   "solarized-dark",
		MarkdownTheme: "dark",
	}
}

// ─── Light themes ───────────────────────────────────────────────────────────────

// Light returns the default light theme.
func Light() *Theme {
	return &Theme{
		Name:        "light",
		Description: "Default light theme",
		Type:        "light",

		Primary:   lipgloss.Color("#8839EF"),
		Secondary: lipgloss.Color("#1E66F5"),
		Accent:    lipgloss.Color("#EA76CB"),
		Success:   lipgloss.Color("#40A02B"),
		Warning:   lipgloss.Color("#DF8E1D"),
		Error:     lipgloss.Color("#D20F39"),
		Info:      lipgloss.Color("#04A5E5"),

		Text:      lipgloss.Color("#4C4F69"),
		TextMuted: lipgloss.Color("#6C6F85"),
		TextDim:   lipgloss.Color("#9CA0B0"),

		Background:      lipgloss.Color("#EFF1F5"),
		Surface:         lipgloss.Color("#E6E9EF"),
		Border:          lipgloss.Color("#9CA0B0"),
		BorderHighlight: lipgloss.Color("#8839EF"),
		Selection:       lipgloss.Color("#CCD0DA"),

		User:      lipgloss.Color("#1E66F5"),
		Assistant: lipgloss.Color("#4C4F69"),

		Heading: lipgloss.Color("#8839EF"),
		Link:    lipgloss.Color("#1E66F5"),
		CodeFg:  lipgloss.Color("#40A02B"),
		CodeBg:  lipgloss.Color("#E6E9EF"),
		Quote:   lipgloss.Color("#6C6F85"),

		CursorColor:   "#8839EF",
		SyntaxTheme:   "github",
		MarkdownTheme: "light",
	}
}

// SolarizedLight returns the Solarized Light theme.
func SolarizedLight() *Theme {
	return &Theme{
		Name:        "solarized-light",
		Description: "Precision colors (light)",
		Type:        "light",

		Primary:   lipgloss.Color("#268BD2"),
		Secondary: lipgloss.Color("#2AA198"),
		Accent:    lipgloss.Color("#D33682"),
		Success:   lipgloss.Color("#859900"),
		Warning:   lipgloss.Color("#B58900"),
		Error:     lipgloss.Color("#DC322F"),
		Info:      lipgloss.Color("#2AA198"),

		Text:      lipgloss.Color("#657B83"),
		TextMuted: lipgloss.Color("#93A1A1"),
		TextDim:   lipgloss.Color("#EEE8D5"),

		Background:      lipgloss.Color("#FDF6E3"),
		Surface:         lipgloss.Color("#EEE8D5"),
		Border:          lipgloss.Color("#93A1A1"),
		BorderHighlight: lipgloss.Color("#268BD2"),
		Selection:       lipgloss.Color("#EEE8D5"),

		User:      lipgloss.Color("#268BD2"),
		Assistant: lipgloss.Color("#657B83"),

		Heading: lipgloss.Color("#B58900"),
		Link:    lipgloss.Color("#268BD2"),
		CodeFg:  lipgloss.Color("#859900"),
		CodeBg:  lipgloss.Color("#EEE8D5"),
		Quote:   lipgloss.Color("#93A1A1"),

		CursorColor:   "#268BD2",
		SyntaxTheme:   "solarized-light",
		MarkdownTheme: "light",
	}
}

func builtinThemes() []*Theme {
	return []*Theme{
		Dark(),
		Dracula(),
		Nord(),
		Gruvbox(),
		SolarizedDark(),
		Light(),
		SolarizedLight(),
	}
}
