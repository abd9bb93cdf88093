package render

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
)

// highlightLines tokenises code with chroma and returns per-line spans
// styled from the named chroma style over the theme's code background.
// Returns nil when no lexer matches so the caller can fall back to the
// unhighlighted path.
func highlightLines(code, lang, styleName string, bg lipgloss.Color) [][]Span {
	lexer := lexers.Get(lang)
	if lexer == nil && lang != "" {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		return nil
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get(styleName)
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return nil
	}

	var out [][]Span
	var cur []Span
	for _, tok := range iterator.Tokens() {
		entry := style.Get(tok.Type)
		ls := lipgloss.NewStyle().Background(bg)
		if entry.Colour.IsSet() {
			ls = ls.Foreground(lipgloss.Color(entry.Colour.String()))
		}
		if entry.Bold == chroma.Yes {
			ls = ls.Bold(true)
		}
		if entry.Italic == chroma.Yes {
			ls = ls.Italic(true)
		}

		parts := strings.Split(tok.Value, "\n")
		for i, part := range parts {
			if i > 0 {
				out = append(out, cur)
				cur = nil
			}
			if part != "" {
				cur = append(cur, Span{Text: part, Style: ls})
			}
		}
	}
	out = append(out, cur)

	// Tokenising appends a line for the trailing newline chroma adds;
	// drop it when the source had none.
	if !strings.HasSuffix(code, "\n") && len(out) > 0 && len(out[len(out)-1]) == 0 {
		out = out[:len(out)-1]
	}
	for i, line := range out {
		if line == nil {
			out[i] = []Span{}
		}
	}
	return out
}
