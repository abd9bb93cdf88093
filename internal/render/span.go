package render

import "github.com/charmbracelet/lipgloss"

// SpanType classifies a styled run of text so selection, navigation and
// hyperlink emission can route on semantics without re-rendering.
type SpanType int

const (
	SpanText SpanType = iota
	SpanUserPrefix
	SpanAppPrefix
	SpanLink
	SpanCodeBlock
)

// SpanKind is the semantic tag carried by every span. URL is set for
// SpanLink; Lang and Block for SpanCodeBlock. Block is the transcript-wide
// global code block index assigned by LayoutMessages (and renumbered by
// PrewrapCache.SpliceLast).
type SpanKind struct {
	Type  SpanType
	URL   string
	Lang  string
	Block int
}

// TextKind is the zero-value kind shared by plain spans.
var TextKind = SpanKind{Type: SpanText}

// LinkKind tags a span as a hyperlink to url.
func LinkKind(url string) SpanKind {
	return SpanKind{Type: SpanLink, URL: url}
}

// CodeKind tags a span as belonging to fenced code block number block
// (per-message index at render time; made global at layout time).
func CodeKind(lang string, block int) SpanKind {
	return SpanKind{Type: SpanCodeBlock, Lang: lang, Block: block}
}

// Span is a styled run of text within a line.
type Span struct {
	Text  string
	Style lipgloss.Style
	Kind  SpanKind
}

// Line is one display (or pre-wrap) line of spans.
type Line struct {
	Spans []Span

	// Table marks lines that belong to a table, enabling horizontal
	// column shifting in the viewport.
	Table bool
}

// Text returns the concatenated unstyled text of the line.
func (l Line) Text() string {
	var out string
	for _, s := range l.Spans {
		out += s.Text
	}
	return out
}

// Kinds returns the span kinds of the line, parallel to Spans.
func (l Line) Kinds() []SpanKind {
	kinds := make([]SpanKind, len(l.Spans))
	for i, s := range l.Spans {
		kinds[i] = s.Kind
	}
	return kinds
}

// BlockInfo records a fenced code block's raw content for copy/save.
// Content is the exact text between the fences, without the fences and
// without a trailing newline unless the source had one.
type BlockInfo struct {
	Lang    string
	Content string
}

// RenderedMessage is the pre-wrap render of one message: logical lines
// (not yet width-wrapped) plus the code blocks it contains, indexed
// per-message from zero.
type RenderedMessage struct {
	Lines  []Line
	Blocks []BlockInfo
}

// SpanMeta returns the per-line span kinds, index-parallel to lines and to
// each line's spans.
func SpanMeta(lines []Line) [][]SpanKind {
	meta := make([][]SpanKind, len(lines))
	for i, l := range lines {
		meta[i] = l.Kinds()
	}
	return meta
}
