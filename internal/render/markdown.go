package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/permacommons/chabeau/internal/message"
	"github.com/permacommons/chabeau/internal/theme"
)

// Flags controls how messages are rendered.
type Flags struct {
	// Markdown enables CommonMark+GFM rendering; when false, content is
	// emitted as plain text lines.
	Markdown bool
	// Syntax enables chroma highlighting inside code fences.
	Syntax bool
	// UserLabel is the display name prefixed to user messages ("You" or
	// the active persona's name).
	UserLabel string
}

// Renderer turns messages into styled span lines tagged with semantic
// kinds. It does no width wrapping; see LayoutMessage.
type Renderer struct {
	theme *theme.Theme
	md    goldmark.Markdown
}

// NewRenderer creates a renderer for the given theme.
func NewRenderer(t *theme.Theme) *Renderer {
	return &Renderer{
		theme: t,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
		),
	}
}

// Theme returns the renderer's theme.
func (r *Renderer) Theme() *theme.Theme { return r.theme }

// SetTheme swaps the theme used for styling.
func (r *Renderer) SetTheme(t *theme.Theme) { r.theme = t }

// RenderMessage renders one message into pre-wrap lines. Code blocks are
// indexed per-message from zero; LayoutMessages renumbers them globally.
func (r *Renderer) RenderMessage(msg message.Message, flags Flags) RenderedMessage {
	b := &builder{theme: r.theme, flags: flags}

	switch msg.Role {
	case message.RoleUser:
		label := flags.UserLabel
		if label == "" {
			label = "You"
		}
		b.prefix = Span{
			Text:  label + ": ",
			Style: lipgloss.NewStyle().Foreground(r.theme.User).Bold(true),
			Kind:  SpanKind{Type: SpanUserPrefix},
		}
	case message.RoleAppInfo:
		b.prefix = appPrefix("∙ ", r.theme.Info)
	case message.RoleAppWarning:
		b.prefix = appPrefix("⚠ ", r.theme.Warning)
	case message.RoleAppError:
		b.prefix = appPrefix("✗ ", r.theme.Error)
	}

	if !flags.Markdown || msg.Role == message.RoleSystem {
		b.renderPlain(msg.Content)
		return RenderedMessage{Lines: b.lines, Blocks: b.blocks}
	}

	source := []byte(msg.Content)
	doc := r.md.Parser().Parse(text.NewReader(source))
	b.source = source
	b.renderBlocks(doc)
	if len(b.lines) == 0 {
		// A message always yields at least one (possibly empty) line.
		b.lines = append(b.lines, b.startLine())
	}
	return RenderedMessage{Lines: b.lines, Blocks: b.blocks}
}

func appPrefix(marker string, c lipgloss.Color) Span {
	return Span{
		Text:  marker,
		Style: lipgloss.NewStyle().Foreground(c).Bold(true),
		Kind:  SpanKind{Type: SpanAppPrefix},
	}
}

// ---------------------------------------------------------------------------
// builder
// ---------------------------------------------------------------------------

type builder struct {
	theme  *theme.Theme
	flags  Flags
	source []byte

	lines  []Line
	blocks []BlockInfo

	// prefix is emitted on the first line only.
	prefix     Span
	prefixDone bool

	listDepth  int
	quoteDepth int
}

// startLine opens a new line, carrying the message prefix on the first one
// and quote/list indentation on the rest.
func (b *builder) startLine() Line {
	var spans []Span
	if b.prefix.Text != "" && !b.prefixDone {
		spans = append(spans, b.prefix)
		b.prefixDone = true
	}
	if b.quoteDepth > 0 {
		spans = append(spans, Span{
			Text:  strings.Repeat("┃ ", b.quoteDepth),
			Style: lipgloss.NewStyle().Foreground(b.theme.Quote),
			Kind:  TextKind,
		})
	}
	return Line{Spans: spans}
}

func (b *builder) push(l Line) {
	b.lines = append(b.lines, l)
}

func (b *builder) blankLine() {
	b.push(b.startLine())
}

func (b *builder) renderPlain(content string) {
	for _, raw := range strings.Split(content, "\n") {
		l := b.startLine()
		l.Spans = append(l.Spans, Span{
			Text:  raw,
			Style: b.baseStyle(),
			Kind:  TextKind,
		})
		b.push(l)
	}
	if len(b.lines) == 0 {
		b.push(b.startLine())
	}
}

func (b *builder) baseStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(b.theme.Text)
}

// ---------------------------------------------------------------------------
// block-level walking
// ---------------------------------------------------------------------------

func (b *builder) renderBlocks(parent ast.Node) {
	first := true
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if !first && b.listDepth == 0 {
			b.blankLine()
		}
		b.renderBlock(n)
		first = false
	}
}

func (b *builder) renderBlock(n ast.Node) {
	switch node := n.(type) {
	case *ast.Heading:
		b.renderHeading(node)
	case *ast.Paragraph:
		b.renderParagraphLike(node)
	case *ast.TextBlock:
		b.renderParagraphLike(node)
	case *ast.FencedCodeBlock:
		b.renderFence(node)
	case *ast.CodeBlock:
		b.renderIndentedCode(node)
	case *ast.Blockquote:
		b.renderBlockquote(node)
	case *ast.List:
		b.renderList(node)
	case *ast.ThematicBreak:
		l := b.startLine()
		l.Spans = append(l.Spans, Span{
			Text:  strings.Repeat("─", 40),
			Style: lipgloss.NewStyle().Foreground(b.theme.TextDim),
			Kind:  TextKind,
		})
		b.push(l)
	case *ast.HTMLBlock:
		b.renderRawBlockLines(node.Lines())
	case *extast.Table:
		b.renderTable(node)
	default:
		// Unknown block: fall back to its source lines if any.
		if node.Type() == ast.TypeBlock {
			b.renderRawBlockLines(node.Lines())
		}
	}
}

func (b *builder) renderHeading(n *ast.Heading) {
	l := b.startLine()
	style := lipgloss.NewStyle().Foreground(b.theme.Heading).Bold(true)
	l.Spans = append(l.Spans, Span{
		Text:  strings.Repeat("#", n.Level) + " ",
		Style: style,
		Kind:  TextKind,
	})
	spans := b.renderInlines(n, style, TextKind)
	l.Spans = append(l.Spans, spans...)
	b.push(l)
}

// renderParagraphLike renders a paragraph or text block, honoring soft and
// hard line breaks as new display lines.
func (b *builder) renderParagraphLike(n ast.Node) {
	spans := b.renderInlines(n, b.baseStyle(), TextKind)
	b.pushInlineSpans(spans)
}

// pushInlineSpans splits an inline span run on embedded newlines into lines.
func (b *builder) pushInlineSpans(spans []Span) {
	l := b.startLine()
	for _, s := range spans {
		for {
			i := strings.IndexByte(s.Text, '\n')
			if i < 0 {
				break
			}
			head := s
			head.Text = s.Text[:i]
			if head.Text != "" {
				l.Spans = append(l.Spans, head)
			}
			b.push(l)
			l = b.startLine()
			s.Text = s.Text[i+1:]
		}
		if s.Text != "" {
			l.Spans = append(l.Spans, s)
		}
	}
	b.push(l)
}

func (b *builder) renderRawBlockLines(lines *text.Segments) {
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		l := b.startLine()
		l.Spans = append(l.Spans, Span{
			Text:  strings.TrimRight(string(seg.Value(b.source)), "\n"),
			Style: lipgloss.NewStyle().Foreground(b.theme.TextMuted),
			Kind:  TextKind,
		})
		b.push(l)
	}
}

// ---------------------------------------------------------------------------
// code fences
// ---------------------------------------------------------------------------

func (b *builder) renderFence(n *ast.FencedCodeBlock) {
	lang := string(n.Language(b.source))
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.source))
	}
	content := buf.String()
	// The newline ending the last code line is dropped from the stored
	// copy/save text, and display uses the same text, so the fence doesn't
	// render an empty line; any further trailing newlines are kept.
	stored := strings.TrimSuffix(content, "\n")

	index := len(b.blocks)
	b.blocks = append(b.blocks, BlockInfo{Lang: lang, Content: stored})
	kind := CodeKind(lang, index)

	codeLines := b.highlightFence(stored, lang)
	if len(codeLines) == 0 {
		// Empty fences still get one selectable line so block navigation
		// has something to land on.
		codeLines = [][]Span{{{Text: "", Style: b.codeStyle(), Kind: kind}}}
	}
	for _, spans := range codeLines {
		l := b.startLine()
		for _, s := range spans {
			s.Kind = kind
			l.Spans = append(l.Spans, s)
		}
		b.push(l)
	}
}

func (b *builder) renderIndentedCode(n *ast.CodeBlock) {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(b.source))
	}
	stored := strings.TrimSuffix(buf.String(), "\n")
	index := len(b.blocks)
	b.blocks = append(b.blocks, BlockInfo{Content: stored})
	kind := CodeKind("", index)
	for _, raw := range strings.Split(stored, "\n") {
		l := b.startLine()
		l.Spans = append(l.Spans, Span{Text: raw, Style: b.codeStyle(), Kind: kind})
		b.push(l)
	}
}

func (b *builder) codeStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(b.theme.CodeFg).Background(b.theme.CodeBg)
}

// highlightFence returns per-line spans for fence content, chroma-highlighted
// when syntax highlighting is on and a lexer matches.
func (b *builder) highlightFence(code, lang string) [][]Span {
	if code == "" {
		return nil
	}
	if b.flags.Syntax {
		if out := highlightLines(code, lang, b.theme.SyntaxTheme, b.theme.CodeBg); out != nil {
			return out
		}
	}
	var out [][]Span
	for _, raw := range strings.Split(code, "\n") {
		out = append(out, []Span{{Text: raw, Style: b.codeStyle()}})
	}
	return out
}

// ---------------------------------------------------------------------------
// quotes, lists, tables
// ---------------------------------------------------------------------------

var calloutMarkers = map[string]string{
	"[!NOTE]":      "Note",
	"[!TIP]":       "Tip",
	"[!IMPORTANT]": "Important",
	"[!WARNING]":   "Warning",
	"[!CAUTION]":   "Caution",
}

func (b *builder) renderBlockquote(n *ast.Blockquote) {
	// GitHub callouts: a quote whose first line is a [!KIND] marker.
	marker, label, isCallout := b.calloutLabel(n)

	b.quoteDepth++
	if isCallout {
		l := b.startLine()
		c := b.theme.Info
		if label == "Warning" || label == "Caution" {
			c = b.theme.Error
		}
		l.Spans = append(l.Spans, Span{
			Text:  label,
			Style: lipgloss.NewStyle().Foreground(c).Bold(true),
			Kind:  TextKind,
		})
		b.push(l)
	}
	start := len(b.lines)
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		b.renderBlock(child)
	}
	if isCallout {
		// Drop the marker line itself; the label replaced it.
		kept := b.lines[:start]
		for _, l := range b.lines[start:] {
			if strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(l.Text()), "┃")) == marker {
				continue
			}
			kept = append(kept, l)
		}
		b.lines = kept
	}
	b.quoteDepth--
}

// calloutLabel inspects the first paragraph of a quote for a callout marker.
func (b *builder) calloutLabel(n *ast.Blockquote) (marker, label string, ok bool) {
	p, isPara := n.FirstChild().(*ast.Paragraph)
	if !isPara || p.Lines().Len() == 0 {
		return "", "", false
	}
	firstLine := p.Lines().At(0)
	marker = strings.TrimSpace(string(firstLine.Value(b.source)))
	label, ok = calloutMarkers[marker]
	return marker, label, ok
}

func (b *builder) renderList(n *ast.List) {
	b.listDepth++
	defer func() { b.listDepth-- }()

	num := n.Start
	if num == 0 {
		num = 1
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		li, ok := item.(*ast.ListItem)
		if !ok {
			continue
		}
		// Source-preserving spacing: a blank line in the source before an
		// item becomes a blank display line before it.
		if b.itemPrecededByBlank(li) {
			b.blankLine()
		}

		marker := "• "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		indent := strings.Repeat("  ", b.listDepth-1)

		markerSpan := Span{
			Text:  indent + marker,
			Style: lipgloss.NewStyle().Foreground(b.theme.Secondary),
			Kind:  TextKind,
		}

		start := len(b.lines)
		for child := li.FirstChild(); child != nil; child = child.NextSibling() {
			b.renderBlock(child)
		}
		if len(b.lines) == start {
			b.blankLine()
		}
		// Splice the marker onto the item's first line and indent the rest.
		b.lines[start].Spans = append([]Span{markerSpan}, b.lines[start].Spans...)
		pad := strings.Repeat(" ", spanWidth(indent+marker))
		for i := start + 1; i < len(b.lines); i++ {
			if len(b.lines[i].Spans) == 0 {
				continue
			}
			b.lines[i].Spans = append([]Span{{Text: pad, Kind: TextKind}}, b.lines[i].Spans...)
		}
	}
}

// itemPrecededByBlank reports whether the source line before the list
// item's first line is blank. Read from the raw source, not from AST
// tightness, so it survives nested structures. Each call scans the source
// backwards from the item's first line; no set of such items is built in
// advance.
func (b *builder) itemPrecededByBlank(li *ast.ListItem) bool {
	off := -1
	for child := li.FirstChild(); child != nil; child = child.NextSibling() {
		if lines := child.Lines(); lines != nil && lines.Len() > 0 {
			off = lines.At(0).Start
			break
		}
	}
	if off <= 0 || off > len(b.source) {
		return false
	}
	i := off
	for i > 0 && b.source[i-1] != '\n' {
		i--
	}
	if i == 0 {
		return false
	}
	j := i - 1
	k := j
	for k > 0 && b.source[k-1] != '\n' {
		k--
	}
	return len(bytes.TrimSpace(b.source[k:j])) == 0
}

func (b *builder) renderTable(n *extast.Table) {
	type cell struct {
		spans []Span
		width int
	}
	var rows [][]cell
	headerRows := 0

	collectRow := func(row ast.Node) {
		var cells []cell
		for c := row.FirstChild(); c != nil; c = c.NextSibling() {
			spans := b.renderInlines(c, b.baseStyle(), TextKind)
			w := 0
			for _, s := range spans {
				w += spanWidth(s.Text)
			}
			cells = append(cells, cell{spans: spans, width: w})
		}
		rows = append(rows, cells)
	}

	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch row := child.(type) {
		case *extast.TableHeader:
			collectRow(row)
			headerRows = len(rows)
		case *extast.TableRow:
			collectRow(row)
		}
	}

	// Column widths from the widest cell.
	var widths []int
	for _, row := range rows {
		for i, c := range row {
			if i >= len(widths) {
				widths = append(widths, 0)
			}
			if c.width > widths[i] {
				widths[i] = c.width
			}
		}
	}

	sep := Span{
		Text:  "│ ",
		Style: lipgloss.NewStyle().Foreground(b.theme.Border),
		Kind:  TextKind,
	}

	for ri, row := range rows {
		l := b.startLine()
		l.Table = true
		for ci, c := range row {
			if ci > 0 {
				l.Spans = append(l.Spans, sep)
			}
			spans := c.spans
			if ri < headerRows {
				for i := range spans {
					spans[i].Style = spans[i].Style.Bold(true).Foreground(b.theme.Heading)
				}
			}
			l.Spans = append(l.Spans, spans...)
			if pad := widths[ci] - c.width; pad > 0 {
				l.Spans = append(l.Spans, Span{Text: strings.Repeat(" ", pad+1), Kind: TextKind})
			} else {
				l.Spans = append(l.Spans, Span{Text: " ", Kind: TextKind})
			}
		}
		b.push(l)
		if ri == headerRows-1 {
			total := 0
			for _, w := range widths {
				total += w + 3
			}
			hr := b.startLine()
			hr.Table = true
			hr.Spans = append(hr.Spans, Span{
				Text:  strings.Repeat("─", total),
				Style: lipgloss.NewStyle().Foreground(b.theme.Border),
				Kind:  TextKind,
			})
			b.push(hr)
		}
	}
}

// ---------------------------------------------------------------------------
// inline walking
// ---------------------------------------------------------------------------

// renderInlines walks the inline children of n, producing spans. Newlines in
// span text mark soft/hard breaks and are split by the caller.
func (b *builder) renderInlines(n ast.Node, style lipgloss.Style, kind SpanKind) []Span {
	var out []Span
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		out = append(out, b.renderInline(child, style, kind)...)
	}
	return out
}

func (b *builder) renderInline(n ast.Node, style lipgloss.Style, kind SpanKind) []Span {
	switch node := n.(type) {
	case *ast.Text:
		txt := string(node.Segment.Value(b.source))
		spans := b.splitSubSup(txt, style, kind)
		if node.SoftLineBreak() || node.HardLineBreak() {
			spans = append(spans, Span{Text: "\n", Style: style, Kind: kind})
		}
		return spans
	case *ast.String:
		return []Span{{Text: string(node.Value), Style: style, Kind: kind}}
	case *ast.Emphasis:
		s := style
		if node.Level >= 2 {
			s = s.Bold(true)
		} else {
			s = s.Italic(true)
		}
		return b.renderInlines(node, s, kind)
	case *ast.CodeSpan:
		var buf bytes.Buffer
		for c := node.FirstChild(); c != nil; c = c.NextSibling() {
			if t, ok := c.(*ast.Text); ok {
				buf.Write(t.Segment.Value(b.source))
			}
		}
		return []Span{{
			Text:  buf.String(),
			Style: lipgloss.NewStyle().Foreground(b.theme.CodeFg).Background(b.theme.CodeBg),
			Kind:  kind,
		}}
	case *ast.Link:
		url := string(node.Destination)
		s := lipgloss.NewStyle().Foreground(b.theme.Link).Underline(true)
		return b.renderInlines(node, s, LinkKind(url))
	case *ast.AutoLink:
		url := string(node.URL(b.source))
		return []Span{{
			Text:  url,
			Style: lipgloss.NewStyle().Foreground(b.theme.Link).Underline(true),
			Kind:  LinkKind(url),
		}}
	case *ast.Image:
		// Image ALT becomes a link span to the image URL so the target is
		// reachable via OSC 8.
		url := string(node.Destination)
		alt := string(node.Text(b.source))
		if alt == "" {
			alt = url
		}
		return []Span{{
			Text:  alt,
			Style: lipgloss.NewStyle().Foreground(b.theme.Link).Underline(true),
			Kind:  LinkKind(url),
		}}
	case *extast.Strikethrough:
		return b.renderInlines(node, style.Strikethrough(true), kind)
	case *extast.TaskCheckBox:
		box := "[ ] "
		if node.IsChecked {
			box = "[x] "
		}
		return []Span{{
			Text:  box,
			Style: lipgloss.NewStyle().Foreground(b.theme.Success),
			Kind:  kind,
		}}
	case *ast.RawHTML:
		var buf bytes.Buffer
		for i := 0; i < node.Segments.Len(); i++ {
			seg := node.Segments.At(i)
			buf.Write(seg.Value(b.source))
		}
		return []Span{{
			Text:  buf.String(),
			Style: lipgloss.NewStyle().Foreground(b.theme.TextMuted),
			Kind:  kind,
		}}
	default:
		if n.Type() == ast.TypeInline {
			return b.renderInlines(n, style, kind)
		}
		return nil
	}
}

// splitSubSup styles ^sup^ and ~sub~ runs inside a text node. The markers
// are dropped and the inner run rendered dim italic; unpaired markers pass
// through literally.
func (b *builder) splitSubSup(txt string, style lipgloss.Style, kind SpanKind) []Span {
	var out []Span
	dim := style.Italic(true).Foreground(b.theme.TextMuted)
	rest := txt
	for {
		i := strings.IndexAny(rest, "^~")
		if i < 0 {
			break
		}
		marker := rest[i]
		// ~~ belongs to strikethrough, handled by the extension.
		if marker == '~' && i+1 < len(rest) && rest[i+1] == '~' {
			break
		}
		j := strings.IndexByte(rest[i+1:], marker)
		if j < 0 || j == 0 {
			break
		}
		if i > 0 {
			out = append(out, Span{Text: rest[:i], Style: style, Kind: kind})
		}
		out = append(out, Span{Text: rest[i+1 : i+1+j], Style: dim, Kind: kind})
		rest = rest[i+j+2:]
	}
	if rest != "" || len(out) == 0 {
		out = append(out, Span{Text: rest, Style: style, Kind: kind})
	}
	return out
}
