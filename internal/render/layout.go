package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Layout is the width-wrapped form of a whole transcript: display lines,
// the display-line offset where each message starts (with a final sentinel
// equal to len(Lines)), and the transcript-wide code block list indexed by
// global block number.
type Layout struct {
	Lines             []Line
	PerMessageOffsets []int
	Blocks            []BlockInfo
}

// MessageRange returns the half-open display-line range of message i.
func (l *Layout) MessageRange(i int) (start, end int) {
	if i < 0 || i+1 >= len(l.PerMessageOffsets) {
		return 0, 0
	}
	return l.PerMessageOffsets[i], l.PerMessageOffsets[i+1]
}

// BlockRange returns the display-line range covered by global code block n.
func (l *Layout) BlockRange(n int) (start, end int) {
	start, end = -1, -1
	for i, line := range l.Lines {
		for _, s := range line.Spans {
			if s.Kind.Type == SpanCodeBlock && s.Kind.Block == n {
				if start < 0 {
					start = i
				}
				end = i + 1
			}
		}
	}
	if start < 0 {
		return 0, 0
	}
	return start, end
}

// spanWidth measures display width of text.
func spanWidth(text string) int {
	return runewidth.StringWidth(text)
}

// sanitizeText expands tabs and drops invisible control characters.
// Newlines never reach here; lines are already split.
func sanitizeText(text string) string {
	if !strings.ContainsFunc(text, func(r rune) bool { return r < 0x20 || r == 0x7f }) {
		return text
	}
	var b strings.Builder
	for _, r := range text {
		switch {
		case r == '\t':
			b.WriteString("    ")
		case r < 0x20 || r == 0x7f:
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// LayoutMessage wraps a rendered message's lines to the given width.
// Wrapping happens at word boundaries with hard breaks for long tokens.
// Table lines are kept unwrapped; the viewport shifts them horizontally.
// Always yields at least one line.
func LayoutMessage(rm RenderedMessage, width int) []Line {
	if width < 1 {
		width = 1
	}
	var out []Line
	for _, line := range rm.Lines {
		out = append(out, wrapLine(line, width)...)
	}
	if len(out) == 0 {
		out = append(out, Line{})
	}
	return out
}

func wrapLine(line Line, width int) []Line {
	if line.Table {
		cp := line
		cp.Spans = sanitizeSpans(line.Spans)
		return []Line{cp}
	}

	var out []Line
	cur := Line{}
	used := 0

	flush := func() {
		out = append(out, cur)
		cur = Line{}
		used = 0
	}

	for _, span := range line.Spans {
		span.Text = sanitizeText(span.Text)
		if span.Text == "" {
			// Zero-width spans (e.g. an empty code-fence line) still need
			// to land somewhere so block selection has a target.
			if span.Kind.Type == SpanCodeBlock {
				cur.Spans = append(cur.Spans, span)
			}
			continue
		}
		for span.Text != "" {
			avail := width - used
			w := spanWidth(span.Text)
			if w <= avail {
				cur.Spans = append(cur.Spans, span)
				used += w
				break
			}
			head, rest := breakSpanText(span.Text, avail, used == 0)
			if head == "" {
				// Nothing fits on this line; wrap and retry. A space at the
				// break point is dropped rather than carried to the next line.
				span.Text = rest
				flush()
				continue
			}
			cur.Spans = append(cur.Spans, Span{Text: head, Style: span.Style, Kind: span.Kind})
			flush()
			span.Text = rest
		}
	}
	out = append(out, cur)
	return out
}

func sanitizeSpans(spans []Span) []Span {
	out := make([]Span, len(spans))
	for i, s := range spans {
		s.Text = sanitizeText(s.Text)
		out[i] = s
	}
	return out
}

// breakSpanText splits text so the head fits in avail columns, preferring
// the last space boundary. When the line is empty and no boundary fits, a
// long token is broken hard at the width.
func breakSpanText(text string, avail int, lineEmpty bool) (head, rest string) {
	if avail <= 0 {
		return "", text
	}
	// Longest prefix that fits by display width.
	fit := 0
	w := 0
	for i, r := range text {
		rw := runewidth.RuneWidth(r)
		if w+rw > avail {
			break
		}
		w += rw
		fit = i + len(string(r))
	}
	if fit == 0 {
		return "", text
	}
	// Prefer breaking after the last space inside the fitting prefix.
	if idx := strings.LastIndexByte(text[:fit], ' '); idx >= 0 {
		return text[:idx], strings.TrimLeft(text[idx:], " ")
	}
	if !lineEmpty {
		// Let the word start fresh on the next line.
		return "", text
	}
	return text[:fit], text[fit:]
}

// LayoutMessages wraps all messages and renumbers code block indices so
// they are unique and contiguous from zero across the whole transcript.
func LayoutMessages(rendered []RenderedMessage, width int) Layout {
	var layout Layout
	base := 0
	for _, rm := range rendered {
		layout.PerMessageOffsets = append(layout.PerMessageOffsets, len(layout.Lines))
		lines := LayoutMessage(rm, width)
		renumberBlocks(lines, base)
		layout.Lines = append(layout.Lines, lines...)
		layout.Blocks = append(layout.Blocks, rm.Blocks...)
		base += len(rm.Blocks)
	}
	layout.PerMessageOffsets = append(layout.PerMessageOffsets, len(layout.Lines))
	return layout
}

// renumberBlocks shifts per-message block indices by base, in place on the
// freshly wrapped (unshared) lines.
func renumberBlocks(lines []Line, base int) {
	if base == 0 {
		return
	}
	for i := range lines {
		for j := range lines[i].Spans {
			if lines[i].Spans[j].Kind.Type == SpanCodeBlock {
				lines[i].Spans[j].Kind.Block += base
			}
		}
	}
}
