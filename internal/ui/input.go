package ui

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// InputBuffer is the multi-line editing buffer behind the input area. The
// cursor is a (line, column) pair in runes; vertical motion goes through
// the wrapped visual layout and keeps a preferred visual column so moving
// through short or blank lines doesn't lose horizontal position.
type InputBuffer struct {
	lines  [][]rune
	line   int
	col    int
	pref   int // preferred visual column for up/down
	prefOK bool

	revision uint64

	// wrap cache, keyed by (width, revision)
	wrapWidth int
	wrapRev   uint64
	rows      []visualRow
}

// visualRow is one wrapped display row of the buffer.
type visualRow struct {
	Line  int // logical line index
	Start int // first rune of the row within the line
	End   int // one past the last rune
}

// NewInputBuffer returns an empty single-line buffer.
func NewInputBuffer() *InputBuffer {
	return &InputBuffer{lines: [][]rune{{}}}
}

// Revision increments on every textual mutation; the wrap cache keys on it.
func (b *InputBuffer) Revision() uint64 { return b.revision }

func (b *InputBuffer) mutate() {
	b.revision++
	b.prefOK = false
}

// Value returns the buffer contents.
func (b *InputBuffer) Value() string {
	parts := make([]string, len(b.lines))
	for i, l := range b.lines {
		parts[i] = string(l)
	}
	return strings.Join(parts, "\n")
}

// Empty reports whether the buffer holds no text.
func (b *InputBuffer) Empty() bool {
	return len(b.lines) == 1 && len(b.lines[0]) == 0
}

// LineCount returns the number of logical lines.
func (b *InputBuffer) LineCount() int { return len(b.lines) }

// Cursor returns the logical cursor position.
func (b *InputBuffer) Cursor() (line, col int) { return b.line, b.col }

// SetValue replaces the contents and puts the cursor at the end.
func (b *InputBuffer) SetValue(s string) {
	raw := strings.Split(s, "\n")
	b.lines = make([][]rune, len(raw))
	for i, l := range raw {
		b.lines[i] = []rune(l)
	}
	b.line = len(b.lines) - 1
	b.col = len(b.lines[b.line])
	b.mutate()
}

// Clear empties the buffer.
func (b *InputBuffer) Clear() {
	b.lines = [][]rune{{}}
	b.line, b.col = 0, 0
	b.mutate()
}

// InsertRune inserts r at the cursor.
func (b *InputBuffer) InsertRune(r rune) {
	if r == '\n' {
		b.InsertNewline()
		return
	}
	if r < 0x20 || r == 0x7f {
		return
	}
	line := b.lines[b.line]
	line = append(line[:b.col], append([]rune{r}, line[b.col:]...)...)
	b.lines[b.line] = line
	b.col++
	b.mutate()
}

// InsertNewline splits the current line at the cursor.
func (b *InputBuffer) InsertNewline() {
	line := b.lines[b.line]
	head := append([]rune{}, line[:b.col]...)
	tail := append([]rune{}, line[b.col:]...)
	b.lines[b.line] = head
	rest := append([][]rune{tail}, b.lines[b.line+1:]...)
	b.lines = append(b.lines[:b.line+1], rest...)
	b.line++
	b.col = 0
	b.mutate()
}

// InsertString inserts pasted text at the cursor. Tabs become spaces and
// control characters other than newline are stripped; the cursor ends at
// the end of the inserted text.
func (b *InputBuffer) InsertString(s string) {
	for _, r := range s {
		switch {
		case r == '\n':
			b.InsertNewline()
		case r == '\r':
			// tolerated, dropped
		case r == '\t':
			b.InsertRune(' ')
			b.InsertRune(' ')
			b.InsertRune(' ')
			b.InsertRune(' ')
		default:
			b.InsertRune(r)
		}
	}
}

// Backspace deletes the rune before the cursor, joining lines at column 0.
func (b *InputBuffer) Backspace() {
	if b.col > 0 {
		line := b.lines[b.line]
		b.lines[b.line] = append(line[:b.col-1], line[b.col:]...)
		b.col--
		b.mutate()
		return
	}
	if b.line == 0 {
		return
	}
	prev := b.lines[b.line-1]
	b.col = len(prev)
	b.lines[b.line-1] = append(prev, b.lines[b.line]...)
	b.lines = append(b.lines[:b.line], b.lines[b.line+1:]...)
	b.line--
	b.mutate()
}

// DeleteForward deletes the rune under the cursor.
func (b *InputBuffer) DeleteForward() {
	line := b.lines[b.line]
	if b.col < len(line) {
		b.lines[b.line] = append(line[:b.col], line[b.col+1:]...)
		b.mutate()
		return
	}
	if b.line == len(b.lines)-1 {
		return
	}
	b.lines[b.line] = append(line, b.lines[b.line+1]...)
	b.lines = append(b.lines[:b.line+1], b.lines[b.line+2:]...)
	b.mutate()
}

// Left moves the cursor one rune left, crossing line boundaries.
func (b *InputBuffer) Left() {
	b.prefOK = false
	if b.col > 0 {
		b.col--
		return
	}
	if b.line > 0 {
		b.line--
		b.col = len(b.lines[b.line])
	}
}

// Right moves the cursor one rune right, crossing line boundaries.
func (b *InputBuffer) Right() {
	b.prefOK = false
	if b.col < len(b.lines[b.line]) {
		b.col++
		return
	}
	if b.line < len(b.lines)-1 {
		b.line++
		b.col = 0
	}
}

// Home moves to the start of the logical line.
func (b *InputBuffer) Home() {
	b.prefOK = false
	b.col = 0
}

// End moves to the end of the logical line.
func (b *InputBuffer) End() {
	b.prefOK = false
	b.col = len(b.lines[b.line])
}

// ---------------------------------------------------------------------------
// wrapped layout
// ---------------------------------------------------------------------------

// Wrapped returns the visual rows of the buffer at the given width. The
// result is cached against (width, revision).
func (b *InputBuffer) Wrapped(width int) []visualRow {
	if width < 1 {
		width = 1
	}
	if b.wrapWidth == width && b.wrapRev == b.revision && b.rows != nil {
		return b.rows
	}
	var rows []visualRow
	for li, line := range b.lines {
		start := 0
		w := 0
		for i, r := range line {
			rw := runewidth.RuneWidth(r)
			if w+rw > width && i > start {
				rows = append(rows, visualRow{Line: li, Start: start, End: i})
				start = i
				w = 0
			}
			w += rw
		}
		rows = append(rows, visualRow{Line: li, Start: start, End: len(line)})
	}
	b.rows = rows
	b.wrapWidth = width
	b.wrapRev = b.revision
	return rows
}

// WrappedStrings returns the visual rows as strings.
func (b *InputBuffer) WrappedStrings(width int) []string {
	rows := b.Wrapped(width)
	out := make([]string, len(rows))
	for i, row := range rows {
		out[i] = string(b.lines[row.Line][row.Start:row.End])
	}
	return out
}

// CursorVisual returns the cursor's (row, column) in the wrapped layout.
func (b *InputBuffer) CursorVisual(width int) (row, col int) {
	rows := b.Wrapped(width)
	for i, r := range rows {
		if r.Line != b.line {
			continue
		}
		if b.col >= r.Start && (b.col < r.End || (b.col == r.End && b.endOfRowIsCursor(rows, i))) {
			return i, b.visualCol(r)
		}
	}
	return len(rows) - 1, 0
}

// endOfRowIsCursor: the cursor sits at the end of a row only when that row
// is the last row of its logical line (otherwise it belongs to the start of
// the next row).
func (b *InputBuffer) endOfRowIsCursor(rows []visualRow, i int) bool {
	return i == len(rows)-1 || rows[i+1].Line != rows[i].Line
}

func (b *InputBuffer) visualCol(r visualRow) int {
	w := 0
	line := b.lines[r.Line]
	for i := r.Start; i < b.col && i < len(line); i++ {
		w += runewidth.RuneWidth(line[i])
	}
	return w
}

// Up moves the cursor one visual row up, preserving the preferred visual
// column across short and blank rows.
func (b *InputBuffer) Up(width int) {
	b.moveVertical(width, -1)
}

// Down moves the cursor one visual row down.
func (b *InputBuffer) Down(width int) {
	b.moveVertical(width, 1)
}

// AtFirstRow reports whether the cursor is on the first visual row.
func (b *InputBuffer) AtFirstRow(width int) bool {
	row, _ := b.CursorVisual(width)
	return row == 0
}

// AtLastRow reports whether the cursor is on the last visual row.
func (b *InputBuffer) AtLastRow(width int) bool {
	row, _ := b.CursorVisual(width)
	return row == len(b.Wrapped(width))-1
}

func (b *InputBuffer) moveVertical(width, dir int) {
	rows := b.Wrapped(width)
	row, col := b.CursorVisual(width)
	if !b.prefOK {
		b.pref = col
		b.prefOK = true
	}
	target := row + dir
	if target < 0 || target >= len(rows) {
		return
	}
	r := rows[target]
	b.line = r.Line
	b.col = b.runeAtVisualCol(r, b.pref)
}

// runeAtVisualCol maps a visual column back to a rune offset within a row,
// clamping to the row's end.
func (b *InputBuffer) runeAtVisualCol(r visualRow, target int) int {
	line := b.lines[r.Line]
	w := 0
	for i := r.Start; i < r.End; i++ {
		rw := runewidth.RuneWidth(line[i])
		if w+rw > target {
			return i
		}
		w += rw
	}
	return r.End
}
