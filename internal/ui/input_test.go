package ui

import "testing"

func TestInsertAndValue(t *testing.T) {
	b := NewInputBuffer()
	b.InsertString("hello")
	b.InsertNewline()
	b.InsertString("world")
	if got := b.Value(); got != "hello\nworld" {
		t.Errorf("value: %q", got)
	}
	if line, col := b.Cursor(); line != 1 || col != 5 {
		t.Errorf("cursor: (%d,%d)", line, col)
	}
}

func TestPasteSanitizesAndLeavesCursorAtEnd(t *testing.T) {
	b := NewInputBuffer()
	b.InsertString("a\tb\x1b[31mc\r\nd")
	// Tab -> four spaces, ESC and other controls dropped, \r dropped,
	// newline preserved.
	if got := b.Value(); got != "a    b[31mc\nd" {
		t.Errorf("paste: %q", got)
	}
	if line, col := b.Cursor(); line != 1 || col != 1 {
		t.Errorf("cursor after paste: (%d,%d)", line, col)
	}
}

func TestBackspaceJoinsLines(t *testing.T) {
	b := NewInputBuffer()
	b.SetValue("ab\ncd")
	b.line, b.col = 1, 0
	b.Backspace()
	if got := b.Value(); got != "abcd" {
		t.Errorf("join: %q", got)
	}
	if line, col := b.Cursor(); line != 0 || col != 2 {
		t.Errorf("cursor after join: (%d,%d)", line, col)
	}
}

func TestDeleteForwardAtLineEnd(t *testing.T) {
	b := NewInputBuffer()
	b.SetValue("ab\ncd")
	b.line, b.col = 0, 2
	b.DeleteForward()
	if got := b.Value(); got != "abcd" {
		t.Errorf("delete join: %q", got)
	}
}

func TestHorizontalMotionCrossesLines(t *testing.T) {
	b := NewInputBuffer()
	b.SetValue("ab\ncd")
	b.line, b.col = 1, 0
	b.Left()
	if line, col := b.Cursor(); line != 0 || col != 2 {
		t.Errorf("left across boundary: (%d,%d)", line, col)
	}
	b.Right()
	if line, col := b.Cursor(); line != 1 || col != 0 {
		t.Errorf("right across boundary: (%d,%d)", line, col)
	}
}

func TestWrapCacheKeyedOnRevision(t *testing.T) {
	b := NewInputBuffer()
	b.InsertString("some words that wrap")
	rows1 := b.Wrapped(8)
	rows2 := b.Wrapped(8)
	if &rows1[0] != &rows2[0] {
		t.Error("wrap cache should return the same backing array for same (width, revision)")
	}
	b.InsertRune('x')
	rows3 := b.Wrapped(8)
	if len(rows3) == 0 {
		t.Fatal("rewrap failed")
	}
}

func TestPreferredColumnSurvivesBlankLines(t *testing.T) {
	b := NewInputBuffer()
	b.SetValue("a long first line\n\nanother long line")
	// Put the cursor at column 10 of line 0.
	b.line, b.col = 0, 10
	width := 80

	b.Down(width) // onto the blank line: col clamps to 0
	if line, col := b.Cursor(); line != 1 || col != 0 {
		t.Fatalf("on blank line: (%d,%d)", line, col)
	}
	b.Down(width) // onto line 2: preferred column restored
	if line, col := b.Cursor(); line != 2 || col != 10 {
		t.Errorf("preferred column lost: (%d,%d)", line, col)
	}
	b.Up(width)
	b.Up(width)
	if line, col := b.Cursor(); line != 0 || col != 10 {
		t.Errorf("preferred column lost going up: (%d,%d)", line, col)
	}
}

func TestVerticalMotionThroughWrappedRows(t *testing.T) {
	b := NewInputBuffer()
	b.SetValue("abcdefghij") // wraps at width 4 into abcd/efgh/ij
	b.line, b.col = 0, 0
	b.Down(4)
	if _, col := b.Cursor(); col != 4 {
		t.Errorf("down into second visual row: col %d", col)
	}
	b.Down(4)
	if _, col := b.Cursor(); col != 8 {
		t.Errorf("down into third visual row: col %d", col)
	}
}

func TestCursorVisual(t *testing.T) {
	b := NewInputBuffer()
	b.SetValue("abcdefghij")
	b.line, b.col = 0, 6
	row, col := b.CursorVisual(4)
	if row != 1 || col != 2 {
		t.Errorf("visual cursor: (%d,%d)", row, col)
	}
}

func TestClearAndEmpty(t *testing.T) {
	b := NewInputBuffer()
	if !b.Empty() {
		t.Error("new buffer should be empty")
	}
	b.InsertString("x")
	if b.Empty() {
		t.Error("buffer with text is not empty")
	}
	b.Clear()
	if !b.Empty() || b.Value() != "" {
		t.Error("clear failed")
	}
}
