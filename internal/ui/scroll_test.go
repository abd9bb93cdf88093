package ui

import "testing"

func TestAutoFollowWhenAtBottom(t *testing.T) {
	var s Scroll
	s.SetHeight(10)
	s.Reset(20) // offset 10, at bottom

	s.Update(25)
	if s.Offset() != 15 {
		t.Errorf("auto-follow: want offset 15, got %d", s.Offset())
	}
}

func TestOffsetPreservedWhenScrolledUp(t *testing.T) {
	var s Scroll
	s.SetHeight(10)
	s.Reset(40)
	s.ScrollBy(-20) // offset 10, not at bottom

	s.Update(50)
	if s.Offset() != 10 {
		t.Errorf("scrolled-up offset should be preserved, got %d", s.Offset())
	}
}

func TestPageHomeEnd(t *testing.T) {
	var s Scroll
	s.SetHeight(10)
	s.Reset(100)

	s.Home()
	if s.Offset() != 0 {
		t.Errorf("home: %d", s.Offset())
	}
	s.Page(1)
	if s.Offset() != 10 {
		t.Errorf("page down: %d", s.Offset())
	}
	s.Page(-1)
	if s.Offset() != 0 {
		t.Errorf("page up: %d", s.Offset())
	}
	s.End()
	if s.Offset() != 90 {
		t.Errorf("end: %d", s.Offset())
	}
}

func TestScrollClamping(t *testing.T) {
	var s Scroll
	s.SetHeight(10)
	s.Update(5) // content shorter than viewport

	s.ScrollBy(100)
	if s.Offset() != 0 {
		t.Errorf("clamp: %d", s.Offset())
	}
	s.ScrollBy(-100)
	if s.Offset() != 0 {
		t.Errorf("clamp negative: %d", s.Offset())
	}
	if !s.AtBottom() {
		t.Error("short content is always at bottom")
	}
}

func TestScrollIntoView(t *testing.T) {
	var s Scroll
	s.SetHeight(10)
	s.Update(100)

	s.ScrollIntoView(50, 53)
	start, end := s.Visible()
	if 50 < start || 53 > end {
		t.Errorf("range not visible: viewport [%d,%d)", start, end)
	}

	// Already visible: no movement.
	before := s.Offset()
	s.ScrollIntoView(50, 53)
	if s.Offset() != before {
		t.Error("visible range should not move the viewport")
	}

	// Above the viewport: aligns to top.
	s.ScrollIntoView(5, 7)
	if s.Offset() != 5 {
		t.Errorf("scroll up into view: %d", s.Offset())
	}

	// Taller than the viewport: aligns to top.
	s.ScrollIntoView(20, 60)
	if s.Offset() != 20 {
		t.Errorf("oversized range aligns to top: %d", s.Offset())
	}
}
