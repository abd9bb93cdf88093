package ui

// Scroll tracks the chat viewport's position over the transcript's display
// lines. Offsets are in display lines; the engine knows nothing about
// messages beyond the ranges callers hand it.
type Scroll struct {
	offset int
	height int
	total  int
}

// followEpsilon is how close to the bottom (in lines) still counts as
// "at the bottom" for auto-follow purposes.
const followEpsilon = 1

// SetHeight sets the viewport height in lines.
func (s *Scroll) SetHeight(h int) {
	if h < 0 {
		h = 0
	}
	s.height = h
	s.clamp()
}

// Update records a new total line count, keeping the viewport pinned to the
// tail when the user was already at the bottom (auto-follow) and preserving
// the offset otherwise.
func (s *Scroll) Update(total int) {
	wasAtBottom := s.AtBottom()
	s.total = total
	if wasAtBottom {
		s.End()
	} else {
		s.clamp()
	}
}

// Reset forces the viewport to the tail regardless of prior position.
func (s *Scroll) Reset(total int) {
	s.total = total
	s.End()
}

// Offset returns the first visible display line.
func (s *Scroll) Offset() int { return s.offset }

// Height returns the viewport height.
func (s *Scroll) Height() int { return s.height }

func (s *Scroll) maxOffset() int {
	m := s.total - s.height
	if m < 0 {
		m = 0
	}
	return m
}

func (s *Scroll) clamp() {
	if s.offset > s.maxOffset() {
		s.offset = s.maxOffset()
	}
	if s.offset < 0 {
		s.offset = 0
	}
}

// AtBottom reports whether the viewport is within the follow epsilon of the
// last line.
func (s *Scroll) AtBottom() bool {
	return s.offset >= s.maxOffset()-followEpsilon
}

// ScrollBy moves the offset by n lines (negative is up).
func (s *Scroll) ScrollBy(n int) {
	s.offset += n
	s.clamp()
}

// Page moves by one viewport height in the given direction.
func (s *Scroll) Page(dir int) {
	step := s.height
	if step < 1 {
		step = 1
	}
	s.ScrollBy(dir * step)
}

// Home jumps to the first line.
func (s *Scroll) Home() { s.offset = 0 }

// End jumps so the last line is visible.
func (s *Scroll) End() { s.offset = s.maxOffset() }

// ScrollIntoView adjusts the offset minimally so the half-open line range
// [start, end) is visible. Ranges taller than the viewport align to their
// top.
func (s *Scroll) ScrollIntoView(start, end int) {
	if end <= start {
		return
	}
	if start < s.offset {
		s.offset = start
	} else if end > s.offset+s.height {
		s.offset = end - s.height
		if s.offset > start {
			s.offset = start
		}
	}
	s.clamp()
}

// Visible returns the half-open range of display lines currently shown.
func (s *Scroll) Visible() (start, end int) {
	start = s.offset
	end = s.offset + s.height
	if end > s.total {
		end = s.total
	}
	return start, end
}
