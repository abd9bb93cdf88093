package render

import (
	"github.com/permacommons/chabeau/internal/message"
)

// PrewrapCache holds the width-keyed layout of the whole transcript so the
// view can blit display lines without re-rendering every frame. The cache
// is invalidated by width, flag or transcript-revision changes; when only
// the tail message changed (streaming), SpliceLast re-lays just that
// message and splices it into place.
//
// The cache has a single owner (the UI model); it is not safe for
// concurrent use.
type PrewrapCache struct {
	valid    bool
	width    int
	flags    Flags
	revision uint64

	rendered []RenderedMessage
	layout   Layout
}

// NewPrewrapCache returns an empty cache.
func NewPrewrapCache() *PrewrapCache {
	return &PrewrapCache{}
}

// Invalidate forces the next GetOrBuild to rebuild from scratch.
func (c *PrewrapCache) Invalidate() { c.valid = false }

// Layout returns the cached layout; only meaningful after GetOrBuild or
// SpliceLast.
func (c *PrewrapCache) Layout() *Layout { return &c.layout }

func (c *PrewrapCache) fresh(tr *message.Transcript, flags Flags, width int) bool {
	return c.valid && c.width == width && c.flags == flags && c.revision == tr.Revision()
}

// GetOrBuild returns the layout for the transcript at the given width,
// rebuilding when width, render flags or transcript content changed.
func (c *PrewrapCache) GetOrBuild(tr *message.Transcript, r *Renderer, flags Flags, width int) *Layout {
	if c.fresh(tr, flags, width) {
		return &c.layout
	}
	msgs := tr.Messages()
	c.rendered = c.rendered[:0]
	for _, m := range msgs {
		c.rendered = append(c.rendered, r.RenderMessage(m, flags))
	}
	c.layout = LayoutMessages(c.rendered, width)
	c.width = width
	c.flags = flags
	c.revision = tr.Revision()
	c.valid = true
	return &c.layout
}

// SpliceLast updates the cache assuming only the tail message changed
// since the last build (the streaming fast path). New code blocks in the
// tail are renumbered after the highest existing global index; numbering
// is identical to what a full rebuild would produce. Falls back to a full
// rebuild when the cache is invalid, the width or flags changed, or the
// message count differs; an edit to an earlier message that leaves the
// count unchanged is not detected.
func (c *PrewrapCache) SpliceLast(tr *message.Transcript, r *Renderer, flags Flags, width int) *Layout {
	if c.fresh(tr, flags, width) {
		return &c.layout
	}
	msgs := tr.Messages()
	n := len(msgs)
	if !c.valid || c.width != width || c.flags != flags || len(c.rendered) != n || n == 0 {
		return c.GetOrBuild(tr, r, flags, width)
	}

	// Blocks contributed by everything before the tail.
	base := 0
	for _, rm := range c.rendered[:n-1] {
		base += len(rm.Blocks)
	}

	rm := r.RenderMessage(msgs[n-1], flags)
	lines := LayoutMessage(rm, width)
	renumberBlocks(lines, base)

	start := c.layout.PerMessageOffsets[n-1]
	c.layout.Lines = append(c.layout.Lines[:start], lines...)
	c.layout.PerMessageOffsets[n] = len(c.layout.Lines)
	c.layout.Blocks = append(c.layout.Blocks[:base], rm.Blocks...)
	c.rendered[n-1] = rm
	c.revision = tr.Revision()
	return &c.layout
}
