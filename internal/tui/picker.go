package tui

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// PickerKind says what a picker selects; apply behavior switches on it.
type PickerKind int

const (
	PickTheme PickerKind = iota
	PickProvider
	PickModel
	PickCharacter
	PickPersona
	PickPreset
)

// PickerItem is one selectable row: stable id, display text and optional
// metadata shown in the inspect overlay.
type PickerItem struct {
	ID      string
	Display string
	Meta    string
}

// Picker is the generic filterable, sortable list engine behind every
// selection overlay. Filtering is fuzzy and case-insensitive; the
// selection survives filter changes when the selected item is still
// visible.
type Picker struct {
	Kind  PickerKind
	Title string

	items    []PickerItem
	filter   string
	sorted   bool // alphabetical when true, original order otherwise
	selected string

	// Loading is true while an async metadata fetch is in flight; the
	// view shows a spinner row.
	Loading bool
	// ErrRow is an inline error shown when a fetch failed; the picker
	// stays open.
	ErrRow string
}

// NewPicker creates a picker over items, selecting the item with the given
// id (or the first item).
func NewPicker(kind PickerKind, title string, items []PickerItem, selectedID string) *Picker {
	p := &Picker{Kind: kind, Title: title, items: items, selected: selectedID}
	if _, ok := p.SelectedItem(); !ok && len(items) > 0 {
		p.selected = items[0].ID
	}
	return p
}

// SetItems replaces the item list (async fetch completion).
func (p *Picker) SetItems(items []PickerItem) {
	p.items = items
	p.Loading = false
	if _, ok := p.SelectedItem(); !ok && len(items) > 0 {
		p.selected = items[0].ID
	}
}

// Filter returns the current filter string.
func (p *Picker) Filter() string { return p.filter }

// SetFilter updates the filter, keeping the current selection when it is
// still visible and snapping to the first visible item otherwise.
func (p *Picker) SetFilter(f string) {
	p.filter = f
	visible := p.Visible()
	for _, it := range visible {
		if it.ID == p.selected {
			return
		}
	}
	if len(visible) > 0 {
		p.selected = visible[0].ID
	}
}

// ToggleSort flips between original and alphabetical ordering.
func (p *Picker) ToggleSort() { p.sorted = !p.sorted }

// Sorted reports whether alphabetical ordering is active.
func (p *Picker) Sorted() bool { return p.sorted }

// Visible returns the items matching the filter in display order.
func (p *Picker) Visible() []PickerItem {
	items := p.items
	if p.sorted {
		items = append([]PickerItem(nil), p.items...)
		sort.Slice(items, func(i, j int) bool {
			return strings.ToLower(items[i].Display) < strings.ToLower(items[j].Display)
		})
	}
	if p.filter == "" {
		return items
	}
	targets := make([]string, len(items))
	for i, it := range items {
		targets[i] = it.Display
	}
	matches := fuzzy.Find(p.filter, targets)
	out := make([]PickerItem, 0, len(matches))
	for _, m := range matches {
		out = append(out, items[m.Index])
	}
	return out
}

// SelectedItem returns the selected item if it is visible.
func (p *Picker) SelectedItem() (PickerItem, bool) {
	for _, it := range p.Visible() {
		if it.ID == p.selected {
			return it, true
		}
	}
	return PickerItem{}, false
}

// SelectedIndex returns the selected row's index among visible items, -1
// when nothing is selected.
func (p *Picker) SelectedIndex() int {
	for i, it := range p.Visible() {
		if it.ID == p.selected {
			return i
		}
	}
	return -1
}

// Move shifts the selection by delta, clamping at the ends.
func (p *Picker) Move(delta int) {
	visible := p.Visible()
	if len(visible) == 0 {
		return
	}
	idx := p.SelectedIndex()
	if idx < 0 {
		idx = 0
	} else {
		idx += delta
		if idx < 0 {
			idx = 0
		}
		if idx >= len(visible) {
			idx = len(visible) - 1
		}
	}
	p.selected = visible[idx].ID
}
