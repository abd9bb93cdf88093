package tui

import "testing"

func sampleItems() []PickerItem {
	return []PickerItem{
		{ID: "dark", Display: "dark"},
		{ID: "dracula", Display: "dracula"},
		{ID: "nord", Display: "nord"},
		{ID: "light", Display: "light"},
	}
}

func TestPickerSelectionSurvivesFilter(t *testing.T) {
	p := NewPicker(PickTheme, "Theme", sampleItems(), "nord")

	p.SetFilter("nor")
	if it, ok := p.SelectedItem(); !ok || it.ID != "nord" {
		t.Errorf("selection lost under filter: %+v %v", it, ok)
	}

	// Filter that hides the selection snaps to the first visible item.
	p.SetFilter("dra")
	if it, ok := p.SelectedItem(); !ok || it.ID != "dracula" {
		t.Errorf("selection after hiding filter: %+v %v", it, ok)
	}
}

func TestPickerFilterIsCaseInsensitive(t *testing.T) {
	p := NewPicker(PickTheme, "Theme", sampleItems(), "")
	p.SetFilter("DARK")
	found := false
	for _, it := range p.Visible() {
		if it.ID == "dark" {
			found = true
		}
	}
	if !found {
		t.Errorf("case-insensitive filter failed: %+v", p.Visible())
	}
}

func TestPickerMoveClampsAtEnds(t *testing.T) {
	p := NewPicker(PickTheme, "Theme", sampleItems(), "dark")
	p.Move(-1)
	if it, _ := p.SelectedItem(); it.ID != "dark" {
		t.Errorf("move up at top should clamp: %+v", it)
	}
	p.Move(10)
	if it, _ := p.SelectedItem(); it.ID != "light" {
		t.Errorf("move past end should clamp: %+v", it)
	}
}

func TestPickerSortToggle(t *testing.T) {
	items := []PickerItem{
		{ID: "b", Display: "bravo"},
		{ID: "a", Display: "alpha"},
	}
	p := NewPicker(PickModel, "Model", items, "")
	if p.Visible()[0].ID != "b" {
		t.Error("original order should be preserved by default")
	}
	p.ToggleSort()
	if p.Visible()[0].ID != "a" {
		t.Error("alphabetical sort not applied")
	}
	p.ToggleSort()
	if p.Visible()[0].ID != "b" {
		t.Error("sort toggle should restore original order")
	}
}

func TestPickerEmptyItems(t *testing.T) {
	p := NewPicker(PickModel, "Model", nil, "")
	if _, ok := p.SelectedItem(); ok {
		t.Error("empty picker should have no selection")
	}
	p.Move(1) // must not panic
}

func TestPickerSetItemsAfterLoad(t *testing.T) {
	p := NewPicker(PickModel, "Model", nil, "")
	p.Loading = true
	p.SetItems(sampleItems())
	if p.Loading {
		t.Error("SetItems should clear loading")
	}
	if it, ok := p.SelectedItem(); !ok || it.ID != "dark" {
		t.Errorf("selection after load: %+v %v", it, ok)
	}
}
