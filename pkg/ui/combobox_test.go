package ui

import (
	"reflect"
	"sort"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tally/pkg/catalog"
)

func typeText(c Combobox, s string) Combobox {
	for _, r := range s {
		c, _ = c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return c
}

func newFocusedCategoryCombo() Combobox {
	c := NewCategoryCombobox(catalog.Default(), newTreeTestTheme())
	c.Focus()
	return c
}

func TestComboboxListsAllGroupsWhenEmpty(t *testing.T) {
	c := newFocusedCategoryCombo()
	want := []string{"Lunch", "Breakfast", "Dinner", "Cinema", "Arcade", "Rent", "Phone Bill"}
	if got := c.OptionNames(); !reflect.DeepEqual(got, want) {
		t.Errorf("options = %v, want %v", got, want)
	}
	if c.IsOpen() {
		t.Error("list should start closed")
	}
}

func TestComboboxTypingFiltersAndOpens(t *testing.T) {
	c := typeText(newFocusedCategoryCombo(), "cinem")
	if !c.IsOpen() {
		t.Fatal("typing should open the list")
	}
	names := c.OptionNames()
	if len(names) == 0 || names[0] != "Cinema" {
		t.Errorf("expected Cinema first, got %v", names)
	}
}

func TestComboboxFilterMatchesHeading(t *testing.T) {
	c := typeText(newFocusedCategoryCombo(), "living")
	names := c.OptionNames()
	sort.Strings(names)
	if !reflect.DeepEqual(names, []string{"Phone Bill", "Rent"}) {
		t.Errorf("expected the Living items, got %v", names)
	}
}

func TestComboboxChooseWithEnter(t *testing.T) {
	c := typeText(newFocusedCategoryCombo(), "dinner")
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyEnter})

	choice, ok := c.Choice()
	if !ok {
		t.Fatal("expected a choice")
	}
	want := ComboChoice{GroupID: "1", GroupName: "Dining Out", ItemID: "5", ItemName: "Dinner"}
	if choice != want {
		t.Errorf("choice = %+v, want %+v", choice, want)
	}
	if c.IsOpen() {
		t.Error("list should close after choosing")
	}
}

func TestComboboxNavigateWithArrows(t *testing.T) {
	c := newFocusedCategoryCombo()
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyDown}) // opens
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyDown})
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyUp})
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if choice, _ := c.Choice(); choice.ItemID != "3" {
		t.Errorf("expected Breakfast, got %+v", choice)
	}
}

func TestComboboxEditingClearsChoice(t *testing.T) {
	c := newFocusedCategoryCombo()
	if !c.Choose("7") {
		t.Fatal("Choose(7) failed")
	}
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if _, ok := c.Choice(); ok {
		t.Error("editing the text should clear the choice")
	}
}

func TestComboboxEscCloses(t *testing.T) {
	c := typeText(newFocusedCategoryCombo(), "a")
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if c.IsOpen() {
		t.Error("esc should close the list")
	}
}

func TestComboboxNoMatch(t *testing.T) {
	c := typeText(newFocusedCategoryCombo(), "zzzz")
	if len(c.OptionNames()) != 0 {
		t.Errorf("expected no options, got %v", c.OptionNames())
	}
	if !strings.Contains(c.View(), "No match found.") {
		t.Errorf("view should say no match:\n%s", c.View())
	}
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if _, ok := c.Choice(); ok {
		t.Error("enter with no options must not choose")
	}
}

func TestComboboxChooseUnknown(t *testing.T) {
	c := newFocusedCategoryCombo()
	if c.Choose("nope") {
		t.Error("unknown id should not be chosen")
	}
}

func TestComboboxSetGroupsDropsMissingChoice(t *testing.T) {
	c := newFocusedCategoryCombo()
	c.Choose("13")
	c.SetGroups([]catalog.Group{{ID: "g", Heading: "Other", Items: []catalog.Item{{ID: "x", Name: "X"}}}})
	if _, ok := c.Choice(); ok {
		t.Error("choice should be dropped when its item disappears")
	}

	c.Choose("x")
	c.SetGroups([]catalog.Group{{ID: "g2", Heading: "Renamed", Items: []catalog.Item{{ID: "x", Name: "X2"}}}})
	if choice, ok := c.Choice(); !ok || choice.GroupName != "Renamed" || choice.ItemName != "X2" {
		t.Errorf("choice = %+v, %v", choice, ok)
	}
}

func TestComboboxIgnoresKeysWhenBlurred(t *testing.T) {
	c := NewCategoryCombobox(catalog.Default(), newTreeTestTheme())
	c = typeText(c, "lunch")
	if c.IsOpen() || c.input.Value() != "" {
		t.Error("blurred combobox should ignore input")
	}
}

func TestAccountComboboxView(t *testing.T) {
	c := NewAccountCombobox(catalog.Default(), newTreeTestTheme())
	c.Focus()
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyDown})
	out := c.View()
	for _, want := range []string{"Account", "> UOB", "DBS", "OCBC"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}

func TestCategoryComboboxViewShowsHeadings(t *testing.T) {
	c := newFocusedCategoryCombo()
	c, _ = c.Update(tea.KeyMsg{Type: tea.KeyDown})
	out := c.View()
	for _, want := range []string{"Dining Out", "Entertainment", "Lunch"} {
		if !strings.Contains(out, want) {
			t.Errorf("view missing %q:\n%s", want, out)
		}
	}
}
