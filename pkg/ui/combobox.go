package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	"github.com/vanderheijden86/tally/pkg/catalog"
)

// ComboChoice is what a Combobox resolves to.
type ComboChoice struct {
	GroupID   string
	GroupName string
	ItemID    string
	ItemName  string
}

// comboOption points at one item of one group.
type comboOption struct {
	group int
	item  int
}

// Combobox is a text input with a filterable, grouped list of choices. Typing
// filters the list with fuzzy matching; enter picks the highlighted option.
// Editing the text after a pick clears it.
type Combobox struct {
	label   string
	groups  []catalog.Group
	input   textinput.Model
	options []comboOption
	cursor  int
	open    bool
	focused bool
	chosen  ComboChoice
	has     bool
	theme   Theme
	width   int
	maxRows int
}

// NewCombobox creates a combobox over groups.
func NewCombobox(label, placeholder string, groups []catalog.Group, theme Theme) Combobox {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 50
	ti.Width = 30
	ti.Prompt = ""

	c := Combobox{
		label:   label,
		groups:  groups,
		input:   ti,
		theme:   theme,
		maxRows: 8,
	}
	c.applyFilter()
	return c
}

// NewAccountCombobox lists the catalog's accounts without headings.
func NewAccountCombobox(cat catalog.Catalog, theme Theme) Combobox {
	return NewCombobox("Account", "Select account...", []catalog.Group{cat.AccountGroup()}, theme)
}

// NewCategoryCombobox lists expense subcategories under their categories.
func NewCategoryCombobox(cat catalog.Catalog, theme Theme) Combobox {
	return NewCombobox("Category", "Select category...", cat.CategoryGroups(), theme)
}

// SetWidth limits how wide the input and list render.
func (c *Combobox) SetWidth(w int) {
	c.width = w
	if w > 4 {
		c.input.Width = w - 4
	}
}

// SetGroups replaces the options, keeping the current choice when its item
// still exists.
func (c *Combobox) SetGroups(groups []catalog.Group) {
	c.groups = groups
	if c.has && !c.Choose(c.chosen.ItemID) {
		c.Clear()
	}
	c.applyFilter()
}

// Focus gives the combobox keyboard input.
func (c *Combobox) Focus() tea.Cmd {
	c.focused = true
	return c.input.Focus()
}

// Blur removes focus and closes the list.
func (c *Combobox) Blur() {
	c.focused = false
	c.open = false
	c.input.Blur()
}

// IsOpen reports whether the option list is showing.
func (c Combobox) IsOpen() bool { return c.open }

// Value returns the typed text.
func (c Combobox) Value() string { return c.input.Value() }

// Choice returns the picked option.
func (c Combobox) Choice() (ComboChoice, bool) {
	return c.chosen, c.has
}

// Choose picks the item with the given id. Returns false if no group holds it.
func (c *Combobox) Choose(itemID string) bool {
	for _, g := range c.groups {
		for _, it := range g.Items {
			if it.ID == itemID {
				c.chosen = ComboChoice{GroupID: g.ID, GroupName: g.Heading, ItemID: it.ID, ItemName: it.Name}
				c.has = true
				c.input.SetValue(it.Name)
				c.input.CursorEnd()
				c.open = false
				return true
			}
		}
	}
	return false
}

// Clear drops the choice and the typed text.
func (c *Combobox) Clear() {
	c.chosen = ComboChoice{}
	c.has = false
	c.input.SetValue("")
	c.applyFilter()
}

// Update handles keys while focused.
func (c Combobox) Update(msg tea.Msg) (Combobox, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !c.focused {
		return c, nil
	}

	if c.open {
		switch {
		case key.Matches(keyMsg, comboKeys.Up):
			if c.cursor > 0 {
				c.cursor--
			}
			return c, nil
		case key.Matches(keyMsg, comboKeys.Down):
			if c.cursor < len(c.options)-1 {
				c.cursor++
			}
			return c, nil
		case key.Matches(keyMsg, comboKeys.Choose):
			if opt, ok := c.highlighted(); ok {
				c.Choose(c.groups[opt.group].Items[opt.item].ID)
			}
			c.open = false
			return c, nil
		case key.Matches(keyMsg, comboKeys.Close):
			c.open = false
			return c, nil
		}
	} else if key.Matches(keyMsg, comboKeys.Open) || key.Matches(keyMsg, comboKeys.Choose) {
		c.open = true
		c.applyFilter()
		return c, nil
	}

	before := c.input.Value()
	var cmd tea.Cmd
	c.input, cmd = c.input.Update(msg)
	if c.input.Value() != before {
		c.has = false
		c.chosen = ComboChoice{}
		c.open = true
		c.applyFilter()
	}
	return c, cmd
}

func (c Combobox) highlighted() (comboOption, bool) {
	if c.cursor < 0 || c.cursor >= len(c.options) {
		return comboOption{}, false
	}
	return c.options[c.cursor], true
}

// applyFilter lists every option in catalog order when the text is empty or
// is the current choice, and fuzzy matches against "heading item" otherwise.
func (c *Combobox) applyFilter() {
	query := strings.TrimSpace(c.input.Value())
	var all []comboOption
	var labels []string
	for gi, g := range c.groups {
		for ii, it := range g.Items {
			all = append(all, comboOption{group: gi, item: ii})
			labels = append(labels, strings.TrimSpace(g.Heading+" "+it.Name))
		}
	}

	if query == "" || (c.has && query == c.chosen.ItemName) {
		c.options = all
	} else {
		matches := fuzzy.Find(query, labels)
		c.options = make([]comboOption, len(matches))
		for i, m := range matches {
			c.options[i] = all[m.Index]
		}
	}
	if c.cursor >= len(c.options) {
		c.cursor = max(0, len(c.options)-1)
	}
}

// OptionNames lists the item names currently offered, for tests and help.
func (c Combobox) OptionNames() []string {
	names := make([]string, len(c.options))
	for i, opt := range c.options {
		names[i] = c.groups[opt.group].Items[opt.item].Name
	}
	return names
}

// View renders the label, the input and, when open, the option list.
func (c Combobox) View() string {
	t := c.theme
	var sb strings.Builder

	label := t.MutedText.Render(c.label)
	if c.focused {
		label = t.PrimaryBold.Render(c.label)
	}
	sb.WriteString(label)
	sb.WriteString("\n")
	sb.WriteString("  ")
	sb.WriteString(c.input.View())

	if !c.open {
		return sb.String()
	}
	if len(c.options) == 0 {
		sb.WriteString("\n")
		sb.WriteString(t.MutedText.Render("    No match found."))
		return sb.String()
	}

	start := 0
	if c.cursor >= c.maxRows {
		start = c.cursor - c.maxRows + 1
	}
	end := min(start+c.maxRows, len(c.options))
	lastGroup := -1
	for i := start; i < end; i++ {
		opt := c.options[i]
		g := c.groups[opt.group]
		if opt.group != lastGroup && g.Heading != "" {
			sb.WriteString("\n")
			sb.WriteString(t.MutedText.Render("  " + g.Heading))
		}
		lastGroup = opt.group

		it := g.Items[opt.item]
		name := it.Name
		if c.width > 0 {
			name = runewidth.Truncate(name, max(4, c.width-8), "…")
		}
		prefix := "    "
		if i == c.cursor {
			prefix = "  > "
		}
		line := prefix + name
		if c.has && c.chosen.ItemID == it.ID {
			line += " ✓"
		}
		sb.WriteString("\n")
		if i == c.cursor {
			sb.WriteString(t.Selected.Render(line))
		} else {
			sb.WriteString(t.Base.Render(line))
		}
	}
	return sb.String()
}
