package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tally/pkg/catalog"
	"github.com/vanderheijden86/tally/pkg/debug"
	"github.com/vanderheijden86/tally/pkg/tree"
)

// Categories panels.
const (
	PanelExpenses = "expenses"
	PanelIncomes  = "incomes"
)

// CategoriesOptions configures the categories browser.
type CategoriesOptions struct {
	SelectedID string
	ExpandAll  bool
	RTL        bool
	Indicator  bool
	OpenIcon   string
	CloseIcon  string
}

// CategoriesForm shows the expense and income trees side by side. tab moves
// focus between them; each tree keeps its own selection and expansion.
type CategoriesForm struct {
	opts     CategoriesOptions
	theme    Theme
	expenses *TreeView
	incomes  *TreeView
	focused  string
	status   string
	width    int
	height   int
}

// NewCategoriesForm builds both trees from cat. opts.SelectedID is applied to
// whichever tree holds it, or to the expense tree when neither does.
func NewCategoriesForm(cat catalog.Catalog, opts CategoriesOptions, theme Theme) *CategoriesForm {
	f := &CategoriesForm{opts: opts, theme: theme, focused: PanelExpenses}

	expSel, incSel := opts.SelectedID, ""
	if _, ok := tree.Find(cat.Incomes, opts.SelectedID); ok {
		expSel, incSel = "", opts.SelectedID
		f.focused = PanelIncomes
	}
	f.expenses = f.newView(PanelExpenses, "Expenses", cat.Expenses, tree.Config{
		InitialSelectedID: expSel,
		ExpandAll:         opts.ExpandAll,
	})
	f.incomes = f.newView(PanelIncomes, "Incomes", cat.Incomes, tree.Config{
		InitialSelectedID: incSel,
		ExpandAll:         opts.ExpandAll,
	})
	f.applyFocus()
	return f
}

func (f *CategoriesForm) newView(panel, title string, roots []tree.Node, cfg tree.Config) *TreeView {
	cfg.OnSelect = func(id string) { f.selectionChanged(panel, roots, id) }
	cfg.OnExpansionChange = func(id string, expanded []string) {
		debug.Log("categories: %s expansion change %q -> %v", panel, id, expanded)
	}
	ctrl := tree.New(roots, cfg)
	return NewTreeView(roots, ctrl, TreeViewOptions{
		Title:     title,
		RTL:       f.opts.RTL,
		Indicator: f.opts.Indicator,
		OpenIcon:  f.opts.OpenIcon,
		CloseIcon: f.opts.CloseIcon,
	}, f.theme)
}

func (f *CategoriesForm) selectionChanged(panel string, roots []tree.Node, id string) {
	if id == "" {
		f.status = fmt.Sprintf("%s: selection cleared", panel)
		return
	}
	name := id
	if n, ok := tree.Find(roots, id); ok {
		name = n.Name
	}
	f.status = fmt.Sprintf("%s: selected %s (%s)", panel, name, id)
}

// SetCatalog swaps the trees, carrying over selection and expansion.
func (f *CategoriesForm) SetCatalog(cat catalog.Catalog) {
	f.expenses = f.rebuild(PanelExpenses, "Expenses", cat.Expenses, f.expenses)
	f.incomes = f.rebuild(PanelIncomes, "Incomes", cat.Incomes, f.incomes)
	f.applyFocus()
	f.SetSize(f.width, f.height)
}

func (f *CategoriesForm) rebuild(panel, title string, roots []tree.Node, old *TreeView) *TreeView {
	state := old.Controller().State()
	selected, _ := state.Selected()
	return f.newView(panel, title, roots, tree.Config{
		InitialSelectedID: selected,
		InitialExpanded:   state.Expanded(),
		KeepExpanded:      true,
	})
}

// Expenses returns the expense tree view.
func (f *CategoriesForm) Expenses() *TreeView { return f.expenses }

// Incomes returns the income tree view.
func (f *CategoriesForm) Incomes() *TreeView { return f.incomes }

// Focused names the panel receiving keys.
func (f *CategoriesForm) Focused() string { return f.focused }

// Status describes the last selection change.
func (f *CategoriesForm) Status() string { return f.status }

// InTextInput is false: the trees use single-letter keys.
func (f *CategoriesForm) InTextInput() bool { return false }

// Selected returns the selection of both trees.
func (f *CategoriesForm) Selected() (expense, income string) {
	expense, _ = f.expenses.Controller().State().Selected()
	income, _ = f.incomes.Controller().State().Selected()
	return expense, income
}

func (f *CategoriesForm) applyFocus() {
	if f.focused == PanelIncomes {
		f.expenses.Blur()
		f.incomes.Focus()
		return
	}
	f.incomes.Blur()
	f.expenses.Focus()
}

// SetSize splits the width between the two panels.
func (f *CategoriesForm) SetSize(width, height int) {
	f.width = width
	f.height = height
	panelWidth := max((width-4)/2, 10)
	panelHeight := max(height-4, 3)
	f.expenses.SetSize(panelWidth-4, panelHeight)
	f.incomes.SetSize(panelWidth-4, panelHeight)
}

// Update routes keys to the focused tree.
func (f *CategoriesForm) Update(msg tea.Msg) tea.Cmd {
	focusedView := f.expenses
	if f.focused == PanelIncomes {
		focusedView = f.incomes
	}
	if keyMsg, ok := msg.(tea.KeyMsg); ok && key.Matches(keyMsg, appKeys.FocusPanel) && !focusedView.MenuOpen() {
		if f.focused == PanelExpenses {
			f.focused = PanelIncomes
		} else {
			f.focused = PanelExpenses
		}
		f.applyFocus()
		return nil
	}
	return focusedView.Update(msg)
}

// View renders both panels; right to left layouts put expenses on the right.
func (f *CategoriesForm) View() string {
	t := f.theme
	panel := func(v *TreeView) string {
		style := t.Panel
		if v.Focused() {
			style = t.PanelOn
		}
		if f.width > 0 {
			style = style.Width(max((f.width-4)/2-2, 8))
		}
		return style.Render(v.View())
	}

	left, right := panel(f.expenses), panel(f.incomes)
	if f.opts.RTL {
		left, right = right, left
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, " ", right)

	var sb strings.Builder
	sb.WriteString(body)
	if f.status != "" {
		sb.WriteString("\n")
		sb.WriteString(t.MutedText.Render(f.status))
	}
	return sb.String()
}
