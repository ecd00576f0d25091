package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/tally/pkg/catalog"
	"github.com/vanderheijden86/tally/pkg/config"
	"github.com/vanderheijden86/tally/pkg/model"
	"github.com/vanderheijden86/tally/pkg/submit"
	"github.com/vanderheijden86/tally/pkg/suggest"
)

// form is what each screen of the app implements.
type form interface {
	Update(msg tea.Msg) tea.Cmd
	View() string
	SetSize(width, height int)
	InTextInput() bool
}

// Options wires the app model to its collaborators.
type Options struct {
	Context   context.Context
	Config    config.Config
	Catalog   catalog.Catalog
	Suggester suggest.Suggester
	Submitter submit.Submitter
	// Form is the screen shown first; empty uses the configured default.
	Form string
	// SelectedID preselects a node in the categories screen.
	SelectedID string
	// MarkdownStyle overrides the glamour style of review panes.
	MarkdownStyle string
	Theme         *Theme
}

// Model is the root bubbletea model: a tab bar over the transaction,
// account and categories screens plus a status line.
type Model struct {
	ctx     context.Context
	cfg     config.Config
	theme   Theme
	catalog catalog.Catalog

	transaction *TransactionForm
	account     *AccountForm
	categories  *CategoriesForm
	active      string

	showHelp  bool
	status    string
	statusErr bool

	width  int
	height int
	ready  bool
}

// NewModel builds the app model.
func NewModel(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	theme := DefaultTheme(lipgloss.DefaultRenderer())
	if opts.Theme != nil {
		theme = *opts.Theme
	}
	active := opts.Form
	if active == "" {
		active = opts.Config.UI.DefaultForm
	}
	if !config.IsForm(active) {
		active = config.FormTransaction
	}

	m := Model{
		ctx:     opts.Context,
		cfg:     opts.Config,
		theme:   theme,
		catalog: opts.Catalog,
		active:  active,
	}
	m.transaction = NewTransactionForm(opts.Context, TransactionFormOptions{
		Catalog:       opts.Catalog,
		Suggester:     opts.Suggester,
		Submitter:     opts.Submitter,
		MarkdownStyle: opts.MarkdownStyle,
	}, theme)
	m.account = NewAccountForm(opts.Context, opts.Submitter, theme)
	m.categories = NewCategoriesForm(opts.Catalog, CategoriesOptions{
		SelectedID: opts.SelectedID,
		ExpandAll:  opts.Config.UI.ExpandAll,
		RTL:        opts.Config.RTL(),
		Indicator:  opts.Config.UI.ShowIndicator(),
		OpenIcon:   opts.Config.UI.OpenIcon,
		CloseIcon:  opts.Config.UI.CloseIcon,
	}, theme)
	return m
}

// Init starts the embedded forms.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.account.Init(), m.focusActive())
}

func (m Model) current() form {
	switch m.active {
	case config.FormAccount:
		return m.account
	case config.FormCategories:
		return m.categories
	}
	return m.transaction
}

func (m Model) focusActive() tea.Cmd {
	switch m.active {
	case config.FormTransaction:
		return m.transaction.focusField(m.transaction.focused)
	case config.FormAccount:
		return m.account.Init()
	}
	return nil
}

// Active names the screen being shown.
func (m Model) Active() string { return m.active }

// Status returns the status line text.
func (m Model) Status() string { return m.status }

// ShowingHelp reports whether the help overlay is open.
func (m Model) ShowingHelp() bool { return m.showHelp }

// Catalog returns the catalog in use.
func (m Model) Catalog() catalog.Catalog { return m.catalog }

// Transaction returns the transaction screen.
func (m Model) Transaction() *TransactionForm { return m.transaction }

// Categories returns the categories screen.
func (m Model) Categories() *CategoriesForm { return m.categories }

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

// Update routes messages: global keys first, results to the screen that
// asked for them, everything else to the active screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		bodyHeight := max(msg.Height-4, 5)
		m.transaction.SetSize(msg.Width, bodyHeight)
		m.account.SetSize(msg.Width, bodyHeight)
		m.categories.SetSize(msg.Width, bodyHeight)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case submit.SubmitResultMsg:
		label := "Transaction"
		if msg.Kind == model.KindAccount {
			label = "Account"
		}
		if msg.Success {
			m.setStatus(label+" submitted", false)
		} else {
			m.setStatus(fmt.Sprintf("%s not submitted: %v", label, msg.Err), true)
		}
		return m, tea.Batch(m.transaction.Update(msg), m.account.Update(msg))

	case CopiedMsg:
		if msg.Err != nil {
			m.setStatus(fmt.Sprintf("Copy failed: %v", msg.Err), true)
		} else {
			m.setStatus(fmt.Sprintf("Copied %s", msg.ID), false)
		}
		return m, nil

	case FolderActionMsg:
		m.setStatus(fmt.Sprintf("%s %s: not available yet", msg.Action, msg.FolderName), false)
		return m, nil

	case CatalogReloadedMsg:
		m.catalog = msg.Catalog
		m.transaction.SetCatalog(msg.Catalog)
		m.categories.SetCatalog(msg.Catalog)
		m.setStatus("Catalog reloaded", false)
		return m, nil

	case CatalogErrorMsg:
		m.setStatus(fmt.Sprintf("Catalog not reloaded: %v", msg.Err), true)
		return m, nil

	case suggest.SuggestionsMsg, spinner.TickMsg:
		return m, m.transaction.Update(msg)
	}

	return m, m.current().Update(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, appKeys.Quit) {
		return m, tea.Quit
	}

	if m.showHelp {
		if msg.String() == "esc" || key.Matches(msg, appKeys.Help) || key.Matches(msg, appKeys.HelpAnywhere) {
			m.showHelp = false
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, appKeys.HelpAnywhere):
		m.showHelp = true
		return m, nil
	case key.Matches(msg, appKeys.Help) && !m.current().InTextInput():
		m.showHelp = true
		return m, nil
	case key.Matches(msg, appKeys.Transaction):
		return m.switchTo(config.FormTransaction)
	case key.Matches(msg, appKeys.Account):
		return m.switchTo(config.FormAccount)
	case key.Matches(msg, appKeys.Categories):
		return m.switchTo(config.FormCategories)
	}

	cmd := m.current().Update(msg)
	if m.active == config.FormCategories {
		if s := m.categories.Status(); s != "" && s != m.status {
			m.setStatus(s, false)
		}
	}
	return m, cmd
}

func (m Model) switchTo(name string) (tea.Model, tea.Cmd) {
	if m.active == name {
		return m, nil
	}
	m.active = name
	return m, m.focusActive()
}

func (m Model) helpContext() Context {
	switch m.active {
	case config.FormAccount:
		return ContextAccount
	case config.FormCategories:
		return ContextCategories
	}
	return ContextTransaction
}

// View renders tabs, the active screen and the status line.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	body := m.current().View()
	if m.showHelp {
		help := RenderContextHelp(m.helpContext(), m.theme, m.width, m.height)
		body = lipgloss.Place(m.width, max(m.height-4, 1), lipgloss.Center, lipgloss.Center, help)
	}
	return lipgloss.JoinVertical(lipgloss.Left, m.renderTabs(), "", body, m.renderFooter())
}

func (m Model) renderTabs() string {
	t := m.theme
	tabs := []struct{ name, label string }{
		{config.FormTransaction, "Transaction ^T"},
		{config.FormAccount, "Account ^O"},
		{config.FormCategories, "Categories ^G"},
	}
	parts := make([]string, 0, len(tabs))
	for _, tab := range tabs {
		style := t.Tab
		if tab.name == m.active {
			style = t.TabOn
		}
		parts = append(parts, style.Render(tab.label))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	if m.cfg.RTL() {
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, bar)
	}
	return bar
}

func (m Model) renderFooter() string {
	t := m.theme
	status := m.status
	statusStyle := t.SuccessText
	if m.statusErr {
		statusStyle = t.ErrorText
	}
	left := statusStyle.Render(status)

	hint := "F1: help • ctrl+c: quit"
	if !m.current().InTextInput() {
		hint = "?: help • ctrl+c: quit"
	}
	right := t.MutedText.Render(hint)

	remaining := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 1)
	filler := t.Renderer.NewStyle().Width(remaining).Render("")
	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, filler, right)
}
