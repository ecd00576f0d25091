package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/vanderheijden86/tally/pkg/model"
	"github.com/vanderheijden86/tally/pkg/submit"
)

type accountValues struct {
	Name        string
	Currency    string
	Description string
}

func (v accountValues) account() model.Account {
	return model.Account{
		Name:        strings.TrimSpace(v.Name),
		Currency:    v.Currency,
		Description: strings.TrimSpace(v.Description),
	}
}

// IsTerminal reports whether stdin is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func newAccountHuhForm(v *accountValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Name").
				Placeholder("e.g. UOB One").
				CharLimit(model.MaxNameLength).
				Validate(model.ValidateName).
				Value(&v.Name),
			huh.NewSelect[string]().
				Title("Currency").
				Options(huh.NewOptions(model.Currencies...)...).
				Value(&v.Currency),
			huh.NewText().
				Title("Description").
				CharLimit(model.MaxDescriptionLength).
				Validate(model.ValidateDescription).
				Value(&v.Description),
		),
	).WithTheme(huh.ThemeDracula())
}

// sessionAccount is an account submitted during this run. ID is generated
// locally and sent with every submission of the entry.
type sessionAccount struct {
	ID      string
	Account model.Account
}

const accountListWidth = 24

// AccountForm embeds a huh form for accounts next to the list of accounts
// entered this session. Completing the form submits the account; a
// successful submission adds it to the list, or replaces the entry that was
// loaded for editing. ctrl+l moves focus to the list, where enter loads an
// entry (or "Add New" starts a blank one) and d removes it.
type AccountForm struct {
	ctx        context.Context
	submitter  submit.Submitter
	theme      Theme
	values     accountValues
	form       *huh.Form
	submitting bool
	pending    sessionAccount
	err        string
	width      int

	accounts   []sessionAccount
	editing    string // id of the entry in the form, "" for a new account
	listFocus  bool
	listCursor int // 0 is "Add New", i+1 is accounts[i]
}

// NewAccountForm creates an empty account form with an empty list.
func NewAccountForm(ctx context.Context, submitter submit.Submitter, theme Theme) *AccountForm {
	f := &AccountForm{ctx: ctx, submitter: submitter, theme: theme}
	f.values = accountValues{Currency: model.DefaultCurrency}
	f.rebuild()
	return f
}

func (f *AccountForm) rebuild() {
	f.form = newAccountHuhForm(&f.values)
	if f.width > 0 {
		f.form = f.form.WithWidth(f.width)
	}
}

// Init starts the embedded form.
func (f *AccountForm) Init() tea.Cmd {
	return f.form.Init()
}

// Reset clears the values and restarts the form for a new account. The
// session list is kept.
func (f *AccountForm) Reset() tea.Cmd {
	f.values = accountValues{Currency: model.DefaultCurrency}
	f.editing = ""
	f.submitting = false
	f.err = ""
	f.rebuild()
	return f.form.Init()
}

// SetSize updates the form width, leaving room for the list.
func (f *AccountForm) SetSize(width, _ int) {
	f.width = min(max(width-accountListWidth-8, 20), 60)
	f.form = f.form.WithWidth(f.width)
}

// InTextInput is true unless the list has focus: in the form every key
// belongs to huh.
func (f *AccountForm) InTextInput() bool { return !f.listFocus }

// Submitting reports whether a submission is in flight.
func (f *AccountForm) Submitting() bool { return f.submitting }

// ListFocused reports whether keys go to the account list.
func (f *AccountForm) ListFocused() bool { return f.listFocus }

// Accounts returns the accounts entered this session, oldest first.
func (f *AccountForm) Accounts() []model.Account {
	out := make([]model.Account, len(f.accounts))
	for i, a := range f.accounts {
		out[i] = a.Account
	}
	return out
}

// Editing returns the list entry loaded into the form.
func (f *AccountForm) Editing() (model.Account, bool) {
	if i := f.indexOf(f.editing); i >= 0 {
		return f.accounts[i].Account, true
	}
	return model.Account{}, false
}

func (f *AccountForm) indexOf(id string) int {
	if id == "" {
		return -1
	}
	for i, a := range f.accounts {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// Load puts list entry i into the form for editing. Out of range starts a
// new account.
func (f *AccountForm) Load(i int) tea.Cmd {
	if i < 0 || i >= len(f.accounts) {
		return f.Reset()
	}
	a := f.accounts[i].Account
	f.values = accountValues{Name: a.Name, Currency: a.Currency, Description: a.Description}
	f.editing = f.accounts[i].ID
	f.err = ""
	f.rebuild()
	return f.form.Init()
}

// Remove drops list entry i. Removing the entry being edited also clears the
// form.
func (f *AccountForm) Remove(i int) tea.Cmd {
	if i < 0 || i >= len(f.accounts) {
		return nil
	}
	id := f.accounts[i].ID
	f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
	f.listCursor = min(f.listCursor, len(f.accounts))
	if id == f.editing {
		return f.Reset()
	}
	return nil
}

func (f *AccountForm) commit(entry sessionAccount) {
	if i := f.indexOf(entry.ID); i >= 0 {
		f.accounts[i] = entry
		return
	}
	f.accounts = append(f.accounts, entry)
}

// Update forwards messages to the huh form, which relies on its own
// internal messages for field navigation. List keys are handled here.
func (f *AccountForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case submit.SubmitResultMsg:
		if msg.Kind != model.KindAccount {
			return nil
		}
		if msg.Success {
			if f.pending.ID != "" {
				f.commit(f.pending)
			}
			f.pending = sessionAccount{}
			return f.Reset()
		}
		f.submitting = false
		f.pending = sessionAccount{}
		f.err = msg.Err.Error()
		f.rebuild()
		return f.form.Init()
	case tea.KeyMsg:
		if f.submitting {
			return nil
		}
		if key.Matches(msg, accountKeys.List) {
			f.listFocus = !f.listFocus
			f.listCursor = f.indexOf(f.editing) + 1
			return nil
		}
		if f.listFocus {
			return f.updateList(msg)
		}
		if key.Matches(msg, accountKeys.RemoveEditing) && f.editing != "" {
			return f.Remove(f.indexOf(f.editing))
		}
		if msg.String() == "esc" {
			return f.Reset()
		}
	}
	if f.submitting {
		return nil
	}

	form, cmd := f.form.Update(msg)
	if ff, ok := form.(*huh.Form); ok {
		f.form = ff
	}
	return tea.Batch(cmd, f.checkState())
}

func (f *AccountForm) updateList(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, accountKeys.Up):
		if f.listCursor > 0 {
			f.listCursor--
		}
	case key.Matches(msg, accountKeys.Down):
		if f.listCursor < len(f.accounts) {
			f.listCursor++
		}
	case key.Matches(msg, accountKeys.Load):
		f.listFocus = false
		return f.Load(f.listCursor - 1)
	case key.Matches(msg, accountKeys.Remove):
		return f.Remove(f.listCursor - 1)
	case key.Matches(msg, accountKeys.Back):
		f.listFocus = false
	}
	return nil
}

func (f *AccountForm) checkState() tea.Cmd {
	switch f.form.State {
	case huh.StateCompleted:
		acct := f.values.account()
		if err := acct.Validate(); err != nil {
			f.err = err.Error()
			f.rebuild()
			return f.form.Init()
		}
		id := f.editing
		if id == "" {
			id = uuid.NewString()
		}
		acct.ID = id
		f.pending = sessionAccount{ID: id, Account: acct}
		f.err = ""
		f.submitting = true
		return submit.Command(f.ctx, f.submitter, acct)
	case huh.StateAborted:
		return f.Reset()
	}
	return nil
}

// View renders the account list beside the form.
func (f *AccountForm) View() string {
	t := f.theme
	var sb strings.Builder
	title := "New account"
	if f.editing != "" {
		title = "Edit account"
	}
	sb.WriteString(t.PrimaryBold.Render(title))
	sb.WriteString("\n\n")
	sb.WriteString(f.form.View())
	if f.err != "" {
		sb.WriteString("\n")
		sb.WriteString(t.ErrorText.Render(f.err))
	}
	if f.submitting {
		sb.WriteString("\n")
		sb.WriteString(t.MutedText.Render("Submitting..."))
	}
	hint := "ctrl+l accounts"
	if f.editing != "" {
		hint += " · ctrl+x remove"
	}
	sb.WriteString("\n")
	sb.WriteString(t.MutedText.Render(hint))

	return lipgloss.JoinHorizontal(lipgloss.Top, f.listView(), "  ", sb.String())
}

func (f *AccountForm) listView() string {
	t := f.theme
	lines := []string{t.PrimaryBold.Render("Accounts")}
	entry := func(i int, label string, current bool) {
		label = runewidth.Truncate(label, accountListWidth-6, "…")
		prefix := "  "
		if f.listFocus && i == f.listCursor {
			prefix = "> "
		}
		style := t.Base
		if current {
			style = t.Selected
		}
		lines = append(lines, style.Render(prefix+label))
	}
	entry(0, "Add New", f.editing == "")
	for i, a := range f.accounts {
		entry(i+1, fmt.Sprintf("%s (%s)", a.Account.Name, a.Account.Currency), a.ID == f.editing)
	}
	style := t.Panel
	if f.listFocus {
		style = t.PanelOn
	}
	return style.Width(accountListWidth).Render(strings.Join(lines, "\n"))
}

// RunAccountPrompt asks for an account outside the full-screen UI, in huh's
// accessible mode when accessible is set, and submits it.
func RunAccountPrompt(ctx context.Context, submitter submit.Submitter, accessible bool) (model.Account, error) {
	v := accountValues{Currency: model.DefaultCurrency}
	form := newAccountHuhForm(&v).WithAccessible(accessible)
	if err := form.RunWithContext(ctx); err != nil {
		return model.Account{}, err
	}
	acct := v.account()
	if err := acct.Validate(); err != nil {
		return model.Account{}, err
	}
	if submitter == nil {
		return model.Account{}, submit.ErrUnavailable
	}
	if err := submitter.Submit(ctx, acct); err != nil {
		return model.Account{}, fmt.Errorf("submitting account: %w", err)
	}
	return acct, nil
}
