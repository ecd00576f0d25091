package ui

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/vanderheijden86/tally/pkg/catalog"
	"github.com/vanderheijden86/tally/pkg/debug"
	"github.com/vanderheijden86/tally/pkg/model"
	"github.com/vanderheijden86/tally/pkg/submit"
	"github.com/vanderheijden86/tally/pkg/suggest"
)

// Transaction form fields in focus order.
const (
	fieldName = iota
	fieldAmount
	fieldCategory
	fieldAccount
	fieldDate
	fieldDescription
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "Amount", "Category", "Account", "Date", "Description"}

// TransactionFormOptions wires a TransactionForm to its collaborators.
type TransactionFormOptions struct {
	Catalog   catalog.Catalog
	Suggester suggest.Suggester
	Submitter submit.Submitter
	Now       func() time.Time
	// MarkdownStyle names a glamour style for the review pane; empty means
	// auto.
	MarkdownStyle string
}

// TransactionForm collects a new transaction. Leaving the name field while no
// category is chosen asks the suggester for likely subcategories, shown as
// chips that can be picked with alt+1..3 (or 1..3 from an empty category
// field). ctrl+s validates and shows a review; ctrl+s again submits.
type TransactionForm struct {
	ctx       context.Context
	catalog   catalog.Catalog
	suggester suggest.Suggester
	submitter submit.Submitter
	now       func() time.Time
	theme     Theme

	name        textinput.Model
	amount      textinput.Model
	category    Combobox
	account     Combobox
	date        textinput.Model
	description textarea.Model
	focused     int

	seq         suggest.Sequencer
	pending     bool
	suggestions []catalog.Item
	spinner     spinner.Model

	fieldErrs  [fieldCount]string
	formErr    string
	reviewing  bool
	review     viewport.Model
	markdown   *MarkdownRenderer
	submitting bool

	width  int
	height int
}

// NewTransactionForm creates an empty form focused on the name field.
func NewTransactionForm(ctx context.Context, opts TransactionFormOptions, theme Theme) *TransactionForm {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Suggester == nil {
		opts.Suggester = suggest.FuzzySuggester{}
	}
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = theme.PrimaryBold

	f := &TransactionForm{
		ctx:       ctx,
		catalog:   opts.Catalog,
		suggester: opts.Suggester,
		submitter: opts.Submitter,
		now:       opts.Now,
		theme:     theme,
		spinner:   sp,
		review:    viewport.New(60, 12),
		markdown:  NewMarkdownRendererWithStyle(56, opts.MarkdownStyle),
	}
	f.Reset()
	return f
}

func newFormInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 40
	ti.Prompt = ""
	return ti
}

// Reset clears every field and drops outstanding suggestion lookups.
func (f *TransactionForm) Reset() tea.Cmd {
	f.name = newFormInput("e.g. Chicken rice", model.MaxNameLength)
	f.amount = newFormInput("0.00", 20)
	f.date = newFormInput(model.DateLayout, len(model.DateLayout))
	f.date.SetValue(f.now().Format(model.DateLayout))

	f.description = textarea.New()
	f.description.Placeholder = "Optional"
	f.description.CharLimit = model.MaxDescriptionLength
	f.description.ShowLineNumbers = false
	f.description.SetWidth(40)
	f.description.SetHeight(2)

	f.category = NewCategoryCombobox(f.catalog, f.theme)
	f.account = NewAccountCombobox(f.catalog, f.theme)

	f.seq.Invalidate()
	f.pending = false
	f.suggestions = nil
	f.fieldErrs = [fieldCount]string{}
	f.formErr = ""
	f.reviewing = false
	f.submitting = false
	f.focused = fieldName
	return f.focusField(fieldName)
}

// SetCatalog swaps the reference data, keeping choices that still exist.
func (f *TransactionForm) SetCatalog(cat catalog.Catalog) {
	f.catalog = cat
	f.category.SetGroups(cat.CategoryGroups())
	f.account.SetGroups([]catalog.Group{cat.AccountGroup()})
}

// SetSize updates the available dimensions.
func (f *TransactionForm) SetSize(width, height int) {
	f.width = width
	f.height = height
	w := min(max(width-4, 20), 60)
	f.name.Width = w
	f.amount.Width = w
	f.date.Width = w
	f.description.SetWidth(w)
	f.category.SetWidth(w)
	f.account.SetWidth(w)
	f.review.Width = w + 4
	f.review.Height = max(height-4, 5)
	f.markdown.SetWidth(w)
}

// InTextInput reports whether keys currently go to a text field, so that
// single-letter shortcuts must not be intercepted.
func (f *TransactionForm) InTextInput() bool {
	return !f.reviewing
}

// Pending reports whether a suggestion lookup is in flight.
func (f *TransactionForm) Pending() bool { return f.pending }

// Suggestions returns the chips currently offered.
func (f *TransactionForm) Suggestions() []catalog.Item {
	if _, ok := f.category.Choice(); ok {
		return nil
	}
	return f.suggestions
}

// Reviewing reports whether the review pane is showing.
func (f *TransactionForm) Reviewing() bool { return f.reviewing }

// Update handles messages addressed to the form.
func (f *TransactionForm) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case suggest.SuggestionsMsg:
		return f.applySuggestions(msg)

	case spinner.TickMsg:
		if !f.pending {
			return nil
		}
		var cmd tea.Cmd
		f.spinner, cmd = f.spinner.Update(msg)
		return cmd

	case submit.SubmitResultMsg:
		if msg.Kind != model.KindTransaction {
			return nil
		}
		f.submitting = false
		if msg.Success {
			return f.Reset()
		}
		f.reviewing = false
		f.formErr = msg.Err.Error()
		return f.focusField(f.focused)

	case tea.KeyMsg:
		if f.submitting {
			return nil
		}
		if f.reviewing {
			return f.updateReview(msg)
		}
		return f.updateEditing(msg)

	default:
		// Cursor blinks and other field-internal messages.
		if f.reviewing {
			return nil
		}
		return f.updateFocused(msg)
	}
}

func (f *TransactionForm) updateReview(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, appKeys.Submit), msg.String() == "enter":
		tx, err := f.Build()
		if err != nil {
			f.reviewing = false
			return nil
		}
		f.submitting = true
		return submit.Command(f.ctx, f.submitter, tx)
	case msg.String() == "esc":
		f.reviewing = false
		return f.focusField(f.focused)
	}
	var cmd tea.Cmd
	f.review, cmd = f.review.Update(msg)
	return cmd
}

func (f *TransactionForm) updateEditing(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, appKeys.Submit):
		return f.startReview()
	case key.Matches(msg, appKeys.Next):
		return f.moveFocus(1)
	case key.Matches(msg, appKeys.Prev):
		return f.moveFocus(-1)
	}

	if n, ok := chipKey(msg, f.focused == fieldCategory && f.category.Value() == ""); ok {
		if chips := f.Suggestions(); n <= len(chips) {
			f.chooseCategory(chips[n-1].ID)
			return nil
		}
	}

	cmd := f.updateFocused(msg)
	f.fieldErrs[f.focused] = ""
	return cmd
}

// updateFocused hands msg to the focused field.
func (f *TransactionForm) updateFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch f.focused {
	case fieldName:
		f.name, cmd = f.name.Update(msg)
	case fieldAmount:
		f.amount, cmd = f.amount.Update(msg)
	case fieldCategory:
		_, had := f.category.Choice()
		f.category, cmd = f.category.Update(msg)
		if _, has := f.category.Choice(); has && !had {
			f.categoryChosen()
		}
	case fieldAccount:
		f.account, cmd = f.account.Update(msg)
	case fieldDate:
		f.date, cmd = f.date.Update(msg)
	case fieldDescription:
		f.description, cmd = f.description.Update(msg)
	}
	return cmd
}

// chipKey maps alt+1..3, or bare 1..3 when allowed, to a chip number.
func chipKey(msg tea.KeyMsg, bareDigits bool) (int, bool) {
	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 {
		return 0, false
	}
	r := msg.Runes[0]
	if r < '1' || r > '3' {
		return 0, false
	}
	if !msg.Alt && !bareDigits {
		return 0, false
	}
	return int(r - '0'), true
}

func (f *TransactionForm) chooseCategory(id string) {
	if f.category.Choose(id) {
		f.categoryChosen()
		f.fieldErrs[fieldCategory] = ""
	}
}

// categoryChosen makes outstanding lookups stale; their answers no longer
// matter once the user picked.
func (f *TransactionForm) categoryChosen() {
	f.seq.Invalidate()
	f.pending = false
}

func (f *TransactionForm) moveFocus(delta int) tea.Cmd {
	leaving := f.focused
	next := (f.focused + delta + fieldCount) % fieldCount
	cmds := []tea.Cmd{f.focusField(next)}
	if leaving == fieldName {
		cmds = append(cmds, f.lookupSuggestions())
	}
	return tea.Batch(cmds...)
}

func (f *TransactionForm) focusField(i int) tea.Cmd {
	f.name.Blur()
	f.amount.Blur()
	f.category.Blur()
	f.account.Blur()
	f.date.Blur()
	f.description.Blur()

	f.focused = i
	switch i {
	case fieldName:
		return f.name.Focus()
	case fieldAmount:
		return f.amount.Focus()
	case fieldCategory:
		return f.category.Focus()
	case fieldAccount:
		return f.account.Focus()
	case fieldDate:
		return f.date.Focus()
	case fieldDescription:
		return f.description.Focus()
	}
	return nil
}

// lookupSuggestions starts a sequenced lookup when there is a name and no
// category yet.
func (f *TransactionForm) lookupSuggestions() tea.Cmd {
	text := strings.TrimSpace(f.name.Value())
	if text == "" {
		return nil
	}
	if _, ok := f.category.Choice(); ok {
		return nil
	}
	seq := f.seq.Next()
	f.pending = true
	debug.Log("suggest: lookup #%d for %q", seq, text)
	return tea.Batch(
		suggest.Lookup(f.ctx, f.suggester, seq, text, f.catalog.Subcategories()),
		f.spinner.Tick,
	)
}

func (f *TransactionForm) applySuggestions(msg suggest.SuggestionsMsg) tea.Cmd {
	if !f.seq.IsCurrent(msg.Seq) {
		debug.Log("suggest: dropping stale response #%d", msg.Seq)
		return nil
	}
	f.pending = false
	if msg.Err != nil {
		log.Printf("category suggestion for %q failed: %v", msg.Text, msg.Err)
		f.suggestions = nil
		return nil
	}
	f.suggestions = msg.Items
	return nil
}

// Build validates every field and returns the transaction, or all field
// errors joined in form order.
func (f *TransactionForm) Build() (model.Transaction, error) {
	f.fieldErrs = [fieldCount]string{}
	f.formErr = ""

	tx := model.Transaction{
		Name:        strings.TrimSpace(f.name.Value()),
		Description: strings.TrimSpace(f.description.Value()),
	}
	if err := model.ValidateName(tx.Name); err != nil {
		f.fieldErrs[fieldName] = err.Error()
	}
	if amount, err := model.ParseAmount(f.amount.Value()); err != nil {
		f.fieldErrs[fieldAmount] = err.Error()
	} else {
		tx.Amount = amount
	}
	if c, ok := f.category.Choice(); !ok {
		f.fieldErrs[fieldCategory] = "please select a category"
	} else if g, it, found := catalog.GroupOf(f.catalog.CategoryGroups(), c.ItemID); found {
		tx.CategoryID, tx.CategoryName = g.ID, g.Heading
		tx.SubcategoryID, tx.SubcategoryName = it.ID, it.Name
	} else {
		f.fieldErrs[fieldCategory] = fmt.Sprintf("category %q is no longer available", c.ItemName)
	}
	if c, ok := f.account.Choice(); !ok {
		f.fieldErrs[fieldAccount] = "please select an account"
	} else if acc, found := f.catalog.Account(c.ItemID); found {
		tx.AccountID, tx.AccountName = acc.ID, acc.Name
	} else {
		f.fieldErrs[fieldAccount] = fmt.Sprintf("account %q is no longer available", c.ItemName)
	}
	if d, err := model.ParseDate(f.date.Value()); err != nil {
		f.fieldErrs[fieldDate] = err.Error()
	} else {
		tx.Date = d
	}
	if err := model.ValidateDescription(tx.Description); err != nil {
		f.fieldErrs[fieldDescription] = err.Error()
	}

	var errs []error
	for i, msg := range f.fieldErrs {
		if msg != "" {
			errs = append(errs, fmt.Errorf("%s: %s", strings.ToLower(fieldLabels[i]), msg))
		}
	}
	if len(errs) > 0 {
		return model.Transaction{}, errors.Join(errs...)
	}
	if err := tx.Validate(); err != nil {
		f.formErr = err.Error()
		return model.Transaction{}, err
	}
	return tx, nil
}

func (f *TransactionForm) startReview() tea.Cmd {
	tx, err := f.Build()
	if err != nil {
		for i, msg := range f.fieldErrs {
			if msg != "" {
				return f.focusField(i)
			}
		}
		return nil
	}
	f.reviewing = true
	acc, _ := f.catalog.Account(tx.AccountID)
	rendered, err := f.markdown.Render(transactionMarkdown(tx, acc.Currency))
	if err != nil {
		debug.Log("review: markdown render failed: %v", err)
	}
	f.review.SetContent(rendered)
	f.review.GotoTop()
	return nil
}

func transactionMarkdown(tx model.Transaction, currency string) string {
	var sb strings.Builder
	sb.WriteString("# Review transaction\n\n")
	fmt.Fprintf(&sb, "- **Name:** %s\n", tx.Name)
	fmt.Fprintf(&sb, "- **Amount:** %s %s\n", tx.Amount.StringFixed(model.AmountDecimalPlaces), currency)
	fmt.Fprintf(&sb, "- **Category:** %s / %s\n", tx.CategoryName, tx.SubcategoryName)
	fmt.Fprintf(&sb, "- **Account:** %s\n", tx.AccountName)
	fmt.Fprintf(&sb, "- **Date:** %s\n", tx.Date.Format(model.DateLayout))
	if tx.Description != "" {
		fmt.Fprintf(&sb, "- **Description:** %s\n", tx.Description)
	}
	sb.WriteString("\nPress **ctrl+s** to submit or **esc** to keep editing.\n")
	return sb.String()
}

// View renders the form, or the review pane.
func (f *TransactionForm) View() string {
	t := f.theme
	if f.reviewing {
		return f.review.View()
	}

	var sb strings.Builder
	sb.WriteString(t.PrimaryBold.Render("New transaction"))
	sb.WriteString("\n\n")

	writeField := func(i int, body string) {
		sb.WriteString(body)
		sb.WriteString("\n")
		if msg := f.fieldErrs[i]; msg != "" {
			sb.WriteString(t.ErrorText.Render("  " + msg))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	label := func(i int) string {
		if f.focused == i {
			return t.PrimaryBold.Render(fieldLabels[i])
		}
		return t.MutedText.Render(fieldLabels[i])
	}

	writeField(fieldName, label(fieldName)+"\n  "+f.name.View())
	writeField(fieldAmount, label(fieldAmount)+"\n  "+f.amount.View())
	writeField(fieldCategory, f.category.View()+f.chipsView())
	writeField(fieldAccount, f.account.View())
	writeField(fieldDate, label(fieldDate)+"\n  "+f.date.View())
	writeField(fieldDescription, label(fieldDescription)+"\n"+f.description.View())

	if f.formErr != "" {
		sb.WriteString(t.ErrorText.Render(f.formErr))
		sb.WriteString("\n")
	}
	if f.submitting {
		sb.WriteString(t.MutedText.Render("Submitting..."))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (f *TransactionForm) chipsView() string {
	t := f.theme
	if f.pending {
		return "\n  " + f.spinner.View() + t.MutedText.Render(" Finding categories...")
	}
	chips := f.Suggestions()
	if len(chips) == 0 {
		return ""
	}
	parts := make([]string, len(chips))
	for i, c := range chips {
		parts[i] = t.Chip.Render(fmt.Sprintf("%d %s", i+1, c.Name))
	}
	return "\n  " + t.MutedText.Render("Suggested: ") + strings.Join(parts, " ")
}
