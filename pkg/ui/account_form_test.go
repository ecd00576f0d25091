package ui

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/vanderheijden86/tally/pkg/model"
	"github.com/vanderheijden86/tally/pkg/submit"
)

func TestAccountFormDefaults(t *testing.T) {
	f := NewAccountForm(context.Background(), nil, newTreeTestTheme())
	if f.values.Currency != model.DefaultCurrency {
		t.Errorf("default currency = %q, want %s", f.values.Currency, model.DefaultCurrency)
	}
	if !f.InTextInput() {
		t.Error("account form should own all keys")
	}
	if !strings.Contains(f.View(), "New account") {
		t.Error("missing form title")
	}
}

func TestAccountFormCompletionSubmits(t *testing.T) {
	var buf bytes.Buffer
	f := NewAccountForm(context.Background(), submit.NewJSONLSubmitter(&buf), newTreeTestTheme())
	f.values.Name = "  UOB One "
	f.values.Currency = "USD"
	f.form.State = huh.StateCompleted

	msgs := collectMsgs(f.checkState())
	if !f.Submitting() {
		t.Fatal("expected submission in flight")
	}
	if len(msgs) != 1 {
		t.Fatalf("expected one result, got %v", msgs)
	}
	result, ok := msgs[0].(submit.SubmitResultMsg)
	if !ok || !result.Success || result.Kind != model.KindAccount {
		t.Fatalf("unexpected result %#v", msgs[0])
	}
	for _, want := range []string{`"kind":"account"`, `"name":"UOB One"`, `"currency":"USD"`} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output %s missing %s", buf.String(), want)
		}
	}

	f.Update(result)
	if f.Submitting() || f.values.Name != "" || f.values.Currency != model.DefaultCurrency {
		t.Errorf("success should reset the form, got %+v", f.values)
	}
}

func TestAccountFormIgnoresKeysWhileSubmitting(t *testing.T) {
	f := NewAccountForm(context.Background(), nil, newTreeTestTheme())
	f.values.Name = "Cash"
	f.form.State = huh.StateCompleted
	f.checkState()

	if cmd := f.Update(runeKey("x")); cmd != nil {
		t.Error("expected keys to be ignored while submitting")
	}
	if cmd := f.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd != nil || f.values.Name != "Cash" {
		t.Error("esc must not reset while submitting")
	}
}

func TestAccountFormInvalidCompletionShowsError(t *testing.T) {
	f := NewAccountForm(context.Background(), nil, newTreeTestTheme())
	f.values.Name = "   "
	f.form.State = huh.StateCompleted
	f.checkState()

	if f.Submitting() {
		t.Fatal("invalid account must not be submitted")
	}
	if !strings.Contains(f.View(), "at least one character") {
		t.Error("expected the validation error in the view")
	}
	if f.form.State != huh.StateNormal {
		t.Error("form should be rebuilt for editing")
	}
}

func TestAccountFormFailureKeepsValues(t *testing.T) {
	f := NewAccountForm(context.Background(), nil, newTreeTestTheme())
	f.values.Name = "Wallet"
	f.form.State = huh.StateCompleted

	msgs := collectMsgs(f.checkState())
	if len(msgs) != 1 {
		t.Fatalf("expected one result, got %v", msgs)
	}
	result := msgs[0].(submit.SubmitResultMsg)
	if !errors.Is(result.Err, submit.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", result.Err)
	}
	f.Update(result)

	if f.Submitting() {
		t.Error("failure should end the submission")
	}
	if f.values.Name != "Wallet" {
		t.Errorf("failure must keep the values, got %+v", f.values)
	}
	if !strings.Contains(f.View(), "no submission sink configured") {
		t.Error("expected the failure in the view")
	}
}

func TestAccountFormEscResets(t *testing.T) {
	f := NewAccountForm(context.Background(), nil, newTreeTestTheme())
	f.values.Name = "Draft"
	f.err = "old error"
	f.Update(tea.KeyMsg{Type: tea.KeyEsc})

	if f.values.Name != "" || f.err != "" {
		t.Errorf("esc should clear the form, got %+v err=%q", f.values, f.err)
	}
}

func TestAccountFormAbortResets(t *testing.T) {
	f := NewAccountForm(context.Background(), nil, newTreeTestTheme())
	f.values.Name = "Draft"
	f.form.State = huh.StateAborted
	f.checkState()

	if f.values.Name != "" {
		t.Errorf("abort should clear the form, got %+v", f.values)
	}
}

func TestAccountFormIgnoresTransactionResults(t *testing.T) {
	f := NewAccountForm(context.Background(), nil, newTreeTestTheme())
	f.values.Name = "Keep"
	if cmd := f.Update(submit.SubmitResultMsg{Kind: model.KindTransaction, Success: true}); cmd != nil {
		t.Error("transaction results are not for this form")
	}
	if f.values.Name != "Keep" {
		t.Error("values changed by an unrelated result")
	}
}

func submitAccount(t *testing.T, f *AccountForm, name, currency string) {
	t.Helper()
	f.values.Name = name
	f.values.Currency = currency
	f.form.State = huh.StateCompleted
	msgs := collectMsgs(f.checkState())
	if len(msgs) != 1 {
		t.Fatalf("expected one result, got %v", msgs)
	}
	result, ok := msgs[0].(submit.SubmitResultMsg)
	if !ok || !result.Success {
		t.Fatalf("unexpected result %#v", msgs[0])
	}
	f.Update(result)
}

func accountNames(accts []model.Account) []string {
	names := make([]string, len(accts))
	for i, a := range accts {
		names[i] = a.Name
	}
	return names
}

func TestAccountFormSubmissionsFillList(t *testing.T) {
	var buf bytes.Buffer
	f := NewAccountForm(context.Background(), submit.NewJSONLSubmitter(&buf), newTreeTestTheme())
	submitAccount(t, f, "UOB One", "USD")
	submitAccount(t, f, "Wallet", "SGD")

	if got := accountNames(f.Accounts()); !reflect.DeepEqual(got, []string{"UOB One", "Wallet"}) {
		t.Errorf("accounts = %v", got)
	}
	if f.Accounts()[0].ID == "" || f.Accounts()[0].ID == f.Accounts()[1].ID {
		t.Errorf("entries need distinct ids: %+v", f.Accounts())
	}
	if !strings.Contains(buf.String(), `"id":"`+f.Accounts()[0].ID+`"`) {
		t.Errorf("submitted record should carry the entry id: %s", buf.String())
	}
	view := f.View()
	for _, want := range []string{"Accounts", "Add New", "UOB One (USD)", "Wallet (SGD)"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestAccountFormFailedSubmissionNotListed(t *testing.T) {
	f := NewAccountForm(context.Background(), nil, newTreeTestTheme())
	f.values.Name = "Wallet"
	f.form.State = huh.StateCompleted
	msgs := collectMsgs(f.checkState())
	f.Update(msgs[0])

	if n := len(f.Accounts()); n != 0 {
		t.Errorf("failed submission should not be listed, got %d", n)
	}
}

func TestAccountFormListLoadsEntryForEditing(t *testing.T) {
	var buf bytes.Buffer
	f := NewAccountForm(context.Background(), submit.NewJSONLSubmitter(&buf), newTreeTestTheme())
	submitAccount(t, f, "UOB One", "USD")
	submitAccount(t, f, "Wallet", "SGD")
	id := f.Accounts()[0].ID

	f.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	if !f.ListFocused() || f.InTextInput() {
		t.Fatal("ctrl+l should focus the list")
	}
	f.Update(runeKey("j"))
	f.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if f.ListFocused() {
		t.Error("loading an entry should return to the form")
	}
	acct, ok := f.Editing()
	if !ok || acct.Name != "UOB One" || f.values.Name != "UOB One" || f.values.Currency != "USD" {
		t.Fatalf("expected UOB One loaded, got %+v (%v) values %+v", acct, ok, f.values)
	}
	if !strings.Contains(f.View(), "Edit account") {
		t.Error("title should show editing")
	}

	submitAccount(t, f, "UOB Savings", "USD")
	if got := accountNames(f.Accounts()); !reflect.DeepEqual(got, []string{"UOB Savings", "Wallet"}) {
		t.Errorf("edit should replace the entry in place, got %v", got)
	}
	if f.Accounts()[0].ID != id {
		t.Error("edited entry should keep its id")
	}
	if _, ok := f.Editing(); ok {
		t.Error("form should be back to a new account")
	}
}

func TestAccountFormListAddNew(t *testing.T) {
	f := NewAccountForm(context.Background(), submit.NewJSONLSubmitter(&bytes.Buffer{}), newTreeTestTheme())
	submitAccount(t, f, "Wallet", "SGD")
	f.Load(0)

	f.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	f.Update(runeKey("k"))
	f.Update(tea.KeyMsg{Type: tea.KeyEnter})

	if _, ok := f.Editing(); ok || f.values.Name != "" {
		t.Errorf("Add New should clear the form, got %+v", f.values)
	}
}

func TestAccountFormListRemove(t *testing.T) {
	f := NewAccountForm(context.Background(), submit.NewJSONLSubmitter(&bytes.Buffer{}), newTreeTestTheme())
	submitAccount(t, f, "UOB One", "USD")
	submitAccount(t, f, "Wallet", "SGD")
	f.Load(1)

	f.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	f.Update(runeKey("k"))
	f.Update(runeKey("d"))
	if got := accountNames(f.Accounts()); !reflect.DeepEqual(got, []string{"Wallet"}) {
		t.Fatalf("accounts = %v", got)
	}
	if acct, ok := f.Editing(); !ok || acct.Name != "Wallet" {
		t.Error("removing another entry should keep the edit")
	}

	f.Update(runeKey("d"))
	if n := len(f.Accounts()); n != 0 {
		t.Fatalf("expected empty list, got %d", n)
	}
	if _, ok := f.Editing(); ok || f.values.Name != "" {
		t.Error("removing the edited entry should clear the form")
	}

	f.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if f.ListFocused() {
		t.Error("esc should return to the form")
	}
}

func TestAccountFormCtrlXRemovesEditedEntry(t *testing.T) {
	f := NewAccountForm(context.Background(), submit.NewJSONLSubmitter(&bytes.Buffer{}), newTreeTestTheme())
	submitAccount(t, f, "Wallet", "SGD")

	f.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	if len(f.Accounts()) != 1 {
		t.Fatal("ctrl+x without an edited entry must not remove anything")
	}

	f.Load(0)
	f.Update(tea.KeyMsg{Type: tea.KeyCtrlX})
	if len(f.Accounts()) != 0 || f.values.Name != "" {
		t.Errorf("ctrl+x should remove the edited entry, got %v", f.Accounts())
	}
}
