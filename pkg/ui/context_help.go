package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Context identifies which screen the help overlay describes.
type Context string

const (
	ContextTransaction Context = "transaction"
	ContextAccount     Context = "account"
	ContextCategories  Context = "categories"
)

// ContextHelpContent holds compact help for each screen. Content should fit
// on one screen without scrolling.
var ContextHelpContent = map[Context]string{
	ContextTransaction: contextHelpTransaction,
	ContextAccount:     contextHelpAccount,
	ContextCategories:  contextHelpCategories,
}

// GetContextHelp returns the help content for a given context, falling back
// to the global keys.
func GetContextHelp(ctx Context) string {
	if content, ok := ContextHelpContent[ctx]; ok {
		return content + "\n\n" + contextHelpGlobal
	}
	return contextHelpGlobal
}

// RenderContextHelp renders the help modal.
func RenderContextHelp(ctx Context, theme Theme, width, height int) string {
	content := GetContextHelp(ctx)
	r := theme.Renderer

	modalWidth := 60
	if modalWidth > width-4 {
		modalWidth = width - 4
	}
	modalWidth = max(modalWidth, 20)

	titleStyle := r.NewStyle().Bold(true).Foreground(theme.Primary)
	contentStyle := r.NewStyle().Foreground(theme.Subtext)
	footerStyle := r.NewStyle().Foreground(theme.Muted).Italic(true)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Quick Reference"))
	b.WriteString("\n")
	b.WriteString(r.NewStyle().Foreground(theme.Border).Render(strings.Repeat("─", modalWidth-4)))
	b.WriteString("\n\n")
	b.WriteString(contentStyle.Render(content))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render("Esc, ? or F1 to close"))

	modalStyle := r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Secondary).
		Padding(1, 2).
		Width(modalWidth)

	return modalStyle.Render(b.String())
}

const contextHelpTransaction = `## New Transaction

**Fields**
  Tab/Shift+Tab  Next/previous field
  ↓ / Enter      Open category or account list
  Esc            Close the list

**Suggestions**
  Leaving Name with no category asks
  for likely subcategories.
  Alt+1..3       Pick a suggestion
  1..3           Pick one from an empty
                 category field

**Submit**
  Ctrl+S         Review, then Ctrl+S or
                 Enter to submit
  Esc            Back to editing`

const contextHelpAccount = `## New Account

**Fields**
  Enter/Tab      Next field
  Shift+Tab      Previous field
  ↑/↓            Choose a currency

**Submit**
  Completing the last field submits.
  Esc            Start over
  Ctrl+X         Remove the account being edited

**Account list** (Ctrl+L)
  j/k  ↑/↓       Move
  Enter          Edit account, or Add New
  d              Remove account
  Esc            Back to the form`

const contextHelpCategories = `## Categories

**Navigation**
  j/k  ↑/↓       Move
  g/G            Top/bottom
  l/→            Expand or enter folder
  h/←            Collapse or go to parent
  Tab            Switch Expenses/Incomes

**Actions**
  Enter/Space    Open folder or select
  e              Expand/collapse all
  x              Clear selection
  f              Reveal selection
  y              Copy id
  m              Folder menu (Rename, Add, Delete)`

const contextHelpGlobal = `**Anywhere**
  Ctrl+T         New transaction
  Ctrl+O         New account
  Ctrl+G         Categories
  F1             Help (? outside text fields)
  Ctrl+C         Quit`
