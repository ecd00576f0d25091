package ui

import (
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/vanderheijden86/tally/pkg/tree"
)

// Default folder glyphs.
const (
	DefaultOpenIcon  = "▾"
	DefaultCloseIcon = "▸"
	leafIcon         = "•"
)

// TreeViewOptions configures how a TreeView draws its tree.
type TreeViewOptions struct {
	Title     string
	RTL       bool
	Indicator bool // vertical guide per depth level
	OpenIcon  string
	CloseIcon string
}

// treeRow is one visible line of the tree.
type treeRow struct {
	node   tree.Node
	depth  int
	parent int // row index of the parent, -1 for roots
}

// CopiedMsg reports the result of copying a node id to the clipboard.
type CopiedMsg struct {
	ID  string
	Err error
}

var writeClipboard = clipboard.WriteAll

// FolderActions lists the entries of the folder menu. None of them change the
// tree; picking one only reports it.
var FolderActions = []string{"Rename", "Add", "Delete"}

// FolderActionMsg reports an entry picked from the folder menu.
type FolderActionMsg struct {
	FolderID   string
	FolderName string
	Action     string
}

// TreeView renders a category tree and routes key presses to its controller.
// What is selected and expanded lives in the controller's State; the cursor
// is local to the view.
type TreeView struct {
	roots  []tree.Node
	ctrl   *tree.Controller
	opts   TreeViewOptions
	theme  Theme
	rows   []treeRow
	cursor int
	offset int // index of first visible row
	width  int
	height int
	focus  bool

	menuOpen   bool
	menuCursor int
}

// NewTreeView builds a view over roots driven by ctrl. The cursor starts on
// the selected node when it is visible.
func NewTreeView(roots []tree.Node, ctrl *tree.Controller, opts TreeViewOptions, theme Theme) *TreeView {
	if opts.OpenIcon == "" {
		opts.OpenIcon = DefaultOpenIcon
	}
	if opts.CloseIcon == "" {
		opts.CloseIcon = DefaultCloseIcon
	}
	v := &TreeView{
		roots: roots,
		ctrl:  ctrl,
		opts:  opts,
		theme: theme,
		focus: true,
	}
	v.rebuildRows()
	if id, ok := ctrl.State().Selected(); ok {
		v.SelectByID(id)
	}
	return v
}

// Controller returns the controller the view sends actions to.
func (v *TreeView) Controller() *tree.Controller {
	return v.ctrl
}

// SetSize updates the available dimensions.
func (v *TreeView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.ensureCursorVisible()
}

// Focus marks the view as receiving keys.
func (v *TreeView) Focus() { v.focus = true }

// Blur marks the view as not receiving keys.
func (v *TreeView) Blur() { v.focus = false }

// Focused reports whether the view receives keys.
func (v *TreeView) Focused() bool { return v.focus }

// Update handles key presses when focused.
func (v *TreeView) Update(msg tea.Msg) tea.Cmd {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !v.focus {
		return nil
	}
	if v.menuOpen {
		return v.updateMenu(keyMsg)
	}

	switch {
	case key.Matches(keyMsg, treeKeys.Up):
		v.MoveUp()
	case key.Matches(keyMsg, treeKeys.Down):
		v.MoveDown()
	case key.Matches(keyMsg, treeKeys.Top):
		v.JumpToTop()
	case key.Matches(keyMsg, treeKeys.Bottom):
		v.JumpToBottom()
	case key.Matches(keyMsg, treeKeys.Activate):
		v.Activate()
	case key.Matches(keyMsg, treeKeys.Expand):
		v.ExpandOrMoveToChild()
	case key.Matches(keyMsg, treeKeys.Collapse):
		v.CollapseOrJumpToParent()
	case key.Matches(keyMsg, treeKeys.ToggleAll):
		v.ctrl.ToggleAll(v.roots)
		v.refresh()
	case key.Matches(keyMsg, treeKeys.Clear):
		v.ctrl.ClearSelection()
	case key.Matches(keyMsg, treeKeys.Reveal):
		v.RevealSelection()
	case key.Matches(keyMsg, treeKeys.Menu):
		v.OpenMenu()
	case key.Matches(keyMsg, treeKeys.Copy):
		if node, ok := v.CursorNode(); ok {
			id := node.ID
			return func() tea.Msg {
				return CopiedMsg{ID: id, Err: writeClipboard(id)}
			}
		}
	}
	return nil
}

// OpenMenu shows the folder menu when the cursor is on a selectable folder.
func (v *TreeView) OpenMenu() bool {
	node, ok := v.CursorNode()
	if !ok || !node.IsSelectable() || !node.IsFolder() {
		return false
	}
	v.menuOpen = true
	v.menuCursor = 0
	return true
}

// MenuOpen reports whether the folder menu is showing.
func (v *TreeView) MenuOpen() bool { return v.menuOpen }

// updateMenu owns every key while the menu is open, so the cursor cannot
// leave the folder the menu belongs to.
func (v *TreeView) updateMenu(keyMsg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(keyMsg, treeKeys.Close):
		v.menuOpen = false
	case key.Matches(keyMsg, treeKeys.Up), key.Matches(keyMsg, treeKeys.Collapse):
		if v.menuCursor > 0 {
			v.menuCursor--
		}
	case key.Matches(keyMsg, treeKeys.Down), key.Matches(keyMsg, treeKeys.Expand):
		if v.menuCursor < len(FolderActions)-1 {
			v.menuCursor++
		}
	case key.Matches(keyMsg, treeKeys.Activate):
		v.menuOpen = false
		node, ok := v.CursorNode()
		if !ok {
			return nil
		}
		action := FolderActionMsg{FolderID: node.ID, FolderName: node.Name, Action: FolderActions[v.menuCursor]}
		return func() tea.Msg { return action }
	}
	return nil
}

// Activate toggles the folder under the cursor or selects the file under it.
// Disabled nodes ignore it.
func (v *TreeView) Activate() {
	node, ok := v.CursorNode()
	if !ok || !node.IsSelectable() {
		return
	}
	if node.IsFolder() {
		v.ctrl.ToggleExpand(node.ID)
		v.refresh()
		return
	}
	v.ctrl.Select(node.ID)
}

// ExpandOrMoveToChild handles the → / l key:
//   - collapsed folder: expand it
//   - expanded folder: move to its first child
//   - leaf or disabled node: nothing
func (v *TreeView) ExpandOrMoveToChild() {
	node, ok := v.CursorNode()
	if !ok || !node.IsSelectable() || !node.IsFolder() {
		return
	}
	if !v.ctrl.State().IsExpanded(node.ID) {
		v.ctrl.ToggleExpand(node.ID)
		v.refresh()
		return
	}
	v.MoveDown()
}

// CollapseOrJumpToParent handles the ← / h key:
//   - expanded folder: collapse it
//   - anything else: move to the parent row
func (v *TreeView) CollapseOrJumpToParent() {
	node, ok := v.CursorNode()
	if !ok {
		return
	}
	if node.IsSelectable() && node.IsFolder() && v.ctrl.State().IsExpanded(node.ID) {
		v.ctrl.ToggleExpand(node.ID)
		v.refresh()
		return
	}
	if parent := v.rows[v.cursor].parent; parent >= 0 {
		v.cursor = parent
		v.ensureCursorVisible()
	}
}

// RevealSelection expands the ancestors of the selected node and moves the
// cursor onto it.
func (v *TreeView) RevealSelection() {
	id, ok := v.ctrl.State().Selected()
	if !ok {
		return
	}
	v.ctrl.ExpandAncestorsOf(v.roots, id)
	v.refresh()
	v.SelectByID(id)
}

// MoveDown moves the cursor down one row.
func (v *TreeView) MoveDown() {
	if v.cursor < len(v.rows)-1 {
		v.cursor++
		v.ensureCursorVisible()
	}
}

// MoveUp moves the cursor up one row.
func (v *TreeView) MoveUp() {
	if v.cursor > 0 {
		v.cursor--
		v.ensureCursorVisible()
	}
}

// JumpToTop moves the cursor to the first row.
func (v *TreeView) JumpToTop() {
	v.cursor = 0
	v.ensureCursorVisible()
}

// JumpToBottom moves the cursor to the last row.
func (v *TreeView) JumpToBottom() {
	if len(v.rows) > 0 {
		v.cursor = len(v.rows) - 1
	}
	v.ensureCursorVisible()
}

// SelectByID moves the cursor to the visible row with the given id.
// Returns true if found.
func (v *TreeView) SelectByID(id string) bool {
	for i, row := range v.rows {
		if row.node.ID == id {
			v.cursor = i
			v.ensureCursorVisible()
			return true
		}
	}
	return false
}

// CursorNode returns the node under the cursor.
func (v *TreeView) CursorNode() (tree.Node, bool) {
	if v.cursor < 0 || v.cursor >= len(v.rows) {
		return tree.Node{}, false
	}
	return v.rows[v.cursor].node, true
}

// VisibleIDs lists the ids of the rendered rows in order.
func (v *TreeView) VisibleIDs() []string {
	ids := make([]string, len(v.rows))
	for i, row := range v.rows {
		ids[i] = row.node.ID
	}
	return ids
}

// refresh recomputes rows after the controller changed expansion, keeping
// the cursor on the same node when it is still visible.
func (v *TreeView) refresh() {
	current, ok := v.CursorNode()
	v.rebuildRows()
	if ok && v.SelectByID(current.ID) {
		return
	}
	v.ensureCursorVisible()
}

// rebuildRows flattens the visible part of the tree. Children are shown for
// expanded folders only; disabled folders never open.
func (v *TreeView) rebuildRows() {
	v.rows = v.rows[:0]
	state := v.ctrl.State()
	var visit func(n tree.Node, depth, parent int)
	visit = func(n tree.Node, depth, parent int) {
		idx := len(v.rows)
		v.rows = append(v.rows, treeRow{node: n, depth: depth, parent: parent})
		if n.IsFolder() && n.IsSelectable() && state.IsExpanded(n.ID) {
			for _, child := range n.Children {
				visit(child, depth+1, idx)
			}
		}
	}
	for _, root := range v.roots {
		visit(root, 0, -1)
	}
	if v.cursor >= len(v.rows) {
		v.cursor = len(v.rows) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
}

func (v *TreeView) visibleCount() int {
	if v.height <= 0 {
		return 20
	}
	n := v.height
	if v.opts.Title != "" {
		n -= 2
	}
	if n < 1 {
		n = 1
	}
	return n
}

func (v *TreeView) ensureCursorVisible() {
	count := v.visibleCount()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+count {
		v.offset = v.cursor - count + 1
	}
	if last := len(v.rows) - count; v.offset > last {
		v.offset = last
	}
	if v.offset < 0 {
		v.offset = 0
	}
}

// visibleRange returns the [start, end) row indices that fit the height.
func (v *TreeView) visibleRange() (start, end int) {
	start = v.offset
	end = start + v.visibleCount()
	if end > len(v.rows) {
		end = len(v.rows)
	}
	return start, end
}

// View renders the tree.
func (v *TreeView) View() string {
	var sb strings.Builder
	if v.opts.Title != "" {
		title := v.theme.PrimaryBold.Render(v.opts.Title)
		sb.WriteString(v.align(title))
		sb.WriteString("\n\n")
	}
	if len(v.rows) == 0 {
		sb.WriteString(v.align(v.theme.MutedText.Render("No categories.")))
		return sb.String()
	}

	start, end := v.visibleRange()
	for i := start; i < end; i++ {
		sb.WriteString(v.align(v.renderRow(v.rows[i], i == v.cursor)))
		if i < end-1 {
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// renderRow draws guides, glyph and name; RTL mirrors the order.
func (v *TreeView) renderRow(row treeRow, atCursor bool) string {
	state := v.ctrl.State()
	node := row.node

	guide := "  "
	if v.opts.Indicator {
		guide = "│ "
		if v.opts.RTL {
			guide = " │"
		}
	}
	guides := v.theme.MutedText.Render(strings.Repeat(guide, row.depth))

	icon := leafIcon
	if node.IsFolder() {
		icon = v.opts.CloseIcon
		if node.IsSelectable() && state.IsExpanded(node.ID) {
			icon = v.opts.OpenIcon
		}
	}

	name := node.Name
	if v.width > 0 {
		avail := v.width - 2*row.depth - runewidth.StringWidth(icon) - 3
		if avail < 4 {
			avail = 4
		}
		name = runewidth.Truncate(name, avail, "…")
	}

	nameStyle := v.theme.Base
	iconStyle := v.theme.MutedText
	switch {
	case !node.IsSelectable():
		nameStyle = v.theme.MutedText
	case state.IsSelected(node.ID):
		nameStyle = v.theme.Selected
		name += " ✓"
	case node.IsFolder():
		iconStyle = v.theme.PrimaryBold
	}
	if atCursor && v.focus {
		nameStyle = nameStyle.Inherit(v.theme.Cursor)
	}

	parts := []string{guides, iconStyle.Render(icon), " ", nameStyle.Render(name)}
	if atCursor && v.menuOpen {
		parts = append(parts, "  ", v.renderMenu())
	}
	if v.opts.RTL {
		parts = []string{nameStyle.Render(name), " ", iconStyle.Render(icon), guides}
		if atCursor && v.menuOpen {
			parts = append([]string{v.renderMenu(), "  "}, parts...)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (v *TreeView) renderMenu() string {
	items := make([]string, len(FolderActions))
	for i, action := range FolderActions {
		if i == v.menuCursor {
			items[i] = v.theme.Selected.Render("[" + action + "]")
		} else {
			items[i] = v.theme.MutedText.Render(" " + action + " ")
		}
	}
	return strings.Join(items, " ")
}

func (v *TreeView) align(line string) string {
	if !v.opts.RTL || v.width <= 0 {
		return line
	}
	return v.theme.Renderer.NewStyle().Width(v.width).Align(lipgloss.Right).Render(line)
}
