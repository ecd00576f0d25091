package tree

// Config holds the construction parameters of a Controller.
type Config struct {
	// InitialSelectedID, when non-empty, is selected at construction and its
	// ancestors are expanded once so that it is visible.
	InitialSelectedID string
	// InitialExpanded seeds the expanded set.
	InitialExpanded []string
	// ExpandAll expands every reachable folder at construction.
	ExpandAll bool
	// KeepExpanded takes InitialExpanded as the complete expanded set: the
	// selection's ancestors are not expanded. Set it when rebuilding a
	// controller from an earlier State.
	KeepExpanded bool

	// OnSelect receives the new selection; "" means the selection was cleared.
	OnSelect func(id string)
	// OnExpansionChange receives the toggled id (empty for bulk operations)
	// and a copy of the new expanded set.
	OnExpansionChange func(id string, expanded []string)
}

// Controller applies user actions to a State. Every operation is total:
// unknown ids and non-selectable targets are accepted without error, and
// each call works on the latest state so that rapid sequences of calls never
// drop an update.
type Controller struct {
	state             *State
	onSelect          func(id string)
	onExpansionChange func(id string, expanded []string)
}

// New builds a controller for roots. Initialization does not fire events.
func New(roots []Node, cfg Config) *Controller {
	c := &Controller{
		state:             newState(),
		onSelect:          cfg.OnSelect,
		onExpansionChange: cfg.OnExpansionChange,
	}

	c.state.expand(cfg.InitialExpanded...)
	if cfg.ExpandAll {
		c.state.expand(ExpandableIDs(roots)...)
	}
	if cfg.InitialSelectedID != "" {
		c.state.setSelected(cfg.InitialSelectedID)
		if cfg.KeepExpanded {
			return c
		}
		if path, ok := AncestorPath(roots, cfg.InitialSelectedID); ok {
			c.state.expand(path...)
		}
	}
	return c
}

// State returns the state for reading. Mutations go through the controller.
func (c *Controller) State() *State {
	return c.state
}

// ToggleExpand removes id from the expanded set if present, otherwise adds it.
// The id is not checked against any tree.
func (c *Controller) ToggleExpand(id string) {
	if !c.state.collapse(id) {
		c.state.expand(id)
	}
	c.notifyExpansion(id)
}

// Select makes id the selected node without touching expansion.
func (c *Controller) Select(id string) {
	c.state.setSelected(id)
	if c.onSelect != nil {
		c.onSelect(id)
	}
}

// ClearSelection leaves nothing selected.
func (c *Controller) ClearSelection() {
	c.state.clearSelected()
	if c.onSelect != nil {
		c.onSelect("")
	}
}

// ExpandAll adds every id returned by ExpandableIDs.
func (c *Controller) ExpandAll(roots []Node) {
	if c.state.expand(ExpandableIDs(roots)...) {
		c.notifyExpansion("")
	}
}

// CollapseAll empties the expanded set.
func (c *Controller) CollapseAll() {
	if c.state.collapseAll() {
		c.notifyExpansion("")
	}
}

// ToggleAll expands everything when nothing is expanded and collapses
// everything otherwise.
func (c *Controller) ToggleAll(roots []Node) {
	if c.state.ExpandedCount() == 0 {
		c.ExpandAll(roots)
		return
	}
	c.CollapseAll()
}

// ExpandAncestorsOf expands the path from the root down to target, see
// AncestorPath. A target that is not reachable leaves the state unchanged.
func (c *Controller) ExpandAncestorsOf(roots []Node, target string) {
	path, ok := AncestorPath(roots, target)
	if !ok {
		return
	}
	if c.state.expand(path...) {
		c.notifyExpansion("")
	}
}

func (c *Controller) notifyExpansion(id string) {
	if c.onExpansionChange != nil {
		c.onExpansionChange(id, c.state.Expanded())
	}
}

// ExpandableIDs lists, depth-first, every selectable node with at least one
// child. Non-selectable nodes are opaque: neither they nor anything below
// them is listed.
func ExpandableIDs(roots []Node) []string {
	var ids []string
	Walk(roots, func(n Node, _ int) bool {
		if !n.IsSelectable() || !n.IsFolder() {
			return false
		}
		ids = append(ids, n.ID)
		return true
	})
	return ids
}

// AncestorPath returns the ids from a root down to target, inclusive when
// target is selectable and exclusive otherwise. The search only descends
// through selectable folders, so a target below a non-selectable node is not
// found.
func AncestorPath(roots []Node, target string) ([]string, bool) {
	for _, root := range roots {
		if path, ok := ancestorPath(root, target, nil); ok {
			return path, true
		}
	}
	return nil, false
}

func ancestorPath(n Node, target string, parent []string) ([]string, bool) {
	// Full slice expression: siblings must never share a backing array.
	path := append(parent[:len(parent):len(parent)], n.ID)
	if n.ID == target {
		if n.IsSelectable() {
			return path, true
		}
		return path[:len(path)-1], true
	}
	if !n.IsSelectable() || !n.IsFolder() {
		return nil, false
	}
	for _, child := range n.Children {
		if found, ok := ancestorPath(child, target, path); ok {
			return found, true
		}
	}
	return nil, false
}
