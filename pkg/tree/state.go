package tree

// State is the mutable UI state of one tree view: at most one selected node
// and the set of expanded node ids.
//
// Expanded ids keep insertion order so that listings are stable, but nothing
// depends on that order. Only the Controller mutates a State.
type State struct {
	selected    string
	hasSelected bool
	expanded    map[string]struct{}
	order       []string
}

func newState() *State {
	return &State{expanded: make(map[string]struct{})}
}

// Selected returns the selected node id and whether anything is selected.
func (s *State) Selected() (string, bool) {
	return s.selected, s.hasSelected
}

// IsSelected reports whether id is the selected node.
func (s *State) IsSelected(id string) bool {
	return s.hasSelected && s.selected == id
}

// IsExpanded reports whether id is in the expanded set.
func (s *State) IsExpanded(id string) bool {
	_, ok := s.expanded[id]
	return ok
}

// Expanded returns a copy of the expanded ids in insertion order.
func (s *State) Expanded() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// ExpandedCount returns the size of the expanded set.
func (s *State) ExpandedCount() int {
	return len(s.order)
}

func (s *State) setSelected(id string) {
	s.selected = id
	s.hasSelected = true
}

func (s *State) clearSelected() {
	s.selected = ""
	s.hasSelected = false
}

// expand adds ids not already present and reports whether the set changed.
func (s *State) expand(ids ...string) bool {
	changed := false
	for _, id := range ids {
		if _, ok := s.expanded[id]; ok {
			continue
		}
		s.expanded[id] = struct{}{}
		s.order = append(s.order, id)
		changed = true
	}
	return changed
}

func (s *State) collapse(id string) bool {
	if _, ok := s.expanded[id]; !ok {
		return false
	}
	delete(s.expanded, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return true
}

func (s *State) collapseAll() bool {
	if len(s.order) == 0 {
		return false
	}
	s.expanded = make(map[string]struct{})
	s.order = nil
	return true
}
