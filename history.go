package stage

// History keeps undo/redo stacks of scene snapshots. Each pushed scene is
// cloned, so callers may keep mutating their working copy; entries are
// never mutated in place.
type History struct {
	undo []*Scene
	redo []*Scene
	max  int
}

// NewHistory creates a history bounded to max snapshots (0 = unbounded).
func NewHistory(max int) *History {
	return &History{max: max}
}

// Push records a snapshot and clears the redo stack.
func (h *History) Push(s *Scene) {
	if s == nil {
		return
	}
	h.undo = append(h.undo, s.Clone())
	h.redo = h.redo[:0]
	if h.max > 0 && len(h.undo) > h.max {
		copy(h.undo, h.undo[len(h.undo)-h.max:])
		h.undo = h.undo[:h.max]
	}
}

// Undo pops the most recent snapshot. The current scene moves to the redo
// stack. Returns nil when there is nothing to undo.
func (h *History) Undo(current *Scene) *Scene {
	if len(h.undo) == 0 {
		return nil
	}
	if current != nil {
		h.redo = append(h.redo, current.Clone())
	}
	top := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	return top.Clone()
}

// Redo re-applies the most recently undone snapshot.
// Returns nil when there is nothing to redo.
func (h *History) Redo(current *Scene) *Scene {
	if len(h.redo) == 0 {
		return nil
	}
	if current != nil {
		h.undo = append(h.undo, current.Clone())
	}
	top := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	return top.Clone()
}

// CanUndo reports whether Undo would return a snapshot.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would return a snapshot.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }
