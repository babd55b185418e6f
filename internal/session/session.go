// Package session holds the state shared by the diagram controllers for one
// browsing session: the query that produced the current diagram and the
// element the user has selected in it.
package session

import (
	"sync"

	"github.com/ziadkadry99/diagramdive/internal/visual"
)

// Kind identifies what sort of visual element a selection points at.
type Kind string

const (
	KindNode      Kind = "node"
	KindEdgeLabel Kind = "edge_label"
)

// Selection is the single currently highlighted element.
//
// Element is a weak reference into the visual tree owned by the current
// render result. It must not be dereferenced once that tree is discarded;
// the lifecycle clears the selection before every new generation.
type Selection struct {
	Element *visual.Element
	Kind    Kind
	Text    string
}

// Session is the explicitly owned context object passed to every controller.
//
// Controllers take the lock for the whole of a state change, including the
// matching view update, so visible marking and state never diverge. Views
// invoked under the lock must not call back into a controller.
type Session struct {
	sync.Mutex

	CurrentQuery string
	Selection    *Selection

	// Generation is the sequence number of the most recent GenerateDiagram
	// call. Responses tagged with an older value are stale.
	Generation uint64
}

// New returns an empty session.
func New() *Session {
	return &Session{}
}

// HasSelection reports whether an element is selected. Callers hold the lock.
func (s *Session) HasSelection() bool {
	return s.Selection != nil
}

// SelectedText returns the selection's text or "" when nothing is selected.
// Callers hold the lock.
func (s *Session) SelectedText() string {
	if s.Selection == nil {
		return ""
	}
	return s.Selection.Text
}

// Snapshot is a copy of the session fields safe to read without the lock.
type Snapshot struct {
	CurrentQuery string
	Selected     bool
	Kind         Kind
	Text         string
	ElementID    int
	Generation   uint64
}

// Snapshot copies the session under its lock.
func (s *Session) Snapshot() Snapshot {
	s.Lock()
	defer s.Unlock()

	snap := Snapshot{
		CurrentQuery: s.CurrentQuery,
		Generation:   s.Generation,
	}
	if s.Selection != nil {
		snap.Selected = true
		snap.Kind = s.Selection.Kind
		snap.Text = s.Selection.Text
		if s.Selection.Element != nil {
			snap.ElementID = s.Selection.Element.ID
		}
	}
	return snap
}
