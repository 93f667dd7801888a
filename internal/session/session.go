// Package session owns the live editor state on this side of the wire: the
// authoritative parsed page collection, the focused page, and the
// keyboard-navigation flag. All mutations funnel through here, one at a
// time, and re-derive the tree from the page store afterwards.
package session

import (
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"

	"github.com/devidw/rem/internal/pagetree"
)

// PageStore is the persistence side the session drives. The document store
// implements it; tests may substitute their own.
type PageStore interface {
	ListPages() ([]pagetree.RawNode, error)
	CreatePage(path string) (pagetree.RawNode, error)
	RenamePage(id, newPath string) error
	DeletePage(id string) error
	CurrentPage() string
	SetCurrentPage(id string) error
}

// Session serializes access to the node collection. Tree operations are
// pure pagetree computations; their plans are applied here through the
// store's primitives, then the collection is reparsed.
type Session struct {
	mu    sync.Mutex
	store PageStore
	log   *zap.Logger

	nodes   []pagetree.Node
	current pagetree.Node
	navMode bool
	subs    []func()

	// Roaring bitmap prefix index: ancestor path → set of descendant node
	// ints. Rebuilt on every reload so blast-radius lookups don't rescan
	// the collection.
	pathInt map[string]uint32
	intPath []string
	under   map[string]*roaring.Bitmap
}

func New(store PageStore, log *zap.Logger) (*Session, error) {
	s := &Session{store: store, log: log}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.reloadLocked(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) reloadLocked() error {
	raw, err := s.store.ListPages()
	if err != nil {
		return err
	}
	s.nodes = pagetree.Parse(raw)
	s.rebuildIndexLocked()

	// Re-resolve focus; a vanished page falls back to the root.
	s.current = pagetree.Root()
	if id := s.store.CurrentPage(); id != "" {
		for _, n := range s.nodes {
			if n.ID == id {
				s.current = n
				break
			}
		}
	}
	return nil
}

func (s *Session) rebuildIndexLocked() {
	s.pathInt = make(map[string]uint32, len(s.nodes))
	s.intPath = s.intPath[:0]
	s.under = make(map[string]*roaring.Bitmap)

	for _, n := range s.nodes {
		if n.IsRoot() {
			continue
		}
		id := uint32(len(s.intPath))
		s.pathInt[n.Path] = id
		s.intPath = append(s.intPath, n.Path)

		add := func(anc string) {
			bm := s.under[anc]
			if bm == nil {
				bm = roaring.New()
				s.under[anc] = bm
			}
			bm.Add(id)
		}
		add("/")
		segs := pagetree.Segments(n.Path)
		for i := 1; i < len(segs); i++ {
			add("/" + strings.Join(segs[:i], "/"))
		}
	}
}

// notify runs outside the session lock so callbacks may call back into the
// session, but the subscriber slice itself is read under it.
func (s *Session) notify() {
	s.mu.Lock()
	subs := make([]func(), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn()
	}
}

// Subscribe registers a callback fired after every mutation and focus or
// mode change. Callbacks run synchronously on the mutating goroutine.
func (s *Session) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// Reload re-reads the page collection from the store, for callers that
// mutated the document out of band (snapshot replace, checkpoint restore).
func (s *Session) Reload() error {
	s.mu.Lock()
	err := s.reloadLocked()
	s.mu.Unlock()
	if err == nil {
		s.notify()
	}
	return err
}

// Nodes returns a copy of the parsed collection in Parse order.
func (s *Session) Nodes() []pagetree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]pagetree.Node, len(s.nodes))
	copy(out, s.nodes)
	return out
}

// Current returns the focused page node.
func (s *Session) Current() pagetree.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SetCurrent focuses the page at path.
func (s *Session) SetCurrent(path string) error {
	s.mu.Lock()
	node, ok := pagetree.Find(path, s.nodes)
	if !ok {
		s.mu.Unlock()
		return pagetree.ErrNotFound
	}
	id := node.ID
	if node.IsRoot() {
		id = ""
	}
	if err := s.store.SetCurrentPage(id); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = node
	s.mu.Unlock()
	s.notify()
	return nil
}

// NavMode reports whether keyboard navigation is active.
func (s *Session) NavMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.navMode
}

// SetNavMode flips the keyboard-navigation flag.
func (s *Session) SetNavMode(on bool) {
	s.mu.Lock()
	s.navMode = on
	s.mu.Unlock()
	s.notify()
}

// Find resolves a path against the current collection.
func (s *Session) Find(path string) (pagetree.Node, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pagetree.Find(path, s.nodes)
}

// Children lists one level below the page at path.
func (s *Session) Children(path string) ([]pagetree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	node, ok := pagetree.Find(path, s.nodes)
	if !ok {
		return nil, pagetree.ErrNotFound
	}
	return pagetree.Children(node, s.nodes), nil
}

// Descendants lists everything strictly under path, served from the prefix
// index, in Parse order.
func (s *Session) Descendants(path string) ([]pagetree.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := pagetree.Normalize(path)
	if _, ok := pagetree.Find(p, s.nodes); !ok {
		return nil, pagetree.ErrNotFound
	}
	bm := s.under[p]
	if bm == nil {
		return nil, nil
	}
	var out []pagetree.Node
	for _, n := range s.nodes {
		if n.IsRoot() {
			continue
		}
		if bm.Contains(s.pathInt[n.Path]) {
			out = append(out, n)
		}
	}
	return out, nil
}
