package session

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/devidw/rem/internal/pagetree"
)

// CreateChild makes a new page under parentPath and focuses it. A
// multi-segment name materializes its missing intermediate pages first,
// outermost-first, the same way Rename does for its target.
func (s *Session) CreateChild(parentPath, name string) (pagetree.Node, error) {
	s.mu.Lock()
	newPath, err := pagetree.Create(parentPath, name, s.nodes)
	if err != nil {
		s.mu.Unlock()
		return pagetree.Node{}, err
	}
	for _, anc := range pagetree.MissingAncestors(newPath, s.nodes) {
		if _, err := s.store.CreatePage(anc); err != nil {
			s.mu.Unlock()
			return pagetree.Node{}, fmt.Errorf("materialize ancestor %s: %w", anc, err)
		}
	}
	created, err := s.store.CreatePage(newPath)
	if err != nil {
		s.mu.Unlock()
		return pagetree.Node{}, err
	}
	if err := s.reloadLocked(); err != nil {
		s.mu.Unlock()
		return pagetree.Node{}, err
	}
	node, ok := pagetree.Find(newPath, s.nodes)
	if !ok {
		s.mu.Unlock()
		return pagetree.Node{}, fmt.Errorf("created page %s missing after reload", created.ID)
	}
	if err := s.store.SetCurrentPage(node.ID); err != nil {
		s.mu.Unlock()
		return pagetree.Node{}, err
	}
	s.current = node
	s.log.Info("page created", zap.String("path", node.Path))
	s.mu.Unlock()
	s.notify()
	return node, nil
}

// Rename moves the subtree rooted at path to newPath, materializing any
// missing ancestors of the target first. The plan's steps run in order with
// the session lock held, so nothing interleaves.
func (s *Session) Rename(path, newPath string) (*pagetree.RewritePlan, error) {
	s.mu.Lock()
	node, ok := pagetree.Find(path, s.nodes)
	if !ok {
		s.mu.Unlock()
		return nil, pagetree.ErrNotFound
	}
	plan, err := pagetree.Rename(node, newPath, s.nodes)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}

	wasCurrent := s.current.ID == node.ID
	for _, anc := range plan.CreateAncestors {
		if _, err := s.store.CreatePage(anc); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("materialize ancestor %s: %w", anc, err)
		}
	}
	if err := s.store.RenamePage(plan.Node.ID, plan.Node.NewPath); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	for _, d := range plan.Descendants {
		if err := s.store.RenamePage(d.ID, d.NewPath); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("rewrite descendant %s: %w", d.OldPath, err)
		}
	}
	if err := s.reloadLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	if wasCurrent {
		if moved, ok := pagetree.Find(plan.Node.NewPath, s.nodes); ok {
			s.current = moved
		}
	}
	s.log.Info("page renamed",
		zap.String("from", plan.Node.OldPath),
		zap.String("to", plan.Node.NewPath),
		zap.Int("descendants", len(plan.Descendants)),
	)
	s.mu.Unlock()
	s.notify()
	return plan, nil
}

// Delete removes the subtree rooted at path and focuses its parent.
func (s *Session) Delete(path string) (*pagetree.DeletePlan, error) {
	s.mu.Lock()
	node, ok := pagetree.Find(path, s.nodes)
	if !ok {
		s.mu.Unlock()
		return nil, pagetree.ErrNotFound
	}
	plan, err := pagetree.Delete(node, s.nodes)
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	for _, n := range plan.Remove {
		if err := s.store.DeletePage(n.ID); err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("delete %s: %w", n.Path, err)
		}
	}
	if err := s.reloadLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	// The parent always survives a subtree delete.
	if parent, ok := pagetree.Find(plan.FocusPath, s.nodes); ok {
		id := parent.ID
		if parent.IsRoot() {
			id = ""
		}
		if err := s.store.SetCurrentPage(id); err != nil {
			s.mu.Unlock()
			return nil, err
		}
		s.current = parent
	}
	s.log.Info("page deleted",
		zap.String("path", node.Path),
		zap.Int("removed", len(plan.Remove)),
	)
	s.mu.Unlock()
	s.notify()
	return plan, nil
}
