package pagetree

import "strings"

// PathChange is one node's path rewrite inside a plan.
type PathChange struct {
	ID      string
	OldPath string
	NewPath string
}

// RewritePlan is the ordered set of side effects a structural move needs:
// create the missing ancestors outermost-first, then rename the node, then
// rewrite every descendant. The caller must apply all steps in this order
// with no interleaved mutations, or none at all.
type RewritePlan struct {
	CreateAncestors []string // normalized paths of missing ancestors, outermost-first
	Node            PathChange
	Descendants     []PathChange
}

// DeletePlan is the exact node set a delete removes, node first, plus the
// parent path the caller should focus after removal.
type DeletePlan struct {
	Remove    []Node
	FocusPath string
}

// Create validates a new child page under parentPath and returns its
// normalized path. The collision check is exact-match against already
// normalized paths.
func Create(parentPath, name string, all []Node) (string, error) {
	if len(Segments(name)) == 0 {
		return "", ErrEmptyName
	}
	base := Normalize(parentPath)
	if base == "/" {
		base = ""
	}
	candidate := Normalize(base + "/" + name)
	if _, ok := Find(candidate, all); ok {
		return "", ErrAlreadyExists
	}
	return candidate, nil
}

// MissingAncestors lists every strict ancestor of target that is absent
// from all, outermost-first, so callers can materialize them in order
// before touching target itself.
func MissingAncestors(target string, all []Node) []string {
	segs := Segments(target)
	var out []string
	for i := 1; i < len(segs); i++ {
		anc := "/" + strings.Join(segs[:i], "/")
		if _, ok := Find(anc, all); !ok {
			out = append(out, anc)
		}
	}
	return out
}

// Rename plans moving node (and its whole subtree) to newPath.
//
// Descendant rewrites are prefix replacements anchored at the start of the
// path: stripping the old path prefix and gluing the remainder onto the new
// one. A global string replace would corrupt paths whose deeper segments
// repeat the renamed text.
func Rename(node Node, newPath string, all []Node) (*RewritePlan, error) {
	if node.IsRoot() {
		return nil, ErrCannotRenameRoot
	}
	target := Normalize(newPath)
	if target == "/" {
		return nil, ErrEmptyName
	}
	if target == node.Path || strings.HasPrefix(target, node.Path+"/") {
		return nil, ErrTargetInsideSource
	}
	if other, ok := Find(target, all); ok && other.ID != node.ID {
		return nil, ErrAlreadyExists
	}

	plan := &RewritePlan{
		Node:            PathChange{ID: node.ID, OldPath: node.Path, NewPath: target},
		CreateAncestors: MissingAncestors(target, all),
	}

	for _, d := range Descendants(node, all) {
		rest := d.Path[len(node.Path):]
		plan.Descendants = append(plan.Descendants, PathChange{
			ID:      d.ID,
			OldPath: d.Path,
			NewPath: target + rest,
		})
	}
	return plan, nil
}

// Delete plans removing node and its whole subtree as one logical
// operation. The parent always survives, so FocusPath is always valid.
func Delete(node Node, all []Node) (*DeletePlan, error) {
	if node.IsRoot() {
		return nil, ErrCannotDeleteRoot
	}
	plan := &DeletePlan{
		Remove:    append([]Node{node}, Descendants(node, all)...),
		FocusPath: Normalize(node.ParentPath),
	}
	return plan, nil
}
