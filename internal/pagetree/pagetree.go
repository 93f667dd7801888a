// Package pagetree derives a navigable hierarchy from the editor's flat,
// slash-named page collection and plans the structural mutations (create,
// rename-with-subtree, delete-with-subtree) that keep the path namespace
// consistent. Everything here is a pure computation over a snapshot of the
// collection; side effects are the caller's job.
package pagetree

import (
	"errors"
	"sort"
	"strings"
)

// RootID is the synthetic id of the root node. The root is not a real page
// record; Parse materializes it so the tree always has a single "/" node.
const RootID = "page:root"

var (
	ErrAlreadyExists      = errors.New("page already exists")
	ErrNotFound           = errors.New("page not found")
	ErrEmptyName          = errors.New("page name is empty")
	ErrCannotRenameRoot   = errors.New("root page cannot be renamed")
	ErrCannotDeleteRoot   = errors.New("root page cannot be deleted")
	ErrTargetInsideSource = errors.New("target path is inside the renamed subtree")
)

// RawNode is one page record as the page store hands it over: an opaque id
// and a path string in whatever shape the editor stored it.
type RawNode struct {
	ID   string
	Path string
}

// Node is a parsed page with its derived position in the hierarchy.
type Node struct {
	ID   string
	Path string // normalized, leading slash; exactly "/" for the root

	// Derived from Path by Parse.
	Name       string // last segment, "" for the root
	ParentPath string // path minus last segment, no leading slash, "" when the root is the parent
}

func (n Node) IsRoot() bool { return n.Path == "/" }

// Root returns the synthetic root node.
func Root() Node {
	return Node{ID: RootID, Path: "/"}
}

// Segments splits a path on "/" and drops empty segments, so doubled or
// trailing slashes never produce phantom levels.
func Segments(path string) []string {
	parts := strings.Split(path, "/")
	segs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

// Normalize collapses a raw path into canonical "/a/b" form. Input that has
// no segments at all ("", "/", "//") normalizes to the root path.
func Normalize(path string) string {
	segs := Segments(path)
	if len(segs) == 0 {
		return "/"
	}
	return "/" + strings.Join(segs, "/")
}

func makeNode(id, path string) Node {
	p := Normalize(path)
	if p == "/" {
		return Node{ID: id, Path: "/"}
	}
	segs := Segments(p)
	return Node{
		ID:         id,
		Path:       p,
		Name:       segs[len(segs)-1],
		ParentPath: strings.Join(segs[:len(segs)-1], "/"),
	}
}

// Parse normalizes a flat list of raw page records into Nodes sorted by
// name. Malformed paths degrade to the root path rather than failing; if no
// record claims "/", a synthetic root is added, and extra claimants after
// the first are dropped.
func Parse(raw []RawNode) []Node {
	nodes := make([]Node, 0, len(raw)+1)
	haveRoot := false
	for _, r := range raw {
		n := makeNode(r.ID, r.Path)
		if n.IsRoot() {
			if haveRoot {
				continue
			}
			haveRoot = true
		}
		nodes = append(nodes, n)
	}
	if !haveRoot {
		nodes = append(nodes, Root())
	}
	sort.SliceStable(nodes, func(i, j int) bool { return nodes[i].Name < nodes[j].Name })
	return nodes
}

// Find returns the node whose normalized path matches path.
func Find(path string, all []Node) (Node, bool) {
	p := Normalize(path)
	for _, n := range all {
		if n.Path == p {
			return n, true
		}
	}
	return Node{}, false
}

// Children returns the nodes exactly one level below parent, in Parse
// order. The UI renders one level per navigation step, never the full tree.
func Children(parent Node, all []Node) []Node {
	key := strings.TrimPrefix(Normalize(parent.Path), "/")
	var out []Node
	for _, n := range all {
		if n.IsRoot() {
			continue
		}
		if n.ParentPath == key {
			out = append(out, n)
		}
	}
	return out
}

// IsDescendant reports whether n lies strictly under ancestor. For the
// root every non-root node qualifies.
func IsDescendant(ancestor, n Node) bool {
	if n.IsRoot() || n.Path == ancestor.Path {
		return false
	}
	if ancestor.IsRoot() {
		return true
	}
	return strings.HasPrefix(n.Path, ancestor.Path+"/")
}

// Descendants returns every node strictly under node, any depth, in Parse
// order. Used to compute the blast radius of a rename or delete.
func Descendants(node Node, all []Node) []Node {
	var out []Node
	for _, n := range all {
		if IsDescendant(node, n) {
			out = append(out, n)
		}
	}
	return out
}
