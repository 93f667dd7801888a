package pagetree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tree(paths ...string) []Node {
	raw := make([]RawNode, len(paths))
	for i, p := range paths {
		raw[i] = RawNode{ID: "page:" + p, Path: p}
	}
	return Parse(raw)
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":         "/",
		"/":        "/",
		"//":       "/",
		"a":        "/a",
		"/a/b":     "/a/b",
		"a/b/":     "/a/b",
		"//a///b/": "/a/b",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "Normalize(%q)", in)
	}
}

func TestParse_DerivesNameAndParent(t *testing.T) {
	nodes := Parse([]RawNode{{ID: "p1", Path: "/a/b/c"}})

	n, ok := Find("/a/b/c", nodes)
	require.True(t, ok)
	assert.Equal(t, "c", n.Name)
	assert.Equal(t, "a/b", n.ParentPath)

	// Round trip: (parentPath, name) reconstructs the normalized path.
	assert.Equal(t, n.Path, Normalize(n.ParentPath+"/"+n.Name))
}

func TestParse_SynthesizesRoot(t *testing.T) {
	nodes := tree("a", "a/b")

	roots := 0
	for _, n := range nodes {
		if n.IsRoot() {
			roots++
		}
	}
	assert.Equal(t, 1, roots)

	root, ok := Find("/", nodes)
	require.True(t, ok)
	assert.Equal(t, RootID, root.ID)
	assert.Empty(t, root.Name)
	assert.Empty(t, root.ParentPath)
}

func TestParse_SortsByName(t *testing.T) {
	nodes := tree("zeta", "alpha", "mid")
	var names []string
	for _, n := range nodes {
		names = append(names, n.Name)
	}
	// Root's empty name sorts first.
	assert.Equal(t, []string{"", "alpha", "mid", "zeta"}, names)
}

func TestParse_MalformedPathDegradesToRoot(t *testing.T) {
	nodes := Parse([]RawNode{{ID: "weird", Path: "///"}})
	root, ok := Find("/", nodes)
	require.True(t, ok)
	// The degraded record claims the root slot; no second root appears.
	assert.Equal(t, "weird", root.ID)
	assert.Len(t, nodes, 1)
}

func TestChildren_RootIsOneSegmentPages(t *testing.T) {
	nodes := tree("a", "b", "a/x", "a/x/y", "c/deep")
	kids := Children(Root(), nodes)

	var paths []string
	for _, k := range kids {
		paths = append(paths, k.Path)
	}
	assert.Equal(t, []string{"/a", "/b"}, paths)
}

func TestChildren_OneLevelOnly(t *testing.T) {
	nodes := tree("a", "a/x", "a/y", "a/x/deep")
	a, _ := Find("/a", nodes)
	kids := Children(a, nodes)
	require.Len(t, kids, 2)
	assert.Equal(t, "/a/x", kids[0].Path)
	assert.Equal(t, "/a/y", kids[1].Path)
}

func TestDescendants_TransitivelyClosed(t *testing.T) {
	nodes := tree("a", "a/b", "a/b/c", "a/b/c/d", "other")
	a, _ := Find("/a", nodes)
	b, _ := Find("/a/b", nodes)

	descA := Descendants(a, nodes)
	for _, n := range Descendants(b, nodes) {
		assert.Contains(t, descA, n, "descendant of /a/b must be descendant of /a")
	}
}

func TestDescendants_RootSeesEverything(t *testing.T) {
	nodes := tree("a", "a/b", "x")
	assert.Len(t, Descendants(Root(), nodes), 3)
}

func TestDescendants_PrefixIsSegmentAnchored(t *testing.T) {
	nodes := tree("proj", "proj2", "proj/sub")
	proj, _ := Find("/proj", nodes)
	desc := Descendants(proj, nodes)
	require.Len(t, desc, 1)
	assert.Equal(t, "/proj/sub", desc[0].Path)
}

func TestCreate(t *testing.T) {
	nodes := tree("a")

	path, err := Create("a", "b", nodes)
	require.NoError(t, err)
	assert.Equal(t, "/a/b", path)

	// Same call against a tree that now holds /a/b collides.
	nodes = tree("a", "a/b")
	_, err = Create("a", "b", nodes)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreate_UnderRoot(t *testing.T) {
	path, err := Create("/", "top", tree())
	require.NoError(t, err)
	assert.Equal(t, "/top", path)
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	for _, name := range []string{"", "/", "//"} {
		_, err := Create("/", name, tree())
		assert.ErrorIs(t, err, ErrEmptyName, "name %q", name)
	}
}

func TestCreate_NormalizesNestedName(t *testing.T) {
	path, err := Create("a", "b/c", tree("a"))
	require.NoError(t, err)
	assert.Equal(t, "/a/b/c", path)
	assert.Equal(t, []string{"/a/b"}, MissingAncestors(path, tree("a")))
}

func TestMissingAncestors(t *testing.T) {
	nodes := tree("a")
	assert.Equal(t, []string{"/a/b", "/a/b/c"}, MissingAncestors("/a/b/c/d", nodes))
	assert.Empty(t, MissingAncestors("/a/x", nodes))
	assert.Empty(t, MissingAncestors("/top", nodes))
}

func TestRename_RootRefused(t *testing.T) {
	_, err := Rename(Root(), "/new", tree("a"))
	assert.ErrorIs(t, err, ErrCannotRenameRoot)
}

func TestRename_Collision(t *testing.T) {
	nodes := tree("a", "b")
	a, _ := Find("/a", nodes)
	_, err := Rename(a, "/b", nodes)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestRename_TargetInsideSourceRefused(t *testing.T) {
	nodes := tree("a", "a/b")
	a, _ := Find("/a", nodes)

	_, err := Rename(a, "/a/b/c", nodes)
	assert.ErrorIs(t, err, ErrTargetInsideSource)

	_, err = Rename(a, "/a", nodes)
	assert.ErrorIs(t, err, ErrTargetInsideSource)
}

func TestRename_PrefixSafe(t *testing.T) {
	nodes := tree("proj", "proj2", "proj/sub")
	proj, _ := Find("/proj", nodes)

	plan, err := Rename(proj, "/work", nodes)
	require.NoError(t, err)

	assert.Equal(t, "/work", plan.Node.NewPath)
	require.Len(t, plan.Descendants, 1)
	assert.Equal(t, "/work/sub", plan.Descendants[0].NewPath)

	// /proj2 is untouched: not a descendant, not in the plan.
	for _, d := range plan.Descendants {
		assert.NotEqual(t, "page:proj2", d.ID)
	}
}

func TestRename_SegmentRecursionIsNotCorrupted(t *testing.T) {
	// The renamed segment's text recurs deeper in the path; only the
	// leading prefix may change.
	nodes := tree("a", "a/a", "a/a/a")
	a, _ := Find("/a", nodes)

	plan, err := Rename(a, "/z", nodes)
	require.NoError(t, err)
	require.Len(t, plan.Descendants, 2)
	assert.Equal(t, "/z/a", plan.Descendants[0].NewPath)
	assert.Equal(t, "/z/a/a", plan.Descendants[1].NewPath)
}

func TestRename_MaterializesMissingAncestors(t *testing.T) {
	nodes := tree("a", "a/c")
	a, _ := Find("/a", nodes)

	plan, err := Rename(a, "/x/y", nodes)
	require.NoError(t, err)

	assert.Equal(t, []string{"/x"}, plan.CreateAncestors)
	assert.Equal(t, "/x/y", plan.Node.NewPath)
	require.Len(t, plan.Descendants, 1)
	assert.Equal(t, "/a/c", plan.Descendants[0].OldPath)
	assert.Equal(t, "/x/y/c", plan.Descendants[0].NewPath)
}

func TestRename_AncestorsOutermostFirst(t *testing.T) {
	nodes := tree("a")
	a, _ := Find("/a", nodes)

	plan, err := Rename(a, "/x/y/z/leaf", nodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"/x", "/x/y", "/x/y/z"}, plan.CreateAncestors)
}

func TestRename_ExistingAncestorsNotRecreated(t *testing.T) {
	nodes := tree("a", "x")
	a, _ := Find("/a", nodes)

	plan, err := Rename(a, "/x/y/z", nodes)
	require.NoError(t, err)
	assert.Equal(t, []string{"/x/y"}, plan.CreateAncestors)
}

func TestDelete_RootRefused(t *testing.T) {
	_, err := Delete(Root(), tree("a"))
	assert.ErrorIs(t, err, ErrCannotDeleteRoot)
}

func TestDelete_Subtree(t *testing.T) {
	nodes := tree("a", "a/b", "a/b/c")
	a, _ := Find("/a", nodes)

	plan, err := Delete(a, nodes)
	require.NoError(t, err)

	var paths []string
	for _, n := range plan.Remove {
		paths = append(paths, n.Path)
	}
	assert.ElementsMatch(t, []string{"/a", "/a/b", "/a/b/c"}, paths)
	assert.Equal(t, "/", plan.FocusPath)
}

func TestDelete_SizeIsOnePlusDescendants(t *testing.T) {
	nodes := tree("a", "a/b", "a/b/c", "other", "other/kid")
	for _, p := range []string{"/a", "/a/b", "/other"} {
		n, ok := Find(p, nodes)
		require.True(t, ok)
		plan, err := Delete(n, nodes)
		require.NoError(t, err)
		assert.Len(t, plan.Remove, 1+len(Descendants(n, nodes)))
	}
}

func TestDelete_FocusIsParent(t *testing.T) {
	nodes := tree("a", "a/b", "a/b/c")
	c, _ := Find("/a/b/c", nodes)

	plan, err := Delete(c, nodes)
	require.NoError(t, err)
	assert.Equal(t, "/a/b", plan.FocusPath)
}
