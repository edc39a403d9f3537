// Package include expands #include directives of shader sources into a
// cycle-free include tree.
//
// The tree is an arena: nodes live in one slice and refer to each other by
// NodeID. Parent links are only walked upward to detect cycles. A file that
// is included from several places is fetched once per resolution but gets a
// node (and an expansion) at every place it is included.
//
// Flattening replaces each directive line with the flattened child text.
// Locate maps a line of the flattened text back to the file it came from.
package include

import (
	"iter"
	"strings"

	"shaderpipe/internal/glsl/lex"
)

// NodeID addresses a node inside a Tree.
type NodeID int32

// NoParent is the parent of the root node.
const NoParent NodeID = -1

// Child is one entry of a node's ordered child map.
type Child struct {
	Token string // include path as written
	Node  NodeID
}

// site marks a directive line (0-based) expanded by a child node.
type site struct {
	line  int
	child NodeID
}

// Node is a single file in the include tree.
type Node struct {
	Path   string // project-relative, slash separated
	Source string // comment-stripped text
	Parent NodeID

	children []Child
	byToken  map[string]int
	sites    []site
}

// Children returns the node's children in first-directive order.
func (n *Node) Children() []Child { return n.children }

// Child looks up a child by its include token.
func (n *Node) Child(token string) (NodeID, bool) {
	idx, ok := n.byToken[token]
	if !ok {
		return 0, false
	}
	return n.children[idx].Node, true
}

// Tree is the resolved include tree of one entry shader.
type Tree struct {
	nodes []Node
}

// Root returns the entry node.
func (t *Tree) Root() *Node { return &t.nodes[0] }

// Node returns the node with the given id.
func (t *Tree) Node(id NodeID) *Node { return &t.nodes[id] }

// Len returns the number of nodes, the entry included.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) add(n Node) NodeID {
	t.nodes = append(t.nodes, n)
	return NodeID(len(t.nodes) - 1)
}

// All iterates the tree depth-first in directive order, root first.
// The visiting order is computed once per call.
func (t *Tree) All() iter.Seq2[NodeID, *Node] {
	return func(yield func(NodeID, *Node) bool) {
		if len(t.nodes) == 0 {
			return
		}
		stack := []NodeID{0}
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if !yield(id, &t.nodes[id]) {
				return
			}
			kids := t.nodes[id].children
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, kids[i].Node)
			}
		}
	}
}

// Includes returns the distinct included paths in first-seen depth-first
// order. The entry file itself is not listed.
func (t *Tree) Includes() []string {
	seen := make(map[string]struct{}, len(t.nodes))
	out := make([]string, 0, len(t.nodes))
	for id, n := range t.All() {
		if id == 0 {
			seen[n.Path] = struct{}{}
			continue
		}
		if _, ok := seen[n.Path]; ok {
			continue
		}
		seen[n.Path] = struct{}{}
		out = append(out, n.Path)
	}
	return out
}

// Chain returns the paths from the root down to id.
func (t *Tree) Chain(id NodeID) []string {
	var rev []string
	for cur := id; cur != NoParent; cur = t.nodes[cur].Parent {
		rev = append(rev, t.nodes[cur].Path)
	}
	out := make([]string, len(rev))
	for i, p := range rev {
		out[len(rev)-1-i] = p
	}
	return out
}

// Flatten returns the entry source with every include directive replaced
// by the flattened text of the included file.
func (t *Tree) Flatten() string {
	if len(t.nodes) == 0 {
		return ""
	}
	var b strings.Builder
	t.flatten(0, &b)
	return b.String()
}

func (t *Tree) flatten(id NodeID, b *strings.Builder) {
	n := &t.nodes[id]
	if len(n.sites) == 0 {
		b.WriteString(n.Source)
		return
	}
	next := 0
	for i, line := range strings.Split(n.Source, "\n") {
		if i > 0 {
			b.WriteByte('\n')
		}
		if next < len(n.sites) && n.sites[next].line == i {
			t.flatten(n.sites[next].child, b)
			next++
			continue
		}
		b.WriteString(line)
	}
}

// Locate maps a 1-based line of Flatten's output to the file and line it
// was copied from. ok is false when line is out of range.
func (t *Tree) Locate(line int) (path string, fileLine int, ok bool) {
	if len(t.nodes) == 0 || line < 1 {
		return "", 0, false
	}
	rem := line - 1
	return t.locate(0, &rem)
}

func (t *Tree) locate(id NodeID, rem *int) (string, int, bool) {
	n := &t.nodes[id]
	lines := strings.Count(n.Source, "\n") + 1
	next := 0
	for i := range lines {
		if next < len(n.sites) && n.sites[next].line == i {
			if p, l, ok := t.locate(n.sites[next].child, rem); ok {
				return p, l, true
			}
			next++
			continue
		}
		if *rem == 0 {
			return n.Path, i + 1, true
		}
		*rem--
	}
	return "", 0, false
}

// FetchFunc returns the source of a project-relative path.
type FetchFunc func(path string) (string, error)

// Resolve builds the include tree rooted at entryPath.
func Resolve(entryPath, entrySource string, fetch FetchFunc) (*Tree, error) {
	root, ok := CleanPath(entryPath)
	if !ok {
		return nil, &OutOfRootError{Token: entryPath}
	}
	r := &resolver{
		tree:  &Tree{nodes: make([]Node, 0, 8)},
		fetch: fetch,
		cache: make(map[string]string),
	}
	r.tree.add(Node{Path: root, Source: lex.StripComments(entrySource), Parent: NoParent})
	if err := r.expand(0); err != nil {
		return nil, err
	}
	return r.tree, nil
}

type resolver struct {
	tree  *Tree
	fetch FetchFunc
	cache map[string]string // path -> stripped source
}

func (r *resolver) expand(id NodeID) error {
	for i, line := range strings.Split(r.tree.nodes[id].Source, "\n") {
		token, matched, ok := parseDirective(line)
		if !matched {
			continue
		}
		from := r.tree.nodes[id].Path
		if !ok {
			return &MalformedDirectiveError{Path: from, Line: i + 1, Text: line}
		}
		// повторная директива с тем же токеном переиспользует узел
		if child, seen := r.tree.nodes[id].Child(token); seen {
			n := &r.tree.nodes[id]
			n.sites = append(n.sites, site{line: i, child: child})
			continue
		}
		target, ok := resolvePath(from, token)
		if !ok {
			return &OutOfRootError{Token: token, IncludedFrom: from, Line: i + 1}
		}
		if err := r.checkCycle(id, target, i+1); err != nil {
			return err
		}
		src, err := r.load(target)
		if err != nil {
			return &NotFoundError{Path: target, IncludedFrom: from, Line: i + 1, Err: err}
		}

		child := r.tree.add(Node{Path: target, Source: src, Parent: id})
		n := &r.tree.nodes[id]
		if n.byToken == nil {
			n.byToken = make(map[string]int)
		}
		n.byToken[token] = len(n.children)
		n.children = append(n.children, Child{Token: token, Node: child})
		n.sites = append(n.sites, site{line: i, child: child})

		if err := r.expand(child); err != nil {
			return err
		}
	}
	return nil
}

func (r *resolver) checkCycle(id NodeID, target string, line int) error {
	for cur := id; cur != NoParent; cur = r.tree.nodes[cur].Parent {
		if r.tree.nodes[cur].Path != target {
			continue
		}
		return &CyclicIncludeError{
			Path:         target,
			IncludedFrom: r.tree.nodes[id].Path,
			Line:         line,
			Chain:        append(r.tree.Chain(id), target),
		}
	}
	return nil
}

func (r *resolver) load(path string) (string, error) {
	if src, ok := r.cache[path]; ok {
		return src, nil
	}
	src, err := r.fetch(path)
	if err != nil {
		return "", err
	}
	src = lex.StripComments(src)
	r.cache[path] = src
	return src, nil
}
