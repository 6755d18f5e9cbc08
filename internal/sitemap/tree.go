package sitemap

import (
	"net/url"
	"sort"
	"strings"

	"github.com/nao1215/sitesift/internal/model"
)

// Node is one path segment in the site tree.
type Node struct {
	// Name is the path segment, or "/" for the root.
	Name string

	// Path is the full path from the site root.
	Path string

	// Seen reports that a processed page ends at this node; Type is its
	// classification then.
	Seen bool
	Type model.PageType

	children map[string]*Node
}

// Children returns the node's children sorted by name.
func (n *Node) Children() []*Node {
	out := make([]*Node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Tree is the path tree of every processed URL. Hosts are not part of
// the tree: a crawl stays within its configured domains, and merging
// their paths keeps the map readable.
type Tree struct {
	root *Node
}

// Build arranges the processed URL map into a path tree.
func Build(seen map[string]model.PageType) *Tree {
	root := &Node{Name: "/", Path: "/", children: make(map[string]*Node)}

	for raw, pageType := range seen {
		u, err := url.Parse(raw)
		if err != nil {
			continue
		}
		node := root
		path := ""
		for _, part := range strings.Split(strings.Trim(u.Path, "/"), "/") {
			if part == "" {
				continue
			}
			path += "/" + part
			child, ok := node.children[part]
			if !ok {
				child = &Node{Name: part, Path: path, children: make(map[string]*Node)}
				node.children[part] = child
			}
			node = child
		}
		node.Seen = true
		node.Type = pageType
	}

	return &Tree{root: root}
}

// Root returns the tree's root node.
func (t *Tree) Root() *Node {
	return t.root
}

// Walk visits every node depth-first in sorted order, the root at
// depth 0.
func (t *Tree) Walk(fn func(depth int, node *Node)) {
	walk(t.root, 0, fn)
}

// Pages counts the nodes where a page was processed.
func (t *Tree) Pages() int {
	n := 0
	t.Walk(func(_ int, node *Node) {
		if node.Seen {
			n++
		}
	})
	return n
}

func walk(n *Node, depth int, fn func(depth int, node *Node)) {
	fn(depth, n)
	for _, c := range n.Children() {
		walk(c, depth+1, fn)
	}
}
