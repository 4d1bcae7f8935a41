package storyblok

import (
	"cmp"
	"slices"
)

// BuildLinkTree arranges links by parent. Entries whose parent is missing
// become roots. Every level is sorted by position, then name.
func BuildLinkTree(links []LinkEntry) []*LinkNode {
	nodes := make(map[int64]*LinkNode, len(links))
	for _, link := range links {
		nodes[link.ID] = &LinkNode{LinkEntry: link}
	}

	roots := make([]*LinkNode, 0)

	for _, link := range links {
		node := nodes[link.ID]

		if link.ParentID != nil && *link.ParentID != link.ID {
			if parent, ok := nodes[*link.ParentID]; ok {
				parent.Children = append(parent.Children, node)

				continue
			}
		}

		roots = append(roots, node)
	}

	sortLinkNodes(roots)

	return roots
}

func sortLinkNodes(nodes []*LinkNode) {
	slices.SortStableFunc(nodes, func(a, b *LinkNode) int {
		if c := cmp.Compare(a.Position, b.Position); c != 0 {
			return c
		}

		return cmp.Compare(a.Name, b.Name)
	})

	for _, node := range nodes {
		sortLinkNodes(node.Children)
	}
}

// Walk calls fn for the node and its descendants, depth first. Returning
// false skips the children of a node.
func (n *LinkNode) Walk(fn func(node *LinkNode, depth int) bool) {
	n.walk(fn, 0)
}

func (n *LinkNode) walk(fn func(node *LinkNode, depth int) bool, depth int) {
	if !fn(n, depth) {
		return
	}

	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}
