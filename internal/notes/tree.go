package notes

import (
	"context"

	"knotes/internal/store"
)

const (
	// Hard recursion cap for forest assembly. A cycle in stored data turns
	// into a depth-capped branch instead of a hang.
	maxTreeDepth = 10

	// Parent-chain depth for the breadcrumbs endpoint and for search results.
	maxCrumbDepth       = 10
	maxSearchCrumbDepth = 5

	nodeChildDepth = 1
)

// buildForest assembles parent→children structure from the flat node set.
// Roots are the nodes with no parent; children arrive pre-sorted by title
// from the store and keep that order.
func buildForest(nodes []store.Node) []TreeNode {
	children := make(map[int64][]*store.Node)
	var roots []*store.Node
	for i := range nodes {
		n := &nodes[i]
		if n.ParentID == nil {
			roots = append(roots, n)
			continue
		}
		children[*n.ParentID] = append(children[*n.ParentID], n)
	}

	forest := make([]TreeNode, 0, len(roots))
	for _, root := range roots {
		forest = append(forest, buildTreeNode(root, children, 0, maxTreeDepth))
	}
	return forest
}

func buildTreeNode(n *store.Node, children map[int64][]*store.Node, depth, maxDepth int) TreeNode {
	node := TreeNode{NodeView: simpleView(n), Children: []TreeNode{}}
	if depth >= maxDepth {
		return node
	}
	for _, child := range children[n.ID] {
		node.Children = append(node.Children, buildTreeNode(child, children, depth+1, maxDepth))
	}
	return node
}

// isDescendant reports whether nodeID equals ancestorID or sits below it.
// The walk is iterative with a visited set: broken parent links that form a
// cycle terminate the walk with false instead of hanging the process.
func (s *Service) isDescendant(ctx context.Context, ancestorID, nodeID int64) (bool, error) {
	if ancestorID == nodeID {
		return true, nil
	}
	visited := make(map[int64]bool)
	current := nodeID
	for {
		if visited[current] {
			return false, nil
		}
		visited[current] = true
		node, err := s.store.GetNode(ctx, current)
		if err != nil {
			return false, err
		}
		if node == nil || node.ParentID == nil {
			return false, nil
		}
		if *node.ParentID == ancestorID {
			return true, nil
		}
		current = *node.ParentID
	}
}

// crumbsFor walks the parent chain from the node upward, depth-capped and
// cycle-guarded, returning root-first breadcrumbs.
func (s *Service) crumbsFor(ctx context.Context, node *store.Node, maxDepth int) ([]Crumb, error) {
	crumbs := []Crumb{}
	visited := make(map[int64]bool)
	current := node
	for current != nil && len(crumbs) < maxDepth {
		if visited[current.ID] {
			break
		}
		visited[current.ID] = true
		crumbs = append([]Crumb{{ID: current.ID, Title: current.Title, Type: current.Type}}, crumbs...)
		if current.ParentID == nil {
			break
		}
		parent, err := s.store.GetNode(ctx, *current.ParentID)
		if err != nil {
			return nil, err
		}
		current = parent
	}
	return crumbs, nil
}
