// Package notes holds the core logic of the knowledge base: tree assembly,
// ancestor checks, the read cache, mutations with history snapshots, and
// weighted substring search. Every operation is a synchronous, blocking call
// against the store; the store's transactions are the only serialization
// point for conflicting writes, so concurrent edits to the same node are
// last-write-wins.
package notes

import (
	"context"
	"encoding/json"
	"fmt"

	"knotes/internal/store"
)

const (
	favoritesLimit     = 50
	recentLimit        = 10
	recentPreviewLimit = 100
	historyLimit       = 20
)

type Service struct {
	store *store.Store
	cache *Cache
}

func NewService(st *store.Store, cache *Cache) *Service {
	return &Service{store: st, cache: cache}
}

func cached[T any](s *Service, key string, fill func() (T, error)) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}
	t, err := fill()
	if err != nil {
		var zero T
		return zero, err
	}
	s.cache.Set(key, t)
	return t, nil
}

// Tree returns the full forest, depth-capped, children populated.
func (s *Service) Tree(ctx context.Context) ([]TreeNode, error) {
	return cached(s, "tree", func() ([]TreeNode, error) {
		nodes, err := s.store.AllNodes(ctx)
		if err != nil {
			return nil, err
		}
		return buildForest(nodes), nil
	})
}

// Folder lists the direct children of a folder without touching the rest of
// the tree; id 0 means top-level.
func (s *Service) Folder(ctx context.Context, id int64) ([]NodeView, error) {
	return cached(s, fmt.Sprintf("folder_%d", id), func() ([]NodeView, error) {
		var parent *int64
		if id != 0 {
			parent = &id
		}
		children, err := s.store.Children(ctx, parent)
		if err != nil {
			return nil, err
		}
		views := make([]NodeView, 0, len(children))
		for i := range children {
			views = append(views, simpleView(&children[i]))
		}
		return views, nil
	})
}

// Node returns one node with a single level of children.
func (s *Service) Node(ctx context.Context, id int64) (TreeNode, error) {
	return cached(s, fmt.Sprintf("node_%d", id), func() (TreeNode, error) {
		node, err := s.store.GetNode(ctx, id)
		if err != nil {
			return TreeNode{}, err
		}
		if node == nil {
			return TreeNode{}, notFoundf("node %d", id)
		}
		children, err := s.store.Children(ctx, &id)
		if err != nil {
			return TreeNode{}, err
		}
		out := TreeNode{NodeView: simpleView(node), Children: make([]TreeNode, 0, len(children))}
		for i := range children {
			out.Children = append(out.Children, TreeNode{NodeView: simpleView(&children[i]), Children: []TreeNode{}})
		}
		return out, nil
	})
}

func (s *Service) Breadcrumbs(ctx context.Context, id int64) ([]Crumb, error) {
	return cached(s, fmt.Sprintf("crumbs_%d", id), func() ([]Crumb, error) {
		node, err := s.store.GetNode(ctx, id)
		if err != nil {
			return nil, err
		}
		if node == nil {
			return nil, notFoundf("node %d", id)
		}
		return s.crumbsFor(ctx, node, maxCrumbDepth)
	})
}

func (s *Service) Favorites(ctx context.Context) ([]FavoriteView, error) {
	return cached(s, "favorites", func() ([]FavoriteView, error) {
		nodes, err := s.store.Favorites(ctx, favoritesLimit)
		if err != nil {
			return nil, err
		}
		views := make([]FavoriteView, 0, len(nodes))
		for _, n := range nodes {
			views = append(views, FavoriteView{ID: n.ID, Title: n.Title, Type: n.Type, ParentID: n.ParentID})
		}
		return views, nil
	})
}

func (s *Service) Recent(ctx context.Context) ([]RecentView, error) {
	return cached(s, "recent", func() ([]RecentView, error) {
		nodes, err := s.store.RecentNotes(ctx, recentLimit)
		if err != nil {
			return nil, err
		}
		views := make([]RecentView, 0, len(nodes))
		for _, n := range nodes {
			preview := n.Usage
			if truncated := truncateRunes(preview, recentPreviewLimit); truncated != preview {
				preview = truncated + "..."
			}
			views = append(views, RecentView{ID: n.ID, Title: n.Title, Type: n.Type, UpdatedAt: n.UpdatedAt, Usage: preview})
		}
		return views, nil
	})
}

// History lists the newest snapshots for a note, content blobs parsed. A blob
// that no longer parses comes back as an empty object rather than failing the
// whole listing.
func (s *Service) History(ctx context.Context, noteID int64) ([]HistoryView, error) {
	return cached(s, fmt.Sprintf("history_%d", noteID), func() ([]HistoryView, error) {
		rows, err := s.store.HistoryByNote(ctx, noteID, historyLimit)
		if err != nil {
			return nil, err
		}
		views := make([]HistoryView, 0, len(rows))
		for _, h := range rows {
			content := map[string]any{}
			if h.Content != "" {
				if err := json.Unmarshal([]byte(h.Content), &content); err != nil {
					content = map[string]any{}
				}
			}
			views = append(views, HistoryView{ID: h.ID, Title: h.Title, Content: content, CreatedAt: h.CreatedAt})
		}
		return views, nil
	})
}

// PreviewSource carries the untruncated body of a note for rendering.
type PreviewSource struct {
	ID          int64
	Title       string
	Usage       string
	CodeSnippet string
}

// Preview returns the full, untruncated fields of a node. Unlike the list
// endpoints nothing here is clipped to the short form.
func (s *Service) Preview(ctx context.Context, id int64) (PreviewSource, error) {
	return cached(s, fmt.Sprintf("preview_%d", id), func() (PreviewSource, error) {
		n, err := s.store.GetNode(ctx, id)
		if err != nil {
			return PreviewSource{}, err
		}
		if n == nil {
			return PreviewSource{}, notFoundf("node %d", id)
		}
		return PreviewSource{ID: n.ID, Title: n.Title, Usage: n.Usage, CodeSnippet: n.CodeSnippet}, nil
	})
}
