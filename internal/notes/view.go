package notes

import (
	"encoding/json"
	"strings"
	"time"

	"knotes/internal/store"
)

const simpleFieldLimit = 200

// NodeView is the simple serialization of a node: no children, usage and
// code_snippet truncated.
type NodeView struct {
	ID            int64     `json:"id"`
	ParentID      *int64    `json:"parent_id"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	Usage         string    `json:"usage"`
	CodeSnippet   string    `json:"code_snippet"`
	CustomModules []any     `json:"custom_modules"`
	IsExpanded    bool      `json:"is_expanded"`
	Tags          []string  `json:"tags"`
	IsFavorite    bool      `json:"is_favorite"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TreeNode is the with-children serialization; depth limits keep it finite
// even over malformed data.
type TreeNode struct {
	NodeView
	Children []TreeNode `json:"children"`
}

type Crumb struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type FavoriteView struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	ParentID *int64 `json:"parent_id"`
}

type RecentView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	UpdatedAt time.Time `json:"updated_at"`
	Usage     string    `json:"usage"`
}

type HistoryView struct {
	ID        int64          `json:"id"`
	Title     string         `json:"title"`
	Content   map[string]any `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
}

func simpleView(n *store.Node) NodeView {
	return NodeView{
		ID:            n.ID,
		ParentID:      n.ParentID,
		Title:         n.Title,
		Type:          n.Type,
		Usage:         truncateRunes(n.Usage, simpleFieldLimit),
		CodeSnippet:   truncateRunes(n.CodeSnippet, simpleFieldLimit),
		CustomModules: decodeModules(n.CustomModules),
		IsExpanded:    n.IsExpanded,
		Tags:          splitTags(n.Tags),
		IsFavorite:    n.IsFavorite,
		CreatedAt:     n.CreatedAt,
		UpdatedAt:     n.UpdatedAt,
	}
}

func splitTags(raw string) []string {
	if raw == "" {
		return []string{}
	}
	return strings.Split(raw, ",")
}

func decodeModules(raw string) []any {
	if strings.TrimSpace(raw) == "" {
		return []any{}
	}
	var out []any
	if err := json.Unmarshal([]byte(raw), &out); err != nil || out == nil {
		return []any{}
	}
	return out
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == limit {
			return s[:i]
		}
		count++
	}
	return s
}
