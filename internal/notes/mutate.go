package notes

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"knotes/internal/store"
)

const (
	titleMaxLen     = 200
	disallowedRunes = `<>&"'\/|?*`
	tagMaxLen       = 50
	tagsMax         = 20
	modulesMax      = 50
)

type SaveResult struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Type  string `json:"type"`
}

type FavoriteResult struct {
	ID         int64 `json:"id"`
	IsFavorite bool  `json:"is_favorite"`
}

// Save creates a node (zero id) or updates an existing one. On update, a
// changed title/usage/code_snippet of a note writes a pre-update history
// snapshot in the same transaction as the update itself.
func (s *Service) Save(ctx context.Context, in SaveInput) (SaveResult, error) {
	title, err := validateTitle(in.Title)
	if err != nil {
		return SaveResult{}, err
	}
	nodeType := in.Type
	if nodeType == "" {
		nodeType = store.TypeNote
	}
	if nodeType != store.TypeFolder && nodeType != store.TypeNote {
		return SaveResult{}, validationf("invalid node type %q", nodeType)
	}
	if len(in.CustomModules) > modulesMax {
		return SaveResult{}, validationf("custom modules limited to %d entries", modulesMax)
	}

	parentID, err := s.resolveParent(ctx, in.ParentID.ID)
	if err != nil {
		return SaveResult{}, err
	}

	now := time.Now().UTC()
	if in.ID != 0 {
		return s.saveExisting(ctx, in, title, parentID, now)
	}

	node := store.Node{
		ParentID:      parentID,
		Title:         title,
		Type:          nodeType,
		Usage:         in.Usage,
		CodeSnippet:   in.CodeSnippet,
		CustomModules: encodeModules(in.CustomModules),
		IsExpanded:    in.IsExpanded != nil && *in.IsExpanded,
		Tags:          cleanTags(in.Tags),
		IsFavorite:    in.IsFavorite != nil && *in.IsFavorite,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	id, err := s.store.InsertNode(ctx, &node)
	if err != nil {
		return SaveResult{}, err
	}
	s.cache.Invalidate()
	return SaveResult{ID: id, Title: node.Title, Type: node.Type}, nil
}

func (s *Service) saveExisting(ctx context.Context, in SaveInput, title string, parentID *int64, now time.Time) (SaveResult, error) {
	existing, err := s.store.GetNode(ctx, in.ID)
	if err != nil {
		return SaveResult{}, err
	}
	if existing == nil {
		return SaveResult{}, notFoundf("node %d", in.ID)
	}

	// Only content edits to notes earn a snapshot; metadata-only changes
	// (favorite, tags, expansion) do not.
	var hist *store.History
	if existing.Type == store.TypeNote &&
		(existing.Title != title || existing.CodeSnippet != in.CodeSnippet || existing.Usage != in.Usage) {
		hist = snapshotOf(existing, now)
	}

	updated := *existing
	updated.ParentID = parentID
	updated.Title = title
	updated.Usage = in.Usage
	updated.CodeSnippet = in.CodeSnippet
	updated.CustomModules = encodeModules(in.CustomModules)
	updated.Tags = cleanTags(in.Tags)
	if in.IsExpanded != nil {
		updated.IsExpanded = *in.IsExpanded
	}
	if in.IsFavorite != nil {
		updated.IsFavorite = *in.IsFavorite
	}
	updated.UpdatedAt = now

	if err := s.store.UpdateNode(ctx, &updated, hist); err != nil {
		return SaveResult{}, err
	}
	s.cache.Invalidate()
	return SaveResult{ID: updated.ID, Title: updated.Title, Type: updated.Type}, nil
}

// Delete removes the named nodes and, via the store's cascade, all their
// descendants, in one transaction. Every id is checked up front so a partial
// batch never deletes anything.
func (s *Service) Delete(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return validationf("no items selected")
	}
	for _, id := range ids {
		if id == 0 {
			return validationf("root cannot be deleted")
		}
		node, err := s.store.GetNode(ctx, id)
		if err != nil {
			return err
		}
		if node == nil {
			return notFoundf("node %d", id)
		}
	}
	if err := s.store.DeleteNodes(ctx, ids); err != nil {
		return err
	}
	s.cache.Invalidate()
	return nil
}

// Move reparents itemID under target (nil target means top level). The
// descendant check vetoes any move that would close a cycle.
func (s *Service) Move(ctx context.Context, itemID int64, target *int64) (NodeView, error) {
	if itemID == 0 {
		return NodeView{}, validationf("root cannot be moved")
	}
	item, err := s.store.GetNode(ctx, itemID)
	if err != nil {
		return NodeView{}, err
	}
	if item == nil {
		return NodeView{}, notFoundf("node %d", itemID)
	}
	if target != nil {
		targetNode, err := s.store.GetNode(ctx, *target)
		if err != nil {
			return NodeView{}, err
		}
		if targetNode == nil {
			return NodeView{}, notFoundf("target %d", *target)
		}
		if targetNode.Type != store.TypeFolder {
			return NodeView{}, validationf("target is not a folder")
		}
		descendant, err := s.isDescendant(ctx, itemID, *target)
		if err != nil {
			return NodeView{}, err
		}
		if descendant {
			return NodeView{}, validationf("cannot move a folder into its own descendants")
		}
	}

	if sameParent(item.ParentID, target) {
		return simpleView(item), nil
	}

	now := time.Now().UTC()
	if err := s.store.UpdateParent(ctx, itemID, target, now); err != nil {
		return NodeView{}, err
	}
	s.cache.Invalidate()
	item.ParentID = target
	item.UpdatedAt = now
	return simpleView(item), nil
}

func (s *Service) ToggleFavorite(ctx context.Context, id int64) (FavoriteResult, error) {
	node, err := s.store.GetNode(ctx, id)
	if err != nil {
		return FavoriteResult{}, err
	}
	if node == nil {
		return FavoriteResult{}, notFoundf("node %d", id)
	}
	flipped := !node.IsFavorite
	if err := s.store.SetFavorite(ctx, id, flipped, time.Now().UTC()); err != nil {
		return FavoriteResult{}, err
	}
	s.cache.Invalidate()
	return FavoriteResult{ID: id, IsFavorite: flipped}, nil
}

// Restore rewinds a note to a stored snapshot. The note's current state is
// snapshotted first, so a restore is itself undoable.
func (s *Service) Restore(ctx context.Context, historyID int64) (NodeView, error) {
	hist, err := s.store.GetHistory(ctx, historyID)
	if err != nil {
		return NodeView{}, err
	}
	if hist == nil {
		return NodeView{}, notFoundf("history entry %d", historyID)
	}
	note, err := s.store.GetNode(ctx, hist.NoteID)
	if err != nil {
		return NodeView{}, err
	}
	if note == nil {
		return NodeView{}, notFoundf("note %d", hist.NoteID)
	}

	var snap struct {
		Title         *string  `json:"title"`
		Usage         *string  `json:"usage"`
		CodeSnippet   *string  `json:"code_snippet"`
		Tags          []string `json:"tags"`
		CustomModules []any    `json:"custom_modules"`
	}
	if err := json.Unmarshal([]byte(hist.Content), &snap); err != nil {
		return NodeView{}, fmt.Errorf("history %d: %w: %v", historyID, ErrCorruptHistory, err)
	}

	now := time.Now().UTC()
	current := snapshotOf(note, now)

	restored := *note
	if snap.Title != nil {
		restored.Title = *snap.Title
	}
	if snap.Usage != nil {
		restored.Usage = *snap.Usage
	}
	if snap.CodeSnippet != nil {
		restored.CodeSnippet = *snap.CodeSnippet
	}
	restored.Tags = strings.Join(snap.Tags, ",")
	restored.CustomModules = encodeModules(snap.CustomModules)
	restored.UpdatedAt = now

	if err := s.store.RestoreNode(ctx, &restored, current); err != nil {
		return NodeView{}, err
	}
	s.cache.Invalidate()
	return simpleView(&restored), nil
}

// resolveParent demotes an unknown or non-folder parent to "no parent"
// instead of rejecting the write, preserving the historical wire contract.
// The demotion is logged so client bugs stay visible.
func (s *Service) resolveParent(ctx context.Context, parentID *int64) (*int64, error) {
	if parentID == nil {
		return nil, nil
	}
	parent, err := s.store.GetNode(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	if parent == nil || parent.Type != store.TypeFolder {
		slog.Warn("invalid parent demoted to root", "parent_id", *parentID)
		return nil, nil
	}
	return parentID, nil
}

func snapshotOf(n *store.Node, now time.Time) *store.History {
	content, err := json.Marshal(simpleView(n))
	if err != nil {
		content = []byte("{}")
	}
	return &store.History{
		NoteID:    n.ID,
		Title:     n.Title,
		Content:   string(content),
		CreatedAt: now,
	}
}

func validateTitle(raw string) (string, error) {
	title := strings.TrimSpace(raw)
	if title == "" {
		return "", validationf("title must not be empty")
	}
	if utf8.RuneCountInString(title) > titleMaxLen {
		return "", validationf("title must not exceed %d characters", titleMaxLen)
	}
	if strings.ContainsAny(title, disallowedRunes) {
		return "", validationf("title contains disallowed characters")
	}
	return title, nil
}

func cleanTags(tags []string) string {
	cleaned := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || utf8.RuneCountInString(tag) > tagMaxLen {
			continue
		}
		cleaned = append(cleaned, tag)
		if len(cleaned) == tagsMax {
			break
		}
	}
	return strings.Join(cleaned, ",")
}

func encodeModules(modules []any) string {
	if len(modules) > modulesMax {
		modules = modules[:modulesMax]
	}
	data, err := json.Marshal(modules)
	if err != nil || modules == nil {
		return "[]"
	}
	return string(data)
}

func sameParent(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
