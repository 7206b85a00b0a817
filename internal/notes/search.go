package notes

import (
	"context"
	"html"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"knotes/internal/store"
)

const (
	searchMinKeyword = 2
	searchMaxResults = 50

	titleWeight = 100
	tagWeight   = 80
	usageWeight = 60

	titleMatchCap = 50
	tagMatchCap   = 30
	usageMatchCap = 20

	// Usage is only scanned when the better-weighted fields left the result
	// set under this size.
	usageScanThreshold = 20

	previewLimit      = 500
	usagePreviewScope = 150
)

type SearchResult struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Type         string        `json:"type"`
	Relevance    int           `json:"relevance"`
	Preview      string        `json:"preview"`
	ParentID     *int64        `json:"parent_id"`
	UpdatedAt    time.Time     `json:"updated_at"`
	Breadcrumbs  []Crumb       `json:"breadcrumbs"`
	MatchDetails []MatchDetail `json:"match_details"`
}

type MatchDetail struct {
	Field   string `json:"field"`
	Content string `json:"content"`
}

// Search runs field-weighted substring matching: title outranks tags
// outranks usage. Results are deduplicated by node id keeping the
// highest-weight match, sorted by relevance, and capped.
func (s *Service) Search(ctx context.Context, keyword string) ([]SearchResult, error) {
	keyword = strings.TrimSpace(keyword)
	if utf8.RuneCountInString(keyword) < searchMinKeyword {
		return []SearchResult{}, nil
	}
	return cached(s, "search_"+keyword, func() ([]SearchResult, error) {
		return s.searchUncached(ctx, keyword)
	})
}

func (s *Service) searchUncached(ctx context.Context, keyword string) ([]SearchResult, error) {
	// non-nil so a zero-match keyword still serializes as an empty array
	results := []SearchResult{}
	seen := make(map[int64]int) // node id -> index in results

	add := func(nodes []store.Node, field string, weight int) error {
		for i := range nodes {
			node := &nodes[i]
			if idx, ok := seen[node.ID]; ok {
				if weight > results[idx].Relevance {
					r, err := s.buildSearchResult(ctx, node, keyword, field, weight)
					if err != nil {
						return err
					}
					results[idx] = r
				}
				continue
			}
			r, err := s.buildSearchResult(ctx, node, keyword, field, weight)
			if err != nil {
				return err
			}
			seen[node.ID] = len(results)
			results = append(results, r)
		}
		return nil
	}

	titleMatches, err := s.store.SearchColumn(ctx, "title", keyword, titleMatchCap)
	if err != nil {
		return nil, err
	}
	if err := add(titleMatches, "title", titleWeight); err != nil {
		return nil, err
	}

	tagMatches, err := s.store.SearchColumn(ctx, "tags", keyword, tagMatchCap)
	if err != nil {
		return nil, err
	}
	if err := add(tagMatches, "tags", tagWeight); err != nil {
		return nil, err
	}

	if len(results) < usageScanThreshold {
		usageMatches, err := s.store.SearchColumn(ctx, "usage", keyword, usageMatchCap)
		if err != nil {
			return nil, err
		}
		if err := add(usageMatches, "usage", usageWeight); err != nil {
			return nil, err
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Relevance > results[j].Relevance
	})
	if len(results) > searchMaxResults {
		results = results[:searchMaxResults]
	}
	return results, nil
}

func (s *Service) buildSearchResult(ctx context.Context, node *store.Node, keyword, field string, weight int) (SearchResult, error) {
	crumbs, err := s.crumbsFor(ctx, node, maxSearchCrumbDepth)
	if err != nil {
		return SearchResult{}, err
	}

	var preview string
	switch field {
	case "title":
		preview = highlightMatch(node.Title, keyword)
	case "tags":
		preview = highlightMatch(node.Tags, keyword)
	case "usage":
		preview = highlightMatch(truncateRunes(node.Usage, usagePreviewScope), keyword)
	}

	return SearchResult{
		ID:           node.ID,
		Title:        node.Title,
		Type:         node.Type,
		Relevance:    weight,
		Preview:      preview,
		ParentID:     node.ParentID,
		UpdatedAt:    node.UpdatedAt,
		Breadcrumbs:  crumbs,
		MatchDetails: []MatchDetail{{Field: field, Content: preview}},
	}, nil
}

// highlightMatch escapes the text first, then wraps case-insensitive keyword
// occurrences in a marker span. Escaping before highlighting means stored
// content can never smuggle markup into the preview. Only the first 500
// characters are processed.
func highlightMatch(text, keyword string) string {
	if text == "" {
		return ""
	}
	if keyword == "" || !strings.Contains(strings.ToLower(text), strings.ToLower(keyword)) {
		return html.EscapeString(text)
	}

	truncated := utf8.RuneCountInString(text) > previewLimit
	scope := truncateRunes(text, previewLimit)
	escaped := html.EscapeString(scope)
	escapedKeyword := html.EscapeString(keyword)

	pattern := regexp.MustCompile("(?i)" + regexp.QuoteMeta(escapedKeyword))
	out := pattern.ReplaceAllStringFunc(escaped, func(m string) string {
		return `<span class="search-highlight">` + m + `</span>`
	})
	if truncated {
		out += "..."
	}
	return out
}
