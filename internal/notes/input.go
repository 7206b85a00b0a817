package notes

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// ParentRef decodes the wire convention for parent references: 0, null, "",
// "None" and "0" all mean "no parent". Clients send both numbers and
// numeric strings, so the unmarshaler accepts either.
type ParentRef struct {
	ID *int64
}

func (p *ParentRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		p.ID = nil
		return nil
	}
	if data[0] == '"' {
		var raw string
		if err := json.Unmarshal(data, &raw); err != nil {
			return err
		}
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.EqualFold(raw, "none") {
			p.ID = nil
			return nil
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			p.ID = nil
			return nil
		}
		p.ID = &id
		return nil
	}
	var id int64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	if id <= 0 {
		p.ID = nil
		return nil
	}
	p.ID = &id
	return nil
}

func (p ParentRef) MarshalJSON() ([]byte, error) {
	if p.ID == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*p.ID)
}

// SaveInput carries one create-or-update request. A zero ID means create.
// IsExpanded and IsFavorite are pointers so an update can leave the stored
// flag alone when the client omits it.
type SaveInput struct {
	ID            int64     `json:"id"`
	ParentID      ParentRef `json:"parent_id"`
	Title         string    `json:"title"`
	Type          string    `json:"type"`
	Usage         string    `json:"usage"`
	CodeSnippet   string    `json:"code_snippet"`
	CustomModules []any     `json:"custom_modules"`
	IsExpanded    *bool     `json:"is_expanded"`
	Tags          []string  `json:"tags"`
	IsFavorite    *bool     `json:"is_favorite"`
}
