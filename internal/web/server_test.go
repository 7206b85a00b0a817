package web

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"knotes/internal/config"
	"knotes/internal/notes"
	"knotes/internal/store"
)

func testConfig() config.Config {
	return config.Config{
		CacheTTL:     time.Minute,
		CacheMax:     100,
		MaxBodyBytes: 1 << 20,
	}
}

func newTestServer(t *testing.T, cfg config.Config) *httptest.Server {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "notes.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	if err := st.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	svc := notes.NewService(st, notes.NewCache(cfg.CacheTTL, cfg.CacheMax))
	srv, err := NewServer(cfg, svc)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url string, body any) (int, response) {
	t.Helper()
	var reader *bytes.Reader
	if raw, ok := body.([]byte); ok {
		reader = bytes.NewReader(raw)
	} else if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var envelope response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return resp.StatusCode, envelope
}

func saveNode(t *testing.T, ts *httptest.Server, body map[string]any) int64 {
	t.Helper()
	status, envelope := doJSON(t, http.MethodPost, ts.URL+"/api/save", body)
	if status != http.StatusOK {
		t.Fatalf("save: status %d msg %q", status, envelope.Msg)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok {
		t.Fatalf("save: unexpected data %T", envelope.Data)
	}
	id, ok := data["id"].(float64)
	if !ok {
		t.Fatalf("save: missing id in %+v", data)
	}
	return int64(id)
}

func TestTreeEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	saveNode(t, ts, map[string]any{"title": "golang", "type": "folder"})

	status, envelope := doJSON(t, http.MethodGet, ts.URL+"/api/tree", nil)
	if status != http.StatusOK || envelope.Code != http.StatusOK {
		t.Fatalf("tree: status %d code %d", status, envelope.Code)
	}
	roots, ok := envelope.Data.([]any)
	if !ok {
		t.Fatalf("tree data is %T", envelope.Data)
	}
	// bootstrap root plus the saved folder
	if len(roots) != 2 {
		t.Fatalf("expected 2 roots, got %d", len(roots))
	}
	first, ok := roots[0].(map[string]any)
	if !ok {
		t.Fatalf("root entry is %T", roots[0])
	}
	if _, hasChildren := first["children"]; !hasChildren {
		t.Fatalf("tree node missing children array: %+v", first)
	}
}

func TestSaveValidationError(t *testing.T) {
	ts := newTestServer(t, testConfig())
	status, envelope := doJSON(t, http.MethodPost, ts.URL+"/api/save", map[string]any{"title": "   "})
	if status != http.StatusBadRequest || envelope.Code != http.StatusBadRequest {
		t.Fatalf("status %d code %d", status, envelope.Code)
	}
	if envelope.Msg == "" {
		t.Fatalf("validation failure without message")
	}
}

func TestMalformedBody(t *testing.T) {
	ts := newTestServer(t, testConfig())
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/save", []byte("{not json"))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", status)
	}
	status, _ = doJSON(t, http.MethodPost, ts.URL+"/api/save", []byte(`{"title":"x"} trailing`))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for trailing data, got %d", status)
	}
}

func TestNodeNotFound(t *testing.T) {
	ts := newTestServer(t, testConfig())
	status, envelope := doJSON(t, http.MethodGet, ts.URL+"/api/node/9999", nil)
	if status != http.StatusNotFound || envelope.Code != http.StatusNotFound {
		t.Fatalf("status %d code %d", status, envelope.Code)
	}
}

func TestBodySizeLimit(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 128
	ts := newTestServer(t, cfg)

	big := map[string]any{"title": "x", "usage": strings.Repeat("y", 4096)}
	status, envelope := doJSON(t, http.MethodPost, ts.URL+"/api/save", big)
	if status != http.StatusRequestEntityTooLarge || envelope.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status %d code %d", status, envelope.Code)
	}
}

func TestMoveEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	dir := saveNode(t, ts, map[string]any{"title": "dir", "type": "folder"})
	note := saveNode(t, ts, map[string]any{"title": "note"})

	status, envelope := doJSON(t, http.MethodPost, ts.URL+"/api/move", map[string]any{"itemId": note, "targetId": dir})
	if status != http.StatusOK {
		t.Fatalf("move: status %d msg %q", status, envelope.Msg)
	}
	data := envelope.Data.(map[string]any)
	if int64(data["parent_id"].(float64)) != dir {
		t.Fatalf("move did not reparent: %+v", data)
	}

	// the "None" string sentinel moves back to top level
	status, envelope = doJSON(t, http.MethodPost, ts.URL+"/api/move", map[string]any{"itemId": note, "targetId": "None"})
	if status != http.StatusOK {
		t.Fatalf("move to top: status %d msg %q", status, envelope.Msg)
	}
	data = envelope.Data.(map[string]any)
	if data["parent_id"] != nil {
		t.Fatalf("expected nil parent, got %v", data["parent_id"])
	}
}

func TestMoveMissingTarget(t *testing.T) {
	ts := newTestServer(t, testConfig())
	note := saveNode(t, ts, map[string]any{"title": "note"})
	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/move", map[string]any{"itemId": note, "targetId": 9999})
	if status != http.StatusNotFound {
		t.Fatalf("expected 404 for missing target, got %d", status)
	}
}

func TestDeleteEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := saveNode(t, ts, map[string]any{"title": "doomed"})

	status, _ := doJSON(t, http.MethodPost, ts.URL+"/api/delete", map[string]any{"ids": []int64{id}})
	if status != http.StatusOK {
		t.Fatalf("delete: status %d", status)
	}
	status, _ = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/node/%d", ts.URL, id), nil)
	if status != http.StatusNotFound {
		t.Fatalf("node survived delete, status %d", status)
	}

	status, _ = doJSON(t, http.MethodPost, ts.URL+"/api/delete", map[string]any{"ids": []int64{}})
	if status != http.StatusBadRequest {
		t.Fatalf("empty delete: expected 400, got %d", status)
	}
}

func TestToggleFavoriteEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := saveNode(t, ts, map[string]any{"title": "star me"})

	status, envelope := doJSON(t, http.MethodPost, ts.URL+"/api/toggle_favorite", map[string]any{"id": id})
	if status != http.StatusOK {
		t.Fatalf("toggle: status %d", status)
	}
	if envelope.Data.(map[string]any)["is_favorite"] != true {
		t.Fatalf("favorite not set: %+v", envelope.Data)
	}

	status, envelope = doJSON(t, http.MethodGet, ts.URL+"/api/favorites", nil)
	if status != http.StatusOK {
		t.Fatalf("favorites: status %d", status)
	}
	if len(envelope.Data.([]any)) != 1 {
		t.Fatalf("favorites listing wrong: %+v", envelope.Data)
	}
}

func TestSearchEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	saveNode(t, ts, map[string]any{"title": "docker compose"})

	status, envelope := doJSON(t, http.MethodGet, ts.URL+"/api/search?q=docker", nil)
	if status != http.StatusOK {
		t.Fatalf("search: status %d", status)
	}
	results := envelope.Data.([]any)
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].(map[string]any)["relevance"].(float64) != 100 {
		t.Fatalf("title match should carry weight 100: %+v", results[0])
	}
}

func TestHistoryAndRestoreEndpoints(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := saveNode(t, ts, map[string]any{"title": "v1", "usage": "first"})
	saveNode(t, ts, map[string]any{"id": id, "title": "v2", "usage": "second"})

	status, envelope := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/history/%d", ts.URL, id), nil)
	if status != http.StatusOK {
		t.Fatalf("history: status %d", status)
	}
	entries := envelope.Data.([]any)
	if len(entries) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(entries))
	}
	histID := int64(entries[0].(map[string]any)["id"].(float64))

	status, envelope = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/restore/%d", ts.URL, histID), nil)
	if status != http.StatusOK {
		t.Fatalf("restore: status %d msg %q", status, envelope.Msg)
	}
	if envelope.Data.(map[string]any)["title"] != "v1" {
		t.Fatalf("restore did not rewind: %+v", envelope.Data)
	}
}

func TestPreviewEndpoint(t *testing.T) {
	ts := newTestServer(t, testConfig())
	id := saveNode(t, ts, map[string]any{
		"title":        "render me",
		"usage":        "# Heading\n\nsome *markdown*",
		"code_snippet": "package main\n\nfunc main() {}\n",
	})

	status, envelope := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/node/%d/preview", ts.URL, id), nil)
	if status != http.StatusOK {
		t.Fatalf("preview: status %d msg %q", status, envelope.Msg)
	}
	data := envelope.Data.(map[string]any)
	usageHTML, _ := data["usage_html"].(string)
	if !strings.Contains(usageHTML, "<h1") {
		t.Fatalf("markdown not rendered: %q", usageHTML)
	}
	codeHTML, _ := data["code_html"].(string)
	if codeHTML == "" || !strings.Contains(codeHTML, "<") {
		t.Fatalf("code not highlighted: %q", codeHTML)
	}
}

func TestSecurityAndCacheHeaders(t *testing.T) {
	ts := newTestServer(t, testConfig())
	resp, err := http.Get(ts.URL + "/api/tree")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Cache-Control"); got != "no-cache, max-age=0, must-revalidate" {
		t.Fatalf("Cache-Control %q", got)
	}
	if resp.Header.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing nosniff header")
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		t.Fatalf("Content-Type %q", resp.Header.Get("Content-Type"))
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.AuthUser = "alice"
	cfg.AuthPass = "secret"
	ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/api/tree")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credentials, got %d", resp.StatusCode)
	}
	if resp.Header.Get("WWW-Authenticate") == "" {
		t.Fatalf("missing WWW-Authenticate challenge")
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/tree", nil)
	req.SetBasicAuth("alice", "secret")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authed get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with credentials, got %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/tree", nil)
	req.SetBasicAuth("alice", "wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("bad-password get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad password, got %d", resp.StatusCode)
	}
}

func TestAuthRequiresBothUserAndPassword(t *testing.T) {
	cfg := testConfig()
	cfg.AuthUser = "alice"
	if _, err := newAuth(cfg); err == nil {
		t.Fatalf("expected error when only user is set")
	}
}
