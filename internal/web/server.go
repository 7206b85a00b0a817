// Package web is the HTTP boundary: it decodes requests, calls into the
// notes service, and translates typed errors to the wire envelope exactly
// once, centrally. No tree or cache logic lives here.
package web

import (
	"net/http"

	"knotes/internal/config"
	"knotes/internal/notes"
)

type Server struct {
	cfg  config.Config
	svc  *notes.Service
	mux  *http.ServeMux
	auth *Auth
}

func NewServer(cfg config.Config, svc *notes.Service) (*Server, error) {
	auth, err := newAuth(cfg)
	if err != nil {
		return nil, err
	}
	s := &Server{
		cfg:  cfg,
		svc:  svc,
		mux:  http.NewServeMux(),
		auth: auth,
	}
	s.routes()
	return s, nil
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.limitBody(h)
	h = securityHeaders(h)
	if s.auth != nil {
		h = s.auth.Middleware(h)
	}
	return h
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/tree", s.handleTree)
	s.mux.HandleFunc("GET /api/folder/{id}", s.handleFolder)
	s.mux.HandleFunc("GET /api/node/{id}", s.handleNode)
	s.mux.HandleFunc("GET /api/node/{id}/preview", s.handlePreview)
	s.mux.HandleFunc("GET /api/breadcrumbs/{id}", s.handleBreadcrumbs)
	s.mux.HandleFunc("GET /api/favorites", s.handleFavorites)
	s.mux.HandleFunc("GET /api/recent", s.handleRecent)
	s.mux.HandleFunc("GET /api/search", s.handleSearch)
	s.mux.HandleFunc("GET /api/history/{noteID}", s.handleHistory)
	s.mux.HandleFunc("GET /api/restore/{historyID}", s.handleRestore)
	s.mux.HandleFunc("POST /api/save", s.handleSave)
	s.mux.HandleFunc("POST /api/delete", s.handleDelete)
	s.mux.HandleFunc("POST /api/move", s.handleMove)
	s.mux.HandleFunc("POST /api/toggle_favorite", s.handleToggleFavorite)
}
