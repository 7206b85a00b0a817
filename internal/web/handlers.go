package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"knotes/internal/notes"
)

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, &notes.ValidationError{Msg: fmt.Sprintf("invalid %s %q", name, raw)}
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return err
		}
		return &notes.ValidationError{Msg: "invalid request body"}
	}
	// trailing garbage after the JSON value is a client bug
	if dec.More() {
		return &notes.ValidationError{Msg: "invalid request body"}
	}
	return nil
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.svc.Tree(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, tree)
}

func (s *Server) handleFolder(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	children, err := s.svc.Folder(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, children)
}

func (s *Server) handleNode(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	node, err := s.svc.Node(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, node)
}

func (s *Server) handleBreadcrumbs(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	crumbs, err := s.svc.Breadcrumbs(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, crumbs)
}

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	favs, err := s.svc.Favorites(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, favs)
}

func (s *Server) handleRecent(w http.ResponseWriter, r *http.Request) {
	recent, err := s.svc.Recent(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, recent)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	results, err := s.svc.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, results)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	noteID, err := pathID(r, "noteID")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	hist, err := s.svc.History(r.Context(), noteID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, hist)
}

func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	historyID, err := pathID(r, "historyID")
	if err != nil {
		respondErr(w, r, err)
		return
	}
	node, err := s.svc.Restore(r.Context(), historyID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondDataMsg(w, node, "restored")
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var in notes.SaveInput
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := s.svc.Save(r.Context(), in)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondDataMsg(w, res, "saved")
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var in struct {
		IDs []int64 `json:"ids"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	if err := s.svc.Delete(r.Context(), in.IDs); err != nil {
		respondErr(w, r, err)
		return
	}
	respondMsg(w, "deleted")
}

func (s *Server) handleMove(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ItemID   int64           `json:"itemId"`
		TargetID notes.ParentRef `json:"targetId"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	node, err := s.svc.Move(r.Context(), in.ItemID, in.TargetID.ID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondDataMsg(w, node, "moved")
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	var in struct {
		ID int64 `json:"id"`
	}
	if err := decodeBody(r, &in); err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := s.svc.ToggleFavorite(r.Context(), in.ID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondData(w, res)
}
