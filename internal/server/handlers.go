package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devidw/rem/internal/assets"
	"github.com/devidw/rem/internal/catalog"
	"github.com/devidw/rem/internal/document"
	"github.com/devidw/rem/internal/pagetree"
)

type pageResponse struct {
	ID         string `json:"id"`
	Path       string `json:"path"`
	Name       string `json:"name"`
	ParentPath string `json:"parentPath"`
	Current    bool   `json:"current"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, pagetree.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, pagetree.ErrNotFound),
		errors.Is(err, document.ErrPageNotFound),
		errors.Is(err, catalog.ErrAssetNotFound),
		errors.Is(err, catalog.ErrCheckpointNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pagetree.ErrEmptyName),
		errors.Is(err, pagetree.ErrCannotRenameRoot),
		errors.Is(err, pagetree.ErrCannotDeleteRoot),
		errors.Is(err, pagetree.ErrTargetInsideSource),
		errors.Is(err, document.ErrMalformedSnapshot):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, assets.ErrTooLarge):
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ---------------------------------------------------------------------------
// Document
// ---------------------------------------------------------------------------

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(s.docs.Snapshot())
}

func (s *Server) handlePutDocument(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.docs.Replace(data); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Reload(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Pages
// ---------------------------------------------------------------------------

func (s *Server) handleListPages(w http.ResponseWriter, r *http.Request) {
	current := s.session.Current()
	out := []pageResponse{}
	for _, n := range s.session.Nodes() {
		out = append(out, pageResponse{
			ID:         n.ID,
			Path:       n.Path,
			Name:       n.Name,
			ParentPath: n.ParentPath,
			Current:    n.ID == current.ID,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Parent string `json:"parent"`
		Name   string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	node, err := s.session.CreateChild(req.Parent, req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, pageResponse{
		ID:         node.ID,
		Path:       node.Path,
		Name:       node.Name,
		ParentPath: node.ParentPath,
		Current:    true,
	})
}

func (s *Server) pageByID(id string) (pagetree.Node, bool) {
	for _, n := range s.session.Nodes() {
		if n.ID == id {
			return n, true
		}
	}
	return pagetree.Node{}, false
}

func (s *Server) handleRenamePage(w http.ResponseWriter, r *http.Request) {
	node, ok := s.pageByID(chi.URLParam(r, "pageID"))
	if !ok {
		writeError(w, pagetree.ErrNotFound)
		return
	}
	var req struct {
		Path string `json:"path"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}
	plan, err := s.session.Rename(node.Path, req.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"path":             plan.Node.NewPath,
		"createdAncestors": plan.CreateAncestors,
		"rewritten":        len(plan.Descendants),
	})
}

func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	node, ok := s.pageByID(chi.URLParam(r, "pageID"))
	if !ok {
		writeError(w, pagetree.ErrNotFound)
		return
	}
	plan, err := s.session.Delete(node.Path)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"removed": len(plan.Remove),
		"focus":   plan.FocusPath,
	})
}

// ---------------------------------------------------------------------------
// Assets
// ---------------------------------------------------------------------------

func (s *Server) handleListAssets(w http.ResponseWriter, r *http.Request) {
	list, err := s.assets.List()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleUploadAsset(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	a, err := s.assets.Put(name, r.Body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":   a.ID,
		"name": a.Name,
		"mime": a.MIME,
		"size": a.Size,
		"url":  "/api/assets/" + a.ID,
	})
}

func (s *Server) handleGetAsset(w http.ResponseWriter, r *http.Request) {
	rc, a, err := s.assets.Open(chi.URLParam(r, "assetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	defer func() { _ = rc.Close() }()
	w.Header().Set("Content-Type", a.MIME)
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	_, _ = io.Copy(w, rc)
}

func (s *Server) handleDeleteAsset(w http.ResponseWriter, r *http.Request) {
	if err := s.assets.Delete(chi.URLParam(r, "assetID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---------------------------------------------------------------------------
// Checkpoints
// ---------------------------------------------------------------------------

func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	list, err := s.docs.ListCheckpoints()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCreateCheckpoint(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Note string `json:"note"`
	}
	// An empty body is fine; the note is optional.
	_ = json.NewDecoder(r.Body).Decode(&req)

	cp, err := s.docs.CreateCheckpoint(req.Note)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, cp)
}

func (s *Server) handleRestoreCheckpoint(w http.ResponseWriter, r *http.Request) {
	if err := s.docs.RestoreCheckpoint(chi.URLParam(r, "checkpointID")); err != nil {
		writeError(w, err)
		return
	}
	if err := s.session.Reload(); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
