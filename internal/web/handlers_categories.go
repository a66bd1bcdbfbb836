package web

import (
	"net/http"
	"strconv"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

// handleListCategories returns every category; ?active=true keeps only
// active ones.
func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	cs, err := s.core.AllCategories(r.Context(), activeOnly)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, cs)
}

func (s *Server) handleCategoryTree(w http.ResponseWriter, r *http.Request) {
	tree, err := s.core.FindCategoryTree(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, tree)
}

func (s *Server) handleSearchCategories(w http.ResponseWriter, r *http.Request) {
	cs, err := s.core.SearchCategories(r.Context(), r.URL.Query().Get("keyword"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, cs)
}

func (s *Server) handleGetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.core.FindCategory(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (s *Server) handleChildCategories(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	cs, err := s.core.ChildCategories(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, cs)
}

func (s *Server) handleCategoryStatistics(w http.ResponseWriter, r *http.Request) {
	st, err := s.core.CategoryStatistics(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, st)
}

func (s *Server) handleCategoryNameExists(w http.ResponseWriter, r *http.Request) {
	excludeID, err := optionalID(r, "excludeId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	exists, err := s.core.IsCategoryNameExists(r.Context(), r.URL.Query().Get("name"), excludeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"exists": exists})
}

func (s *Server) handleCategoryDeletable(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok, err := s.core.IsCategoryDeletable(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]bool{"deletable": ok})
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var in core.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.core.SaveCategory(r.Context(), 0, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, c)
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var in core.CategoryInput
	if err := decodeJSON(w, r, &in); err != nil {
		s.fail(w, r, err)
		return
	}
	c, err := s.core.SaveCategory(r.Context(), id, in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, c)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.core.DeleteCategory(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
