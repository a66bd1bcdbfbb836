package web

// handlers_data.go serves part reads: listing, lookup and advanced search.

import (
	"net/http"
	"strings"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

// handleListParts pages through parts; ?keyword= narrows by number, name
// or manufacturer. Pages are zero-based.
func (s *Server) handleListParts(w http.ResponseWriter, r *http.Request) {
	page := parseIntParam(r, "page", 0)
	size := parseIntParam(r, "size", 0)

	result, err := s.core.ListParts(r.Context(), r.URL.Query().Get("keyword"), page, size)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, result)
}

func (s *Server) handleGetPart(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	p, err := s.core.FindPart(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, p)
}

// handleCheckPartNumber reports whether a part number is taken by another
// part. Used by forms before submit.
func (s *Server) handleCheckPartNumber(w http.ResponseWriter, r *http.Request) {
	excludeID, err := optionalID(r, "excludeId")
	if err != nil {
		s.fail(w, r, err)
		return
	}
	number := r.URL.Query().Get("partNumber")
	dup, err := s.core.IsPartNumberDuplicated(r.Context(), number, excludeID)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"partNumber": strings.TrimSpace(number), "duplicated": dup})
}

func (s *Server) handleSearchQuery(w http.ResponseWriter, r *http.Request) {
	s.search(w, r, criteriaFromQuery(r))
}

func (s *Server) handleSearchJSON(w http.ResponseWriter, r *http.Request) {
	in, err := criteriaFromJSON(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.search(w, r, in)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request, in core.CriteriaInput) {
	result, err := s.core.Search(r.Context(), in)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, result)
}

// validationResponse lists every rejected field. Valid criteria give an
// empty map.
type validationResponse struct {
	Valid  bool              `json:"valid"`
	Errors map[string]string `json:"errors"`
}

func (s *Server) handleValidateCriteria(w http.ResponseWriter, r *http.Request) {
	in, err := criteriaFromJSON(w, r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	_, errs := core.ValidateCriteria(in)
	if errs == nil {
		errs = core.FieldErrors{}
	}
	writeJSON(w, validationResponse{Valid: len(errs) == 0, Errors: errs})
}

func (s *Server) handleSearchStatistics(w http.ResponseWriter, r *http.Request) {
	c, errs := core.ValidateCriteria(criteriaFromQuery(r))
	if len(errs) > 0 {
		s.fail(w, r, errs)
		return
	}
	stats, err := s.core.SearchStatistics(r.Context(), c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, stats)
}
