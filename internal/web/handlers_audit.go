package web

import "net/http"

// handleAuditLog pages through the audit trail, newest first.
func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	limit := parseIntParam(r, "limit", 0)
	offset := parseIntParam(r, "offset", 0)

	page, err := s.core.Audit().List(r.Context(), limit, offset)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, page)
}
