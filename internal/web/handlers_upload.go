package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/JonMunkholm/PartsInventory/internal/logging"
)

// multipartOverhead is room for multipart framing on top of the file itself.
const multipartOverhead = 1 << 20

// handleImport runs the CSV import for the multipart field "file".
// Row errors are part of a successful response; only file-level problems
// fail the request.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.fail(w, r, badRequest("file", "", fmt.Sprintf("file too large: exceeds %d bytes", maxSize)))
			return
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			s.fail(w, r, badRequest("file", "", "invalid upload: "+err.Error()))
			return
		}
	}

	var in core.ImportFile
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		defer file.Close()
		in = core.ImportFile{Name: header.Filename, Size: header.Size, Body: file}
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// An empty ImportFile is reported as "no file provided".
	default:
		s.fail(w, r, badRequest("file", "", "invalid upload: "+err.Error()))
		return
	}

	outcome, err := s.core.ImportCSV(r.Context(), in)
	if err != nil && outcome == nil {
		s.fail(w, r, err)
		return
	}
	if err != nil {
		// Interrupted part way; the committed rows are still reported.
		logging.FromContext(r.Context()).Warn("import interrupted", "filename", in.Name, "error", err)
	}
	s.renderImportOutcome(w, r, outcome)
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	e, err := s.core.ExportAll(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeExport(w, r, e)
}

// handleExportSearch exports the parts matching the query string criteria.
// Paging and sort parameters are ignored.
func (s *Server) handleExportSearch(w http.ResponseWriter, r *http.Request) {
	c, errs := core.ValidateCriteria(criteriaFromQuery(r))
	if len(errs) > 0 {
		s.fail(w, r, errs)
		return
	}
	e, err := s.core.ExportSearch(r.Context(), c)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeExport(w, r, e)
}

func writeExport(w http.ResponseWriter, r *http.Request, e *core.Export) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", e.Filename))
	if err := e.Write(w); err != nil {
		// Headers are gone; the client sees a truncated file.
		logging.FromContext(r.Context()).Error("write export", "filename", e.Filename, "error", err)
	}
}
