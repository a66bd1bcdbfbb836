package web

import (
	"net/http"

	"github.com/JonMunkholm/PartsInventory/internal/core"
	"github.com/JonMunkholm/PartsInventory/internal/logging"
	"github.com/JonMunkholm/PartsInventory/internal/web/templates"
)

// renderImportOutcome answers HTMX uploads with the summary fragment and
// everyone else with JSON.
func (s *Server) renderImportOutcome(w http.ResponseWriter, r *http.Request, o *core.ImportOutcome) {
	if !isHTMX(r) {
		writeJSON(w, o)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ImportSummary(o).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render import summary", "import_id", o.ID, "error", err)
	}
}
