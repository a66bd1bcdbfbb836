// Package templates holds the HTML fragments returned to HTMX requests.
package templates

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/PartsInventory/internal/core"
)

// ErrorAlert renders a dismissable error box.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			`<div class="alert alert-error" role="alert"><p class="alert-message">%s</p>`,
			templ.EscapeString(message))
		if err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, `<p class="alert-action">%s</p>`, templ.EscapeString(action)); err != nil {
				return err
			}
		}
		_, err = fmt.Fprintf(w, `<p class="alert-code">Code: %s</p></div>`, templ.EscapeString(code))
		return err
	})
}

// ImportSummary renders the outcome of a CSV import: counts, then the row
// errors and skips.
func ImportSummary(o *core.ImportOutcome) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "import-success"
		if o.HasErrors() {
			class = "import-partial"
		}
		_, err := fmt.Fprintf(w,
			`<section class="import-summary %s" data-import-id="%s"><h3>%s</h3>`+
				`<dl><dt>Imported</dt><dd>%d</dd><dt>Errors</dt><dd>%d</dd><dt>Skipped</dt><dd>%d</dd></dl>`,
			class, o.ID, templ.EscapeString(o.Filename), o.SuccessCount, o.ErrorCount, o.SkipCount)
		if err != nil {
			return err
		}
		if err := rowList(w, "import-errors", o.ErrorMessages()); err != nil {
			return err
		}
		if err := rowList(w, "import-skipped", o.SkippedMessages()); err != nil {
			return err
		}
		_, err = io.WriteString(w, `</section>`)
		return err
	})
}

func rowList(w io.Writer, class string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}
	if _, err := fmt.Fprintf(w, `<ul class="%s">`, class); err != nil {
		return err
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, `<li>%s</li>`, templ.EscapeString(l)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, `</ul>`)
	return err
}
