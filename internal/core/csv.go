package core

// csv.go is the bulk transfer pipeline.
//
// Export writes a fixed five-column layout. Import validates the file as a
// whole first (size, extension, header) and fails before touching any row.
// Data rows are then processed one at a time; each ends as a success, a
// skip (part number already present) or a row error, and no row aborts the
// run.

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/JonMunkholm/PartsInventory/internal/logging"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	DefaultMaxImportSize int64 = 5 * 1024 * 1024
	DefaultImportTimeout       = 5 * time.Minute

	exportTimestampLayout = "20060102_150405"
	exportColumns         = 5
)

// ExportHeaders is the header row of every export, in column order:
// part number, part name, price, description, manufacturer.
var ExportHeaders = []string{"部品番号", "部品名", "価格", "説明", "メーカー名"}

// ExportFilename returns "<base>_<yyyyMMdd_HHmmss>.csv".
func ExportFilename(base string, t time.Time) string {
	return base + "_" + t.Format(exportTimestampLayout) + ".csv"
}

// WriteCSV writes the header and one row per part, in the given order.
func WriteCSV(w io.Writer, parts []Part) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeaders); err != nil {
		return err
	}
	for _, p := range parts {
		err := cw.Write([]string{
			p.PartNumber,
			p.PartName,
			p.Price.StringFixed(2),
			p.Description,
			p.Manufacturer,
		})
		if err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export is a resolved set of parts ready to be written.
type Export struct {
	Filename string
	Parts    []Part
}

// Write streams e as CSV.
func (e *Export) Write(w io.Writer) error {
	return WriteCSV(w, e.Parts)
}

// ExportAll prepares every part in natural order.
func (s *Service) ExportAll(ctx context.Context) (*Export, error) {
	parts, err := s.store.AllParts(ctx)
	if err != nil {
		return nil, wrapStore("export parts", err)
	}
	e := &Export{Filename: ExportFilename("parts_export", s.now()), Parts: parts}
	s.recordExport(ctx, e, nil)
	return e, nil
}

// ExportSearch prepares the parts matching c through the same predicate
// path as search. Empty criteria export everything.
func (s *Service) ExportSearch(ctx context.Context, c Criteria) (*Export, error) {
	if errs := c.Validate(); len(errs) > 0 {
		return nil, errs
	}
	parts, err := s.FilterParts(ctx, c.PartFilter)
	if err != nil {
		return nil, err
	}
	base := "parts_search_export"
	if c.IsEmpty() {
		base = "parts_all_export"
	}
	e := &Export{Filename: ExportFilename(base, s.now()), Parts: parts}
	s.recordExport(ctx, e, CriteriaSummary(c.PartFilter))
	return e, nil
}

func (s *Service) recordExport(ctx context.Context, e *Export, criteria map[string]string) {
	details := map[string]any{"rows": len(e.Parts)}
	if len(criteria) > 0 {
		details["criteria"] = criteria
	}
	logging.WithFields(ctx, "filename", e.Filename).Info("parts exported", "rows", len(e.Parts))
	s.record(ctx, ActionCSVExport, "export", e.Filename, e.Filename, details)
}

// ImportFile is an uploaded CSV. Size is the size the client declared.
type ImportFile struct {
	Name string
	Size int64
	Body io.Reader
}

// RowMessage is a per-row outcome message. Row is the file line number;
// the header is line 1.
type RowMessage struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

func (m RowMessage) String() string {
	return fmt.Sprintf("row %d: %s", m.Row, m.Message)
}

// ImportOutcome accumulates the result of one import run.
type ImportOutcome struct {
	ID           uuid.UUID    `json:"id"`
	Filename     string       `json:"filename"`
	StartedAt    time.Time    `json:"startedAt"`
	FinishedAt   time.Time    `json:"finishedAt"`
	SuccessCount int          `json:"successCount"`
	ErrorCount   int          `json:"errorCount"`
	SkipCount    int          `json:"skipCount"`
	Errors       []RowMessage `json:"errors"`
	Skipped      []RowMessage `json:"skipped"`
}

func newImportOutcome(name string, started time.Time) *ImportOutcome {
	return &ImportOutcome{
		ID:        uuid.New(),
		Filename:  name,
		StartedAt: started,
		Errors:    []RowMessage{},
		Skipped:   []RowMessage{},
	}
}

func (o *ImportOutcome) addSuccess() {
	o.SuccessCount++
}

func (o *ImportOutcome) addError(row int, msg string) {
	o.ErrorCount++
	o.Errors = append(o.Errors, RowMessage{Row: row, Message: msg})
}

func (o *ImportOutcome) addSkip(row int, msg string) {
	o.SkipCount++
	o.Skipped = append(o.Skipped, RowMessage{Row: row, Message: msg})
}

// IsSuccess is true when no row failed. Skips do not count as failures.
func (o *ImportOutcome) IsSuccess() bool { return o.ErrorCount == 0 }

func (o *ImportOutcome) HasErrors() bool { return o.ErrorCount > 0 }
func (o *ImportOutcome) HasSkipped() bool { return o.SkipCount > 0 }

// TotalCount is the number of data rows processed.
func (o *ImportOutcome) TotalCount() int {
	return o.SuccessCount + o.ErrorCount + o.SkipCount
}

// ErrorMessages renders Errors as "row N: message".
func (o *ImportOutcome) ErrorMessages() []string {
	return rowStrings(o.Errors)
}

// SkippedMessages renders Skipped as "row N: message".
func (o *ImportOutcome) SkippedMessages() []string {
	return rowStrings(o.Skipped)
}

func rowStrings(msgs []RowMessage) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.String()
	}
	return out
}

// MarshalJSON adds the derived flags and rendered messages.
func (o *ImportOutcome) MarshalJSON() ([]byte, error) {
	type plain ImportOutcome
	return json.Marshal(struct {
		*plain
		IsSuccess       bool     `json:"isSuccess"`
		HasErrors       bool     `json:"hasErrors"`
		HasSkipped      bool     `json:"hasSkipped"`
		TotalCount      int      `json:"totalCount"`
		ErrorMessages   []string `json:"errorMessages"`
		SkippedMessages []string `json:"skippedMessages"`
	}{
		plain:           (*plain)(o),
		IsSuccess:       o.IsSuccess(),
		HasErrors:       o.HasErrors(),
		HasSkipped:      o.HasSkipped(),
		TotalCount:      o.TotalCount(),
		ErrorMessages:   o.ErrorMessages(),
		SkippedMessages: o.SkippedMessages(),
	})
}

// csvRow is a parsed record and the file line it started on.
type csvRow struct {
	line   int
	fields []string
}

// ImportCSV registers the parts in f. File-level problems fail the whole
// import with a validation error before any row is processed. Row-level
// problems are recorded in the outcome and never abort the run.
//
// If ctx is cancelled or the import timeout fires part way through, the
// rows already registered stay committed. ImportCSV then returns the
// partial outcome, with an "import interrupted" error on the first row it
// did not finish, together with the context error.
func (s *Service) ImportCSV(ctx context.Context, f ImportFile) (*ImportOutcome, error) {
	if err := s.checkImportFile(f); err != nil {
		return nil, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, fmt.Errorf("import %s: %w", f.Name, err)
	}
	defer s.limiter.Release()
	importsActive.Inc()
	defer importsActive.Dec()

	if s.importTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.importTimeout)
		defer cancel()
	}

	rows, err := s.readImportRows(f)
	if err != nil {
		importRunsTotal.WithLabelValues("failed").Inc()
		return nil, err
	}

	outcome := newImportOutcome(f.Name, s.now())
	logger := logging.WithFields(ctx, "import_id", outcome.ID, "filename", f.Name)
	logger.Info("import started", "rows", len(rows)-1)

	data := rows[1:]
	for i, row := range data {
		err := ctx.Err()
		if err == nil {
			err = s.importRow(ctx, outcome, row)
		}
		if err != nil {
			outcome.addError(row.line, fmt.Sprintf("import interrupted: %s, %d rows not processed", interruptReason(err), len(data)-i))
			s.finishImport(ctx, outcome, "interrupted")
			logger.Warn("import interrupted",
				"success", outcome.SuccessCount,
				"errors", outcome.ErrorCount,
				"skipped", outcome.SkipCount,
				"error", err,
			)
			return outcome, fmt.Errorf("import %s: %w", f.Name, err)
		}
	}
	s.finishImport(ctx, outcome, "completed")

	logger.Info("import completed",
		"success", outcome.SuccessCount,
		"errors", outcome.ErrorCount,
		"skipped", outcome.SkipCount,
		"duration", outcome.FinishedAt.Sub(outcome.StartedAt),
	)
	return outcome, nil
}

// finishImport stamps the outcome, counts it and writes the audit entry.
// The audit write must survive a cancelled ctx.
func (s *Service) finishImport(ctx context.Context, outcome *ImportOutcome, status string) {
	outcome.FinishedAt = s.now()

	importRunsTotal.WithLabelValues(status).Inc()
	importRowsTotal.WithLabelValues("success").Add(float64(outcome.SuccessCount))
	importRowsTotal.WithLabelValues("error").Add(float64(outcome.ErrorCount))
	importRowsTotal.WithLabelValues("skip").Add(float64(outcome.SkipCount))

	s.record(context.WithoutCancel(ctx), ActionCSVImport, "import", outcome.ID, outcome.Filename, map[string]any{
		"success": outcome.SuccessCount,
		"errors":  outcome.ErrorCount,
		"skipped": outcome.SkipCount,
		"status":  status,
	})
}

func interruptReason(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	return "cancelled"
}

func (s *Service) checkImportFile(f ImportFile) error {
	switch {
	case f.Body == nil || f.Name == "":
		return invalid("file", "", "no file provided")
	case f.Size == 0:
		return invalid("file", f.Name, "empty file")
	case !strings.EqualFold(filepath.Ext(f.Name), ".csv"):
		return invalid("file", f.Name, "not a csv file: "+f.Name)
	case f.Size > s.maxFileSize:
		return invalid("file", f.Name, fmt.Sprintf("file too large: %d bytes exceeds %d", f.Size, s.maxFileSize))
	}
	return nil
}

// readImportRows reads the whole body and checks the header row. The
// declared size is not trusted; the read itself is bounded too.
func (s *Service) readImportRows(f ImportFile) ([]csvRow, error) {
	data, err := io.ReadAll(io.LimitReader(f.Body, s.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	if int64(len(data)) > s.maxFileSize {
		return nil, invalid("file", f.Name, fmt.Sprintf("file too large: exceeds %d bytes", s.maxFileSize))
	}
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\uFEFF")))) == 0 {
		return nil, invalid("file", f.Name, "empty file")
	}

	r := csv.NewReader(newImportReader(bytes.NewReader(data)))
	r.FieldsPerRecord = -1

	var (
		rows     []csvRow
		lastLine int // last line of the previous record
	)
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, invalid("file", f.Name, "invalid csv: "+err.Error())
		}
		line, _ := r.FieldPos(0)
		if len(rows) > 0 {
			rows = appendBlankRows(rows, lastLine+1, line)
		}
		rows = append(rows, csvRow{line: line, fields: rec})

		end, _ := r.FieldPos(len(rec) - 1)
		lastLine = end + strings.Count(rec[len(rec)-1], "\n")
	}
	if len(rows) > 0 && bytes.HasSuffix(data, []byte("\n")) {
		rows = appendBlankRows(rows, lastLine+1, bytes.Count(data, []byte("\n"))+1)
	}

	if len(rows) == 0 {
		return nil, invalid("file", f.Name, "empty file")
	}
	header := rows[0].fields
	if len(header) < exportColumns {
		return nil, invalid("file", f.Name, fmt.Sprintf("invalid header: expected %d columns, got %d", exportColumns, len(header)))
	}
	for i := range 3 {
		if strings.TrimSpace(header[i]) == "" {
			return nil, invalid("file", f.Name, fmt.Sprintf("invalid header: column %d is blank", i+1))
		}
	}
	return rows, nil
}

// appendBlankRows adds an empty record for each line in [from, to).
// encoding/csv skips empty lines, but an import reports them as rows.
func appendBlankRows(rows []csvRow, from, to int) []csvRow {
	for line := from; line < to; line++ {
		rows = append(rows, csvRow{line: line})
	}
	return rows
}

// importRow processes one data row into outcome. It returns an error only
// when ctx ended before the row could be settled; the row is then left
// unrecorded.
func (s *Service) importRow(ctx context.Context, outcome *ImportOutcome, row csvRow) error {
	in, err := parseImportRow(row.fields)
	if err != nil {
		outcome.addError(row.line, err.Error())
		return nil
	}

	exists, err := s.store.PartNumberExists(ctx, in.PartNumber, 0)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		outcome.addError(row.line, "could not check part number: "+err.Error())
		return nil
	}
	if exists {
		outcome.addSkip(row.line, "part number already exists: "+in.PartNumber)
		return nil
	}

	if _, err := s.registerPart(ctx, in); err != nil {
		switch {
		case errors.Is(err, ErrConflict):
			// Registered by someone else between the check and the insert.
			outcome.addSkip(row.line, "part number already exists: "+in.PartNumber)
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			outcome.addError(row.line, rowErrorText(err))
		}
		return nil
	}
	outcome.addSuccess()
	return nil
}

// parseImportRow maps columns 0-2 (required) and 3-4 (optional) to a PartInput.
func parseImportRow(fields []string) (PartInput, error) {
	if len(fields) == 0 {
		return PartInput{}, errors.New("blank line: required columns missing")
	}
	if len(fields) < 3 {
		return PartInput{}, fmt.Errorf("expected at least 3 columns, got %d", len(fields))
	}
	col := func(i int) string {
		if i < len(fields) {
			return cleanCell(fields[i])
		}
		return ""
	}

	in := PartInput{
		PartNumber:   col(0),
		PartName:     col(1),
		Description:  col(3),
		Manufacturer: col(4),
	}
	switch {
	case in.PartNumber == "":
		return PartInput{}, errors.New("part number is required")
	case in.PartName == "":
		return PartInput{}, errors.New("part name is required")
	case col(2) == "":
		return PartInput{}, errors.New("price is required")
	}

	price, err := decimal.NewFromString(col(2))
	if err != nil {
		return PartInput{}, fmt.Errorf("price must be a number: %q", col(2))
	}
	in.Price = &price
	return in, nil
}

// cleanCell trims a cell and unwraps Excel's ="..." text guard, which
// spreadsheets add to keep part numbers like 00123 from losing zeros.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 3 && strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) {
		s = strings.TrimSpace(s[2 : len(s)-1])
	}
	return s
}

// rowErrorText strips operation prefixes from validation failures.
func rowErrorText(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return err.Error()
}
