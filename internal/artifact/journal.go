package artifact

import (
	"bytes"
	"encoding/csv"
	"os"
	"strconv"
)

// JournalColumns is the journal_v1 schema (§6 Persisted state). It is
// a compile-time constant: new columns may only be appended at the
// end, never reordered or removed (§9 DESIGN NOTES).
var JournalColumns = []string{
	"ts_ms", "cycle_id", "venue", "market_id", "symbol",
	"official_venue", "official_mid", "official_ts_ms",
	"pm_best_bid", "pm_best_ask", "pm_depth_qty", "pm_depth_notional_usd", "pm_book_status",
	"fair_up_prob", "implied_yes", "implied_no",
	"edge_yes", "edge_no", "edge_gross_bps", "edge_net_bps", "spread_bps", "depth_total",
	"market_class", "regime",
	"action", "reason", "subreason",
	"risk_reason",
	"signal_side", "signal_price", "signal_size", "params_hash",
}

const defaultMaxJournalRows = 500

// JournalRow is one decision cycle's worth of journal fields, keyed by
// JournalColumns name. Values are pre-formatted strings; callers own
// number formatting so the writer never guesses precision.
type JournalRow map[string]string

// JournalWriter appends bounded, schema-stable rows to a CSV file.
type JournalWriter struct {
	path    string
	maxRows int
}

func NewJournalWriter(path string, maxRows int) *JournalWriter {
	if maxRows <= 0 {
		maxRows = defaultMaxJournalRows
	}
	return &JournalWriter{path: path, maxRows: maxRows}
}

// Append writes row to the journal, bounding total rows to maxRows
// (keeping the most recent by insertion order) and detecting a header
// mismatch against an existing file (§4.10 Schema mismatch, §8 Journal
// bound). It returns ok=false when a mismatch was detected, so the
// caller can set health.schema_mismatch and alert.
func (w *JournalWriter) Append(row JournalRow) (ok bool, err error) {
	columns, existingRows, mismatch, err := w.loadExisting()
	if err != nil {
		return false, err
	}

	newRecord := make([]string, len(columns))
	for i, col := range columns {
		newRecord[i] = row[col]
	}
	existingRows = append(existingRows, newRecord)

	if len(existingRows) > w.maxRows {
		existingRows = existingRows[len(existingRows)-w.maxRows:]
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(columns); err != nil {
		return false, err
	}
	if err := writer.WriteAll(existingRows); err != nil {
		return false, err
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return false, err
	}

	if err := writeAtomic(w.path, buf.Bytes()); err != nil {
		return false, err
	}
	return !mismatch, nil
}

// loadExisting reads the current journal file, if any, returning its
// header (defaulting to JournalColumns when the file is absent) and
// data rows, plus whether the on-disk header diverges from
// JournalColumns.
func (w *JournalWriter) loadExisting() (columns []string, rows [][]string, mismatch bool, err error) {
	data, err := os.ReadFile(w.path)
	if os.IsNotExist(err) {
		return JournalColumns, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil || len(records) == 0 {
		return JournalColumns, nil, false, nil
	}

	header := records[0]
	body := records[1:]
	if !sameColumns(header, JournalColumns) {
		return header, body, true, nil
	}
	return header, body, false, nil
}

// RowCount reads the on-disk journal and reports its current data-row
// count (excluding the header), or 0 if it does not yet exist.
func (w *JournalWriter) RowCount() int {
	_, rows, _, err := w.loadExisting()
	if err != nil {
		return 0
	}
	return len(rows)
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FormatFloat renders a float with fixed precision for journal columns
// (callers should use this rather than fmt.Sprintf("%v", ...), so the
// on-disk representation never varies across rows).
func FormatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
