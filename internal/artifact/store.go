package artifact

import "path/filepath"

// Store writes the three per-cycle files into artifactsDir (default
// artifacts/shadow, §4.10).
type Store struct {
	dir     string
	journal *JournalWriter
}

const DefaultArtifactsDir = "artifacts/shadow"

func NewStore(dir string, maxJournalRows int) *Store {
	return NewStoreWithJournalPath(dir, "", maxJournalRows)
}

// NewStoreWithJournalPath places the journal CSV at journalPath instead
// of the default location inside dir, for the CLI's --output override
// (§6: --output names a CSV path, not a directory). The JSON artifacts
// stay in dir either way.
func NewStoreWithJournalPath(dir, journalPath string, maxJournalRows int) *Store {
	if dir == "" {
		dir = DefaultArtifactsDir
	}
	if journalPath == "" {
		journalPath = filepath.Join(dir, "latest_journal.csv")
	}
	return &Store{
		dir:     dir,
		journal: NewJournalWriter(journalPath, maxJournalRows),
	}
}

func (s *Store) WriteSummary(sum Summary) error {
	return WriteJSONBounded(filepath.Join(s.dir, "latest_summary.json"), sum)
}

func (s *Store) WriteHealth(h Health) error {
	return WriteJSONBounded(filepath.Join(s.dir, "health.json"), h)
}

// AppendJournal writes one journal row; ok is false on schema mismatch.
func (s *Store) AppendJournal(row JournalRow) (ok bool, err error) {
	return s.journal.Append(row)
}

// JournalRowCount reports how many data rows the on-disk journal holds
// right now, for health.json's journal_rows field (§6).
func (s *Store) JournalRowCount() int {
	return s.journal.RowCount()
}
