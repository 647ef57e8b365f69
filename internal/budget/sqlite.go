package budget

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists the ledger record as a single row using
// modernc.org/sqlite, so the quota survives process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the ledger database at path and runs the
// migration.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "budget: open sqlite")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "budget: exec %s", pragma)
		}
	}
	if _, err := db.Exec(ledgerMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "budget: migrate")
	}
	return &SQLiteStore{db: db}, nil
}

const ledgerMigration = `
CREATE TABLE IF NOT EXISTS request_ledger (
	id              INTEGER PRIMARY KEY CHECK (id = 1),
	total_requests  INTEGER NOT NULL,
	manual_requests INTEGER NOT NULL,
	last_reset_date TEXT NOT NULL
);`

// Load reads the single ledger row. A missing or corrupt row reads as
// absent, so the ledger starts from zeroed counters instead of failing.
func (s *SQLiteStore) Load() (Record, bool, error) {
	var rec Record
	err := s.db.QueryRow(
		`SELECT total_requests, manual_requests, last_reset_date FROM request_ledger WHERE id = 1`,
	).Scan(&rec.TotalRequests, &rec.ManualRefreshRequests, &rec.LastResetDate)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, eris.Wrap(err, "budget: load ledger")
	}
	if rec.TotalRequests < 0 || rec.ManualRefreshRequests < 0 {
		return Record{}, false, nil
	}
	if _, perr := time.Parse(dateLayout, rec.LastResetDate); perr != nil {
		return Record{}, false, nil
	}
	return rec, true, nil
}

// Save upserts the single ledger row.
func (s *SQLiteStore) Save(rec Record) error {
	_, err := s.db.Exec(
		`INSERT INTO request_ledger (id, total_requests, manual_requests, last_reset_date)
		 VALUES (1, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			total_requests = excluded.total_requests,
			manual_requests = excluded.manual_requests,
			last_reset_date = excluded.last_reset_date`,
		rec.TotalRequests, rec.ManualRefreshRequests, rec.LastResetDate,
	)
	return eris.Wrap(err, "budget: save ledger")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
