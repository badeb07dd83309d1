package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrAlreadyPosted is returned by MarkPosted when the title is already
// recorded. After a successful publish this is a benign race (another run
// got there first), not a failure.
var ErrAlreadyPosted = errors.New("trend already posted")

// Ledger is the durable record of which trend titles have been announced.
// It only ever grows; uniqueness is enforced by the primary key, so
// concurrent writers for the same title cannot both succeed.
type Ledger struct {
	db *sql.DB
}

// Open opens (and if needed creates) the ledger database at path.
func Open(path string) (*Ledger, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create ledger dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	// SQLite permits one writer; a single pooled connection keeps
	// concurrent MarkPosted callers out of SQLITE_BUSY territory.
	db.SetMaxOpenConns(1)

	l := &Ledger{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	return l, nil
}

func (l *Ledger) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posted_trends (
		trend_title TEXT PRIMARY KEY,
		posted_at TIMESTAMP NOT NULL
	);
	`

	if _, err := l.db.Exec(schema); err != nil {
		return fmt.Errorf("init ledger schema: %w", err)
	}
	return nil
}

// HasPosted reports whether the title was already announced.
func (l *Ledger) HasPosted(title string) (bool, error) {
	var exists bool
	err := l.db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM posted_trends WHERE trend_title = ?)`,
		title,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check posted: %w", err)
	}
	return exists, nil
}

// MarkPosted records the title as announced. The insert defers to the
// primary-key constraint instead of doing read-then-write: when another
// writer already holds the title, zero rows are inserted and
// ErrAlreadyPosted is returned.
func (l *Ledger) MarkPosted(title string) error {
	res, err := l.db.Exec(
		`INSERT INTO posted_trends (trend_title, posted_at) VALUES (?, ?)
		 ON CONFLICT(trend_title) DO NOTHING`,
		title, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("mark posted: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark posted: %w", err)
	}
	if n == 0 {
		return ErrAlreadyPosted
	}
	return nil
}

// Stats returns ledger counters for the monitoring endpoint.
func (l *Ledger) Stats() (map[string]int, error) {
	stats := make(map[string]int)

	var total int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM posted_trends`).Scan(&total); err != nil {
		return nil, err
	}
	stats["total_posted"] = total

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	var recent int
	if err := l.db.QueryRow(
		`SELECT COUNT(*) FROM posted_trends WHERE posted_at > ?`, cutoff,
	).Scan(&recent); err != nil {
		return nil, err
	}
	stats["posted_last_24h"] = recent

	return stats, nil
}

// Recent returns the most recently announced titles, newest first.
func (l *Ledger) Recent(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := l.db.Query(
		`SELECT trend_title, posted_at FROM posted_trends
		 ORDER BY posted_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Title, &r.PostedAt); err != nil {
			log.Printf("ledger: skipping unreadable row: %v", err)
			continue
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// Record is one announced trend.
type Record struct {
	Title    string
	PostedAt time.Time
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}
