// Package ledger maintains the append-only, hash-chained audit log of every
// scrub and reversal attempt. The JSONL file is the source of truth for
// chain verification; a SQLite mirror serves history queries.
package ledger

import (
	"bufio"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrChainIntegrity marks a broken hash link. A ledger that failed
// verification refuses further appends until resolved; appending atop a
// known-broken chain would compound the inconsistency.
var ErrChainIntegrity = errors.New("audit chain integrity")

// Ledger owns the chain tail and serializes all appends. All appenders go
// through one mutex so no entry is ever computed against a stale tail.
type Ledger struct {
	mu     sync.Mutex
	dir    string
	tail   string
	broken bool
	db     *sql.DB
}

const jsonlName = "audit.jsonl"

// Open prepares the ledger under dir, recovering the current tail from the
// JSONL log and ensuring the SQLite mirror schema.
func Open(dir string) (*Ledger, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("audit dir: %w", err)
	}
	l := &Ledger{dir: dir, tail: Genesis}

	entries, err := l.readAll()
	if err != nil {
		return nil, err
	}
	if n := len(entries); n > 0 {
		l.tail = entries[n-1].CurrHash
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, "audit.db"))
	if err != nil {
		return nil, fmt.Errorf("audit db: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS audit(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ts TEXT NOT NULL,
			outcome TEXT NOT NULL,
			operation_id TEXT,
			prev_hash TEXT,
			curr_hash TEXT,
			json TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit(ts);
		CREATE INDEX IF NOT EXISTS idx_audit_op ON audit(operation_id);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("audit db schema: %w", err)
	}
	l.db = db
	return l, nil
}

// Close releases the mirror database.
func (l *Ledger) Close() error {
	if l.db != nil {
		return l.db.Close()
	}
	return nil
}

func (l *Ledger) jsonlPath() string { return filepath.Join(l.dir, jsonlName) }

// Append links the entry to the current tail and persists it. Once begun an
// append runs to completion; there is no cancellation path. The enriched
// entry (hashes filled in) is returned.
func (l *Ledger) Append(e Entry) (Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.broken {
		return Entry{}, fmt.Errorf("%w: ledger refused append on broken chain", ErrChainIntegrity)
	}
	if e.TS == "" {
		e.TS = time.Now().UTC().Format(time.RFC3339)
	}
	e.PrevHash = l.tail
	e.CurrHash = chainHash(l.tail, e)

	line, err := json.Marshal(e)
	if err != nil {
		return Entry{}, fmt.Errorf("audit append: %w", err)
	}
	// Owner-only: entries carry identifiers and hashes, not raw values, but
	// they are still operational metadata.
	f, err := os.OpenFile(l.jsonlPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return Entry{}, fmt.Errorf("audit append: %w", err)
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		f.Close()
		return Entry{}, fmt.Errorf("audit append: %w", err)
	}
	if err := f.Close(); err != nil {
		return Entry{}, fmt.Errorf("audit append: %w", err)
	}
	l.tail = e.CurrHash

	// Mirror is a query convenience, not chain state; a mirror failure does
	// not invalidate the append.
	if l.db != nil {
		_, _ = l.db.Exec(
			"INSERT INTO audit(ts,outcome,operation_id,prev_hash,curr_hash,json) VALUES(?,?,?,?,?,?)",
			e.TS, string(e.Outcome), e.OperationID, e.PrevHash, e.CurrHash, string(line),
		)
	}
	return e, nil
}

// Verify replays the chain in insertion order, recomputing every hash. It
// returns the zero-based position of the first broken link with
// ErrChainIntegrity, or (-1, nil) for an intact chain. A detected break
// marks the ledger broken and blocks further appends.
func (l *Ledger) Verify() (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	entries, err := l.readAll()
	if err != nil {
		return -1, err
	}
	prev := Genesis
	for i, e := range entries {
		if e.PrevHash != prev {
			l.broken = true
			return i, fmt.Errorf("%w: entry %d prev_hash mismatch", ErrChainIntegrity, i)
		}
		if got := chainHash(prev, e); got != e.CurrHash {
			l.broken = true
			return i, fmt.Errorf("%w: entry %d curr_hash mismatch", ErrChainIntegrity, i)
		}
		prev = e.CurrHash
	}
	return -1, nil
}

// Len reports the number of chained entries.
func (l *Ledger) Len() (int, error) {
	entries, err := l.readAll()
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Tail returns up to n most recent entries, newest first, from the mirror.
func (l *Ledger) Tail(n int) ([]Entry, error) {
	rows, err := l.db.Query("SELECT json FROM audit ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("audit tail: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// FindByOperation returns the entries recorded for one operation id in
// insertion order.
func (l *Ledger) FindByOperation(operationID string) ([]Entry, error) {
	rows, err := l.db.Query("SELECT json FROM audit WHERE operation_id=? ORDER BY id ASC", operationID)
	if err != nil {
		return nil, fmt.Errorf("audit find: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// readAll loads every entry from the JSONL log in insertion order.
func (l *Ledger) readAll() ([]Entry, error) {
	f, err := os.Open(l.jsonlPath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("audit read: %w", err)
	}
	defer f.Close()
	var out []Entry
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return nil, fmt.Errorf("audit read: malformed entry: %w", err)
		}
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("audit read: %w", err)
	}
	return out, nil
}
