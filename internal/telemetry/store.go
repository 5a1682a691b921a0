package telemetry

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// ZeroResultCap is the number of zero-result queries the database keeps.
const ZeroResultCap = 100

// migrations are applied in order; PRAGMA user_version records how many ran.
var migrations = []string{
	`CREATE TABLE daily_queries (
		day          TEXT    NOT NULL,
		kind         TEXT    NOT NULL,
		queries      INTEGER NOT NULL DEFAULT 0,
		zero_results INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (day, kind)
	);
	CREATE TABLE query_terms (
		term      TEXT PRIMARY KEY,
		count     INTEGER NOT NULL DEFAULT 0,
		last_seen TIMESTAMP NOT NULL
	);
	CREATE INDEX idx_query_terms_count ON query_terms(count DESC);
	CREATE TABLE zero_result_queries (
		id    INTEGER PRIMARY KEY AUTOINCREMENT,
		query TEXT NOT NULL,
		kind  TEXT NOT NULL,
		at    TIMESTAMP NOT NULL
	);
	CREATE TABLE daily_latency (
		day    TEXT    NOT NULL,
		bucket TEXT    NOT NULL,
		count  INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (day, bucket)
	);`,
}

// KindCount counts the queries of one kind and how many found nothing.
type KindCount struct {
	Queries     int64 `json:"queries"`
	ZeroResults int64 `json:"zero_results"`
}

// ZeroResult is one query that returned no articles.
type ZeroResult struct {
	Query string
	Kind  QueryType
	At    time.Time
}

// Delta holds the increments recorded between two flushes.
type Delta struct {
	Day       string
	Kinds     map[QueryType]KindCount
	Terms     map[string]int64
	Latencies map[LatencyBucket]int64
	Zero      []ZeroResult
}

// Empty reports whether d would change nothing.
func (d Delta) Empty() bool {
	return len(d.Kinds) == 0 && len(d.Terms) == 0 && len(d.Latencies) == 0 && len(d.Zero) == 0
}

// Totals is the persisted telemetry across every recorded day.
type Totals struct {
	Kinds map[QueryType]KindCount `json:"kinds"`
	// TopTerms holds the most frequent terms, most frequent first.
	TopTerms []TermCount `json:"top_terms"`
	// RecentZero holds the retained zero-result queries, newest first.
	RecentZero []string                `json:"recent_zero"`
	Latency    map[LatencyBucket]int64 `json:"latency"`
}

// Queries sums the query count of every kind.
func (t Totals) Queries() int64 {
	var n int64
	for _, k := range t.Kinds {
		n += k.Queries
	}
	return n
}

// ZeroResults sums the zero-result count of every kind.
func (t Totals) ZeroResults() int64 {
	var n int64
	for _, k := range t.Kinds {
		n += k.ZeroResults
	}
	return n
}

// DB persists query telemetry in a local SQLite file.
type DB struct {
	db *sql.DB
}

// Open opens (or creates) the telemetry database at path and brings its
// schema up to date.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open telemetry database: %w", err)
	}
	// one writer; the serve process and a status command may share the file
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version > len(migrations) {
		return fmt.Errorf("telemetry schema version %d is newer than this binary (%d)", version, len(migrations))
	}
	for i := version; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration: %w", err)
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate telemetry schema to %d: %w", i+1, err)
		}
		// PRAGMA does not take bind parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record schema version: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration: %w", err)
		}
	}
	return nil
}

// Apply adds d to the stored counts in one transaction, so a failed flush
// leaves the database unchanged and can be retried.
func (s *DB) Apply(ctx context.Context, d Delta) error {
	if d.Empty() {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin flush: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for kind, c := range d.Kinds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_queries (day, kind, queries, zero_results) VALUES (?, ?, ?, ?)
			ON CONFLICT(day, kind) DO UPDATE SET
				queries = queries + excluded.queries,
				zero_results = zero_results + excluded.zero_results`,
			d.Day, string(kind), c.Queries, c.ZeroResults); err != nil {
			return fmt.Errorf("add query counts: %w", err)
		}
	}

	now := time.Now().UTC()
	for term, n := range d.Terms {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO query_terms (term, count, last_seen) VALUES (?, ?, ?)
			ON CONFLICT(term) DO UPDATE SET
				count = count + excluded.count,
				last_seen = excluded.last_seen`,
			term, n, now); err != nil {
			return fmt.Errorf("add term count: %w", err)
		}
	}

	for bucket, n := range d.Latencies {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_latency (day, bucket, count) VALUES (?, ?, ?)
			ON CONFLICT(day, bucket) DO UPDATE SET count = count + excluded.count`,
			d.Day, string(bucket), n); err != nil {
			return fmt.Errorf("add latency count: %w", err)
		}
	}

	if len(d.Zero) > 0 {
		for _, z := range d.Zero {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO zero_result_queries (query, kind, at) VALUES (?, ?, ?)`,
				z.Query, string(z.Kind), z.At.UTC()); err != nil {
				return fmt.Errorf("add zero-result query: %w", err)
			}
		}
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM zero_result_queries
			WHERE id <= (SELECT COALESCE(MAX(id), 0) FROM zero_result_queries) - ?`,
			ZeroResultCap); err != nil {
			return fmt.Errorf("trim zero-result queries: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit flush: %w", err)
	}
	return nil
}

// Totals reads the stored counts. topTerms bounds TopTerms.
func (s *DB) Totals(ctx context.Context, topTerms int) (Totals, error) {
	t := Totals{
		Kinds:   make(map[QueryType]KindCount),
		Latency: make(map[LatencyBucket]int64),
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT kind, SUM(queries), SUM(zero_results) FROM daily_queries GROUP BY kind`)
	if err != nil {
		return t, fmt.Errorf("read query counts: %w", err)
	}
	err = scanRows(rows, func() error {
		var kind string
		var c KindCount
		if err := rows.Scan(&kind, &c.Queries, &c.ZeroResults); err != nil {
			return err
		}
		t.Kinds[QueryType(kind)] = c
		return nil
	})
	if err != nil {
		return t, fmt.Errorf("read query counts: %w", err)
	}

	rows, err = s.db.QueryContext(ctx,
		`SELECT term, count FROM query_terms ORDER BY count DESC, term LIMIT ?`, topTerms)
	if err != nil {
		return t, fmt.Errorf("read top terms: %w", err)
	}
	err = scanRows(rows, func() error {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return err
		}
		t.TopTerms = append(t.TopTerms, tc)
		return nil
	})
	if err != nil {
		return t, fmt.Errorf("read top terms: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT query FROM zero_result_queries ORDER BY id DESC`)
	if err != nil {
		return t, fmt.Errorf("read zero-result queries: %w", err)
	}
	err = scanRows(rows, func() error {
		var q string
		if err := rows.Scan(&q); err != nil {
			return err
		}
		t.RecentZero = append(t.RecentZero, q)
		return nil
	})
	if err != nil {
		return t, fmt.Errorf("read zero-result queries: %w", err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT bucket, SUM(count) FROM daily_latency GROUP BY bucket`)
	if err != nil {
		return t, fmt.Errorf("read latency counts: %w", err)
	}
	err = scanRows(rows, func() error {
		var bucket string
		var n int64
		if err := rows.Scan(&bucket, &n); err != nil {
			return err
		}
		t.Latency[LatencyBucket(bucket)] = n
		return nil
	})
	if err != nil {
		return t, fmt.Errorf("read latency counts: %w", err)
	}
	return t, nil
}

func scanRows(rows *sql.Rows, scan func() error) error {
	defer rows.Close()
	for rows.Next() {
		if err := scan(); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Close closes the database.
func (s *DB) Close() error {
	return s.db.Close()
}
