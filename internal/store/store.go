package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite" // register the sqlite driver

	"github.com/erickmeikoki/job-trends-data/pkg/types"
)

const dateFormat = "2006-01-02"

const schema = `
CREATE TABLE IF NOT EXISTS job_postings (
	id            TEXT PRIMARY KEY,
	date          TEXT NOT NULL,
	title         TEXT NOT NULL,
	job_type      TEXT NOT NULL,
	company       TEXT NOT NULL,
	location      TEXT NOT NULL DEFAULT '',
	salary        REAL,
	skills        TEXT NOT NULL DEFAULT '',
	experience    TEXT NOT NULL DEFAULT '',
	education     TEXT NOT NULL DEFAULT '',
	remote_option TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_job_postings_date ON job_postings(date);
CREATE INDEX IF NOT EXISTS idx_job_postings_company ON job_postings(company);

CREATE TABLE IF NOT EXISTS runs (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	started_at   TEXT NOT NULL,
	duration_ms  INTEGER NOT NULL,
	records      INTEGER NOT NULL,
	quarantined  INTEGER NOT NULL,
	start_period TEXT NOT NULL DEFAULT '',
	end_period   TEXT NOT NULL DEFAULT '',
	statuses     TEXT NOT NULL DEFAULT '{}'
);
`

// Store wraps a SQLite database holding the current snapshot of job
// postings and the history of analysis runs.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at dsn and applies the schema.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// In-memory databases are per-connection; multiple connections each
	// get a separate empty database. Limit to one connection so the
	// schema and all queries see the same data.
	if strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("store: exec %s: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// ReplaceSnapshot clears the posting table and inserts records in a single
// transaction, so readers never observe a half-replaced snapshot. Returns
// the number of rows inserted.
func (s *Store) ReplaceSnapshot(ctx context.Context, records []types.JobRecord) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("store: replace snapshot: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM job_postings"); err != nil {
		return 0, fmt.Errorf("store: replace snapshot: clear: %w", err)
	}

	n, err := insertRecords(ctx, tx, records)
	if err != nil {
		return n, fmt.Errorf("store: replace snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("store: replace snapshot: commit: %w", err)
	}
	return n, nil
}

// InsertRecords adds records to the current snapshot. Rows whose ID is
// already present are ignored, so re-importing the same file is a no-op.
// Returns the number of rows actually inserted.
func (s *Store) InsertRecords(ctx context.Context, records []types.JobRecord) (int64, error) {
	n, err := insertRecords(ctx, s.db, records)
	if err != nil {
		return n, fmt.Errorf("store: insert records: %w", err)
	}
	return n, nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRecords(ctx context.Context, db execer, records []types.JobRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	const batchSize = 200
	var total int64

	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		batch := records[i:end]

		placeholders := make([]string, len(batch))
		args := make([]any, 0, len(batch)*11)
		for j, r := range batch {
			placeholders[j] = "(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)"
			var salary any
			if r.Salary != nil {
				salary = *r.Salary
			}
			args = append(args,
				r.ID, r.Date.Format(dateFormat), r.Title, string(r.JobType),
				r.Company, r.Location, salary, strings.Join(r.Skills, ";"),
				r.ExperienceLevel.String(), r.Education, string(r.RemoteOption),
			)
		}

		query := fmt.Sprintf(
			"INSERT OR IGNORE INTO job_postings (id, date, title, job_type, company, location, salary, skills, experience, education, remote_option) VALUES %s",
			strings.Join(placeholders, ", "),
		)

		res, err := db.ExecContext(ctx, query, args...)
		if err != nil {
			return total, err
		}
		n, _ := res.RowsAffected()
		total += n
	}

	return total, nil
}

// LoadSnapshot returns every stored posting ordered by date then ID.
func (s *Store) LoadSnapshot(ctx context.Context) ([]types.JobRecord, error) {
	const query = `SELECT id, date, title, job_type, company, location, salary, skills, experience, education, remote_option
		FROM job_postings
		ORDER BY date ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("store: load snapshot: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []types.JobRecord
	for rows.Next() {
		var r types.JobRecord
		var dateStr, jobType, skills, experience, remote string
		var salary sql.NullFloat64
		if err := rows.Scan(&r.ID, &dateStr, &r.Title, &jobType, &r.Company,
			&r.Location, &salary, &skills, &experience, &r.Education, &remote); err != nil {
			return nil, fmt.Errorf("store: scan posting: %w", err)
		}
		r.Date, _ = time.Parse(dateFormat, dateStr)
		r.JobType = types.JobType(jobType)
		if salary.Valid {
			v := salary.Float64
			r.Salary = &v
		}
		if skills != "" {
			r.Skills = strings.Split(skills, ";")
		}
		r.ExperienceLevel = types.ParseExperience(experience)
		r.RemoteOption = types.RemoteOption(remote)
		records = append(records, r)
	}

	return records, rows.Err()
}

// CountPostings returns the size of the stored snapshot.
func (s *Store) CountPostings(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM job_postings").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count postings: %w", err)
	}
	return n, nil
}

// Run is one row of the run history.
type Run struct {
	ID          int64                         `json:"id"`
	StartedAt   time.Time                     `json:"started_at"`
	Duration    time.Duration                 `json:"duration_ns"`
	Records     int                           `json:"records"`
	Quarantined int                           `json:"quarantined"`
	Start       types.Period                  `json:"start"`
	End         types.Period                  `json:"end"`
	Statuses    map[string]types.EngineStatus `json:"statuses"`
}

// RecordRun appends a run summary to the history and returns the assigned
// run ID.
func (s *Store) RecordRun(ctx context.Context, res *types.AnalysisResult) (int64, error) {
	statuses, err := json.Marshal(res.Statuses)
	if err != nil {
		return 0, fmt.Errorf("store: record run: encode statuses: %w", err)
	}

	var start, end string
	if !res.Start.IsZero() {
		start = res.Start.String()
	}
	if !res.End.IsZero() {
		end = res.End.String()
	}

	out, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (started_at, duration_ms, records, quarantined, start_period, end_period, statuses)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.StartedAt.UTC().Format(time.RFC3339Nano),
		res.Duration.Milliseconds(),
		res.Records, res.Quarantined,
		start, end,
		string(statuses),
	)
	if err != nil {
		return 0, fmt.Errorf("store: record run: %w", err)
	}

	id, err := out.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: record run: last id: %w", err)
	}
	return id, nil
}

// RecentRuns returns up to n history rows, newest first.
func (s *Store) RecentRuns(ctx context.Context, n int) ([]Run, error) {
	const query = `SELECT id, started_at, duration_ms, records, quarantined, start_period, end_period, statuses
		FROM runs ORDER BY id DESC LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("store: recent runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var r Run
		var startedStr, startPeriod, endPeriod, statuses string
		var durationMS int64
		if err := rows.Scan(&r.ID, &startedStr, &durationMS, &r.Records,
			&r.Quarantined, &startPeriod, &endPeriod, &statuses); err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedStr)
		r.Duration = time.Duration(durationMS) * time.Millisecond
		if startPeriod != "" {
			r.Start, _ = types.ParsePeriod(startPeriod)
		}
		if endPeriod != "" {
			r.End, _ = types.ParsePeriod(endPeriod)
		}
		if err := json.Unmarshal([]byte(statuses), &r.Statuses); err != nil {
			return nil, fmt.Errorf("store: decode statuses: %w", err)
		}
		runs = append(runs, r)
	}

	return runs, rows.Err()
}

// CountRuns returns the length of the run history.
func (s *Store) CountRuns(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM runs").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("store: count runs: %w", err)
	}
	return n, nil
}
