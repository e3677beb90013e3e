package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"dealscout/internal/report"
)

// timeLayout is fixed-width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SqlStore implements Store over database/sql.
type SqlStore struct {
	db      *sql.DB
	dialect Dialect
}

// Open opens or creates a SQLite DB at path and runs migrations.
// Creates the parent directory (e.g. .dealscout) if it does not exist.
func Open(path string) (*SqlStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	return newSqlStore(db, DialectSQLite)
}

// MySQLDSN builds a go-sql-driver DSN.
func MySQLDSN(host, port, username, password, database string) string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&loc=UTC",
		username, password, host, port, database)
}

// OpenMySQL connects to MySQL with dsn and runs migrations.
func OpenMySQL(dsn string) (*SqlStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)
	return newSqlStore(db, DialectMySQL)
}

func newSqlStore(db *sql.DB, d Dialect) (*SqlStore, error) {
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d, err)
	}
	s := &SqlStore{db: db, dialect: d}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SqlStore) migrate() error {
	var tableCount int
	if err := s.db.QueryRow(s.dialect.versionTableQuery()).Scan(&tableCount); err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableCount == 0 {
		return s.freshInstall()
	}

	var v int
	err := s.db.QueryRow("SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return s.freshInstall()
	}
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if v != schemaVersion {
		return fmt.Errorf("unknown schema version %d (want %d)", v, schemaVersion)
	}
	return nil
}

func (s *SqlStore) freshInstall() error {
	for _, stmt := range s.dialect.schema() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	if _, err := s.db.Exec("INSERT INTO schema_version(version) VALUES(?)", schemaVersion); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SqlStore) Close() error { return s.db.Close() }

// SaveReport stores the report and its ledger in one transaction.
func (s *SqlStore) SaveReport(rep *report.Report) error {
	if rep == nil || rep.RunID == "" {
		return errors.New("save report: run ID is required")
	}
	payload, err := json.Marshal(rep)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var n int
	if err := tx.QueryRow("SELECT COUNT(*) FROM reports WHERE run_id = ?", rep.RunID).Scan(&n); err != nil {
		return fmt.Errorf("check run %s: %w", rep.RunID, err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRun, rep.RunID)
	}

	run := runFromReport(rep)
	_, err = tx.Exec(`INSERT INTO reports(run_id, startup, category, decision, confidence, final_score, aborted, created_at, payload)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.Startup, run.Category, run.Decision, run.Confidence, run.FinalScore,
		boolInt(run.Aborted), run.CreatedAt.Format(timeLayout), string(payload))
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}

	for _, r := range ledgerRows(rep) {
		_, err := tx.Exec(`INSERT INTO ledger_entries(run_id, position, question_key, question, answer, status, rewrite_count, fallback_used)
			VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
			r.RunID, r.Position, r.QuestionKey, r.Question, r.Answer, r.Status, r.RewriteCount, boolInt(r.FallbackUsed))
		if err != nil {
			return fmt.Errorf("insert ledger entry %s: %w", r.QuestionKey, err)
		}
	}
	return tx.Commit()
}

// GetReport loads the full report payload for runID.
func (s *SqlStore) GetReport(runID string) (*report.Report, error) {
	var payload string
	err := s.db.QueryRow("SELECT payload FROM reports WHERE run_id = ?", runID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get report %s: %w", runID, err)
	}
	var rep report.Report
	if err := json.Unmarshal([]byte(payload), &rep); err != nil {
		return nil, fmt.Errorf("decode report %s: %w", runID, err)
	}
	return &rep, nil
}

// ListReports returns run summaries, newest first.
func (s *SqlStore) ListReports(limit int) ([]Run, error) {
	q := `SELECT run_id, startup, category, decision, confidence, final_score, aborted, created_at
		FROM reports ORDER BY created_at DESC, run_id`
	args := []any{}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r        Run
			category sql.NullString
			aborted  int
			created  string
		)
		if err := rows.Scan(&r.RunID, &r.Startup, &category, &r.Decision, &r.Confidence, &r.FinalScore, &aborted, &created); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		r.Category = category.String
		r.Aborted = aborted != 0
		if t, err := time.Parse(timeLayout, created); err == nil {
			r.CreatedAt = t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ListLedger returns the ledger rows of runID in question order.
func (s *SqlStore) ListLedger(runID string) ([]LedgerRow, error) {
	rows, err := s.db.Query(`SELECT run_id, position, question_key, question, answer, status, rewrite_count, fallback_used
		FROM ledger_entries WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("list ledger %s: %w", runID, err)
	}
	defer rows.Close()

	var out []LedgerRow
	for rows.Next() {
		var (
			r        LedgerRow
			fallback int
		)
		if err := rows.Scan(&r.RunID, &r.Position, &r.QuestionKey, &r.Question, &r.Answer, &r.Status, &r.RewriteCount, &fallback); err != nil {
			return nil, fmt.Errorf("scan ledger row: %w", err)
		}
		r.FallbackUsed = fallback != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
