package store

const schemaVersion = 1

// Dialect selects DDL and catalog queries for a SQL backend.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS reports (
	run_id           TEXT PRIMARY KEY,
	startup          TEXT NOT NULL,
	category         TEXT,
	decision         TEXT NOT NULL,
	confidence       REAL NOT NULL,
	final_score      REAL NOT NULL,
	aborted          INTEGER NOT NULL DEFAULT 0,
	created_at       TEXT NOT NULL,
	payload          TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS ledger_entries (
	run_id           TEXT NOT NULL REFERENCES reports(run_id),
	position         INTEGER NOT NULL,
	question_key     TEXT NOT NULL,
	question         TEXT NOT NULL,
	answer           TEXT NOT NULL,
	status           TEXT NOT NULL,
	rewrite_count    INTEGER NOT NULL,
	fallback_used    INTEGER NOT NULL,
	PRIMARY KEY (run_id, position)
);
CREATE INDEX IF NOT EXISTS idx_reports_created ON reports(created_at);
`

// MySQL takes one statement per Exec unless multiStatements is set, so the
// schema is a list.
var schemaMySQL = []string{
	`CREATE TABLE IF NOT EXISTS schema_version (
		version INT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reports (
		run_id      VARCHAR(64) PRIMARY KEY,
		startup     VARCHAR(255) NOT NULL,
		category    VARCHAR(255),
		decision    VARCHAR(8) NOT NULL,
		confidence  DOUBLE NOT NULL,
		final_score DOUBLE NOT NULL,
		aborted     TINYINT(1) NOT NULL DEFAULT 0,
		created_at  VARCHAR(40) NOT NULL,
		payload     LONGTEXT NOT NULL,
		INDEX idx_reports_created (created_at)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_entries (
		run_id        VARCHAR(64) NOT NULL,
		position      INT NOT NULL,
		question_key  VARCHAR(255) NOT NULL,
		question      TEXT NOT NULL,
		answer        TEXT NOT NULL,
		status        VARCHAR(16) NOT NULL,
		rewrite_count INT NOT NULL,
		fallback_used TINYINT(1) NOT NULL,
		PRIMARY KEY (run_id, position)
	)`,
}

func (d Dialect) schema() []string {
	if d == DialectMySQL {
		return schemaMySQL
	}
	return []string{schemaSQLite}
}

func (d Dialect) versionTableQuery() string {
	if d == DialectMySQL {
		return "SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = 'schema_version'"
	}
	return "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'"
}
