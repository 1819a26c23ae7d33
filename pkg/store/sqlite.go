package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	issueerrors "github.com/scan-io-git/issuetrack/pkg/shared/errors"
	"github.com/scan-io-git/issuetrack/pkg/textrange"
	"github.com/scan-io-git/issuetrack/pkg/trackable"
)

// SQLiteStore keeps tracked issues of all source files in one SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens a SQLite database at dbPath with WAL mode enabled.
// Call Migrate before first use.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, issueerrors.NewStoreError("open", dbPath, fmt.Errorf("open database: %w", err))
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, issueerrors.NewStoreError("open", dbPath, fmt.Errorf("ping database: %w", err))
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates the tables and indexes. Idempotent.
func (s *SQLiteStore) Migrate() error {
	if _, err := s.db.Exec(schemaDDL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  saved_at        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS issues (
  id                    INTEGER PRIMARY KEY,
  file_id               INTEGER NOT NULL REFERENCES files(id) ON DELETE CASCADE,
  position              INTEGER NOT NULL,
  identity              TEXT NOT NULL,
  rule_key              TEXT NOT NULL,
  message               TEXT,
  line                  INTEGER,
  start_line            INTEGER,
  start_line_offset     INTEGER,
  end_line              INTEGER,
  end_line_offset       INTEGER,
  text_range_hash       TEXT,
  line_hash             TEXT,
  severity              TEXT,
  type                  TEXT,
  clean_code_attribute  TEXT,
  impacts               TEXT,
  server_issue_key      TEXT,
  resolved              BOOLEAN NOT NULL DEFAULT FALSE,
  creation_date         INTEGER
);

CREATE INDEX IF NOT EXISTS idx_issues_file ON issues(file_id, position);
`

const issueColumns = `identity, rule_key, message, line, start_line, start_line_offset, end_line, end_line_offset,
  text_range_hash, line_hash, severity, type, clean_code_attribute, impacts, server_issue_key, resolved, creation_date`

// Read loads the issues saved for path. It reports false when nothing was saved.
func (s *SQLiteStore) Read(path string) ([]trackable.Tracked, bool, error) {
	var fileID int64
	err := s.db.QueryRow("SELECT id FROM files WHERE path = ?", path).Scan(&fileID)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, issueerrors.NewStoreError("read", path, fmt.Errorf("file by path: %w", err))
	}

	rows, err := s.db.Query("SELECT "+issueColumns+" FROM issues WHERE file_id = ? ORDER BY position", fileID)
	if err != nil {
		return nil, false, issueerrors.NewStoreError("read", path, fmt.Errorf("issues by file: %w", err))
	}
	defer rows.Close()

	var records []record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, false, issueerrors.NewStoreError("read", path, err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, false, issueerrors.NewStoreError("read", path, err)
	}

	issues, err := fromRecords(records)
	if err != nil {
		return nil, false, issueerrors.NewStoreError("read", path, err)
	}
	return issues, true, nil
}

func scanRecord(rows *sql.Rows) (record, error) {
	var (
		r                                 record
		message, trHash, lineHash, key    sql.NullString
		severity, typ, cca, impacts       sql.NullString
		line, sl, slo, el, elo, createdAt sql.NullInt64
	)
	err := rows.Scan(&r.ID, &r.RuleKey, &message, &line, &sl, &slo, &el, &elo,
		&trHash, &lineHash, &severity, &typ, &cca, &impacts, &key, &r.Resolved, &createdAt)
	if err != nil {
		return record{}, fmt.Errorf("scan issue: %w", err)
	}

	r.Message = nullString(message)
	r.TextRangeHash = nullString(trHash)
	r.LineHash = nullString(lineHash)
	r.ServerIssueKey = nullString(key)
	r.Severity = severity.String
	r.Type = typ.String
	r.CleanCodeAttribute = cca.String
	if line.Valid {
		n := int(line.Int64)
		r.Line = &n
	}
	if sl.Valid {
		r.TextRange = &textrange.Range{
			StartLine:       int(sl.Int64),
			StartLineOffset: int(slo.Int64),
			EndLine:         int(el.Int64),
			EndLineOffset:   int(elo.Int64),
		}
	}
	if createdAt.Valid {
		n := createdAt.Int64
		r.CreationDate = &n
	}
	if impacts.Valid && impacts.String != "" {
		if err := json.Unmarshal([]byte(impacts.String), &r.Impacts); err != nil {
			return record{}, fmt.Errorf("decode impacts of %s: %w", r.ID, err)
		}
	}
	return r, nil
}

// Save replaces the issues saved for path in a single transaction.
func (s *SQLiteStore) Save(path string, issues []trackable.Tracked) error {
	tx, err := s.db.Begin()
	if err != nil {
		return issueerrors.NewStoreError("save", path, fmt.Errorf("begin transaction: %w", err))
	}
	defer tx.Rollback()

	var fileID int64
	err = tx.QueryRow(
		`INSERT INTO files (path, saved_at) VALUES (?, ?)
		 ON CONFLICT(path) DO UPDATE SET saved_at = excluded.saved_at
		 RETURNING id`,
		path, time.Now().UnixNano(),
	).Scan(&fileID)
	if err != nil {
		return issueerrors.NewStoreError("save", path, fmt.Errorf("upsert file: %w", err))
	}

	if _, err := tx.Exec("DELETE FROM issues WHERE file_id = ?", fileID); err != nil {
		return issueerrors.NewStoreError("save", path, fmt.Errorf("delete issues: %w", err))
	}

	stmt, err := tx.Prepare("INSERT INTO issues (file_id, position, " + issueColumns + ") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return issueerrors.NewStoreError("save", path, fmt.Errorf("prepare insert: %w", err))
	}
	defer stmt.Close()

	for i, r := range toRecords(issues) {
		var sl, slo, el, elo any
		if r.TextRange != nil {
			sl, slo, el, elo = r.TextRange.StartLine, r.TextRange.StartLineOffset, r.TextRange.EndLine, r.TextRange.EndLineOffset
		}
		impacts, err := marshalImpacts(r.Impacts)
		if err != nil {
			return issueerrors.NewStoreError("save", path, err)
		}
		_, err = stmt.Exec(fileID, i,
			r.ID, r.RuleKey, r.Message, r.Line, sl, slo, el, elo,
			r.TextRangeHash, r.LineHash, r.Severity, r.Type, r.CleanCodeAttribute, impacts,
			r.ServerIssueKey, r.Resolved, r.CreationDate)
		if err != nil {
			return issueerrors.NewStoreError("save", path, fmt.Errorf("insert issue %s: %w", r.ID, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return issueerrors.NewStoreError("save", path, fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Paths lists every source path with saved issues, sorted.
func (s *SQLiteStore) Paths() ([]string, error) {
	rows, err := s.db.Query("SELECT path FROM files ORDER BY path")
	if err != nil {
		return nil, issueerrors.NewStoreError("list", "files", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, issueerrors.NewStoreError("list", "files", err)
		}
		paths = append(paths, p)
	}
	if err := rows.Err(); err != nil {
		return nil, issueerrors.NewStoreError("list", "files", err)
	}
	return paths, nil
}

func marshalImpacts(impacts []trackable.Impact) (any, error) {
	if impacts == nil {
		return nil, nil
	}
	b, err := json.Marshal(impacts)
	if err != nil {
		return nil, fmt.Errorf("encode impacts: %w", err)
	}
	return string(b), nil
}

func nullString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
