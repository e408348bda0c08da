package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"leadcrm-engine/internal/table"
)

// Migrate brings the roster schema to the current user_version. Roster
// columns are not part of the schema: they are added on write, so any header
// the CSV form can carry survives a round trip through the database.
func Migrate(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var v int
	if err := tx.QueryRow(`PRAGMA user_version;`).Scan(&v); err != nil {
		return err
	}
	if v >= 1 {
		return tx.Commit()
	}

	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS leads (
  _pos INTEGER PRIMARY KEY
);
`); err != nil {
		return err
	}

	// header order lives here rather than in pragma_table_info, which
	// drifts once a column is dropped by hand
	if _, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS roster_meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);
`); err != nil {
		return err
	}

	if _, err := tx.Exec(`PRAGMA user_version = 1;`); err != nil {
		return err
	}
	return tx.Commit()
}

func columnExists(ctx context.Context, q interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}, table, col string) bool {
	query := fmt.Sprintf(`
SELECT 1
FROM pragma_table_info('%s')
WHERE name = ?
LIMIT 1;
`, table)

	var one int
	err := q.QueryRowContext(ctx, query, col).Scan(&one)
	return err == nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// SQLite keeps the roster in a single table, one TEXT column per roster
// column, rows ordered by _pos.
type SQLite struct {
	Path string
	db   *DB
	now  func() time.Time
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &SQLite{Path: path, db: db, now: time.Now}, nil
}

func (s *SQLite) Name() string { return "sqlite:" + s.Path }

func (s *SQLite) Exists(ctx context.Context) (bool, error) {
	var v string
	err := s.db.Pool.QueryRowContext(ctx, `SELECT value FROM roster_meta WHERE key = 'written_at';`).Scan(&v)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLite) Read(ctx context.Context) (table.Table, error) {
	var header string
	if err := s.db.Pool.QueryRowContext(ctx, `SELECT value FROM roster_meta WHERE key = 'columns';`).Scan(&header); err != nil {
		return table.Table{}, fmt.Errorf("read header: %w", err)
	}
	t := table.Table{}
	if header != "" {
		t.Columns = strings.Split(header, "\x1f")
	}
	if len(t.Columns) == 0 {
		return t, nil
	}

	sel := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		sel[i] = "COALESCE(" + quoteIdent(c) + ", '')"
	}
	rows, err := s.db.Pool.QueryContext(ctx, fmt.Sprintf(`SELECT %s FROM leads ORDER BY _pos;`, strings.Join(sel, ", ")))
	if err != nil {
		return table.Table{}, err
	}
	defer rows.Close()

	for rows.Next() {
		row := make([]string, len(t.Columns))
		dest := make([]any, len(row))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return table.Table{}, err
		}
		t.Rows = append(t.Rows, row)
	}
	return t, rows.Err()
}

// Write replaces the whole roster in one transaction.
func (s *SQLite) Write(ctx context.Context, t table.Table) error {
	tx, err := s.db.Pool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, c := range t.Columns {
		if c == "_pos" {
			return fmt.Errorf("column name %q is reserved", c)
		}
		if !columnExists(ctx, tx, "leads", c) {
			if _, err := tx.ExecContext(ctx, fmt.Sprintf(`ALTER TABLE leads ADD COLUMN %s TEXT NOT NULL DEFAULT '';`, quoteIdent(c))); err != nil {
				return fmt.Errorf("add column %q: %w", c, err)
			}
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM leads;`); err != nil {
		return err
	}

	if len(t.Columns) > 0 {
		cols := make([]string, len(t.Columns))
		marks := make([]string, len(t.Columns))
		for i, c := range t.Columns {
			cols[i] = quoteIdent(c)
			marks[i] = "?"
		}
		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(`INSERT INTO leads(_pos, %s) VALUES(?, %s);`,
			strings.Join(cols, ", "), strings.Join(marks, ", ")))
		if err != nil {
			return err
		}
		defer stmt.Close()

		for pos, row := range t.Rows {
			args := make([]any, 0, len(t.Columns)+1)
			args = append(args, pos)
			for i := range t.Columns {
				v := ""
				if i < len(row) {
					v = row[i]
				}
				args = append(args, v)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return fmt.Errorf("insert row %d: %w", pos, err)
			}
		}
	}

	meta := map[string]string{
		"columns":    strings.Join(t.Columns, "\x1f"),
		"written_at": s.now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO roster_meta(key, value) VALUES(?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value;`, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLite) Close() error { return s.db.Close() }
