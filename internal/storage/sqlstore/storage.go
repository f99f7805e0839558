// Package sqlstore keeps level history in a SQL table, on SQLite or
// PostgreSQL.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/mcoot/guildtracker/internal/model"
	"github.com/mcoot/guildtracker/internal/storage"
)

// Dialect selects the SQL driver and placeholder style
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS level_records (
	date  TEXT    NOT NULL,
	name  TEXT    NOT NULL,
	level INTEGER NOT NULL,
	PRIMARY KEY (date, name)
)`

// Storage is a SQL implementation of the storage interface
type Storage struct {
	db      *sql.DB
	dialect Dialect
}

// Open connects to dsn with the dialect's driver and ensures the schema
func Open(ctx context.Context, dialect Dialect, dsn string) (*Storage, error) {
	switch dialect {
	case DialectSQLite, DialectPostgres:
	default:
		return nil, fmt.Errorf("unsupported SQL dialect %q", dialect)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, err
	}
	if dialect == DialectSQLite {
		// One writer at a time; avoids SQLITE_BUSY between pooled connections
		db.SetMaxOpenConns(1)
	}

	s, err := New(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database and ensures the schema exists
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Storage, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Storage{db: db, dialect: dialect}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

func (s *Storage) SaveLevels(ctx context.Context, date string, levels []model.MemberLevel) error {
	if len(levels) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.rebind(`
		INSERT INTO level_records (date, name, level)
		VALUES (?, ?, ?)
		ON CONFLICT (date, name) DO UPDATE SET level = excluded.level
	`))
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, l := range levels {
		if _, err := stmt.ExecContext(ctx, date, l.Name, int(l.Level)); err != nil {
			return fmt.Errorf("save level for %s: %w", l.Name, err)
		}
	}

	return tx.Commit()
}

func (s *Storage) GetRecords(ctx context.Context) ([]model.LevelRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, name, level
		FROM level_records
		ORDER BY date, name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	records := []model.LevelRecord{}
	for rows.Next() {
		var r model.LevelRecord
		if err := rows.Scan(&r.Date, &r.Name, &r.Level); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Collation differs between engines; keep the byte order every backend uses
	storage.SortRecords(records)
	return records, nil
}

func (s *Storage) GetDates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT date FROM level_records ORDER BY date`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	dates := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		dates = append(dates, d)
	}
	return dates, rows.Err()
}

// rebind rewrites ? placeholders as $n for PostgreSQL. It does not skip
// quoted text, so queries passed here must not contain ? in literals.
func (s *Storage) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
