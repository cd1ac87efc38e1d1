package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	stdfs "io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultPath is the store file used when no path is configured.
const DefaultPath = "users.db"

// Open opens (or creates) the SQLite store at path and makes sure the users
// table exists by applying any schema version not yet recorded in
// schema_migrations. Calling Open on an existing store leaves its rows intact.
//
// Schema files live under internal/db/migrations and are named
//
//	0001_name.up.sql / 0001_name.down.sql
func Open(path string) (*sql.DB, error) {
	if path == "" {
		path = DefaultPath
	}
	d, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := d.Ping(); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("ping %s: %w", path, err)
	}
	// WAL is unavailable for in-memory stores.
	_, _ = d.Exec(`PRAGMA journal_mode=WAL`)
	if _, err := d.Exec(`PRAGMA busy_timeout=5000`); err != nil {
		_ = d.Close()
		return nil, err
	}
	if err := Migrate(d); err != nil {
		_ = d.Close()
		return nil, err
	}
	return d, nil
}

// Migrate applies pending schema versions in ascending order.
func Migrate(d *sql.DB) error {
	if d == nil {
		return errors.New("nil db")
	}
	schemas, err := loadSchemas()
	if err != nil {
		return err
	}
	if len(schemas) == 0 {
		return nil
	}
	applied, err := appliedVersions(d)
	if err != nil {
		return err
	}
	versions := make([]int, 0, len(schemas))
	for v := range schemas {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	for _, v := range versions {
		if applied[v] {
			continue
		}
		s := schemas[v]
		if s.upFile == "" {
			return fmt.Errorf("missing up script for schema %04d", v)
		}
		if err := runScript(d, s.upFile, `INSERT INTO schema_migrations(version) VALUES(?)`, v); err != nil {
			return fmt.Errorf("schema %04d (%s) failed: %w", v, s.name, err)
		}
	}
	return nil
}

// RollbackLast reverts the most recently applied schema version. Rolling back
// the first version drops the users table along with every row in it.
func RollbackLast(d *sql.DB) error {
	if d == nil {
		return errors.New("nil db")
	}
	if err := ensureVersionTable(d); err != nil {
		return err
	}
	var version int
	err := d.QueryRow(`SELECT version FROM schema_migrations ORDER BY version DESC LIMIT 1`).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	} else if err != nil {
		return err
	}
	schemas, err := loadSchemas()
	if err != nil {
		return err
	}
	s, ok := schemas[version]
	if !ok || s.downFile == "" {
		return fmt.Errorf("no down script for schema %04d", version)
	}
	return runScript(d, s.downFile, `DELETE FROM schema_migrations WHERE version = ?`, version)
}

//go:embed migrations/*.sql
var schemaFS embed.FS

type schema struct {
	name     string
	upFile   string
	downFile string
}

var schemaFileRe = regexp.MustCompile(`^([0-9]{4})_(.+)\.(up|down)\.sql$`)

func loadSchemas() (map[int]schema, error) {
	out := map[int]schema{}
	list, err := stdfs.ReadDir(schemaFS, "migrations")
	if err != nil {
		return nil, err
	}
	for _, de := range list {
		if de.IsDir() {
			continue
		}
		m := schemaFileRe.FindStringSubmatch(de.Name())
		if m == nil {
			continue
		}
		ver, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		s := out[ver]
		s.name = m[2]
		p := "migrations/" + de.Name()
		if m[3] == "up" {
			s.upFile = p
		} else {
			s.downFile = p
		}
		out[ver] = s
	}
	return out, nil
}

// runScript executes an embedded script and its schema_migrations bookkeeping
// in one transaction. Scripts starting with "-- NO_TX" run outside of one.
func runScript(d *sql.DB, file, bookkeeping string, version int) error {
	raw, err := schemaFS.ReadFile(file)
	if err != nil {
		return err
	}
	text := string(raw)
	if err := ensureVersionTable(d); err != nil {
		return err
	}
	if strings.HasPrefix(strings.TrimSpace(text), "-- NO_TX") {
		if _, err := d.Exec(text); err != nil {
			return err
		}
		_, err := d.Exec(bookkeeping, version)
		return err
	}
	tx, err := d.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(text); err != nil {
		_ = tx.Rollback()
		return err
	}
	if _, err := tx.Exec(bookkeeping, version); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func ensureVersionTable(d *sql.DB) error {
	_, err := d.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
        version INTEGER PRIMARY KEY,
        applied_at TEXT NOT NULL DEFAULT (CURRENT_TIMESTAMP)
    )`)
	return err
}

func appliedVersions(d *sql.DB) (map[int]bool, error) {
	if err := ensureVersionTable(d); err != nil {
		return nil, err
	}
	rows, err := d.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	got := map[int]bool{}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		got[v] = true
	}
	return got, rows.Err()
}
