package symbols

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Store persists symbol tables to a SQL database so tooling can query the
// names a build exposes without re-running discovery.
type Store struct {
	db *sql.DB
}

// NewStore creates a store over an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the symbol tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	query := `
CREATE TABLE IF NOT EXISTS symbol_types (
	name TEXT NOT NULL,
	lookup_key TEXT PRIMARY KEY,
	host_name TEXT NOT NULL,
	module TEXT NOT NULL,
	kind TEXT NOT NULL,
	trait BOOLEAN NOT NULL DEFAULT FALSE,
	file_name TEXT
);

CREATE TABLE IF NOT EXISTS symbol_functions (
	name TEXT NOT NULL,
	lookup_key TEXT PRIMARY KEY,
	host_name TEXT NOT NULL,
	module TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS symbol_scripts (
	path TEXT PRIMARY KEY,
	host_name TEXT NOT NULL,
	module TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS symbol_registrations (
	module TEXT NOT NULL,
	position INTEGER NOT NULL,
	declarer TEXT NOT NULL,
	registrator TEXT NOT NULL,
	extensions TEXT,
	PRIMARY KEY (module, position)
);
`
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to initialize symbol tables: %w", err)
	}
	return nil
}

// Save replaces the stored symbols with the contents of t in one transaction.
func (s *Store) Save(ctx context.Context, t *Table) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, table := range []string{"symbol_types", "symbol_functions", "symbol_scripts", "symbol_registrations"} {
		if _, err = tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, ty := range t.Types() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO symbol_types (name, lookup_key, host_name, module, kind, trait, file_name) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			ty.Name, key(ty.Name), ty.HostName, ty.Module, string(ty.Kind), ty.Trait, nullString(ty.FileName))
		if err != nil {
			return fmt.Errorf("failed to save type %s: %w", ty.Name, err)
		}
	}

	for _, fn := range t.Functions() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO symbol_functions (name, lookup_key, host_name, module) VALUES (?, ?, ?, ?)`,
			fn.Name, key(fn.Name), fn.HostName, fn.Module)
		if err != nil {
			return fmt.Errorf("failed to save function %s: %w", fn.Name, err)
		}
	}

	for _, sc := range t.Scripts() {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO symbol_scripts (path, host_name, module) VALUES (?, ?, ?)`,
			sc.Path, sc.HostName, sc.Module)
		if err != nil {
			return fmt.Errorf("failed to save script %s: %w", sc.Path, err)
		}
	}

	for _, mod := range t.Modules() {
		for i, reg := range mod.Registrations {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO symbol_registrations (module, position, declarer, registrator, extensions) VALUES (?, ?, ?, ?, ?)`,
				reg.Module, i, reg.Declarer, reg.Registrator, nullString(strings.Join(reg.Extensions, ",")))
			if err != nil {
				return fmt.Errorf("failed to save registration %s: %w", reg.Registrator, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LoadTypeNames returns the stored type names in lookup order.
func (s *Store) LoadTypeNames(ctx context.Context) ([]string, error) {
	return s.names(ctx, `SELECT name FROM symbol_types ORDER BY lookup_key ASC`)
}

// LoadFunctionNames returns the stored function names in lookup order.
func (s *Store) LoadFunctionNames(ctx context.Context) ([]string, error) {
	return s.names(ctx, `SELECT name FROM symbol_functions ORDER BY lookup_key ASC`)
}

// FindType resolves a stored type name to its host name.
func (s *Store) FindType(ctx context.Context, name string) (string, bool, error) {
	var host string
	err := s.db.QueryRowContext(ctx, `SELECT host_name FROM symbol_types WHERE lookup_key = ?`, key(name)).Scan(&host)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to find type %s: %w", name, err)
	}
	return host, true, nil
}

func (s *Store) names(ctx context.Context, query string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query symbols: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}
	return names, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
