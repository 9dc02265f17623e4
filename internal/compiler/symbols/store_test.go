package symbols

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pchp-lang/pchp/internal/compiler/metadata"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// each connection to :memory: is a separate database
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func sampleTable(t *testing.T) *Table {
	t.Helper()

	tbl := NewTable()
	require.NoError(t, tbl.AddModule(ModuleSymbol{
		Name: "standard",
		Registrations: []Registration{
			{Module: "standard", Declarer: "standard", Extensions: []string{"standard", "core"}, Registrator: "Pchp.Library.StandardRegistrator"},
		},
	}))
	require.NoError(t, tbl.AddType(TypeSymbol{Name: "stdClass", HostName: "Pchp.Core.stdClass", Module: "standard", Kind: metadata.DeclClass}))
	require.NoError(t, tbl.AddType(TypeSymbol{Name: "ArrayAccess", HostName: "Pchp.Core.ArrayAccess", Module: "standard", Kind: metadata.DeclInterface, FileName: "spl.php"}))
	require.NoError(t, tbl.AddFunction(strlen()))
	require.NoError(t, tbl.AddScript(ScriptSymbol{Path: "index.php", HostName: "index_php", Module: "app"}))
	return tbl
}

func TestStoreSaveAndLoad(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	require.NoError(t, store.Migrate(ctx))
	// idempotent
	require.NoError(t, store.Migrate(ctx))

	require.NoError(t, store.Save(ctx, sampleTable(t)))

	types, err := store.LoadTypeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ArrayAccess", "stdClass"}, types)

	funcs, err := store.LoadFunctionNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"strlen"}, funcs)

	host, ok, err := store.FindType(ctx, "STDCLASS")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Pchp.Core.stdClass", host)

	_, ok, err = store.FindType(ctx, "Closure")
	require.NoError(t, err)
	assert.False(t, ok)

	var regs int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM symbol_registrations`).Scan(&regs))
	assert.Equal(t, 1, regs)
}

func TestStoreSaveReplaces(t *testing.T) {
	db := setupTestDB(t)
	store := NewStore(db)
	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	require.NoError(t, store.Save(ctx, sampleTable(t)))

	next := NewTable()
	require.NoError(t, next.AddType(TypeSymbol{Name: "Closure", HostName: "Pchp.Core.Closure", Module: "standard", Kind: metadata.DeclClass}))
	require.NoError(t, store.Save(ctx, next))

	types, err := store.LoadTypeNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Closure"}, types)

	funcs, err := store.LoadFunctionNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, funcs)
}

func TestStoreSaveRollsBack(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM symbol_types`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM symbol_functions`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM symbol_scripts`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM symbol_registrations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO symbol_types`).
		WithArgs("ArrayAccess", "arrayaccess", "Pchp.Core.ArrayAccess", "standard", "interface", false, sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err = NewStore(db).Save(context.Background(), sampleTable(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save type ArrayAccess")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreMigrateError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS symbol_types`).WillReturnError(errors.New("read-only"))

	err = NewStore(db).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize symbol tables")
	assert.NoError(t, mock.ExpectationsWereMet())
}
