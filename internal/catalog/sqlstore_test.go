package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteCatalog(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "data", "catalog.db")

	b, err := Open(ctx, Options{Type: TypeSQLite, DSN: path, Migrate: true})
	require.NoError(t, err)
	defer b.Close()

	runBackendSuite(t, b)
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := OpenSQL(ctx, TypeSQLite, path, true)
	require.NoError(t, err)
	defer c.Close()

	assert.NoError(t, c.Migrate(ctx))
	assert.NoError(t, c.Migrate(ctx))
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")
	ids := newTestIDs()

	c, err := OpenSQL(ctx, TypeSQLite, path, true)
	require.NoError(t, err)
	seedStoresAndItems(t, c, ids)
	require.NoError(t, c.Close())

	c, err = OpenSQL(ctx, TypeSQLite, path, false)
	require.NoError(t, err)
	defer c.Close()

	store, err := c.GetStore(ctx, ids.id("a"))
	require.NoError(t, err)
	assert.Equal(t, "Store A", store.Name)
}

func TestOpenSQLUnknownKind(t *testing.T) {
	_, err := OpenSQL(context.Background(), "oracle", "", false)
	assert.Error(t, err)
}

func TestOpenSQLRejectsBadMySQLDSN(t *testing.T) {
	_, err := OpenSQL(context.Background(), TypeMySQL, "not a dsn", false)
	assert.Error(t, err)
}

func TestMySQLCatalog(t *testing.T) {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		t.Skip("MYSQL_DSN not set")
	}

	b, err := Open(context.Background(), Options{Type: TypeMySQL, DSN: dsn, Migrate: true})
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}
	defer b.Close()

	runBackendSuite(t, b)
}
