package backup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCatalogBackupRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedProduct(t, "4901234567890", "Milk", "2025-07-01")
	env.seedProduct(t, "4909999999999", "Juice", "")

	path, err := env.engine.ExportCatalog(ctx)
	require.NoError(t, err)

	var file CatalogFile
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &file))
	require.Equal(t, FormatVersion, file.Version)
	require.Equal(t, "master_products", file.Table)
	require.Equal(t, 2, file.Count)
	require.Len(t, file.Rows, 2)

	// Import into a second, empty environment.
	target := newTestEnv(t)
	imported, err := target.engine.ImportCatalog(ctx, &StaticPicker{Path: path})
	require.NoError(t, err)
	require.Equal(t, 2, imported)

	p, err := target.catalog.FindByBarcode(ctx, "4901234567890")
	require.NoError(t, err)
	require.NotNil(t, p)
	require.Equal(t, "Milk", p.Name)

	// Catalog-only import never creates inventory records.
	rows, err := target.inventory.ListAllJoined(ctx)
	require.NoError(t, err)
	require.Empty(t, rows)
}

func TestImportCatalogMergesByBarcode(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	id := env.seedProduct(t, "111", "Old name", "2025-07-01")

	path, err := env.engine.ExportCatalog(ctx)
	require.NoError(t, err)

	// Rename the live row, then re-import the earlier snapshot. The merge
	// updates the row in place without duplicating it or touching inventory.
	require.NoError(t, env.catalog.UpdateName(ctx, id, "New name"))

	imported, err := env.engine.ImportCatalog(ctx, &StaticPicker{Path: path})
	require.NoError(t, err)
	require.Equal(t, 1, imported)

	p, err := env.catalog.FindByBarcode(ctx, "111")
	require.NoError(t, err)
	require.Equal(t, "Old name", p.Name)

	count, err := env.catalog.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	row, err := env.inventory.FindByProductID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, row)
	require.Equal(t, "2025-07-01", row.ExpiryDate)
}

func TestImportCatalogRejectsWrongShape(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	dir := t.TempDir()

	cases := map[string]string{
		"not JSON":      `this is not json`,
		"wrong version": `{"version": 99, "table": "master_products", "rows": []}`,
		"wrong table":   `{"version": 1, "table": "inventory_items", "rows": []}`,
		"missing rows":  `{"version": 1, "table": "master_products"}`,
	}

	for name, body := range cases {
		path := filepath.Join(dir, name+".json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

		_, err := env.engine.ImportCatalog(ctx, &StaticPicker{Path: path})
		require.ErrorIs(t, err, ErrInvalidBackup, "case %q", name)
	}
}
