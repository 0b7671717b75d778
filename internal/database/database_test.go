package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) (*Backups, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "erp.db")
	db, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Backups{DB: db, Dir: filepath.Join(dir, "backups"), DBPath: path, Retention: 3}, path
}

func TestOpen_CreatesEveryTable(t *testing.T) {
	b, _ := openTemp(t)
	for _, table := range Tables {
		var name string
		err := b.DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		require.NoError(t, err, "table %s missing", table)
	}
}

func TestOpen_ForeignKeysEnforced(t *testing.T) {
	b, _ := openTemp(t)
	_, err := b.DB.Exec("INSERT INTO items (id, category_id, name) VALUES ('I1', 'missing', 'x')")
	require.Error(t, err)
}

func TestMigrate_Idempotent(t *testing.T) {
	b, _ := openTemp(t)
	require.NoError(t, Migrate(b.DB))
}

func TestBackups_CreateListDelete(t *testing.T) {
	b, _ := openTemp(t)
	ctx := context.Background()

	name, err := b.Create(ctx)
	require.NoError(t, err)

	list, err := b.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, name, list[0].Filename)
	assert.Positive(t, list[0].Size)

	require.NoError(t, b.Delete(name))
	list, err = b.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBackups_Retention(t *testing.T) {
	b, _ := openTemp(t)
	require.NoError(t, os.MkdirAll(b.Dir, 0o755))
	for _, n := range []string{"2020-01-01T00-00-00", "2020-01-02T00-00-00", "2020-01-03T00-00-00"} {
		require.NoError(t, os.WriteFile(filepath.Join(b.Dir, backupPrefix+n+".db"), []byte("x"), 0o644))
	}

	_, err := b.Create(context.Background())
	require.NoError(t, err)

	list, err := b.List()
	require.NoError(t, err)
	require.Len(t, list, 3)
	for _, bi := range list {
		assert.NotEqual(t, backupPrefix+"2020-01-01T00-00-00.db", bi.Filename)
	}
}

func TestBackups_PathRejectsTraversal(t *testing.T) {
	b, _ := openTemp(t)
	for _, name := range []string{"", "../erp.db", "a/b.db", "erp.db", backupPrefix + "..db"} {
		_, err := b.Path(name)
		assert.ErrorIs(t, err, ErrInvalidFilename, name)
	}
	_, err := b.Path(backupPrefix + "nope.db")
	assert.ErrorIs(t, err, ErrBackupNotFound)
}

func TestBackups_RestoreReplacesFile(t *testing.T) {
	b, path := openTemp(t)
	ctx := context.Background()

	_, err := b.DB.Exec("INSERT INTO sections (id, name) VALUES ('S1', 'Extrusion')")
	require.NoError(t, err)
	name, err := b.Create(ctx)
	require.NoError(t, err)
	_, err = b.DB.Exec("INSERT INTO sections (id, name) VALUES ('S2', 'Printing')")
	require.NoError(t, err)

	require.NoError(t, b.Restore(ctx, name))
	assert.Error(t, b.DB.Ping(), "the live pool is closed before the swap")
	_, err = os.Stat(path + ".restore")
	assert.True(t, os.IsNotExist(err))

	restored, err := Open(path)
	require.NoError(t, err)
	defer restored.Close()
	var n int
	require.NoError(t, restored.QueryRow("SELECT COUNT(*) FROM sections").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestBackups_RestoreRejectsCorruptFile(t *testing.T) {
	b, _ := openTemp(t)
	ctx := context.Background()

	require.NoError(t, os.MkdirAll(b.Dir, 0o755))
	name := backupPrefix + "garbage.db"
	require.NoError(t, os.WriteFile(filepath.Join(b.Dir, name), []byte("definitely not sqlite, padded to look like a header block"), 0o644))

	err := b.Restore(ctx, name)
	assert.ErrorIs(t, err, ErrCorruptBackup)
	require.NoError(t, b.DB.Ping())

	backups, err := b.List()
	require.NoError(t, err)
	assert.Len(t, backups, 1, "no safety snapshot for a rejected restore")
}
