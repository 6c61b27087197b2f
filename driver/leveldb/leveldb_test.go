package leveldb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-tablestore/driver/leveldb"
	"github.com/tarantool/go-tablestore/internal/tabletest"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/table"
)

func TestLevelDB_Conformance(t *testing.T) {
	t.Parallel()

	tabletest.Run(t, func(t *testing.T) table.Store {
		store, err := leveldb.OpenMemory(leveldb.WithoutSync())
		require.NoError(t, err)

		t.Cleanup(func() { assert.NoError(t, store.Close()) })

		return store
	})
}

func TestLevelDB_InvalidTableName(t *testing.T) {
	t.Parallel()

	store, err := leveldb.OpenMemory()
	require.NoError(t, err)

	defer func() { assert.NoError(t, store.Close()) }()

	_, err = store.Table("")
	require.ErrorIs(t, err, table.ErrInvalidTableName)
}

func TestLevelDB_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()

	store, err := leveldb.OpenFile(dir, leveldb.WithBlockCacheCapacity(1<<20))
	require.NoError(t, err)

	tbl, err := store.Table("games")
	require.NoError(t, err)

	r := row.New([]byte("nintendo"))
	r.AddColumn([]byte("info"), []byte("name"), []byte("Zelda"))
	require.NoError(t, tbl.Put(ctx, r))
	require.NoError(t, store.Close())

	store, err = leveldb.OpenFile(dir)
	require.NoError(t, err)

	defer func() { assert.NoError(t, store.Close()) }()

	tbl, err = store.Table("games")
	require.NoError(t, err)

	got, err := tbl.Get(ctx, []byte("nintendo"))
	require.NoError(t, err)
	assert.Equal(t, []byte("Zelda"), got.Value([]byte("info"), []byte("name")))
}
