package dao_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-tablestore/dao"
	"github.com/tarantool/go-tablestore/driver/memory"
	"github.com/tarantool/go-tablestore/filter"
	gsTesting "github.com/tarantool/go-tablestore/internal/testing"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/rowkey"
	"github.com/tarantool/go-tablestore/table"
)

var errNegativeID = errors.New("negative id")

type itemKey struct {
	Group string
	ID    int64
}

type item struct {
	itemKey

	Name string
}

var (
	infoFamily = []byte("info") //nolint:gochecknoglobals
	nameColumn = []byte("name") //nolint:gochecknoglobals
)

// itemCodec keys items by group and id. Keys of a group share a prefix.
type itemCodec struct{}

func (itemCodec) RowKey(key itemKey) []byte {
	return rowkey.AppendInt64(rowkey.AppendString(nil, key.Group), key.ID)
}

func (c itemCodec) RowKeyOf(object item) []byte {
	return c.RowKey(object.itemKey)
}

func (c itemCodec) Row(object item) (row.Row, error) {
	if object.ID < 0 {
		return row.Row{}, fmt.Errorf("%w: %d", errNegativeID, object.ID)
	}

	r := row.New(c.RowKeyOf(object))
	r.AddColumn(infoFamily, nameColumn, []byte(object.Name))

	return r, nil
}

func (itemCodec) Object(r row.Row) (item, error) {
	dec := rowkey.NewDecoder(r.Key)

	group, err := dec.String()
	if err != nil {
		return item{}, err //nolint:wrapcheck
	}

	id, err := dec.Int64()
	if err != nil {
		return item{}, err //nolint:wrapcheck
	}

	return item{itemKey: itemKey{Group: group, ID: id}, Name: string(r.Value(infoFamily, nameColumn))}, nil
}

func (c itemCodec) ReverseRowKey(key itemKey) []byte {
	return rowkey.Invert(c.RowKey(key))
}

func (c itemCodec) ReverseRowKeyOf(object item) []byte {
	return c.ReverseRowKey(object.itemKey)
}

func (itemCodec) PrefixFilter(key itemKey) filter.Filter {
	return filter.Prefix(rowkey.AppendString(nil, key.Group))
}

func (itemCodec) ReversePrefixFilter(key itemKey) filter.Filter {
	return filter.Prefix(rowkey.Invert(rowkey.AppendString(nil, key.Group)))
}

var (
	_ dao.Codec[itemKey, item]     = itemCodec{}
	_ dao.ReversePrefixer[itemKey] = itemCodec{}
)

// plainCodec hides the reverse prefix filter of itemCodec.
type plainCodec struct {
	dao.Codec[itemKey, item]
}

func key(group string, id int64) itemKey {
	return itemKey{Group: group, ID: id}
}

func newItem(group string, id int64) item {
	return item{itemKey: key(group, id), Name: fmt.Sprintf("%s-%d", group, id)}
}

func ids(items []item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}

	return out
}

type tables struct {
	primary  *gsTesting.FaultyTable
	counters *gsTesting.FaultyTable
	reverse  *gsTesting.FaultyTable
}

func newTables(t *testing.T, store table.Store) tables {
	t.Helper()

	open := func(name string) *gsTesting.FaultyTable {
		tbl, err := store.Table(name)
		require.NoError(t, err)

		return gsTesting.NewFaultyTable(tbl)
	}

	return tables{
		primary:  open("items"),
		counters: open("counters"),
		reverse:  open("items_reverse"),
	}
}

// newDAO returns a DAO on a fresh memory store, reverse-indexed when
// reverse is true.
func newDAO(t *testing.T, reverse bool, opts ...dao.Option) (*dao.DAO[itemKey, item], tables) {
	t.Helper()

	return newDAOWithCodec(t, itemCodec{}, reverse, opts...)
}

func newDAOWithCodec(
	t *testing.T,
	codec dao.Codec[itemKey, item],
	reverse bool,
	opts ...dao.Option,
) (*dao.DAO[itemKey, item], tables) {
	t.Helper()

	tbls := newTables(t, memory.New())

	if reverse {
		opts = append(opts, dao.WithReverseIndex(tbls.reverse))
	}

	d, err := dao.New(codec, tbls.primary, tbls.counters, opts...)
	require.NoError(t, err)

	return d, tbls
}

func putAll(t *testing.T, d *dao.DAO[itemKey, item], items ...item) {
	t.Helper()

	for _, it := range items {
		require.NoError(t, d.Put(context.Background(), it))
	}
}
