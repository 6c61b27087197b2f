// Package tabletest provides a conformance suite for table drivers.
// Every driver runs the same suite against its own store.
package tabletest

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/table"
)

// Factory returns the store under test. It is called once per test case.
type Factory func(t *testing.T) table.Store

var (
	family    = []byte("info")    //nolint:gochecknoglobals
	name      = []byte("name")    //nolint:gochecknoglobals
	console   = []byte("console") //nolint:gochecknoglobals
	counterCF = []byte("c")       //nolint:gochecknoglobals
	countQ    = []byte("c")       //nolint:gochecknoglobals
	idQ       = []byte("i")       //nolint:gochecknoglobals
)

// runID keeps table names of different test runs apart on shared stores.
var runID = strconv.FormatInt(time.Now().UnixNano(), 36) //nolint:gochecknoglobals

// Run runs the conformance suite.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	tests := []struct {
		name string
		fn   func(t *testing.T, store table.Store)
	}{
		{"get_absent", testGetAbsent},
		{"put_get", testPutGet},
		{"put_merges_columns", testPutMerges},
		{"put_batch", testPutBatch},
		{"scan_order_and_bounds", testScanBounds},
		{"scan_page", testScanPage},
		{"scan_prefix", testScanPrefix},
		{"scan_column_value", testScanColumnValue},
		{"scan_invalid_filter", testScanInvalidFilter},
		{"increment", testIncrement},
		{"increment_keeps_columns", testIncrementKeepsColumns},
		{"increment_concurrent", testIncrementConcurrent},
		{"increment_invalid_counter", testIncrementInvalidCounter},
		{"tables_isolated", testTablesIsolated},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.fn(t, factory(t))
		})
	}
}

// TableName returns a table name unique to the running test.
func TableName(t *testing.T, suffix string) string {
	t.Helper()

	replacer := strings.NewReplacer("/", "_", " ", "_", "#", "_")

	return replacer.Replace(t.Name()) + "_" + runID + "_" + suffix
}

func open(t *testing.T, store table.Store, suffix string) table.Table {
	t.Helper()

	tbl, err := store.Table(TableName(t, suffix))
	require.NoError(t, err)

	return tbl
}

func gameRow(key, gameName, gameConsole string) row.Row {
	r := row.New([]byte(key))
	r.AddColumn(family, name, []byte(gameName))
	r.AddColumn(family, console, []byte(gameConsole))

	return r
}

func keys(rows []row.Row) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, string(r.Key))
	}

	return out
}

func fill(t *testing.T, tbl table.Table, keyList ...string) {
	t.Helper()

	batch := make([]row.Row, 0, len(keyList))
	for i, key := range keyList {
		batch = append(batch, gameRow(key, "game-"+key, []string{"switch", "ps5"}[i%2]))
	}

	require.NoError(t, tbl.PutBatch(context.Background(), batch))
}

func testGetAbsent(t *testing.T, store table.Store) {
	tbl := open(t, store, "games")

	r, err := tbl.Get(context.Background(), []byte("missing"))
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
}

func testPutGet(t *testing.T, store table.Store) {
	ctx := context.Background()
	tbl := open(t, store, "games")

	key := []byte{'k', 0x00, 0xFF, 'x'}
	in := gameRow(string(key), "Zelda", "switch")

	require.NoError(t, tbl.Put(ctx, in))

	out, err := tbl.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, key, out.Key)
	assert.Equal(t, []byte("Zelda"), out.Value(family, name))
	assert.Equal(t, []byte("switch"), out.Value(family, console))
}

func testPutMerges(t *testing.T, store table.Store) {
	ctx := context.Background()
	tbl := open(t, store, "games")

	require.NoError(t, tbl.Put(ctx, gameRow("k1", "Zelda", "switch")))

	update := row.New([]byte("k1"))
	update.AddColumn(family, name, []byte("Metroid"))
	require.NoError(t, tbl.Put(ctx, update))

	out, err := tbl.Get(ctx, []byte("k1"))
	require.NoError(t, err)
	assert.Equal(t, []byte("Metroid"), out.Value(family, name))
	assert.Equal(t, []byte("switch"), out.Value(family, console))
}

func testPutBatch(t *testing.T, store table.Store) {
	ctx := context.Background()
	tbl := open(t, store, "games")

	fill(t, tbl, "c", "a", "b")

	for _, key := range []string{"a", "b", "c"} {
		out, err := tbl.Get(ctx, []byte(key))
		require.NoError(t, err)
		assert.Equal(t, []byte("game-"+key), out.Value(family, name))
	}

	require.NoError(t, tbl.PutBatch(ctx, nil))
}

func testScanBounds(t *testing.T, store table.Store) {
	ctx := context.Background()
	tbl := open(t, store, "games")

	fill(t, tbl, "d", "a", "c", "e", "b")

	all, err := tbl.Scan(ctx, table.Scan{Start: nil, Stop: nil, Filter: nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, keys(all))

	ranged, err := tbl.Scan(ctx, table.Scan{Start: []byte("b"), Stop: []byte("d"), Filter: nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, keys(ranged))

	after, err := tbl.Scan(ctx, table.Scan{Start: []byte("b\x00"), Stop: nil, Filter: nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d", "e"}, keys(after))

	empty, err := tbl.Scan(ctx, table.Scan{Start: []byte("f"), Stop: nil, Filter: nil})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func testScanPage(t *testing.T, store table.Store) {
	ctx := context.Background()
	tbl := open(t, store, "games")

	fill(t, tbl, "a", "b", "c", "d", "e")

	page, err := tbl.Scan(ctx, table.Scan{Start: []byte("b"), Stop: nil, Filter: filter.Page(2)})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, keys(page))

	page, err = tbl.Scan(ctx, table.Scan{Start: nil, Stop: nil, Filter: filter.Page(10)})
	require.NoError(t, err)
	assert.Len(t, page, 5)
}

func testScanPrefix(t *testing.T, store table.Store) {
	ctx := context.Background()
	tbl := open(t, store, "games")

	fill(t, tbl, "nintendo-1", "nintendo-2", "sega-1", "sony-1", "sony-2", "sony-3")

	page, err := tbl.Scan(ctx, table.Scan{
		Start:  nil,
		Stop:   nil,
		Filter: filter.List(filter.Prefix([]byte("sony-")), filter.Page(2)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sony-1", "sony-2"}, keys(page))

	page, err = tbl.Scan(ctx, table.Scan{
		Start:  []byte("sony-2\x00"),
		Stop:   nil,
		Filter: filter.Prefix([]byte("sony-")),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"sony-3"}, keys(page))

	page, err = tbl.Scan(ctx, table.Scan{Start: nil, Stop: nil, Filter: filter.Prefix([]byte("atari"))})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func testScanColumnValue(t *testing.T, store table.Store) {
	ctx := context.Background()
	tbl := open(t, store, "games")

	// Consoles alternate: a=switch, b=ps5, c=switch, d=ps5, e=switch.
	fill(t, tbl, "a", "b", "c", "d", "e")

	switchOnly := filter.ColumnValue(family, console, filter.OpEqual, []byte("switch"))

	page, err := tbl.Scan(ctx, table.Scan{Start: nil, Stop: nil, Filter: switchOnly})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "e"}, keys(page))

	page, err = tbl.Scan(ctx, table.Scan{Start: nil, Stop: nil, Filter: filter.List(switchOnly, filter.Page(2))})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, keys(page))

	page, err = tbl.Scan(ctx, table.Scan{
		Start:  nil,
		Stop:   nil,
		Filter: filter.ColumnValue(family, console, filter.OpEqual, []byte("dreamcast")),
	})
	require.NoError(t, err)
	assert.NotNil(t, page)
	assert.Empty(t, page)
}

func testScanInvalidFilter(t *testing.T, store table.Store) {
	tbl := open(t, store, "games")

	_, err := tbl.Scan(context.Background(), table.Scan{Start: nil, Stop: nil, Filter: filter.Page(0)})
	require.ErrorIs(t, err, filter.ErrInvalidPageSize)
}

func testIncrement(t *testing.T, store table.Store) {
	ctx := context.Background()
	counters := open(t, store, "counters")

	for expected := int64(1); expected <= 3; expected++ {
		value, err := counters.Increment(ctx, []byte("games"), counterCF, idQ, 1)
		require.NoError(t, err)
		assert.Equal(t, expected, value)
	}

	value, err := counters.Increment(ctx, []byte("games"), counterCF, countQ, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(5), value)

	out, err := counters.Get(ctx, []byte("games"))
	require.NoError(t, err)

	count, err := row.DecodeCounter(out.Value(counterCF, countQ))
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)

	identifier, err := row.DecodeCounter(out.Value(counterCF, idQ))
	require.NoError(t, err)
	assert.Equal(t, int64(3), identifier)
}

func testIncrementKeepsColumns(t *testing.T, store table.Store) {
	ctx := context.Background()
	counters := open(t, store, "counters")

	require.NoError(t, counters.Put(ctx, gameRow("games", "meta", "none")))

	_, err := counters.Increment(ctx, []byte("games"), counterCF, countQ, 2)
	require.NoError(t, err)

	out, err := counters.Get(ctx, []byte("games"))
	require.NoError(t, err)
	assert.Equal(t, []byte("meta"), out.Value(family, name))
	assert.Equal(t, row.EncodeCounter(2), out.Value(counterCF, countQ))
}

func testIncrementConcurrent(t *testing.T, store table.Store) {
	ctx := context.Background()
	counters := open(t, store, "counters")

	const (
		workers    = 8
		increments = 10
	)

	var wg sync.WaitGroup

	errs := make(chan error, workers*increments)

	for range workers {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for range increments {
				if _, err := counters.Increment(ctx, []byte("games"), counterCF, countQ, 1); err != nil {
					errs <- err
				}
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	value, err := counters.Increment(ctx, []byte("games"), counterCF, countQ, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*increments), value)
}

func testIncrementInvalidCounter(t *testing.T, store table.Store) {
	ctx := context.Background()
	counters := open(t, store, "counters")

	broken := row.New([]byte("games"))
	broken.AddColumn(counterCF, countQ, []byte("three"))
	require.NoError(t, counters.Put(ctx, broken))

	_, err := counters.Increment(ctx, []byte("games"), counterCF, countQ, 1)
	require.Error(t, err)
}

func testTablesIsolated(t *testing.T, store table.Store) {
	ctx := context.Background()
	games := open(t, store, "games")
	reverse := open(t, store, "games_reverse")

	fill(t, games, "a", "b")
	fill(t, reverse, "c")

	all, err := games.Scan(ctx, table.Scan{Start: nil, Stop: nil, Filter: nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys(all))

	all, err = reverse.Scan(ctx, table.Scan{Start: nil, Stop: nil, Filter: nil})
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, keys(all))

	assert.Equal(t, TableName(t, "games"), games.Name())
	assert.Equal(t, TableName(t, "games_reverse"), reverse.Name())
}
