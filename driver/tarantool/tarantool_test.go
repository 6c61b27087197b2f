package tarantool_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tnt "github.com/tarantool/go-tarantool/v2"

	"github.com/tarantool/go-tablestore/driver/tarantool"
	"github.com/tarantool/go-tablestore/filter"
	gsTesting "github.com/tarantool/go-tablestore/internal/testing"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/table"
)

var errConnection = errors.New("connection refused")

func wireRow(key string, cells ...[]any) []any {
	list := make([]any, 0, len(cells))
	for _, c := range cells {
		list = append(list, c)
	}

	return []any{key, list}
}

func cell(family, qualifier, value string) []any {
	return []any{family, qualifier, value}
}

func rowsResponse(t *testing.T, rows ...[]any) *gsTesting.MockResponse {
	t.Helper()

	list := make([]any, 0, len(rows))
	for _, r := range rows {
		list = append(list, r)
	}

	return gsTesting.NewMockResponse(t, []any{list})
}

func gamesTable(t *testing.T, doer tnt.Doer, chunkSize int64) table.Table {
	t.Helper()

	store, err := tarantool.New(doer)
	if chunkSize > 0 {
		store, err = tarantool.New(doer, tarantool.WithChunkSize(chunkSize))
	}

	require.NoError(t, err)

	tbl, err := store.Table("games")
	require.NoError(t, err)

	return tbl
}

func TestNew_InvalidChunkSize(t *testing.T) {
	t.Parallel()

	_, err := tarantool.New(gsTesting.NewMockDoer(t), tarantool.WithChunkSize(0))
	require.ErrorIs(t, err, tarantool.ErrInvalidChunkSize)
}

func TestStore_EmptyTableName(t *testing.T) {
	t.Parallel()

	store, err := tarantool.New(gsTesting.NewMockDoer(t))
	require.NoError(t, err)

	_, err = store.Table("")
	require.ErrorIs(t, err, table.ErrInvalidTableName)
}

func TestTable_Get(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t,
		rowsResponse(t, wireRow("k", cell("info", "name", "Zelda"), cell("info", "console", "switch"))),
	)

	tbl := gamesTable(t, mock, 0)

	r, err := tbl.Get(context.Background(), []byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("k"), r.Key)
	assert.Equal(t, []byte("Zelda"), r.Value([]byte("info"), []byte("name")))
	require.Len(t, r.Cells, 2)
	assert.Equal(t, []byte("console"), r.Cells[0].Qualifier)

	require.Len(t, mock.Requests, 1)
	assert.IsType(t, &tnt.CallRequest{}, mock.Requests[0]) //nolint:exhaustruct
}

func TestTable_Get_Absent(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t, rowsResponse(t))
	tbl := gamesTable(t, mock, 0)

	r, err := tbl.Get(context.Background(), []byte("missing"))
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
}

func TestTable_Get_UnexpectedResponse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		response *gsTesting.MockResponse
	}{
		{"no results", gsTesting.NewMockResponse(t, []any{})},
		{"two rows", rowsResponse(t, wireRow("a"), wireRow("b"))},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			tbl := gamesTable(t, gsTesting.NewMockDoer(t, tc.response), 0)

			_, err := tbl.Get(context.Background(), []byte("k"))
			require.ErrorIs(t, err, tarantool.ErrUnexpectedResponse)
		})
	}
}

func TestTable_Get_Error(t *testing.T) {
	t.Parallel()

	tbl := gamesTable(t, gsTesting.NewMockDoer(t, errConnection), 0)

	_, err := tbl.Get(context.Background(), []byte("k"))
	require.ErrorIs(t, err, errConnection)
}

func TestTable_PutBatch(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t, gsTesting.NewMockResponse(t, []any{2}))
	tbl := gamesTable(t, mock, 0)

	a := row.New([]byte("a"))
	a.AddColumn([]byte("info"), []byte("name"), []byte("Zelda"))

	b := row.New([]byte("b"))
	b.AddColumn([]byte("info"), []byte("name"), []byte("Mario"))

	require.NoError(t, tbl.PutBatch(context.Background(), []row.Row{a, b}))
	require.Len(t, mock.Requests, 1)
}

func TestTable_PutBatch_Empty(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t)
	tbl := gamesTable(t, mock, 0)

	require.NoError(t, tbl.PutBatch(context.Background(), nil))
	assert.Empty(t, mock.Requests)
}

func TestTable_Put_Errors(t *testing.T) {
	t.Parallel()

	r := row.New([]byte("a"))
	r.AddColumn([]byte("info"), []byte("name"), []byte("Zelda"))

	tbl := gamesTable(t, gsTesting.NewMockDoer(t,
		errConnection,
		gsTesting.NewMockResponse(t, []any{5}),
	), 0)

	require.ErrorIs(t, tbl.Put(context.Background(), r), errConnection)
	require.ErrorIs(t, tbl.Put(context.Background(), r), tarantool.ErrUnexpectedResponse)
}

func TestTable_Scan(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t,
		rowsResponse(t,
			wireRow("a", cell("info", "name", "Zelda")),
			wireRow("b", cell("info", "name", "Mario")),
		),
	)
	tbl := gamesTable(t, mock, 0)

	rows, err := tbl.Scan(context.Background(), table.Scan{Start: []byte("a"), Stop: nil, Filter: filter.Page(2)})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []byte("a"), rows[0].Key)
	assert.Equal(t, []byte("b"), rows[1].Key)
	assert.Len(t, mock.Requests, 1)
}

func TestTable_Scan_EmptyRange(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t)
	tbl := gamesTable(t, mock, 0)

	rows, err := tbl.Scan(context.Background(), table.Scan{Start: []byte("b"), Stop: []byte("a"), Filter: nil})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
	assert.Empty(t, mock.Requests)
}

func TestTable_Scan_InvalidFilter(t *testing.T) {
	t.Parallel()

	tbl := gamesTable(t, gsTesting.NewMockDoer(t), 0)

	_, err := tbl.Scan(context.Background(), table.Scan{Start: nil, Stop: nil, Filter: filter.Page(-1)})
	require.ErrorIs(t, err, filter.ErrInvalidPageSize)
}

func TestTable_Scan_ColumnValueChunks(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t,
		rowsResponse(t,
			wireRow("a", cell("info", "console", "switch")),
			wireRow("b", cell("info", "console", "ps5")),
		),
		rowsResponse(t,
			wireRow("c", cell("info", "console", "switch")),
		),
	)
	tbl := gamesTable(t, mock, 2)

	rows, err := tbl.Scan(context.Background(), table.Scan{
		Start:  nil,
		Stop:   nil,
		Filter: filter.ColumnValue([]byte("info"), []byte("console"), filter.OpEqual, []byte("switch")),
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []byte("a"), rows[0].Key)
	assert.Equal(t, []byte("c"), rows[1].Key)
	assert.Len(t, mock.Requests, 2)
}

func TestTable_Scan_ColumnValueStopsWhenFull(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t,
		rowsResponse(t,
			wireRow("a", cell("info", "console", "switch")),
			wireRow("b", cell("info", "console", "switch")),
		),
	)
	tbl := gamesTable(t, mock, 2)

	rows, err := tbl.Scan(context.Background(), table.Scan{
		Start: nil,
		Stop:  nil,
		Filter: filter.List(
			filter.ColumnValue([]byte("info"), []byte("console"), filter.OpEqual, []byte("switch")),
			filter.Page(1),
		),
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 0, mock.Pending())
}

func TestTable_Increment(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t,
		gsTesting.NewMockResponse(t, []any{7}),
		gsTesting.NewMockResponse(t, []any{}),
	)
	tbl := gamesTable(t, mock, 0)

	value, err := tbl.Increment(context.Background(), []byte("games"), []byte("c"), []byte("c"), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), value)

	_, err = tbl.Increment(context.Background(), []byte("games"), []byte("c"), []byte("c"), 7)
	require.ErrorIs(t, err, tarantool.ErrUnexpectedResponse)
}

func TestSetup(t *testing.T) {
	t.Parallel()

	mock := gsTesting.NewMockDoer(t,
		gsTesting.NewMockResponse(t, []any{}),
		errConnection,
	)

	require.NoError(t, tarantool.Setup(context.Background(), mock))
	require.ErrorIs(t, tarantool.Setup(context.Background(), mock), errConnection)
	assert.IsType(t, &tnt.EvalRequest{}, mock.Requests[0]) //nolint:exhaustruct
	assert.Contains(t, tarantool.Script, "tablestore.increment")
}
