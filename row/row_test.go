package row_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-tablestore/row"
)

func TestRow_AddColumn(t *testing.T) {
	t.Parallel()

	r := row.New([]byte("key"))
	assert.True(t, r.IsEmpty())

	r.AddColumn([]byte("f"), []byte("a"), []byte("1"))
	r.AddColumn([]byte("f"), []byte("b"), []byte("2"))
	r.AddColumn([]byte("f"), []byte("a"), []byte("3"))

	require.Len(t, r.Cells, 2)
	assert.False(t, r.IsEmpty())
	assert.Equal(t, []byte("3"), r.Value([]byte("f"), []byte("a")))
	assert.Equal(t, []byte("2"), r.Value([]byte("f"), []byte("b")))
	assert.Nil(t, r.Value([]byte("g"), []byte("a")))
}

func TestMerge(t *testing.T) {
	t.Parallel()

	existing := row.New([]byte("key"))
	existing.AddColumn([]byte("c"), []byte("i"), []byte("old-i"))
	existing.AddColumn([]byte("c"), []byte("c"), []byte("old-c"))

	update := row.New([]byte("key"))
	update.AddColumn([]byte("c"), []byte("c"), []byte("new-c"))

	merged := row.Merge(existing, update)

	assert.Equal(t, []byte("key"), merged.Key)
	assert.Equal(t, []row.Cell{
		{Family: []byte("c"), Qualifier: []byte("c"), Value: []byte("new-c")},
		{Family: []byte("c"), Qualifier: []byte("i"), Value: []byte("old-i")},
	}, merged.Cells)

	// Merge must not modify its arguments.
	assert.Equal(t, []byte("old-c"), existing.Value([]byte("c"), []byte("c")))
}

func TestCounter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value int64
	}{
		{"zero", 0},
		{"one", 1},
		{"negative", -42},
		{"large", 1 << 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			encoded := row.EncodeCounter(tt.value)
			assert.Len(t, encoded, 8)

			decoded, err := row.DecodeCounter(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.value, decoded)
		})
	}
}

func TestDecodeCounter_Empty(t *testing.T) {
	t.Parallel()

	value, err := row.DecodeCounter(nil)
	require.NoError(t, err)
	assert.Zero(t, value)
}

func TestDecodeCounter_Invalid(t *testing.T) {
	t.Parallel()

	_, err := row.DecodeCounter([]byte("abc"))
	require.ErrorIs(t, err, row.ErrInvalidCounter)
}

func TestIncrement(t *testing.T) {
	t.Parallel()

	r := row.New([]byte("games"))
	r.AddColumn([]byte("c"), []byte("i"), row.EncodeCounter(7))

	updated, value, err := row.Increment(r, []byte("c"), []byte("c"), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), value)

	updated, value, err = row.Increment(updated, []byte("c"), []byte("c"), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), value)

	identifier, err := row.DecodeCounter(updated.Value([]byte("c"), []byte("i")))
	require.NoError(t, err)
	assert.Equal(t, int64(7), identifier)
}

func TestIncrement_InvalidCounter(t *testing.T) {
	t.Parallel()

	r := row.New([]byte("games"))
	r.AddColumn([]byte("c"), []byte("c"), []byte("not-a-counter"))

	_, _, err := row.Increment(r, []byte("c"), []byte("c"), 1)
	require.ErrorIs(t, err, row.ErrInvalidCounter)
}
