package cells_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-tablestore/internal/cells"
	"github.com/tarantool/go-tablestore/row"
)

func TestEncodeDecode(t *testing.T) {
	t.Parallel()

	in := row.New([]byte("key"))
	in.AddColumn([]byte("info"), []byte("name"), []byte("Zelda"))
	in.AddColumn([]byte("info"), []byte("console"), []byte{0x00, 0xFF})

	data, err := cells.Encode(in)
	require.NoError(t, err)

	out, err := cells.Decode([]byte("key"), data)
	require.NoError(t, err)

	assert.Equal(t, []byte("key"), out.Key)
	assert.Equal(t, []byte("Zelda"), out.Value([]byte("info"), []byte("name")))
	assert.Equal(t, []byte{0x00, 0xFF}, out.Value([]byte("info"), []byte("console")))
	// Decoded cells are sorted by qualifier.
	assert.Equal(t, []byte("console"), out.Cells[0].Qualifier)
}

func TestDecode_Invalid(t *testing.T) {
	t.Parallel()

	_, err := cells.Decode([]byte("key"), []byte{0xc1})

	var decodingErr cells.DecodingError
	require.ErrorAs(t, err, &decodingErr)
	assert.Equal(t, []byte("key"), decodingErr.Key)
	assert.Contains(t, err.Error(), "failed to decode cells")
}
