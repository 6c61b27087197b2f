package marshaller_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tarantool/go-tablestore/marshaller"
)

type review struct {
	Author string   `msgpack:"author" yaml:"author"`
	Score  int      `msgpack:"score"  yaml:"score"`
	Tags   []string `msgpack:"tags"   yaml:"tags,omitempty"`
}

func TestTypedMarshallers_RoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		m    marshaller.TypedMarshaller[review]
	}{
		{"yaml", marshaller.NewTypedYamlMarshaller[review]()},
		{"msgpack", marshaller.NewTypedMsgpackMarshaller[review]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			in := review{Author: "dan", Score: 9, Tags: []string{"rpg", "retro"}}

			data, err := tt.m.Marshal(in)
			require.NoError(t, err)
			require.NotEmpty(t, data)

			out, err := tt.m.Unmarshal(data)
			require.NoError(t, err)
			assert.Equal(t, in, out)
		})
	}
}

func TestTypedYamlMarshaller_Marshal(t *testing.T) {
	t.Parallel()

	data, err := marshaller.NewTypedYamlMarshaller[review]().Marshal(review{Author: "dan", Score: 7})
	require.NoError(t, err)

	require.YAMLEq(t, "author: dan\nscore: 7\n", string(data))
}

func TestTypedMarshallers_UnmarshalInvalid(t *testing.T) {
	t.Parallel()

	_, err := marshaller.NewTypedYamlMarshaller[review]().Unmarshal([]byte("author: [unclosed"))

	var yamlErr marshaller.UnmarshalError
	require.ErrorAs(t, err, &yamlErr)

	_, err = marshaller.NewTypedMsgpackMarshaller[review]().Unmarshal([]byte{0xc1})

	var msgpackErr marshaller.UnmarshalError
	require.ErrorAs(t, err, &msgpackErr)
}

func TestTypedMsgpackMarshaller_Unsupported(t *testing.T) {
	t.Parallel()

	_, err := marshaller.NewTypedMsgpackMarshaller[chan int]().Marshal(make(chan int))

	var marshalErr marshaller.MarshalError
	require.ErrorAs(t, err, &marshalErr)
}
