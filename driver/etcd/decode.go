package etcd

import (
	"bytes"
	"fmt"

	"go.etcd.io/etcd/api/v3/mvccpb"

	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/rowkey"
)

func (t *Table) decodeKey(key []byte) ([]byte, []byte, []byte, error) {
	if !bytes.HasPrefix(key, t.prefix) {
		return nil, nil, nil, fmt.Errorf("%w: %q is outside of %s", ErrMalformedKey, key, t.name)
	}

	dec := rowkey.NewDecoder(key[len(t.prefix):])

	rowKey, err := dec.Bytes()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}

	family, err := dec.Bytes()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}

	qualifier, err := dec.Bytes()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}

	if dec.Remaining() != 0 {
		return nil, nil, nil, fmt.Errorf("%w: %q has trailing bytes", ErrMalformedKey, key)
	}

	return rowKey, family, qualifier, nil
}

// group folds key-value pairs sorted by key into rows.
func (t *Table) group(kvs []*mvccpb.KeyValue) ([]row.Row, error) {
	rows := make([]row.Row, 0)

	for _, kv := range kvs {
		rowKey, family, qualifier, err := t.decodeKey(kv.Key)
		if err != nil {
			return nil, err
		}

		if len(rows) == 0 || !bytes.Equal(rows[len(rows)-1].Key, rowKey) {
			rows = append(rows, row.New(rowKey))
		}

		last := &rows[len(rows)-1]
		last.Cells = append(last.Cells, row.Cell{Family: family, Qualifier: qualifier, Value: kv.Value})
	}

	return rows, nil
}
