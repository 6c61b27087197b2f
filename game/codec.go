package game

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/rowkey"
)

var (
	// ErrBlankBrand is returned for games whose brand is blank.
	ErrBlankBrand = errors.New("game brand is blank")
	// ErrInvalidRowKey is returned for rows whose key is not a game key.
	ErrInvalidRowKey = errors.New("invalid game row key")
)

var (
	infoFamily       = []byte("info")    //nolint:gochecknoglobals
	nameQualifier    = []byte("name")    //nolint:gochecknoglobals
	consoleQualifier = []byte("console") //nolint:gochecknoglobals
	usdQualifier     = []byte("usd")     //nolint:gochecknoglobals
	mxnQualifier     = []byte("mxn")     //nolint:gochecknoglobals
)

// Codec maps games to rows of the info column family.
type Codec struct{}

func brandPrefix(brand string) []byte {
	return rowkey.AppendString(nil, brand)
}

// RowKey returns the row key of a game: the brand followed by the game id.
func (Codec) RowKey(key Key) []byte {
	return rowkey.AppendInt64(brandPrefix(key.Brand), key.GameID)
}

// RowKeyOf returns the row key of g.
func (c Codec) RowKeyOf(g Game) []byte {
	return c.RowKey(g.Key)
}

// Row encodes g into a row.
func (c Codec) Row(g Game) (row.Row, error) {
	if strings.TrimSpace(g.Key.Brand) == "" {
		return row.Row{}, ErrBlankBrand
	}

	r := row.New(c.RowKeyOf(g))
	r.AddColumn(infoFamily, nameQualifier, []byte(g.Name))
	r.AddColumn(infoFamily, consoleQualifier, []byte(g.Console))
	r.AddColumn(infoFamily, usdQualifier, []byte(g.USD))
	r.AddColumn(infoFamily, mxnQualifier, []byte(g.MXN))

	return r, nil
}

// Object decodes a game from a row. Missing columns are left empty.
func (Codec) Object(r row.Row) (Game, error) {
	key, err := decodeKey(r.Key)
	if err != nil {
		return Game{}, err
	}

	return Game{
		Key:     key,
		Name:    string(r.Value(infoFamily, nameQualifier)),
		Console: string(r.Value(infoFamily, consoleQualifier)),
		USD:     string(r.Value(infoFamily, usdQualifier)),
		MXN:     string(r.Value(infoFamily, mxnQualifier)),
	}, nil
}

func decodeKey(data []byte) (Key, error) {
	dec := rowkey.NewDecoder(data)

	brand, err := dec.String()
	if err != nil {
		return Key{}, fmt.Errorf("%w %q: %w", ErrInvalidRowKey, data, err)
	}

	id, err := dec.Int64()
	if err != nil {
		return Key{}, fmt.Errorf("%w %q: %w", ErrInvalidRowKey, data, err)
	}

	if dec.Remaining() != 0 {
		return Key{}, fmt.Errorf("%w %q: %d trailing bytes", ErrInvalidRowKey, data, dec.Remaining())
	}

	return Key{Brand: brand, GameID: id}, nil
}

// ReverseRowKey returns the reverse row key of a game.
func (c Codec) ReverseRowKey(key Key) []byte {
	return rowkey.Invert(c.RowKey(key))
}

// ReverseRowKeyOf returns the reverse row key of g.
func (c Codec) ReverseRowKeyOf(g Game) []byte {
	return c.ReverseRowKey(g.Key)
}

// PrefixFilter restricts pages to the brand of key.
func (Codec) PrefixFilter(key Key) filter.Filter {
	return filter.Prefix(brandPrefix(key.Brand))
}

// ReversePrefixFilter restricts backward pages to the brand of key.
func (Codec) ReversePrefixFilter(key Key) filter.Filter {
	return filter.Prefix(rowkey.Invert(brandPrefix(key.Brand)))
}
