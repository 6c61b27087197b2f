// Package game implements the DAO of the games catalogue.
package game

import (
	"context"
	"fmt"
	"strings"

	"github.com/tarantool/go-tablestore/dao"
	"github.com/tarantool/go-tablestore/filter"
	"github.com/tarantool/go-tablestore/table"
)

// Table names opened by New.
const (
	TableGames        = "games"
	TableGamesReverse = "games_reverse"
	TableCounters     = "counters"
)

// Key identifies a game inside its brand.
type Key struct {
	Brand  string
	GameID int64
}

// Game is a catalogue entry.
type Game struct {
	Key     Key
	Name    string
	Console string
	USD     string
	MXN     string
}

// DAO stores games with a reverse index.
type DAO struct {
	*dao.DAO[Key, Game]
}

// New opens the game tables of store and creates a DAO over them.
func New(store table.Store, opts ...dao.Option) (*DAO, error) {
	games, err := store.Table(TableGames)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %q: %w", TableGames, err)
	}

	reverse, err := store.Table(TableGamesReverse)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %q: %w", TableGamesReverse, err)
	}

	counters, err := store.Table(TableCounters)
	if err != nil {
		return nil, fmt.Errorf("failed to open table %q: %w", TableCounters, err)
	}

	inner, err := dao.New[Key, Game](Codec{}, games, counters,
		append([]dao.Option{dao.WithReverseIndex(reverse)}, opts...)...)
	if err != nil {
		return nil, err
	}

	return &DAO{DAO: inner}, nil
}

// Create assigns the next game id to g and stores it.
func (d *DAO) Create(ctx context.Context, g Game) (Game, error) {
	if strings.TrimSpace(g.Key.Brand) == "" {
		return Game{}, ErrBlankBrand
	}

	id, err := d.NextIdentifier(ctx)
	if err != nil {
		return Game{}, err
	}

	g.Key.GameID = id

	err = d.Put(ctx, g)
	if err != nil {
		return Game{}, err
	}

	return g, nil
}

// ByConsole returns the games released on console, up to the scan limit.
func (d *DAO) ByConsole(ctx context.Context, console string) ([]Game, error) {
	return d.Scan(ctx, filter.ColumnValue(infoFamily, consoleQualifier, filter.OpEqual, []byte(console)))
}
