package testing

import (
	"context"
	"errors"
	"sync"

	"github.com/tarantool/go-tablestore/row"
	"github.com/tarantool/go-tablestore/table"
)

// ErrInjected is the error returned by failing FaultyTable calls.
var ErrInjected = errors.New("injected failure")

// Method names a table.Table method.
type Method string

// Table methods that can be made to fail.
const (
	MethodGet       Method = "Get"
	MethodPut       Method = "Put"
	MethodPutBatch  Method = "PutBatch"
	MethodScan      Method = "Scan"
	MethodIncrement Method = "Increment"
)

// FaultyTable wraps a table and fails chosen calls with ErrInjected.
// Calls that do not fail are forwarded to the wrapped table.
type FaultyTable struct {
	table.Table

	mu    sync.Mutex
	calls map[Method]int
	fails map[Method]map[int]bool
}

var _ table.Table = &FaultyTable{} //nolint:exhaustruct

// NewFaultyTable wraps tbl.
func NewFaultyTable(tbl table.Table) *FaultyTable {
	return &FaultyTable{
		Table: tbl,
		mu:    sync.Mutex{},
		calls: map[Method]int{},
		fails: map[Method]map[int]bool{},
	}
}

// FailOn makes the given calls of a method fail, counting from 1.
// Without call numbers every call of the method fails.
func (f *FaultyTable) FailOn(method Method, calls ...int) *FaultyTable {
	f.mu.Lock()
	defer f.mu.Unlock()

	set := map[int]bool{}
	for _, call := range calls {
		set[call] = true
	}

	if len(calls) == 0 {
		set[0] = true
	}

	f.fails[method] = set

	return f
}

// Heal stops failing every method.
func (f *FaultyTable) Heal() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fails = map[Method]map[int]bool{}
}

// Calls returns the number of calls of a method, failed ones included.
func (f *FaultyTable) Calls(method Method) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls[method]
}

func (f *FaultyTable) fail(method Method) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls[method]++

	set := f.fails[method]
	if set[0] || set[f.calls[method]] {
		return ErrInjected
	}

	return nil
}

// Get implements table.Table.
func (f *FaultyTable) Get(ctx context.Context, key []byte) (row.Row, error) {
	if err := f.fail(MethodGet); err != nil {
		return row.Row{}, err
	}

	return f.Table.Get(ctx, key) //nolint:wrapcheck
}

// Put implements table.Table.
func (f *FaultyTable) Put(ctx context.Context, r row.Row) error {
	if err := f.fail(MethodPut); err != nil {
		return err
	}

	return f.Table.Put(ctx, r) //nolint:wrapcheck
}

// PutBatch implements table.Table.
func (f *FaultyTable) PutBatch(ctx context.Context, rows []row.Row) error {
	if err := f.fail(MethodPutBatch); err != nil {
		return err
	}

	return f.Table.PutBatch(ctx, rows) //nolint:wrapcheck
}

// Scan implements table.Table.
func (f *FaultyTable) Scan(ctx context.Context, scan table.Scan) ([]row.Row, error) {
	if err := f.fail(MethodScan); err != nil {
		return nil, err
	}

	return f.Table.Scan(ctx, scan) //nolint:wrapcheck
}

// Increment implements table.Table.
func (f *FaultyTable) Increment(ctx context.Context, key, family, qualifier []byte, delta int64) (int64, error) {
	if err := f.fail(MethodIncrement); err != nil {
		return 0, err
	}

	return f.Table.Increment(ctx, key, family, qualifier, delta) //nolint:wrapcheck
}

// FaultyStore returns FaultyTable wrappers registered by name and plain
// tables of the wrapped store otherwise.
type FaultyStore struct {
	Store  table.Store
	Faulty map[string]*FaultyTable
}

var _ table.Store = FaultyStore{} //nolint:exhaustruct

// Table implements table.Store.
func (s FaultyStore) Table(name string) (table.Table, error) {
	if tbl, ok := s.Faulty[name]; ok {
		return tbl, nil
	}

	return s.Store.Table(name) //nolint:wrapcheck
}
