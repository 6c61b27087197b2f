package dao

import (
	"github.com/rs/zerolog"

	"github.com/tarantool/go-tablestore/internal/options"
	"github.com/tarantool/go-tablestore/table"
)

// DefaultScanLimit is the number of rows Scan returns at most.
const DefaultScanLimit = 1000

// Option configures a DAO.
type Option = options.OptionCallback[daoOptions]

type daoOptions struct {
	reverse   table.Table
	logger    zerolog.Logger
	scanLimit int64
}

func defaultOptions() daoOptions {
	return daoOptions{
		reverse:   nil,
		logger:    zerolog.Nop(),
		scanLimit: DefaultScanLimit,
	}
}

// WithReverseIndex maintains a reverse index in the given table and
// enables backward pagination.
func WithReverseIndex(reverse table.Table) Option {
	return func(opts *daoOptions) {
		opts.reverse = reverse
	}
}

// WithLogger sets the logger of the DAO. Nothing is logged by default.
func WithLogger(logger zerolog.Logger) Option {
	return func(opts *daoOptions) {
		opts.logger = logger
	}
}

// WithScanLimit sets the number of rows Scan returns at most.
func WithScanLimit(limit int64) Option {
	return func(opts *daoOptions) {
		opts.scanLimit = limit
	}
}
