// Package tablestore stores typed objects in sorted, column-oriented
// tables and pages through them in both directions.
//
// The [github.com/tarantool/go-tablestore/table] package defines the table
// interface implemented by the drivers under driver/: an in-memory store,
// embedded pebble and goleveldb stores, etcd and Tarantool. The
// [github.com/tarantool/go-tablestore/dao] package builds a generic data
// access object on top of any of them, keeping row counters and an
// optional reverse index for backward pagination. Row codecs live in
// [github.com/tarantool/go-tablestore/codec]; the
// [github.com/tarantool/go-tablestore/game] package is a complete entity
// DAO built from these pieces.
package tablestore
