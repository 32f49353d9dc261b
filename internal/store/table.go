package store

import (
	"context"

	"github.com/knotql/knotql/internal/value"
)

// Tuple is one stored row: the first KeyArity columns form the row's key
// (and its sort order), the rest are carried payload.
type Tuple []value.Value

// TableInfo describes a resolved table's shape: how many of its columns
// form the key, and their names in declaration order.
type TableInfo struct {
	Name     string
	KeyArity int
	Columns  []string
}

// RowIter yields stored tuples in key order or derived tuples in insertion
// order, cooperatively cancellable via a context.Context checked between
// tuples.
type RowIter interface {
	// Next advances the iterator. It returns false at end of stream or on
	// context cancellation; call Err to distinguish the two.
	Next() bool
	Tuple() Tuple
	Err() error
}

// TableHandle is a resolved, already-validated reference to a base table.
// internal/algo's RelArg resolves a table name via Catalog and scans the
// handle; internal/chain's planner only reads TableInfo.
type TableHandle interface {
	Info() TableInfo
	Scan(ctx context.Context) (RowIter, error)
}

// Catalog is the storage boundary's lookup surface: resolving a table
// name to a handle, and reporting its shape without scanning it.
type Catalog interface {
	ResolveTable(name string) (TableHandle, error)
	GetTableInfo(name string) (TableInfo, error)
}
