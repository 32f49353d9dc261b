package store

import (
	"context"
	"sort"

	"github.com/knotql/knotql/internal/value"
)

// memTable is an in-memory base table, key-sorted on load so it can be
// range-scanned in sorted order.
type memTable struct {
	info TableInfo
	rows []Tuple
}

func newMemTable(info TableInfo) *memTable {
	return &memTable{info: info}
}

func (t *memTable) Info() TableInfo { return t.info }

// Load replaces the table's contents, re-sorting by key so Scan always
// yields rows in the byte-sortable key order describes.
func (t *memTable) Load(rows []Tuple) error {
	for _, r := range rows {
		if len(r) != len(t.info.Columns) {
			return errWrongArity(t.info.Name, len(t.info.Columns), len(r))
		}
	}
	sorted := make([]Tuple, len(rows))
	copy(sorted, rows)
	sortTuples(sorted, t.info.KeyArity)
	t.rows = sorted
	return nil
}

func (t *memTable) Scan(ctx context.Context) (RowIter, error) {
	return newSliceIter(ctx, t.rows), nil
}

func sortTuples(rows []Tuple, keyArity int) {
	sort.Slice(rows, func(i, j int) bool {
		return compareKeys(rows[i], rows[j], keyArity) < 0
	})
}

func compareKeys(a, b Tuple, keyArity int) int {
	for i := 0; i < keyArity && i < len(a) && i < len(b); i++ {
		if c := value.Compare(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

// sliceIter adapts a pre-sorted []Tuple into RowIter, checking ctx between
// tuples ('s suspension-point requirement).
type sliceIter struct {
	ctx  context.Context
	rows []Tuple
	pos  int
	cur  Tuple
	err  error
}

func newSliceIter(ctx context.Context, rows []Tuple) *sliceIter {
	return &sliceIter{ctx: ctx, rows: rows}
}

func (it *sliceIter) Next() bool {
	if it.err != nil {
		return false
	}
	if err := it.ctx.Err(); err != nil {
		it.err = errCancelled()
		return false
	}
	if it.pos >= len(it.rows) {
		return false
	}
	it.cur = it.rows[it.pos]
	it.pos++
	return true
}

func (it *sliceIter) Tuple() Tuple { return it.cur }
func (it *sliceIter) Err() error   { return it.err }
