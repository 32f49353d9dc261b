package algo

import (
	"context"

	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// Algorithm is the graph-algorithm execution contract: a named,
// fixed-arity function over relation arguments and options that writes its
// result into a derived store.
// Implementations must not retain rels, opts, or stores past Run returning.
type Algorithm interface {
	Name() string
	Arity() int
	Run(ctx context.Context, tx store.SessionTx, rels []RelArg, opts map[string]value.Value, stores map[string]store.DerivedRelStore, out store.DerivedRelStore) error
}

// RelArg is one of an algorithm's input relations: either a base table
// resolved through the session's Catalog, or a derived relation produced
// earlier in the same session (a rule's output, another algorithm's
// output). Binding is deferred to Iter so the same RelArg value can be
// planned once and iterated possibly more than once.
type RelArg struct {
	table   string
	derived string
}

func FromTable(name string) RelArg   { return RelArg{table: name} }
func FromDerived(name string) RelArg { return RelArg{derived: name} }

func (r RelArg) Iter(ctx context.Context, tx store.SessionTx) (store.RowIter, error) {
	if r.derived != "" {
		ds, ok := tx.DerivedStore(r.derived)
		if !ok {
			return nil, Error{Kind: "UnknownTable", Message: "derived relation " + r.derived + " has not been produced yet"}
		}
		return ds.Iter(ctx)
	}
	handle, err := tx.Catalog().ResolveTable(r.table)
	if err != nil {
		return nil, err
	}
	return handle.Scan(ctx)
}
