package algo

import (
	"context"
	"sort"

	"github.com/knotql/knotql/internal/store"
	"github.com/knotql/knotql/internal/value"
)

// DegreeCentrality computes, in a single pass over a two-column (from, to)
// relation, the total, out-, and in-degree per key, emitted in key order.
type DegreeCentrality struct{}

func (DegreeCentrality) Name() string { return "degree_centrality" }
func (DegreeCentrality) Arity() int   { return 4 }

type degreeCounts struct {
	total, out, in int64
}

func (DegreeCentrality) Run(ctx context.Context, tx store.SessionTx, rels []RelArg, _ map[string]value.Value, _ map[string]store.DerivedRelStore, out store.DerivedRelStore) error {
	if len(rels) != 1 {
		return errWrongArity("degree_centrality", 1, len(rels))
	}
	it, err := rels[0].Iter(ctx, tx)
	if err != nil {
		return err
	}

	counter := map[string]*degreeCounts{}
	var order []value.Value
	keyOf := func(v value.Value) string {
		enc, encErr := v.Encode()
		if encErr != nil {
			return v.String()
		}
		return string(enc)
	}

	for it.Next() {
		tuple := it.Tuple()
		if len(tuple) < 2 {
			return errBadInputShape("degree_centrality", "input relation must be a tuple of at least two elements")
		}
		from, to := tuple[0], tuple[1]

		fromKey := keyOf(from)
		c, ok := counter[fromKey]
		if !ok {
			c = &degreeCounts{}
			counter[fromKey] = c
			order = append(order, from)
		}
		c.total++
		c.out++

		toKey := keyOf(to)
		c, ok = counter[toKey]
		if !ok {
			c = &degreeCounts{}
			counter[toKey] = c
			order = append(order, to)
		}
		c.total++
		c.in++
	}
	if err := it.Err(); err != nil {
		return err
	}

	sort.Slice(order, func(i, j int) bool { return value.Less(order[i], order[j]) })

	for _, k := range order {
		c := counter[keyOf(k)]
		row := store.Tuple{k, value.Int(c.total), value.Int(c.out), value.Int(c.in)}
		if err := out.Put(row); err != nil {
			return err
		}
	}
	return nil
}
