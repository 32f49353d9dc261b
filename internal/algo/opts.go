package algo

import (
	"github.com/spf13/cast"

	"github.com/knotql/knotql/internal/value"
)

// optInt reads a numeric option that may have been parsed as either an Int
// or a Float literal (e.g. the REPL's `samples=1e3`) and coerces it through
// cast, rather than requiring the caller to guess which Value variant a
// script author used.
func optInt(opts map[string]value.Value, key string, def int) int {
	v, ok := opts[key]
	if !ok {
		return def
	}
	if i, ok := v.AsInt(); ok {
		return int(i)
	}
	if f, ok := v.AsFloat(); ok {
		return cast.ToInt(f)
	}
	return def
}

// optUint64 is optInt's counterpart for options consumed as an unsigned
// seed value.
func optUint64(opts map[string]value.Value, key string, def uint64) uint64 {
	v, ok := opts[key]
	if !ok {
		return def
	}
	if i, ok := v.AsInt(); ok {
		return cast.ToUint64(i)
	}
	if f, ok := v.AsFloat(); ok {
		return cast.ToUint64(f)
	}
	return def
}

// optString reads a textual option, used for the mode switch on
// ReachabilityProbability.
func optString(opts map[string]value.Value, key, def string) string {
	v, ok := opts[key]
	if !ok {
		return def
	}
	if s, ok := v.AsText(); ok {
		return s
	}
	return def
}
