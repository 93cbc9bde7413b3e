// internal/docstore/memdb/match.go
package memdb

import (
	"fmt"
	"regexp"
	"time"

	"github.com/dalemusser/circlehub/internal/docstore"
)

// matchDoc reports whether doc satisfies filter. A nil filter matches
// every document. It is a pure recursive evaluator over the closed
// Filter variants; an impossible shape can only come from a new variant
// that this switch does not know yet.
func matchDoc(doc docstore.Document, filter docstore.Filter) (bool, error) {
	switch f := filter.(type) {
	case nil:
		return true, nil
	case docstore.Eq:
		return valuesEqual(doc[f.Field], f.Value), nil
	case docstore.Regex:
		s, ok := doc[f.Field].(string)
		if !ok {
			return false, fmt.Errorf("%w: $regex on non-string field %q", docstore.ErrBadFilter, f.Field)
		}
		pat := f.Pattern
		if f.CaseInsensitive {
			pat = "(?i)" + pat
		}
		re, err := regexp.Compile(pat)
		if err != nil {
			return false, fmt.Errorf("%w: %v", docstore.ErrBadFilter, err)
		}
		return re.MatchString(s), nil
	case docstore.Gte:
		cmp, ok := compareValues(doc[f.Field], f.Value)
		return ok && cmp >= 0, nil
	case docstore.In:
		for _, v := range f.Values {
			if valuesEqual(doc[f.Field], v) {
				return true, nil
			}
		}
		return false, nil
	case docstore.And:
		for _, sub := range f {
			ok, err := matchDoc(doc, sub)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case docstore.Or:
		for _, sub := range f {
			ok, err := matchDoc(doc, sub)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, fmt.Errorf("%w: unknown filter %T", docstore.ErrBadFilter, filter)
	}
}

// valuesEqual is strict equality with numeric widening, so an int
// stored by one writer still matches an int64 queried by another.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if af, aok := asFloat(a); aok {
		bf, bok := asFloat(b)
		return bok && af == bf
	}
	return a == b
}

// compareValues orders two values of the same general kind. The second
// result is false when the values are not comparable (different kinds,
// or a kind with no defined order).
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		switch {
		case av.Before(bv):
			return -1, true
		case av.After(bv):
			return 1, true
		}
		return 0, true
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		switch {
		case av < bv:
			return -1, true
		case av > bv:
			return 1, true
		}
		return 0, true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	if !aok || !bok {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	}
	return 0, true
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// eqOnly verifies that filter uses plain equality only, the documented
// contract for update and delete operations.
func eqOnly(filter docstore.Filter) error {
	switch f := filter.(type) {
	case nil, docstore.Eq:
		return nil
	case docstore.And:
		for _, sub := range f {
			if err := eqOnly(sub); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %T not allowed here, equality only", docstore.ErrBadFilter, filter)
	}
}

// applyUpdate mutates doc in place: Set merge-assigns fields, Inc adds
// to numeric fields treating a missing field as zero.
func applyUpdate(doc docstore.Document, update docstore.Update) error {
	for k, v := range update.Set {
		doc[k] = v
	}
	for k, delta := range update.Inc {
		switch cur := doc[k].(type) {
		case nil:
			doc[k] = delta
		case int:
			doc[k] = cur + delta
		case int64:
			doc[k] = cur + int64(delta)
		case float64:
			doc[k] = cur + float64(delta)
		default:
			return fmt.Errorf("%w: $inc on non-numeric field %q", docstore.ErrBadFilter, k)
		}
	}
	return nil
}
