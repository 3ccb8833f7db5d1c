package records

import (
	"cmp"
	"encoding/json"
	"slices"
	"strings"
	"time"
)

// SortRecords returns a copy of records ordered by field. Records missing the
// field sort last in either direction. Ties keep their original order.
func SortRecords(records []Record, field string, descending bool) []Record {
	out := slices.Clone(records)
	slices.SortStableFunc(out, func(a, b Record) int {
		av, aok := a.Value(field)
		bv, bok := b.Value(field)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return 1
		case !bok:
			return -1
		}
		c := compareValues(av, bv)
		if descending {
			return -c
		}
		return c
	})
	return out
}

// compareValues orders values of the same kind. Values of different kinds are
// ordered by kind so the sort stays consistent.
func compareValues(a, b any) int {
	ak, bk := kindOf(a), kindOf(b)
	if ak != bk {
		return cmp.Compare(ak, bk)
	}

	switch ak {
	case kindTime:
		return a.(time.Time).Compare(b.(time.Time))
	case kindNumber:
		return cmp.Compare(toFloat(a), toFloat(b))
	case kindBool:
		return cmp.Compare(boolRank(a.(bool)), boolRank(b.(bool)))
	case kindString:
		as, bs := a.(string), b.(string)
		if c := cmp.Compare(strings.ToLower(as), strings.ToLower(bs)); c != 0 {
			return c
		}
		return cmp.Compare(as, bs)
	}
	return 0
}

const (
	kindNumber = iota
	kindString
	kindBool
	kindTime
	kindOther
)

func kindOf(v any) int {
	switch v.(type) {
	case json.Number, float64, float32, int, int64, int32:
		return kindNumber
	case string:
		return kindString
	case bool:
		return kindBool
	case time.Time:
		return kindTime
	}
	return kindOther
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case json.Number:
		f, _ := n.Float64()
		return f
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	}
	return 0
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}
