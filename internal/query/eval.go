package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type truth int8

const (
	unknown truth = iota
	isFalse
	isTrue
)

func truthOf(b bool) truth {
	if b {
		return isTrue
	}
	return isFalse
}

func eval(p Predicate, f Fields) (bool, error) {
	t, err := p.test(f)
	return t == isTrue, err
}

func (c comparison) Eval(f Fields) (bool, error) { return eval(c, f) }

func (c comparison) test(f Fields) (truth, error) {
	got, ok := f.FieldValue(c.field)
	if !ok {
		return unknown, fmt.Errorf("eval %s: unknown field %q", c, c.field)
	}

	switch c.op {
	case OpIsNull:
		return truthOf(got == nil), nil
	case OpIsNotNull:
		return truthOf(got != nil), nil
	}
	if got == nil {
		return unknown, nil
	}

	switch c.op {
	case OpStartsWith, OpEndsWith, OpContains:
		s, ok := got.(string)
		if !ok {
			return unknown, fmt.Errorf("eval %s: field %q is %T, not text", c, c.field, got)
		}
		needle := c.value.(string)
		switch c.op {
		case OpStartsWith:
			return truthOf(strings.HasPrefix(s, needle)), nil
		case OpEndsWith:
			return truthOf(strings.HasSuffix(s, needle)), nil
		default:
			return truthOf(strings.Contains(s, needle)), nil
		}
	case OpIn:
		result := isFalse
		for _, candidate := range c.value.([]any) {
			if candidate == nil {
				result = unknown
				continue
			}
			cmp, err := compareValues(got, candidate)
			if err != nil {
				return unknown, fmt.Errorf("eval %s: %w", c, err)
			}
			if cmp == 0 {
				return isTrue, nil
			}
		}
		return result, nil
	}

	if isNil(c.value) {
		return unknown, nil
	}
	cmp, err := compareValues(got, c.value)
	if err != nil {
		return unknown, fmt.Errorf("eval %s: %w", c, err)
	}
	switch c.op {
	case OpEq:
		return truthOf(cmp == 0), nil
	case OpNeq:
		return truthOf(cmp != 0), nil
	case OpGt:
		return truthOf(cmp > 0), nil
	case OpGte:
		return truthOf(cmp >= 0), nil
	case OpLt:
		return truthOf(cmp < 0), nil
	default:
		return truthOf(cmp <= 0), nil
	}
}

// compareValues orders two non-nil scalars. Numbers compare by value across
// integer, float and decimal types; text compares bytewise.
func compareValues(a, b any) (int, error) {
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare text with %T", b)
		}
		return strings.Compare(as, bs), nil
	}

	ad, ok := number(a)
	if !ok {
		return 0, fmt.Errorf("cannot compare %T", a)
	}
	bd, ok := number(b)
	if !ok {
		return 0, fmt.Errorf("cannot compare %T with %T", a, b)
	}
	return ad.Cmp(bd), nil
}

func number(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint:
		return fromUint(uint64(n)), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return fromUint(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	case decimal.Decimal:
		return n, true
	default:
		return decimal.Decimal{}, false
	}
}

func fromUint(n uint64) decimal.Decimal {
	return decimal.RequireFromString(strconv.FormatUint(n, 10))
}
