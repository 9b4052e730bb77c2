// Package query builds filter predicates as a small typed tree. A predicate
// can be handed to GORM as a WHERE clause, rendered as SQL with goqu, or
// evaluated against an entity in memory.
package query

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Op is a comparison operator.
type Op string

const (
	OpEq         Op = "eq"
	OpNeq        Op = "neq"
	OpGt         Op = "gt"
	OpGte        Op = "gte"
	OpLt         Op = "lt"
	OpLte        Op = "lte"
	OpStartsWith Op = "startsWith"
	OpEndsWith   Op = "endsWith"
	OpContains   Op = "contains"
	OpIn         Op = "in"
	OpIsNull     Op = "isNull"
	OpIsNotNull  Op = "isNotNull"
)

var ops = []Op{OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte, OpStartsWith, OpEndsWith, OpContains, OpIn, OpIsNull, OpIsNotNull}

var ErrUnknownOp = errors.New("unknown operator")

// ParseOp resolves an operator name case-insensitively.
func ParseOp(name string) (Op, error) {
	name = strings.TrimSpace(name)
	for _, op := range ops {
		if strings.EqualFold(string(op), name) {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOp, name)
}

// Fields is implemented by entities that can be filtered in memory.
type Fields interface {
	FieldValue(name string) (any, bool)
}

// Predicate is a node of a filter tree.
type Predicate interface {
	// Expression compiles the predicate for GORM.
	Expression() clause.Expression
	// Goqu compiles the predicate for goqu.
	Goqu() exp.Expression
	// Eval applies the predicate to an entity. Comparisons against NULL are
	// unknown, as in SQL, and unknown does not match.
	Eval(f Fields) (bool, error)
	String() string

	test(f Fields) (truth, error)
}

// Field names a column. Its methods are shorthands for Compare.
type Field string

func (f Field) Eq(v any) Predicate         { return newComparison(string(f), OpEq, v) }
func (f Field) Neq(v any) Predicate        { return newComparison(string(f), OpNeq, v) }
func (f Field) Gt(v any) Predicate         { return newComparison(string(f), OpGt, v) }
func (f Field) Gte(v any) Predicate        { return newComparison(string(f), OpGte, v) }
func (f Field) Lt(v any) Predicate         { return newComparison(string(f), OpLt, v) }
func (f Field) Lte(v any) Predicate        { return newComparison(string(f), OpLte, v) }
func (f Field) StartsWith(s string) Predicate {
	return newComparison(string(f), OpStartsWith, s)
}
func (f Field) EndsWith(s string) Predicate {
	return newComparison(string(f), OpEndsWith, s)
}
func (f Field) Contains(s string) Predicate {
	return newComparison(string(f), OpContains, s)
}
func (f Field) In(values ...any) Predicate {
	return newComparison(string(f), OpIn, values)
}
func (f Field) IsNull() Predicate    { return newComparison(string(f), OpIsNull, nil) }
func (f Field) IsNotNull() Predicate { return newComparison(string(f), OpIsNotNull, nil) }

// Compare builds a comparison node from its parts, for filters assembled at
// runtime. The string operators need a string value and In needs a []any.
// Eq and Neq against nil become isNull and isNotNull.
func Compare(field string, op Op, value any) (Predicate, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, errors.New("compare: field name must not be empty")
	}

	switch op {
	case OpEq, OpNeq, OpGt, OpGte, OpLt, OpLte:
	case OpStartsWith, OpEndsWith, OpContains:
		if _, ok := value.(string); !ok {
			return nil, fmt.Errorf("compare: %s needs a string, got %T", op, value)
		}
	case OpIn:
		if _, ok := value.([]any); !ok {
			return nil, fmt.Errorf("compare: %s needs a list, got %T", op, value)
		}
	case OpIsNull, OpIsNotNull:
	default:
		return nil, fmt.Errorf("compare: %w: %q", ErrUnknownOp, op)
	}

	return newComparison(field, op, value), nil
}

func newComparison(field string, op Op, value any) comparison {
	if isNil(value) {
		switch op {
		case OpEq:
			op = OpIsNull
		case OpNeq:
			op = OpIsNotNull
		}
	}
	if op == OpIsNull || op == OpIsNotNull {
		value = nil
	}
	return comparison{field: field, op: op, value: value}
}

// isNil matches what GORM renders as NULL: nil and nil pointers.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

// An empty IN list matches nothing. Both builders would otherwise emit SQL
// that disagrees with that, or does not parse.
func (c comparison) emptyIn() bool {
	return c.op == OpIn && len(c.value.([]any)) == 0
}

type comparison struct {
	field string
	op    Op
	value any
}

func (c comparison) column() clause.Column {
	return clause.Column{Name: c.field}
}

func (c comparison) pattern() string {
	s := escapeLike(c.value.(string))
	switch c.op {
	case OpStartsWith:
		return s + "%"
	case OpEndsWith:
		return "%" + s
	default:
		return "%" + s + "%"
	}
}

func (c comparison) Expression() clause.Expression {
	if c.emptyIn() {
		return clause.Expr{SQL: "1 = 0"}
	}
	col := c.column()
	switch c.op {
	case OpEq:
		return clause.Eq{Column: col, Value: c.value}
	case OpNeq:
		return clause.Neq{Column: col, Value: c.value}
	case OpGt:
		return clause.Gt{Column: col, Value: c.value}
	case OpGte:
		return clause.Gte{Column: col, Value: c.value}
	case OpLt:
		return clause.Lt{Column: col, Value: c.value}
	case OpLte:
		return clause.Lte{Column: col, Value: c.value}
	case OpStartsWith, OpEndsWith, OpContains:
		return clause.Expr{SQL: likeSQL, Vars: []any{col, c.pattern()}}
	case OpIn:
		return clause.IN{Column: col, Values: c.value.([]any)}
	case OpIsNull:
		return clause.Eq{Column: col, Value: nil}
	default:
		return clause.Neq{Column: col, Value: nil}
	}
}

func (c comparison) Goqu() exp.Expression {
	if c.emptyIn() {
		return goqu.L("1 = 0")
	}
	col := goqu.C(c.field)
	switch c.op {
	case OpEq:
		return col.Eq(c.value)
	case OpNeq:
		return col.Neq(c.value)
	case OpGt:
		return col.Gt(c.value)
	case OpGte:
		return col.Gte(c.value)
	case OpLt:
		return col.Lt(c.value)
	case OpLte:
		return col.Lte(c.value)
	case OpStartsWith, OpEndsWith, OpContains:
		return goqu.L(likeSQL, col, c.pattern())
	case OpIn:
		return col.In(c.value.([]any)...)
	case OpIsNull:
		return col.IsNull()
	default:
		return col.IsNotNull()
	}
}

func (c comparison) String() string {
	switch c.op {
	case OpIsNull, OpIsNotNull:
		return fmt.Sprintf("%s %s", c.field, c.op)
	case OpStartsWith, OpEndsWith, OpContains:
		return fmt.Sprintf("%s %s %q", c.field, c.op, c.value)
	default:
		return fmt.Sprintf("%s %s %v", c.field, c.op, c.value)
	}
}

const likeSQL = `? LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// And matches when every predicate matches. An empty And matches everything.
func And(preds ...Predicate) Predicate {
	return junction{and: true, preds: preds}
}

// Or matches when any predicate matches. An empty Or matches nothing.
func Or(preds ...Predicate) Predicate {
	return junction{preds: preds}
}

// Not negates p.
func Not(p Predicate) Predicate {
	return negation{inner: p}
}

type junction struct {
	and   bool
	preds []Predicate
}

func (j junction) word() string {
	if j.and {
		return "AND"
	}
	return "OR"
}

func (j junction) Expression() clause.Expression {
	if len(j.preds) == 0 {
		if j.and {
			return clause.Expr{SQL: "1 = 1"}
		}
		return clause.Expr{SQL: "1 = 0"}
	}
	exprs := make([]clause.Expression, 0, len(j.preds))
	for _, p := range j.preds {
		exprs = append(exprs, p.Expression())
	}
	if j.and {
		return clause.And(exprs...)
	}
	return clause.Or(exprs...)
}

func (j junction) Goqu() exp.Expression {
	if len(j.preds) == 0 {
		if j.and {
			return goqu.L("1 = 1")
		}
		return goqu.L("1 = 0")
	}
	exprs := make([]exp.Expression, 0, len(j.preds))
	for _, p := range j.preds {
		exprs = append(exprs, p.Goqu())
	}
	if j.and {
		return goqu.And(exprs...)
	}
	return goqu.Or(exprs...)
}

func (j junction) Eval(f Fields) (bool, error) { return eval(j, f) }

func (j junction) test(f Fields) (truth, error) {
	// AND is decided by the first false, OR by the first true.
	decisive, result := isFalse, isTrue
	if !j.and {
		decisive, result = isTrue, isFalse
	}
	for _, p := range j.preds {
		t, err := p.test(f)
		if err != nil {
			return unknown, err
		}
		switch t {
		case decisive:
			return decisive, nil
		case unknown:
			result = unknown
		}
	}
	return result, nil
}

func (j junction) String() string {
	parts := make([]string, 0, len(j.preds))
	for _, p := range j.preds {
		parts = append(parts, p.String())
	}
	return "(" + strings.Join(parts, " "+j.word()+" ") + ")"
}

type negation struct {
	inner Predicate
}

func (n negation) Expression() clause.Expression {
	return notExpr{inner: n.inner.Expression()}
}

func (n negation) Goqu() exp.Expression {
	return goqu.L("NOT (?)", n.inner.Goqu())
}

func (n negation) Eval(f Fields) (bool, error) { return eval(n, f) }

func (n negation) test(f Fields) (truth, error) {
	t, err := n.inner.test(f)
	if err != nil {
		return unknown, err
	}
	switch t {
	case isTrue:
		return isFalse, nil
	case isFalse:
		return isTrue, nil
	default:
		return unknown, nil
	}
}

type notExpr struct {
	inner clause.Expression
}

func (n notExpr) Build(builder clause.Builder) {
	builder.WriteString("NOT (")
	n.inner.Build(builder)
	builder.WriteByte(')')
}

func (n negation) String() string {
	return "NOT " + n.inner.String()
}

// Where applies p as a GORM scope.
func Where(p Predicate) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(p.Expression())
	}
}
