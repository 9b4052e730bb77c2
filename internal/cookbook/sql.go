package cookbook

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"ormtour/internal/db"
	applog "ormtour/internal/log"
	"ormtour/internal/query"
	"ormtour/internal/render"
	"ormtour/internal/tracking"
	"ormtour/models"
)

// RawResult summarises the raw SQL demo.
type RawResult struct {
	Tracked  int
	Matching int
	Deleted  int64
}

// RawSQL reads dishes with a raw select (tracked like any other query), reads
// again with a bound LIKE parameter and finally deletes every dish that has
// no ingredients.
func (d *Demo) RawSQL(ctx context.Context) (RawResult, error) {
	s := d.Factory.NewSession()
	defer s.Close()

	var result RawResult

	dishes, err := tracking.Raw[models.Dish](ctx, s, "SELECT * FROM dishes ORDER BY id")
	if err != nil {
		return result, err
	}
	result.Tracked = s.Tracked()
	render.Dishes(d.Out, dishes)

	filter := "%z"
	matching, err := tracking.RawNoTracking[models.Dish](ctx, s, "SELECT * FROM dishes WHERE notes LIKE ? ORDER BY id", filter)
	if err != nil {
		return result, err
	}
	result.Matching = len(matching)
	d.printf("dishes with notes like %q: %d\n", filter, result.Matching)

	result.Deleted, err = s.Exec(ctx, "DELETE FROM dishes WHERE id NOT IN (SELECT dish_id FROM ingredients)")
	if err != nil {
		return result, fmt.Errorf("delete dishes without ingredients: %w", err)
	}
	d.printf("deleted %d dishes without ingredients\n", result.Deleted)
	return result, nil
}

// Transactions inserts a dish and then runs a statement the database fails
// to evaluate, inside one transaction. Errors reported by the database are
// written to Err and leave nothing behind; any other error is returned.
func (d *Demo) Transactions(ctx context.Context) error {
	s := d.Factory.NewSession()
	defer s.Close()

	err := s.Transaction(ctx, func(tx *tracking.Session) error {
		tracking.Add(tx, &models.Dish{Title: "Foo", Notes: models.Text("Bar")})
		if _, err := tx.SaveChanges(ctx); err != nil {
			return err
		}

		_, err := tx.Exec(ctx, db.FailingStatement(d.Factory.Dialect()))
		return err
	})
	if err == nil || !db.IsDatabaseError(err) {
		return err
	}

	_, _ = fmt.Fprintf(d.Err, "Something bad happened: %v\n", err)
	applog.Error(ctx, "transaction rolled back", "err", err)
	return nil
}

// Filter describes a comparison by its parts, the way a caller would pass it
// in at runtime.
type Filter struct {
	Field string
	Op    string
	Value string
}

// DefaultFilter matches titles starting with "F".
var DefaultFilter = Filter{Field: "title", Op: string(query.OpStartsWith), Value: "F"}

func (f Filter) isZero() bool {
	return f == Filter{}
}

// Predicate assembles the comparison. Numeric values become integers and
// the In operator takes a comma separated list.
func (f Filter) Predicate() (query.Predicate, error) {
	op, err := query.ParseOp(f.Op)
	if err != nil {
		return nil, err
	}

	var value any
	switch op {
	case query.OpStartsWith, query.OpEndsWith, query.OpContains:
		value = f.Value
	case query.OpIn:
		var values []any
		for _, part := range strings.Split(f.Value, ",") {
			values = append(values, literal(strings.TrimSpace(part)))
		}
		value = values
	default:
		value = literal(f.Value)
	}
	return query.Compare(f.Field, op, value)
}

func literal(s string) any {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return s
}

// describeDish is "title (first ten characters of the notes...)".
const describeDish = "title || ' (' || COALESCE(substr(notes, 1, 10), '') || '...)'"

// FilterResult holds the descriptions selected by both forms of the filter.
type FilterResult struct {
	Literal   []string
	Dynamic   []string
	Predicate string
	SQL       string
}

// ExpressionTrees filters dishes twice: once with a predicate written in code
// and once with one assembled from f, and projects both results the same way.
// With the default filter both lists are equal.
func (d *Demo) ExpressionTrees(ctx context.Context, f Filter) (FilterResult, error) {
	if f.isZero() {
		f = DefaultFilter
	}

	s := d.Factory.NewSession()
	defer s.Close()

	tracking.Add(s, &models.Dish{Title: "Foo", Notes: models.Text("Barbarbarbarbar")})
	if _, err := s.SaveChanges(ctx); err != nil {
		return FilterResult{}, err
	}

	var result FilterResult
	written := query.Field("title").StartsWith("F")
	if err := s.DB(ctx).Model(&models.Dish{}).Scopes(query.Where(written), orderByID).Pluck(describeDish, &result.Literal).Error; err != nil {
		return result, fmt.Errorf("literal filter: %w", err)
	}

	dynamic, err := f.Predicate()
	if err != nil {
		return result, fmt.Errorf("build filter: %w", err)
	}
	result.Predicate = dynamic.String()
	if err := s.DB(ctx).Model(&models.Dish{}).Scopes(query.Where(dynamic), orderByID).Pluck(describeDish, &result.Dynamic).Error; err != nil {
		return result, fmt.Errorf("dynamic filter: %w", err)
	}

	result.SQL, err = query.ToSQL(d.Factory.Dialect(), "dishes", dynamic)
	if err != nil {
		return result, err
	}

	d.printf("literal  %s\n", written)
	for _, line := range result.Literal {
		d.printf("  %s\n", line)
	}
	d.printf("dynamic  %s\n", result.Predicate)
	for _, line := range result.Dynamic {
		d.printf("  %s\n", line)
	}
	d.printf("sql      %s\n", result.SQL)
	return result, nil
}
