package query_test

import (
	"context"
	"sort"
	"testing"

	"ormtour/internal/db/mock"
	"ormtour/internal/query"
	"ormtour/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type row map[string]any

func (r row) FieldValue(name string) (any, bool) {
	v, ok := r[name]
	return v, ok
}

func TestParseOp(t *testing.T) {
	op, err := query.ParseOp("STARTSWITH")
	require.NoError(t, err)
	assert.Equal(t, query.OpStartsWith, op)

	_, err = query.ParseOp("between")
	assert.ErrorIs(t, err, query.ErrUnknownOp)
}

func TestCompareValidatesValues(t *testing.T) {
	_, err := query.Compare("title", query.OpStartsWith, 42)
	assert.Error(t, err)

	_, err = query.Compare("stars", query.OpIn, 4)
	assert.Error(t, err)

	_, err = query.Compare("", query.OpEq, 1)
	assert.Error(t, err)

	_, err = query.Compare("title", query.Op("like"), "x")
	assert.ErrorIs(t, err, query.ErrUnknownOp)

	p, err := query.Compare("title", query.OpStartsWith, "F")
	require.NoError(t, err)
	assert.Equal(t, query.Field("title").StartsWith("F").String(), p.String())
}

func TestString(t *testing.T) {
	p := query.And(
		query.Field("title").StartsWith("F"),
		query.Not(query.Or(query.Field("stars").Gt(3), query.Field("notes").IsNull())),
	)
	assert.Equal(t, `(title startsWith "F" AND NOT (stars gt 3 OR notes isNull))`, p.String())
}

func TestEvalUsesThreeValuedLogic(t *testing.T) {
	noStars := row{"title": "Foo", "stars": nil}
	threeStars := row{"title": "Foo", "stars": 3}

	cases := []struct {
		name string
		p    query.Predicate
		r    row
		want bool
	}{
		{"gt on null", query.Field("stars").Gt(2), noStars, false},
		{"not gt on null", query.Not(query.Field("stars").Gt(2)), noStars, false},
		{"not gt", query.Not(query.Field("stars").Gt(4)), threeStars, true},
		{"is null", query.Field("stars").IsNull(), noStars, true},
		{"or rescues unknown", query.Or(query.Field("stars").Gt(2), query.Field("title").Eq("Foo")), noStars, true},
		{"and with unknown", query.And(query.Field("stars").Gt(2), query.Field("title").Eq("Foo")), noStars, false},
		{"in", query.Field("stars").In(1, 3), threeStars, true},
		{"in with uint", query.Field("stars").In(uint(3)), threeStars, true},
		{"ends with", query.Field("title").EndsWith("oo"), threeStars, true},
		{"contains", query.Field("title").Contains("x"), threeStars, false},
		{"empty and", query.And(), noStars, true},
		{"empty or", query.Or(), noStars, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.p.Eval(tc.r)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEvalErrors(t *testing.T) {
	_, err := query.Field("missing").Eq(1).Eval(row{})
	assert.Error(t, err)

	_, err = query.Field("stars").StartsWith("1").Eval(row{"stars": 1})
	assert.Error(t, err)

	_, err = query.Field("title").Gt(1).Eval(row{"title": "Foo"})
	assert.Error(t, err)
}

func TestToSQL(t *testing.T) {
	p := query.And(query.Field("title").StartsWith("F"), query.Field("stars").Gte(3))

	sql, err := query.ToSQL("postgres", "dishes", p)
	require.NoError(t, err)
	assert.Contains(t, sql, `FROM "dishes"`)
	assert.Contains(t, sql, `"title" LIKE 'F%' ESCAPE '\'`)
	assert.Contains(t, sql, `"stars" >= 3`)

	sql, err = query.ToSQL("sqlite", "dishes", query.Field("notes").IsNull())
	require.NoError(t, err)
	assert.Contains(t, sql, "IS NULL")

	_, err = query.ToSQL("oracle", "dishes", p)
	assert.Error(t, err)
}

func TestNilAndEmptyListComparisons(t *testing.T) {
	assert.Equal(t, "notes isNull", query.Field("notes").Eq(nil).String())
	assert.Equal(t, "notes isNotNull", query.Field("notes").Neq(nil).String())

	p, err := query.Compare("notes", query.OpNeq, nil)
	require.NoError(t, err)
	assert.Equal(t, "notes isNotNull", p.String())

	// Ordering against NULL stays unknown.
	ok, err := query.Field("stars").Gt(nil).Eval(row{"stars": 3})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = query.Not(query.Field("stars").In()).Eval(row{"stars": 3})
	require.NoError(t, err)
	assert.True(t, ok)

	for _, dialect := range []string{"postgres", "sqlite"} {
		sql, err := query.ToSQL(dialect, "dishes", query.Not(query.Field("stars").In()))
		require.NoError(t, err)
		assert.Contains(t, sql, "NOT (1 = 0)")
		assert.NotContains(t, sql, "IN ()")

		sql, err = query.ToSQL(dialect, "dishes", query.Field("notes").Eq(nil))
		require.NoError(t, err)
		assert.Contains(t, sql, "IS NULL")
	}
}

func seeded(t *testing.T) *gorm.DB {
	t.Helper()

	ctx := context.Background()
	database, err := mock.NewCookbook(ctx, false)
	require.NoError(t, err)

	extra := []*models.Dish{
		{Title: "Foo", Notes: models.Text("Barbarbarbarbar")},
		{Title: "Fondue", Stars: models.Int(2)},
		{Title: "Bar_"},
	}
	require.NoError(t, database.WithContext(ctx).Create(extra).Error)
	return database
}

func titles(dishes []models.Dish) []string {
	out := make([]string, 0, len(dishes))
	for _, d := range dishes {
		out = append(out, d.Title)
	}
	sort.Strings(out)
	return out
}

func TestDatabaseAndMemoryAgree(t *testing.T) {
	database := seeded(t)

	var all []models.Dish
	require.NoError(t, database.Find(&all).Error)

	notesMissing, err := query.Compare("notes", query.OpEq, nil)
	require.NoError(t, err)
	noStars, err := query.Compare("stars", query.OpIn, []any{})
	require.NoError(t, err)

	predicates := []query.Predicate{
		query.Field("title").StartsWith("F"),
		query.Field("title").Contains("_"),
		query.Field("notes").EndsWith("good"),
		query.Field("stars").Gte(4),
		query.Not(query.Field("stars").Gt(4)),
		query.Field("stars").In(2, 5),
		query.Field("notes").IsNull(),
		query.Or(query.Field("stars").Lt(3), query.Field("title").Eq("Thai Soup")),
		query.And(query.Field("title").Neq("Foo"), query.Field("notes").IsNotNull()),
		query.Not(query.And(query.Field("title").StartsWith("F"), query.Field("stars").IsNull())),
		notesMissing,
		query.Field("notes").Neq(nil),
		query.Field("stars").Eq((*int)(nil)),
		query.Field("stars").In(),
		query.Not(query.Field("stars").In()),
		query.Not(noStars),
		query.Or(query.Field("stars").In(), query.Field("title").Eq("Foo")),
	}

	for _, p := range predicates {
		t.Run(p.String(), func(t *testing.T) {
			var fromDB []models.Dish
			require.NoError(t, database.Scopes(query.Where(p)).Find(&fromDB).Error)

			var inMemory []models.Dish
			for i := range all {
				ok, err := p.Eval(&all[i])
				require.NoError(t, err)
				if ok {
					inMemory = append(inMemory, all[i])
				}
			}
			assert.Equal(t, titles(inMemory), titles(fromDB))
		})
	}
}

func TestLiteralAndDynamicPredicatesMatchTheSameRows(t *testing.T) {
	database := seeded(t)

	var literal []models.Dish
	require.NoError(t, database.Scopes(query.Where(query.Field("title").StartsWith("F"))).Find(&literal).Error)

	op, err := query.ParseOp("startsWith")
	require.NoError(t, err)
	dynamic, err := query.Compare("title", op, "F")
	require.NoError(t, err)

	var built []models.Dish
	require.NoError(t, database.Scopes(query.Where(dynamic)).Find(&built).Error)

	assert.Equal(t, []string{"Fondue", "Foo"}, titles(literal))
	assert.Equal(t, titles(literal), titles(built))
}

func TestWhereRendersEscapedLike(t *testing.T) {
	database := seeded(t)

	stmt := database.Session(&gorm.Session{DryRun: true}).
		Scopes(query.Where(query.Field("title").Contains("50%"))).
		Find(&[]models.Dish{}).Statement

	assert.Contains(t, stmt.SQL.String(), "LIKE ? ESCAPE '\\'")
	assert.Equal(t, []any{`%50\%%`}, stmt.Vars)
}
