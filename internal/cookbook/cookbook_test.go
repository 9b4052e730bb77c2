package cookbook

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"ormtour/internal/db"
	"ormtour/internal/db/migrations"
	"ormtour/internal/db/mock"
	"ormtour/internal/tracking"
	"ormtour/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testDemo struct {
	*Demo
	db  *gorm.DB
	out *bytes.Buffer
	err *bytes.Buffer
}

func newTestDemo(t *testing.T, database *gorm.DB) *testDemo {
	t.Helper()

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	factory := db.FromDB(database)
	t.Cleanup(func() { _ = factory.Close() })
	return &testDemo{
		Demo: &Demo{Factory: factory, Out: out, Err: errOut},
		db:   database,
		out:  out,
		err:  errOut,
	}
}

func seededDemo(t *testing.T) *testDemo {
	t.Helper()

	database, err := mock.NewCookbook(context.Background(), false)
	require.NoError(t, err)
	return newTestDemo(t, database)
}

func countTitle(t *testing.T, database *gorm.DB, title string) int64 {
	t.Helper()

	var n int64
	require.NoError(t, database.Model(&models.Dish{}).Where("title = ?", title).Count(&n).Error)
	return n
}

func TestSoupIsStoredWithIngredients(t *testing.T) {
	d := seededDemo(t)

	soup, err := d.Soup(context.Background())
	require.NoError(t, err)
	require.NotZero(t, soup.ID)

	var stored models.Dish
	require.NoError(t, d.db.Preload("Ingredients").First(&stored, soup.ID).Error)
	assert.Equal(t, "Thai Soup", stored.Title)
	assert.Equal(t, "Thai soup is really good", *stored.Notes)
	assert.Equal(t, 5, *stored.Stars)
	require.Len(t, stored.Ingredients, 2)
	assert.Equal(t, "7", stored.Ingredients[1].Amount.String())
	assert.Contains(t, d.out.String(), "Red Chilli")
}

func TestPorridgeRemovesWhatItAdded(t *testing.T) {
	d := seededDemo(t)

	require.NoError(t, d.Porridge(context.Background()))

	assert.EqualValues(t, 1, countTitle(t, d.db, "Breakfast Porridge"))
	out := d.out.String()
	assert.Contains(t, out, "Porridge has 4 stars")
	assert.Contains(t, out, "Porridge removed")
}

func TestExperiment(t *testing.T) {
	d := seededDemo(t)

	require.NoError(t, d.Experiment(context.Background()))

	var stored models.Dish
	require.NoError(t, d.db.Where("title = ?", "Foo").First(&stored).Error)
	assert.Equal(t, "Baz", *stored.Notes)
}

func TestEntityStates(t *testing.T) {
	d := seededDemo(t)

	states, err := d.EntityStates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []tracking.State{
		tracking.Detached,
		tracking.Added,
		tracking.Unchanged,
		tracking.Modified,
		tracking.Unchanged,
		tracking.Deleted,
		tracking.Detached,
	}, states)
	assert.Zero(t, countTitle(t, d.db, "Foo"))
}

func TestChangeTracking(t *testing.T) {
	d := seededDemo(t)

	values, err := d.ChangeTracking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TrackedValues{
		Current:   "Baz",
		Original:  "Bar",
		Requeried: "Baz",
		Stored:    "Bar",
	}, values)
	assert.Contains(t, d.out.String(), "same instance: true")
}

func TestAttachEntities(t *testing.T) {
	d := seededDemo(t)

	states, err := d.AttachEntities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []tracking.State{tracking.Detached, tracking.Unchanged}, states)
}

func TestNoTracking(t *testing.T) {
	d := seededDemo(t)

	state, err := d.NoTracking(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tracking.Detached, state)
	assert.Contains(t, d.out.String(), "tracked entities: 0")
}

func TestNoTrackingWithoutDishes(t *testing.T) {
	ctx := context.Background()
	database, err := mock.Open(ctx, false)
	require.NoError(t, err)
	require.NoError(t, migrations.Up(ctx, database))

	_, err = newTestDemo(t, database).NoTracking(ctx)
	assert.ErrorIs(t, err, ErrNoDishes)
}

func TestRawSQL(t *testing.T) {
	d := seededDemo(t)

	result, err := d.RawSQL(context.Background())
	require.NoError(t, err)
	assert.Equal(t, RawResult{Tracked: 2, Matching: 0, Deleted: 1}, result)
	assert.Zero(t, countTitle(t, d.db, "Breakfast Porridge"))
	assert.EqualValues(t, 1, countTitle(t, d.db, "Thai Soup"))
}

func TestTransactionsRollBackOnDatabaseError(t *testing.T) {
	d := seededDemo(t)

	require.NoError(t, d.Transactions(context.Background()))

	assert.Contains(t, d.err.String(), "Something bad happened")
	assert.Zero(t, countTitle(t, d.db, "Foo"))
}

func TestTransactionsReturnOtherErrors(t *testing.T) {
	d := seededDemo(t)
	require.NoError(t, d.Factory.Close())

	err := d.Transactions(context.Background())
	require.Error(t, err)
	assert.Empty(t, d.err.String())
}

func TestTransactionsOnPostgres(t *testing.T) {
	sqlDB, expect, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	database, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	expect.ExpectBegin()
	expect.ExpectQuery(regexp.QuoteMeta(`INSERT INTO "dishes"`)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	expect.ExpectExec(regexp.QuoteMeta("SELECT 1/0 AS meaningless")).
		WillReturnError(&pgconn.PgError{Severity: "ERROR", Code: "22012", Message: "division by zero"})
	expect.ExpectRollback()

	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	d := &Demo{Factory: db.FromDB(database), Out: out, Err: errOut}
	require.NoError(t, d.Transactions(context.Background()))

	assert.Contains(t, errOut.String(), "division by zero")
	require.NoError(t, expect.ExpectationsWereMet())
}

func TestExpressionTreesLiteralAndDynamicAgree(t *testing.T) {
	d := seededDemo(t)

	result, err := d.ExpressionTrees(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"Foo (Barbarbarb...)"}, result.Literal)
	assert.Equal(t, result.Literal, result.Dynamic)
	assert.Equal(t, `title startsWith "F"`, result.Predicate)
	assert.Contains(t, result.SQL, "LIKE 'F%'")
}

func TestExpressionTreesWithCustomFilter(t *testing.T) {
	d := seededDemo(t)

	result, err := d.ExpressionTrees(context.Background(), Filter{Field: "stars", Op: "gte", Value: "5"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Thai Soup (Thai soup ...)"}, result.Dynamic)
	assert.Equal(t, "stars gte 5", result.Predicate)

	_, err = d.ExpressionTrees(context.Background(), Filter{Field: "stars", Op: "between", Value: "1"})
	assert.Error(t, err)
}

func TestFilterPredicate(t *testing.T) {
	p, err := Filter{Field: "stars", Op: "in", Value: "4, 5"}.Predicate()
	require.NoError(t, err)
	assert.Equal(t, "stars in [4 5]", p.String())

	p, err = Filter{Field: "title", Op: "contains", Value: "42"}.Predicate()
	require.NoError(t, err)
	assert.Equal(t, `title contains "42"`, p.String())
}

func TestScenariosRunAgainstMockDatabase(t *testing.T) {
	for _, scenario := range Scenarios() {
		t.Run(scenario.Name, func(t *testing.T) {
			d := seededDemo(t)
			require.NoError(t, scenario.Run(context.Background(), d.Demo))
		})
	}
}
