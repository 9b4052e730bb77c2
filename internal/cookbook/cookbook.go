// Package cookbook holds the dish demos. Every demo opens its own tracked
// session, closes it before returning and writes its progress to Out.
package cookbook

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"ormtour/internal/db"
)

var ErrNoDishes = errors.New("no dishes in the database")

// Demo runs the cookbook procedures against one database.
type Demo struct {
	Factory *db.Factory
	Out     io.Writer
	Err     io.Writer
	// Filter is used by ExpressionTrees; the zero value means DefaultFilter.
	Filter Filter
}

// New returns a Demo writing to stdout and stderr.
func New(factory *db.Factory) *Demo {
	return &Demo{Factory: factory, Out: os.Stdout, Err: os.Stderr}
}

func (d *Demo) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(d.Out, format, args...)
}

// Scenario is a named demo.
type Scenario struct {
	Name  string
	Short string
	Run   func(ctx context.Context, d *Demo) error
}

// Scenarios lists the demos in the order they are meant to be read.
func Scenarios() []Scenario {
	return []Scenario{
		{Name: "soup", Short: "Add a soup with its ingredients", Run: func(ctx context.Context, d *Demo) error {
			_, err := d.Soup(ctx)
			return err
		}},
		{Name: "porridge", Short: "Add, query, change and remove a porridge", Run: func(ctx context.Context, d *Demo) error {
			return d.Porridge(ctx)
		}},
		{Name: "experiment", Short: "Save a dish twice with a change in between", Run: func(ctx context.Context, d *Demo) error {
			return d.Experiment(ctx)
		}},
		{Name: "entity-states", Short: "Walk a dish through every entity state", Run: func(ctx context.Context, d *Demo) error {
			_, err := d.EntityStates(ctx)
			return err
		}},
		{Name: "change-tracking", Short: "Compare tracked, original and stored values", Run: func(ctx context.Context, d *Demo) error {
			_, err := d.ChangeTracking(ctx)
			return err
		}},
		{Name: "attach", Short: "Detach a dish and update it again", Run: func(ctx context.Context, d *Demo) error {
			_, err := d.AttachEntities(ctx)
			return err
		}},
		{Name: "no-tracking", Short: "Load dishes without tracking them", Run: func(ctx context.Context, d *Demo) error {
			_, err := d.NoTracking(ctx)
			return err
		}},
		{Name: "raw-sql", Short: "Read and write with raw SQL", Run: func(ctx context.Context, d *Demo) error {
			_, err := d.RawSQL(ctx)
			return err
		}},
		{Name: "transactions", Short: "Roll back an insert after a database error", Run: func(ctx context.Context, d *Demo) error {
			return d.Transactions(ctx)
		}},
		{Name: "expression-trees", Short: "Filter with a literal and a dynamically built predicate", Run: func(ctx context.Context, d *Demo) error {
			_, err := d.ExpressionTrees(ctx, d.Filter)
			return err
		}},
	}
}
