package cli

import (
	"fmt"
	"io"

	"ormtour/internal/cookbook"
	"ormtour/internal/db"
	"ormtour/internal/db/migrations"

	"github.com/spf13/cobra"
)

// NewCookbook builds the cookbook command: one subcommand per demo plus
// migrate and import.
func NewCookbook(out, errOut io.Writer) *Program {
	a := &app{out: out, errOut: errOut, newMock: newCookbookMockFunc}
	root := newRoot(a, "cookbook", "Dishes and ingredients: entity states, change tracking, raw SQL and transactions")

	var filter cookbook.Filter
	demo := func() (*cookbook.Demo, error) {
		factory, err := a.db()
		if err != nil {
			return nil, err
		}
		return &cookbook.Demo{Factory: factory, Out: out, Err: errOut, Filter: filter}, nil
	}

	for _, scenario := range cookbook.Scenarios() {
		cmd := &cobra.Command{
			Use:   scenario.Name,
			Short: scenario.Short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				d, err := demo()
				if err != nil {
					return err
				}
				return scenario.Run(cmd.Context(), d)
			},
		}
		if scenario.Name == "expression-trees" {
			cmd.Flags().StringVar(&filter.Field, "field", cookbook.DefaultFilter.Field, "column of the dynamic filter")
			cmd.Flags().StringVar(&filter.Op, "op", cookbook.DefaultFilter.Op, "operator of the dynamic filter")
			cmd.Flags().StringVar(&filter.Value, "value", cookbook.DefaultFilter.Value, "value of the dynamic filter")
		}
		root.AddCommand(cmd)
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "import <csv>",
			Short: "Import dishes and ingredients from a CSV file",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				d, err := demo()
				if err != nil {
					return err
				}
				_, err = d.Import(cmd.Context(), args[0])
				return err
			},
		},
		newMigrateCommand(a),
	)

	return &Program{root: root, app: a}
}

func newMigrateCommand(a *app) *cobra.Command {
	migrate := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the cookbook schema version",
	}

	var to int64
	up := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			factory, err := a.db()
			if err != nil {
				return err
			}
			if to > 0 {
				err = migrations.UpTo(cmd.Context(), factory.DB(), to)
			} else {
				err = migrations.Up(cmd.Context(), factory.DB())
			}
			if err != nil {
				return err
			}
			return printVersion(cmd, factory)
		},
	}
	up.Flags().Int64Var(&to, "to", 0, "stop at this version")

	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back the latest migration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			factory, err := a.db()
			if err != nil {
				return err
			}
			if err := migrations.Down(cmd.Context(), factory.DB()); err != nil {
				return err
			}
			return printVersion(cmd, factory)
		},
	}

	status := &cobra.Command{
		Use:   "status",
		Short: "Print the applied schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			factory, err := a.db()
			if err != nil {
				return err
			}
			return printVersion(cmd, factory)
		},
	}

	migrate.AddCommand(up, down, status)
	return migrate
}

func printVersion(cmd *cobra.Command, factory *db.Factory) error {
	version, err := migrations.Version(cmd.Context(), factory.DB())
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return err
}
