package cli

import (
	"fmt"
	"io"

	"ormtour/internal/bricks"
	"ormtour/internal/db"

	"github.com/spf13/cobra"
)

// NewBricks builds the bricks command. Without a subcommand it runs query.
func NewBricks(out, errOut io.Writer) *Program {
	a := &app{out: out, errOut: errOut, newMock: newBricksMockFunc}
	root := newRoot(a, "bricks", "Bricks, vendors and tags: inheritance and related data")

	demo := func() (*bricks.Demo, error) {
		factory, err := a.db()
		if err != nil {
			return nil, err
		}
		return &bricks.Demo{Factory: factory, Out: out}, nil
	}

	query := func(cmd *cobra.Command, _ []string) error {
		d, err := demo()
		if err != nil {
			return err
		}
		_, err = d.QueryData(cmd.Context())
		return err
	}
	root.Args = cobra.NoArgs
	root.RunE = query

	root.AddCommand(
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the bricks schema",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				factory, err := a.db()
				if err != nil {
					return err
				}
				if err := db.AutoMigrate(factory.DB().WithContext(cmd.Context())); err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), "bricks schema is up to date")
				return err
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Add vendors, tags and one brick of every kind",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				d, err := demo()
				if err != nil {
					return err
				}
				return d.AddData(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "query",
			Short: "Show availabilities and tagged bricks",
			Args:  cobra.NoArgs,
			RunE:  query,
		},
	)

	return &Program{root: root, app: a}
}
