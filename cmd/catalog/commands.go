package main

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/mines"
)

var errInvalidCatalog = errors.New("catalog has problems")

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List maps and the size of each mode",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			maps, err := c.Maps(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tMODE\tSIZE\tCELLS\tMINES")
			for _, m := range maps {
				if len(m.Modes) == 0 {
					fmt.Fprintf(w, "%s\t-\t-\t0\t0\n", m.Name)
				}
				for i, mode := range m.Modes {
					l := mode.Layout()
					fmt.Fprintf(w, "%s\t%d\t%dx%d\t%d\t%d\n",
						m.Name, i, l.Rows, l.Cols, l.Size(), mines.MineCount(l.Size()))
				}
			}
			return w.Flush()
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	var mode int

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Draw one mode of a map",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			modes, err := catalog.Modes(cmd.Context(), c, args[0])
			if err != nil {
				return err
			}
			if mode < 0 || mode >= len(modes) {
				return fmt.Errorf("mode %d out of range, %s has %d", mode, args[0], len(modes))
			}

			l := modes[mode].Layout()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s mode %d: %dx%d, %d cells, %d mines\n",
				args[0], mode, l.Rows, l.Cols, l.Size(), mines.MineCount(l.Size()))
			fmt.Fprint(out, l.String())
			return nil
		},
	}
	cmd.Flags().IntVarP(&mode, "mode", "m", 0, "Mode index")
	return cmd
}

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Report maps that cannot be played",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, release, err := opts.open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			maps, err := c.Maps(cmd.Context())
			if err != nil {
				return err
			}
			problems := catalog.Validate(maps)
			for _, p := range problems {
				fmt.Fprintln(cmd.OutOrStdout(), p.Error())
			}
			if len(problems) > 0 {
				return fmt.Errorf("%w: %d found", errInvalidCatalog, len(problems))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d maps ok\n", len(maps))
			return nil
		},
	}
}

func newImportCmd(opts *options) *cobra.Command {
	var (
		replace bool
		migrate bool
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Store a catalog file in postgres",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.file == "" {
				return errors.New("import needs --file")
			}
			s, err := catalog.Load(opts.file)
			if err != nil {
				return err
			}
			maps, err := s.Maps(cmd.Context())
			if err != nil {
				return err
			}
			if problems := catalog.Validate(maps); len(problems) > 0 && !force {
				for _, p := range problems {
					fmt.Fprintln(cmd.ErrOrStderr(), p.Error())
				}
				return fmt.Errorf("%w: use --force to import anyway", errInvalidCatalog)
			}

			db, err := connect(cmd.Context(), migrate)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := catalog.NewPostgres(db).Import(cmd.Context(), maps, replace); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d maps\n", len(maps))
			return nil
		},
	}
	cmd.Flags().BoolVar(&replace, "replace", false, "Overwrite maps that already exist")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "Apply migrations first")
	cmd.Flags().BoolVar(&force, "force", false, "Import even if validation fails")
	return cmd
}
