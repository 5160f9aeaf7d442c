// Command catalog inspects map catalogs and loads them into postgres.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/database"
)

type options struct {
	file     string
	postgres bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect and import shapesweeper map catalogs",
		Long: `Inspect and import shapesweeper map catalogs.

Without --file or --postgres the bundled catalog is used.

Examples:
  catalog list
  catalog show heart --mode 1
  catalog validate -f maps.yaml
  catalog import -f mines.json --replace`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.file, "file", "f", "", "Catalog file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVar(&opts.postgres, "postgres", false, "Read the catalog from postgres (DATABASE_URL or POSTGRES_*)")

	rootCmd.AddCommand(
		newListCmd(opts),
		newShowCmd(opts),
		newValidateCmd(opts),
		newImportCmd(opts),
	)
	return rootCmd
}

// open returns the catalog selected by the flags and a func releasing it.
func (o *options) open(ctx context.Context) (catalog.Catalog, func(), error) {
	switch {
	case o.postgres:
		db, err := database.Connect(ctx)
		if err != nil {
			return nil, nil, err
		}
		return catalog.NewPostgres(db), db.Close, nil
	case o.file != "":
		s, err := catalog.Load(o.file)
		if err != nil {
			return nil, nil, fmt.Errorf("unable to load %s: %w", o.file, err)
		}
		return s, func() {}, nil
	default:
		return catalog.Default(), func() {}, nil
	}
}

func connect(ctx context.Context, migrate bool) (*pgxpool.Pool, error) {
	if migrate {
		db, migrator, err := database.ConnectAndMigrate(ctx)
		if err != nil {
			return nil, err
		}
		migrator.Close()
		return db, nil
	}
	return database.Connect(ctx)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
