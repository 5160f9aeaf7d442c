package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/vancomm/shapesweeper/internal/catalog"
	"github.com/vancomm/shapesweeper/internal/config"
	"github.com/vancomm/shapesweeper/internal/database"
)

// openCatalog picks the catalog source: postgres, a catalog file or the
// bundled maps, in that order, optionally behind a redis cache.
func (a *App) openCatalog(ctx context.Context, cfg *config.Catalog) error {
	var c catalog.Catalog

	switch {
	case cfg.Postgres:
		if config.MigrateOnStart() {
			url, err := config.DbURL()
			if err != nil {
				return err
			}
			migrator, err := database.Migrate(url)
			if err != nil {
				return err
			}
			migrator.Close()
		}
		db, err := database.Connect(ctx)
		if err != nil {
			return err
		}
		a.db = db
		c = catalog.NewPostgres(db)
		a.logger.Info("catalog in postgres")

	case cfg.File != "":
		static, err := catalog.Load(cfg.File)
		if err != nil {
			return err
		}
		if err := a.reportProblems(static); err != nil {
			return err
		}
		c = static
		a.logger.Info("catalog loaded", slog.String("file", cfg.File))

	default:
		c = catalog.Default()
		a.logger.Info("using bundled catalog")
	}

	if cfg.Redis != nil {
		a.rdb = redis.NewClient(cfg.Redis)
		if err := a.rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("unable to reach redis: %w", err)
		}
		c = catalog.NewCached(a.logger, c, catalog.NewRedisCache(a.rdb), cfg.CacheTTL)
		a.logger.Info("catalog cached in redis", slog.Duration("ttl", cfg.CacheTTL))
	}

	a.catalog = c
	return nil
}

// reportProblems logs what is wrong with a catalog file. Broken maps are
// still served; their rounds stay idle.
func (a *App) reportProblems(s *catalog.Static) error {
	maps, err := s.Maps(context.Background())
	if err != nil {
		return err
	}
	for _, p := range catalog.Validate(maps) {
		a.logger.Warn("catalog problem", slog.String("problem", p.Error()))
	}
	return nil
}
