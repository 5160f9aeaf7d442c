package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vancomm/shapesweeper/internal/repository"
)

// Postgres is a catalog stored in the map and map_mode tables.
type Postgres struct {
	db   *pgxpool.Pool
	repo *repository.Queries
}

func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db, repo: repository.New(db)}
}

func (p *Postgres) Maps(ctx context.Context) ([]Map, error) {
	rows, err := p.repo.ListMaps(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list maps: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrEmptyCatalog
	}
	modes, err := p.repo.ListAllModes(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list modes: %w", err)
	}

	byMap := make(map[int64][]Mode, len(rows))
	for _, m := range modes {
		byMap[m.MapID] = append(byMap[m.MapID], Mode{Index: int(m.Mode), Grid: m.Grid})
	}
	maps := make([]Map, 0, len(rows))
	for _, row := range rows {
		maps = append(maps, newMap(row, byMap[row.MapID]))
	}
	return maps, nil
}

func (p *Postgres) Map(ctx context.Context, name string) (*Map, error) {
	row, err := p.repo.GetMapByName(ctx, name)
	if errors.Is(err, pgx.ErrNoRows) {
		n, cerr := p.repo.CountMaps(ctx)
		if cerr == nil && n == 0 {
			return nil, ErrEmptyCatalog
		}
		return nil, fmt.Errorf("%w: %s", ErrMapNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("unable to fetch map: %w", err)
	}
	modeRows, err := p.repo.ListModes(ctx, row.MapID)
	if err != nil {
		return nil, fmt.Errorf("unable to list modes: %w", err)
	}
	modes := make([]Mode, 0, len(modeRows))
	for _, m := range modeRows {
		modes = append(modes, Mode{Index: int(m.Mode), Grid: m.Grid})
	}
	m := newMap(*row, modes)
	return &m, nil
}

func newMap(row repository.MapRow, modes []Mode) Map {
	m := Map{Name: row.Name, Modes: modes}
	if row.Img != nil {
		m.Img = *row.Img
	}
	return m
}

// Import stores maps in one transaction. With replace set, existing maps of
// the same name are overwritten; otherwise the import fails with
// [repository.ErrMapExists].
func (p *Postgres) Import(ctx context.Context, maps []Map, replace bool) error {
	return pgx.BeginFunc(ctx, p.db, func(tx pgx.Tx) error {
		repo := p.repo.WithTx(tx)
		for _, m := range maps {
			if replace {
				if _, err := repo.DeleteMap(ctx, m.Name); err != nil {
					return fmt.Errorf("unable to delete map %q: %w", m.Name, err)
				}
			}
			var img *string
			if m.Img != "" {
				img = &m.Img
			}
			row, err := repo.CreateMap(ctx, repository.CreateMapParams{
				Name: m.Name, Img: img,
			})
			if err != nil {
				return err
			}
			// modes are stored by position
			for i, mode := range m.Modes {
				err := repo.CreateMode(ctx, repository.CreateModeParams{
					MapID: row.MapID,
					Mode:  int32(i),
					Grid:  mode.Grid,
				})
				if err != nil {
					return fmt.Errorf("unable to insert mode %d of %q: %w", i, m.Name, err)
				}
			}
		}
		return nil
	})
}
