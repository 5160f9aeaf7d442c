package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrMapExists = errors.New("map already exists")

type MapRow struct {
	MapID     int64     `db:"map_id"`
	Name      string    `db:"name"`
	Img       *string   `db:"img"`
	CreatedAt time.Time `db:"created_at"`
}

type ModeRow struct {
	MapID int64   `db:"map_id"`
	Mode  int32   `db:"mode"`
	Grid  [][]int `db:"grid"`
}

func (q *Queries) ListMaps(ctx context.Context) ([]MapRow, error) {
	rows, err := q.db.Query(ctx,
		"SELECT map_id, name, img, created_at FROM map ORDER BY map_id",
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[MapRow])
}

func (q *Queries) CountMaps(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, "SELECT count(*) FROM map").Scan(&n)
	return n, err
}

// GetMapByName matches name case-insensitively.
func (q *Queries) GetMapByName(ctx context.Context, name string) (*MapRow, error) {
	rows, _ := q.db.Query(ctx,
		"SELECT map_id, name, img, created_at FROM map WHERE name_lower = lower(@name)",
		pgx.NamedArgs{"name": name},
	)
	return pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[MapRow])
}

func (q *Queries) ListModes(ctx context.Context, mapID int64) ([]ModeRow, error) {
	rows, err := q.db.Query(ctx,
		"SELECT map_id, mode, grid FROM map_mode WHERE map_id = $1 ORDER BY mode",
		mapID,
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[ModeRow])
}

func (q *Queries) ListAllModes(ctx context.Context) ([]ModeRow, error) {
	rows, err := q.db.Query(ctx,
		"SELECT map_id, mode, grid FROM map_mode ORDER BY map_id, mode",
	)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[ModeRow])
}

type CreateMapParams struct {
	Name string
	Img  *string
}

// CreateMap fails with [ErrMapExists] if a map with the same name, in any
// case, is already stored.
func (q *Queries) CreateMap(ctx context.Context, params CreateMapParams) (*MapRow, error) {
	rows, _ := q.db.Query(ctx,
		`INSERT INTO map (name, name_lower, img)
		VALUES (@name, lower(@name), @img)
		RETURNING map_id, name, img, created_at;`,
		pgx.NamedArgs{"name": params.Name, "img": params.Img},
	)
	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[MapRow])
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return nil, fmt.Errorf("%w: %s", ErrMapExists, params.Name)
	}
	return row, err
}

type CreateModeParams struct {
	MapID int64
	Mode  int32
	Grid  [][]int
}

func (q *Queries) CreateMode(ctx context.Context, params CreateModeParams) error {
	_, err := q.db.Exec(ctx,
		"INSERT INTO map_mode (map_id, mode, grid) VALUES (@map_id, @mode, @grid)",
		pgx.NamedArgs{
			"map_id": params.MapID,
			"mode":   params.Mode,
			"grid":   params.Grid,
		},
	)
	return err
}

// DeleteMap removes a map and its modes, reporting whether it existed.
func (q *Queries) DeleteMap(ctx context.Context, name string) (bool, error) {
	tag, err := q.db.Exec(ctx,
		"DELETE FROM map WHERE name_lower = lower($1)", name,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
