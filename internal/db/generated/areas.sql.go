// source: areas.sql

package dbgen

import (
	"context"
	"database/sql"
)

const deleteAllAreas = `-- name: DeleteAllAreas :execrows
DELETE FROM areas
`

func (q *Queries) DeleteAllAreas(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAllAreas)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const insertArea = `-- name: InsertArea :exec
INSERT INTO areas (
    id, position, name, slug, bounds, center_lat, center_lng, color, original_league_id, is_custom
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertAreaParams struct {
	ID               string          `json:"id"`
	Position         int64           `json:"position"`
	Name             string          `json:"name"`
	Slug             string          `json:"slug"`
	Bounds           string          `json:"bounds"`
	CenterLat        sql.NullFloat64 `json:"center_lat"`
	CenterLng        sql.NullFloat64 `json:"center_lng"`
	Color            string          `json:"color"`
	OriginalLeagueID sql.NullString  `json:"original_league_id"`
	IsCustom         bool            `json:"is_custom"`
}

func (q *Queries) InsertArea(ctx context.Context, arg InsertAreaParams) error {
	_, err := q.db.ExecContext(ctx, insertArea,
		arg.ID,
		arg.Position,
		arg.Name,
		arg.Slug,
		arg.Bounds,
		arg.CenterLat,
		arg.CenterLng,
		arg.Color,
		arg.OriginalLeagueID,
		arg.IsCustom,
	)
	return err
}

const listAreas = `-- name: ListAreas :many
SELECT id, position, name, slug, bounds, center_lat, center_lng, color, original_league_id, is_custom, updated_at
FROM areas
ORDER BY position, id
`

func (q *Queries) ListAreas(ctx context.Context) ([]Area, error) {
	rows, err := q.db.QueryContext(ctx, listAreas)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Area
	for rows.Next() {
		var i Area
		if err := rows.Scan(
			&i.ID,
			&i.Position,
			&i.Name,
			&i.Slug,
			&i.Bounds,
			&i.CenterLat,
			&i.CenterLng,
			&i.Color,
			&i.OriginalLeagueID,
			&i.IsCustom,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
