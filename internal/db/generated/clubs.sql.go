// source: clubs.sql

package dbgen

import (
	"context"
	"database/sql"
)

const createClub = `-- name: CreateClub :one
INSERT INTO clubs (name, latitude, longitude, league_id)
VALUES (?, ?, ?, ?)
RETURNING id
`

type CreateClubParams struct {
	Name      string          `json:"name"`
	Latitude  sql.NullFloat64 `json:"latitude"`
	Longitude sql.NullFloat64 `json:"longitude"`
	LeagueID  sql.NullString  `json:"league_id"`
}

func (q *Queries) CreateClub(ctx context.Context, arg CreateClubParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createClub,
		arg.Name,
		arg.Latitude,
		arg.Longitude,
		arg.LeagueID,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getClub = `-- name: GetClub :one
SELECT id, name, latitude, longitude, league_id, created_at, updated_at
FROM clubs
WHERE id = ?
`

func (q *Queries) GetClub(ctx context.Context, id int64) (Club, error) {
	row := q.db.QueryRowContext(ctx, getClub, id)
	var i Club
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Latitude,
		&i.Longitude,
		&i.LeagueID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listClubs = `-- name: ListClubs :many
SELECT id, name, latitude, longitude, league_id, created_at, updated_at
FROM clubs
ORDER BY id
`

func (q *Queries) ListClubs(ctx context.Context) ([]Club, error) {
	rows, err := q.db.QueryContext(ctx, listClubs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Club
	for rows.Next() {
		var i Club
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Latitude,
			&i.Longitude,
			&i.LeagueID,
			&i.CreatedAt,
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

const updateClubLeague = `-- name: UpdateClubLeague :execrows
UPDATE clubs
SET league_id = ?, updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

type UpdateClubLeagueParams struct {
	LeagueID sql.NullString `json:"league_id"`
	ID       int64          `json:"id"`
}

func (q *Queries) UpdateClubLeague(ctx context.Context, arg UpdateClubLeagueParams) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateClubLeague, arg.LeagueID, arg.ID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
