package dbgen

import (
	"database/sql"
	"time"
)

type Area struct {
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
	UpdatedAt        time.Time       `json:"updated_at"`
}

type Club struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Latitude  sql.NullFloat64 `json:"latitude"`
	Longitude sql.NullFloat64 `json:"longitude"`
	LeagueID  sql.NullString  `json:"league_id"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
