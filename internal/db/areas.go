package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/codr1/leaguemap/internal/areas"
	dbgen "github.com/codr1/leaguemap/internal/db/generated"
	"github.com/codr1/leaguemap/internal/geo"
)

// ListAreas returns the persisted areas collection in saved order.
func (db *DB) ListAreas(ctx context.Context) ([]areas.PersistedArea, error) {
	rows, err := db.Queries.ListAreas(ctx)
	if err != nil {
		return nil, fmt.Errorf("list areas: %w", err)
	}

	records := make([]areas.PersistedArea, 0, len(rows))
	for _, row := range rows {
		record, err := persistedFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("area %s: %w", row.ID, err)
		}
		records = append(records, record)
	}
	return records, nil
}

// ReplaceAreas overwrites the whole areas collection in one transaction.
func (db *DB) ReplaceAreas(ctx context.Context, records []areas.PersistedArea) error {
	return db.RunInTx(ctx, func(txdb *DB) error {
		if _, err := txdb.Queries.DeleteAllAreas(ctx); err != nil {
			return fmt.Errorf("clear areas: %w", err)
		}
		for i, record := range records {
			params, err := insertParams(i, record)
			if err != nil {
				return fmt.Errorf("area %s: %w", record.ID, err)
			}
			if err := txdb.Queries.InsertArea(ctx, params); err != nil {
				return fmt.Errorf("insert area %s: %w", record.ID, err)
			}
		}
		return nil
	})
}

func persistedFromRow(row dbgen.Area) (areas.PersistedArea, error) {
	var bounds geo.Polygon
	if err := json.Unmarshal([]byte(row.Bounds), &bounds); err != nil {
		return areas.PersistedArea{}, fmt.Errorf("decode bounds: %w", err)
	}

	record := areas.PersistedArea{
		ID:       row.ID,
		Name:     row.Name,
		Slug:     row.Slug,
		Bounds:   bounds,
		Color:    row.Color,
		IsCustom: row.IsCustom,
	}
	if row.CenterLat.Valid && row.CenterLng.Valid {
		record.Center = &geo.Coordinate{Lat: row.CenterLat.Float64, Lng: row.CenterLng.Float64}
	}
	if row.OriginalLeagueID.Valid {
		record.OriginalLeagueID = row.OriginalLeagueID.String
	}
	return record, nil
}

func insertParams(position int, record areas.PersistedArea) (dbgen.InsertAreaParams, error) {
	bounds, err := json.Marshal(record.Bounds)
	if err != nil {
		return dbgen.InsertAreaParams{}, fmt.Errorf("encode bounds: %w", err)
	}

	params := dbgen.InsertAreaParams{
		ID:       record.ID,
		Position: int64(position),
		Name:     record.Name,
		Slug:     record.Slug,
		Bounds:   string(bounds),
		Color:    record.Color,
		IsCustom: record.OriginalLeagueID == "",
	}
	if record.Center != nil {
		params.CenterLat = sql.NullFloat64{Float64: record.Center.Lat, Valid: true}
		params.CenterLng = sql.NullFloat64{Float64: record.Center.Lng, Valid: true}
	}
	if record.OriginalLeagueID != "" {
		params.OriginalLeagueID = sql.NullString{String: record.OriginalLeagueID, Valid: true}
	}
	return params, nil
}
