package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/codr1/leaguemap/internal/assignment"
	dbgen "github.com/codr1/leaguemap/internal/db/generated"
	"github.com/codr1/leaguemap/internal/geo"
)

var ErrClubNotFound = errors.New("club not found")

// ListClubs returns every club as the read-only view used for assignment.
func (db *DB) ListClubs(ctx context.Context) ([]assignment.Club, error) {
	rows, err := db.Queries.ListClubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	clubs := make([]assignment.Club, len(rows))
	for i, row := range rows {
		clubs[i] = clubFromRow(row)
	}
	return clubs, nil
}

// ListClubMarkers returns every club with its stored league id.
func (db *DB) ListClubMarkers(ctx context.Context) ([]assignment.ClubMarker, error) {
	rows, err := db.Queries.ListClubs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clubs: %w", err)
	}
	markers := make([]assignment.ClubMarker, len(rows))
	for i, row := range rows {
		club := clubFromRow(row)
		markers[i] = assignment.ClubMarker{ID: club.ID, Name: club.Name, Coordinate: club.Coordinate, LeagueID: row.LeagueID.String}
	}
	return markers, nil
}

func (db *DB) GetClub(ctx context.Context, id int64) (assignment.ClubMarker, error) {
	row, err := db.Queries.GetClub(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return assignment.ClubMarker{}, fmt.Errorf("%w: %d", ErrClubNotFound, id)
	}
	if err != nil {
		return assignment.ClubMarker{}, fmt.Errorf("get club: %w", err)
	}
	club := clubFromRow(row)
	return assignment.ClubMarker{ID: club.ID, Name: club.Name, Coordinate: club.Coordinate, LeagueID: row.LeagueID.String}, nil
}

// CreateClub stores a club. A nil coordinate stores an ungeocoded club.
func (db *DB) CreateClub(ctx context.Context, name string, coordinate *geo.Coordinate, leagueID string) (assignment.Club, error) {
	params := dbgen.CreateClubParams{
		Name:     name,
		LeagueID: nullString(leagueID),
	}
	if coordinate != nil {
		params.Latitude = sql.NullFloat64{Float64: coordinate.Lat, Valid: true}
		params.Longitude = sql.NullFloat64{Float64: coordinate.Lng, Valid: true}
	}
	id, err := db.Queries.CreateClub(ctx, params)
	if err != nil {
		return assignment.Club{}, fmt.Errorf("create club: %w", err)
	}
	return assignment.Club{ID: id, Name: name, Coordinate: coordinate}, nil
}

// ApplyChanges stores the new league of every changed club in one
// transaction. An empty To clears the assignment.
func (db *DB) ApplyChanges(ctx context.Context, changes []assignment.Change) error {
	if len(changes) == 0 {
		return nil
	}
	return db.RunInTx(ctx, func(txdb *DB) error {
		for _, change := range changes {
			n, err := txdb.Queries.UpdateClubLeague(ctx, dbgen.UpdateClubLeagueParams{
				LeagueID: nullString(change.To),
				ID:       change.ClubID,
			})
			if err != nil {
				return fmt.Errorf("update club %d: %w", change.ClubID, err)
			}
			if n == 0 {
				return fmt.Errorf("%w: %d", ErrClubNotFound, change.ClubID)
			}
		}
		return nil
	})
}

func clubFromRow(row dbgen.Club) assignment.Club {
	club := assignment.Club{ID: row.ID, Name: row.Name}
	if row.Latitude.Valid && row.Longitude.Valid {
		club.Coordinate = &geo.Coordinate{Lat: row.Latitude.Float64, Lng: row.Longitude.Float64}
	}
	return club
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
