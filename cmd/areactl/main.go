// cmd/areactl/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/leaguemap/internal/areas"
	"github.com/codr1/leaguemap/internal/assignment"
	"github.com/codr1/leaguemap/internal/boundaries"
	"github.com/codr1/leaguemap/internal/config"
	"github.com/codr1/leaguemap/internal/db"
	"github.com/codr1/leaguemap/internal/geo"
)

const commandTimeout = 30 * time.Second

const usage = `usage: areactl [-config path] <command> [args]

commands:
  migrate up|down|version   manage the database schema
  export [file]             write saved areas as JSON (stdout by default)
  import <file>             replace saved areas with a JSON export
  resolve <lat> <lng>       print the league that owns a point
`

func main() {
	configPath := flag.String("config", "config/app.yaml", "path to the YAML config file")
	migrationsDir := flag.String("migrations", "", "migrations directory (defaults to the embedded set)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	switch args[0] {
	case "migrate":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = runMigrate(cfg.Database.Filename, *migrationsDir, args[1])
	case "export":
		out := io.Writer(os.Stdout)
		if len(args) > 1 {
			f, createErr := os.Create(args[1])
			if createErr != nil {
				log.Fatal().Err(createErr).Msg("Failed to create export file")
			}
			defer f.Close()
			out = f
		}
		err = withDatabase(cfg, func(database *db.DB) error { return exportAreas(ctx, database, out) })
	case "import":
		if len(args) != 2 {
			flag.Usage()
			os.Exit(2)
		}
		err = withDatabase(cfg, func(database *db.DB) error { return importAreas(ctx, cfg, database, args[1]) })
	case "resolve":
		if len(args) != 3 {
			flag.Usage()
			os.Exit(2)
		}
		err = withDatabase(cfg, func(database *db.DB) error { return resolvePoint(ctx, cfg, database, args[1], args[2]) })
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Str("command", args[0]).Msg("Command failed")
	}
}

func withDatabase(cfg *config.Config, fn func(*db.DB) error) error {
	database, err := db.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer database.Close()
	return fn(database)
}

func loadCatalog(cfg *config.Config) (*boundaries.Catalog, error) {
	if cfg.Leagues.CatalogFile != "" {
		return boundaries.LoadCatalogFile(cfg.Leagues.CatalogFile)
	}
	return boundaries.LoadEmbeddedCatalog()
}

func exportAreas(ctx context.Context, database *db.DB, out io.Writer) error {
	records, err := database.ListAreas(ctx)
	if err != nil {
		return err
	}
	if records == nil {
		records = []areas.PersistedArea{}
	}
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(records); err != nil {
		return fmt.Errorf("encode areas: %w", err)
	}
	log.Info().Int("areas", len(records)).Msg("Areas exported")
	return nil
}

// importAreas normalizes the file through an Area Store before writing, so
// the saved collection is exactly what the editor would persist.
func importAreas(ctx context.Context, cfg *config.Config, database *db.DB, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read import file: %w", err)
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	store := areas.NewStore(catalog, areas.Options{Palette: cfg.Editor.Palette})
	report, err := store.LoadSnapshotJSON(data)
	if err != nil {
		return err
	}
	for _, skipped := range report.Skipped {
		log.Warn().Str("id", skipped.ID).Str("reason", skipped.Reason).Msg("Area not imported")
	}

	if err := database.ReplaceAreas(ctx, store.SaveSnapshot()); err != nil {
		return err
	}
	log.Info().
		Int("custom_areas", report.CustomAreas).
		Int("modified_leagues", report.ModifiedLeagues).
		Int("skipped", len(report.Skipped)).
		Msg("Areas imported")
	return nil
}

func resolvePoint(ctx context.Context, cfg *config.Config, database *db.DB, rawLat, rawLng string) error {
	point, err := parsePoint(rawLat, rawLng)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}
	records, err := database.ListAreas(ctx)
	if err != nil {
		return err
	}
	store := areas.NewStore(catalog, areas.Options{Palette: cfg.Editor.Palette})
	store.LoadSnapshot(records)

	leagueID, tier := assignment.NewResolver(store, catalog).ResolveWithTier(point)
	if tier == assignment.TierUnassigned {
		fmt.Println("unassigned")
		return nil
	}
	boundary, _ := catalog.GetBoundary(leagueID)
	fmt.Printf("%s\t%s\t%s\n", leagueID, boundary.Name, tier)
	return nil
}

func parsePoint(rawLat, rawLng string) (geo.Coordinate, error) {
	var point geo.Coordinate
	var err error
	if point.Lat, err = strconv.ParseFloat(strings.TrimSpace(rawLat), 64); err != nil {
		return point, fmt.Errorf("invalid latitude %q", rawLat)
	}
	if point.Lng, err = strconv.ParseFloat(strings.TrimSpace(rawLng), 64); err != nil {
		return point, fmt.Errorf("invalid longitude %q", rawLng)
	}
	if !point.Valid() {
		return point, fmt.Errorf("coordinate %v is out of range", point)
	}
	return point, nil
}
