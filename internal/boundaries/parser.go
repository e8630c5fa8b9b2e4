package boundaries

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/codr1/leaguemap/assets"
	"github.com/codr1/leaguemap/internal/geo"
)

type catalogFile struct {
	Leagues []struct {
		ID      string           `yaml:"id"`
		Name    string           `yaml:"name"`
		Slug    string           `yaml:"slug"`
		Color   string           `yaml:"color"`
		Polygon []geo.Coordinate `yaml:"polygon"`
	} `yaml:"leagues"`
}

// ParseCatalog decodes a YAML league catalog and validates every entry.
func ParseCatalog(r io.Reader) (*Catalog, error) {
	var file catalogFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&file); err != nil {
		return nil, fmt.Errorf("parse league catalog: %w", err)
	}
	if len(file.Leagues) == 0 {
		return nil, fmt.Errorf("league catalog has no leagues")
	}

	entries := make([]LeagueBoundary, 0, len(file.Leagues))
	for _, league := range file.Leagues {
		entries = append(entries, LeagueBoundary{
			LeagueID: league.ID,
			Name:     league.Name,
			Slug:     league.Slug,
			Color:    league.Color,
			Polygon:  geo.Polygon(league.Polygon),
		})
	}
	return NewCatalog(entries)
}

// LoadEmbeddedCatalog parses the catalog compiled into the binary.
func LoadEmbeddedCatalog() (*Catalog, error) {
	file, err := assets.LeaguesFS.Open(assets.LeaguesPath)
	if err != nil {
		return nil, fmt.Errorf("open embedded league catalog: %w", err)
	}
	defer file.Close()
	return ParseCatalog(file)
}

// LoadCatalogFile parses a catalog from disk. An empty path falls back to the
// embedded catalog.
func LoadCatalogFile(path string) (*Catalog, error) {
	if path == "" {
		return LoadEmbeddedCatalog()
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open league catalog: %w", err)
	}
	defer file.Close()
	return ParseCatalog(file)
}
