// Package assets holds data files compiled into the binary.
package assets

import "embed"

// LeaguesPath is the baseline league catalog inside LeaguesFS.
const LeaguesPath = "leagues.yaml"

//go:embed leagues.yaml
var LeaguesFS embed.FS
