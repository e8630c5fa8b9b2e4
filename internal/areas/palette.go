package areas

// DefaultPalette is cycled through for new custom areas.
var DefaultPalette = []string{
	"#3b82f6",
	"#ef4444",
	"#10b981",
	"#f59e0b",
	"#8b5cf6",
	"#ec4899",
	"#14b8a6",
	"#f97316",
}

func paletteColor(palette []string, index int) string {
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	if index < 0 {
		index = 0
	}
	return palette[index%len(palette)]
}
