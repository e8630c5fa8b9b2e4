// internal/models/colors.go
package models

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Map labels sit on top of translucent fills, so the AA large-text threshold applies.
const wcagAAMinContrastRatio = 3.0
const darkTextColor = "#000000"
const lightTextColor = "#FFFFFF"

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

func IsHexColor(value string) bool {
	return hexColorRegex.MatchString(strings.TrimSpace(value))
}

// NormalizeHexColor trims and lowercases a hex color, or returns an error.
func NormalizeHexColor(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if !hexColorRegex.MatchString(trimmed) {
		return "", fmt.Errorf("%q must be a 6-digit hex color like #AABBCC", value)
	}
	return strings.ToLower(trimmed), nil
}

// LabelTextColor picks black or white text for a label drawn on background.
// Invalid colors fall back to dark text.
func LabelTextColor(background string) string {
	best, _, err := bestTextColor(background)
	if err != nil {
		return darkTextColor
	}
	return best
}

// HasReadableLabel reports whether either black or white text reaches the
// large-text contrast threshold on background.
func HasReadableLabel(background string) bool {
	_, ratio, err := bestTextColor(background)
	return err == nil && ratio >= wcagAAMinContrastRatio
}

func bestTextColor(background string) (string, float64, error) {
	bestRatio := 0.0
	bestText := ""
	for _, textColor := range []string{darkTextColor, lightTextColor} {
		ratio, err := contrastRatio(textColor, strings.TrimSpace(background))
		if err != nil {
			return "", 0, err
		}
		if ratio > bestRatio {
			bestRatio = ratio
			bestText = textColor
		}
	}
	return bestText, bestRatio, nil
}

func contrastRatio(textColor, backgroundColor string) (float64, error) {
	textL, err := relativeLuminance(textColor)
	if err != nil {
		return 0, err
	}
	backgroundL, err := relativeLuminance(backgroundColor)
	if err != nil {
		return 0, err
	}
	lightest := math.Max(textL, backgroundL)
	darkest := math.Min(textL, backgroundL)
	return (lightest + 0.05) / (darkest + 0.05), nil
}

func relativeLuminance(hexColor string) (float64, error) {
	r, g, b, err := parseHexColor(hexColor)
	if err != nil {
		return 0, err
	}
	return 0.2126*srgbToLinear(r) + 0.7152*srgbToLinear(g) + 0.0722*srgbToLinear(b), nil
}

func parseHexColor(hexColor string) (float64, float64, float64, error) {
	if !hexColorRegex.MatchString(hexColor) {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %s", hexColor)
	}

	value, err := strconv.ParseUint(strings.TrimPrefix(hexColor, "#"), 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color: %s", hexColor)
	}

	r := float64((value >> 16) & 0xFF)
	g := float64((value >> 8) & 0xFF)
	b := float64(value & 0xFF)

	return r / 255, g / 255, b / 255, nil
}

func srgbToLinear(value float64) float64 {
	if value <= 0.03928 {
		return value / 12.92
	}
	return math.Pow((value+0.055)/1.055, 2.4)
}
