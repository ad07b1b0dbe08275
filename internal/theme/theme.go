// Package theme holds the light and dark colour palettes.
package theme

import "regexp"

// Palette maps semantic colour roles to hex values.
type Palette struct {
	Background    string
	Card          string
	Text          string
	SecondaryText string
	Primary       string
	Border        string
	Danger        string
	Success       string
	Warning       string
}

var (
	Light = Palette{
		Background:    "#F5F5F5",
		Card:          "#FFFFFF",
		Text:          "#333333",
		SecondaryText: "#757575",
		Primary:       "#2196F3",
		Border:        "#DDDDDD",
		Danger:        "#F44336",
		Success:       "#4CAF50",
		Warning:       "#FFC107",
	}
	Dark = Palette{
		Background:    "#121212",
		Card:          "#1E1E1E",
		Text:          "#FFFFFF",
		SecondaryText: "#AAAAAA",
		Primary:       "#2196F3",
		Border:        "#333333",
		Danger:        "#F44336",
		Success:       "#4CAF50",
		Warning:       "#FFC107",
	}
)

// For returns the palette matching the dark-mode flag.
func For(darkMode bool) Palette {
	if darkMode {
		return Dark
	}
	return Light
}

// Swatches are the colours offered when creating a category.
var Swatches = []string{
	"#FF5733", "#33FF57", "#3357FF", "#FF33F5", "#33FFF5",
	"#FFB533", "#FF3333", "#33FFB5", "#B533FF", "#33B5FF",
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ValidColor reports whether s is a #RGB or #RRGGBB colour.
func ValidColor(s string) bool {
	return hexColor.MatchString(s)
}
