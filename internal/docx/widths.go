package docx

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed imagewidths.yaml
var imageWidthsYAML []byte

// imageWidths maps recognized image token names to target widths in inches.
// The table is fixed at build time; anything outside it is a text token.
var imageWidths = mustParseImageWidths()

func mustParseImageWidths() map[string]float64 {
	var widths map[string]float64
	if err := yaml.Unmarshal(imageWidthsYAML, &widths); err != nil {
		panic(fmt.Sprintf("parse image widths: %v", err))
	}

	return widths
}

// IsImageToken reports whether name is one of the recognized image
// placeholder tokens.
func IsImageToken(name string) bool {
	_, ok := imageWidths[name]

	return ok
}

// ImageTokens returns the recognized image token names, sorted.
func ImageTokens() []string {
	names := make([]string, 0, len(imageWidths))

	for name := range imageWidths {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
