package track

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefinitionPoint is one authored control point with its road width.
type DefinitionPoint struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Z     float64 `yaml:"z"`
	Width float64 `yaml:"width"`
}

// DefinitionZone tags a parametric interval in authoring data.
type DefinitionZone struct {
	Start float64 `yaml:"start"`
	End   float64 `yaml:"end"`
	Type  string  `yaml:"type"` // drift|item
}

// Definition is the authoring-side track description. The simulation never
// mutates it.
type Definition struct {
	Name   string            `yaml:"name"`
	StartT float64           `yaml:"startT"`
	Points []DefinitionPoint `yaml:"points"`
	Zones  []DefinitionZone  `yaml:"zones"`
}

// LoadDefinition reads a track definition from a yaml file.
func LoadDefinition(path string) (Definition, error) {
	var def Definition
	raw, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("read track definition: %w", err)
	}
	if err := yaml.Unmarshal(raw, &def); err != nil {
		return def, fmt.Errorf("parse track definition %s: %w", path, err)
	}
	if def.Name == "" {
		def.Name = path
	}
	return def, nil
}

func parseZoneType(s string) (ZoneType, error) {
	switch s {
	case "drift":
		return ZoneDrift, nil
	case "item":
		return ZoneItem, nil
	default:
		return ZoneDrift, fmt.Errorf("unknown zone type %q", s)
	}
}

// DefaultDefinition is the built-in circuit used when no track file is given:
// a rounded rectangle with two sweeping corners, two drift zones on the
// corner runs and two item zones on the straights.
func DefaultDefinition() Definition {
	return Definition{
		Name:   "Meadow Circuit",
		StartT: 0.02,
		Points: []DefinitionPoint{
			{X: 0, Y: 0, Width: 12},
			{X: 60, Y: -4, Width: 12},
			{X: 120, Y: 0, Width: 11},
			{X: 160, Y: 25, Width: 9},
			{X: 175, Y: 60, Width: 9},
			{X: 160, Y: 95, Width: 10},
			{X: 120, Y: 115, Width: 11},
			{X: 60, Y: 122, Width: 12},
			{X: 0, Y: 115, Width: 11},
			{X: -40, Y: 90, Width: 9},
			{X: -52, Y: 55, Width: 9},
			{X: -38, Y: 22, Width: 10},
		},
		Zones: []DefinitionZone{
			{Start: 0.20, End: 0.38, Type: "drift"},
			{Start: 0.70, End: 0.90, Type: "drift"},
			{Start: 0.08, End: 0.14, Type: "item"},
			{Start: 0.50, End: 0.58, Type: "item"},
		},
	}
}
