// Package styles provides named, reusable style packs: YAML bundles of a
// color table plus a layout rule set, loaded from a base directory and
// cached. A style pack is a convenience layer over the raw JSON ruleset
// files; it converts into the same in-memory types the dispatcher
// consumes.
package styles

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dshills/wfctile/pkg/config"
	"github.com/dshills/wfctile/pkg/distribution"
	"github.com/dshills/wfctile/pkg/rules"
)

// StylePack bundles everything needed to generate a themed map: the
// label colors and the transition rules between labels.
//
// Style packs are loaded from YAML files and give operators a curated
// library of named looks ("terrain", "cavern", "archipelago") without
// hand-editing the combined rules.json.
type StylePack struct {
	Name        string       `yaml:"name" json:"name"`
	Description string       `yaml:"description" json:"description"`
	Colors      []ColorRule  `yaml:"colors" json:"colors"`
	Rules       []LayoutRule `yaml:"rules" json:"rules"`
	MapSize     int          `yaml:"map_size" json:"map_size"`
	Adjacency   string       `yaml:"adjacency" json:"adjacency"`
}

// ColorRule assigns an RGB color to one label.
type ColorRule struct {
	Label int `yaml:"label" json:"label"`
	R     int `yaml:"r" json:"r"`
	G     int `yaml:"g" json:"g"`
	B     int `yaml:"b" json:"b"`
}

// LayoutRule is one label's transition rule. Exactly one of Undirected
// or Directed must be set.
type LayoutRule struct {
	Label      int              `yaml:"label" json:"label"`
	Undirected map[int]float64  `yaml:"undirected,omitempty" json:"undirected,omitempty"`
	Directed   *DirectedWeights `yaml:"directed,omitempty" json:"directed,omitempty"`
}

// DirectedWeights holds per-cardinal-direction transition weights.
type DirectedWeights struct {
	North map[int]float64 `yaml:"north" json:"north"`
	East  map[int]float64 `yaml:"east" json:"east"`
	South map[int]float64 `yaml:"south" json:"south"`
	West  map[int]float64 `yaml:"west" json:"west"`
}

// LoadStyleFromFile loads a style pack from a YAML file.
// Returns error if file cannot be read or YAML is invalid.
func LoadStyleFromFile(path string) (*StylePack, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading style file: %w", err)
	}

	var pack StylePack
	if err := yaml.Unmarshal(data, &pack); err != nil {
		return nil, fmt.Errorf("parsing style YAML: %w", err)
	}

	if err := ValidateStylePack(&pack); err != nil {
		return nil, err
	}

	return &pack, nil
}

// LoadStyleFromDirectory loads a style pack from a directory containing
// style.yml. Returns error if directory doesn't exist or style.yml is
// invalid.
func LoadStyleFromDirectory(dir string) (*StylePack, error) {
	// Try style.yml first, then style.yaml
	stylePath := filepath.Join(dir, "style.yml")
	if _, err := os.Stat(stylePath); os.IsNotExist(err) {
		stylePath = filepath.Join(dir, "style.yaml")
		if _, err := os.Stat(stylePath); os.IsNotExist(err) {
			return nil, fmt.Errorf("style file not found in directory: %s", dir)
		}
	}

	return LoadStyleFromFile(stylePath)
}

// ValidateStylePack checks if a style pack has all required fields and
// valid data. Returns error describing validation failures.
func ValidateStylePack(pack *StylePack) error {
	if pack.Name == "" {
		return errors.New("name is required")
	}

	if len(pack.Colors) == 0 {
		return errors.New("at least one color is required")
	}

	seen := make(map[int]bool, len(pack.Colors))
	for _, c := range pack.Colors {
		if seen[c.Label] {
			return fmt.Errorf("duplicate color for label %d", c.Label)
		}
		seen[c.Label] = true
		for _, v := range []int{c.R, c.G, c.B} {
			if v < 0 || v > 255 {
				return fmt.Errorf("label %d: color channel %d out of range [0,255]", c.Label, v)
			}
		}
	}

	for _, r := range pack.Rules {
		if (r.Undirected == nil) == (r.Directed == nil) {
			return fmt.Errorf("label %d: rule must set exactly one of undirected or directed", r.Label)
		}
		if r.Undirected != nil {
			if err := validateWeights(r.Undirected); err != nil {
				return fmt.Errorf("label %d: %w", r.Label, err)
			}
			continue
		}
		for dir, wm := range map[string]map[int]float64{
			"north": r.Directed.North,
			"east":  r.Directed.East,
			"south": r.Directed.South,
			"west":  r.Directed.West,
		} {
			if err := validateWeights(wm); err != nil {
				return fmt.Errorf("label %d: %s: %w", r.Label, dir, err)
			}
		}
	}

	if pack.MapSize < 0 {
		return fmt.Errorf("map_size must be non-negative, got %d", pack.MapSize)
	}
	switch pack.Adjacency {
	case "", "cardinal", "octile":
	default:
		return fmt.Errorf("adjacency must be %q, %q, or omitted, got %q", "cardinal", "octile", pack.Adjacency)
	}

	return nil
}

func validateWeights(wm map[int]float64) error {
	if len(wm) == 0 {
		return errors.New("weight map must not be empty")
	}
	for label, w := range wm {
		if w < 0 {
			return fmt.Errorf("weight for label %d must be non-negative, got %g", label, w)
		}
	}
	return nil
}

// ColorTable converts the pack's colors into the dispatcher's table
// type.
func (pack *StylePack) ColorTable() config.ColorTable {
	ct := make(config.ColorTable, len(pack.Colors))
	for _, c := range pack.Colors {
		ct[c.Label] = config.RGB{R: c.R, G: c.G, B: c.B}
	}
	return ct
}

// RuleSet converts the pack's rules into the engine's rule set.
func (pack *StylePack) RuleSet() (rules.RuleSet, error) {
	rs := make(rules.RuleSet, len(pack.Rules))
	for _, r := range pack.Rules {
		if r.Undirected != nil {
			d, err := weightsToDistribution(r.Undirected)
			if err != nil {
				return nil, fmt.Errorf("styles: label %d: %w", r.Label, err)
			}
			rs[r.Label] = rules.Undirected{Distribution: d}
			continue
		}
		north, err := weightsToDistribution(r.Directed.North)
		if err != nil {
			return nil, fmt.Errorf("styles: label %d: north: %w", r.Label, err)
		}
		east, err := weightsToDistribution(r.Directed.East)
		if err != nil {
			return nil, fmt.Errorf("styles: label %d: east: %w", r.Label, err)
		}
		south, err := weightsToDistribution(r.Directed.South)
		if err != nil {
			return nil, fmt.Errorf("styles: label %d: south: %w", r.Label, err)
		}
		west, err := weightsToDistribution(r.Directed.West)
		if err != nil {
			return nil, fmt.Errorf("styles: label %d: west: %w", r.Label, err)
		}
		rs[r.Label] = rules.Directed{North: north, East: east, South: south, West: west}
	}
	return rs, nil
}

// ToRuleSetFile converts the pack into the combined-ruleset file format
// the dispatcher loads, so a named style can be dispatched directly or
// persisted as an editable rules.json.
func (pack *StylePack) ToRuleSetFile() (config.RuleSetFile, error) {
	rs, err := pack.RuleSet()
	if err != nil {
		return config.RuleSetFile{}, err
	}
	f := config.RuleSetFile{
		LayoutRules:   config.LayoutRulesFromRuleSet(rs),
		ColoringRules: pack.ColorTable(),
		MapSize:       pack.MapSize,
		Adjacency:     pack.Adjacency,
		Comments:      pack.Description,
	}
	if f.MapSize == 0 {
		def := config.DefaultRuleSetFile()
		f.MapSize = def.MapSize
	}
	if err := f.Validate(); err != nil {
		return config.RuleSetFile{}, fmt.Errorf("styles: pack %s: %w", pack.Name, err)
	}
	return f, nil
}

func weightsToDistribution(wm map[int]float64) (distribution.Distribution, error) {
	weights := make(map[distribution.Label]float64, len(wm))
	for label, w := range wm {
		weights[label] = w
	}
	return distribution.ConstructFromWeights(weights)
}
