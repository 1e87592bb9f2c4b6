// Package config loads and validates the persisted configuration formats
// described in the specification's external interfaces: a color table, a
// layout rule set, and the combined rules.json that bundles both with a
// map size and adjacency mode.
package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dshills/wfctile/pkg/distribution"
	"github.com/dshills/wfctile/pkg/position"
	"github.com/dshills/wfctile/pkg/rules"
)

// defaultMapSize is used when a combined ruleset omits map_size.
const defaultMapSize = 60

// RGB is a single color table entry, each channel in 0..255.
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// Validate checks that every channel is in range.
func (c RGB) Validate() error {
	for _, v := range []int{c.R, c.G, c.B} {
		if v < 0 || v > 255 {
			return fmt.Errorf("config: color channel %d out of range [0,255]", v)
		}
	}
	return nil
}

// ColorTable maps a label to its display RGB. Go's encoding/json marshals
// and unmarshals integer-keyed maps as decimal-string object keys, so this
// type round-trips through coloring_rules.json without custom codec code.
type ColorTable map[distribution.Label]RGB

// Validate checks every entry in the table.
func (ct ColorTable) Validate() error {
	for label, c := range ct {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("color table: label %v: %w", label, err)
		}
	}
	return nil
}

// WeightMap is a label→weight mapping as it appears inside an Undirected
// entry, or inside one cardinal direction of a Directed entry. JSON object
// keys are always strings, so labels are parsed from string keys here.
type WeightMap map[string]float64

func (wm WeightMap) toDistribution() (distribution.Distribution, error) {
	weights := make(map[distribution.Label]float64, len(wm))
	for k, w := range wm {
		label, err := parseLabel(k)
		if err != nil {
			return distribution.Distribution{}, err
		}
		weights[label] = w
	}
	return distribution.ConstructFromWeights(weights)
}

func weightMapFromDistribution(d distribution.Distribution) WeightMap {
	wm := make(WeightMap, d.Len())
	for _, l := range d.Labels() {
		wm[fmt.Sprintf("%d", l)] = d.Weight(l)
	}
	return wm
}

// directedJSON is the on-disk shape of a Directed rule entry's four
// cardinal distributions.
type directedJSON struct {
	North WeightMap `json:"north"`
	East  WeightMap `json:"east"`
	South WeightMap `json:"south"`
	West  WeightMap `json:"west"`
}

// RuleEntry is the on-disk tagged union from spec §6: exactly one of
// Undirected or Directed is populated. This mirrors rules.Entry's
// interface split (rules.Undirected | rules.Directed) at the
// serialization boundary.
type RuleEntry struct {
	Undirected WeightMap     `json:"Undirected,omitempty"`
	Directed   *directedJSON `json:"Directed,omitempty"`
}

// Validate checks that exactly one of Undirected/Directed is set.
func (re RuleEntry) Validate() error {
	if (re.Undirected == nil) == (re.Directed == nil) {
		return fmt.Errorf("config: rule entry must set exactly one of Undirected or Directed")
	}
	return nil
}

func (re RuleEntry) toEntry() (rules.Entry, error) {
	if err := re.Validate(); err != nil {
		return nil, err
	}
	if re.Undirected != nil {
		d, err := re.Undirected.toDistribution()
		if err != nil {
			return nil, fmt.Errorf("config: undirected entry: %w", err)
		}
		return rules.Undirected{Distribution: d}, nil
	}
	north, err := re.Directed.North.toDistribution()
	if err != nil {
		return nil, fmt.Errorf("config: directed.north: %w", err)
	}
	east, err := re.Directed.East.toDistribution()
	if err != nil {
		return nil, fmt.Errorf("config: directed.east: %w", err)
	}
	south, err := re.Directed.South.toDistribution()
	if err != nil {
		return nil, fmt.Errorf("config: directed.south: %w", err)
	}
	west, err := re.Directed.West.toDistribution()
	if err != nil {
		return nil, fmt.Errorf("config: directed.west: %w", err)
	}
	return rules.Directed{North: north, East: east, South: south, West: west}, nil
}

func ruleEntryFromEntry(e rules.Entry) RuleEntry {
	switch v := e.(type) {
	case rules.Undirected:
		return RuleEntry{Undirected: weightMapFromDistribution(v.Distribution)}
	case rules.Directed:
		return RuleEntry{Directed: &directedJSON{
			North: weightMapFromDistribution(v.North),
			East:  weightMapFromDistribution(v.East),
			South: weightMapFromDistribution(v.South),
			West:  weightMapFromDistribution(v.West),
		}}
	default:
		// rules.Entry is a closed interface (isEntry is unexported), so
		// every concrete implementation is handled above.
		return RuleEntry{}
	}
}

// LayoutRules is the on-disk shape of layout_rules.json.
type LayoutRules struct {
	TransitionRules map[string]RuleEntry `json:"transition_rules"`
	Comments        string               `json:"comments,omitempty"`
}

// Validate checks every rule entry and that every key parses as a label.
func (lr LayoutRules) Validate() error {
	for k, entry := range lr.TransitionRules {
		if _, err := parseLabel(k); err != nil {
			return fmt.Errorf("layout rules: %w", err)
		}
		if err := entry.Validate(); err != nil {
			return fmt.Errorf("layout rules: label %s: %w", k, err)
		}
	}
	return nil
}

// ToRuleSet converts the on-disk layout rules into the engine's RuleSet.
func (lr LayoutRules) ToRuleSet() (rules.RuleSet, error) {
	rs := make(rules.RuleSet, len(lr.TransitionRules))
	for k, entry := range lr.TransitionRules {
		label, err := parseLabel(k)
		if err != nil {
			return nil, err
		}
		e, err := entry.toEntry()
		if err != nil {
			return nil, fmt.Errorf("layout rules: label %s: %w", k, err)
		}
		rs[label] = e
	}
	return rs, nil
}

// LayoutRulesFromRuleSet serializes an in-memory RuleSet back to the
// on-disk LayoutRules shape, the inverse of ToRuleSet.
func LayoutRulesFromRuleSet(rs rules.RuleSet) LayoutRules {
	lr := LayoutRules{TransitionRules: make(map[string]RuleEntry, len(rs))}
	for label, entry := range rs {
		lr.TransitionRules[fmt.Sprintf("%d", label)] = ruleEntryFromEntry(entry)
	}
	return lr
}

// RuleSetFile is the on-disk shape of the combined rules.json (spec §6).
type RuleSetFile struct {
	LayoutRules   LayoutRules `json:"layout_rules"`
	ColoringRules ColorTable  `json:"coloring_rules"`
	MapSize       int         `json:"map_size,omitempty"`
	Adjacency     string      `json:"adjacency,omitempty"`
	Comments      string      `json:"comments,omitempty"`
}

// Validate checks all nested structures. It does not fill in defaults:
// MapSize is defaulted by LoadRuleSetFile / LoadRuleSetFileFromBytes
// before Validate is called, mirroring the teacher's "auto-generate seed
// when zero" pattern for its own Seed field.
func (f RuleSetFile) Validate() error {
	if err := f.LayoutRules.Validate(); err != nil {
		return fmt.Errorf("rules file: %w", err)
	}
	if err := f.ColoringRules.Validate(); err != nil {
		return fmt.Errorf("rules file: %w", err)
	}
	if f.MapSize <= 0 {
		return fmt.Errorf("rules file: map_size must be positive, got %d", f.MapSize)
	}
	switch f.Adjacency {
	case "", "cardinal", "octile":
	default:
		return fmt.Errorf("rules file: adjacency must be %q, %q, or omitted, got %q", "cardinal", "octile", f.Adjacency)
	}
	return nil
}

// AdjacencyGenerator returns the position.Adjacency named by f.Adjacency,
// defaulting to Octile per spec §4.H when the field is empty.
func (f RuleSetFile) AdjacencyGenerator() position.Adjacency {
	if f.Adjacency == "cardinal" {
		return position.Cardinal{}
	}
	return position.Octile{}
}

// LoadRuleSetFile reads and validates a combined rules.json file, defaulting
// map_size to 60 when absent.
func LoadRuleSetFile(path string) (*RuleSetFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}
	return LoadRuleSetFileFromBytes(data)
}

// LoadRuleSetFileFromBytes parses combined ruleset JSON from a byte slice.
func LoadRuleSetFileFromBytes(data []byte) (*RuleSetFile, error) {
	var f RuleSetFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing rules JSON: %w", err)
	}
	if f.MapSize == 0 {
		f.MapSize = defaultMapSize
	}
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &f, nil
}

// ToJSON serializes the combined ruleset to indented JSON bytes.
func (f RuleSetFile) ToJSON() ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// SaveToFile persists the combined ruleset as pretty-printed JSON.
func (f RuleSetFile) SaveToFile(path string) error {
	data, err := f.ToJSON()
	if err != nil {
		return fmt.Errorf("serializing rules file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Hash computes a deterministic hash of the combined ruleset, used for
// deriving per-stage RNG seeds the same way the teacher's Config.Hash
// derives synthesis/embedding/content seeds from its YAML config.
func (f RuleSetFile) Hash() []byte {
	data, err := f.ToJSON()
	if err != nil {
		h := sha256.Sum256([]byte(f.Adjacency))
		return h[:]
	}
	h := sha256.Sum256(data)
	return h[:]
}

// LoadColorTable reads and validates a coloring_rules.json file.
func LoadColorTable(path string) (ColorTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading color table: %w", err)
	}
	var ct ColorTable
	if err := json.Unmarshal(data, &ct); err != nil {
		return nil, fmt.Errorf("parsing color table JSON: %w", err)
	}
	if err := ct.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return ct, nil
}

// LoadLayoutRules reads and validates a layout_rules.json file.
func LoadLayoutRules(path string) (*LayoutRules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading layout rules: %w", err)
	}
	var lr LayoutRules
	if err := json.Unmarshal(data, &lr); err != nil {
		return nil, fmt.Errorf("parsing layout rules JSON: %w", err)
	}
	if err := lr.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}
	return &lr, nil
}

// DefaultRuleSetFile returns a small built-in three-label rule set and
// color table, used when no config file is present or the file on disk
// fails to parse (§7 "Config file missing/invalid" policy: fall back to
// built-in defaults and persist them).
func DefaultRuleSetFile() RuleSetFile {
	const a, b, c = 1, 2, 3
	lr := LayoutRules{
		TransitionRules: map[string]RuleEntry{
			fmt.Sprintf("%d", a): {Undirected: WeightMap{fmt.Sprintf("%d", b): 1, fmt.Sprintf("%d", c): 5}},
			fmt.Sprintf("%d", b): {Undirected: WeightMap{fmt.Sprintf("%d", a): 5, fmt.Sprintf("%d", c): 1}},
			fmt.Sprintf("%d", c): {Undirected: WeightMap{fmt.Sprintf("%d", a): 1, fmt.Sprintf("%d", b): 5}},
		},
		Comments: "built-in default: three-label symmetric chain",
	}
	ct := ColorTable{
		a: {R: 34, G: 139, B: 34},
		b: {R: 194, G: 178, B: 128},
		c: {R: 70, G: 130, B: 180},
	}
	return RuleSetFile{
		LayoutRules:   lr,
		ColoringRules: ct,
		MapSize:       defaultMapSize,
		Adjacency:     "octile",
	}
}

func parseLabel(s string) (distribution.Label, error) {
	var label int
	if _, err := fmt.Sscanf(s, "%d", &label); err != nil {
		return 0, fmt.Errorf("config: label %q is not an integer", s)
	}
	return label, nil
}
