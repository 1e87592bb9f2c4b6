// Package dispatch is the top-level orchestrator: it loads persisted
// configuration, selects a coordinate width for the requested map size,
// builds the initial undecided grid, runs the collapse engine, and hands
// the finalized grid to the renderer.
package dispatch

import (
	"fmt"
	"math/rand"
	"os"
	"sort"
	"time"

	"github.com/dshills/wfctile/pkg/collapse"
	"github.com/dshills/wfctile/pkg/config"
	"github.com/dshills/wfctile/pkg/distribution"
	"github.com/dshills/wfctile/pkg/position"
	"github.com/dshills/wfctile/pkg/render"
	"github.com/dshills/wfctile/pkg/rng"
	"github.com/dshills/wfctile/pkg/tilemap"
)

// Default output and configuration file names.
const (
	DefaultRulesFile  = "rules.json"
	DefaultOutputFile = "map.png"
	EditOutputFile    = "editmap.png"
)

// Options configures a dispatch run.
type Options struct {
	// OutputPath is where the rendered PNG is written. Defaults to
	// DefaultOutputFile when empty.
	OutputPath string
	// Seed is the master seed for stage RNG derivation. Zero means
	// generate one from the current time.
	Seed uint64
}

func (o Options) outputPath() string {
	if o.OutputPath == "" {
		return DefaultOutputFile
	}
	return o.OutputPath
}

// Result bundles everything a dispatch run produced.
type Result struct {
	Grid      *tilemap.Grid
	Report    collapse.Report
	Warning   render.Warning
	ImagePath string
	Seed      uint64
}

// GenerateFromFile loads a combined ruleset from path (DefaultRulesFile
// when empty) and dispatches. When the file is missing or invalid the
// built-in defaults are used instead and persisted back to path, so the
// next run starts from an editable file on disk.
func GenerateFromFile(path string, opts Options) (*Result, error) {
	if path == "" {
		path = DefaultRulesFile
	}

	cfg, err := config.LoadRuleSetFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wfctile: %v; falling back to built-in defaults\n", err)
		def := config.DefaultRuleSetFile()
		if saveErr := def.SaveToFile(path); saveErr != nil {
			fmt.Fprintf(os.Stderr, "wfctile: could not persist defaults to %s: %v\n", path, saveErr)
		}
		cfg = &def
	}

	return Dispatch(cfg, opts)
}

// Generate assembles a combined ruleset from separate color-table and
// layout-rules files, persists the combination as DefaultRulesFile, and
// dispatches. A mapSize of zero falls back to the spec default carried
// by the combined-ruleset loader. Either path may be empty, in which
// case the corresponding half of the built-in defaults is used.
func Generate(colorPath, rulePath string, mapSize int, opts Options) (*Result, error) {
	def := config.DefaultRuleSetFile()

	ct := def.ColoringRules
	if colorPath != "" {
		loaded, err := config.LoadColorTable(colorPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wfctile: %v; using default color table\n", err)
		} else {
			ct = loaded
		}
	}

	lr := def.LayoutRules
	if rulePath != "" {
		loaded, err := config.LoadLayoutRules(rulePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "wfctile: %v; using default layout rules\n", err)
		} else {
			lr = *loaded
		}
	}

	cfg := config.RuleSetFile{
		LayoutRules:   lr,
		ColoringRules: ct,
		MapSize:       mapSize,
		Adjacency:     def.Adjacency,
	}
	if cfg.MapSize <= 0 {
		cfg.MapSize = def.MapSize
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: assembled ruleset invalid: %w", err)
	}
	if err := cfg.SaveToFile(DefaultRulesFile); err != nil {
		fmt.Fprintf(os.Stderr, "wfctile: could not persist combined ruleset: %v\n", err)
	}

	return Dispatch(&cfg, opts)
}

// Dispatch runs the full pipeline against an already-loaded ruleset:
// coordinate-width selection, grid construction, collapse, render.
func Dispatch(cfg *config.RuleSetFile, opts Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: invalid ruleset: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = generateSeed()
	}

	width := position.WidthFor(cfg.MapSize)
	grid, err := NewUniformGrid(cfg.MapSize, labelsOf(cfg.ColoringRules))
	if err != nil {
		return nil, fmt.Errorf("dispatch: building grid: %w", err)
	}

	rs, err := cfg.LayoutRules.ToRuleSet()
	if err != nil {
		return nil, fmt.Errorf("dispatch: converting layout rules: %w", err)
	}

	collapseRNG := stageRand(seed, "collapse", cfg.Hash())
	grid, report, err := collapse.Assign(grid, rs, collapse.Options{
		Adjacency: cfg.AdjacencyGenerator(),
		Width:     width,
		RNG:       collapseRNG,
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: collapse failed: %w", err)
	}
	for _, p := range report.Leaked {
		fmt.Fprintf(os.Stderr, "wfctile: tile at %v had no rule for its sampled label; finalized without propagating\n", p)
	}
	for _, p := range report.Infeasible {
		fmt.Fprintf(os.Stderr, "wfctile: tile at %v became infeasible; finalized with a fallback label\n", p)
	}

	out := opts.outputPath()
	warn, err := render.SavePNGToFile(grid, cfg.ColoringRules, out)
	if err != nil {
		return nil, fmt.Errorf("dispatch: rendering: %w", err)
	}
	if warn.Dropped > 0 {
		fmt.Fprintf(os.Stderr, "wfctile: %d tiles fell outside the image's pixel range and were dropped\n", warn.Dropped)
	}

	return &Result{Grid: grid, Report: report, Warning: warn, ImagePath: out, Seed: seed}, nil
}

// Region is an inclusive rectangular sub-region of the grid, used by
// RegenerateRegion.
type Region struct {
	MinX, MinY, MaxX, MaxY int64
}

// Contains reports whether p falls inside the region.
func (r Region) Contains(p position.Position) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// RegenerateRegion re-runs collapse over one rectangular sub-region of
// an already-finalized grid: every tile inside region is reset to an
// undecided uniform distribution over the color table's labels, tiles
// outside the region keep their finalized labels and are never
// re-popped, and the result is rendered to EditOutputFile.
func RegenerateRegion(cfg *config.RuleSetFile, grid *tilemap.Grid, region Region, opts Options) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("dispatch: invalid ruleset: %w", err)
	}

	seed := opts.Seed
	if seed == 0 {
		seed = generateSeed()
	}

	labels := labelsOf(cfg.ColoringRules)
	rebuilt := make([]tilemap.Tile, 0, grid.Len())
	for i := 0; i < grid.Len(); i++ {
		t := grid.Tile(i)
		if region.Contains(t.Position) {
			rebuilt = append(rebuilt, tilemap.NewUndecided(t.Position, distribution.ConstructUniform(labels)))
			continue
		}
		if t.State() == tilemap.Finalized {
			rebuilt = append(rebuilt, tilemap.NewFinalized(t.Position, t.Label()))
		} else {
			rebuilt = append(rebuilt, tilemap.NewUndecided(t.Position, t.Distribution()))
		}
	}
	edited, err := tilemap.FromTiles(rebuilt)
	if err != nil {
		return nil, fmt.Errorf("dispatch: rebuilding grid for regeneration: %w", err)
	}

	rs, err := cfg.LayoutRules.ToRuleSet()
	if err != nil {
		return nil, fmt.Errorf("dispatch: converting layout rules: %w", err)
	}

	edited, report, err := collapse.Assign(edited, rs, collapse.Options{
		Adjacency: cfg.AdjacencyGenerator(),
		Width:     position.WidthFor(cfg.MapSize),
		RNG:       stageRand(seed, "collapse-edit", cfg.Hash()),
	})
	if err != nil {
		return nil, fmt.Errorf("dispatch: regenerating region: %w", err)
	}

	out := opts.OutputPath
	if out == "" {
		out = EditOutputFile
	}
	warn, err := render.SavePNGToFile(edited, cfg.ColoringRules, out)
	if err != nil {
		return nil, fmt.Errorf("dispatch: rendering: %w", err)
	}

	return &Result{Grid: edited, Report: report, Warning: warn, ImagePath: out, Seed: seed}, nil
}

// NewUniformGrid builds the default square size×size grid of undecided
// tiles, each carrying a uniform distribution over labels.
func NewUniformGrid(size int, labels []distribution.Label) (*tilemap.Grid, error) {
	if size <= 0 {
		return nil, fmt.Errorf("dispatch: map size must be positive, got %d", size)
	}
	if len(labels) == 0 {
		return nil, fmt.Errorf("dispatch: no labels to distribute over")
	}
	tiles := make([]tilemap.Tile, 0, size*size)
	for x := 0; x < size; x++ {
		for y := 0; y < size; y++ {
			tiles = append(tiles, tilemap.NewUndecided(
				position.New(int64(x), int64(y)),
				distribution.ConstructUniform(labels),
			))
		}
	}
	return tilemap.FromTiles(tiles)
}

// labelsOf returns the color table's labels in sorted order, so grid
// construction is deterministic regardless of map iteration order.
func labelsOf(ct config.ColorTable) []distribution.Label {
	labels := make([]distribution.Label, 0, len(ct))
	for l := range ct {
		labels = append(labels, l)
	}
	sort.Ints(labels)
	return labels
}

// stageRand derives a stage-specific math/rand source from the master
// seed, the stage name, and the config hash, the same sub-seeding the
// stage RNG package provides, converted to the *rand.Rand the collapse
// engine samples from.
func stageRand(seed uint64, stage string, configHash []byte) *rand.Rand {
	stageRNG := rng.NewRNG(seed, stage, configHash)
	return rand.New(rand.NewSource(int64(stageRNG.Uint64())))
}

// generateSeed creates a seed from the current time.
func generateSeed() uint64 {
	now := time.Now().UnixNano()
	if now < 0 {
		now = -now
	}
	seed := uint64(now)
	if seed == 0 {
		seed = 1
	}
	return seed
}
