package dispatch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/dshills/wfctile/pkg/config"
	"github.com/dshills/wfctile/pkg/position"
	"github.com/dshills/wfctile/pkg/tilemap"
)

func TestNewUniformGrid(t *testing.T) {
	g, err := NewUniformGrid(5, []int{1, 2, 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Len() != 25 {
		t.Fatalf("expected 25 tiles, got %d", g.Len())
	}
	if g.UndecidedLen() != 25 {
		t.Fatalf("expected every tile undecided, got %d", g.UndecidedLen())
	}
	min, max := g.Extents()
	if min != position.New(0, 0) || max != position.New(4, 4) {
		t.Fatalf("unexpected extents: %v-%v", min, max)
	}

	tile, ok := g.Get(position.New(2, 2))
	if !ok {
		t.Fatal("expected a tile at (2,2)")
	}
	if tile.Distribution().Len() != 3 {
		t.Fatalf("expected uniform distribution over 3 labels, got %d entries", tile.Distribution().Len())
	}
}

func TestNewUniformGrid_RejectsBadInputs(t *testing.T) {
	if _, err := NewUniformGrid(0, []int{1}); err == nil {
		t.Fatal("expected error for non-positive size")
	}
	if _, err := NewUniformGrid(3, nil); err == nil {
		t.Fatal("expected error for empty label set")
	}
}

func TestDispatch_EndToEnd(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultRuleSetFile()
	cfg.MapSize = 8

	result, err := Dispatch(&cfg, Options{
		OutputPath: filepath.Join(dir, "map.png"),
		Seed:       42,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Grid.UndecidedLen() != 0 {
		t.Fatalf("expected every tile finalized, %d remain", result.Grid.UndecidedLen())
	}
	if result.Seed != 42 {
		t.Fatalf("expected seed 42, got %d", result.Seed)
	}
	info, err := os.Stat(result.ImagePath)
	if err != nil {
		t.Fatalf("expected PNG on disk: %v", err)
	}
	if info.Size() == 0 {
		t.Fatal("expected non-empty PNG")
	}
}

func TestDispatch_DeterministicForSameSeed(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultRuleSetFile()
	cfg.MapSize = 6

	labelsAt := func(path string) map[position.Position]int {
		t.Helper()
		result, err := Dispatch(&cfg, Options{OutputPath: path, Seed: 7})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := make(map[position.Position]int, result.Grid.Len())
		for i := 0; i < result.Grid.Len(); i++ {
			tile := result.Grid.Tile(i)
			out[tile.Position] = tile.Label()
		}
		return out
	}

	first := labelsAt(filepath.Join(dir, "a.png"))
	second := labelsAt(filepath.Join(dir, "b.png"))
	if len(first) != len(second) {
		t.Fatalf("grid sizes differ: %d vs %d", len(first), len(second))
	}
	for pos, label := range first {
		if second[pos] != label {
			t.Fatalf("label mismatch at %v: %d vs %d", pos, label, second[pos])
		}
	}
}

func TestGenerateFromFile_MissingFileFallsBackAndPersists(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.json")

	result, err := GenerateFromFile(rulesPath, Options{
		OutputPath: filepath.Join(dir, "map.png"),
		Seed:       9,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Grid.UndecidedLen() != 0 {
		t.Fatalf("expected every tile finalized, %d remain", result.Grid.UndecidedLen())
	}

	// The defaults must have been persisted back so the next run starts
	// from an editable file.
	persisted, err := config.LoadRuleSetFile(rulesPath)
	if err != nil {
		t.Fatalf("expected persisted defaults at %s: %v", rulesPath, err)
	}
	if persisted.MapSize != config.DefaultRuleSetFile().MapSize {
		t.Fatalf("expected default map size, got %d", persisted.MapSize)
	}
}

func TestRegenerateRegion_PreservesExterior(t *testing.T) {
	dir := t.TempDir()
	cfg := config.DefaultRuleSetFile()
	cfg.MapSize = 6

	base, err := Dispatch(&cfg, Options{OutputPath: filepath.Join(dir, "map.png"), Seed: 11})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	region := Region{MinX: 1, MinY: 1, MaxX: 3, MaxY: 3}
	edited, err := RegenerateRegion(&cfg, base.Grid, region, Options{
		OutputPath: filepath.Join(dir, "editmap.png"),
		Seed:       12,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if edited.Grid.UndecidedLen() != 0 {
		t.Fatalf("expected every tile finalized after regeneration, %d remain", edited.Grid.UndecidedLen())
	}

	for i := 0; i < base.Grid.Len(); i++ {
		tile := base.Grid.Tile(i)
		if region.Contains(tile.Position) {
			continue
		}
		after, ok := edited.Grid.Get(tile.Position)
		if !ok {
			t.Fatalf("exterior tile at %v missing after regeneration", tile.Position)
		}
		if after.State() != tilemap.Finalized || after.Label() != tile.Label() {
			t.Fatalf("exterior tile at %v changed: %d vs %d", tile.Position, tile.Label(), after.Label())
		}
	}

	if _, err := os.Stat(edited.ImagePath); err != nil {
		t.Fatalf("expected editmap PNG on disk: %v", err)
	}
}

func TestGenerate_AssemblesAndPersistsCombinedRuleset(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Generate persists the combined ruleset as rules.json in the working
	// directory; run inside a temp dir to keep the test hermetic.
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer func() {
		if err := os.Chdir(cwd); err != nil {
			t.Fatalf("restoring working directory: %v", err)
		}
	}()

	def := config.DefaultRuleSetFile()
	colorPath := filepath.Join(dir, "coloring_rules.json")
	layoutPath := filepath.Join(dir, "layout_rules.json")
	writeJSON(t, colorPath, def.ColoringRules)
	writeJSON(t, layoutPath, def.LayoutRules)

	result, err := Generate(colorPath, layoutPath, 5, Options{
		OutputPath: filepath.Join(dir, "map.png"),
		Seed:       3,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Grid.Len() != 25 {
		t.Fatalf("expected 5x5 grid, got %d tiles", result.Grid.Len())
	}

	combined, err := config.LoadRuleSetFile(filepath.Join(dir, DefaultRulesFile))
	if err != nil {
		t.Fatalf("expected combined ruleset persisted: %v", err)
	}
	if combined.MapSize != 5 {
		t.Fatalf("expected persisted map size 5, got %d", combined.MapSize)
	}
}

func writeJSON(t *testing.T, path string, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshaling %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
