package config

import (
	"testing"

	"github.com/dshills/wfctile/pkg/position"
	"github.com/dshills/wfctile/pkg/rules"
)

func TestDefaultRuleSetFile_Valid(t *testing.T) {
	f := DefaultRuleSetFile()
	if err := f.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rs, err := f.LayoutRules.ToRuleSet()
	if err != nil {
		t.Fatalf("unexpected error converting to rule set: %v", err)
	}
	if len(rs) != 3 {
		t.Fatalf("expected 3 labels, got %d", len(rs))
	}
}

func TestLoadRuleSetFileFromBytes_RoundTrip(t *testing.T) {
	f := DefaultRuleSetFile()
	data, err := f.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := LoadRuleSetFileFromBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.MapSize != f.MapSize {
		t.Fatalf("expected map size %d, got %d", f.MapSize, got.MapSize)
	}
	if len(got.ColoringRules) != len(f.ColoringRules) {
		t.Fatalf("expected %d color entries, got %d", len(f.ColoringRules), len(got.ColoringRules))
	}
}

func TestLoadRuleSetFileFromBytes_DefaultsMapSize(t *testing.T) {
	data := []byte(`{
		"layout_rules": {"transition_rules": {"1": {"Undirected": {"1": 1}}}},
		"coloring_rules": {"1": {"r": 0, "g": 0, "b": 0}}
	}`)
	f, err := LoadRuleSetFileFromBytes(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.MapSize != defaultMapSize {
		t.Fatalf("expected default map size %d, got %d", defaultMapSize, f.MapSize)
	}
	if f.AdjacencyGenerator() != (position.Octile{}) {
		t.Fatal("expected octile adjacency default")
	}
}

func TestDirectedEntry_RoundTrip(t *testing.T) {
	entry := RuleEntry{Directed: &directedJSON{
		North: WeightMap{"2": 1},
		East:  WeightMap{"2": 1},
		South: WeightMap{"2": 1},
		West:  WeightMap{"2": 1},
	}}
	e, err := entry.toEntry()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	directed, ok := e.(rules.Directed)
	if !ok {
		t.Fatalf("expected rules.Directed, got %T", e)
	}
	if directed.North.Weight(2) != 1 {
		t.Fatalf("expected north weight 1, got %v", directed.North.Weight(2))
	}

	back := ruleEntryFromEntry(directed)
	if back.Directed == nil || back.Undirected != nil {
		t.Fatal("expected round trip to preserve the Directed tag")
	}
}

func TestRuleEntry_RejectsBothOrNeither(t *testing.T) {
	neither := RuleEntry{}
	if err := neither.Validate(); err == nil {
		t.Fatal("expected error when neither Undirected nor Directed is set")
	}

	both := RuleEntry{Undirected: WeightMap{"1": 1}, Directed: &directedJSON{}}
	if err := both.Validate(); err == nil {
		t.Fatal("expected error when both Undirected and Directed are set")
	}
}

func TestColorTable_ValidatesChannelRange(t *testing.T) {
	ct := ColorTable{1: {R: 300, G: 0, B: 0}}
	if err := ct.Validate(); err == nil {
		t.Fatal("expected error for out-of-range channel")
	}
}

func TestAdjacencyGenerator_Cardinal(t *testing.T) {
	f := RuleSetFile{Adjacency: "cardinal"}
	if f.AdjacencyGenerator() != (position.Cardinal{}) {
		t.Fatal("expected cardinal adjacency")
	}
}
