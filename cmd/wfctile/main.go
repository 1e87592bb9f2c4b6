package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dshills/wfctile/pkg/config"
	"github.com/dshills/wfctile/pkg/dispatch"
	"github.com/dshills/wfctile/pkg/render"
	"github.com/dshills/wfctile/pkg/styles"
)

const (
	version = "1.0.0"
)

// CLI flags
var (
	rulesPath  = flag.String("rules", "", "Path to combined rules.json (default: rules.json, generated if missing)")
	colorsPath = flag.String("colors", "", "Path to coloring_rules.json (assembles a combined ruleset with -layout)")
	layoutPath = flag.String("layout", "", "Path to layout_rules.json (assembles a combined ruleset with -colors)")
	styleName  = flag.String("style", "", "Named style pack to load from -styledir instead of JSON rule files")
	styleDir   = flag.String("styledir", "styles", "Base directory for named style packs")
	mapSize    = flag.Int("size", 0, "Map size override with -colors/-layout or -style (0 = use config, default 60); ignored for -rules")
	outputDir  = flag.String("output", ".", "Output directory for generated files")
	format     = flag.String("format", "png", "Output format: png, svg, or all")
	seedFlag   = flag.Uint64("seed", 0, "Master seed (0 = derive from current time)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
	versionF   = flag.Bool("version", false, "Print version and exit")
	help       = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	// Handle version flag
	if *versionF {
		fmt.Printf("wfctile version %s\n", version)
		os.Exit(0)
	}

	// Handle help flag
	if *help {
		printHelp()
		os.Exit(0)
	}

	// Validate format
	validFormats := map[string]bool{
		"png": true,
		"svg": true,
		"all": true,
	}
	if !validFormats[*format] {
		fmt.Fprintf(os.Stderr, "Error: invalid format %q, must be one of: png, svg, all\n", *format)
		os.Exit(1)
	}

	if *styleName != "" && (*colorsPath != "" || *layoutPath != "") {
		fmt.Fprintln(os.Stderr, "Error: -style cannot be combined with -colors/-layout")
		printUsage()
		os.Exit(1)
	}

	// Run the generator
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	opts := dispatch.Options{
		OutputPath: filepath.Join(*outputDir, dispatch.DefaultOutputFile),
		Seed:       *seedFlag,
	}

	start := time.Now()
	if *verbose {
		fmt.Println("Generating tile map...")
	}

	var (
		result *dispatch.Result
		err    error
	)
	switch {
	case *styleName != "":
		result, err = runStyle(opts)
	case *colorsPath != "" || *layoutPath != "":
		if *verbose {
			fmt.Printf("Assembling ruleset from %s and %s\n", *colorsPath, *layoutPath)
		}
		result, err = dispatch.Generate(*colorsPath, *layoutPath, *mapSize, opts)
	default:
		if *verbose {
			path := *rulesPath
			if path == "" {
				path = dispatch.DefaultRulesFile
			}
			fmt.Printf("Loading combined ruleset from %s\n", path)
		}
		result, err = dispatch.GenerateFromFile(*rulesPath, opts)
	}
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	elapsed := time.Since(start)
	if *verbose {
		fmt.Printf("Generation completed in %v\n", elapsed)
		printStats(result)
	}

	if *format == "svg" || *format == "all" {
		if err := exportSVG(result); err != nil {
			return err
		}
	}

	fmt.Printf("Successfully generated map (seed=%d) in %v\n", result.Seed, elapsed)
	return nil
}

// runStyle loads a named style pack, converts it to a combined ruleset,
// and dispatches.
func runStyle(opts dispatch.Options) (*dispatch.Result, error) {
	if *verbose {
		fmt.Printf("Loading style pack %q from %s\n", *styleName, *styleDir)
	}
	loader := styles.NewLoader(*styleDir)
	pack, err := loader.Load(*styleName)
	if err != nil {
		return nil, fmt.Errorf("failed to load style pack: %w", err)
	}
	cfg, err := pack.ToRuleSetFile()
	if err != nil {
		return nil, err
	}
	if *mapSize > 0 {
		cfg.MapSize = *mapSize
	}
	return dispatch.Dispatch(&cfg, opts)
}

// exportSVG renders the debug SVG visualization next to the PNG.
func exportSVG(result *dispatch.Result) error {
	filename := filepath.Join(*outputDir, "map.svg")
	if *verbose {
		fmt.Printf("Exporting SVG to %s\n", filename)
	}

	colors, err := colorsFor(result)
	if err != nil {
		return err
	}

	svgOpts := render.DefaultSVGOptions()
	svgOpts.Title = fmt.Sprintf("Tile Map (seed=%d)", result.Seed)

	if err := render.SaveSVGToFile(result.Grid, colors, filename, svgOpts); err != nil {
		return fmt.Errorf("failed to export SVG: %w", err)
	}

	if *verbose {
		info, _ := os.Stat(filename)
		fmt.Printf("  Wrote %d bytes\n", info.Size())
	}

	return nil
}

// colorsFor reloads the color table used for the run, so the SVG export
// matches the PNG. The combined ruleset was persisted by the dispatch
// entry points; a named style pack carries its own colors.
func colorsFor(result *dispatch.Result) (config.ColorTable, error) {
	if *styleName != "" {
		pack, err := styles.NewLoader(*styleDir).Load(*styleName)
		if err != nil {
			return nil, fmt.Errorf("failed to reload style pack: %w", err)
		}
		return pack.ColorTable(), nil
	}

	path := *rulesPath
	if path == "" {
		path = dispatch.DefaultRulesFile
	}
	cfg, err := config.LoadRuleSetFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload ruleset for SVG export: %w", err)
	}
	return cfg.ColoringRules, nil
}

// printStats prints map statistics
func printStats(result *dispatch.Result) {
	min, max := result.Grid.Extents()
	fmt.Println("\nMap Statistics:")
	fmt.Printf("  Tiles: %d\n", result.Grid.Len())
	fmt.Printf("  Extents: (%d,%d)-(%d,%d)\n", min.X, min.Y, max.X, max.Y)
	fmt.Printf("  Undecided remaining: %d\n", result.Grid.UndecidedLen())

	if len(result.Report.Leaked) > 0 {
		fmt.Printf("  Leaked tiles (no rule for sampled label): %d\n", len(result.Report.Leaked))
	}
	if len(result.Report.Infeasible) > 0 {
		fmt.Printf("  Infeasible tiles (fallback label used): %d\n", len(result.Report.Infeasible))
	}
	if result.Warning.Dropped > 0 {
		fmt.Printf("  Tiles dropped during render: %d\n", result.Warning.Dropped)
	}
}

// printUsage prints basic usage information
func printUsage() {
	fmt.Fprintln(os.Stderr, "\nUsage: wfctile [options]")
	fmt.Fprintln(os.Stderr, "\nRun 'wfctile -help' for detailed help")
}

// printHelp prints detailed help information
func printHelp() {
	fmt.Printf("wfctile version %s\n\n", version)
	fmt.Println("A command-line tool for generating tile maps by constraint propagation.")
	fmt.Println("\nUsage:")
	fmt.Println("  wfctile [options]")
	fmt.Println("\nOptional Flags:")
	fmt.Println("  -rules string")
	fmt.Println("        Path to combined rules.json (default: rules.json; defaults are")
	fmt.Println("        generated and persisted when the file is missing or invalid)")
	fmt.Println("  -colors string")
	fmt.Println("        Path to coloring_rules.json; combined with -layout to assemble")
	fmt.Println("        and persist a new rules.json before generating")
	fmt.Println("  -layout string")
	fmt.Println("        Path to layout_rules.json (see -colors)")
	fmt.Println("  -style string")
	fmt.Println("        Named style pack to load from -styledir instead of JSON files")
	fmt.Println("  -styledir string")
	fmt.Println("        Base directory for named style packs (default: styles)")
	fmt.Println("  -size int")
	fmt.Println("        Map size override (0 = use config, default 60); applies with")
	fmt.Println("        -colors/-layout or -style, ignored when generating from -rules")
	fmt.Println("  -output string")
	fmt.Println("        Output directory for generated files (default: current directory)")
	fmt.Println("  -format string")
	fmt.Println("        Output format: png, svg, or all (default: png)")
	fmt.Println("  -seed uint")
	fmt.Println("        Master seed (0 = derive from current time) (default: 0)")
	fmt.Println("  -verbose")
	fmt.Println("        Enable verbose output")
	fmt.Println("  -version")
	fmt.Println("        Print version and exit")
	fmt.Println("  -help")
	fmt.Println("        Show this help message")
	fmt.Println("\nExamples:")
	fmt.Println("  # Generate from rules.json (created with defaults on first run)")
	fmt.Println("  wfctile")
	fmt.Println("\n  # Generate from separate color and layout files, 120x120 tiles")
	fmt.Println("  wfctile -colors coloring_rules.json -layout layout_rules.json -size 120")
	fmt.Println("\n  # Generate a named style pack with a fixed seed and SVG debug output")
	fmt.Println("  wfctile -style terrain -seed 12345 -format all -output ./out")
	fmt.Println("\nConfiguration Files:")
	fmt.Println("  rules.json bundles the layout rules, color table, map size, and")
	fmt.Println("  adjacency mode (cardinal or octile; octile is the default).")
	fmt.Println("  Style packs are YAML directories (styles/<name>/style.yml) bundling")
	fmt.Println("  the same data under a reusable name.")
}
