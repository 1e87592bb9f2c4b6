// Package render turns a finalized grid into pixel output. PNG is the
// mandated output format (spec §4.G); SVG is an additional debug
// visualization adapted from the teacher's graph-export idiom.
package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	svg "github.com/ajstarks/svgo"

	"github.com/dshills/wfctile/pkg/config"
	"github.com/dshills/wfctile/pkg/distribution"
	"github.com/dshills/wfctile/pkg/tilemap"
)

// Warning is returned alongside a successful render to report tiles that
// were silently dropped, per §4.G ("tiles outside the representable range
// of the output image's pixel index are silently dropped with a warning").
type Warning struct {
	Dropped int
}

// RenderPNG draws one pixel per tile at (tile.x-minPos.x, tile.y-minPos.y),
// colored by colors[tile.Label()]. Tiles with no grid cell must already be
// finalized; an undecided tile has no label and is skipped (it should not
// occur once Assign has returned without error).
func RenderPNG(grid *tilemap.Grid, colors config.ColorTable) (image.Image, Warning, error) {
	minPos, maxPos := grid.Extents()
	width := int(maxPos.X-minPos.X) + 1
	height := int(maxPos.Y-minPos.Y) + 1
	if width <= 0 || height <= 0 {
		return nil, Warning{}, fmt.Errorf("render: grid has non-positive extent %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var warn Warning

	for i := 0; i < grid.Len(); i++ {
		tile := grid.Tile(i)
		if tile.State() != tilemap.Finalized {
			continue
		}
		px := int(tile.Position.X - minPos.X)
		py := int(tile.Position.Y - minPos.Y)
		if px < 0 || px >= width || py < 0 || py >= height {
			warn.Dropped++
			continue
		}
		img.Set(px, py, labelColor(colors, tile.Label()))
	}

	return img, warn, nil
}

// SavePNGToFile renders the grid and writes it as a PNG file.
func SavePNGToFile(grid *tilemap.Grid, colors config.ColorTable, path string) (Warning, error) {
	img, warn, err := RenderPNG(grid, colors)
	if err != nil {
		return warn, err
	}
	f, err := os.Create(path)
	if err != nil {
		return warn, fmt.Errorf("render: creating %s: %w", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return warn, fmt.Errorf("render: encoding PNG: %w", err)
	}
	return warn, nil
}

// labelColor looks up a label's color, falling back to mid-gray for a
// label absent from the table rather than panicking mid-render.
func labelColor(colors config.ColorTable, label distribution.Label) color.RGBA {
	rgb, ok := colors[label]
	if !ok {
		return color.RGBA{R: 128, G: 128, B: 128, A: 255}
	}
	return color.RGBA{R: uint8(rgb.R), G: uint8(rgb.G), B: uint8(rgb.B), A: 255}
}

// SVGOptions configures the debug SVG visualization.
type SVGOptions struct {
	TileSize int    // Pixel size of each tile's square (default: 8)
	Title    string // Optional title drawn above the grid
}

// DefaultSVGOptions returns sensible default SVG export options.
func DefaultSVGOptions() SVGOptions {
	return SVGOptions{TileSize: 8, Title: "Tile Map"}
}

// RenderSVG draws one rect per finalized tile, the same canvas-drawing
// idiom the teacher uses to draw one circle per dungeon room.
func RenderSVG(grid *tilemap.Grid, colors config.ColorTable, opts SVGOptions) ([]byte, error) {
	if opts.TileSize <= 0 {
		opts.TileSize = 8
	}

	minPos, maxPos := grid.Extents()
	cols := int(maxPos.X-minPos.X) + 1
	rows := int(maxPos.Y-minPos.Y) + 1
	if cols <= 0 || rows <= 0 {
		return nil, fmt.Errorf("render: grid has non-positive extent %dx%d", cols, rows)
	}

	headerHeight := 0
	if opts.Title != "" {
		headerHeight = 30
	}
	width := cols * opts.TileSize
	height := rows*opts.TileSize + headerHeight

	buf := new(bytes.Buffer)
	canvas := svg.New(buf)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:#1a1a2e")

	if opts.Title != "" {
		canvas.Text(width/2, 20, opts.Title,
			"text-anchor:middle;font-size:16px;font-weight:bold;fill:#e2e8f0;font-family:sans-serif")
	}

	for i := 0; i < grid.Len(); i++ {
		tile := grid.Tile(i)
		if tile.State() != tilemap.Finalized {
			continue
		}
		col := int(tile.Position.X - minPos.X)
		row := int(tile.Position.Y - minPos.Y)
		rgb := labelColor(colors, tile.Label())
		style := fmt.Sprintf("fill:rgb(%d,%d,%d);stroke:none", rgb.R, rgb.G, rgb.B)
		canvas.Rect(col*opts.TileSize, row*opts.TileSize+headerHeight, opts.TileSize, opts.TileSize, style)
	}

	canvas.End()
	return buf.Bytes(), nil
}

// SaveSVGToFile renders the debug SVG visualization and saves it to a file.
func SaveSVGToFile(grid *tilemap.Grid, colors config.ColorTable, path string, opts SVGOptions) error {
	data, err := RenderSVG(grid, colors, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
