// Package collage arranges square tiles into a grid and writes it as JPEG.
package collage

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"
	"path/filepath"
)

// DefaultQuality is the JPEG quality used for the saved banner.
const DefaultQuality = 92

// Canvas is a Grid x Grid arrangement of square tiles.
type Canvas struct {
	img      *image.RGBA
	grid     int
	tileSize int
	placed   int
}

// NewCanvas allocates a canvas of (grid*tileSize)^2 pixels filled with the
// fallback colour, so cells that never receive a tile are still painted.
func NewCanvas(grid, tileSize int, fallback color.RGBA) (*Canvas, error) {
	if grid <= 0 || tileSize <= 0 {
		return nil, fmt.Errorf("invalid canvas geometry: grid=%d tile=%d", grid, tileSize)
	}

	fallback.A = 0xff
	side := grid * tileSize
	img := image.NewRGBA(image.Rect(0, 0, side, side))
	draw.Draw(img, img.Bounds(), image.NewUniform(fallback), image.Point{}, draw.Src)

	return &Canvas{
		img:      img,
		grid:     grid,
		tileSize: tileSize,
	}, nil
}

// Cell returns the row and column of the index-th tile in row-major order.
func (c *Canvas) Cell(index int) (row, col int) {
	return index / c.grid, index % c.grid
}

// Place pastes tile into the index-th cell. Tiles larger than a cell are
// clipped to it.
func (c *Canvas) Place(index int, tile image.Image) error {
	if index < 0 || index >= c.grid*c.grid {
		return fmt.Errorf("tile index %d outside %dx%d grid", index, c.grid, c.grid)
	}

	row, col := c.Cell(index)
	origin := image.Pt(col*c.tileSize, row*c.tileSize)
	cell := image.Rectangle{Min: origin, Max: origin.Add(image.Pt(c.tileSize, c.tileSize))}

	draw.Draw(c.img, cell, tile, tile.Bounds().Min, draw.Src)
	c.placed++
	return nil
}

// Placed returns how many tiles have been pasted.
func (c *Canvas) Placed() int {
	return c.placed
}

// Image returns the composed image.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Size returns the canvas width and height in pixels.
func (c *Canvas) Size() (width, height int) {
	b := c.img.Bounds()
	return b.Dx(), b.Dy()
}

// Save encodes img as JPEG at path, creating parent directories as needed.
// The file is written to a temporary name and renamed into place, so a
// failure never leaves a partial banner behind.
func Save(path string, img image.Image, quality int) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	w := bufio.NewWriter(tmp)
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to encode jpeg: %w", err)
	}
	if err := w.Flush(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write jpeg: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// CreateTemp uses 0600
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	return os.Rename(tmpPath, path)
}
