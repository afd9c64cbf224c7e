package banner

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/jfmyers9/lastfm-banner/internal/aggregate"
	"github.com/jfmyers9/lastfm-banner/internal/artwork"
	"github.com/jfmyers9/lastfm-banner/internal/collage"
	"github.com/jfmyers9/lastfm-banner/internal/history"
	"github.com/rs/zerolog"
)

// Options holds the banner tunables
type Options struct {
	Window     int        // Most recent listens considered
	Grid       int        // Tiles per row and per column
	TileSize   int        // Tile edge in pixels
	Fallback   color.RGBA // Canvas and placeholder colour
	OutputPath string     // Where the JPEG is written
	Quality    int        // JPEG quality
}

// DefaultOptions returns the fixed settings the banner is built with.
func DefaultOptions() Options {
	return Options{
		Window:     180,
		Grid:       5,
		TileSize:   240,
		Fallback:   color.RGBA{R: 18, G: 18, B: 18, A: 255},
		OutputPath: filepath.Join("assets", "banner.jpg"),
		Quality:    collage.DefaultQuality,
	}
}

// Source provides the listening history, most recent first.
type Source interface {
	Fetch(ctx context.Context) ([]history.ListenEvent, error)
}

// Resolver turns an artwork URL into a tile. It never fails.
type Resolver interface {
	Resolve(ctx context.Context, url string) artwork.Tile
}

// Result describes a saved banner.
type Result struct {
	Path   string
	Width  int
	Height int
	Albums int
}

// String renders the one-line summary printed after a run.
func (r Result) String() string {
	return fmt.Sprintf("Saved %s (%dx%d) with %d albums.", r.Path, r.Width, r.Height, r.Albums)
}

// Pipeline fetches history, ranks albums and renders the banner.
type Pipeline struct {
	opts     Options
	source   Source
	resolver Resolver
	logger   zerolog.Logger
}

// New creates a Pipeline.
func New(opts Options, source Source, resolver Resolver, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		opts:     opts,
		source:   source,
		resolver: resolver,
		logger:   logger.With().Str("component", "banner").Logger(),
	}
}

// Rank fetches the history and returns the albums that would appear on the
// banner, in placement order.
func (p *Pipeline) Rank(ctx context.Context) ([]aggregate.AlbumStat, error) {
	events, err := p.source.Fetch(ctx)
	if err != nil {
		return nil, err
	}

	summary := aggregate.Aggregate(events, p.opts.Window)

	p.logger.Debug().
		Int("fetched", len(events)).
		Int("window", summary.Window()).
		Int("skipped", summary.Skipped()).
		Int("albums", summary.Len()).
		Msg("Aggregated listens")

	return summary.Top(p.opts.Grid * p.opts.Grid), nil
}

// Run builds the banner and writes it to the output path. Nothing is
// written when the history cannot be fetched.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	top, err := p.Rank(ctx)
	if err != nil {
		return nil, err
	}

	canvas, err := collage.NewCanvas(p.opts.Grid, p.opts.TileSize, p.opts.Fallback)
	if err != nil {
		return nil, err
	}

	// One album at a time; the resolver paces itself
	for i, album := range top {
		tile := p.resolver.Resolve(ctx, album.ArtworkURL)
		if err := canvas.Place(i, tile.Image); err != nil {
			return nil, fmt.Errorf("failed to place %s: %w", album.Key, err)
		}

		row, col := canvas.Cell(i)
		p.logger.Debug().
			Str("album", string(album.Key)).
			Int("plays", album.Count).
			Int("row", row).
			Int("col", col).
			Bool("placeholder", tile.Placeholder).
			Msg("Placed tile")
	}

	if err := collage.Save(p.opts.OutputPath, canvas.Image(), p.opts.Quality); err != nil {
		return nil, fmt.Errorf("failed to save banner: %w", err)
	}

	width, height := canvas.Size()
	result := &Result{
		Path:   p.opts.OutputPath,
		Width:  width,
		Height: height,
		Albums: canvas.Placed(),
	}

	p.logger.Info().
		Str("path", result.Path).
		Int("albums", result.Albums).
		Msg("Banner saved")

	return result, nil
}
