package artwork

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"io"
	"net/http"
	"time"

	// Decoders for the formats cover hosts serve.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/rs/zerolog"
	"golang.org/x/image/draw"
)

const (
	// DefaultTimeout bounds a single artwork download.
	DefaultTimeout = 20 * time.Second

	// DefaultDelay is the pause after every resolution so cover hosts are
	// not hammered.
	DefaultDelay = 50 * time.Millisecond

	// maxImageBytes caps how much of a response body is read.
	maxImageBytes = 32 << 20

	// MaxPixels caps the decoded size of a cover, checked against the
	// image header before any pixel buffer is allocated.
	MaxPixels = 2 * 89478485
)

// Tile is one square cell of the collage.
type Tile struct {
	Image       *image.RGBA
	Placeholder bool // true when Image is the solid fallback colour
}

// Config holds Resolver configuration
type Config struct {
	TileSize   int           // Edge length of every tile in pixels
	Fallback   color.RGBA    // Placeholder colour
	Delay      time.Duration // Pause after each Resolve; zero disables
	HTTPClient *http.Client  // Optional: defaults to a client with DefaultTimeout
}

// Resolver downloads album artwork and fits it into square tiles. Every
// failure is absorbed into a placeholder tile.
type Resolver struct {
	client   *http.Client
	tileSize int
	fallback color.RGBA
	delay    time.Duration
	sleep    func(time.Duration)
	logger   zerolog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(cfg Config, logger zerolog.Logger) *Resolver {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{
			Timeout: DefaultTimeout,
		}
	}
	return &Resolver{
		client:   client,
		tileSize: cfg.TileSize,
		fallback: cfg.Fallback,
		delay:    cfg.Delay,
		sleep:    time.Sleep,
		logger:   logger.With().Str("component", "artwork").Logger(),
	}
}

// Resolve returns a tile for the artwork at url. An empty url, a failed
// download or undecodable bytes all yield the placeholder tile. The
// politeness delay follows every call, whichever way it went.
func (r *Resolver) Resolve(ctx context.Context, url string) Tile {
	defer r.pause()

	if url == "" {
		return r.Placeholder()
	}

	img, err := r.fetch(ctx, url)
	if err != nil {
		r.logger.Debug().Err(err).Str("url", url).Msg("Using placeholder tile")
		return r.Placeholder()
	}

	return Tile{Image: Fit(img, r.tileSize)}
}

// Placeholder returns a tile filled with the fallback colour.
func (r *Resolver) Placeholder() Tile {
	return Tile{Image: Solid(r.tileSize, r.fallback), Placeholder: true}
}

func (r *Resolver) pause() {
	if r.delay > 0 {
		r.sleep(r.delay)
	}
}

func (r *Resolver) fetch(ctx context.Context, url string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error decoding image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, fmt.Errorf("image %dx%d exceeds %d pixels", cfg.Width, cfg.Height, MaxPixels)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("error decoding image: %w", err)
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())
	}

	return img, nil
}

// Solid returns a size x size image of a single opaque colour.
func Solid(size int, c color.RGBA) *image.RGBA {
	c.A = 0xff
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return dst
}

// Fit crops src to a centred square and scales it to size x size, so the
// aspect ratio is kept by cropping rather than stretching. Alpha is
// dropped and each pixel keeps its stored colour, leaving an opaque RGB
// tile.
func Fit(src image.Image, size int) *image.RGBA {
	b := src.Bounds()
	side := min(b.Dx(), b.Dy())
	crop := image.Rect(0, 0, side, side).Add(image.Pt(
		b.Min.X+(b.Dx()-side)/2,
		b.Min.Y+(b.Dy()-side)/2,
	))

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), dropAlpha(src, crop), crop, draw.Src, nil)
	return dst
}

// dropAlpha returns the r region of src with every pixel made opaque.
// Straight-alpha sources such as PNG keep the colour stored under a
// transparent pixel. Opaque sources are returned as is.
func dropAlpha(src image.Image, r image.Rectangle) image.Image {
	if o, ok := src.(interface{ Opaque() bool }); ok && o.Opaque() {
		return src
	}

	dst := image.NewNRGBA(r)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			c.A = 0xff
			dst.SetNRGBA(x, y, c)
		}
	}
	return dst
}
