package banner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/jfmyers9/lastfm-banner/internal/artwork"
	"github.com/jfmyers9/lastfm-banner/internal/history"
	"github.com/jfmyers9/lastfm-banner/pkg/lastfm"
	"github.com/rs/zerolog"
)

var fallback = color.RGBA{R: 18, G: 18, B: 18, A: 255}

// fakeLastFM serves user.getrecenttracks with the given track objects and
// artwork under /art/<name>.png. Names starting with "missing" return 404.
type fakeLastFM struct {
	srv    *httptest.Server
	tracks []string

	mu      sync.Mutex
	artHits map[string]int
}

func newFakeLastFM(t *testing.T) *fakeLastFM {
	t.Helper()
	f := &fakeLastFM{artHits: map[string]int{}}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeLastFM) handle(w http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/art/") {
		name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/art/"), ".png")
		f.mu.Lock()
		f.artHits[name]++
		f.mu.Unlock()
		if strings.HasPrefix(name, "missing") {
			http.NotFound(w, r)
			return
		}
		img := image.NewRGBA(image.Rect(0, 0, 32, 32))
		for i := range img.Pix {
			img.Pix[i] = 0xff
		}
		_ = png.Encode(w, img)
		return
	}
	_, _ = fmt.Fprintf(w, `{"recenttracks": {"track": [%s]}}`, strings.Join(f.tracks, ","))
}

func (f *fakeLastFM) hits(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.artHits[name]
}

func (f *fakeLastFM) add(artist, album, art string) {
	images := `[]`
	if art != "" {
		images = fmt.Sprintf(`[{"size": "small", "#text": ""}, {"size": "extralarge", "#text": "%s/art/%s.png"}]`, f.srv.URL, art)
	}
	albumJSON := `"album": {"#text": "` + album + `"},`
	if album == "" {
		albumJSON = ""
	}
	f.tracks = append(f.tracks, fmt.Sprintf(`{"artist": {"name": "%s"}, %s "name": "song", "image": %s}`, artist, albumJSON, images))
}

func (f *fakeLastFM) pipeline(t *testing.T, opts Options) *Pipeline {
	t.Helper()
	client, err := lastfm.NewClient(lastfm.Config{APIKey: "test_key", BaseURL: f.srv.URL})
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	source := history.NewFetcher(client, "rj", 0, zerolog.Nop())
	resolver := artwork.NewResolver(artwork.Config{
		TileSize: opts.TileSize,
		Fallback: opts.Fallback,
	}, zerolog.Nop())
	return New(opts, source, resolver, zerolog.Nop())
}

func testOptions(t *testing.T, grid int) Options {
	t.Helper()
	opts := DefaultOptions()
	opts.Grid = grid
	opts.TileSize = 16
	opts.Quality = 100
	opts.OutputPath = filepath.Join(t.TempDir(), "assets", "banner.jpg")
	return opts
}

func decodeJPEG(t *testing.T, path string) image.Image {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read banner: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode banner: %v", err)
	}
	return img
}

// near reports whether the pixel at (x,y) is within JPEG noise of c.
func near(img image.Image, x, y int, c color.RGBA) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	diff := func(a uint32, b uint8) int {
		d := int(a>>8) - int(b)
		if d < 0 {
			d = -d
		}
		return d
	}
	return diff(r, c.R) <= 8 && diff(g, c.G) <= 8 && diff(b, c.B) <= 8
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Window != 180 || opts.Grid != 5 || opts.TileSize != 240 || opts.Quality != 92 {
		t.Errorf("unexpected defaults: %+v", opts)
	}
	if opts.Fallback != fallback {
		t.Errorf("unexpected fallback colour: %v", opts.Fallback)
	}
	if opts.OutputPath != filepath.Join("assets", "banner.jpg") {
		t.Errorf("unexpected output path: %s", opts.OutputPath)
	}
}

func TestResult_String(t *testing.T) {
	r := Result{Path: "assets/banner.jpg", Width: 1200, Height: 1200, Albums: 25}
	if got, want := r.String(), "Saved assets/banner.jpg (1200x1200) with 25 albums."; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

func TestRun_TopAlbumSingleCell(t *testing.T) {
	f := newFakeLastFM(t)
	f.add("A", "X", "ax")
	f.add("A", "X", "ax")
	f.add("B", "Y", "by")

	opts := testOptions(t, 1)
	p := f.pipeline(t, opts)

	top, err := p.Rank(context.Background())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(top) != 1 || top[0].Key != "A — X" || top[0].Count != 2 {
		t.Fatalf("expected A — X with 2 plays, got %+v", top)
	}

	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Albums != 1 || res.Width != 16 || res.Height != 16 {
		t.Errorf("unexpected result: %+v", res)
	}

	// Only the selected album's art is downloaded
	if ax, by := f.hits("ax"), f.hits("by"); ax != 1 || by != 0 {
		t.Errorf("unexpected artwork requests: ax=%d by=%d", ax, by)
	}

	img := decodeJPEG(t, res.Path)
	if !near(img, 8, 8, color.RGBA{R: 255, G: 255, B: 255}) {
		t.Errorf("expected artwork at (0,0), got %v", img.At(8, 8))
	}
}

func TestRun_MissingAlbumExcluded(t *testing.T) {
	f := newFakeLastFM(t)
	f.add("A", "", "noalbum")
	f.add("B", "Y", "by")

	opts := testOptions(t, 2)
	res, err := f.pipeline(t, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Albums != 1 {
		t.Errorf("expected 1 album, got %d", res.Albums)
	}
	if f.hits("noalbum") != 0 {
		t.Error("artwork fetched for an event without an album")
	}
}

func TestRun_ArtworkNotFoundUsesPlaceholder(t *testing.T) {
	f := newFakeLastFM(t)
	f.add("A", "X", "ax")
	f.add("A", "X", "ax")
	f.add("B", "Y", "missing-by")

	opts := testOptions(t, 2)
	res, err := f.pipeline(t, opts).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Albums != 2 {
		t.Errorf("expected 2 albums placed, got %d", res.Albums)
	}

	img := decodeJPEG(t, res.Path)
	white := color.RGBA{R: 255, G: 255, B: 255}
	// (0,0) artwork, (0,1) placeholder, (1,0) and (1,1) empty cells
	if !near(img, 8, 8, white) {
		t.Errorf("expected artwork in cell (0,0), got %v", img.At(8, 8))
	}
	for _, p := range []image.Point{{24, 8}, {8, 24}, {24, 24}} {
		if !near(img, p.X, p.Y, fallback) {
			t.Errorf("expected fallback colour at %v, got %v", p, img.At(p.X, p.Y))
		}
	}
}

func TestRun_NoListensWritesNothing(t *testing.T) {
	f := newFakeLastFM(t)

	opts := testOptions(t, 5)
	_, err := f.pipeline(t, opts).Run(context.Background())
	if !errors.Is(err, history.ErrNoListens) {
		t.Fatalf("expected ErrNoListens, got %v", err)
	}

	if _, err := os.Stat(filepath.Dir(opts.OutputPath)); !os.IsNotExist(err) {
		t.Errorf("expected no output directory, stat err = %v", err)
	}
}

func TestRun_FetchErrorWritesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": 10, "message": "Invalid API key"}`))
	}))
	defer srv.Close()

	client, _ := lastfm.NewClient(lastfm.Config{APIKey: "bad", BaseURL: srv.URL})
	opts := testOptions(t, 5)
	p := New(opts, history.NewFetcher(client, "rj", 0, zerolog.Nop()), artwork.NewResolver(artwork.Config{TileSize: 16}, zerolog.Nop()), zerolog.Nop())

	if _, err := p.Run(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if _, err := os.Stat(opts.OutputPath); !os.IsNotExist(err) {
		t.Errorf("expected no banner, stat err = %v", err)
	}
}

func TestRun_Idempotent(t *testing.T) {
	f := newFakeLastFM(t)
	for i := 0; i < 6; i++ {
		f.add(fmt.Sprintf("Artist %d", i%4), "Album", fmt.Sprintf("art%d", i%4))
	}
	f.add("Artist 9", "Album", "missing-9")

	opts := testOptions(t, 2)
	p := f.pipeline(t, opts)

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if _, err := p.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second, err := os.ReadFile(opts.OutputPath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("expected identical banners for an unchanged history")
	}
}

type staticSource []history.ListenEvent

func (s staticSource) Fetch(context.Context) ([]history.ListenEvent, error) {
	return s, nil
}

type recordingResolver struct {
	size int
	urls []string
}

func (r *recordingResolver) Resolve(_ context.Context, url string) artwork.Tile {
	r.urls = append(r.urls, url)
	return artwork.Tile{Image: artwork.Solid(r.size, color.RGBA{G: 200}), Placeholder: url == ""}
}

func TestRun_PlacementOrderAndLimit(t *testing.T) {
	var events staticSource
	// 12 albums, album i played 12-i times
	for round := 0; round < 12; round++ {
		for i := 0; i < 12-round; i++ {
			events = append(events, history.ListenEvent{
				Artist:  fmt.Sprintf("Artist %02d", i),
				Album:   "LP",
				Artwork: []history.ArtworkCandidate{{URL: fmt.Sprintf("u%02d", i)}},
			})
		}
	}

	opts := testOptions(t, 3)
	resolver := &recordingResolver{size: opts.TileSize}
	res, err := New(opts, events, resolver, zerolog.Nop()).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.Albums != 9 {
		t.Errorf("expected 9 albums on a 3x3 grid, got %d", res.Albums)
	}
	want := []string{"u00", "u01", "u02", "u03", "u04", "u05", "u06", "u07", "u08"}
	if fmt.Sprint(resolver.urls) != fmt.Sprint(want) {
		t.Errorf("resolved %v, want %v", resolver.urls, want)
	}
}

func TestRun_WindowLimitsCounting(t *testing.T) {
	events := staticSource{
		{Artist: "New", Album: "One"},
		{Artist: "Old", Album: "Two"},
		{Artist: "Old", Album: "Two"},
	}

	opts := testOptions(t, 1)
	opts.Window = 1

	top, err := New(opts, events, &recordingResolver{size: 16}, zerolog.Nop()).Rank(context.Background())
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(top) != 1 || top[0].Key != "New — One" {
		t.Errorf("expected only the most recent listen counted, got %+v", top)
	}
}
