package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jfmyers9/lastfm-banner/pkg/lastfm"
	"github.com/rs/zerolog"
)

const (
	// DefaultLimit is how many listens are requested in the single history call.
	DefaultLimit = lastfm.MaxRecentTracksLimit

	// DefaultTimeout bounds the history request. A stalled call is fatal.
	DefaultTimeout = 20 * time.Second
)

// ErrNoListens is returned when the history service answers with no tracks.
var ErrNoListens = errors.New("no tracks returned, check LASTFM_USER and LASTFM_API_KEY")

// ListenEvent is one play record from the user's history.
type ListenEvent struct {
	Artist     string             // Artist name, may be empty
	Album      string             // Album name, may be empty
	Artwork    []ArtworkCandidate // Artwork candidates, smallest first
	NowPlaying bool               // Track is playing right now
	PlayedAt   time.Time          // Zero when NowPlaying
}

// ArtworkCandidate is one artwork URL at a given resolution.
type ArtworkCandidate struct {
	Size string
	URL  string // May be empty
}

// Fetcher retrieves recent listens for one user
type Fetcher struct {
	client *lastfm.Client
	user   string
	limit  int
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher that requests up to limit listens for user.
// A non-positive limit means DefaultLimit.
func NewFetcher(client *lastfm.Client, user string, limit int, logger zerolog.Logger) *Fetcher {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Fetcher{
		client: client,
		user:   user,
		limit:  limit,
		logger: logger.With().Str("component", "history").Logger(),
	}
}

// Fetch makes one request and returns the listens most recent first.
// Any transport or decoding failure is returned, as is ErrNoListens for an
// empty history.
func (f *Fetcher) Fetch(ctx context.Context) ([]ListenEvent, error) {
	page, err := f.client.User().GetRecentTracks(ctx, lastfm.RecentTracksParams{
		User:     f.user,
		Limit:    f.limit,
		Extended: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch recent tracks: %w", err)
	}

	if len(page.Tracks) == 0 {
		return nil, ErrNoListens
	}

	events := make([]ListenEvent, len(page.Tracks))
	for i, t := range page.Tracks {
		events[i] = toListenEvent(t)
	}

	f.logger.Info().
		Str("user", f.user).
		Int("listens", len(events)).
		Int("total", page.Total).
		Msg("Fetched listening history")

	return events, nil
}

func toListenEvent(t lastfm.RecentTrack) ListenEvent {
	artwork := make([]ArtworkCandidate, len(t.Images))
	for i, img := range t.Images {
		artwork[i] = ArtworkCandidate{Size: img.Size, URL: img.URL}
	}
	return ListenEvent{
		Artist:     t.Artist,
		Album:      t.Album,
		Artwork:    artwork,
		NowPlaying: t.NowPlaying,
		PlayedAt:   t.PlayedAt,
	}
}
