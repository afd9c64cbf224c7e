// Package aggregate tallies album plays over a window of recent listens.
package aggregate

import (
	"slices"
	"strings"

	"github.com/jfmyers9/lastfm-banner/internal/history"
	"github.com/samber/lo"
)

// keySeparator joins artist and album in an AlbumKey.
const keySeparator = " — "

// AlbumKey identifies an album as "artist — album".
type AlbumKey string

// NewAlbumKey builds the key for an artist and album. It reports false when
// either is blank after trimming.
func NewAlbumKey(artist, album string) (AlbumKey, bool) {
	artist = strings.TrimSpace(artist)
	album = strings.TrimSpace(album)
	if artist == "" || album == "" {
		return "", false
	}
	return AlbumKey(artist + keySeparator + album), true
}

// AlbumStat is the tally for one album within the window.
type AlbumStat struct {
	Key        AlbumKey
	Count      int    // Plays within the window, always >= 1
	ArtworkURL string // First non-empty artwork URL seen for the album
	FirstSeen  int    // Index of the first counted event in the window
}

// Summary is the result of aggregating one window of listens.
type Summary struct {
	stats   map[AlbumKey]*AlbumStat
	order   []AlbumKey // first-occurrence order
	window  int
	skipped int
}

// BestArtworkURL returns the largest available artwork URL. Candidates are
// ordered smallest to largest, so the list is scanned from the end and the
// first non-empty URL wins.
func BestArtworkURL(candidates []history.ArtworkCandidate) string {
	for i := len(candidates) - 1; i >= 0; i-- {
		if candidates[i].URL != "" {
			return candidates[i].URL
		}
	}
	return ""
}

// Aggregate counts album plays over the first window events (the most
// recent ones). Events without an artist or album are skipped.
func Aggregate(events []history.ListenEvent, window int) Summary {
	if window < 0 {
		window = 0
	}
	events = lo.Slice(events, 0, window)

	s := Summary{
		stats:  make(map[AlbumKey]*AlbumStat),
		window: len(events),
	}

	for i, ev := range events {
		key, ok := NewAlbumKey(ev.Artist, ev.Album)
		if !ok {
			s.skipped++
			continue
		}

		stat, seen := s.stats[key]
		if !seen {
			stat = &AlbumStat{Key: key, FirstSeen: i}
			s.stats[key] = stat
			s.order = append(s.order, key)
		}
		stat.Count++

		// Never overwrite a recorded URL
		if stat.ArtworkURL == "" {
			stat.ArtworkURL = BestArtworkURL(ev.Artwork)
		}
	}

	return s
}

// Window returns the number of events considered.
func (s Summary) Window() int {
	return s.window
}

// Skipped returns how many events in the window had no album key.
func (s Summary) Skipped() int {
	return s.skipped
}

// Len returns the number of distinct albums.
func (s Summary) Len() int {
	return len(s.order)
}

// Get returns the stat for key.
func (s Summary) Get(key AlbumKey) (AlbumStat, bool) {
	stat, ok := s.stats[key]
	if !ok {
		return AlbumStat{}, false
	}
	return *stat, true
}

// Stats returns a copy of every stat in first-occurrence order.
func (s Summary) Stats() []AlbumStat {
	return lo.Map(s.order, func(key AlbumKey, _ int) AlbumStat {
		return *s.stats[key]
	})
}

// Top returns at most k stats ordered by descending count. Ties keep
// first-occurrence order.
func (s Summary) Top(k int) []AlbumStat {
	if k <= 0 {
		return nil
	}

	ranked := s.Stats()
	slices.SortStableFunc(ranked, func(a, b AlbumStat) int {
		return b.Count - a.Count
	})

	return lo.Slice(ranked, 0, k)
}
