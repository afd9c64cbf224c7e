package lastfm

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tidwall/gjson"
)

// UserService provides user-scoped read operations for the Last.fm API.
type UserService struct {
	client *Client
}

const (
	// MaxRecentTracksLimit is the largest page size Last.fm accepts for
	// user.getRecentTracks.
	MaxRecentTracksLimit = 200
)

// RecentTracksParams configures a user.getRecentTracks request.
type RecentTracksParams struct {
	User     string // Required: Last.fm username
	Limit    int    // Optional: page size, 1-200 (Last.fm default is 50)
	Extended bool   // Optional: request extended artist data
}

// GetRecentTracks fetches one page of a user's recently played tracks,
// most recent first. The currently playing track, if any, is included
// at the head of the list with NowPlaying set.
//
// Exactly one request is made. Pagination is left to the caller.
//
// Example:
//
//	page, err := client.User().GetRecentTracks(ctx, lastfm.RecentTracksParams{
//	    User:     "rj",
//	    Limit:    200,
//	    Extended: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, t := range page.Tracks {
//	    fmt.Println(t.Artist, "-", t.Album)
//	}
func (s *UserService) GetRecentTracks(ctx context.Context, p RecentTracksParams) (*RecentTracks, error) {
	if p.User == "" {
		return nil, fmt.Errorf("%w: user is required", ErrInvalidConfig)
	}
	if p.Limit > MaxRecentTracksLimit {
		p.Limit = MaxRecentTracksLimit
	}

	params := map[string]string{
		"user": p.User,
	}

	// Add optional parameters
	if p.Limit > 0 {
		params["limit"] = strconv.Itoa(p.Limit)
	}
	if p.Extended {
		params["extended"] = "1"
	}

	resp, err := s.client.call(ctx, "user.getrecenttracks", params)
	if err != nil {
		return nil, err
	}

	if !gjson.GetBytes(resp, "recenttracks").IsObject() {
		return nil, fmt.Errorf("%w: missing recenttracks object", ErrMalformedResponse)
	}

	tracks, err := unmarshalRecentTracks(resp)
	if err != nil {
		return nil, fmt.Errorf("lastfm: failed to parse recent tracks response: %w", err)
	}

	return tracks, nil
}
