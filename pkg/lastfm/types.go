package lastfm

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

// Image is one artwork candidate attached to a track. Last.fm lists them
// from the smallest to the largest size.
type Image struct {
	Size string // "small", "medium", "large", "extralarge" (may be empty)
	URL  string // Image URL; empty when Last.fm has no art for this size
}

// RecentTrack represents one entry from user.getRecentTracks.
type RecentTrack struct {
	Name       string    // Track name
	Artist     string    // Artist name (empty when missing)
	Album      string    // Album name (empty when missing)
	Images     []Image   // Artwork candidates, small to large
	NowPlaying bool      // Whether this is the currently playing track
	PlayedAt   time.Time // Zero for the now playing track
}

// RecentTracks is a single page of a user's listening history.
type RecentTracks struct {
	User       string
	Page       int
	PerPage    int
	TotalPages int
	Total      int
	Tracks     []RecentTrack // Most recent first
}

// recentTracksResponse represents the JSON response from user.getRecentTracks.
type recentTracksResponse struct {
	RecentTracks struct {
		Track trackList `json:"track"`
		Attr  struct {
			User       string `json:"user"`
			Page       string `json:"page"`
			PerPage    string `json:"perPage"`
			TotalPages string `json:"totalPages"`
			Total      string `json:"total"`
		} `json:"@attr"`
	} `json:"recenttracks"`
}

type rawTrack struct {
	Name   string    `json:"name"`
	Artist nameField `json:"artist"`
	Album  nameField `json:"album"`
	Image  []struct {
		Size string `json:"size"`
		URL  string `json:"#text"`
	} `json:"image"`
	Attr struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr"`
	Date struct {
		UTS string `json:"uts"`
	} `json:"date"`
}

// trackList accepts either a JSON array of tracks or, as Last.fm sends
// for single-item pages, a bare track object.
type trackList []rawTrack

func (l *trackList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*l = nil
		return nil
	case data[0] == '[':
		return json.Unmarshal(data, (*[]rawTrack)(l))
	case data[0] == '{':
		var t rawTrack
		if err := json.Unmarshal(data, &t); err != nil {
			return err
		}
		*l = trackList{t}
		return nil
	default:
		return fmt.Errorf("lastfm: unexpected JSON for track list: %.32s", data)
	}
}

// nameField holds an artist or album reference, which Last.fm encodes as
// either a plain string or an object such as {"name": "..."} (extended
// artist) or {"#text": "..."} (album).
type nameField struct {
	Name string
	Text string
}

func (f *nameField) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*f = nameField{}
		return nil
	case data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = nameField{Name: s, Text: s}
		return nil
	case data[0] == '{':
		var obj struct {
			Name string `json:"name"`
			Text string `json:"#text"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		*f = nameField{Name: obj.Name, Text: obj.Text}
		return nil
	default:
		return fmt.Errorf("lastfm: unexpected JSON for name field: %.32s", data)
	}
}

// artist prefers the extended "name" form.
func (f nameField) artist() string {
	if f.Name != "" {
		return f.Name
	}
	return f.Text
}

// album prefers the "#text" form.
func (f nameField) album() string {
	if f.Text != "" {
		return f.Text
	}
	return f.Name
}

// unmarshalRecentTracks parses the JSON response from user.getRecentTracks.
func unmarshalRecentTracks(data []byte) (*RecentTracks, error) {
	var resp recentTracksResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recent tracks response: %w", err)
	}

	attr := resp.RecentTracks.Attr
	result := &RecentTracks{
		User:       attr.User,
		Page:       atoi(attr.Page),
		PerPage:    atoi(attr.PerPage),
		TotalPages: atoi(attr.TotalPages),
		Total:      atoi(attr.Total),
		Tracks:     make([]RecentTrack, len(resp.RecentTracks.Track)),
	}

	for i, t := range resp.RecentTracks.Track {
		track := RecentTrack{
			Name:       t.Name,
			Artist:     t.Artist.artist(),
			Album:      t.Album.album(),
			NowPlaying: t.Attr.NowPlaying == "true",
			Images:     make([]Image, len(t.Image)),
		}
		for j, img := range t.Image {
			track.Images[j] = Image{Size: img.Size, URL: img.URL}
		}
		if uts, err := strconv.ParseInt(t.Date.UTS, 10, 64); err == nil {
			track.PlayedAt = time.Unix(uts, 0).UTC()
		}
		result.Tracks[i] = track
	}

	return result, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
