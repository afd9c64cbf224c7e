// Package lastfm provides a client library for the Last.fm API 2.0.
//
// # Overview
//
// This package implements a small Go client for the read-only parts of the
// Last.fm JSON API, focusing on a user's listening history. It provides a
// type-safe API with context support and structured errors.
//
// # Installation
//
//	go get github.com/jfmyers9/lastfm-banner/pkg/lastfm
//
// # Quick Start
//
// Create a client with your API key:
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey: "your-api-key",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Recent Tracks
//
//	page, err := client.User().GetRecentTracks(ctx, lastfm.RecentTracksParams{
//	    User:     "rj",
//	    Limit:    200,
//	    Extended: true,
//	})
//
// Artist and album references arrive from Last.fm either as plain strings or
// as objects, depending on the request. The client normalizes both shapes, so
// RecentTrack.Artist and RecentTrack.Album are always plain strings (empty
// when Last.fm omitted them). Artwork candidates are kept in the order
// Last.fm sends them: smallest first.
//
// # Error Handling
//
// API failures are returned as *Error values carrying the Last.fm error code:
//
//	page, err := client.User().GetRecentTracks(ctx, params)
//	if err != nil {
//	    var lastfmErr *lastfm.Error
//	    if errors.As(err, &lastfmErr) && lastfmErr.Code == lastfm.ErrCodeInvalidAPIKey {
//	        // Bad credentials
//	    }
//	}
//
// Bodies that are not valid JSON, or lack the expected top-level object,
// wrap ErrMalformedResponse. The client never retries.
//
// # Configuration
//
// The client can be configured with custom HTTP clients, base URLs (for testing),
// and optional loggers:
//
//	client, err := lastfm.NewClient(lastfm.Config{
//	    APIKey:     "your-api-key",
//	    HTTPClient: &http.Client{Timeout: 20 * time.Second},
//	    Logger:     myLogger, // Implements lastfm.Logger interface
//	})
//
// # API Coverage
//
// Currently implemented:
//   - User history (user.getRecentTracks)
//
// # Last.fm API Documentation
//
// For more information about the Last.fm API:
// https://www.last.fm/api/show/user.getRecentTracks
package lastfm
