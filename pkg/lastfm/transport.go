package lastfm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

const (
	formatJSON = "json"
	userAgent  = "lastfm-banner/1.0"
)

// call makes a single HTTP GET request to the Last.fm API.
//
// It handles:
// - Request construction with method, api_key and format parameters
// - JSON validation of the response body
// - Last.fm error envelopes ({"error": N, "message": "..."})
// - Context cancellation
//
// No retry is attempted. The returned bytes are the raw JSON body.
func (c *Client) call(ctx context.Context, method string, params map[string]string) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query.Set(k, v)
	}
	query.Set("method", method)
	query.Set("api_key", c.apiKey)
	query.Set("format", formatJSON)

	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	endpoint.RawQuery = query.Encode()

	c.logDebugf("lastfm: calling %s", method)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	// Last.fm reports API errors as JSON, often alongside a 4xx status,
	// so look for the envelope before judging the status code.
	if gjson.ValidBytes(body) {
		if code := gjson.GetBytes(body, "error"); code.Exists() {
			return nil, &Error{
				Code:    int(code.Int()),
				Message: gjson.GetBytes(body, "message").String(),
			}
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: %s returned invalid JSON", ErrMalformedResponse, method)
	}

	c.logDebugf("lastfm: %s succeeded (%d bytes)", method, len(body))
	return body, nil
}
