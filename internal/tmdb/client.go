// Package tmdb is a minimal client for The Movie Database search API.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelsort/internal/services"
)

// Movie is a single search result.
type Movie struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	OriginalTitle string  `json:"original_title"`
	ReleaseDate   string  `json:"release_date"`
	Popularity    float64 `json:"popularity"`
	VoteCount     int64   `json:"vote_count"`
}

// Year extracts the release year, or zero when the date is absent.
func (m Movie) Year() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

type searchResponse struct {
	Results []Movie `json:"results"`
}

// Client talks to the TMDB v3 API.
type Client struct {
	baseURL    string
	apiKey     string
	language   string
	httpClient *http.Client
}

// New builds a client. An empty API key is allowed; calls will fail with an
// external service error, which the lookup layer treats as "unverified".
func New(baseURL, apiKey, language string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		language:   language,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled reports whether the client has credentials to work with.
func (c *Client) Enabled() bool {
	return c.apiKey != ""
}

// SearchMovie queries the movie search endpoint, optionally constrained to a
// release year.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) ([]Movie, error) {
	if !c.Enabled() {
		return nil, services.Wrap(services.ErrConfiguration, "tmdb", "search",
			"no api key configured", nil)
	}

	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("query", title)
	query.Set("include_adult", "false")
	if c.language != "" {
		query.Set("language", c.language)
	}
	if year > 0 {
		query.Set("primary_release_year", strconv.Itoa(year))
	}

	endpoint := fmt.Sprintf("%s/search/movie?%s", c.baseURL, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "tmdb", "search", "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "tmdb", "search", "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, services.Wrap(services.ErrTransient, "tmdb", "search",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	default:
		return nil, services.Wrap(services.ErrExternalTool, "tmdb", "search",
			fmt.Sprintf("status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "tmdb", "search", "read response", err)
	}

	var parsed searchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "tmdb", "search", "decode response", err)
	}
	return parsed.Results, nil
}
