// Package itunes is a client for the public iTunes Search API, limited to
// podcasts and podcast episodes.
package itunes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	DefaultBaseURL = "https://itunes.apple.com"
	DefaultLimit   = 20
	MaxLimit       = 200
)

var (
	ErrEmptyTerm    = errors.New("itunes: search term is empty")
	ErrInvalidID    = errors.New("itunes: invalid collection id")
	ErrUpstream     = errors.New("itunes: upstream error")
	ErrDecode       = errors.New("itunes: malformed response")
	ErrNotAPodcast  = errors.New("itunes: collection is not a podcast")
	errRateLimited  = errors.New("itunes: rate limited")
	errServerFailed = errors.New("itunes: server error")
)

// Config is loaded with the ITUNES_ prefix.
type Config struct {
	BaseURL    string        `env:"BASE_URL" envDefault:"https://itunes.apple.com"`
	Country    string        `env:"COUNTRY" envDefault:"US"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"10s"`
	MaxRetries uint          `env:"MAX_RETRIES" envDefault:"3"`
	CacheTTL   time.Duration `env:"CACHE_TTL" envDefault:"1h"`
	CacheSize  int           `env:"CACHE_SIZE" envDefault:"1000"`
}

// SearchParams narrows a podcast search.
type SearchParams struct {
	Term    string
	Country string // two-letter store code, defaults to Config.Country
	Limit   int    // clamped to 1..MaxLimit, 0 means DefaultLimit
	Entity  string // "podcast" or "podcastEpisode", defaults to "podcast"
}

// Result is a podcast or an episode as returned by the API. Fields that do
// not apply to the wrapper type are left empty.
type Result struct {
	WrapperType      string    `json:"wrapperType"`
	Kind             string    `json:"kind,omitempty"`
	CollectionID     int64     `json:"collectionId"`
	TrackID          int64     `json:"trackId,omitempty"`
	CollectionName   string    `json:"collectionName"`
	TrackName        string    `json:"trackName,omitempty"`
	ArtistName       string    `json:"artistName,omitempty"`
	FeedURL          string    `json:"feedUrl,omitempty"`
	ArtworkURL600    string    `json:"artworkUrl600,omitempty"`
	ArtworkURL100    string    `json:"artworkUrl100,omitempty"`
	PrimaryGenreName string    `json:"primaryGenreName,omitempty"`
	Genres           []string  `json:"genres,omitempty"`
	TrackCount       int       `json:"trackCount,omitempty"`
	Country          string    `json:"country,omitempty"`
	ReleaseDate      time.Time `json:"releaseDate,omitzero"`

	// Episode fields.
	Description       string `json:"description,omitempty"`
	ShortDescription  string `json:"shortDescription,omitempty"`
	EpisodeURL        string `json:"episodeUrl,omitempty"`
	EpisodeGUID       string `json:"episodeGuid,omitempty"`
	EpisodeExtension  string `json:"episodeFileExtension,omitempty"`
	EpisodeType       string `json:"episodeContentType,omitempty"`
	TrackTimeMillis   int64  `json:"trackTimeMillis,omitempty"`
	TrackViewURL      string `json:"trackViewUrl,omitempty"`
	CollectionViewURL string `json:"collectionViewUrl,omitempty"`
}

// IsEpisode reports whether r is a podcast episode.
func (r Result) IsEpisode() bool {
	return r.WrapperType == "podcastEpisode"
}

// Duration is the episode length.
func (r Result) Duration() time.Duration {
	return time.Duration(r.TrackTimeMillis) * time.Millisecond
}

type response struct {
	ResultCount int      `json:"resultCount"`
	Results     []Result `json:"results"`
}

// Client calls the API. It is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	country string
	retries uint
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// New builds a client from cfg.
func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		country: cfg.Country,
		retries: cfg.MaxRetries,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.country == "" {
		c.country = "US"
	}
	if c.retries == 0 {
		c.retries = 1
	}
	if cfg.Timeout <= 0 {
		c.http.Timeout = 10 * time.Second
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search finds podcasts (or episodes) matching p.Term.
func (c *Client) Search(ctx context.Context, p SearchParams) ([]Result, error) {
	term := strings.TrimSpace(p.Term)
	if term == "" {
		return nil, ErrEmptyTerm
	}
	entity := p.Entity
	if entity == "" {
		entity = "podcast"
	}
	country := p.Country
	if country == "" {
		country = c.country
	}

	q := url.Values{}
	q.Set("term", term)
	q.Set("media", "podcast")
	q.Set("entity", entity)
	q.Set("country", country)
	q.Set("limit", strconv.Itoa(ClampLimit(p.Limit)))

	return c.get(ctx, "/search", q)
}

// LookupEpisodes returns the latest episodes of a podcast, newest first.
// The podcast itself is dropped from the result.
func (c *Client) LookupEpisodes(ctx context.Context, collectionID int64, limit int) ([]Result, error) {
	if collectionID <= 0 {
		return nil, ErrInvalidID
	}

	q := url.Values{}
	q.Set("id", strconv.FormatInt(collectionID, 10))
	q.Set("media", "podcast")
	q.Set("entity", "podcastEpisode")
	q.Set("limit", strconv.Itoa(ClampLimit(limit)))

	results, err := c.get(ctx, "/lookup", q)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotAPodcast
	}

	episodes := make([]Result, 0, len(results))
	for _, r := range results {
		if r.IsEpisode() {
			episodes = append(episodes, r)
		}
	}
	return episodes, nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]Result, error) {
	u := c.baseURL + path + "?" + q.Encode()

	op := func() ([]Result, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, backoff.Permanent(err)
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, errRateLimited
		case resp.StatusCode >= http.StatusInternalServerError:
			return nil, fmt.Errorf("%w: status %d", errServerFailed, resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return nil, backoff.Permanent(fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode))
		}

		var body response
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, backoff.Permanent(errors.Join(ErrDecode, err))
		}
		return body.Results, nil
	}

	results, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(c.retries),
	)
	if err != nil {
		if errors.Is(err, errRateLimited) || errors.Is(err, errServerFailed) {
			return nil, errors.Join(ErrUpstream, err)
		}
		return nil, err
	}
	return results, nil
}

// ClampLimit maps 0 to DefaultLimit and bounds n to 1..MaxLimit.
func ClampLimit(n int) int {
	switch {
	case n == 0:
		return DefaultLimit
	case n < 1:
		return 1
	case n > MaxLimit:
		return MaxLimit
	}
	return n
}
