// Package deepgram transcribes audio with the Deepgram pre-recorded API.
//
// Only the parts the transcription worker uses are implemented: a single
// POST to /v1/listen with either a URL or an audio body, and conversion of
// the response into timed, speaker-labelled segments.
package deepgram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const DefaultBaseURL = "https://api.deepgram.com"

var (
	ErrNotConfigured = errors.New("deepgram: api key is not set")
	ErrRequest       = errors.New("deepgram: request failed")
	ErrDecode        = errors.New("deepgram: malformed response")
	ErrNoSpeech      = errors.New("deepgram: no speech detected")
)

// Config is loaded with the DEEPGRAM_ prefix.
type Config struct {
	APIKey  string        `env:"API_KEY"`
	BaseURL string        `env:"BASE_URL" envDefault:"https://api.deepgram.com"`
	Model   string        `env:"MODEL" envDefault:"nova-3"`
	Timeout time.Duration `env:"TIMEOUT" envDefault:"15m"`
}

// Enabled reports whether an API key is set.
func (c Config) Enabled() bool { return c.APIKey != "" }

// Segment is one utterance of the transcript.
type Segment struct {
	StartMs       int64  `json:"StartMs"`
	EndMs         int64  `json:"EndMs"`
	FinalSentence string `json:"FinalSentence"`
	SpeakerID     string `json:"SpeakerId"`
}

// Options tune a single transcription.
type Options struct {
	Language string // "en", "zh" or a Deepgram language code
	Diarize  bool
}

var languages = map[string]string{
	"en": "en-US",
	"zh": "zh-CN",
	"ja": "ja",
	"es": "es",
	"fr": "fr",
	"de": "de",
	"it": "it",
	"pt": "pt",
	"ru": "ru",
	"ko": "ko",
}

// LanguageCode maps a short language to the code Deepgram expects.
// Unknown values fall back to en-US.
func LanguageCode(lang string) string {
	if code, ok := languages[lang]; ok {
		return code
	}
	return "en-US"
}

// Client is safe for concurrent use.
type Client struct {
	http    *http.Client
	baseURL string
	apiKey  string
	model   string
}

// New builds a client. It fails when cfg has no API key.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 15 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	c := &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.model == "" {
		c.model = "nova-3"
	}
	return c, nil
}

// TranscribeURL lets Deepgram fetch the audio itself.
func (c *Client) TranscribeURL(ctx context.Context, audioURL string, opts Options) ([]Segment, error) {
	body, err := json.Marshal(map[string]string{"url": audioURL})
	if err != nil {
		return nil, err
	}
	return c.listen(ctx, bytes.NewReader(body), "application/json", opts)
}

// TranscribeReader uploads audio from r.
func (c *Client) TranscribeReader(ctx context.Context, r io.Reader, contentType string, opts Options) ([]Segment, error) {
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return c.listen(ctx, r, contentType, opts)
}

func (c *Client) listen(ctx context.Context, body io.Reader, contentType string, opts Options) ([]Segment, error) {
	q := url.Values{}
	q.Set("model", c.model)
	q.Set("language", LanguageCode(opts.Language))
	q.Set("punctuate", "true")
	q.Set("diarize", strconv.FormatBool(opts.Diarize))
	q.Set("smart_format", "true")
	q.Set("utterances", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/listen?"+q.Encode(), body)
	if err != nil {
		return nil, errors.Join(ErrRequest, err)
	}
	req.Header.Set("Authorization", "Token "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequest, resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out listenResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}

	segments := out.segments(opts.Diarize)
	if len(segments) == 0 {
		return nil, ErrNoSpeech
	}
	if opts.Language == "zh" {
		cleanSegments(segments)
	}
	return segments, nil
}
