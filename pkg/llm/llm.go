// Package llm streams text completions from Anthropic or OpenAI behind one
// Provider interface. The provider is picked from configuration: an explicit
// LLM_PROVIDER wins, otherwise an Anthropic key is preferred over an OpenAI
// key.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"

	DefaultAnthropicModel = "claude-sonnet-4-5-20250929"
	DefaultOpenAIModel    = "gpt-5.1"
	DefaultMaxTokens      = 10000
)

var (
	ErrNotConfigured   = errors.New("llm: no api key is set")
	ErrUnknownProvider = errors.New("llm: unknown provider")
	ErrEmptyPrompt     = errors.New("llm: prompt is empty")
	ErrStream          = errors.New("llm: stream failed")
)

// Config reads the vendor key variables as they are commonly named, so it
// is embedded in the service config without a prefix.
type Config struct {
	Provider     string        `env:"LLM_PROVIDER"`
	Model        string        `env:"LLM_MODEL"`
	MaxTokens    int64         `env:"LLM_MAX_TOKENS" envDefault:"10000"`
	Temperature  float64       `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	Timeout      time.Duration `env:"LLM_TIMEOUT" envDefault:"10m"`
	BaseURL      string        `env:"LLM_BASE_URL"`
	AnthropicKey string        `env:"ANTHROPIC_API_KEY"`
	OpenAIKey    string        `env:"OPENAI_API_KEY"`
}

// Enabled reports whether any provider can be built.
func (c Config) Enabled() bool { return c.AnthropicKey != "" || c.OpenAIKey != "" }

// Detect returns the provider name New would use.
func (c Config) Detect() (string, error) {
	switch p := strings.ToLower(strings.TrimSpace(c.Provider)); p {
	case ProviderAnthropic:
		if c.AnthropicKey == "" {
			return "", fmt.Errorf("%w: ANTHROPIC_API_KEY", ErrNotConfigured)
		}
		return p, nil
	case ProviderOpenAI:
		if c.OpenAIKey == "" {
			return "", fmt.Errorf("%w: OPENAI_API_KEY", ErrNotConfigured)
		}
		return p, nil
	case "":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	switch {
	case c.AnthropicKey != "":
		return ProviderAnthropic, nil
	case c.OpenAIKey != "":
		return ProviderOpenAI, nil
	}
	return "", ErrNotConfigured
}

// Request is one completion.
type Request struct {
	System string
	Prompt string
	// Zero values fall back to the configured limits.
	MaxTokens   int64
	Temperature float64
}

// Provider streams completions. Stream calls emit with each text delta in
// order and stops at the first error emit returns.
type Provider interface {
	Name() string
	Model() string
	Stream(ctx context.Context, req Request, emit func(string) error) error
}

// New builds the configured provider. httpClient may be nil.
func New(cfg Config, httpClient *http.Client) (Provider, error) {
	name, err := cfg.Detect()
	if err != nil {
		return nil, err
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultMaxTokens
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if name == ProviderAnthropic {
		return newAnthropic(cfg, httpClient), nil
	}
	return newOpenAI(cfg, httpClient), nil
}

// Generate collects a whole completion.
func Generate(ctx context.Context, p Provider, req Request) (string, error) {
	var b strings.Builder
	err := p.Stream(ctx, req, func(s string) error {
		b.WriteString(s)
		return nil
	})
	return b.String(), err
}

func (r Request) validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return ErrEmptyPrompt
	}
	return nil
}

func (r Request) limits(cfg Config) (int64, float64) {
	maxTokens, temp := r.MaxTokens, r.Temperature
	if maxTokens <= 0 {
		maxTokens = cfg.MaxTokens
	}
	if temp <= 0 {
		temp = cfg.Temperature
	}
	return maxTokens, temp
}
