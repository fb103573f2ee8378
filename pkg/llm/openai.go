package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIProvider struct {
	client openai.Client
	model  string
	cfg    Config
}

func newOpenAI(cfg Config, httpClient *http.Client) *openAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAIKey),
		option.WithHTTPClient(httpClient),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	model := cfg.Model
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &openAIProvider{client: openai.NewClient(opts...), model: model, cfg: cfg}
}

func (p *openAIProvider) Name() string  { return ProviderOpenAI }
func (p *openAIProvider) Model() string { return p.model }

// Stream leaves temperature at the model default: the gpt-5 family rejects
// anything else.
func (p *openAIProvider) Stream(ctx context.Context, req Request, emit func(string) error) error {
	if err := req.validate(); err != nil {
		return err
	}
	maxTokens, _ := req.limits(p.cfg)

	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	stream := p.client.Chat.Completions.NewStreaming(ctx, openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(p.model),
		Messages:            messages,
		MaxCompletionTokens: openai.Int(maxTokens),
	})
	defer stream.Close()
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
			continue
		}
		if err := emit(chunk.Choices[0].Delta.Content); err != nil {
			return err
		}
	}
	if err := stream.Err(); err != nil {
		return errors.Join(ErrStream, err)
	}
	return nil
}
