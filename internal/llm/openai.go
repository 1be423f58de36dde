package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAIClient implements Client using the official openai-go SDK
// (chat completions, streaming and batch).
//
// Chat completions are stateless: the full history is resent on every call,
// so Request.PreviousResponseID is ignored here. The completion ID is still
// surfaced as Completion.ResponseID so callers can round-trip it.
type OpenAIClient struct {
	client openai.Client
	model  string
}

// NewOpenAIClient creates an OpenAI-backed client. apiKey and model are
// required; baseURL is optional and overrides the default API endpoint
// (useful for proxies and tests).
func NewOpenAIClient(apiKey, baseURL, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, errors.New("llm: openai api key missing")
	}
	if model == "" {
		return nil, errors.New("llm: model name required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIClient{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

func (c *OpenAIClient) params(req Request) openai.ChatCompletionNewParams {
	var msgs []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		msgs = append(msgs, openai.SystemMessage(req.System))
	}
	for _, m := range req.History {
		switch m.Role {
		case RoleAssistant:
			msgs = append(msgs, openai.ChatCompletionMessageParamOfAssistant(m.Content))
		default:
			msgs = append(msgs, openai.UserMessage(m.Content))
		}
	}
	msgs = append(msgs, openai.UserMessage(req.Input))

	model := req.Model
	if model == "" {
		model = c.model
	}

	p := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: msgs,
	}
	if req.MaxTokens > 0 {
		p.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}
	return p
}

// Complete runs one generation and returns the full text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	return c.Stream(ctx, req, nil)
}

// Stream runs one generation, delivering chunks to fn as they arrive.
func (c *OpenAIClient) Stream(ctx context.Context, req Request, fn StreamFunc) (*Completion, error) {
	params := c.params(req)

	if fn == nil {
		resp, err := c.client.Chat.Completions.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("openai: %w", err)
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("openai: empty choices")
		}
		return &Completion{
			Content:      resp.Choices[0].Message.Content,
			ResponseID:   resp.ID,
			Model:        string(resp.Model),
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		}, nil
	}

	stream := c.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	acc := openai.ChatCompletionAccumulator{}
	var sb strings.Builder
	var id, model string

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if id == "" {
			id = chunk.ID
		}
		if model == "" {
			model = chunk.Model
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		sb.WriteString(delta)
		if err := fn(delta); err != nil {
			return &Completion{Content: sb.String(), ResponseID: id, Model: model},
				fmt.Errorf("openai: stream consumer: %w", err)
		}
	}
	if err := stream.Err(); err != nil {
		return &Completion{Content: sb.String(), ResponseID: id, Model: model},
			fmt.Errorf("openai: stream: %w", err)
	}

	return &Completion{
		Content:      sb.String(),
		ResponseID:   id,
		Model:        model,
		InputTokens:  int(acc.Usage.PromptTokens),
		OutputTokens: int(acc.Usage.CompletionTokens),
	}, nil
}

// Ping checks if the provider is reachable.
func (c *OpenAIClient) Ping(ctx context.Context) error {
	if _, err := c.client.Models.List(ctx); err != nil {
		return fmt.Errorf("openai: ping: %w", err)
	}
	return nil
}
