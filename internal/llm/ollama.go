package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/agora-edu/agora-dialogue/internal/httpkit"
)

// OllamaClient implements Client against a local Ollama server.
//
// Ollama keeps no server-side conversation state and issues no response
// identifiers; Request.PreviousResponseID is ignored and
// Completion.ResponseID is always empty.
type OllamaClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewOllamaClient creates a new Ollama client.
func NewOllamaClient(baseURL, model string) *OllamaClient {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	return &OllamaClient{
		baseURL: baseURL,
		model:   model,
		// No overall timeout: streamed generations hold the body open.
		// Context cancellation remains the caller's stop lever.
		httpClient: httpkit.NewClient(httpkit.WithTimeout(0)),
	}
}

// chatRequest is the request format for the Ollama chat API.
type chatRequest struct {
	Model    string       `json:"model"`
	Messages []Message    `json:"messages"`
	Stream   bool         `json:"stream"`
	Options  *chatOptions `json:"options,omitempty"`
}

// chatOptions are model parameters.
type chatOptions struct {
	NumPredict int `json:"num_predict,omitempty"`
}

// chatResponse is one response object from the Ollama chat API. In streaming
// mode one of these arrives per line (NDJSON); the final one has Done set and
// carries usage stats.
type chatResponse struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`
	Done      bool    `json:"done"`

	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

func (c *OllamaClient) messages(req Request) []Message {
	var msgs []Message
	if req.System != "" {
		msgs = append(msgs, Message{Role: RoleSystem, Content: req.System})
	}
	msgs = append(msgs, req.History...)
	msgs = append(msgs, Message{Role: RoleUser, Content: req.Input})
	return msgs
}

// Complete runs one generation and returns the full text.
func (c *OllamaClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	return c.Stream(ctx, req, nil)
}

// Stream runs one generation, delivering chunks to fn as they arrive.
// With a nil fn the request is made non-streaming and the single response
// body is returned whole.
func (c *OllamaClient) Stream(ctx context.Context, req Request, fn StreamFunc) (*Completion, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	body := chatRequest{
		Model:    model,
		Messages: c.messages(req),
		Stream:   fn != nil,
	}
	if req.MaxTokens > 0 {
		body.Options = &chatOptions{NumPredict: req.MaxTokens}
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("ollama: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("ollama: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ollama: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ollama: API error %d: %s", resp.StatusCode, string(b))
	}

	if fn == nil {
		var cr chatResponse
		if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
			return nil, fmt.Errorf("ollama: decode response: %w", err)
		}
		return &Completion{
			Content:      cr.Message.Content,
			Model:        cr.Model,
			InputTokens:  cr.PromptEvalCount,
			OutputTokens: cr.EvalCount,
		}, nil
	}

	// Streaming: read newline-delimited JSON. Closing the body on return is
	// what stops the backend promptly when the consumer cancels.
	var sb strings.Builder
	comp := &Completion{}
	decoder := json.NewDecoder(resp.Body)

	for {
		var chunk chatResponse
		if err := decoder.Decode(&chunk); err != nil {
			if err == io.EOF {
				break
			}
			comp.Content = sb.String()
			return comp, fmt.Errorf("ollama: decode stream chunk: %w", err)
		}

		if comp.Model == "" {
			comp.Model = chunk.Model
		}

		if chunk.Message.Content != "" {
			sb.WriteString(chunk.Message.Content)
			if err := fn(chunk.Message.Content); err != nil {
				comp.Content = sb.String()
				return comp, fmt.Errorf("ollama: stream consumer: %w", err)
			}
		}

		if chunk.Done {
			comp.InputTokens = chunk.PromptEvalCount
			comp.OutputTokens = chunk.EvalCount
			break
		}
	}

	comp.Content = sb.String()
	return comp, nil
}

// Ping checks if Ollama is reachable.
func (c *OllamaClient) Ping(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("ollama: create request: %w", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("ollama: request failed: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama: API error %d", resp.StatusCode)
	}

	return nil
}
