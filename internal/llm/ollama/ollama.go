// Package ollama talks to a local Ollama server through its official API
// client.
//
// The package defines its own Message, ChatOptions and Response types so that
// it does not import the parent llm package. The llm package adapts them.
package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultModel is used when the config names none.
const DefaultModel = "llama3.2"

// Provider sends chat requests to one Ollama server.
type Provider struct {
	client *api.Client
	config Config
	logger *slog.Logger
}

// Config holds Ollama-specific configuration.
type Config struct {
	// Host is the API endpoint, e.g. "http://localhost:11434". Empty falls
	// back to OLLAMA_HOST.
	Host string

	// Model is the default model for requests that do not name one.
	Model string

	// KeepAlive is how long the server keeps the model loaded after a
	// request. Zero leaves the server default.
	KeepAlive time.Duration

	// NumCtx overrides the context window size when positive.
	NumCtx int
}

// Message is a single chat message.
type Message struct {
	Role    string
	Content string
}

// ChatOptions configures one request.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int

	// JSON asks the server to constrain the answer to a JSON value.
	JSON bool
}

// Response is a complete chat answer.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

var (
	ErrProviderUnavailable = errors.New("llm provider is not reachable")
	ErrContextCanceled     = errors.New("operation was canceled")
)

// New creates a Provider. An empty cfg.Host uses the OLLAMA_HOST environment
// variable or the client default.
func New(cfg Config, logger *slog.Logger) (*Provider, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	var client *api.Client
	if cfg.Host != "" {
		u, err := url.Parse(cfg.Host)
		if err != nil {
			logger.Error("invalid ollama host URL", "host", cfg.Host, "error", err)
			return nil, fmt.Errorf("invalid ollama host: %w", err)
		}
		client = api.NewClient(u, http.DefaultClient)
		logger.Debug("created ollama client", "host", cfg.Host)
	} else {
		c, err := api.ClientFromEnvironment()
		if err != nil {
			logger.Error("failed to create ollama client from environment", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		client = c
		logger.Debug("created ollama client from environment")
	}

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	return &Provider{client: client, config: cfg, logger: logger}, nil
}

// Model returns the default model name.
func (p *Provider) Model() string {
	return p.config.Model
}

// Chat sends messages and waits for the complete answer.
func (p *Provider) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	if len(messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	req := p.request(messages, opts)
	p.logger.Debug("sending chat request", "model", req.Model, "messages", len(messages))

	var resp api.ChatResponse
	err := p.client.Chat(ctx, req, func(r api.ChatResponse) error {
		resp = r
		return nil
	})
	if err != nil {
		p.logger.Error("chat request failed", "error", err, "model", req.Model)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", ErrContextCanceled, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	p.logger.Debug("chat request completed",
		"model", resp.Model,
		"prompt_tokens", resp.PromptEvalCount,
		"eval_tokens", resp.EvalCount)

	return &Response{
		Content:      resp.Message.Content,
		Model:        resp.Model,
		TokensPrompt: resp.PromptEvalCount,
		TokensTotal:  resp.PromptEvalCount + resp.EvalCount,
	}, nil
}

func (p *Provider) request(messages []Message, opts *ChatOptions) *api.ChatRequest {
	model := p.config.Model
	var temperature float32
	var maxTokens int
	var asJSON bool
	if opts != nil {
		if opts.Model != "" {
			model = opts.Model
		}
		temperature = opts.Temperature
		maxTokens = opts.MaxTokens
		asJSON = opts.JSON
	}

	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: m.Role, Content: m.Content}
	}

	stream := false
	req := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": temperature,
		},
	}
	if maxTokens > 0 {
		req.Options["num_predict"] = maxTokens
	}
	if p.config.NumCtx > 0 {
		req.Options["num_ctx"] = p.config.NumCtx
	}
	if p.config.KeepAlive > 0 {
		req.KeepAlive = &api.Duration{Duration: p.config.KeepAlive}
	}
	if asJSON {
		req.Format = json.RawMessage(`"json"`)
	}
	return req
}

// Heartbeat checks that the server is reachable.
func (p *Provider) Heartbeat(ctx context.Context) error {
	if err := p.client.Heartbeat(ctx); err != nil {
		p.logger.Error("ollama heartbeat failed", "error", err)
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	p.logger.Debug("ollama heartbeat successful")
	return nil
}

// ModelAvailable reports whether the model has been pulled on the server.
func (p *Provider) ModelAvailable(ctx context.Context, model string) (bool, error) {
	list, err := p.client.List(ctx)
	if err != nil {
		p.logger.Error("failed to list models", "error", err)
		return false, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	for _, m := range list.Models {
		if m.Name == model || m.Model == model {
			return true, nil
		}
	}
	p.logger.Debug("model not found", "model", model, "available", len(list.Models))
	return false, nil
}
