package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bimmerbailey/spell/internal/config"
	"github.com/bimmerbailey/spell/internal/llm/ollama"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Provider defines the interface for LLM interactions.
type Provider interface {
	// Chat sends messages and returns the complete response.
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error)

	// Heartbeat returns nil when the provider is reachable.
	Heartbeat(ctx context.Context) error

	// ModelAvailable reports whether the model is ready to use.
	ModelAvailable(ctx context.Context, model string) (bool, error)
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string
	Content string
}

// ChatOptions configures one request. A nil *ChatOptions uses provider
// defaults.
type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int // 0 leaves the provider default

	// JSON asks the provider to constrain the answer to a JSON value.
	JSON bool
}

// Response is a complete LLM answer.
type Response struct {
	Content      string
	Model        string
	TokensPrompt int
	TokensTotal  int
}

// Errors returned by providers. Provider packages define their own sentinels
// with the same text; adapters map them onto these.
var (
	ErrProviderUnavailable = errors.New("llm provider is not reachable")
	ErrModelNotFound       = errors.New("requested model is not available")
	ErrContextCanceled     = errors.New("operation was canceled")
)

// NewProvider creates the provider named by cfg.LLM.Provider.
func NewProvider(cfg *config.Config, logger *slog.Logger) (Provider, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	providerType := strings.ToLower(cfg.LLM.Provider)
	logger.Debug("creating llm provider", "type", providerType)

	switch providerType {
	case "ollama":
		oc := ollama.Config{
			Host:   cfg.LLM.Ollama.Host,
			Model:  cfg.LLM.Ollama.Model,
			NumCtx: cfg.LLM.Ollama.NumCtx,
		}
		if cfg.LLM.Ollama.KeepAlive != "" {
			d, err := config.ParseDuration(cfg.LLM.Ollama.KeepAlive)
			if err != nil {
				return nil, fmt.Errorf("invalid llm.ollama.keep_alive: %w", err)
			}
			oc.KeepAlive = d
		}
		p, err := ollama.New(oc, logger)
		if err != nil {
			return nil, mapOllamaError(err)
		}
		return &ollamaAdapter{provider: p}, nil

	case "":
		return nil, errors.New("llm provider not specified in configuration")

	default:
		return nil, fmt.Errorf("unknown llm provider: %s (supported: ollama)", providerType)
	}
}

// RequireModel checks the provider is reachable and the model is present.
func RequireModel(ctx context.Context, p Provider, model string) error {
	if err := p.Heartbeat(ctx); err != nil {
		return err
	}
	ok, err := p.ModelAvailable(ctx, model)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, model)
	}
	return nil
}

type ollamaAdapter struct {
	provider *ollama.Provider
}

func (a *ollamaAdapter) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*Response, error) {
	msgs := make([]ollama.Message, len(messages))
	for i, m := range messages {
		msgs[i] = ollama.Message{Role: m.Role, Content: m.Content}
	}

	var oo *ollama.ChatOptions
	if opts != nil {
		oo = &ollama.ChatOptions{
			Model:       opts.Model,
			Temperature: opts.Temperature,
			MaxTokens:   opts.MaxTokens,
			JSON:        opts.JSON,
		}
	}

	resp, err := a.provider.Chat(ctx, msgs, oo)
	if err != nil {
		return nil, mapOllamaError(err)
	}
	return &Response{
		Content:      resp.Content,
		Model:        resp.Model,
		TokensPrompt: resp.TokensPrompt,
		TokensTotal:  resp.TokensTotal,
	}, nil
}

func (a *ollamaAdapter) Heartbeat(ctx context.Context) error {
	return mapOllamaError(a.provider.Heartbeat(ctx))
}

func (a *ollamaAdapter) ModelAvailable(ctx context.Context, model string) (bool, error) {
	ok, err := a.provider.ModelAvailable(ctx, model)
	return ok, mapOllamaError(err)
}

func mapOllamaError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ollama.ErrContextCanceled):
		return fmt.Errorf("%w: %v", ErrContextCanceled, err)
	case errors.Is(err, ollama.ErrProviderUnavailable):
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	default:
		return err
	}
}
