package provider

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"roomchat/internal/chat"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig SDK provider 配置
// OpenAIConfig is the SDK provider configuration
type OpenAIConfig struct {
	BaseURL    string
	TimeoutMS  int
	MaxRetries int
	// HTTPClient 可选，覆盖默认客户端 / optional, replaces the default client
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// OpenAIProvider 使用 go-openai SDK 的 Provider 实现
// OpenAIProvider implements Provider using the go-openai SDK. The API key
// travels with each request; one SDK client is kept per key.
type OpenAIProvider struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	log        zerolog.Logger

	mu      sync.Mutex
	clients map[string]*openai.Client
}

// NewOpenAIProvider 创建基于 SDK 的 provider
// NewOpenAIProvider creates an SDK-based provider
func NewOpenAIProvider(cfg OpenAIConfig) *OpenAIProvider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
		if cfg.TimeoutMS > 0 {
			httpClient.Timeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
		}
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &OpenAIProvider{
		cfg:        cfg,
		httpClient: httpClient,
		log:        cfg.Logger.With().Str("component", "provider").Logger(),
		clients:    make(map[string]*openai.Client),
	}
}

func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) client(apiKey string) *openai.Client {
	apiKey = strings.TrimSpace(apiKey)
	p.mu.Lock()
	defer p.mu.Unlock()
	if c, ok := p.clients[apiKey]; ok {
		return c
	}
	config := openai.DefaultConfig(apiKey)
	if base := strings.TrimRight(strings.TrimSpace(p.cfg.BaseURL), "/"); base != "" {
		config.BaseURL = base
	}
	config.HTTPClient = p.httpClient
	c := openai.NewClientWithConfig(config)
	p.clients[apiKey] = c
	return c
}

func (p *OpenAIProvider) ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error) {
	resp, err := p.client(apiKey).ListModels(ctx)
	if err != nil {
		return nil, Classify(fmt.Errorf("list models: %w", err))
	}
	models := make([]ModelInfo, 0, len(resp.Models))
	for _, m := range resp.Models {
		models = append(models, ModelInfo{
			ID:      m.ID,
			OwnedBy: m.OwnedBy,
			Created: m.CreatedAt,
		})
	}
	return models, nil
}

// Complete 非流式补全，仅对网络与限流错误重试
// Complete runs a non-streaming chat completion. Only network and rate-limit
// failures are retried, with exponential backoff.
func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	sdkReq := buildSDKRequest(req)
	client := p.client(req.APIKey)

	var lastErr *CompletionError
	for attempt := 0; attempt <= p.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(150*(1<<(attempt-1))) * time.Millisecond
			select {
			case <-ctx.Done():
				return "", Classify(ctx.Err())
			case <-time.After(backoff):
			}
		}

		resp, err := client.CreateChatCompletion(ctx, sdkReq)
		if err == nil {
			if len(resp.Choices) == 0 {
				return "", nil
			}
			return resp.Choices[0].Message.Content, nil
		}
		lastErr = Classify(err)
		p.log.Warn().Err(err).Str("kind", string(lastErr.Kind)).Int("attempt", attempt+1).Str("model", sdkReq.Model).Msg("completion failed")

		// 不可重试的错误 / Non-retryable errors
		if errors.Is(err, context.Canceled) || !lastErr.Retryable() || ctx.Err() != nil {
			return "", lastErr
		}
	}
	return "", lastErr
}

func buildSDKRequest(req CompletionRequest) openai.ChatCompletionRequest {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == chat.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return openai.ChatCompletionRequest{
		Model:            req.Model,
		Messages:         messages,
		Temperature:      float32(req.Temperature),
		MaxTokens:        req.MaxTokens,
		TopP:             float32(req.TopP),
		FrequencyPenalty: float32(req.FrequencyPenalty),
		PresencePenalty:  float32(req.PresencePenalty),
	}
}
