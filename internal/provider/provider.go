package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"roomchat/internal/chat"

	openai "github.com/sashabaranov/go-openai"
)

// Turn 一条对话历史 / one history entry sent to the model
type Turn struct {
	Role    chat.Role
	Content string
}

// CompletionRequest 封装一次补全请求，参数已填好默认值
// CompletionRequest is one completion call with defaults already applied.
type CompletionRequest struct {
	APIKey           string
	SystemPrompt     string
	Messages         []Turn
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	FrequencyPenalty float64
	PresencePenalty  float64
}

// ModelInfo 模型基本信息
// ModelInfo describes a model
type ModelInfo struct {
	ID      string
	OwnedBy string
	Created int64
}

// Provider 模型提供方接口
// Provider is the completion backend.
type Provider interface {
	// Complete 发送请求并返回生成文本；失败时返回 *CompletionError
	// Complete returns the generated text; failures are *CompletionError
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// ListModels 列出可用模型
	// ListModels lists available models
	ListModels(ctx context.Context, apiKey string) ([]ModelInfo, error)

	// Name 返回 provider 名称
	// Name returns the provider name
	Name() string
}

// ErrorKind categorizes completion failures.
type ErrorKind string

const (
	KindInvalidCredential ErrorKind = "invalid_credential"
	KindRateLimited       ErrorKind = "rate_limited"
	KindQuotaExceeded     ErrorKind = "quota_exceeded"
	KindNetwork           ErrorKind = "network"
	KindUnknown           ErrorKind = "unknown"
)

// CompletionError is a categorized completion failure.
type CompletionError struct {
	Kind ErrorKind
	Err  error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion %s: %v", e.Kind, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the call may succeed when repeated.
func (e *CompletionError) Retryable() bool {
	return e.Kind == KindNetwork || e.Kind == KindRateLimited
}

// KindOf returns the category of err; errors that are not
// *CompletionError are classified first.
func KindOf(err error) ErrorKind {
	if err == nil {
		return ""
	}
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return Classify(err).Kind
}

// Classify wraps err in a *CompletionError. Typed SDK errors are inspected
// first, then transport errors, then the message text.
func Classify(err error) *CompletionError {
	var ce *CompletionError
	if errors.As(err, &ce) {
		return ce
	}
	return &CompletionError{Kind: classifyKind(err), Err: err}
}

func classifyKind(err error) ErrorKind {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		if kind := kindFromStatus(apiErr.HTTPStatusCode, code, apiErr.Type); kind != "" {
			return kind
		}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if kind := kindFromStatus(reqErr.HTTPStatusCode, "", string(reqErr.Body)); kind != "" {
			return kind
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetwork
	}

	// 按消息文本兜底分类 / fall back to the message text
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api_key"), strings.Contains(msg, "api key"):
		return KindInvalidCredential
	case strings.Contains(msg, "rate_limit"):
		return KindRateLimited
	case strings.Contains(msg, "insufficient_quota"):
		return KindQuotaExceeded
	case strings.Contains(msg, "network"):
		return KindNetwork
	}
	return KindUnknown
}

func kindFromStatus(status int, code, detail string) ErrorKind {
	if code == "insufficient_quota" || strings.Contains(detail, "insufficient_quota") {
		return KindQuotaExceeded
	}
	switch {
	case status == 401 || code == "invalid_api_key":
		return KindInvalidCredential
	case status == 429:
		return KindRateLimited
	}
	return ""
}
