package contextmgr

import (
	"strings"
	"sync"

	"roomchat/internal/provider"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Tokenizer 精确 token 计数器，支持 tiktoken 和启发式回退
// Tokenizer provides precise token counting with tiktoken and heuristic
// fallback. Encoders are loaded lazily, one per encoding name.
type Tokenizer struct {
	mu       sync.Mutex
	encoders map[string]*tiktoken.Tiktoken
	failed   map[string]bool
	// load 可替换，便于测试离线场景 / replaceable for offline tests
	load func(encoding string) (*tiktoken.Tiktoken, error)
}

// Stats 一次请求的上下文统计 / context size of one request
type Stats struct {
	Messages int
	Tokens   int
	Encoding string
	Precise  bool
}

var (
	defaultTokenizer     *Tokenizer
	defaultTokenizerOnce sync.Once
)

// DefaultTokenizer 返回全局默认的 tokenizer 实例
// DefaultTokenizer returns the global default tokenizer instance
func DefaultTokenizer() *Tokenizer {
	defaultTokenizerOnce.Do(func() {
		defaultTokenizer = NewTokenizer()
	})
	return defaultTokenizer
}

// NewTokenizer 创建 tokenizer
// NewTokenizer creates a tokenizer backed by tiktoken.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{
		encoders: make(map[string]*tiktoken.Tiktoken),
		failed:   make(map[string]bool),
		load:     tiktoken.GetEncoding,
	}
}

// NewHeuristicTokenizer never loads BPE data.
func NewHeuristicTokenizer() *Tokenizer {
	t := NewTokenizer()
	t.load = nil
	return t
}

func (t *Tokenizer) encoder(encoding string) *tiktoken.Tiktoken {
	t.mu.Lock()
	defer t.mu.Unlock()
	if enc, ok := t.encoders[encoding]; ok {
		return enc
	}
	if t.load == nil || t.failed[encoding] {
		return nil
	}
	enc, err := t.load(encoding)
	if err != nil || enc == nil {
		// 离线环境可能没有 BPE 缓存，回退到启发式
		// Offline environments may lack BPE cache, fallback to heuristic
		t.failed[encoding] = true
		return nil
	}
	t.encoders[encoding] = enc
	return enc
}

// CountText 计算单个文本的 token 数
// CountText counts tokens of text under the encoding used by model.
func (t *Tokenizer) CountText(model, text string) int {
	if text == "" {
		return 0
	}
	enc := t.encoder(modelToEncoding(model))
	if enc == nil {
		return heuristicTokenCount(text)
	}
	return len(enc.Encode(text, nil, nil))
}

// IsPrecise 返回该模型是否使用精确计数
// IsPrecise reports whether counts for model come from tiktoken.
func (t *Tokenizer) IsPrecise(model string) bool {
	return t.encoder(modelToEncoding(model)) != nil
}

// Request 统计一次补全请求的上下文大小
// Request sizes the messages a completion request would send: the system
// prompt (when present) plus every history turn.
func (t *Tokenizer) Request(req provider.CompletionRequest) Stats {
	stats := Stats{
		Encoding: modelToEncoding(req.Model),
		Precise:  t.IsPrecise(req.Model),
	}
	if req.SystemPrompt != "" {
		stats.Messages++
		stats.Tokens += t.countMessage(req.Model, "system", req.SystemPrompt)
	}
	for _, turn := range req.Messages {
		stats.Messages++
		stats.Tokens += t.countMessage(req.Model, string(turn.Role), turn.Content)
	}
	if stats.Messages > 0 {
		// 回复引导 token / reply priming
		stats.Tokens += 3
	}
	return stats
}

func (t *Tokenizer) countMessage(model, role, content string) int {
	// OpenAI 消息 token 开销: ~4 tokens per message overhead
	// OpenAI message token overhead: ~4 tokens per message
	return 4 + t.CountText(model, role) + t.CountText(model, content)
}

// heuristicTokenCount 启发式 token 估算
// heuristicTokenCount estimates tokens for mixed CJK/English text
func heuristicTokenCount(text string) int {
	if text == "" {
		return 0
	}
	// CJK 字符通常 1-2 token/字, 英文约 4 chars/token
	// CJK characters are typically 1-2 tokens each, English ~4 chars/token
	cjkCount := 0
	asciiCount := 0
	for _, r := range text {
		if isCJK(r) {
			cjkCount++
		} else {
			asciiCount++
		}
	}
	estimate := int(float64(cjkCount)*1.5 + float64(asciiCount)*0.25)
	if estimate < 1 {
		estimate = 1
	}
	return estimate
}

func isCJK(r rune) bool {
	return (r >= 0x4E00 && r <= 0x9FFF) || // CJK Unified
		(r >= 0x3400 && r <= 0x4DBF) || // CJK Extension A
		(r >= 0x3000 && r <= 0x30FF) || // CJK Symbols, Hiragana, Katakana
		(r >= 0xFF00 && r <= 0xFFEF) || // Fullwidth Forms
		(r >= 0xAC00 && r <= 0xD7AF) // Korean Hangul
}

// modelToEncoding 根据模型名推断编码
// modelToEncoding maps model name to encoding name
func modelToEncoding(model string) string {
	m := strings.ToLower(strings.TrimSpace(model))
	switch {
	case strings.HasPrefix(m, "o1"), strings.HasPrefix(m, "o3"), strings.HasPrefix(m, "o4"):
		return "o200k_base"
	case strings.HasPrefix(m, "gpt-4o"), strings.HasPrefix(m, "chatgpt-4o"), strings.HasPrefix(m, "gpt-4.1"), strings.HasPrefix(m, "gpt-5"):
		return "o200k_base"
	default:
		// GPT-4, GPT-3.5 及未知模型 / GPT-4, GPT-3.5 and unknown models
		return "cl100k_base"
	}
}
