package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// I18n 国际化支持
// I18n provides internationalization support
type I18n struct {
	locale   string
	messages map[string]string
	mu       sync.RWMutex
}

var (
	global   *I18n
	globalMu sync.Mutex
)

// 支持的 locale，顺序与 matcher 对应；第一个为默认
// supported locales, in matcher order; the first is the default
var (
	supportedLocales = []string{"en", "ja", "zh-CN"}
	matcher          = language.NewMatcher([]language.Tag{
		language.English,
		language.Japanese,
		language.SimplifiedChinese,
	})
)

// Global 返回全局 i18n 实例
// Global returns the global i18n instance
func Global() *I18n {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		global = New("")
	}
	return global
}

// Init 初始化全局 i18n 实例
// Init initializes the global i18n instance
func Init(locale string) {
	i := New(locale)
	globalMu.Lock()
	global = i
	globalMu.Unlock()
}

// T 全局翻译快捷函数
// T is a global translation shortcut
func T(key string, args ...any) string {
	return Global().T(key, args...)
}

// New 创建 i18n 实例
// New creates an i18n instance
func New(locale string) *I18n {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		locale = DetectLocale()
	}
	locale = normalizeLocale(locale)

	i := &I18n{
		locale:   locale,
		messages: make(map[string]string),
	}

	// 先加载英文作为 fallback / Load English as fallback first
	for k, v := range EnMessages {
		i.messages[k] = v
	}

	var overlay map[string]string
	switch locale {
	case "ja":
		overlay = JaMessages
	case "zh-CN":
		overlay = ZhCNMessages
	}
	for k, v := range overlay {
		i.messages[k] = v
	}

	return i
}

// T 翻译函数 / Translation function
func (i *I18n) T(key string, args ...any) string {
	i.mu.RLock()
	tmpl, ok := i.messages[key]
	i.mu.RUnlock()

	if !ok {
		return key
	}
	if len(args) == 0 {
		return tmpl
	}
	return fmt.Sprintf(tmpl, args...)
}

// Locale 返回当前 locale
// Locale returns current locale
func (i *I18n) Locale() string {
	return i.locale
}

// DetectLocale 自动检测 locale
// DetectLocale auto-detects locale from environment
func DetectLocale() string {
	for _, env := range []string{"ROOMCHAT_LANG", "LC_ALL", "LC_MESSAGES", "LANG"} {
		v := strings.TrimSpace(os.Getenv(env))
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		return normalizeLocale(v)
	}
	return "en"
}

func normalizeLocale(s string) string {
	s = strings.TrimSpace(s)
	// 去掉 .UTF-8 等后缀 / Remove .UTF-8 suffix
	if idx := strings.IndexByte(s, '.'); idx >= 0 {
		s = s[:idx]
	}
	s = strings.ReplaceAll(s, "_", "-")
	if s == "" {
		return "en"
	}
	tag, err := language.Parse(s)
	if err != nil {
		return "en"
	}
	_, idx, confidence := matcher.Match(tag)
	if confidence == language.No {
		return "en"
	}
	return supportedLocales[idx]
}
