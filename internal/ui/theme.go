package ui

import (
	"roomchat/internal/chat"

	"github.com/charmbracelet/lipgloss"
)

// Theme 定义终端输出的色彩和样式
// Theme defines terminal output colors and styles
type Theme struct {
	// glamour 样式名 / glamour standard style name
	Markdown string

	// 基础色 / Base colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Danger    lipgloss.Color
	Warning   lipgloss.Color
	Success   lipgloss.Color
	Muted     lipgloss.Color

	// 预构建样式 / Pre-built styles
	TitleStyle     lipgloss.Style
	UserStyle      lipgloss.Style
	AssistantStyle lipgloss.Style
	ActiveStyle    lipgloss.Style
	ErrorStyle     lipgloss.Style
	WarningStyle   lipgloss.Style
	SuccessStyle   lipgloss.Style
	MutedStyle     lipgloss.Style
}

// DarkTheme 暗色主题
// DarkTheme is the theme for dark terminals
func DarkTheme() Theme {
	return build(Theme{
		Markdown:  "dark",
		Primary:   lipgloss.Color("#7C3AED"),
		Secondary: lipgloss.Color("#06B6D4"),
		Danger:    lipgloss.Color("#EF4444"),
		Warning:   lipgloss.Color("#F59E0B"),
		Success:   lipgloss.Color("#10B981"),
		Muted:     lipgloss.Color("#6B7280"),
	})
}

// LightTheme 亮色主题
// LightTheme is the theme for light terminals
func LightTheme() Theme {
	return build(Theme{
		Markdown:  "light",
		Primary:   lipgloss.Color("#5B21B6"),
		Secondary: lipgloss.Color("#0E7490"),
		Danger:    lipgloss.Color("#B91C1C"),
		Warning:   lipgloss.Color("#B45309"),
		Success:   lipgloss.Color("#047857"),
		Muted:     lipgloss.Color("#4B5563"),
	})
}

// ForSetting picks the theme for a settings value; auto follows the
// terminal background.
func ForSetting(t chat.Theme) Theme {
	switch t {
	case chat.ThemeLight:
		return LightTheme()
	case chat.ThemeDark:
		return DarkTheme()
	}
	if lipgloss.HasDarkBackground() {
		return DarkTheme()
	}
	return LightTheme()
}

func build(t Theme) Theme {
	t.TitleStyle = lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	t.UserStyle = lipgloss.NewStyle().
		Foreground(t.Secondary).
		Bold(true)

	t.AssistantStyle = lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true)

	t.ActiveStyle = lipgloss.NewStyle().
		Foreground(t.Success).
		Bold(true)

	t.ErrorStyle = lipgloss.NewStyle().
		Foreground(t.Danger).
		Bold(true)

	t.WarningStyle = lipgloss.NewStyle().
		Foreground(t.Warning)

	t.SuccessStyle = lipgloss.NewStyle().
		Foreground(t.Success)

	t.MutedStyle = lipgloss.NewStyle().
		Foreground(t.Muted)

	return t
}
