package main

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"roomchat/internal/chat"
	"roomchat/internal/ui"

	"github.com/dustin/go-humanize"
	dto "github.com/prometheus/client_model/go"
)

func (a *app) roleLabel(role chat.Role) string {
	if role == chat.RoleUser {
		return a.theme.UserStyle.Render("you")
	}
	return a.theme.AssistantStyle.Render("assistant")
}

func (a *app) printMessage(msg chat.Message, failed bool) {
	content := msg.Content
	switch {
	case failed:
		content = a.theme.ErrorStyle.Render(content)
	case msg.Role == chat.RoleAssistant && !a.plain:
		if rendered := ui.RenderMarkdown(content, a.width, a.theme); rendered != "" {
			content = rendered
		}
	}
	a.println(a.roleLabel(msg.Role))
	a.println(content)
}

func (a *app) printHistory(room chat.Room) {
	if len(room.Messages) == 0 {
		a.println(a.tr.T("cli.history_empty"))
		return
	}
	now := a.clock()
	for i, msg := range room.Messages {
		when := humanize.RelTime(time.UnixMilli(msg.Timestamp), now, "ago", "from now")
		header := fmt.Sprintf("#%d %s %s", i+1, a.roleLabel(msg.Role), a.theme.MutedStyle.Render(when))
		a.println(header)
		a.println(msg.Content)
	}
}

// sortedRooms 按 sort_order 排列，/use 的编号以此为准
// sortedRooms orders rooms by sort_order; /use numbers refer to this order.
func sortedRooms(rooms []chat.Room) []chat.Room {
	sort.SliceStable(rooms, func(i, j int) bool {
		return rooms[i].SortOrder < rooms[j].SortOrder
	})
	return rooms
}

func (a *app) printRooms() {
	rooms := sortedRooms(a.rooms.Rooms())
	if len(rooms) == 0 {
		a.println(a.tr.T("cli.rooms_empty"))
		return
	}
	current := a.rooms.CurrentRoomID()
	now := a.clock()
	for i, room := range rooms {
		marker := " "
		name := ui.Truncate(room.Name, 32)
		if room.ID == current {
			marker = "*"
			name = a.theme.ActiveStyle.Render(name)
		}
		updated := humanize.RelTime(time.UnixMilli(room.UpdatedAt), now, "ago", "from now")
		meta := fmt.Sprintf("%s · %s · %d msgs · %s", room.Mode, room.ModelConfig.Model, len(room.Messages), updated)
		a.println(fmt.Sprintf("%s [%d] %s  %s", marker, i+1, name, a.theme.MutedStyle.Render(meta)))
	}
}

func (a *app) printStorage() {
	usage := a.rooms.Usage()
	quota := a.rooms.CheckQuota()
	a.printf("cli.storage", humanize.IBytes(uint64(usage.Used)), humanize.IBytes(uint64(usage.Total)), quota.Percent)
	a.reportQuota()

	logs := a.rooms.ErrorLogs()
	if len(logs) == 0 {
		return
	}
	a.println(a.tr.T("cli.storage_errors"))
	for i, entry := range logs {
		if i == 5 {
			break
		}
		key := entry.Key
		if key == "" {
			key = "-"
		}
		a.println(fmt.Sprintf("  %s %s %s: %s",
			a.theme.MutedStyle.Render(humanize.Time(entry.Time)), entry.Op, key, entry.Error))
	}
}

func (a *app) reportQuota() {
	quota := a.rooms.CheckQuota()
	switch {
	case quota.OverLimit:
		a.println(a.theme.ErrorStyle.Render(a.tr.T("cli.storage_over")))
	case quota.NearLimit:
		a.println(a.theme.WarningStyle.Render(a.tr.T("cli.storage_near")))
	}
}

// printStats 输出 roomchat_ 前缀的指标
// printStats prints every roomchat_ metric from the registry.
func (a *app) printStats() {
	if a.registry == nil {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.log.Warn().Err(err).Msg("gather metrics failed")
		return
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), "roomchat_") {
			continue
		}
		for _, metric := range mf.GetMetric() {
			a.println(fmt.Sprintf("%s%s %s", mf.GetName(), formatLabels(metric.GetLabel()), formatValue(mf.GetType(), metric)))
		}
	}
}

func formatLabels(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, fmt.Sprintf("%s=%q", p.GetName(), p.GetValue()))
	}
	return "{" + strings.Join(parts, ",") + "}"
}

func formatValue(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return humanize.Ftoa(m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return humanize.Ftoa(m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%ss", h.GetSampleCount(), humanize.FtoaWithDigits(h.GetSampleSum(), 3))
	default:
		return "-"
	}
}
