package i18n

// ZhCNMessages 简体中文消息目录
// ZhCNMessages Simplified Chinese message catalog
var ZhCNMessages = map[string]string{
	// 补全错误
	"error.invalid_credential": "API 密钥无效，请在设置中输入正确的密钥。",
	"error.rate_limited":       "已达到 API 速率限制，请稍后重试。",
	"error.quota_exceeded":     "API 额度已用完，请检查 OpenAI 账户用量。",
	"error.network":            "网络错误，请检查网络连接。",
	"error.unknown":            "发生错误，请稍后重试。",
	"reply.empty":              "抱歉，未能生成回复。",

	// 系统提示词
	"prompt.you_are":        "你是%s。",
	"prompt.background":     "背景：",
	"prompt.personality":    "性格：",
	"prompt.tone":           "语气：",
	"prompt.example_speech": "说话示例：",

	// REPL
	"cli.welcome":             "roomchat - 输入 /help 查看命令",
	"cli.bye":                 "再见。",
	"cli.unknown_command":     "未知命令: %s (输入 /help)",
	"cli.usage":               "用法: %s",
	"cli.no_room":             "未选择房间，请使用 /new 或 /use。",
	"cli.rooms_empty":         "还没有房间，使用 /new <名称> 创建。",
	"cli.room_created":        "已创建房间 %s",
	"cli.room_selected":       "已切换到房间 %s",
	"cli.room_not_found":      "房间不存在: %s",
	"cli.room_updated":        "房间已更新。",
	"cli.room_deleted":        "房间已删除。",
	"cli.credential_required": "需要 API 密钥，请使用 /key <sk-...> 设置。",
	"cli.key_invalid":         "密钥格式不正确 (应以 sk- 开头)。",
	"cli.key_saved":           "API 密钥已保存。",
	"cli.busy":                "该房间仍在等待回复。",
	"cli.thinking":            "思考中...",
	"cli.confirm_delete":      "删除这条消息？",
	"cli.confirm_regenerate":  "从这条消息重新生成？它及之后的消息都会被丢弃。",
	"cli.confirm_drop_room":   "删除房间 %s 及其全部消息？",
	"cli.cancelled":           "已取消。",
	"cli.deleted":             "消息已删除。",
	"cli.edited":              "消息已编辑。",
	"cli.message_not_found":   "本房间没有第 %s 条消息。",
	"cli.history_empty":       "暂无消息。",
	"cli.exported":            "已导出 %d 个房间到 %s",
	"cli.imported":            "已导入 %d 个房间。",
	"cli.import_version":      "备份版本不同，已继续导入。",
	"cli.import_failed":       "导入失败: %v",
	"cli.export_failed":       "导出失败: %v",
	"cli.migrated":            "已从 %[2]s 迁移 %[1]d 条记录",
	"cli.storage":             "存储: %s / %s (%d%%)",
	"cli.storage_near":        "存储空间即将用完。",
	"cli.storage_over":        "存储空间已满，新的修改可能无法保存。",
	"cli.storage_errors":      "最近的存储错误:",
	"cli.cleanup":             "已清理 %d 条缓存。",
	"cli.save_failed":         "无法保存修改，退出后将丢失。",
	"cli.search_empty":        "没有匹配结果。",
	"cli.context":             "下一次请求: %d 条消息，约 %d tokens (%s)",
	"cli.models":              "可用模型:",
	"cli.theme_set":           "主题已设置为 %s。",
}
