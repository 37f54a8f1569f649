package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// Completion errors, shown as assistant messages
	"error.invalid_credential": "The API key is invalid. Enter a valid key in settings.",
	"error.rate_limited":       "The API rate limit was reached. Wait a moment and try again.",
	"error.quota_exceeded":     "The API usage quota is exhausted. Check your OpenAI account usage.",
	"error.network":            "A network error occurred. Check your internet connection.",
	"error.unknown":            "An error occurred. Wait a moment and try again.",
	"reply.empty":              "Sorry, I could not generate a reply.",

	// System prompt synthesis
	"prompt.you_are":        "You are %s.",
	"prompt.background":     "Background:",
	"prompt.personality":    "Personality:",
	"prompt.tone":           "Tone:",
	"prompt.example_speech": "Example speech:",

	// REPL
	"cli.welcome":             "roomchat - type /help for commands",
	"cli.bye":                 "Bye.",
	"cli.help":                "Commands:\n  /rooms                 list rooms\n  /new <name>            create a room (simple mode)\n  /newpro <name>         create a room (pro mode)\n  /use <n|id>            switch room\n  /rename <name>         rename the current room\n  /persona <field> <v>   set name|background|personality|tone|example\n  /prompt <text>         set the pro system prompt\n  /mode simple|pro       switch persona mode\n  /model <id> [temp]     set the room model\n  /history               show messages with numbers\n  /edit <n> <text>       edit message n\n  /delete <n>            delete message n\n  /regen <n>             regenerate from message n\n  /droproom              delete the current room\n  /search <text>         search all rooms\n  /key <sk-...>          set the API key\n  /models                list available models\n  /context               context size of the next request\n  /storage               storage usage and errors\n  /cleanup               purge cached data\n  /export [file]         write a backup\n  /import <file>         restore a backup\n  /theme auto|light|dark set the theme\n  /stats                 show metrics\n  /help                  this help\n  /exit                  quit",
	"cli.unknown_command":     "Unknown command: %s (try /help)",
	"cli.usage":               "Usage: %s",
	"cli.no_room":             "No room selected. Use /new or /use.",
	"cli.rooms_empty":         "No rooms yet. Use /new <name> to create one.",
	"cli.room_created":        "Created room %s",
	"cli.room_selected":       "Switched to room %s",
	"cli.room_not_found":      "Room not found: %s",
	"cli.room_updated":        "Room updated.",
	"cli.room_deleted":        "Room deleted.",
	"cli.credential_required": "An API key is required. Set it with /key <sk-...>.",
	"cli.key_invalid":         "That does not look like an API key (expected sk-...).",
	"cli.key_saved":           "API key saved.",
	"cli.busy":                "Still waiting for the reply in this room.",
	"cli.thinking":            "thinking...",
	"cli.confirm_delete":      "Delete this message?",
	"cli.confirm_regenerate":  "Regenerate from this message? It and every later message will be discarded.",
	"cli.confirm_drop_room":   "Delete room %s and all its messages?",
	"cli.confirm_suffix":      " [y/N] ",
	"cli.cancelled":           "Cancelled.",
	"cli.deleted":             "Message deleted.",
	"cli.edited":              "Message edited.",
	"cli.message_not_found":   "No message #%s in this room.",
	"cli.history_empty":       "No messages yet.",
	"cli.exported":            "Exported %d rooms to %s",
	"cli.imported":            "Imported %d rooms.",
	"cli.import_version":      "Backup version differs; imported anyway.",
	"cli.import_failed":       "Import failed: %v",
	"cli.export_failed":       "Export failed: %v",
	"cli.migrated":            "Migrated %d entries from %s",
	"cli.storage":             "Storage: %s / %s (%d%%)",
	"cli.storage_near":        "Storage is nearly full.",
	"cli.storage_over":        "Storage is full; new changes may fail to save.",
	"cli.storage_errors":      "Recent storage errors:",
	"cli.cleanup":             "Removed %d cached entries.",
	"cli.save_failed":         "Could not save changes; they will be lost on exit.",
	"cli.search_empty":        "No matches.",
	"cli.context":             "Next request: %d messages, ~%d tokens (%s)",
	"cli.models":              "Available models:",
	"cli.theme_set":           "Theme set to %s.",
}
