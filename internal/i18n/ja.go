package i18n

// JaMessages 日文消息目录
// JaMessages Japanese message catalog
var JaMessages = map[string]string{
	// 補完エラー
	"error.invalid_credential": "APIキーが無効です。設定画面で正しいAPIキーを入力してください。",
	"error.rate_limited":       "APIの利用制限に達しました。しばらく待ってから再試行してください。",
	"error.quota_exceeded":     "APIの利用枠を超過しました。OpenAIのアカウントで利用状況を確認してください。",
	"error.network":            "ネットワークエラーが発生しました。インターネット接続を確認してください。",
	"error.unknown":            "エラーが発生しました。しばらく待ってから再試行してください。",
	"reply.empty":              "すみません、応答を生成できませんでした。",

	// システムプロンプト
	"prompt.you_are":        "あなたは%sです。",
	"prompt.background":     "背景情報：",
	"prompt.personality":    "性格：",
	"prompt.tone":           "口調：",
	"prompt.example_speech": "話し方の例：",

	// REPL
	"cli.welcome":             "roomchat - /help でコマンド一覧",
	"cli.bye":                 "さようなら。",
	"cli.unknown_command":     "不明なコマンド: %s (/help を参照)",
	"cli.usage":               "使い方: %s",
	"cli.no_room":             "ルームが選択されていません。/new または /use を使ってください。",
	"cli.rooms_empty":         "ルームがありません。/new <名前> で作成してください。",
	"cli.room_created":        "ルーム %s を作成しました",
	"cli.room_selected":       "ルーム %s に切り替えました",
	"cli.room_not_found":      "ルームが見つかりません: %s",
	"cli.room_updated":        "ルームを更新しました。",
	"cli.room_deleted":        "ルームを削除しました。",
	"cli.credential_required": "APIキーが必要です。/key <sk-...> で設定してください。",
	"cli.key_invalid":         "APIキーの形式が正しくありません (sk-... で始まる必要があります)。",
	"cli.key_saved":           "APIキーを保存しました。",
	"cli.busy":                "このルームは応答待ちです。",
	"cli.thinking":            "考え中...",
	"cli.confirm_delete":      "このメッセージを削除しますか？",
	"cli.confirm_regenerate":  "このメッセージから再生成しますか？このメッセージ以降はすべて削除されます。",
	"cli.confirm_drop_room":   "ルーム %s とすべてのメッセージを削除しますか？",
	"cli.cancelled":           "キャンセルしました。",
	"cli.deleted":             "メッセージを削除しました。",
	"cli.edited":              "メッセージを編集しました。",
	"cli.message_not_found":   "このルームに #%s のメッセージはありません。",
	"cli.history_empty":       "まだメッセージはありません。",
	"cli.exported":            "%d 件のルームを %s にエクスポートしました",
	"cli.imported":            "%d 件のルームをインポートしました。",
	"cli.import_version":      "バックアップのバージョンが異なりますが、インポートしました。",
	"cli.import_failed":       "インポートに失敗しました: %v",
	"cli.export_failed":       "エクスポートに失敗しました: %v",
	"cli.migrated":            "%[2]s から %[1]d 件を移行しました",
	"cli.storage":             "ストレージ: %s / %s (%d%%)",
	"cli.storage_near":        "ストレージの残りが少なくなっています。",
	"cli.storage_over":        "ストレージが満杯です。変更を保存できない可能性があります。",
	"cli.storage_errors":      "最近のストレージエラー:",
	"cli.cleanup":             "キャッシュを %d 件削除しました。",
	"cli.save_failed":         "変更を保存できませんでした。終了すると失われます。",
	"cli.search_empty":        "見つかりませんでした。",
	"cli.context":             "次のリクエスト: %d 件のメッセージ、約 %d トークン (%s)",
	"cli.models":              "利用可能なモデル:",
	"cli.theme_set":           "テーマを %s に設定しました。",
}
