package orchestrator

import (
	"context"
	"time"

	"roomchat/internal/chat"
	"roomchat/internal/contextmgr"
	"roomchat/internal/i18n"
	"roomchat/internal/metrics"

	"github.com/rs/zerolog"
)

// ConfirmFunc 阻塞式确认（删除/重新生成前调用）
// ConfirmFunc is the blocking yes/no gate shown before destructive changes.
// An error counts as a decline.
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

type Options struct {
	Confirm ConfirmFunc
	// OnCredentialRequired 缺少 API key 时通知宿主收集
	// OnCredentialRequired asks the host to collect an API key.
	OnCredentialRequired func(roomID string)
	Clock                func() time.Time
	NewID                func() string
	I18n                 *i18n.I18n
	Metrics              *metrics.Metrics
	Tokenizer            *contextmgr.Tokenizer
	// CacheTTL 模型列表缓存有效期 / how long the model list cache is trusted
	CacheTTL time.Duration
	Logger   zerolog.Logger
}

// Status is the result class of Send and Regenerate.
type Status string

const (
	StatusSkipped Status = "skipped"
	StatusReplied Status = "replied"
	StatusFailed  Status = "failed"
)

// SkipReason says why a Send or Regenerate did nothing.
type SkipReason string

const (
	ReasonNone         SkipReason = ""
	ReasonEmpty        SkipReason = "empty"
	ReasonBusy         SkipReason = "busy"
	ReasonNoRoom       SkipReason = "no_room"
	ReasonNoCredential SkipReason = "no_credential"
	ReasonNotFound     SkipReason = "message_not_found"
	ReasonDeclined     SkipReason = "declined"
	// ReasonRoomGone 调用期间房间被删除，回复被丢弃
	ReasonRoomGone SkipReason = "room_gone"
)

// Outcome reports what Send or Regenerate did. On StatusFailed, Reply holds
// the localized error text that was appended and Err the provider error.
type Outcome struct {
	Status Status
	Reason SkipReason
	Reply  chat.Message
	Err    error
}

func skipped(reason SkipReason) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

// RoomDraft carries user-editable room fields for CreateRoom and UpdateRoom.
// Nil pointers and empty strings leave the existing value alone.
type RoomDraft struct {
	Name         string
	Mode         chat.Mode
	SimpleConfig *chat.SimpleConfig
	ProConfig    *chat.ProConfig
	ModelConfig  *chat.ModelConfig
}
