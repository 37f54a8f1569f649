package orchestrator

import (
	"context"
	"errors"
	"strings"

	"roomchat/internal/chat"
	"roomchat/internal/provider"
	"roomchat/internal/roomstore"
)

// Send appends a user message to roomID and then the assistant reply.
// It does nothing for blank content, an unknown room, a room that is
// already awaiting a reply, or a missing API key (the last also calls
// OnCredentialRequired). The user message is kept even when the completion
// fails; the failure becomes a localized assistant message.
func (o *Orchestrator) Send(ctx context.Context, roomID, content string) Outcome {
	content = strings.TrimSpace(content)
	if content == "" {
		return skipped(ReasonEmpty)
	}
	if _, ok := o.rooms.Room(roomID); !ok {
		return skipped(ReasonNoRoom)
	}
	if o.AwaitingResponse(roomID) {
		return skipped(ReasonBusy)
	}
	apiKey, ok := o.credential(roomID)
	if !ok {
		return skipped(ReasonNoCredential)
	}
	if !o.acquire(roomID) {
		return skipped(ReasonBusy)
	}
	defer o.release(roomID)

	userMsg := chat.Message{
		ID:        o.newID(),
		Role:      chat.RoleUser,
		Content:   content,
		Timestamp: o.nowMillis(),
	}
	room, err := o.rooms.UpdateRoom(roomID, func(r *chat.Room) bool {
		r.Messages = append(r.Messages, userMsg)
		o.touch(&r.UpdatedAt)
		return true
	})
	if errors.Is(err, roomstore.ErrRoomNotFound) {
		return skipped(ReasonNoRoom)
	}
	if err != nil {
		// 内存已更新，继续请求 / in-memory state is updated; carry on
		o.log.Warn().Err(err).Str("room", roomID).Msg("user message not persisted")
	}

	return o.exchange(ctx, room, apiKey)
}

// Regenerate discards messageID and every later message in roomID, then
// requests a fresh reply from the remaining history. It asks for
// confirmation first; a decline leaves the room untouched.
func (o *Orchestrator) Regenerate(ctx context.Context, roomID, messageID string) Outcome {
	room, ok := o.rooms.Room(roomID)
	if !ok {
		return skipped(ReasonNoRoom)
	}
	if room.IndexOf(messageID) < 0 {
		return skipped(ReasonNotFound)
	}
	if o.AwaitingResponse(roomID) {
		return skipped(ReasonBusy)
	}
	apiKey, ok := o.credential(roomID)
	if !ok {
		return skipped(ReasonNoCredential)
	}
	if !o.acquire(roomID) {
		return skipped(ReasonBusy)
	}
	defer o.release(roomID)

	if !o.ask(ctx, o.i18n.T("cli.confirm_regenerate")) {
		return skipped(ReasonDeclined)
	}

	room, err := o.rooms.UpdateRoom(roomID, func(r *chat.Room) bool {
		idx := r.IndexOf(messageID)
		if idx < 0 {
			return false
		}
		r.Messages = append([]chat.Message{}, r.Messages[:idx]...)
		o.touch(&r.UpdatedAt)
		return true
	})
	switch {
	case errors.Is(err, roomstore.ErrRoomNotFound):
		return skipped(ReasonNoRoom)
	case errors.Is(err, roomstore.ErrUnchanged):
		return skipped(ReasonNotFound)
	case err != nil:
		o.log.Warn().Err(err).Str("room", roomID).Msg("truncation not persisted")
	}

	return o.exchange(ctx, room, apiKey)
}

// exchange 调用模型并把结果（或错误文本）追加到房间
// exchange calls the provider with room's history and appends the reply or
// the localized error text to the latest copy of the room.
func (o *Orchestrator) exchange(ctx context.Context, room chat.Room, apiKey string) Outcome {
	req := o.buildRequest(room, apiKey)
	done := o.metrics.StartCompletion()

	text, callErr := o.provider.Complete(ctx, req)

	out := Outcome{Status: StatusReplied}
	switch {
	case callErr != nil:
		out.Status = StatusFailed
		out.Err = callErr
		text = o.errorText(callErr)
		o.log.Warn().
			Err(callErr).
			Str("room", room.ID).
			Str("kind", string(provider.KindOf(callErr))).
			Str("model", req.Model).
			Msg("completion failed")
	case strings.TrimSpace(text) == "":
		text = o.i18n.T("reply.empty")
	}
	done(string(out.Status))

	reply := chat.Message{
		ID:        o.newID(),
		Role:      chat.RoleAssistant,
		Content:   text,
		Timestamp: o.nowMillis(),
	}
	_, err := o.rooms.UpdateRoom(room.ID, func(r *chat.Room) bool {
		r.Messages = append(r.Messages, reply)
		o.touch(&r.UpdatedAt)
		return true
	})
	if errors.Is(err, roomstore.ErrRoomNotFound) {
		o.log.Warn().Str("room", room.ID).Msg("room deleted while awaiting reply; reply dropped")
		return Outcome{Status: StatusSkipped, Reason: ReasonRoomGone, Err: callErr}
	}
	if err != nil {
		o.log.Warn().Err(err).Str("room", room.ID).Msg("reply not persisted")
	}
	out.Reply = reply
	return out
}

// credential returns the stored API key, or signals the host when missing.
func (o *Orchestrator) credential(roomID string) (string, bool) {
	s := o.settings.Settings()
	if !s.HasCredential() {
		if o.onCredentialRequired != nil {
			o.onCredentialRequired(roomID)
		}
		return "", false
	}
	return strings.TrimSpace(s.APIKey), true
}

// ask runs the confirmation gate. Without a gate, or on error, it declines.
func (o *Orchestrator) ask(ctx context.Context, prompt string) bool {
	if o.confirm == nil {
		return false
	}
	ok, err := o.confirm(ctx, prompt)
	if err != nil {
		o.log.Debug().Err(err).Msg("confirmation failed; treated as decline")
		return false
	}
	return ok
}
