package orchestrator

import (
	"context"
	"errors"

	"roomchat/internal/chat"
	"roomchat/internal/roomstore"
)

// Edit replaces the content of messageID and refreshes its timestamp.
// Role and id never change and no reply is regenerated. It reports whether
// the message was found; a failed save is logged by the store.
func (o *Orchestrator) Edit(roomID, messageID, content string) bool {
	_, err := o.rooms.UpdateRoom(roomID, func(r *chat.Room) bool {
		idx := r.IndexOf(messageID)
		if idx < 0 {
			return false
		}
		now := o.nowMillis()
		msg := &r.Messages[idx]
		msg.Content = content
		if now > msg.Timestamp {
			msg.Timestamp = now
		}
		o.touch(&r.UpdatedAt)
		return true
	})
	return applied(err)
}

// Delete removes messageID from roomID after confirmation. Later messages
// are left as they are.
func (o *Orchestrator) Delete(ctx context.Context, roomID, messageID string) bool {
	room, ok := o.rooms.Room(roomID)
	if !ok || room.IndexOf(messageID) < 0 {
		return false
	}
	if !o.ask(ctx, o.i18n.T("cli.confirm_delete")) {
		return false
	}
	_, err := o.rooms.UpdateRoom(roomID, func(r *chat.Room) bool {
		idx := r.IndexOf(messageID)
		if idx < 0 {
			return false
		}
		r.Messages = append(r.Messages[:idx:idx], r.Messages[idx+1:]...)
		o.touch(&r.UpdatedAt)
		return true
	})
	return applied(err)
}

// applied 修改是否已生效（内存中）/ whether the change took effect in memory
func applied(err error) bool {
	return err == nil || errors.Is(err, roomstore.ErrNotPersisted)
}
