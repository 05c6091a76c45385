package service

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/adwski/webrtc-meeting/backend/model"
	"github.com/adwski/webrtc-meeting/backend/moderation"
)

func (rt *Router) chatMessage(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	var p model.ChatPayload
	if err := rt.decode(payload, &p); err != nil {
		return nil, err
	}
	if err := checkRoom(sess, p.RoomCode); err != nil {
		return nil, err
	}
	if rt.moderator.IsToxic(p.Message) {
		return rt.block(sess, model.EventChatMessage, moderation.WarningRoom), nil
	}
	// The sender gets its own message back, clients drop the echo by identity.
	return fanOut(rt.registry.MembersOf(sess.RoomID), "", model.EventChatMessage, model.ChatOut{
		Message:   p.Message,
		Sender:    sess.Identity,
		Timestamp: rt.timestamp(),
	}), nil
}

func (rt *Router) privateMessage(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	var p model.PrivatePayload
	if err := rt.decode(payload, &p); err != nil {
		return nil, err
	}
	if rt.moderator.IsToxic(p.Message) {
		return rt.block(sess, model.EventPrivateMessage, moderation.WarningPrivate), nil
	}
	return rt.forward(sess, p.To, model.EventPrivateMessage, model.PrivateOut{
		From:    sess.ID,
		Message: p.Message,
		Sender:  sess.Identity,
	})
}

func (rt *Router) fileMessage(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	var p model.FilePayload
	if err := rt.decode(payload, &p); err != nil {
		return nil, err
	}
	if err := checkRoom(sess, p.RoomCode); err != nil {
		return nil, err
	}
	if rt.maxFileSize > 0 && (p.FileSize > rt.maxFileSize || blobSize(p.FileData) > rt.maxFileSize) {
		return nil, ErrFileTooLarge
	}
	return fanOut(rt.registry.MembersOf(sess.RoomID), sess.ID, model.EventFileMessage, model.FileOut{
		FileName: p.FileName,
		FileSize: p.FileSize,
		FileData: p.FileData,
		FileType: p.FileType,
		Sender:   sess.Identity,
	}), nil
}

func (rt *Router) block(sess *Session, event, warning string) []model.Delivery {
	rt.logger.Info().
		Str("connID", sess.ID).
		Str("roomID", sess.RoomID).
		Str("identity", sess.Identity).
		Str("event", event).
		Msg("message blocked by moderation")

	return []model.Delivery{unicast(sess.ID, model.EventModerationWarning, model.ModerationWarning{
		Message:   warning,
		Timestamp: rt.timestamp(),
	})}
}

// blobSize returns the decoded size of a file blob, which is either a
// base64 data URL or plain base64. Padding does not count.
func blobSize(data string) int64 {
	if strings.HasPrefix(data, "data:") {
		if i := strings.IndexByte(data, ','); i >= 0 {
			data = data[i+1:]
		}
	}
	return int64(base64.RawStdEncoding.DecodedLen(len(strings.TrimRight(data, "="))))
}
