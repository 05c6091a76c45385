package model

import "encoding/json"

// Events sent by clients.
const (
	EventJoinRoom           = "join-room"
	EventLeaveRoom          = "leave-room"
	EventOffer              = "offer"
	EventAnswer             = "answer"
	EventICECandidate       = "ice-candidate"
	EventChatMessage        = "chat-message"
	EventPrivateMessage     = "private-message"
	EventFileMessage        = "file-message"
	EventMediaStatusChange  = "media-status-change"
	EventScreenShareStarted = "screen-share-started"
	EventScreenShareStopped = "screen-share-stopped"
)

// Events sent by server. Signaling, chat, file and screen-share events
// reuse the client event names.
const (
	EventRoomUsers          = "room-users"
	EventUserJoined         = "user-joined"
	EventUserLeft           = "user-left"
	EventMediaStatusChanged = "media-status-changed"
	EventModerationWarning  = "moderation-warning"
)

// Inbound is a client event as read from the wire.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Announcement is a server event as written to the wire.
type Announcement struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Delivery is an announcement addressed to a single connection.
type Delivery struct {
	DST string
	Announcement
}
