package model

import "encoding/json"

type JoinRoomPayload struct {
	RoomCode  string `json:"roomCode" validate:"required"`
	UserEmail string `json:"userEmail" validate:"required"`
}

type OfferPayload struct {
	Offer json.RawMessage `json:"offer" validate:"required"`
	To    string          `json:"to" validate:"required"`
}

type AnswerPayload struct {
	Answer json.RawMessage `json:"answer" validate:"required"`
	To     string          `json:"to" validate:"required"`
}

type ICECandidatePayload struct {
	Candidate json.RawMessage `json:"candidate" validate:"required"`
	To        string          `json:"to" validate:"required"`
}

type ChatPayload struct {
	RoomCode string `json:"roomCode"`
	Message  string `json:"message" validate:"required"`
	Sender   string `json:"sender"`
}

type PrivatePayload struct {
	To      string `json:"to" validate:"required"`
	Message string `json:"message" validate:"required"`
	Sender  string `json:"sender"`
}

type FilePayload struct {
	RoomCode string `json:"roomCode"`
	FileName string `json:"fileName" validate:"required"`
	FileSize int64  `json:"fileSize" validate:"gte=0"`
	FileData string `json:"fileData" validate:"required"`
	FileType string `json:"fileType"`
	Sender   string `json:"sender"`
}

type MediaStatusPayload struct {
	RoomCode string `json:"roomCode"`
	IsMicOn  *bool  `json:"isMicOn" validate:"required"`
	IsCamOn  *bool  `json:"isCamOn" validate:"required"`
}

type ScreenSharePayload struct {
	RoomCode string `json:"roomCode"`
}

// Outbound payloads.

type PeerPayload struct {
	SocketID string `json:"socketId"`
	Email    string `json:"email"`
}

type OfferOut struct {
	Offer json.RawMessage `json:"offer"`
	From  string          `json:"from"`
}

type AnswerOut struct {
	Answer json.RawMessage `json:"answer"`
	From   string          `json:"from"`
}

type ICECandidateOut struct {
	Candidate json.RawMessage `json:"candidate"`
	From      string          `json:"from"`
}

type ChatOut struct {
	Message   string `json:"message"`
	Sender    string `json:"sender"`
	Timestamp string `json:"timestamp"`
}

type PrivateOut struct {
	From    string `json:"from"`
	Message string `json:"message"`
	Sender  string `json:"sender"`
}

type FileOut struct {
	FileName string `json:"fileName"`
	FileSize int64  `json:"fileSize"`
	FileData string `json:"fileData"`
	FileType string `json:"fileType"`
	Sender   string `json:"sender"`
}

type MediaStatusOut struct {
	SocketID string `json:"socketId"`
	IsMicOn  bool   `json:"isMicOn"`
	IsCamOn  bool   `json:"isCamOn"`
}

type ScreenShareOut struct {
	SocketID string `json:"socketId"`
}

type ModerationWarning struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}
