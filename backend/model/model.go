package model

// Member is a connection's membership record within a room.
type Member struct {
	ConnID        string `json:"socketId"`
	Identity      string `json:"email"`
	MicOn         bool   `json:"isMicOn"`
	CamOn         bool   `json:"isCamOn"`
	ScreenSharing bool   `json:"isScreenSharing"`
}

// NewMember returns a member record with media flags in their initial state.
func NewMember(connID, identity string) Member {
	return Member{
		ConnID:   connID,
		Identity: identity,
		MicOn:    true,
		CamOn:    true,
	}
}

type Room struct {
	ID      string   `json:"roomCode"`
	Members []Member `json:"members"`
}

type RoomSummary struct {
	ID      string `json:"roomCode"`
	Members int    `json:"memberCount"`
}

// Departure describes a member removed from a room and who is still there.
type Departure struct {
	RoomID    string
	Member    Member
	Remaining []Member
}
