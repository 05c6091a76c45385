package service

// State of a connection session.
type State int

const (
	StateConnected State = iota
	StateJoined
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	case StateJoined:
		return "joined"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is the per-connection state. It is owned by the goroutine that
// reads the connection and is not safe for concurrent use.
type Session struct {
	ID       string
	Identity string
	RoomID   string
	state    State
}

func NewSession(connID string) *Session {
	return &Session{ID: connID}
}

func (s *Session) State() State {
	return s.state
}

func (s *Session) Joined() bool {
	return s.state == StateJoined
}

func (s *Session) join(roomID, identity string) {
	s.RoomID = roomID
	s.Identity = identity
	s.state = StateJoined
}

func (s *Session) leave() {
	s.RoomID = ""
	if s.state == StateJoined {
		s.state = StateConnected
	}
}

func (s *Session) close() {
	s.RoomID = ""
	s.state = StateClosed
}
