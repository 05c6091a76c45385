package service

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/adwski/webrtc-meeting/backend/model"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

var (
	ErrMalformed      = errors.New("malformed payload")
	ErrUnknownEvent   = errors.New("unknown event")
	ErrNotJoined      = errors.New("session has not joined a room")
	ErrAlreadyJoined  = errors.New("session has already joined a room")
	ErrSessionClosed  = errors.New("session is closed")
	ErrNotAMember     = errors.New("not a member of the room")
	ErrTargetNotFound = errors.New("target is not in the room")
	ErrFileTooLarge   = errors.New("file exceeds size limit")
)

type (
	Registry interface {
		Join(roomID, connID, identity string) ([]model.Member, error)
		Leave(connID string) (model.Departure, bool)
		MembersOf(roomID string) []model.Member
		IsMember(roomID, connID string) bool
		UpdateStatus(connID string, micOn, camOn bool) bool
		SetScreenSharing(connID string, sharing bool) bool
	}

	Moderator interface {
		IsToxic(text string) bool
	}

	RouterConfig struct {
		Registry    Registry
		Moderator   Moderator
		Logger      *zerolog.Logger
		Clock       func() time.Time
		MaxFileSize int64 // zero disables the limit
	}

	handlerFunc func(sess *Session, payload json.RawMessage) ([]model.Delivery, error)

	// Router turns a client event into the deliveries it causes. Apart from
	// the Registry it has no side effects, deliveries are sent by the caller.
	Router struct {
		registry    Registry
		moderator   Moderator
		validate    *validator.Validate
		now         func() time.Time
		maxFileSize int64
		handlers    map[string]handlerFunc
		logger      zerolog.Logger
	}
)

func NewRouter(cfg RouterConfig) *Router {
	rt := &Router{
		registry:    cfg.Registry,
		moderator:   cfg.Moderator,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         cfg.Clock,
		maxFileSize: cfg.MaxFileSize,
		logger:      cfg.Logger.With().Str("component", "router").Logger(),
	}
	if rt.now == nil {
		rt.now = time.Now
	}
	rt.handlers = map[string]handlerFunc{
		model.EventLeaveRoom:          rt.leaveRoom,
		model.EventOffer:              rt.offer,
		model.EventAnswer:             rt.answer,
		model.EventICECandidate:       rt.iceCandidate,
		model.EventMediaStatusChange:  rt.mediaStatusChange,
		model.EventScreenShareStarted: rt.screenShareStarted,
		model.EventScreenShareStopped: rt.screenShareStopped,
		model.EventChatMessage:        rt.chatMessage,
		model.EventPrivateMessage:     rt.privateMessage,
		model.EventFileMessage:        rt.fileMessage,
	}
	return rt
}

// Handle applies one client event. Events other than join-room are only
// accepted from joined sessions.
func (rt *Router) Handle(sess *Session, in model.Inbound) ([]model.Delivery, error) {
	if sess.State() == StateClosed {
		return nil, ErrSessionClosed
	}
	if in.Type == model.EventJoinRoom {
		return rt.joinRoom(sess, in.Payload)
	}
	handler, ok := rt.handlers[in.Type]
	if !ok {
		return nil, ErrUnknownEvent
	}
	if !sess.Joined() {
		return nil, ErrNotJoined
	}
	return handler(sess, in.Payload)
}

// Disconnect terminates the session. It is safe to call more than once.
func (rt *Router) Disconnect(sess *Session) []model.Delivery {
	deliveries := rt.leave(sess)
	sess.close()
	return deliveries
}

func (rt *Router) joinRoom(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	var p model.JoinRoomPayload
	if err := rt.decode(payload, &p); err != nil {
		return nil, err
	}
	if sess.Joined() {
		return nil, ErrAlreadyJoined
	}
	others, err := rt.registry.Join(p.RoomCode, sess.ID, p.UserEmail)
	if err != nil {
		return nil, errors.Join(ErrAlreadyJoined, err)
	}
	sess.join(p.RoomCode, p.UserEmail)

	rt.logger.Debug().
		Str("connID", sess.ID).
		Str("roomID", p.RoomCode).
		Int("others", len(others)).
		Msg("member joined room")

	deliveries := make([]model.Delivery, 0, len(others)+1)
	deliveries = append(deliveries, unicast(sess.ID, model.EventRoomUsers, others))
	return append(deliveries, fanOut(others, "", model.EventUserJoined, model.PeerPayload{
		SocketID: sess.ID,
		Email:    sess.Identity,
	})...), nil
}

func (rt *Router) leaveRoom(sess *Session, _ json.RawMessage) ([]model.Delivery, error) {
	deliveries := rt.leave(sess)
	sess.leave()
	return deliveries, nil
}

func (rt *Router) leave(sess *Session) []model.Delivery {
	dep, ok := rt.registry.Leave(sess.ID)
	if !ok {
		return nil
	}
	rt.logger.Debug().
		Str("connID", sess.ID).
		Str("roomID", dep.RoomID).
		Int("remaining", len(dep.Remaining)).
		Msg("member left room")

	return fanOut(dep.Remaining, "", model.EventUserLeft, model.PeerPayload{
		SocketID: dep.Member.ConnID,
		Email:    dep.Member.Identity,
	})
}

func (rt *Router) offer(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	var p model.OfferPayload
	if err := rt.decode(payload, &p); err != nil {
		return nil, err
	}
	return rt.forward(sess, p.To, model.EventOffer, model.OfferOut{Offer: p.Offer, From: sess.ID})
}

func (rt *Router) answer(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	var p model.AnswerPayload
	if err := rt.decode(payload, &p); err != nil {
		return nil, err
	}
	return rt.forward(sess, p.To, model.EventAnswer, model.AnswerOut{Answer: p.Answer, From: sess.ID})
}

func (rt *Router) iceCandidate(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	var p model.ICECandidatePayload
	if err := rt.decode(payload, &p); err != nil {
		return nil, err
	}
	return rt.forward(sess, p.To, model.EventICECandidate, model.ICECandidateOut{Candidate: p.Candidate, From: sess.ID})
}

// forward addresses a single peer in the sender's room.
func (rt *Router) forward(sess *Session, to, event string, payload any) ([]model.Delivery, error) {
	if !rt.registry.IsMember(sess.RoomID, to) {
		return nil, ErrTargetNotFound
	}
	return []model.Delivery{unicast(to, event, payload)}, nil
}

func (rt *Router) mediaStatusChange(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	var p model.MediaStatusPayload
	if err := rt.decode(payload, &p); err != nil {
		return nil, err
	}
	if err := checkRoom(sess, p.RoomCode); err != nil {
		return nil, err
	}
	if !rt.registry.UpdateStatus(sess.ID, *p.IsMicOn, *p.IsCamOn) {
		return nil, ErrNotAMember
	}
	return fanOut(rt.registry.MembersOf(sess.RoomID), sess.ID, model.EventMediaStatusChanged, model.MediaStatusOut{
		SocketID: sess.ID,
		IsMicOn:  *p.IsMicOn,
		IsCamOn:  *p.IsCamOn,
	}), nil
}

func (rt *Router) screenShareStarted(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	return rt.screenShare(sess, payload, model.EventScreenShareStarted, true)
}

func (rt *Router) screenShareStopped(sess *Session, payload json.RawMessage) ([]model.Delivery, error) {
	return rt.screenShare(sess, payload, model.EventScreenShareStopped, false)
}

func (rt *Router) screenShare(sess *Session, payload json.RawMessage, event string, sharing bool) ([]model.Delivery, error) {
	var p model.ScreenSharePayload
	if len(payload) > 0 {
		if err := rt.decode(payload, &p); err != nil {
			return nil, err
		}
	}
	if err := checkRoom(sess, p.RoomCode); err != nil {
		return nil, err
	}
	if !rt.registry.SetScreenSharing(sess.ID, sharing) {
		return nil, ErrNotAMember
	}
	return fanOut(rt.registry.MembersOf(sess.RoomID), sess.ID, event, model.ScreenShareOut{
		SocketID: sess.ID,
	}), nil
}

func (rt *Router) decode(payload json.RawMessage, v any) error {
	if len(payload) == 0 {
		return ErrMalformed
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return errors.Join(ErrMalformed, err)
	}
	if err := rt.validate.Struct(v); err != nil {
		return errors.Join(ErrMalformed, err)
	}
	return nil
}

func (rt *Router) timestamp() string {
	return rt.now().UTC().Format(timestampLayout)
}

// checkRoom rejects room-scoped events that name a room other than the
// session's own. An empty room code means the session's room.
func checkRoom(sess *Session, roomCode string) error {
	if roomCode != "" && roomCode != sess.RoomID {
		return ErrNotAMember
	}
	return nil
}

func unicast(dst, event string, payload any) model.Delivery {
	return model.Delivery{
		DST: dst,
		Announcement: model.Announcement{
			Type:    event,
			Payload: payload,
		},
	}
}

func fanOut(members []model.Member, exclude, event string, payload any) []model.Delivery {
	deliveries := make([]model.Delivery, 0, len(members))
	for _, m := range members {
		if m.ConnID != exclude {
			deliveries = append(deliveries, unicast(m.ConnID, event, payload))
		}
	}
	return deliveries
}
