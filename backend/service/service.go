package service

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/adwski/webrtc-meeting/backend/model"
	"github.com/rs/zerolog"
)

var (
	ErrConnect = errors.New("unable to connect")
)

type (
	Switch interface {
		Connect(endpoint string) (<-chan model.Announcement, error)
		Disconnect(endpoint string)
		Dispatch(deliveries []model.Delivery) int
	}

	Service struct {
		router *Router
		sw     Switch
		logger zerolog.Logger

		// mx is held exclusively while a membership change is applied and
		// its deliveries are queued, and shared by every other event. Each
		// connection therefore sees room changes in the order they happened.
		mx *sync.RWMutex
	}

	Config struct {
		Registry    Registry
		Switch      Switch
		Moderator   Moderator
		Logger      *zerolog.Logger
		Clock       func() time.Time
		MaxFileSize int64
	}
)

func NewService(cfg Config) *Service {
	return &Service{
		router: NewRouter(RouterConfig{
			Registry:    cfg.Registry,
			Moderator:   cfg.Moderator,
			Logger:      cfg.Logger,
			Clock:       cfg.Clock,
			MaxFileSize: cfg.MaxFileSize,
		}),
		sw:     cfg.Switch,
		logger: cfg.Logger.With().Str("component", "signaling").Logger(),
		mx:     &sync.RWMutex{},
	}
}

// Connect opens a session for a new transport connection and returns the
// queue of announcements addressed to it.
func (svc *Service) Connect(connID string) (*Session, <-chan model.Announcement, error) {
	tx, err := svc.sw.Connect(connID)
	if err != nil {
		return nil, nil, errors.Join(ErrConnect, err)
	}
	svc.logger.Debug().Str("connID", connID).Msg("session opened")
	return NewSession(connID), tx, nil
}

// Receive handles one raw client message. Errors are logged and never reach
// the sender or other connections.
func (svc *Service) Receive(sess *Session, msg []byte) {
	var in model.Inbound
	if err := json.Unmarshal(msg, &in); err != nil {
		svc.logger.Warn().Err(err).Str("connID", sess.ID).Msg("failed to unmarshall incoming message")
		return
	}

	deliveries, sent, err := svc.route(sess, in)
	if err != nil {
		svc.logDropped(sess, in.Type, err)
		return
	}

	svc.logger.Trace().
		Str("connID", sess.ID).
		Str("type", in.Type).
		Int("deliveries", len(deliveries)).
		Int("sent", sent).
		Msg("event routed")
}

// Disconnect tears the session down, removes it from its room and notifies
// the remaining members. Repeated calls have no effect.
func (svc *Service) Disconnect(sess *Session) {
	svc.mx.Lock()
	deliveries := svc.router.Disconnect(sess)
	svc.sw.Disconnect(sess.ID)
	svc.sw.Dispatch(deliveries)
	svc.mx.Unlock()

	svc.logger.Debug().Str("connID", sess.ID).Msg("session closed")
}

// route applies the event and queues its deliveries as one step.
func (svc *Service) route(sess *Session, in model.Inbound) ([]model.Delivery, int, error) {
	if changesMembership(in.Type) {
		svc.mx.Lock()
		defer svc.mx.Unlock()
	} else {
		svc.mx.RLock()
		defer svc.mx.RUnlock()
	}

	deliveries, err := svc.router.Handle(sess, in)
	if err != nil {
		return nil, 0, err
	}
	return deliveries, svc.sw.Dispatch(deliveries), nil
}

func changesMembership(event string) bool {
	return event == model.EventJoinRoom || event == model.EventLeaveRoom
}

func (svc *Service) logDropped(sess *Session, event string, err error) {
	var ev *zerolog.Event
	switch {
	case errors.Is(err, ErrTargetNotFound),
		errors.Is(err, ErrNotJoined),
		errors.Is(err, ErrNotAMember):
		ev = svc.logger.Debug()
	default:
		ev = svc.logger.Warn()
	}
	ev.Err(err).
		Str("connID", sess.ID).
		Str("roomID", sess.RoomID).
		Str("type", event).
		Msg("event dropped")
}
