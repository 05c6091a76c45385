package _switch

import (
	"errors"
	"sync"

	"github.com/adwski/webrtc-meeting/backend/model"
	"github.com/rs/zerolog"
)

const (
	defaultQueueSize = 256
)

var (
	ErrAlreadyConnected = errors.New("endpoint is already connected")
)

type Config struct {
	Logger    *zerolog.Logger
	QueueSize int
}

// Switch owns the outbound queue of every live connection and performs
// addressed, non-blocking sends into them.
type Switch struct {
	logger    zerolog.Logger
	mx        *sync.RWMutex
	fwd       map[string]chan model.Announcement
	queueSize int
}

func NewSwitch(cfg Config) *Switch {
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	return &Switch{
		logger:    cfg.Logger.With().Str("component", "switch").Logger(),
		mx:        &sync.RWMutex{},
		fwd:       make(map[string]chan model.Announcement),
		queueSize: size,
	}
}

// Connect creates the outbound queue for an endpoint. The returned channel is
// closed by Disconnect.
func (sw *Switch) Connect(endpoint string) (<-chan model.Announcement, error) {
	sw.mx.Lock()
	defer sw.mx.Unlock()

	if _, ok := sw.fwd[endpoint]; ok {
		return nil, ErrAlreadyConnected
	}
	tx := make(chan model.Announcement, sw.queueSize)
	sw.fwd[endpoint] = tx

	sw.logger.Debug().Str("endpoint", endpoint).Msg("endpoint connected")
	return tx, nil
}

// Disconnect is idempotent.
func (sw *Switch) Disconnect(endpoint string) {
	sw.mx.Lock()
	defer sw.mx.Unlock()

	tx, ok := sw.fwd[endpoint]
	if !ok {
		return
	}
	delete(sw.fwd, endpoint)
	close(tx)

	sw.logger.Debug().Str("endpoint", endpoint).Msg("endpoint disconnected")
}

// Send enqueues the announcement for its destination. Unknown destinations
// and full queues drop the announcement.
func (sw *Switch) Send(d model.Delivery) bool {
	// Holding the read lock keeps Disconnect from closing tx under us.
	sw.mx.RLock()
	defer sw.mx.RUnlock()

	tx, ok := sw.fwd[d.DST]
	if !ok {
		sw.logger.Debug().Str("dst", d.DST).Str("type", d.Type).Msg("cannot forward, dst not found")
		return false
	}
	select {
	case tx <- d.Announcement:
		sw.logger.Trace().Str("dst", d.DST).Str("type", d.Type).Msg("announce is forwarded")
		return true
	default:
		sw.logger.Warn().Str("dst", d.DST).Str("type", d.Type).Msg("outbound queue is full, announce dropped")
		return false
	}
}

// Dispatch sends every delivery and returns how many were enqueued.
func (sw *Switch) Dispatch(deliveries []model.Delivery) int {
	var sent int
	for _, d := range deliveries {
		if sw.Send(d) {
			sent++
		}
	}
	return sent
}
