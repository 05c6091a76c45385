package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/adwski/webrtc-meeting/backend/model"
	"github.com/adwski/webrtc-meeting/backend/storage/memory"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog"
)

const (
	defaultShutdownDeadline = 10 * time.Second
)

var (
	ErrUnexpected = errors.New("unexpected server error")
)

type RoomService interface {
	ListRooms() []model.RoomSummary
	GetRoom(roomID string) (*model.Room, error)
}

type GenericResponse struct {
	Message string      `json:"message,omitempty"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

type Server struct {
	logger     zerolog.Logger
	svc        RoomService
	iceServers []webrtc.ICEServer
	*http.Server
}

type Config struct {
	Logger      *zerolog.Logger
	RoomService RoomService
	ListenAddr  string

	// ICEServers is handed to clients for their peer connections.
	ICEServers []webrtc.ICEServer
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		logger:     cfg.Logger.With().Str("component", "api-server").Logger(),
		svc:        cfg.RoomService,
		iceServers: cfg.ICEServers,
	}
	if srv.iceServers == nil {
		srv.iceServers = []webrtc.ICEServer{}
	}

	r := http.NewServeMux()
	r.HandleFunc("GET /health", srv.health)
	r.HandleFunc("GET /api/rooms", srv.listRooms)
	r.HandleFunc("GET /api/rooms/{roomID}", srv.getRoom)
	r.HandleFunc("GET /api/ice-servers", srv.getICEServers)
	r.HandleFunc("OPTIONS /", corsHandler)

	srv.Server = &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}
	return srv
}

func corsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")
	w.Header().Set("Access-Control-Max-Age", "86400")
	w.Header().Set("Access-Control-Allow-Credentials", "true")
	w.WriteHeader(http.StatusNoContent)
}

func (srv *Server) health(w http.ResponseWriter, _ *http.Request) {
	srv.respond(w, http.StatusOK, &GenericResponse{Message: "OK"})
}

func (srv *Server) listRooms(w http.ResponseWriter, _ *http.Request) {
	srv.respond(w, http.StatusOK, &GenericResponse{Data: srv.svc.ListRooms()})
}

func (srv *Server) getRoom(w http.ResponseWriter, r *http.Request) {
	roomID := r.PathValue("roomID")
	room, err := srv.svc.GetRoom(roomID)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, memory.ErrRoomNotFound) {
			code = http.StatusNotFound
		}
		srv.logger.Trace().Err(err).Str("roomID", roomID).Msg("room lookup failed")
		srv.respond(w, code, &GenericResponse{Error: err.Error()})
		return
	}
	srv.respond(w, http.StatusOK, &GenericResponse{Data: room})
}

func (srv *Server) getICEServers(w http.ResponseWriter, _ *http.Request) {
	srv.respond(w, http.StatusOK, &GenericResponse{Data: srv.iceServers})
}

func (srv *Server) respond(w http.ResponseWriter, code int, resp *GenericResponse) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	b, err := json.Marshal(resp)
	if err != nil {
		srv.logger.Error().Err(err).Msg("failed to marshall response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeBytes(w, code, b)
}

func writeBytes(w http.ResponseWriter, code int, b []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(code)
	if _, err := w.Write(b); err != nil {
		log.Printf("failed to write response: %v", err)
	}
}

func (srv *Server) Run(ctx context.Context, wg *sync.WaitGroup, errc chan<- error) {
	defer func() {
		srv.logger.Debug().Msg("server stopped")
		wg.Done()
	}()

	hErr := make(chan error)
	go func() {
		hErr <- srv.ListenAndServe()
	}()

	srv.logger.Info().Str("addr", srv.Addr).Msg("server started")

	select {
	case err := <-hErr:
		if !errors.Is(err, http.ErrServerClosed) {
			errc <- errors.Join(ErrUnexpected, err)
		}
	case <-ctx.Done():
		shCtx, shCancel := context.WithTimeout(context.Background(), defaultShutdownDeadline)
		defer shCancel()
		if err := srv.Shutdown(shCtx); err != nil {
			srv.logger.Error().Err(err).Msg("server shutdown failed")
		}
	}
}
