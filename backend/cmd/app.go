package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/adwski/webrtc-meeting/backend/config"
	"github.com/adwski/webrtc-meeting/backend/moderation"
	httpServer "github.com/adwski/webrtc-meeting/backend/server/http"
	websocketServer "github.com/adwski/webrtc-meeting/backend/server/websocket"
	"github.com/adwski/webrtc-meeting/backend/service"
	store "github.com/adwski/webrtc-meeting/backend/storage/memory"
	sw "github.com/adwski/webrtc-meeting/backend/switch"
	"github.com/rs/zerolog"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.LogPretty {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse loglevel")
	}
	logger = logger.Level(lvl)

	iceServers, err := cfg.WebRTCICEServers()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to parse ice servers")
	}

	rooms := store.NewMemStore()
	svc := service.NewService(service.Config{
		Registry: rooms,
		Switch: sw.NewSwitch(sw.Config{
			Logger:    &logger,
			QueueSize: cfg.OutboundQueueSize,
		}),
		Moderator:   moderation.Default(),
		Logger:      &logger,
		MaxFileSize: cfg.MaxFileSize,
	})
	httpSrv := httpServer.NewServer(httpServer.Config{
		Logger:      &logger,
		RoomService: rooms,
		ListenAddr:  cfg.APIListenAddr,
		ICEServers:  iceServers,
	})
	wsSrv := websocketServer.NewServer(websocketServer.Config{
		Logger:           &logger,
		SignalingService: svc,
		ListenAddr:       cfg.WSListenAddr,
		MaxMessageSize:   cfg.WSMaxMessageSize,
		PingInterval:     cfg.PingInterval,
		PongWait:         cfg.PongWait,
		AllowedOrigins:   cfg.AllowedOrigins,
	})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		wg   = &sync.WaitGroup{}
		errc = make(chan error, 2)
	)
	wg.Add(2)
	go httpSrv.Run(ctx, wg, errc)
	go wsSrv.Run(ctx, wg, errc)

	select {
	case err = <-errc:
		logger.Error().Err(err).Msg("unexpected server error, shutting down")
	case <-ctx.Done():
		logger.Warn().Msg("interrupted")
	}
	cancel()
	wg.Wait()
}
