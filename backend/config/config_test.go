package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.APIListenAddr)
	assert.Equal(t, ":8888", cfg.WSListenAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.False(t, cfg.LogPretty)
	assert.Equal(t, int64(10<<20), cfg.MaxFileSize)
	assert.Equal(t, int64(16<<20), cfg.WSMaxMessageSize)
	assert.Equal(t, 256, cfg.OutboundQueueSize)
	assert.Equal(t, 5*time.Second, cfg.PingInterval)
	assert.Equal(t, 7*time.Second, cfg.PongWait)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, cfg.ICEServers)
	assert.Empty(t, cfg.AllowedOrigins)
}

func TestLoad_Flags(t *testing.T) {
	cfg, err := Load([]string{
		"-a", ":9090",
		"--log-level", "info",
		"--max-file-size", "1024",
		"--pong-wait", "30s",
		"--ice-servers", "stun:a.example.com:3478,turn:b.example.com:3478",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.APIListenAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(1024), cfg.MaxFileSize)
	assert.Equal(t, 30*time.Second, cfg.PongWait)
	assert.Equal(t, []string{"stun:a.example.com:3478", "turn:b.example.com:3478"}, cfg.ICEServers)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("MEETING_WS_LISTEN_ADDR", ":7777")
	t.Setenv("MEETING_OUTBOUND_QUEUE_SIZE", "8")

	cfg, err := Load(nil)
	require.NoError(t, err)
	assert.Equal(t, ":7777", cfg.WSListenAddr)
	assert.Equal(t, 8, cfg.OutboundQueueSize)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log-level: warn\nping-interval: 10s\n"), 0o600))

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.PingInterval)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load([]string{"--no-such-flag"})
	assert.ErrorIs(t, err, ErrParse)

	_, err = Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")})
	assert.ErrorIs(t, err, ErrParse)
}

func TestConfig_WebRTCICEServers(t *testing.T) {
	cfg := &Config{
		ICEServers: []string{
			"stun:stun.l.google.com:19302",
			"turn:turn.example.com:3478?transport=udp",
		},
		ICEUsername:   "user",
		ICECredential: "secret",
	}

	servers, err := cfg.WebRTCICEServers()
	require.NoError(t, err)
	require.Len(t, servers, 2)
	assert.Equal(t, []string{"stun:stun.l.google.com:19302"}, servers[0].URLs)
	assert.Empty(t, servers[0].Username)
	assert.Equal(t, []string{"turn:turn.example.com:3478?transport=udp"}, servers[1].URLs)
	assert.Equal(t, "user", servers[1].Username)
	assert.Equal(t, "secret", servers[1].Credential)
	assert.Equal(t, webrtc.ICECredentialTypePassword, servers[1].CredentialType)

	cfg.ICEServers = []string{"http://not-ice"}
	_, err = cfg.WebRTCICEServers()
	assert.ErrorIs(t, err, ErrICEServer)
}
