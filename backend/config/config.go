// Package config loads server settings from flags, environment and an
// optional config file, in that order of precedence.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/pion/stun/v3"
	"github.com/pion/webrtc/v4"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const envPrefix = "MEETING"

var (
	ErrParse     = errors.New("failed to parse configuration")
	ErrICEServer = errors.New("invalid ice server url")
)

type Config struct {
	APIListenAddr     string        `mapstructure:"api-listen-addr"`
	WSListenAddr      string        `mapstructure:"ws-listen-addr"`
	LogLevel          string        `mapstructure:"log-level"`
	LogPretty         bool          `mapstructure:"log-pretty"`
	MaxFileSize       int64         `mapstructure:"max-file-size"`
	WSMaxMessageSize  int64         `mapstructure:"ws-max-message-size"`
	OutboundQueueSize int           `mapstructure:"outbound-queue-size"`
	PingInterval      time.Duration `mapstructure:"ping-interval"`
	PongWait          time.Duration `mapstructure:"pong-wait"`
	ICEServers        []string      `mapstructure:"ice-servers"`
	ICEUsername       string        `mapstructure:"ice-username"`
	ICECredential     string        `mapstructure:"ice-credential"`
	AllowedOrigins    []string      `mapstructure:"allowed-origins"`
}

// Load parses command line arguments (without the program name).
func Load(args []string) (*Config, error) {
	fs := pflag.NewFlagSet("main", pflag.ContinueOnError)

	configFile := fs.StringP("config", "c", "", "path to config file (yaml, json or toml)")
	fs.StringP("api-listen-addr", "a", ":8080", "api listen address")
	fs.StringP("ws-listen-addr", "w", ":8888", "websocket signaling listen address")
	fs.StringP("log-level", "l", "debug", "log level")
	fs.Bool("log-pretty", false, "human-friendly console logs")
	fs.Int64("max-file-size", 10<<20, "max relayed file size in bytes, 0 disables the limit")
	fs.Int64("ws-max-message-size", 16<<20, "max inbound websocket message size in bytes")
	fs.Int("outbound-queue-size", 256, "per-connection outbound queue length")
	fs.Duration("ping-interval", 5*time.Second, "websocket ping interval")
	fs.Duration("pong-wait", 7*time.Second, "how long to wait for pong before dropping connection")
	fs.StringSlice("ice-servers", []string{"stun:stun.l.google.com:19302"}, "STUN/TURN urls advertised to clients")
	fs.String("ice-username", "", "username for TURN servers")
	fs.String("ice-credential", "", "credential for TURN servers")
	fs.StringSlice("allowed-origins", nil, "allowed websocket origins, empty allows any")

	if err := fs.Parse(args); err != nil {
		return nil, errors.Join(ErrParse, err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	if *configFile != "" {
		v.SetConfigFile(*configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Join(ErrParse, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Join(ErrParse, err)
	}
	return &cfg, nil
}

// WebRTCICEServers converts the configured urls into the ICE server list
// clients feed to their peer connections. Credentials only apply to TURN.
func (c *Config) WebRTCICEServers() ([]webrtc.ICEServer, error) {
	var stunURLs, turnURLs []string
	for _, raw := range c.ICEServers {
		u, err := stun.ParseURI(raw)
		if err != nil {
			return nil, errors.Join(ErrICEServer, err)
		}
		switch u.Scheme {
		case stun.SchemeTypeTURN, stun.SchemeTypeTURNS:
			turnURLs = append(turnURLs, raw)
		default:
			stunURLs = append(stunURLs, raw)
		}
	}

	servers := make([]webrtc.ICEServer, 0, 2)
	if len(stunURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{URLs: stunURLs})
	}
	if len(turnURLs) > 0 {
		servers = append(servers, webrtc.ICEServer{
			URLs:           turnURLs,
			Username:       c.ICEUsername,
			Credential:     c.ICECredential,
			CredentialType: webrtc.ICECredentialTypePassword,
		})
	}
	return servers, nil
}
