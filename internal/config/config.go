package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	// TransportTCP connects over plain or TLS TCP.
	TransportTCP = "tcp"
	// TransportWebSocket connects over IRC-over-WebSocket.
	TransportWebSocket = "websocket"

	defaultPort    = 6667
	defaultTLSPort = 6697
)

// Config holds client configuration values.
type Config struct {
	Nickname     string   `mapstructure:"nickname" yaml:"nickname"`
	Username     string   `mapstructure:"username" yaml:"username"`
	Realname     string   `mapstructure:"realname" yaml:"realname"`
	Password     string   `mapstructure:"password" yaml:"password"`
	Server       string   `mapstructure:"server" yaml:"server"`
	Port         int      `mapstructure:"port" yaml:"port"`
	UseTLS       bool     `mapstructure:"use_tls" yaml:"use_tls"`
	TLSInsecure  bool     `mapstructure:"tls_insecure_skip_verify" yaml:"tls_insecure_skip_verify"`
	Transport    string   `mapstructure:"transport" yaml:"transport"`
	WebSocketURL string   `mapstructure:"websocket_url" yaml:"websocket_url"`
	Channels     []string `mapstructure:"channels" yaml:"channels"`
	Capabilities []string `mapstructure:"capabilities" yaml:"capabilities"`

	DialTimeout  time.Duration `mapstructure:"dial_timeout" yaml:"dial_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	DrainTimeout time.Duration `mapstructure:"drain_timeout" yaml:"drain_timeout"`
	QueueSize    int           `mapstructure:"queue_size" yaml:"queue_size"`

	LogLevel       string `mapstructure:"log_level" yaml:"log_level"`
	TranscriptPath string `mapstructure:"transcript_path" yaml:"transcript_path"`
	StatusAddr     string `mapstructure:"status_addr" yaml:"status_addr"`
}

// Default returns configuration with reasonable starter defaults. Port is
// left zero so Addr can pick it from the TLS setting.
func Default() Config {
	return Config{
		Transport:    TransportTCP,
		Channels:     []string{},
		Capabilities: []string{},
		DialTimeout:  10 * time.Second,
		IdleTimeout:  5 * time.Minute,
		DrainTimeout: 2 * time.Second,
		QueueSize:    32,
		LogLevel:     "info",
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Nickname != "" {
		c.Nickname = other.Nickname
	}
	if other.Username != "" {
		c.Username = other.Username
	}
	if other.Realname != "" {
		c.Realname = other.Realname
	}
	if other.Password != "" {
		c.Password = other.Password
	}
	if other.Server != "" {
		c.Server = other.Server
	}
	if other.Port != 0 {
		c.Port = other.Port
	}
	if other.UseTLS {
		c.UseTLS = true
	}
	if other.TLSInsecure {
		c.TLSInsecure = true
	}
	if other.Transport != "" {
		c.Transport = other.Transport
	}
	if other.WebSocketURL != "" {
		c.WebSocketURL = other.WebSocketURL
	}
	if len(other.Channels) > 0 {
		c.Channels = other.Channels
	}
	if len(other.Capabilities) > 0 {
		c.Capabilities = other.Capabilities
	}
	if other.DialTimeout != 0 {
		c.DialTimeout = other.DialTimeout
	}
	if other.IdleTimeout != 0 {
		c.IdleTimeout = other.IdleTimeout
	}
	if other.DrainTimeout != 0 {
		c.DrainTimeout = other.DrainTimeout
	}
	if other.QueueSize != 0 {
		c.QueueSize = other.QueueSize
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.TranscriptPath != "" {
		c.TranscriptPath = other.TranscriptPath
	}
	if other.StatusAddr != "" {
		c.StatusAddr = other.StatusAddr
	}
}

// Validate reports the first setting that prevents a session from starting.
func (c Config) Validate() error {
	if c.Nickname == "" {
		return errors.New("nickname is required")
	}
	switch c.Transport {
	case TransportTCP, "":
		if c.Server == "" {
			return errors.New("server is required")
		}
		if c.Port < 0 || c.Port > 65535 {
			return fmt.Errorf("port %d out of range", c.Port)
		}
	case TransportWebSocket:
		if c.WebSocketURL == "" {
			return errors.New("websocket_url is required for the websocket transport")
		}
	default:
		return fmt.Errorf("unknown transport %q", c.Transport)
	}
	if c.QueueSize <= 0 {
		return errors.New("queue_size must be positive")
	}
	for _, ch := range c.Channels {
		if ch == "" {
			return errors.New("channel names must not be empty")
		}
	}
	return nil
}

// Addr returns host:port of the server. A zero port picks the IRC default
// for the TLS setting.
func (c Config) Addr() string {
	port := c.Port
	if port == 0 {
		port = defaultPort
		if c.UseTLS {
			port = defaultTLSPort
		}
	}
	return net.JoinHostPort(c.Server, strconv.Itoa(port))
}

// User returns the user name sent at registration, defaulting to the nickname.
func (c Config) User() string {
	if c.Username != "" {
		return c.Username
	}
	return c.Nickname
}
