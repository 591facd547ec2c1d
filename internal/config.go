package internal

import (
	"fmt"
	"time"
)

type Config struct {
	Host string `env:"HOST,required=true"`
	Port int    `env:"PORT,required=true"`

	NodeID string `env:"NODE_ID"`

	RedisAddr     string `env:"REDIS_ADDR,required=true"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB"`

	BadgerFilepath string `env:"BADGER_FILEPATH,required=true"`
	LogLevel       string `env:"LOG_LEVEL,required=true"`

	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,required=true"`
	HandshakeTimeout  time.Duration `env:"HANDSHAKE_TIMEOUT,required=true"`

	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,required=true"`
	PresenceTTL          time.Duration `env:"PRESENCE_TTL,required=true"`
	DedupWindow          time.Duration `env:"DEDUP_WINDOW,required=true"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,required=true"`
	ShutdownTimeout      time.Duration `env:"SHUTDOWN_TIMEOUT,required=true"`

	SendWindow time.Duration `env:"SEND_WINDOW,required=true"`
	SendLimit  int64         `env:"SEND_LIMIT,required=true"`
	HTTPWindow time.Duration `env:"HTTP_WINDOW,required=true"`
	HTTPLimit  int64         `env:"HTTP_LIMIT,required=true"`
}

// Validate catches value combinations the env tags cannot express.
func (c Config) Validate() error {
	if c.PresenceTTL < 3*time.Second {
		return fmt.Errorf("PRESENCE_TTL must be at least 3s, got %s", c.PresenceTTL)
	}
	if c.SendLimit <= 0 || c.HTTPLimit <= 0 {
		return fmt.Errorf("rate limits must be positive, got send=%d http=%d", c.SendLimit, c.HTTPLimit)
	}
	return nil
}
