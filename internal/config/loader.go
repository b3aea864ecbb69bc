package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Logger   LoggerConfig   `mapstructure:"logger"`
	Board    BoardConfig    `mapstructure:"board"`
	Features FeaturesConfig `mapstructure:"features"`
	Relay    RelayConfig    `mapstructure:"relay"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port" validate:"min=0,max=65535"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" validate:"min=0"`
}

func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type LoggerConfig struct {
	Level            string   `mapstructure:"level"`
	Encoding         string   `mapstructure:"encoding" validate:"omitempty,oneof=console json"`
	OutputPaths      []string `mapstructure:"output_paths" validate:"min=1"`
	ErrorOutputPaths []string `mapstructure:"error_output_paths" validate:"min=1"`
}

// BoardConfig tunes the websocket endpoint and the sync event loop.
type BoardConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins" validate:"min=1"`
	ClientBuffer    int      `mapstructure:"client_buffer" validate:"min=1"`
	InboundBuffer   int      `mapstructure:"inbound_buffer" validate:"min=1"`
	ReadBufferSize  int      `mapstructure:"read_buffer_size" validate:"min=0"`
	WriteBufferSize int      `mapstructure:"write_buffer_size" validate:"min=0"`
}

type FeaturesConfig struct {
	RequestIDHeader      string `mapstructure:"request_id_header"`
	EnableRequestLogging bool   `mapstructure:"enable_request_logging"`
}

// RelayConfig controls publishing of every broadcast snapshot to redis pub/sub.
type RelayConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	Addr           string        `mapstructure:"addr" validate:"required_if=Enabled true"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db" validate:"min=0"`
	Channel        string        `mapstructure:"channel" validate:"required_if=Enabled true"`
	PublishTimeout time.Duration `mapstructure:"publish_timeout" validate:"gt=0"`
	QueueSize      int           `mapstructure:"queue_size" validate:"min=1"`
}

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.read_timeout", 0)
	v.SetDefault("server.write_timeout", 0)
	v.SetDefault("server.idle_timeout", 120*time.Second)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "console")
	v.SetDefault("logger.output_paths", []string{"stdout"})
	v.SetDefault("logger.error_output_paths", []string{"stderr"})

	v.SetDefault("board.allowed_origins", []string{"*"})
	v.SetDefault("board.client_buffer", 64)
	v.SetDefault("board.inbound_buffer", 256)
	v.SetDefault("board.read_buffer_size", 4096)
	v.SetDefault("board.write_buffer_size", 4096)

	v.SetDefault("features.request_id_header", "X-Request-ID")
	v.SetDefault("features.enable_request_logging", true)

	v.SetDefault("relay.enabled", false)
	v.SetDefault("relay.addr", "")
	v.SetDefault("relay.password", "")
	v.SetDefault("relay.db", 0)
	v.SetDefault("relay.channel", "board:snapshots")
	v.SetDefault("relay.publish_timeout", 2*time.Second)
	v.SetDefault("relay.queue_size", 64)
}

// Load reads the YAML file at path (if it exists), overlays BOARD_* environment
// variables and validates the result. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
