package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is stripped from environment variables before they are mapped
// onto configuration keys: VGC_SERVER_PORT -> server.port.
const EnvPrefix = "VGC_"

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Log      LogConfig      `koanf:"log"`
	Listing  ListingConfig  `koanf:"listing"`
}

type ServerConfig struct {
	Host           string        `koanf:"host"`
	Port           int           `koanf:"port"            validate:"min=1,max=65535"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	StaticDir      string        `koanf:"static_dir"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
}

// Addr is the listen address for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	// Driver is a database/sql driver name: sqlite3 or pgx.
	Driver          string        `koanf:"driver"            validate:"required,oneof=sqlite3 pgx"`
	DSN             string        `koanf:"dsn"               validate:"required"`
	MaxOpenConns    int           `koanf:"max_open_conns"    validate:"min=0"`
	MaxIdleConns    int           `koanf:"max_idle_conns"    validate:"min=0"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
}

type LogConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `koanf:"json"`
}

type ListingConfig struct {
	DefaultPageSize int `koanf:"default_page_size" validate:"min=1"`
	MaxPageSize     int `koanf:"max_page_size"     validate:"min=1,gtefield=DefaultPageSize"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           5000,
			AllowedOrigins: []string{"http://localhost:*"},
			RequestTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:          "sqlite3",
			DSN:             "./vgcatalog.db",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
		Listing: ListingConfig{
			DefaultPageSize: 10,
			MaxPageSize:     100,
		},
	}
}

// Load builds the configuration from defaults, an optional dotenv file and
// VGC_* environment variables, in that order of precedence.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	k := koanf.New(".")
	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}
	if err := k.Load(env.Provider(".", env.Opt{
		Prefix:        EnvPrefix,
		TransformFunc: transformEnvKey,
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// transformEnvKey maps DATABASE_MAX_OPEN_CONNS to database.max_open_conns:
// the first segment names the section, the rest is the field.
func transformEnvKey(key, value string) (string, any) {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	section, field, ok := strings.Cut(key, "_")
	if !ok {
		return key, value
	}
	return section + "." + field, value
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
