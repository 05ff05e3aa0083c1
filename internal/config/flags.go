package config

import (
	"fmt"

	"github.com/meur/vgcatalog/internal/logger"
	"github.com/meur/vgcatalog/internal/query"
	"github.com/meur/vgcatalog/internal/storage"
	"github.com/spf13/pflag"
)

// RegisterFlags adds the flags every command shares. A flag overrides the
// environment only when it is set explicitly.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("env-file", ".env", "dotenv file to load before reading VGC_* variables")
	fs.String("driver", "", "database driver: sqlite3 or pgx")
	fs.String("db", "", "database DSN, or a SQLite path (:memory: for a throwaway database)")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.Bool("log-json", false, "emit JSON logs")
}

// LoadFlags loads the configuration and applies the shared flags on top.
func LoadFlags(fs *pflag.FlagSet) (*Config, error) {
	envFile, err := fs.GetString("env-file")
	if err != nil {
		return nil, err
	}
	cfg, err := Load(envFile)
	if err != nil {
		return nil, err
	}
	overrides := []struct {
		flag string
		dst  *string
	}{
		{"driver", &cfg.Database.Driver},
		{"db", &cfg.Database.DSN},
		{"log-level", &cfg.Log.Level},
	}
	for _, o := range overrides {
		if !fs.Changed(o.flag) {
			continue
		}
		if *o.dst, err = fs.GetString(o.flag); err != nil {
			return nil, fmt.Errorf("reading --%s: %w", o.flag, err)
		}
	}
	if fs.Changed("log-json") {
		if cfg.Log.JSON, err = fs.GetBool("log-json"); err != nil {
			return nil, fmt.Errorf("reading --log-json: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (d DatabaseConfig) Storage() storage.Config {
	return storage.Config{
		Driver:          d.Driver,
		DSN:             d.DSN,
		MaxOpenConns:    d.MaxOpenConns,
		MaxIdleConns:    d.MaxIdleConns,
		ConnMaxLifetime: d.ConnMaxLifetime,
	}
}

func (l LogConfig) Logger() *logger.Config {
	cfg := logger.DefaultConfig()
	cfg.Level = logger.LogLevel(l.Level)
	cfg.JSON = l.JSON
	return cfg
}

func (l ListingConfig) Limits() query.Limits {
	return query.Limits{DefaultPageSize: l.DefaultPageSize, MaxPageSize: l.MaxPageSize}
}
