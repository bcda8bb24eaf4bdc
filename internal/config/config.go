// Package config loads the application settings from a JSON file, applies
// environment overrides and fills in defaults.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	timex "github.com/cxuy/cxkit/internal/pkg/time"
)

const (
	DefaultPort           = 5867
	DefaultMaxPortRetries = 10
	DefaultFlushThreshold = 10
	DefaultLogFile        = "logger/logcat.log"
)

type App struct {
	Name    string `json:"name,omitempty" env:"NAME"`
	Env     string `json:"env,omitempty" env:"ENV"`
	RootDir string `json:"root_dir,omitempty" env:"ROOT_DIR"`
	Debug   bool   `json:"debug,omitempty" env:"DEBUG"`
}

type Server struct {
	Host            string         `json:"host,omitempty" env:"HOST"`
	Port            int            `json:"port,omitempty" env:"PORT"`
	MaxPortRetries  int            `json:"max_port_retries,omitempty" env:"MAX_PORT_RETRIES"`
	ReadTimeout     timex.Duration `json:"read_timeout,omitempty" env:"READ_TIMEOUT"`
	WriteTimeout    timex.Duration `json:"write_timeout,omitempty" env:"WRITE_TIMEOUT"`
	IdleTimeout     timex.Duration `json:"idle_timeout,omitempty" env:"IDLE_TIMEOUT"`
	ShutdownTimeout timex.Duration `json:"shutdown_timeout,omitempty" env:"SHUTDOWN_TIMEOUT"`
	MaxBodyBytes    int64          `json:"max_body_bytes,omitempty" env:"MAX_BODY_BYTES"`
}

type Client struct {
	BaseURL         string         `json:"base_url,omitempty" env:"BASE_URL"`
	ConnectTimeout  timex.Duration `json:"connect_timeout,omitempty" env:"CONNECT_TIMEOUT"`
	ResponseTimeout timex.Duration `json:"response_timeout,omitempty" env:"RESPONSE_TIMEOUT"`
}

type Log struct {
	Level  string `json:"level,omitempty" env:"LEVEL"`
	ToFile bool   `json:"to_file,omitempty" env:"TO_FILE"`
	File   string `json:"file,omitempty" env:"FILE"`
}

type DB struct {
	Enabled         bool           `json:"enabled,omitempty" env:"ENABLED"`
	Driver          string         `json:"driver,omitempty" env:"DRIVER"`
	URL             string         `json:"-" env:"URL"`
	MaxOpenConns    int            `json:"max_open_conns,omitempty" env:"MAX_OPEN_CONNS"`
	MaxIdleConns    int            `json:"max_idle_conns,omitempty" env:"MAX_IDLE_CONNS"`
	ConnMaxIdleTime timex.Duration `json:"conn_max_idle_time,omitempty" env:"CONN_MAX_IDLE_TIME"`
	ConnMaxLifetime timex.Duration `json:"conn_max_lifetime,omitempty" env:"CONN_MAX_LIFETIME"`
	PingTimeout     timex.Duration `json:"ping_timeout,omitempty" env:"PING_TIMEOUT"`
}

type KV struct {
	Backend        string `json:"backend,omitempty" env:"BACKEND"`
	FlushThreshold int    `json:"flush_threshold,omitempty" env:"FLUSH_THRESHOLD"`
}

type JWT struct {
	Issuer string         `json:"issuer,omitempty" env:"ISSUER"`
	TTL    timex.Duration `json:"ttl,omitempty" env:"TTL"`
}

type Argon2 struct {
	Memory     uint32 `json:"memory,omitempty"`
	Iterations uint32 `json:"iterations,omitempty"`
	Threads    uint8  `json:"threads,omitempty"`
	SaltLength uint32 `json:"salt_length,omitempty"`
	KeyLength  uint32 `json:"key_length,omitempty"`
}

type Cache struct {
	Shards   int `json:"shards,omitempty" env:"SHARDS"`
	Capacity int `json:"capacity,omitempty" env:"CAPACITY"`
}

type Config struct {
	App    *App    `json:"app,omitempty" envPrefix:"APP_"`
	Server *Server `json:"server,omitempty" envPrefix:"SERVER_"`
	Client *Client `json:"client,omitempty" envPrefix:"CLIENT_"`
	Log    *Log    `json:"log,omitempty" envPrefix:"LOG_"`
	DB     *DB     `json:"db,omitempty" envPrefix:"DB_"`
	KV     *KV     `json:"kv,omitempty" envPrefix:"KV_"`
	JWT    *JWT    `json:"jwt,omitempty" envPrefix:"JWT_"`
	Argon2 *Argon2 `json:"argon2,omitempty"`
	Cache  *Cache  `json:"cache,omitempty" envPrefix:"CACHE_"`

	// Key signs tokens and peppers password hashes. It only comes from the
	// environment.
	Key string `json:"-" env:"KEY"`
}

func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Any("app", c.App),
		slog.Any("server", c.Server),
		slog.Any("client", c.Client),
		slog.Any("log", c.Log),
		slog.Bool("db_enabled", c.DB.Enabled),
		slog.Any("kv", c.KV),
		slog.Any("jwt", c.JWT),
		slog.Any("cache", c.Cache),
	)
}

// IsProduction reports whether the app runs with ENV=production.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

// Load reads cfgFile, applies environment overrides and defaults. A missing
// file is not an error when cfgFile is empty.
func Load(cfgFile string) (*Config, error) {
	cfg := &Config{}
	if cfgFile != "" {
		parsed, err := parseCfgFile(cfgFile)
		if err != nil {
			return nil, err
		}
		cfg = parsed
	}
	cfg.ensureSections()

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func parseCfgFile(cfgFile string) (*Config, error) {
	cfgFile = filepath.Clean(cfgFile)
	raw, err := os.ReadFile(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
	}

	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decode json config %s: %w", cfgFile, err)
	}
	return &cfg, nil
}

func (c *Config) ensureSections() {
	if c.App == nil {
		c.App = &App{}
	}
	if c.Server == nil {
		c.Server = &Server{}
	}
	if c.Client == nil {
		c.Client = &Client{}
	}
	if c.Log == nil {
		c.Log = &Log{}
	}
	if c.DB == nil {
		c.DB = &DB{}
	}
	if c.KV == nil {
		c.KV = &KV{}
	}
	if c.JWT == nil {
		c.JWT = &JWT{}
	}
	if c.Argon2 == nil {
		c.Argon2 = &Argon2{}
	}
	if c.Cache == nil {
		c.Cache = &Cache{}
	}
}

func (c *Config) applyDefaults() {
	setDefault(&c.App.Name, "cxkit")
	setDefault(&c.App.Env, "development")

	setDefault(&c.Server.Port, DefaultPort)
	setDefault(&c.Server.MaxPortRetries, DefaultMaxPortRetries)
	setDefault(&c.Server.ReadTimeout.Duration, 10*time.Second)
	setDefault(&c.Server.WriteTimeout.Duration, 10*time.Second)
	setDefault(&c.Server.IdleTimeout.Duration, time.Minute)
	setDefault(&c.Server.ShutdownTimeout.Duration, 10*time.Second)
	setDefault(&c.Server.MaxBodyBytes, 1<<20)

	setDefault(&c.Client.BaseURL, fmt.Sprintf("http://localhost:%d", c.Server.Port))
	setDefault(&c.Client.ConnectTimeout.Duration, 5*time.Second)
	setDefault(&c.Client.ResponseTimeout.Duration, 10*time.Second)

	setDefault(&c.Log.Level, "INFO")
	setDefault(&c.Log.File, DefaultLogFile)

	setDefault(&c.DB.Driver, "pgx")
	setDefault(&c.DB.MaxOpenConns, 10)
	setDefault(&c.DB.MaxIdleConns, 5)
	setDefault(&c.DB.ConnMaxIdleTime.Duration, 5*time.Minute)
	setDefault(&c.DB.ConnMaxLifetime.Duration, time.Hour)
	setDefault(&c.DB.PingTimeout.Duration, 5*time.Second)

	setDefault(&c.KV.Backend, "file")
	setDefault(&c.KV.FlushThreshold, DefaultFlushThreshold)

	setDefault(&c.JWT.Issuer, c.App.Name)
	setDefault(&c.JWT.TTL.Duration, 24*time.Hour)

	setDefault(&c.Argon2.Memory, 64*1024)
	setDefault(&c.Argon2.Iterations, 3)
	setDefault(&c.Argon2.Threads, 2)
	setDefault(&c.Argon2.SaltLength, 16)
	setDefault(&c.Argon2.KeyLength, 32)

	setDefault(&c.Cache.Shards, 16)
}

func setDefault[T comparable](field *T, def T) {
	var zero T
	if *field == zero {
		*field = def
	}
}
