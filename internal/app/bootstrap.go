package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ferdiebergado/gopherkit/env"

	"github.com/cxuy/cxkit/internal/config"
	"github.com/cxuy/cxkit/internal/framework"
	"github.com/cxuy/cxkit/internal/pkg/logging"
	"github.com/cxuy/cxkit/internal/platform/db"
)

// Options are the command line settings that override the configuration.
type Options struct {
	ConfigFile string
	EnvFile    string
	// Port overrides the server port when not zero.
	Port  int
	Debug bool
}

// LoadConfig loads the env file outside production, then the config file.
func LoadConfig(opts Options) (*config.Config, error) {
	if os.Getenv("APP_ENV") != "production" && opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := env.Load(opts.EnvFile); err != nil {
				return nil, fmt.Errorf("load env: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat env file: %w", err)
		}
	}

	cfgFile := opts.ConfigFile
	if cfgFile != "" {
		if _, err := os.Stat(cfgFile); errors.Is(err, os.ErrNotExist) {
			cfgFile = ""
		}
	}
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}

	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.Debug {
		cfg.App.Debug = true
		cfg.Log.Level = "DEBUG"
	}
	return cfg, nil
}

// SetupLogging installs the default logger for cfg.
func SetupLogging(cfg *config.Config, out io.Writer) (io.Closer, error) {
	file := ""
	if cfg.Log.ToFile {
		file = cfg.Log.File
		if !filepath.IsAbs(file) && cfg.App.RootDir != "" {
			file = filepath.Join(cfg.App.RootDir, file)
		}
	}
	closer, err := logging.Setup(cfg.App.Env, cfg.Log.Level, out, file)
	if err != nil {
		return nil, fmt.Errorf("setup logging: %w", err)
	}
	return closer, nil
}

// Run serves until ctx ends, then shuts everything down.
func Run(ctx context.Context, opts Options) error {
	cfg, err := LoadConfig(opts)
	if err != nil {
		return err
	}

	logCloser, err := SetupLogging(cfg, os.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()

	slog.Info("Initializing...", "config", cfg)

	if cfg.Key == "" {
		return errors.New("security key is not set (KEY)")
	}

	mode := framework.Debug
	if cfg.IsProduction() {
		mode = framework.Release
	}
	fctx, err := framework.New(cfg.App.RootDir, mode)
	if err != nil {
		return err
	}

	var dbConn *sql.DB
	if cfg.DB.Enabled {
		dbConn, err = db.NewPostgresDB(ctx, cfg.DB)
		if err != nil {
			return err
		}
		defer dbConn.Close()
	}

	api, err := New(ctx, cfg, fctx, newProvider(cfg, dbConn))
	if err != nil {
		return err
	}

	startErr := api.Start(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	return errors.Join(startErr, api.Shutdown(shutdownCtx))
}
