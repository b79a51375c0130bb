package main

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/therealutkarshpriyadarshi/downloader/internal/auth"
	"github.com/therealutkarshpriyadarshi/downloader/internal/config"
	"github.com/therealutkarshpriyadarshi/downloader/internal/database"
	"github.com/therealutkarshpriyadarshi/downloader/internal/logging"
)

// repositoryOpener connects to the configured store. db may be nil in tests.
type repositoryOpener func(ctx context.Context, cfg *config.Config) (*database.DB, auth.Repository, error)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	open repositoryOpener
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		open:       openDatabase,
	}
}

func openDatabase(ctx context.Context, cfg *config.Config) (*database.DB, auth.Repository, error) {
	db, err := database.New(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return db, database.NewRepository(db), nil
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		if path == "" {
			path = os.Getenv("CONFIG_PATH")
		}
		if path == "" {
			path = "config.yaml"
		}
		c.config, c.configErr = config.Load(path)
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(cfg *config.Config) (*logging.Logger, error) {
	return logging.NewLogger(logging.Config{
		Level:  cfg.Logging.Level,
		Format: "console",
		Output: "stderr",
	})
}

// withDB hands fn an open connection and closes it afterwards
func (c *commandContext) withDB(ctx context.Context, fn func(db *database.DB) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	db, _, err := c.open(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	return fn(db)
}

// withAuth hands fn an auth service backed by the configured store
func (c *commandContext) withAuth(ctx context.Context, fn func(svc *auth.Service) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	logger, err := c.logger(cfg)
	if err != nil {
		return err
	}
	db, repo, err := c.open(ctx, cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}
	return fn(auth.NewService(repo, nil, cfg.Auth.SessionTTL, logger))
}
