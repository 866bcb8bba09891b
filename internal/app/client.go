// Package app wires the session, the resource stores and their
// infrastructure into one Client with an explicit lifecycle.
package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
	"github.com/clientx/workspace-client/internal/core/service"
	"github.com/clientx/workspace-client/internal/infrastructure/credstore"
	"github.com/clientx/workspace-client/internal/infrastructure/gateway"
	"github.com/clientx/workspace-client/internal/pkg/config"
	"github.com/clientx/workspace-client/internal/pkg/validation"
)

// Client is the dependency root handed to the view layer. It is created on
// application start and torn down with Close.
type Client struct {
	Session       *service.SessionService
	Projects      *service.ProjectStore
	Tasks         *service.TaskStore
	Notifications *service.NotificationStore
	Account       *service.AccountService

	creds ports.CredentialStore
	redis *redis.Client
	log   zerolog.Logger
}

// New builds a Client from configuration, opening the configured credential
// store.
func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Client, error) {
	creds, rdb, err := openCredentialStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c, err := Assemble(creds, gateway.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout}, log)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, err
	}
	c.redis = rdb
	return c, nil
}

// Assemble builds a Client over an existing credential store.
func Assemble(creds ports.CredentialStore, gwCfg gateway.Config, log zerolog.Logger) (*Client, error) {
	gw, err := gateway.New(gwCfg, creds, log)
	if err != nil {
		return nil, err
	}
	v := validation.New()

	session := service.NewSessionService(gw, creds, v, log)
	c := &Client{
		Session:       session,
		Projects:      service.NewProjectStore(gw, session, v, log),
		Tasks:         service.NewTaskStore(gw, session, v, log),
		Notifications: service.NewNotificationStore(gw, session, session, log),
		Account:       service.NewAccountService(gw, session, v, log),
		creds:         creds,
		log:           log.With().Str("component", "app").Logger(),
	}
	session.OnEnded(c.resetStores)
	return c, nil
}

// Start restores the persisted session.
func (c *Client) Start(ctx context.Context) (domain.SessionSnapshot, error) {
	return c.Session.Start(ctx)
}

// Logout ends the session and empties every store.
func (c *Client) Logout(ctx context.Context) error {
	err := c.Session.Logout(ctx)
	// Ended hooks only fire for an authenticated session; a logout from any
	// other state still leaves the stores empty.
	c.resetStores()
	return err
}

// Close releases subscribers and the Redis connection, if any.
func (c *Client) Close() error {
	c.Session.Close()
	c.Projects.Close()
	c.Tasks.Close()
	c.Notifications.Close()
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func (c *Client) resetStores() {
	c.Projects.Reset()
	c.Tasks.Reset()
	c.Notifications.Reset()
	c.log.Debug().Msg("stores reset")
}

func openCredentialStore(ctx context.Context, cfg *config.Config) (ports.CredentialStore, *redis.Client, error) {
	switch cfg.Credentials.Backend {
	case config.BackendMemory:
		return credstore.NewMemory(), nil, nil
	case config.BackendRedis:
		rdb, err := credstore.ConnectRedis(ctx, credstore.RedisConfig{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err != nil {
			return nil, nil, fmt.Errorf("credential store: %w", err)
		}
		return credstore.NewRedis(rdb, cfg.Redis.KeyPrefix), rdb, nil
	default:
		path := cfg.Credentials.File
		if path == "" {
			path = credstore.DefaultPath()
		}
		return credstore.NewFile(path), nil, nil
	}
}
