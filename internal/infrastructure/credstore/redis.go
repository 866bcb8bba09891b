package credstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// RedisConfig captures the settings for establishing a Redis connection.
type RedisConfig struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// ConnectRedis initialises a Redis client and validates connectivity with a
// ping. A default timeout is applied when none is provided.
func ConnectRedis(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
		DB:   cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return client, nil
}

// Redis stores credentials as plain keys with no expiry.
// Key format: <prefix>:access_token, <prefix>:refresh_token, <prefix>:user_role
type Redis struct {
	client *redis.Client
	prefix string
}

var _ ports.CredentialStore = (*Redis)(nil)

// NewRedis wraps client. prefix namespaces the keys, so several profiles can
// share one Redis database.
func NewRedis(client *redis.Client, prefix string) *Redis {
	if prefix == "" {
		prefix = "clientx"
	}
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) Save(ctx context.Context, cred domain.Credential) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.key("access_token"), cred.AccessToken, 0)
		if cred.RenewalToken != "" {
			pipe.Set(ctx, r.key("refresh_token"), cred.RenewalToken, 0)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("credstore: redis save: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context) (domain.Credential, error) {
	values, err := r.client.MGet(ctx, r.key("access_token"), r.key("refresh_token")).Result()
	if err != nil {
		return domain.Credential{}, fmt.Errorf("credstore: redis load: %w", err)
	}
	var cred domain.Credential
	if s, ok := values[0].(string); ok {
		cred.AccessToken = s
	}
	if s, ok := values[1].(string); ok {
		cred.RenewalToken = s
	}
	return cred, nil
}

func (r *Redis) SaveRole(ctx context.Context, role domain.Role) error {
	if err := r.client.Set(ctx, r.key("user_role"), string(role), 0).Err(); err != nil {
		return fmt.Errorf("credstore: redis save role: %w", err)
	}
	return nil
}

func (r *Redis) Role(ctx context.Context) (domain.Role, error) {
	s, err := r.client.Get(ctx, r.key("user_role")).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("credstore: redis role: %w", err)
	}
	return domain.Role(s), nil
}

func (r *Redis) Clear(ctx context.Context) error {
	err := r.client.Del(ctx, r.key("access_token"), r.key("refresh_token"), r.key("user_role")).Err()
	if err != nil {
		return fmt.Errorf("credstore: redis clear: %w", err)
	}
	return nil
}

func (r *Redis) key(name string) string {
	return r.prefix + ":" + name
}
