package sessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"courier-backoffice-service/internal/domain"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore keeps sessions in Redis under "<prefix>:session:<token>"
// and lets Redis expire them.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
}

func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix}
}

type sessionRecord struct {
	Username    string    `json:"username"`
	Role        string    `json:"role"`
	Permissions []string  `json:"permissions"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func (r *RedisSessionStore) key(token string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, token)
}

func (r *RedisSessionStore) Save(ctx context.Context, s domain.Session, ttl time.Duration) error {
	b, err := json.Marshal(sessionRecord{
		Username:    s.Username,
		Role:        string(s.Role),
		Permissions: s.Permissions,
		ExpiresAt:   s.ExpiresAt,
	})
	if err != nil {
		return fmt.Errorf("save session: encode: %w", err)
	}

	if err := r.client.Set(ctx, r.key(s.Token), b, ttl).Err(); err != nil {
		return fmt.Errorf("save session: redis set: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Get(ctx context.Context, token string) (domain.Session, error) {
	if token == "" {
		return domain.Session{}, domain.ErrUnauthorized
	}

	raw, err := r.client.Get(ctx, r.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrUnauthorized
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: redis get: %w", err)
	}

	var rec sessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Session{}, fmt.Errorf("get session: decode: %w", err)
	}

	return domain.Session{
		Token: token,
		Principal: domain.Principal{
			Username:    rec.Username,
			Role:        domain.Role(rec.Role),
			Permissions: rec.Permissions,
		},
		ExpiresAt: rec.ExpiresAt,
	}, nil
}

func (r *RedisSessionStore) Delete(ctx context.Context, token string) error {
	if err := r.client.Del(ctx, r.key(token)).Err(); err != nil {
		return fmt.Errorf("delete session: redis del: %w", err)
	}
	return nil
}
