package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/31triplefirstfood-stack/nailsandbrows/internal/domain"
)

const DefaultRedisKey = "nailsandbrows:settings"

// Redis stores settings as one JSON document. A missing key reads as the
// fallback settings.
type Redis struct {
	client   *redis.Client
	key      string
	fallback domain.BusinessSettings
}

func NewRedis(addr string, password string, db int, fallback domain.BusinessSettings) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return NewRedisWithClient(client, DefaultRedisKey, fallback)
}

func NewRedisWithClient(client *redis.Client, key string, fallback domain.BusinessSettings) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key, fallback: fallback}
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) Get(ctx context.Context) (domain.BusinessSettings, error) {
	val, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return r.fallback, nil
	}
	if err != nil {
		return domain.BusinessSettings{}, fmt.Errorf("read settings: %w", err)
	}

	var value domain.BusinessSettings
	if err := json.Unmarshal([]byte(val), &value); err != nil {
		return domain.BusinessSettings{}, fmt.Errorf("decode settings: %w", err)
	}
	return value, nil
}

func (r *Redis) Put(ctx context.Context, value domain.BusinessSettings) (domain.BusinessSettings, error) {
	value, err := Normalize(value, r.fallback)
	if err != nil {
		return domain.BusinessSettings{}, err
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return domain.BusinessSettings{}, err
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return domain.BusinessSettings{}, fmt.Errorf("write settings: %w", err)
	}
	return value, nil
}
