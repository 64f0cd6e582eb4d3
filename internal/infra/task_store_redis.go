package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Vovarama1992/voicetodo/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisTaskStore stores the serialized task map as one string value.
type RedisTaskStore struct {
	rdb *redis.Client
	key string
}

func NewRedisTaskStore(ctx context.Context, addr, password string) (*RedisTaskStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisTaskStore{rdb: rdb, key: TasksKey}, nil
}

func (s *RedisTaskStore) Close() error { return s.rdb.Close() }

func (s *RedisTaskStore) Load(ctx context.Context) (map[string]models.Task, error) {
	tasks := make(map[string]models.Task)

	raw, err := s.rdb.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return tasks, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", s.key, err)
	}
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.key, err)
	}
	return tasks, nil
}

func (s *RedisTaskStore) Save(ctx context.Context, tasks map[string]models.Task) error {
	raw, err := json.Marshal(tasks)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key, raw, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", s.key, err)
	}
	return nil
}
