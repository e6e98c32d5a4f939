package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultRedisChannel carries write notifications between contexts.
const DefaultRedisChannel = "anniversary-planner:state"

// RedisStore keeps snapshots in Redis and announces writes on a pub/sub
// channel so other contexts can reload.
type RedisStore struct {
	log     zerolog.Logger
	rdb     *goredis.Client
	channel string
}

type redisRecord struct {
	Value     []byte    `json:"value"`
	Origin    string    `json:"origin"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRedisStore connects to addr and verifies the connection.
func NewRedisStore(ctx context.Context, log zerolog.Logger, addr, channel string) (*RedisStore, error) {
	if addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	if channel == "" {
		channel = DefaultRedisChannel
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisStore{
		log:     log.With().Str("component", "redis_store").Logger(),
		rdb:     rdb,
		channel: channel,
	}, nil
}

func revisionKey(key string) string { return key + ":rev" }

// Get reads the snapshot and its revision.
func (s *RedisStore) Get(ctx context.Context, key string) (*Snapshot, error) {
	var valueCmd, revCmd *goredis.StringCmd
	_, err := s.rdb.Pipelined(ctx, func(p goredis.Pipeliner) error {
		valueCmd = p.Get(ctx, key)
		revCmd = p.Get(ctx, revisionKey(key))
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}

	raw, err := valueCmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	rev, err := revCmd.Int64()
	if err != nil && !errors.Is(err, goredis.Nil) {
		return nil, fmt.Errorf("reading snapshot revision: %w", err)
	}

	var rec redisRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decoding snapshot record: %w", err)
	}
	return &Snapshot{
		Key:       key,
		Value:     rec.Value,
		Origin:    rec.Origin,
		Revision:  rev,
		UpdatedAt: rec.UpdatedAt,
	}, nil
}

// Set writes the snapshot, bumps its revision and publishes a notification,
// all in one MULTI/EXEC.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, origin string) error {
	raw, err := json.Marshal(redisRecord{Value: value, Origin: origin, UpdatedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encoding snapshot record: %w", err)
	}

	var incr *goredis.IntCmd
	_, err = s.rdb.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.Set(ctx, key, raw, 0)
		incr = p.Incr(ctx, revisionKey(key))
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	note, err := json.Marshal(Notification{Key: key, Origin: origin, Revision: incr.Val()})
	if err != nil {
		return err
	}
	if err := s.rdb.Publish(ctx, s.channel, note).Err(); err != nil {
		// The write itself succeeded; other contexts will pick it up on their next load.
		s.log.Warn().Err(err).Str("key", key).Msg("publishing snapshot notification failed")
	}
	return nil
}

// Watch subscribes to the notification channel and forwards writes to key.
func (s *RedisStore) Watch(ctx context.Context, key string, fn func(Notification)) error {
	sub := s.rdb.Subscribe(ctx, s.channel)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("redis subscribe: %w", err)
	}

	go func() {
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = sub.Close()
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					_ = sub.Close()
					return
				}
				var n Notification
				if err := json.Unmarshal([]byte(m.Payload), &n); err != nil {
					s.log.Warn().Err(err).Msg("bad snapshot notification payload")
					continue
				}
				if n.Key != key {
					continue
				}
				fn(n)
			}
		}
	}()
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}
