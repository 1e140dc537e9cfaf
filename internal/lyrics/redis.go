package lyrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "flux:lyrics:"

// RedisStore is a Store shared between clients through Redis.
// Each entry is one JSON value with an optional TTL.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

type redisEntry struct {
	Ref      string `json:"ref"`
	Text     string `json:"text,omitempty"`
	Found    bool   `json:"found"`
	CachedAt int64  `json:"cachedAt"`
}

// NewRedisStore creates a store on client. A zero ttl keeps entries
// forever.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// DialRedis connects to addr and checks the connection.
func DialRedis(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return client, nil
}

func redisKey(path string) string {
	return redisKeyPrefix + path
}

// LoadLyrics implements Store.
func (s *RedisStore) LoadLyrics(ctx context.Context, path string) (Entry, bool, error) {
	raw, err := s.client.Get(ctx, redisKey(path)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("get lyrics: %w", err)
	}

	var re redisEntry
	if err := json.Unmarshal(raw, &re); err != nil {
		// Corrupt entries are misses.
		return Entry{}, false, nil //nolint:nilerr // treated as absent
	}
	return Entry{
		Path:     path,
		Ref:      re.Ref,
		Result:   Result{Text: re.Text, Found: re.Found},
		CachedAt: time.UnixMilli(re.CachedAt),
	}, true, nil
}

// SaveLyrics implements Store.
func (s *RedisStore) SaveLyrics(ctx context.Context, e Entry) error {
	raw, err := json.Marshal(redisEntry{
		Ref:      e.Ref,
		Text:     e.Result.Text,
		Found:    e.Result.Found,
		CachedAt: e.CachedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal lyrics: %w", err)
	}
	if err := s.client.Set(ctx, redisKey(e.Path), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("set lyrics: %w", err)
	}
	return nil
}

// DeleteLyrics implements Store.
func (s *RedisStore) DeleteLyrics(ctx context.Context, path string) error {
	if err := s.client.Del(ctx, redisKey(path)).Err(); err != nil {
		return fmt.Errorf("delete lyrics: %w", err)
	}
	return nil
}

// PruneLyrics implements Store.
func (s *RedisStore) PruneLyrics(ctx context.Context, keep map[string]string) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	var stale []string
	for iter.Next(ctx) {
		key := iter.Val()
		path := strings.TrimPrefix(key, redisKeyPrefix)
		ref, ok := keep[path]
		if !ok {
			stale = append(stale, key)
			continue
		}
		e, found, err := s.LoadLyrics(ctx, path)
		if err != nil {
			return err
		}
		if found && e.Ref != ref {
			stale = append(stale, key)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan lyrics: %w", err)
	}
	if len(stale) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, stale...).Err(); err != nil {
		return fmt.Errorf("prune lyrics: %w", err)
	}
	return nil
}
