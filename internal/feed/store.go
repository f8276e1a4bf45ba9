package feed

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Store holds the latest snapshot per source.
type Store interface {
	Put(ctx context.Context, snap Snapshot) error
	All(ctx context.Context) (map[string]Snapshot, error)
}

const (
	keyPrefix  = "feed:snapshot:"
	sourcesKey = "feed:sources"
)

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
}

type MemoryStore struct {
	mu    sync.Mutex
	TTL   time.Duration
	items map[string]memItem
	now   func() time.Time
}

type memItem struct {
	snap Snapshot
	exp  time.Time
}

// NewStore connects to redis when url is set and reachable, otherwise falls
// back to an in-process store.
func NewStore(url string, ttl time.Duration, logger *zap.Logger) Store {
	if url == "" {
		return NewMemoryStore(ttl)
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		if logger != nil {
			logger.Warn("invalid redis url, using memory feed store", zap.Error(err))
		}
		return NewMemoryStore(ttl)
	}
	client := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		if logger != nil {
			logger.Warn("redis unreachable, using memory feed store", zap.Error(err))
		}
		_ = client.Close()
		return NewMemoryStore(ttl)
	}
	return &RedisStore{Client: client, TTL: ttl}
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{TTL: ttl, items: map[string]memItem{}, now: time.Now}
}

func (r *RedisStore) Put(ctx context.Context, snap Snapshot) error {
	if snap.Source == "" {
		return errors.New("snapshot source is empty")
	}
	raw, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	pipe := r.Client.TxPipeline()
	pipe.Set(ctx, keyPrefix+snap.Source, raw, r.TTL)
	pipe.SAdd(ctx, sourcesKey, snap.Source)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) All(ctx context.Context) (map[string]Snapshot, error) {
	sources, err := r.Client.SMembers(ctx, sourcesKey).Result()
	if err != nil {
		return nil, err
	}
	out := make(map[string]Snapshot, len(sources))
	if len(sources) == 0 {
		return out, nil
	}
	keys := make([]string, 0, len(sources))
	for _, s := range sources {
		keys = append(keys, keyPrefix+s)
	}
	vals, err := r.Client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			// expired; drop it from the index
			_ = r.Client.SRem(ctx, sourcesKey, sources[i]).Err()
			continue
		}
		var snap Snapshot
		if err := json.Unmarshal([]byte(str), &snap); err != nil {
			continue
		}
		out[snap.Source] = snap
	}
	return out, nil
}

func (m *MemoryStore) Put(_ context.Context, snap Snapshot) error {
	if snap.Source == "" {
		return errors.New("snapshot source is empty")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	exp := time.Time{}
	if m.TTL > 0 {
		exp = m.now().Add(m.TTL)
	}
	m.items[snap.Source] = memItem{snap: snap, exp: exp}
	return nil
}

func (m *MemoryStore) All(_ context.Context) (map[string]Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	out := make(map[string]Snapshot, len(m.items))
	for key, it := range m.items {
		if !it.exp.IsZero() && now.After(it.exp) {
			delete(m.items, key)
			continue
		}
		out[key] = it.snap
	}
	return out, nil
}
