package stockstate

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"dispensecore/store"
)

const (
	pillKeyPrefix = "pill:"
	pillIDSetKey  = "pills:ids"
)

// RedisStore caches pill records as JSON values keyed by id, with a set
// of known ids alongside.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (r *RedisStore) GetPill(ctx context.Context, id int64) (*store.Pill, error) {
	data, err := r.client.Get(ctx, pillKey(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var p store.Pill
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *RedisStore) SetPill(ctx context.Context, p *store.Pill) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, pillKey(p.ID), data, 0)
	pipe.SAdd(ctx, pillIDSetKey, p.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) DeletePill(ctx context.Context, id int64) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, pillKey(id))
	pipe.SRem(ctx, pillIDSetKey, id)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) GetAllPillIDs(ctx context.Context) ([]int64, error) {
	members, err := r.client.SMembers(ctx, pillIDSetKey).Result()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FlushAll drops every cached pill. Used before a full resync.
func (r *RedisStore) FlushAll(ctx context.Context) error {
	ids, err := r.GetAllPillIDs(ctx)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	for _, id := range ids {
		pipe.Del(ctx, pillKey(id))
	}
	pipe.Del(ctx, pillIDSetKey)
	_, err = pipe.Exec(ctx)
	return err
}

func pillKey(id int64) string {
	return fmt.Sprintf("%s%d", pillKeyPrefix, id)
}
