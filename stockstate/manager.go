// Package stockstate keeps a write-through cache of pill stock: SQL is
// the source of truth, Redis serves the read path for dashboard and
// lookup traffic. When Redis is down everything falls back to SQL.
package stockstate

import (
	"context"
	"log"
	"sort"

	"dispensecore/store"
)

type Manager struct {
	db    *store.DB
	redis *RedisStore
}

func NewManager(db *store.DB, redis *RedisStore) *Manager {
	return &Manager{db: db, redis: redis}
}

// GetPill reads from Redis, falling back to SQL.
func (m *Manager) GetPill(id int64) (*store.Pill, error) {
	if m.redis != nil {
		if p, err := m.redis.GetPill(context.Background(), id); err == nil && p != nil {
			return p, nil
		}
	}
	return m.db.GetPill(id)
}

// ListPills reads all pills, preferring Redis.
func (m *Manager) ListPills() ([]*store.Pill, error) {
	if m.redis != nil {
		ctx := context.Background()
		ids, err := m.redis.GetAllPillIDs(ctx)
		if err == nil && len(ids) > 0 {
			pills := make([]*store.Pill, 0, len(ids))
			ok := true
			for _, id := range ids {
				p, err := m.redis.GetPill(ctx, id)
				if err != nil {
					ok = false
					break
				}
				pills = append(pills, p)
			}
			if ok {
				sortPills(pills)
				return pills, nil
			}
		}
	}
	return m.db.ListPills()
}

// CreatePill inserts in SQL and updates Redis.
func (m *Manager) CreatePill(name, pillType string, amount int64) (*store.Pill, error) {
	p, err := m.db.CreatePill(name, pillType, amount)
	if err != nil {
		return nil, err
	}
	m.refreshPill(p.ID)
	return p, nil
}

// AdjustAmount applies a signed delta in SQL (floored at zero) and
// updates Redis.
func (m *Manager) AdjustAmount(id, delta int64) (*store.Pill, error) {
	p, err := m.db.AdjustPillAmount(id, delta)
	if err != nil {
		return nil, err
	}
	m.refreshPill(id)
	return p, nil
}

// DeletePill removes from SQL and Redis.
func (m *Manager) DeletePill(id int64) error {
	if err := m.db.DeletePill(id); err != nil {
		return err
	}
	if m.redis != nil {
		if err := m.redis.DeletePill(context.Background(), id); err != nil {
			log.Printf("stockstate: delete pill %d from redis: %v", id, err)
		}
	}
	return nil
}

// RefreshAll re-reads every pill from SQL into Redis. Called after queue
// creation decrements stock inside the store transaction.
func (m *Manager) RefreshAll() {
	if m.redis == nil {
		return
	}
	pills, err := m.db.ListPills()
	if err != nil {
		log.Printf("stockstate: refresh all: %v", err)
		return
	}
	ctx := context.Background()
	for _, p := range pills {
		if err := m.redis.SetPill(ctx, p); err != nil {
			log.Printf("stockstate: refresh pill %d: %v", p.ID, err)
		}
	}
}

// SyncRedisFromSQL rebuilds the Redis cache from SQL. Called on startup.
func (m *Manager) SyncRedisFromSQL() error {
	if m.redis == nil {
		return nil
	}
	ctx := context.Background()
	if err := m.redis.FlushAll(ctx); err != nil {
		return err
	}
	pills, err := m.db.ListPills()
	if err != nil {
		return err
	}
	for _, p := range pills {
		if err := m.redis.SetPill(ctx, p); err != nil {
			log.Printf("stockstate: sync pill %d: %v", p.ID, err)
		}
	}
	log.Printf("stockstate: synced %d pills to redis", len(pills))
	return nil
}

func (m *Manager) refreshPill(id int64) {
	if m.redis == nil {
		return
	}
	p, err := m.db.GetPill(id)
	if err != nil {
		return
	}
	if err := m.redis.SetPill(context.Background(), p); err != nil {
		log.Printf("stockstate: refresh pill %d: %v", id, err)
	}
}

func sortPills(pills []*store.Pill) {
	sort.Slice(pills, func(i, j int) bool { return pills[i].ID < pills[j].ID })
}
