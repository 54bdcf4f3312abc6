package repository

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// CourierPresence is the last live position reported by a connected courier.
type CourierPresence struct {
	CourierID  string  `json:"courier_id"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	IsActive   bool    `json:"is_active"`
	LastUpdate int64   `json:"last_update"`
}

// PresenceStore keeps live courier locations in Redis hashes, one hash per
// courier under "courier:<id>". Registered home locations live in Mongo;
// this is only the moving position fed by websocket heartbeats.
type PresenceStore struct {
	rdb *redis.Client
}

func NewPresenceStore(rdb *redis.Client) *PresenceStore {
	return &PresenceStore{rdb: rdb}
}

func courierKey(courierID string) string {
	return "courier:" + courierID
}

func (s *PresenceStore) SetActive(ctx context.Context, courierID string, active bool) error {
	return s.rdb.HSet(ctx, courierKey(courierID), map[string]interface{}{
		"is_active":   strconv.FormatBool(active),
		"last_update": time.Now().Unix(),
	}).Err()
}

func (s *PresenceStore) UpdateLocation(ctx context.Context, courierID string, latitude, longitude float64) error {
	return s.rdb.HSet(ctx, courierKey(courierID), map[string]interface{}{
		"latitude":    latitude,
		"longitude":   longitude,
		"is_active":   "true",
		"last_update": time.Now().Unix(),
	}).Err()
}

func (s *PresenceStore) Get(ctx context.Context, courierID string) (*CourierPresence, error) {
	data, err := s.rdb.HGetAll(ctx, courierKey(courierID)).Result()
	if err != nil {
		return nil, fmt.Errorf("cannot get courier presence: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}

	lat, _ := strconv.ParseFloat(data["latitude"], 64)
	lon, _ := strconv.ParseFloat(data["longitude"], 64)
	lastUpdate, _ := strconv.ParseInt(data["last_update"], 10, 64)

	return &CourierPresence{
		CourierID:  courierID,
		Latitude:   lat,
		Longitude:  lon,
		IsActive:   data["is_active"] == "true",
		LastUpdate: lastUpdate,
	}, nil
}

// Deduper remembers processed event ids so redelivered webhooks are not
// applied twice.
type Deduper interface {
	// Once reports true the first time key is seen.
	Once(ctx context.Context, key string) (bool, error)
}

type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (d *RedisDeduper) Once(ctx context.Context, key string) (bool, error) {
	ok, err := d.rdb.SetNX(ctx, "dedup:"+key, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("cannot check dedup key: %w", err)
	}
	return ok, nil
}

// MemoryDeduper is a process-local Deduper used when Redis is not
// configured. It never expires entries.
type MemoryDeduper struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryDeduper() *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]struct{})}
}

func (d *MemoryDeduper) Once(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false, nil
	}
	d.seen[key] = struct{}{}
	return true, nil
}
