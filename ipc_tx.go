package main

import (
	"context"
	"fmt"
	"sync"

	"pico-service/pico"

	"github.com/go-redis/redis/v8"
)

type IPCTx struct {
	log   *LeveledLogger
	redis *redis.Client
	mu    sync.Mutex
	ctx   context.Context
}

func NewIPCTx(logger *LeveledLogger, redis *redis.Client) *IPCTx {
	return &IPCTx{
		log:   logger,
		redis: redis,
		ctx:   context.Background(),
	}
}

func (tx *IPCTx) Destroy() {}

// SendSnapshot writes one decoded telemetry cycle to the live-state hash
// and notifies subscribers.
func (tx *IPCTx) SendSnapshot(snap *pico.Snapshot) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	fields := redisFields(snap)
	if len(fields) == 0 {
		return nil
	}

	pipe := tx.redis.Pipeline()
	pipe.HSet(tx.ctx, redisStateKey, fields)
	pipe.Publish(tx.ctx, redisNotificationChannel, "snapshot")

	if _, err := pipe.Exec(tx.ctx); err != nil {
		return fmt.Errorf("failed to send snapshot: %v", err)
	}
	return nil
}

// SendRegistry publishes the static sensor inventory once after
// configuration, so consumers can label channels before the first frame.
func (tx *IPCTx) SendRegistry(registry *pico.Registry) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	fields := make(map[string]interface{})
	for _, s := range registry.Sensors {
		if s.Name == "" {
			continue
		}
		fields[fmt.Sprintf("sensor:%d:kind", s.ID)] = s.Kind.String()
		fields[fmt.Sprintf("sensor:%d:name", s.ID)] = s.Name
		if s.Kind == pico.KindTank {
			fields[fmt.Sprintf("sensor:%d:fluid", s.ID)] = s.Fluid
			fields[fmt.Sprintf("sensor:%d:capacity", s.ID)] = s.TankCapacity
		}
	}
	if len(fields) == 0 {
		return nil
	}

	if err := tx.redis.HSet(tx.ctx, redisStateKey, fields).Err(); err != nil {
		return fmt.Errorf("failed to send registry: %v", err)
	}
	return nil
}
