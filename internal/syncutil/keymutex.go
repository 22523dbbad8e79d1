// Package syncutil contains concurrency helpers shared across services.
package syncutil

import (
	"context"
	"hash/fnv"
)

const lockShards = 64

// KeyMutex grants exclusive access per string key. A fixed shard table keeps
// memory constant no matter how many distinct keys pass through; keys that
// collide share a shard and simply wait on each other, which is acceptable
// when keys are account holders and the critical section is one settlement.
type KeyMutex struct {
	shards []chan struct{}
}

func NewKeyMutex() *KeyMutex {
	m := &KeyMutex{shards: make([]chan struct{}, lockShards)}
	for i := range m.shards {
		ch := make(chan struct{}, 1)
		ch <- struct{}{}
		m.shards[i] = ch
	}
	return m
}

// Lock blocks until the key's shard is free or ctx ends. On success the
// returned unlock function must be called exactly once; on cancellation the
// function is nil and the context's error is returned.
func (m *KeyMutex) Lock(ctx context.Context, key string) (func(), error) {
	ch := m.shards[shardIndex(key, len(m.shards))]
	select {
	case <-ch:
		return func() { ch <- struct{}{} }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func shardIndex(key string, n int) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return int(h.Sum32() % uint32(n)) // #nosec G115 -- modulo keeps the value in range
}
