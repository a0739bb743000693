// Package cachetest provides an in-memory RedisClient for tests.
package cachetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Memory implements the gateway RedisClient interface on a map.
type Memory struct {
	mu   sync.Mutex
	data map[string]entry
	now  func() time.Time

	// Err, when set, fails every command.
	Err error
}

func NewMemory() *Memory {
	return &Memory{data: map[string]entry{}, now: time.Now}
}

func (m *Memory) lookup(key string) (entry, bool) {
	e, ok := m.data[key]
	if !ok {
		return entry{}, false
	}
	if !e.expiresAt.IsZero() && !m.now().Before(e.expiresAt) {
		delete(m.data, key)
		return entry{}, false
	}
	return e, true
}

func (m *Memory) store(key string, value interface{}, ttl time.Duration) {
	e := entry{value: fmt.Sprint(value)}
	if ttl > 0 {
		e.expiresAt = m.now().Add(ttl)
	}
	m.data[key] = e
}

func (m *Memory) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	if m.Err != nil {
		cmd.SetErr(m.Err)
		return cmd
	}
	cmd.SetVal("PONG")
	return cmd
}

func (m *Memory) Get(ctx context.Context, key string) *goredis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewStringCmd(ctx)
	if m.Err != nil {
		cmd.SetErr(m.Err)
		return cmd
	}
	e, ok := m.lookup(key)
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	cmd.SetVal(e.value)
	return cmd
}

func (m *Memory) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) *goredis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewStatusCmd(ctx)
	if m.Err != nil {
		cmd.SetErr(m.Err)
		return cmd
	}
	m.store(key, value, ttl)
	cmd.SetVal("OK")
	return cmd
}

func (m *Memory) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) *goredis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewBoolCmd(ctx)
	if m.Err != nil {
		cmd.SetErr(m.Err)
		return cmd
	}
	if _, ok := m.lookup(key); ok {
		cmd.SetVal(false)
		return cmd
	}
	m.store(key, value, ttl)
	cmd.SetVal(true)
	return cmd
}

func (m *Memory) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewIntCmd(ctx)
	if m.Err != nil {
		cmd.SetErr(m.Err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.lookup(k); ok {
			delete(m.data, k)
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (m *Memory) Exists(ctx context.Context, keys ...string) *goredis.IntCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	cmd := goredis.NewIntCmd(ctx)
	if m.Err != nil {
		cmd.SetErr(m.Err)
		return cmd
	}
	var n int64
	for _, k := range keys {
		if _, ok := m.lookup(k); ok {
			n++
		}
	}
	cmd.SetVal(n)
	return cmd
}

func (m *Memory) Close() error { return nil }

// Advance moves the fake clock forward, expiring keys.
func (m *Memory) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	base := m.now()
	m.now = func() time.Time { return base.Add(d) }
}

// Len returns the number of live keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.data {
		if _, ok := m.lookup(k); ok {
			n++
		}
	}
	return n
}
