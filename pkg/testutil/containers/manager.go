//go:build integration

// Package containers starts shared testcontainers for integration suites.
// Containers are created once per test binary and reused across suites;
// Ryuk reaps them when the process exits.
package containers

import (
	"sync"
	"testing"
)

// Manager lazily starts and caches one container per backing service.
type Manager struct {
	pgOnce sync.Once
	pg     *PostgresContainer

	redisOnce sync.Once
	redis     *RedisContainer

	kafkaOnce sync.Once
	kafka     *RedpandaContainer
}

var (
	managerOnce sync.Once
	manager     *Manager
)

// GetManager returns the process-wide container manager.
func GetManager() *Manager {
	managerOnce.Do(func() {
		manager = &Manager{}
	})
	return manager
}

// GetPostgres returns a migrated Postgres container.
func (m *Manager) GetPostgres(t *testing.T) *PostgresContainer {
	t.Helper()
	m.pgOnce.Do(func() {
		m.pg = NewPostgresContainer(t)
	})
	if m.pg == nil {
		t.Fatal("postgres container failed to start in an earlier suite")
	}
	return m.pg
}

// GetRedis returns a Redis container.
func (m *Manager) GetRedis(t *testing.T) *RedisContainer {
	t.Helper()
	m.redisOnce.Do(func() {
		m.redis = NewRedisContainer(t)
	})
	if m.redis == nil {
		t.Fatal("redis container failed to start in an earlier suite")
	}
	return m.redis
}

// GetRedpanda returns a Kafka-compatible Redpanda container.
func (m *Manager) GetRedpanda(t *testing.T) *RedpandaContainer {
	t.Helper()
	m.kafkaOnce.Do(func() {
		m.kafka = NewRedpandaContainer(t)
	})
	if m.kafka == nil {
		t.Fatal("redpanda container failed to start in an earlier suite")
	}
	return m.kafka
}
