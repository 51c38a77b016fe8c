package adapters

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisLabels stores contact labels in Redis sets, shared across workers.
type RedisLabels struct {
	client *redis.Client
}

func NewRedisLabels(client *redis.Client) *RedisLabels {
	return &RedisLabels{client: client}
}

func labelKey(tenantID, contactID string) string {
	return "zapflow:labels:" + tenantID + ":" + contactID
}

func (r *RedisLabels) Mutate(ctx context.Context, tenantID, contactID, action string, values []string) error {
	key := labelKey(tenantID, contactID)

	members := make([]any, len(values))
	for i, v := range values {
		members[i] = v
	}

	switch action {
	case "add":
		return r.client.SAdd(ctx, key, members...).Err()
	case "remove":
		return r.client.SRem(ctx, key, members...).Err()
	case "set":
		pipe := r.client.TxPipeline()
		pipe.Del(ctx, key)

		if len(members) > 0 {
			pipe.SAdd(ctx, key, members...)
		}

		_, err := pipe.Exec(ctx)

		return err
	default:
		return fmt.Errorf("unsupported label action: %s", action)
	}
}

func (r *RedisLabels) List(ctx context.Context, contactID string) ([]string, error) {
	keys, err := r.client.Keys(ctx, "zapflow:labels:*:"+contactID).Result()
	if err != nil {
		return nil, err
	}

	var labels []string

	for _, key := range keys {
		members, err := r.client.SMembers(ctx, key).Result()
		if err != nil {
			return nil, err
		}

		labels = append(labels, members...)
	}

	sort.Strings(labels)

	return labels, nil
}

// MemoryLabels is the in-process label store used without Redis.
type MemoryLabels struct {
	mu     sync.Mutex
	labels map[string]map[string]struct{} // contactID -> set
}

func NewMemoryLabels() *MemoryLabels {
	return &MemoryLabels{labels: make(map[string]map[string]struct{})}
}

func (m *MemoryLabels) Mutate(ctx context.Context, tenantID, contactID, action string, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.labels[contactID]
	if set == nil || action == "set" {
		set = make(map[string]struct{})
		m.labels[contactID] = set
	}

	switch action {
	case "add", "set":
		for _, v := range values {
			set[v] = struct{}{}
		}
	case "remove":
		for _, v := range values {
			delete(set, v)
		}
	default:
		return fmt.Errorf("unsupported label action: %s", action)
	}

	return nil
}

func (m *MemoryLabels) List(ctx context.Context, contactID string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	labels := make([]string, 0, len(m.labels[contactID]))
	for label := range m.labels[contactID] {
		labels = append(labels, label)
	}

	sort.Strings(labels)

	return labels, nil
}
