package cache

import (
	"fmt"
	"time"

	"github.com/chatwarden/chatwarden-backend/pkg/clock"
	lru "github.com/hashicorp/golang-lru/v2"
)

// item 캐시 데이터와 만료 시각
type item[V any] struct {
	value     V
	expiresAt time.Time
}

// Local 프로세스 내 LRU + TTL 캐시
//
// 용량을 넘으면 가장 오래 사용되지 않은 항목부터 제거되고,
// 만료된 항목은 조회 시점에 제거된다. 시계는 주입받는다.
type Local[K comparable, V any] struct {
	lru   *lru.Cache[K, item[V]]
	ttl   time.Duration
	clock clock.Clock
}

// NewLocal 새로운 로컬 캐시 생성
func NewLocal[K comparable, V any](size int, ttl time.Duration, clk clock.Clock) (*Local[K, V], error) {
	if size <= 0 {
		return nil, fmt.Errorf("cache size must be positive, got %d", size)
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("cache ttl must be positive, got %s", ttl)
	}
	if clk == nil {
		clk = clock.Real()
	}
	l, err := lru.New[K, item[V]](size)
	if err != nil {
		return nil, err
	}
	return &Local[K, V]{lru: l, ttl: ttl, clock: clk}, nil
}

// Get 캐시 조회, 없거나 만료되었으면 false
func (c *Local[K, V]) Get(key K) (V, bool) {
	var zero V
	it, ok := c.lru.Get(key)
	if !ok {
		return zero, false
	}
	if !c.clock.Now().Before(it.expiresAt) {
		c.lru.Remove(key)
		return zero, false
	}
	return it.value, true
}

// Set 캐시 저장 (TTL은 저장 시점부터)
func (c *Local[K, V]) Set(key K, value V) {
	c.lru.Add(key, item[V]{value: value, expiresAt: c.clock.Now().Add(c.ttl)})
}

// Delete 캐시 삭제
func (c *Local[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

// Purge 전체 삭제
func (c *Local[K, V]) Purge() {
	c.lru.Purge()
}

// Len 저장된 항목 수 (만료 항목 포함)
func (c *Local[K, V]) Len() int {
	return c.lru.Len()
}

// TTL 항목 유지 시간
func (c *Local[K, V]) TTL() time.Duration {
	return c.ttl
}
