package service

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/chatwarden/chatwarden-backend/internal/common"
	"github.com/chatwarden/chatwarden-backend/internal/domain"
	"github.com/chatwarden/chatwarden-backend/internal/repository"
	"github.com/chatwarden/chatwarden-backend/pkg/cache"
	"gorm.io/gorm"
)

// Directory 멤버 레코드 조회/변경 (LRU+TTL 캐시 + 저장소)
//
// Every write is two ordered steps: the store write commits first, then the
// cached entry is replaced (or evicted on delete). A read that raced a write
// does not populate the cache. Concurrent writers to the same id are last
// writer wins; the pair of steps is not linearizable across them.
type Directory struct {
	repo  repository.MemberRepository
	cache *cache.Local[int64, *domain.Member]

	mu     sync.Mutex // guards seq together with cache patches
	writes uint64
}

// NewDirectory creates a Directory over repo with an owned cache instance
func NewDirectory(repo repository.MemberRepository, c *cache.Local[int64, *domain.Member]) *Directory {
	return &Directory{repo: repo, cache: c}
}

// Get returns the member, reading through the cache
func (d *Directory) Get(ctx context.Context, id int64) (*domain.Member, error) {
	if m, ok := d.cache.Get(id); ok {
		directoryCacheLookups.WithLabelValues("hit").Inc()
		return m.Clone(), nil
	}
	directoryCacheLookups.WithLabelValues("miss").Inc()

	seq := d.writeSeq()
	m, err := d.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	d.populate(seq, m)
	return m, nil
}

// FindByNick looks the nick up in the store and caches the result
func (d *Directory) FindByNick(ctx context.Context, nick string) (*domain.Member, error) {
	seq := d.writeSeq()
	m, err := d.repo.FindByNick(ctx, nick)
	if err != nil {
		return nil, err
	}
	d.populate(seq, m)
	return m, nil
}

// Resolve accepts a numeric id or "@nick"
func (d *Directory) Resolve(ctx context.Context, ref string) (*domain.Member, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "@") {
		nick := strings.TrimPrefix(ref, "@")
		if nick == "" {
			return nil, common.Invalid("empty nick")
		}
		return d.FindByNick(ctx, nick)
	}
	id, err := strconv.ParseInt(ref, 10, 64)
	if err != nil || id <= 0 {
		return nil, common.Invalid("malformed member id %q", ref)
	}
	return d.Get(ctx, id)
}

// Upsert writes the whole record, then replaces the cached entry
func (d *Directory) Upsert(ctx context.Context, m *domain.Member) error {
	if err := d.repo.Upsert(ctx, m); err != nil {
		return err
	}
	d.patch(m.ID, m)
	return nil
}

// Mutate applies column changes and returns the committed record
func (d *Directory) Mutate(ctx context.Context, id int64, update *domain.MemberUpdate) (*domain.Member, error) {
	m, err := d.repo.UpdateFields(ctx, id, update.Columns())
	if err != nil {
		return nil, err
	}
	d.patch(id, m)
	return m.Clone(), nil
}

// MutateTx applies column changes and runs fn in the same transaction.
// The cache is patched only after the transaction commits.
func (d *Directory) MutateTx(ctx context.Context, id int64, update *domain.MemberUpdate, fn func(tx *gorm.DB) error) (*domain.Member, error) {
	var m *domain.Member
	err := d.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = d.repo.WithTx(tx).UpdateFields(ctx, id, update.Columns())
		if err != nil {
			return err
		}
		return fn(tx)
	})
	if err != nil {
		return nil, err
	}
	d.patch(id, m)
	return m.Clone(), nil
}

// Delete removes the store row, then evicts the cached entry
func (d *Directory) Delete(ctx context.Context, id int64) error {
	if err := d.repo.Delete(ctx, id); err != nil {
		return err
	}
	d.patch(id, nil)
	return nil
}

// ListActive returns members in chat (store only)
func (d *Directory) ListActive(ctx context.Context) ([]*domain.Member, error) {
	return d.repo.ListActive(ctx)
}

// ActiveIDs returns ids of members in chat (store only)
func (d *Directory) ActiveIDs(ctx context.Context) ([]int64, error) {
	return d.repo.ActiveIDs(ctx)
}

func (d *Directory) writeSeq() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// populate caches a read result unless a write committed since seq was taken
func (d *Directory) populate(seq uint64, m *domain.Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.writes == seq {
		d.cache.Set(m.ID, m.Clone())
	}
}

// patch is the second step of every write; m == nil evicts
func (d *Directory) patch(id int64, m *domain.Member) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	if m == nil {
		d.cache.Delete(id)
		return
	}
	d.cache.Set(id, m.Clone())
}
