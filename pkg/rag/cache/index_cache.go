package cache

import (
	"time"

	"doc-qa-be/pkg/vectorindex"

	gocache "github.com/patrickmn/go-cache"
	"github.com/google/uuid"
)

// CachedIndex is a restored vector index together with the snapshot version
// it was restored at.
type CachedIndex struct {
	Index   *vectorindex.Index
	Version int64
}

// IndexCache is the per-instance ephemeral cache of restored vector indexes.
// It only saves the restore round-trip; the durable snapshot stays the source
// of truth, so an entry may be dropped at any time without losing state.
type IndexCache struct {
	cache *gocache.Cache
}

func NewIndexCache(ttl time.Duration) *IndexCache {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	// Purge expired entries at a fraction of the TTL.
	return &IndexCache{
		cache: gocache.New(ttl, ttl/3),
	}
}

func (c *IndexCache) Save(collectionId uuid.UUID, index *vectorindex.Index, version int64) {
	c.cache.Set(collectionId.String(), &CachedIndex{Index: index, Version: version}, gocache.DefaultExpiration)
}

func (c *IndexCache) Get(collectionId uuid.UUID) (*CachedIndex, bool) {
	if x, found := c.cache.Get(collectionId.String()); found {
		return x.(*CachedIndex), true
	}
	return nil, false
}

func (c *IndexCache) Invalidate(collectionId uuid.UUID) {
	c.cache.Delete(collectionId.String())
}
