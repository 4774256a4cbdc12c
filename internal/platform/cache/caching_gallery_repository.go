// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"gallery_backend/internal/feature/gallery/domain/entity"
	"gallery_backend/internal/feature/gallery/usecase"
)

// CachingGalleryRepository decorates a GalleryRepository with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository. Cache failures never fail a read.
type CachingGalleryRepository struct {
	inner     usecase.GalleryRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

// CachingGalleryRepositoryがGalleryRepositoryとCacheInvalidatorを実装していることをコンパイル時に検証します。
var (
	_ usecase.GalleryRepository = (*CachingGalleryRepository)(nil)
	_ usecase.CacheInvalidator  = (*CachingGalleryRepository)(nil)
)

// NewCachingGalleryRepository decorates a GalleryRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "gallery".
func NewCachingGalleryRepository(rdb *redis.Client, ttl time.Duration, inner usecase.GalleryRepository, namespace string) *CachingGalleryRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "gallery"
	}
	return &CachingGalleryRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// ListPhotos retrieves all photos, checking cache first then falling back to the database.
func (c *CachingGalleryRepository) ListPhotos(ctx context.Context) ([]entity.Photo, error) {
	return cached(ctx, c, c.key("photos"), func() ([]entity.Photo, error) {
		return c.inner.ListPhotos(ctx)
	})
}

// ListPhotosByLogo retrieves photos for a logo, checking cache first.
func (c *CachingGalleryRepository) ListPhotosByLogo(ctx context.Context, slug string) ([]entity.Photo, error) {
	return cached(ctx, c, c.key("photos", "logo", slug), func() ([]entity.Photo, error) {
		return c.inner.ListPhotosByLogo(ctx, slug)
	})
}

// ListLogos retrieves logo summaries, checking cache first.
func (c *CachingGalleryRepository) ListLogos(ctx context.Context) ([]entity.LogoSummary, error) {
	return cached(ctx, c, c.key("logos"), func() ([]entity.LogoSummary, error) {
		return c.inner.ListLogos(ctx)
	})
}

// GetPhoto retrieves a single photo. Single lookups bypass the cache:
// they are a point read against the database already.
func (c *CachingGalleryRepository) GetPhoto(ctx context.Context, id string) (*entity.Photo, error) {
	return c.inner.GetPhoto(ctx, id)
}

// cached is the shared read-through path: check cache, fall back, store best effort.
func cached[T any](ctx context.Context, c *CachingGalleryRepository, key string, load func() (T, error)) (T, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load()
	}

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to database
	out, err := load()
	if err != nil {
		return out, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return out, nil
}

// key generates a namespaced cache key.
func (c *CachingGalleryRepository) key(parts ...string) string {
	escaped := make([]string, 0, len(parts)+1)
	escaped = append(escaped, c.namespace)
	for _, p := range parts {
		escaped = append(escaped, safe(p))
	}
	return strings.Join(escaped, ":")
}

// InvalidateAll deletes all cache entries in this namespace using SCAN.
// 取り込みバッチの完了後に呼び出して、古い一覧を破棄します。
func (c *CachingGalleryRepository) InvalidateAll(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	pattern := fmt.Sprintf("%s:*", c.namespace)
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
