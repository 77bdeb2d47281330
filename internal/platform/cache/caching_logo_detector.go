// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"logoscan/internal/feature/logodetection/domain/entity"
	"logoscan/internal/feature/logodetection/usecase"
)

const (
	// DefaultTTL is used when a non-positive ttl is given.
	DefaultTTL = 24 * time.Hour
	// DefaultNamespace is used when an empty namespace is given.
	DefaultNamespace = "logos"
)

// CachingLogoDetector decorates a LogoDetector with Redis caching.
// Results are keyed by the SHA-256 of the image content, or by URI for remote images.
// Errors are never cached.
type CachingLogoDetector struct {
	inner     usecase.LogoDetector
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ usecase.LogoDetector = (*CachingLogoDetector)(nil)

// NewCachingLogoDetector decorates a LogoDetector with Redis caching.
// If ttl is 0, it defaults to 24 hours. If namespace is empty, it uses "logos".
// A nil rdb disables caching.
func NewCachingLogoDetector(rdb *redis.Client, ttl time.Duration, inner usecase.LogoDetector, namespace string) *CachingLogoDetector {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &CachingLogoDetector{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// cachedLogo is the JSON representation stored in Redis.
type cachedLogo struct {
	Description string   `json:"d,omitempty"`
	Score       *float64 `json:"s,omitempty"`
}

// DetectLogos returns cached annotations when present, otherwise calls the inner detector.
func (c *CachingLogoDetector) DetectLogos(ctx context.Context, img entity.Image) ([]entity.LogoAnnotation, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.DetectLogos(ctx, img)
	}

	key := c.cacheKey(img)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var cached []cachedLogo
		if err := json.Unmarshal(b, &cached); err == nil {
			return fromCache(cached), nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to the remote detector
	logos, err := c.inner.DetectLogos(ctx, img)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(toCache(logos)); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}

	return logos, nil
}

// cacheKey generates a cache key for an image.
func (c *CachingLogoDetector) cacheKey(img entity.Image) string {
	if img.IsRemote() {
		return fmt.Sprintf("%s:uri:%s", c.namespace, safe(img.URI))
	}
	sum := sha256.Sum256(img.Content)
	return fmt.Sprintf("%s:sha256:%s", c.namespace, hex.EncodeToString(sum[:]))
}

func toCache(logos []entity.LogoAnnotation) []cachedLogo {
	out := make([]cachedLogo, 0, len(logos))
	for _, l := range logos {
		out = append(out, cachedLogo{Description: l.Description, Score: l.Score})
	}
	return out
}

func fromCache(cached []cachedLogo) []entity.LogoAnnotation {
	out := make([]entity.LogoAnnotation, 0, len(cached))
	for _, c := range cached {
		out = append(out, entity.LogoAnnotation{Description: c.Description, Score: c.Score})
	}
	return out
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
