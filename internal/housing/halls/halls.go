// Package halls resolves the list of halls a member may rank, caching the
// directory's answer and degrading to a configured fallback list when both
// cache and directory are unavailable.
package halls

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cachePrefix = "resportal:halls:"

// Directory is the slice of the housing directory this package needs.
type Directory interface {
	AvailableHalls(ctx context.Context, editorUsername string) ([]string, error)
}

// Source serves hall lists: cache, then directory, then fallback.
type Source struct {
	directory Directory
	cache     *redis.Client
	fallback  []string
	ttl       time.Duration
	log       *zap.Logger
}

// NewSource builds a hall source. cache may be nil (no caching); fallback
// may be empty (no degraded answer).
func NewSource(directory Directory, cache *redis.Client, fallback []string, ttl time.Duration, log *zap.Logger) *Source {
	if log == nil {
		log = zap.NewNop()
	}
	return &Source{
		directory: directory,
		cache:     cache,
		fallback:  append([]string(nil), fallback...),
		ttl:       ttl,
		log:       log,
	}
}

// Halls returns the hall list for the given editor. Directory failures are
// absorbed: the caller always gets a usable (possibly fallback) list.
func (s *Source) Halls(ctx context.Context, editorUsername string) []string {
	key := cachePrefix + editorUsername

	if s.cache != nil {
		raw, err := s.cache.Get(ctx, key).Bytes()
		if err == nil {
			var halls []string
			if err := json.Unmarshal(raw, &halls); err == nil {
				return halls
			}
		}
	}

	halls, err := s.directory.AvailableHalls(ctx, editorUsername)
	if err != nil || len(halls) == 0 {
		if err != nil {
			s.log.Warn("hall directory unavailable, serving fallback list",
				zap.String("editor", editorUsername), zap.Error(err))
		}
		return append([]string(nil), s.fallback...)
	}

	if s.cache != nil {
		if raw, err := json.Marshal(halls); err == nil {
			if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
				s.log.Warn("hall cache write failed", zap.Error(err))
			}
		}
	}
	return halls
}
