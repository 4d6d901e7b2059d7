package services

import (
	"log/slog"
	"time"

	"github.com/magabrotheeeer/isp-manager/internal/lib/month"
	"github.com/magabrotheeeer/isp-manager/internal/lib/sl"
	"github.com/magabrotheeeer/isp-manager/internal/validation"
)

// Deps общие зависимости сервисов.
type Deps struct {
	Tx        Transactor
	Cache     Cache
	Validator *validation.Validator
	Log       *slog.Logger
	Now       Clock
	CacheTTL  time.Duration
}

type base struct {
	Deps
}

func newBase(d Deps) base {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.CacheTTL == 0 {
		d.CacheTTL = time.Hour
	}
	return base{Deps: d}
}

func (b base) today() time.Time {
	return month.Date(b.Now())
}

func (b base) cacheSet(key string, value any) {
	if err := b.Cache.Set(key, value, b.CacheTTL); err != nil {
		b.Log.Warn("failed to cache record", slog.String("key", key), sl.Err(err))
	}
}

func (b base) cacheGet(key string, result any) bool {
	found, err := b.Cache.Get(key, result)
	if err != nil {
		b.Log.Warn("failed to read cache", slog.String("key", key), sl.Err(err))
		return false
	}
	return found
}

func (b base) cacheInvalidate(key string) {
	if err := b.Cache.Invalidate(key); err != nil {
		b.Log.Warn("failed to remove from cache", slog.String("key", key), sl.Err(err))
	}
}
