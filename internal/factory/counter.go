package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/newsreach/contact-discovery/internal/config"
	"github.com/newsreach/contact-discovery/internal/counter"
)

// NewCounterStore selects the counter backend from cfg.CounterBackend.
// The redis backend is always wrapped in a failover store so a store
// outage degrades to in-process limiting instead of failing requests.
func NewCounterStore(cfg *config.Config, log zerolog.Logger) (counter.Store, error) {
	switch cfg.CounterBackend {
	case "memory":
		return counter.NewMemoryStore(), nil
	case "redis":
		primary, err := counter.NewRedisStore(counter.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			return nil, err
		}
		return counter.NewFailoverStore(primary, counter.NewMemoryStore(), log), nil
	default:
		return nil, fmt.Errorf("unknown COUNTER_BACKEND: %s", cfg.CounterBackend)
	}
}
