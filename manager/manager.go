package manager

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jacentio/entitymanager/config"
	"github.com/jacentio/entitymanager/internal/metrics"
)

// Manager derives storage keys for entity records and runs sharded queries.
// It is safe for concurrent use; its config is never mutated after New.
type Manager struct {
	config  config.Config
	logger  *slog.Logger
	metrics *metrics.Query
}

// New validates cfg and creates a Manager. A nil logger uses slog.Default().
// The caller must not mutate cfg's maps afterwards.
func New(cfg config.Config, logger *slog.Logger) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		config: cfg,
		logger: logger,
	}, nil
}

// EnableMetrics registers Prometheus metrics for Query with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func (m *Manager) EnableMetrics(reg prometheus.Registerer) {
	m.metrics = metrics.NewQuery(reg)
}

// Config returns the manager's validated config.
func (m *Manager) Config() config.Config {
	return m.config
}

func (m *Manager) entity(token string) (config.EntityConfig, error) {
	e, ok := m.config.Entities[token]
	if !ok {
		return config.EntityConfig{}, fmt.Errorf("%w: %q", ErrInvalidEntityToken, token)
	}
	return e, nil
}

func (m *Manager) index(token string) (config.Index, error) {
	idx, ok := m.config.Indexes[token]
	if !ok {
		return config.Index{}, fmt.Errorf("%w: %q", ErrInvalidIndexToken, token)
	}
	return idx, nil
}

func (m *Manager) isKey(property string) bool {
	return property == m.config.HashKey || property == m.config.RangeKey
}
