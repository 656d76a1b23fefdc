package threshold

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/kapu/channelwatch-go/internal/domain"
	apperrors "github.com/kapu/channelwatch-go/pkg/errors"
)

// ConfigMap is the nested threshold configuration: entity type -> metric.
type ConfigMap map[domain.EntityType]map[string]domain.ThresholdConfig

// Store persists a ConfigMap outside the process. Implementations live next
// to the registry; a failed Load must not disturb in-memory state.
type Store interface {
	Load() (ConfigMap, error)
	Save(ConfigMap) error
}

// Registry holds validated alert thresholds per (entity type, metric).
// Reads are safe under concurrent writers; mutations take the write lock.
type Registry struct {
	mu      sync.RWMutex
	configs ConfigMap
	logger  *zap.Logger
}

// NewRegistry builds a registry preloaded with the default thresholds.
func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		configs: defaultConfigs(),
		logger:  logger,
	}
}

func defaultConfigs() ConfigMap {
	pct := func(v float64) *domain.ThresholdLevel {
		return &domain.ThresholdLevel{Type: domain.ThresholdPercentage, Value: v}
	}
	abs := func(v float64) *domain.ThresholdLevel {
		return &domain.ThresholdLevel{Type: domain.ThresholdAbsolute, Value: v}
	}

	return ConfigMap{
		domain.EntityChannel: {
			"subscribers": {
				Warning:              pct(10),
				Critical:             pct(25),
				ComparisonWindowDays: 7,
				Direction:            domain.DirectionBoth,
			},
			"views": {
				Warning:              pct(20),
				Critical:             pct(50),
				ComparisonWindowDays: 30,
				Direction:            domain.DirectionBoth,
			},
			"total_videos": {
				Warning:              abs(10),
				ComparisonWindowDays: 30,
				Direction:            domain.DirectionIncrease,
			},
		},
		domain.EntityVideo: {
			"views": {
				Warning:              pct(50),
				Critical:             pct(100),
				ComparisonWindowDays: 7,
				Direction:            domain.DirectionIncrease,
			},
			"likes": {
				Warning:              pct(50),
				ComparisonWindowDays: 7,
				Direction:            domain.DirectionBoth,
			},
		},
		domain.EntityComment: {
			"comments": {
				Warning:              abs(100),
				ComparisonWindowDays: 7,
				Direction:            domain.DirectionIncrease,
			},
		},
	}
}

// Validate checks one threshold config. It is the single validation path for
// Set, SetAll, and file loads.
func Validate(entityType domain.EntityType, metric string, cfg domain.ThresholdConfig) error {
	if !entityType.Valid() {
		return apperrors.NewValidationError("unsupported entity type", "entity_type", string(entityType))
	}
	if metric == "" {
		return apperrors.NewValidationError("metric name is required", "metric", metric)
	}
	if cfg.Warning == nil && cfg.Critical == nil {
		return fmt.Errorf("at least one of warning or critical is required")
	}
	for name, level := range map[string]*domain.ThresholdLevel{"warning": cfg.Warning, "critical": cfg.Critical} {
		if level == nil {
			continue
		}
		if !level.Type.Valid() {
			return fmt.Errorf("%s: unsupported threshold type %q", name, level.Type)
		}
	}
	if cfg.ComparisonWindowDays <= 0 {
		return fmt.Errorf("comparison_window_days must be positive")
	}
	if cfg.Direction != "" && !cfg.Direction.Valid() {
		return fmt.Errorf("unsupported direction %q", cfg.Direction)
	}
	return nil
}

// Get returns the config for one (entity type, metric) pair.
func (r *Registry) Get(entityType domain.EntityType, metric string) (domain.ThresholdConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	metrics, ok := r.configs[entityType]
	if !ok {
		return domain.ThresholdConfig{}, false
	}
	cfg, ok := metrics[metric]
	return cfg, ok
}

// Set validates and stores one config. On validation failure the registry is
// left unmodified and false is returned.
func (r *Registry) Set(entityType domain.EntityType, metric string, cfg domain.ThresholdConfig) bool {
	if err := Validate(entityType, metric, cfg); err != nil {
		if r.logger != nil {
			r.logger.Warn("Rejected threshold config",
				zap.String("entity_type", string(entityType)),
				zap.String("metric", metric),
				zap.Error(err))
		}
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.configs[entityType] == nil {
		r.configs[entityType] = make(map[string]domain.ThresholdConfig)
	}
	r.configs[entityType][metric] = cfg
	return true
}

// GetAll returns a deep copy of every configured threshold.
func (r *Registry) GetAll() ConfigMap {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyConfigs(r.configs)
}

// SetAll replaces the full configuration. Every entry is validated before
// any of it is applied; a single bad entry rejects the whole set.
func (r *Registry) SetAll(configs ConfigMap) bool {
	for entityType, metrics := range configs {
		for metric, cfg := range metrics {
			if err := Validate(entityType, metric, cfg); err != nil {
				if r.logger != nil {
					r.logger.Warn("Rejected threshold config set",
						zap.String("entity_type", string(entityType)),
						zap.String("metric", metric),
						zap.Error(err))
				}
				return false
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = copyConfigs(configs)
	return true
}

// Delete removes one config, reporting whether it existed.
func (r *Registry) Delete(entityType domain.EntityType, metric string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	metrics, ok := r.configs[entityType]
	if !ok {
		return false
	}
	if _, ok := metrics[metric]; !ok {
		return false
	}
	delete(metrics, metric)
	return true
}

// LoadFrom replaces the configuration with the store's contents. Prior state
// is kept untouched when loading or validation fails.
func (r *Registry) LoadFrom(store Store) error {
	configs, err := store.Load()
	if err != nil {
		return fmt.Errorf("failed to load thresholds: %w", err)
	}
	if !r.SetAll(configs) {
		return fmt.Errorf("loaded thresholds failed validation")
	}
	if r.logger != nil {
		r.logger.Info("Thresholds loaded", zap.Int("entity_types", len(configs)))
	}
	return nil
}

// SaveTo writes the current configuration to the store.
func (r *Registry) SaveTo(store Store) error {
	if err := store.Save(r.GetAll()); err != nil {
		return fmt.Errorf("failed to save thresholds: %w", err)
	}
	return nil
}

func copyConfigs(src ConfigMap) ConfigMap {
	dst := make(ConfigMap, len(src))
	for entityType, metrics := range src {
		inner := make(map[string]domain.ThresholdConfig, len(metrics))
		for metric, cfg := range metrics {
			if cfg.Warning != nil {
				level := *cfg.Warning
				cfg.Warning = &level
			}
			if cfg.Critical != nil {
				level := *cfg.Critical
				cfg.Critical = &level
			}
			inner[metric] = cfg
		}
		dst[entityType] = inner
	}
	return dst
}
