// Package pipeline wires readers, statistics, plots and renderers into the
// dravlex workflows.
package pipeline

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/dravlex/internal/cache"
	"github.com/ppiankov/dravlex/internal/model"
	"github.com/ppiankov/dravlex/internal/plot"
)

// Pipeline orchestrates the cognate, trace and sensitivity workflows
type Pipeline struct {
	config   *model.Config
	logger   *zap.Logger
	cache    cache.Cache // nil when disabled
	renderer *Renderer
	plots    plot.Options
	now      func() time.Time
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, logger *zap.Logger) (*Pipeline, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Pipeline{
		config:   cfg,
		logger:   logger,
		renderer: NewRenderer(cfg.Trace.Unit),
		plots:    plot.OptionsFrom(cfg.Plot),
		now:      time.Now,
	}
	if cfg.Cache.Enabled {
		memTTL, err := time.ParseDuration(cfg.Cache.MemoryTTL)
		if err != nil {
			return nil, fmt.Errorf("cache memory_ttl: %w", err)
		}
		diskTTL, err := time.ParseDuration(cfg.Cache.DiskTTL)
		if err != nil {
			return nil, fmt.Errorf("cache disk_ttl: %w", err)
		}
		p.cache = cache.NewLayeredCache(memTTL, cfg.Cache.Dir, diskTTL)
		logger.Debug("summary cache enabled", zap.String("dir", cfg.Cache.Dir))
	}
	return p, nil
}

// Renderer returns the report renderer.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}
