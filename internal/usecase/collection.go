package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"go.ngs.io/oraip-profiles/internal/adapter/product"
	"go.ngs.io/oraip-profiles/internal/adapter/store/cache"
	"go.ngs.io/oraip-profiles/internal/domain"
	"go.ngs.io/oraip-profiles/internal/metrics"
)

// CollectionRequest selects the products compared for a basin and year range.
type CollectionRequest struct {
	ProfileRequest
	// Products are model product names; empty selects the basin's default roster.
	Products []string
	// SkipReferences leaves out the observational products.
	SkipReferences bool
	// Refresh ignores a cached result and recomputes it.
	Refresh bool
}

// CollectionBuilder reduces every product of a collection and combines them.
type CollectionBuilder struct {
	reducer *Reducer
	cache   *cache.Store
	workers int
	logger  logrus.FieldLogger
	metrics *metrics.Collector

	lookup     func(name string) (product.Adapter, error)
	references func(basin domain.Basin) []product.Adapter
}

// NewCollectionBuilder creates a builder. store may be nil to disable caching.
// workers bounds the number of products reduced in parallel.
func NewCollectionBuilder(reducer *Reducer, store *cache.Store, workers int, logger logrus.FieldLogger, m *metrics.Collector) *CollectionBuilder {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CollectionBuilder{
		reducer: reducer,
		cache:   store,
		workers: workers,
		logger:  logger,
		metrics: m,
		lookup: func(name string) (product.Adapter, error) {
			return product.Lookup(name)
		},
		references: func(basin domain.Basin) []product.Adapter {
			var out []product.Adapter
			for _, p := range product.References(basin) {
				out = append(out, p)
			}
			return out
		},
	}
}

// Build returns the collection for req, from the cache when possible.
// The first failing product aborts the whole build.
func (b *CollectionBuilder) Build(ctx context.Context, req CollectionRequest) (*domain.Collection, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	names := req.Products
	if len(names) == 0 {
		names = product.DefaultRoster(req.Basin)
	}
	models := make([]product.Adapter, 0, len(names))
	ids := make([]string, 0, len(names))
	for _, n := range names {
		a, err := b.lookup(n)
		if err != nil {
			return nil, err
		}
		models = append(models, a)
		ids = append(ids, a.Name())
	}
	var refs []product.Adapter
	if !req.SkipReferences {
		for _, r := range b.references(req.Basin) {
			if !contains(ids, r.Name()) {
				refs = append(refs, r)
			}
		}
	}

	id := domain.CollectionKey(ids, req.Basin, req.StartYear, req.EndYear, req.Layers, !req.SkipReferences)
	log := b.logger.WithField("collection", id)
	if c := b.cached(id, req.Refresh, log); c != nil {
		return c, nil
	}

	var timer *metrics.Timer
	if b.metrics != nil {
		timer = b.metrics.NewTimer(b.metrics.CollectionDuration)
	}
	start := time.Now()

	all := append(append([]product.Adapter{}, models...), refs...)
	results := make([]*domain.Dataset, len(all))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i, a := range all {
		g.Go(func() error {
			ds, err := b.reducer.Reduce(gctx, a, req.ProfileRequest)
			if err != nil {
				return err
			}
			results[i] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	c := &domain.Collection{
		ID:         id,
		RunID:      uuid.NewString(),
		Created:    time.Now().UTC(),
		Basin:      req.Basin,
		StartYear:  req.StartYear,
		EndYear:    req.EndYear,
		Products:   results[:len(models)],
		References: results[len(models):],
	}
	if err := c.Aggregate(); err != nil {
		return nil, err
	}
	if timer != nil {
		timer.ObserveDuration()
	}
	log.WithFields(logrus.Fields{
		"run_id":   c.RunID,
		"products": len(c.Products),
		"refs":     len(c.References),
		"duration": time.Since(start),
	}).Info("Built collection")

	if b.cache != nil {
		if err := b.cache.Save(c); err != nil {
			log.WithError(err).Warn("Failed to cache collection")
		}
	}
	return c, nil
}

func (b *CollectionBuilder) cached(id string, refresh bool, log logrus.FieldLogger) *domain.Collection {
	if b.cache == nil || refresh {
		return nil
	}
	c, err := b.cache.Load(id)
	result := "hit"
	switch {
	case errors.Is(err, cache.ErrNotFound):
		result = "miss"
	case err != nil:
		result = "error"
		log.WithError(err).Warn("Ignoring unreadable cache entry")
	default:
		log.WithField("run_id", c.RunID).Info("Using cached collection")
	}
	if b.metrics != nil {
		b.metrics.RecordCacheLookup(result)
	}
	if err != nil {
		return nil
	}
	return c
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
