package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/ctessum/sparse"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"go.ngs.io/oraip-profiles/internal/adapter/grid"
	"go.ngs.io/oraip-profiles/internal/adapter/product"
	"go.ngs.io/oraip-profiles/internal/adapter/store/bathymetry"
	"go.ngs.io/oraip-profiles/internal/adapter/store/nc"
	"go.ngs.io/oraip-profiles/internal/calendar"
	"go.ngs.io/oraip-profiles/internal/domain"
	"go.ngs.io/oraip-profiles/internal/metrics"
)

// ProfileRequest selects the basin, years and layers of a reduction.
type ProfileRequest struct {
	Basin     domain.Basin
	StartYear int
	EndYear   int
	Layers    map[domain.Quantity][]domain.Layer
}

// NewProfileRequest returns a request using the default layers for both quantities.
func NewProfileRequest(basin domain.Basin, startYear, endYear int) ProfileRequest {
	return ProfileRequest{
		Basin:     basin,
		StartYear: startYear,
		EndYear:   endYear,
		Layers: map[domain.Quantity][]domain.Layer{
			domain.Temperature: domain.DefaultLayers(),
			domain.Salinity:    domain.DefaultLayers(),
		},
	}
}

// Validate checks if the request is valid.
func (r ProfileRequest) Validate() error {
	if _, err := domain.ParseBasin(string(r.Basin)); err != nil {
		return err
	}
	if r.EndYear < r.StartYear {
		return &domain.ConfigError{
			Kind:  domain.KindYears,
			Value: fmt.Sprintf("%d-%d", r.StartYear, r.EndYear),
			Msg:   "end year before start year",
		}
	}
	for _, q := range domain.Quantities() {
		if err := domain.ValidateLayers(r.Layers[q]); err != nil {
			return fmt.Errorf("%s layers: %w", q, err)
		}
	}
	return nil
}

// Reducer turns product files into layered basin-mean profiles.
type Reducer struct {
	opener  nc.Opener
	dataDir string
	bathy   bathymetry.Store
	logger  logrus.FieldLogger
	metrics *metrics.Collector
}

// NewReducer creates a reducer reading files below dataDir. bathy may be nil,
// in which case no cells are excluded by depth.
func NewReducer(opener nc.Opener, dataDir string, bathy bathymetry.Store, logger logrus.FieldLogger, m *metrics.Collector) *Reducer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Reducer{
		opener:  opener,
		dataDir: dataDir,
		bathy:   bathy,
		logger:  logger,
		metrics: m,
	}
}

// Reduce computes the temperature and salinity profiles of one product.
func (r *Reducer) Reduce(ctx context.Context, a product.Adapter, req ProfileRequest) (*domain.Dataset, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	log := r.logger.WithFields(logrus.Fields{"product": a.Name(), "mode": a.Mode().String()})

	ds := &domain.Dataset{
		Name:      a.Name(),
		Legend:    a.Legend(),
		Basin:     req.Basin,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Reference: a.Reference(),
	}
	for _, q := range domain.Quantities() {
		var p *domain.ProfileVariable
		switch a.Mode() {
		case product.Native:
			lp, err := r.levels(ctx, a, q, req)
			if err != nil {
				return nil, err
			}
			p = lp.Bin(q, req.Layers[q])
			if ds.Levels == nil {
				ds.Levels = make(map[domain.Quantity]*domain.LevelProfile)
			}
			ds.Levels[q] = lp
		default:
			var err error
			p, err = r.cumulative(ctx, a, q, req)
			if err != nil {
				return nil, err
			}
		}
		ds.Profiles.Set(q, p)
	}

	if a.ScreenSalinity() {
		if screened := domain.ScreenSalinity(ds.Profiles); len(screened) > 0 {
			log.WithField("layers", screened).Info("Screened layers with decreasing salinity")
			if r.metrics != nil {
				r.metrics.ScreenedLayers.WithLabelValues(a.Name()).Add(float64(len(screened)))
			}
		}
	}

	missing := 0
	for _, q := range domain.Quantities() {
		n := ds.Profile(q).MissingCount()
		missing += n
		if r.metrics != nil {
			r.metrics.MissingLayers.WithLabelValues(a.Name(), q.String()).Set(float64(n))
		}
	}
	duration := time.Since(start)
	if r.metrics != nil {
		r.metrics.ReduceDuration.WithLabelValues(a.Name(), a.Mode().String()).Observe(duration.Seconds())
	}
	log.WithFields(logrus.Fields{"duration": duration, "missing_layers": missing}).Info("Reduced product")
	return ds, nil
}

// cumulative differences surface-to-bound integrals: (I(l) - I(u)) / (l - u).
func (r *Reducer) cumulative(ctx context.Context, a product.Adapter, q domain.Quantity, req ProfileRequest) (*domain.ProfileVariable, error) {
	integrals := map[float64]domain.Value{0: domain.Some(0)}
	integral := func(bound float64) (domain.Value, error) {
		if v, ok := integrals[bound]; ok {
			return v, nil
		}
		v, err := r.integral(ctx, a, q, bound, req)
		if err != nil {
			return domain.Missing(), err
		}
		integrals[bound] = v
		return v, nil
	}

	p := domain.NewProfileVariable(q, req.Layers[q])
	for i, l := range p.Layers {
		lower, err := integral(l.Lower)
		if err != nil {
			return nil, err
		}
		upper, err := integral(l.Upper)
		if err != nil {
			return nil, err
		}
		p.Values[i] = lower.Sub(upper).Div(l.Thickness())
	}
	return p, nil
}

// integral is the basin-and-time mean of the field integrated down to bound.
// Each record is averaged over space first, then the records are averaged.
func (r *Reducer) integral(ctx context.Context, a product.Adapter, q domain.Quantity, bound float64, req ProfileRequest) (domain.Value, error) {
	filter := bathymetry.Filter{Store: r.bathy, MinDepth: req.Basin.MinDepth()}
	var steps []domain.Value
	for _, src := range a.Sources(q, bound, req.StartYear, req.EndYear) {
		f, err := r.open(ctx, a, q, bound, src, req.Basin)
		if err != nil {
			return domain.Missing(), err
		}
		if r.bathy != nil {
			f.exclude(func(lat, lon float64) bool { return !filter.Keep(lat, lon, bound) })
		}
		err = f.each(ctx, a, req, func(rec *sparse.DenseArray) error {
			plane := rec.Elements
			if len(plane) != f.mask.NLat*f.mask.NLon {
				return fmt.Errorf("%s: record shape %v does not match a %dx%d grid", f.path, rec.Shape, f.mask.NLat, f.mask.NLon)
			}
			steps = append(steps, f.basinMean(plane))
			return nil
		})
		f.close()
		if err != nil {
			return domain.Missing(), err
		}
	}
	return domain.Mean(steps).Scale(a.IntegralScale(q, bound)), nil
}

// levels returns the time-mean basin average at every native depth level.
func (r *Reducer) levels(ctx context.Context, a product.Adapter, q domain.Quantity, req ProfileRequest) (*domain.LevelProfile, error) {
	series := make(map[float64][]domain.Value)
	for _, src := range a.Sources(q, 0, req.StartYear, req.EndYear) {
		f, err := r.open(ctx, a, q, 0, src, req.Basin)
		if err != nil {
			return nil, err
		}
		depths, err := nc.ReadAxis(f.ds, src.Coords.Depth...)
		if err != nil {
			f.close()
			return nil, &domain.FileAccessError{Path: f.path, Err: err}
		}
		err = f.each(ctx, a, req, func(rec *sparse.DenseArray) error {
			size := f.mask.NLat * f.mask.NLon
			nz := len(rec.Elements) / size
			if nz*size != len(rec.Elements) || nz > len(depths) {
				return fmt.Errorf("%s: record shape %v does not match %d levels on a %dx%d grid",
					f.path, rec.Shape, len(depths), f.mask.NLat, f.mask.NLon)
			}
			for k := 0; k < nz; k++ {
				z := depths[k]
				series[z] = append(series[z], f.basinMean(rec.Elements[k*size:(k+1)*size]))
			}
			return nil
		})
		f.close()
		if err != nil {
			return nil, err
		}
	}

	lp := &domain.LevelProfile{}
	for z := range series {
		lp.Depths = append(lp.Depths, z)
	}
	sort.Float64s(lp.Depths)
	lp.Values = make([]domain.Value, len(lp.Depths))
	for k, z := range lp.Depths {
		lp.Values[k] = domain.Mean(series[z])
	}
	return lp, nil
}

// field is an open source file with its basin selection.
type field struct {
	path    string
	product string
	q       domain.Quantity
	src     product.Source
	ds      nc.Dataset
	v       nc.Variable
	lats    []float64
	lons    []float64
	mask    *domain.Mask
	fill    float64
	hasFill bool
	dates   []calendar.Date
	log     logrus.FieldLogger
	metrics *metrics.Collector
}

func (r *Reducer) open(ctx context.Context, a product.Adapter, q domain.Quantity, bound float64, src product.Source, basin domain.Basin) (*field, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := filepath.Join(r.dataDir, src.Path)
	log := r.logger.WithFields(logrus.Fields{"path": path, "product": a.Name(), "quantity": q.String()})
	log.Debug("Reading")

	ds, err := r.opener.Open(path)
	if r.metrics != nil {
		r.metrics.RecordFileRead(a.Name(), err)
	}
	if err != nil {
		return nil, &domain.FileAccessError{Path: path, Err: err}
	}
	f := &field{path: path, product: a.Name(), q: q, src: src, ds: ds, log: log, metrics: r.metrics}
	if err := f.load(a, q, bound, basin); err != nil {
		f.close()
		return nil, err
	}
	return f, nil
}

func (f *field) load(a product.Adapter, q domain.Quantity, bound float64, basin domain.Basin) error {
	src := f.src
	if src.Grid != nil {
		f.lats, f.lons = src.Grid.Lats, src.Grid.Lons
	} else {
		var err error
		if f.lats, err = nc.ReadAxis(f.ds, src.Coords.Lat...); err != nil {
			return &domain.FileAccessError{Path: f.path, Err: err}
		}
		if f.lons, err = nc.ReadAxis(f.ds, src.Coords.Lon...); err != nil {
			return &domain.FileAccessError{Path: f.path, Err: err}
		}
	}
	f.lons = grid.NormalizeLons(f.lons)
	if src.LonShift {
		f.lons = grid.Resplice(f.lons)
	}

	mask, err := basin.Select(f.lons, f.lats)
	if err != nil {
		return err
	}
	f.mask = mask

	v, err := nc.FindVar(f.ds, a.VariableNames(q, bound)...)
	if err != nil {
		return &domain.FileAccessError{Path: f.path, Err: err}
	}
	f.v = v
	f.fill, f.hasFill = a.FillValue(q, v)

	dates, err := a.DecodeTime(f.ds, src, nc.NumRecords(v))
	if err != nil {
		var tu *domain.TimeUnitsError
		if errors.As(err, &tu) {
			return fmt.Errorf("%s: %w", f.path, err)
		}
		return &domain.FileAccessError{Path: f.path, Err: err}
	}
	f.dates = dates
	return nil
}

func (f *field) close() {
	if f.ds != nil {
		_ = f.ds.Close()
	}
}

// exclude deselects the basin cells for which drop is true.
func (f *field) exclude(drop func(lat, lon float64) bool) {
	for j, lat := range f.lats {
		for i, lon := range f.lons {
			if f.mask.At(j, i) && drop(lat, lon) {
				f.mask.Clear(j, i)
			}
		}
	}
}

// each calls fn with every record dated inside the requested years.
func (f *field) each(ctx context.Context, a product.Adapter, req ProfileRequest, fn func(*sparse.DenseArray) error) error {
	used := 0
	for i, d := range f.dates {
		if a.FilterYears() && !d.InYears(req.StartYear, req.EndYear) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := nc.ReadRecord(f.v, i)
		if err != nil {
			return &domain.FileAccessError{Path: f.path, Err: err}
		}
		if f.src.LonShift {
			rec = grid.RespliceField(rec)
		}
		if err := fn(rec); err != nil {
			return err
		}
		used++
	}
	if f.metrics != nil {
		f.metrics.RecordsReadTotal.WithLabelValues(f.product, f.q.String()).Add(float64(used))
	}
	f.log.WithFields(logrus.Fields{"records": len(f.dates), "used": used, "cells": f.mask.Count()}).Debug("Averaged records")
	return nil
}

// basinMean averages the selected cells of a lat x lon plane, skipping fill
// values and NaN. It is missing when no cell contributes.
func (f *field) basinMean(plane []float64) domain.Value {
	xs := make([]float64, 0, f.mask.Count())
	for k, x := range plane {
		if !f.mask.Index(k) || math.IsNaN(x) || math.IsInf(x, 0) {
			continue
		}
		if f.hasFill && nc.IsFill(x, f.fill) {
			continue
		}
		xs = append(xs, x)
	}
	if len(xs) == 0 {
		return domain.Missing()
	}
	return domain.Some(stat.Mean(xs, nil))
}
