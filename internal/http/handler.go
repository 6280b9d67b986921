package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go.ngs.io/oraip-profiles/internal/adapter/product"
	"go.ngs.io/oraip-profiles/internal/domain"
	"go.ngs.io/oraip-profiles/internal/usecase"
)

// CollectionBuilder computes the profile collection for a request.
type CollectionBuilder interface {
	Build(ctx context.Context, req usecase.CollectionRequest) (*domain.Collection, error)
}

// Defaults fill query parameters the caller leaves out.
type Defaults struct {
	StartYear int
	EndYear   int
	Products  []string
}

// Handler handles HTTP requests for basin profiles.
type Handler struct {
	builder  CollectionBuilder
	defaults Defaults
	logger   logrus.FieldLogger
}

// NewHandler creates a new HTTP handler.
func NewHandler(builder CollectionBuilder, defaults Defaults, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{
		builder:  builder,
		defaults: defaults,
		logger:   logger,
	}
}

// LayerInfo is one depth layer in a response.
type LayerInfo struct {
	Upper float64 `json:"upper"`
	Lower float64 `json:"lower"`
	Mid   float64 `json:"mid"`
}

// ProfileResponse is one dataset's profile. Missing layers are null.
type ProfileResponse struct {
	Name      string         `json:"name"`
	Legend    string         `json:"legend"`
	Reference bool           `json:"reference"`
	Values    []domain.Value `json:"values"`
}

// CollectionResponse is the response for GET /v1/profiles and /v1/profiles/diff.
type CollectionResponse struct {
	ID        string            `json:"id"`
	RunID     string            `json:"run_id"`
	Basin     domain.Basin      `json:"basin"`
	Quantity  string            `json:"quantity"`
	Label     string            `json:"label"`
	StartYear int               `json:"start_year"`
	EndYear   int               `json:"end_year"`
	Ref       string            `json:"ref,omitempty"`
	Layers    []LayerInfo       `json:"layers"`
	Range     [2]domain.Value   `json:"range"`
	Datasets  []ProfileResponse `json:"datasets"`
}

// GetProfiles handles GET /v1/profiles.
func (h *Handler) GetProfiles(c *gin.Context) {
	q, coll, ok := h.collection(c)
	if !ok {
		return
	}
	resp := newCollectionResponse(coll, q)
	lo, hi := coll.DataRange(q)
	resp.Range = [2]domain.Value{lo, hi}
	for _, d := range coll.All() {
		resp.Datasets = append(resp.Datasets, ProfileResponse{
			Name:      d.Name,
			Legend:    d.Legend,
			Reference: d.Reference,
			Values:    d.Profile(q).Values,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// GetDifferences handles GET /v1/profiles/diff. ref defaults to the multi-model mean.
func (h *Handler) GetDifferences(c *gin.Context) {
	ref := c.DefaultQuery("ref", domain.MultiModelName)
	q, coll, ok := h.collection(c)
	if !ok {
		return
	}
	diffs, err := coll.Differences(q, ref)
	if err != nil {
		h.fail(c, err)
		return
	}
	lo, hi, err := coll.DiffRange(q, ref)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := newCollectionResponse(coll, q)
	resp.Ref = ref
	resp.Range = [2]domain.Value{lo, hi}
	for _, d := range coll.All() {
		resp.Datasets = append(resp.Datasets, ProfileResponse{
			Name:      d.Name,
			Legend:    d.Legend,
			Reference: d.Reference,
			Values:    diffs[d.Name].Values,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func newCollectionResponse(coll *domain.Collection, q domain.Quantity) CollectionResponse {
	resp := CollectionResponse{
		ID:        coll.ID,
		RunID:     coll.RunID,
		Basin:     coll.Basin,
		Quantity:  q.String(),
		Label:     q.Label(),
		StartYear: coll.StartYear,
		EndYear:   coll.EndYear,
	}
	if coll.MultiModel != nil {
		p := coll.MultiModel.Profile(q)
		mids := p.Mids()
		for i, l := range p.Layers {
			resp.Layers = append(resp.Layers, LayerInfo{Upper: l.Upper, Lower: l.Lower, Mid: mids[i]})
		}
	}
	return resp
}

// collection parses the shared query parameters and builds the collection.
// It writes the error response itself and reports false on failure.
func (h *Handler) collection(c *gin.Context) (domain.Quantity, *domain.Collection, bool) {
	basin, err := domain.ParseBasin(c.Query("basin"))
	if err != nil {
		h.fail(c, err)
		return 0, nil, false
	}
	q, err := domain.ParseQuantity(c.DefaultQuery("quantity", "T"))
	if err != nil {
		h.fail(c, err)
		return 0, nil, false
	}

	req := usecase.CollectionRequest{
		ProfileRequest: usecase.NewProfileRequest(basin, h.defaults.StartYear, h.defaults.EndYear),
		Products:       h.defaults.Products,
	}
	if s := c.Query("start"); s != "" {
		if req.StartYear, err = strconv.Atoi(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid start year: %v", err)})
			return 0, nil, false
		}
	}
	if s := c.Query("end"); s != "" {
		if req.EndYear, err = strconv.Atoi(s); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid end year: %v", err)})
			return 0, nil, false
		}
	}
	if s := c.Query("products"); s != "" {
		req.Products = strings.Split(s, ",")
	}
	if s := c.Query("layers"); s != "" {
		layers, err := domain.ParseLayers(s)
		if err != nil {
			h.fail(c, err)
			return 0, nil, false
		}
		req.Layers[domain.Temperature] = layers
		req.Layers[domain.Salinity] = layers
	}
	req.SkipReferences = c.Query("references") == "false"

	coll, err := h.builder.Build(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return 0, nil, false
	}
	return q, coll, true
}

// fail maps configuration mistakes to 400 and data failures to 500.
func (h *Handler) fail(c *gin.Context, err error) {
	var ce *domain.ConfigError
	if errors.As(err, &ce) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.logger.WithError(err).WithField("path", c.FullPath()).Error("Request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

// BasinInfo describes a selectable basin.
type BasinInfo struct {
	Name     string  `json:"name"`
	MinDepth float64 `json:"min_depth"`
}

// GetBasins handles GET /v1/basins.
func (h *Handler) GetBasins(c *gin.Context) {
	var response []BasinInfo
	for _, b := range domain.AllBasins() {
		response = append(response, BasinInfo{Name: string(b), MinDepth: b.MinDepth()})
	}
	c.JSON(http.StatusOK, gin.H{
		"basins": response,
		"count":  len(response),
	})
}

// ProductInfo describes a catalog product.
type ProductInfo struct {
	Name      string `json:"name"`
	Legend    string `json:"legend"`
	Mode      string `json:"mode"`
	FirstYear int    `json:"first_year"`
	LastYear  int    `json:"last_year"`
	Reference bool   `json:"reference"`
	Default   bool   `json:"default"`
	Antarctic bool   `json:"antarctic"`
}

// GetProducts handles GET /v1/products.
func (h *Handler) GetProducts(c *gin.Context) {
	catalog := product.Catalog()
	response := make([]ProductInfo, len(catalog))
	for i, p := range catalog {
		first, last := p.Span()
		response[i] = ProductInfo{
			Name:      p.Name(),
			Legend:    p.Legend(),
			Mode:      p.Mode().String(),
			FirstYear: first,
			LastYear:  last,
			Reference: p.Reference(),
			Default:   p.Roster,
			Antarctic: p.Available(domain.Antarctic),
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"products": response,
		"count":    len(response),
	})
}

// HealthCheck handles GET /health.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
