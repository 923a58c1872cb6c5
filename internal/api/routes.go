// Package api exposes the permit search endpoints over gin.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nearby-api/internal/geoip"
	"nearby-api/internal/logger"
	"nearby-api/internal/metrics"
	"nearby-api/internal/proximity"
)

// Deps wires the handlers. Stats, Locator and DB are optional.
type Deps struct {
	Nearby  NearbyService
	Search  ApplicantSearcher
	Stats   StatsRecorder
	Locator Locator
	DB      Pinger
}

type Handler struct {
	d Deps
}

func New(d Deps) *Handler { return &Handler{d: d} }

// Register mounts every route on r.
//
// main calls it once for the root and once for the configured API base, so
// paths here are relative.
// Constraints: validation failures answer 400 with {"error": ...}; any
// other handler error answers 500 and is logged with the request id.
func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/", h.home)
	r.GET("/healthz", h.health)
	r.POST("/search_applicant", h.searchApplicant)
	r.POST("/search_nearby", h.searchNearby)
	r.GET("/stats", h.stats)
	r.GET("/locate", h.locate)
}

func (h *Handler) home(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "nearby-api is working"})
}

func (h *Handler) health(c *gin.Context) {
	if h.d.DB != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.d.DB.Ping(ctx); err != nil {
			logger.L().Warn("health_db_fail", "err", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) searchNearby(c *gin.Context) {
	var req nearbyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	q, err := req.query()
	if err != nil {
		writeError(c, err)
		return
	}
	res, err := h.d.Nearby.Nearby(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	h.record(c)
	if res == nil {
		res = []proximity.RankedResult{}
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) searchApplicant(c *gin.Context) {
	var req applicantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body")
		return
	}
	statuses, err := parseStatuses(req.Statuses)
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.ApplicantSearchesTotal.Inc()
	res, err := h.d.Search.SearchApplicant(c.Request.Context(), req.Applicant, req.Address, proximity.NormalizeStatuses(statuses))
	if err != nil {
		writeError(c, err)
		return
	}
	h.record(c)
	if res == nil {
		res = []proximity.Candidate{}
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) stats(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if h.d.Stats == nil || !h.d.Stats.Enabled() {
		c.JSON(http.StatusOK, statsResponse{})
		return
	}
	t, err := h.d.Stats.Totals(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, statsResponse{Enabled: true, Totals: t})
}

func (h *Handler) locate(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	if h.d.Locator == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geoip database not configured"})
		return
	}
	ip := c.Query("ip")
	if ip == "" {
		ip = visitorIP(c.Request)
	}
	loc, err := h.d.Locator.Locate(ip)
	switch {
	case errors.Is(err, geoip.ErrBadIP):
		badRequest(c, "invalid ip")
	case errors.Is(err, geoip.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "location not found"})
	case err != nil:
		writeError(c, err)
	default:
		c.JSON(http.StatusOK, loc)
	}
}

// record counts the request for /stats. Failures are logged only.
func (h *Handler) record(c *gin.Context) {
	if h.d.Stats == nil {
		return
	}
	if err := h.d.Stats.Record(c.Request.Context(), visitorIP(c.Request)); err != nil {
		logger.L().Warn("stats_record_fail", "err", err)
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, proximity.ErrMissingCoordinates):
		badRequest(c, "Latitude and longitude are required")
	case errors.Is(err, proximity.ErrInvalidCoordinates):
		badRequest(c, "Latitude and longitude must be numbers")
	case errors.Is(err, proximity.ErrStatusesNotList):
		badRequest(c, "statuses must be a list")
	default:
		logger.L().Error("request_failed", "path", c.Request.URL.Path, "request_id", c.GetString("request_id"), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
