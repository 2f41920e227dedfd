package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/compare"
	"github.com/DanLeiria/cribs/internal/dataset"
	"github.com/DanLeiria/cribs/internal/metrics"
	"github.com/DanLeiria/cribs/internal/models"
	"github.com/DanLeiria/cribs/internal/preprocess"
)

type Handler struct {
	cfg     *config.Config
	logger  *logrus.Logger
	metrics *metrics.Recorder
	queries *compare.QueryDecoder

	// Held while a preprocessing run triggered over HTTP is in progress
	running sync.Mutex
}

func NewHandler(cfg *config.Config, logger *logrus.Logger, rec *metrics.Recorder) (*Handler, error) {
	queries, err := compare.NewQueryDecoder()
	if err != nil {
		return nil, err
	}

	return &Handler{
		cfg:     cfg,
		logger:  logger,
		metrics: rec,
		queries: queries,
	}, nil
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"region_table": config.RegionTableVersion,
		"regions":      config.GetRegionNames(config.RegionSetIslands),
	})
}

// GetGroups returns the (District, Type) group sizes of a cleaned dataset
func (h *Handler) GetGroups(c *gin.Context) {
	table, ok := h.loadVariant(c, c.Param("variant"))
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rows":   table.Len(),
		"groups": table.GroupCounts(models.ColDistrict, models.ColType),
	})
}

// Compare positions a listing within the matching listings of a cleaned dataset
// (land unless ?variant= says otherwise)
func (h *Handler) Compare(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	query, err := h.queries.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	table, ok := h.loadVariant(c, c.DefaultQuery("variant", preprocess.VariantLand.String()))
	if !ok {
		return
	}

	result, err := compare.Compare(table, query)
	switch {
	case errors.Is(err, compare.ErrNoMatches):
		c.JSON(http.StatusNotFound, gin.H{"error": "No matches found, check your input values"})
		return
	case errors.Is(err, compare.ErrUnknownColumn), errors.Is(err, compare.ErrMissingAreaOrPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.WithError(err).Error("Failed to compare listing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compare listing"})
		return
	}

	c.JSON(http.StatusOK, result)
}

// RunPreprocess cleans the raw dataset for every variant. Only one run may be active.
func (h *Handler) RunPreprocess(c *gin.Context) {
	if !h.running.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "Preprocessing is already running"})
		return
	}
	defer h.running.Unlock()

	results, err := preprocess.RunAll(c.Request.Context(), h.cfg, h.logger, h.metrics)
	if err != nil {
		h.logger.WithError(err).Error("Failed to run preprocessing")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to run preprocessing"})
		return
	}

	rows := make(map[string]int, len(results))
	for v, t := range results {
		rows[v.String()] = t.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Preprocessing finished",
		"rows":    rows,
	})
}

func (h *Handler) loadVariant(c *gin.Context, name string) (*models.Table, bool) {
	if _, err := preprocess.ParseVariant(name); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	path, err := h.cfg.PathFor(name)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}

	table, err := dataset.ReadCSV(path, models.ColID)
	if errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Dataset %s has not been generated yet", name)})
		return nil, false
	}
	if err != nil {
		h.logger.WithError(err).WithField("variant", name).Error("Failed to load dataset")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load dataset"})
		return nil, false
	}
	return table, true
}
