package http

import (
	"errors"
	"net/http"
	"strconv"

	"stocxer-screener/internal/screener/dto"
	"stocxer-screener/internal/screener/repository"
	"stocxer-screener/internal/screener/service"
	"stocxer-screener/pkg/logger"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// ScanHandler handles HTTP requests for scans.
type ScanHandler struct {
	scanService service.ScanService
	scanRepo    repository.ScreenerScanRepository
	resultRepo  repository.ScreenerResultRepository
	logger      *logger.Logger
}

// NewScanHandler creates a new ScanHandler.
func NewScanHandler(scanService service.ScanService, scanRepo repository.ScreenerScanRepository, resultRepo repository.ScreenerResultRepository, logger *logger.Logger) *ScanHandler {
	return &ScanHandler{scanService: scanService, scanRepo: scanRepo, resultRepo: resultRepo, logger: logger}
}

// RegisterRoutes registers the scan routes to the Echo group.
func (h *ScanHandler) RegisterRoutes(g *echo.Group) {
	g.POST("", h.EnqueueScan)
	g.GET("", h.ListScans)
	g.GET("/:id", h.GetScan)
	g.GET("/:id/results", h.GetScanResults)
}

// EnqueueScan validates the request and queues the scan for execution.
func (h *ScanHandler) EnqueueScan(c echo.Context) error {
	var req dto.ScanRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid request payload"})
	}

	scanID, err := h.scanService.Enqueue(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, dto.ErrInvalidScanConfig) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
		}
		h.logger.Error("Failed to enqueue scan", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to enqueue scan"})
	}

	return c.JSON(http.StatusAccepted, dto.ScanQueuedResponse{ScanID: scanID, Status: "queued"})
}

// ListScans returns the calling user's scan summaries, newest first.
func (h *ScanHandler) ListScans(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Invalid limit"})
		}
		limit = parsed
	}

	scans, err := h.scanRepo.FindByUser(c.Request().Context(), userID, limit)
	if err != nil {
		h.logger.Error("Failed to list scans", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to list scans"})
	}

	return c.JSON(http.StatusOK, scans)
}

// GetScan returns one scan summary.
func (h *ScanHandler) GetScan(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	scan, err := h.scanRepo.FindByScanID(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Scan not found"})
		}
		h.logger.Error("Failed to get scan", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get scan"})
	}

	return c.JSON(http.StatusOK, scan)
}

// GetScanResults returns the signal rows of one scan, highest confidence
// first.
func (h *ScanHandler) GetScanResults(c echo.Context) error {
	userID := c.QueryParam("user_id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id is required"})
	}

	results, err := h.resultRepo.FindByScanID(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		h.logger.Error("Failed to get scan results", logger.ErrorField(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "Failed to get scan results"})
	}

	return c.JSON(http.StatusOK, results)
}
