package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storelab/replenish/internal/service"
)

// RunHandler exposes operational triggers for the forecast and calibration
// cycles. The scheduler normally drives both; these endpoints exist for
// manual re-runs.
type RunHandler struct {
	forecast    *service.ForecastService
	calibration *service.CalibrationService
}

func NewRunHandler(forecast *service.ForecastService, calibration *service.CalibrationService) *RunHandler {
	return &RunHandler{forecast: forecast, calibration: calibration}
}

// TriggerForecast runs the batch for target_date (default: today).
func (h *RunHandler) TriggerForecast(c *gin.Context) {
	target, ok := parseDate(c, "target_date")
	if !ok {
		return
	}
	if target.IsZero() {
		target = time.Now()
	}

	result, err := h.forecast.RunForecast(c.Request.Context(), target)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// TriggerCalibration grades eval_date (default: yesterday) and applies any
// warranted parameter nudges.
func (h *RunHandler) TriggerCalibration(c *gin.Context) {
	evalDate, ok := parseDate(c, "eval_date")
	if !ok {
		return
	}
	if evalDate.IsZero() {
		evalDate = time.Now().AddDate(0, 0, -1)
	}

	result, err := h.calibration.RunCalibration(c.Request.Context(), evalDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
