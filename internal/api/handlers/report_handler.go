package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/storelab/replenish/internal/service"
)

const dateLayout = "2006-01-02"

type ReportHandler struct {
	service *service.ReportService
}

func NewReportHandler(service *service.ReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// parseDate reads a YYYY-MM-DD query parameter; the zero time means the
// caller did not constrain it.
func parseDate(c *gin.Context, name string) (time.Time, bool) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return time.Time{}, true
	}
	d, err := time.Parse(dateLayout, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ", expected YYYY-MM-DD"})
		return time.Time{}, false
	}
	return d, true
}

// GetRun returns the prediction log and decision mix for one run date,
// defaulting to the latest run.
func (h *ReportHandler) GetRun(c *gin.Context) {
	runDate, ok := parseDate(c, "run_date")
	if !ok {
		return
	}

	report, err := h.service.Run(c.Request.Context(), runDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetOrderList returns the executable order list for one run date.
func (h *ReportHandler) GetOrderList(c *gin.Context) {
	runDate, ok := parseDate(c, "run_date")
	if !ok {
		return
	}

	lines, err := h.service.OrderList(c.Request.Context(), runDate)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_lines": lines})
}

// GetAccuracy aggregates outcome classes over a date window, defaulting to
// the last 28 days.
func (h *ReportHandler) GetAccuracy(c *gin.Context) {
	from, ok := parseDate(c, "from")
	if !ok {
		return
	}
	to, ok := parseDate(c, "to")
	if !ok {
		return
	}

	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -28)
	}

	report, err := h.service.Accuracy(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GetParameters returns the current calibratable parameters.
func (h *ReportHandler) GetParameters(c *gin.Context) {
	params, err := h.service.Parameters(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"parameters": params})
}

// GetParameterHistory returns the adjustment trail for one parameter.
func (h *ReportHandler) GetParameterHistory(c *gin.Context) {
	name := c.Param("name")

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	history, err := h.service.ParameterHistory(c.Request.Context(), name, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"parameter": name, "history": history})
}
