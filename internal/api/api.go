package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/storelab/replenish/internal/api/handlers"
	"github.com/storelab/replenish/internal/api/middleware"
	"github.com/storelab/replenish/internal/service"
)

type Services struct {
	Report      *service.ReportService
	Forecast    *service.ForecastService
	Calibration *service.CalibrationService
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(allowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(allowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil {
		if services.Report != nil {
			reportHandler := handlers.NewReportHandler(services.Report)
			reportGroup := apiGroup.Group("/reports")
			{
				reportGroup.GET("/run", reportHandler.GetRun)
				reportGroup.GET("/order_list", reportHandler.GetOrderList)
				reportGroup.GET("/accuracy", reportHandler.GetAccuracy)
				reportGroup.GET("/parameters", reportHandler.GetParameters)
				reportGroup.GET("/parameters/:name/history", reportHandler.GetParameterHistory)
			}
		}

		if services.Forecast != nil && services.Calibration != nil {
			runHandler := handlers.NewRunHandler(services.Forecast, services.Calibration)
			runGroup := apiGroup.Group("/runs")
			{
				runGroup.POST("/forecast", runHandler.TriggerForecast)
				runGroup.POST("/calibration", runHandler.TriggerCalibration)
			}
		}
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
