package rest

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RouterConfig carries the settings the router needs from the environment
type RouterConfig struct {
	APIToken    string
	CORSOrigins []string
}

// NewRouter wires middleware and routes onto a gin engine
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CorrelationIDMiddleware())
	r.Use(RequestLogger(h.Logger))
	r.Use(corsMiddleware(cfg.CORSOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/v1")
	v1.Use(AuthMiddleware(cfg.APIToken))
	{
		projections := v1.Group("/projections")
		projections.POST("/preview", h.PreviewProjection)
		projections.POST("", h.CreateProjection)
		projections.GET("", h.ListProjections)
		projections.GET("/:id", h.GetProjection)
		projections.DELETE("/:id", h.DeleteProjection)
		projections.POST("/:id/recalculate", h.RecalculateMetrics)

		simulations := v1.Group("/simulations")
		simulations.POST("", h.CreateSimulation)
		simulations.GET("/:id", h.GetSimulation)
		simulations.POST("/:id/entries", h.AddEntry)
		simulations.GET("/:id/entries", h.ListEntries)
		simulations.POST("/:id/forecast-data", h.SeedForecastData)

		forecastData := v1.Group("/forecast-data")
		forecastData.POST("", h.SaveForecastData)
		forecastData.POST("/:id/forecast", h.GenerateForecast)
		forecastData.GET("/:id/forecast", h.GetForecast)
	}

	return r
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	corsConfig := cors.Config{
		AllowMethods:  []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", UserIDHeader, CorrelationIDHeader},
		ExposeHeaders: []string{CorrelationIDHeader},
		MaxAge:        12 * time.Hour,
	}

	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = origins
	}

	return cors.New(corsConfig)
}
