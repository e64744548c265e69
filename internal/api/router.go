package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jengzang/citation-map-backend/internal/config"
	"github.com/jengzang/citation-map-backend/internal/handler"
	"github.com/jengzang/citation-map-backend/internal/middleware"
	"github.com/jengzang/citation-map-backend/internal/service"
)

// Services are the dependencies the routes are built on
type Services struct {
	Citations  *service.CitationService
	LoadEvents *service.LoadEventService
	Limiter    *middleware.RateLimiter // owned by the caller; nil disables rate limiting
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, logger *zap.Logger, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(logger))

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Citation map API is running",
		})
	})

	api := r.Group("/api/v1")
	{
		citationHandler := handler.NewCitationHandler(svc.Citations)
		citations := api.Group("/citations")
		if svc.Limiter != nil {
			citations.Use(middleware.RateLimit(svc.Limiter))
		}
		{
			citations.GET("/locations", citationHandler.GetLocations)
			citations.GET("/locations.geojson", citationHandler.GetGeoJSON)
			citations.GET("/map.svg", citationHandler.GetMap)
			citations.GET("/hover", citationHandler.GetHover)
			citations.PUT("/hover", citationHandler.EnterHover)
			citations.DELETE("/hover", citationHandler.LeaveHover)
		}

		if svc.LoadEvents != nil {
			loadHandler := handler.NewLoadEventHandler(svc.LoadEvents)
			admin := api.Group("/admin", middleware.Auth(cfg.JWTSecret, middleware.RoleAdmin))
			{
				admin.GET("/loads", loadHandler.ListLoads)
				admin.GET("/loads/:id", loadHandler.GetLoad)
			}
		}
	}

	return r
}
