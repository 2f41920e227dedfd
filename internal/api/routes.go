package api

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/DanLeiria/cribs/config"
	"github.com/DanLeiria/cribs/internal/metrics"
)

func SetupRoutes(router *gin.Engine, handler *Handler, cfg config.ServerConfig, rec *metrics.Recorder) {
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/datasets/:variant/groups", handler.GetGroups)
		api.POST("/compare", handler.Compare)
		api.POST("/preprocess", handler.RunPreprocess)
	}

	if rec != nil {
		router.GET("/metrics", gin.WrapH(rec.Handler()))
	}
}
