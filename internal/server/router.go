package server

import (
	"net/http"

	"crono/internal/auth"
	"crono/internal/config"
	"crono/internal/handlers"
	"crono/internal/logger"
	"crono/internal/metrics"
	"crono/internal/service"
	"crono/internal/ws"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

type Deps struct {
	Config  *config.Config
	DB      *gorm.DB
	Service *service.TurnService
	Hub     *ws.Hub
	Metrics *metrics.Metrics
	Logger  logger.Logger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.GinMiddleware(d.Logger))
	r.Use(cors.New(corsConfig(d.Config.Server.AllowOrigins)))

	r.GET("/healthz", handlers.Health(d.DB))
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	h := handlers.New(d.Service, d.Hub, d.Logger)

	api := r.Group("/api", auth.Middleware([]byte(d.Config.JWT.Secret), d.Config.JWT.CookieName))
	{
		turns := api.Group("/turns")
		turns.POST("", auth.RequireStudent(), h.JoinQueue)
		turns.POST("/process", auth.RequireAdmin(), h.ProcessTurn)
		turns.DELETE("/:id", h.CancelTurn)

		api.GET("/students/me/turns", auth.RequireStudent(), h.MyTurns)

		events := api.Group("/events")
		events.GET("/:id/queue", h.QueueStatus)
		events.GET("/:id/ws", h.QueueWebSocket)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"code": "NOT_FOUND", "message": "Route not found"})
	})

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", logger.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", logger.RequestIDHeader},
		AllowCredentials: true,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
