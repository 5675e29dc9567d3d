package handlers

import (
	"net/http"

	"github.com/iwtcode/transferStation/internal/config"
	"github.com/iwtcode/transferStation/internal/interfaces"
	"github.com/iwtcode/transferStation/internal/middleware/logging"
	"github.com/iwtcode/transferStation/internal/middleware/swagger"
	"github.com/iwtcode/transferStation/internal/services/broadcast"
	"github.com/iwtcode/transferStation/internal/services/packet_router"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler - структура для обработчиков HTTP-запросов и websocket соединений
type Handler struct {
	usecase     interfaces.Usecases
	broadcaster *broadcast.Broadcaster
	router      *packet_router.Router
	logger      *logging.Logger
}

// NewHandler создает новый экземпляр Handler
func NewHandler(
	usecase interfaces.Usecases,
	broadcaster *broadcast.Broadcaster,
	router *packet_router.Router,
	logger *logging.Logger,
) *Handler {
	return &Handler{
		usecase:     usecase,
		broadcaster: broadcaster,
		router:      router,
		logger:      logger.WithPrefix("HANDLER"),
	}
}

// ProvideRouter настраивает и возвращает HTTP-роутер
func ProvideRouter(h *Handler, cfg *config.AppConfig, swagCfg *swagger.Config, gatherer prometheus.Gatherer) http.Handler {
	gin.SetMode(cfg.GinMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// Swagger
	swagger.Setup(router, swagCfg)

	// Logger Middleware
	router.Use(LoggingMiddleware(h.logger))

	// Websocket для UI
	router.GET("/ws", h.ServeWS)

	// Prometheus
	if gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	// Группа API v1
	v1 := router.Group("/api/v1")
	{
		station := v1.Group("/station")
		{
			station.GET("/position", h.GetPosition)
			station.POST("/command", h.SendCommand)
			station.GET("/history/commands", h.GetCommandHistory)
			station.GET("/history/responses", h.GetResponseHistory)
		}

		scans := v1.Group("/scans")
		{
			scans.POST("", h.StartScan)
			scans.GET("", h.GetScans)
			scans.POST("/cancel", h.CancelScan)
			scans.POST("/pause", h.PauseScans)
			scans.POST("/resume", h.ResumeScans)
		}
	}

	return router
}
