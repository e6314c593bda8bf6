package handlers

import (
	"net/http"

	"poolctl/internal/device"
	"poolctl/internal/logger"
	"poolctl/internal/models"
	"poolctl/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services, the device core, and logging.
type Handler struct {
	services   *service.Service
	device     StateSource
	dispatcher CommandSender
	apiKey     string
	log        *logger.Logger
}

// StateSource provides the current DeviceState snapshot.
type StateSource interface {
	Snapshot() models.DeviceState
}

// CommandSender dispatches actuator commands toward the device.
type CommandSender interface {
	SendCommand(actuator device.Actuator, value string) error
}

// NewHandler constructs a new HTTP handler with dependencies. apiKey guards
// the ingestion endpoint; empty means the server is misconfigured and the
// endpoint says so.
func NewHandler(services *service.Service, dev StateSource, dispatcher CommandSender, apiKey string, log *logger.Logger) *Handler {
	return &Handler{
		services:   services,
		device:     dev,
		dispatcher: dispatcher,
		apiKey:     apiKey,
		log:        log,
	}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"ok": false, "error": "Method Not Allowed"})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health endpoint
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		api.POST("/event", h.apiKeyGuard, h.postEvent)
		api.GET("/history", h.getHistory)
		api.POST("/command", h.postCommand)
		api.GET("/state", h.getState)
	}

	// Live DeviceState push over WebSocket — same port
	router.GET("/ws", h.wsConnect)

	return router
}

// kindToStatus maps service failure kinds to HTTP status codes.
func kindToStatus(err error) int {
	switch service.KindOf(err) {
	case service.KindBadRequest:
		return http.StatusBadRequest
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindServerMisconfigured, service.KindStorage:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
