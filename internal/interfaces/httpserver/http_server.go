package httpserver

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pepperbot/pepper-server/internal/config"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/handlers/chathandler"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/handlers/modelhandler"
	"github.com/pepperbot/pepper-server/internal/interfaces/httpserver/handlers/settingshandler"
	middleware "github.com/pepperbot/pepper-server/internal/interfaces/httpserver/middlewares"
)

type HTTPServer struct {
	engine          *gin.Engine
	config          *config.Config
	chatHandler     *chathandler.Handler
	settingsHandler *settingshandler.Handler
	modelHandler    *modelhandler.Handler
}

func NewHTTPServer(
	cfg *config.Config,
	log zerolog.Logger,
	chatHandler *chathandler.Handler,
	settingsHandler *settingshandler.Handler,
	modelHandler *modelhandler.Handler,
) *HTTPServer {
	if !config.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	server := &HTTPServer{
		engine:          gin.New(),
		config:          cfg,
		chatHandler:     chatHandler,
		settingsHandler: settingsHandler,
		modelHandler:    modelHandler,
	}
	server.engine.Use(gin.Recovery())
	server.engine.Use(middleware.RequestID())
	server.engine.Use(middleware.LoggingMiddleware(log))
	server.engine.Use(middleware.MetricsMiddleware())
	server.engine.Use(middleware.CORSMiddleware())

	server.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	server.engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	server.bindRoutes()
	return server
}

func (s *HTTPServer) bindRoutes() {
	v1 := s.engine.Group("/v1")
	v1.POST("/chat", s.chatHandler.Chat)
	v1.GET("/settings/:externalUserID", s.settingsHandler.GetSettings)
	v1.PATCH("/settings/:externalUserID", s.settingsHandler.UpdateSettings)
	v1.POST("/conversations/:externalUserID/new", s.settingsHandler.NewConversation)
	v1.GET("/models", s.modelHandler.ListModels)
}

// Engine exposes the router for tests.
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

func (s *HTTPServer) Run() error {
	return s.engine.Run(fmt.Sprintf(":%d", s.config.HTTPPort))
}
