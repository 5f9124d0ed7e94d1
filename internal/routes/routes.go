// internal/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"printer-service/internal/config"
	"printer-service/internal/database"
	"printer-service/internal/handler"
	"printer-service/internal/middleware"
	"printer-service/internal/orchestrator"
	"printer-service/internal/repository"
	"printer-service/internal/service"
	"printer-service/internal/utils"
)

// Router holds all dependencies for routing
type Router struct {
	config           *config.Config
	logger           *zap.Logger
	db               *database.DB
	printerService   *service.PrinterService
	discoveryService *service.DiscoveryService
	orchestrator     *orchestrator.Orchestrator
	jobs             repository.JobRepository
	eventBus         *handler.EventBus
}

// NewRouter creates a new router instance
func NewRouter(
	config *config.Config,
	logger *zap.Logger,
	db *database.DB,
	printerService *service.PrinterService,
	discoveryService *service.DiscoveryService,
	orch *orchestrator.Orchestrator,
	jobs repository.JobRepository,
	eventBus *handler.EventBus,
) *Router {
	return &Router{
		config:           config,
		logger:           logger,
		db:               db,
		printerService:   printerService,
		discoveryService: discoveryService,
		orchestrator:     orch,
		jobs:             jobs,
		eventBus:         eventBus,
	}
}

// SetupRouter creates and configures the Gin router
func (r *Router) SetupRouter() *gin.Engine {
	if r.config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()

	r.addMiddleware(router)
	r.addRoutes(router)

	return router
}

// addMiddleware adds middleware to the router
func (r *Router) addMiddleware(router *gin.Engine) {
	router.Use(middleware.RecoveryMiddleware(r.logger))
	router.Use(middleware.RequestIDMiddleware())

	serviceLogger := utils.NewServiceLogger(r.logger, "http-server")
	router.Use(middleware.LoggingMiddleware(serviceLogger))

	router.Use(middleware.CORSMiddleware(&r.config.Security))

	r.logger.Info("Middleware configured")
}

// addRoutes sets up all application routes
func (r *Router) addRoutes(router *gin.Engine) {
	healthHandler := handler.NewHealthHandler(r.db, r.config, r.orchestrator, r.logger)
	printerHandler := handler.NewPrinterHandler(r.printerService, r.logger)
	discoveryHandler := handler.NewDiscoveryHandler(r.discoveryService, r.logger)
	jobHandler := handler.NewJobHandler(r.jobs, r.orchestrator, r.logger)
	alertHandler := handler.NewAlertHandler(r.orchestrator, r.logger)
	wsHandler := handler.NewWebSocketHandler(r.eventBus, r.logger)

	healthHandler.RegisterRoutes(router.Group(""))

	apiV1 := router.Group("/api/v1")
	printerHandler.RegisterRoutes(apiV1)
	discoveryHandler.RegisterRoutes(apiV1)
	jobHandler.RegisterRoutes(apiV1)
	alertHandler.RegisterRoutes(apiV1)

	wsHandler.RegisterRoutes(router.Group("/ws"))

	r.logger.Info("All routes configured successfully")
}
