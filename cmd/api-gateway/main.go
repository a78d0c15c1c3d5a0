package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/med-schedule-api/api/swagger"
	"github.com/noah-isme/med-schedule-api/internal/handler"
	"github.com/noah-isme/med-schedule-api/internal/middleware"
	"github.com/noah-isme/med-schedule-api/internal/repository"
	"github.com/noah-isme/med-schedule-api/internal/service"
	"github.com/noah-isme/med-schedule-api/pkg/cache"
	"github.com/noah-isme/med-schedule-api/pkg/config"
	"github.com/noah-isme/med-schedule-api/pkg/database"
	"github.com/noah-isme/med-schedule-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/med-schedule-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/med-schedule-api/pkg/middleware/requestid"
)

// @title Medical Faculty Schedule API
// @version 1.0.0
// @description Academic scheduling backend with cross-resource conflict detection
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The engine degrades to direct roster queries without Redis.
		logr.Sugar().Warnw("redis unavailable, group member cache disabled", "error", err)
		redisClient = nil
	}

	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	entryRepo := repository.NewScheduleEntryRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	instructorRepo := repository.NewInstructorRepository(db)
	groupRepo := repository.NewStudentGroupRepository(db, cacheRepo, cfg.Scheduling.GroupMemberCacheTTL, logr)

	metricsSvc := service.NewMetricsService()
	tokenSvc := service.NewTokenService(cfg.JWT.Secret)
	schedulingSvc := service.NewSchedulingService(entryRepo, roomRepo, instructorRepo, groupRepo, metricsSvc, nil, logr)
	catalogSvc := service.NewCatalogService(roomRepo, groupRepo, logr)

	scheduleHandler := handler.NewScheduleEntryHandler(schedulingSvc)
	roomHandler := handler.NewRoomHandler(catalogSvc)
	groupHandler := handler.NewStudentGroupHandler(catalogSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.Scheduling.RequireAuth {
		api.Use(middleware.JWT(tokenSvc))
	}

	api.GET("/schedules", scheduleHandler.List)
	api.POST("/schedules", scheduleHandler.Create)
	api.GET("/schedules/:id", scheduleHandler.Get)
	api.PUT("/schedules/:id", scheduleHandler.Update)
	api.PATCH("/schedules/:id/confirmation", scheduleHandler.ConfirmStatus)
	api.DELETE("/schedules/:id", scheduleHandler.Delete)

	api.GET("/rooms", roomHandler.List)
	api.GET("/rooms/:id", roomHandler.Get)

	api.GET("/student-groups", groupHandler.List)
	api.GET("/student-groups/:id", groupHandler.Get)
	api.GET("/student-groups/:id/members", groupHandler.Members)
	api.DELETE("/student-groups/:id/members/cache", groupHandler.InvalidateMembers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
