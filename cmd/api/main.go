package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/inkfest/inkfest-api/api/swagger"
	"github.com/inkfest/inkfest-api/internal/handler"
	"github.com/inkfest/inkfest-api/internal/middleware"
	"github.com/inkfest/inkfest-api/internal/models"
	"github.com/inkfest/inkfest-api/internal/repository"
	"github.com/inkfest/inkfest-api/internal/service"
	"github.com/inkfest/inkfest-api/pkg/cache"
	"github.com/inkfest/inkfest-api/pkg/config"
	"github.com/inkfest/inkfest-api/pkg/database"
	"github.com/inkfest/inkfest-api/pkg/jobs"
	"github.com/inkfest/inkfest-api/pkg/logger"
	corsmiddleware "github.com/inkfest/inkfest-api/pkg/middleware/cors"
	reqidmiddleware "github.com/inkfest/inkfest-api/pkg/middleware/requestid"
	"github.com/inkfest/inkfest-api/pkg/storage"
)

// @title Inkfest API
// @version 1.0.0
// @description Tattoo festival contest scoring and scheduling API
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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
		logr.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, results caching disabled", zap.Error(err))
		redisClient = nil
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	festivalRepo := repository.NewFestivalRepository(db)
	slotRepo := repository.NewSlotRepository(db)
	nominationRepo := repository.NewNominationRepository(db)
	participationRepo := repository.NewParticipationRepository(db)
	scoreRepo := repository.NewScoreRepository(db)
	winnerRepo := repository.NewWinnerRepository(db)
	exportRepo := repository.NewExportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})
	userService := service.NewUserService(userRepo, validate, logr)
	festivalService := service.NewFestivalService(festivalRepo, validate, logr)
	scheduleService := service.NewScheduleService(slotRepo, festivalRepo, nominationRepo, validate, logr)
	nominationService := service.NewNominationService(nominationRepo, validate, logr)
	contestService := service.NewContestService(slotRepo, participationRepo, userRepo, nominationRepo, scoreRepo, validate, logr)
	scoringService := service.NewScoringService(slotRepo, participationRepo, scoreRepo, nominationRepo, validate, logr, service.ScoringConfig{
		AutoStartOnAssignment: cfg.Scoring.AutoStartOnAssignment,
		EnforceStartTime:      cfg.Scoring.EnforceStartTime,
	})
	winnerService := service.NewWinnerService(winnerRepo, slotRepo, scoringService, validate, logr)
	resultsService := service.NewResultsService(slotRepo, participationRepo, winnerRepo, nominationRepo, scoringService, cacheRepo, logr, service.ResultsConfig{
		CacheTTL: cfg.Results.CacheTTL,
	})

	contestService.SetStatusEvaluator(scoringService)
	scoringService.SetMetrics(metricsService)
	scoringService.SetResultsInvalidator(resultsService)
	scoringService.SetCompletionListener(func(slot *models.TimeSlot) {
		logr.Info("contest ready for winner assignment",
			zap.String("slot_id", slot.ID),
			zap.String("category", string(slot.Judging.Category)))
	})
	winnerService.SetResultsInvalidator(resultsService)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exportService *service.ExportService
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewFileStore(cfg.Exports.StorageDir)
		if err != nil {
			logr.Fatal("failed to prepare export storage", zap.Error(err))
		}
		signer := storage.NewDownloadSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportService = service.NewExportService(exportRepo, resultsService, fileStore, signer, service.ExportConfig{
			APIPrefix: cfg.APIPrefix,
			ResultTTL: cfg.Exports.SignedURLTTL,
		}, validate, logr)
		exportQueue = jobs.NewQueue("exports", exportService.Handle, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		exportService.SetQueue(exportQueue)
		exportQueue.Start(ctx)
		defer exportQueue.Stop()

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportService.Cleanup(ctx)
				}
			}
		}()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	metricsHandler := handler.NewMetricsHandler(metricsService)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	registerRoutes(r.Group(cfg.APIPrefix), routeDeps{
		auth:       handler.NewAuthHandler(authService),
		users:      handler.NewUserHandler(userService),
		festivals:  handler.NewFestivalHandler(festivalService),
		schedule:   handler.NewScheduleHandler(scheduleService),
		nomination: handler.NewNominationHandler(nominationService),
		contests:   handler.NewContestHandler(contestService),
		scoring:    handler.NewScoringHandler(scoringService),
		winners:    handler.NewWinnerHandler(winnerService),
		results:    handler.NewResultsHandler(resultsService),
		exports:    exportServiceHandler(exportService),
		authSvc:    authService,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

type routeDeps struct {
	auth       *handler.AuthHandler
	users      *handler.UserHandler
	festivals  *handler.FestivalHandler
	schedule   *handler.ScheduleHandler
	nomination *handler.NominationHandler
	contests   *handler.ContestHandler
	scoring    *handler.ScoringHandler
	winners    *handler.WinnerHandler
	results    *handler.ResultsHandler
	exports    *handler.ExportHandler
	authSvc    *service.AuthService
}

func exportServiceHandler(svc *service.ExportService) *handler.ExportHandler {
	if svc == nil {
		return nil
	}
	return handler.NewExportHandler(svc)
}

func registerRoutes(api *gin.RouterGroup, deps routeDeps) {
	authRequired := middleware.JWT(deps.authSvc)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)
	judgeOnly := middleware.RequireRoles(models.RoleJudge)

	auth := api.Group("/auth")
	{
		auth.POST("/login", deps.auth.Login)
		auth.POST("/refresh", deps.auth.Refresh)
		auth.POST("/logout", authRequired, deps.auth.Logout)
		auth.GET("/me", authRequired, deps.auth.Me)
	}

	users := api.Group("/users", authRequired, adminOnly)
	{
		users.GET("", deps.users.List)
		users.POST("", deps.users.Create)
		users.GET("/:id", deps.users.Get)
		users.PUT("/:id", deps.users.Update)
		users.DELETE("/:id", deps.users.Delete)
	}

	festivals := api.Group("/festivals", authRequired)
	{
		festivals.GET("", deps.festivals.List)
		festivals.GET("/:id", deps.festivals.Get)
		festivals.GET("/:id/days", deps.festivals.Days)
		festivals.POST("", adminOnly, deps.festivals.Create)
		festivals.PUT("/:id", adminOnly, deps.festivals.Update)
		festivals.DELETE("/:id", adminOnly, deps.festivals.Delete)
	}

	slots := api.Group("/slots", authRequired)
	{
		slots.GET("", deps.schedule.List)
		slots.GET("/:id", deps.schedule.Get)
		slots.POST("", adminOnly, deps.schedule.Create)
		slots.PUT("/:id", adminOnly, deps.schedule.Update)
		slots.DELETE("/:id", adminOnly, deps.schedule.Delete)
	}

	nominations := api.Group("/nominations", authRequired)
	{
		nominations.GET("", deps.nomination.ListTemplates)
		nominations.GET("/:id", deps.nomination.GetTemplate)
		nominations.POST("", adminOnly, deps.nomination.CreateTemplate)
		nominations.PUT("/:id", adminOnly, deps.nomination.UpdateTemplate)
		nominations.DELETE("/:id", adminOnly, deps.nomination.DeleteTemplate)
	}

	criteria := api.Group("/criteria", authRequired)
	{
		criteria.GET("", deps.nomination.ListCriteria)
		criteria.POST("", adminOnly, deps.nomination.CreateCriterion)
		criteria.PUT("/:id", adminOnly, deps.nomination.UpdateCriterion)
		criteria.DELETE("/:id", adminOnly, deps.nomination.DeleteCriterion)
	}

	contests := api.Group("/contests", authRequired)
	{
		contests.GET("/:id/participants", deps.contests.Participants)
		contests.POST("/:id/participants", adminOnly, deps.contests.RegisterParticipant)
		contests.DELETE("/:id/participants/:participationId", adminOnly, deps.contests.RemoveParticipant)
		contests.GET("/:id/judges", deps.contests.Judges)
		contests.POST("/:id/judges", adminOnly, deps.contests.AssignJudge)
		contests.DELETE("/:id/judges/:judgeId", adminOnly, deps.contests.UnassignJudge)
		contests.GET("/:id/sheet", judgeOnly, deps.scoring.JudgeSheet)
		contests.GET("/:id/aggregates", deps.scoring.Aggregates)
		contests.POST("/:id/evaluate", adminOnly, deps.scoring.Evaluate)
		contests.GET("/:id/winners", deps.winners.List)
		contests.POST("/:id/winners", adminOnly, deps.winners.Assign)
	}

	scores := api.Group("/scores", authRequired, judgeOnly)
	{
		scores.POST("", deps.scoring.RecordScore)
		scores.POST("/sheet", deps.scoring.SubmitScores)
	}

	api.GET("/judges/me/workload", authRequired, judgeOnly, deps.contests.Workload)

	results := api.Group("/results", authRequired)
	{
		results.GET("", deps.results.Report)
		results.GET("/me", deps.results.MyScores)
	}

	if deps.exports != nil {
		exports := api.Group("/exports")
		{
			exports.GET("/download/:token", deps.exports.Download)
			exports.GET("", authRequired, adminOnly, deps.exports.List)
			exports.POST("", authRequired, adminOnly, deps.exports.Create)
			exports.GET("/:id", authRequired, adminOnly, deps.exports.Get)
		}
	}
}
