package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tidycrm/config"
	"tidycrm/database"
	bookingRepo "tidycrm/database/repository/booking"
	historyRepo "tidycrm/database/repository/history"
	tierRepo "tidycrm/database/repository/tier"
	"tidycrm/handlers"
	"tidycrm/middleware"
	"tidycrm/routes"
	"tidycrm/services/booking"
	"tidycrm/services/events"
	"tidycrm/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Repositories. Group creation uses real transactions on replica-set
	// deployments; standalone mongo falls back to compensating deletes.
	bookings := bookingRepo.NewMongoBookingRepo(config.AppConfig.DatabaseName, config.AppConfig.MongoTransactions)
	tiers := tierRepo.NewMongoTierRepo(config.AppConfig.DatabaseName)
	if ttl := config.AppConfig.TierCacheTTL; ttl > 0 {
		tiers = tierRepo.NewCachedTierRepo(tiers, utils.GetCacheClient(), time.Duration(ttl)*time.Second)
	}
	history := historyRepo.NewMongoHistoryRepo(config.AppConfig.DatabaseName)

	if err := bookings.EnsureIndexes(context.Background()); err != nil {
		logger.Sugar().Fatalf("main: failed to create booking indexes: %v", err)
	}

	// Event publisher for the external notification worker.
	publisher := events.NewAsynqPublisher(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisEventQueueDB,
	}, logger)
	defer publisher.Close()

	// Services.
	pricingEngine := &booking.DefaultPricingEngine{
		Tiers:  tiers,
		Logger: logger,
	}
	conflictDetector := &booking.DefaultConflictDetector{
		Repo: bookings,
	}
	statusService := &booking.DefaultStatusService{
		Repo:        bookings,
		HistoryRepo: history,
		Events:      publisher,
		Logger:      logger,
	}
	groupManager := &booking.DefaultGroupManager{
		Repo:      bookings,
		Pricing:   pricingEngine,
		Conflicts: conflictDetector,
		Events:    publisher,
		Logger:    logger,
	}

	bookingHandler := handlers.NewBookingHandler(groupManager, statusService, pricingEngine, conflictDetector)
	routes.RegisterRoutes(router, bookingHandler)

	srv := &http.Server{
		Addr:    ":" + config.AppConfig.AppPort,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("main: listening on :%s", config.AppConfig.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("main: shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Errorf("main: forced shutdown: %v", err)
	}
}
