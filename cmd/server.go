package cmd

import (
	"context"
	"log"
	httpNet "net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"kimchi-arb/internal/delivery/http"
	"kimchi-arb/internal/repository"
	"kimchi-arb/internal/service"
	"kimchi-arb/pkg/logger"
	"kimchi-arb/pkg/middleware"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the backtest HTTP API",
	Run:   startServer,
}

func startServer(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appDep, err := NewAppDependency(ctx)
	if err != nil {
		log.Fatalf("Failed to create app dependency: %v", err)
	}

	repo := repository.NewRepository(appDep.cfg, appDep.log, appDep.cache)
	services := service.NewService(appDep.cfg, appDep.log, repo)

	appDep.echo.Use(middleware.NewRateLimiterMiddleware(appDep.cfg.API.MaxRequestPerMin))
	httpHandler := http.NewHttpAPIHandler(ctx, appDep.echo, appDep.validator, services)

	// Keep the USD/KRW rate warm so real-data requests never wait on
	// the forex API.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(appDep.cfg.ExchangeRate.RefreshSchedule, func() {
		if err := repo.ExchangeRateRepo.Refresh(ctx); err != nil {
			appDep.log.Warn("Scheduled exchange rate refresh failed", logger.ErrorField(err))
		}
	}); err != nil {
		appDep.log.Fatal("Invalid exchange rate refresh schedule", logger.ErrorField(err))
	}
	scheduler.Start()

	apiServer := NewHTTPServer(ctx, appDep, httpHandler)
	go func() {
		if err := apiServer.Start(); err != nil && err != httpNet.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	<-ctx.Done()
	appDep.log.Info("Shutting down gracefully")

	<-scheduler.Stop().Done()

	if err := apiServer.Stop(); err != nil {
		log.Fatalf("Failed to stop HTTP server: %v", err)
	}

	if err := appDep.Close(); err != nil {
		log.Fatalf("Failed to close app dependency: %v", err)
	}
}
