package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mallpay-be/internal/config"
	"mallpay-be/internal/db"
	"mallpay-be/internal/lifecycle"
	"mallpay-be/internal/logger"
	"mallpay-be/internal/middleware"
	"mallpay-be/internal/notify"
	"mallpay-be/internal/payment"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	database, err := db.NewDatabase(cfg)
	if err != nil {
		log.Fatal("connecting to database", zap.Error(err))
	}
	defer database.Close()

	store := lifecycle.NewStore(database)
	tracker := lifecycle.NewService(store)

	gateway := payment.NewWechatGateway(payment.Credentials{
		AppID:     cfg.PayAppID,
		MchID:     cfg.PayMchID,
		APIKey:    cfg.PayAPIKey,
		NotifyURL: cfg.PayNotifyURL,
		BaseURL:   cfg.PayBaseURL,
	}, cfg.PaySandbox)

	reconciler := lifecycle.NewReconciler(gateway, tracker, store, 30*time.Second, time.Minute)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reconciler.Run(ctx)

	notifyHandler := notify.NewHandler(cfg.PayAPIKey, tracker)

	mux := http.NewServeMux()
	mux.Handle("/notify/payment", http.HandlerFunc(notifyHandler.PaymentNotify))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := middleware.RateLimitMiddleware(
		logger.RequestIDMiddleware(
			logger.LoggingMiddleware(mux),
		),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: handler,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	log.Info("server listening", zap.String("port", cfg.AppPort), zap.Bool("sandbox", cfg.PaySandbox))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("server stopped", zap.Error(err))
	}
}
