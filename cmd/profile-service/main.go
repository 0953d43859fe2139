package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"payguard/internal/config"
	"payguard/internal/event"
	"payguard/internal/ledger"
	"payguard/internal/ledger/otpclient"
	"payguard/pkg/middleware"
)

func main() {
	cfg := config.LoadProfile()

	dbpool, err := pgxpool.New(context.Background(), cfg.DBConnString)
	if err != nil {
		log.Fatalf("connect db: %v", err)
	}
	defer dbpool.Close()

	publisher, err := event.NewKafkaPublisher(cfg.KafkaBrokers)
	if err != nil {
		log.Fatalf("failed to create Kafka publisher: %v", err)
	}
	defer publisher.Close()

	repo := ledger.NewPostgresRepository(dbpool)
	otpCli := otpclient.NewClient(cfg.OtpServiceURL)
	uc := ledger.NewUsecase(repo, otpCli, otpCli, publisher)
	h := ledger.NewHandler(uc)
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := ledger.NewSweeper(repo, publisher, cfg.SweepInterval, cfg.SweepWindow)
	go sweeper.Run(ctx)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Handle("/metrics", promhttp.Handler())
	r.Group(func(g chi.Router) {
		g.Use(auth.Require)
		g.Post("/profile/initiate-update", h.InitiateUpdate)
		g.Post("/profile/finalize-update", h.FinalizeUpdate)
		g.Post("/profile/resend-otp", h.ResendOtp)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Profile service listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	cancel()
	_ = srv.Close()
}
