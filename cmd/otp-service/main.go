package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"payguard/internal/config"
	"payguard/internal/event"
	"payguard/internal/otp"
	"payguard/pkg/middleware"
)

func main() {
	cfg := config.LoadOTP()

	publisher, err := event.NewKafkaPublisher(cfg.KafkaBrokers)
	if err != nil {
		log.Fatalf("failed to create Kafka publisher: %v", err)
	}
	defer publisher.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})
	defer rdb.Close()
	relay := event.NewOtpRelay(rdb)

	store := otp.NewMemoryStore()
	svc := otp.NewService(store, publisher, relay, cfg.OtpTTL)
	h := otp.NewHandler(svc)
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)

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
		g.Post("/otp/request", h.RequestOtp)
		g.Post("/otp/verify", h.VerifyOtp)
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("OTP service listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")
	_ = srv.Close()
}
