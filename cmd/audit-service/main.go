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

	"payguard/internal/audit"
	"payguard/internal/config"
	"payguard/internal/event"
	"payguard/internal/fraud"
	"payguard/pkg/middleware"
)

func main() {
	cfg := config.LoadAudit()

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

	repo := audit.NewPostgresRepository(dbpool)
	recorder := audit.NewRecorder(repo)
	h := audit.NewHandler(recorder, publisher)
	auth := middleware.NewAuthMiddleware(cfg.JWTSecret)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The recorder replays from the oldest offsets so a fresh deployment
	// backfills; the fraud group only cares about live alerts.
	auditConsumer, err := event.NewConsumer(
		cfg.KafkaBrokers,
		"audit-archiver-group",
		[]string{event.TopicAuditLogs, event.TopicOtpValidated},
		true,
		recorder.HandleMessage,
	)
	if err != nil {
		log.Fatalf("failed to create audit consumer: %v", err)
	}
	defer auditConsumer.Close()

	hub := fraud.NewHub()
	go hub.Run()

	broadcaster := fraud.NewBroadcaster(hub)
	fraudConsumer, err := event.NewConsumer(
		cfg.KafkaBrokers,
		"fraud-websocket-broadcaster",
		[]string{event.TopicAuditLogs},
		false,
		broadcaster.HandleMessage,
	)
	if err != nil {
		log.Fatalf("failed to create fraud consumer: %v", err)
	}
	defer fraudConsumer.Close()

	go func() {
		if err := auditConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("audit consumer stopped: %v", err)
		}
	}()
	go func() {
		if err := fraudConsumer.Start(ctx); err != nil && ctx.Err() == nil {
			log.Printf("fraud consumer stopped: %v", err)
		}
	}()

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
		g.Get("/audit", h.List)
		g.Get("/audit/recent-fraud", h.RecentFraud)
		g.Post("/audit/log", h.LogClientEvent)
		g.Get("/ws/fraud", func(w http.ResponseWriter, req *http.Request) {
			fraud.ServeWS(hub, w, req)
		})
	})

	srv := &http.Server{
		Addr:        cfg.HTTPAddr,
		Handler:     r,
		ReadTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Audit service listening on %s", cfg.HTTPAddr)
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
