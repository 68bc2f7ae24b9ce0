package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	slackapi "github.com/slack-go/slack"

	"example.com/gtm/internal/api"
	"example.com/gtm/internal/config"
	"example.com/gtm/internal/domain"
	"example.com/gtm/internal/outbox"
	persistence "example.com/gtm/internal/persistence/postgres"
	slackhooks "example.com/gtm/internal/slack"
	httptransport "example.com/gtm/internal/transport/http"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewRepository(pool)
	service := domain.NewService(repo, cfg.ListMaxLimit)

	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	defer producer.Close()

	dispatcher := outbox.NewDispatcher(pool, producer, cfg.OutboxPollInterval, cfg.OutboxBatchSize)
	go dispatcher.Start(ctx)

	var (
		notifier    *slackhooks.Notifier
		modals      slackhooks.ModalOpener
		apiNotifier api.Notifier
	)
	if cfg.SlackBotToken != "" {
		client := slackapi.New(cfg.SlackBotToken)
		notifier = slackhooks.NewNotifier(client, cfg.NotificationChannel)
		modals = client
		apiNotifier = notifier
	}

	verifier := slackhooks.NewVerifier(cfg.SlackSigningSecret)
	if cfg.SlackSigningSecret == "" {
		log.Printf("warning: SLACK_SIGNING_SECRET unset, webhook signature verification disabled")
	}

	commander := slackhooks.NewCommander(service, notifier, modals)
	interactor := slackhooks.NewInteractor(service, modals)
	slackHandler := slackhooks.NewHandler(commander, interactor, verifier)

	apiHandler := api.NewHandler(service, apiNotifier)

	mux := http.NewServeMux()
	apiHandler.RegisterRoutes(mux)
	slackHandler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:      cfg.HTTPAddress,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, httptransport.RequestLogger(httptransport.CORS(mux)))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("gtm-tracker listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	dispatcher.Wait()
}
