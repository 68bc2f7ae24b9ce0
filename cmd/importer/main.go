package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"example.com/gtm/internal/config"
	"example.com/gtm/internal/domain"
	"example.com/gtm/internal/importer"
	persistence "example.com/gtm/internal/persistence/postgres"
)

func main() {
	csvPath := flag.String("csv", "data/table.csv", "path to the delimited export")
	dataDir := flag.String("data-dir", "data", "directory holding companion markdown documents")
	timeout := flag.Duration("timeout", 5*time.Minute, "overall import deadline")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	service := domain.NewService(persistence.NewRepository(pool), cfg.ListMaxLimit)

	count, err := importer.New(service, *dataDir).ImportCSV(ctx, *csvPath)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Printf("imported %d activities", count)
}
