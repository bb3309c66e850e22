package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/yourusername/contest-tracker-api/internal/config"
	pgRepo "github.com/yourusername/contest-tracker-api/internal/repository/postgres"
	"github.com/yourusername/contest-tracker-api/internal/service/importer"
	"github.com/yourusername/contest-tracker-api/pkg/database"
)

// Разовый ручной запуск полного цикла импорта контестов.
// Полезен для первоначального наполнения базы без запуска API-сервера.
func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	contestRepo := pgRepo.NewContestRepo(db)
	reconciler := importer.NewReconciler(contestRepo)

	httpClient := &http.Client{Timeout: cfg.Importer.HTTPTimeout()}
	sources := []importer.Source{
		importer.NewCodeforcesSource(httpClient, cfg.Importer.CodeforcesURL),
		importer.NewAtCoderSource(httpClient, cfg.Importer.AtCoderURL),
		importer.NewLeetCodeSource(httpClient, cfg.Importer.LeetCodeURL),
	}

	scheduler := importer.NewScheduler(sources, reconciler, cfg.Importer.Interval())
	reports := scheduler.RunCycle(context.Background())

	total := 0
	for _, report := range reports {
		total += report.Created
	}
	log.Printf("Импорт завершён: %d источников успешно, создано %d контестов", len(reports), total)
}
