package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/yourusername/contest-tracker-api/internal/config"
	"github.com/yourusername/contest-tracker-api/internal/handler"
	"github.com/yourusername/contest-tracker-api/internal/middleware"
	pgRepo "github.com/yourusername/contest-tracker-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/contest-tracker-api/internal/repository/redis"
	"github.com/yourusername/contest-tracker-api/internal/service"
	"github.com/yourusername/contest-tracker-api/internal/service/importer"
	"github.com/yourusername/contest-tracker-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis с использованием унифицированной конфигурации
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	contestRepo := pgRepo.NewContestRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем сервисы
	contestService := service.NewContestService(contestRepo, cacheRepo)

	// Инициализируем обработчики
	contestHandler := handler.NewContestHandler(contestService)

	// Инициализируем middleware
	rateLimiter := middleware.NewRateLimiter(redisClient)
	writeLimit := rateLimiter.Limit(middleware.DefaultWriteRateLimitConfig())

	// Создаем контекст с отменой для корректного завершения фоновых горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Инициализация планировщика импорта ---
	httpClient := &http.Client{Timeout: cfg.Importer.HTTPTimeout()}
	sources := []importer.Source{
		importer.NewCodeforcesSource(httpClient, cfg.Importer.CodeforcesURL),
		importer.NewAtCoderSource(httpClient, cfg.Importer.AtCoderURL),
		importer.NewLeetCodeSource(httpClient, cfg.Importer.LeetCodeURL),
	}
	reconciler := importer.NewReconciler(contestRepo)
	importScheduler := importer.NewScheduler(sources, reconciler, cfg.Importer.Interval())

	if cfg.Importer.Enabled {
		importScheduler.Start(ctx)
	} else {
		log.Println("Периодический импорт контестов отключен конфигурацией")
	}

	isProduction := gin.Mode() == gin.ReleaseMode

	// Инициализируем роутер Gin
	router := gin.Default()

	// Настройка доверенных прокси для корректной работы c.ClientIP()
	// В production (GIN_MODE=release): не доверяем прокси (защита от IP spoofing)
	// В development: доверяем localhost
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS: в release разрешён только продовый фронтенд,
	// в debug — локальные dev-серверы
	allowOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if isProduction {
		allowOrigins = []string{"https://contesttracker.vercel.app"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Настраиваем маршруты API
	api := router.Group("/api")
	{
		api.GET("/health", contestHandler.Health)

		contests := api.Group("/contests")
		{
			contests.GET("", contestHandler.ListContests)
			contests.GET("/upcoming", contestHandler.ListUpcoming)
			contests.GET("/past", contestHandler.ListPast)
			contests.GET("/stats/summary", contestHandler.GetStatsSummary)
			contests.GET("/export", contestHandler.ExportContests)

			contests.POST("", writeLimit, contestHandler.CreateContest)

			// Группа маршрутов, требующих contestID
			contestWithID := contests.Group("/:id")
			contestWithID.Use(middleware.ExtractUintParam("id", "contestID")) // Применяем middleware
			{
				contestWithID.GET("", contestHandler.GetContest)
				contestWithID.PUT("", writeLimit, contestHandler.UpdateContest)
				contestWithID.PUT("/mark-done", writeLimit, contestHandler.MarkDone)
				contestWithID.PUT("/mark-skipped", writeLimit, contestHandler.MarkSkipped)
				contestWithID.PUT("/reset", writeLimit, contestHandler.ResetContest)
				contestWithID.DELETE("", writeLimit, contestHandler.DeleteContest)
			}
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	log.Printf("Server started on port %s", cfg.Server.Port)

	// После получения сигнала SIGINT или SIGTERM останавливаем фоновые горутины
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем планировщик импорта и дожидаемся завершения текущего цикла
	importScheduler.Stop()

	// Отправляем сигнал завершения для остальных горутин
	cancel()

	// Создаем контекст с таймаутом для graceful shutdown сервера
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	log.Println("Server exited properly")
}
