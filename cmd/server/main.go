package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"love-sim-server/internal/config"
	"love-sim-server/internal/handler"
	custommw "love-sim-server/internal/middleware"
	"love-sim-server/internal/repository"
	"love-sim-server/internal/service"
	"love-sim-server/migrations"
	"love-sim-server/pkg/logger"
	"love-sim-server/pkg/migration"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка загрузки конфигурации: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.LogLevel,
		Encoding: cfg.LogEncoding,
	})
	if err != nil {
		log.Fatalf("Не удалось инициализировать логгер: %v", err)
	}
	defer zapLogger.Sync()
	zapLogger.Info("Logger initialized", zap.String("logLevel", cfg.LogLevel))

	dbPool, err := setupDatabase(cfg)
	if err != nil {
		zapLogger.Fatal("Не удалось подключиться к PostgreSQL", zap.Error(err))
	}
	defer dbPool.Close()
	zapLogger.Info("Успешное подключение к PostgreSQL")

	migrator := migration.NewMigrator(migration.Config{
		MigrationsPath: ".",
		MigrationsFS:   migrations.FS,
	}, dbPool)
	if err := migrator.Up(context.Background()); err != nil {
		zapLogger.Fatal("Не удалось применить миграции", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			zapLogger.Fatal("Не удалось подключиться к Redis", zap.Error(err))
		}
	}
	zapLogger.Info("Успешное подключение к Redis")

	// Репозитории
	userRepo := repository.NewPgUserRepository(dbPool, zapLogger)
	storyRepo := repository.NewPgStoryRepository(dbPool, zapLogger)
	saveRepo := repository.NewPgSaveStateRepository(dbPool, zapLogger)
	historyRepo := repository.NewPgChoiceHistoryRepository(dbPool, zapLogger)
	economyRepo := repository.NewPgEconomyRepository(dbPool, zapLogger)
	tokenRepo := repository.NewRedisTokenRepository(redisClient, zapLogger)
	txRunner := repository.NewTxRunner(dbPool, zapLogger)

	// Сервисы
	authService := service.NewAuthService(userRepo, tokenRepo, cfg, zapLogger)
	gameService := service.NewGameService(dbPool, txRunner, userRepo, storyRepo, saveRepo, historyRepo, economyRepo, zapLogger)
	storyService := service.NewStoryService(dbPool, txRunner, storyRepo, zapLogger)
	economyService := service.NewEconomyService(dbPool, txRunner, userRepo, storyRepo, saveRepo, historyRepo, economyRepo, zapLogger)

	h := handler.NewHandler(authService, gameService, storyService, economyService, zapLogger)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewCustomValidator()
	e.Use(custommw.RequestLogger(zapLogger))
	e.Use(echomw.Recover())

	h.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Ошибка запуска HTTP сервера", zap.Error(err))
		}
	}()
	zapLogger.Info("Сервер запущен", zap.String("port", cfg.Port))

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Получен сигнал завершения, останавливаем сервер")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		zapLogger.Error("Ошибка при остановке HTTP сервера", zap.Error(err))
	}
	zapLogger.Info("Сервер остановлен")
}

// setupDatabase создает пул соединений с PostgreSQL и проверяет его.
func setupDatabase(cfg *config.Config) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("ошибка парсинга DSN: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.DBMaxConns)
	poolConfig.MaxConnIdleTime = cfg.DBIdleTimeout

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("не удалось создать пул соединений: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("не удалось подключиться к БД: %w", err)
	}
	return pool, nil
}
