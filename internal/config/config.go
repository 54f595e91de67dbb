package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит конфигурацию сервера.
type Config struct {
	// Настройки сервера
	Port        string `envconfig:"SERVER_PORT" default:"8080"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`

	// Настройки PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" required:"true"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" required:"true"`
	DBName        string        `envconfig:"DB_NAME" required:"true"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Секретное поле БЕЗ envconfig тега
	DBPassword string

	// Настройки Redis (хранилище токенов)
	RedisAddr string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB   int    `envconfig:"REDIS_DB" default:"0"`
	// Секретное поле БЕЗ envconfig тега
	RedisPassword string

	// Настройки JWT
	AccessTokenTTL  time.Duration `envconfig:"ACCESS_TOKEN_TTL" default:"15m"`
	RefreshTokenTTL time.Duration `envconfig:"REFRESH_TOKEN_TTL" default:"168h"`
	// Секретные поля БЕЗ envconfig тега
	JWTSecret      string
	PasswordPepper string

	// Игровые настройки
	StartingDiamonds  int           `envconfig:"STARTING_DIAMONDS" default:"50"`
	MaxLoginAttempts  int           `envconfig:"MAX_LOGIN_ATTEMPTS" default:"5"`
	LoginLockDuration time.Duration `envconfig:"LOGIN_LOCK_DURATION" default:"15m"`
}

// GetDSN возвращает строку подключения (DSN) для PostgreSQL.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LoadConfig загружает конфигурацию из переменных окружения и секретов.
func LoadConfig() (*Config, error) {
	var cfg Config
	// Загружаем НЕсекретные переменные
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	// Загружаем ОБЯЗАТЕЛЬНЫЕ секреты
	var loadErr error
	cfg.DBPassword, loadErr = readSecret("db_password")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.JWTSecret, loadErr = readSecret("jwt_secret")
	if loadErr != nil {
		return nil, loadErr
	}
	cfg.PasswordPepper, loadErr = readSecret("password_pepper")
	if loadErr != nil {
		return nil, loadErr
	}

	// Пароль Redis необязателен (локальная разработка без пароля)
	cfg.RedisPassword, _ = readSecret("redis_password")

	log.Printf("Конфигурация загружена (секреты из файлов):")
	log.Printf("  Port: %s", cfg.Port)
	log.Printf("  LogLevel: %s", cfg.LogLevel)
	log.Printf("  DB DSN: postgres://%s:***@%s:%s/%s?sslmode=%s", cfg.DBUser, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBSSLMode)
	log.Printf("  Redis Addr: %s", cfg.RedisAddr)
	log.Printf("  Access Token TTL: %v", cfg.AccessTokenTTL)
	log.Printf("  Starting Diamonds: %d", cfg.StartingDiamonds)
	log.Println("  JWT Secret: [ЗАГРУЖЕН]")

	return &cfg, nil
}

// readSecret читает секрет из файла в стандартном пути Docker Secrets.
func readSecret(secretName string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read secret file %s: %w", filePath, err)
	}
	secret := strings.TrimSpace(string(secretBytes))
	if secret == "" {
		return "", fmt.Errorf("secret file %s is empty", filePath)
	}
	return secret, nil
}
