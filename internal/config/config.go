package config

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/printery/storefront/internal/models"
)

type Config struct {
	DatabaseURL string
	ServerPort  string
	LogLevel    string

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string

	FulfillmentURL                string
	FulfillmentAPIKey             string
	FulfillmentTestMode           bool
	FulfillmentPlaceholderSKU     string
	FulfillmentNeedsCustomization bool

	StripeAPIURL string
}

func must(v string, name string) string {
	if v == "" {
		log.Fatalf("missing required env %s", name)
	}
	return v
}

func envBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Fatalf("invalid bool for env %s: %q", name, v)
	}
	return b
}

func envDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		DatabaseURL: must(os.Getenv("DATABASE_URL"), "DATABASE_URL"),
		ServerPort:  envDefault("SERVER_PORT", "8080"),
		LogLevel:    envDefault("LOG_LEVEL", "info"),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		FulfillmentURL:                must(os.Getenv("FULFILLMENT_URL"), "FULFILLMENT_URL"),
		FulfillmentAPIKey:             os.Getenv("FULFILLMENT_API_KEY"),
		FulfillmentTestMode:           envBool("FULFILLMENT_TEST_MODE", true),
		FulfillmentPlaceholderSKU:     envDefault("FULFILLMENT_PLACEHOLDER_SKU", "PlaceholderSKU"),
		FulfillmentNeedsCustomization: envBool("FULFILLMENT_NEEDS_CUSTOMIZATION", true),

		StripeAPIURL: os.Getenv("STRIPE_API_URL"),
	}

	if addr := os.Getenv("KAFKA_ADDRESS"); addr != "" {
		cfg.KafkaBrokers = strings.Split(addr, ",")
	}

	return cfg
}

func configurePool(sqlDB *sql.DB) {
	const (
		maxOpenConns    = 20
		maxIdleConns    = 10
		connMaxLifetime = 30 * time.Minute
		connMaxIdleTime = 5 * time.Minute
	)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)
}

func InitDB(ctx context.Context, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("DATABASE_URL is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		NowFunc:     func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("unwrap sql.DB: %w", err)
	}
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := db.AutoMigrate(&models.Cart{}, &models.CartItem{}, &models.Product{}, &models.Order{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}
