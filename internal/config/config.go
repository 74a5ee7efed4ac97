package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port           string
	DBDriver       string // sqlite | pgx
	DBDSN          string
	ImagesDir      string
	UploadsDir     string
	LogFile        string
	BaseURL        string
	LogoPath       string
	WhatsAppNumber string
	AdminTokenHash string
	StoreTimeout   time.Duration
	BodyLimit      int
	CheckoutRate   int
	SeedDemo       bool
}

func Load() Config {
	cfg := Config{
		Port:           env("PORT", "8080"),
		DBDriver:       strings.ToLower(env("DB_DRIVER", "sqlite")),
		DBDSN:          env("DB_DSN", "storefront.db"), // sqlite file in project root
		ImagesDir:      env("IMAGES_DIR", "./img/productos"),
		UploadsDir:     env("UPLOADS_DIR", "./uploads"),
		BaseURL:        strings.TrimRight(os.Getenv("BASE_URL"), "/"),
		LogoPath:       env("LOGO_PATH", "./img/productos/logo.jpg"),
		WhatsAppNumber: os.Getenv("WHATSAPP_NUMBER"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),
		StoreTimeout:   envDuration("STORE_TIMEOUT", 5*time.Second),
		BodyLimit:      envInt("BODY_LIMIT", 8<<20),
		CheckoutRate:   envInt("CHECKOUT_RATE", 30),
		SeedDemo:       envBool("SEED_DEMO", true),
	}
	// LOG_FILE="" explicitly disables the file sink
	if v, ok := os.LookupEnv("LOG_FILE"); ok {
		cfg.LogFile = v
	} else {
		cfg.LogFile = "./storefront.log"
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s IMAGES_DIR=%s UPLOADS_DIR=%s LOG_FILE=%s STORE_TIMEOUT=%s ADMIN_AUTH=%t",
		cfg.Port, cfg.DBDriver, cfg.ImagesDir, cfg.UploadsDir, cfg.LogFile, cfg.StoreTimeout, cfg.AdminTokenHash != "")
	return cfg
}

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envBool(key string, def bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(os.Getenv(key)))
	if err != nil || d <= 0 {
		return def
	}
	return d
}
