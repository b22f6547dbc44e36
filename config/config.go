package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	Port           string
	AllowedOrigins string

	// Exactly one auth source is used; the JWT secret wins when both are set.
	AuthServiceURL   string
	AuthServiceToken string
	AuthJWTSecret    string

	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2Bucket          string
	CDNBaseURL        string

	UploadDir       string
	PublicBaseURL   string
	SeedCatalog     bool
	PublishInterval time.Duration
}

// Load reads .env (if present) and the process environment.
func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	cfg := Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		Port:              getenv("PORT", "5200"),
		AllowedOrigins:    origins(getenv("ALLOWED_ORIGINS", "http://localhost:3000")),
		AuthServiceURL:    os.Getenv("AUTH_SERVICE_URL"),
		AuthServiceToken:  os.Getenv("AUTH_SERVICE_TOKEN"),
		AuthJWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
		R2AccountID:       os.Getenv("CLOUDFLARE_ACCOUNT_ID"),
		R2AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		R2AccessKeySecret: os.Getenv("R2_ACCESS_KEY_SECRET"),
		R2Bucket:          os.Getenv("R2_BUCKET_NAME"),
		CDNBaseURL:        os.Getenv("CDN_BASE_URL"),
		UploadDir:         getenv("UPLOAD_DIR", "uploads"),
		PublicBaseURL:     getenv("PUBLIC_BASE_URL", "http://localhost:5200"),
		PublishInterval:   time.Minute,
	}

	cfg.SeedCatalog, _ = strconv.ParseBool(os.Getenv("SEED_CATALOG"))

	if raw := os.Getenv("PUBLISH_INTERVAL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.Printf("⚠️  Invalid PUBLISH_INTERVAL %q, using %s", raw, cfg.PublishInterval)
		} else {
			cfg.PublishInterval = d
		}
	}
	return cfg
}

// R2Enabled reports whether image uploads go to R2 rather than local disk.
func (c Config) R2Enabled() bool {
	return c.R2AccountID != "" && c.R2Bucket != ""
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// origins normalizes a comma-separated origin list for fiber's CORS config.
func origins(raw string) string {
	list := strings.Split(raw, ",")
	for i, o := range list {
		list[i] = strings.TrimSpace(o)
	}
	return strings.Join(list, ",")
}
