package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the API and supporting services.
type Config struct {
	ListenAddr string
	LogLevel   string

	MySQLDSN string

	JWTSecret string
	JWTIssuer string
	JWTTTL    time.Duration

	GeminiAPIKey      string
	GeminiImageModel  string
	GeminiTextModel   string
	GenerationTimeout time.Duration
	DiscoveryCount    int

	CatalogRefreshInterval time.Duration
	GuestRestoreTTL        time.Duration

	PaymentCurrency          string
	PaymentPriceMinorUnits   int
	PaymentCreditsPerPackage int
	PromoBonusCredits        int

	CashfreeBaseURL      string
	CashfreeClientID     string
	CashfreeClientSecret string

	AdminUsername string
	AdminPassword string

	S3Endpoint      string
	S3Region        string
	S3AccessKey     string
	S3SecretKey     string
	S3Bucket        string
	S3PublicBaseURL string
	S3UsePathStyle  bool
	S3Prefix        string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	loadEnvFile()

	cfg := Config{
		ListenAddr: getEnv("LISTEN_ADDR", ":8080"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		JWTIssuer: getEnv("JWT_ISSUER", "posterme"),
		JWTTTL:    time.Minute * time.Duration(getInt("JWT_TTL_MINUTES", 1440)),

		GeminiImageModel:  getEnv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
		GeminiTextModel:   getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GenerationTimeout: time.Second * time.Duration(getInt("GENERATION_TIMEOUT_SECONDS", 120)),
		DiscoveryCount:    getInt("DISCOVERY_SUGGESTION_COUNT", 3),

		CatalogRefreshInterval: time.Second * time.Duration(getInt("CATALOG_REFRESH_SECONDS", 300)),
		GuestRestoreTTL:        time.Minute * time.Duration(getInt("GUEST_RESTORE_TTL_MINUTES", 10)),

		PaymentCurrency:          getEnv("PAYMENT_CURRENCY", "INR"),
		PaymentPriceMinorUnits:   getInt("PAYMENT_PRICE_MINOR_UNITS", 19900),
		PaymentCreditsPerPackage: getInt("PAYMENT_CREDITS_PER_PACKAGE", 5),
		PromoBonusCredits:        getInt("PROMO_BONUS_CREDITS", 5),

		CashfreeBaseURL: getEnv("CASHFREE_BASE_URL", "https://api.cashfree.com"),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "change-me"),

		S3Endpoint:      getEnv("S3_ENDPOINT", ""),
		S3Region:        os.Getenv("S3_REGION"),
		S3AccessKey:     os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:     os.Getenv("S3_SECRET_KEY"),
		S3Bucket:        os.Getenv("S3_BUCKET"),
		S3PublicBaseURL: os.Getenv("S3_PUBLIC_BASE_URL"),
		S3UsePathStyle:  getBool("S3_USE_PATH_STYLE", false),
		S3Prefix:        getEnv("S3_PREFIX", "posterme"),
	}

	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.CashfreeClientID = os.Getenv("CASHFREE_CLIENT_ID")
	cfg.CashfreeClientSecret = os.Getenv("CASHFREE_CLIENT_SECRET")

	var missing []string
	if cfg.MySQLDSN == "" {
		missing = append(missing, "MYSQL_DSN")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if cfg.GeminiAPIKey == "" {
		missing = append(missing, "GEMINI_API_KEY")
	}
	if cfg.CashfreeClientID == "" {
		missing = append(missing, "CASHFREE_CLIENT_ID")
	}
	if cfg.CashfreeClientSecret == "" {
		missing = append(missing, "CASHFREE_CLIENT_SECRET")
	}
	if cfg.S3Region == "" {
		missing = append(missing, "S3_REGION")
	}
	if cfg.S3AccessKey == "" {
		missing = append(missing, "S3_ACCESS_KEY")
	}
	if cfg.S3SecretKey == "" {
		missing = append(missing, "S3_SECRET_KEY")
	}
	if cfg.S3Bucket == "" {
		missing = append(missing, "S3_BUCKET")
	}
	if cfg.S3PublicBaseURL == "" {
		missing = append(missing, "S3_PUBLIC_BASE_URL")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

// loadEnvFile loads the first .env found; absence is not an error so the
// service can run on pure environment configuration in containers.
func loadEnvFile() {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates, filepath.Join("configs", ".env"), ".env")

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			continue
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err == nil {
			return
		}
	}
}
