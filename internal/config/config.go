package config

import (
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// password=secret, password='s e c' and password = secret in key=value DSNs
// or URL query strings.
var rePassword = regexp.MustCompile(`(?i)(password\s*=\s*)('(?:[^'\\]|\\.)*'|[^\s&]*)`)

type Config struct {
	Port         string
	DBDriver     string
	DBDSN        string
	LogFile      string
	TemplatesDir string
	JWTSecret    string
	SessionTTL   time.Duration
	PaymentDelay time.Duration
	SeedDemo     bool
	ResetOutbox  string // file receiving password reset links; empty logs a reference only
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file, using process environment")
	}

	cfg := Config{
		Port:         getEnv("PORT", "8080"),
		DBDriver:     getEnv("DB_DRIVER", "sqlite"),
		DBDSN:        getEnv("DB_DSN", "staybook.db"), // sqlite file in project root
		LogFile:      os.Getenv("LOG_FILE"),
		TemplatesDir: getEnv("TEMPLATES_DIR", "./web/templates"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		SessionTTL:   getDuration("SESSION_TTL", 24*time.Hour),
		PaymentDelay: getDuration("PAYMENT_DELAY", 1500*time.Millisecond),
		SeedDemo:     getBool("SEED_DEMO", true),
		ResetOutbox:  os.Getenv("RESET_OUTBOX"),
	}
	if cfg.JWTSecret == "" {
		log.Printf("[warn] JWT_SECRET not set; using an insecure development secret")
		cfg.JWTSecret = "dev-only-secret"
	}

	log.Printf("[config] PORT=%s DB_DRIVER=%s DB_DSN=%s LOG_FILE=%s TEMPLATES_DIR=%s SESSION_TTL=%s PAYMENT_DELAY=%s SEED_DEMO=%t RESET_OUTBOX=%s",
		cfg.Port, cfg.DBDriver, RedactDSN(cfg.DBDSN), cfg.LogFile, cfg.TemplatesDir, cfg.SessionTTL, cfg.PaymentDelay, cfg.SeedDemo, cfg.ResetOutbox)
	return cfg
}

// RedactDSN hides the credentials of a URL-style DSN and any password=
// setting of a key=value DSN.
func RedactDSN(dsn string) string {
	if start := strings.Index(dsn, "://"); start >= 0 {
		start += len("://")
		authority := dsn[start:]
		if slash := strings.IndexAny(authority, "/?"); slash >= 0 {
			authority = authority[:slash]
		}
		if end := strings.LastIndex(authority, "@"); end >= 0 {
			dsn = dsn[:start] + "***" + dsn[start+end:]
		}
	}
	return rePassword.ReplaceAllString(dsn, "${1}***")
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("[warn] bad %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[warn] bad %s=%q, using %t", key, v, def)
		return def
	}
	return b
}
