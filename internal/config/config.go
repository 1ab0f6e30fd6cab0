package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// OtpBackend selects the durable OTP store. The static file store is always
// available as a fallback regardless of this setting.
type OtpBackend string

const (
	OtpBackendNone  OtpBackend = "none" // file store only (demo mode)
	OtpBackendSQL   OtpBackend = "sql"
	OtpBackendRedis OtpBackend = "redis"
)

type Config struct {
	HTTPAddr  string
	PublicDir string // optional static dir for the widget page; "" disables

	QuizDir string // directory of <test_id>.json quiz definitions

	OtpBackend OtpBackend
	OtpFile    string // static OTP file (multi-use fallback)

	DBDriver string
	DBDSN    string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BlobBasePath string // filesystem blob store root

	AdminToken     string
	AdminTokenHash string // bcrypt; takes precedence over AdminToken

	StoreTimeout time.Duration // bound on every outbound store call

	CORSOrigins []string
}

func FromEnv() Config {
	return Config{
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicDir: os.Getenv("PUBLIC_DIR"),

		QuizDir: envOr("QUIZ_DIR", "./tests"),

		OtpBackend: OtpBackend(envOr("OTP_BACKEND", string(OtpBackendNone))),
		OtpFile:    envOr("OTP_FILE", "./tests/otps.json"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		AdminToken:     os.Getenv("ADMIN_TOKEN"),
		AdminTokenHash: os.Getenv("ADMIN_TOKEN_HASH"),

		StoreTimeout: envDuration("STORE_TIMEOUT", 5*time.Second),

		CORSOrigins: csvOr("CORS_ORIGINS", "http://localhost:3000"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envDuration(k string, def time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
