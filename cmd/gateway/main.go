package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	api "github.com/quizgate/quizgate/internal/api/http"
	"github.com/quizgate/quizgate/internal/auth"
	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/db"
	"github.com/quizgate/quizgate/internal/otp"
	"github.com/quizgate/quizgate/internal/quiz"
	"github.com/quizgate/quizgate/internal/results"
	"github.com/quizgate/quizgate/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using process environment")
	}
	cfg := config.FromEnv()

	// --- OTP stores ---
	// The durable ledger is optional; the file store always backs it up, so
	// a misconfigured backend degrades to demo mode instead of refusing to
	// start.
	var durable otp.Store
	switch cfg.OtpBackend {
	case config.OtpBackendSQL:
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		cancel()
		if err != nil {
			log.Printf("db open failed, OTP ledger disabled: %v", err)
		} else {
			durable = otp.NewSQLStore(dbh)
		}
	case config.OtpBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("redis ping failed, will keep trying per request: %v", err)
		}
		cancel()
		durable = otp.NewRedisStore(client)
	case config.OtpBackendNone:
		// file store only
	default:
		log.Fatalf("unknown OTP_BACKEND: %s", cfg.OtpBackend)
	}
	otpSvc := otp.NewService(durable, otp.NewFileStore(cfg.OtpFile), cfg.StoreTimeout)

	// --- Blob store (attempt persistence, best-effort) ---
	var blobs storage.BlobStore
	if fsStore, err := storage.NewFSStore(cfg.BlobBasePath); err != nil {
		log.Printf("blob store unavailable, attempts will not persist: %v", err)
	} else {
		blobs = fsStore
	}
	writer := results.NewWriter(blobs, cfg.StoreTimeout)
	reader := results.NewReader(blobs, cfg.StoreTimeout)

	quizzes := quiz.NewStore(cfg.QuizDir)
	adminAuth := auth.NewTokenAuth(cfg.AdminToken, cfg.AdminTokenHash)
	if cfg.AdminToken == "" && cfg.AdminTokenHash == "" {
		log.Printf("ADMIN_TOKEN not set, admin endpoints will reject every request")
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", auth.HeaderAdminToken},
		MaxAge:         300,
	}))

	r.Get("/quiz/{testID}", api.GetQuizHandler(quizzes))
	r.Post("/otp/verify", api.VerifyOTPHandler(otpSvc))
	r.Post("/results", api.SubmitResultHandler(writer))

	r.Group(func(ar chi.Router) {
		ar.Use(auth.AdminOnly(adminAuth))
		ar.Get("/admin/results", api.ListResultsHandler(reader))
		ar.Get("/admin/results/{id}", api.GetResultHandler(reader))
		ar.Get("/admin/debug/blob", api.DebugBlobHandler(blobs))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	if cfg.PublicDir != "" {
		if _, err := os.Stat(cfg.PublicDir); err == nil {
			r.Handle("/*", http.FileServer(http.Dir(cfg.PublicDir)))
		} else {
			log.Printf("PUBLIC_DIR %s not found, static serving disabled", cfg.PublicDir)
		}
	}

	log.Printf("listening on %s (otp=%s, quizzes=%s, blobs=%s)",
		cfg.HTTPAddr, cfg.OtpBackend, cfg.QuizDir, cfg.BlobBasePath)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
