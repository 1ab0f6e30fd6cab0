// otpseed provisions one-time passcodes in the durable store.
//
//	otpseed -test-id quiz_server -otp 4821 -title "Server Fundamentals"
//	otpseed -map -otp 4821 -test-id quiz_server -title "Server Fundamentals"
//
// -map seeds the bare-code map instead of a per-quiz record; redemption
// through the map still burns the per-quiz ledger exactly once.
package main

import (
	"context"
	"flag"
	"log"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"

	"github.com/quizgate/quizgate/internal/config"
	"github.com/quizgate/quizgate/internal/db"
	"github.com/quizgate/quizgate/internal/otp"
)

func main() {
	testID := flag.String("test-id", "", "quiz id the code unlocks (required)")
	code := flag.String("otp", "", "passcode to seed (required)")
	title := flag.String("title", "", "quiz title shown after redemption")
	asMap := flag.Bool("map", false, "seed the bare-code map instead of a per-quiz record")
	flag.Parse()

	if *testID == "" || *code == "" {
		flag.Usage()
		log.Fatal("both -test-id and -otp are required")
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file, using process environment")
	}
	cfg := config.FromEnv()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.StoreTimeout)
	defer cancel()

	var seeder otp.Seeder
	switch cfg.OtpBackend {
	case config.OtpBackendSQL:
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			log.Fatalf("db open failed: %v", err)
		}
		seeder = otp.NewSQLStore(dbh)
	case config.OtpBackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis ping failed: %v", err)
		}
		seeder = otp.NewRedisStore(client)
	default:
		log.Fatalf("OTP_BACKEND=%s has no durable store to seed; edit the OTP file instead", cfg.OtpBackend)
	}

	var err error
	if *asMap {
		err = seeder.SeedMap(ctx, *code, *testID, *title)
	} else {
		err = seeder.SeedRecord(ctx, *testID, *code, *title)
	}
	if err != nil {
		log.Fatalf("seed failed: %v", err)
	}
	log.Printf("seeded otp for %s (map=%v)", *testID, *asMap)
}
