package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"ridesharing/internal/config"
	"ridesharing/internal/drivers"
	"ridesharing/internal/middleware"
	"ridesharing/internal/profiles"
	"ridesharing/internal/riders"
	"ridesharing/internal/rides"
	"ridesharing/internal/tracking"
	"ridesharing/internal/wallets"
	"ridesharing/migrations"
	"ridesharing/pkg/credentials"
	"ridesharing/pkg/db"
	"ridesharing/pkg/httpx"
	"ridesharing/pkg/jwt"
	"ridesharing/pkg/kafka"
	rredis "ridesharing/pkg/redis"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ── 1. Config + JWT ──
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if err := jwt.Init(cfg.JWTSecret, cfg.TokenTTL); err != nil {
		log.Fatal(err)
	}

	// ── 2. PostgreSQL ──
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	if err := database.RunMigrations(ctx, migrations.FS); err != nil {
		log.Fatal("migrations failed:", err)
	}

	// ── 3. Redis ──
	redisClient, err := rredis.NewClient(rredis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		LocationTTL: cfg.LocationTTL,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer redisClient.Close()

	// ── 4. Kafka ──
	kafkaClient := kafka.NewClient(cfg.KafkaBrokers)
	defer kafkaClient.Close()

	if err := kafkaClient.EnsureTopics(ctx, kafka.AllTopics()...); err != nil {
		log.Fatal(err)
	}

	// ── 5. Services ──
	hasher := credentials.NewBcrypt()

	walletSvc := wallets.NewService(wallets.NewPostgresStore(database.Pool))
	riderSvc := riders.NewService(riders.NewPostgresStore(database.Pool), hasher, walletSvc)
	driverSvc := drivers.NewService(drivers.NewPostgresStore(database.Pool), hasher)
	profileSvc := profiles.NewService(riderSvc, driverSvc)
	rideSvc := rides.NewService(rides.NewPostgresStore(database.Pool),
		kafkaClient, redisClient, driverSvc, cfg.RecentWindow)

	// ── 6. Live tracking ──
	wsHub := tracking.NewHub()
	tracking.NewRelay(wsHub, kafkaClient).Start(ctx)

	// ── 7. HTTP router ──
	idem := middleware.NewIdempotency(redisClient.Raw())

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"Idempotent-Replay"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(jwt.OptionalAuth)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "service": "ridesharing"})
	})

	r.Mount("/api/rides", rides.NewHandler(rideSvc, idem.Handler).Routes())
	r.Mount("/api/riders", riders.NewHandler(riderSvc).Routes())
	r.Mount("/api/drivers", drivers.NewHandler(driverSvc).Routes())
	r.Mount("/api/wallets", wallets.NewHandler(walletSvc).Routes())
	r.Mount("/api/profile", profiles.NewHandler(profileSvc).Routes())
	r.Mount("/ws", wsHub.Routes())

	// ── 8. Start server ──
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		log.Printf("ridesharing listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	// ── 9. Graceful shutdown ──
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down...")

	shutCtx, shutCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutCancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	cancel() // stop consumers
}
