package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"autoguard/pkg/advisor"
	"autoguard/pkg/auth"
	"autoguard/pkg/config"
	"autoguard/pkg/eventbus"
	"autoguard/pkg/ledger"
	"autoguard/pkg/metrics"
	otelobs "autoguard/pkg/observability/otel"
	"autoguard/pkg/pipeline"
	"autoguard/pkg/recall"
	"autoguard/pkg/store"
	"autoguard/pkg/telemetry"
	"autoguard/pkg/ueba"
)

const serviceName = "autoguard"

func main() {
	port := config.GetInt("AUTOGUARD_PORT", 8080)

	shutdown := otelobs.InitTracer(serviceName)
	defer shutdown(context.Background())

	// Fleet telemetry file is the only required external input.
	fleetPath := config.Get("AUTOGUARD_FLEET_PATH", "data/fleet.json")
	source, err := telemetry.NewFileSource(fleetPath, config.GetInt("AUTOGUARD_FLEET_CACHE", 128))
	if err != nil {
		log.Fatalf("[autoguard] open fleet file %s: %v", fleetPath, err)
	}

	users, err := ueba.NewDirectory(ueba.DefaultSeeds())
	if err != nil {
		log.Fatalf("[autoguard] seed user directory: %v", err)
	}
	detector := ueba.NewDetector(users)
	tracker := recall.NewTracker()

	sink := openSink()
	tokens := newTokenManager()

	var composer advisor.Composer = advisor.TemplateComposer{}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		composer = advisor.NewOpenAIComposer(key, config.Get("AUTOGUARD_OPENAI_MODEL", ""))
		log.Printf("[autoguard] AI alert composer enabled")
	}

	bus := eventbus.NewBus(config.GetInt("AUTOGUARD_BUS_BUFFER", 256))
	defer bus.Close()
	bus.Register(ledger.NewAuditSubscriber(config.Get("AUTOGUARD_LEDGER_PATH", "data/ledger-autoguard.log"), serviceName))

	mset := metrics.NewDefault()
	engine := pipeline.NewEngine(pipeline.Config{
		Detector: detector,
		Tracker:  tracker,
		Source:   source,
		Owners:   source,
		Composer: composer,
		Sink:     sink,
		Bus:      bus,
		Metrics:  mset,
	})

	srv := &server{
		engine:    engine,
		detector:  detector,
		tracker:   tracker,
		sink:      sink,
		tokens:    tokens,
		responder: advisor.Responder{},
	}

	mux := http.NewServeMux()
	srv.routes(mux)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	handler := otelobs.WrapHTTPHandler(serviceName, otelobs.HTTPTraceLogMiddleware(mux))
	httpSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("[autoguard] listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[autoguard] serve: %v", err)
		}
	}()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Printf("[autoguard] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
}

// openSink connects to Postgres when configured, otherwise serves from memory.
func openSink() store.Sink {
	host := os.Getenv("DATABASE_HOST")
	if host == "" {
		log.Printf("[autoguard] DATABASE_HOST unset, using in-memory store")
		return store.NewMemory()
	}
	pg, err := store.NewPostgres(store.PostgresConfig{
		Host:     host,
		Port:     config.GetInt("DATABASE_PORT", 5432),
		User:     config.Get("DATABASE_USER", "autoguard"),
		Password: os.Getenv("DATABASE_PASSWORD"),
		DBName:   config.Get("DATABASE_NAME", "autoguard"),
		SSLMode:  config.Get("DATABASE_SSLMODE", "disable"),
	})
	if err != nil {
		log.Fatalf("[autoguard] connect postgres: %v", err)
	}
	if err := pg.Migrate(); err != nil {
		log.Fatalf("[autoguard] migrate: %v", err)
	}
	return pg
}

// newTokenManager prefers a Redis-backed revocation store and falls back to
// the in-memory one when Redis is unreachable.
func newTokenManager() *auth.Manager {
	var revoked auth.RevokedStore
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Printf("[autoguard] redis unavailable (%v), using in-memory revocation store", err)
		} else {
			revoked = auth.NewRedisRevokedStore(rdb)
		}
	}
	secret := os.Getenv("AUTOGUARD_JWT_SECRET")
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			log.Fatalf("[autoguard] generate ephemeral jwt secret: %v", err)
		}
		secret = hex.EncodeToString(buf)
		log.Printf("[autoguard] AUTOGUARD_JWT_SECRET unset, using ephemeral secret (tokens die with the process)")
	}
	mgr, err := auth.NewManager(auth.Config{
		Secret:          secret,
		AccessTokenTTL:  config.GetDuration("AUTOGUARD_ACCESS_TTL", 15*time.Minute),
		RefreshTokenTTL: config.GetDuration("AUTOGUARD_REFRESH_TTL", 7*24*time.Hour),
		RevokedStore:    revoked,
	})
	if err != nil {
		log.Fatalf("[autoguard] init token manager: %v", err)
	}
	return mgr
}
