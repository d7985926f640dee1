package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	authhttp "github.com/hyttebook/backend/internal/auth/http"
	authservice "github.com/hyttebook/backend/internal/auth/service"
	cabinhttp "github.com/hyttebook/backend/internal/cabin/http"
	cabinrepo "github.com/hyttebook/backend/internal/cabin/repository"
	cabinservice "github.com/hyttebook/backend/internal/cabin/service"
	"github.com/hyttebook/backend/internal/common/clock"
	"github.com/hyttebook/backend/internal/common/config"
	commoncrypto "github.com/hyttebook/backend/internal/common/crypto"
	"github.com/hyttebook/backend/internal/common/db"
	commonhttp "github.com/hyttebook/backend/internal/common/http"
	"github.com/hyttebook/backend/internal/common/jwtverify"
	"github.com/hyttebook/backend/internal/common/logger"
	srv "github.com/hyttebook/backend/internal/common/server"
	"github.com/hyttebook/backend/internal/events"
	userrepo "github.com/hyttebook/backend/internal/user/repository"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_DIR"), "api", os.Getenv("LOG_LEVEL"))
	if err != nil {
		os.Stderr.WriteString(fmt.Sprintf("failed to initialize logger: %v\n", err))
		os.Exit(1)
	}

	cfg, err := config.LoadAPIConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	pool := db.NewPool(log, cfg.DatabaseURL)
	defer pool.Close()

	if err := db.RunMigrations(context.Background(), pool, log); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	realClock := &clock.RealClock{}
	hasher := &commoncrypto.BcryptHasher{}
	idGenerator := commoncrypto.NewUUIDGenerator()
	breaker := db.NewDBCircuitBreaker(cfg.CircuitBreakerThreshold, cfg.CircuitBreakerTimeout, cfg.CircuitBreakerReset, log)

	usersRepo := userrepo.NewPgRepository(pool)
	tokenIssuer := authservice.NewTokenIssuer(cfg.JWTSecret, idGenerator, cfg.AccessTokenTTL, realClock)
	authService := authservice.NewAuthService(authservice.AuthServiceDeps{
		Users:       usersRepo,
		Hasher:      hasher,
		IDGenerator: idGenerator,
		Tokens:      tokenIssuer,
		Log:         log,
	})

	hub := events.NewHub(log)
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go hub.Run(hubCtx)

	cabinService := cabinservice.NewCabinService(cabinservice.CabinServiceDeps{
		Repo:      cabinrepo.NewPgRepository(pool),
		Sequencer: cabinrepo.NewPgSequencer(pool),
		Clock:     realClock,
		Log:       log,
		Breaker:   breaker,
		Events:    hub,
	})

	authMW := jwtverify.Middleware(cfg.JWTSecret, log)

	cabinHandler := cabinhttp.NewHandler(cabinService, authMW, log)
	authHandler := authhttp.NewHandler(authService, log)
	withTimeout := commonhttp.WithTimeout(cfg.RequestTimeout)

	// The events route stays outside the request timeout: the websocket
	// connection is long-lived by design.
	mux := http.NewServeMux()
	mux.HandleFunc("/health", commonhttp.HealthHandler(log))
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/v1/auth/", withTimeout(authHandler.ServeHTTP))
	mux.Handle("/v1/cabins", withTimeout(cabinHandler.ServeHTTP))
	mux.Handle("/v1/cabins/events", authMW(events.NewWSHandler(hub, log)))
	mux.Handle("/v1/cabins/", withTimeout(cabinHandler.ServeHTTP))

	rateLimiter := commonhttp.NewPathRateLimiter()
	baseHandler := commonhttp.BuildBaseHandler(log, mux)

	rateLimitMiddleware := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if path == "/health" || path == "/metrics" || path == "/v1/cabins/events" {
				next.ServeHTTP(w, r)
				return
			}
			rateLimiter.MiddlewareForPath(path)(next).ServeHTTP(w, r)
		})
	}

	finalHandler := rateLimitMiddleware(baseHandler)

	serverConfig := srv.DefaultServerConfig(cfg.HTTPPort)
	server := srv.NewServer(serverConfig, finalHandler)

	shutdownHooks := []srv.ShutdownHook{
		func(ctx context.Context) error {
			log.Infof("api service: stopping event hub")
			hub.Shutdown()
			return nil
		},
	}

	srv.StartWithGracefulShutdownAndHooks(server, log, "api", shutdownHooks)
}
