package constants

import "time"

const (
	PasswordMinLength  = 8
	PasswordMaxLength  = 72
	JWTSecretMinLength = 32

	CabinNameMaxLength = 120
	SlugMaxLength      = 140

	DefaultPageLimit = 20
	MaxPageLimit     = 100

	CabinIDSequence = "cabin_id"

	// Bounded retries when an insert or rename loses the race for a slug
	// despite the probe loop; the unique index reports the loss.
	SlugConflictMaxAttempts = 3

	DefaultMaxRequestSize = 1 << 20

	DBPoolMaxOpenConns    = 25
	DBPoolMinOpenConns    = 5
	DBPoolConnMaxLifetime = time.Hour
	DBPoolConnMaxIdleTime = 30 * time.Minute
	DBPoolHealthCheck     = 1 * time.Minute
	DBPoolConnectTimeout  = 5 * time.Second
	DBPoolMaxAttempts     = 10
	DBPoolRetryDelay      = 1 * time.Second
	DBPoolMetricsInterval = 30 * time.Second

	ServerReadHeaderTimeout = 10 * time.Second
	ServerReadTimeout       = 30 * time.Second
	ServerWriteTimeout      = 30 * time.Second
	ServerIdleTimeout       = 120 * time.Second

	ShutdownTimeout = 30 * time.Second
	DrainTimeout    = 10 * time.Second

	DefaultHTTPPort       = "8080"
	DefaultRequestTimeout = 5 * time.Second
	DefaultAccessTokenTTL = 30 * time.Minute

	DefaultCircuitBreakerThreshold = 500
	DefaultCircuitBreakerTimeout   = 15 * time.Second
	DefaultCircuitBreakerReset     = 10 * time.Second

	RateLimitCleanupInterval = 5 * time.Minute

	EventsSendBufferSize = 64
	EventsWriteWait      = 10 * time.Second
	EventsPongWait       = 60 * time.Second
	EventsPingPeriod     = 54 * time.Second
)
