package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/carservice-desk/internal/appointments"
	"github.com/wolfman30/carservice-desk/internal/calllog"
	appconfig "github.com/wolfman30/carservice-desk/internal/config"
	"github.com/wolfman30/carservice-desk/internal/dialog"
	"github.com/wolfman30/carservice-desk/internal/temporal"
	"github.com/wolfman30/carservice-desk/internal/voice"
	"github.com/wolfman30/carservice-desk/migrations"
	"github.com/wolfman30/carservice-desk/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// When verify is true, a ping is issued and failures return nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, falling back to in-memory sessions", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// ConnectPostgres opens and pings a pgx pool. An empty URL means no database and
// returns nil, nil.
func ConnectPostgres(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	databaseURL = strings.TrimSpace(databaseURL)
	if databaseURL == "" {
		return nil, nil
	}
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: connect postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("bootstrap: ping postgres: %w", err)
	}
	return pool, nil
}

// OpenSQL exposes the pool through database/sql for migrations and the
// conversation log.
func OpenSQL(pool *pgxpool.Pool) *sql.DB {
	if pool == nil {
		return nil
	}
	return stdlib.OpenDBFromPool(pool)
}

// Migrate applies the embedded schema when enabled.
func Migrate(sqlDB *sql.DB, cfg *appconfig.Config, logger *logging.Logger) error {
	if sqlDB == nil || cfg == nil || !cfg.AutoMigrate {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if err := migrations.Up(sqlDB); err != nil {
		return err
	}
	logger.Info("database migrations applied")
	return nil
}

// BuildAppointmentStore picks Postgres when a pool is available, memory otherwise.
func BuildAppointmentStore(pool *pgxpool.Pool, logger *logging.Logger) appointments.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("no DATABASE_URL; appointments are kept in memory")
		return appointments.NewMemoryStore()
	}
	return appointments.NewPostgresStore(pool)
}

// SessionBackend is the session store plus the in-memory store when one was chosen,
// so the caller can run its idle sweeper.
type SessionBackend struct {
	Store  dialog.SessionStore
	Memory *dialog.MemorySessionStore
}

// BuildSessionStore uses Redis when a client is available, memory otherwise.
func BuildSessionStore(cfg *appconfig.Config, redisClient *redis.Client, logger *logging.Logger) SessionBackend {
	idle := dialog.DefaultIdleTimeout
	if cfg != nil && cfg.SessionIdleTimeout > 0 {
		idle = cfg.SessionIdleTimeout
	}
	if redisClient != nil {
		return SessionBackend{Store: dialog.NewRedisSessionStore(redisClient, idle)}
	}
	mem := dialog.NewMemorySessionStore(idle, logger)
	return SessionBackend{Store: mem, Memory: mem}
}

// BuildConversationLog returns the conversation log when enabled and a database is
// configured, nil otherwise.
func BuildConversationLog(sqlDB *sql.DB, cfg *appconfig.Config, logger *logging.Logger) *calllog.Store {
	if cfg == nil || !cfg.ConversationLogEnabled || sqlDB == nil {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	logger.Info("conversation log enabled")
	return calllog.NewStore(sqlDB)
}

// BuildClock returns the dialog clock and location. ANCHOR_DATE pins "today".
func BuildClock(cfg *appconfig.Config) (temporal.Clock, *time.Location, error) {
	var anchor, tz string
	if cfg != nil {
		anchor, tz = cfg.AnchorDate, cfg.Timezone
	}
	loc := temporal.Location(tz)
	clock, err := temporal.ClockFromAnchor(anchor, loc)
	if err != nil {
		return nil, nil, fmt.Errorf("bootstrap: invalid ANCHOR_DATE %q: %w", anchor, err)
	}
	return clock, loc, nil
}

// BuildTranscriber returns the speech adapter when speech is enabled. A nil
// Transcriber means audio input is not served.
func BuildTranscriber(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (voice.Transcriber, error) {
	if cfg == nil || !cfg.SpeechEnabled {
		return nil, nil
	}
	t, err := voice.NewGoogleTranscriber(ctx, cfg.GoogleCredentialsFile, cfg.SpeechLanguage, logger)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: speech client: %w", err)
	}
	return t, nil
}
