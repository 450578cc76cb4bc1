package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/linemk/pizza-coin/internal/config"
	"github.com/linemk/pizza-coin/internal/cooldown"
	"github.com/linemk/pizza-coin/internal/events"
	"github.com/linemk/pizza-coin/internal/service"
	"github.com/linemk/pizza-coin/internal/storage"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
)

var ErrUnknownDriver = errors.New("unknown database driver")

// App держит подключения к внешним системам и собранный леджер
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	DB      *sql.DB
	Redis   *redis.Client // nil, если redis не настроен
	NATS    *nats.Conn    // nil, если nats не настроен
	Ledger  service.Ledger
	Limiter cooldown.Limiter
	Guard   *service.ResetGuard
}

// NewApp создаёт новый экземпляр App
func NewApp(ctx context.Context, log *slog.Logger, cfg *config.Config) (*App, error) {
	const op = "app.NewApp"

	driver, err := driverName(cfg.Database.Driver)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	db, err := openDB(ctx, driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	app := &App{
		Config: cfg,
		Logger: log,
		DB:     db,
	}

	app.Limiter = cooldown.NewLocalLimiter()
	if cfg.Redis.Addr != "" {
		rdb, err := connectRedis(ctx, cfg.Redis)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.Redis = rdb
		app.Limiter = cooldown.NewRedisLimiter(rdb)
		log.Info("command cooldowns are stored in redis", slog.String("addr", cfg.Redis.Addr))
	}

	var pub events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		nc, err := connectNATS(cfg.NATS.URL, log)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		app.NATS = nc
		pub = events.NewNATSPublisher(nc, cfg.NATS.SubjectPrefix)
		log.Info("ledger events are published to nats", slog.String("prefix", cfg.NATS.SubjectPrefix))
	}

	guard, err := service.NewResetGuard(cfg.Ledger.ResetConfirmCode)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	app.Guard = guard

	app.Ledger = service.NewLedgerService(log, storage.NewPostgresStore(db), pub)
	return app, nil
}

// Close закрывает все подключения. NATS сначала дочищает буфер публикаций.
func (a *App) Close() {
	if a.NATS != nil {
		if err := a.NATS.Drain(); err != nil {
			a.Logger.Error("failed to drain nats connection", slog.Any("error", err))
		}
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("failed to close redis", slog.Any("error", err))
		}
	}
	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error("failed to close database", slog.Any("error", err))
		}
	}
}

// driverName сопоставляет настройку с именем драйвера database/sql
func driverName(driver string) (string, error) {
	switch driver {
	case "", "postgres":
		return "postgres", nil
	case "pgx":
		return "pgx", nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
}

func openDB(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}

func connectNATS(url string, log *slog.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(url,
		nats.Name("pizza-coin"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", slog.String("url", nc.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}
