package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"taskmanager/internal/config"
	"taskmanager/internal/logger"
	"taskmanager/internal/repo"
	"taskmanager/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Stores holds the repositories of the configured driver and how to close them.
type Stores struct {
	Tasks repo.TaskRepo
	Users repo.UserRepo
	close func()
}

// Close releases the underlying database handle.
func (s Stores) Close() {
	if s.close != nil {
		s.close()
	}
}

type App struct {
	cfg    config.Config
	log    *logrus.Logger
	stores Stores
	redis  *redis.Client
	router *gin.Engine
}

func New(cfg config.Config, log *logrus.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	stores, err := OpenStores(cfg, log)
	if err != nil {
		return nil, err
	}
	a.stores = stores

	if cfg.Redis.Enabled() {
		rdb, err := newRedis(cfg.Redis)
		if err != nil {
			stores.Close()
			return nil, err
		}
		a.redis = rdb
	} else {
		log.Warn("REDIS_ADDR not set: sessions and the task list cache are disabled")
	}

	a.router = newRouter(cfg, log, a.stores, a.redis)
	return a, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.stores.Close()
	return nil
}

// OpenStores connects to the configured driver and applies pending migrations.
func OpenStores(cfg config.Config, log logrus.FieldLogger) (Stores, error) {
	switch cfg.Store.Driver {
	case config.DriverSQLite:
		db, err := newSQLite(cfg.SQLite.Path, log)
		if err != nil {
			return Stores{}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return Stores{}, fmt.Errorf("sqlite handle: %w", err)
		}
		if err := migrations.Up(sqlDB, migrations.SQLite); err != nil {
			_ = sqlDB.Close()
			return Stores{}, err
		}
		return Stores{
			Tasks: repo.NewGormTaskRepo(db),
			Users: repo.NewGormUserRepo(db),
			close: func() { _ = sqlDB.Close() },
		}, nil
	default:
		pool, err := newPostgres(cfg.PG)
		if err != nil {
			return Stores{}, err
		}
		if err := runMigrations(cfg.PG.DSN); err != nil {
			pool.Close()
			return Stores{}, err
		}
		return Stores{
			Tasks: repo.NewPGTaskRepo(pool),
			Users: repo.NewPGUserRepo(pool),
			close: pool.Close,
		}, nil
	}
}

func newPostgres(pg config.PGConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pg.DSN)
	if err != nil {
		return nil, fmt.Errorf("pg parse config: %w", err)
	}
	cfg.MaxConns = pg.MaxConns
	cfg.MinConns = pg.MinConns
	cfg.MaxConnIdleTime = pg.MaxConnIdleTime.Duration()
	cfg.MaxConnLifetime = pg.MaxConnLifetime.Duration()

	pool, err := pgxpool.NewWithConfig(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("pg connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg ping: %w", err)
	}

	return pool, nil
}

// newSQLite opens the sqlite file with a single connection; sqlite serializes writers anyway.
func newSQLite(path string, log logrus.FieldLogger) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path+"?_foreign_keys=on&_busy_timeout=5000"), &gorm.Config{
		Logger: gormlogger.New(log, gormlogger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func newRedis(cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(cfg.Options())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return rdb, nil
}

func runMigrations(dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return fmt.Errorf("goose open db: %w", err)
	}
	defer func(db *sql.DB) { _ = db.Close() }(db)

	return migrations.Up(db, migrations.Postgres)
}

func newRouter(cfg config.Config, log *logrus.Logger, stores Stores, rdb *redis.Client) *gin.Engine {
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), logger.Middleware(log))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cookie"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type"},
		AllowCredentials: !allowsAnyOrigin(cfg.HTTP.CORSOrigins),
		MaxAge:           12 * time.Hour,
	}))

	Setup(r, cfg, log, stores, rdb)
	return r
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
