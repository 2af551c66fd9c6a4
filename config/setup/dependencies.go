package setup

import (
	"context"
	"log/slog"
	"time"

	"todolist/app"
	"todolist/config"
	"todolist/contract"
	"todolist/database"
	"todolist/matcher"
	"todolist/notify"
	"todolist/services"

	"github.com/redis/go-redis/v9"
)

// InitDatabase initializes the SQLite database and runs migrations
func InitDatabase(dbPath string, logger *slog.Logger) (*database.DB, error) {
	db, err := database.New(dbPath)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("database initialized", "path", dbPath)
	return db, nil
}

// InitPublisher connects the Redis change publisher when an address is configured.
// It returns nil when Redis is not configured.
func InitPublisher(cfg *config.Config, logger *slog.Logger) (*notify.RedisPublisher, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}

	pub, err := notify.NewRedisPublisher(&redis.Options{Addr: cfg.RedisAddr}, cfg.Authority, logger)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := pub.Ping(ctx); err != nil {
		pub.Close()
		return nil, err
	}

	logger.Info("change publisher connected", "addr", cfg.RedisAddr, "channel", notify.ChangesChannel(cfg.Authority))
	return pub, nil
}

// InitApp initializes the application with all dependencies
func InitApp(cfg *config.Config, db *database.DB, publisher *notify.RedisPublisher, logger *slog.Logger) *app.App {
	repo := database.NewRepository(db)

	notifier := notify.NewNotifier(logger)
	if publisher != nil {
		// every change under the collection is republished
		notifier.Register(contract.ContentURI(cfg.Authority), publisher, true)
	}

	m := matcher.New(contract.Scheme, cfg.Authority, contract.PathTasks)
	provider := services.NewTaskProvider(m, repo, notifier, logger)

	application := app.New(provider, notifier, logger)
	logger.Info("application initialized", "authority", cfg.Authority)

	return application
}

// Shutdown performs graceful shutdown of all services
func Shutdown(publisher *notify.RedisPublisher, db *database.DB, logger *slog.Logger) {
	logger.Info("shutting down services...")

	if publisher != nil {
		publisher.Close()
		logger.Info("change publisher closed")
	}

	if db != nil {
		db.Close()
		logger.Info("database closed")
	}
}
