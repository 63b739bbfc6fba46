package repository

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hitoshi/floodwatch/internal/config"
	"github.com/hitoshi/floodwatch/internal/database"
)

// Store は設定されたドライバのリポジトリ一式をまとめた構造体。
type Store struct {
	Driver  string
	Users   UserRepository
	Reports ReportRepository
	Health  HealthChecker

	close func() error
}

// Close は下位の接続を閉じる。
func (s *Store) Close() error {
	if s.close == nil {
		return nil
	}
	return s.close()
}

// NewMemoryStore はメモリ上のストアを生成する。
func NewMemoryStore() *Store {
	reports := NewMemoryReportRepo()
	return &Store{
		Driver:  config.StoreDriverMemory,
		Users:   NewMemoryUserRepo(),
		Reports: reports,
		Health:  reports,
	}
}

// Open はConfigのSTORE_DRIVERに応じてストアを開く。
// postgresの場合、AutoMigrateが有効ならマイグレーションも適用する。
func Open(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		return openPostgres(ctx, cfg)
	case config.StoreDriverMongo:
		ms, err := OpenMongo(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, err
		}
		slog.Info("mongodb connection established", slog.String("database", cfg.MongoDatabase))
		return &Store{
			Driver:  config.StoreDriverMongo,
			Users:   ms.Users(),
			Reports: ms.Reports(),
			Health:  ms,
			close:   ms.Close,
		}, nil
	case config.StoreDriverMemory:
		slog.Warn("using in-memory store; data is lost on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.StoreDriver)
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*Store, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	slog.Info("database connection established")

	if cfg.AutoMigrate {
		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		slog.Info("database migrations applied")
	}

	reports := NewPostgresReportRepo(db)
	return &Store{
		Driver:  config.StoreDriverPostgres,
		Users:   NewPostgresUserRepo(db),
		Reports: reports,
		Health:  reports,
		close:   db.Close,
	}, nil
}
