package db

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/acaduss/acaduss-backend/internal/platform/logger"
	"github.com/acaduss/acaduss-backend/internal/utils"
)

type Service struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

// New opens the database selected by DB_DRIVER. Postgres is the default;
// "sqlite" opens SQLITE_PATH and is meant for local development.
func New(logg *logger.Logger) (*Service, error) {
	driver := strings.ToLower(utils.GetEnv("DB_DRIVER", "postgres", logg))
	switch driver {
	case "postgres", "postgresql", "pg":
		return NewPostgresService(logg)
	case "sqlite", "sqlite3":
		return NewSQLiteService(logg, utils.GetEnv("SQLITE_PATH", "acaduss.db", logg))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
}

func NewPostgresService(logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "PostgresService")

	dsn := utils.GetEnv("DATABASE_URL", "", logg)
	if dsn == "" {
		dsn = fmt.Sprintf(
			"postgres://%s:%s@%s:%s/%s?sslmode=%s",
			utils.GetEnv("POSTGRES_USER", "postgres", logg),
			utils.GetEnv("POSTGRES_PASSWORD", "", logg),
			utils.GetEnv("POSTGRES_HOST", "localhost", logg),
			utils.GetEnv("POSTGRES_PORT", "5432", logg),
			utils.GetEnv("POSTGRES_NAME", "acaduss", logg),
			utils.GetEnv("POSTGRES_SSLMODE", "disable", logg),
		)
	}

	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	serviceLog.Info("Connected to Postgres")
	return &Service{db: db, driver: "postgres", log: serviceLog}, nil
}

func NewSQLiteService(logg *logger.Logger, path string) (*Service, error) {
	serviceLog := logg.With("service", "SQLiteService")
	db, err := gorm.Open(sqlite.Open(path), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite %q: %w", path, err)
	}
	serviceLog.Info("Opened SQLite database", "path", path)
	return &Service{db: db, driver: "sqlite", log: serviceLog}, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger: gormLogger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			gormLogger.Config{
				SlowThreshold:             1 * time.Second,
				LogLevel:                  gormLogger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Running auto migration", "driver", s.driver)
	return AutoMigrateAll(s.db)
}

func (s *Service) Close() {
	sqlDB, err := s.db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		s.log.Warn("closing database failed", "error", err)
	}
}
