package db

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"example.com/medfleet/services/lorry/config"
	"example.com/medfleet/services/lorry/internal/model"
)

// Connect establishes a connection to the database
func Connect(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode,
	)

	// Configure GORM logger
	var logLevel logger.LogLevel
	if cfg.Debug {
		logLevel = logger.Info
	} else {
		logLevel = logger.Error
	}

	gormLogger := logger.New(
		&logAdapter{},
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	// Open connection. TranslateError lets unique constraint violations
	// surface as gorm.ErrDuplicatedKey so the assignment writers can detect
	// a lost race instead of a generic failure.
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxConn)
	sqlDB.SetMaxIdleConns(cfg.MaxIdle)
	sqlDB.SetConnMaxLifetime(cfg.MaxLife)

	return db, nil
}

// Migrate runs database migrations
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Lorry{},
		&model.Driver{},
		&model.DriverSchedule{},
		&model.Transaction{},
		&model.LorryAssignment{},
		&model.StockVerification{},
		&model.DriverHold{},
	); err != nil {
		return err
	}

	// One open assignment per lorry per day and per driver per day. The
	// uniqueness is partial so a cancelled assignment releases the lorry for
	// reassignment the same day; gorm's index tags cannot express this.
	partialIndexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS udx_assignments_lorry_date
		    ON lorry_assignments (lorry_id, assignment_date)
		    WHERE status IN ('ASSIGNED', 'ACTIVE')`,
		`CREATE UNIQUE INDEX IF NOT EXISTS udx_assignments_driver_date
		    ON lorry_assignments (driver_id, assignment_date)
		    WHERE status IN ('ASSIGNED', 'ACTIVE')`,
	}
	for _, stmt := range partialIndexes {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create partial index: %w", err)
		}
	}

	return nil
}

// IsRecordNotFoundError checks if an error is a record not found error
func IsRecordNotFoundError(err error) bool {
	return err == gorm.ErrRecordNotFound
}

// IsDuplicateKeyError checks if an error is a unique constraint violation
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// logAdapter adapts the GORM logger to the application logger
type logAdapter struct{}

func (l *logAdapter) Printf(format string, args ...interface{}) {
	fmt.Printf(format+"\n", args...)
}
