package database

import (
	"fmt"
	"os"
	"time"

	pkgLogger "github.com/krosit/flota-api/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/krosit/flota-api/internal/models"
)

// Connect establishes a connection to the PostgreSQL database
func Connect(databaseURL string) (*gorm.DB, error) {
	// Configure GORM logger
	logLevel := logger.Silent
	if os.Getenv("ENVIRONMENT") != "production" {
		logLevel = logger.Info
	}

	gormLogger := pkgLogger.NewGormLogger(
		logLevel,
		200*time.Millisecond,
	)

	// Open database connection
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true, // ledger operations open their own transactions
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying SQL database
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)
	sqlDB.SetConnMaxIdleTime(5 * time.Minute)

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// Migrate creates or updates the schema, including the constraints the
// application relies on as a backstop against races its own checks can't
// close (single open refill per tank, unique product name per depot).
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.Employee{},
		&models.Vehicle{},
		&models.Depot{},
		&models.Product{},
		&models.WithdrawalHeader{},
		&models.WithdrawalItem{},
		&models.ReturnHeader{},
		&models.ReturnItem{},
		&models.EmployeeBudget{},
		&models.Expense{},
		&models.BudgetAdjustment{},
		&models.FuelTank{},
		&models.FuelEntry{},
		&models.FuelUsage{},
		&models.AuditLog{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Partial unique index: at most one open refill per tank. Not
	// expressible with gorm struct tags, so created explicitly.
	err = db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_fuel_entries_open_tank
		 ON fuel_entries (tank_id) WHERE NOT is_closed`,
	).Error
	if err != nil {
		return fmt.Errorf("create open refill index: %w", err)
	}

	return nil
}
