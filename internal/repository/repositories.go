// Package repository provides data access implementations backed by gorm.
// The ledger repositories (budget, stock, fuel) run their mutations inside
// database transactions with row-level locks so that balances and stock
// levels stay consistent under concurrent writers.
package repository

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Repositories holds all repository implementations.
type Repositories struct {
	User         UserRepository
	RefreshToken RefreshTokenRepository
	Employee     EmployeeRepository
	Vehicle      VehicleRepository
	Depot        DepotRepository
	Product      ProductRepository
	Withdrawal   WithdrawalRepository
	Budget       BudgetRepository
	Fuel         FuelRepository
	Audit        AuditRepository
	Notification NotificationRepository
}

// NewRepositories creates all repositories with the given database connection.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		RefreshToken: NewRefreshTokenRepository(db),
		Employee:     NewEmployeeRepository(db),
		Vehicle:      NewVehicleRepository(db),
		Depot:        NewDepotRepository(db),
		Product:      NewProductRepository(db),
		Withdrawal:   NewWithdrawalRepository(db),
		Budget:       NewBudgetRepository(db),
		Fuel:         NewFuelRepository(db),
		Audit:        NewAuditRepository(db),
		Notification: NewNotificationRepository(db),
	}
}

// IsUniqueViolation reports whether err is a postgres unique constraint
// violation, optionally restricted to a named constraint.
func IsUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != "23505" {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
