package services

import (
	"errors"
	"strconv"

	"gorm.io/gorm"

	"github.com/krosit/flota-api/internal/config"
	"github.com/krosit/flota-api/internal/jobs"
	"github.com/krosit/flota-api/internal/repository"
)

// Services holds all service instances
type Services struct {
	Auth         *AuthService
	User         *UserService
	Employee     *EmployeeService
	Vehicle      *VehicleService
	Depot        *DepotService
	Stock        *StockService
	Budget       *BudgetService
	Fuel         *FuelService
	Notification *NotificationService
	Audit        *AuditService
	Export       *ExportService
	Report       *ReportService
	Job          *JobService
}

// NewServices creates all service instances
func NewServices(repos *repository.Repositories, worker *jobs.Worker, cfg *config.Config) *Services {
	auditSvc := NewAuditService(repos.Audit)
	notificationSvc := NewNotificationService(repos.Notification, repos.User)

	depotSvc := NewDepotService(repos.Depot, repos.Product, auditSvc)
	stockSvc := NewStockService(repos.Withdrawal, repos.Employee, auditSvc)
	budgetSvc := NewBudgetService(repos.Budget, repos.Employee, auditSvc)
	fuelSvc := NewFuelService(repos.Fuel, repos.Employee, repos.Vehicle, notificationSvc, auditSvc, cfg)

	return &Services{
		Auth:         NewAuthService(repos.User, repos.RefreshToken, auditSvc, cfg),
		User:         NewUserService(repos.User, repos.Employee, notificationSvc, auditSvc),
		Employee:     NewEmployeeService(repos.Employee, repos.Budget, auditSvc),
		Vehicle:      NewVehicleService(repos.Vehicle, repos.User, notificationSvc, auditSvc, cfg),
		Depot:        depotSvc,
		Stock:        stockSvc,
		Budget:       budgetSvc,
		Fuel:         fuelSvc,
		Notification: notificationSvc,
		Audit:        auditSvc,
		Export:       NewExportService(stockSvc, budgetSvc, fuelSvc, auditSvc),
		Report:       NewReportService(repos.Withdrawal, repos.Budget, repos.Fuel, repos.Employee, repos.Depot, repos.Product),
		Job:          NewJobService(worker),
	}
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// notFoundOr maps gorm's record-not-found onto the service sentinel and
// passes everything else through.
func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
