package handlers

import (
	"github.com/krosit/flota-api/internal/services"
)

// Handlers holds all handler instances
type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	User         *UserHandler
	Employee     *EmployeeHandler
	Vehicle      *VehicleHandler
	Depot        *DepotHandler
	Stock        *StockHandler
	Budget       *BudgetHandler
	Fuel         *FuelHandler
	Notification *NotificationHandler
	Audit        *AuditHandler
	Report       *ReportHandler
	Job          *JobHandler
}

// NewHandlers creates all handler instances
func NewHandlers(svcs *services.Services) *Handlers {
	return &Handlers{
		Health:       NewHealthHandler(),
		Auth:         NewAuthHandler(svcs.Auth),
		User:         NewUserHandler(svcs.User),
		Employee:     NewEmployeeHandler(svcs.Employee, svcs.Stock, svcs.Budget),
		Vehicle:      NewVehicleHandler(svcs.Vehicle),
		Depot:        NewDepotHandler(svcs.Depot),
		Stock:        NewStockHandler(svcs.Stock),
		Budget:       NewBudgetHandler(svcs.Budget),
		Fuel:         NewFuelHandler(svcs.Fuel),
		Notification: NewNotificationHandler(svcs.Notification),
		Audit:        NewAuditHandler(svcs.Audit),
		Report:       NewReportHandler(svcs.Report, svcs.Export),
		Job:          NewJobHandler(svcs.Job),
	}
}
