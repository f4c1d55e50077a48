package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/krosit/flota-api/internal/config"
	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
	"github.com/krosit/flota-api/pkg/logger"
)

// VehicleService handles the fleet register and the document due-date
// alerts.
type VehicleService struct {
	repo         repository.VehicleRepository
	userRepo     repository.UserRepository
	notification *NotificationService
	audit        *AuditService
	cfg          *config.Config
}

// NewVehicleService creates a new vehicle service
func NewVehicleService(repo repository.VehicleRepository, userRepo repository.UserRepository, notification *NotificationService, audit *AuditService, cfg *config.Config) *VehicleService {
	return &VehicleService{
		repo:         repo,
		userRepo:     userRepo,
		notification: notification,
		audit:        audit,
		cfg:          cfg,
	}
}

// VehicleInput carries the editable vehicle fields.
type VehicleInput struct {
	Plate       string `json:"plate" binding:"required"`
	Chassis     string `json:"chassis"`
	Description string `json:"description"`

	Insurance          *time.Time `json:"insurance"`
	YearlyTaxes        *time.Time `json:"yearly_taxes"`
	PeriodicInspection *time.Time `json:"periodic_inspection"`
	MunicipalTax       *time.Time `json:"municipal_tax"`
	Tachograph         *time.Time `json:"tachograph"`

	IsActive *bool `json:"is_active"`
}

// Create registers a vehicle. Staff only.
func (s *VehicleService) Create(ctx context.Context, actor Actor, input VehicleInput) (*models.Vehicle, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	vehicle := &models.Vehicle{
		Plate:              strings.ToUpper(strings.TrimSpace(input.Plate)),
		Chassis:            input.Chassis,
		Description:        input.Description,
		Insurance:          input.Insurance,
		YearlyTaxes:        input.YearlyTaxes,
		PeriodicInspection: input.PeriodicInspection,
		MunicipalTax:       input.MunicipalTax,
		Tachograph:         input.Tachograph,
		IsActive:           true,
	}
	if input.IsActive != nil {
		vehicle.IsActive = *input.IsActive
	}
	if err := s.repo.Create(ctx, vehicle); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionCreate, "Vehicle", itoa(vehicle.ID),
		fmt.Sprintf("registered vehicle %s", vehicle.Plate))
	return vehicle, nil
}

// Update edits a vehicle. Staff only.
func (s *VehicleService) Update(ctx context.Context, actor Actor, id uint, input VehicleInput) (*models.Vehicle, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}

	vehicle.Plate = strings.ToUpper(strings.TrimSpace(input.Plate))
	vehicle.Chassis = input.Chassis
	vehicle.Description = input.Description
	vehicle.Insurance = input.Insurance
	vehicle.YearlyTaxes = input.YearlyTaxes
	vehicle.PeriodicInspection = input.PeriodicInspection
	vehicle.MunicipalTax = input.MunicipalTax
	vehicle.Tachograph = input.Tachograph
	if input.IsActive != nil {
		vehicle.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, vehicle); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionUpdate, "Vehicle", itoa(vehicle.ID),
		fmt.Sprintf("updated vehicle %s", vehicle.Plate))
	return vehicle, nil
}

// GetByID returns one vehicle.
func (s *VehicleService) GetByID(ctx context.Context, id uint) (*models.Vehicle, error) {
	vehicle, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return vehicle, nil
}

// List returns vehicles.
func (s *VehicleService) List(ctx context.Context, query *repository.ListQuery) ([]models.Vehicle, int64, error) {
	return s.repo.List(ctx, query)
}

// ListActive returns the active fleet.
func (s *VehicleService) ListActive(ctx context.Context) ([]models.Vehicle, error) {
	return s.repo.FindActive(ctx)
}

// DocumentAlert is one vehicle document approaching or past its due date.
type DocumentAlert struct {
	VehicleID uint      `json:"vehicle_id"`
	Plate     string    `json:"plate"`
	Document  string    `json:"document"`
	DueDate   time.Time `json:"due_date"`
	Overdue   bool      `json:"overdue"`
}

// DocumentAlerts lists every document of an active vehicle that falls due
// within the configured alert window, oldest first.
func (s *VehicleService) DocumentAlerts(ctx context.Context) ([]DocumentAlert, error) {
	now := time.Now()
	deadline := now.AddDate(0, 0, s.cfg.VehicleAlertDays)

	vehicles, err := s.repo.FindWithDocumentsDueBy(ctx, deadline)
	if err != nil {
		return nil, err
	}

	var alerts []DocumentAlert
	for _, vehicle := range vehicles {
		for name, due := range vehicle.DocumentDueDates() {
			if due.After(deadline) {
				continue
			}
			alerts = append(alerts, DocumentAlert{
				VehicleID: vehicle.ID,
				Plate:     vehicle.Plate,
				Document:  name,
				DueDate:   due,
				Overdue:   due.Before(now),
			})
		}
	}
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].DueDate.Before(alerts[j].DueDate)
	})
	return alerts, nil
}

// NotifyDocumentAlerts is the scheduled job body: it collects the due
// documents and notifies every admin with one summary.
func (s *VehicleService) NotifyDocumentAlerts(ctx context.Context) error {
	alerts, err := s.DocumentAlerts(ctx)
	if err != nil {
		return err
	}
	if len(alerts) == 0 {
		return nil
	}

	lines := make([]string, 0, len(alerts))
	for _, alert := range alerts {
		state := "due"
		if alert.Overdue {
			state = "overdue"
		}
		lines = append(lines, fmt.Sprintf("%s: %s %s %s",
			alert.Plate, alert.Document, state, alert.DueDate.Format("2006-01-02")))
	}

	logger.Info(fmt.Sprintf("document alerts: %d documents due within %d days",
		len(alerts), s.cfg.VehicleAlertDays))

	return s.notification.NotifyAdmins(ctx,
		fmt.Sprintf("%d vehicle documents due", len(alerts)),
		strings.Join(lines, "\n"),
		models.NotificationTypeVehicleDocument)
}
