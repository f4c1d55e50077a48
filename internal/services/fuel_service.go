package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/krosit/flota-api/internal/config"
	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
	"github.com/krosit/flota-api/internal/statemachine"
)

// FuelService runs the fuel ledger. A tank's level is always derived from
// its entries and usages; refills open, accumulate usages, and close with
// an automatic reconciliation usage that zeroes the residual level.
type FuelService struct {
	repo         repository.FuelRepository
	employeeRepo repository.EmployeeRepository
	vehicleRepo  repository.VehicleRepository
	notification *NotificationService
	audit        *AuditService
	cfg          *config.Config
}

// NewFuelService creates a new fuel service
func NewFuelService(repo repository.FuelRepository, employeeRepo repository.EmployeeRepository, vehicleRepo repository.VehicleRepository, notification *NotificationService, audit *AuditService, cfg *config.Config) *FuelService {
	return &FuelService{
		repo:         repo,
		employeeRepo: employeeRepo,
		vehicleRepo:  vehicleRepo,
		notification: notification,
		audit:        audit,
		cfg:          cfg,
	}
}

// TankInput carries the editable tank fields.
type TankInput struct {
	Name     string `json:"name" binding:"required"`
	Capacity int    `json:"capacity" binding:"required"`
}

// CreateTank adds a tank. Staff only.
func (s *FuelService) CreateTank(ctx context.Context, actor Actor, input TankInput) (*models.FuelTank, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if input.Capacity <= 0 {
		return nil, NewValidationError("capacity", "must be positive")
	}
	tank := &models.FuelTank{Name: input.Name, Capacity: input.Capacity}
	if err := s.repo.CreateTank(ctx, tank); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionCreate, "FuelTank", itoa(tank.ID),
		fmt.Sprintf("created tank %s with capacity %d", tank.Name, tank.Capacity))
	return tank, nil
}

// UpdateTank edits a tank. Staff only.
func (s *FuelService) UpdateTank(ctx context.Context, actor Actor, id uint, input TankInput) (*models.FuelTank, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if input.Capacity <= 0 {
		return nil, NewValidationError("capacity", "must be positive")
	}
	tank, err := s.repo.FindTankByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	tank.Name = input.Name
	tank.Capacity = input.Capacity
	if err := s.repo.UpdateTank(ctx, tank); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionUpdate, "FuelTank", itoa(tank.ID),
		fmt.Sprintf("updated tank %s", tank.Name))
	return tank, nil
}

// TankStatus is a tank with its derived level and open refill, if any.
type TankStatus struct {
	Tank      models.FuelTank   `json:"tank"`
	Level     int               `json:"level"`
	OpenEntry *models.FuelEntry `json:"open_entry,omitempty"`
}

// ListTanks returns every tank with its live level.
func (s *FuelService) ListTanks(ctx context.Context) ([]TankStatus, error) {
	tanks, err := s.repo.ListTanks(ctx)
	if err != nil {
		return nil, err
	}
	statuses := make([]TankStatus, 0, len(tanks))
	for _, tank := range tanks {
		status, err := s.tankStatus(ctx, tank)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// GetTank returns one tank with its live level.
func (s *FuelService) GetTank(ctx context.Context, id uint) (*TankStatus, error) {
	tank, err := s.repo.FindTankByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	status, err := s.tankStatus(ctx, *tank)
	if err != nil {
		return nil, err
	}
	return &status, nil
}

func (s *FuelService) tankStatus(ctx context.Context, tank models.FuelTank) (TankStatus, error) {
	level, err := s.repo.TankLevel(ctx, tank.ID)
	if err != nil {
		return TankStatus{}, err
	}
	status := TankStatus{Tank: tank, Level: level}
	open, err := s.repo.OpenEntry(ctx, tank.ID)
	if err == nil {
		status.OpenEntry = open
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return TankStatus{}, err
	}
	return status, nil
}

// RefillInput is one refill delivery request.
type RefillInput struct {
	TankID   uint       `json:"tank_id" binding:"required"`
	Amount   int        `json:"amount" binding:"required"`
	Supplier string     `json:"supplier"`
	Date     *time.Time `json:"date"`
}

// RecordRefill opens a new refill on the tank. Fails if the tank already
// has an open one.
func (s *FuelService) RecordRefill(ctx context.Context, actor Actor, input RefillInput) (*models.FuelEntry, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if input.Amount <= 0 {
		return nil, NewValidationError("amount", "must be positive")
	}
	tank, err := s.repo.FindTankByID(ctx, input.TankID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}
	entry := &models.FuelEntry{
		TankID:   tank.ID,
		Date:     date,
		Amount:   input.Amount,
		Supplier: input.Supplier,
	}

	err = s.repo.CreateEntry(ctx, entry, func(e *models.FuelEntry) *models.AuditLog {
		return s.audit.Entry(actor, models.ActionCreate, "FuelEntry", itoa(e.ID),
			fmt.Sprintf("refill of %d into tank %s", e.Amount, tank.Name))
	})
	if err != nil {
		if errors.Is(err, repository.ErrOpenRefillExists) {
			return nil, ErrInvalidState
		}
		return nil, err
	}
	return entry, nil
}

// UsageInput is one fuel draw request.
type UsageInput struct {
	TankID     uint       `json:"tank_id" binding:"required"`
	Amount     int        `json:"amount" binding:"required"`
	VehicleID  uint       `json:"vehicle_id" binding:"required"`
	OperatorID uint       `json:"operator_id" binding:"required"`
	Project    string     `json:"project"`
	Date       *time.Time `json:"date"`
}

// RecordUsage draws fuel from a tank against its open refill. The level
// may go negative up to the configured tolerance; a draw that would push
// it further is rejected. A negative amount is a manual surplus
// correction and raises the level.
func (s *FuelService) RecordUsage(ctx context.Context, actor Actor, input UsageInput) (*models.FuelUsage, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if input.Amount == 0 {
		return nil, NewValidationError("amount", "must not be zero")
	}
	vehicle, err := s.vehicleRepo.FindByID(ctx, input.VehicleID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	operator, err := s.employeeRepo.FindByID(ctx, input.OperatorID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}
	usage := &models.FuelUsage{
		TankID:     input.TankID,
		Date:       date,
		Amount:     input.Amount,
		VehicleID:  vehicle.ID,
		OperatorID: operator.ID,
		Project:    input.Project,
	}

	floor := -s.cfg.MaxNegativeLiters
	err = s.repo.RecordUsage(ctx, usage,
		func(level int, open *models.FuelEntry) error {
			if level-usage.Amount < floor {
				return &TankFloorError{Level: level, Requested: usage.Amount, Floor: floor}
			}
			return nil
		},
		func(u *models.FuelUsage) *models.AuditLog {
			return s.audit.Entry(actor, models.ActionCreate, "FuelUsage", itoa(u.ID),
				fmt.Sprintf("usage of %d for %s by %s", u.Amount, vehicle.Plate, operator.Name))
		})
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenRefill) {
			return nil, ErrInvalidState
		}
		return nil, notFoundOr(err)
	}
	return usage, nil
}

// CloseRefill closes the entry. A nonzero tank level at close time is
// booked as an automatic reconciliation usage against the configured
// system operator and reconciliation vehicle, bringing the level to zero.
// Closing an already closed entry is a no-op: the entry comes back
// unchanged with a zero residual and nothing is written.
// Missing reconciliation entities fail the close even when the residual
// would be zero: a misconfigured system must surface, not work by luck.
func (s *FuelService) CloseRefill(ctx context.Context, actor Actor, entryID uint) (*models.FuelEntry, int, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrUnauthorized
	}

	entry, err := s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, 0, notFoundOr(err)
	}
	machine := statemachine.NewRefillFSM(entry)
	if err := machine.Close(ctx); err != nil {
		// Already closed; repeat closes change nothing.
		return entry, 0, nil
	}

	operator, err := s.employeeRepo.FindByName(ctx, s.cfg.FuelSystemOperator)
	if err != nil {
		return nil, 0, ErrMissingReconciliationEntities
	}
	vehicle, err := s.vehicleRepo.FindByPlate(ctx, s.cfg.FuelReconciliationPlate)
	if err != nil {
		return nil, 0, ErrMissingReconciliationEntities
	}

	residual, err := s.repo.CloseEntry(ctx, entryID,
		func(residual int) *models.FuelUsage {
			return &models.FuelUsage{
				Date:       time.Now(),
				VehicleID:  vehicle.ID,
				OperatorID: operator.ID,
				Project:    models.ReconciliationNote(residual),
			}
		},
		func(e *models.FuelEntry, residual int) *models.AuditLog {
			return s.audit.Entry(actor, models.ActionUpdate, "FuelEntry", itoa(e.ID),
				fmt.Sprintf("closed refill of %d, reconciled residual %d", e.Amount, residual))
		})
	if err != nil {
		if errors.Is(err, repository.ErrNoOpenRefill) {
			// Lost a close race; the concurrent close already reconciled.
			entry, err = s.repo.FindEntryByID(ctx, entryID)
			if err != nil {
				return nil, 0, notFoundOr(err)
			}
			return entry, 0, nil
		}
		return nil, 0, notFoundOr(err)
	}

	entry, err = s.repo.FindEntryByID(ctx, entryID)
	if err != nil {
		return nil, residual, notFoundOr(err)
	}

	tankName := itoa(entry.TankID)
	if entry.Tank != nil {
		tankName = entry.Tank.Name
	}
	_ = s.notification.NotifyAdmins(ctx, "Refill closed",
		fmt.Sprintf("Refill of %d in tank %s closed with residual %d", entry.Amount, tankName, residual),
		models.NotificationTypeRefillClosed)

	return entry, residual, nil
}

// EntryDetail is a refill with its usage totals.
type EntryDetail struct {
	Entry     models.FuelEntry `json:"entry"`
	Used      int              `json:"used"`
	Remaining int              `json:"remaining"`
}

// GetEntry returns one refill with the amount drawn against it.
func (s *FuelService) GetEntry(ctx context.Context, id uint) (*EntryDetail, error) {
	entry, err := s.repo.FindEntryByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	used, err := s.repo.UsedAgainstEntry(ctx, id)
	if err != nil {
		return nil, err
	}
	return &EntryDetail{
		Entry:     *entry,
		Used:      used,
		Remaining: entry.RemainingAmount(used),
	}, nil
}

// ListEntries lists refills.
func (s *FuelService) ListEntries(ctx context.Context, query *repository.ListQuery) ([]models.FuelEntry, int64, error) {
	return s.repo.ListEntries(ctx, query)
}

// ListUsages lists usages.
func (s *FuelService) ListUsages(ctx context.Context, query *repository.ListQuery) ([]models.FuelUsage, int64, error) {
	return s.repo.ListUsages(ctx, query)
}

// RefillUsages is one refill's slice of a vehicle report.
type RefillUsages struct {
	RefillID *uint              `json:"refill_id"`
	Total    int                `json:"total"`
	Usages   []models.FuelUsage `json:"usages"`
}

// VehicleReport is a vehicle's fuel consumption grouped by the refill each
// draw was booked against.
type VehicleReport struct {
	VehicleID uint           `json:"vehicle_id"`
	Total     int            `json:"total"`
	Refills   []RefillUsages `json:"refills"`
}

// VehicleUsageReport groups a vehicle's usages by refill. Staff only.
func (s *FuelService) VehicleUsageReport(ctx context.Context, actor Actor, vehicleID uint) (*VehicleReport, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if _, err := s.vehicleRepo.FindByID(ctx, vehicleID); err != nil {
		return nil, notFoundOr(err)
	}

	query := repository.NewListQuery()
	query.PerPage = 10000
	query.Filters["vehicle_id"] = itoa(vehicleID)
	usages, _, err := s.repo.ListUsages(ctx, query)
	if err != nil {
		return nil, err
	}

	report := &VehicleReport{VehicleID: vehicleID}
	index := make(map[uint]int)
	for _, usage := range usages {
		report.Total += usage.Amount
		key := uint(0)
		if usage.RefillID != nil {
			key = *usage.RefillID
		}
		i, ok := index[key]
		if !ok {
			i = len(report.Refills)
			index[key] = i
			report.Refills = append(report.Refills, RefillUsages{RefillID: usage.RefillID})
		}
		report.Refills[i].Total += usage.Amount
		report.Refills[i].Usages = append(report.Refills[i].Usages, usage)
	}
	return report, nil
}
