package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// fakeFuelRepo mirrors the transactional fuel repository in memory: levels
// are always derived and the check/reconcile closures run against the
// current state, like they would under the row locks.
type fakeFuelRepo struct {
	mu      sync.Mutex
	tanks   map[uint]*models.FuelTank
	entries []*models.FuelEntry
	usages  []*models.FuelUsage
	audits  []*models.AuditLog
	nextID  uint
}

func newFakeFuelRepo(tanks ...*models.FuelTank) *fakeFuelRepo {
	repo := &fakeFuelRepo{tanks: make(map[uint]*models.FuelTank), nextID: 1}
	for _, t := range tanks {
		repo.tanks[t.ID] = t
	}
	return repo
}

func (r *fakeFuelRepo) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeFuelRepo) level(tankID uint) int {
	level := 0
	for _, e := range r.entries {
		if e.TankID == tankID {
			level += e.Amount
		}
	}
	for _, u := range r.usages {
		if u.TankID == tankID {
			level -= u.Amount
		}
	}
	return level
}

func (r *fakeFuelRepo) open(tankID uint) *models.FuelEntry {
	for _, e := range r.entries {
		if e.TankID == tankID && !e.IsClosed {
			return e
		}
	}
	return nil
}

func (r *fakeFuelRepo) FindTankByID(ctx context.Context, id uint) (*models.FuelTank, error) {
	if t, ok := r.tanks[id]; ok {
		return t, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFuelRepo) CreateTank(ctx context.Context, tank *models.FuelTank) error {
	tank.ID = r.id()
	r.tanks[tank.ID] = tank
	return nil
}

func (r *fakeFuelRepo) UpdateTank(ctx context.Context, tank *models.FuelTank) error {
	r.tanks[tank.ID] = tank
	return nil
}

func (r *fakeFuelRepo) ListTanks(ctx context.Context) ([]models.FuelTank, error) {
	var tanks []models.FuelTank
	for _, t := range r.tanks {
		tanks = append(tanks, *t)
	}
	return tanks, nil
}

func (r *fakeFuelRepo) TankLevel(ctx context.Context, tankID uint) (int, error) {
	return r.level(tankID), nil
}

func (r *fakeFuelRepo) OpenEntry(ctx context.Context, tankID uint) (*models.FuelEntry, error) {
	if open := r.open(tankID); open != nil {
		return open, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFuelRepo) CreateEntry(ctx context.Context, entry *models.FuelEntry, audit func(*models.FuelEntry) *models.AuditLog) error {
	if r.open(entry.TankID) != nil {
		return repository.ErrOpenRefillExists
	}
	entry.ID = r.id()
	r.entries = append(r.entries, entry)
	if audit != nil {
		r.audits = append(r.audits, audit(entry))
	}
	return nil
}

func (r *fakeFuelRepo) RecordUsage(ctx context.Context, usage *models.FuelUsage, check func(int, *models.FuelEntry) error, audit func(*models.FuelUsage) *models.AuditLog) error {
	// Serialized like the tank entry row locks in the real repository:
	// the check closure always sees the level left by the previous writer.
	r.mu.Lock()
	defer r.mu.Unlock()
	open := r.open(usage.TankID)
	if open == nil {
		return repository.ErrNoOpenRefill
	}
	if check != nil {
		if err := check(r.level(usage.TankID), open); err != nil {
			return err
		}
	}
	usage.ID = r.id()
	usage.RefillID = &open.ID
	r.usages = append(r.usages, usage)
	if audit != nil {
		r.audits = append(r.audits, audit(usage))
	}
	return nil
}

func (r *fakeFuelRepo) CloseEntry(ctx context.Context, entryID uint, reconcile func(int) *models.FuelUsage, audit func(*models.FuelEntry, int) *models.AuditLog) (int, error) {
	var entry *models.FuelEntry
	for _, e := range r.entries {
		if e.ID == entryID {
			entry = e
		}
	}
	if entry == nil {
		return 0, gorm.ErrRecordNotFound
	}
	if entry.IsClosed {
		return 0, repository.ErrNoOpenRefill
	}
	residual := r.level(entry.TankID)
	if residual != 0 {
		correction := reconcile(residual)
		correction.ID = r.id()
		correction.TankID = entry.TankID
		correction.RefillID = &entry.ID
		correction.Amount = residual
		r.usages = append(r.usages, correction)
	}
	now := time.Now()
	entry.IsClosed = true
	entry.ClosedAt = &now
	if audit != nil {
		r.audits = append(r.audits, audit(entry, residual))
	}
	return residual, nil
}

func (r *fakeFuelRepo) FindEntryByID(ctx context.Context, id uint) (*models.FuelEntry, error) {
	for _, e := range r.entries {
		if e.ID == id {
			copied := *e
			if t, ok := r.tanks[e.TankID]; ok {
				copied.Tank = t
			}
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeFuelRepo) ListEntries(ctx context.Context, query *repository.ListQuery) ([]models.FuelEntry, int64, error) {
	var entries []models.FuelEntry
	for _, e := range r.entries {
		entries = append(entries, *e)
	}
	return entries, int64(len(entries)), nil
}

func (r *fakeFuelRepo) ListUsages(ctx context.Context, query *repository.ListQuery) ([]models.FuelUsage, int64, error) {
	var usages []models.FuelUsage
	for _, u := range r.usages {
		if vehicleID := query.Filters["vehicle_id"]; vehicleID != "" && vehicleID != itoa(u.VehicleID) {
			continue
		}
		usages = append(usages, *u)
	}
	return usages, int64(len(usages)), nil
}

func (r *fakeFuelRepo) UsedAgainstEntry(ctx context.Context, entryID uint) (int, error) {
	used := 0
	for _, u := range r.usages {
		if u.RefillID != nil && *u.RefillID == entryID {
			used += u.Amount
		}
	}
	return used, nil
}

func newFuelFixture() (*FuelService, *fakeFuelRepo, *capturingNotificationRepo) {
	tank := &models.FuelTank{ID: 100, Name: "Main", Capacity: 2000}
	repo := newFakeFuelRepo(tank)
	repo.nextID = 200

	system := &models.Employee{ID: 50, Name: "SYSTEM", IsActive: true}
	operator := &models.Employee{ID: 51, Name: "Besnik", IsActive: true}
	employees := newFakeEmployeeRepo(system, operator)

	diference := &models.Vehicle{ID: 60, Plate: "DIFERENCE", IsActive: true}
	truck := &models.Vehicle{ID: 61, Plate: "AA123BB", IsActive: true}
	vehicles := newFakeVehicleRepo(diference, truck)

	notifRepo := &capturingNotificationRepo{}
	users := newFakeUserRepo(&models.User{ID: 1, Email: "admin@test.local", Role: models.RoleAdmin, Status: models.StatusActive})
	notifications := NewNotificationService(notifRepo, users)

	audit, _ := newTestAudit()
	svc := NewFuelService(repo, employees, vehicles, notifications, audit, testConfig())
	return svc, repo, notifRepo
}

func TestFuelService_RefillUsageAndClose(t *testing.T) {
	svc, repo, notifications := newFuelFixture()
	ctx := context.Background()
	actor := staffActor()

	entry, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 1000, Supplier: "Kastrati"})
	assert.NoError(t, err)
	assert.Equal(t, models.RefillStatusOpen, entry.Status())

	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 300, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)

	level, err := svc.repo.TankLevel(ctx, 100)
	assert.NoError(t, err)
	assert.Equal(t, 700, level)

	// 700 - 900 = -200, below the -50 floor.
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 900, VehicleID: 61, OperatorID: 51})
	var floorErr *TankFloorError
	assert.ErrorAs(t, err, &floorErr)
	assert.Equal(t, 700, floorErr.Level)

	closed, residual, err := svc.CloseRefill(ctx, actor, entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, 700, residual)
	assert.True(t, closed.IsClosed)
	assert.NotNil(t, closed.ClosedAt)

	// The shortage correction zeroes the level.
	level, _ = svc.repo.TankLevel(ctx, 100)
	assert.Equal(t, 0, level)

	last := repo.usages[len(repo.usages)-1]
	assert.Equal(t, 700, last.Amount)
	assert.Equal(t, models.ReconciliationShortage, last.Project)
	assert.Equal(t, uint(50), last.OperatorID)
	assert.Equal(t, uint(60), last.VehicleID)

	assert.Len(t, notifications.notifications, 1)
}

func TestFuelService_UsageToleranceBoundary(t *testing.T) {
	svc, _, _ := newFuelFixture()
	ctx := context.Background()
	actor := staffActor()

	entry, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 100})
	assert.NoError(t, err)
	_ = entry

	// Down to exactly -50 is allowed.
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 150, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)

	// One more liter is not.
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 1, VehicleID: 61, OperatorID: 51})
	var floorErr *TankFloorError
	assert.ErrorAs(t, err, &floorErr)
}

func TestFuelService_SurplusCorrectionRaisesLevel(t *testing.T) {
	svc, _, _ := newFuelFixture()
	ctx := context.Background()
	actor := staffActor()

	_, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 100})
	assert.NoError(t, err)
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 120, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)

	// A negative usage is a manual surplus correction.
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: -30, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)

	level, _ := svc.repo.TankLevel(ctx, 100)
	assert.Equal(t, 10, level)
}

func TestFuelService_CloseNegativeResidualBooksSurplus(t *testing.T) {
	svc, repo, _ := newFuelFixture()
	ctx := context.Background()
	actor := staffActor()

	entry, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 100})
	assert.NoError(t, err)
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 130, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)

	_, residual, err := svc.CloseRefill(ctx, actor, entry.ID)
	assert.NoError(t, err)
	assert.Equal(t, -30, residual)

	last := repo.usages[len(repo.usages)-1]
	assert.Equal(t, -30, last.Amount)
	assert.Equal(t, models.ReconciliationSurplus, last.Project)

	level, _ := svc.repo.TankLevel(ctx, 100)
	assert.Equal(t, 0, level)
}

func TestFuelService_UsageWithoutOpenRefill(t *testing.T) {
	svc, _, _ := newFuelFixture()
	ctx := context.Background()

	_, err := svc.RecordUsage(ctx, staffActor(), UsageInput{TankID: 100, Amount: 10, VehicleID: 61, OperatorID: 51})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFuelService_SecondOpenRefillRejected(t *testing.T) {
	svc, _, _ := newFuelFixture()
	ctx := context.Background()
	actor := staffActor()

	_, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 100})
	assert.NoError(t, err)

	_, err = svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 200})
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestFuelService_ConcurrentUsagesOnlyOneBreachesFloor(t *testing.T) {
	svc, repo, _ := newFuelFixture()
	ctx := context.Background()
	actor := staffActor()

	_, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 100})
	assert.NoError(t, err)

	// Each draw passes against the starting level; together they breach
	// the -50 floor. Whoever wins the lock lands, the other must see the
	// post-winner level and be rejected.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 90, VehicleID: 61, OperatorID: 51})
		}(i)
	}
	wg.Wait()

	successes := 0
	var floorErr *TankFloorError
	for _, err := range errs {
		if err == nil {
			successes++
			continue
		}
		assert.ErrorAs(t, err, &floorErr)
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 10, repo.level(100))
}

func TestFuelService_CloseTwiceIsNoOp(t *testing.T) {
	svc, repo, _ := newFuelFixture()
	ctx := context.Background()
	actor := staffActor()

	entry, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 100})
	assert.NoError(t, err)
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 100, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)
	_, _, err = svc.CloseRefill(ctx, actor, entry.ID)
	assert.NoError(t, err)
	usagesAfterFirst := len(repo.usages)
	auditsAfterFirst := len(repo.audits)

	// A repeat close succeeds quietly and writes nothing.
	again, residual, err := svc.CloseRefill(ctx, actor, entry.ID)
	assert.NoError(t, err)
	assert.True(t, again.IsClosed)
	assert.Equal(t, 0, residual)
	assert.Len(t, repo.usages, usagesAfterFirst)
	assert.Len(t, repo.audits, auditsAfterFirst)
}

func TestFuelService_CloseFailsWithoutReconciliationEntities(t *testing.T) {
	tank := &models.FuelTank{ID: 100, Name: "Main", Capacity: 2000}
	repo := newFakeFuelRepo(tank)
	repo.nextID = 200

	// No SYSTEM employee, no DIFERENCE vehicle.
	employees := newFakeEmployeeRepo(&models.Employee{ID: 51, Name: "Besnik", IsActive: true})
	vehicles := newFakeVehicleRepo(&models.Vehicle{ID: 61, Plate: "AA123BB", IsActive: true})

	users := newFakeUserRepo()
	notifications := NewNotificationService(&capturingNotificationRepo{}, users)
	audit, _ := newTestAudit()
	svc := NewFuelService(repo, employees, vehicles, notifications, audit, testConfig())

	ctx := context.Background()
	actor := staffActor()
	entry, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 100})
	assert.NoError(t, err)
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 100, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)

	// Even a zero residual close must fail loudly when the configured
	// reconciliation entities are missing.
	_, _, err = svc.CloseRefill(ctx, actor, entry.ID)
	assert.ErrorIs(t, err, ErrMissingReconciliationEntities)
	assert.False(t, repo.open(100).IsClosed)
}

func TestFuelService_PermissionChecks(t *testing.T) {
	svc, _, _ := newFuelFixture()
	ctx := context.Background()
	actor := employeeActor(9)

	_, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 100})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 10, VehicleID: 61, OperatorID: 51})
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.CloseRefill(ctx, actor, 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFuelService_VehicleUsageReportGroupsByRefill(t *testing.T) {
	svc, _, _ := newFuelFixture()
	ctx := context.Background()
	actor := staffActor()

	first, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 1000, Supplier: "Kastrati"})
	assert.NoError(t, err)
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 300, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)
	_, _, err = svc.CloseRefill(ctx, actor, first.ID)
	assert.NoError(t, err)

	second, err := svc.RecordRefill(ctx, actor, RefillInput{TankID: 100, Amount: 500, Supplier: "Kastrati"})
	assert.NoError(t, err)
	_, err = svc.RecordUsage(ctx, actor, UsageInput{TankID: 100, Amount: 200, VehicleID: 61, OperatorID: 51})
	assert.NoError(t, err)

	report, err := svc.VehicleUsageReport(ctx, actor, 61)
	assert.NoError(t, err)
	assert.Equal(t, uint(61), report.VehicleID)
	assert.Equal(t, 500, report.Total)
	assert.Len(t, report.Refills, 2)
	assert.Equal(t, first.ID, *report.Refills[0].RefillID)
	assert.Equal(t, 300, report.Refills[0].Total)
	assert.Equal(t, second.ID, *report.Refills[1].RefillID)
	assert.Equal(t, 200, report.Refills[1].Total)

	// The close-books reconciliation usage lands on the difference
	// vehicle, not on the truck.
	for _, group := range report.Refills {
		for _, usage := range group.Usages {
			assert.Equal(t, uint(61), usage.VehicleID)
		}
	}

	_, err = svc.VehicleUsageReport(ctx, actor, 999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.VehicleUsageReport(ctx, employeeActor(51), 61)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
