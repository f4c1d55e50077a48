package services

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/krosit/flota-api/internal/config"
	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// Shared test fixtures: capturing audit repo, in-memory employee and
// vehicle repos, and actors for each role.

func testConfig() *config.Config {
	return &config.Config{
		Environment:             "test",
		JWTSecret:               "test-secret",
		JWTExpirationHours:      24,
		MaxNegativeLiters:       50,
		FuelSystemOperator:      "SYSTEM",
		FuelReconciliationPlate: "DIFERENCE",
		VehicleAlertDays:        30,
	}
}

func adminActor() Actor {
	id := uint(1)
	return Actor{UserID: &id, Email: "admin@test.local", Role: models.RoleAdmin, IP: "127.0.0.1"}
}

func staffActor() Actor {
	id := uint(2)
	return Actor{UserID: &id, Email: "staff@test.local", Role: models.RoleStaff, IP: "127.0.0.1"}
}

func employeeActor(userID uint) Actor {
	return Actor{UserID: &userID, Email: "employee@test.local", Role: models.RoleEmployee, IP: "127.0.0.1"}
}

// capturingAuditRepo stores audit records in memory.
type capturingAuditRepo struct {
	logs []models.AuditLog
}

func (r *capturingAuditRepo) Create(ctx context.Context, log *models.AuditLog) error {
	r.logs = append(r.logs, *log)
	return nil
}

func (r *capturingAuditRepo) List(ctx context.Context, query *repository.ListQuery) ([]models.AuditLog, int64, error) {
	return r.logs, int64(len(r.logs)), nil
}

func (r *capturingAuditRepo) actions() []string {
	actions := make([]string, 0, len(r.logs))
	for _, log := range r.logs {
		actions = append(actions, log.Action)
	}
	return actions
}

func newTestAudit() (*AuditService, *capturingAuditRepo) {
	repo := &capturingAuditRepo{}
	return NewAuditService(repo), repo
}

// fakeEmployeeRepo is an in-memory employee repository.
type fakeEmployeeRepo struct {
	repository.EmployeeRepository
	employees map[uint]*models.Employee
}

func newFakeEmployeeRepo(employees ...*models.Employee) *fakeEmployeeRepo {
	repo := &fakeEmployeeRepo{employees: make(map[uint]*models.Employee)}
	for _, e := range employees {
		repo.employees[e.ID] = e
	}
	return repo
}

func (r *fakeEmployeeRepo) FindByID(ctx context.Context, id uint) (*models.Employee, error) {
	if e, ok := r.employees[id]; ok {
		return e, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEmployeeRepo) FindByUserID(ctx context.Context, userID uint) (*models.Employee, error) {
	for _, e := range r.employees {
		if e.UserID != nil && *e.UserID == userID {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEmployeeRepo) FindByName(ctx context.Context, name string) (*models.Employee, error) {
	for _, e := range r.employees {
		if strings.EqualFold(e.Name, name) {
			return e, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// fakeVehicleRepo is an in-memory vehicle repository.
type fakeVehicleRepo struct {
	repository.VehicleRepository
	vehicles map[uint]*models.Vehicle
}

func newFakeVehicleRepo(vehicles ...*models.Vehicle) *fakeVehicleRepo {
	repo := &fakeVehicleRepo{vehicles: make(map[uint]*models.Vehicle)}
	for _, v := range vehicles {
		repo.vehicles[v.ID] = v
	}
	return repo
}

func (r *fakeVehicleRepo) FindByID(ctx context.Context, id uint) (*models.Vehicle, error) {
	if v, ok := r.vehicles[id]; ok {
		return v, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeVehicleRepo) FindByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	for _, v := range r.vehicles {
		if strings.EqualFold(v.Plate, plate) {
			return v, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

// capturingNotificationRepo stores notifications in memory.
type capturingNotificationRepo struct {
	repository.NotificationRepository
	notifications []models.Notification
}

func (r *capturingNotificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	r.notifications = append(r.notifications, *notification)
	return nil
}

func (r *capturingNotificationRepo) CreateBatch(ctx context.Context, notifications []models.Notification) error {
	r.notifications = append(r.notifications, notifications...)
	return nil
}

// fakeUserRepo is an in-memory user repository.
type fakeUserRepo struct {
	repository.UserRepository
	users map[uint]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uint]*models.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeUserRepo) FindAdmins(ctx context.Context) ([]models.User, error) {
	var admins []models.User
	for _, u := range r.users {
		if u.Role == models.RoleAdmin && u.IsActive() {
			admins = append(admins, *u)
		}
	}
	return admins, nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) error {
	r.users[user.ID] = user
	return nil
}
