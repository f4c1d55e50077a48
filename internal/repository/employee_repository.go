package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/krosit/flota-api/internal/models"
)

// EmployeeRepository handles employee data access.
type EmployeeRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Employee, error)
	FindByUserID(ctx context.Context, userID uint) (*models.Employee, error)
	FindByName(ctx context.Context, name string) (*models.Employee, error)
	Create(ctx context.Context, employee *models.Employee) error
	Update(ctx context.Context, employee *models.Employee) error
	List(ctx context.Context, query *ListQuery) ([]models.Employee, int64, error)
	ListWithBudget(ctx context.Context) ([]models.Employee, error)
}

type employeeRepository struct {
	db *gorm.DB
}

// NewEmployeeRepository creates a new employee repository.
func NewEmployeeRepository(db *gorm.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) FindByID(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).Preload("User").First(&employee, id).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) FindByUserID(ctx context.Context, userID uint) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByName matches the employee name case-insensitively. Reconciliation
// relies on this to resolve the configured system operator.
func (r *employeeRepository) FindByName(ctx context.Context, name string) (*models.Employee, error) {
	var employee models.Employee
	err := r.db.WithContext(ctx).
		Where("LOWER(name) = ?", strings.ToLower(name)).
		First(&employee).Error
	if err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) Create(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

func (r *employeeRepository) Update(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Save(employee).Error
}

func (r *employeeRepository) List(ctx context.Context, query *ListQuery) ([]models.Employee, int64, error) {
	var employees []models.Employee
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Employee{})

	if query.Search != "" {
		term := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(position) LIKE ?", term, term)
	}
	if active, ok := query.Filters["active"]; ok && active != "" {
		db = db.Where("is_active = ?", active == "true")
	}
	if hb, ok := query.Filters["have_budget"]; ok && hb != "" {
		db = db.Where("have_budget = ?", hb == "true")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("User").Preload("Budget").
		Order("name ASC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&employees).Error
	return employees, total, err
}

func (r *employeeRepository) ListWithBudget(ctx context.Context) ([]models.Employee, error) {
	var employees []models.Employee
	err := r.db.WithContext(ctx).
		Preload("Budget").
		Where("have_budget = true AND is_active = true").
		Order("name ASC").
		Find(&employees).Error
	return employees, err
}
