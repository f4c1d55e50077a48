package services

import (
	"context"
	"fmt"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// EmployeeService handles workforce records.
type EmployeeService struct {
	repo       repository.EmployeeRepository
	budgetRepo repository.BudgetRepository
	audit      *AuditService
}

// NewEmployeeService creates a new employee service
func NewEmployeeService(repo repository.EmployeeRepository, budgetRepo repository.BudgetRepository, audit *AuditService) *EmployeeService {
	return &EmployeeService{repo: repo, budgetRepo: budgetRepo, audit: audit}
}

// EmployeeInput carries the editable employee fields.
type EmployeeInput struct {
	Name       string `json:"name" binding:"required"`
	Position   string `json:"position"`
	Phone      string `json:"phone"`
	HaveBudget *bool  `json:"have_budget"`
	IsActive   *bool  `json:"is_active"`
	UserID     *uint  `json:"user_id"`
}

// Create adds an employee. Staff only.
func (s *EmployeeService) Create(ctx context.Context, actor Actor, input EmployeeInput) (*models.Employee, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	employee := &models.Employee{
		Name:     input.Name,
		Position: input.Position,
		Phone:    input.Phone,
		UserID:   input.UserID,
		IsActive: true,
	}
	if input.HaveBudget != nil {
		employee.HaveBudget = *input.HaveBudget
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}
	if err := s.repo.Create(ctx, employee); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionCreate, "Employee", itoa(employee.ID),
		fmt.Sprintf("created employee %s", employee.Name))
	return employee, nil
}

// Update edits an employee. Staff only.
func (s *EmployeeService) Update(ctx context.Context, actor Actor, id uint, input EmployeeInput) (*models.Employee, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}

	employee.Name = input.Name
	employee.Position = input.Position
	employee.Phone = input.Phone
	if input.UserID != nil {
		employee.UserID = input.UserID
	}
	if input.HaveBudget != nil {
		employee.HaveBudget = *input.HaveBudget
	}
	if input.IsActive != nil {
		employee.IsActive = *input.IsActive
	}

	if err := s.repo.Update(ctx, employee); err != nil {
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionUpdate, "Employee", itoa(employee.ID),
		fmt.Sprintf("updated employee %s", employee.Name))
	return employee, nil
}

// GetByID returns one employee. Staff can read anyone; an employee actor
// only the record linked to their own account.
func (s *EmployeeService) GetByID(ctx context.Context, actor Actor, id uint) (*models.Employee, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !s.canRead(actor, employee) {
		return nil, ErrUnauthorized
	}
	return employee, nil
}

// GetForActor resolves the employee record linked to the acting account.
func (s *EmployeeService) GetForActor(ctx context.Context, actor Actor) (*models.Employee, error) {
	if actor.UserID == nil {
		return nil, ErrUnauthorized
	}
	employee, err := s.repo.FindByUserID(ctx, *actor.UserID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return employee, nil
}

// List returns employees. Staff only.
func (s *EmployeeService) List(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.Employee, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrUnauthorized
	}
	return s.repo.List(ctx, query)
}

// ListWithBudget returns active budget-enabled employees with their
// balances. Staff only.
func (s *EmployeeService) ListWithBudget(ctx context.Context, actor Actor) ([]models.Employee, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	return s.repo.ListWithBudget(ctx)
}

func (s *EmployeeService) canRead(actor Actor, employee *models.Employee) bool {
	if actor.IsStaff() {
		return true
	}
	return actor.UserID != nil && employee.UserID != nil && *actor.UserID == *employee.UserID
}
