package services

import (
	"context"
	"fmt"
	"time"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// BudgetService runs the budget ledger. Each budget-enabled employee has
// one balance row, created lazily at zero; expenses debit it, adjustments
// move it either way, and every mutation commits together with its audit
// record. Balances are allowed to go negative.
type BudgetService struct {
	repo         repository.BudgetRepository
	employeeRepo repository.EmployeeRepository
	audit        *AuditService
}

// NewBudgetService creates a new budget service
func NewBudgetService(repo repository.BudgetRepository, employeeRepo repository.EmployeeRepository, audit *AuditService) *BudgetService {
	return &BudgetService{repo: repo, employeeRepo: employeeRepo, audit: audit}
}

// ExpenseInput is one expense record request.
type ExpenseInput struct {
	EmployeeID  uint       `json:"employee_id" binding:"required"`
	Description string     `json:"description" binding:"required"`
	Amount      int        `json:"amount" binding:"required"`
	Date        *time.Time `json:"date"`
}

// RecordExpense books an expense and debits the employee's balance.
func (s *BudgetService) RecordExpense(ctx context.Context, actor Actor, input ExpenseInput) (*models.Expense, *models.EmployeeBudget, error) {
	if !actor.IsStaff() {
		return nil, nil, ErrUnauthorized
	}
	if input.Amount <= 0 {
		return nil, nil, NewValidationError("amount", "must be positive")
	}
	employee, err := s.budgetEmployee(ctx, input.EmployeeID)
	if err != nil {
		return nil, nil, err
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}
	expense := &models.Expense{
		EmployeeID:  employee.ID,
		Description: input.Description,
		Amount:      input.Amount,
		Date:        date,
	}

	// The closure runs after the expense row is created, so its ID is set.
	budget, err := s.repo.ApplyExpense(ctx, expense, func(newBalance int) *models.AuditLog {
		return s.audit.Entry(actor, models.ActionCreate, "Expense", itoa(expense.ID),
			fmt.Sprintf("expense %d for %s (%s), new balance %d",
				input.Amount, employee.Name, input.Description, newBalance))
	})
	if err != nil {
		return nil, nil, err
	}
	return expense, budget, nil
}

// AdjustmentInput is one manual balance correction request.
type AdjustmentInput struct {
	EmployeeID     uint       `json:"employee_id" binding:"required"`
	AdjustmentType string     `json:"adjustment_type" binding:"required"`
	Amount         int        `json:"amount" binding:"required"`
	Note           string     `json:"note"`
	Date           *time.Time `json:"date"`
}

// Adjust credits or debits the employee's balance. Admin only.
func (s *BudgetService) Adjust(ctx context.Context, actor Actor, input AdjustmentInput) (*models.BudgetAdjustment, *models.EmployeeBudget, error) {
	if !actor.IsAdmin() {
		return nil, nil, ErrUnauthorized
	}
	if input.Amount <= 0 {
		return nil, nil, NewValidationError("amount", "must be positive")
	}
	if input.AdjustmentType != models.AdjustmentAdd && input.AdjustmentType != models.AdjustmentRemove {
		return nil, nil, NewValidationError("adjustment_type", "must be ADD or REMOVE")
	}
	employee, err := s.budgetEmployee(ctx, input.EmployeeID)
	if err != nil {
		return nil, nil, err
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}
	adjustment := &models.BudgetAdjustment{
		EmployeeID:     employee.ID,
		AdjustmentType: input.AdjustmentType,
		Amount:         input.Amount,
		Note:           input.Note,
		Date:           date,
	}

	budget, err := s.repo.ApplyAdjustment(ctx, adjustment, func(newBalance int) *models.AuditLog {
		return s.audit.Entry(actor, models.ActionAdjust, "EmployeeBudget", itoa(employee.ID),
			fmt.Sprintf("%s %d for %s, new balance %d",
				adjustment.AdjustmentType, adjustment.Amount, employee.Name, newBalance))
	})
	if err != nil {
		return nil, nil, err
	}
	return adjustment, budget, nil
}

// Balance returns the employee's budget, creating the zero row on first
// access. Staff can read anyone; an employee actor only themselves.
func (s *BudgetService) Balance(ctx context.Context, actor Actor, employeeID uint) (*models.EmployeeBudget, error) {
	if !s.canRead(ctx, actor, employeeID) {
		return nil, ErrUnauthorized
	}
	if _, err := s.budgetEmployee(ctx, employeeID); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, employeeID)
}

// ListExpenses lists an employee's expenses.
func (s *BudgetService) ListExpenses(ctx context.Context, actor Actor, employeeID uint, query *repository.ListQuery) ([]models.Expense, int64, error) {
	if !s.canRead(ctx, actor, employeeID) {
		return nil, 0, ErrUnauthorized
	}
	return s.repo.ListExpenses(ctx, employeeID, query)
}

// ListAdjustments lists an employee's adjustments. Staff only.
func (s *BudgetService) ListAdjustments(ctx context.Context, actor Actor, employeeID uint, query *repository.ListQuery) ([]models.BudgetAdjustment, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrUnauthorized
	}
	return s.repo.ListAdjustments(ctx, employeeID, query)
}

// budgetEmployee loads the employee and checks the budget module is
// enabled for them.
func (s *BudgetService) budgetEmployee(ctx context.Context, employeeID uint) (*models.Employee, error) {
	employee, err := s.employeeRepo.FindByID(ctx, employeeID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !employee.HaveBudget {
		return nil, NewValidationError("employee_id", "employee has no budget")
	}
	return employee, nil
}

func (s *BudgetService) canRead(ctx context.Context, actor Actor, employeeID uint) bool {
	if actor.IsStaff() {
		return true
	}
	if actor.UserID == nil {
		return false
	}
	employee, err := s.employeeRepo.FindByUserID(ctx, *actor.UserID)
	if err != nil {
		return false
	}
	return employee.ID == employeeID
}
