package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// StockService runs the stock ledger: withdrawals hand products to an
// employee, returns bring returnable items back. Each operation is
// all-or-nothing across its lines and audited per line inside the same
// transaction.
type StockService struct {
	repo         repository.WithdrawalRepository
	employeeRepo repository.EmployeeRepository
	audit        *AuditService
}

// NewStockService creates a new stock service
func NewStockService(repo repository.WithdrawalRepository, employeeRepo repository.EmployeeRepository, audit *AuditService) *StockService {
	return &StockService{
		repo:         repo,
		employeeRepo: employeeRepo,
		audit:        audit,
	}
}

// WithdrawInput is one withdrawal request.
type WithdrawInput struct {
	EmployeeID uint                    `json:"employee_id" binding:"required"`
	Date       *time.Time              `json:"date"`
	Notes      string                  `json:"notes"`
	Lines      []models.WithdrawalLine `json:"lines" binding:"required,min=1,dive"`
}

// Withdraw hands the requested products to the employee. Every line is
// checked against the live stock under a row lock; if any line cannot be
// fulfilled the whole withdrawal is rejected.
func (s *StockService) Withdraw(ctx context.Context, actor Actor, input WithdrawInput) (*models.WithdrawalHeader, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if len(input.Lines) == 0 {
		return nil, NewValidationError("lines", "at least one line is required")
	}
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, NewValidationError("quantity", "must be positive")
		}
	}

	employee, err := s.employeeRepo.FindByID(ctx, input.EmployeeID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !employee.IsActive {
		return nil, NewValidationError("employee_id", "employee is inactive")
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}
	header := &models.WithdrawalHeader{
		GUID:       uuid.NewString(),
		EmployeeID: employee.ID,
		Date:       date,
		Notes:      input.Notes,
	}

	err = s.repo.CreateWithdrawal(ctx, header, input.Lines, func(product *models.Product, item *models.WithdrawalItem) *models.AuditLog {
		return s.audit.Entry(actor, models.ActionWithdraw, "Product", itoa(product.ID),
			fmt.Sprintf("withdrew %d %s of %s for %s, remaining %d",
				item.Quantity, product.Unit, product.Name, employee.Name, product.Quantity))
	})
	if err != nil {
		return nil, notFoundOr(err)
	}
	header.Employee = employee
	return header, nil
}

// ReturnInput is one return request.
type ReturnInput struct {
	EmployeeID uint                `json:"employee_id" binding:"required"`
	Date       *time.Time          `json:"date"`
	Notes      string              `json:"notes"`
	Lines      []models.ReturnLine `json:"lines" binding:"required,min=1,dive"`
}

// Return books returnable items back into stock. Each line must reference
// a withdrawal item of the same employee, be a returnable product, and not
// exceed the live outstanding quantity.
func (s *StockService) Return(ctx context.Context, actor Actor, input ReturnInput) (*models.ReturnHeader, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if len(input.Lines) == 0 {
		return nil, NewValidationError("lines", "at least one line is required")
	}

	employee, err := s.employeeRepo.FindByID(ctx, input.EmployeeID)
	if err != nil {
		return nil, notFoundOr(err)
	}

	// Withdrawal items are immutable, so ownership and returnability can
	// be validated up front; only the outstanding check needs the lock.
	for _, line := range input.Lines {
		if line.Quantity <= 0 {
			return nil, NewValidationError("quantity", "must be positive")
		}
		item, err := s.repo.FindItemByID(ctx, line.WithdrawalItemID)
		if err != nil {
			return nil, notFoundOr(err)
		}
		if item.Header == nil || item.Header.EmployeeID != employee.ID {
			return nil, NewValidationError("withdrawal_item_id", "does not belong to this employee")
		}
		if item.Product == nil || !item.Product.IsReturnable() {
			return nil, NewValidationError("withdrawal_item_id", "product is not returnable")
		}
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}
	header := &models.ReturnHeader{
		GUID:       uuid.NewString(),
		EmployeeID: employee.ID,
		Date:       date,
		Notes:      input.Notes,
	}

	err = s.repo.CreateReturn(ctx, header, input.Lines, func(product *models.Product, item *models.ReturnItem) *models.AuditLog {
		return s.audit.Entry(actor, models.ActionReturn, "Product", itoa(product.ID),
			fmt.Sprintf("returned %d %s of %s from %s, new quantity %d",
				item.Quantity, product.Unit, product.Name, employee.Name, product.Quantity))
	})
	if err != nil {
		return nil, notFoundOr(err)
	}
	header.Employee = employee
	return header, nil
}

// GetWithdrawal returns one withdrawal with its lines. Staff can read any;
// an employee actor only their own.
func (s *StockService) GetWithdrawal(ctx context.Context, actor Actor, id uint) (*models.WithdrawalHeader, error) {
	header, err := s.repo.FindHeaderByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !s.canReadEmployee(ctx, actor, header.EmployeeID) {
		return nil, ErrUnauthorized
	}
	return header, nil
}

// GetReturn returns one return with its lines.
func (s *StockService) GetReturn(ctx context.Context, actor Actor, id uint) (*models.ReturnHeader, error) {
	header, err := s.repo.FindReturnHeaderByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if !s.canReadEmployee(ctx, actor, header.EmployeeID) {
		return nil, ErrUnauthorized
	}
	return header, nil
}

// ListWithdrawals lists withdrawals. Staff only.
func (s *StockService) ListWithdrawals(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.WithdrawalHeader, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrUnauthorized
	}
	return s.repo.ListWithdrawals(ctx, query)
}

// ListReturns lists returns. Staff only.
func (s *StockService) ListReturns(ctx context.Context, actor Actor, query *repository.ListQuery) ([]models.ReturnHeader, int64, error) {
	if !actor.IsStaff() {
		return nil, 0, ErrUnauthorized
	}
	return s.repo.ListReturns(ctx, query)
}

// Outstanding lists an employee's returnable lines still out on loan with
// live counts. Staff can read anyone; an employee actor only themselves.
func (s *StockService) Outstanding(ctx context.Context, actor Actor, employeeID uint) ([]models.OutstandingItem, error) {
	if !s.canReadEmployee(ctx, actor, employeeID) {
		return nil, ErrUnauthorized
	}
	return s.repo.OutstandingForEmployee(ctx, employeeID)
}

// ProductHolders lists who still holds how much of a product. Staff only.
func (s *StockService) ProductHolders(ctx context.Context, actor Actor, productID uint) ([]models.ProductHolder, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	return s.repo.HoldersForProduct(ctx, productID)
}

func (s *StockService) canReadEmployee(ctx context.Context, actor Actor, employeeID uint) bool {
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
