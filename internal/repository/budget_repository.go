package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krosit/flota-api/internal/models"
)

// BudgetRepository handles the budget ledger: one lazily created balance
// row per employee, mutated only together with the expense or adjustment
// record that explains the change.
type BudgetRepository interface {
	GetOrCreate(ctx context.Context, employeeID uint) (*models.EmployeeBudget, error)
	ApplyExpense(ctx context.Context, expense *models.Expense, audit func(newBalance int) *models.AuditLog) (*models.EmployeeBudget, error)
	ApplyAdjustment(ctx context.Context, adjustment *models.BudgetAdjustment, audit func(newBalance int) *models.AuditLog) (*models.EmployeeBudget, error)
	ListExpenses(ctx context.Context, employeeID uint, query *ListQuery) ([]models.Expense, int64, error)
	ListAdjustments(ctx context.Context, employeeID uint, query *ListQuery) ([]models.BudgetAdjustment, int64, error)
}

type budgetRepository struct {
	db *gorm.DB
}

// NewBudgetRepository creates a new budget repository.
func NewBudgetRepository(db *gorm.DB) BudgetRepository {
	return &budgetRepository{db: db}
}

// getOrCreateLocked returns the employee's budget row locked FOR UPDATE,
// creating the zero-balance row first if it doesn't exist yet. A concurrent
// creator losing the insert race falls back to locking the winner's row.
func getOrCreateLocked(tx *gorm.DB, employeeID uint) (*models.EmployeeBudget, error) {
	var budget models.EmployeeBudget
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("employee_id = ?", employeeID).
		First(&budget).Error
	if err == nil {
		return &budget, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	budget = models.EmployeeBudget{EmployeeID: employeeID, Balance: 0}
	if err := tx.Create(&budget).Error; err != nil {
		if IsUniqueViolation(err, "") {
			var existing models.EmployeeBudget
			err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("employee_id = ?", employeeID).
				First(&existing).Error
			if err != nil {
				return nil, err
			}
			return &existing, nil
		}
		return nil, err
	}

	// Re-acquire the lock on the freshly inserted row.
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&budget, budget.ID).Error
	if err != nil {
		return nil, err
	}
	return &budget, nil
}

func (r *budgetRepository) GetOrCreate(ctx context.Context, employeeID uint) (*models.EmployeeBudget, error) {
	var budget *models.EmployeeBudget
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := getOrCreateLocked(tx, employeeID)
		if err != nil {
			return err
		}
		budget = b
		return nil
	})
	return budget, err
}

// ApplyExpense records the expense and debits the balance atomically. The
// balance may go negative; expenses track real spending, not a limit.
func (r *budgetRepository) ApplyExpense(ctx context.Context, expense *models.Expense, audit func(newBalance int) *models.AuditLog) (*models.EmployeeBudget, error) {
	var budget *models.EmployeeBudget
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := getOrCreateLocked(tx, expense.EmployeeID)
		if err != nil {
			return err
		}
		if err := tx.Create(expense).Error; err != nil {
			return err
		}
		b.Balance -= expense.Amount
		if err := tx.Model(b).Update("balance", b.Balance).Error; err != nil {
			return err
		}
		if audit != nil {
			if err := tx.Create(audit(b.Balance)).Error; err != nil {
				return err
			}
		}
		budget = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

// ApplyAdjustment records the adjustment and applies its signed delta to
// the balance atomically.
func (r *budgetRepository) ApplyAdjustment(ctx context.Context, adjustment *models.BudgetAdjustment, audit func(newBalance int) *models.AuditLog) (*models.EmployeeBudget, error) {
	var budget *models.EmployeeBudget
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		b, err := getOrCreateLocked(tx, adjustment.EmployeeID)
		if err != nil {
			return err
		}
		if err := tx.Create(adjustment).Error; err != nil {
			return err
		}
		b.Balance += adjustment.Delta()
		if err := tx.Model(b).Update("balance", b.Balance).Error; err != nil {
			return err
		}
		if audit != nil {
			if err := tx.Create(audit(b.Balance)).Error; err != nil {
				return err
			}
		}
		budget = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return budget, nil
}

func (r *budgetRepository) ListExpenses(ctx context.Context, employeeID uint, query *ListQuery) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Expense{}).
		Where("employee_id = ?", employeeID)

	if from, ok := query.Filters["from"]; ok && from != "" {
		db = db.Where("date >= ?", from)
	}
	if to, ok := query.Filters["to"]; ok && to != "" {
		db = db.Where("date <= ?", to)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("date DESC, id DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&expenses).Error
	return expenses, total, err
}

func (r *budgetRepository) ListAdjustments(ctx context.Context, employeeID uint, query *ListQuery) ([]models.BudgetAdjustment, int64, error) {
	var adjustments []models.BudgetAdjustment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.BudgetAdjustment{}).
		Where("employee_id = ?", employeeID)

	if from, ok := query.Filters["from"]; ok && from != "" {
		db = db.Where("date >= ?", from)
	}
	if to, ok := query.Filters["to"]; ok && to != "" {
		db = db.Where("date <= ?", to)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("date DESC, id DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&adjustments).Error
	return adjustments, total, err
}
