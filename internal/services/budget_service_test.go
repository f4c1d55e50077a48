package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// fakeBudgetRepo mirrors the transactional budget repository in memory:
// the balance row is created lazily and mutated together with the record
// and the audit entry.
type fakeBudgetRepo struct {
	budgets     map[uint]*models.EmployeeBudget
	expenses    []*models.Expense
	adjustments []*models.BudgetAdjustment
	audits      []*models.AuditLog
	nextID      uint
}

func newFakeBudgetRepo() *fakeBudgetRepo {
	return &fakeBudgetRepo{budgets: make(map[uint]*models.EmployeeBudget), nextID: 1}
}

func (r *fakeBudgetRepo) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeBudgetRepo) getOrCreate(employeeID uint) *models.EmployeeBudget {
	if b, ok := r.budgets[employeeID]; ok {
		return b
	}
	b := &models.EmployeeBudget{ID: r.id(), EmployeeID: employeeID, Balance: 0}
	r.budgets[employeeID] = b
	return b
}

func (r *fakeBudgetRepo) GetOrCreate(ctx context.Context, employeeID uint) (*models.EmployeeBudget, error) {
	return r.getOrCreate(employeeID), nil
}

func (r *fakeBudgetRepo) ApplyExpense(ctx context.Context, expense *models.Expense, audit func(int) *models.AuditLog) (*models.EmployeeBudget, error) {
	budget := r.getOrCreate(expense.EmployeeID)
	expense.ID = r.id()
	r.expenses = append(r.expenses, expense)
	budget.Balance -= expense.Amount
	if audit != nil {
		r.audits = append(r.audits, audit(budget.Balance))
	}
	return budget, nil
}

func (r *fakeBudgetRepo) ApplyAdjustment(ctx context.Context, adjustment *models.BudgetAdjustment, audit func(int) *models.AuditLog) (*models.EmployeeBudget, error) {
	budget := r.getOrCreate(adjustment.EmployeeID)
	adjustment.ID = r.id()
	r.adjustments = append(r.adjustments, adjustment)
	budget.Balance += adjustment.Delta()
	if audit != nil {
		r.audits = append(r.audits, audit(budget.Balance))
	}
	return budget, nil
}

func (r *fakeBudgetRepo) ListExpenses(ctx context.Context, employeeID uint, query *repository.ListQuery) ([]models.Expense, int64, error) {
	var expenses []models.Expense
	for _, e := range r.expenses {
		if e.EmployeeID == employeeID {
			expenses = append(expenses, *e)
		}
	}
	return expenses, int64(len(expenses)), nil
}

func (r *fakeBudgetRepo) ListAdjustments(ctx context.Context, employeeID uint, query *repository.ListQuery) ([]models.BudgetAdjustment, int64, error) {
	var adjustments []models.BudgetAdjustment
	for _, a := range r.adjustments {
		if a.EmployeeID == employeeID {
			adjustments = append(adjustments, *a)
		}
	}
	return adjustments, int64(len(adjustments)), nil
}

func newBudgetFixture() (*BudgetService, *fakeBudgetRepo) {
	userID := uint(7)
	repo := newFakeBudgetRepo()
	employees := newFakeEmployeeRepo(
		&models.Employee{ID: 10, Name: "Arben", HaveBudget: true, IsActive: true, UserID: &userID},
		&models.Employee{ID: 11, Name: "Driton", HaveBudget: false, IsActive: true},
	)
	audit, _ := newTestAudit()
	return NewBudgetService(repo, employees, audit), repo
}

func TestBudgetService_FirstAccessCreatesZeroBalance(t *testing.T) {
	svc, _ := newBudgetFixture()

	budget, err := svc.Balance(context.Background(), staffActor(), 10)
	assert.NoError(t, err)
	assert.Equal(t, 0, budget.Balance)
}

func TestBudgetService_ExpenseDebitsBalance(t *testing.T) {
	svc, repo := newBudgetFixture()
	ctx := context.Background()

	expense, budget, err := svc.RecordExpense(ctx, staffActor(), ExpenseInput{
		EmployeeID: 10, Description: "tools", Amount: 300,
	})
	assert.NoError(t, err)
	assert.Equal(t, -300, budget.Balance)
	assert.NotZero(t, expense.ID)

	// Negative balances are allowed; a second expense digs deeper.
	_, budget, err = svc.RecordExpense(ctx, staffActor(), ExpenseInput{
		EmployeeID: 10, Description: "fuel", Amount: 200,
	})
	assert.NoError(t, err)
	assert.Equal(t, -500, budget.Balance)

	// Every mutation carried its audit record, pointing at the expense row.
	assert.Len(t, repo.audits, 2)
	assert.Equal(t, "Expense", repo.audits[0].Entity)
	assert.Equal(t, itoa(expense.ID), repo.audits[0].EntityID)
}

func TestBudgetService_AdjustmentsMoveBalanceBothWays(t *testing.T) {
	svc, _ := newBudgetFixture()
	ctx := context.Background()

	_, budget, err := svc.Adjust(ctx, adminActor(), AdjustmentInput{
		EmployeeID: 10, AdjustmentType: models.AdjustmentAdd, Amount: 1000,
	})
	assert.NoError(t, err)
	assert.Equal(t, 1000, budget.Balance)

	_, budget, err = svc.Adjust(ctx, adminActor(), AdjustmentInput{
		EmployeeID: 10, AdjustmentType: models.AdjustmentRemove, Amount: 400,
	})
	assert.NoError(t, err)
	assert.Equal(t, 600, budget.Balance)
}

func TestBudgetService_AdjustmentRequiresAdmin(t *testing.T) {
	svc, _ := newBudgetFixture()

	_, _, err := svc.Adjust(context.Background(), staffActor(), AdjustmentInput{
		EmployeeID: 10, AdjustmentType: models.AdjustmentAdd, Amount: 100,
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestBudgetService_RejectsNonBudgetEmployee(t *testing.T) {
	svc, _ := newBudgetFixture()

	_, _, err := svc.RecordExpense(context.Background(), staffActor(), ExpenseInput{
		EmployeeID: 11, Description: "tools", Amount: 100,
	})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)
}

func TestBudgetService_RejectsBadInput(t *testing.T) {
	svc, _ := newBudgetFixture()
	ctx := context.Background()

	_, _, err := svc.RecordExpense(ctx, staffActor(), ExpenseInput{
		EmployeeID: 10, Description: "tools", Amount: -5,
	})
	var validationErr *ValidationError
	assert.ErrorAs(t, err, &validationErr)

	_, _, err = svc.Adjust(ctx, adminActor(), AdjustmentInput{
		EmployeeID: 10, AdjustmentType: "SOMETHING", Amount: 100,
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestBudgetService_EmployeeReadsOwnBalanceOnly(t *testing.T) {
	svc, _ := newBudgetFixture()
	ctx := context.Background()

	// User 7 is linked to employee 10.
	_, err := svc.Balance(ctx, employeeActor(7), 10)
	assert.NoError(t, err)

	_, err = svc.Balance(ctx, employeeActor(7), 11)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, _, err = svc.RecordExpense(ctx, employeeActor(7), ExpenseInput{
		EmployeeID: 10, Description: "tools", Amount: 50,
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}
