package models

import (
	"time"
)

// EmployeeBudget is the single budget row of a budget-enabled employee.
// It is created lazily on first access with a zero balance. The balance
// may go negative: expenses record real-world spending after the fact,
// they don't enforce a limit.
type EmployeeBudget struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	EmployeeID uint      `gorm:"not null;uniqueIndex" json:"employee_id"`
	Balance    int       `gorm:"not null;default:0" json:"balance"`
	UpdatedAt  time.Time `json:"updated_at"`

	// Associations
	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// TableName specifies the table name for EmployeeBudget
func (EmployeeBudget) TableName() string {
	return "employee_budgets"
}

// Expense is an immutable record of money spent by an employee. Creating
// one debits the employee's budget by Amount.
type Expense struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	EmployeeID  uint      `gorm:"not null;index" json:"employee_id"`
	Description string    `gorm:"size:255;not null" json:"description"`
	Amount      int       `gorm:"not null" json:"amount"`
	Date        time.Time `gorm:"not null" json:"date"`
	CreatedAt   time.Time `json:"created_at"`

	// Associations
	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// TableName specifies the table name for Expense
func (Expense) TableName() string {
	return "expenses"
}

// Adjustment type constants
const (
	AdjustmentAdd    = "ADD"
	AdjustmentRemove = "REMOVE"
)

// BudgetAdjustment is an immutable manual correction to a budget: ADD
// credits the balance by Amount, REMOVE debits it.
type BudgetAdjustment struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	EmployeeID     uint      `gorm:"not null;index" json:"employee_id"`
	AdjustmentType string    `gorm:"size:10;not null;default:ADD" json:"adjustment_type"`
	Amount         int       `gorm:"not null" json:"amount"`
	Date           time.Time `gorm:"not null" json:"date"`
	Note           string    `gorm:"size:255" json:"note"`
	CreatedAt      time.Time `json:"created_at"`

	// Associations
	Employee *Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// TableName specifies the table name for BudgetAdjustment
func (BudgetAdjustment) TableName() string {
	return "budget_adjustments"
}

// Delta is the signed effect of the adjustment on the balance
func (a *BudgetAdjustment) Delta() int {
	if a.AdjustmentType == AdjustmentAdd {
		return a.Amount
	}
	return -a.Amount
}
