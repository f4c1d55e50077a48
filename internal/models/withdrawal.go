package models

import (
	"time"
)

// WithdrawalHeader groups the lines of one stock withdrawal by an employee
type WithdrawalHeader struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GUID       string    `gorm:"size:36;index" json:"guid"`
	EmployeeID uint      `gorm:"not null;index" json:"employee_id"`
	Date       time.Time `gorm:"not null" json:"date"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`

	// Associations
	Employee *Employee        `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Items    []WithdrawalItem `gorm:"foreignKey:HeaderID" json:"items,omitempty"`
}

// TableName specifies the table name for WithdrawalHeader
func (WithdrawalHeader) TableName() string {
	return "withdrawal_headers"
}

// WithdrawalItem is one product line of a withdrawal. The outstanding
// (not yet returned) quantity is never stored; it is recomputed from the
// associated return items so it can't drift.
type WithdrawalItem struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	HeaderID  uint `gorm:"not null;index" json:"header_id"`
	ProductID uint `gorm:"not null;index" json:"product_id"`
	Quantity  int  `gorm:"not null" json:"quantity"`

	// Associations
	Header  *WithdrawalHeader `gorm:"foreignKey:HeaderID" json:"header,omitempty"`
	Product *Product          `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Returns []ReturnItem      `gorm:"foreignKey:WithdrawalItemID" json:"returns,omitempty"`
}

// TableName specifies the table name for WithdrawalItem
func (WithdrawalItem) TableName() string {
	return "withdrawal_items"
}

// OutstandingQty is the quantity still out on loan given the total already
// returned. Never negative for committed data: returns exceeding the
// outstanding quantity are rejected at creation time.
func (w *WithdrawalItem) OutstandingQty(returned int) int {
	return w.Quantity - returned
}

// ReturnHeader groups the lines of one stock return by an employee
type ReturnHeader struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	GUID       string    `gorm:"size:36;index" json:"guid"`
	EmployeeID uint      `gorm:"not null;index" json:"employee_id"`
	Date       time.Time `gorm:"not null" json:"date"`
	Notes      string    `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time `json:"created_at"`

	// Associations
	Employee *Employee    `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
	Items    []ReturnItem `gorm:"foreignKey:HeaderID" json:"items,omitempty"`
}

// TableName specifies the table name for ReturnHeader
func (ReturnHeader) TableName() string {
	return "return_headers"
}

// ReturnItem returns part or all of one withdrawal line back into stock
type ReturnItem struct {
	ID               uint `gorm:"primaryKey" json:"id"`
	HeaderID         uint `gorm:"not null;index" json:"header_id"`
	WithdrawalItemID uint `gorm:"not null;index" json:"withdrawal_item_id"`
	Quantity         int  `gorm:"not null" json:"quantity"`

	// Associations
	Header         *ReturnHeader   `gorm:"foreignKey:HeaderID" json:"header,omitempty"`
	WithdrawalItem *WithdrawalItem `gorm:"foreignKey:WithdrawalItemID" json:"withdrawal_item,omitempty"`
}

// TableName specifies the table name for ReturnItem
func (ReturnItem) TableName() string {
	return "return_items"
}

// WithdrawalLine is a caller-submitted line of a withdrawal request
type WithdrawalLine struct {
	ProductID uint `json:"product_id" binding:"required"`
	Quantity  int  `json:"quantity" binding:"required"`
}

// ReturnLine is a caller-submitted line of a return request
type ReturnLine struct {
	WithdrawalItemID uint `json:"withdrawal_item_id" binding:"required"`
	Quantity         int  `json:"quantity" binding:"required"`
}

// OutstandingItem is a withdrawal line annotated with its live outstanding
// quantity, used by the returnables views.
type OutstandingItem struct {
	WithdrawalItem
	ReturnedQty    int `json:"returned_qty"`
	OutstandingQty int `json:"outstanding_qty"`
}

// ProductHolder aggregates how much of a product an employee still holds.
type ProductHolder struct {
	EmployeeID     uint   `json:"employee_id"`
	EmployeeName   string `json:"employee_name"`
	OutstandingQty int    `json:"outstanding_qty"`
}
