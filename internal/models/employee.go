package models

import (
	"time"
)

// Employee is a member of the workforce. Employees exist independently of
// user accounts; UserID links an employee to the account it may sign in
// with, and is nulled (not cascaded) when the account is deleted.
type Employee struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	UserID   *uint   `gorm:"index" json:"user_id,omitempty"`
	Name     string  `gorm:"size:200;not null" json:"name"`
	Position string  `gorm:"size:200" json:"position"`
	Phone    string  `gorm:"size:50" json:"phone"`

	// HaveBudget gates access to the expense/budget module
	HaveBudget bool `gorm:"default:false" json:"have_budget"`
	IsActive   bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	User   *User           `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
	Budget *EmployeeBudget `gorm:"foreignKey:EmployeeID" json:"budget,omitempty"`
}

// TableName specifies the table name for Employee
func (Employee) TableName() string {
	return "employees"
}

// EmployeeResponse is the JSON response format for employees
type EmployeeResponse struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	Position   string `json:"position"`
	Phone      string `json:"phone"`
	HaveBudget bool   `json:"have_budget"`
	IsActive   bool   `json:"is_active"`
	Balance    *int   `json:"balance,omitempty"`
}

// ToResponse converts Employee to EmployeeResponse
func (e *Employee) ToResponse() EmployeeResponse {
	resp := EmployeeResponse{
		ID:         e.ID,
		Name:       e.Name,
		Position:   e.Position,
		Phone:      e.Phone,
		HaveBudget: e.HaveBudget,
		IsActive:   e.IsActive,
	}
	if e.Budget != nil {
		balance := e.Budget.Balance
		resp.Balance = &balance
	}
	return resp
}
