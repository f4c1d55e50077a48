package models

import (
	"time"
)

// Depot is a storage location that owns products
type Depot struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"size:200;uniqueIndex;not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Products []Product `gorm:"foreignKey:DepotID" json:"products,omitempty"`
}

// TableName specifies the table name for Depot
func (Depot) TableName() string {
	return "depots"
}
