package models

import (
	"time"
)

// Audit action constants
const (
	ActionCreate   = "CREATE"
	ActionUpdate   = "UPDATE"
	ActionDelete   = "DELETE"
	ActionAdd      = "ADD"
	ActionAdjust   = "ADJUST"
	ActionWithdraw = "WITHDRAW"
	ActionReturn   = "RETURN"
	ActionExport   = "EXPORT"
	ActionLogin    = "LOGIN"
	ActionLogout   = "LOGOUT"
)

// AuditLog is an append-only record of a mutating action. It is written in
// the same transaction as the mutation it describes and never updated or
// deleted by the application. UserID is nulled if the acting user is ever
// deleted; EntityID is a plain string so the record outlives the entity.
type AuditLog struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      *uint     `gorm:"index" json:"user_id,omitempty"`
	Action      string    `gorm:"size:20;not null;index" json:"action"`
	Entity      string    `gorm:"size:100;not null;index" json:"entity"`
	EntityID    string    `gorm:"size:50" json:"entity_id"`
	Description string    `gorm:"type:text" json:"description"`
	IPAddress   string    `gorm:"size:45" json:"ip_address"`
	CreatedAt   time.Time `gorm:"index" json:"created_at"`

	// Associations
	User *User `gorm:"foreignKey:UserID;constraint:OnDelete:SET NULL" json:"user,omitempty"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}
