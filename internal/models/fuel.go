package models

import (
	"time"
)

// FuelTank is a physical fuel depot. Its level is never stored: it is
// always derived as sum(entries) - sum(usages) so concurrent writers can't
// leave a stale cached value behind.
type FuelTank struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"size:50;not null" json:"name"`
	Capacity int    `gorm:"not null" json:"capacity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Entries []FuelEntry `gorm:"foreignKey:TankID" json:"entries,omitempty"`
}

// TableName specifies the table name for FuelTank
func (FuelTank) TableName() string {
	return "fuel_tanks"
}

// Refill status values (FuelEntry lifecycle)
const (
	RefillStatusOpen   = "open"
	RefillStatusClosed = "closed"
)

// FuelEntry is one refill delivered into a tank. A tank has at most one
// open entry at a time (backed by a partial unique index); usages recorded
// while it is open are bound to it. Closing is terminal.
type FuelEntry struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	TankID   uint      `gorm:"not null;index" json:"tank_id"`
	Date     time.Time `gorm:"not null" json:"date"`
	Amount   int       `gorm:"not null" json:"amount"`
	Supplier string    `gorm:"size:100" json:"supplier"`

	IsClosed bool       `gorm:"not null;default:false" json:"is_closed"`
	ClosedAt *time.Time `json:"closed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`

	// Associations
	Tank   *FuelTank   `gorm:"foreignKey:TankID" json:"tank,omitempty"`
	Usages []FuelUsage `gorm:"foreignKey:RefillID" json:"usages,omitempty"`
}

// TableName specifies the table name for FuelEntry
func (FuelEntry) TableName() string {
	return "fuel_entries"
}

// Status reports the lifecycle state of the refill
func (e *FuelEntry) Status() string {
	if e.IsClosed {
		return RefillStatusClosed
	}
	return RefillStatusOpen
}

// RemainingAmount is what is left of this refill given the liters already
// drawn against it, floored at zero.
func (e *FuelEntry) RemainingAmount(used int) int {
	remaining := e.Amount - used
	if remaining < 0 {
		return 0
	}
	return remaining
}

// Reconciliation note values stamped on auto-created usages when a refill
// closes with a nonzero residual level.
const (
	ReconciliationShortage = "shortage"
	ReconciliationSurplus  = "surplus"
)

// FuelUsage is one draw from a tank. Amount may be negative: a negative
// usage is a manual surplus correction. RefillID points at the entry that
// was open when the usage was recorded, and is kept (SET NULL) if that
// entry is ever deleted.
type FuelUsage struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TankID     uint      `gorm:"not null;index" json:"tank_id"`
	Date       time.Time `gorm:"not null" json:"date"`
	Amount     int       `gorm:"not null" json:"amount"`
	VehicleID  uint      `gorm:"not null;index" json:"vehicle_id"`
	OperatorID uint      `gorm:"not null;index" json:"operator_id"`
	RefillID   *uint     `gorm:"index" json:"refill_id,omitempty"`
	Project    string    `gorm:"size:100" json:"project"`

	CreatedAt time.Time `json:"created_at"`

	// Associations
	Tank     *FuelTank  `gorm:"foreignKey:TankID" json:"tank,omitempty"`
	Vehicle  *Vehicle   `gorm:"foreignKey:VehicleID" json:"vehicle,omitempty"`
	Operator *Employee  `gorm:"foreignKey:OperatorID" json:"operator,omitempty"`
	Refill   *FuelEntry `gorm:"foreignKey:RefillID;constraint:OnDelete:SET NULL" json:"refill,omitempty"`
}

// TableName specifies the table name for FuelUsage
func (FuelUsage) TableName() string {
	return "fuel_usages"
}

// ReconciliationNote returns the project note for a close-time residual:
// a positive residual means fuel is missing (shortage), a negative one
// that more was metered out than used (surplus).
func ReconciliationNote(residual int) string {
	if residual < 0 {
		return ReconciliationSurplus
	}
	return ReconciliationShortage
}
