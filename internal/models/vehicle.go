package models

import (
	"time"
)

// Vehicle represents a fleet vehicle with its administrative document dates.
// The date fields record when each document falls due; a background job
// alerts admins when any of them approaches.
type Vehicle struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Plate       string `gorm:"size:50;uniqueIndex;not null" json:"plate"`
	Chassis     string `gorm:"size:50" json:"chassis"`
	Description string `gorm:"size:100" json:"description"`

	Insurance          *time.Time `json:"insurance,omitempty"`
	YearlyTaxes        *time.Time `json:"yearly_taxes,omitempty"`
	PeriodicInspection *time.Time `json:"periodic_inspection,omitempty"`
	MunicipalTax       *time.Time `json:"municipal_tax,omitempty"`
	Tachograph         *time.Time `json:"tachograph,omitempty"`

	IsActive bool `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Vehicle
func (Vehicle) TableName() string {
	return "vehicles"
}

// DocumentDueDates returns the vehicle's named document due dates, skipping
// the ones that are not set.
func (v *Vehicle) DocumentDueDates() map[string]time.Time {
	docs := make(map[string]time.Time)
	if v.Insurance != nil {
		docs["insurance"] = *v.Insurance
	}
	if v.YearlyTaxes != nil {
		docs["yearly_taxes"] = *v.YearlyTaxes
	}
	if v.PeriodicInspection != nil {
		docs["periodic_inspection"] = *v.PeriodicInspection
	}
	if v.MunicipalTax != nil {
		docs["municipal_tax"] = *v.MunicipalTax
	}
	if v.Tachograph != nil {
		docs["tachograph"] = *v.Tachograph
	}
	return docs
}
