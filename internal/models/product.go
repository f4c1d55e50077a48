package models

import (
	"time"
)

// Item type constants
const (
	ItemTypeReturnable = "returnable"
	ItemTypeConsumable = "consumable"
)

// Unit constants
const (
	UnitPieces = "pcs"
	UnitMeters = "m"
	UnitKilos  = "kg"
	UnitLiters = "L"
	UnitOther  = "other"
)

// Product is a stocked item in a depot. Quantity is the count physically
// available in the depot; returnable items currently on loan are not part
// of it. Name is unique within a depot (enforced by the composite index).
type Product struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	DepotID     uint   `gorm:"not null;index;uniqueIndex:idx_products_depot_name" json:"depot_id"`
	Name        string `gorm:"size:200;not null;uniqueIndex:idx_products_depot_name" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	Price       int    `gorm:"default:0" json:"price"`
	ItemType    string `gorm:"size:20;not null" json:"item_type"`
	Unit        string `gorm:"size:20;not null" json:"unit"`
	Quantity    int    `gorm:"not null;check:quantity >= 0" json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Associations
	Depot *Depot `gorm:"foreignKey:DepotID" json:"depot,omitempty"`
}

// TableName specifies the table name for Product
func (Product) TableName() string {
	return "products"
}

// IsReturnable returns true for products that come back after use
func (p *Product) IsReturnable() bool {
	return p.ItemType == ItemTypeReturnable
}

// TotalQuantity is the quantity the depot truly owns: for returnable items
// what's on the shelf plus what's out on loan, for consumables just the
// shelf count.
func (p *Product) TotalQuantity(outstanding int) int {
	if p.IsReturnable() {
		return p.Quantity + outstanding
	}
	return p.Quantity
}

// ProductResponse is the JSON response format for products
type ProductResponse struct {
	ID            uint   `json:"id"`
	DepotID       uint   `json:"depot_id"`
	DepotName     string `json:"depot_name,omitempty"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Price         int    `json:"price"`
	ItemType      string `json:"item_type"`
	Unit          string `json:"unit"`
	Quantity      int    `json:"quantity"`
	Outstanding   int    `json:"outstanding"`
	TotalQuantity int    `json:"total_quantity"`
}

// ToResponse converts Product to ProductResponse, folding in the outstanding
// on-loan count computed by the repository.
func (p *Product) ToResponse(outstanding int) ProductResponse {
	resp := ProductResponse{
		ID:            p.ID,
		DepotID:       p.DepotID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		ItemType:      p.ItemType,
		Unit:          p.Unit,
		Quantity:      p.Quantity,
		Outstanding:   outstanding,
		TotalQuantity: p.TotalQuantity(outstanding),
	}
	if p.Depot != nil {
		resp.DepotName = p.Depot.Name
	}
	return resp
}
