package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krosit/flota-api/internal/models"
)

// DepotRepository handles depot data access.
type DepotRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Depot, error)
	Create(ctx context.Context, depot *models.Depot) error
	Update(ctx context.Context, depot *models.Depot) error
	List(ctx context.Context, query *ListQuery) ([]models.Depot, int64, error)
	FindActive(ctx context.Context) ([]models.Depot, error)
}

type depotRepository struct {
	db *gorm.DB
}

// NewDepotRepository creates a new depot repository.
func NewDepotRepository(db *gorm.DB) DepotRepository {
	return &depotRepository{db: db}
}

func (r *depotRepository) FindByID(ctx context.Context, id uint) (*models.Depot, error) {
	var depot models.Depot
	if err := r.db.WithContext(ctx).First(&depot, id).Error; err != nil {
		return nil, err
	}
	return &depot, nil
}

func (r *depotRepository) Create(ctx context.Context, depot *models.Depot) error {
	return r.db.WithContext(ctx).Create(depot).Error
}

func (r *depotRepository) Update(ctx context.Context, depot *models.Depot) error {
	return r.db.WithContext(ctx).Save(depot).Error
}

func (r *depotRepository) List(ctx context.Context, query *ListQuery) ([]models.Depot, int64, error) {
	var depots []models.Depot
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Depot{})

	if query.Search != "" {
		term := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(name) LIKE ?", term)
	}
	if active, ok := query.Filters["active"]; ok && active != "" {
		db = db.Where("is_active = ?", active == "true")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("name ASC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&depots).Error
	return depots, total, err
}

func (r *depotRepository) FindActive(ctx context.Context) ([]models.Depot, error) {
	var depots []models.Depot
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("name ASC").
		Find(&depots).Error
	return depots, err
}

// ProductRepository handles product data access, including the stock-add
// ledger operation and the outstanding on-loan aggregates.
type ProductRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Update(ctx context.Context, product *models.Product) error
	Delete(ctx context.Context, id uint) error
	ListByDepot(ctx context.Context, depotID uint, query *ListQuery) ([]models.Product, int64, error)
	Search(ctx context.Context, query *ListQuery) ([]models.Product, int64, error)
	AddQuantity(ctx context.Context, productID uint, quantity int, audit func(*models.Product) *models.AuditLog) (*models.Product, error)
	Outstanding(ctx context.Context, productIDs []uint) (map[uint]int, error)
}

type productRepository struct {
	db *gorm.DB
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) FindByID(ctx context.Context, id uint) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Preload("Depot").First(&product, id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Product{}, id).Error
}

func (r *productRepository) ListByDepot(ctx context.Context, depotID uint, query *ListQuery) ([]models.Product, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Product{}).Where("depot_id = ?", depotID)
	return r.list(db, query)
}

func (r *productRepository) Search(ctx context.Context, query *ListQuery) ([]models.Product, int64, error) {
	db := r.db.WithContext(ctx).Model(&models.Product{}).Preload("Depot")
	return r.list(db, query)
}

func (r *productRepository) list(db *gorm.DB, query *ListQuery) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	if query.Search != "" {
		term := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", term, term)
	}
	if itemType, ok := query.Filters["item_type"]; ok && itemType != "" {
		db = db.Where("item_type = ?", itemType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("name ASC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&products).Error
	return products, total, err
}

// AddQuantity increments the shelf count under a row lock and writes the
// audit record in the same transaction.
func (r *productRepository) AddQuantity(ctx context.Context, productID uint, quantity int, audit func(*models.Product) *models.AuditLog) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&product, productID).Error; err != nil {
			return err
		}
		product.Quantity += quantity
		if err := tx.Model(&product).Update("quantity", product.Quantity).Error; err != nil {
			return err
		}
		if audit != nil {
			if err := tx.Create(audit(&product)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

type quantityRow struct {
	ProductID uint
	Total     int
}

// Outstanding computes, per product, the quantity currently out on loan:
// sum of withdrawn minus sum of returned. Always derived, never stored.
func (r *productRepository) Outstanding(ctx context.Context, productIDs []uint) (map[uint]int, error) {
	result := make(map[uint]int, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var withdrawn []quantityRow
	err := r.db.WithContext(ctx).Model(&models.WithdrawalItem{}).
		Select("product_id, COALESCE(SUM(quantity), 0) AS total").
		Where("product_id IN ?", productIDs).
		Group("product_id").
		Scan(&withdrawn).Error
	if err != nil {
		return nil, err
	}

	var returned []quantityRow
	err = r.db.WithContext(ctx).Model(&models.ReturnItem{}).
		Select("withdrawal_items.product_id AS product_id, COALESCE(SUM(return_items.quantity), 0) AS total").
		Joins("JOIN withdrawal_items ON withdrawal_items.id = return_items.withdrawal_item_id").
		Where("withdrawal_items.product_id IN ?", productIDs).
		Group("withdrawal_items.product_id").
		Scan(&returned).Error
	if err != nil {
		return nil, err
	}

	for _, row := range withdrawn {
		result[row.ProductID] = row.Total
	}
	for _, row := range returned {
		result[row.ProductID] -= row.Total
	}
	return result, nil
}
