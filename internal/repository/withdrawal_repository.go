package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krosit/flota-api/internal/models"
)

// WithdrawalRepository handles the stock ledger: multi-line withdrawals and
// returns. Both operations lock the affected product rows and either apply
// every line or none.
type WithdrawalRepository interface {
	CreateWithdrawal(ctx context.Context, header *models.WithdrawalHeader, lines []models.WithdrawalLine, audit func(product *models.Product, item *models.WithdrawalItem) *models.AuditLog) error
	CreateReturn(ctx context.Context, header *models.ReturnHeader, lines []models.ReturnLine, audit func(product *models.Product, item *models.ReturnItem) *models.AuditLog) error
	FindHeaderByID(ctx context.Context, id uint) (*models.WithdrawalHeader, error)
	FindReturnHeaderByID(ctx context.Context, id uint) (*models.ReturnHeader, error)
	FindItemByID(ctx context.Context, id uint) (*models.WithdrawalItem, error)
	ListWithdrawals(ctx context.Context, query *ListQuery) ([]models.WithdrawalHeader, int64, error)
	ListReturns(ctx context.Context, query *ListQuery) ([]models.ReturnHeader, int64, error)
	OutstandingForEmployee(ctx context.Context, employeeID uint) ([]models.OutstandingItem, error)
	HoldersForProduct(ctx context.Context, productID uint) ([]models.ProductHolder, error)
}

type withdrawalRepository struct {
	db *gorm.DB
}

// NewWithdrawalRepository creates a new withdrawal repository.
func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

// CreateWithdrawal applies every line or none. Each product row is locked
// before its availability check, so two concurrent withdrawals of the same
// product serialize and the second sees the decremented quantity. The audit
// record of each line commits and rolls back with the withdrawal itself.
func (r *withdrawalRepository) CreateWithdrawal(ctx context.Context, header *models.WithdrawalHeader, lines []models.WithdrawalLine, audit func(*models.Product, *models.WithdrawalItem) *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(header).Error; err != nil {
			return err
		}
		for _, line := range lines {
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, line.ProductID).Error; err != nil {
				return err
			}
			if product.Quantity < line.Quantity {
				return &InsufficientStockError{
					ProductID:   product.ID,
					ProductName: product.Name,
					Available:   product.Quantity,
					Requested:   line.Quantity,
				}
			}
			item := &models.WithdrawalItem{
				HeaderID:  header.ID,
				ProductID: product.ID,
				Quantity:  line.Quantity,
			}
			if err := tx.Create(item).Error; err != nil {
				return err
			}
			product.Quantity -= line.Quantity
			if err := tx.Model(&product).Update("quantity", product.Quantity).Error; err != nil {
				return err
			}
			if audit != nil {
				if err := tx.Create(audit(&product, item)).Error; err != nil {
					return err
				}
			}
			header.Items = append(header.Items, *item)
		}
		return nil
	})
}

// CreateReturn applies every line or none. The outstanding quantity of each
// withdrawal item is recomputed inside the transaction, under the product
// row lock, so concurrent returns of the same item cannot overshoot.
func (r *withdrawalRepository) CreateReturn(ctx context.Context, header *models.ReturnHeader, lines []models.ReturnLine, audit func(*models.Product, *models.ReturnItem) *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(header).Error; err != nil {
			return err
		}
		for _, line := range lines {
			var item models.WithdrawalItem
			if err := tx.First(&item, line.WithdrawalItemID).Error; err != nil {
				return err
			}
			var product models.Product
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&product, item.ProductID).Error; err != nil {
				return err
			}
			var returned int
			err := tx.Model(&models.ReturnItem{}).
				Where("withdrawal_item_id = ?", item.ID).
				Select("COALESCE(SUM(quantity), 0)").
				Scan(&returned).Error
			if err != nil {
				return err
			}
			outstanding := item.OutstandingQty(returned)
			if line.Quantity > outstanding {
				return &ReturnExceedsOutstandingError{
					WithdrawalItemID: item.ID,
					Outstanding:      outstanding,
					Requested:        line.Quantity,
				}
			}
			returnItem := &models.ReturnItem{
				HeaderID:         header.ID,
				WithdrawalItemID: item.ID,
				Quantity:         line.Quantity,
			}
			if err := tx.Create(returnItem).Error; err != nil {
				return err
			}
			product.Quantity += line.Quantity
			if err := tx.Model(&product).Update("quantity", product.Quantity).Error; err != nil {
				return err
			}
			if audit != nil {
				if err := tx.Create(audit(&product, returnItem)).Error; err != nil {
					return err
				}
			}
			header.Items = append(header.Items, *returnItem)
		}
		return nil
	})
}

func (r *withdrawalRepository) FindHeaderByID(ctx context.Context, id uint) (*models.WithdrawalHeader, error) {
	var header models.WithdrawalHeader
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Items.Product").
		First(&header, id).Error
	if err != nil {
		return nil, err
	}
	return &header, nil
}

func (r *withdrawalRepository) FindReturnHeaderByID(ctx context.Context, id uint) (*models.ReturnHeader, error) {
	var header models.ReturnHeader
	err := r.db.WithContext(ctx).
		Preload("Employee").
		Preload("Items.WithdrawalItem.Product").
		First(&header, id).Error
	if err != nil {
		return nil, err
	}
	return &header, nil
}

func (r *withdrawalRepository) FindItemByID(ctx context.Context, id uint) (*models.WithdrawalItem, error) {
	var item models.WithdrawalItem
	err := r.db.WithContext(ctx).
		Preload("Header").
		Preload("Product").
		Preload("Returns").
		First(&item, id).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *withdrawalRepository) ListWithdrawals(ctx context.Context, query *ListQuery) ([]models.WithdrawalHeader, int64, error) {
	var headers []models.WithdrawalHeader
	var total int64

	db := r.db.WithContext(ctx).Model(&models.WithdrawalHeader{})

	if employeeID, ok := query.Filters["employee_id"]; ok && employeeID != "" {
		db = db.Where("employee_id = ?", employeeID)
	}
	if from, ok := query.Filters["from"]; ok && from != "" {
		db = db.Where("date >= ?", from)
	}
	if to, ok := query.Filters["to"]; ok && to != "" {
		db = db.Where("date <= ?", to)
	}
	if query.Search != "" {
		term := "%" + strings.ToLower(query.Search) + "%"
		db = db.Joins("JOIN employees ON employees.id = withdrawal_headers.employee_id").
			Where("LOWER(employees.name) LIKE ?", term)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Employee").
		Preload("Items.Product").
		Order("date DESC, id DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&headers).Error
	return headers, total, err
}

func (r *withdrawalRepository) ListReturns(ctx context.Context, query *ListQuery) ([]models.ReturnHeader, int64, error) {
	var headers []models.ReturnHeader
	var total int64

	db := r.db.WithContext(ctx).Model(&models.ReturnHeader{})

	if employeeID, ok := query.Filters["employee_id"]; ok && employeeID != "" {
		db = db.Where("employee_id = ?", employeeID)
	}
	if from, ok := query.Filters["from"]; ok && from != "" {
		db = db.Where("date >= ?", from)
	}
	if to, ok := query.Filters["to"]; ok && to != "" {
		db = db.Where("date <= ?", to)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Preload("Employee").
		Preload("Items.WithdrawalItem.Product").
		Order("date DESC, id DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&headers).Error
	return headers, total, err
}

// OutstandingForEmployee lists the employee's withdrawal lines that still
// have something out on loan, with the live returned/outstanding counts.
func (r *withdrawalRepository) OutstandingForEmployee(ctx context.Context, employeeID uint) ([]models.OutstandingItem, error) {
	var items []models.OutstandingItem
	err := r.db.WithContext(ctx).Model(&models.WithdrawalItem{}).
		Select(`withdrawal_items.*,
			COALESCE(SUM(return_items.quantity), 0) AS returned_qty,
			withdrawal_items.quantity - COALESCE(SUM(return_items.quantity), 0) AS outstanding_qty`).
		Joins("JOIN withdrawal_headers ON withdrawal_headers.id = withdrawal_items.header_id").
		Joins("JOIN products ON products.id = withdrawal_items.product_id").
		Joins("LEFT JOIN return_items ON return_items.withdrawal_item_id = withdrawal_items.id").
		Where("withdrawal_headers.employee_id = ?", employeeID).
		Where("products.item_type = ?", models.ItemTypeReturnable).
		Group("withdrawal_items.id").
		Having("withdrawal_items.quantity - COALESCE(SUM(return_items.quantity), 0) > 0").
		Order("withdrawal_items.id ASC").
		Scan(&items).Error
	if err != nil {
		return nil, err
	}

	// Attach product rows; raw scan can't preload.
	productIDs := make([]uint, 0, len(items))
	for _, it := range items {
		productIDs = append(productIDs, it.ProductID)
	}
	if len(productIDs) > 0 {
		var products []models.Product
		if err := r.db.WithContext(ctx).Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return nil, err
		}
		byID := make(map[uint]*models.Product, len(products))
		for i := range products {
			byID[products[i].ID] = &products[i]
		}
		for i := range items {
			items[i].Product = byID[items[i].ProductID]
		}
	}
	return items, nil
}

type holderRow struct {
	EmployeeID uint
	Total      int
}

// HoldersForProduct lists the employees still holding some of the product,
// with their live outstanding quantities. Withdrawn and returned totals are
// aggregated separately so multiple returns per line don't inflate either sum.
func (r *withdrawalRepository) HoldersForProduct(ctx context.Context, productID uint) ([]models.ProductHolder, error) {
	var withdrawn []holderRow
	err := r.db.WithContext(ctx).Model(&models.WithdrawalItem{}).
		Select("withdrawal_headers.employee_id AS employee_id, SUM(withdrawal_items.quantity) AS total").
		Joins("JOIN withdrawal_headers ON withdrawal_headers.id = withdrawal_items.header_id").
		Where("withdrawal_items.product_id = ?", productID).
		Group("withdrawal_headers.employee_id").
		Scan(&withdrawn).Error
	if err != nil {
		return nil, err
	}

	var returned []holderRow
	err = r.db.WithContext(ctx).Model(&models.ReturnItem{}).
		Select("withdrawal_headers.employee_id AS employee_id, SUM(return_items.quantity) AS total").
		Joins("JOIN withdrawal_items ON withdrawal_items.id = return_items.withdrawal_item_id").
		Joins("JOIN withdrawal_headers ON withdrawal_headers.id = withdrawal_items.header_id").
		Where("withdrawal_items.product_id = ?", productID).
		Group("withdrawal_headers.employee_id").
		Scan(&returned).Error
	if err != nil {
		return nil, err
	}

	returnedBy := make(map[uint]int, len(returned))
	for _, row := range returned {
		returnedBy[row.EmployeeID] = row.Total
	}

	holders := make([]models.ProductHolder, 0, len(withdrawn))
	employeeIDs := make([]uint, 0, len(withdrawn))
	for _, row := range withdrawn {
		outstanding := row.Total - returnedBy[row.EmployeeID]
		if outstanding <= 0 {
			continue
		}
		holders = append(holders, models.ProductHolder{
			EmployeeID:     row.EmployeeID,
			OutstandingQty: outstanding,
		})
		employeeIDs = append(employeeIDs, row.EmployeeID)
	}

	if len(employeeIDs) > 0 {
		var employees []models.Employee
		if err := r.db.WithContext(ctx).Where("id IN ?", employeeIDs).Find(&employees).Error; err != nil {
			return nil, err
		}
		nameByID := make(map[uint]string, len(employees))
		for _, e := range employees {
			nameByID[e.ID] = e.Name
		}
		for i := range holders {
			holders[i].EmployeeName = nameByID[holders[i].EmployeeID]
		}
	}
	return holders, nil
}
