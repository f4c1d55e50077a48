package services

import (
	"context"
	"fmt"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// DepotService handles depots and their product catalog, including the
// stock-add ledger operation.
type DepotService struct {
	repo        repository.DepotRepository
	productRepo repository.ProductRepository
	audit       *AuditService
}

// NewDepotService creates a new depot service
func NewDepotService(repo repository.DepotRepository, productRepo repository.ProductRepository, audit *AuditService) *DepotService {
	return &DepotService{repo: repo, productRepo: productRepo, audit: audit}
}

// DepotInput carries the editable depot fields.
type DepotInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// CreateDepot adds a depot. Staff only.
func (s *DepotService) CreateDepot(ctx context.Context, actor Actor, input DepotInput) (*models.Depot, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	depot := &models.Depot{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}
	if input.IsActive != nil {
		depot.IsActive = *input.IsActive
	}
	if err := s.repo.Create(ctx, depot); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionCreate, "Depot", itoa(depot.ID),
		fmt.Sprintf("created depot %s", depot.Name))
	return depot, nil
}

// UpdateDepot edits a depot. Staff only.
func (s *DepotService) UpdateDepot(ctx context.Context, actor Actor, id uint, input DepotInput) (*models.Depot, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	depot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	depot.Name = input.Name
	depot.Description = input.Description
	if input.IsActive != nil {
		depot.IsActive = *input.IsActive
	}
	if err := s.repo.Update(ctx, depot); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionUpdate, "Depot", itoa(depot.ID),
		fmt.Sprintf("updated depot %s", depot.Name))
	return depot, nil
}

// GetDepot returns one depot.
func (s *DepotService) GetDepot(ctx context.Context, id uint) (*models.Depot, error) {
	depot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	return depot, nil
}

// ListDepots returns depots.
func (s *DepotService) ListDepots(ctx context.Context, query *repository.ListQuery) ([]models.Depot, int64, error) {
	return s.repo.List(ctx, query)
}

// ProductInput carries the editable product fields.
type ProductInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	ItemType    string `json:"item_type" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	Quantity    int    `json:"quantity"`
}

// CreateProduct adds a product to a depot. Staff only. The product name
// must be unique within the depot.
func (s *DepotService) CreateProduct(ctx context.Context, actor Actor, depotID uint, input ProductInput) (*models.Product, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if input.ItemType != models.ItemTypeReturnable && input.ItemType != models.ItemTypeConsumable {
		return nil, NewValidationError("item_type", "must be returnable or consumable")
	}
	if input.Quantity < 0 {
		return nil, NewValidationError("quantity", "must not be negative")
	}
	if _, err := s.repo.FindByID(ctx, depotID); err != nil {
		return nil, notFoundOr(err)
	}

	product := &models.Product{
		DepotID:     depotID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ItemType:    input.ItemType,
		Unit:        input.Unit,
		Quantity:    input.Quantity,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionCreate, "Product", itoa(product.ID),
		fmt.Sprintf("created product %s in depot %d", product.Name, depotID))
	return product, nil
}

// UpdateProduct edits a product's catalog fields. The quantity is ledger
// state and is not editable here; use AddStock, withdrawals and returns.
func (s *DepotService) UpdateProduct(ctx context.Context, actor Actor, id uint, input ProductInput) (*models.Product, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if input.ItemType != models.ItemTypeReturnable && input.ItemType != models.ItemTypeConsumable {
		return nil, NewValidationError("item_type", "must be returnable or consumable")
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.ItemType = input.ItemType
	product.Unit = input.Unit

	if err := s.productRepo.Update(ctx, product); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	s.audit.Log(ctx, actor, models.ActionUpdate, "Product", itoa(product.ID),
		fmt.Sprintf("updated product %s", product.Name))
	return product, nil
}

// DeleteProduct removes a product. Staff only.
func (s *DepotService) DeleteProduct(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsStaff() {
		return ErrUnauthorized
	}
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return notFoundOr(err)
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.audit.Log(ctx, actor, models.ActionDelete, "Product", itoa(id),
		fmt.Sprintf("deleted product %s", product.Name))
	return nil
}

// AddStock increments a product's shelf count. The audit record is written
// in the same transaction as the increment. Staff only.
func (s *DepotService) AddStock(ctx context.Context, actor Actor, productID uint, quantity int) (*models.Product, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if quantity <= 0 {
		return nil, NewValidationError("quantity", "must be positive")
	}
	product, err := s.productRepo.AddQuantity(ctx, productID, quantity, func(p *models.Product) *models.AuditLog {
		return s.audit.Entry(actor, models.ActionAdd, "Product", itoa(p.ID),
			fmt.Sprintf("added %d to %s, new quantity %d", quantity, p.Name, p.Quantity))
	})
	if err != nil {
		return nil, notFoundOr(err)
	}
	return product, nil
}

// GetProduct returns one product with its live outstanding count.
func (s *DepotService) GetProduct(ctx context.Context, id uint) (*models.Product, int, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, 0, notFoundOr(err)
	}
	outstanding, err := s.productRepo.Outstanding(ctx, []uint{id})
	if err != nil {
		return nil, 0, err
	}
	return product, outstanding[id], nil
}

// ListProducts returns a depot's products with their outstanding counts.
func (s *DepotService) ListProducts(ctx context.Context, depotID uint, query *repository.ListQuery) ([]models.ProductResponse, int64, error) {
	products, total, err := s.productRepo.ListByDepot(ctx, depotID, query)
	if err != nil {
		return nil, 0, err
	}
	responses, err := s.withOutstanding(ctx, products)
	return responses, total, err
}

// SearchProducts searches across all depots.
func (s *DepotService) SearchProducts(ctx context.Context, query *repository.ListQuery) ([]models.ProductResponse, int64, error) {
	products, total, err := s.productRepo.Search(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	responses, err := s.withOutstanding(ctx, products)
	return responses, total, err
}

func (s *DepotService) withOutstanding(ctx context.Context, products []models.Product) ([]models.ProductResponse, error) {
	ids := make([]uint, 0, len(products))
	for _, p := range products {
		ids = append(ids, p.ID)
	}
	outstanding, err := s.productRepo.Outstanding(ctx, ids)
	if err != nil {
		return nil, err
	}
	responses := make([]models.ProductResponse, 0, len(products))
	for i := range products {
		responses = append(responses, products[i].ToResponse(outstanding[products[i].ID]))
	}
	return responses, nil
}
