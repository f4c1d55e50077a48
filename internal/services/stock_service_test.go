package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"github.com/krosit/flota-api/internal/models"
	"github.com/krosit/flota-api/internal/repository"
)

// fakeWithdrawalRepo mirrors the transactional stock ledger in memory:
// all-or-nothing line application against a product map, with live
// outstanding recomputation for returns.
type fakeWithdrawalRepo struct {
	repository.WithdrawalRepository
	products    map[uint]*models.Product
	headers     []*models.WithdrawalHeader
	items       map[uint]*models.WithdrawalItem
	returns     []*models.ReturnItem
	headersByID map[uint]*models.WithdrawalHeader
	audits      []*models.AuditLog
	nextID      uint
}

func newFakeWithdrawalRepo(products ...*models.Product) *fakeWithdrawalRepo {
	repo := &fakeWithdrawalRepo{
		products:    make(map[uint]*models.Product),
		items:       make(map[uint]*models.WithdrawalItem),
		headersByID: make(map[uint]*models.WithdrawalHeader),
		nextID:      1,
	}
	for _, p := range products {
		repo.products[p.ID] = p
	}
	return repo
}

func (r *fakeWithdrawalRepo) id() uint {
	id := r.nextID
	r.nextID++
	return id
}

func (r *fakeWithdrawalRepo) returned(itemID uint) int {
	total := 0
	for _, ret := range r.returns {
		if ret.WithdrawalItemID == itemID {
			total += ret.Quantity
		}
	}
	return total
}

func (r *fakeWithdrawalRepo) CreateWithdrawal(ctx context.Context, header *models.WithdrawalHeader, lines []models.WithdrawalLine, audit func(*models.Product, *models.WithdrawalItem) *models.AuditLog) error {
	// Simulate rollback: stage the decrements, apply only if all pass.
	type staged struct {
		product *models.Product
		item    *models.WithdrawalItem
	}
	var stagedLines []staged
	decrements := make(map[uint]int)
	for _, line := range lines {
		product, ok := r.products[line.ProductID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		available := product.Quantity - decrements[product.ID]
		if available < line.Quantity {
			return &repository.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Available:   available,
				Requested:   line.Quantity,
			}
		}
		decrements[product.ID] += line.Quantity
		stagedLines = append(stagedLines, staged{product: product, item: &models.WithdrawalItem{
			ProductID: product.ID,
			Quantity:  line.Quantity,
		}})
	}

	header.ID = r.id()
	r.headers = append(r.headers, header)
	r.headersByID[header.ID] = header
	for _, sl := range stagedLines {
		sl.item.ID = r.id()
		sl.item.HeaderID = header.ID
		sl.product.Quantity -= sl.item.Quantity
		r.items[sl.item.ID] = sl.item
		header.Items = append(header.Items, *sl.item)
		if audit != nil {
			r.audits = append(r.audits, audit(sl.product, sl.item))
		}
	}
	return nil
}

func (r *fakeWithdrawalRepo) CreateReturn(ctx context.Context, header *models.ReturnHeader, lines []models.ReturnLine, audit func(*models.Product, *models.ReturnItem) *models.AuditLog) error {
	for _, line := range lines {
		item, ok := r.items[line.WithdrawalItemID]
		if !ok {
			return gorm.ErrRecordNotFound
		}
		outstanding := item.OutstandingQty(r.returned(item.ID))
		if line.Quantity > outstanding {
			return &repository.ReturnExceedsOutstandingError{
				WithdrawalItemID: item.ID,
				Outstanding:      outstanding,
				Requested:        line.Quantity,
			}
		}
	}
	header.ID = r.id()
	for _, line := range lines {
		item := r.items[line.WithdrawalItemID]
		product := r.products[item.ProductID]
		returnItem := &models.ReturnItem{
			ID:               r.id(),
			HeaderID:         header.ID,
			WithdrawalItemID: item.ID,
			Quantity:         line.Quantity,
		}
		r.returns = append(r.returns, returnItem)
		product.Quantity += line.Quantity
		header.Items = append(header.Items, *returnItem)
		if audit != nil {
			r.audits = append(r.audits, audit(product, returnItem))
		}
	}
	return nil
}

func (r *fakeWithdrawalRepo) FindItemByID(ctx context.Context, id uint) (*models.WithdrawalItem, error) {
	item, ok := r.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *item
	copied.Header = r.headersByID[item.HeaderID]
	copied.Product = r.products[item.ProductID]
	return &copied, nil
}

func (r *fakeWithdrawalRepo) OutstandingForEmployee(ctx context.Context, employeeID uint) ([]models.OutstandingItem, error) {
	var result []models.OutstandingItem
	for _, item := range r.items {
		header := r.headersByID[item.HeaderID]
		product := r.products[item.ProductID]
		if header.EmployeeID != employeeID || !product.IsReturnable() {
			continue
		}
		returned := r.returned(item.ID)
		outstanding := item.OutstandingQty(returned)
		if outstanding <= 0 {
			continue
		}
		copied := *item
		copied.Product = product
		result = append(result, models.OutstandingItem{
			WithdrawalItem: copied,
			ReturnedQty:    returned,
			OutstandingQty: outstanding,
		})
	}
	return result, nil
}

func (r *fakeWithdrawalRepo) HoldersForProduct(ctx context.Context, productID uint) ([]models.ProductHolder, error) {
	byEmployee := make(map[uint]int)
	for _, item := range r.items {
		if item.ProductID != productID {
			continue
		}
		header := r.headersByID[item.HeaderID]
		outstanding := item.OutstandingQty(r.returned(item.ID))
		if outstanding > 0 {
			byEmployee[header.EmployeeID] += outstanding
		}
	}
	var result []models.ProductHolder
	for employeeID, qty := range byEmployee {
		result = append(result, models.ProductHolder{EmployeeID: employeeID, OutstandingQty: qty})
	}
	return result, nil
}

func newStockFixture() (*StockService, *fakeWithdrawalRepo) {
	repo := newFakeWithdrawalRepo(
		&models.Product{ID: 1, DepotID: 1, Name: "Drill", ItemType: models.ItemTypeReturnable, Unit: models.UnitPieces, Quantity: 5},
		&models.Product{ID: 2, DepotID: 1, Name: "Gloves", ItemType: models.ItemTypeConsumable, Unit: models.UnitPieces, Quantity: 100},
	)
	employees := newFakeEmployeeRepo(
		&models.Employee{ID: 10, Name: "Arben", IsActive: true},
		&models.Employee{ID: 11, Name: "Driton", IsActive: false},
	)
	audit, _ := newTestAudit()
	return NewStockService(repo, employees, audit), repo
}

func TestStockService_WithdrawDecrementsStock(t *testing.T) {
	svc, repo := newStockFixture()
	ctx := context.Background()

	header, err := svc.Withdraw(ctx, staffActor(), WithdrawInput{
		EmployeeID: 10,
		Lines: []models.WithdrawalLine{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 10},
		},
	})
	assert.NoError(t, err)
	assert.Len(t, header.Items, 2)
	assert.NotEmpty(t, header.GUID)
	assert.Equal(t, 3, repo.products[1].Quantity)
	assert.Equal(t, 90, repo.products[2].Quantity)
	// One audit record per line, written with the mutation.
	assert.Len(t, repo.audits, 2)
}

func TestStockService_WithdrawAllOrNothing(t *testing.T) {
	svc, repo := newStockFixture()
	ctx := context.Background()

	// Second line exceeds stock: the first line must not be applied.
	_, err := svc.Withdraw(ctx, staffActor(), WithdrawInput{
		EmployeeID: 10,
		Lines: []models.WithdrawalLine{
			{ProductID: 2, Quantity: 10},
			{ProductID: 1, Quantity: 6},
		},
	})
	var stockErr *repository.InsufficientStockError
	assert.ErrorAs(t, err, &stockErr)
	assert.Equal(t, uint(1), stockErr.ProductID)
	assert.Equal(t, 5, stockErr.Available)

	assert.Equal(t, 5, repo.products[1].Quantity)
	assert.Equal(t, 100, repo.products[2].Quantity)
	assert.Empty(t, repo.audits)
}

func TestStockService_WithdrawValidation(t *testing.T) {
	svc, _ := newStockFixture()
	ctx := context.Background()
	var validationErr *ValidationError

	_, err := svc.Withdraw(ctx, staffActor(), WithdrawInput{EmployeeID: 10})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Withdraw(ctx, staffActor(), WithdrawInput{
		EmployeeID: 10,
		Lines:      []models.WithdrawalLine{{ProductID: 1, Quantity: 0}},
	})
	assert.ErrorAs(t, err, &validationErr)

	// Inactive employee.
	_, err = svc.Withdraw(ctx, staffActor(), WithdrawInput{
		EmployeeID: 11,
		Lines:      []models.WithdrawalLine{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorAs(t, err, &validationErr)

	_, err = svc.Withdraw(ctx, employeeActor(7), WithdrawInput{
		EmployeeID: 10,
		Lines:      []models.WithdrawalLine{{ProductID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestStockService_ReturnRestoresStockAndTracksOutstanding(t *testing.T) {
	svc, repo := newStockFixture()
	ctx := context.Background()

	header, err := svc.Withdraw(ctx, staffActor(), WithdrawInput{
		EmployeeID: 10,
		Lines:      []models.WithdrawalLine{{ProductID: 1, Quantity: 3}},
	})
	assert.NoError(t, err)
	itemID := header.Items[0].ID

	outstanding, err := svc.Outstanding(ctx, staffActor(), 10)
	assert.NoError(t, err)
	assert.Len(t, outstanding, 1)
	assert.Equal(t, 3, outstanding[0].OutstandingQty)

	_, err = svc.Return(ctx, staffActor(), ReturnInput{
		EmployeeID: 10,
		Lines:      []models.ReturnLine{{WithdrawalItemID: itemID, Quantity: 2}},
	})
	assert.NoError(t, err)
	assert.Equal(t, 4, repo.products[1].Quantity)

	outstanding, _ = svc.Outstanding(ctx, staffActor(), 10)
	assert.Len(t, outstanding, 1)
	assert.Equal(t, 1, outstanding[0].OutstandingQty)
	assert.Equal(t, 2, outstanding[0].ReturnedQty)

	// Returning the rest clears the outstanding list.
	_, err = svc.Return(ctx, staffActor(), ReturnInput{
		EmployeeID: 10,
		Lines:      []models.ReturnLine{{WithdrawalItemID: itemID, Quantity: 1}},
	})
	assert.NoError(t, err)
	outstanding, _ = svc.Outstanding(ctx, staffActor(), 10)
	assert.Empty(t, outstanding)
}

func TestStockService_ReturnCannotExceedOutstanding(t *testing.T) {
	svc, repo := newStockFixture()
	ctx := context.Background()

	header, err := svc.Withdraw(ctx, staffActor(), WithdrawInput{
		EmployeeID: 10,
		Lines:      []models.WithdrawalLine{{ProductID: 1, Quantity: 3}},
	})
	assert.NoError(t, err)
	itemID := header.Items[0].ID

	_, err = svc.Return(ctx, staffActor(), ReturnInput{
		EmployeeID: 10,
		Lines:      []models.ReturnLine{{WithdrawalItemID: itemID, Quantity: 4}},
	})
	var exceedsErr *repository.ReturnExceedsOutstandingError
	assert.ErrorAs(t, err, &exceedsErr)
	assert.Equal(t, 3, exceedsErr.Outstanding)
	assert.Equal(t, 2, repo.products[1].Quantity)
}

func TestStockService_ReturnRejectsConsumablesAndForeignItems(t *testing.T) {
	svc, _ := newStockFixture()
	ctx := context.Background()
	var validationErr *ValidationError

	header, err := svc.Withdraw(ctx, staffActor(), WithdrawInput{
		EmployeeID: 10,
		Lines: []models.WithdrawalLine{
			{ProductID: 1, Quantity: 1},
			{ProductID: 2, Quantity: 5},
		},
	})
	assert.NoError(t, err)

	// Consumables don't come back.
	var consumableItem uint
	for _, item := range header.Items {
		if item.ProductID == 2 {
			consumableItem = item.ID
		}
	}
	_, err = svc.Return(ctx, staffActor(), ReturnInput{
		EmployeeID: 10,
		Lines:      []models.ReturnLine{{WithdrawalItemID: consumableItem, Quantity: 1}},
	})
	assert.ErrorAs(t, err, &validationErr)

	// Another employee can't return this item.
	_, err = svc.Return(ctx, staffActor(), ReturnInput{
		EmployeeID: 11,
		Lines:      []models.ReturnLine{{WithdrawalItemID: header.Items[0].ID, Quantity: 1}},
	})
	assert.ErrorAs(t, err, &validationErr)
}

func TestStockService_ProductHolders(t *testing.T) {
	svc, _ := newStockFixture()
	ctx := context.Background()

	header, err := svc.Withdraw(ctx, staffActor(), WithdrawInput{
		EmployeeID: 10,
		Lines:      []models.WithdrawalLine{{ProductID: 1, Quantity: 3}},
	})
	assert.NoError(t, err)

	// Partial return leaves the rest outstanding.
	_, err = svc.Return(ctx, staffActor(), ReturnInput{
		EmployeeID: 10,
		Lines:      []models.ReturnLine{{WithdrawalItemID: header.Items[0].ID, Quantity: 1}},
	})
	assert.NoError(t, err)

	holders, err := svc.ProductHolders(ctx, staffActor(), 1)
	assert.NoError(t, err)
	assert.Len(t, holders, 1)
	assert.Equal(t, uint(10), holders[0].EmployeeID)
	assert.Equal(t, 2, holders[0].OutstandingQty)

	_, err = svc.ProductHolders(ctx, employeeActor(10), 1)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
