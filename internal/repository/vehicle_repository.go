package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/krosit/flota-api/internal/models"
)

// VehicleRepository handles vehicle data access.
type VehicleRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Vehicle, error)
	FindByPlate(ctx context.Context, plate string) (*models.Vehicle, error)
	Create(ctx context.Context, vehicle *models.Vehicle) error
	Update(ctx context.Context, vehicle *models.Vehicle) error
	List(ctx context.Context, query *ListQuery) ([]models.Vehicle, int64, error)
	FindActive(ctx context.Context) ([]models.Vehicle, error)
	FindWithDocumentsDueBy(ctx context.Context, deadline time.Time) ([]models.Vehicle, error)
}

type vehicleRepository struct {
	db *gorm.DB
}

// NewVehicleRepository creates a new vehicle repository.
func NewVehicleRepository(db *gorm.DB) VehicleRepository {
	return &vehicleRepository{db: db}
}

func (r *vehicleRepository) FindByID(ctx context.Context, id uint) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	if err := r.db.WithContext(ctx).First(&vehicle, id).Error; err != nil {
		return nil, err
	}
	return &vehicle, nil
}

// FindByPlate matches the plate case-insensitively. Fuel reconciliation
// relies on this to resolve the configured reconciliation vehicle.
func (r *vehicleRepository) FindByPlate(ctx context.Context, plate string) (*models.Vehicle, error) {
	var vehicle models.Vehicle
	err := r.db.WithContext(ctx).
		Where("UPPER(plate) = ?", strings.ToUpper(plate)).
		First(&vehicle).Error
	if err != nil {
		return nil, err
	}
	return &vehicle, nil
}

func (r *vehicleRepository) Create(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *vehicleRepository) Update(ctx context.Context, vehicle *models.Vehicle) error {
	return r.db.WithContext(ctx).Save(vehicle).Error
}

func (r *vehicleRepository) List(ctx context.Context, query *ListQuery) ([]models.Vehicle, int64, error) {
	var vehicles []models.Vehicle
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Vehicle{})

	if query.Search != "" {
		term := "%" + strings.ToLower(query.Search) + "%"
		db = db.Where("LOWER(plate) LIKE ? OR LOWER(chassis) LIKE ? OR LOWER(description) LIKE ?", term, term, term)
	}
	if active, ok := query.Filters["active"]; ok && active != "" {
		db = db.Where("is_active = ?", active == "true")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("plate ASC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&vehicles).Error
	return vehicles, total, err
}

func (r *vehicleRepository) FindActive(ctx context.Context) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Order("plate ASC").
		Find(&vehicles).Error
	return vehicles, err
}

// FindWithDocumentsDueBy returns active vehicles with at least one document
// date on or before the deadline. Vehicles with no dates set are skipped.
func (r *vehicleRepository) FindWithDocumentsDueBy(ctx context.Context, deadline time.Time) ([]models.Vehicle, error) {
	var vehicles []models.Vehicle
	err := r.db.WithContext(ctx).
		Where("is_active = true").
		Where(
			r.db.Where("insurance <= ?", deadline).
				Or("yearly_taxes <= ?", deadline).
				Or("periodic_inspection <= ?", deadline).
				Or("municipal_tax <= ?", deadline).
				Or("tachograph <= ?", deadline),
		).
		Order("plate ASC").
		Find(&vehicles).Error
	return vehicles, err
}
