package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/krosit/flota-api/internal/models"
)

// FuelRepository handles the fuel ledger. The tank level is never stored:
// every mutation recomputes sum(entries) - sum(usages) inside its
// transaction, after locking the tank's entry rows. Locking the entries
// serializes all writers touching the same tank, so refills, usages and
// closes cannot interleave.
type FuelRepository interface {
	FindTankByID(ctx context.Context, id uint) (*models.FuelTank, error)
	CreateTank(ctx context.Context, tank *models.FuelTank) error
	UpdateTank(ctx context.Context, tank *models.FuelTank) error
	ListTanks(ctx context.Context) ([]models.FuelTank, error)
	TankLevel(ctx context.Context, tankID uint) (int, error)
	OpenEntry(ctx context.Context, tankID uint) (*models.FuelEntry, error)

	CreateEntry(ctx context.Context, entry *models.FuelEntry, audit func(*models.FuelEntry) *models.AuditLog) error
	RecordUsage(ctx context.Context, usage *models.FuelUsage, check func(level int, open *models.FuelEntry) error, audit func(*models.FuelUsage) *models.AuditLog) error
	CloseEntry(ctx context.Context, entryID uint, reconcile func(residual int) *models.FuelUsage, audit func(entry *models.FuelEntry, residual int) *models.AuditLog) (int, error)

	FindEntryByID(ctx context.Context, id uint) (*models.FuelEntry, error)
	ListEntries(ctx context.Context, query *ListQuery) ([]models.FuelEntry, int64, error)
	ListUsages(ctx context.Context, query *ListQuery) ([]models.FuelUsage, int64, error)
	UsedAgainstEntry(ctx context.Context, entryID uint) (int, error)
}

type fuelRepository struct {
	db *gorm.DB
}

// NewFuelRepository creates a new fuel repository.
func NewFuelRepository(db *gorm.DB) FuelRepository {
	return &fuelRepository{db: db}
}

func (r *fuelRepository) FindTankByID(ctx context.Context, id uint) (*models.FuelTank, error) {
	var tank models.FuelTank
	if err := r.db.WithContext(ctx).First(&tank, id).Error; err != nil {
		return nil, err
	}
	return &tank, nil
}

func (r *fuelRepository) CreateTank(ctx context.Context, tank *models.FuelTank) error {
	return r.db.WithContext(ctx).Create(tank).Error
}

func (r *fuelRepository) UpdateTank(ctx context.Context, tank *models.FuelTank) error {
	return r.db.WithContext(ctx).Save(tank).Error
}

func (r *fuelRepository) ListTanks(ctx context.Context) ([]models.FuelTank, error) {
	var tanks []models.FuelTank
	err := r.db.WithContext(ctx).Order("name ASC").Find(&tanks).Error
	return tanks, err
}

// TankLevel is a read-only snapshot; ledger mutations recompute it under
// lock themselves.
func (r *fuelRepository) TankLevel(ctx context.Context, tankID uint) (int, error) {
	return tankLevel(r.db.WithContext(ctx), tankID)
}

func tankLevel(tx *gorm.DB, tankID uint) (int, error) {
	var entered int
	err := tx.Model(&models.FuelEntry{}).
		Where("tank_id = ?", tankID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&entered).Error
	if err != nil {
		return 0, err
	}
	var used int
	err = tx.Model(&models.FuelUsage{}).
		Where("tank_id = ?", tankID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&used).Error
	if err != nil {
		return 0, err
	}
	return entered - used, nil
}

// lockTankEntries locks every entry row of the tank and returns the open
// one, if any. This is the serialization point for all fuel mutations.
func lockTankEntries(tx *gorm.DB, tankID uint) (*models.FuelEntry, error) {
	var entries []models.FuelEntry
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tank_id = ?", tankID).
		Order("id ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if !entries[i].IsClosed {
			return &entries[i], nil
		}
	}
	return nil, nil
}

func (r *fuelRepository) OpenEntry(ctx context.Context, tankID uint) (*models.FuelEntry, error) {
	var entry models.FuelEntry
	err := r.db.WithContext(ctx).
		Where("tank_id = ? AND is_closed = false", tankID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateEntry records a refill. A tank can hold only one open refill; the
// in-transaction check catches it against concurrent closes, and a unique
// violation on the partial index catches two concurrent refills.
func (r *fuelRepository) CreateEntry(ctx context.Context, entry *models.FuelEntry, audit func(*models.FuelEntry) *models.AuditLog) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := lockTankEntries(tx, entry.TankID)
		if err != nil {
			return err
		}
		if open != nil {
			return ErrOpenRefillExists
		}
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if audit != nil {
			if err := tx.Create(audit(entry)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if IsUniqueViolation(err, "idx_fuel_entries_open_tank") {
		return ErrOpenRefillExists
	}
	return err
}

// RecordUsage draws fuel from the tank. The check closure runs under the
// lock with the freshly computed tank level and the open entry, so the
// caller's floor check (level - amount vs. the tolerance) is race-free.
// The usage is bound to the refill open at recording time.
func (r *fuelRepository) RecordUsage(ctx context.Context, usage *models.FuelUsage, check func(level int, open *models.FuelEntry) error, audit func(*models.FuelUsage) *models.AuditLog) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		open, err := lockTankEntries(tx, usage.TankID)
		if err != nil {
			return err
		}
		if open == nil {
			return ErrNoOpenRefill
		}
		level, err := tankLevel(tx, usage.TankID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(level, open); err != nil {
				return err
			}
		}
		usage.RefillID = &open.ID
		if err := tx.Create(usage).Error; err != nil {
			return err
		}
		if audit != nil {
			if err := tx.Create(audit(usage)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// CloseEntry closes the refill. If the tank level is nonzero at close time
// the reconcile closure supplies the correcting usage: a positive residual
// books a shortage draw, a negative one a surplus credit, bringing the
// level to exactly zero. Returns the residual that was reconciled. Closing
// an already closed entry fails with ErrNoOpenRefill.
func (r *fuelRepository) CloseEntry(ctx context.Context, entryID uint, reconcile func(residual int) *models.FuelUsage, audit func(entry *models.FuelEntry, residual int) *models.AuditLog) (int, error) {
	var residual int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.FuelEntry
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&entry, entryID).Error; err != nil {
			return err
		}
		if entry.IsClosed {
			return ErrNoOpenRefill
		}
		// Serialize with concurrent usages on the same tank.
		if _, err := lockTankEntries(tx, entry.TankID); err != nil {
			return err
		}
		level, err := tankLevel(tx, entry.TankID)
		if err != nil {
			return err
		}
		residual = level
		if residual != 0 {
			correction := reconcile(residual)
			correction.TankID = entry.TankID
			correction.RefillID = &entry.ID
			correction.Amount = residual
			if err := tx.Create(correction).Error; err != nil {
				return err
			}
		}
		now := time.Now()
		err = tx.Model(&entry).Updates(map[string]interface{}{
			"is_closed": true,
			"closed_at": &now,
		}).Error
		if err != nil {
			return err
		}
		if audit != nil {
			if err := tx.Create(audit(&entry, residual)).Error; err != nil {
				return err
			}
		}
		return nil
	})
	return residual, err
}

func (r *fuelRepository) FindEntryByID(ctx context.Context, id uint) (*models.FuelEntry, error) {
	var entry models.FuelEntry
	err := r.db.WithContext(ctx).
		Preload("Tank").
		Preload("Usages").
		First(&entry, id).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *fuelRepository) ListEntries(ctx context.Context, query *ListQuery) ([]models.FuelEntry, int64, error) {
	var entries []models.FuelEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&models.FuelEntry{})

	if tankID, ok := query.Filters["tank_id"]; ok && tankID != "" {
		db = db.Where("tank_id = ?", tankID)
	}
	if status, ok := query.Filters["status"]; ok && status != "" {
		db = db.Where("is_closed = ?", status == models.RefillStatusClosed)
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

	err := db.Preload("Tank").
		Order("date DESC, id DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&entries).Error
	return entries, total, err
}

func (r *fuelRepository) ListUsages(ctx context.Context, query *ListQuery) ([]models.FuelUsage, int64, error) {
	var usages []models.FuelUsage
	var total int64

	db := r.db.WithContext(ctx).Model(&models.FuelUsage{})

	if tankID, ok := query.Filters["tank_id"]; ok && tankID != "" {
		db = db.Where("tank_id = ?", tankID)
	}
	if vehicleID, ok := query.Filters["vehicle_id"]; ok && vehicleID != "" {
		db = db.Where("vehicle_id = ?", vehicleID)
	}
	if operatorID, ok := query.Filters["operator_id"]; ok && operatorID != "" {
		db = db.Where("operator_id = ?", operatorID)
	}
	if project, ok := query.Filters["project"]; ok && project != "" {
		db = db.Where("project = ?", project)
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

	err := db.Preload("Vehicle").
		Preload("Operator").
		Order("date DESC, id DESC").
		Offset(query.offset()).
		Limit(query.limit()).
		Find(&usages).Error
	return usages, total, err
}

// UsedAgainstEntry sums the usages bound to one refill.
func (r *fuelRepository) UsedAgainstEntry(ctx context.Context, entryID uint) (int, error) {
	var used int
	err := r.db.WithContext(ctx).Model(&models.FuelUsage{}).
		Where("refill_id = ?", entryID).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&used).Error
	return used, err
}
