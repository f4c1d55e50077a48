package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flota_test")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 50, cfg.MaxNegativeLiters)
	assert.Equal(t, "SYSTEM", cfg.FuelSystemOperator)
	assert.Equal(t, "DIFERENCE", cfg.FuelReconciliationPlate)
	assert.Equal(t, 30, cfg.VehicleAlertDays)
}

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsNegativeTolerance(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flota_test")
	t.Setenv("FUEL_MAX_NEGATIVE_LITERS", "-10")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadOverridesReconciliationEntities(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/flota_test")
	t.Setenv("FUEL_SYSTEM_OPERATOR", "ALMACEN")
	t.Setenv("FUEL_RECONCILIATION_PLATE", "AJUSTE")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "ALMACEN", cfg.FuelSystemOperator)
	assert.Equal(t, "AJUSTE", cfg.FuelReconciliationPlate)
}
