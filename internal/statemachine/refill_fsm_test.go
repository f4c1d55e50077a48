package statemachine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krosit/flota-api/internal/models"
)

func TestRefillFSM_OpenToClosed(t *testing.T) {
	entry := &models.FuelEntry{ID: 1, TankID: 1, Amount: 1000}

	machine := NewRefillFSM(entry)
	assert.Equal(t, models.RefillStatusOpen, machine.Current())
	assert.True(t, machine.CanClose())

	err := machine.Close(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, models.RefillStatusClosed, machine.Current())
	assert.True(t, entry.IsClosed)
}

func TestRefillFSM_CloseIsTerminal(t *testing.T) {
	now := time.Now()
	entry := &models.FuelEntry{ID: 2, TankID: 1, Amount: 500, IsClosed: true, ClosedAt: &now}

	machine := NewRefillFSM(entry)
	assert.Equal(t, models.RefillStatusClosed, machine.Current())
	assert.False(t, machine.CanClose())

	err := machine.Close(context.Background())
	assert.Error(t, err)
}
