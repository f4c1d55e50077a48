package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/krosit/flota-api/internal/models"
)

func (r *fakeVehicleRepo) FindWithDocumentsDueBy(ctx context.Context, deadline time.Time) ([]models.Vehicle, error) {
	var result []models.Vehicle
	for _, v := range r.vehicles {
		if !v.IsActive {
			continue
		}
		for _, due := range v.DocumentDueDates() {
			if !due.After(deadline) {
				result = append(result, *v)
				break
			}
		}
	}
	return result, nil
}

func newVehicleFixture() (*VehicleService, *capturingNotificationRepo, *fakeVehicleRepo) {
	now := time.Now()
	soon := now.AddDate(0, 0, 10)
	past := now.AddDate(0, 0, -5)
	farOff := now.AddDate(0, 6, 0)

	vehicles := newFakeVehicleRepo(
		&models.Vehicle{ID: 1, Plate: "AA111AA", IsActive: true, Insurance: &soon, Tachograph: &farOff},
		&models.Vehicle{ID: 2, Plate: "AA222BB", IsActive: true, YearlyTaxes: &past},
		&models.Vehicle{ID: 3, Plate: "AA333CC", IsActive: true, Insurance: &farOff},
		&models.Vehicle{ID: 4, Plate: "AA444DD", IsActive: false, Insurance: &past},
	)
	users := newFakeUserRepo(
		&models.User{ID: 1, Email: "admin1@test.local", Role: models.RoleAdmin, Status: models.StatusActive},
		&models.User{ID: 2, Email: "admin2@test.local", Role: models.RoleAdmin, Status: models.StatusActive},
	)
	notifRepo := &capturingNotificationRepo{}
	notifications := NewNotificationService(notifRepo, users)
	audit, _ := newTestAudit()
	svc := NewVehicleService(vehicles, users, notifications, audit, testConfig())
	return svc, notifRepo, vehicles
}

func TestVehicleService_DocumentAlerts(t *testing.T) {
	svc, _, _ := newVehicleFixture()

	alerts, err := svc.DocumentAlerts(context.Background())
	assert.NoError(t, err)

	// Overdue taxes on AA222BB and near-due insurance on AA111AA; the
	// far-off dates and the inactive vehicle are out.
	assert.Len(t, alerts, 2)
	assert.Equal(t, "AA222BB", alerts[0].Plate)
	assert.Equal(t, "yearly_taxes", alerts[0].Document)
	assert.True(t, alerts[0].Overdue)
	assert.Equal(t, "AA111AA", alerts[1].Plate)
	assert.Equal(t, "insurance", alerts[1].Document)
	assert.False(t, alerts[1].Overdue)
}

func TestVehicleService_NotifyDocumentAlertsFansOutToAdmins(t *testing.T) {
	svc, notifRepo, _ := newVehicleFixture()

	err := svc.NotifyDocumentAlerts(context.Background())
	assert.NoError(t, err)

	// One summary notification per admin.
	assert.Len(t, notifRepo.notifications, 2)
	for _, n := range notifRepo.notifications {
		assert.Equal(t, models.NotificationTypeVehicleDocument, *n.NotificationType)
		assert.Contains(t, n.Message, "AA222BB")
	}
}

func TestVehicleService_NotifyDocumentAlertsQuietWhenNothingDue(t *testing.T) {
	svc, notifRepo, vehicles := newVehicleFixture()
	for id := range vehicles.vehicles {
		if id != 3 {
			delete(vehicles.vehicles, id)
		}
	}

	err := svc.NotifyDocumentAlerts(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, notifRepo.notifications)
}
