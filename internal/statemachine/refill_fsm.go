package statemachine

import (
	"context"
	"fmt"

	"github.com/looplab/fsm"

	"github.com/krosit/flota-api/internal/models"
)

// RefillFSM wraps a fuel entry with its lifecycle state machine. A refill
// is open from creation until it is closed; closing is terminal.
type RefillFSM struct {
	entry *models.FuelEntry
	fsm   *fsm.FSM
}

// NewRefillFSM creates a new refill state machine.
func NewRefillFSM(entry *models.FuelEntry) *RefillFSM {
	r := &RefillFSM{
		entry: entry,
	}

	r.fsm = fsm.NewFSM(
		entry.Status(),
		fsm.Events{
			// open → closed, terminal
			{Name: "close", Src: []string{models.RefillStatusOpen}, Dst: models.RefillStatusClosed},
		},
		fsm.Callbacks{},
	)

	return r
}

// Close transitions the refill to closed.
func (r *RefillFSM) Close(ctx context.Context) error {
	if err := r.fsm.Event(ctx, "close"); err != nil {
		return fmt.Errorf("failed to close refill: %w", err)
	}

	r.entry.IsClosed = r.Current() == models.RefillStatusClosed
	return nil
}

// Current returns the current state.
func (r *RefillFSM) Current() string {
	return r.fsm.Current()
}

// CanClose reports whether the refill may be closed.
func (r *RefillFSM) CanClose() bool {
	return r.fsm.Can("close")
}
