package service

import (
	"context"
	"time"

	"poolctl/internal/device"
	"poolctl/internal/logger"
	"poolctl/internal/models"
)

const recordTimeout = 5 * time.Second

// EventRecorder turns confirmed pump transitions into history rows. It goes
// through the History ingest path rather than the table directly, so the
// History service stays the sole owner of the store.
//
// This replaces the browser dashboard's per-transition POST /api/event call
// with an in-process subscription.
type EventRecorder struct {
	history  History
	deviceID string
	log      *logger.Logger
}

func NewEventRecorder(history History, deviceID string, log *logger.Logger) *EventRecorder {
	return &EventRecorder{history: history, deviceID: deviceID, log: log}
}

// Attach subscribes the recorder to pump transitions on the reconciler.
func (r *EventRecorder) Attach(rec *device.Reconciler) {
	rec.Subscribe(device.FieldPump, r.onPumpChange)
}

func (r *EventRecorder) onPumpChange(ch device.Change) {
	state := string(ch.State.PumpState)
	if state != "ON" && state != "OFF" {
		return
	}

	valveID := 1
	if ch.State.ValveMode == models.ValveMode2 {
		valveID = 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
	defer cancel()

	inserted, err := r.history.Ingest(ctx, IngestInput{
		DeviceID: r.deviceID,
		State:    state,
		ValveID:  &valveID,
	})
	if err != nil {
		r.log.Errorw("event_record_failed", "state", state, "err", err)
		return
	}
	r.log.Infow("event_recorded", "id", inserted.ID, "state", inserted.State, "valve", inserted.ValveID)
}
