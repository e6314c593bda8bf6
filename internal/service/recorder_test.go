package service

import (
	"context"
	"testing"

	"poolctl/internal/device"
	"poolctl/internal/logger"
	"poolctl/internal/models"
)

type captureHistory struct {
	inputs []IngestInput
	err    error
}

func (c *captureHistory) Ingest(_ context.Context, in IngestInput) (models.HistoryEvent, error) {
	c.inputs = append(c.inputs, in)
	return models.HistoryEvent{ID: int64(len(c.inputs))}, c.err
}

func (c *captureHistory) Query(_ context.Context, _ QueryInput) (QueryResult, error) {
	return QueryResult{}, nil
}

func TestRecorder_RecordsConfirmedPumpTransitions(t *testing.T) {
	t.Parallel()

	history := &captureHistory{}
	topics := device.TopicMap{
		PumpState:  "p/state",
		ValveState: "v/state",
		WifiState:  "w/state",
		TimerState: "t/state",
	}
	rec := device.NewReconciler(topics, logger.Nop())
	NewEventRecorder(history, "esp32-pool-01", logger.Nop()).Attach(rec)

	// Valve mode 2 confirmed first; pump transitions then carry valve 2.
	rec.HandleMessage("v/state", []byte("2"))
	rec.HandleMessage("p/state", []byte("ON"))
	rec.HandleMessage("p/state", []byte("ON")) // duplicate: no row
	rec.HandleMessage("p/state", []byte("OFF"))

	if len(history.inputs) != 2 {
		t.Fatalf("want 2 recorded events, got %d", len(history.inputs))
	}
	first, second := history.inputs[0], history.inputs[1]
	if first.DeviceID != "esp32-pool-01" || first.State != "ON" {
		t.Fatalf("unexpected first event: %+v", first)
	}
	if first.ValveID == nil || *first.ValveID != 2 {
		t.Fatalf("first event should carry valve 2: %+v", first)
	}
	if second.State != "OFF" {
		t.Fatalf("unexpected second event: %+v", second)
	}
}

func TestRecorder_IngestFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	history := &captureHistory{err: StorageError("insert event", nil)}
	topics := device.TopicMap{PumpState: "p/state"}
	rec := device.NewReconciler(topics, logger.Nop())
	NewEventRecorder(history, "esp32-pool-01", logger.Nop()).Attach(rec)

	// The reconciler callback must not panic or propagate the failure.
	rec.HandleMessage("p/state", []byte("ON"))

	if len(history.inputs) != 1 {
		t.Fatalf("ingest should still have been attempted once")
	}
}
