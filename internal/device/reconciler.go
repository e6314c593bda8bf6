package device

import (
	"sync"

	"poolctl/internal/logger"
	"poolctl/internal/models"
)

// Change is one observed DeviceState transition. Previous carries the value
// being replaced so subscribers can react to specific edges.
type Change struct {
	Field    Field
	State    models.DeviceState
	Previous models.DeviceState
}

// ChangeHandler receives one call per observed transition of its field.
type ChangeHandler func(Change)

// Reconciler is the single writer of DeviceState. It normalizes raw topic
// messages through the decoder registry, swallows duplicates, and notifies
// subscribers exactly once per observed transition.
//
// On a transport drop it freezes the last-known field values and flips only
// ConnectionStatus; consumers gate interactivity on ConnectionStatus alone.
type Reconciler struct {
	log      *logger.Logger
	decoders map[string]decoder

	mu       sync.Mutex
	state    models.DeviceState
	handlers map[Field][]ChangeHandler
	connSubs []func(models.ConnectionStatus)
}

// NewReconciler builds a reconciler over the configured topic map.
func NewReconciler(topics TopicMap, log *logger.Logger) *Reconciler {
	return &Reconciler{
		log:      log,
		decoders: newDecoderRegistry(topics),
		state:    models.NewDeviceState(),
		handlers: make(map[Field][]ChangeHandler),
	}
}

// Subscribe registers a handler for transitions of one field.
func (r *Reconciler) Subscribe(field Field, fn ChangeHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[field] = append(r.handlers[field], fn)
}

// SubscribeConnection registers a handler for ConnectionStatus transitions.
func (r *Reconciler) SubscribeConnection(fn func(models.ConnectionStatus)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connSubs = append(r.connSubs, fn)
}

// Snapshot returns a copy of the current DeviceState.
func (r *Reconciler) Snapshot() models.DeviceState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// HandleMessage ingests one raw transport message. Unknown topics and
// payloads that fail normalization are logged and dropped; DeviceState is
// never set from an unparseable message.
func (r *Reconciler) HandleMessage(topic string, payload []byte) {
	dec, ok := r.decoders[topic]
	if !ok {
		r.log.Debugw("state_topic_unmapped", "topic", topic)
		return
	}
	v, err := dec(topic, payload)
	if err != nil {
		r.log.Warnw("state_payload_dropped", "topic", topic, "err", err)
		return
	}
	r.apply(v)
}

// apply writes the decoded value if it differs from the stored one and
// notifies that field's subscribers. Identical values are swallowed.
func (r *Reconciler) apply(v Value) {
	r.mu.Lock()
	prev := r.state
	changed := false
	switch v.Field {
	case FieldPump:
		if r.state.PumpState != v.Pump {
			r.state.PumpState = v.Pump
			changed = true
		}
	case FieldValve:
		if r.state.ValveMode != v.Valve {
			r.state.ValveMode = v.Valve
			changed = true
		}
	case FieldWifi:
		if r.state.Wifi != v.Wifi {
			r.state.Wifi = v.Wifi
			changed = true
		}
	case FieldTimer:
		if r.state.Timer != v.Timer {
			r.state.Timer = v.Timer
			changed = true
		}
	}
	if !changed {
		r.mu.Unlock()
		return
	}
	current := r.state
	subs := append([]ChangeHandler(nil), r.handlers[v.Field]...)
	r.mu.Unlock()

	for _, fn := range subs {
		fn(Change{Field: v.Field, State: current, Previous: prev})
	}
}

// ConnectRequested marks the link as reconnecting until the handshake lands.
func (r *Reconciler) ConnectRequested() {
	r.setConnection(models.StatusReconnecting)
}

// TransportConnected marks the link up after handshake and subscriptions.
func (r *Reconciler) TransportConnected() {
	r.setConnection(models.StatusConnected)
}

// TransportDown marks the link down. Field values keep their last-known
// state so the dashboard shows what was true, not UNKNOWN flashes, across
// brief drops.
func (r *Reconciler) TransportDown() {
	r.setConnection(models.StatusDisconnected)
}

func (r *Reconciler) setConnection(s models.ConnectionStatus) {
	r.mu.Lock()
	if r.state.ConnectionStatus == s {
		r.mu.Unlock()
		return
	}
	r.state.ConnectionStatus = s
	subs := append(([]func(models.ConnectionStatus))(nil), r.connSubs...)
	r.mu.Unlock()

	r.log.Infow("connection_status", "status", s)
	for _, fn := range subs {
		fn(s)
	}
}
