package device

import (
	"encoding/json"
	"fmt"
	"strings"

	"poolctl/internal/models"
)

// Field names a logical actuator or status slot in DeviceState.
type Field string

const (
	FieldPump  Field = "pump"
	FieldValve Field = "valve"
	FieldWifi  Field = "wifi"
	FieldTimer Field = "timer"
)

// Value is a decoded, typed payload for one Field. Exactly one member is
// populated, matching the Field it was decoded for.
type Value struct {
	Field Field
	Pump  models.PumpState
	Valve models.ValveMode
	Wifi  models.WifiStatus
	Timer models.TimerState
}

// DecodeError reports an inbound payload that failed normalization. The
// reconciler logs and drops these; they never reach DeviceState.
type DecodeError struct {
	Topic  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %s", e.Topic, e.Reason)
}

// decoder turns a raw payload into a typed Value or a DecodeError.
type decoder func(topic string, payload []byte) (Value, error)

// TopicMap binds the configured state topics to their logical fields.
type TopicMap struct {
	PumpState  string
	ValveState string
	WifiState  string
	TimerState string
}

// Topics lists every state topic the transport must subscribe to.
func (m TopicMap) Topics() []string {
	return []string{m.PumpState, m.ValveState, m.WifiState, m.TimerState}
}

// newDecoderRegistry builds the static topic→decoder table. Payload shape
// is decided per topic, never sniffed from content.
func newDecoderRegistry(topics TopicMap) map[string]decoder {
	return map[string]decoder{
		topics.PumpState:  decodePump,
		topics.ValveState: decodeValve,
		topics.WifiState:  decodeWifi,
		topics.TimerState: decodeTimer,
	}
}

func decodePump(topic string, payload []byte) (Value, error) {
	switch strings.ToUpper(strings.TrimSpace(string(payload))) {
	case "ON":
		return Value{Field: FieldPump, Pump: models.PumpOn}, nil
	case "OFF":
		return Value{Field: FieldPump, Pump: models.PumpOff}, nil
	}
	return Value{}, &DecodeError{Topic: topic, Reason: fmt.Sprintf("payload %q is not ON/OFF", payload)}
}

func decodeValve(topic string, payload []byte) (Value, error) {
	switch strings.TrimSpace(string(payload)) {
	case "1":
		return Value{Field: FieldValve, Valve: models.ValveMode1}, nil
	case "2":
		return Value{Field: FieldValve, Valve: models.ValveMode2}, nil
	}
	return Value{}, &DecodeError{Topic: topic, Reason: fmt.Sprintf("payload %q is not a valve mode", payload)}
}

// wifiReport is the wire shape published by the firmware.
type wifiReport struct {
	Status  string `json:"status"`
	SSID    string `json:"ssid"`
	IP      string `json:"ip"`
	RSSI    int    `json:"rssi"`
	Quality string `json:"quality"`
}

func decodeWifi(topic string, payload []byte) (Value, error) {
	var r wifiReport
	if err := json.Unmarshal(payload, &r); err != nil {
		return Value{}, &DecodeError{Topic: topic, Reason: "invalid JSON: " + err.Error()}
	}
	quality, ok := parseQuality(r.Quality)
	if !ok {
		return Value{}, &DecodeError{Topic: topic, Reason: fmt.Sprintf("unknown quality %q", r.Quality)}
	}
	return Value{Field: FieldWifi, Wifi: models.WifiStatus{
		Connected: strings.EqualFold(strings.TrimSpace(r.Status), "connected"),
		SSID:      r.SSID,
		IP:        r.IP,
		RSSI:      r.RSSI,
		Quality:   quality,
	}}, nil
}

func parseQuality(s string) (models.SignalQuality, bool) {
	switch models.SignalQuality(strings.ToLower(strings.TrimSpace(s))) {
	case models.SignalExcellent:
		return models.SignalExcellent, true
	case models.SignalGood:
		return models.SignalGood, true
	case models.SignalFair:
		return models.SignalFair, true
	case models.SignalPoor:
		return models.SignalPoor, true
	}
	return "", false
}

// timerReport is the wire shape published by the firmware.
type timerReport struct {
	Active    bool `json:"active"`
	Mode      int  `json:"mode"`
	Remaining int  `json:"remaining"`
	Duration  int  `json:"duration"`
}

func decodeTimer(topic string, payload []byte) (Value, error) {
	var r timerReport
	if err := json.Unmarshal(payload, &r); err != nil {
		return Value{}, &DecodeError{Topic: topic, Reason: "invalid JSON: " + err.Error()}
	}
	if r.Mode != 0 && r.Mode != 1 && r.Mode != 2 {
		return Value{}, &DecodeError{Topic: topic, Reason: fmt.Sprintf("timer mode %d out of range", r.Mode)}
	}
	if r.Remaining < 0 || r.Duration < 0 {
		return Value{}, &DecodeError{Topic: topic, Reason: "negative timer seconds"}
	}
	return Value{Field: FieldTimer, Timer: models.TimerState{
		Active:           r.Active,
		Mode:             r.Mode,
		RemainingSeconds: r.Remaining,
		DurationSeconds:  r.Duration,
	}}, nil
}
