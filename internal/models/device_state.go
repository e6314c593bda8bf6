package models

// PumpState is the last confirmed pump relay state.
type PumpState string

const (
	PumpOn      PumpState = "ON"
	PumpOff     PumpState = "OFF"
	PumpUnknown PumpState = "UNKNOWN"
)

// ValveMode is the last confirmed valve position.
type ValveMode string

const (
	ValveMode1       ValveMode = "MODE_1"
	ValveMode2       ValveMode = "MODE_2"
	ValveModeUnknown ValveMode = "UNKNOWN"
)

// ConnectionStatus tracks the broker link, not any device field.
type ConnectionStatus string

const (
	StatusConnected    ConnectionStatus = "CONNECTED"
	StatusDisconnected ConnectionStatus = "DISCONNECTED"
	StatusReconnecting ConnectionStatus = "RECONNECTING"
)

// SignalQuality buckets the device-reported RSSI.
type SignalQuality string

const (
	SignalExcellent SignalQuality = "excellent"
	SignalGood      SignalQuality = "good"
	SignalFair      SignalQuality = "fair"
	SignalPoor      SignalQuality = "poor"
)

// WifiStatus is the device's own report of its WiFi link.
type WifiStatus struct {
	Connected bool          `json:"connected"`
	SSID      string        `json:"ssid,omitempty"`
	IP        string        `json:"ip,omitempty"`
	RSSI      int           `json:"rssi,omitempty"`
	Quality   SignalQuality `json:"quality,omitempty"`
}

// TimerState is the device-side countdown for a valve run.
type TimerState struct {
	Active           bool `json:"active"`
	Mode             int  `json:"mode"`
	RemainingSeconds int  `json:"remaining_seconds"`
	DurationSeconds  int  `json:"duration_seconds"`
}

// DeviceState is the current snapshot of the pool controller as confirmed
// over MQTT. Fields start UNKNOWN and are only ever set from inbound state
// messages; command echoes are never written here.
type DeviceState struct {
	PumpState        PumpState        `json:"pump_state"`
	ValveMode        ValveMode        `json:"valve_mode"`
	Wifi             WifiStatus       `json:"wifi"`
	Timer            TimerState       `json:"timer"`
	ConnectionStatus ConnectionStatus `json:"connection_status"`
}

// NewDeviceState returns the baseline snapshot before any message arrives.
func NewDeviceState() DeviceState {
	return DeviceState{
		PumpState:        PumpUnknown,
		ValveMode:        ValveModeUnknown,
		ConnectionStatus: StatusDisconnected,
	}
}
