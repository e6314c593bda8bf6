package device

import (
	"fmt"
	"strings"

	"poolctl/internal/logger"
)

// Actuator is a controllable device function addressed by one command topic.
type Actuator string

const (
	ActuatorPump  Actuator = "pump"
	ActuatorValve Actuator = "valve"
)

// CommandTopics binds actuators to their command topics.
type CommandTopics struct {
	Pump  string
	Valve string
}

// Publisher is the transport surface the dispatcher needs.
type Publisher interface {
	Publish(topic, payload string) error
}

// Dispatcher publishes user-initiated commands. Commands are fire-and-forget
// and never touch DeviceState: the dashboard reflects only confirmed state
// echoed back by the device through the reconciler.
type Dispatcher struct {
	topics CommandTopics
	pub    Publisher
	log    *logger.Logger
}

// NewDispatcher wires a dispatcher over the transport.
func NewDispatcher(topics CommandTopics, pub Publisher, log *logger.Logger) *Dispatcher {
	return &Dispatcher{topics: topics, pub: pub, log: log}
}

// SendCommand resolves the actuator's command topic and publishes value.
// Pump accepts ON/OFF, valve accepts 1/2.
func (d *Dispatcher) SendCommand(actuator Actuator, value string) error {
	topic, payload, err := d.resolve(actuator, value)
	if err != nil {
		return err
	}
	if err := d.pub.Publish(topic, payload); err != nil {
		return fmt.Errorf("dispatch %s=%s: %w", actuator, payload, err)
	}
	d.log.Infow("command_sent", "actuator", actuator, "value", payload)
	return nil
}

func (d *Dispatcher) resolve(actuator Actuator, value string) (topic, payload string, err error) {
	switch actuator {
	case ActuatorPump:
		payload = strings.ToUpper(strings.TrimSpace(value))
		if payload != "ON" && payload != "OFF" {
			return "", "", fmt.Errorf("pump command %q: want ON or OFF", value)
		}
		return d.topics.Pump, payload, nil
	case ActuatorValve:
		payload = strings.TrimSpace(value)
		if payload != "1" && payload != "2" {
			return "", "", fmt.Errorf("valve command %q: want 1 or 2", value)
		}
		return d.topics.Valve, payload, nil
	}
	return "", "", fmt.Errorf("unknown actuator %q", actuator)
}
