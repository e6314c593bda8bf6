package device

import (
	"errors"
	"testing"

	"poolctl/internal/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	topics   []string
	payloads []string
	err      error
}

func (f *fakePublisher) Publish(topic, payload string) error {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	return f.err
}

var testCmdTopics = CommandTopics{
	Pump:  "devices/test/pump/set",
	Valve: "devices/test/valve/mode/set",
}

func TestDispatcher_ResolvesTopicsAndNormalizes(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(testCmdTopics, pub, logger.Nop())

	require.NoError(t, d.SendCommand(ActuatorPump, " on "))
	require.NoError(t, d.SendCommand(ActuatorValve, "2"))

	assert.Equal(t, []string{testCmdTopics.Pump, testCmdTopics.Valve}, pub.topics)
	assert.Equal(t, []string{"ON", "2"}, pub.payloads)
}

func TestDispatcher_RejectsInvalidCommands(t *testing.T) {
	pub := &fakePublisher{}
	d := NewDispatcher(testCmdTopics, pub, logger.Nop())

	assert.Error(t, d.SendCommand(ActuatorPump, "MAYBE"))
	assert.Error(t, d.SendCommand(ActuatorValve, "3"))
	assert.Error(t, d.SendCommand(Actuator("jacuzzi"), "ON"))
	assert.Empty(t, pub.topics, "invalid commands must not reach the transport")
}

func TestDispatcher_PropagatesPublishFailure(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	d := NewDispatcher(testCmdTopics, pub, logger.Nop())

	err := d.SendCommand(ActuatorPump, "OFF")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not connected")
}
