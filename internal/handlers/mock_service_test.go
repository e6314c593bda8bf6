package handlers

import (
	"context"

	"poolctl/internal/device"
	"poolctl/internal/logger"
	"poolctl/internal/models"
	"poolctl/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service / device mocks ----

type mockHistory struct {
	ingestResp models.HistoryEvent
	ingestErr  error
	lastIngest service.IngestInput
	ingestN    int

	queryResp service.QueryResult
	queryErr  error
	lastQuery service.QueryInput
}

func (m *mockHistory) Ingest(_ context.Context, in service.IngestInput) (models.HistoryEvent, error) {
	m.ingestN++
	m.lastIngest = in
	return m.ingestResp, m.ingestErr
}

func (m *mockHistory) Query(_ context.Context, in service.QueryInput) (service.QueryResult, error) {
	m.lastQuery = in
	return m.queryResp, m.queryErr
}

type mockState struct {
	state models.DeviceState
}

func (m *mockState) Snapshot() models.DeviceState { return m.state }

type mockDispatcher struct {
	err          error
	lastActuator device.Actuator
	lastValue    string
	calls        int
}

func (m *mockDispatcher) SendCommand(actuator device.Actuator, value string) error {
	m.calls++
	m.lastActuator = actuator
	m.lastValue = value
	return m.err
}

const testAPIKey = "sekrit"

func newTestRouter(history *mockHistory, state *mockState, disp *mockDispatcher, apiKey string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if state == nil {
		state = &mockState{state: models.NewDeviceState()}
	}
	if disp == nil {
		disp = &mockDispatcher{}
	}
	h := NewHandler(&service.Service{History: history}, state, disp, apiKey, logger.Nop())
	return h.InitRoutes()
}
