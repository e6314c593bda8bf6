package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"poolctl/internal/models"
	"poolctl/internal/service"
)

var errTest = errors.New("boom")

func TestHistoryHandler_Success(t *testing.T) {
	history := &mockHistory{queryResp: service.QueryResult{
		DeviceID: "esp32-pool-01",
		Range:    "1h",
		SinceTs:  1000,
		Items: []models.HistoryItem{
			{TS: 1500, State: "ON", ValveID: 1},
			{TS: 1700, State: "OFF", ValveID: 1},
		},
	}}
	r := newTestRouter(history, nil, nil, testAPIKey)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/history?deviceId=esp32-pool-01&range=1h&limit=50", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	var out struct {
		OK       bool                 `json:"ok"`
		DeviceID string               `json:"deviceId"`
		Range    string               `json:"range"`
		SinceTs  int64                `json:"sinceTs"`
		Count    int                  `json:"count"`
		Items    []models.HistoryItem `json:"items"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.OK || out.Count != 2 || len(out.Items) != 2 || out.SinceTs != 1000 {
		t.Fatalf("unexpected response: %+v", out)
	}
	if out.Items[0].TS != 1500 || out.Items[0].State != "ON" {
		t.Fatalf("unexpected items: %+v", out.Items)
	}

	if history.lastQuery.Limit != 50 || history.lastQuery.Range != "1h" {
		t.Fatalf("query params not forwarded: %+v", history.lastQuery)
	}
}

func TestHistoryHandler_InvalidLimitFallsBackToDefault(t *testing.T) {
	history := &mockHistory{}
	r := newTestRouter(history, nil, nil, testAPIKey)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/history?limit=abc", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	// unparsable limit reaches the service as zero, which applies the default
	if history.lastQuery.Limit != 0 {
		t.Fatalf("limit should pass through as 0, got %d", history.lastQuery.Limit)
	}
}

func TestHistoryHandler_StorageError(t *testing.T) {
	history := &mockHistory{queryErr: service.StorageError("query events", errTest)}
	r := newTestRouter(history, nil, nil, testAPIKey)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/history", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.OK || out.Error == "" {
		t.Fatalf("storage failure must carry detail: %s", w.Body.String())
	}
}

func TestHistoryHandler_MethodNotAllowed(t *testing.T) {
	history := &mockHistory{}
	r := newTestRouter(history, nil, nil, testAPIKey)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/history", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
