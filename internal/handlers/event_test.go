package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"poolctl/internal/models"
	"poolctl/internal/service"
)

func postEvent(r http.Handler, key, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestEventHandler_NoServerKeyConfigured(t *testing.T) {
	history := &mockHistory{}
	r := newTestRouter(history, nil, nil, "")

	w := postEvent(r, "whatever", `{"deviceId":"d","state":"ON"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 without server key, got %d", w.Code)
	}
	if history.ingestN != 0 {
		t.Fatalf("ingest must not run without a configured key")
	}
}

func TestEventHandler_WrongKey(t *testing.T) {
	history := &mockHistory{}
	r := newTestRouter(history, nil, nil, testAPIKey)

	for _, key := range []string{"", "nope"} {
		w := postEvent(r, key, `{"deviceId":"d","state":"ON"}`)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("key %q: expected 401, got %d", key, w.Code)
		}
	}
	if history.ingestN != 0 {
		t.Fatalf("ingest must not run with a bad key")
	}
}

func TestEventHandler_MalformedBody(t *testing.T) {
	history := &mockHistory{}
	r := newTestRouter(history, nil, nil, testAPIKey)

	w := postEvent(r, testAPIKey, `{"deviceId":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed JSON, got %d", w.Code)
	}
	if history.ingestN != 0 {
		t.Fatalf("ingest must not run on malformed body")
	}
}

func TestEventHandler_ValidationErrorFromService(t *testing.T) {
	history := &mockHistory{ingestErr: service.BadRequest("state must normalize to ON or OFF")}
	r := newTestRouter(history, nil, nil, testAPIKey)

	w := postEvent(r, testAPIKey, `{"deviceId":"d","state":"MAYBE"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	var out struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	if out.OK || out.Error == "" {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestEventHandler_Success(t *testing.T) {
	history := &mockHistory{ingestResp: models.HistoryEvent{
		ID: 7, DeviceID: "esp32-pool-01", TS: 1735689600000, State: "ON", ValveID: 2,
	}}
	r := newTestRouter(history, nil, nil, testAPIKey)

	w := postEvent(r, testAPIKey, `{"deviceId":"esp32-pool-01","state":"on","ts":1735689600000,"valveId":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d, body=%s", w.Code, w.Body.String())
	}

	var out struct {
		OK       bool                `json:"ok"`
		Inserted models.HistoryEvent `json:"inserted"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !out.OK || out.Inserted.ID != 7 || out.Inserted.State != "ON" {
		t.Fatalf("unexpected response: %+v", out)
	}

	// optional fields must reach the service as pointers
	if history.lastIngest.TS == nil || *history.lastIngest.TS != 1735689600000 {
		t.Fatalf("ts not forwarded: %+v", history.lastIngest)
	}
	if history.lastIngest.ValveID == nil || *history.lastIngest.ValveID != 2 {
		t.Fatalf("valveId not forwarded: %+v", history.lastIngest)
	}
}

func TestEventHandler_StorageError(t *testing.T) {
	history := &mockHistory{ingestErr: service.StorageError("insert event", errTest)}
	r := newTestRouter(history, nil, nil, testAPIKey)

	w := postEvent(r, testAPIKey, `{"deviceId":"d","state":"ON"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}
