package handlers

import (
	"net/http"

	"poolctl/internal/service"

	"github.com/gin-gonic/gin"
)

// EventRequest is the ingestion payload. ts and valveId are optional:
// receipt time and valve 1 apply when absent.
type EventRequest struct {
	DeviceID string   `json:"deviceId" example:"esp32-pool-01"`
	State    string   `json:"state" example:"ON"`
	TS       *float64 `json:"ts,omitempty" example:"1735689600000"`
	ValveID  *int     `json:"valveId,omitempty" example:"1"`
}

// @Summary      Ingest one event
// @Description  Appends one pump event row. Requires the x-api-key header.
// @Tags         history
// @Accept       json
// @Produce      json
// @Param        x-api-key  header  string        true  "Static API key"
// @Param        body       body    EventRequest  true  "Event payload"
// @Success      200  {object}  map[string]interface{}  "ok, inserted"
// @Failure      400  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]interface{}
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/event [post]
func (h *Handler) postEvent(c *gin.Context) {
	var req EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid JSON body"})
		return
	}

	in := service.IngestInput{
		DeviceID: req.DeviceID,
		State:    req.State,
	}
	if req.TS != nil {
		ts := int64(*req.TS)
		in.TS = &ts
	}
	in.ValveID = req.ValveID

	inserted, err := h.services.History.Ingest(c.Request.Context(), in)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("event_ingest_failed", "err", err)
		}
		c.JSON(kindToStatus(err), gin.H{"ok": false, "error": userMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "inserted": inserted})
}

// userMessage is the caller-facing error text. Storage failures keep their
// diagnostic detail attached per the Error type; everything else is already
// written for the caller.
func userMessage(err error) string {
	return err.Error()
}
