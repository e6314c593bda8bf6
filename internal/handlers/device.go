package handlers

import (
	"errors"
	"net/http"

	"poolctl/internal/device"
	"poolctl/internal/mqtt"

	"github.com/gin-gonic/gin"
)

const (
	statusOK   = "ok"
	statusSent = "sent"

	errBrokerDown = "not connected to broker, command not sent"
)

// CommandRequest asks the dispatcher to publish one actuator command.
type CommandRequest struct {
	Actuator string `json:"actuator" binding:"required" example:"pump"` // pump | valve
	Value    string `json:"value" binding:"required" example:"ON"`      // ON/OFF or 1/2
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Current device state
// @Description  Last-known confirmed snapshot. Values persist across broker drops; check connection_status for freshness.
// @Tags         device
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/state [get]
func (h *Handler) getState(c *gin.Context) {
	c.JSON(http.StatusOK, h.device.Snapshot())
}

// @Summary      Send actuator command
// @Description  Fire-and-forget publish to the actuator's command topic. State reflects only the device's confirmation.
// @Tags         device
// @Accept       json
// @Produce      json
// @Param        body  body  CommandRequest  true  "Command payload"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]interface{}
// @Failure      503  {object}  map[string]interface{}
// @Router       /api/command [post]
func (h *Handler) postCommand(c *gin.Context) {
	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid JSON body"})
		return
	}

	err := h.dispatcher.SendCommand(device.Actuator(req.Actuator), req.Value)
	if err != nil {
		if errors.Is(err, mqtt.ErrNotConnected) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"ok": false, "error": errBrokerDown})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true, "status": statusSent, "actuator": req.Actuator, "value": req.Value})
}
