package handlers

import (
	"net/http"
	"strconv"

	"poolctl/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary      Query event history
// @Description  Events for a device within a range-token window ("24h", "7d", "60m", "all"), ascending by ts.
// @Tags         history
// @Produce      json
// @Param        deviceId  query  string  false  "Device to query"        example(esp32-pool-01)
// @Param        range     query  string  false  "Lookback range token"   example(24h)
// @Param        limit     query  int     false  "Max rows, clamped to [1,500]"  example(200)
// @Success      200  {object}  map[string]interface{}  "ok, deviceId, range, sinceTs, count, items"
// @Failure      500  {object}  map[string]interface{}
// @Router       /api/history [get]
func (h *Handler) getHistory(c *gin.Context) {
	limit := 0
	if qs := c.Query("limit"); qs != "" {
		if v, err := strconv.Atoi(qs); err == nil {
			limit = v
		}
	}

	res, err := h.services.History.Query(c.Request.Context(), service.QueryInput{
		DeviceID: c.Query("deviceId"),
		Range:    c.Query("range"),
		Limit:    limit,
	})
	if err != nil {
		if h.log != nil {
			h.log.Errorw("history_query_failed", "err", err, "deviceId", c.Query("deviceId"), "range", c.Query("range"))
		}
		c.JSON(kindToStatus(err), gin.H{"ok": false, "error": userMessage(err)})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"deviceId": res.DeviceID,
		"range":    res.Range,
		"sinceTs":  res.SinceTs,
		"count":    len(res.Items),
		"items":    res.Items,
	})
}
