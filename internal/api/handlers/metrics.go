package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autokat/backend/internal/game"
)

// LoopStats is the read side of the tick loop.
type LoopStats interface {
	Metrics() *game.LoopMetrics
	StateName() string
}

type ClientCounter interface {
	ClientCount() int
}

// GetMetrics reports tick loop counters, the current state and connected displays.
func GetMetrics(loop LoopStats, hub ClientCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := gin.H{
			"loop":  loop.Metrics().Snapshot(),
			"state": loop.StateName(),
		}
		if hub != nil {
			body["clients"] = hub.ClientCount()
		}
		c.JSON(http.StatusOK, body)
	}
}
