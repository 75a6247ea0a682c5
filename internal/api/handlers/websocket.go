package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/autokat/backend/internal/middleware"
)

// WSServer upgrades a request into a snapshot subscriber.
type WSServer interface {
	ServeWS(w http.ResponseWriter, r *http.Request, operator string)
}

// HandleWebSocket attaches a display or operator panel to the hub. Run it
// behind OptionalOperator so operator connections may send calibration commands.
func HandleWebSocket(hub WSServer) gin.HandlerFunc {
	return func(c *gin.Context) {
		hub.ServeWS(c.Writer, c.Request, middleware.Operator(c))
	}
}
