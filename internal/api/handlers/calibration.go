package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/middleware"
	"github.com/autokat/backend/internal/tracking"
)

type CalibrationTracker interface {
	Calibration() tracking.Calibration
	UpdateCalibration(ctx context.Context, corner tracking.Corner, sensor geom.Vec) (tracking.Calibration, error)
	MarkCorner(ctx context.Context, corner tracking.Corner, color tracking.Color) (tracking.Calibration, error)
}

// AuditLogger records operator actions made over HTTP.
type AuditLogger interface {
	LogAction(ctx context.Context, operator, ip, route, action string, details map[string]any, success bool) error
}

// GetCalibration returns the sensor positions of the four screen corners.
func GetCalibration(tracker CalibrationTracker) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"calibration": tracker.Calibration()})
	}
}

// MarkCalibrationCorner sets one corner, either to an explicit sensor point
// or to the latest detection of a pointer color (red by default).
func MarkCalibrationCorner(tracker CalibrationTracker, audit AuditLogger, log *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Color  string    `json:"color"`
			Sensor *geom.Vec `json:"sensor"`
		}
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}

		operator := middleware.Operator(c)
		corner, err := tracking.ParseCorner(c.Param("corner"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		details := map[string]any{"corner": string(corner)}
		var cal tracking.Calibration
		if req.Sensor != nil {
			if !req.Sensor.IsFinite() {
				c.JSON(http.StatusBadRequest, gin.H{"error": "sensor position must be finite"})
				return
			}
			details["sensor"] = *req.Sensor
			cal, err = tracker.UpdateCalibration(c.Request.Context(), corner, *req.Sensor)
		} else {
			color := tracking.Red
			if req.Color != "" {
				if color, err = tracking.ParseColor(req.Color); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
			}
			details["color"] = color.String()
			cal, err = tracker.MarkCorner(c.Request.Context(), corner, color)
		}

		if audit != nil {
			if aerr := audit.LogAction(c.Request.Context(), operator, c.ClientIP(), c.FullPath(), "calibration_corner", details, err == nil); aerr != nil {
				log.Warnf("[CALIBRATION] Failed to audit corner update by %s: %v", operator, aerr)
			}
		}

		if err != nil {
			log.Warnf("[CALIBRATION] %s failed to set %s: %v", operator, corner, err)
			if errors.Is(err, tracking.ErrDegenerateCalibration) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update calibration"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"corner": corner, "calibration": cal})
	}
}
