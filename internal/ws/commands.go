package ws

import (
	"context"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/tracking"
)

// Tracker is the part of the tracker that inbound messages drive.
type Tracker interface {
	Report(color tracking.Color, sensor geom.Vec) tracking.Detection
	ReportScreen(color tracking.Color, screen geom.Vec) tracking.Detection
	MarkCorner(ctx context.Context, corner tracking.Corner, color tracking.Color) (tracking.Calibration, error)
}

// Auditor records operator actions.
type Auditor interface {
	Record(ctx context.Context, operator, action string, details map[string]any) error
}

var errOperatorOnly = errors.New("calibration requires an operator connection")

// WSMessage is an inbound client command.
type WSMessage struct {
	Type     string    `json:"type"`
	Color    string    `json:"color,omitempty"`
	Position *geom.Vec `json:"position,omitempty"`
	Corner   string    `json:"corner,omitempty"`
}

// Commands applies inbound messages to the tracker.
type Commands struct {
	tracker     Tracker
	audit       Auditor
	allowManual bool
	log         *zap.SugaredLogger
}

// NewCommands wires the tracker. audit may be nil.
func NewCommands(tracker Tracker, audit Auditor, allowManual bool, log *zap.SugaredLogger) *Commands {
	return &Commands{tracker: tracker, audit: audit, allowManual: allowManual, log: log}
}

// Handle applies one raw message and returns the reply for the sender, or
// nil when there is nothing to say.
func (c *Commands) Handle(ctx context.Context, operator string, raw []byte) interface{} {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return errorReply("invalid message")
	}

	switch msg.Type {
	case "pointer":
		return c.pointer(msg)
	case "calibration":
		return c.calibration(ctx, operator, msg)
	default:
		return errorReply("unknown message type: " + msg.Type)
	}
}

// pointer injects a screen-space detection, standing in for the camera.
func (c *Commands) pointer(msg WSMessage) interface{} {
	if !c.allowManual {
		return errorReply("manual pointers are disabled")
	}
	color, err := tracking.ParseColor(msg.Color)
	if err != nil {
		return errorReply(err.Error())
	}
	if msg.Position == nil || !msg.Position.IsFinite() {
		return errorReply("position required")
	}
	c.tracker.ReportScreen(color, *msg.Position)
	return nil
}

func (c *Commands) calibration(ctx context.Context, operator string, msg WSMessage) interface{} {
	if operator == "" {
		return errorReply(errOperatorOnly.Error())
	}
	corner, err := tracking.ParseCorner(msg.Corner)
	if err != nil {
		return errorReply(err.Error())
	}
	color := tracking.Red
	if msg.Color != "" {
		if color, err = tracking.ParseColor(msg.Color); err != nil {
			return errorReply(err.Error())
		}
	}

	cal, err := c.tracker.MarkCorner(ctx, corner, color)
	if err != nil {
		c.log.Warnf("[CALIBRATION] %s failed to mark %s: %v", operator, corner, err)
		return errorReply(err.Error())
	}
	if c.audit != nil {
		details := map[string]any{"corner": string(corner), "color": color.String()}
		if err := c.audit.Record(ctx, operator, "calibration_corner", details); err != nil {
			c.log.Warnf("[CALIBRATION] Failed to audit corner update by %s: %v", operator, err)
		}
	}
	return map[string]interface{}{
		"type":        "calibration",
		"corner":      corner,
		"calibration": cal,
	}
}

func errorReply(message string) map[string]interface{} {
	return map[string]interface{}{
		"type":    "error",
		"message": message,
	}
}
