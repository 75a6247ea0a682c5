package tracking

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/autokat/backend/internal/geom"
	"go.uber.org/zap"
)

// Tracker is the shared record between pointer producers (camera subscriber,
// manual input) and the tick loop. Writers replace whole values under the
// lock; readers always get a consistent copy.
type Tracker struct {
	mu          sync.RWMutex
	detections  Pointers
	calibration Calibration

	// updateMu serializes calibration writes so persistence happens outside mu.
	updateMu sync.Mutex
	store    CalibrationStore

	screen geom.Vec
	now    func() time.Time
	log    *zap.SugaredLogger
}

// NewTracker starts with both pointers parked at the screen center so the
// first tick already has a last-known position.
func NewTracker(screen geom.Vec, calibration Calibration, store CalibrationStore, log *zap.SugaredLogger) *Tracker {
	t := &Tracker{
		calibration: calibration,
		store:       store,
		screen:      screen,
		now:         time.Now,
		log:         log,
	}
	center := screen.Scale(0.5)
	t.detections = ScreenPointers(center, center, t.now())
	return t
}

func (t *Tracker) Screen() geom.Vec {
	return t.screen
}

// Report records a raw sensor sighting, mapping it through the current
// calibration. A sighting that maps to no finite screen point (far outside
// the calibrated area) is dropped and the last known detection returned.
func (t *Tracker) Report(color Color, sensor geom.Vec) Detection {
	t.mu.Lock()
	defer t.mu.Unlock()
	d := Detection{
		SensorPosition: sensor,
		ScreenPosition: t.calibration.Transform(sensor, t.screen),
		Time:           t.now(),
	}
	if !d.ScreenPosition.IsFinite() {
		t.log.Debugf("[CALIBRATION] Dropping %s sighting at %v: no screen position", color, sensor)
		return t.detections.Get(color)
	}
	t.detections.Set(color, d)
	return d
}

// ReportScreen records a sighting that is already in screen space.
func (t *Tracker) ReportScreen(color Color, screen geom.Vec) Detection {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !screen.IsFinite() {
		return t.detections.Get(color)
	}
	d := Detection{SensorPosition: screen, ScreenPosition: screen, Time: t.now()}
	t.detections.Set(color, d)
	return d
}

func (t *Tracker) LatestDetections() Pointers {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.detections
}

func (t *Tracker) SinceLastDetection() time.Duration {
	t.mu.RLock()
	latest := t.detections.Latest()
	t.mu.RUnlock()
	return t.now().Sub(latest)
}

func (t *Tracker) Calibration() Calibration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.calibration
}

// UpdateCalibration replaces one corner. The new set is validated and saved
// before it becomes visible, so a failed save leaves the old set in place.
func (t *Tracker) UpdateCalibration(ctx context.Context, corner Corner, sensor geom.Vec) (Calibration, error) {
	t.updateMu.Lock()
	defer t.updateMu.Unlock()

	next, err := t.Calibration().With(corner, sensor)
	if err != nil {
		return Calibration{}, err
	}
	if err := next.Validate(); err != nil {
		return Calibration{}, err
	}
	if t.store != nil {
		if err := t.store.Save(ctx, next); err != nil {
			return Calibration{}, fmt.Errorf("persist calibration: %w", err)
		}
	}

	t.mu.Lock()
	t.calibration = next
	t.mu.Unlock()

	t.log.Infof("[CALIBRATION] %s set to %v", corner, sensor)
	return next, nil
}

// MarkCorner stores the latest sensor position of color as the given corner.
func (t *Tracker) MarkCorner(ctx context.Context, corner Corner, color Color) (Calibration, error) {
	sensor := t.LatestDetections().Get(color).SensorPosition
	return t.UpdateCalibration(ctx, corner, sensor)
}
