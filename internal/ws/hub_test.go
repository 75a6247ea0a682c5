package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/autokat/backend/internal/geom"
	"github.com/autokat/backend/internal/tracking"
)

type fakeTracker struct {
	mu      sync.Mutex
	screen  map[tracking.Color]geom.Vec
	sensor  map[tracking.Color]geom.Vec
	corners []tracking.Corner
	markErr error
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{screen: map[tracking.Color]geom.Vec{}, sensor: map[tracking.Color]geom.Vec{}}
}

func (f *fakeTracker) Report(c tracking.Color, p geom.Vec) tracking.Detection {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sensor[c] = p
	return tracking.Detection{SensorPosition: p}
}

func (f *fakeTracker) ReportScreen(c tracking.Color, p geom.Vec) tracking.Detection {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.screen[c] = p
	return tracking.Detection{ScreenPosition: p}
}

func (f *fakeTracker) MarkCorner(_ context.Context, corner tracking.Corner, _ tracking.Color) (tracking.Calibration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return tracking.Calibration{}, f.markErr
	}
	f.corners = append(f.corners, corner)
	return tracking.IdentityCalibration(geom.V(100, 100)), nil
}

func (f *fakeTracker) screenOf(c tracking.Color) (geom.Vec, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.screen[c]
	return p, ok
}

type fakeAuditor struct {
	mu      sync.Mutex
	actions []string
}

func (a *fakeAuditor) Record(_ context.Context, operator, action string, _ map[string]any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, operator+":"+action)
	return nil
}

func startHub(t *testing.T, commands *Commands) (*Hub, string) {
	t.Helper()
	hub := NewHub(commands, zap.NewNop().Sugar())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("operator"))
	}))
	t.Cleanup(func() {
		s.Close()
		cancel()
	})
	return hub, "ws" + strings.TrimPrefix(s.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readReply(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply map[string]any
	require.NoError(t, conn.ReadJSON(&reply))
	return reply
}

func TestHubBroadcastsToClients(t *testing.T) {
	hub, url := startHub(t, nil)
	a := dial(t, url)
	b := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 5*time.Millisecond)

	hub.Broadcast([]byte(`{"type":"state"}`))

	for _, conn := range []*websocket.Conn{a, b} {
		assert.Equal(t, "state", readReply(t, conn)["type"])
	}

	a.Close()
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)
}

func TestBroadcastSkipsFullClients(t *testing.T) {
	hub := NewHub(nil, zap.NewNop().Sugar())
	slow := &Client{id: "slow", send: make(chan []byte, 1)}
	fast := &Client{id: "fast", send: make(chan []byte, 4)}
	hub.clients[slow.id] = slow
	hub.clients[fast.id] = fast

	done := make(chan struct{})
	go func() {
		for i := 0; i < 3; i++ {
			hub.Broadcast([]byte{byte(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full client")
	}
	assert.Len(t, slow.send, 1)
	assert.Len(t, fast.send, 3)
}

func TestPointerCommand(t *testing.T) {
	tracker := newFakeTracker()
	hub, url := startHub(t, NewCommands(tracker, nil, true, zap.NewNop().Sugar()))
	conn := dial(t, url)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "pointer", "color": "green", "position": []float64{10, 20}}))

	require.Eventually(t, func() bool {
		p, ok := tracker.screenOf(tracking.Green)
		return ok && p == geom.V(10, 20)
	}, 2*time.Second, 5*time.Millisecond)
}

func TestCalibrationCommandNeedsOperator(t *testing.T) {
	tracker := newFakeTracker()
	audit := &fakeAuditor{}
	_, url := startHub(t, NewCommands(tracker, audit, true, zap.NewNop().Sugar()))

	display := dial(t, url)
	require.NoError(t, display.WriteJSON(map[string]any{"type": "calibration", "corner": "top_left"}))
	reply := readReply(t, display)
	assert.Equal(t, "error", reply["type"])

	panel := dial(t, url+"?operator=alice")
	require.NoError(t, panel.WriteJSON(map[string]any{"type": "calibration", "corner": "top_left"}))
	reply = readReply(t, panel)
	assert.Equal(t, "calibration", reply["type"])
	assert.Equal(t, "top_left", reply["corner"])

	tracker.mu.Lock()
	assert.Equal(t, []tracking.Corner{tracking.TopLeft}, tracker.corners)
	tracker.mu.Unlock()
	audit.mu.Lock()
	assert.Equal(t, []string{"alice:calibration_corner"}, audit.actions)
	audit.mu.Unlock()
}

func TestCommandErrors(t *testing.T) {
	tracker := newFakeTracker()
	cmds := NewCommands(tracker, nil, false, zap.NewNop().Sugar())
	ctx := context.Background()

	tests := []struct {
		name     string
		operator string
		raw      string
		message  string
	}{
		{"garbage", "", `{`, "invalid message"},
		{"unknown type", "", `{"type":"dance"}`, "unknown message type: dance"},
		{"manual disabled", "", `{"type":"pointer","color":"red","position":[1,2]}`, "manual pointers are disabled"},
		{"bad corner", "bob", `{"type":"calibration","corner":"middle"}`, `unknown calibration corner: "middle"`},
		{"bad color", "bob", `{"type":"calibration","corner":"top_left","color":"blue"}`, `unknown pointer color "blue"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, ok := cmds.Handle(ctx, tt.operator, []byte(tt.raw)).(map[string]interface{})
			require.True(t, ok)
			assert.Equal(t, "error", reply["type"])
			assert.Equal(t, tt.message, reply["message"])
		})
	}
}

func TestCalibrationReplyEncodes(t *testing.T) {
	cmds := NewCommands(newFakeTracker(), nil, true, zap.NewNop().Sugar())
	reply := cmds.Handle(context.Background(), "bob", []byte(`{"type":"calibration","corner":"bottom_right","color":"green"}`))

	data, err := json.Marshal(reply)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"type": "calibration",
		"corner": "bottom_right",
		"calibration": {"top_left":[0,0],"top_right":[99,0],"bottom_left":[0,99],"bottom_right":[99,99]}
	}`, string(data))
}
