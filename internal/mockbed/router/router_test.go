package router

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/testbed-contrib/internal/mockbed/dto"
	"github.com/cuongbtq/testbed-contrib/internal/mockbed/handler"
	"github.com/cuongbtq/testbed-contrib/internal/mockbed/sim"
	"github.com/cuongbtq/testbed-contrib/internal/notify"
	"github.com/cuongbtq/testbed-contrib/topology"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// recordingNotifier captures published events.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notify.Event
}

func (n *recordingNotifier) Publish(_ context.Context, event notify.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []notify.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]notify.Event, len(n.events))
	copy(out, n.events)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// newRouter builds a router over a two-device bed: r1 up, r2 down.
func newRouter(t *testing.T, notifier notify.Notifier) (*gin.Engine, *sim.Bed) {
	t.Helper()

	bed := sim.NewBed("mock-lab", testLogger())
	_, err := bed.Add(sim.Spec{Name: "r1", Host: "127.0.0.1", Port: 0})
	require.NoError(t, err)
	_, err = bed.Add(sim.Spec{Name: "r2", Host: "127.0.0.1", Port: 0, StartDown: true})
	require.NoError(t, err)
	require.NoError(t, bed.Start())
	t.Cleanup(bed.Stop)

	r := SetupRouter(&handler.Dependencies{
		Logger:   testLogger(),
		Bed:      bed,
		Notifier: notifier,
	})

	return r, bed
}

func do(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := do(r, http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"mockbed"}`, w.Body.String())
}

func TestListDevices(t *testing.T) {
	r, _ := newRouter(t, nil)

	w := do(r, http.MethodGet, "/api/v1/devices")

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.DeviceListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))

	assert.Equal(t, "mock-lab", response.Testbed)
	require.Len(t, response.Devices, 2)
	assert.Equal(t, "r1", response.Devices[0].Name)
	assert.True(t, response.Devices[0].Up)
	assert.NotZero(t, response.Devices[0].Port)
	assert.Equal(t, "r2", response.Devices[1].Name)
	assert.False(t, response.Devices[1].Up)
}

func TestGetDevice(t *testing.T) {
	r, _ := newRouter(t, nil)

	t.Run("existing device", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/devices/r1")

		require.Equal(t, http.StatusOK, w.Code)

		var response dto.DeviceResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "r1", response.Name)
		assert.True(t, response.Up)
	})

	t.Run("unknown device", func(t *testing.T) {
		w := do(r, http.MethodGet, "/api/v1/devices/nope")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestRaiseDevice(t *testing.T) {
	notifier := &recordingNotifier{}
	r, bed := newRouter(t, notifier)

	w := do(r, http.MethodPost, "/api/v1/devices/r2/up")

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.DeviceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Up)

	device, ok := bed.Device("r2")
	require.True(t, ok)
	assert.True(t, device.IsUp())

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventDeviceRaised, events[0].Type)
	assert.Equal(t, "r2", events[0].Device)
	assert.Equal(t, "mock-lab", events[0].Testbed)

	t.Run("unknown device", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/devices/nope/up")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDropDevice(t *testing.T) {
	notifier := &recordingNotifier{}
	r, bed := newRouter(t, notifier)

	w := do(r, http.MethodPost, "/api/v1/devices/r1/down")

	require.Equal(t, http.StatusOK, w.Code)

	var response dto.DeviceResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.False(t, response.Up)

	device, ok := bed.Device("r1")
	require.True(t, ok)
	assert.False(t, device.IsUp())

	events := notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventDeviceDropped, events[0].Type)
	assert.Equal(t, "r1", events[0].Device)

	t.Run("unknown device", func(t *testing.T) {
		w := do(r, http.MethodPost, "/api/v1/devices/nope/down")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestExportTestbed(t *testing.T) {
	r, _ := newRouter(t, nil)

	// Pin an address for the down device so the export validates.
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/devices/r2/up").Code)
	require.Equal(t, http.StatusOK, do(r, http.MethodPost, "/api/v1/devices/r2/down").Code)

	w := do(r, http.MethodGet, "/api/v1/testbed")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/x-yaml")

	doc, err := topology.ParseDocument(w.Body.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "mock-lab", doc.Name)
	assert.Equal(t, []string{"r1", "r2"}, doc.DeviceNames())
	assert.Equal(t, "tcp", doc.Devices["r1"].Protocol)
	assert.NotZero(t, doc.Devices["r1"].Port)
}
