package sim

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/testbed-contrib/internal/gate"
	"github.com/cuongbtq/testbed-contrib/topology"
)

func newTestBed(t *testing.T, specs ...Spec) *Bed {
	t.Helper()

	bed := NewBed("mock-lab", testLogger())
	for _, spec := range specs {
		_, err := bed.Add(spec)
		require.NoError(t, err)
	}
	t.Cleanup(bed.Stop)

	return bed
}

func TestBed_Add(t *testing.T) {
	bed := newTestBed(t)

	_, err := bed.Add(Spec{Name: "r1", Host: "127.0.0.1"})
	require.NoError(t, err)

	t.Run("duplicate name", func(t *testing.T) {
		_, err := bed.Add(Spec{Name: "r1", Host: "127.0.0.1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "duplicate device name")
	})

	t.Run("missing name", func(t *testing.T) {
		_, err := bed.Add(Spec{Host: "127.0.0.1"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "device name is required")
	})
}

func TestBed_StartStop(t *testing.T) {
	bed := newTestBed(t,
		Spec{Name: "r1", Host: "127.0.0.1", Port: 0},
		Spec{Name: "r2", Host: "127.0.0.1", Port: 0, StartDown: true},
	)

	require.NoError(t, bed.Start())

	r1, ok := bed.Device("r1")
	require.True(t, ok)
	r2, ok := bed.Device("r2")
	require.True(t, ok)

	assert.True(t, r1.IsUp())
	assert.False(t, r2.IsUp())
	require.NoError(t, dial(r1.Addr()))

	bed.Stop()

	assert.False(t, r1.IsUp())
	require.Error(t, dial(r1.Addr()))
}

func TestBed_ScheduledRaise(t *testing.T) {
	bed := newTestBed(t,
		Spec{Name: "r1", Host: "127.0.0.1", Port: 0, StartDown: true, UpAfter: 100 * time.Millisecond},
	)

	require.NoError(t, bed.Start())

	device, ok := bed.Device("r1")
	require.True(t, ok)
	assert.False(t, device.IsUp())

	assert.Eventually(t, device.IsUp, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, dial(device.Addr()))
}

func TestBed_StopCancelsScheduledRaise(t *testing.T) {
	bed := newTestBed(t,
		Spec{Name: "r1", Host: "127.0.0.1", Port: 0, StartDown: true, UpAfter: 100 * time.Millisecond},
	)

	require.NoError(t, bed.Start())
	bed.Stop()

	time.Sleep(300 * time.Millisecond)

	device, ok := bed.Device("r1")
	require.True(t, ok)
	assert.False(t, device.IsUp())
}

func TestBed_Devices(t *testing.T) {
	bed := newTestBed(t,
		Spec{Name: "sw1", Host: "127.0.0.1"},
		Spec{Name: "r1", Host: "127.0.0.1"},
		Spec{Name: "r2", Host: "127.0.0.1"},
	)

	devices := bed.Devices()

	require.Len(t, devices, 3)
	assert.Equal(t, "r1", devices[0].Name())
	assert.Equal(t, "r2", devices[1].Name())
	assert.Equal(t, "sw1", devices[2].Name())
	assert.Equal(t, 3, bed.Size())
}

func TestBed_Document(t *testing.T) {
	bed := newTestBed(t,
		Spec{Name: "r1", Host: "127.0.0.1", Port: 0},
	)
	require.NoError(t, bed.Start())

	doc := bed.Document()

	assert.Equal(t, "mock-lab", doc.Name)
	require.Contains(t, doc.Devices, "r1")
	entry := doc.Devices["r1"]
	assert.Equal(t, "127.0.0.1", entry.Host)
	assert.NotZero(t, entry.Port)
	assert.Equal(t, "tcp", entry.Protocol)
	require.NoError(t, doc.Validate())
}

// The bed exists to stand in for a lab, so drive a real connectivity check
// against it: one device up from the start, one raised on a delay.
func TestBed_ConnectivityCheck(t *testing.T) {
	bed := newTestBed(t,
		Spec{Name: "r1", Host: "127.0.0.1", Port: 0},
		Spec{Name: "r2", Host: "127.0.0.1", Port: 0, StartDown: true},
	)
	require.NoError(t, bed.Start())

	// The delayed device keeps port 0 until it binds, so raise and drop it
	// once to pin an address the document can carry.
	r2, ok := bed.Device("r2")
	require.True(t, ok)
	require.NoError(t, r2.Up())
	require.NoError(t, r2.Down())
	r2.raiseAfter(200 * time.Millisecond)

	testbed, err := topology.NewTCPTestbed(bed.Document())
	require.NoError(t, err)

	start := time.Now()
	report, err := gate.Check(context.Background(), testbed, gate.Options{
		Timeout:  5 * time.Second,
		Interval: 100 * time.Millisecond,
		Logger:   testLogger(),
	})
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.True(t, report.AllConnected())
	assert.GreaterOrEqual(t, elapsed, 200*time.Millisecond)
	assert.Less(t, elapsed, 5*time.Second)
}
