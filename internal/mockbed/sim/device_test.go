package sim

import (
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// dial attempts one TCP connection to addr.
func dial(addr string) error {
	conn, err := net.DialTimeout("tcp", addr, time.Second)
	if err == nil {
		conn.Close()
	}
	return err
}

func TestDevice_UpDown(t *testing.T) {
	device := NewDevice(Spec{Name: "r1", Host: "127.0.0.1", Port: 0}, testLogger())

	assert.False(t, device.IsUp())
	require.Error(t, dial(device.Addr()))

	require.NoError(t, device.Up())
	assert.True(t, device.IsUp())
	assert.NotZero(t, device.Port())
	require.NoError(t, dial(device.Addr()))

	require.NoError(t, device.Down())
	assert.False(t, device.IsUp())
	require.Error(t, dial(device.Addr()))
}

func TestDevice_UpIsIdempotent(t *testing.T) {
	device := NewDevice(Spec{Name: "r1", Host: "127.0.0.1", Port: 0}, testLogger())

	require.NoError(t, device.Up())
	port := device.Port()

	require.NoError(t, device.Up())
	assert.Equal(t, port, device.Port())

	require.NoError(t, device.Down())
	require.NoError(t, device.Down())
}

func TestDevice_KeepsPortAcrossCycles(t *testing.T) {
	device := NewDevice(Spec{Name: "r1", Host: "127.0.0.1", Port: 0}, testLogger())

	require.NoError(t, device.Up())
	port := device.Port()
	require.NoError(t, device.Down())

	require.NoError(t, device.Up())
	defer device.Down()

	assert.Equal(t, port, device.Port())
	require.NoError(t, dial(device.Addr()))
}

func TestDevice_CountsAcceptedConnections(t *testing.T) {
	device := NewDevice(Spec{Name: "r1", Host: "127.0.0.1", Port: 0}, testLogger())
	require.NoError(t, device.Up())
	defer device.Down()

	for i := 0; i < 3; i++ {
		require.NoError(t, dial(device.Addr()))
	}

	// The accept loop runs behind the dials.
	assert.Eventually(t, func() bool {
		return device.Accepted() >= 3
	}, 2*time.Second, 10*time.Millisecond)
}

func TestDevice_PortConflict(t *testing.T) {
	first := NewDevice(Spec{Name: "r1", Host: "127.0.0.1", Port: 0}, testLogger())
	require.NoError(t, first.Up())
	defer first.Down()

	second := NewDevice(Spec{Name: "r2", Host: "127.0.0.1", Port: first.Port()}, testLogger())

	err := second.Up()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to raise device r2")
}
