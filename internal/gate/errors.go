package gate

import "errors"

// ErrTopologyNotReady is returned when at least one device never connected
// within the shared timeout. It is fatal to the job; individual connection
// attempt errors are logged and swallowed, never surfaced.
var ErrTopologyNotReady = errors.New("topology not ready")
