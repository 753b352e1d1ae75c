package gate

import (
	"sort"
	"time"
)

// Outcome is the final connectivity result for one device.
type Outcome struct {
	Device    string
	Connected bool
	Attempts  int
	Elapsed   time.Duration
}

// Report collects the per-device outcomes of one connectivity check.
type Report struct {
	RunID    string
	Testbed  string
	Outcomes []Outcome
	Elapsed  time.Duration
}

// AllConnected reduces over every outcome. An empty report is trivially
// connected.
func (r *Report) AllConnected() bool {
	for _, out := range r.Outcomes {
		if !out.Connected {
			return false
		}
	}
	return true
}

// Failed returns the names of devices that never connected, in lexical order.
func (r *Report) Failed() []string {
	var failed []string
	for _, out := range r.Outcomes {
		if !out.Connected {
			failed = append(failed, out.Device)
		}
	}
	sort.Strings(failed)
	return failed
}

// TotalAttempts sums connection attempts across all devices.
func (r *Report) TotalAttempts() int {
	total := 0
	for _, out := range r.Outcomes {
		total += out.Attempts
	}
	return total
}
