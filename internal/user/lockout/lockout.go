// Package lockout throttles password guessing by counting failed logins per
// key and refusing further attempts for a while once a threshold is hit.
package lockout

import "time"

// Policy locks a key for Window after Threshold consecutive failures.
type Policy struct {
	Threshold int
	Window    time.Duration
}

func (p Policy) enabled() bool {
	return p.Threshold > 0 && p.Window > 0
}
