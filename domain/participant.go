// Package domain contains core concepts of the chat system.
// This file defines Participant entities and the presence rules.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// Participant is a registered display name together with its last sign of life.
type Participant struct {
	Name     string
	LastSeen time.Time
	// Order is the insertion rank, used to list participants as they joined.
	Order uint64
}

// IsStale reports whether a participant last seen at lastSeen must be evicted at now.
// Eviction happens strictly after the timeout has elapsed.
func IsStale(now, lastSeen time.Time, timeout time.Duration) bool {
	return now.Sub(lastSeen) > timeout
}

// IsOnline is the complement of IsStale.
func IsOnline(now, lastSeen time.Time, timeout time.Duration) bool {
	return !IsStale(now, lastSeen, timeout)
}

// Touch returns the participant seen at now. LastSeen never goes backwards.
func (p Participant) Touch(now time.Time) Participant {
	now = now.Truncate(time.Second)
	if now.After(p.LastSeen) {
		p.LastSeen = now
	}
	return p
}
