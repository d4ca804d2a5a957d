// Package batch evaluates a field for many subscribers at once. Subscribers
// register with a Scheduler, which periodically flattens their sample
// positions into one buffer, runs the kernel over it off the ticking
// goroutine and hands each subscriber back its slice of forces.
package batch

import "gonum.org/v1/gonum/spatial/r3"

// Subscriber is anything that wants forces evaluated at a set of points.
// Implementations must be comparable by identity; use pointer types.
type Subscriber interface {
	// SampleCount is the number of positions the subscriber will append.
	SampleCount() int
	// AppendSamplePositions appends world-space sample positions to dst.
	AppendSamplePositions(dst []r3.Vec) []r3.Vec
	// OnForcesUpdated receives one force per appended position. The slice
	// is owned by the subscriber from then on.
	OnForcesUpdated(forces []r3.Vec)
}

// Validator is implemented by subscribers that can become invalid (for
// example destroyed) while still registered. Invalid subscribers are skipped
// when results are delivered.
type Validator interface {
	Valid() bool
}

func isValid(sub Subscriber) bool {
	if v, ok := sub.(Validator); ok {
		return v.Valid()
	}
	return true
}
