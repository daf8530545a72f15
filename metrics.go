package consistency

import "time"

// Metrics captures manager-level telemetry.
type Metrics interface {
	// ObserveStoreDuration records the time spent in a store call.
	ObserveStoreDuration(op string, duration time.Duration)
	// AddSucceeded increments the count of successful operations.
	AddSucceeded(op string)
	// AddFailed increments the count of failed results by error code.
	AddFailed(op, code string)
	// AddErrors increments the count of operations that returned an error
	// (cancellation or unhandled store errors).
	AddErrors(op string)
}

// NopMetrics is a no-op metrics recorder.
type NopMetrics struct{}

// ObserveStoreDuration implements Metrics.
func (NopMetrics) ObserveStoreDuration(string, time.Duration) {}

// AddSucceeded implements Metrics.
func (NopMetrics) AddSucceeded(string) {}

// AddFailed implements Metrics.
func (NopMetrics) AddFailed(string, string) {}

// AddErrors implements Metrics.
func (NopMetrics) AddErrors(string) {}
