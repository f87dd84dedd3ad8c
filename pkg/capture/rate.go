package capture

import (
	"sync"
	"time"
)

// RateWindow is the minimum span over which a rate is reported.
const RateWindow = time.Second

// RateEstimator reports completed cycles per second.
//
// Each Complete bumps a counter. Once RateWindow has elapsed since the window
// started, the rate becomes count/elapsed and both counter and window restart.
// Between windows the last reported rate is held.
type RateEstimator struct {
	mu          sync.Mutex
	now         func() time.Time
	count       int
	windowStart time.Time
	rate        float64
}

// NewRateEstimator creates an estimator whose first window starts now.
func NewRateEstimator(clock func() time.Time) *RateEstimator {
	if clock == nil {
		clock = time.Now
	}
	return &RateEstimator{now: clock, windowStart: clock()}
}

// Complete records one finished cycle and returns the current rate.
func (r *RateEstimator) Complete() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.count++
	now := r.now()
	elapsed := now.Sub(r.windowStart)
	if elapsed >= RateWindow {
		r.rate = float64(r.count) / float64(elapsed.Milliseconds()) * 1000
		r.count = 0
		r.windowStart = now
	}
	return r.rate
}

// Rate returns the last reported rate.
func (r *RateEstimator) Rate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rate
}

// Count returns cycles completed in the current window.
func (r *RateEstimator) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset zeroes the rate and starts a new window.
func (r *RateEstimator) Reset() {
	r.mu.Lock()
	r.count = 0
	r.rate = 0
	r.windowStart = r.now()
	r.mu.Unlock()
}
