package core

import "time"

// Clock measures elapsed wall time in seconds.
type Clock struct {
	now       func() time.Time
	startTime time.Time
	elapsed   float64
	running   bool
}

func NewClock() *Clock {
	return &Clock{now: time.Now}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if c.running {
		c.elapsed = c.now().Sub(c.startTime).Seconds()
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = c.now()
	c.elapsed = 0
	c.running = true
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.running = false
}

func (c *Clock) Elapsed() float64 {
	return c.elapsed
}

// FixedTicker turns variable frame deltas into a whole number of fixed steps.
type FixedTicker struct {
	step        float64
	accumulator float64
	maxSteps    int
}

// NewFixedTicker returns a ticker running rate steps per second.
func NewFixedTicker(rate float64) *FixedTicker {
	return &FixedTicker{step: 1.0 / rate, maxSteps: 8}
}

func (t *FixedTicker) Step() float64 {
	return t.step
}

// Advance adds delta seconds and returns how many fixed steps are due.
// Backlog beyond the step cap is dropped so a stall cannot spiral.
func (t *FixedTicker) Advance(delta float64) int {
	t.accumulator += delta
	steps := 0
	for t.accumulator >= t.step && steps < t.maxSteps {
		t.accumulator -= t.step
		steps++
	}
	if steps == t.maxSteps {
		t.accumulator = 0
	}
	return steps
}

// Alpha is the fraction of a step left in the accumulator.
func (t *FixedTicker) Alpha() float64 {
	return t.accumulator / t.step
}
