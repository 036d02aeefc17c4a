package core

import (
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
)

func TestClockElapsed(t *testing.T) {
	c := qt.New(t)

	now := time.Unix(100, 0)
	clock := &Clock{now: func() time.Time { return now }}

	clock.Update()
	c.Assert(clock.Elapsed(), qt.Equals, 0.0)

	clock.Start()
	now = now.Add(1500 * time.Millisecond)
	clock.Update()
	c.Assert(clock.Elapsed(), qt.Equals, 1.5)

	clock.Stop()
	now = now.Add(time.Second)
	clock.Update()
	c.Assert(clock.Elapsed(), qt.Equals, 1.5)
}

func TestFixedTicker(t *testing.T) {
	c := qt.New(t)

	ticker := NewFixedTicker(4)
	c.Assert(ticker.Step(), qt.Equals, 0.25)
	c.Assert(ticker.Advance(0.1), qt.Equals, 0)
	c.Assert(ticker.Advance(0.2), qt.Equals, 1)
	c.Assert(ticker.Advance(0.5), qt.Equals, 2)

	// a long stall is capped and the backlog discarded
	c.Assert(ticker.Advance(10), qt.Equals, 8)
	c.Assert(ticker.Alpha(), qt.Equals, 0.0)
}
