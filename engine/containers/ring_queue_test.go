package containers

import (
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestRingQueue(t *testing.T) {
	c := qt.New(t)

	rq := NewRingQueue[int](3)
	c.Assert(rq.IsEmpty(), qt.IsTrue)
	_, err := rq.Dequeue()
	c.Assert(err, qt.ErrorMatches, "(?s)queue is empty.*")

	for i := 1; i <= 3; i++ {
		c.Assert(rq.Enqueue(i), qt.IsNil)
	}
	c.Assert(rq.IsFull(), qt.IsTrue)
	c.Assert(rq.Enqueue(4), qt.ErrorMatches, "(?s)queue is full.*")

	v, err := rq.Dequeue()
	c.Assert(err, qt.IsNil)
	c.Assert(v, qt.Equals, 1)

	// The write index wraps around.
	c.Assert(rq.Enqueue(4), qt.IsNil)
	front, err := rq.Peek()
	c.Assert(err, qt.IsNil)
	c.Assert(front, qt.Equals, 2)

	var all []int
	rq.Each(func(v int) { all = append(all, v) })
	c.Assert(all, qt.DeepEquals, []int{2, 3, 4})
	c.Assert(rq.Len(), qt.Equals, 3)
}
