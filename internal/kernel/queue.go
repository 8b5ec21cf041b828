package kernel

import (
	"container/heap"

	"github.com/aelexs/virtualclock/internal/simtime"
)

// entry is a scheduled resumption of a process or a pending event notification.
type entry struct {
	at    simtime.Time
	seq   uint64
	proc  *process
	event *event
	index int

	// cancelled entries stay in the queue and are skipped when popped.
	cancelled bool
}

// queue orders entries by time, then by insertion.
type queue []*entry

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].at != q[j].at {
		return q[i].at < q[j].at
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *queue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

func (q *queue) push(e *entry) { heap.Push(q, e) }

func (q *queue) pop() *entry { return heap.Pop(q).(*entry) }

// peek returns the earliest live entry without removing it, discarding
// cancelled entries on the way.
func (q *queue) peek() *entry {
	for q.Len() > 0 {
		if e := (*q)[0]; !e.cancelled {
			return e
		}
		heap.Pop(q)
	}
	return nil
}
