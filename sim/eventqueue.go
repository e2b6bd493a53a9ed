package sim

import (
	"github.com/emirpasic/gods/trees/redblacktree"
)

// nilSlot marks the end of a node's FIFO chain.
const nilSlot = -1

// nodeKey orders event nodes by tick first, then priority.
type nodeKey struct {
	tick     Ticks
	priority Priority
}

func compareNodeKeys(a, b interface{}) int {
	ka := a.(nodeKey)
	kb := b.(nodeKey)

	switch {
	case ka.tick < kb.tick:
		return -1
	case ka.tick > kb.tick:
		return 1
	case ka.priority < kb.priority:
		return -1
	case ka.priority > kb.priority:
		return 1
	}

	return 0
}

// An eventSlot is one arena cell. Slots are reused through a free
// list; the generation counter increments on every release so that a
// handle pointing at a recycled slot can be told apart from a live
// binding.
type eventSlot struct {
	gen      uint64
	live     bool
	tick     Ticks
	priority Priority
	seq      uint64
	target   Target
	handle   *EventHandle
	next     int
}

// An eventNode is the bucket of all events scheduled for one exact
// (tick, priority) pair, chained in schedule order through the arena.
type eventNode struct {
	head int
	tail int
}

// A detachedEvent is an event removed from the queue, ready to execute
// or to report as cancelled. Detaching happens before execution so the
// target may freely schedule new events, including at the same tick
// and priority.
type detachedEvent struct {
	tick        Ticks
	priority    Priority
	seq         uint64
	target      Target
	handle      *EventHandle
	description string
}

// An eventQueue owns the event arena and the ordered collection of
// event nodes. There is at most one node per (tick, priority) pair;
// a node whose FIFO drains is removed immediately.
type eventQueue struct {
	slots []eventSlot
	free  []int
	tree  *redblacktree.Tree
	count int
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		tree: redblacktree.NewWith(compareNodeKeys),
	}
}

func (q *eventQueue) alloc() int {
	if n := len(q.free); n > 0 {
		idx := q.free[n-1]
		q.free = q.free[:n-1]
		return idx
	}

	q.slots = append(q.slots, eventSlot{})

	return len(q.slots) - 1
}

func (q *eventQueue) release(idx int) {
	s := &q.slots[idx]
	s.gen++
	s.live = false
	s.target = nil
	s.handle = nil
	s.next = nilSlot
	q.free = append(q.free, idx)
	q.count--
}

// insert appends an event to the FIFO of its (tick, priority) node,
// creating the node if absent. It returns the slot index and the
// slot's current generation for handle binding.
func (q *eventQueue) insert(
	tick Ticks,
	priority Priority,
	seq uint64,
	target Target,
	handle *EventHandle,
) (int, uint64) {
	idx := q.alloc()
	s := &q.slots[idx]
	s.live = true
	s.tick = tick
	s.priority = priority
	s.seq = seq
	s.target = target
	s.handle = handle
	s.next = nilSlot

	key := nodeKey{tick: tick, priority: priority}
	if v, found := q.tree.Get(key); found {
		node := v.(*eventNode)
		q.slots[node.tail].next = idx
		node.tail = idx
	} else {
		q.tree.Put(key, &eventNode{head: idx, tail: idx})
	}

	q.count++

	return idx, s.gen
}

// peekMin returns the key of the earliest node without removing
// anything.
func (q *eventQueue) peekMin() (nodeKey, bool) {
	minNode := q.tree.Left()
	if minNode == nil {
		return nodeKey{}, false
	}

	return minNode.Key.(nodeKey), true
}

// popMin detaches the first event of the earliest node, removing the
// node when its FIFO drains.
func (q *eventQueue) popMin() (detachedEvent, bool) {
	minNode := q.tree.Left()
	if minNode == nil {
		return detachedEvent{}, false
	}

	node := minNode.Value.(*eventNode)
	idx := node.head
	ev := q.detach(idx)

	node.head = q.slots[idx].next
	if node.head == nilSlot {
		q.tree.Remove(minNode.Key)
	}

	q.release(idx)

	return ev, true
}

// remove detaches the event in slot idx if the generation still
// matches, unlinking it from its node's FIFO and dropping the node if
// it drains.
func (q *eventQueue) remove(idx int, gen uint64) (detachedEvent, bool) {
	if idx < 0 || idx >= len(q.slots) {
		return detachedEvent{}, false
	}

	s := &q.slots[idx]
	if !s.live || s.gen != gen {
		return detachedEvent{}, false
	}

	key := nodeKey{tick: s.tick, priority: s.priority}
	v, found := q.tree.Get(key)
	if !found {
		return detachedEvent{}, false
	}

	node := v.(*eventNode)
	if node.head == idx {
		node.head = s.next
		if node.head == nilSlot {
			q.tree.Remove(key)
		}
	} else {
		prev := node.head
		for q.slots[prev].next != idx {
			prev = q.slots[prev].next
		}

		q.slots[prev].next = s.next
		if node.tail == idx {
			node.tail = prev
		}
	}

	ev := q.detach(idx)
	q.release(idx)

	return ev, true
}

func (q *eventQueue) detach(idx int) detachedEvent {
	s := &q.slots[idx]

	return detachedEvent{
		tick:        s.tick,
		priority:    s.priority,
		seq:         s.seq,
		target:      s.target,
		handle:      s.handle,
		description: s.target.Description(),
	}
}

func (q *eventQueue) len() int {
	return q.count
}
