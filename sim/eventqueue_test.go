package sim

import (
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("eventQueue", func() {
	var queue *eventQueue

	noop := FuncTarget("noop", func(_ Ticks) error { return nil })

	BeforeEach(func() {
		queue = newEventQueue()
	})

	It("should pop in tick, priority, sequence order", func() {
		numEvents := 200
		for seq := 0; seq < numEvents; seq++ {
			tick := Ticks(rand.Intn(20))
			priority := Priority(rand.Intn(5))
			queue.insert(tick, priority, uint64(seq), noop, nil)
		}

		prev := nodeKey{tick: -1}
		seqBySameKey := uint64(0)
		for i := 0; i < numEvents; i++ {
			ev, ok := queue.popMin()
			Expect(ok).To(BeTrue())

			key := nodeKey{tick: ev.tick, priority: ev.priority}
			Expect(compareNodeKeys(prev, key)).To(BeNumerically("<=", 0))

			if key == prev {
				Expect(ev.seq).To(BeNumerically(">", seqBySameKey))
			}

			prev = key
			seqBySameKey = ev.seq
		}

		_, ok := queue.popMin()
		Expect(ok).To(BeFalse())
		Expect(queue.len()).To(Equal(0))
	})

	It("should keep FIFO order within one node", func() {
		for seq := uint64(0); seq < 10; seq++ {
			queue.insert(3, 1, seq, noop, nil)
		}

		for seq := uint64(0); seq < 10; seq++ {
			ev, ok := queue.popMin()
			Expect(ok).To(BeTrue())
			Expect(ev.seq).To(Equal(seq))
		}
	})

	It("should remove a node as soon as it drains", func() {
		queue.insert(1, 0, 1, noop, nil)
		queue.insert(5, 0, 2, noop, nil)

		_, ok := queue.popMin()
		Expect(ok).To(BeTrue())

		key, ok := queue.peekMin()
		Expect(ok).To(BeTrue())
		Expect(key.tick).To(Equal(Ticks(5)))
	})

	It("should unlink a cancelled event from the middle of a node", func() {
		queue.insert(2, 0, 1, noop, nil)
		mid, midGen := queue.insert(2, 0, 2, noop, nil)
		queue.insert(2, 0, 3, noop, nil)

		_, ok := queue.remove(mid, midGen)
		Expect(ok).To(BeTrue())
		Expect(queue.len()).To(Equal(2))

		ev, _ := queue.popMin()
		Expect(ev.seq).To(Equal(uint64(1)))
		ev, _ = queue.popMin()
		Expect(ev.seq).To(Equal(uint64(3)))
	})

	It("should unlink a cancelled event from the tail of a node", func() {
		queue.insert(2, 0, 1, noop, nil)
		tail, tailGen := queue.insert(2, 0, 2, noop, nil)

		_, ok := queue.remove(tail, tailGen)
		Expect(ok).To(BeTrue())

		queue.insert(2, 0, 3, noop, nil)

		ev, _ := queue.popMin()
		Expect(ev.seq).To(Equal(uint64(1)))
		ev, _ = queue.popMin()
		Expect(ev.seq).To(Equal(uint64(3)))
	})

	It("should drop the node when its only event is cancelled", func() {
		slot, gen := queue.insert(4, 2, 1, noop, nil)

		_, ok := queue.remove(slot, gen)
		Expect(ok).To(BeTrue())

		_, found := queue.peekMin()
		Expect(found).To(BeFalse())
	})

	It("should reject a remove with a stale generation", func() {
		slot, gen := queue.insert(1, 0, 1, noop, nil)

		_, ok := queue.popMin()
		Expect(ok).To(BeTrue())

		// The slot is recycled; the old generation must not match.
		newSlot, newGen := queue.insert(1, 0, 2, noop, nil)
		Expect(newSlot).To(Equal(slot))
		Expect(newGen).To(BeNumerically(">", gen))

		_, ok = queue.remove(slot, gen)
		Expect(ok).To(BeFalse())
		Expect(queue.len()).To(Equal(1))
	})
})
