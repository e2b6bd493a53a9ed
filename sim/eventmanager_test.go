package sim

import (
	"errors"
	"fmt"
	"math/rand"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("EventManager", func() {
	var (
		em  *EventManager
		log []string
	)

	marker := func(name string) Target {
		return FuncTarget(name, func(_ Ticks) error {
			log = append(log, name)
			return nil
		})
	}

	BeforeEach(func() {
		em = NewEventManager()
		log = nil
	})

	AfterEach(func() {
		em.Dispose()
	})

	It("should start with the clock at zero and an empty queue", func() {
		Expect(em.Now()).To(Equal(Ticks(0)))
		Expect(em.PendingEvents()).To(Equal(0))
		Expect(em.Run()).To(Succeed())
	})

	It("should dispatch by priority within a tick", func() {
		Expect(em.Schedule(5, 1, marker("A"), nil)).To(Succeed())
		Expect(em.Schedule(5, 0, marker("B"), nil)).To(Succeed())

		Expect(em.Run()).To(Succeed())

		Expect(log).To(Equal([]string{"B", "A"}))
		Expect(em.Now()).To(Equal(Ticks(5)))
	})

	It("should dispatch same-(tick, priority) events in schedule order", func() {
		numEvents := 50
		want := make([]string, 0, numEvents)
		for i := 0; i < numEvents; i++ {
			name := fmt.Sprintf("evt-%d", i)
			want = append(want, name)
			Expect(em.Schedule(3, 7, marker(name), nil)).To(Succeed())
		}

		Expect(em.Run()).To(Succeed())

		Expect(log).To(Equal(want))
	})

	It("should never move the clock backward", func() {
		var ticks []Ticks
		var schedule func() Target

		schedule = func() Target {
			return FuncTarget("random", func(now Ticks) error {
				ticks = append(ticks, now)
				if len(ticks) < 200 {
					return em.Schedule(
						Ticks(rand.Intn(4)), Priority(rand.Intn(3)),
						schedule(), nil)
				}
				return nil
			})
		}

		for i := 0; i < 20; i++ {
			Expect(em.Schedule(
				Ticks(rand.Intn(10)), Priority(rand.Intn(3)),
				schedule(), nil)).To(Succeed())
		}

		Expect(em.Run()).To(Succeed())

		for i := 1; i < len(ticks); i++ {
			Expect(ticks[i]).To(BeNumerically(">=", ticks[i-1]))
		}
	})

	It("should dispatch a zero-delta event scheduled from inside an "+
		"event before the clock advances", func() {
		Expect(em.Schedule(2, 0, FuncTarget("outer", func(now Ticks) error {
			log = append(log, "outer")
			return em.Schedule(0, 0, FuncTarget("inner", func(innerNow Ticks) error {
				log = append(log, "inner")
				Expect(innerNow).To(Equal(Ticks(2)))
				return nil
			}), nil)
		}), nil)).To(Succeed())
		Expect(em.Schedule(4, 0, marker("later"), nil)).To(Succeed())

		Expect(em.Run()).To(Succeed())

		Expect(log).To(Equal([]string{"outer", "inner", "later"}))
	})

	It("should reject a negative delta without touching state", func() {
		err := em.Schedule(-1, 0, marker("bad"), nil)

		Expect(err).To(MatchError(ErrInvalidSchedule))
		Expect(em.PendingEvents()).To(Equal(0))
		Expect(em.Now()).To(Equal(Ticks(0)))
	})

	Context("with handles", func() {
		It("should cancel a pending event", func() {
			handle := new(EventHandle)
			Expect(em.Schedule(5, 0, marker("doomed"), handle)).To(Succeed())
			Expect(em.Schedule(6, 0, marker("kept"), nil)).To(Succeed())
			Expect(handle.IsScheduled()).To(BeTrue())

			Expect(em.Cancel(handle)).To(BeTrue())
			Expect(handle.IsScheduled()).To(BeFalse())

			Expect(em.Run()).To(Succeed())

			Expect(log).To(Equal([]string{"kept"}))
		})

		It("should make a second cancel a no-op", func() {
			handle := new(EventHandle)
			Expect(em.Schedule(5, 0, marker("doomed"), handle)).To(Succeed())

			Expect(em.Cancel(handle)).To(BeTrue())
			Expect(em.Cancel(handle)).To(BeFalse())
		})

		It("should not cancel an event that already fired", func() {
			handle := new(EventHandle)
			Expect(em.Schedule(1, 0, marker("fired"), handle)).To(Succeed())

			Expect(em.Run()).To(Succeed())

			Expect(handle.IsScheduled()).To(BeFalse())
			Expect(em.Cancel(handle)).To(BeFalse())
			Expect(log).To(Equal([]string{"fired"}))
		})

		It("should refuse to rebind a bound handle", func() {
			handle := new(EventHandle)
			Expect(em.Schedule(5, 0, marker("first"), handle)).To(Succeed())

			err := em.Schedule(6, 0, marker("second"), handle)

			Expect(err).To(MatchError(ErrHandleInUse))
			Expect(em.PendingEvents()).To(Equal(1))
		})

		It("should allow reusing a handle after its event fired", func() {
			handle := new(EventHandle)
			Expect(em.Schedule(1, 0, marker("first"), handle)).To(Succeed())
			Expect(em.Run()).To(Succeed())

			Expect(em.Schedule(1, 0, marker("second"), handle)).To(Succeed())
			Expect(handle.IsScheduled()).To(BeTrue())
			Expect(em.Run()).To(Succeed())

			Expect(log).To(Equal([]string{"first", "second"}))
		})

		It("should allow a target to reuse its own handle", func() {
			handle := new(EventHandle)
			Expect(em.Schedule(1, 0, FuncTarget("reschedule", func(_ Ticks) error {
				log = append(log, "reschedule")
				if len(log) < 3 {
					return em.Schedule(1, 0, marker("again"), handle)
				}
				return nil
			}), handle)).To(Succeed())

			Expect(em.Run()).To(Succeed())

			Expect(log).To(Equal([]string{"reschedule", "again"}))
		})
	})

	Context("when a target fails", func() {
		It("should halt dispatch and keep the kernel inspectable", func() {
			boom := errors.New("boom")
			Expect(em.Schedule(2, 0, FuncTarget("failing", func(_ Ticks) error {
				return boom
			}), nil)).To(Succeed())
			Expect(em.Schedule(3, 0, marker("survivor"), nil)).To(Succeed())

			err := em.Run()

			var targetErr *TargetError
			Expect(errors.As(err, &targetErr)).To(BeTrue())
			Expect(targetErr.Tick).To(Equal(Ticks(2)))
			Expect(errors.Is(err, boom)).To(BeTrue())

			// The failing event is already detached; the rest of the
			// queue and the clock are intact and the run can resume.
			Expect(em.Now()).To(Equal(Ticks(2)))
			Expect(em.PendingEvents()).To(Equal(1))

			Expect(em.Run()).To(Succeed())
			Expect(log).To(Equal([]string{"survivor"}))
		})
	})

	Context("RunUntil", func() {
		It("should stop between dispatch steps", func() {
			Expect(em.Schedule(1, 0, marker("one"), nil)).To(Succeed())
			Expect(em.Schedule(2, 0, marker("two"), nil)).To(Succeed())

			Expect(em.RunUntil(func() bool {
				return len(log) >= 1
			})).To(Succeed())

			Expect(log).To(Equal([]string{"one"}))
			Expect(em.PendingEvents()).To(Equal(1))

			Expect(em.Run()).To(Succeed())
			Expect(log).To(Equal([]string{"one", "two"}))
		})

		It("should not dispatch at all if the condition already holds", func() {
			Expect(em.Schedule(1, 0, marker("one"), nil)).To(Succeed())

			Expect(em.RunUntil(func() bool { return true })).To(Succeed())

			Expect(log).To(BeEmpty())
			Expect(em.PendingEvents()).To(Equal(1))
		})
	})

	Context("Pause and Continue", func() {
		It("should hold dispatch while paused", func() {
			var dispatched atomic.Int32
			Expect(em.Schedule(1, 0, FuncTarget("held", func(_ Ticks) error {
				dispatched.Add(1)
				return nil
			}), nil)).To(Succeed())

			em.Pause()

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				Expect(em.Run()).To(Succeed())
				close(done)
			}()

			Consistently(dispatched.Load).Should(Equal(int32(0)))
			Expect(em.Now()).To(Equal(Ticks(0)))

			em.Continue()

			Eventually(done).Should(BeClosed())
			Expect(dispatched.Load()).To(Equal(int32(1)))
		})

		It("should tolerate repeated pause and continue calls", func() {
			em.Pause()
			em.Pause()
			em.Continue()
			em.Continue()

			Expect(em.Schedule(0, 0, marker("after"), nil)).To(Succeed())
			Expect(em.Run()).To(Succeed())
			Expect(log).To(Equal([]string{"after"}))
		})
	})

	Context("hooks", func() {
		It("should report the event lifecycle", func() {
			var seen []string
			em.AcceptHook(hookFunc(func(ctx HookCtx) {
				info := ctx.Item.(EventInfo)
				seen = append(seen,
					fmt.Sprintf("%s:%s@%d", ctx.Pos.Name, info.Description, info.Tick))
			}))

			handle := new(EventHandle)
			Expect(em.Schedule(1, 0, marker("kept"), nil)).To(Succeed())
			Expect(em.Schedule(2, 0, marker("dropped"), handle)).To(Succeed())
			Expect(em.Cancel(handle)).To(BeTrue())
			Expect(em.Run()).To(Succeed())

			Expect(seen).To(Equal([]string{
				"EventScheduled:kept@1",
				"EventScheduled:dropped@2",
				"EventCancelled:dropped@2",
				"BeforeEvent:kept@1",
				"AfterEvent:kept@1",
			}))
		})
	})
})

// hookFunc adapts a function to the Hook interface for tests.
type hookFunc func(ctx HookCtx)

func (f hookFunc) Func(ctx HookCtx) { f(ctx) }
