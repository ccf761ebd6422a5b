package circuitbreaker_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/map-gateway/internal/circuitbreaker"
)

func trip(cb *circuitbreaker.CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		cb.RecordFailure()
	}
}

var _ = Describe("CircuitBreaker", func() {
	var cb *circuitbreaker.CircuitBreaker

	BeforeEach(func() {
		cb = circuitbreaker.NewCircuitBreaker(3, 100*time.Millisecond)
	})

	It("should start closed", func() {
		Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		Expect(cb.Allow()).To(BeTrue())
	})

	Context("when closed", func() {
		It("should stay closed below the threshold", func() {
			trip(cb, 2)
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should open at the threshold", func() {
			trip(cb, 3)
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})
	})

	Context("when open", func() {
		BeforeEach(func() {
			trip(cb, 3)
		})

		It("should block requests until the reset timeout", func() {
			Expect(cb.Allow()).To(BeFalse())
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
		})

		It("should move to half-open after the reset timeout", func() {
			Eventually(cb.Allow).WithTimeout(time.Second).WithPolling(10 * time.Millisecond).Should(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})
	})

	Context("when half-open", func() {
		BeforeEach(func() {
			trip(cb, 3)
			time.Sleep(120 * time.Millisecond)
			Expect(cb.Allow()).To(BeTrue())
			Expect(cb.State()).To(Equal(circuitbreaker.StateHalfOpen))
		})

		It("should let probes through", func() {
			Expect(cb.Allow()).To(BeTrue())
		})

		It("should close on success", func() {
			cb.RecordSuccess()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})

		It("should reopen on a single failure", func() {
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateOpen))
			Expect(cb.Allow()).To(BeFalse())
		})
	})

	Describe("RecordSuccess", func() {
		It("should reset the failure count", func() {
			trip(cb, 2)
			cb.RecordSuccess()
			cb.RecordFailure()
			Expect(cb.State()).To(Equal(circuitbreaker.StateClosed))
		})
	})

	Describe("State.String", func() {
		It("should name every state", func() {
			Expect(circuitbreaker.StateClosed.String()).To(Equal("CLOSED"))
			Expect(circuitbreaker.StateOpen.String()).To(Equal("OPEN"))
			Expect(circuitbreaker.StateHalfOpen.String()).To(Equal("HALF-OPEN"))
			Expect(circuitbreaker.State(42).String()).To(Equal("UNKNOWN"))
		})
	})
})
