package flight

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Schedule", func() {
	It("is zero before the first step", func() {
		s := NewSchedule(Step{At: 1, Angle: 5})
		Expect(s.At(0.5)).To(Equal(0.0))
		Expect(Schedule(nil).At(3)).To(Equal(0.0))
	})

	It("holds each step until the next one", func() {
		s := NewSchedule(Step{At: 2, Angle: -10}, Step{At: 0, Angle: 5})
		Expect(s.At(0)).To(Equal(5.0))
		Expect(s.At(1.99)).To(Equal(5.0))
		Expect(s.At(2)).To(Equal(-10.0))
		Expect(s.At(100)).To(Equal(-10.0))
	})

	It("does not reorder the caller's slice", func() {
		steps := []Step{{At: 3, Angle: 1}, {At: 1, Angle: 2}}
		NewSchedule(steps...)
		Expect(steps[0].At).To(Equal(3.0))
	})
})
