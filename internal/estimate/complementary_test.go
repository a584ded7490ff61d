package estimate

import (
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Complementary", func() {
	mustNew := func(alpha float32) *Complementary[float32] {
		f, err := NewComplementary(alpha)
		Expect(err).NotTo(HaveOccurred())
		return f
	}

	It("starts at zero", func() {
		Expect(mustNew(0.98).Angle()).To(Equal(float32(0)))
	})

	It("converges to a steady accelerometer angle", func() {
		f := mustNew(0.90)
		var angle float32
		for i := 0; i < 100; i++ {
			angle = f.Update(10, 0, 10*time.Millisecond)
		}
		Expect(angle).To(BeNumerically("~", 10, 0.1))
		Expect(f.Angle()).To(Equal(angle))
	})

	It("filters out a single accelerometer spike", func() {
		f := mustNew(0.98)
		Expect(f.Update(45, 0, 10*time.Millisecond)).To(BeNumerically("<", 1.0))
	})

	It("approaches the accelerometer monotonically", func() {
		for _, alpha := range []float64{0, 0.3, 0.9, 0.999, 1} {
			f, err := NewComplementary(alpha)
			Expect(err).NotTo(HaveOccurred())
			prev := f.Angle()
			for i := 0; i < 200; i++ {
				next := f.Update(-20, 0, 5*time.Millisecond)
				Expect(next).To(BeNumerically("<=", prev+1e-12))
				Expect(next).To(BeNumerically(">=", -20.0-1e-9))
				prev = next
			}
		}
	})

	It("integrates the gyro rate when alpha is one", func() {
		f, err := NewComplementary(1.0)
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 4; i++ {
			f.Update(90, 2, 250*time.Millisecond)
		}
		Expect(f.Angle()).To(BeNumerically("~", 2.0, 1e-12))
	})

	It("adds no displacement for zero or negative dt", func() {
		f, err := NewComplementary(1.0)
		Expect(err).NotTo(HaveOccurred())
		f.Update(0, 100, 0)
		f.Update(0, 100, -time.Second)
		Expect(f.Angle()).To(Equal(0.0))
	})

	It("rejects alpha outside [0, 1]", func() {
		for _, alpha := range []float64{-0.01, 1.01, math.NaN()} {
			_, err := NewComplementary(alpha)
			Expect(err).To(MatchError(ErrInvalidAlpha))
		}
	})

	It("can be re-seeded", func() {
		f := mustNew(0.5)
		f.Update(8, 0, time.Millisecond)
		f.Reset(3)
		Expect(f.Angle()).To(Equal(float32(3)))
		Expect(f.Alpha()).To(Equal(float32(0.5)))
	})

	It("derives alpha from a time constant", func() {
		alpha := AlphaFromTimeConstant[float64](490*time.Millisecond, 10*time.Millisecond)
		Expect(alpha).To(BeNumerically("~", 0.98, 1e-12))
		Expect(AlphaFromTimeConstant[float64](0, time.Millisecond)).To(Equal(0.0))
		Expect(AlphaFromTimeConstant[float64](time.Second, 0)).To(Equal(1.0))
	})
})
