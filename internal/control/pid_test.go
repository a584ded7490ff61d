package control

import (
	"math"
	"math/rand"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PID", func() {
	var cfg Config[float64]

	BeforeEach(func() {
		cfg = Config[float64]{
			Kp: 2, Ki: 1, Kd: 0.5,
			MinOutput: -10, MaxOutput: 10,
		}
	})

	mustNew := func(c Config[float64]) *PID[float64] {
		pid, err := New(c)
		Expect(err).NotTo(HaveOccurred())
		return pid
	}

	Context("construction", func() {
		It("rejects inverted output bounds", func() {
			cfg.MinOutput, cfg.MaxOutput = 5, -5
			_, err := New(cfg)
			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("rejects non-finite gains", func() {
			cfg.Kd = math.NaN()
			_, err := New(cfg)
			Expect(err).To(MatchError(ErrInvalidConfig))

			cfg.Kd = 0
			cfg.Kp = math.Inf(1)
			_, err = New(cfg)
			Expect(err).To(MatchError(ErrInvalidConfig))
		})

		It("accepts equal bounds", func() {
			cfg.MinOutput, cfg.MaxOutput = 3, 3
			pid := mustNew(cfg)
			Expect(pid.Calculate(100, 0, 10*time.Millisecond)).To(Equal(3.0))
		})

		It("parses anti-windup modes", func() {
			mode, err := ParseAntiWindup("accumulator")
			Expect(err).NotTo(HaveOccurred())
			Expect(mode).To(Equal(ClampAccumulator))

			mode, err = ParseAntiWindup("")
			Expect(err).NotTo(HaveOccurred())
			Expect(mode).To(Equal(ClampTerm))

			_, err = ParseAntiWindup("freeze")
			Expect(err).To(MatchError(ErrInvalidConfig))
		})
	})

	Context("terms", func() {
		It("is proportional to the error with only kp set", func() {
			pid := mustNew(Config[float64]{Kp: 2, MinOutput: -100, MaxOutput: 100})
			Expect(pid.Calculate(5, 2, 500*time.Millisecond)).To(Equal(6.0))
			Expect(pid.Calculate(5, 7, 500*time.Millisecond)).To(Equal(-4.0))
		})

		It("has no derivative contribution on the first call", func() {
			cfg.Kd = 100
			pid := mustNew(cfg)
			pid.Calculate(5, 0, 10*time.Millisecond)
			Expect(pid.Terms().D).To(Equal(0.0))
		})

		It("differentiates the error between ticks", func() {
			cfg.Ki = 0
			cfg.MinOutput, cfg.MaxOutput = -100, 100
			pid := mustNew(cfg)
			pid.Calculate(5, 0, 500*time.Millisecond)
			pid.Calculate(5, 1, 500*time.Millisecond)
			// (4 - 5) / 0.5 * 0.5
			Expect(pid.Terms().D).To(BeNumerically("~", -1.0, 1e-12))
		})

		It("accumulates error over seconds", func() {
			cfg.Kp, cfg.Kd = 0, 0
			pid := mustNew(cfg)
			pid.Calculate(2, 0, 500*time.Millisecond)
			out := pid.Calculate(2, 0, 500*time.Millisecond)
			Expect(pid.Integral()).To(Equal(2.0))
			Expect(out).To(Equal(2.0))
		})
	})

	Context("saturation", func() {
		It("keeps the output inside the bounds for arbitrary input", func() {
			pid := mustNew(Config[float64]{Kp: 3, Ki: 2, Kd: 1, MinOutput: -1, MaxOutput: 2})
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 5000; i++ {
				sp := rng.NormFloat64() * 1000
				pv := rng.NormFloat64() * 1000
				dt := time.Duration(rng.Int63n(int64(50*time.Millisecond))) - 5*time.Millisecond
				out := pid.Calculate(sp, pv, dt)
				Expect(out).To(BeNumerically(">=", -1.0))
				Expect(out).To(BeNumerically("<=", 2.0))
			}
		})

		It("holds for float32 as well", func() {
			pid, err := New(Config[float32]{Kp: 50, Ki: 50, Kd: 50, MinOutput: -0.5, MaxOutput: 0.5})
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 200; i++ {
				out := pid.Calculate(float32(i%7)*30, float32(i%3)*-40, time.Millisecond)
				Expect(out).To(BeNumerically(">=", float32(-0.5)))
				Expect(out).To(BeNumerically("<=", float32(0.5)))
			}
		})

		It("clamps the integral contribution but not the accumulator by default", func() {
			cfg.Kp, cfg.Kd = 0, 0
			pid := mustNew(cfg)
			for i := 0; i < 100; i++ {
				pid.Calculate(1, 0, time.Second)
			}
			Expect(pid.Terms().I).To(Equal(10.0))
			Expect(pid.Integral()).To(Equal(100.0))
		})

		It("pulls the accumulator back in accumulator mode", func() {
			cfg.Kp, cfg.Kd = 0, 0
			cfg.AntiWindup = ClampAccumulator
			pid := mustNew(cfg)
			for i := 0; i < 100; i++ {
				pid.Calculate(1, 0, time.Second)
			}
			Expect(pid.Integral()).To(Equal(10.0))

			// a single tick of opposite error leaves saturation at once
			out := pid.Calculate(0, 1, time.Second)
			Expect(out).To(Equal(9.0))
		})
	})

	Context("zero dt", func() {
		It("returns a finite clamped value without a derivative", func() {
			pid := mustNew(cfg)
			pid.Calculate(1, 0, 10*time.Millisecond)
			out := pid.Calculate(50, 0, 0)
			Expect(math.IsNaN(out) || math.IsInf(out, 0)).To(BeFalse())
			Expect(out).To(Equal(10.0))
			Expect(pid.Terms().D).To(Equal(0.0))
		})

		It("treats a negative dt like zero for the derivative", func() {
			pid := mustNew(cfg)
			pid.Calculate(1, 0, 10*time.Millisecond)
			pid.Calculate(3, 0, -10*time.Millisecond)
			Expect(pid.Terms().D).To(Equal(0.0))
		})
	})

	Context("non-finite error", func() {
		It("saturates when a float32 error overflows", func() {
			pid, err := New(Config[float32]{Kp: 1, Ki: 1, Kd: 1, MinOutput: -1, MaxOutput: 1})
			Expect(err).NotTo(HaveOccurred())

			Expect(pid.Calculate(math.MaxFloat32, -math.MaxFloat32, 10*time.Millisecond)).To(Equal(float32(1)))
			Expect(pid.Calculate(-math.MaxFloat32, math.MaxFloat32, 10*time.Millisecond)).To(Equal(float32(-1)))
			Expect(pid.Integral()).To(Equal(float32(0)))
		})

		It("stays bounded when the derivative overflows", func() {
			pid, err := New(Config[float32]{Kp: 1, Ki: 1, Kd: 1, MinOutput: -1, MaxOutput: 1})
			Expect(err).NotTo(HaveOccurred())

			for _, sp := range []float32{math.MaxFloat32, -math.MaxFloat32, math.MaxFloat32} {
				out := pid.Calculate(sp, 0, 10*time.Millisecond)
				Expect(math.IsNaN(float64(out))).To(BeFalse())
				Expect(out).To(BeNumerically(">=", float32(-1)))
				Expect(out).To(BeNumerically("<=", float32(1)))
			}
		})

		It("recovers from a NaN measurement", func() {
			fresh := mustNew(cfg)
			hit := mustNew(cfg)

			out := hit.Calculate(0, math.NaN(), 10*time.Millisecond)
			Expect(out).To(Equal(0.0))
			Expect(hit.Integral()).To(Equal(0.0))

			for i := 0; i < 3; i++ {
				want := fresh.Calculate(1, 0, 10*time.Millisecond)
				Expect(hit.Calculate(1, 0, 10*time.Millisecond)).To(Equal(want))
			}
		})

		It("keeps its history across a NaN measurement", func() {
			pid := mustNew(cfg)
			pid.Calculate(1, 0, time.Second)
			before := pid.Integral()

			pid.Calculate(1, math.Inf(1), time.Second)
			pid.Calculate(1, math.NaN(), time.Second)
			Expect(pid.Integral()).To(Equal(before))
			Expect(math.IsNaN(pid.Calculate(1, 0, time.Second))).To(BeFalse())
		})
	})

	Context("reset", func() {
		It("reproduces the output of a fresh controller", func() {
			fresh := mustNew(cfg)
			want := fresh.Calculate(3, 1, 20*time.Millisecond)

			used := mustNew(cfg)
			for i := 0; i < 50; i++ {
				used.Calculate(float64(i), -float64(i), 20*time.Millisecond)
			}
			used.Reset()
			Expect(used.Integral()).To(Equal(0.0))
			Expect(used.Calculate(3, 1, 20*time.Millisecond)).To(Equal(want))
			Expect(used.Terms().D).To(Equal(0.0))
		})
	})
})
