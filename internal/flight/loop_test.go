package flight

import (
	"context"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dronectl/internal/control"
	"github.com/san-kum/dronectl/internal/dynamo"
	"github.com/san-kum/dronectl/internal/estimate"
	"github.com/san-kum/dronectl/internal/integrators"
	"github.com/san-kum/dronectl/internal/physics"
)

var _ = Describe("AttitudeLoop", func() {
	var cfg Config

	BeforeEach(func() {
		cfg = DefaultConfig()
		cfg.Schedule = Constant(10)
	})

	fly := func(loop *AttitudeLoop, seconds float64) (*dynamo.Result, *Recorder) {
		sim := dynamo.New(physics.NewGimbal(), integrators.NewRK4(), loop)
		rec := NewRecorder(loop)
		sim.AddObserver(rec)
		result, err := sim.Run(context.Background(), dynamo.State{0, 0}, dynamo.Config{
			Dt: 0.01, Duration: seconds, ValidateState: true,
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Errors).To(BeEmpty())
		return result, rec
	}

	It("rejects an invalid configuration", func() {
		bad := cfg
		bad.Alpha = 1.5
		_, err := NewAttitudeLoop(bad, physics.NewIMU(1))
		Expect(err).To(MatchError(estimate.ErrInvalidAlpha))

		bad = cfg
		bad.PID.MinOutput = 100
		_, err = NewAttitudeLoop(bad, physics.NewIMU(1))
		Expect(err).To(MatchError(control.ErrInvalidConfig))
	})

	It("runs the first tick with zero dt", func() {
		loop, err := NewAttitudeLoop(cfg, physics.NewIMU(1))
		Expect(err).NotTo(HaveOccurred())

		u := loop.Compute(dynamo.State{0, 0}, 0)
		Expect(u).To(HaveLen(1))
		Expect(loop.Last().Terms.D).To(Equal(0.0))
		// no gyro integration, estimate is (1-alpha)*accel
		Expect(loop.Estimate()).To(Equal(0.0))
		Expect(u[0]).To(Equal(cfg.PID.Kp * 10))
	})

	It("seeds the estimate from the accelerometer when asked", func() {
		cfg.SeedEstimate = true
		loop, err := NewAttitudeLoop(cfg, physics.NewIMU(1))
		Expect(err).NotTo(HaveOccurred())
		loop.Compute(dynamo.State{25, 0}, 0)
		Expect(loop.Estimate()).To(BeNumerically("~", 25, 1e-9))
	})

	It("settles on a step with clean sensors", func() {
		loop, err := NewAttitudeLoop(cfg, physics.NewIMU(1))
		Expect(err).NotTo(HaveOccurred())

		result, rec := fly(loop, 10)
		final := result.States[len(result.States)-1]
		Expect(final[0]).To(BeNumerically("~", 10, 0.5))
		Expect(rec.Samples()).To(HaveLen(len(result.Controls)))

		for _, u := range result.Controls {
			Expect(u[0]).To(BeNumerically(">=", cfg.PID.MinOutput))
			Expect(u[0]).To(BeNumerically("<=", cfg.PID.MaxOutput))
		}
	})

	It("holds attitude through sensor noise and gyro bias", func() {
		imu := physics.NewIMU(7)
		imu.AccelNoise = 2
		imu.GyroNoise = 0.5
		imu.GyroBias = 0.3
		loop, err := NewAttitudeLoop(cfg, imu)
		Expect(err).NotTo(HaveOccurred())

		result, _ := fly(loop, 15)
		tail := result.States[len(result.States)-100:]
		sum := 0.0
		for _, x := range tail {
			sum += math.Abs(x[0] - 10)
		}
		Expect(sum / float64(len(tail))).To(BeNumerically("<", 1.0))
	})

	It("follows a schedule", func() {
		cfg.Schedule = NewSchedule(Step{At: 0, Angle: 0}, Step{At: 5, Angle: -15})
		loop, err := NewAttitudeLoop(cfg, physics.NewIMU(1))
		Expect(err).NotTo(HaveOccurred())

		result, rec := fly(loop, 15)
		Expect(result.States[500][0]).To(BeNumerically("~", 0, 0.1))
		Expect(result.States[len(result.States)-1][0]).To(BeNumerically("~", -15, 0.5))
		Expect(rec.Series()["setpoint"][600]).To(Equal(-15.0))
	})

	Context("live tuning", func() {
		var loop *AttitudeLoop

		BeforeEach(func() {
			var err error
			loop, err = NewAttitudeLoop(cfg, physics.NewIMU(1))
			Expect(err).NotTo(HaveOccurred())
		})

		It("exposes its parameters", func() {
			params := loop.GetParams()
			Expect(params).To(HaveKeyWithValue("kp", cfg.PID.Kp))
			Expect(params).To(HaveKeyWithValue("alpha", cfg.Alpha))
			Expect(params).To(HaveKeyWithValue("setpoint", 10.0))
		})

		It("rebuilds the PID on a gain change", func() {
			Expect(loop.SetParam("kp", 2)).To(Succeed())
			Expect(loop.Config().PID.Kp).To(Equal(2.0))
			u := loop.Compute(dynamo.State{0, 0}, 0)
			Expect(u[0]).To(Equal(20.0))
		})

		It("refuses inverted bounds and keeps the old PID", func() {
			err := loop.SetParam("min_output", 500)
			Expect(err).To(MatchError(control.ErrInvalidConfig))
			Expect(loop.Config().PID.MinOutput).To(Equal(cfg.PID.MinOutput))
		})

		It("keeps the estimate across an alpha change", func() {
			loop.Compute(dynamo.State{30, 0}, 0)
			before := loop.Estimate()
			Expect(loop.SetParam("alpha", 0.5)).To(Succeed())
			Expect(loop.Estimate()).To(Equal(before))
			Expect(loop.SetParam("alpha", -1)).To(MatchError(estimate.ErrInvalidAlpha))
		})

		It("overrides the setpoint", func() {
			Expect(loop.SetParam("setpoint", -4)).To(Succeed())
			Expect(loop.Config().Schedule.At(99)).To(Equal(-4.0))
			Expect(loop.SetParam("setpoint", math.NaN())).To(MatchError(dynamo.ErrParameterBounds))
		})

		It("rejects unknown parameters", func() {
			Expect(loop.SetParam("gain", 1)).To(MatchError(dynamo.ErrUnknownParam))
		})
	})

	It("behaves like a fresh loop after Reset", func() {
		fresh, err := NewAttitudeLoop(cfg, physics.NewIMU(1))
		Expect(err).NotTo(HaveOccurred())
		want := fresh.Compute(dynamo.State{3, 1}, 0)

		used, err := NewAttitudeLoop(cfg, physics.NewIMU(1))
		Expect(err).NotTo(HaveOccurred())
		for i := 0; i < 20; i++ {
			used.Compute(dynamo.State{float64(i), 2}, float64(i)*0.01)
		}
		used.Reset()
		Expect(used.Compute(dynamo.State{3, 1}, 0)).To(Equal(want))
	})
})
