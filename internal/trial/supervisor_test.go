package trial_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/trial"
)

func desired() dynamo.State {
	x := dynamo.NewState()
	x[dynamo.PosZ] = 0.08
	return x
}

var _ = Describe("Envelope", func() {
	env := trial.DefaultEnvelope(desired())

	It("derives the cage from the desired altitude", func() {
		Expect(env.Cage).To(BeNumerically("~", 0.0064, 1e-15))
	})

	It("accepts the desired state", func() {
		Expect(env.Violated(desired(), desired())).To(BeFalse())
	})

	DescribeTable("rejects states outside the bounds",
		func(idx int, value float64) {
			x := desired()
			x[idx] = value
			Expect(env.Violated(x, desired())).To(BeTrue())
		},
		Entry("tilt", dynamo.Tilt, math.Pi+1e-6),
		Entry("negative tilt", dynamo.Tilt, -math.Pi-1e-6),
		Entry("tilt rate", dynamo.TiltRate, 6.5*math.Pi+1e-6),
		Entry("altitude", dynamo.PosZ, 0.161),
		Entry("ground", dynamo.PosZ, -0.0001),
		Entry("NaN", dynamo.Roll, math.NaN()),
	)

	It("relaxes horizontal deviation by a factor of four", func() {
		x := desired()
		x[dynamo.PosX] = 0.15
		Expect(trial.CageDistance(x, desired())).To(BeNumerically("~", 0.005625, 1e-12))
		Expect(env.Violated(x, desired())).To(BeFalse())
	})

	It("rejects non-positive bounds", func() {
		Expect(trial.Envelope{Tilt: 1, Rate: 0, Cage: 1}.Validate()).To(MatchError(dynamo.ErrParameterBounds))
	})
})

var _ = Describe("Supervisor", func() {
	var (
		sup *trial.Supervisor
		cfg trial.Config
		env trial.Envelope
	)

	BeforeEach(func() {
		cfg = trial.DefaultConfig()
		env = trial.DefaultEnvelope(desired())
		var err error
		sup, err = trial.New(cfg, env, desired())
		Expect(err).NotTo(HaveOccurred())
	})

	It("starts running with no trials", func() {
		Expect(sup.Phase()).To(Equal(trial.Running))
		Expect(sup.Holding()).To(BeFalse())
		Expect(sup.Countdown()).To(BeNumerically("<", 0))
		Expect(sup.Trials()).To(Equal(0))
		Expect(sup.NetworkControl()).To(BeTrue())
	})

	It("shapes the upright reward at the desired state", func() {
		Expect(sup.Shape(desired())).To(Equal(cfg.RewardScale))
		Expect(sup.BridgeReward()).To(Equal(cfg.RewardScale))
	})

	It("scales the reward with the cosine of the tilt", func() {
		x := desired()
		x[dynamo.Tilt] = math.Pi / 3
		Expect(sup.Shape(x)).To(BeNumerically("~", cfg.RewardScale/2, 1e-12))
	})

	Context("after a tilt violation", func() {
		var ended []trial.Record

		BeforeEach(func() {
			ended = nil
			sup.OnTrial(func(r trial.Record) { ended = append(ended, r) })

			x := desired()
			x[dynamo.Tilt] = env.Tilt + 1e-9
			sup.Shape(x)
			Expect(sup.Check(1.5, x)).To(BeTrue())
		})

		It("enters hold and counts the trial once", func() {
			Expect(sup.Phase()).To(Equal(trial.Hold))
			Expect(sup.Trials()).To(Equal(1))
			Expect(ended).To(HaveLen(1))
			Expect(ended[0]).To(Equal(trial.Record{Number: 0, Start: 0, End: 1.5, Duration: 1.5}))
		})

		It("ignores further violations while holding", func() {
			x := desired()
			x[dynamo.PosZ] = 10
			Expect(sup.Check(1.501, x)).To(BeFalse())
			Expect(sup.Trials()).To(Equal(1))
		})

		It("emits the punishment exactly once", func() {
			Expect(sup.Shape(desired())).To(Equal(cfg.Punishment))
			Expect(sup.Shape(desired())).To(Equal(cfg.RewardScale))
		})

		It("hands the punishment to the next exchange even after later rewards", func() {
			sup.Shape(desired())
			sup.Shape(desired())
			Expect(sup.BridgeReward()).To(Equal(cfg.Punishment))
			Expect(sup.BridgeReward()).To(Equal(cfg.RewardScale))
		})

		It("counts the hold down tick by tick and then resumes", func() {
			holdTicks := int(math.Round(cfg.HoldDuration / cfg.FastStep))
			prev := sup.Countdown()
			Expect(prev).To(BeNumerically("~", cfg.HoldDuration, 1e-12))

			pinned := 0
			for sup.Holding() {
				pinned++
				sup.Tick()
				Expect(sup.Countdown()).To(BeNumerically("<", prev))
				prev = sup.Countdown()
			}
			Expect(pinned).To(Equal(holdTicks + 1))
			Expect(sup.Phase()).To(Equal(trial.Running))

			sup.Tick()
			Expect(sup.Countdown()).To(Equal(prev))
		})

		It("starts the next trial after the hold", func() {
			Expect(sup.TrialStart()).To(BeNumerically("~", 1.7, 1e-12))
			for sup.Holding() {
				sup.Tick()
			}
			x := desired()
			x[dynamo.TiltRate] = 100
			Expect(sup.Check(2.0, x)).To(BeTrue())
			Expect(sup.Records()[1].Duration).To(BeNumerically("~", 0.3, 1e-12))
			Expect(sup.Records()[1].Number).To(Equal(1))
		})
	})

	It("never counts a trial while the state stays nominal", func() {
		for i := 0; i < 1000; i++ {
			Expect(sup.Shape(desired())).To(Equal(cfg.RewardScale))
			Expect(sup.Check(float64(i)*cfg.FastStep, desired())).To(BeFalse())
		}
		Expect(sup.Trials()).To(BeZero())
	})

	It("holds from the start when a startup hold is configured", func() {
		cfg.StartupHold = 2.0
		s, err := trial.New(cfg, env, desired())
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Phase()).To(Equal(trial.Hold))
		Expect(s.TrialStart()).To(Equal(2.0))
		Expect(s.Countdown()).To(BeNumerically("~", 2.0, 1e-12))
	})

	It("toggles network control", func() {
		sup.SetNetworkControl(false)
		Expect(sup.NetworkControl()).To(BeFalse())
	})

	DescribeTable("rejects invalid configuration",
		func(mutate func(*trial.Config)) {
			c := trial.DefaultConfig()
			mutate(&c)
			_, err := trial.New(c, env, desired())
			Expect(err).To(MatchError(dynamo.ErrParameterBounds))
		},
		Entry("zero step", func(c *trial.Config) { c.FastStep = 0 }),
		Entry("negative hold", func(c *trial.Config) { c.HoldDuration = -1 }),
		Entry("negative startup hold", func(c *trial.Config) { c.StartupHold = -1 }),
	)
})
