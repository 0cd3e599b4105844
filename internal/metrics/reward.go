package metrics

import "github.com/nash169/RoboBrain/internal/sim"

// MeanReward averages the shaped reward. It watches records rather than
// states since the reward is produced by the trial supervisor.
type MeanReward struct {
	total   float64
	samples int
}

func NewMeanReward() *MeanReward { return &MeanReward{} }

func (m *MeanReward) Name() string { return "mean_reward" }

func (m *MeanReward) OnRecord(r sim.Record) {
	m.total += r.Reward
	m.samples++
}

func (m *MeanReward) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.total / float64(m.samples)
}

func (m *MeanReward) Reset() {
	m.total = 0
	m.samples = 0
}
