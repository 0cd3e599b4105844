package control

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Gain is a static linear state-feedback law u = -K (x - target).
type Gain struct {
	K      *mat.Dense
	Target *mat.VecDense
}

func NewGain(k *mat.Dense, target *mat.VecDense) (*Gain, error) {
	_, cols := k.Dims()
	if target.Len() != cols {
		return nil, fmt.Errorf("gain: target has %d components, K has %d columns", target.Len(), cols)
	}
	return &Gain{K: k, Target: target}, nil
}

// Apply writes -K (x - target) into dst. dst must have one entry per row of K.
func (g *Gain) Apply(dst, x *mat.VecDense) {
	var e mat.VecDense
	e.SubVec(x, g.Target)
	dst.MulVec(g.K, &e)
	dst.ScaleVec(-1, dst)
}

// diagBlock builds [diag(a) diag(b)] for per-axis PD gains.
func diagBlock(a, b [3]float64) *mat.Dense {
	k := mat.NewDense(3, 6, nil)
	for i := 0; i < 3; i++ {
		k.Set(i, i, a[i])
		k.Set(i, i+3, b[i])
	}
	return k
}
