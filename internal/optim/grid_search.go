// Package optim searches configuration parameters for the best run metric.
package optim

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/nash169/RoboBrain/internal/config"
	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/experiment"
)

// Setters name the configuration fields a search may vary.
var Setters = map[string]func(*config.Config, float64){
	"attitude_wn":   func(c *config.Config, v float64) { c.Vehicle.AttitudeWn = v },
	"attitude_zeta": func(c *config.Config, v float64) { c.Vehicle.AttitudeZeta = v },
	"altitude_kp":   func(c *config.Config, v float64) { c.Vehicle.AltitudeKp = v },
	"altitude_ki":   func(c *config.Config, v float64) { c.Vehicle.AltitudeKi = v },
	"altitude_kd":   func(c *config.Config, v float64) { c.Vehicle.AltitudeKd = v },
	"hold":          func(c *config.Config, v float64) { c.Trial.HoldDuration = v },
	"punishment":    func(c *config.Config, v float64) { c.Trial.Punishment = v },
	"reward_scale":  func(c *config.Config, v float64) { c.Trial.RewardScale = v },
	"roll":          func(c *config.Config, v float64) { c.Initial[dynamo.Roll] = v },
}

func ListSetters() []string {
	names := make([]string, 0, len(Setters))
	for name := range Setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	// Maximize flips the search direction; the default minimizes.
	Maximize bool
	// Workers bounds the experiments run at once.
	Workers int
	logger  *zap.Logger
}

func NewGridSearch(params []string, ranges [][]float64, logger *zap.Logger) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("%d parameters but %d ranges", len(params), len(ranges))
	}
	for i, name := range params {
		if _, ok := Setters[name]; !ok {
			return nil, fmt.Errorf("unknown parameter %q (available: %v)", name, ListSetters())
		}
		if len(ranges[i]) == 0 {
			return nil, fmt.Errorf("parameter %q has no values", name)
		}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GridSearch{paramNames: params, ranges: ranges, Workers: 1, logger: logger}, nil
}

// Search runs one experiment per grid point on copies of base and returns
// the best parameters, their metric value and every evaluated point in grid
// order. Points whose run fails are recorded with their error and skipped.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, metricName string) (map[string]float64, float64, []Trial, error) {
	var points []map[string]float64
	g.searchRecursive(0, make(map[string]float64), func(p map[string]float64) {
		points = append(points, p)
	})

	trials := make([]Trial, len(points))
	workers := g.Workers
	if workers < 1 {
		workers = 1
	}
	sem := make(chan struct{}, workers)

	var wg sync.WaitGroup
	for i, params := range points {
		wg.Add(1)
		go func(idx int, params map[string]float64) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			trials[idx].Params = params
			if err := ctx.Err(); err != nil {
				trials[idx].Err = err
				return
			}
			trials[idx].Value, trials[idx].Err = g.evaluate(ctx, base, params, metricName)
		}(i, params)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, trials, err
	}

	best := math.Inf(1)
	if g.Maximize {
		best = math.Inf(-1)
	}
	var bestParams map[string]float64
	for _, tr := range trials {
		if tr.Err != nil {
			g.logger.Warn("grid point failed", zap.Any("params", tr.Params), zap.Error(tr.Err))
			continue
		}
		if (g.Maximize && tr.Value > best) || (!g.Maximize && tr.Value < best) {
			best = tr.Value
			bestParams = tr.Params
		}
	}
	if bestParams == nil {
		return nil, best, trials, fmt.Errorf("no grid point produced %s", metricName)
	}
	return bestParams, best, trials, nil
}

func (g *GridSearch) evaluate(ctx context.Context, base *config.Config, params map[string]float64, metricName string) (float64, error) {
	cfg := *base
	cfg.Initial = append([]float64(nil), base.Initial...)
	cfg.Desired = append([]float64(nil), base.Desired...)
	for name, v := range params {
		Setters[name](&cfg, v)
	}

	exp, err := experiment.New(&cfg, g.logger)
	if err != nil {
		return 0, err
	}
	result, err := exp.Run(ctx)
	if err != nil {
		return 0, err
	}
	val, ok := result.Metrics[metricName]
	if !ok {
		return 0, fmt.Errorf("run has no metric %q", metricName)
	}
	g.logger.Debug("grid point", zap.Any("params", params), zap.Float64(metricName, val))
	return val, nil
}

func (g *GridSearch) searchRecursive(depth int, current map[string]float64, visit func(map[string]float64)) {
	if depth == len(g.paramNames) {
		visit(current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		g.searchRecursive(depth+1, newParams, visit)
	}
}
