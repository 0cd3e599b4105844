package storage

import (
	"context"
	"encoding/json"
	"io"
	"os"

	"github.com/nash169/RoboBrain/internal/sim"
	"github.com/nash169/RoboBrain/internal/trial"
)

type ExportData struct {
	Integrator string             `json:"integrator"`
	Dt         float64            `json:"dt"`
	Duration   float64            `json:"duration"`
	Steps      int                `json:"steps"`
	Times      []float64          `json:"times"`
	States     [][]float64        `json:"states"`
	Controls   [][]float64        `json:"controls"`
	Rewards    []float64          `json:"rewards,omitempty"`
	Trials     []trial.Record     `json:"trials"`
	Metrics    map[string]float64 `json:"metrics"`
}

func NewExportData(integrator string, dt, duration float64, result *sim.Result) ExportData {
	data := ExportData{
		Integrator: integrator,
		Dt:         dt,
		Duration:   duration,
		Steps:      len(result.Records),
		Times:      result.Times(),
		States:     make([][]float64, len(result.Records)),
		Controls:   make([][]float64, len(result.Records)),
		Rewards:    result.Rewards(),
		Trials:     result.Trials,
		Metrics:    result.Metrics,
	}
	for i, rec := range result.Records {
		data.States[i] = rec.State
		data.Controls[i] = rec.Control
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSON writes data to path, or to stdout when path is empty.
func ExportJSON(path string, data ExportData) error {
	if path == "" {
		return WriteJSON(os.Stdout, data)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteJSON(f, data)
}

// Export rebuilds the export document of a stored run. Trials are taken
// from log when it is non-nil. Rewards are not part of stored runs.
func (s *Store) Export(ctx context.Context, runID string, log *TrialLog) (ExportData, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return ExportData{}, err
	}
	states, times, err := s.LoadStates(runID)
	if err != nil {
		return ExportData{}, err
	}
	_, controls, err := s.LoadColumns(runID, ControlFile)
	if err != nil {
		return ExportData{}, err
	}
	for i := range controls {
		controls[i] = controls[i][1:]
	}

	data := ExportData{
		Integrator: meta.Integrator,
		Dt:         meta.Dt,
		Duration:   meta.Duration,
		Steps:      len(states),
		Times:      times,
		States:     states,
		Controls:   controls,
		Metrics:    meta.Metrics,
	}
	if log != nil {
		if data.Trials, err = log.List(ctx, runID); err != nil {
			return ExportData{}, err
		}
	}
	return data, nil
}
