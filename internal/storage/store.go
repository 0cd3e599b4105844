package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/nash169/RoboBrain/internal/dynamo"
	"github.com/nash169/RoboBrain/internal/sim"
)

// File names inside a run directory.
const (
	MetadataFile    = "metadata.json"
	StateFile       = "state.csv"
	ControlFile     = "control.csv"
	NetworkFile     = "network.csv"
	EnvironmentFile = "environment.csv"
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

// RunDir is where the files of runID live.
func (s *Store) RunDir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Timestamp      time.Time          `json:"timestamp"`
	Seed           int64              `json:"seed"`
	Dt             float64            `json:"dt"`
	SlowPeriod     float64            `json:"slow_period"`
	Duration       float64            `json:"duration"`
	Integrator     string             `json:"integrator"`
	NetworkControl bool               `json:"network_control"`
	TiltBound      float64            `json:"tilt_bound,omitempty"`
	RateBound      float64            `json:"rate_bound,omitempty"`
	Rank           int                `json:"rank"`
	Size           int                `json:"size"`
	Steps          int                `json:"steps"`
	Trials         int                `json:"trials"`
	Exchanges      int                `json:"exchanges"`
	Metrics        map[string]float64 `json:"metrics"`
}

// Save writes a run directory and returns its id. meta is completed from
// result; ID and Timestamp are assigned here.
func (s *Store) Save(meta RunMetadata, result *sim.Result) (string, error) {
	if meta.Name == "" {
		meta.Name = "run"
	}
	meta.ID = fmt.Sprintf("%s_%d_%s", meta.Name, time.Now().Unix(), uuid.NewString()[:8])
	meta.Timestamp = time.Now()
	meta.Rank = result.Rank
	meta.Size = result.Size
	meta.Steps = len(result.Records)
	meta.Trials = len(result.Trials)
	meta.Exchanges = result.Exchanges
	meta.Metrics = result.Metrics

	runDir := s.RunDir(meta.ID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, MetadataFile), meta); err != nil {
		return "", err
	}

	stateHeader := append([]string{"time"}, dynamo.StateLabels[:]...)
	err := writeCSV(filepath.Join(runDir, StateFile), stateHeader, result.Records, true,
		func(r sim.Record) []float64 { return append([]float64{r.Time}, r.State...) })
	if err != nil {
		return "", err
	}

	controlHeader := append([]string{"time"}, dynamo.ControlLabels[:]...)
	err = writeCSV(filepath.Join(runDir, ControlFile), controlHeader, result.Records, true,
		func(r sim.Record) []float64 { return append([]float64{r.Time}, r.Control...) })
	if err != nil {
		return "", err
	}

	err = writeCSV(filepath.Join(runDir, NetworkFile), []string{"time", "value", "policy", "modulatory"}, result.Records, false,
		func(r sim.Record) []float64 {
			return []float64{r.Signals.Time, r.Signals.Value, r.Signals.Policy, r.Signals.Modulatory}
		})
	if err != nil {
		return "", err
	}

	err = writeCSV(filepath.Join(runDir, EnvironmentFile), []string{"time", "reward", "td_error", "holding"}, result.Records, false,
		func(r sim.Record) []float64 {
			holding := 0.0
			if r.Holding {
				holding = 1
			}
			return []float64{r.Signals.Time, r.Reward, r.Signals.TDError, holding}
		})
	if err != nil {
		return "", err
	}

	return meta.ID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeCSV writes one row per record, or per exchange when every is false.
func writeCSV(path string, header []string, records []sim.Record, every bool, row func(sim.Record) []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	line := make([]string, 0, len(header))
	for _, rec := range records {
		if !every && !rec.Exchange {
			continue
		}
		line = line[:0]
		for _, v := range row(rec) {
			line = append(line, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := w.Write(line); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.RunDir(runID), MetadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("decode metadata of %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadColumns reads one csv file of a run as a header and numeric rows.
func (s *Store) LoadColumns(runID, file string) ([]string, [][]float64, error) {
	f, err := os.Open(filepath.Join(s.RunDir(runID), file))
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, [][]float64{}, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for i := 1; i < len(records); i++ {
		row := make([]float64, len(records[i]))
		for j, field := range records[i] {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%s line %d: %w", file, i+1, err)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return records[0], rows, nil
}

// LoadStates returns the recorded states and their times.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	_, rows, err := s.LoadColumns(runID, StateFile)
	if err != nil {
		return nil, nil, err
	}

	times := make([]float64, 0, len(rows))
	states := make([][]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		times = append(times, row[0])
		states = append(states, row[1:])
	}
	return states, times, nil
}
