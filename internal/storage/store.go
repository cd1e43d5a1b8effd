// Package storage persists design runs as plain files: a JSON metadata
// record plus CSV matrices and trajectories.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/dare/internal/lqr"
	"github.com/san-kum/dare/internal/sim"
)

const (
	metadataFile   = "metadata.json"
	solutionFile   = "solution.csv"
	gainFile       = "gain.csv"
	trajectoryFile = "states.csv"
)

// Matrix names accepted by LoadMatrix.
const (
	Solution = "solution"
	Gain     = "gain"
)

var ErrUnknownMatrix = errors.New("storage: unknown matrix")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// SolverSettings records the tolerance and cap a run was solved with.
type SolverSettings struct {
	Tolerance     float64 `json:"tolerance"`
	MaxIterations int     `json:"max_iterations"`
}

type RunMetadata struct {
	ID             string             `json:"id"`
	Problem        string             `json:"problem"`
	Timestamp      time.Time          `json:"timestamp"`
	Dt             float64            `json:"dt"`
	States         int                `json:"states"`
	Inputs         int                `json:"inputs"`
	Solver         SolverSettings     `json:"solver"`
	Iterations     int                `json:"iterations"`
	ElapsedMicros  int64              `json:"elapsed_us"`
	Residual       float64            `json:"residual"`
	SpectralRadius float64            `json:"spectral_radius"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// Save writes a new run directory for the design and returns its id.
func (s *Store) Save(r *lqr.Result, solver SolverSettings) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	now := time.Now()
	runID := fmt.Sprintf("%s_%d", r.Problem.Name, now.Unix())
	for i := 1; exists(filepath.Join(s.baseDir, runID)); i++ {
		runID = fmt.Sprintf("%s_%d_%d", r.Problem.Name, now.Unix(), i)
	}
	runDir := filepath.Join(s.baseDir, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	n, m := r.Discrete.Dims()
	meta := RunMetadata{
		ID:             runID,
		Problem:        r.Problem.Name,
		Timestamp:      now,
		Dt:             r.Problem.Dt,
		States:         n,
		Inputs:         m,
		Solver:         solver,
		Iterations:     r.Iterations,
		ElapsedMicros:  r.SolveTime.Microseconds(),
		Residual:       r.Residual,
		SpectralRadius: r.SpectralRadius,
	}
	if err := writeMetadata(filepath.Join(runDir, metadataFile), &meta); err != nil {
		return "", err
	}
	if err := writeMatrix(filepath.Join(runDir, solutionFile), r.S); err != nil {
		return "", err
	}
	if err := writeMatrix(filepath.Join(runDir, gainFile), r.K); err != nil {
		return "", err
	}
	return runID, nil
}

// SaveTrajectory attaches a closed-loop run to an existing design, writing
// its states and controls and merging its metrics into the metadata.
func (s *Store) SaveTrajectory(runID string, result *sim.Result) error {
	meta, err := s.Load(runID)
	if err != nil {
		return err
	}
	if meta.Metrics == nil {
		meta.Metrics = make(map[string]float64, len(result.Metrics))
	}
	for k, v := range finite(result.Metrics) {
		meta.Metrics[k] = v
	}

	runDir := filepath.Join(s.baseDir, runID)
	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		return err
	}
	return writeTrajectory(filepath.Join(runDir, trajectoryFile), result)
}

func writeMetadata(path string, meta *RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func writeMatrix(path string, a mat.Matrix) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		row := make([]string, c)
		for j := range row {
			row[j] = strconv.FormatFloat(a.At(i, j), 'g', -1, 64)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeTrajectory(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(result.States) == 0 {
		return nil
	}

	header := []string{"time"}
	for i := range result.States[0] {
		header = append(header, fmt.Sprintf("x%d", i))
	}
	numControls := 0
	if len(result.Controls) > 0 {
		numControls = len(result.Controls[0])
		for i := 0; i < numControls; i++ {
			header = append(header, fmt.Sprintf("u%d", i))
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'f', 6, 64)}
		for _, v := range result.States[i] {
			row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
		}
		// the final state has no control applied after it
		if i < len(result.Controls) {
			for _, v := range result.Controls[i] {
				row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
			}
		} else {
			for j := 0; j < numControls; j++ {
				row = append(row, "")
			}
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns every readable run, oldest first.
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

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("run %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadMatrix reads the Solution or Gain matrix of a run.
func (s *Store) LoadMatrix(runID, name string) (*mat.Dense, error) {
	var file string
	switch name {
	case Solution:
		file = solutionFile
	case Gain:
		file = gainFile
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMatrix, name)
	}

	f, err := os.Open(filepath.Join(s.baseDir, runID, file))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("run %s %s: %w", runID, name, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("run %s %s: empty matrix", runID, name)
	}

	out := mat.NewDense(len(records), len(records[0]), nil)
	for i, record := range records {
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("run %s %s[%d][%d]: %w", runID, name, i, j, err)
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// LoadStates reads back a trajectory written by SaveTrajectory.
func (s *Store) LoadStates(runID string) ([][]float64, []float64, error) {
	f, err := os.Open(filepath.Join(s.baseDir, runID, trajectoryFile))
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
	if len(records) < 2 {
		return [][]float64{}, []float64{}, nil
	}

	header := records[0]
	numStates := 0
	for _, h := range header[1:] {
		if len(h) > 0 && h[0] == 'x' {
			numStates++
		}
	}

	times := make([]float64, 0, len(records)-1)
	states := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		if len(record) < numStates+1 {
			continue
		}
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			continue
		}
		state := make([]float64, numStates)
		for j := range state {
			state[j], err = strconv.ParseFloat(record[j+1], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("run %s row %d: %w", runID, len(times), err)
			}
		}
		times = append(times, t)
		states = append(states, state)
	}
	return states, times, nil
}

// finite drops values JSON cannot encode, such as the +Inf settling time
// of a run that never settles.
func finite(metrics map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(metrics))
	for k, v := range metrics {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out[k] = v
		}
	}
	return out
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
