package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/dare/internal/linalg"
	"github.com/san-kum/dare/internal/lqr"
	"github.com/san-kum/dare/internal/sim"
)

// ExportData is the single-document JSON form of a design and, optionally,
// its closed-loop response.
type ExportData struct {
	Problem        string             `json:"problem"`
	Dt             float64            `json:"dt"`
	Iterations     int                `json:"iterations"`
	Residual       float64            `json:"residual"`
	SpectralRadius float64            `json:"spectral_radius"`
	S              [][]float64        `json:"s"`
	K              [][]float64        `json:"k"`
	Times          []float64          `json:"times,omitempty"`
	States         [][]float64        `json:"states,omitempty"`
	Controls       [][]float64        `json:"controls,omitempty"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

// ExportJSON writes r and the optional trajectory to w.
func ExportJSON(w io.Writer, r *lqr.Result, result *sim.Result) error {
	data := ExportData{
		Problem:        r.Problem.Name,
		Dt:             r.Problem.Dt,
		Iterations:     r.Iterations,
		Residual:       r.Residual,
		SpectralRadius: r.SpectralRadius,
		S:              linalg.ToRows(r.S),
		K:              linalg.ToRows(r.K),
	}

	if result != nil {
		data.Times = result.Times
		data.States = make([][]float64, len(result.States))
		for i, x := range result.States {
			data.States[i] = x
		}
		data.Controls = make([][]float64, len(result.Controls))
		for i, u := range result.Controls {
			data.Controls[i] = u
		}
		data.Metrics = finite(result.Metrics)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}
