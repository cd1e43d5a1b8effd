package viz

import (
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// FormatMatrix renders a with right-aligned columns, precision significant
// digits and negatives highlighted. Entries below 1e-12 of the largest
// magnitude print dimmed.
func FormatMatrix(a mat.Matrix, precision int) string {
	r, c := a.Dims()
	if r == 0 || c == 0 {
		return Subtle.Render("[]")
	}

	scale := 0.0
	cells := make([][]string, r)
	for i := 0; i < r; i++ {
		cells[i] = make([]string, c)
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			scale = math.Max(scale, math.Abs(v))
			cells[i][j] = strconv.FormatFloat(v, 'g', precision, 64)
		}
	}

	widths := make([]int, c)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			widths[j] = max(widths[j], len(cells[i][j]))
		}
	}

	var b strings.Builder
	for i := 0; i < r; i++ {
		b.WriteString(Subtle.Render(bracket(i, r, true)))
		for j := 0; j < c; j++ {
			if j > 0 {
				b.WriteString("  ")
			}
			cell := strings.Repeat(" ", widths[j]-len(cells[i][j])) + cells[i][j]
			v := a.At(i, j)
			switch {
			case math.Abs(v) <= 1e-12*scale:
				b.WriteString(zero.Render(cell))
			case v < 0:
				b.WriteString(negative.Render(cell))
			default:
				b.WriteString(positive.Render(cell))
			}
		}
		b.WriteString(Subtle.Render(bracket(i, r, false)))
		if i < r-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func bracket(i, rows int, left bool) string {
	switch {
	case rows == 1 && left:
		return "[ "
	case rows == 1:
		return " ]"
	case i == 0 && left:
		return "⎡ "
	case i == 0:
		return " ⎤"
	case i == rows-1 && left:
		return "⎣ "
	case i == rows-1:
		return " ⎦"
	case left:
		return "⎢ "
	default:
		return " ⎥"
	}
}
