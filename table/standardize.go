package table

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Standardize centers every column (axis Columns) or every row (axis Rows) to
// zero mean and scales it to unit population variance. Missing values are
// ignored when computing the moments and stay missing. A vector with zero
// variance is centered but not scaled. Every column must be numeric.
func (t *Table) Standardize(axis Axis) (*Table, error) {
	for j, c := range t.data {
		if c.kind != Numeric {
			return nil, fmt.Errorf("cannot standardize: column %q is %s", t.cols[j], c.kind)
		}
	}

	data := make([]column, len(t.data))
	for j, c := range t.data {
		num := make([]float64, len(c.num))
		copy(num, c.num)
		data[j] = column{kind: Numeric, num: num}
	}

	switch axis {
	case Columns:
		for _, c := range data {
			scale(c.num)
		}
	case Rows:
		vec := make([]float64, len(data))
		for i := range t.rows {
			for j := range data {
				vec[j] = data[j].num[i]
			}
			scale(vec)
			for j := range data {
				data[j].num[i] = vec[j]
			}
		}
	default:
		return nil, fmt.Errorf("unknown axis %d", axis)
	}

	return &Table{rows: t.rows, cols: t.cols, rowIdx: t.rowIdx, colIdx: t.colIdx, data: data}, nil
}

// scale standardizes x in place, skipping NaNs.
func scale(x []float64) {
	valid := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return
	}

	mean, variance := stat.MeanVariance(valid, nil)
	if n := float64(len(valid)); n > 1 {
		// MeanVariance is the unbiased estimate; rescale to the population
		// variance.
		variance = variance * (n - 1) / n
	} else {
		variance = 0
	}
	sd := math.Sqrt(variance)

	for i, v := range x {
		if math.IsNaN(v) {
			continue
		}
		if sd == 0 {
			x[i] = v - mean
			continue
		}
		x[i] = (v - mean) / sd
	}
}
