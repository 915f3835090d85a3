package table

import (
	"math"

	"github.com/montanaflynn/stats"
)

// Summary describes the non-missing values of one numeric column.
type Summary struct {
	Column  string
	N       int
	Missing int
	Mean    float64
	Median  float64
	SD      float64
	Min     float64
	Max     float64
}

// Summarize describes every numeric column of t, in column order. Categorical
// columns are skipped. Statistics of a column without values are NaN.
func (t *Table) Summarize() []Summary {
	out := make([]Summary, 0, len(t.cols))
	for j, c := range t.data {
		if c.kind != Numeric {
			continue
		}
		out = append(out, summarize(t.cols[j], c.num))
	}
	return out
}

func summarize(name string, x []float64) Summary {
	s := Summary{Column: name}

	data := make(stats.Float64Data, 0, len(x))
	for _, v := range x {
		if math.IsNaN(v) {
			s.Missing++
			continue
		}
		data = append(data, v)
	}
	s.N = len(data)

	s.Mean = orNaN(data.Mean())
	s.Median = orNaN(data.Median())
	s.SD = orNaN(data.StandardDeviationPopulation())
	s.Min = orNaN(data.Min())
	s.Max = orNaN(data.Max())

	return s
}

func orNaN(v float64, err error) float64 {
	if err != nil {
		return math.NaN()
	}
	return v
}
