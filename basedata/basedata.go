// Package basedata wraps one primary data matrix of a study, samples by
// features, and answers subset queries against it.
package basedata

import (
	"fmt"
	"math"

	"github.com/carbocation/flotilla/table"
)

// Kind says what a data matrix measures.
type Kind string

const (
	Expression Kind = "expression"
	Splicing   Kind = "splicing"
)

type BaseData struct {
	kind        Kind
	data        *table.Table
	featureData *table.Table

	standardize bool
	axis        table.Axis

	threshold  float64
	minSamples int
}

type Option func(*BaseData)

// WithStandardize makes Subset standardize its result along axis: each
// feature when axis is table.Columns, each sample when it is table.Rows.
func WithStandardize(axis table.Axis) Option {
	return func(b *BaseData) {
		b.standardize = true
		b.axis = axis
	}
}

// WithFeatureData attaches a metadata table whose rows describe the columns
// of the data.
func WithFeatureData(t *table.Table) Option {
	return func(b *BaseData) { b.featureData = t }
}

// WithThreshold marks every value below thresh as missing. Used for
// expression data, where values under the detection limit are noise.
func WithThreshold(thresh float64) Option {
	return func(b *BaseData) { b.threshold = thresh }
}

// WithMinSamples drops every feature with fewer than n non-missing values.
func WithMinSamples(n int) Option {
	return func(b *BaseData) { b.minSamples = n }
}

// New wraps data. Threshold and minimum-samples filters are applied once,
// here; data itself is never modified.
func New(kind Kind, data *table.Table, opts ...Option) (*BaseData, error) {
	if data == nil {
		return nil, fmt.Errorf("%s: no data table", kind)
	}

	b := &BaseData{kind: kind, data: data, threshold: math.Inf(-1)}
	for _, opt := range opts {
		opt(b)
	}

	if !math.IsInf(b.threshold, -1) {
		if !data.IsNumeric() {
			return nil, fmt.Errorf("%s: a threshold needs numeric data", kind)
		}
		thresh := b.threshold
		b.data = b.data.Map(func(v float64) float64 {
			if v < thresh {
				return math.NaN()
			}
			return v
		})
	}

	if b.minSamples > 0 {
		var sparse []string
		for _, col := range b.data.Columns() {
			n, err := b.data.CountValid(col)
			if err != nil {
				return nil, err
			}
			if n < b.minSamples {
				sparse = append(sparse, col)
			}
		}
		b.data = b.data.DropColumns(sparse)
	}

	return b, nil
}

func (b *BaseData) Kind() Kind { return b.kind }

// Data returns the stored table, after any construction-time filtering.
func (b *BaseData) Data() *table.Table { return b.data }

// FeatureData returns the table describing the features, if one was attached.
func (b *BaseData) FeatureData() (*table.Table, bool) { return b.featureData, b.featureData != nil }

func (b *BaseData) SampleIDs() []string { return b.data.Rows() }

func (b *BaseData) FeatureIDs() []string { return b.data.Columns() }

// Subset returns the data restricted to sampleIDs (rows) and featureIDs
// (columns), standardized if the BaseData was built WithStandardize. A nil
// slice means no restriction on that axis. Absent keys produce a
// *table.MissingKeyError.
func (b *BaseData) Subset(sampleIDs, featureIDs []string) (*table.Table, error) {
	out, err := b.data.Subset(sampleIDs, featureIDs)
	if err != nil {
		return nil, err
	}
	if !b.standardize {
		return out, nil
	}
	return out.Standardize(b.axis)
}

// SubsetStandardized is Subset followed by standardization along axis,
// regardless of how the BaseData was built.
func (b *BaseData) SubsetStandardized(sampleIDs, featureIDs []string, axis table.Axis) (*table.Table, error) {
	out, err := b.data.Subset(sampleIDs, featureIDs)
	if err != nil {
		return nil, err
	}
	return out.Standardize(axis)
}

// DropSamples returns a BaseData without the given samples. Samples that are
// not present are ignored.
func (b *BaseData) DropSamples(sampleIDs []string) *BaseData {
	out := *b
	out.data = b.data.DropRows(sampleIDs)
	return &out
}

// RestrictSamples returns a BaseData holding only the given samples, which
// must all be present.
func (b *BaseData) RestrictSamples(sampleIDs []string) (*BaseData, error) {
	t, err := b.data.Subset(sampleIDs, nil)
	if err != nil {
		return nil, err
	}
	out := *b
	out.data = t
	return &out, nil
}
