// Package study assembles descriptor metadata and data matrices into a Study,
// the unit of one analysis session. The Study never loads anything itself: it
// is handed a metadata loader and a data loader and calls them once, in
// Embark.
package study

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/carbocation/flotilla"
	"github.com/carbocation/flotilla/basedata"
	"github.com/carbocation/flotilla/config"
	"github.com/carbocation/flotilla/metadata"
	"github.com/carbocation/flotilla/query"
	"github.com/carbocation/flotilla/table"
)

// State is where a Study is in its life. Studies only move forward, and only
// inside Embark.
type State byte

const (
	Uninitialized State = iota
	Shell
	Loaded
	Filtered
)

var stateNames = [...]string{
	Uninitialized: "uninitialized",
	Shell:         "shell",
	Loaded:        "loaded",
	Filtered:      "filtered",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", byte(s))
}

// ConfigurationError means a feature was requested without a table or
// capability it depends on.
type ConfigurationError struct {
	Msg string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigurationError{Msg: fmt.Sprintf(format, args...)}
}

// MetadataSpec says where each descriptor table lives. A nil field means the
// descriptor is not provided.
type MetadataSpec struct {
	Sample *flotilla.LoadSpec
	Gene   *flotilla.LoadSpec
	Event  *flotilla.LoadSpec
}

// DataSpec says where each data matrix lives. A nil field means the matrix is
// not provided.
type DataSpec struct {
	Expression *flotilla.LoadSpec
	Splicing   *flotilla.LoadSpec
}

// Tables holds raw data matrices, samples by features, by kind.
type Tables map[basedata.Kind]*table.Table

// MetadataLoader turns a MetadataSpec into a bundle of descriptors.
type MetadataLoader func(ctx context.Context, spec MetadataSpec) (*metadata.Bundle, error)

// DataLoader turns a DataSpec into raw data matrices.
type DataLoader func(ctx context.Context, spec DataSpec) (Tables, error)

// MetadataFrom adapts a MetaData to a MetadataLoader.
func MetadataFrom(m *metadata.MetaData) MetadataLoader {
	return func(ctx context.Context, spec MetadataSpec) (*metadata.Bundle, error) {
		return m.Get(ctx, spec.Sample, spec.Gene, spec.Event)
	}
}

// DataFrom returns a DataLoader that reads each non-nil spec with loader,
// expression first.
func DataFrom(loader metadata.TableLoader) DataLoader {
	return func(ctx context.Context, spec DataSpec) (Tables, error) {
		out := make(Tables)
		for _, v := range []struct {
			kind basedata.Kind
			spec *flotilla.LoadSpec
		}{
			{basedata.Expression, spec.Expression},
			{basedata.Splicing, spec.Splicing},
		} {
			if v.spec == nil {
				continue
			}
			t, err := loader.Load(ctx, *v.spec)
			if err != nil {
				return nil, fmt.Errorf("%s data: %w", v.kind, err)
			}
			out[v.kind] = t
		}
		return out, nil
	}
}

type Study struct {
	id     uuid.UUID
	state  State
	params config.Params

	meta     *metadata.Bundle
	data     map[basedata.Kind]*basedata.BaseData
	outliers []string

	lists  query.Lists
	logger *zap.Logger
}

// Embark builds a Study. With LoadCargo(false) it returns a Shell study and
// calls neither loader. Otherwise it loads metadata, then data, and assembles
// them; any failure is logged and returned, and no Study is produced.
func Embark(
	ctx context.Context,
	metadataSpec MetadataSpec,
	metadataLoader MetadataLoader,
	dataSpec DataSpec,
	dataLoader DataLoader,
	params config.Params,
	opts ...Option,
) (*Study, error) {
	o := newOptions(opts)

	id := uuid.New()
	s := &Study{
		id:     id,
		state:  Uninitialized,
		params: params,
		lists:  o.lists,
		logger: o.logger.With(zap.String("study", id.String())),
	}

	s.logger.Debug("embarking", zap.Stringer("options", o))

	if !o.loadCargo {
		s.state = Shell
		s.logger.Info("embarked without cargo")
		return s, nil
	}

	if err := s.load(ctx, metadataSpec, metadataLoader, dataSpec, dataLoader, o); err != nil {
		s.logger.Error("error embarking", zap.Error(err))
		return nil, err
	}

	return s, nil
}

func (s *Study) load(
	ctx context.Context,
	metadataSpec MetadataSpec,
	metadataLoader MetadataLoader,
	dataSpec DataSpec,
	dataLoader DataLoader,
	o options,
) error {
	if metadataLoader == nil || dataLoader == nil {
		return configErrorf("loading cargo needs both a metadata loader and a data loader")
	}

	join := o.join
	if !o.joinSet {
		var err error
		if join, err = ParseJoinPolicy(s.params.Join); err != nil {
			return err
		}
	}

	bundle, err := metadataLoader(ctx, metadataSpec)
	if err != nil {
		return err
	}
	if bundle == nil {
		bundle = metadata.NewBundle(metadata.Absent(), metadata.Absent(), metadata.Absent())
	}

	tables, err := dataLoader(ctx, dataSpec)
	if err != nil {
		return err
	}

	s.data = make(map[basedata.Kind]*basedata.BaseData)
	for _, kind := range []basedata.Kind{basedata.Expression, basedata.Splicing} {
		t, ok := tables[kind]
		if !ok || t == nil {
			continue
		}

		if t, err = s.join(kind, t, bundle, join); err != nil {
			return err
		}

		bd, err := s.baseData(kind, t, bundle)
		if err != nil {
			return err
		}
		s.data[kind] = bd

		s.logger.Info("loaded data",
			zap.String("kind", string(kind)),
			zap.Int("samples", bd.Data().NRows()),
			zap.Int("features", bd.Data().NCols()))
	}
	if len(s.data) == 0 {
		return configErrorf("no data tables: at least one of expression or splicing is required")
	}

	if _, ok := s.data[basedata.Expression]; ok {
		bundle = bundle.WithExpression(bundle.Gene())
	}
	s.meta = bundle
	s.state = Loaded

	if !o.dropOutliers {
		return nil
	}

	rule := o.outlierRule
	if rule == nil {
		if rule, err = s.outlierColumnRule(); err != nil {
			return err
		}
	}
	s.dropOutliers(rule)
	s.state = Filtered

	return nil
}

// join reconciles the rows of a data table with the sample metadata. Without
// sample metadata there is nothing to reconcile.
func (s *Study) join(kind basedata.Kind, t *table.Table, bundle *metadata.Bundle, policy JoinPolicy) (*table.Table, error) {
	samples, ok := bundle.Sample().Get()
	if !ok {
		return t, nil
	}

	var extra []string
	for _, id := range t.Rows() {
		if !samples.HasRow(id) {
			extra = append(extra, id)
		}
	}
	if len(extra) == 0 {
		return t, nil
	}

	switch policy {
	case JoinStrict:
		return nil, fmt.Errorf("%s data has samples without metadata: %w", kind, &table.MissingKeyError{Axis: table.Rows, Keys: extra})
	case JoinIntersect:
		s.logger.Info("dropping samples without metadata",
			zap.String("kind", string(kind)),
			zap.Strings("samples", extra))
		return t.DropRows(extra), nil
	default:
		s.logger.Warn("samples without metadata",
			zap.String("kind", string(kind)),
			zap.Strings("samples", extra))
		return t, nil
	}
}

func (s *Study) baseData(kind basedata.Kind, t *table.Table, bundle *metadata.Bundle) (*basedata.BaseData, error) {
	var opts []basedata.Option

	switch kind {
	case basedata.Expression:
		if genes, ok := bundle.Gene().Get(); ok {
			opts = append(opts, basedata.WithFeatureData(genes))
		}
		if s.params.ExpressionThreshold != 0 {
			opts = append(opts, basedata.WithThreshold(s.params.ExpressionThreshold))
		}
	case basedata.Splicing:
		if events, ok := bundle.Event().Get(); ok {
			opts = append(opts, basedata.WithFeatureData(events))
		}
	}
	if s.params.MinSamples > 0 {
		opts = append(opts, basedata.WithMinSamples(s.params.MinSamples))
	}

	return basedata.New(kind, t, opts...)
}

// outlierColumnRule reads outliers from the boolean sample metadata column
// named by Params.OutlierColumn.
func (s *Study) outlierColumnRule() (OutlierRule, error) {
	col := s.params.OutlierColumn
	if col == "" {
		col = DefaultOutlierColumn
	}

	samples, ok := s.meta.Sample().Get()
	if !ok || !samples.HasColumn(col) {
		return nil, configErrorf("dropping outliers needs an outlier rule or a boolean %q sample metadata column", col)
	}

	values, err := samples.StringColumn(col)
	if err != nil {
		return nil, err
	}
	flagged := make(map[string]bool)
	for i, id := range samples.Rows() {
		if !values[i].Valid {
			continue
		}
		b, ok := query.ParseBool(values[i].String)
		if !ok {
			return nil, configErrorf("sample metadata column %q is not boolean: %q", col, values[i].String)
		}
		flagged[id] = b
	}

	return func(sampleID string) bool { return flagged[sampleID] }, nil
}

func (s *Study) dropOutliers(rule OutlierRule) {
	seen := make(map[string]struct{})
	for _, id := range s.SampleIDs() {
		if _, dup := seen[id]; dup || !rule(id) {
			continue
		}
		seen[id] = struct{}{}
		s.outliers = append(s.outliers, id)
	}

	for kind, bd := range s.data {
		s.data[kind] = bd.DropSamples(s.outliers)
	}

	s.logger.Info("dropped outliers", zap.Strings("samples", s.outliers))
}

func (s *Study) ID() uuid.UUID { return s.id }

func (s *Study) State() State { return s.state }

func (s *Study) Params() config.Params { return s.params }

// Metadata returns the descriptor bundle. It is nil for a Shell study.
func (s *Study) Metadata() *metadata.Bundle { return s.meta }

// Data returns the data matrix of the given kind, if loaded.
func (s *Study) Data(kind basedata.Kind) (*basedata.BaseData, bool) {
	bd, ok := s.data[kind]
	return bd, ok
}

func (s *Study) Expression() *basedata.BaseData { return s.data[basedata.Expression] }

func (s *Study) Splicing() *basedata.BaseData { return s.data[basedata.Splicing] }

// Outliers lists the samples removed by DropOutliers.
func (s *Study) Outliers() []string {
	out := make([]string, len(s.outliers))
	copy(out, s.outliers)
	return out
}

// SampleIDs returns every sample of every data matrix: expression samples
// first, then splicing samples not already seen.
func (s *Study) SampleIDs() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, kind := range []basedata.Kind{basedata.Expression, basedata.Splicing} {
		bd, ok := s.data[kind]
		if !ok {
			continue
		}
		for _, id := range bd.SampleIDs() {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}

func (s *Study) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "study %s (%s)", s.id, s.state)
	for _, kind := range []basedata.Kind{basedata.Expression, basedata.Splicing} {
		if bd, ok := s.data[kind]; ok {
			fmt.Fprintf(&b, ", %s: %d samples x %d features", kind, bd.Data().NRows(), bd.Data().NCols())
		}
	}
	return b.String()
}
