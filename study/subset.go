package study

import (
	"context"
	"fmt"

	"github.com/carbocation/flotilla/basedata"
	"github.com/carbocation/flotilla/modality"
	"github.com/carbocation/flotilla/query"
	"github.com/carbocation/flotilla/table"
)

func (s *Study) requireCargo() error {
	if s.state == Shell || s.state == Uninitialized {
		return configErrorf("study %s was embarked without cargo", s.id)
	}
	return nil
}

func (s *Study) baseDataOf(dataName string) (*basedata.BaseData, error) {
	if err := s.requireCargo(); err != nil {
		return nil, err
	}
	bd, ok := s.data[basedata.Kind(dataName)]
	if !ok {
		return nil, configErrorf("no %s data in this study", dataName)
	}
	return bd, nil
}

// SampleSubset returns the samples matching expr, evaluated against the
// sample metadata, in data order. An empty expr matches every sample.
func (s *Study) SampleSubset(ctx context.Context, expr string) ([]string, error) {
	if err := s.requireCargo(); err != nil {
		return nil, err
	}
	samples, _ := s.meta.Sample().Get()
	return query.Select(expr, query.Env{
		Context:  ctx,
		Universe: s.SampleIDs(),
		Metadata: samples,
		Lists:    s.lists,
	})
}

// FeatureSubset returns the features of the named data matrix matching expr,
// evaluated against that matrix's feature metadata and the named lists. ctx
// bounds the fetch of any list named by its location.
func (s *Study) FeatureSubset(ctx context.Context, dataName, expr string) ([]string, error) {
	bd, err := s.baseDataOf(dataName)
	if err != nil {
		return nil, err
	}
	features, _ := bd.FeatureData()
	return query.Select(expr, query.Env{
		Context:  ctx,
		Universe: bd.FeatureIDs(),
		Metadata: features,
		Lists:    s.lists,
	})
}

// samplesOf evaluates expr against the sample metadata, keeping only samples
// held by bd.
func (s *Study) samplesOf(ctx context.Context, bd *basedata.BaseData, expr string) ([]string, error) {
	samples, _ := s.meta.Sample().Get()
	return query.Select(expr, query.Env{
		Context:  ctx,
		Universe: bd.SampleIDs(),
		Metadata: samples,
		Lists:    s.lists,
	})
}

// Subset returns the named data matrix restricted to the samples matching
// sampleExpr and the features matching featureExpr. With standardize, each
// feature of the result is centered and scaled.
func (s *Study) Subset(ctx context.Context, dataName, sampleExpr, featureExpr string, standardize bool) (*table.Table, error) {
	bd, err := s.baseDataOf(dataName)
	if err != nil {
		return nil, err
	}

	samples, err := s.samplesOf(ctx, bd, sampleExpr)
	if err != nil {
		return nil, fmt.Errorf("samples: %w", err)
	}
	features, err := s.FeatureSubset(ctx, dataName, featureExpr)
	if err != nil {
		return nil, fmt.Errorf("features: %w", err)
	}

	if standardize {
		return bd.SubsetStandardized(samples, features, table.Columns)
	}
	return bd.Subset(samples, features)
}

// Modalities classifies the splicing events over the samples matching
// sampleExpr. With a groupBy sample metadata column, each distinct value of
// that column is classified separately, in order of first appearance;
// samples with no value are left out. Otherwise every sample forms one group
// named "all".
func (s *Study) Modalities(ctx context.Context, sampleExpr, groupBy string) ([]modality.Assignment, error) {
	bd, err := s.baseDataOf(string(basedata.Splicing))
	if err != nil {
		return nil, err
	}

	samples, err := s.samplesOf(ctx, bd, sampleExpr)
	if err != nil {
		return nil, err
	}

	groups := []modality.Group{{Name: "all", Samples: samples}}
	if groupBy != "" {
		if groups, err = s.groupSamples(samples, groupBy); err != nil {
			return nil, err
		}
	}

	return modality.New(modality.DefaultMinSamples).AssignGroups(bd.Data(), groups)
}

func (s *Study) groupSamples(samples []string, col string) ([]modality.Group, error) {
	meta, ok := s.meta.Sample().Get()
	if !ok {
		return nil, configErrorf("grouping by %q needs sample metadata", col)
	}
	if !meta.HasColumn(col) {
		return nil, &query.UnknownNameError{Name: col}
	}

	var groups []modality.Group
	pos := make(map[string]int)
	for _, id := range samples {
		if !meta.HasRow(id) {
			continue
		}
		v, err := meta.Value(id, col)
		if err != nil {
			return nil, err
		}
		if !v.Valid {
			continue
		}
		i, ok := pos[v.String]
		if !ok {
			i = len(groups)
			pos[v.String] = i
			groups = append(groups, modality.Group{Name: v.String})
		}
		groups[i].Samples = append(groups[i].Samples, id)
	}

	return groups, nil
}
