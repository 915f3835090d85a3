package study

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/carbocation/flotilla"
	"github.com/carbocation/flotilla/basedata"
	"github.com/carbocation/flotilla/config"
	"github.com/carbocation/flotilla/metadata"
	"github.com/carbocation/flotilla/modality"
	"github.com/carbocation/flotilla/query"
	"github.com/carbocation/flotilla/table"
)

// fakeLoader serves tables by location and counts calls.
type fakeLoader struct {
	tables map[string]*table.Table
	calls  int
}

func (f *fakeLoader) Load(ctx context.Context, spec flotilla.LoadSpec) (*table.Table, error) {
	f.calls++
	t, ok := f.tables[spec.Location]
	if !ok {
		return nil, &flotilla.LoadError{Location: spec.Location, Err: os.ErrNotExist}
	}
	return t, nil
}

func records(t *testing.T, header []string, rows ...[]string) *table.Table {
	t.Helper()
	tab, err := table.FromRecords(header, rows, 0)
	require.NoError(t, err)
	return tab
}

func expressionTable(t *testing.T, samples ...string) *table.Table {
	t.Helper()
	values := make([][]float64, len(samples))
	for i := range samples {
		values[i] = []float64{float64(i + 1), float64(10 * (i + 1))}
	}
	tab, err := table.NewNumeric(samples, []string{"g1", "g2"}, values)
	require.NoError(t, err)
	return tab
}

func sampleTable(t *testing.T) *table.Table {
	return records(t, []string{"sample_id", "phenotype", "outlier"},
		[]string{"s1", "A", "False"},
		[]string{"s2", "A", "True"},
		[]string{"s3", "B", "False"},
	)
}

func geneTable(t *testing.T) *table.Table {
	return records(t, []string{"gene", "gene_category"},
		[]string{"g1", "LPS Response"},
		[]string{"g2", "housekeeping"},
	)
}

func fixture(t *testing.T) *fakeLoader {
	return &fakeLoader{tables: map[string]*table.Table{
		"samples.tsv":    sampleTable(t),
		"genes.tsv":      geneTable(t),
		"expression.tsv": expressionTable(t, "s1", "s2", "s3"),
	}}
}

func embark(t *testing.T, loader *fakeLoader, opts ...Option) (*Study, error) {
	t.Helper()
	return Embark(context.Background(),
		MetadataSpec{Sample: flotilla.Spec("samples.tsv"), Gene: flotilla.Spec("genes.tsv")},
		MetadataFrom(metadata.New(loader, nil)),
		DataSpec{Expression: flotilla.Spec("expression.tsv")},
		DataFrom(loader),
		config.Params{OutlierColumn: DefaultOutlierColumn},
		opts...)
}

func TestEmbarkShell(t *testing.T) {
	ctx := context.Background()
	called := false
	st, err := Embark(context.Background(),
		MetadataSpec{Sample: flotilla.Spec("samples.tsv")},
		func(context.Context, MetadataSpec) (*metadata.Bundle, error) {
			called = true
			return nil, nil
		},
		DataSpec{Expression: flotilla.Spec("expression.tsv")},
		func(context.Context, DataSpec) (Tables, error) {
			called = true
			return nil, nil
		},
		config.Params{},
		LoadCargo(false))
	require.NoError(t, err)

	assert.False(t, called, "a shell study must not load anything")
	assert.Equal(t, Shell, st.State())
	assert.Nil(t, st.Metadata())
	assert.Nil(t, st.Expression())
	assert.Nil(t, st.Splicing())
	assert.NotEqual(t, [16]byte{}, [16]byte(st.ID()))

	var ce *ConfigurationError
	_, err = st.SampleSubset(ctx, "")
	assert.True(t, errors.As(err, &ce))
	_, err = st.Subset(ctx, "expression", "", "", false)
	assert.True(t, errors.As(err, &ce))
}

func TestEmbarkEndToEnd(t *testing.T) {
	ctx := context.Background()
	loader := fixture(t)
	st, err := embark(t, loader)
	require.NoError(t, err)
	assert.Equal(t, Loaded, st.State())
	assert.Equal(t, 3, loader.calls)

	got, err := st.Expression().Subset([]string{"s1", "s2"}, nil)
	require.NoError(t, err)
	want, err := table.NewNumeric([]string{"s1", "s2"}, []string{"g1", "g2"}, [][]float64{{1, 10}, {2, 20}})
	require.NoError(t, err)
	assert.True(t, table.Equal(want, got))

	// The same slice through the query surface.
	got, err = st.Subset(ctx, "expression", "phenotype: A", "", false)
	require.NoError(t, err)
	assert.True(t, table.Equal(want, got))

	// Gene descriptors serve as the expression slot and feature metadata.
	expr, ok := st.Metadata().Expression().Get()
	require.True(t, ok)
	assert.Equal(t, []string{"g1", "g2"}, expr.Rows())
	assert.False(t, st.Metadata().Event().IsPresent())

	features, err := st.FeatureSubset(ctx, "expression", "gene_category: LPS Response")
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, features)

	samples, err := st.SampleSubset(ctx, "not (phenotype: A)")
	require.NoError(t, err)
	assert.Equal(t, []string{"s3"}, samples)

	_, err = st.Subset(ctx, "expression", "tissue: liver", "", false)
	var un *query.UnknownNameError
	assert.True(t, errors.As(err, &un))

	var ce *ConfigurationError
	_, err = st.FeatureSubset(ctx, "splicing", "")
	assert.True(t, errors.As(err, &ce))
}

func TestSubsetStandardized(t *testing.T) {
	ctx := context.Background()
	st, err := embark(t, fixture(t))
	require.NoError(t, err)

	got, err := st.Subset(ctx, "expression", "", "", true)
	require.NoError(t, err)
	v, err := got.NumericColumn("g1")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{-1.224744871, 0, 1.224744871}, v, 1e-6)
}

func TestEmbarkFailures(t *testing.T) {
	var ce *ConfigurationError

	loader := fixture(t)
	_, err := Embark(context.Background(),
		MetadataSpec{Sample: flotilla.Spec("missing.tsv")}, MetadataFrom(metadata.New(loader, nil)),
		DataSpec{Expression: flotilla.Spec("expression.tsv")}, DataFrom(loader),
		config.Params{})
	var le *flotilla.LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "missing.tsv", le.Location)
	assert.Equal(t, 1, loader.calls, "data is not loaded once metadata fails")

	_, err = Embark(context.Background(),
		MetadataSpec{}, MetadataFrom(metadata.New(loader, nil)),
		DataSpec{Expression: flotilla.Spec("missing.tsv")}, DataFrom(loader),
		config.Params{})
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = Embark(context.Background(),
		MetadataSpec{Sample: flotilla.Spec("samples.tsv")}, MetadataFrom(metadata.New(loader, nil)),
		DataSpec{}, DataFrom(loader),
		config.Params{})
	assert.True(t, errors.As(err, &ce), "no data tables: %v", err)

	_, err = Embark(context.Background(), MetadataSpec{}, nil, DataSpec{}, nil, config.Params{})
	assert.True(t, errors.As(err, &ce))

	_, err = Embark(context.Background(),
		MetadataSpec{}, MetadataFrom(metadata.New(loader, nil)),
		DataSpec{Expression: flotilla.Spec("expression.tsv")}, DataFrom(loader),
		config.Params{Join: "sometimes"})
	assert.True(t, errors.As(err, &ce))
}

func TestJoinPolicy(t *testing.T) {
	loader := fixture(t)
	loader.tables["expression.tsv"] = expressionTable(t, "s1", "s2", "s3", "s4")

	st, err := embark(t, loader)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3", "s4"}, st.Expression().SampleIDs())

	st, err = embark(t, loader, WithJoinPolicy(JoinIntersect))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, st.Expression().SampleIDs())

	_, err = embark(t, loader, WithJoinPolicy(JoinStrict))
	var mk *table.MissingKeyError
	require.True(t, errors.As(err, &mk))
	assert.Equal(t, []string{"s4"}, mk.Keys)

	for _, v := range []struct {
		in       string
		expected JoinPolicy
	}{
		{"", JoinTolerate},
		{"tolerate", JoinTolerate},
		{"Strict", JoinStrict},
		{"intersect", JoinIntersect},
	} {
		p, err := ParseJoinPolicy(v.in)
		require.NoError(t, err)
		assert.Equal(t, v.expected, p, v.in)
	}
}

func TestDropOutliers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)

	st, err := embark(t, fixture(t), DropOutliers(true), WithLogger(zap.New(core)))
	require.NoError(t, err)
	assert.Equal(t, Filtered, st.State())
	assert.Equal(t, []string{"s2"}, st.Outliers())
	assert.Equal(t, []string{"s1", "s3"}, st.Expression().SampleIDs())
	assert.Equal(t, 1, logs.FilterMessage("dropped outliers").Len())

	st, err = embark(t, fixture(t), DropOutliers(true), WithOutlierRule(func(id string) bool { return id == "s3" }))
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, st.Expression().SampleIDs())

	loader := fixture(t)
	_, err = Embark(context.Background(),
		MetadataSpec{}, MetadataFrom(metadata.New(loader, nil)),
		DataSpec{Expression: flotilla.Spec("expression.tsv")}, DataFrom(loader),
		config.Params{}, DropOutliers(true))
	var ce *ConfigurationError
	assert.True(t, errors.As(err, &ce), "no rule and no outlier column: %v", err)
}

func TestModalities(t *testing.T) {
	ctx := context.Background()
	included := []float64{0.6, 0.7, 0.75, 0.8, 0.85, 0.9, 0.9, 0.95, 0.8, 0.7}

	samples := make([]string, 20)
	psi := make([][]float64, 20)
	rows := make([][]string, 20)
	for i := range samples {
		samples[i] = fmt.Sprintf("s%02d", i+1)
		group := "early"
		v := included[i%10]
		if i >= 10 {
			group = "late"
			v = 1 - v
		}
		psi[i] = []float64{v}
		rows[i] = []string{samples[i], group}
	}
	splicing, err := table.NewNumeric(samples, []string{"event1"}, psi)
	require.NoError(t, err)

	loader := &fakeLoader{tables: map[string]*table.Table{
		"samples.tsv":  records(t, []string{"sample_id", "stage"}, rows...),
		"splicing.tsv": splicing,
	}}
	st, err := Embark(context.Background(),
		MetadataSpec{Sample: flotilla.Spec("samples.tsv")}, MetadataFrom(metadata.New(loader, nil)),
		DataSpec{Splicing: flotilla.Spec("splicing.tsv")}, DataFrom(loader),
		config.Params{})
	require.NoError(t, err)

	got, err := st.Modalities(ctx, "", "stage")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "early", got[0].Group)
	assert.Equal(t, modality.Included, got[0].Modality)
	assert.Equal(t, "late", got[1].Group)
	assert.Equal(t, modality.Excluded, got[1].Modality)

	got, err = st.Modalities(ctx, "stage: early", "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, modality.Assignment{Event: "event1", Group: "all", Modality: modality.Included, N: 10, LogLikelihood: got[0].LogLikelihood}, got[0])

	_, err = st.Modalities(ctx, "", "tissue")
	var un *query.UnknownNameError
	assert.True(t, errors.As(err, &un))

	_, ok := st.Data(basedata.Expression)
	assert.False(t, ok)
}

func TestFromParams(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	write := func(name, contents string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
		return path
	}

	params := config.Params{
		SampleDescriptorsDataDump: write("samples.tsv", "sample_id\tphenotype\ns1\tA\ns2\tA\ns3\tB\n"),
		ExpressionDataDump:        write("expression.tsv", "sample_id\tg1\tg2\ns1\t1\t10\ns2\t2\t20\ns3\t3\t30\n"),
		GeneLists:                 map[string]string{"favorites": write("favorites.txt", "g2\n")},
	}

	st, err := FromParams(context.Background(), params, nil)
	require.NoError(t, err)
	assert.Equal(t, Loaded, st.State())
	assert.False(t, st.Metadata().Gene().IsPresent())

	got, err := st.Subset(ctx, "expression", "phenotype: A", "favorites", false)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, got.Rows())
	assert.Equal(t, []string{"g2"}, got.Columns())

	st, err = FromParams(context.Background(), params, nil, LoadCargo(false))
	require.NoError(t, err)
	assert.Equal(t, Shell, st.State())
}

func TestSubsetListURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "# favorites\ng2\n")
	}))
	defer srv.Close()
	url := srv.URL + "/lists/favorites.txt"

	st, err := embark(t, fixture(t), WithLists(flotilla.NewListLoader(nil, nil)))
	require.NoError(t, err)

	canceled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = st.FeatureSubset(canceled, "expression", url)
	assert.ErrorIs(t, err, context.Canceled)

	ctx := context.Background()
	features, err := st.FeatureSubset(ctx, "expression", url)
	require.NoError(t, err)
	assert.Equal(t, []string{"g2"}, features)

	got, err := st.Subset(ctx, "expression", "phenotype: A", "not "+url, false)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2"}, got.Rows())
	assert.Equal(t, []string{"g1"}, got.Columns())
}
