package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carbocation/flotilla/table"
)

func sampleMetadata(t *testing.T) *table.Table {
	t.Helper()
	tab, err := table.FromRecords(
		[]string{"sample_id", "phenotype", "pooled", "batch"},
		[][]string{
			{"s1", "Immature BDMC", "False", "1"},
			{"s2", "Mature BDMC", "False", "2"},
			{"s3", "Immature BDMC", "True", "1"},
			{"s4", "", "NA", "2"},
		},
		0,
	)
	require.NoError(t, err)
	return tab
}

func TestParseTree(t *testing.T) {
	for _, v := range []struct {
		expr     string
		expected string
	}{
		{"", "all"},
		{"   ", "all"},
		{"phenotype: Immature BDMC", "phenotype: Immature BDMC"},
		{"not (phenotype: Immature BDMC)", "not (phenotype: Immature BDMC)"},
		{"pooled", "pooled"},
		{"a: x or b: y and c: z", "(a: x or (b: y and c: z))"},
		{"(a: x or b: y) and not c", "((a: x or b: y) and not (c))"},
		{"NOT pooled AND batch: 1", "(not (pooled) and batch: 1)"},
		{"gene_category: LPS Response", "gene_category: LPS Response"},
		{"https://example.org:8080/lists/lps.txt", "https://example.org:8080/lists/lps.txt"},
		{"not gs://bucket/a:b.txt and pooled", "(not (gs://bucket/a:b.txt) and pooled)"},
		{"(http://127.0.0.1:9000/genes.txt)", "http://127.0.0.1:9000/genes.txt"},
		{"source: gs://bucket/x.txt", "source: gs://bucket/x.txt"},
	} {
		n, err := Parse(v.expr)
		require.NoError(t, err, v.expr)
		assert.Equal(t, v.expected, n.String(), v.expr)
	}
}

func TestParseErrors(t *testing.T) {
	for _, expr := range []string{
		"phenotype:",
		"(pooled",
		"pooled)",
		"and pooled",
		"not",
		"pooled or",
		"a: x b: y",
	} {
		_, err := Parse(expr)
		var se *SyntaxError
		assert.True(t, errors.As(err, &se), "%q should be a syntax error, got %v", expr, err)
	}
}

func TestSelectSamples(t *testing.T) {
	env := Env{
		Universe: []string{"s1", "s2", "s3", "s4", "s5"},
		Metadata: sampleMetadata(t),
	}

	for _, v := range []struct {
		expr     string
		expected []string
	}{
		{"", []string{"s1", "s2", "s3", "s4", "s5"}},
		{"phenotype: Immature BDMC", []string{"s1", "s3"}},
		{"not (phenotype: Immature BDMC)", []string{"s2", "s4", "s5"}},
		{"pooled", []string{"s3"}},
		{"not pooled", []string{"s1", "s2", "s4", "s5"}},
		{"batch: 2", []string{"s2", "s4"}},
		{"phenotype: Immature BDMC and not pooled", []string{"s1"}},
		{"phenotype: Mature BDMC or pooled", []string{"s2", "s3"}},
	} {
		got, err := Select(v.expr, env)
		require.NoError(t, err, v.expr)
		assert.Equal(t, v.expected, got, v.expr)
	}
}

func TestSelectLists(t *testing.T) {
	genes, err := table.FromRecords(
		[]string{"gene", "gene_category"},
		[][]string{{"IL6", "LPS Response"}, {"ACTB", "housekeeping"}, {"TNF", "LPS Response"}},
		0,
	)
	require.NoError(t, err)

	env := Env{
		Universe: []string{"ACTB", "IL6", "TNF", "GAPDH"},
		Metadata: genes,
		Lists:    StaticLists{"inflammation": {"TNF", "IL6", "CXCL10"}},
	}

	got, err := Select("inflammation", env)
	require.NoError(t, err)
	assert.Equal(t, []string{"IL6", "TNF"}, got, "lists are intersected with the universe, in universe order")

	got, err = Select("gene_category: LPS Response and not inflammation", env)
	require.NoError(t, err)
	assert.Empty(t, got)

	// A categorical column that isn't boolean is not a bare-name match.
	_, err = Select("gene_category", env)
	var un *UnknownNameError
	require.True(t, errors.As(err, &un))
	assert.Equal(t, "gene_category", un.Name)
}

func TestSelectUnknown(t *testing.T) {
	env := Env{Universe: []string{"s1"}, Metadata: sampleMetadata(t)}

	_, err := Select("tissue: liver", env)
	var un *UnknownNameError
	require.True(t, errors.As(err, &un))
	assert.Equal(t, "tissue", un.Name)

	_, err = Select("batch: one", env)
	assert.Error(t, err)

	_, err = Select("pooled", Env{Universe: []string{"s1"}})
	assert.True(t, errors.As(err, &un))
}

type failingLists struct{ err error }

func (f failingLists) Lookup(context.Context, string) ([]string, bool, error) { return nil, true, f.err }

// ctxLists reports the context error it was handed, if any.
type ctxLists struct{}

func (ctxLists) Lookup(ctx context.Context, name string) ([]string, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, true, err
	}
	return []string{"g1"}, true, nil
}

func TestSelectListError(t *testing.T) {
	cause := errors.New("unreachable")
	_, err := Select("remote", Env{Universe: []string{"g1"}, Lists: failingLists{cause}})
	assert.ErrorIs(t, err, cause)
}

func TestSelectListByURL(t *testing.T) {
	url := "http://127.0.0.1:8080/genes.txt"
	env := Env{
		Universe: []string{"g1", "g2"},
		Lists:    StaticLists{url: {"g2"}},
	}

	got, err := Select(url, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"g2"}, got)

	got, err = Select("not "+url, env)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, got)
}

func TestSelectListContext(t *testing.T) {
	env := Env{Universe: []string{"g1"}, Lists: ctxLists{}}

	got, err := Select("anything", env)
	require.NoError(t, err)
	assert.Equal(t, []string{"g1"}, got)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	env.Context = ctx
	_, err = Select("anything", env)
	assert.ErrorIs(t, err, context.Canceled)
}
