// Package config reads the parameters of a study: where its tables live and
// how to treat them.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/carbocation/flotilla"
)

// EnvPrefix prefixes environment variables that override file values, e.g.
// FLOTILLA_EXPRESSION_DATA_DUMP.
const EnvPrefix = "FLOTILLA"

// Join policies for data rows that have no sample metadata.
const (
	JoinTolerate  = "tolerate"
	JoinStrict    = "strict"
	JoinIntersect = "intersect"
)

type Params struct {
	ConfigPath string `mapstructure:"-"`

	SampleDescriptorsDataDump string `mapstructure:"sample_descriptors_data_dump"`
	GeneDescriptorsDataDump   string `mapstructure:"gene_descriptors_data_dump"`
	EventDescriptorsDataDump  string `mapstructure:"event_descriptors_data_dump"`
	SplicingDataDump          string `mapstructure:"splicing_data_dump"`
	ExpressionDataDump        string `mapstructure:"expression_data_dump"`

	// Applied to every table; empty means per-file detection.
	Delimiter   string `mapstructure:"delimiter"`
	IndexColumn string `mapstructure:"index_column"`
	Layout      string `mapstructure:"layout"`

	OutlierColumn       string            `mapstructure:"outlier_column"`
	MinSamples          int               `mapstructure:"min_samples"`
	ExpressionThreshold float64           `mapstructure:"expression_threshold"`
	Join                string            `mapstructure:"join"`
	GeneLists           map[string]string `mapstructure:"gene_lists"`

	GCSProject      string `mapstructure:"gcs_project"`
	BigQueryProject string `mapstructure:"bigquery_project"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("outlier_column", "outlier")
	v.SetDefault("join", JoinTolerate)
	v.SetDefault("min_samples", 0)
	v.SetDefault("expression_threshold", 0)

	// Registered so that AutomaticEnv can override keys absent from the file.
	for _, key := range []string{
		"sample_descriptors_data_dump",
		"gene_descriptors_data_dump",
		"event_descriptors_data_dump",
		"splicing_data_dump",
		"expression_data_dump",
		"delimiter",
		"index_column",
		"layout",
		"gcs_project",
		"bigquery_project",
	} {
		v.SetDefault(key, "")
	}
}

// Load reads params from a YAML, JSON or TOML file (by extension) and the
// environment. An empty path reads the environment only.
func Load(path string) (Params, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(flotilla.ExpandHome(path))
		if err := v.ReadInConfig(); err != nil {
			return Params{}, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var out Params
	if err := v.Unmarshal(&out); err != nil {
		return Params{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	out.ConfigPath = path

	// Interpret ~ if present
	for _, loc := range []*string{
		&out.SampleDescriptorsDataDump,
		&out.GeneDescriptorsDataDump,
		&out.EventDescriptorsDataDump,
		&out.SplicingDataDump,
		&out.ExpressionDataDump,
	} {
		*loc = flotilla.ExpandHome(*loc)
	}
	for name, loc := range out.GeneLists {
		out.GeneLists[name] = flotilla.ExpandHome(loc)
	}

	if err := out.Validate(); err != nil {
		return Params{}, err
	}

	return out, nil
}

// Validate checks values that Load cannot check by type alone.
func (p Params) Validate() error {
	switch p.Join {
	case "", JoinTolerate, JoinStrict, JoinIntersect:
	default:
		return fmt.Errorf("join must be one of %s, %s, %s; got %q", JoinTolerate, JoinStrict, JoinIntersect, p.Join)
	}

	switch p.Delimiter {
	case `\t`, "tab":
	default:
		if len([]rune(p.Delimiter)) > 1 {
			return fmt.Errorf("delimiter must be a single character, tab or \\t, got %q", p.Delimiter)
		}
	}

	if p.Layout != "" {
		if _, ok := flotilla.Layouts[p.Layout]; !ok {
			return fmt.Errorf("layout %s is not found. Valid layout names include: %s", p.Layout, flotilla.LayoutNames())
		}
	}

	if p.MinSamples < 0 {
		return fmt.Errorf("min_samples must not be negative, got %d", p.MinSamples)
	}

	return nil
}

// Spec turns one of the *_data_dump locations into a load spec carrying the
// table-wide read options. An empty location yields nil: nothing to load.
func (p Params) Spec(location string) *flotilla.LoadSpec {
	if strings.TrimSpace(location) == "" {
		return nil
	}

	spec := &flotilla.LoadSpec{
		Location:    location,
		Layout:      p.Layout,
		IndexColumn: p.IndexColumn,
	}
	switch p.Delimiter {
	case "":
	case `\t`, "tab":
		spec.Delimiter = '\t'
	default:
		spec.Delimiter = []rune(p.Delimiter)[0]
	}

	return spec
}
