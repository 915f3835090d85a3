// flotilla loads a study described by a params file and answers questions
// about it from the command line.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carbocation/flotilla"
	"github.com/carbocation/flotilla/config"
	"github.com/carbocation/flotilla/study"
)

type app struct {
	configPath   string
	verbose      bool
	dropOutliers bool

	logger *zap.Logger
	params config.Params
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "flotilla",
		Short: "Explore expression and splicing studies",
		Long: `flotilla loads the sample, gene and event descriptors and the expression and
splicing matrices named in a params file, then summarizes, subsets or
classifies them.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML, JSON or TOML params file. FLOTILLA_* environment variables override it.")
	root.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Log at debug level in a human-readable format.")
	root.PersistentFlags().BoolVar(&a.dropOutliers, "drop-outliers", false, "Remove samples flagged in the outlier column of the sample metadata.")

	root.AddCommand(
		newSummaryCommand(a),
		newSubsetCommand(a),
		newModalityCommand(a),
		newVersionCommand(),
	)

	return root
}

func (a *app) setup() error {
	var err error
	if a.verbose {
		a.logger, err = zap.NewDevelopment()
	} else {
		a.logger, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}

	a.params, err = config.Load(a.configPath)
	return err
}

// embark loads the study. Cloud clients are only created when a location
// needs one.
func (a *app) embark(ctx context.Context) (*study.Study, error) {
	loader, err := a.loader(ctx)
	if err != nil {
		return nil, err
	}

	return study.FromParams(ctx, a.params, loader,
		study.DropOutliers(a.dropOutliers),
		study.WithLogger(a.logger))
}

func (a *app) loader(ctx context.Context) (*flotilla.Loader, error) {
	opts := []flotilla.LoaderOption{flotilla.WithLogger(a.logger)}

	var gs, bq bool
	for _, loc := range a.locations() {
		gs = gs || strings.HasPrefix(loc, "gs://")
		bq = bq || strings.HasPrefix(loc, "bq://")
	}

	if gs {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("creating storage client: %w", err)
		}
		opts = append(opts, flotilla.WithStorage(client))
	}

	if bq {
		project := a.params.BigQueryProject
		if project == "" {
			project = a.params.GCSProject
		}
		if project == "" {
			return nil, fmt.Errorf("bq:// locations need bigquery_project or gcs_project to be set")
		}
		client, err := bigquery.NewClient(ctx, project)
		if err != nil {
			return nil, fmt.Errorf("creating bigquery client: %w", err)
		}
		opts = append(opts, flotilla.WithBigQuery(client))
	}

	return flotilla.NewLoader(opts...), nil
}

func (a *app) locations() []string {
	p := a.params
	out := []string{
		p.SampleDescriptorsDataDump,
		p.GeneDescriptorsDataDump,
		p.EventDescriptorsDataDump,
		p.ExpressionDataDump,
		p.SplicingDataDump,
	}
	for _, loc := range p.GeneLists {
		out = append(out, loc)
	}
	return out
}
