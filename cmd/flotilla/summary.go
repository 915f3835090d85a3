package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/carbocation/flotilla/basedata"
	"github.com/carbocation/flotilla/metadata"
	"github.com/carbocation/flotilla/study"
)

var heading = color.New(color.FgCyan, color.Bold)

func newSummaryCommand(a *app) *cobra.Command {
	var features string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Describe the loaded tables",
		Long: `Print which descriptors and data matrices were loaded and, for each data
matrix, the distribution of every feature matching --features.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.embark(cmd.Context())
			if err != nil {
				return err
			}
			return writeSummary(cmd.Context(), cmd.OutOrStdout(), st, features)
		},
	}

	cmd.Flags().StringVar(&features, "features", "", "Subset expression selecting the features to describe. Empty selects all.")

	return cmd
}

func writeSummary(ctx context.Context, w io.Writer, st *study.Study, features string) error {
	heading.Fprintln(w, st)

	heading.Fprintln(w, "descriptors")
	for _, kind := range metadata.Kinds() {
		slot := st.Metadata().Slot(kind)
		if t, ok := slot.Get(); ok {
			fmt.Fprintf(w, "  %s: %d rows x %d columns\n", kind, t.NRows(), t.NCols())
			continue
		}
		fmt.Fprintf(w, "  %s: absent\n", kind)
	}

	if outliers := st.Outliers(); len(outliers) > 0 {
		fmt.Fprintf(w, "dropped outliers: %v\n", outliers)
	}

	for _, kind := range []basedata.Kind{basedata.Expression, basedata.Splicing} {
		bd, ok := st.Data(kind)
		if !ok {
			continue
		}

		ids, err := st.FeatureSubset(ctx, string(kind), features)
		if err != nil {
			return err
		}
		sub, err := bd.Data().Subset(nil, ids)
		if err != nil {
			return err
		}

		heading.Fprintln(w, kind)
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "feature\tn\tmissing\tmean\tmedian\tsd\tmin\tmax")
		for _, s := range sub.Summarize() {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
				s.Column, s.N, s.Missing, s.Mean, s.Median, s.SD, s.Min, s.Max)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	return nil
}
