package main

import (
	"github.com/spf13/cobra"

	"github.com/carbocation/flotilla/basedata"
)

func newSubsetCommand(a *app) *cobra.Command {
	var (
		data        string
		samples     string
		features    string
		standardize bool
	)

	cmd := &cobra.Command{
		Use:   "subset",
		Short: "Write a subset of a data matrix as TSV",
		Long: `Write the samples matching --samples and the features matching --features of
one data matrix to stdout, tab-delimited, one row per sample.

Expressions combine metadata predicates and named lists:

  phenotype: Immature BDMC
  not (phenotype: Immature BDMC) and not pooled
  gene_category: LPS Response or inflammation`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.embark(cmd.Context())
			if err != nil {
				return err
			}

			t, err := st.Subset(cmd.Context(), data, samples, features, standardize)
			if err != nil {
				return err
			}

			return t.WriteTSV(cmd.OutOrStdout(), "sample_id")
		},
	}

	cmd.Flags().StringVar(&data, "data", string(basedata.Expression), "Data matrix to subset: expression or splicing.")
	cmd.Flags().StringVar(&samples, "samples", "", "Subset expression over the sample metadata. Empty selects all.")
	cmd.Flags().StringVar(&features, "features", "", "Subset expression over the feature metadata and named lists. Empty selects all.")
	cmd.Flags().BoolVar(&standardize, "standardize", false, "Center and scale each feature of the result.")

	return cmd
}
