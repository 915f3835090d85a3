package main

import (
	"github.com/spf13/cobra"

	"github.com/carbocation/flotilla/modality"
)

func newModalityCommand(a *app) *cobra.Command {
	var samples, groupBy string

	cmd := &cobra.Command{
		Use:   "modality",
		Short: "Classify splicing events by the shape of their PSI distribution",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.embark(cmd.Context())
			if err != nil {
				return err
			}

			assignments, err := st.Modalities(cmd.Context(), samples, groupBy)
			if err != nil {
				return err
			}

			return modality.WriteTSV(cmd.OutOrStdout(), assignments)
		},
	}

	cmd.Flags().StringVar(&samples, "samples", "", "Subset expression over the sample metadata. Empty selects all.")
	cmd.Flags().StringVar(&groupBy, "group-by", "", "Sample metadata column; each of its values is classified separately.")

	return cmd
}
