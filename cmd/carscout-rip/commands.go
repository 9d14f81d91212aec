package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/use-agent/carscout/export"
)

func newCountCommand(pf *pageFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print how many listings the page carries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), pf)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.harvester.Count(s.page))
			return nil
		},
	}
}

func newHarvestCommand(pf *pageFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Extract every listing and submit the batch to the sink",
		Long: `Extract every listing and submit the batch to the sink configured by
CARSCOUT_SINK_URL. The outcome is printed as JSON; a failed harvest exits
non-zero.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), pf)
			if err != nil {
				return err
			}

			result := s.harvester.HarvestAndSubmit(cmd.Context(), s.page)
			enc := json.NewEncoder(cmd.OutOrStdout())
			if err := enc.Encode(result); err != nil {
				return err
			}
			if !result.Success {
				return errors.New(result.Error)
			}
			return nil
		},
	}
}

func newExportCommand(pf *pageFlags) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the page's listings to CSV without submitting them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := openSession(cmd.Context(), pf)
			if err != nil {
				return err
			}

			records := s.harvester.Extract(s.page)
			if out == "-" {
				return export.WriteCSV(cmd.OutOrStdout(), records)
			}
			if err := export.WriteFile(out, records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d listings to %s\n", len(records), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "listings.csv", `CSV output path, "-" for stdout`)
	return cmd
}
