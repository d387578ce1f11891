package scrubward

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrubward/scrubward/internal/detectors"
)

func init() {
	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List available detectors and their labels",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, id := range detectors.IDs() {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
		},
	}
	rootCmd.AddCommand(cmd)

	labels := &cobra.Command{
		Use:   "labels",
		Short: "List detection labels with their sensitivity tiers",
		Run: func(cmd *cobra.Command, _ []string) {
			for _, label := range detectors.Labels() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", label, detectors.TierOf(label))
			}
		},
	}
	cmd.AddCommand(labels)
}
