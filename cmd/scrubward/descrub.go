package scrubward

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scrubward/scrubward/internal/types"
)

var (
	flagClearance     string
	flagJustification string
	flagIdentifiers   string
	flagFull          bool
	flagRestoreOut    string
)

func init() {
	cmd := &cobra.Command{
		Use:   "descrub <operation-id>",
		Short: "Restore original values from a scrub receipt",
		Long:  "Descrub reverses a prior scrub operation for an actor whose clearance covers every selected entity. Every attempt, granted or denied, lands in the audit chain.",
		Args:  cobra.ExactArgs(1),
		RunE:  runDeScrub,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVar(&flagActor, "actor", "", "acting identity recorded in the audit chain")
	cmd.Flags().StringVar(&flagClearance, "clearance", "", "actor clearance tier (C1-C4)")
	cmd.Flags().StringVar(&flagJustification, "justification", "", "reason for restoration, recorded verbatim")
	cmd.Flags().StringVar(&flagIdentifiers, "ids", "", "comma-separated entity identifiers to restore")
	cmd.Flags().BoolVar(&flagFull, "full", false, "restore every entity in the receipt")
	cmd.Flags().StringVarP(&flagRestoreOut, "out", "o", "", "write restored content to this file instead of stdout")
}

func runDeScrub(cmd *cobra.Command, args []string) error {
	clearance, err := types.ParseTier(flagClearance)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sel := types.Selection{Full: flagFull}
	if flagIdentifiers != "" {
		for _, id := range strings.Split(flagIdentifiers, ",") {
			if id = strings.TrimSpace(id); id != "" {
				sel.Identifiers = append(sel.Identifiers, id)
			}
		}
	}

	res, err := a.reverse.DeScrub(cmd.Context(), types.DeScrubRequest{
		OperationID:   args[0],
		Actor:         flagActor,
		Clearance:     clearance,
		Justification: flagJustification,
		Selection:     sel,
	})
	if err != nil {
		return err
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	if res.Outcome == types.OutcomeDenied {
		fmt.Fprintf(cmd.ErrOrStderr(), "denied: clearance %s is below required tier %s\n", clearance, res.RequiredTier)
		return errReported
	}
	if flagRestoreOut != "" {
		return os.WriteFile(flagRestoreOut, []byte(res.Content), 0o600)
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Content)
	fmt.Fprintf(cmd.ErrOrStderr(), "Restored %d entities\n", len(res.Restored))
	return nil
}
