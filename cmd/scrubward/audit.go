package scrubward

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/scrubward/scrubward/internal/ledger"
	"github.com/scrubward/scrubward/internal/report"
)

var flagTailN int

func init() {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the tamper-evident audit chain",
	}
	rootCmd.AddCommand(auditCmd)

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Replay the hash chain and report the first break, if any",
		RunE:  runAuditVerify,
	}
	auditCmd.AddCommand(verifyCmd)

	tailCmd := &cobra.Command{
		Use:   "tail",
		Short: "Show recent audit entries, newest first",
		RunE:  runAuditTail,
	}
	tailCmd.Flags().IntVarP(&flagTailN, "count", "n", 20, "number of entries to show")
	auditCmd.AddCommand(tailCmd)

	opCmd := &cobra.Command{
		Use:   "op <operation-id>",
		Short: "Show all audit entries for one operation",
		Args:  cobra.ExactArgs(1),
		RunE:  runAuditOp,
	}
	auditCmd.AddCommand(opCmd)
}

func runAuditVerify(cmd *cobra.Command, _ []string) error {
	a, err := newAuditApp()
	if err != nil {
		return err
	}
	defer a.close()

	pos, err := a.ledger.Verify()
	if errors.Is(err, ledger.ErrChainIntegrity) {
		fmt.Fprintf(cmd.ErrOrStderr(), "chain broken at entry %d\n", pos)
		return errReported
	}
	if err != nil {
		return err
	}
	n, err := a.ledger.Len()
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "chain intact: %d entries\n", n)
	return nil
}

func runAuditTail(cmd *cobra.Command, _ []string) error {
	a, err := newAuditApp()
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.ledger.Tail(flagTailN)
	if err != nil {
		return err
	}
	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}
	report.PrintAuditTail(cmd.OutOrStdout(), entries)
	return nil
}

func runAuditOp(cmd *cobra.Command, args []string) error {
	a, err := newAuditApp()
	if err != nil {
		return err
	}
	defer a.close()

	entries, err := a.ledger.FindByOperation(args[0])
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("no audit entries for operation %s", args[0])
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(entries)
}
