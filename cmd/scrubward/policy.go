package scrubward

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/scrubward/scrubward/internal/config"
	"github.com/scrubward/scrubward/internal/policy"
	"github.com/scrubward/scrubward/internal/types"
)

func init() {
	policyCmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the active policy manifests",
	}
	rootCmd.AddCommand(policyCmd)

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved manifest version and per-tier rules",
		RunE:  runPolicyShow,
	}
	policyCmd.AddCommand(showCmd)

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate that the policy directory loads cleanly",
		RunE:  runPolicyCheck,
	}
	policyCmd.AddCommand(checkCmd)
}

func resolvePolicyDir() string {
	if flagPolicy != "" {
		return flagPolicy
	}
	if cfg, err := config.LoadLocal("."); err == nil && cfg.PolicyDir != nil {
		return *cfg.PolicyDir
	}
	return ""
}

func runPolicyShow(cmd *cobra.Command, _ []string) error {
	eng, err := policy.NewEngine(resolvePolicyDir())
	if err != nil {
		return err
	}
	m := eng.Active()
	fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", m.Version())
	for _, t := range types.Tiers() {
		def, rules := m.Rules(t)
		fmt.Fprintf(cmd.OutOrStdout(), "%s (default: %s)\n", t, def)
		labels := make([]string, 0, len(rules))
		for label := range rules {
			labels = append(labels, label)
		}
		sort.Strings(labels)
		for _, label := range labels {
			r := rules[label]
			state := "enabled"
			if !r.Enabled {
				state = "disabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "  %-16s %-8s %s\n", label, r.Action, state)
		}
	}
	return nil
}

func runPolicyCheck(cmd *cobra.Command, _ []string) error {
	dir := resolvePolicyDir()
	if dir == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no policy directory configured; built-in fail-closed policy active")
		return nil
	}
	m, err := policy.Load(dir)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "ok: %s\n", m.Version())
	return nil
}
