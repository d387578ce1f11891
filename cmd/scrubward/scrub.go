package scrubward

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/scrubward/scrubward/internal/report"
	"github.com/scrubward/scrubward/internal/scrub"
	"github.com/scrubward/scrubward/internal/types"
)

var (
	flagTier        string
	flagActor       string
	flagSession     string
	flagReceiptless bool
	flagOut         string
	flagDir         string
	flagInclude     string
	flagExclude     string
	flagMaxBytes    int64
)

func init() {
	cmd := &cobra.Command{
		Use:   "scrub [file]",
		Short: "Scrub sensitive data from a file, stdin, or a directory tree",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScrub,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&flagTier, "tier", "t", "C3", "requested sensitivity tier (C1-C4)")
	cmd.Flags().StringVar(&flagActor, "actor", "", "acting identity recorded in the audit chain")
	cmd.Flags().StringVar(&flagSession, "session", "", "session id (generated when empty)")
	cmd.Flags().BoolVar(&flagReceiptless, "receiptless", false, "irreversible mode: no receipt is stored")
	cmd.Flags().StringVarP(&flagOut, "out", "o", "", "write scrubbed content to this file instead of stdout")
	cmd.Flags().StringVarP(&flagDir, "dir", "d", "", "scrub every matching file under this directory, writing .scrubbed siblings")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs (directory mode)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs (directory mode)")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", 2<<20, "skip files larger than this (directory mode)")
}

func runScrub(cmd *cobra.Command, args []string) error {
	tier, err := types.ParseTier(flagTier)
	if err != nil {
		return err
	}
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if flagDir != "" {
		return runScrubDir(cmd, a, tier)
	}

	var content []byte
	if len(args) == 1 && args[0] != "-" {
		content, err = os.ReadFile(args[0])
	} else {
		content, err = io.ReadAll(cmd.InOrStdin())
	}
	if err != nil {
		return err
	}

	start := time.Now()
	res, err := a.orch.Scrub(cmd.Context(), scrub.Request{
		Content:     string(content),
		Tier:        tier,
		Actor:       flagActor,
		SessionID:   flagSession,
		Receiptless: flagReceiptless,
	})
	if err != nil {
		return err
	}

	if flagOut != "" {
		if err := os.WriteFile(flagOut, []byte(res.Scrubbed), 0o600); err != nil {
			return err
		}
	} else if !flagJSON {
		fmt.Fprintln(cmd.OutOrStdout(), res.Scrubbed)
	}

	if flagJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	report.PrintEntities(cmd.ErrOrStderr(), res.Operation.Entities, report.PrintOptions{
		NoColor:  flagNoColor,
		Duration: time.Since(start),
	})
	fmt.Fprintf(cmd.ErrOrStderr(), "Operation: %s\n", res.Operation.OperationID)
	return nil
}

// runScrubDir walks the tree and writes a .scrubbed sibling per file that
// contained at least one entity. Each file is its own audited operation.
func runScrubDir(cmd *cobra.Command, a *app, tier types.Tier) error {
	include := flagInclude
	if include == "" && a.cfg.Include != nil {
		include = *a.cfg.Include
	}
	exclude := flagExclude
	if exclude == "" && a.cfg.Exclude != nil {
		exclude = *a.cfg.Exclude
	}
	files, scrubbedFiles := 0, 0
	err := scrub.WalkFiles(cmd.Context(), scrub.WalkConfig{
		Root:         flagDir,
		IncludeGlobs: include,
		ExcludeGlobs: exclude,
		MaxBytes:     flagMaxBytes,
	}, func(path string, data []byte) error {
		files++
		res, err := a.orch.Scrub(cmd.Context(), scrub.Request{
			Content:     string(data),
			Tier:        tier,
			Actor:       flagActor,
			SessionID:   flagSession,
			Receiptless: flagReceiptless,
		})
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		if len(res.Operation.Entities) == 0 {
			return nil
		}
		scrubbedFiles++
		out := filepath.Join(flagDir, path+".scrubbed")
		if err := os.WriteFile(out, []byte(res.Scrubbed), 0o600); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d entities -> %s (op %s)\n",
			path, len(res.Operation.Entities), out, res.Operation.OperationID)
		return nil
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Files scanned: %d, scrubbed: %d\n", files, scrubbedFiles)
	return nil
}
