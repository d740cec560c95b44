package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"erpverify/internal/bootstrap"
	"erpverify/internal/domain"
)

type verifyOptions struct {
	jobNo      string
	documentID string
	erpFile    string
	failOnHigh bool
}

func newVerifyCmd(a *app) *cobra.Command {
	var opts verifyOptions
	cmd := &cobra.Command{
		Use:   "verify [flags] FILE...",
		Short: "Verify the pages of one document against an ERP record",
		Long: `Reads the given files as the pages of a single document, runs the
verification pipeline and prints the result as JSON.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, a, opts, args)
		},
	}
	cmd.Flags().StringVar(&opts.jobNo, "job", "", "job number (required)")
	cmd.Flags().StringVar(&opts.documentID, "document-id", "", "optional document identifier")
	cmd.Flags().StringVar(&opts.erpFile, "erp", "", "JSON file with the ERP record (required)")
	cmd.Flags().BoolVar(&opts.failOnHigh, "fail-on-high", false, "exit non-zero on failed runs or HIGH discrepancies")
	_ = cmd.MarkFlagRequired("job")
	_ = cmd.MarkFlagRequired("erp")
	return cmd
}

func runVerify(cmd *cobra.Command, a *app, opts verifyOptions, files []string) error {
	erpRaw, err := readFile(opts.erpFile)
	if err != nil {
		return err
	}
	var erp map[string]any
	if err := json.Unmarshal(erpRaw, &erp); err != nil {
		return fmt.Errorf("parsing %s: %w", opts.erpFile, err)
	}

	images, err := readImages(cmd.Context(), files)
	if err != nil {
		return err
	}

	orch, err := bootstrap.NewOrchestrator(a.cfg, bootstrap.Extras{Model: a.model}, a.logger)
	if err != nil {
		return err
	}
	res := orch.Run(cmd.Context(), domain.VerificationRequest{
		JobNo:      opts.jobNo,
		DocumentID: opts.documentID,
		Images:     images,
		ErpData:    erp,
	})

	if err := printJSON(cmd.OutOrStdout(), res); err != nil {
		return err
	}
	if opts.failOnHigh && (res.State == domain.StateFailed || res.HighestSeverity() == domain.SeverityHigh) {
		return fmt.Errorf("verification of %s did not pass", opts.jobNo)
	}
	return nil
}

// readImages loads files concurrently, keeping argument order.
func readImages(ctx context.Context, files []string) ([]domain.RawImage, error) {
	images := make([]domain.RawImage, len(files))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, path := range files {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := readFile(path)
			if err != nil {
				return err
			}
			images[i] = domain.RawImage{Data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}
