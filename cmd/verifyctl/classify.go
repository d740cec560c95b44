package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"erpverify/internal/classify"
	"erpverify/internal/domain"
	"erpverify/internal/normalize"
	"erpverify/internal/normalize/fitz"
	"erpverify/internal/port"
)

// classification is one line of classify output.
type classification struct {
	File string `json:"file"`
	domain.ClassificationResult
	Error string `json:"error,omitempty"`
}

func newClassifyCmd(a *app) *cobra.Command {
	var concurrency int
	cmd := &cobra.Command{
		Use:   "classify [flags] FILE...",
		Short: "Classify each file as a separate document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(cmd, a, concurrency, args)
		},
	}
	cmd.Flags().IntVarP(&concurrency, "concurrency", "c", 2, "files classified at once")
	return cmd
}

func runClassify(cmd *cobra.Command, a *app, concurrency int, files []string) error {
	var renderer port.PageRenderer
	if a.cfg.Normalize.RenderPDF {
		renderer = fitz.NewRenderer()
	}
	normalizer := normalize.New(&a.cfg.Normalize, renderer, a.logger)
	engine := classify.NewEngine(a.model, a.logger)

	if concurrency <= 0 {
		concurrency = 1
	}
	out := make([]classification, len(files))
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)
	for i, path := range files {
		g.Go(func() error {
			out[i].File = path
			data, err := readFile(path)
			if err != nil {
				return err
			}
			pages, err := normalizer.NormalizeAll([]domain.RawImage{{Data: data}})
			if err != nil {
				out[i].Error = err.Error()
				return nil
			}
			res, err := engine.Classify(ctx, path, pages, "")
			if err != nil {
				a.logger.Warn("verifyctl.classify: model call failed", zap.String("file", path), zap.Error(err))
				out[i].Error = err.Error()
				return nil
			}
			out[i].ClassificationResult = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("classify: %w", err)
	}
	return printJSON(cmd.OutOrStdout(), out)
}
