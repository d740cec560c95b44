package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"erpverify/internal/config"
	"erpverify/internal/llm"
	"erpverify/internal/logger"
	"erpverify/internal/port"
)

// app holds what the subcommands share. Fields already set are kept, which
// lets tests inject a model and config.
type app struct {
	configFile string
	cfg        *config.Config
	model      port.LanguageModel
	logger     *zap.Logger
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "verifyctl",
		Short:         "Classify documents and verify them against ERP data",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.init()
		},
	}
	root.PersistentFlags().StringVar(&a.configFile, "config", "", "config file (default: ./config.yaml or ERPVERIFY_* env)")

	root.AddCommand(newVerifyCmd(a), newClassifyCmd(a))
	return root
}

func (a *app) init() error {
	if a.cfg == nil {
		var err error
		if a.configFile != "" {
			a.cfg, err = config.LoadFile(a.configFile)
		} else {
			a.cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if a.logger == nil {
		zl, err := logger.New(a.cfg.Log.Level, "console")
		if err != nil {
			return fmt.Errorf("failed to build logger: %w", err)
		}
		a.logger = zl
	}
	if a.model == nil {
		m, err := llm.Build(&a.cfg.LLM, a.logger)
		if err != nil {
			return fmt.Errorf("failed to build language model: %w", err)
		}
		a.model = m
	}
	return nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("reading %s: file is empty", path)
	}
	return data, nil
}
