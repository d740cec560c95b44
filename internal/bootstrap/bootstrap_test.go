package bootstrap_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpverify/internal/bootstrap"
	"erpverify/internal/config"
	"erpverify/internal/domain"
	"erpverify/internal/llm"
)

func baseConfig() *config.Config {
	return &config.Config{
		LLM:      config.LLMConfig{Provider: "no-such-provider"},
		Pipeline: config.PipelineConfig{MaxConcurrency: 1, MaxAttempts: 1},
		Matching: config.MatchingConfig{MonetaryThreshold: 0.01, HighWeight: 3, MediumWeight: 2, LowWeight: 1, HighPenalty: 1, MediumPenalty: 0.5, LowPenalty: 0.1},
	}
}

func TestNewOrchestrator_UnknownProvider(t *testing.T) {
	_, err := bootstrap.NewOrchestrator(baseConfig(), bootstrap.Extras{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-provider")
}

func TestNewOrchestrator_MissingFieldSets(t *testing.T) {
	cfg := baseConfig()
	cfg.Matching.FieldSetsFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := bootstrap.NewOrchestrator(cfg, bootstrap.Extras{Model: llm.NewScriptedModel("")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading field sets")
}

func TestNewOrchestrator_RunsWithInjectedModel(t *testing.T) {
	orch, err := bootstrap.NewOrchestrator(baseConfig(), bootstrap.Extras{Model: llm.NewScriptedModel("")}, nil)
	require.NoError(t, err)

	res := orch.Run(context.Background(), domain.VerificationRequest{JobNo: "J-1"})
	assert.Equal(t, domain.StateFailed, res.State)
	require.NotNil(t, res.ErrorMessage)
	assert.Contains(t, *res.ErrorMessage, "documentImages")
}
