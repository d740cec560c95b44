package llm

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"erpverify/internal/config"
	"erpverify/internal/port"
)

// ProviderFactory is a function that creates a LanguageModel from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.LanguageModel, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var (
	providersMu sync.RWMutex
	providers   = map[string]ProviderFactory{}
)

// RegisterProvider registers a model provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providersMu.Lock()
	defer providersMu.Unlock()
	providers[name] = factory
}

// NewModel creates a LanguageModel from a provider config using the registered factory.
func NewModel(cfg *config.ProviderConfig) (port.LanguageModel, error) {
	providersMu.RLock()
	factory, ok := providers[cfg.Provider]
	providersMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown model provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// Build assembles the configured providers into one model: a FallbackModel
// when more than one provider is set, throttled by a RateLimitedModel when a
// request rate is configured.
func Build(cfg *config.LLMConfig, logger *zap.Logger) (port.LanguageModel, error) {
	var (
		models []port.LanguageModel
		names  []string
	)
	for _, pc := range cfg.Providers() {
		m, err := NewModel(pc)
		if err != nil {
			return nil, fmt.Errorf("creating %s model: %w", pc.Provider, err)
		}
		models = append(models, m)
		names = append(names, pc.Provider)
	}

	var model port.LanguageModel
	if len(models) == 1 {
		model = models[0]
	} else {
		model = NewFallbackModel(models, names, logger)
	}

	if cfg.RequestsPerSecond > 0 {
		model = NewRateLimitedModel(model, cfg.RequestsPerSecond, cfg.Burst)
	}
	return model, nil
}
