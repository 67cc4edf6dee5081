package extractor

import (
	"fmt"

	"superca/internal/config"
	"superca/internal/port"
)

// ProviderFactory is a function that creates a DocumentExtractor from a
// provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.DocumentExtractor, error)

// registry of extraction provider factories, populated by init() in each
// provider package or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers an extraction provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewExtractor creates a DocumentExtractor from a provider config using the
// registered factory.
func NewExtractor(cfg *config.ProviderConfig) (port.DocumentExtractor, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewChainFromConfig builds the fallback chain from the configured
// primary/secondary/tertiary providers.
func NewChainFromConfig(cfg *config.ExtractorConfig) (*Chain, error) {
	var (
		extractors []port.DocumentExtractor
		names      []string
	)
	for _, pc := range cfg.ChainConfigs() {
		ex, err := NewExtractor(pc)
		if err != nil {
			return nil, err
		}
		extractors = append(extractors, ex)
		names = append(names, pc.Provider)
	}
	if len(extractors) == 0 {
		return nil, fmt.Errorf("no extraction providers configured")
	}
	return NewChain(extractors, names, cfg.ConfidenceFloor), nil
}
