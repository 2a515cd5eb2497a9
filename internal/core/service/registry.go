package service

import (
	"fmt"
	"sync"

	"github.com/cloudkinetics/azdrift/internal/core/ports"
	"github.com/cloudkinetics/azdrift/internal/errors"
)

type ComponentRegistry struct {
	mu               sync.RWMutex
	sourceProviders  map[string]ports.SourceProvider
	platformScanners map[string]ports.PlatformScanner
	reporters        map[string]ports.Reporter
}

func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		sourceProviders:  make(map[string]ports.SourceProvider),
		platformScanners: make(map[string]ports.PlatformScanner),
		reporters:        make(map[string]ports.Reporter),
	}
}

func (r *ComponentRegistry) RegisterSourceProvider(provider ports.SourceProvider) error {
	if provider == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil source provider")
	}
	providerType := provider.Type()
	if providerType == "" {
		return errors.New(errors.CodeInternal, "source provider type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sourceProviders[providerType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("source provider type '%s' already registered", providerType))
	}
	r.sourceProviders[providerType] = provider
	return nil
}

func (r *ComponentRegistry) GetSourceProvider(providerType string) (ports.SourceProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, exists := r.sourceProviders[providerType]
	if !exists {
		return nil, errors.New(errors.CodeConfigValidation, fmt.Sprintf("source provider type '%s' not found", providerType))
	}
	return provider, nil
}

func (r *ComponentRegistry) RegisterPlatformScanner(scanner ports.PlatformScanner) error {
	if scanner == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil platform scanner")
	}
	scannerType := scanner.Type()
	if scannerType == "" {
		return errors.New(errors.CodeInternal, "platform scanner type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.platformScanners[scannerType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("platform scanner type '%s' already registered", scannerType))
	}
	r.platformScanners[scannerType] = scanner
	return nil
}

func (r *ComponentRegistry) GetPlatformScanner(scannerType string) (ports.PlatformScanner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scanner, exists := r.platformScanners[scannerType]
	if !exists {
		return nil, errors.New(errors.CodeConfigValidation, fmt.Sprintf("platform scanner type '%s' not found", scannerType))
	}
	return scanner, nil
}

func (r *ComponentRegistry) RegisterReporter(reporter ports.Reporter) error {
	if reporter == nil {
		return errors.New(errors.CodeInternal, "attempted to register nil reporter")
	}
	reporterType := reporter.Type()
	if reporterType == "" {
		return errors.New(errors.CodeInternal, "reporter type cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.reporters[reporterType]; exists {
		return errors.New(errors.CodeInternal, fmt.Sprintf("reporter type '%s' already registered", reporterType))
	}
	r.reporters[reporterType] = reporter
	return nil
}

func (r *ComponentRegistry) GetReporter(reporterType string) (ports.Reporter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reporter, exists := r.reporters[reporterType]
	if !exists {
		return nil, errors.New(errors.CodeConfigValidation, fmt.Sprintf("reporter type '%s' not found", reporterType))
	}
	return reporter, nil
}
