package helpers

import (
	"sync"

	"github.com/andrescamacho/shippingmanager-go/internal/domain/settings"
)

// MockSettingsProvider is a mutable settings.Provider for tests
type MockSettingsProvider struct {
	mu     sync.RWMutex
	config settings.Configuration
	reads  int
}

// NewMockSettingsProvider starts from the given configuration
func NewMockSettingsProvider(config settings.Configuration) *MockSettingsProvider {
	return &MockSettingsProvider{config: config}
}

func (p *MockSettingsProvider) Current() settings.Configuration {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reads++
	return p.config
}

// Update applies a mutation, visible from the next Current call
func (p *MockSettingsProvider) Update(mutate func(*settings.Configuration)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	mutate(&p.config)
}

// Reads returns how many times Current was called
func (p *MockSettingsProvider) Reads() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.reads
}
