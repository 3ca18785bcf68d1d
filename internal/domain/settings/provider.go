package settings

// Provider hands out the current operator settings.
// Current must be safe for concurrent use and return a copy.
type Provider interface {
	Current() Configuration
}

// StaticProvider always returns the same configuration
type StaticProvider struct {
	config Configuration
}

// NewStaticProvider wraps a fixed configuration
func NewStaticProvider(config Configuration) *StaticProvider {
	return &StaticProvider{config: config}
}

func (p *StaticProvider) Current() Configuration {
	return p.config
}
