package marketdata

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"apollo67-api/pkg/confkit"
)

// Config describes the set of data vendors available to the application.
type Config struct {
	Providers map[string]*ProviderConfig `yaml:"providers"`
}

// ProviderConfig configures a single vendor adapter.
type ProviderConfig struct {
	Type string `yaml:"type"`

	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`

	TimeoutRaw string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"`

	// Universe is the symbol list vendor adapters serve for dataset pulls.
	Universe []string `yaml:"universe"`
	Interval string   `yaml:"interval"`

	// FailDatasets makes the stub adapter refuse the named datasets.
	FailDatasets []string `yaml:"fail_datasets"`
}

// ProviderBuilder constructs a Provider from its configuration.
type ProviderBuilder func(name string, cfg *ProviderConfig) (Provider, error)

var (
	providerRegistry   = make(map[string]ProviderBuilder)
	providerRegistryMu sync.RWMutex
)

// RegisterProvider registers a vendor adapter constructor. Adapters register
// themselves from init so importing the package is enough to enable a type.
func RegisterProvider(typeName string, builder ProviderBuilder) {
	providerRegistryMu.Lock()
	defer providerRegistryMu.Unlock()
	providerRegistry[strings.ToLower(strings.TrimSpace(typeName))] = builder
}

func lookupProviderBuilder(typeName string) (ProviderBuilder, bool) {
	providerRegistryMu.RLock()
	defer providerRegistryMu.RUnlock()
	builder, ok := providerRegistry[strings.ToLower(strings.TrimSpace(typeName))]
	return builder, ok
}

// LoadConfig reads vendor configuration from disk.
func LoadConfig(path string) (*Config, error) {
	confkit.LoadDotenvOnce()
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open marketdata config: %w", err)
	}
	defer file.Close()
	return LoadConfigFromReader(file)
}

// LoadConfigFromReader constructs a Config from an io.Reader.
func LoadConfigFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read marketdata config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal marketdata config: %w", err)
	}
	if err := cfg.normalise(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalise() error {
	if c.Providers == nil {
		c.Providers = make(map[string]*ProviderConfig)
	}
	for name, provider := range c.Providers {
		if provider == nil {
			provider = &ProviderConfig{}
			c.Providers[name] = provider
		}
		provider.expandEnv()
		if provider.TimeoutRaw != "" {
			d, err := time.ParseDuration(provider.TimeoutRaw)
			if err != nil {
				return fmt.Errorf("provider %s: invalid timeout %q: %w", name, provider.TimeoutRaw, err)
			}
			provider.Timeout = d
		}
	}
	return nil
}

func (p *ProviderConfig) expandEnv() {
	p.Type = strings.TrimSpace(os.ExpandEnv(p.Type))
	p.APIKey = strings.TrimSpace(os.ExpandEnv(p.APIKey))
	p.BaseURL = strings.TrimSpace(os.ExpandEnv(p.BaseURL))
	p.TimeoutRaw = strings.TrimSpace(os.ExpandEnv(p.TimeoutRaw))
}

// Validate checks that every provider names a registered type.
func (c *Config) Validate() error {
	for name, provider := range c.Providers {
		if provider.Type == "" {
			return fmt.Errorf("provider %s: type is required", name)
		}
	}
	return nil
}

// BuildProviders instantiates every configured provider.
func (c *Config) BuildProviders() (map[string]Provider, error) {
	providers := make(map[string]Provider, len(c.Providers))
	for name, cfg := range c.Providers {
		builder, ok := lookupProviderBuilder(cfg.Type)
		if !ok {
			return nil, fmt.Errorf("provider %s: unknown type %q", name, cfg.Type)
		}
		provider, err := builder(name, cfg)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", name, err)
		}
		providers[name] = provider
	}
	return providers, nil
}
