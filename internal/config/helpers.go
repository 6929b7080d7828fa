package config

import (
	"apollo67-api/pkg/marketdata"
)

// MustLoadMarket loads etc/market.yaml from the project root and panics on
// error. It isolates the provider config so tests can build providers
// without loading the full server configuration.
func MustLoadMarket() *marketdata.Config {
	cfg, err := marketdata.LoadConfig(MustProjectPath("etc/market.yaml"))
	if err != nil {
		panic(err)
	}
	return cfg
}

// MustBuildMarketProviders loads the market config from the default path
// and builds provider instances keyed by name.
func MustBuildMarketProviders() map[string]marketdata.Provider {
	providers, err := MustLoadMarket().BuildProviders()
	if err != nil {
		panic(err)
	}
	return providers
}
