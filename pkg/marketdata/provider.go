package marketdata

import "context"

// Provider is the capability set every data vendor adapter exposes. Adapters
// are stateless apart from connection configuration and must never return a
// partially populated canonical record: a parse failure is a ProviderError.
type Provider interface {
	// Name identifies the vendor in logs, metrics and persisted records.
	Name() string
	// FetchQuote returns the latest trade snapshot for a symbol.
	FetchQuote(ctx context.Context, symbol string) (*Quote, error)
	// FetchBars returns OHLCV bars for a symbol, oldest first.
	FetchBars(ctx context.Context, symbol, interval string, outputSize int) ([]Bar, error)
	// SearchSymbols resolves free-text queries to candidate instruments.
	SearchSymbols(ctx context.Context, query string) ([]SymbolMatch, error)
	// FetchDataset serves a named reference dataset. Adapters that do not
	// carry the dataset wrap ErrProviderUnavailable so the hierarchy can
	// fail over.
	FetchDataset(ctx context.Context, dataset string) (*ProviderResult, error)
}
