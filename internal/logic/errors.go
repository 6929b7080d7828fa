package logic

import (
	"fmt"
	"strings"

	"apollo67-api/internal/types"
	"apollo67-api/pkg/marketdata"
)

// BadRequestError marks caller mistakes that map to HTTP 400.
type BadRequestError struct {
	Msg string
}

func (e *BadRequestError) Error() string {
	return e.Msg
}

func badRequestf(format string, args ...any) error {
	return &BadRequestError{Msg: fmt.Sprintf(format, args...)}
}

// parseSymbols splits a comma-separated symbol list, canonicalises entries
// and enforces the batch cap.
func parseSymbols(raw string) ([]string, error) {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	seen := make(map[string]struct{}, len(parts))
	for _, part := range parts {
		symbol := marketdata.CanonicalSymbol(part)
		if symbol == "" {
			continue
		}
		if _, dup := seen[symbol]; dup {
			continue
		}
		seen[symbol] = struct{}{}
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return nil, badRequestf("symbols parameter is required")
	}
	if len(symbols) > types.MaxBatchSymbols {
		return nil, badRequestf("too many symbols: %d (max %d)", len(symbols), types.MaxBatchSymbols)
	}
	return symbols, nil
}
