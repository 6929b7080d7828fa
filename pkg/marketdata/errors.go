package marketdata

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrProviderUnavailable is the adapter's explicit "I cannot serve this"
// signal. The ingestion hierarchy fails over to the secondary provider if,
// and only if, the primary's error wraps this sentinel.
var ErrProviderUnavailable = errors.New("provider unavailable")

// ProviderError wraps an adapter transport or parse failure. Transient marks
// failures worth retrying against another provider (timeouts, rate limits,
// upstream 5xx, connection resets).
type ProviderError struct {
	Provider  string
	Op        string
	Err       error
	Transient bool
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// ValidationError reports canonical data that fails a structural check at
// the selector boundary (negative numerics, broken OHLC bounds, stale quote).
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Outcome classifies an adapter call for failover decisions.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeTransient
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeTransient:
		return "transient"
	case OutcomeFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// transientMarkers is the legacy message scan applied to errors that carry no
// usable type information. Typed classification always wins over this list.
var transientMarkers = []string{
	"429",
	"503",
	"rate limit",
	"timed out",
	"timeout",
	"connection reset",
	"service unavailable",
	"missing symbol",
	"symbol not found",
	"invalid symbol",
	"no bars returned",
	"validation",
}

// Classify maps an adapter error to a failover outcome. Typed errors are
// inspected first; the marker scan only covers errors raised outside this
// package.
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}
	if errors.Is(err, ErrProviderUnavailable) {
		return OutcomeTransient
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return OutcomeTransient
	}
	var perr *ProviderError
	if errors.As(err, &perr) {
		if perr.Transient {
			return OutcomeTransient
		}
		return classifyMessage(err)
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return OutcomeTransient
	}
	return classifyMessage(err)
}

func classifyMessage(err error) Outcome {
	msg := strings.ToLower(err.Error())
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return OutcomeTransient
		}
	}
	return OutcomeFatal
}
