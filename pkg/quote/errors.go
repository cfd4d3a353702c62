package quote

import "fmt"

// InsufficientLiquidityError indicates the aggregator cannot fill the
// requested size. Recoverable; the user may adjust the amount.
type InsufficientLiquidityError struct {
	Reason string
}

func (e *InsufficientLiquidityError) Error() string {
	return fmt.Sprintf("insufficient liquidity: %s", e.Reason)
}

// QuoteFetchError is any other aggregator failure. The Reason field carries
// the aggregator's structured reason verbatim when one was present. Callers
// branch on error kind, never on the HTTP status.
type QuoteFetchError struct {
	StatusCode int
	Reason     string
}

func (e *QuoteFetchError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("quote fetch failed (status %d): %s", e.StatusCode, e.Reason)
	}
	return fmt.Sprintf("quote fetch failed (status %d)", e.StatusCode)
}
