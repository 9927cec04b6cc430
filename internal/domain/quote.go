package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type AssetClass string

const (
	AssetCrypto    AssetClass = "crypto"
	AssetStock     AssetClass = "stock"
	AssetCommodity AssetClass = "commodity"
	AssetCurrency  AssetClass = "currency"
)

func ParseAssetClass(input string) (AssetClass, error) {
	switch AssetClass(strings.ToLower(strings.TrimSpace(input))) {
	case AssetCrypto:
		return AssetCrypto, nil
	case AssetStock:
		return AssetStock, nil
	case AssetCommodity:
		return AssetCommodity, nil
	case AssetCurrency:
		return AssetCurrency, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidAssetClass, input)
	}
}

// Quote is an immutable price snapshot. A later fetch supersedes it,
// nothing mutates it.
type Quote struct {
	Symbol           string
	AssetClass       AssetClass
	Price            decimal.Decimal
	QuoteCurrency    string
	ChangePercent24h *decimal.Decimal
	FetchedAt        time.Time
	Source           string
}

// Adapter-level errors. The orchestrator treats every one of them as
// "try the next adapter"; none of them is fatal to the caller.
var (
	ErrInvalidAssetClass = errors.New("invalid asset class")
	ErrUnsupportedSymbol = errors.New("symbol not supported by provider")
	ErrProviderTimeout   = errors.New("provider timed out")
	ErrRateLimited       = errors.New("provider rate limited")
	ErrUpstream          = errors.New("provider upstream error")
)

// SourceAdapter wraps exactly one external quote provider. Fetch issues a
// single bounded network request and never retries internally.
type SourceAdapter interface {
	Name() string
	Fetch(ctx context.Context, symbol, quoteCurrency string) (*Quote, error)
}

// SourceError pairs an adapter name with the error it produced.
type SourceError struct {
	Source string
	Err    error
}

// AllSourcesFailedError aggregates the per-adapter failures of one lookup.
// It is the only shape in which adapter errors escape the orchestrator.
type AllSourcesFailedError struct {
	AssetClass AssetClass
	Symbol     string
	Errors     []SourceError
}

func (e *AllSourcesFailedError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %v", se.Source, se.Err))
	}
	return fmt.Sprintf("all sources failed for %s %s: [%s]", e.AssetClass, e.Symbol, strings.Join(parts, "; "))
}
