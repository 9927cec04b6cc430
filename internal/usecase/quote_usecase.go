package usecase

import (
	"context"
	"strings"

	"github.com/tabdila/pricewatch/internal/domain"
)

// QuoteService is the orchestrator surface the usecases depend on.
type QuoteService interface {
	GetQuote(ctx context.Context, class domain.AssetClass, symbol, quoteCurrency string) (*domain.Quote, error)
}

type QuoteUsecase struct {
	quotes QuoteService
}

func NewQuoteUsecase(quotes QuoteService) *QuoteUsecase {
	return &QuoteUsecase{quotes: quotes}
}

// RequestQuote is the interactive lookup entry point. An unavailable quote
// comes back as a *domain.AllSourcesFailedError so the front-end can report
// it distinctly; stale or zero data is never substituted.
func (u *QuoteUsecase) RequestQuote(ctx context.Context, assetClass, symbol, quoteCurrency string) (*domain.Quote, error) {
	class, err := domain.ParseAssetClass(assetClass)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(quoteCurrency) == "" {
		quoteCurrency = "USD"
	}
	return u.quotes.GetQuote(ctx, class, symbol, quoteCurrency)
}
