package mocks

import (
	"context"
	"time"

	"github.com/simaogato/portfolio-tracker/internal/domain"
	"github.com/stretchr/testify/mock"
)

// Pricer is a mock of the pricing gateway as seen by the read-side services
type Pricer struct {
	mock.Mock
}

func (m *Pricer) GetQuote(ctx context.Context, symbol string) *domain.Quote {
	args := m.Called(ctx, symbol)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*domain.Quote)
}

func (m *Pricer) GetHistoricalDaily(ctx context.Context, symbol string, start, end time.Time) []domain.HistoricalPoint {
	args := m.Called(ctx, symbol, start, end)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]domain.HistoricalPoint)
}
