// Package yahoo implements the external quote source on the Yahoo Finance v8 chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
	"github.com/simaogato/portfolio-tracker/internal/domain"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// ErrNoResult is returned when the chart response carries no usable price
var ErrNoResult = errors.New("yahoo: no result")

// Source implements domain.QuoteSource
type Source struct {
	client  *http.Client
	baseURL string
	retries uint64
	backoff time.Duration
}

// NewSource creates a Yahoo quote source; transient failures are retried up to retries times
func NewSource(baseURL string, timeout time.Duration, retries uint64) *Source {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Source{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		retries: retries,
		backoff: 200 * time.Millisecond,
	}
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		RegularMarketPrice decimal.NullDecimal `json:"regularMarketPrice"`
		RegularMarketTime  int64               `json:"regularMarketTime"`
		GMTOffset          int                 `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []decimal.NullDecimal `json:"close"`
		} `json:"quote"`
	} `json:"indicators"`
}

// closes pairs timestamps with non-null closes
func (r chartResult) closes() ([]int64, []decimal.Decimal) {
	if len(r.Indicators.Quote) == 0 {
		return nil, nil
	}
	raw := r.Indicators.Quote[0].Close
	var stamps []int64
	var values []decimal.Decimal
	for i, ts := range r.Timestamp {
		if i >= len(raw) || !raw[i].Valid {
			continue
		}
		stamps = append(stamps, ts)
		values = append(values, raw[i].Decimal)
	}
	return stamps, values
}

// LatestQuote returns the regular market price, falling back to the last non-null close
func (s *Source) LatestQuote(ctx context.Context, symbol string) (decimal.Decimal, time.Time, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("range", "5d")

	result, err := s.chart(ctx, symbol, params)
	if err != nil {
		return decimal.Zero, time.Time{}, err
	}

	price := result.Meta.RegularMarketPrice
	asOf := time.Unix(result.Meta.RegularMarketTime, 0).UTC()

	// Fallback: last non-zero close if meta missing
	if !price.Valid || !price.Decimal.IsPositive() || result.Meta.RegularMarketTime == 0 {
		stamps, values := result.closes()
		for i := len(values) - 1; i >= 0; i-- {
			if values[i].IsPositive() {
				price = decimal.NewNullDecimal(values[i])
				asOf = time.Unix(stamps[i], 0).UTC()
				break
			}
		}
	}

	if !price.Valid || !price.Decimal.IsPositive() {
		return decimal.Zero, time.Time{}, fmt.Errorf("%w for %s", ErrNoResult, symbol)
	}
	return price.Decimal, asOf, nil
}

// HistoricalDaily returns daily closes in [start, end], one per exchange-local day, ordered by date
func (s *Source) HistoricalDaily(ctx context.Context, symbol string, start, end time.Time) ([]domain.HistoricalPoint, error) {
	first := domain.Day(start.Date())
	last := domain.Day(end.Date())
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(first.Unix(), 10))
	params.Set("period2", strconv.FormatInt(last.AddDate(0, 0, 1).Unix(), 10))

	result, err := s.chart(ctx, symbol, params)
	if err != nil {
		return nil, err
	}

	zone := time.FixedZone("exchange", result.Meta.GMTOffset)
	byDay := make(map[time.Time]decimal.Decimal)
	stamps, values := result.closes()
	for i, ts := range stamps {
		day := domain.DayOf(time.Unix(ts, 0), zone)
		if day.Before(first) || day.After(last) {
			continue
		}
		byDay[day] = values[i]
	}

	points := make([]domain.HistoricalPoint, 0, len(byDay))
	for day, value := range byDay {
		points = append(points, domain.HistoricalPoint{Date: day, Close: value})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })
	return points, nil
}

// chart fetches one chart document, retrying network errors, 429 and 5xx responses
func (s *Source) chart(ctx context.Context, symbol string, params url.Values) (chartResult, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", s.baseURL, url.PathEscape(symbol), params.Encode())

	var parsed chartResponse
	backoff := retry.WithMaxRetries(s.retries, retry.NewExponential(s.backoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("User-Agent", "portfolio-tracker/1.0")

		resp, err := s.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("yahoo request failed: %w", err))
		}
		defer resp.Body.Close()

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			return retry.RetryableError(fmt.Errorf("yahoo http %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("yahoo http %d", resp.StatusCode)
		}

		parsed = chartResponse{}
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return fmt.Errorf("failed to decode yahoo response: %w", err)
		}
		return nil
	})
	if err != nil {
		return chartResult{}, err
	}

	if parsed.Chart.Error != nil {
		return chartResult{}, fmt.Errorf("yahoo: %s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if len(parsed.Chart.Result) == 0 {
		return chartResult{}, fmt.Errorf("%w for %s", ErrNoResult, symbol)
	}
	return parsed.Chart.Result[0], nil
}
