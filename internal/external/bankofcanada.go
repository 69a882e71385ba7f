package external

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/carfinder/internal/currency"
)

// PairCADUSD identifies the CAD→USD rate in storage.
const PairCADUSD = "CAD/USD"

const seriesUSDCAD = "FXUSDCAD"

// BankOfCanadaClient fetches daily exchange rates from the Bank of Canada Valet API.
type BankOfCanadaClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewBankOfCanadaClient creates a new Valet API client.
func NewBankOfCanadaClient(baseURL string, delay time.Duration, maxRetries int) *BankOfCanadaClient {
	return &BankOfCanadaClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// valetResponse holds observations keyed by series name, plus "d" for the date:
// {"observations":[{"d":"2026-10-16","FXUSDCAD":{"v":"1.3712"}}]}
type valetResponse struct {
	Observations []map[string]json.RawMessage `json:"observations"`
}

type valetValue struct {
	V string `json:"v"`
}

// FetchRate returns the latest CAD→USD rate. The Valet series is quoted as
// CAD per USD, so the observation is inverted.
func (c *BankOfCanadaClient) FetchRate(ctx context.Context) (ExchangeRate, error) {
	url := fmt.Sprintf("%s/observations/%s/json?recent=1", c.baseURL, seriesUSDCAD)

	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return ExchangeRate{}, err
	}

	var raw valetResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return ExchangeRate{}, fmt.Errorf("parsing Valet response: %w", err)
	}
	if len(raw.Observations) == 0 {
		return ExchangeRate{}, fmt.Errorf("Valet response has no %s observations", seriesUSDCAD)
	}

	latest := raw.Observations[len(raw.Observations)-1]

	var value valetValue
	if err := json.Unmarshal(latest[seriesUSDCAD], &value); err != nil {
		return ExchangeRate{}, fmt.Errorf("parsing %s observation: %w", seriesUSDCAD, err)
	}
	quote, err := decimal.NewFromString(value.V)
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("parsing %s value %q: %w", seriesUSDCAD, value.V, err)
	}
	rate := currency.InvertRate(quote)
	if !rate.IsPositive() {
		return ExchangeRate{}, fmt.Errorf("non-positive %s quote %s", seriesUSDCAD, quote)
	}

	var date string
	if err := json.Unmarshal(latest["d"], &date); err != nil {
		return ExchangeRate{}, fmt.Errorf("parsing observation date: %w", err)
	}
	observed, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return ExchangeRate{}, fmt.Errorf("parsing observation date %q: %w", date, err)
	}

	return ExchangeRate{Pair: PairCADUSD, Rate: rate, ObservedOn: observed}, nil
}

func (c *BankOfCanadaClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating Valet request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("Valet request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading Valet response: %w", err)
		}

		if resp.StatusCode == http.StatusOK {
			return body, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("Valet rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("Valet HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
