// Package mmr looks up confirmed wholesale market values ("MMR") by VIN.
package mmr

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// Credentials authenticate against the valuation API.
type Credentials struct {
	Username string
	Password string
}

type valuationResponse struct {
	VIN string          `json:"vin"`
	MMR decimal.Decimal `json:"mmr"`
}

// RealClient queries a remote valuation API over HTTP.
type RealClient struct {
	http *resty.Client
}

// NewRealClient creates a client for baseURL. Rate-limited and 5xx responses
// are retried up to maxRetries times with exponential backoff from baseDelay.
func NewRealClient(baseURL string, creds Credentials, maxRetries int, baseDelay time.Duration) *RealClient {
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	maxRetries = max(maxRetries, 0)

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Accept", "application/json").
		SetRetryCount(maxRetries).
		SetRetryWaitTime(baseDelay).
		SetRetryMaxWaitTime(baseDelay * time.Duration(1<<min(maxRetries, 6))).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil || resp == nil {
				return false
			}
			code := resp.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})
	if creds.Username != "" {
		client.SetBasicAuth(creds.Username, creds.Password)
	}

	return &RealClient{http: client}
}

// LookupConfirmedValue returns the MMR for vin. A 404 means the VIN is not
// covered and yields found=false without an error.
func (c *RealClient) LookupConfirmedValue(ctx context.Context, vin string) (decimal.Decimal, bool, error) {
	var body valuationResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("vin", vin).
		SetResult(&body).
		ForceContentType("application/json").
		Get("/v1/valuations/{vin}")
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return decimal.Zero, false, ctxErr
		}
		return decimal.Zero, false, fmt.Errorf("valuation request for %s: %w", vin, err)
	}

	switch code := resp.StatusCode(); {
	case code == http.StatusNotFound:
		return decimal.Zero, false, nil
	case resp.IsSuccess():
	default:
		return decimal.Zero, false, fmt.Errorf("valuation API HTTP %d for %s: %s", code, vin, resp.String())
	}

	if !body.MMR.IsPositive() {
		return decimal.Zero, false, fmt.Errorf("valuation API returned non-positive value %s for %s", body.MMR, vin)
	}
	return body.MMR, true, nil
}
