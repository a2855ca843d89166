package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"condor-sentinel/internal/config"
	apperrors "condor-sentinel/internal/errors"
	"condor-sentinel/internal/models"
	"condor-sentinel/pkg/utils"
)

// HTTPProvider fetches snapshots from quote and calendar HTTP endpoints.
// Requests are rate limited and retried with backoff; timeouts come from
// the caller's context.
type HTTPProvider struct {
	cfg     config.ProviderConfig
	client  *http.Client
	limiter *rate.Limiter
	retry   utils.RetryConfig
}

// NewHTTPProvider creates a provider for the configured endpoints.
func NewHTTPProvider(cfg config.ProviderConfig) *HTTPProvider {
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 1
	}
	return &HTTPProvider{
		cfg:     cfg,
		client:  &http.Client{},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		retry:   utils.DefaultRetryConfig(),
	}
}

// quotePayload is the wire shape of the quote endpoint.
type quotePayload struct {
	Timestamp       time.Time `json:"timestamp"`
	Open            float64   `json:"open"`
	Last            float64   `json:"last"`
	VolatilityIndex float64   `json:"volatility_index"`
	MA20            float64   `json:"ma20"`
	PrevHigh        float64   `json:"prev_high"`
	PrevLow         float64   `json:"prev_low"`
}

// calendarPayload is the wire shape of the calendar endpoint.
type calendarPayload struct {
	Events []models.EconomicEvent `json:"events"`
}

// Snapshot implements SnapshotProvider. A quote failure is a DataError;
// a calendar failure leaves Events nil so the calendar rule reports
// NOT_APPLICABLE rather than blocking the cycle.
func (p *HTTPProvider) Snapshot(ctx context.Context) (models.MarketSnapshot, error) {
	var quote quotePayload
	if err := p.get(ctx, p.cfg.QuoteURL, &quote); err != nil {
		return models.MarketSnapshot{}, apperrors.NewDataError("quote", "fetching quote", err)
	}

	snap := models.MarketSnapshot{
		Timestamp:       quote.Timestamp,
		SpotOpen:        quote.Open,
		SpotCurrent:     quote.Last,
		VolatilityIndex: quote.VolatilityIndex,
		MA20:            quote.MA20,
		PrevDayHigh:     quote.PrevHigh,
		PrevDayLow:      quote.PrevLow,
	}
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}

	if p.cfg.CalendarURL != "" {
		var calendar calendarPayload
		if err := p.get(ctx, p.cfg.CalendarURL, &calendar); err == nil {
			snap.Events = calendar.Events
			if snap.Events == nil {
				snap.Events = []models.EconomicEvent{}
			}
		}
	}

	return snap, nil
}

func (p *HTTPProvider) get(ctx context.Context, url string, target interface{}) error {
	body, err := utils.RetryWithResult(ctx, p.retry, func() ([]byte, error) {
		return p.fetch(ctx, url)
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(body, target)
}

func (p *HTTPProvider) fetch(ctx context.Context, url string) ([]byte, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	return io.ReadAll(resp.Body)
}
