package deployer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/wager-daemon/internal/core/ports"
	"github.com/tdex-network/wager-daemon/pkg/circuitbreaker"
	"go.uber.org/ratelimit"
)

const (
	defaultRequestTimeout = 30 * time.Second
	defaultRateLimit      = 10
)

type deployRequest struct {
	MarketID         uint64 `json:"market_id"`
	CollateralAsset  string `json:"collateral_asset"`
	CollateralAmount uint64 `json:"collateral_amount"`
	Liquidity        uint64 `json:"liquidity"`
	TradingPeriod    int64  `json:"trading_period_seconds"`
}

type deployResponse struct {
	InstrumentID string `json:"instrument_id"`
}

type httpDeployer struct {
	url     string
	client  *http.Client
	cb      *gobreaker.CircuitBreaker
	limiter ratelimit.Limiter
}

// NewHTTPDeployer returns an InstrumentDeployer that asks a remote service
// to create the instrument. Requests are throttled to rateLimit per second
// and go through a circuit breaker.
func NewHTTPDeployer(
	url string, requestTimeout time.Duration, rateLimit int,
) (ports.InstrumentDeployer, error) {
	if len(url) <= 0 {
		return nil, ErrMissingURL
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}
	if rateLimit <= 0 {
		rateLimit = defaultRateLimit
	}

	return &httpDeployer{
		url:     strings.TrimSuffix(url, "/"),
		client:  &http.Client{Timeout: requestTimeout},
		cb:      circuitbreaker.NewCircuitBreaker("deployer"),
		limiter: ratelimit.New(rateLimit),
	}, nil
}

func (d *httpDeployer) Deploy(
	ctx context.Context, spec ports.InstrumentSpec,
) (string, error) {
	body, err := json.Marshal(deployRequest{
		MarketID:         spec.MarketID,
		CollateralAsset:  spec.CollateralAsset,
		CollateralAmount: spec.CollateralAmount,
		Liquidity:        spec.Liquidity,
		TradingPeriod:    int64(spec.TradingPeriod.Seconds()),
	})
	if err != nil {
		return "", err
	}

	d.limiter.Take()
	res, err := d.cb.Execute(func() (interface{}, error) {
		return d.post(ctx, fmt.Sprintf("%s/instruments", d.url), body)
	})
	if err != nil {
		return "", err
	}

	instrumentID := res.(string)
	log.WithFields(log.Fields{
		"market":     spec.MarketID,
		"instrument": instrumentID,
	}).Debug("deployer: instrument created")
	return instrumentID, nil
}

func (d *httpDeployer) post(
	ctx context.Context, url string, body []byte,
) (string, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, url, bytes.NewReader(body),
	)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf(
			"deployer replied with status %d: %s", resp.StatusCode, respBody,
		)
	}

	var r deployResponse
	if err := json.Unmarshal(respBody, &r); err != nil {
		return "", fmt.Errorf("failed to parse deployer response: %w", err)
	}
	if len(r.InstrumentID) <= 0 {
		return "", ErrEmptyInstrumentID
	}
	return r.InstrumentID, nil
}
