// Package kalshi is the read-only REST client for the Kalshi trade API. It
// covers market discovery only; arbscan never places orders.
package kalshi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/tradewatch/arbscan/internal/domain"
)

const (
	// marketsRatePerSec keeps well under Kalshi's documented public rate
	// limits.
	marketsRatePerSec = 10

	defaultPageLimit = 200
	maxPages         = 10
)

// Client is the REST client for the Kalshi exchange API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a new Kalshi REST client.
//
// baseURL is the API root, e.g. "https://api.elections.kalshi.com/trade-api/v2".
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(marketsRatePerSec, 5),
	}
}

// GetMarkets returns one page of markets with the given status filter.
func (c *Client) GetMarkets(ctx context.Context, status, cursor string, limit int) (MarketsResponse, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}

	path := "/markets"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	body, err := c.doGet(ctx, path)
	if err != nil {
		return MarketsResponse{}, fmt.Errorf("kalshi: get markets: %w", err)
	}

	var resp MarketsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return MarketsResponse{}, fmt.Errorf("kalshi: decode markets: %w", err)
	}

	return resp, nil
}

// GetOpenMarkets pages through GET /markets and returns every open market,
// bounded by maxPages to keep a fetch cycle from running away.
func (c *Client) GetOpenMarkets(ctx context.Context) ([]Market, error) {
	var all []Market
	cursor := ""

	for page := 0; page < maxPages; page++ {
		resp, err := c.GetMarkets(ctx, "open", cursor, defaultPageLimit)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Markets...)

		cursor = resp.Cursor
		if cursor == "" || len(resp.Markets) == 0 {
			break
		}
	}

	return all, nil
}

// GetMarket returns a single market by its ticker.
func (c *Client) GetMarket(ctx context.Context, ticker string) (Market, error) {
	path := fmt.Sprintf("/markets/%s", url.PathEscape(ticker))

	body, err := c.doGet(ctx, path)
	if err != nil {
		return Market{}, fmt.Errorf("kalshi: get market %s: %w", ticker, err)
	}

	var resp struct {
		Market Market `json:"market"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return Market{}, fmt.Errorf("kalshi: decode market: %w", err)
	}

	return resp.Market, nil
}

// --------------------------------------------------------------------------
// Internal helpers
// --------------------------------------------------------------------------

// doGet rate-limits, builds, sends, and reads an HTTP GET against the Kalshi
// API.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "arbscan/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if err := c.checkStatus(resp.StatusCode, respBody); err != nil {
		return nil, err
	}

	return respBody, nil
}

// checkStatus maps non-2xx HTTP status codes to appropriate errors.
func (c *Client) checkStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	var apiErr ErrorResponse
	_ = json.Unmarshal(body, &apiErr)

	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("kalshi: not found: %s (%s)", apiErr.Message, apiErr.Code)
	case http.StatusTooManyRequests:
		return fmt.Errorf("kalshi: %w: rate limited: %s (%s)", domain.ErrFetchFailed, apiErr.Message, apiErr.Code)
	default:
		return fmt.Errorf("kalshi: %w: HTTP %d: %s (%s)", domain.ErrFetchFailed, statusCode, apiErr.Message, apiErr.Code)
	}
}
