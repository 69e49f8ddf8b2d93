// Package coingecko is the REST client for the CoinGecko simple-price API,
// the engine's single upstream price source.
package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Quote is one asset quote from the simple-price endpoint: spot price in the
// configured vs currency plus the 24h percentage change.
type Quote struct {
	Price     float64
	Change24h float64
}

// Client is the CoinGecko REST client.
type Client struct {
	baseURL    string
	asset      string
	vsCurrency string
	httpClient *http.Client
}

// New creates a CoinGecko client.
//
// baseURL is the API root, e.g. "https://api.coingecko.com/api/v3". asset is
// a CoinGecko coin id ("bitcoin"), vsCurrency a fiat id ("usd").
func New(baseURL, asset, vsCurrency string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		asset:      asset,
		vsCurrency: vsCurrency,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SimplePrice fetches the current quote for the configured asset.
func (c *Client) SimplePrice(ctx context.Context) (Quote, error) {
	params := url.Values{}
	params.Set("ids", c.asset)
	params.Set("vs_currencies", c.vsCurrency)
	params.Set("include_24hr_change", "true")

	path := "/simple/price?" + params.Encode()

	body, err := c.doGet(ctx, path)
	if err != nil {
		return Quote{}, fmt.Errorf("coingecko: simple price: %w", err)
	}

	// Response shape: {"bitcoin": {"usd": 95000.12, "usd_24h_change": 1.3}}
	var payload map[string]map[string]float64
	if err := json.Unmarshal(body, &payload); err != nil {
		return Quote{}, fmt.Errorf("coingecko: decode simple price: %w", err)
	}

	fields, ok := payload[c.asset]
	if !ok {
		return Quote{}, fmt.Errorf("coingecko: asset %q missing from response", c.asset)
	}
	price, ok := fields[c.vsCurrency]
	if !ok {
		return Quote{}, fmt.Errorf("coingecko: currency %q missing from response", c.vsCurrency)
	}

	return Quote{
		Price:     price,
		Change24h: fields[c.vsCurrency+"_24h_change"],
	}, nil
}

// doGet performs a GET request against the API and returns the response body.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}
