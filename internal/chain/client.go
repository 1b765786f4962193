// Package chain provides the HTTP client for the blockchain-indexing API:
// stake-to-address expansion and address asset lookup, including naming
// handle detection.
package chain

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Default configuration values. Address expansion is a cheap endpoint;
// asset lookups fan out per address and get a longer deadline upstream.
const (
	DefaultTimeout   = 15 * time.Second
	DefaultMaxPages  = 5
	addressesPerPage = 100
)

// Client is a single-attempt client for the indexing API.
type Client struct {
	baseURL   string
	projectID string
	client    *http.Client
	maxPages  int
}

// Option configures Client.
type Option func(*Client)

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithProjectID sets the project id header sent on every request.
func WithProjectID(id string) Option {
	return func(c *Client) {
		c.projectID = id
	}
}

// WithMaxPages caps address-expansion paging.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		c.maxPages = n
	}
}

// WithHTTPClient sets custom http.Client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.client = client
	}
}

// New creates an indexing API client.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  baseURL,
		client:   &http.Client{Timeout: DefaultTimeout},
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.projectID != "" {
		req.Header.Set("project_id", c.projectID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// StakeAddresses returns the payment addresses grouped under a stake
// identity, paging until the provider runs out or maxPages is hit.
func (c *Client) StakeAddresses(ctx context.Context, stake string) ([]string, error) {
	var addresses []string

	for page := 1; page <= c.maxPages; page++ {
		var wire []struct {
			Address string `json:"address"`
		}
		path := fmt.Sprintf("/accounts/%s/addresses?count=%d&page=%d", stake, addressesPerPage, page)
		if err := c.get(ctx, path, &wire); err != nil {
			return nil, err
		}
		for _, w := range wire {
			if w.Address != "" {
				addresses = append(addresses, w.Address)
			}
		}
		if len(wire) < addressesPerPage {
			break
		}
	}
	return addresses, nil
}

// Asset is one asset held at an address.
type Asset struct {
	Unit     string `json:"unit"`
	Quantity string `json:"quantity"`
}

// AddressAssets returns the assets held at a payment address.
func (c *Client) AddressAssets(ctx context.Context, address string) ([]Asset, error) {
	var wire struct {
		Amount []Asset `json:"amount"`
	}
	if err := c.get(ctx, "/addresses/"+address, &wire); err != nil {
		return nil, err
	}
	return wire.Amount, nil
}
