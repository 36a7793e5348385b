package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
)

// maxResponseSize is the maximum allowed response size from the cart API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// CartGateway is the HTTP client for the authenticated cart API. It is
// stateless: every call carries the caller's bearer credential and no
// per-user state is held between requests.
type CartGateway struct {
	config     *Config
	httpClient *http.Client
}

// NewCartGateway creates a gateway with the given configuration
func NewCartGateway(config *Config) (*CartGateway, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &CartGateway{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// Wire types for the cart API

type cartItemPayload struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Variant   string          `json:"variant,omitempty"`
}

type cartResponse struct {
	Items []cartItemPayload `json:"items"`
}

type addItemPayload struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateItemPayload struct {
	Quantity int `json:"quantity"`
}

// GetCart retrieves the authenticated user's current cart lines
func (g *CartGateway) GetCart(ctx context.Context, credential string) ([]cart.RemoteItem, error) {
	body, err := g.doRequest(ctx, credential, http.MethodGet, joinURL(g.config.CartBaseURL, "cart"), nil)
	if err != nil {
		return nil, err
	}

	var resp cartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrGatewayInvalidResponse, err)
	}

	items := make([]cart.RemoteItem, 0, len(resp.Items))
	for _, item := range resp.Items {
		items = append(items, cart.RemoteItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Variant:   item.Variant,
		})
	}
	return items, nil
}

// AddItem merges a product into the server cart
func (g *CartGateway) AddItem(ctx context.Context, credential string, productID int64, quantity int) error {
	payload := addItemPayload{ProductID: productID, Quantity: quantity}
	_, err := g.doRequest(ctx, credential, http.MethodPost, joinURL(g.config.CartBaseURL, "cart", "add"), payload)
	return err
}

// UpdateItem sets the absolute quantity of a server cart line
func (g *CartGateway) UpdateItem(ctx context.Context, credential string, remoteItemID int64, quantity int) error {
	payload := updateItemPayload{Quantity: quantity}
	url := joinURL(g.config.CartBaseURL, "cart", "item", strconv.FormatInt(remoteItemID, 10))
	_, err := g.doRequest(ctx, credential, http.MethodPut, url, payload)
	return err
}

// RemoveItem deletes a single server cart line
func (g *CartGateway) RemoveItem(ctx context.Context, credential string, remoteItemID int64) error {
	url := joinURL(g.config.CartBaseURL, "cart", "item", strconv.FormatInt(remoteItemID, 10))
	_, err := g.doRequest(ctx, credential, http.MethodDelete, url, nil)
	return err
}

// Clear empties the authenticated cart
func (g *CartGateway) Clear(ctx context.Context, credential string) error {
	_, err := g.doRequest(ctx, credential, http.MethodDelete, joinURL(g.config.CartBaseURL, "cart"), nil)
	return err
}

// doRequest performs an HTTP request against the cart API and maps error
// responses to gateway sentinels. A 401 becomes ErrSessionExpired so the
// coordinator can fall back instead of crashing.
func (g *CartGateway) doRequest(ctx context.Context, credential, method, url string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("storefront: failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("storefront: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("storefront: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, fmt.Errorf("%w: HTTP 401", cart.ErrSessionExpired)
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", cart.ErrGatewayRequestFailed, resp.StatusCode)
	}
	return body, nil
}

// Ensure CartGateway implements the RemoteGateway interface
var _ cart.RemoteGateway = (*CartGateway)(nil)
