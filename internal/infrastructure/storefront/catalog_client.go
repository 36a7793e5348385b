package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// CatalogClient resolves collections from the catalog API. Responses are
// treated as read-only snapshots; the cart never re-reads a collection
// after it has been added.
type CatalogClient struct {
	config     *Config
	httpClient *http.Client
}

// NewCatalogClient creates a catalog client with the given configuration
func NewCatalogClient(config *Config) (*CatalogClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &CatalogClient{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
	}, nil
}

type collectionProductPayload struct {
	ID      int64           `json:"id"`
	Name    string          `json:"name"`
	Price   decimal.Decimal `json:"price"`
	Variant string          `json:"variant,omitempty"`
}

type collectionPayload struct {
	ID        int64                      `json:"id"`
	Name      string                     `json:"name"`
	SalePrice decimal.Decimal            `json:"sale_price"`
	Products  []collectionProductPayload `json:"products"`
}

// GetCollection fetches a collection's members and sale price
func (c *CatalogClient) GetCollection(ctx context.Context, id int64) (*catalog.Collection, error) {
	url := joinURL(c.config.CatalogBaseURL, "collections", strconv.FormatInt(id, 10))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("storefront: failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("storefront: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, shared.ErrCollectionNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: HTTP %d", cart.ErrGatewayRequestFailed, resp.StatusCode)
	}

	var payload collectionPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", cart.ErrGatewayInvalidResponse, err)
	}

	col := &catalog.Collection{
		ID:        payload.ID,
		Name:      payload.Name,
		SalePrice: payload.SalePrice,
		Products:  make([]catalog.Product, 0, len(payload.Products)),
	}
	for _, p := range payload.Products {
		col.Products = append(col.Products, catalog.Product{
			ID:      p.ID,
			Name:    p.Name,
			Price:   p.Price,
			Variant: p.Variant,
		})
	}
	return col, nil
}

// Ensure CatalogClient implements the Catalog interface
var _ catalog.Catalog = (*CatalogClient)(nil)
