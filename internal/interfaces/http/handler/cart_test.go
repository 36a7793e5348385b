package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
)

type stubGateway struct{}

func (stubGateway) GetCart(context.Context, string) ([]cart.RemoteItem, error) {
	return nil, cart.ErrGatewayUnavailable
}
func (stubGateway) AddItem(context.Context, string, int64, int) error {
	return cart.ErrGatewayUnavailable
}
func (stubGateway) UpdateItem(context.Context, string, int64, int) error {
	return cart.ErrGatewayUnavailable
}
func (stubGateway) RemoveItem(context.Context, string, int64) error {
	return cart.ErrGatewayUnavailable
}
func (stubGateway) Clear(context.Context, string) error {
	return cart.ErrGatewayUnavailable
}

type stubCatalog struct {
	collections map[int64]*catalog.Collection
}

func (s stubCatalog) GetCollection(_ context.Context, id int64) (*catalog.Collection, error) {
	if col, ok := s.collections[id]; ok {
		return col, nil
	}
	return nil, shared.ErrCollectionNotFound
}

func dec(t *testing.T, v string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(v)
	require.NoError(t, err)
	return d
}

func newTestServer(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := appcart.NewService(
		stubGateway{},
		stubCatalog{collections: map[int64]*catalog.Collection{
			10: {
				ID:        10,
				Name:      "Starter Kit",
				SalePrice: dec(t, "900.00"),
				Products: []catalog.Product{
					{ID: 1, Name: "Base", Price: dec(t, "500.00")},
					{ID: 2, Name: "Addon", Price: dec(t, "600.00")},
				},
			},
		}},
		cache.NewInMemoryStore(),
		zap.NewNop(),
	)

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.CartSession(), middleware.AuthState(middleware.AuthConfig{}))

	r := router.NewRouter(engine)
	r.RegisterRoot(NewSystemHandler())
	r.Register(NewCartHandler(svc))
	r.Setup()
	return engine
}

func doJSON(t *testing.T, engine *gin.Engine, method, path, session, body string) (*httptest.ResponseRecorder, dto.Response) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if session != "" {
		req.Header.Set(middleware.SessionHeader, session)
	}

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func cartData(t *testing.T, resp dto.Response) appcart.CartView {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	var view appcart.CartView
	require.NoError(t, json.Unmarshal(raw, &view))
	return view
}

func TestGetCart_IssuesSessionWhenMissing(t *testing.T) {
	engine := newTestServer(t)

	rec, resp := doJSON(t, engine, http.MethodGet, "/api/v1/cart", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
	assert.NotEmpty(t, rec.Header().Get(middleware.SessionHeader))

	view := cartData(t, resp)
	assert.Empty(t, view.Items)
	assert.Equal(t, "0.00", view.TotalPrice)
}

func TestAddItem_ThenGetCart(t *testing.T) {
	engine := newTestServer(t)

	rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/cart/items", "sess-1",
		`{"product_id": 7, "quantity": 2, "unit_price": "19.99"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	view := cartData(t, resp)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "39.98", view.TotalPrice)

	rec, resp = doJSON(t, engine, http.MethodGet, "/api/v1/cart", "sess-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	view = cartData(t, resp)
	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(7), view.Items[0].ProductID)
	assert.Equal(t, 2, view.Items[0].Quantity)
}

func TestAddItem_InvalidBody(t *testing.T) {
	engine := newTestServer(t)

	rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/cart/items", "sess-1", `{"quantity": 2}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBadRequest, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
}

func TestAddBundle_DiscountedTotal(t *testing.T) {
	engine := newTestServer(t)

	rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/cart/bundles", "sess-1", `{"collection_id": 10}`)
	require.Equal(t, http.StatusOK, rec.Code)

	view := cartData(t, resp)
	require.Len(t, view.Items, 2)
	require.Len(t, view.Bundles, 1)
	assert.Equal(t, "900.00", view.TotalPrice)
	assert.Equal(t, "1100.00", view.Bundles[0].OriginalPrice)
}

func TestAddBundle_UnknownCollection(t *testing.T) {
	engine := newTestServer(t)

	rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/cart/bundles", "sess-1", `{"collection_id": 99}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeNotFound, resp.Error.Code)
}

func TestUpdateItem_BadProductID(t *testing.T) {
	engine := newTestServer(t)

	rec, _ := doJSON(t, engine, http.MethodPut, "/api/v1/cart/items/abc", "sess-1", `{"quantity": 3}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSync_RequiresAuthentication(t *testing.T) {
	engine := newTestServer(t)

	rec, resp := doJSON(t, engine, http.MethodPost, "/api/v1/cart/sync", "sess-1", "")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeUnauthorized, resp.Error.Code)
}

func TestHealth(t *testing.T) {
	engine := newTestServer(t)

	rec, resp := doJSON(t, engine, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, resp.Success)
}
