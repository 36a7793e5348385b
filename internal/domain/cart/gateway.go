package cart

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Remote gateway errors. Callers match with errors.Is; adapters wrap these
// with request detail.
var (
	// ErrSessionExpired signals a 401 from the commerce platform. The
	// coordinator falls back to the durable anonymous cart; forcing a
	// re-login is the auth subsystem's job, not the cart's.
	ErrSessionExpired = errors.New("cart gateway: session expired or invalid")

	// ErrGatewayUnavailable signals a transport-level failure reaching the
	// commerce platform.
	ErrGatewayUnavailable = errors.New("cart gateway: platform unavailable")

	// ErrGatewayRequestFailed signals a non-401 error response from the
	// commerce platform.
	ErrGatewayRequestFailed = errors.New("cart gateway: request failed")

	// ErrGatewayInvalidResponse signals a response body that could not be
	// decoded.
	ErrGatewayInvalidResponse = errors.New("cart gateway: invalid response")
)

// RemoteItem is a cart line as reported by the commerce platform. ID is the
// platform's line-item identifier, required for absolute quantity updates
// and removals.
type RemoteItem struct {
	ID        int64
	ProductID int64
	Quantity  int
	UnitPrice decimal.Decimal
	Variant   string
}

// RemoteGateway is the stateless client surface of the authenticated cart
// API. Every call authenticates with the bearer credential supplied by the
// session; the gateway holds no per-user state.
type RemoteGateway interface {
	// GetCart returns the authenticated user's current cart lines
	GetCart(ctx context.Context, credential string) ([]RemoteItem, error)

	// AddItem merges productID/quantity into the server cart. The server
	// may merge duplicate product adds itself, which is why callers reload
	// the full cart rather than patching locally.
	AddItem(ctx context.Context, credential string, productID int64, quantity int) error

	// UpdateItem sets the absolute quantity of a server cart line
	UpdateItem(ctx context.Context, credential string, remoteItemID int64, quantity int) error

	// RemoveItem deletes a single server cart line
	RemoveItem(ctx context.Context, credential string, remoteItemID int64) error

	// Clear empties the authenticated cart
	Clear(ctx context.Context, credential string) error
}
