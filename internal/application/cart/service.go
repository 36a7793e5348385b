package cart

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// session is the in-memory owner of one cart. The mutex serializes every
// mutation for the session, including the remote round-trip, so a stale
// reload can never interleave over a newer intent. The epoch advances on
// every auth transition; a reload started under one epoch is discarded if
// the epoch moved, so a response from a previous auth state can never land
// in the next one.
type session struct {
	id            string
	mu            sync.Mutex
	cart          *cart.Cart
	authenticated bool
	hydrated      bool
	epoch         uint64
}

// Service coordinates cart state between the in-memory session carts, the
// durable stash, and the remote commerce platform. It is the only component
// aware of the authenticated/anonymous distinction.
//
// Routing: anonymous mutations apply in memory and are stashed durably;
// authenticated mutations call the platform first and reload the full cart
// on success, since the server is authoritative for quantities. Bundles are
// never synced to the platform; they are a local pricing overlay stashed
// durably for both modes.
type Service struct {
	gateway cart.RemoteGateway
	catalog catalog.Catalog
	stash   *Stash
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService creates the cart coordinator
func NewService(gateway cart.RemoteGateway, cat catalog.Catalog, store shared.KeyValueStore, logger *zap.Logger) *Service {
	return &Service{
		gateway:  gateway,
		catalog:  cat,
		stash:    NewStash(store),
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// GetCart returns the current cart view, hydrating the session on first use
func (s *Service) GetCart(ctx context.Context, sessionID string, auth AuthState) (*CartView, error) {
	return s.withSession(ctx, sessionID, auth, nil)
}

// AddItem adds a product to the cart. Quantity < 1 is an explicit
// non-mutation and returns the unchanged view.
func (s *Service) AddItem(ctx context.Context, sessionID string, auth AuthState, req AddItemRequest) (*CartView, error) {
	return s.withSession(ctx, sessionID, auth, func(ctx context.Context, sess *session) error {
		if req.Quantity < 1 {
			return nil
		}
		if sess.authenticated {
			if err := s.gateway.AddItem(ctx, auth.Credential, req.ProductID, req.Quantity); err != nil {
				return err
			}
			s.reloadOr(ctx, sess, auth, func() {
				sess.cart.AddItem(req.ProductID, req.Quantity, req.UnitPrice, req.Variant, nil)
			})
		} else {
			sess.cart.AddItem(req.ProductID, req.Quantity, req.UnitPrice, req.Variant, nil)
		}
		return s.persistState(ctx, sess)
	})
}

// UpdateQuantity sets an absolute quantity; <= 0 removes the item. Unknown
// products are a no-op.
func (s *Service) UpdateQuantity(ctx context.Context, sessionID string, auth AuthState, productID int64, quantity int) (*CartView, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, sessionID, auth, productID)
	}
	return s.withSession(ctx, sessionID, auth, func(ctx context.Context, sess *session) error {
		if _, ok := sess.cart.Item(productID); !ok {
			return nil
		}
		if sess.authenticated {
			remoteID, ok := s.resolveRemoteID(ctx, sess, auth, productID)
			if !ok {
				return nil
			}
			if err := s.gateway.UpdateItem(ctx, auth.Credential, remoteID, quantity); err != nil {
				return err
			}
			s.reloadOr(ctx, sess, auth, func() {
				sess.cart.UpdateQuantity(productID, quantity)
			})
		} else {
			sess.cart.UpdateQuantity(productID, quantity)
		}
		return s.persistState(ctx, sess)
	})
}

// RemoveItem deletes a cart line; bundles broken by the removal are pruned
func (s *Service) RemoveItem(ctx context.Context, sessionID string, auth AuthState, productID int64) (*CartView, error) {
	return s.withSession(ctx, sessionID, auth, func(ctx context.Context, sess *session) error {
		if _, ok := sess.cart.Item(productID); !ok {
			return nil
		}
		if sess.authenticated {
			remoteID, ok := s.resolveRemoteID(ctx, sess, auth, productID)
			if !ok {
				return nil
			}
			if err := s.gateway.RemoveItem(ctx, auth.Credential, remoteID); err != nil {
				return err
			}
			s.reloadOr(ctx, sess, auth, func() {
				sess.cart.RemoveItem(productID)
			})
		} else {
			sess.cart.RemoveItem(productID)
		}
		return s.persistState(ctx, sess)
	})
}

// Clear empties the cart on both backends and removes the stashed keys
func (s *Service) Clear(ctx context.Context, sessionID string, auth AuthState) (*CartView, error) {
	return s.withSession(ctx, sessionID, auth, func(ctx context.Context, sess *session) error {
		if sess.authenticated {
			if err := s.gateway.Clear(ctx, auth.Credential); err != nil {
				return err
			}
		}
		sess.cart.Clear()
		if err := s.stash.RemoveItems(ctx, sess.id); err != nil {
			return err
		}
		return s.stash.RemoveBundles(ctx, sess.id)
	})
}

// AddBundle resolves the collection from the catalog and adds it to the
// cart: one of each member product plus the local bundle record. Idempotent
// by collection id.
func (s *Service) AddBundle(ctx context.Context, sessionID string, auth AuthState, collectionID int64) (*CartView, error) {
	return s.withSession(ctx, sessionID, auth, func(ctx context.Context, sess *session) error {
		if sess.cart.HasBundle(collectionID) {
			return nil
		}
		col, err := s.catalog.GetCollection(ctx, collectionID)
		if err != nil {
			return err
		}
		bundle := cart.Bundle{
			ID:               col.ID,
			Name:             col.Name,
			SalePrice:        col.SalePrice,
			OriginalPrice:    col.OriginalPrice(),
			MemberProductIDs: col.MemberProductIDs(),
		}
		members := make([]cart.Item, 0, len(col.Products))
		for _, p := range col.Products {
			members = append(members, cart.Item{ProductID: p.ID, UnitPrice: p.Price, Variant: p.Variant})
		}

		if sess.authenticated {
			// Sequential adds: the platform merges duplicate products
			// itself and must not see interleaved adds for one session.
			for _, m := range members {
				if err := s.gateway.AddItem(ctx, auth.Credential, m.ProductID, 1); err != nil {
					return err
				}
			}
			s.reloadOr(ctx, sess, auth, func() {
				for _, m := range members {
					bundleID := bundle.ID
					sess.cart.AddItem(m.ProductID, 1, m.UnitPrice, m.Variant, &bundleID)
				}
			})
			sess.cart.AddBundle(bundle, nil)
		} else {
			sess.cart.AddBundle(bundle, members)
		}
		return s.persistState(ctx, sess)
	})
}

// RemoveBundle removes every member item of the bundle and its record.
// Unknown bundle ids are a no-op.
func (s *Service) RemoveBundle(ctx context.Context, sessionID string, auth AuthState, bundleID int64) (*CartView, error) {
	return s.withSession(ctx, sessionID, auth, func(ctx context.Context, sess *session) error {
		if !sess.cart.HasBundle(bundleID) {
			return nil
		}
		if sess.authenticated {
			var memberIDs []int64
			for _, b := range sess.cart.Bundles() {
				if b.ID == bundleID {
					memberIDs = b.MemberProductIDs
					break
				}
			}
			for _, productID := range memberIDs {
				item, ok := sess.cart.Item(productID)
				if !ok || item.RemoteID == nil {
					continue
				}
				if err := s.gateway.RemoveItem(ctx, auth.Credential, *item.RemoteID); err != nil {
					return err
				}
			}
			s.reloadOr(ctx, sess, auth, nil)
		}
		sess.cart.RemoveBundle(bundleID)
		return s.persistState(ctx, sess)
	})
}

// Sync is the explicit re-migration trigger: it replays any stashed
// anonymous cart into the authenticated server cart and reloads. Anonymous
// sessions cannot sync.
func (s *Service) Sync(ctx context.Context, sessionID string, auth AuthState) (*CartView, error) {
	return s.withSession(ctx, sessionID, auth, func(ctx context.Context, sess *session) error {
		if !sess.authenticated {
			return shared.ErrUnauthorized
		}
		s.migrate(ctx, sess, auth)
		return nil
	})
}

// withSession runs fn under the session lock after hydration and auth
// transition handling, and returns a freshly recomputed view.
func (s *Service) withSession(ctx context.Context, sessionID string, auth AuthState, fn func(context.Context, *session) error) (*CartView, error) {
	if sessionID == "" {
		return nil, shared.ErrSessionRequired
	}
	sess := s.session(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	s.ensureState(ctx, sess, auth)
	if fn != nil {
		if err := fn(ctx, sess); err != nil {
			return nil, err
		}
	}
	return ToCartView(sess.cart), nil
}

func (s *Service) session(id string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess
	}
	sess := &session{id: id, cart: cart.NewCart()}
	s.sessions[id] = sess
	return sess
}

// ensureState hydrates the session on first use and applies auth
// transitions: login triggers the one-time migration, logout clears the
// in-memory cart (the server cart persists for the next login; anonymous
// browsing starts fresh).
func (s *Service) ensureState(ctx context.Context, sess *session, auth AuthState) {
	if !sess.hydrated {
		sess.hydrated = true
		sess.authenticated = auth.Authenticated

		if auth.Authenticated {
			s.loadFromServer(ctx, sess, auth)
		} else {
			items, err := s.stash.LoadItems(ctx, sess.id)
			if err != nil {
				s.logger.Warn("failed to load stashed cart", zap.String("session", sess.id), zap.Error(err))
			}
			sess.cart.ReplaceItems(items)
		}

		bundles, err := s.stash.LoadBundles(ctx, sess.id)
		if err != nil {
			s.logger.Warn("failed to load stashed bundles", zap.String("session", sess.id), zap.Error(err))
		}
		sess.cart.SetBundles(bundles)
		return
	}

	switch {
	case auth.Authenticated && !sess.authenticated:
		sess.epoch++
		sess.authenticated = true
		s.migrate(ctx, sess, auth)
	case !auth.Authenticated && sess.authenticated:
		sess.epoch++
		sess.authenticated = false
		sess.cart.Clear()
	}
}

// migrate replays the stashed anonymous cart into the server cart,
// sequentially so the platform never sees interleaved duplicate-product
// merges. A failed item is logged and skipped; losing one migration item is
// less harmful than blocking login. The stash is removed afterwards and the
// cart reloaded from the server.
func (s *Service) migrate(ctx context.Context, sess *session, auth AuthState) {
	items, err := s.stash.LoadItems(ctx, sess.id)
	if err != nil {
		s.logger.Error("cart migration: failed to read stashed cart", zap.String("session", sess.id), zap.Error(err))
	}
	if len(items) > 0 {
		for _, item := range items {
			if err := s.gateway.AddItem(ctx, auth.Credential, item.ProductID, item.Quantity); err != nil {
				s.logger.Error("cart migration: item replay failed",
					zap.String("session", sess.id),
					zap.Int64("product_id", item.ProductID),
					zap.Error(err))
			}
		}
		if err := s.stash.RemoveItems(ctx, sess.id); err != nil {
			s.logger.Error("cart migration: failed to remove stashed cart", zap.String("session", sess.id), zap.Error(err))
		}
	}
	s.loadFromServer(ctx, sess, auth)
}

// loadFromServer replaces the in-memory items with the platform's cart.
// When the read fails, typically an expired session, the stashed anonymous
// cart is shown instead of a blank one; re-authentication is the auth
// subsystem's problem.
func (s *Service) loadFromServer(ctx context.Context, sess *session, auth AuthState) {
	epoch := sess.epoch
	remote, err := s.gateway.GetCart(ctx, auth.Credential)
	if err != nil {
		s.logger.Warn("remote cart read failed, falling back to stashed cart",
			zap.String("session", sess.id), zap.Error(err))
		items, serr := s.stash.LoadItems(ctx, sess.id)
		if serr != nil {
			s.logger.Error("stash fallback failed", zap.String("session", sess.id), zap.Error(serr))
			return
		}
		if sess.epoch != epoch {
			return
		}
		sess.cart.ReplaceItems(items)
		return
	}
	if sess.epoch != epoch {
		return
	}
	sess.cart.ReplaceItems(remoteToItems(remote))
}

// reloadOr reloads the full cart after a successful remote write; the write
// went through, so if the reload fails the local patch keeps the view from
// going stale until the next successful read.
func (s *Service) reloadOr(ctx context.Context, sess *session, auth AuthState, patch func()) {
	epoch := sess.epoch
	remote, err := s.gateway.GetCart(ctx, auth.Credential)
	if err != nil {
		s.logger.Warn("cart reload after mutation failed", zap.String("session", sess.id), zap.Error(err))
		if patch != nil {
			patch()
		}
		return
	}
	if sess.epoch != epoch {
		return
	}
	sess.cart.ReplaceItems(remoteToItems(remote))
}

// resolveRemoteID finds the platform line-item id for a product, reloading
// once when the local item has not been mapped yet
func (s *Service) resolveRemoteID(ctx context.Context, sess *session, auth AuthState, productID int64) (int64, bool) {
	if item, ok := sess.cart.Item(productID); ok && item.RemoteID != nil {
		return *item.RemoteID, true
	}
	s.loadFromServer(ctx, sess, auth)
	if item, ok := sess.cart.Item(productID); ok && item.RemoteID != nil {
		return *item.RemoteID, true
	}
	return 0, false
}

// persistState writes the durable overlay after a mutation: anonymous
// sessions stash both items and bundles, authenticated sessions stash only
// the bundle overlay (the server owns the items).
func (s *Service) persistState(ctx context.Context, sess *session) error {
	if !sess.authenticated {
		if err := s.stash.SaveItems(ctx, sess.id, sess.cart.Items()); err != nil {
			return err
		}
	}
	return s.stash.SaveBundles(ctx, sess.id, sess.cart.Bundles())
}

func remoteToItems(remote []cart.RemoteItem) []cart.Item {
	items := make([]cart.Item, 0, len(remote))
	for _, r := range remote {
		remoteID := r.ID
		items = append(items, cart.Item{
			ProductID: r.ProductID,
			Quantity:  r.Quantity,
			UnitPrice: r.UnitPrice,
			Variant:   r.Variant,
			RemoteID:  &remoteID,
		})
	}
	return items
}
