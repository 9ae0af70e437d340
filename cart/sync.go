package cart

import (
	"context"
	"strings"
	"sync"

	"github.com/estora/storefront/errors"
	"github.com/estora/storefront/logger"
)

// Syncer is the single source of truth for cart UI state. It holds the last
// known server cart plus a layer of pending optimistic edits, and reconciles
// server responses against those edits: an edit is retired only once the
// server's state matches its intent, so a slow stale response can never
// visually undo a newer local change.
//
// One Syncer instance is shared by all consumers; state is mutated only
// through its methods.
type Syncer struct {
	client *Client
	log    *logger.Logger

	mu            sync.Mutex
	serverCart    *Cart
	pendingQty    map[string]int
	pendingHidden map[string]bool
	reading       bool
	mutating      int
	lastErr       error
}

// NewSyncer creates a Syncer with no cart loaded and no pending edits.
func NewSyncer(client *Client) *Syncer {
	return &Syncer{
		client:        client,
		log:           logger.WithComponent("cartsync"),
		pendingQty:    make(map[string]int),
		pendingHidden: make(map[string]bool),
	}
}

// Refresh fetches the cart from the backend. Reads are single-flight: a
// refresh issued while one is already outstanding is dropped, not queued.
// On failure the previous cart is kept; stale data beats a blanked view.
func (s *Syncer) Refresh(ctx context.Context) error {
	return s.refresh(ctx, true)
}

// refresh performs the read. A reconciling refresh (issued after a failed
// mutation) must not touch lastErr: its only job is to restore server
// truth, and erasing the mutation failure would hide it from consumers
// before they ever see it.
func (s *Syncer) refresh(ctx context.Context, recordErr bool) error {
	s.mu.Lock()
	if s.reading {
		s.mu.Unlock()
		return nil
	}
	s.reading = true
	s.mu.Unlock()

	cart, err := s.client.Get(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reading = false
	if err != nil {
		if recordErr {
			s.lastErr = err
		}
		s.log.Warn("Cart refresh failed", logger.ErrorFields("refresh", err))
		return err
	}
	s.merge(cart)
	if recordErr {
		s.lastErr = nil
	}
	return nil
}

// AddItem adds a product to the cart. There is no optimistic state for adds
// (no existing row to update); the response cart is merged on success and
// nothing changes locally on failure.
func (s *Syncer) AddItem(ctx context.Context, productID, quantity int) error {
	s.beginMutation()
	cart, err := s.client.Add(context.WithoutCancel(ctx), productID, quantity)
	s.mu.Lock()
	s.mutating--
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	s.merge(cart)
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// SetQuantity sets an item's absolute quantity. The override is applied to
// the local view immediately, before the backend call. On success the
// response cart is merged without a follow-up refresh (a refresh racing the
// mutation could visually revert the change). On failure the override stays
// visible, and a best-effort refresh reconciles against server truth.
func (s *Syncer) SetQuantity(ctx context.Context, itemKey string, quantity int) error {
	key := strings.TrimSpace(itemKey)
	if key == "" {
		return errors.MissingField("item_key")
	}
	qty := clampQuantity(quantity)

	s.mu.Lock()
	s.pendingQty[key] = qty
	s.mutating++
	s.mu.Unlock()

	cart, err := s.client.SetQuantity(context.WithoutCancel(ctx), key, qty)

	s.mu.Lock()
	s.mutating--
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		s.log.Warn("Quantity update failed, reconciling", logger.Fields(
			logger.FieldItemKey, key,
			logger.FieldQuantity, qty,
			logger.FieldError, err.Error(),
		))
		_ = s.refresh(context.WithoutCancel(ctx), false)
		return err
	}
	s.merge(cart)
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// RemoveItem removes an item. The item is hidden from the local view
// immediately. On failure the hide is rolled back — a hidden but still
// present item is misleading — and a best-effort refresh reconciles.
func (s *Syncer) RemoveItem(ctx context.Context, itemKey string) error {
	key := strings.TrimSpace(itemKey)
	if key == "" {
		return errors.MissingField("item_key")
	}

	s.mu.Lock()
	s.pendingHidden[key] = true
	s.mutating++
	s.mu.Unlock()

	cart, err := s.client.Remove(context.WithoutCancel(ctx), key)

	s.mu.Lock()
	s.mutating--
	if err != nil {
		delete(s.pendingHidden, key)
		s.lastErr = err
		s.mu.Unlock()
		s.log.Warn("Remove failed, restoring item", logger.Fields(
			logger.FieldItemKey, key,
			logger.FieldError, err.Error(),
		))
		_ = s.refresh(context.WithoutCancel(ctx), false)
		return err
	}
	s.merge(cart)
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Clear empties the cart.
func (s *Syncer) Clear(ctx context.Context) error {
	s.beginMutation()
	cart, err := s.client.Clear(context.WithoutCancel(ctx))
	s.mu.Lock()
	s.mutating--
	if err != nil {
		s.lastErr = err
		s.mu.Unlock()
		return err
	}
	s.merge(cart)
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// Reading reports whether a cart read is in flight.
func (s *Syncer) Reading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reading
}

// Mutating reports whether any cart mutation is in flight.
func (s *Syncer) Mutating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutating > 0
}

// LastError returns the most recent operation error, or nil.
func (s *Syncer) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Syncer) beginMutation() {
	s.mu.Lock()
	s.mutating++
	s.mu.Unlock()
}

// merge installs a fresh server cart and retires the pending edits it
// confirms. Caller must hold the lock. Retirement only checks equality
// against current server truth, so it is idempotent and tolerant of
// mutations resolving out of order.
func (s *Syncer) merge(cart *Cart) {
	s.serverCart = cart

	items := cart.Items()
	serverKeys := make(map[string]bool, len(items))
	for _, it := range items {
		key := it.Key()
		if key == "" {
			continue
		}
		serverKeys[key] = true
		if pq, ok := s.pendingQty[key]; ok && it.Quantity() == pq {
			delete(s.pendingQty, key)
		}
	}
	for key := range s.pendingHidden {
		if !serverKeys[key] {
			delete(s.pendingHidden, key)
		}
	}
}
