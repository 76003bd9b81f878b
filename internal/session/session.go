// Package session owns the per-session shopping state: the live cart, the
// discount-enabled flag, the quote cache, and the order history. State is
// loaded from the storage boundary at first access and the affected blob is
// persisted on every committed mutation. The domain packages stay pure; all
// state handling happens here.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/bazarshop/bazar-api/internal/domain/cart"
	"github.com/bazarshop/bazar-api/internal/domain/order"
	"github.com/bazarshop/bazar-api/internal/domain/product"
	"github.com/bazarshop/bazar-api/internal/domain/quote"
	"github.com/bazarshop/bazar-api/internal/storage"
)

// Storage keys, one independent blob per piece of state.
const (
	keyCart     = "cart"
	keyDiscount = "discountActive"
	keyQuotes   = "purchaseHistory"
	keyHistory  = "orderHistory"
)

// State is the complete session state. The core functions operate on it
// explicitly; nothing closes over ambient globals.
type State struct {
	Cart            cart.Cart
	DiscountEnabled bool
	Quotes          quote.Cache
	History         order.History
}

// Manager hands out sessions keyed by id, loading each one from storage on
// first access.
type Manager struct {
	kv      storage.KV
	fetcher quote.Fetcher
	now     func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the settlement clock. Used in tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager on top of the given storage and quote fetcher.
func NewManager(kv storage.KV, fetcher quote.Fetcher, opts ...Option) *Manager {
	m := &Manager{
		kv:       kv,
		fetcher:  fetcher,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Session returns the session for the given id, loading its state from
// storage the first time the id is seen.
func (m *Manager) Session(ctx context.Context, id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}

	s := &Session{
		id:      id,
		kv:      m.kv,
		fetcher: m.fetcher,
		now:     m.now,
	}
	s.state = s.load(ctx)
	m.sessions[id] = s
	return s
}

// Session serializes all mutations of one logical user's state. User actions
// arrive one at a time, but a service exposing the core must still serialize
// writes per session, so every operation holds the session mutex.
type Session struct {
	id      string
	kv      storage.KV
	fetcher quote.Fetcher
	now     func() time.Time

	mu    sync.Mutex
	state State
}

// load reads the four blobs, substituting safe empty defaults for absent or
// corrupt entries. It never fails the caller.
func (s *Session) load(ctx context.Context) State {
	st := State{
		Cart:    cart.Cart{},
		Quotes:  quote.Cache{},
		History: order.History{},
	}
	loadBlob(ctx, s.kv, s.id, keyCart, &st.Cart)
	loadBlob(ctx, s.kv, s.id, keyDiscount, &st.DiscountEnabled)
	loadBlob(ctx, s.kv, s.id, keyQuotes, &st.Quotes)
	loadBlob(ctx, s.kv, s.id, keyHistory, &st.History)
	if st.Quotes == nil {
		st.Quotes = quote.Cache{}
	}
	return st
}

// loadBlob decodes one blob into dst. Decoding goes through a temporary so a
// blob that fails mid-decode (json.Unmarshal keeps partially decoded state on
// type errors) leaves dst at its default instead of half-filled.
func loadBlob[T any](ctx context.Context, kv storage.KV, sessionID, key string, dst *T) {
	data, err := kv.Get(ctx, sessionID, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			zctx.From(ctx).Warn("Failed to load session blob, using default",
				zap.String("key", key),
				zap.Error(err),
			)
		}
		return
	}

	var decoded T
	if err := json.Unmarshal(data, &decoded); err != nil {
		zctx.From(ctx).Warn("Corrupt session blob, resetting to default",
			zap.String("key", key),
			zap.Error(err),
		)
		return
	}
	*dst = decoded
}

func (s *Session) persist(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "marshal %q", key)
	}
	if err := s.kv.Set(ctx, s.id, key, data); err != nil {
		return errors.Wrapf(err, "persist %q", key)
	}
	return nil
}

// AddToCart adds the product to the cart and fetches discount quotes for any
// cart lines that do not have one yet. The quote fetch is a fan-out: one
// concurrent request per missing product id, failures isolated per id.
func (s *Session) AddToCart(ctx context.Context, p product.Product) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newCart := cart.Add(s.state.Cart, p)
	if err := s.persist(ctx, keyCart, newCart); err != nil {
		return View{}, err
	}
	s.state.Cart = newCart

	newQuotes := quote.EnsureQuoted(ctx, s.state.Cart, s.state.Quotes, s.fetcher)
	if len(newQuotes) != len(s.state.Quotes) {
		if err := s.persist(ctx, keyQuotes, newQuotes); err != nil {
			return View{}, err
		}
	}
	s.state.Quotes = newQuotes

	return s.view(), nil
}

// RemoveFromCart removes the line for the given product id.
func (s *Session) RemoveFromCart(ctx context.Context, productID string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newCart := cart.Remove(s.state.Cart, productID)
	if err := s.persist(ctx, keyCart, newCart); err != nil {
		return View{}, err
	}
	s.state.Cart = newCart
	return s.view(), nil
}

// ChangeQuantity adjusts the line's quantity by delta; a result of zero or
// below removes the line.
func (s *Session) ChangeQuantity(ctx context.Context, productID string, delta int) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	newCart := cart.ChangeQuantity(s.state.Cart, productID, delta)
	if err := s.persist(ctx, keyCart, newCart); err != nil {
		return View{}, err
	}
	s.state.Cart = newCart
	return s.view(), nil
}

// SetDiscountEnabled flips the session-wide discount flag. Quotes stay
// cached regardless; the flag only gates whether they apply to pricing.
func (s *Session) SetDiscountEnabled(ctx context.Context, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.persist(ctx, keyDiscount, enabled); err != nil {
		return err
	}
	s.state.DiscountEnabled = enabled
	return nil
}

// DiscountEnabled reports the current discount flag.
func (s *Session) DiscountEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.DiscountEnabled
}

// Cart returns the reconciled cart view.
func (s *Session) Cart() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view()
}

// Checkout settles the cart into a new order and clears the cart. An empty
// cart is a silent no-op: settled is false and nothing changes. Both blobs
// must persist before any state is committed; if clearing the cart fails
// after the history write, the history blob is restored so a retried
// checkout does not settle the same cart twice.
func (s *Session) Checkout(ctx context.Context) (o order.Order, settled bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, newHistory, err := order.Settle(s.state.Cart, s.state.Quotes, s.state.DiscountEnabled, s.state.History, s.now())
	if err != nil {
		if errors.Is(err, order.ErrEmptyCart) {
			return order.Order{}, false, nil
		}
		return order.Order{}, false, err
	}

	if err := s.persist(ctx, keyHistory, newHistory); err != nil {
		return order.Order{}, false, err
	}

	emptyCart := cart.Cart{}
	if err := s.persist(ctx, keyCart, emptyCart); err != nil {
		if rbErr := s.persist(ctx, keyHistory, s.state.History); rbErr != nil {
			zctx.From(ctx).Warn("Failed to restore order history after cart clear failure",
				zap.Error(rbErr),
			)
		}
		return order.Order{}, false, err
	}

	s.state.History = newHistory
	s.state.Cart = emptyCart
	return o, true, nil
}

// History returns the order history in insertion order, newest first.
func (s *Session) History() order.History {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(order.History, len(s.state.History))
	copy(out, s.state.History)
	return out
}

// SortedHistory returns a chronologically sorted view of the history.
func (s *Session) SortedHistory(direction order.SortDirection) order.History {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.History.SortByDate(direction)
}

// Stats returns dashboard aggregates over the order history.
func (s *Session) Stats() order.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.History.Stats()
}

// UpdateOrderStatus changes the status of the matching order. Unknown order
// ids are a no-op.
func (s *Session) UpdateOrderStatus(ctx context.Context, orderID string, status order.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	newHistory := s.state.History.UpdateStatus(orderID, status)
	if err := s.persist(ctx, keyHistory, newHistory); err != nil {
		return err
	}
	s.state.History = newHistory
	return nil
}
