package cartclient

import (
	"context"
	"log/slog"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mattparisien/becoming-front/internal/domain"
)

// CartTransport is the cart API as the store uses it. *Transport implements it.
type CartTransport interface {
	Get(ctx context.Context) (*domain.Cart, error)
	AddLines(ctx context.Context, lines []domain.LineInput) (*domain.Cart, error)
	UpdateLines(ctx context.Context, lines []domain.LineUpdate) (*domain.Cart, error)
	RemoveLines(ctx context.Context, lineIDs []string) (*domain.Cart, error)
	Clear(ctx context.Context) error
}

// Navigator sends the shopper to a URL, e.g. the hosted checkout.
type Navigator interface {
	Navigate(url string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(url string)

// Navigate calls f(url).
func (f NavigatorFunc) Navigate(url string) { f(url) }

// State is the store's view of the cart.
type State struct {
	CartID        *string
	CheckoutURL   *string
	Items         []domain.CartLine
	TotalQuantity int
	Cost          *domain.Cost
	IsInitialized bool
	IsLoading     bool
	Error         *string
}

func (s State) clone() State {
	out := s
	out.Items = append([]domain.CartLine(nil), s.Items...)
	if out.Items == nil {
		out.Items = []domain.CartLine{}
	}
	if s.CartID != nil {
		v := *s.CartID
		out.CartID = &v
	}
	if s.CheckoutURL != nil {
		v := *s.CheckoutURL
		out.CheckoutURL = &v
	}
	if s.Cost != nil {
		v := *s.Cost
		out.Cost = &v
	}
	if s.Error != nil {
		v := *s.Error
		out.Error = &v
	}
	return out
}

// apply replaces the cart fields with the server snapshot c.
func (s *State) apply(c *domain.Cart) {
	c = c.Clone()
	s.CartID = c.ID
	s.CheckoutURL = c.CheckoutURL
	s.Items = c.Items
	if s.Items == nil {
		s.Items = []domain.CartLine{}
	}
	s.TotalQuantity = c.TotalQuantity
	s.Cost = c.Cost
}

// recalculate derives the quantity and totals from the lines the way the
// cart itself does until the server answers.
func (s *State) recalculate() {
	c := domain.Cart{Items: s.Items, Cost: s.Cost}
	c.Recalculate()
	s.Items = c.Items
	s.TotalQuantity = c.TotalQuantity
	s.Cost = c.Cost
}

func (s *State) fail(err error) {
	msg := err.Error()
	s.Error = &msg
}

// Option configures a Store.
type Option func(*Store)

// WithNavigator sets where Checkout sends the shopper.
func WithNavigator(n Navigator) Option {
	return func(s *Store) { s.navigator = n }
}

// WithLogger sets the logger used for failed cart calls.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store caches the server cart and applies mutations through the transport.
// Quantity changes and removals are shown immediately and reconciled with the
// server's answer, or rolled back when the call fails. Concurrent mutations
// are not serialized: the last response to land wins.
type Store struct {
	transport CartTransport
	navigator Navigator
	logger    *slog.Logger

	initMu sync.Mutex

	mu        sync.Mutex
	state     State
	listeners map[int]func(State)
	nextID    int
}

// NewStore creates an empty, uninitialized store.
func NewStore(transport CartTransport, opts ...Option) *Store {
	s := &Store{
		transport: transport,
		navigator: NavigatorFunc(func(string) {}),
		logger:    slog.Default(),
		state:     State{Items: []domain.CartLine{}},
		listeners: make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to receive every new state, optimistic ones
// included. The returned func removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update mutates the state under the lock and notifies listeners outside it.
func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	snap := s.state.clone()
	listeners := make([]func(State), 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap.clone())
	}
}

func (s *Store) read(fn func(State) bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

// InitializeCart loads the cart once. Later and concurrent calls wait for
// the first and then return without a request. A failed load still marks the
// store initialized so callers do not loop on it.
func (s *Store) InitializeCart(ctx context.Context) error {
	s.initMu.Lock()
	defer s.initMu.Unlock()

	if s.read(func(st State) bool { return st.IsInitialized }) {
		return nil
	}

	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = nil
	})

	cart, err := s.transport.Get(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to initialize cart", slog.String("error", err.Error()))
		s.update(func(st *State) {
			st.IsInitialized = true
			st.IsLoading = false
			st.fail(err)
		})
		return err
	}

	s.update(func(st *State) {
		st.apply(cart)
		st.IsInitialized = true
		st.IsLoading = false
	})
	return nil
}

// AddItem adds quantity of a variant, creating the cart if there is none.
// The server's snapshot replaces the local one; nothing is predicted
// locally since the cart id may change.
func (s *Store) AddItem(ctx context.Context, variantID string, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = nil
	})

	cart, err := s.transport.AddLines(ctx, []domain.LineInput{{MerchandiseID: variantID, Quantity: quantity}})
	if err != nil {
		s.logger.WarnContext(ctx, "failed to add item",
			slog.String("variant_id", variantID),
			slog.String("error", err.Error()),
		)
		s.update(func(st *State) {
			st.IsLoading = false
			st.fail(err)
		})
		return err
	}

	s.update(func(st *State) {
		st.apply(cart)
		st.IsLoading = false
		st.IsInitialized = true
	})
	return nil
}

// UpdateQuantity sets a line's quantity. Zero or less removes the line.
// Without a cart it does nothing.
func (s *Store) UpdateQuantity(ctx context.Context, lineID string, quantity int) error {
	if !s.hasCart() {
		return nil
	}
	if quantity <= 0 {
		return s.RemoveItem(ctx, lineID)
	}

	return withOptimisticUpdate(ctx, s,
		func(st *State) {
			for i := range st.Items {
				if st.Items[i].LineID == lineID {
					st.Items[i].Quantity = quantity
				}
			}
			st.recalculate()
		},
		func(ctx context.Context) (*domain.Cart, error) {
			return s.transport.UpdateLines(ctx, []domain.LineUpdate{{ID: lineID, Quantity: quantity}})
		},
		(*State).apply,
		s.revertLogged("failed to update quantity", lineID),
	)
}

// RemoveItem removes a line. Without a cart it does nothing.
func (s *Store) RemoveItem(ctx context.Context, lineID string) error {
	if !s.hasCart() {
		return nil
	}

	return withOptimisticUpdate(ctx, s,
		func(st *State) {
			kept := st.Items[:0]
			for _, l := range st.Items {
				if l.LineID != lineID {
					kept = append(kept, l)
				}
			}
			st.Items = kept
			st.recalculate()
		},
		func(ctx context.Context) (*domain.Cart, error) {
			return s.transport.RemoveLines(ctx, []string{lineID})
		},
		(*State).apply,
		s.revertLogged("failed to remove item", lineID),
	)
}

// ClearCart forgets the cart. On success the state is empty but stays
// initialized.
func (s *Store) ClearCart(ctx context.Context) error {
	s.update(func(st *State) {
		st.IsLoading = true
		st.Error = nil
	})

	if err := s.transport.Clear(ctx); err != nil {
		s.logger.WarnContext(ctx, "failed to clear cart", slog.String("error", err.Error()))
		s.update(func(st *State) {
			st.IsLoading = false
			st.fail(err)
		})
		return err
	}

	s.update(func(st *State) {
		*st = State{
			Items:         []domain.CartLine{},
			IsInitialized: st.IsInitialized,
		}
	})
	return nil
}

// Checkout hands the checkout URL, if any, to the navigator. It does not
// change the state.
func (s *Store) Checkout() (string, bool) {
	s.mu.Lock()
	var url string
	if s.state.CheckoutURL != nil {
		url = *s.state.CheckoutURL
	}
	s.mu.Unlock()

	if url == "" {
		return "", false
	}
	s.navigator.Navigate(url)
	return url, true
}

// TotalItems returns the cart's total quantity.
func (s *Store) TotalItems() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.TotalQuantity
}

// TotalPrice returns the cart total, zero without a cost.
func (s *Store) TotalPrice() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Cost == nil {
		return decimal.Zero
	}
	return s.state.Cost.Total
}

func (s *Store) hasCart() bool {
	return s.read(func(st State) bool { return st.CartID != nil })
}

func (s *Store) revertLogged(msg, lineID string) func(*State, error) {
	return func(st *State, err error) {
		s.logger.Warn(msg,
			slog.String("line_id", lineID),
			slog.String("error", err.Error()),
		)
		st.fail(err)
	}
}

// withOptimisticUpdate applies edit to the state at once, then runs remote.
// On success reconcile receives the result. On failure the state taken
// before the edit is restored in full and revert receives the error.
func withOptimisticUpdate[R any](
	ctx context.Context,
	s *Store,
	edit func(*State),
	remote func(context.Context) (R, error),
	reconcile func(*State, R),
	revert func(*State, error),
) error {
	var before State
	s.update(func(st *State) {
		before = st.clone()
		edit(st)
	})

	result, err := remote(ctx)
	if err != nil {
		s.update(func(st *State) {
			*st = before
			revert(st, err)
		})
		return err
	}

	s.update(func(st *State) {
		reconcile(st, result)
	})
	return nil
}
