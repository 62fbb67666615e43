// Package store holds the shared shop state: catalog stock, the cart, its
// running totals, and the account record. Every operation runs under one
// exclusive lock so concurrent connections observe linearized updates; the
// coupled invariant (stock + cart + totals) requires atomic multi-field
// updates.
package store

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mkrishnan-dev/watch-shop-server/internal/model"
	"github.com/mkrishnan-dev/watch-shop-server/internal/persist"
)

var (
	// ErrInvalidProduct is returned for a product index outside the catalog.
	ErrInvalidProduct = errors.New("invalid product selection")
	// ErrEmptyCart is returned when checking out with nothing reserved.
	ErrEmptyCart = errors.New("cart is empty")
)

// InsufficientStockError is returned when a reservation exceeds the
// remaining stock of a product.
type InsufficientStockError struct {
	Product string
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.Product)
}

// SaveFailure reports which record could not be persisted.
type SaveFailure struct {
	Record string // "account" or "cart"
	Err    error
}

func (e *SaveFailure) Error() string {
	return fmt.Sprintf("save %s: %v", e.Record, e.Err)
}

func (e *SaveFailure) Unwrap() error { return e.Err }

// Persister is the durable storage the store saves to and restores from.
// *persist.FileStore implements it.
type Persister interface {
	SaveAccount(model.Account) error
	SaveCart(model.CartState) error
	LoadAccount() (model.Account, bool, error)
	LoadCart(products int) (model.CartState, bool, error)
}

// Store owns the shared state. Construct it with New and pass it to every
// connection handler; the state is never ambient.
type Store struct {
	mu         sync.Mutex
	products   []model.Product
	cart       []int
	totalItems int
	totalCost  int
	account    model.Account
	accountSet bool
}

// New creates a Store seeded with a copy of the given catalog.
func New(catalog []model.Product) *Store {
	products := make([]model.Product, len(catalog))
	copy(products, catalog)
	return &Store{
		products: products,
		cart:     make([]int, len(catalog)),
	}
}

// Reserve moves qty units of the product at index (0-based) from stock into
// the cart and updates the totals. It returns the product for confirmation.
func (s *Store) Reserve(index, qty int) (model.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.products) {
		return model.Product{}, ErrInvalidProduct
	}
	if qty < 1 {
		return model.Product{}, ErrInvalidProduct
	}
	p := s.products[index]
	if qty > p.Stock {
		return model.Product{}, &InsufficientStockError{Product: p.Name}
	}

	s.products[index].Stock -= qty
	s.cart[index] += qty
	s.totalItems += qty
	s.totalCost += qty * p.Price
	return s.products[index], nil
}

// Snapshot returns a copy of the current cart lines and totals.
func (s *Store) Snapshot() model.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() model.CartSnapshot {
	snap := model.CartSnapshot{
		TotalItems: s.totalItems,
		TotalCost:  s.totalCost,
	}
	for i, q := range s.cart {
		if q > 0 {
			snap.Lines = append(snap.Lines, model.CartLine{
				Index:    i,
				Name:     s.products[i].Name,
				Price:    s.products[i].Price,
				Quantity: q,
			})
		}
	}
	return snap
}

// Checkout clears the cart, returning each reserved quantity to product
// stock, and resets the totals. It returns the released snapshot.
func (s *Store) Checkout() (model.CartSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.totalItems == 0 {
		return model.CartSnapshot{}, ErrEmptyCart
	}

	released := s.snapshotLocked()
	for i, q := range s.cart {
		s.products[i].Stock += q
		s.cart[i] = 0
	}
	s.totalItems = 0
	s.totalCost = 0
	return released, nil
}

// SetAccount overwrites the account record wholesale and marks it created.
// It returns the stored copy for the confirmation echo.
func (s *Store) SetAccount(a model.Account) (model.Account, error) {
	if err := a.Validate(); err != nil {
		return model.Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.account = a
	s.accountSet = true
	return s.account, nil
}

// Account returns a copy of the record and whether it was ever populated.
func (s *Store) Account() (model.Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account, s.accountSet
}

// Catalog returns a copy of the catalog with current stock levels.
func (s *Store) Catalog() []model.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Product, len(s.products))
	copy(out, s.products)
	return out
}

// Save writes the account and cart through p. The file I/O runs inside the
// critical section so a save can never interleave with a mutation.
func (s *Store) Save(p Persister) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := p.SaveAccount(s.account); err != nil {
		return &SaveFailure{Record: "account", Err: err}
	}
	st := model.CartState{
		Quantities: make([]int, len(s.cart)),
		TotalCost:  s.totalCost,
		TotalItems: s.totalItems,
	}
	copy(st.Quantities, s.cart)
	if err := p.SaveCart(st); err != nil {
		return &SaveFailure{Record: "cart", Err: err}
	}
	return nil
}

// Load reads the account and cart through p and applies both records, or
// neither if either one fails validation. Missing records leave the current
// state in place.
func (s *Store) Load(p Persister) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	acct, acctFound, err := p.LoadAccount()
	if err != nil {
		return fmt.Errorf("load account: %w", err)
	}
	cart, cartFound, err := p.LoadCart(len(s.products))
	if err != nil {
		return fmt.Errorf("load cart: %w", err)
	}
	if cartFound {
		if err := s.checkCartState(cart); err != nil {
			return fmt.Errorf("load cart: %w", err)
		}
	}

	// Validation passed for everything found; apply.
	if acctFound {
		s.account = acct
		s.accountSet = acct != model.Account{}
	}
	if cartFound {
		copy(s.cart, cart.Quantities)
		s.totalCost = cart.TotalCost
		s.totalItems = cart.TotalItems
	}
	return nil
}

// checkCartState cross-checks stored totals against the quantities, the one
// place totals are recomputed by full scan.
func (s *Store) checkCartState(st model.CartState) error {
	items, cost := 0, 0
	for i, q := range st.Quantities {
		items += q
		cost += q * s.products[i].Price
	}
	if items != st.TotalItems || cost != st.TotalCost {
		return fmt.Errorf("%w: totals do not match quantities", persist.ErrCorruptData)
	}
	return nil
}
