package store

import (
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkrishnan-dev/watch-shop-server/internal/model"
	"github.com/mkrishnan-dev/watch-shop-server/internal/persist"
)

func testCatalog() []model.Product {
	return []model.Product{
		{Name: "A", Price: 100, Stock: 5},
		{Name: "B", Price: 250, Stock: 3},
	}
}

func TestReserveUpdatesStockCartAndTotals(t *testing.T) {
	s := New(testCatalog())

	p, err := s.Reserve(0, 3)
	require.NoError(t, err)
	assert.Equal(t, "A", p.Name)

	cat := s.Catalog()
	assert.Equal(t, 2, cat[0].Stock)
	assert.Equal(t, 3, cat[1].Stock)

	snap := s.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.Equal(t, 3, snap.Lines[0].Quantity)
	assert.Equal(t, 3, snap.TotalItems)
	assert.Equal(t, 300, snap.TotalCost)
}

func TestReserveWholeStock(t *testing.T) {
	s := New(testCatalog())
	_, err := s.Reserve(1, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Catalog()[1].Stock)
}

func TestReserveInvalidIndex(t *testing.T) {
	s := New(testCatalog())
	for _, index := range []int{-1, 2, 99} {
		_, err := s.Reserve(index, 1)
		assert.ErrorIs(t, err, ErrInvalidProduct, "index %d", index)
	}
	assert.Equal(t, 0, s.Snapshot().TotalItems)
}

func TestReserveRejectsNonPositiveQuantity(t *testing.T) {
	s := New(testCatalog())
	for _, qty := range []int{0, -1} {
		_, err := s.Reserve(0, qty)
		assert.ErrorIs(t, err, ErrInvalidProduct, "qty %d", qty)
	}
	assert.Equal(t, 5, s.Catalog()[0].Stock)
	assert.Equal(t, 0, s.Snapshot().TotalItems)
}

func TestReserveInsufficientStockLeavesStateUnchanged(t *testing.T) {
	s := New(testCatalog())

	_, err := s.Reserve(0, 6)
	var short *InsufficientStockError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, "A", short.Product)

	assert.Equal(t, 5, s.Catalog()[0].Stock)
	snap := s.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.Equal(t, 0, snap.TotalItems)
	assert.Equal(t, 0, snap.TotalCost)
}

func TestCheckoutEmptyCart(t *testing.T) {
	s := New(testCatalog())
	_, err := s.Checkout()
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, 5, s.Catalog()[0].Stock)
}

func TestCheckoutRestoresStockAndResetsTotals(t *testing.T) {
	s := New(testCatalog())
	_, err := s.Reserve(0, 2)
	require.NoError(t, err)
	_, err = s.Reserve(1, 1)
	require.NoError(t, err)

	released, err := s.Checkout()
	require.NoError(t, err)
	assert.Equal(t, 3, released.TotalItems)
	assert.Equal(t, 450, released.TotalCost)

	cat := s.Catalog()
	assert.Equal(t, 5, cat[0].Stock)
	assert.Equal(t, 3, cat[1].Stock)
	snap := s.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.Equal(t, 0, snap.TotalItems)
	assert.Equal(t, 0, snap.TotalCost)
}

func TestSetAccount(t *testing.T) {
	s := New(testCatalog())

	_, created := s.Account()
	assert.False(t, created)

	want := model.Account{Name: "Bob", Address: "123 St", PIN: "1234", Mobile: "5551234"}
	got, err := s.SetAccount(want)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	stored, created := s.Account()
	assert.True(t, created)
	assert.Equal(t, want, stored)
}

func TestSetAccountRejectsOverlongFields(t *testing.T) {
	s := New(testCatalog())
	_, err := s.SetAccount(model.Account{
		Name:    strings.Repeat("x", model.MaxNameLen+1),
		Address: "a",
		PIN:     "1",
		Mobile:  "2",
	})
	require.Error(t, err)
	_, created := s.Account()
	assert.False(t, created)
}

func TestConcurrentReservesDrainStockExactly(t *testing.T) {
	catalog := []model.Product{{Name: "A", Price: 100, Stock: 64}}
	s := New(catalog)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Reserve(0, 1); err != nil {
				t.Errorf("reserve failed: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, s.Catalog()[0].Stock)
	snap := s.Snapshot()
	assert.Equal(t, 64, snap.TotalItems)
	assert.Equal(t, 6400, snap.TotalCost)

	_, err := s.Reserve(0, 1)
	var short *InsufficientStockError
	assert.ErrorAs(t, err, &short)
}

type fakePersister struct {
	savedAccounts []model.Account
	savedCarts    []model.CartState

	account      model.Account
	accountFound bool
	accountErr   error
	cart         model.CartState
	cartFound    bool
	cartErr      error
}

func (f *fakePersister) SaveAccount(a model.Account) error {
	f.savedAccounts = append(f.savedAccounts, a)
	return nil
}

func (f *fakePersister) SaveCart(st model.CartState) error {
	f.savedCarts = append(f.savedCarts, st)
	return nil
}

func (f *fakePersister) LoadAccount() (model.Account, bool, error) {
	return f.account, f.accountFound, f.accountErr
}

func (f *fakePersister) LoadCart(products int) (model.CartState, bool, error) {
	return f.cart, f.cartFound, f.cartErr
}

func TestSaveWritesCopies(t *testing.T) {
	s := New(testCatalog())
	_, err := s.Reserve(0, 2)
	require.NoError(t, err)
	_, err = s.SetAccount(model.Account{Name: "Bob", Address: "123 St", PIN: "1234", Mobile: "5551234"})
	require.NoError(t, err)

	fp := &fakePersister{}
	require.NoError(t, s.Save(fp))
	require.Len(t, fp.savedAccounts, 1)
	require.Len(t, fp.savedCarts, 1)
	assert.Equal(t, model.CartState{Quantities: []int{2, 0}, TotalCost: 200, TotalItems: 2}, fp.savedCarts[0])

	// Later mutations must not alias the saved state.
	_, err = s.Reserve(0, 1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 0}, fp.savedCarts[0].Quantities)
}

func TestLoadAppliesBothRecords(t *testing.T) {
	s := New(testCatalog())
	fp := &fakePersister{
		account:      model.Account{Name: "Bob", Address: "123 St", PIN: "1234", Mobile: "5551234"},
		accountFound: true,
		cart:         model.CartState{Quantities: []int{1, 2}, TotalCost: 600, TotalItems: 3},
		cartFound:    true,
	}
	require.NoError(t, s.Load(fp))

	a, created := s.Account()
	assert.True(t, created)
	assert.Equal(t, "Bob", a.Name)
	snap := s.Snapshot()
	assert.Equal(t, 3, snap.TotalItems)
	assert.Equal(t, 600, snap.TotalCost)
}

func TestLoadMissingRecordsLeaveDefaults(t *testing.T) {
	s := New(testCatalog())
	require.NoError(t, s.Load(&fakePersister{}))
	_, created := s.Account()
	assert.False(t, created)
	assert.Equal(t, 0, s.Snapshot().TotalItems)
}

func TestLoadRejectsMismatchedTotalsAtomically(t *testing.T) {
	s := New(testCatalog())
	fp := &fakePersister{
		account:      model.Account{Name: "Bob", Address: "123 St", PIN: "1234", Mobile: "5551234"},
		accountFound: true,
		cart:         model.CartState{Quantities: []int{1, 0}, TotalCost: 999, TotalItems: 1},
		cartFound:    true,
	}
	err := s.Load(fp)
	require.ErrorIs(t, err, persist.ErrCorruptData)

	// Neither record may be applied.
	_, created := s.Account()
	assert.False(t, created)
	assert.Equal(t, 0, s.Snapshot().TotalItems)
}

func TestLoadPropagatesCartError(t *testing.T) {
	s := New(testCatalog())
	fp := &fakePersister{cartErr: errors.New("disk gone")}
	require.Error(t, s.Load(fp))
}
