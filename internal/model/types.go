// Package model defines domain types used by the service.
package model

import "fmt"

// Maximum byte lengths of the account fields. The persisted file format and
// the wire command both rely on these bounds.
const (
	MaxNameLen    = 29
	MaxAddressLen = 39
	MaxPINLen     = 7
	MaxMobileLen  = 9
)

// Product is one catalog entry. Name and Price are fixed at startup; Stock
// moves between inventory and the cart.
type Product struct {
	Name  string
	Price int // whole rupees
	Stock int
}

// Account is the single customer record.
type Account struct {
	Name    string
	Address string
	PIN     string
	Mobile  string
}

// Validate checks the field length bounds. Empty fields are allowed here; an
// account that was never populated persists as four empty fields.
func (a Account) Validate() error {
	if len(a.Name) > MaxNameLen {
		return fmt.Errorf("name exceeds %d bytes", MaxNameLen)
	}
	if len(a.Address) > MaxAddressLen {
		return fmt.Errorf("address exceeds %d bytes", MaxAddressLen)
	}
	if len(a.PIN) > MaxPINLen {
		return fmt.Errorf("pin exceeds %d bytes", MaxPINLen)
	}
	if len(a.Mobile) > MaxMobileLen {
		return fmt.Errorf("mobile exceeds %d bytes", MaxMobileLen)
	}
	return nil
}

// CartLine is one product's reserved quantity inside a snapshot.
type CartLine struct {
	Index    int
	Name     string
	Price    int
	Quantity int
}

// CartSnapshot is an immutable copy of the cart: only lines with a positive
// quantity, plus the running totals.
type CartSnapshot struct {
	Lines      []CartLine
	TotalItems int
	TotalCost  int
}

// CartState is the persisted form of the cart: one quantity per catalog slot
// (zeroes included) and the totals.
type CartState struct {
	Quantities []int
	TotalCost  int
	TotalItems int
}
