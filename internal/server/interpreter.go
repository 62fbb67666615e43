package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mkrishnan-dev/watch-shop-server/internal/model"
	"github.com/mkrishnan-dev/watch-shop-server/internal/obs"
	"github.com/mkrishnan-dev/watch-shop-server/internal/protocol"
	"github.com/mkrishnan-dev/watch-shop-server/internal/store"
)

// Interpreter maps parsed commands onto the state store and persistence,
// producing one text response per message.
type Interpreter struct {
	st    *store.Store
	files store.Persister
}

// NewInterpreter wires the interpreter to its collaborators.
func NewInterpreter(st *store.Store, files store.Persister) *Interpreter {
	return &Interpreter{st: st, files: files}
}

// Greeting renders the catalog listing pushed on connect.
func (in *Interpreter) Greeting() string {
	var b strings.Builder
	b.WriteString("Available products:\n")
	for i, p := range in.st.Catalog() {
		fmt.Fprintf(&b, "%d. %s (Rs.%d) - Stock: %d\n", i+1, p.Name, p.Price, p.Stock)
	}
	return b.String()
}

// Execute processes one message and returns the response plus whether the
// connection should close afterwards. Errors never escape: every failure maps
// to a descriptive response and the session continues.
func (in *Interpreter) Execute(msg string) (response string, quit bool) {
	cmd, err := protocol.Parse(msg)
	if err != nil {
		return "Invalid command.", false
	}

	switch cmd.Kind {
	case protocol.KindAdd:
		return in.addToCart(cmd), false
	case protocol.KindViewCart:
		return renderCart(in.st.Snapshot()), false
	case protocol.KindPlaceOrder:
		return in.placeOrder(), false
	case protocol.KindUpdateAccount:
		a, err := in.st.SetAccount(cmd.Account)
		if err != nil {
			return "Invalid command.", false
		}
		return fmt.Sprintf("Account details updated successfully: %s, %s, %s, %s",
			a.Name, a.Address, a.PIN, a.Mobile), false
	case protocol.KindSave:
		if err := in.st.Save(in.files); err != nil {
			obs.Logger.Error("save_failed", "error", err)
			var sf *store.SaveFailure
			if errors.As(err, &sf) {
				return fmt.Sprintf("Failed to save %s data.", sf.Record), false
			}
			return "Failed to save account and cart data.", false
		}
		return "Account and cart data saved successfully.", false
	case protocol.KindLoad:
		if err := in.st.Load(in.files); err != nil {
			obs.Logger.Error("load_failed", "error", err)
			return "Failed to load account and cart data.", false
		}
		return "Account and cart data loaded successfully.", false
	case protocol.KindQuit:
		return "Goodbye!", true
	}
	return "Invalid command.", false
}

func (in *Interpreter) addToCart(cmd protocol.Command) string {
	p, err := in.st.Reserve(cmd.Index, cmd.Qty)
	var short *store.InsufficientStockError
	switch {
	case errors.Is(err, store.ErrInvalidProduct):
		return "Invalid product selection."
	case errors.As(err, &short):
		return fmt.Sprintf("Insufficient stock for %s.", short.Product)
	case err != nil:
		return "Invalid command."
	}
	return fmt.Sprintf("%d x %s added to cart.", cmd.Qty, p.Name)
}

func (in *Interpreter) placeOrder() string {
	if _, err := in.st.Checkout(); err != nil {
		return "Your cart is empty. Add products before placing an order."
	}
	return "Order placed successfully. Thank you for shopping with us!\n"
}

func renderCart(snap model.CartSnapshot) string {
	var b strings.Builder
	b.WriteString("Items in your cart:\n")
	for _, l := range snap.Lines {
		fmt.Fprintf(&b, "%d x %s (Rs.%d each)\n", l.Quantity, l.Name, l.Price)
	}
	fmt.Fprintf(&b, "\nTotal Items: %d\nTotal Cost: Rs.%d\n", snap.TotalItems, snap.TotalCost)
	return b.String()
}
