package store

import "github.com/mkrishnan-dev/watch-shop-server/internal/model"

// DefaultCatalog returns the built-in product list the shop starts with.
func DefaultCatalog() []model.Product {
	return []model.Product{
		{Name: "TITAN", Price: 999, Stock: 10},
		{Name: "FASTTRACK", Price: 1299, Stock: 9},
		{Name: "PHILIPS", Price: 799, Stock: 5},
		{Name: "SISKO", Price: 350, Stock: 7},
	}
}
