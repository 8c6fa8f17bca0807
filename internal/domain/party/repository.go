package party

import (
	"context"

	"khata/internal/core/id"
)

// Repository defines persistence for wholesaler and customer identities.
type Repository interface {
	// GetWholesaler retrieves a wholesaler by id. NotFound when absent.
	GetWholesaler(ctx context.Context, wholesalerID id.ID) (*Wholesaler, error)

	// FindWholesalerByKey looks up a wholesaler by its normalized unique
	// key. NotFound when absent.
	FindWholesalerByKey(ctx context.Context, key string) (*Wholesaler, error)

	// InsertWholesalerIfAbsent atomically inserts the candidate unless a
	// wholesaler with the same unique key already exists, in which case the
	// existing record is returned with created=false. This is the
	// serialization primitive for concurrent resolutions of a new key.
	InsertWholesalerIfAbsent(ctx context.Context, candidate *Wholesaler) (*Wholesaler, bool, error)

	// GetCustomer retrieves a customer by id. NotFound when absent.
	GetCustomer(ctx context.Context, customerID id.ID) (*Customer, error)

	// SaveCustomer inserts or updates a customer record.
	SaveCustomer(ctx context.Context, c *Customer) error
}
