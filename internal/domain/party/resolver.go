package party

import (
	"context"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/pkg/logger"
)

// Resolver deduplicates wholesaler identities. Purchases are recorded
// per-transaction, but wholesalers are shared entities: every new
// wholesaler-linked record resolves its candidate against the catalog
// before anything references it.
type Resolver struct {
	repo Repository
}

// NewResolver creates a wholesaler identity resolver.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve folds a candidate (name, phone, address) into an existing
// wholesaler or creates a new one, returning the canonical record.
//
// Idempotent and race-safe: resolving the same identity twice yields the
// same wholesaler id. Two concurrent resolutions of the same new key
// converge on one record through the store's atomic insert-if-absent; the
// loser of the insert race receives the winner's row.
func (r *Resolver) Resolve(ctx context.Context, name, phone, address string) (*Wholesaler, error) {
	candidate := NewWholesaler(name, phone, address)
	if err := candidate.Validate(ctx); err != nil {
		return nil, err
	}

	existing, err := r.repo.FindWholesalerByKey(ctx, candidate.UniqueKey)
	if err == nil {
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, err
	}

	w, created, err := r.repo.InsertWholesalerIfAbsent(ctx, candidate)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info(ctx, "wholesaler created",
			"wholesaler_id", w.ID,
			"name", w.Name,
		)
	} else {
		logger.Debug(ctx, "wholesaler resolved to existing record",
			"wholesaler_id", w.ID,
		)
	}
	return w, nil
}

// Get retrieves a wholesaler by id.
func (r *Resolver) Get(ctx context.Context, wholesalerID id.ID) (*Wholesaler, error) {
	return r.repo.GetWholesaler(ctx, wholesalerID)
}

// CreateCustomer persists a customer identity record.
func (r *Resolver) CreateCustomer(ctx context.Context, name, phone, address string) (*Customer, error) {
	c := NewCustomer(name, phone, address)
	if err := c.Validate(ctx); err != nil {
		return nil, err
	}
	if err := r.repo.SaveCustomer(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// GetCustomer retrieves a customer by id.
func (r *Resolver) GetCustomer(ctx context.Context, customerID id.ID) (*Customer, error) {
	return r.repo.GetCustomer(ctx, customerID)
}
