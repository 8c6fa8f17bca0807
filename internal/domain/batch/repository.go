package batch

import (
	"context"

	"khata/internal/core/id"
)

// Repository defines persistence for purchase batches and their lines.
type Repository interface {
	// SaveBatch inserts or updates a batch together with its line items.
	SaveBatch(ctx context.Context, b *PurchaseBatch) error

	// GetBatch retrieves a batch with its lines. NotFound when absent.
	GetBatch(ctx context.Context, batchID id.ID) (*PurchaseBatch, error)

	// ListBatchesByWholesaler returns a wholesaler's batches, newest first.
	ListBatchesByWholesaler(ctx context.Context, wholesalerID id.ID) ([]PurchaseBatch, error)
}
