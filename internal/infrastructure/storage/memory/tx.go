package memory

import (
	"context"

	"khata/internal/core/tx"
)

// TxManager is the in-memory transaction manager. Store operations are
// individually atomic and service-level keyed locks serialize multi-step
// mutations, so a "transaction" simply runs fn.
type TxManager struct{}

var _ tx.Manager = (*TxManager)(nil)

// NewTxManager creates an in-memory transaction manager.
func NewTxManager() *TxManager {
	return &TxManager{}
}

// RunInTransaction executes fn directly.
func (m *TxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
