package batch

import (
	"context"
	"fmt"

	"khata/internal/core/id"
	"khata/internal/core/tx"
	"khata/internal/domain/ledger"
	"khata/pkg/logger"
)

// Service reconciles purchase batches and records the resulting
// wholesaler-purchase obligation in the ledger.
type Service struct {
	repo   Repository
	ledger *ledger.Service
	txm    tx.Manager
}

// NewService creates a batch service.
func NewService(repo Repository, ledgerSvc *ledger.Service, txm tx.Manager) *Service {
	return &Service{
		repo:   repo,
		ledger: ledgerSvc,
		txm:    txm,
	}
}

// RecordPurchase reconciles the batch and persists it together with its
// obligation (total = sum of line final amounts) in one transaction.
func (s *Service) RecordPurchase(ctx context.Context, b *PurchaseBatch) (*ledger.Obligation, error) {
	if err := b.Validate(ctx); err != nil {
		return nil, err
	}
	if err := Reconcile(b); err != nil {
		return nil, err
	}

	var obligation *ledger.Obligation
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SaveBatch(ctx, b); err != nil {
			return fmt.Errorf("save batch: %w", err)
		}
		cp := &ledger.CounterpartyRef{ID: b.WholesalerID, Kind: ledger.CounterpartyWholesaler}
		o, err := s.ledger.CreateObligation(ctx, ledger.KindWholesalerPurchase, cp, b.TotalAmount, b.PurchaseDate)
		if err != nil {
			return err
		}
		obligation = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase batch recorded",
		"batch_id", b.ID,
		"wholesaler_id", b.WholesalerID,
		"lines", len(b.Lines),
		"total", b.TotalAmount.String(),
	)
	return obligation, nil
}

// Get retrieves a batch with its lines.
func (s *Service) Get(ctx context.Context, batchID id.ID) (*PurchaseBatch, error) {
	return s.repo.GetBatch(ctx, batchID)
}

// ListByWholesaler returns a wholesaler's purchase batches.
func (s *Service) ListByWholesaler(ctx context.Context, wholesalerID id.ID) ([]PurchaseBatch, error) {
	return s.repo.ListBatchesByWholesaler(ctx, wholesalerID)
}
