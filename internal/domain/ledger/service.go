package ledger

import (
	"context"
	"fmt"
	"time"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/tx"
	"khata/internal/core/types"
	"khata/pkg/logger"
)

// Service is the payment ledger: it owns the single mutation path for
// obligations and their payment logs. No other component writes
// payment events or balance fields.
type Service struct {
	repo    Repository
	txm     tx.Manager
	locks   *keyedMutex
	auditor CorrectionAuditor
}

// NewService creates a ledger service. auditor may be nil.
func NewService(repo Repository, txm tx.Manager, auditor CorrectionAuditor) *Service {
	return &Service{
		repo:    repo,
		txm:     txm,
		locks:   newKeyedMutex(),
		auditor: auditor,
	}
}

// CreateObligation validates and persists a new obligation.
func (s *Service) CreateObligation(ctx context.Context, kind Kind, counterparty *CounterpartyRef, total types.Money, createdDate time.Time) (*Obligation, error) {
	o, err := NewObligation(kind, counterparty, total, createdDate)
	if err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.SaveObligation(ctx, o); err != nil {
			return fmt.Errorf("save obligation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "obligation created",
		"obligation_id", o.ID,
		"kind", o.Kind,
		"total", o.TotalAmount.String(),
	)
	return o, nil
}

// Get retrieves an obligation by id.
func (s *Service) Get(ctx context.Context, obligationID id.ID) (*Obligation, error) {
	return s.repo.GetObligation(ctx, obligationID)
}

// RecordPayment appends a payment event and updates the balance cache,
// atomically. Serialized per obligation: concurrent payments on the same
// obligation queue behind the keyed mutex, and the repository's version
// check backstops writers outside this process.
//
// Errors: InvalidAmount (amount <= 0 or invalid mode), BackdatedPayment
// (date < createdDate), Overpayment (amount > pending), NotFound,
// ConcurrentModification (retryable).
func (s *Service) RecordPayment(ctx context.Context, obligationID id.ID, amount types.Money, mode PaymentMode, date time.Time) (*Obligation, error) {
	if !amount.IsPositive() {
		return nil, apperror.NewInvalidAmount("payment amount must be positive").
			WithDetail("amount", amount.String())
	}
	if !isValidMode(mode) {
		return nil, apperror.NewValidation("invalid payment mode").
			WithDetail("field", "mode").
			WithDetail("value", string(mode))
	}

	unlock := s.locks.Lock(obligationID)
	defer unlock()

	o, err := s.repo.GetObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}

	day := DateOnly(date)
	if day.Before(o.CreatedDate) {
		return nil, apperror.NewBackdatedPayment(
			day.Format(time.DateOnly),
			o.CreatedDate.Format(time.DateOnly),
		)
	}
	if amount.GreaterThan(o.PendingAmount) {
		return nil, apperror.NewOverpayment(amount.String(), o.PendingAmount.String())
	}

	event := NewPaymentEvent(obligationID, amount, mode, day)

	// Event append and balance rewrite commit together or not at all.
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.AppendPaymentEvent(ctx, &event); err != nil {
			return fmt.Errorf("append payment event: %w", err)
		}
		paid, err := s.sumEvents(ctx, obligationID)
		if err != nil {
			return err
		}
		o.Recalculate(paid)
		if err := s.repo.SaveObligation(ctx, o); err != nil {
			return fmt.Errorf("save obligation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "payment recorded",
		"obligation_id", obligationID,
		"event_id", event.ID,
		"amount", amount.String(),
		"pending", o.PendingAmount.String(),
		"status", o.Status,
	)
	return o, nil
}

// Reverse removes a specific payment event (audit correction) and
// recomputes the balance. NotFound when the event does not belong to
// this obligation. The removal is recorded on the correction audit trail.
func (s *Service) Reverse(ctx context.Context, obligationID, eventID id.ID) (*Obligation, error) {
	unlock := s.locks.Lock(obligationID)
	defer unlock()

	o, err := s.repo.GetObligation(ctx, obligationID)
	if err != nil {
		return nil, err
	}

	var removed *PaymentEvent
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		removed, err = s.repo.RemovePaymentEvent(ctx, obligationID, eventID)
		if err != nil {
			return err
		}
		paid, err := s.sumEvents(ctx, obligationID)
		if err != nil {
			return err
		}
		o.Recalculate(paid)
		if err := s.repo.SaveObligation(ctx, o); err != nil {
			return fmt.Errorf("save obligation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.auditor != nil {
		if err := s.auditor.PaymentReversed(ctx, obligationID, *removed); err != nil {
			// The correction itself is committed; a failed trail entry is
			// logged, not propagated.
			logger.Warn(ctx, "correction audit failed",
				"obligation_id", obligationID,
				"event_id", eventID,
				"error", err,
			)
		}
	}

	logger.Info(ctx, "payment reversed",
		"obligation_id", obligationID,
		"event_id", eventID,
		"amount", removed.Amount.String(),
		"pending", o.PendingAmount.String(),
	)
	return o, nil
}

// CurrentBalance returns (paid, pending, status) for an obligation.
// Lock-free snapshot: it may observe a balance concurrently being updated.
func (s *Service) CurrentBalance(ctx context.Context, obligationID id.ID) (Balance, error) {
	o, err := s.repo.GetObligation(ctx, obligationID)
	if err != nil {
		return Balance{}, err
	}
	return o.CurrentBalance(), nil
}

// History returns the ordered payment log as a snapshot at call time.
// Payments recorded after the call are not reflected in the returned slice.
func (s *Service) History(ctx context.Context, obligationID id.ID) ([]PaymentEvent, error) {
	if _, err := s.repo.GetObligation(ctx, obligationID); err != nil {
		return nil, err
	}
	return s.repo.ListPaymentEvents(ctx, obligationID)
}

// TotalPaid sums the payment log. Always equals the obligation's cached
// paidAmount; the cross-check lives in tests.
func (s *Service) TotalPaid(ctx context.Context, obligationID id.ID) (types.Money, error) {
	if _, err := s.repo.GetObligation(ctx, obligationID); err != nil {
		return types.ZeroMoney(), err
	}
	return s.sumEvents(ctx, obligationID)
}

// ListByCounterparty returns the obligations referencing a counterparty.
func (s *Service) ListByCounterparty(ctx context.Context, counterpartyID id.ID) ([]Obligation, error) {
	return s.repo.ListObligationsByCounterparty(ctx, counterpartyID)
}

func (s *Service) sumEvents(ctx context.Context, obligationID id.ID) (types.Money, error) {
	events, err := s.repo.ListPaymentEvents(ctx, obligationID)
	if err != nil {
		return types.ZeroMoney(), fmt.Errorf("list payment events: %w", err)
	}
	sum := types.ZeroMoney()
	for _, e := range events {
		sum = sum.Add(e.Amount)
	}
	return sum, nil
}
