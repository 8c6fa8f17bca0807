package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/ledger"
)

// LedgerRepo is the PostgreSQL implementation of ledger.Repository.
//
// Tables:
//   - obligations(id, version, created_at, updated_at, kind, counterparty_id,
//     counterparty_kind, total_amount, created_date, paid_amount,
//     pending_amount, status)
//   - payment_events(id, obligation_id REFERENCES obligations ON DELETE CASCADE,
//     amount, mode, date, created_at)
type LedgerRepo struct {
	txm *TxManager
}

var _ ledger.Repository = (*LedgerRepo)(nil)

// NewLedgerRepo creates a ledger repository.
func NewLedgerRepo(txm *TxManager) *LedgerRepo {
	return &LedgerRepo{txm: txm}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *LedgerRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

var obligationCols = []string{
	"id", "version", "created_at", "updated_at",
	"kind", "counterparty_id", "counterparty_kind",
	"total_amount", "created_date",
	"paid_amount", "pending_amount", "status",
}

func (r *LedgerRepo) GetObligation(ctx context.Context, obligationID id.ID) (*ledger.Obligation, error) {
	q := r.Builder().
		Select(obligationCols...).
		From("obligations").
		Where(squirrel.Eq{"id": obligationID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var o ledger.Obligation
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &o, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("obligation", obligationID.String())
		}
		return nil, fmt.Errorf("get obligation: %w", err)
	}
	return &o, nil
}

func (r *LedgerRepo) SaveObligation(ctx context.Context, o *ledger.Obligation) error {
	querier := r.txm.GetQuerier(ctx)

	// Update first with the optimistic version check; fall back to insert
	// when the record does not exist yet.
	upd := r.Builder().
		Update("obligations").
		Set("updated_at", squirrel.Expr("now()")).
		Set("paid_amount", o.PaidAmount).
		Set("pending_amount", o.PendingAmount).
		Set("status", o.Status).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": o.ID}).
		Where(squirrel.Eq{"version": o.Version})

	sql, args, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update obligation: %w", err)
	}
	if result.RowsAffected() > 0 {
		o.Version++
		return nil
	}

	var exists bool
	err = querier.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM obligations WHERE id = $1)", o.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check obligation existence: %w", err)
	}
	if exists {
		return apperror.NewConcurrentModification("obligation", o.ID.String())
	}

	ins := r.Builder().
		Insert("obligations").
		Columns(obligationCols...).
		Values(
			o.ID, o.Version, o.CreatedAt, o.UpdatedAt,
			o.Kind, o.CounterpartyID, o.CounterpartyKind,
			o.TotalAmount, o.CreatedDate,
			o.PaidAmount, o.PendingAmount, o.Status,
		)
	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert obligation: %w", err)
	}
	return nil
}

func (r *LedgerRepo) AppendPaymentEvent(ctx context.Context, event *ledger.PaymentEvent) error {
	q := r.Builder().
		Insert("payment_events").
		Columns("id", "obligation_id", "amount", "mode", "date", "created_at").
		Values(event.ID, event.ObligationID, event.Amount, event.Mode, event.Date, event.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert payment event: %w", err)
	}
	return nil
}

func (r *LedgerRepo) RemovePaymentEvent(ctx context.Context, obligationID, eventID id.ID) (*ledger.PaymentEvent, error) {
	sql := `
		DELETE FROM payment_events
		WHERE id = $1 AND obligation_id = $2
		RETURNING id, obligation_id, amount, mode, date, created_at
	`
	var event ledger.PaymentEvent
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &event, sql, eventID, obligationID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("payment event", eventID.String())
		}
		return nil, fmt.Errorf("remove payment event: %w", err)
	}
	return &event, nil
}

func (r *LedgerRepo) ListPaymentEvents(ctx context.Context, obligationID id.ID) ([]ledger.PaymentEvent, error) {
	q := r.Builder().
		Select("id", "obligation_id", "amount", "mode", "date", "created_at").
		From("payment_events").
		Where(squirrel.Eq{"obligation_id": obligationID}).
		OrderBy("date", "created_at", "id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var events []ledger.PaymentEvent
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &events, sql, args...); err != nil {
		return nil, fmt.Errorf("list payment events: %w", err)
	}
	return events, nil
}

func (r *LedgerRepo) ListObligationsByCounterparty(ctx context.Context, counterpartyID id.ID) ([]ledger.Obligation, error) {
	q := r.Builder().
		Select(obligationCols...).
		From("obligations").
		Where(squirrel.Eq{"counterparty_id": counterpartyID}).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var out []ledger.Obligation
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &out, sql, args...); err != nil {
		return nil, fmt.Errorf("list obligations: %w", err)
	}
	return out, nil
}
