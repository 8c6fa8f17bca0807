package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/batch"
)

// BatchRepo is the PostgreSQL implementation of batch.Repository.
//
// Tables:
//   - purchase_batches(id, version, created_at, updated_at, wholesaler_id,
//     purchase_date, shipping_charges, total_amount, reconciled)
//   - purchase_lines(line_id, batch_id REFERENCES purchase_batches ON DELETE CASCADE,
//     line_no, product_name, quantity, per_piece_rate, expiry, line_subtotal,
//     shipping_allocated, final_amount)
type BatchRepo struct {
	txm *TxManager
}

var _ batch.Repository = (*BatchRepo)(nil)

// NewBatchRepo creates a batch repository.
func NewBatchRepo(txm *TxManager) *BatchRepo {
	return &BatchRepo{txm: txm}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *BatchRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

var batchCols = []string{
	"id", "version", "created_at", "updated_at",
	"wholesaler_id", "purchase_date", "shipping_charges",
	"total_amount", "reconciled",
}

var lineCols = []string{
	"line_id", "line_no", "product_name", "quantity", "per_piece_rate",
	"expiry", "line_subtotal", "shipping_allocated", "final_amount",
}

// SaveBatch writes the batch header and rewrites its lines.
// Lines are replaced wholesale; a batch's table part is small and the
// rewrite keeps header and lines consistent within the transaction.
func (r *BatchRepo) SaveBatch(ctx context.Context, b *batch.PurchaseBatch) error {
	querier := r.txm.GetQuerier(ctx)

	upd := r.Builder().
		Update("purchase_batches").
		Set("updated_at", squirrel.Expr("now()")).
		Set("shipping_charges", b.ShippingCharges).
		Set("total_amount", b.TotalAmount).
		Set("reconciled", b.Reconciled).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": b.ID}).
		Where(squirrel.Eq{"version": b.Version})

	sql, args, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}

	switch {
	case result.RowsAffected() > 0:
		b.Version++
		if _, err := querier.Exec(ctx, "DELETE FROM purchase_lines WHERE batch_id = $1", b.ID); err != nil {
			return fmt.Errorf("clear batch lines: %w", err)
		}
	default:
		var exists bool
		err = querier.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM purchase_batches WHERE id = $1)", b.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check batch existence: %w", err)
		}
		if exists {
			return apperror.NewConcurrentModification("purchase batch", b.ID.String())
		}

		ins := r.Builder().
			Insert("purchase_batches").
			Columns(batchCols...).
			Values(
				b.ID, b.Version, b.CreatedAt, b.UpdatedAt,
				b.WholesalerID, b.PurchaseDate, b.ShippingCharges,
				b.TotalAmount, b.Reconciled,
			)
		sql, args, err = ins.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}
	}

	for _, line := range b.Lines {
		ins := r.Builder().
			Insert("purchase_lines").
			Columns(append([]string{"batch_id"}, lineCols...)...).
			Values(
				b.ID,
				line.LineID, line.LineNo, line.ProductName, line.Quantity,
				line.PerPieceRate, line.Expiry, line.LineSubtotal,
				line.ShippingAllocated, line.FinalAmount,
			)
		sql, args, err := ins.ToSql()
		if err != nil {
			return fmt.Errorf("build line insert: %w", err)
		}
		if _, err := querier.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert batch line: %w", err)
		}
	}
	return nil
}

func (r *BatchRepo) GetBatch(ctx context.Context, batchID id.ID) (*batch.PurchaseBatch, error) {
	q := r.Builder().
		Select(batchCols...).
		From("purchase_batches").
		Where(squirrel.Eq{"id": batchID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var b batch.PurchaseBatch
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &b, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("purchase batch", batchID.String())
		}
		return nil, fmt.Errorf("get batch: %w", err)
	}

	lines, err := r.listLines(ctx, batchID)
	if err != nil {
		return nil, err
	}
	b.Lines = lines
	return &b, nil
}

func (r *BatchRepo) ListBatchesByWholesaler(ctx context.Context, wholesalerID id.ID) ([]batch.PurchaseBatch, error) {
	q := r.Builder().
		Select(batchCols...).
		From("purchase_batches").
		Where(squirrel.Eq{"wholesaler_id": wholesalerID}).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var batches []batch.PurchaseBatch
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &batches, sql, args...); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	for i := range batches {
		lines, err := r.listLines(ctx, batches[i].ID)
		if err != nil {
			return nil, err
		}
		batches[i].Lines = lines
	}
	return batches, nil
}

func (r *BatchRepo) listLines(ctx context.Context, batchID id.ID) ([]batch.LineItem, error) {
	q := r.Builder().
		Select(lineCols...).
		From("purchase_lines").
		Where(squirrel.Eq{"batch_id": batchID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lines []batch.LineItem
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("list batch lines: %w", err)
	}
	return lines, nil
}
