package postgres

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/domain/party"
)

// PartyRepo is the PostgreSQL implementation of party.Repository.
//
// Tables:
//   - wholesalers(id, version, name, phone, address, unique_key UNIQUE)
//   - customers(id, version, name, phone, address)
type PartyRepo struct {
	txm *TxManager
}

var _ party.Repository = (*PartyRepo)(nil)

// NewPartyRepo creates a party repository.
func NewPartyRepo(txm *TxManager) *PartyRepo {
	return &PartyRepo{txm: txm}
}

// Builder returns a new squirrel builder with PostgreSQL placeholder format.
func (r *PartyRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

var wholesalerCols = []string{"id", "version", "name", "phone", "address", "unique_key"}

func (r *PartyRepo) GetWholesaler(ctx context.Context, wholesalerID id.ID) (*party.Wholesaler, error) {
	q := r.Builder().
		Select(wholesalerCols...).
		From("wholesalers").
		Where(squirrel.Eq{"id": wholesalerID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w party.Wholesaler
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("wholesaler", wholesalerID.String())
		}
		return nil, fmt.Errorf("get wholesaler: %w", err)
	}
	return &w, nil
}

func (r *PartyRepo) FindWholesalerByKey(ctx context.Context, key string) (*party.Wholesaler, error) {
	q := r.Builder().
		Select(wholesalerCols...).
		From("wholesalers").
		Where(squirrel.Eq{"unique_key": key}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var w party.Wholesaler
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &w, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("wholesaler", key)
		}
		return nil, fmt.Errorf("find wholesaler by key: %w", err)
	}
	return &w, nil
}

// InsertWholesalerIfAbsent relies on the unique index on unique_key:
// ON CONFLICT DO NOTHING followed by a re-read makes the insert atomic, so
// two concurrent resolutions of the same new key converge on one row.
func (r *PartyRepo) InsertWholesalerIfAbsent(ctx context.Context, candidate *party.Wholesaler) (*party.Wholesaler, bool, error) {
	sql := `
		INSERT INTO wholesalers (id, version, name, phone, address, unique_key)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (unique_key) DO NOTHING
	`
	result, err := r.txm.GetQuerier(ctx).Exec(ctx, sql,
		candidate.ID, candidate.Version, candidate.Name,
		candidate.Phone, candidate.Address, candidate.UniqueKey,
	)
	if err != nil {
		return nil, false, fmt.Errorf("insert wholesaler: %w", err)
	}
	if result.RowsAffected() > 0 {
		return candidate, true, nil
	}

	// Lost the insert race (or the row predates us): return the winner.
	existing, err := r.FindWholesalerByKey(ctx, candidate.UniqueKey)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

var customerCols = []string{"id", "version", "name", "phone", "address"}

func (r *PartyRepo) GetCustomer(ctx context.Context, customerID id.ID) (*party.Customer, error) {
	q := r.Builder().
		Select(customerCols...).
		From("customers").
		Where(squirrel.Eq{"id": customerID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var c party.Customer
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &c, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("customer", customerID.String())
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return &c, nil
}

func (r *PartyRepo) SaveCustomer(ctx context.Context, c *party.Customer) error {
	querier := r.txm.GetQuerier(ctx)

	upd := r.Builder().
		Update("customers").
		Set("name", c.Name).
		Set("phone", c.Phone).
		Set("address", c.Address).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": c.ID}).
		Where(squirrel.Eq{"version": c.Version})

	sql, args, err := upd.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update customer: %w", err)
	}
	if result.RowsAffected() > 0 {
		c.Version++
		return nil
	}

	var exists bool
	err = querier.QueryRow(ctx, "SELECT EXISTS (SELECT 1 FROM customers WHERE id = $1)", c.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check customer existence: %w", err)
	}
	if exists {
		return apperror.NewConcurrentModification("customer", c.ID.String())
	}

	ins := r.Builder().
		Insert("customers").
		Columns(customerCols...).
		Values(c.ID, c.Version, c.Name, c.Phone, c.Address)
	sql, args, err = ins.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}
