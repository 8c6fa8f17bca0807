package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
	"khata/internal/core/types"
	"khata/internal/domain/ledger"
	"khata/internal/domain/party"
)

func TestSaveObligation_OptimisticLock(t *testing.T) {
	s := New()
	ctx := context.Background()

	o, err := ledger.NewObligation(ledger.KindSaleBill, nil, types.MustMoney("10.00"), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.SaveObligation(ctx, o))

	// Two readers of the same version: the second write loses.
	first, err := s.GetObligation(ctx, o.ID)
	require.NoError(t, err)
	second, err := s.GetObligation(ctx, o.ID)
	require.NoError(t, err)

	require.NoError(t, s.SaveObligation(ctx, first))
	err = s.SaveObligation(ctx, second)
	assert.True(t, apperror.IsConcurrentModification(err))

	// A fresh read carries the bumped version and succeeds.
	fresh, err := s.GetObligation(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Version, fresh.Version)
	assert.NoError(t, s.SaveObligation(ctx, fresh))
}

func TestGetObligation_ReturnsCopy(t *testing.T) {
	s := New()
	ctx := context.Background()

	o, err := ledger.NewObligation(ledger.KindSaleBill, nil, types.MustMoney("10.00"), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.SaveObligation(ctx, o))

	snapshot, err := s.GetObligation(ctx, o.ID)
	require.NoError(t, err)
	snapshot.Recalculate(types.MustMoney("10.00"))

	stored, err := s.GetObligation(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusUnpaid, stored.Status, "mutating a snapshot must not leak into the store")
}

func TestRemovePaymentEvent(t *testing.T) {
	s := New()
	ctx := context.Background()

	o, err := ledger.NewObligation(ledger.KindSaleBill, nil, types.MustMoney("10.00"), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.SaveObligation(ctx, o))

	e1 := ledger.NewPaymentEvent(o.ID, types.MustMoney("3.00"), ledger.ModeCash, time.Now())
	e2 := ledger.NewPaymentEvent(o.ID, types.MustMoney("4.00"), ledger.ModeCash, time.Now())
	require.NoError(t, s.AppendPaymentEvent(ctx, &e1))
	require.NoError(t, s.AppendPaymentEvent(ctx, &e2))

	removed, err := s.RemovePaymentEvent(ctx, o.ID, e1.ID)
	require.NoError(t, err)
	assert.Equal(t, e1.ID, removed.ID)

	events, err := s.ListPaymentEvents(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, e2.ID, events[0].ID)

	_, err = s.RemovePaymentEvent(ctx, o.ID, e1.ID)
	assert.True(t, apperror.IsNotFound(err))
}

func TestInsertWholesalerIfAbsent(t *testing.T) {
	s := New()
	ctx := context.Background()

	w1 := party.NewWholesaler("Acme Traders", "0711111111", "")
	got, created, err := s.InsertWholesalerIfAbsent(ctx, w1)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, w1.ID, got.ID)

	// Same identity, new candidate record: existing row wins.
	w2 := party.NewWholesaler("acme  traders", "071-111-1111", "")
	got, created, err = s.InsertWholesalerIfAbsent(ctx, w2)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, w1.ID, got.ID)
}
