package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/types"
	"khata/internal/domain/ledger"
)

type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[id.ID]*PurchaseBatch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[id.ID]*PurchaseBatch)}
}

func (r *fakeBatchRepo) SaveBatch(ctx context.Context, b *PurchaseBatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *b
	cp.Lines = append([]LineItem(nil), b.Lines...)
	r.batches[b.ID] = &cp
	return nil
}

func (r *fakeBatchRepo) GetBatch(ctx context.Context, batchID id.ID) (*PurchaseBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.batches[batchID]
	if !ok {
		return nil, apperror.NewNotFound("purchase batch", batchID.String())
	}
	cp := *b
	cp.Lines = append([]LineItem(nil), b.Lines...)
	return &cp, nil
}

func (r *fakeBatchRepo) ListBatchesByWholesaler(ctx context.Context, wholesalerID id.ID) ([]PurchaseBatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []PurchaseBatch
	for _, b := range r.batches {
		if b.WholesalerID == wholesalerID {
			out = append(out, *b)
		}
	}
	return out, nil
}

type fakeLedgerRepo struct {
	mu          sync.Mutex
	obligations map[id.ID]*ledger.Obligation
}

func newFakeLedgerRepo() *fakeLedgerRepo {
	return &fakeLedgerRepo{obligations: make(map[id.ID]*ledger.Obligation)}
}

func (r *fakeLedgerRepo) GetObligation(ctx context.Context, obligationID id.ID) (*ledger.Obligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.obligations[obligationID]
	if !ok {
		return nil, apperror.NewNotFound("obligation", obligationID.String())
	}
	cp := *o
	return &cp, nil
}

func (r *fakeLedgerRepo) SaveObligation(ctx context.Context, o *ledger.Obligation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.obligations[o.ID] = &cp
	return nil
}

func (r *fakeLedgerRepo) AppendPaymentEvent(ctx context.Context, event *ledger.PaymentEvent) error {
	return nil
}

func (r *fakeLedgerRepo) RemovePaymentEvent(ctx context.Context, obligationID, eventID id.ID) (*ledger.PaymentEvent, error) {
	return nil, apperror.NewNotFound("payment event", eventID.String())
}

func (r *fakeLedgerRepo) ListPaymentEvents(ctx context.Context, obligationID id.ID) ([]ledger.PaymentEvent, error) {
	return nil, nil
}

func (r *fakeLedgerRepo) ListObligationsByCounterparty(ctx context.Context, counterpartyID id.ID) ([]ledger.Obligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ledger.Obligation
	for _, o := range r.obligations {
		if o.CounterpartyID != nil && *o.CounterpartyID == counterpartyID {
			out = append(out, *o)
		}
	}
	return out, nil
}

type fakeTxm struct{}

func (fakeTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func TestRecordPurchase(t *testing.T) {
	batchRepo := newFakeBatchRepo()
	ledgerRepo := newFakeLedgerRepo()
	ledgerSvc := ledger.NewService(ledgerRepo, fakeTxm{}, nil)
	svc := NewService(batchRepo, ledgerSvc, fakeTxm{})
	ctx := context.Background()

	wholesalerID := id.New()
	b := NewPurchaseBatch(wholesalerID, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), types.MustMoney("10.00"))
	require.NoError(t, b.AddLine("Whey 1kg", 3, types.MustMoney("100.00"), nil))
	require.NoError(t, b.AddLine("Creatine", 7, types.MustMoney("50.00"), nil))

	obligation, err := svc.RecordPurchase(ctx, b)
	require.NoError(t, err)

	// The batch is persisted reconciled.
	stored, err := svc.Get(ctx, b.ID)
	require.NoError(t, err)
	assert.True(t, stored.Reconciled)
	assert.True(t, stored.TotalAmount.Equal(types.MustMoney("660.00")))

	// One wholesaler-purchase obligation for the reconciled total.
	assert.Equal(t, ledger.KindWholesalerPurchase, obligation.Kind)
	assert.True(t, obligation.TotalAmount.Equal(types.MustMoney("660.00")))
	assert.Equal(t, ledger.StatusUnpaid, obligation.Status)
	require.NotNil(t, obligation.CounterpartyID)
	assert.Equal(t, wholesalerID, *obligation.CounterpartyID)
	assert.Equal(t, ledger.CounterpartyWholesaler, obligation.CounterpartyKind)

	linked, err := ledgerSvc.ListByCounterparty(ctx, wholesalerID)
	require.NoError(t, err)
	assert.Len(t, linked, 1)
}

func TestRecordPurchase_EmptyBatch(t *testing.T) {
	svc := NewService(newFakeBatchRepo(), ledger.NewService(newFakeLedgerRepo(), fakeTxm{}, nil), fakeTxm{})

	b := NewPurchaseBatch(id.New(), time.Now(), types.ZeroMoney())
	_, err := svc.RecordPurchase(context.Background(), b)
	assert.True(t, apperror.IsCode(err, apperror.CodeEmptyBatch))
}

func TestRecordPurchase_NegativeShipping(t *testing.T) {
	svc := NewService(newFakeBatchRepo(), ledger.NewService(newFakeLedgerRepo(), fakeTxm{}, nil), fakeTxm{})

	b := NewPurchaseBatch(id.New(), time.Now(), types.MustMoney("-1.00"))
	require.NoError(t, b.AddLine("A", 1, types.MustMoney("1.00"), nil))
	_, err := svc.RecordPurchase(context.Background(), b)
	assert.True(t, apperror.IsCode(err, apperror.CodeNegativeShipping))
}
