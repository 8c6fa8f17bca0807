package ledger

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
	"khata/internal/core/types"
)

// fakeRepo is a mutex-guarded in-memory Repository honoring the optimistic
// version contract of the real stores.
type fakeRepo struct {
	mu          sync.Mutex
	obligations map[id.ID]*Obligation
	events      map[id.ID][]PaymentEvent
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		obligations: make(map[id.ID]*Obligation),
		events:      make(map[id.ID][]PaymentEvent),
	}
}

func (r *fakeRepo) GetObligation(ctx context.Context, obligationID id.ID) (*Obligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.obligations[obligationID]
	if !ok {
		return nil, apperror.NewNotFound("obligation", obligationID.String())
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) SaveObligation(ctx context.Context, o *Obligation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if stored, ok := r.obligations[o.ID]; ok {
		if stored.Version != o.Version {
			return apperror.NewConcurrentModification("obligation", o.ID.String())
		}
		o.Version++
	}
	cp := *o
	r.obligations[o.ID] = &cp
	return nil
}

func (r *fakeRepo) AppendPaymentEvent(ctx context.Context, event *PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[event.ObligationID] = append(r.events[event.ObligationID], *event)
	return nil
}

func (r *fakeRepo) RemovePaymentEvent(ctx context.Context, obligationID, eventID id.ID) (*PaymentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events[obligationID]
	for i, e := range events {
		if e.ID == eventID {
			removed := e
			r.events[obligationID] = append(events[:i:i], events[i+1:]...)
			return &removed, nil
		}
	}
	return nil, apperror.NewNotFound("payment event", eventID.String())
}

func (r *fakeRepo) ListPaymentEvents(ctx context.Context, obligationID id.ID) ([]PaymentEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := r.events[obligationID]
	out := make([]PaymentEvent, len(events))
	copy(out, events)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

func (r *fakeRepo) ListObligationsByCounterparty(ctx context.Context, counterpartyID id.ID) ([]Obligation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Obligation
	for _, o := range r.obligations {
		if o.CounterpartyID != nil && *o.CounterpartyID == counterpartyID {
			out = append(out, *o)
		}
	}
	return out, nil
}

// fakeTxm runs the callback directly; atomicity is the real stores' concern.
type fakeTxm struct{}

func (fakeTxm) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingAuditor captures reversal notifications.
type recordingAuditor struct {
	mu      sync.Mutex
	removed []PaymentEvent
}

func (a *recordingAuditor) PaymentReversed(ctx context.Context, obligationID id.ID, removed PaymentEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.removed = append(a.removed, removed)
	return nil
}

func newTestService() (*Service, *fakeRepo, *recordingAuditor) {
	repo := newFakeRepo()
	auditor := &recordingAuditor{}
	return NewService(repo, fakeTxm{}, auditor), repo, auditor
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestCreateObligation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("100.00"), date("2026-01-10"))
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, o.Status)
	assert.True(t, o.PendingAmount.Equal(types.MustMoney("100.00")))
	assert.True(t, o.PaidAmount.IsZero())
	assert.Nil(t, o.CounterpartyID)

	// Zero-total obligations are born settled.
	zero, err := svc.CreateObligation(ctx, KindOperatingBill, nil, types.ZeroMoney(), date("2026-01-10"))
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, zero.Status)
}

func TestCreateObligation_Invalid(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("-1.00"), date("2026-01-10"))
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAmount))

	_, err = svc.CreateObligation(ctx, Kind("loan"), nil, types.MustMoney("1.00"), date("2026-01-10"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestRecordPayment_PartialFlow(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindGymBill, nil, types.MustMoney("100.00"), date("2026-01-10"))
	require.NoError(t, err)

	o, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("40.00"), ModeCash, date("2026-01-12"))
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, o.Status)
	assert.True(t, o.PaidAmount.Equal(types.MustMoney("40.00")))
	assert.True(t, o.PendingAmount.Equal(types.MustMoney("60.00")))

	o, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("60.00"), ModeCard, date("2026-01-15"))
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, o.Status)
	assert.True(t, o.PendingAmount.IsZero())

	// The balance cache always matches the event log sum.
	total, err := svc.TotalPaid(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(o.PaidAmount))
}

func TestRecordPayment_Overpayment(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("50.00"), date("2026-01-10"))
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("50.01"), ModeCash, date("2026-01-11"))
	assert.True(t, apperror.IsOverpayment(err))

	// Rejection leaves no trace: no event, balance untouched.
	events, err := svc.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Empty(t, events)

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, got.Status)
	assert.True(t, got.PendingAmount.Equal(types.MustMoney("50.00")))

	// Exact settlement is fine.
	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("50.00"), ModeCash, date("2026-01-11"))
	assert.NoError(t, err)
}

func TestRecordPayment_Backdated(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("10.00"), date("2026-01-10"))
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("5.00"), ModeCash, date("2026-01-09"))
	assert.True(t, apperror.IsCode(err, apperror.CodeBackdatedPayment))

	// Same-day payment is allowed.
	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("5.00"), ModeCash, date("2026-01-10"))
	assert.NoError(t, err)
}

func TestRecordPayment_InvalidInput(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("10.00"), date("2026-01-10"))
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, o.ID, types.ZeroMoney(), ModeCash, date("2026-01-11"))
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAmount), "zero amount")

	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("-5.00"), ModeCash, date("2026-01-11"))
	assert.True(t, apperror.IsCode(err, apperror.CodeInvalidAmount), "negative amount")

	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("5.00"), PaymentMode("cheque"), date("2026-01-11"))
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation), "unknown mode")
}

func TestRecordPayment_UnknownObligation(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.RecordPayment(context.Background(), id.New(), types.MustMoney("5.00"), ModeCash, date("2026-01-11"))
	assert.True(t, apperror.IsNotFound(err))
}

func TestReverse_RestoresBalanceAndReapplies(t *testing.T) {
	svc, _, auditor := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindWholesalerPurchase, nil, types.MustMoney("100.00"), date("2026-01-10"))
	require.NoError(t, err)

	o, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("40.00"), ModeTransfer, date("2026-01-12"))
	require.NoError(t, err)

	events, err := svc.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	o, err = svc.Reverse(ctx, o.ID, events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, StatusUnpaid, o.Status)
	assert.True(t, o.PendingAmount.Equal(types.MustMoney("100.00")))
	assert.True(t, o.PaidAmount.IsZero())

	// The removed event is preserved on the correction trail.
	require.Len(t, auditor.removed, 1)
	assert.Equal(t, events[0].ID, auditor.removed[0].ID)
	assert.True(t, auditor.removed[0].Amount.Equal(types.MustMoney("40.00")))

	// Re-applying the same amount after a reversal is an ordinary payment.
	o, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("40.00"), ModeTransfer, date("2026-01-12"))
	require.NoError(t, err)
	assert.Equal(t, StatusPartiallyPaid, o.Status)
	assert.True(t, o.PaidAmount.Equal(types.MustMoney("40.00")))
}

func TestReverse_UnknownEvent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("10.00"), date("2026-01-10"))
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, o.ID, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestHistory_OrderedByDateThenInsertion(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("100.00"), date("2026-01-01"))
	require.NoError(t, err)

	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("10.00"), ModeCash, date("2026-01-20"))
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("20.00"), ModeCash, date("2026-01-05"))
	require.NoError(t, err)
	_, err = svc.RecordPayment(ctx, o.ID, types.MustMoney("30.00"), ModeCash, date("2026-01-20"))
	require.NoError(t, err)

	events, err := svc.History(ctx, o.ID)
	require.NoError(t, err)
	require.Len(t, events, 3)

	assert.True(t, events[0].Amount.Equal(types.MustMoney("20.00")))
	// Same date: insertion order decides.
	assert.True(t, events[1].Amount.Equal(types.MustMoney("10.00")))
	assert.True(t, events[2].Amount.Equal(types.MustMoney("30.00")))
}

func TestHistory_UnknownObligation(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.History(context.Background(), id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestRecordPayment_ConcurrentSameObligation(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("100.00"), date("2026-01-10"))
	require.NoError(t, err)

	const workers = 20
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordPayment(ctx, o.ID, types.MustMoney("1.00"), ModeCash, date("2026-01-12"))
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, got.PaidAmount.Equal(types.MustMoney("20.00")), "paid: %s", got.PaidAmount)
	assert.True(t, got.PendingAmount.Equal(types.MustMoney("80.00")))

	total, err := svc.TotalPaid(ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, total.Equal(got.PaidAmount), "cache must equal log sum")

	events, err := svc.History(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, events, workers)
}

func TestRecordPayment_ConcurrentFullSettlement(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	o, err := svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("300.00"), date("2026-01-10"))
	require.NoError(t, err)

	// Two racing full payments: exactly one may win.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.RecordPayment(ctx, o.ID, types.MustMoney("300.00"), ModeCash, date("2026-01-12"))
		}(i)
	}
	wg.Wait()

	var ok, rejected int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.IsOverpayment(err) || apperror.IsConcurrentModification(err):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, rejected)

	got, err := svc.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, got.Status)
	assert.True(t, got.PendingAmount.IsZero())
}

func TestListByCounterparty(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	customerID := id.New()
	ref := &CounterpartyRef{ID: customerID, Kind: CounterpartyCustomer}

	_, err := svc.CreateObligation(ctx, KindSaleBill, ref, types.MustMoney("10.00"), date("2026-01-10"))
	require.NoError(t, err)
	_, err = svc.CreateObligation(ctx, KindSaleBill, ref, types.MustMoney("20.00"), date("2026-01-11"))
	require.NoError(t, err)
	_, err = svc.CreateObligation(ctx, KindSaleBill, nil, types.MustMoney("30.00"), date("2026-01-11"))
	require.NoError(t, err)

	items, err := svc.ListByCounterparty(ctx, customerID)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
