package party

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"khata/internal/core/apperror"
	"khata/internal/core/id"
)

// fakeRepo is an in-memory Repository with the same atomic
// insert-if-absent semantics as the real stores.
type fakeRepo struct {
	mu          sync.Mutex
	byID        map[id.ID]*Wholesaler
	byKey       map[string]id.ID
	customers   map[id.ID]*Customer
	insertCount int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		byID:      make(map[id.ID]*Wholesaler),
		byKey:     make(map[string]id.ID),
		customers: make(map[id.ID]*Customer),
	}
}

func (r *fakeRepo) GetWholesaler(ctx context.Context, wholesalerID id.ID) (*Wholesaler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.byID[wholesalerID]
	if !ok {
		return nil, apperror.NewNotFound("wholesaler", wholesalerID.String())
	}
	cp := *w
	return &cp, nil
}

func (r *fakeRepo) FindWholesalerByKey(ctx context.Context, key string) (*Wholesaler, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wid, ok := r.byKey[key]
	if !ok {
		return nil, apperror.NewNotFound("wholesaler", key)
	}
	cp := *r.byID[wid]
	return &cp, nil
}

func (r *fakeRepo) InsertWholesalerIfAbsent(ctx context.Context, candidate *Wholesaler) (*Wholesaler, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if wid, ok := r.byKey[candidate.UniqueKey]; ok {
		cp := *r.byID[wid]
		return &cp, false, nil
	}
	cp := *candidate
	r.byID[candidate.ID] = &cp
	r.byKey[candidate.UniqueKey] = candidate.ID
	r.insertCount++
	out := cp
	return &out, true, nil
}

func (r *fakeRepo) GetCustomer(ctx context.Context, customerID id.ID) (*Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.customers[customerID]
	if !ok {
		return nil, apperror.NewNotFound("customer", customerID.String())
	}
	cp := *c
	return &cp, nil
}

func (r *fakeRepo) SaveCustomer(ctx context.Context, c *Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.customers[c.ID] = &cp
	return nil
}

func TestUniqueKey_Normalization(t *testing.T) {
	base := UniqueKey("Gold Standard Supplies", "0771-234-567", "12 Main St, Colombo")

	variants := []struct {
		name, phone, address string
	}{
		{"gold standard supplies", "0771234567", "12 main st, colombo"},
		{"  Gold   Standard  Supplies ", "(077) 123 4567", " 12  Main St, Colombo "},
		{"GOLD STANDARD SUPPLIES", "077-123-4567", "12 MAIN ST, COLOMBO"},
	}
	for _, v := range variants {
		assert.Equal(t, base, UniqueKey(v.name, v.phone, v.address),
			"variant %q/%q/%q", v.name, v.phone, v.address)
	}

	assert.NotEqual(t, base, UniqueKey("Gold Standard Supplies", "0779999999", "12 Main St, Colombo"),
		"different digits are a different identity")
	assert.NotEqual(t, base, UniqueKey("Gold Standard Supplies", "0771234567", "99 Other Rd"),
		"different address is a different identity")
}

func TestUniqueKey_AbsentFields(t *testing.T) {
	assert.Equal(t, UniqueKey("Acme", "", ""), UniqueKey("acme", "   ", ""))
	// Phone with no digits normalizes to empty, same as missing.
	assert.Equal(t, UniqueKey("Acme", "n/a", ""), UniqueKey("Acme", "", ""))
}

func TestResolve_Idempotent(t *testing.T) {
	repo := newFakeRepo()
	r := NewResolver(repo)
	ctx := context.Background()

	first, err := r.Resolve(ctx, "Fit Supply Co", "071 555 1234", "Kandy Rd")
	require.NoError(t, err)

	// Re-entered later with different formatting.
	second, err := r.Resolve(ctx, "  fit  supply co ", "0715551234", "KANDY RD")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, repo.insertCount)
	// First-seen spelling is the canonical record.
	assert.Equal(t, "Fit Supply Co", second.Name)
}

func TestResolve_DistinctIdentities(t *testing.T) {
	repo := newFakeRepo()
	r := NewResolver(repo)
	ctx := context.Background()

	a, err := r.Resolve(ctx, "Fit Supply Co", "0715551234", "")
	require.NoError(t, err)
	b, err := r.Resolve(ctx, "Fit Supply Co", "0715559999", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, repo.insertCount)
}

func TestResolve_EmptyName(t *testing.T) {
	r := NewResolver(newFakeRepo())
	_, err := r.Resolve(context.Background(), "", "0715551234", "")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}

func TestResolve_ConcurrentSameIdentity(t *testing.T) {
	repo := newFakeRepo()
	r := NewResolver(repo)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	ids := make([]id.ID, workers)
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := r.Resolve(ctx, "Mega Nutrition", "0112 345 678", "Galle Rd")
			if err == nil {
				ids[i] = w.ID
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i], "all resolutions converge on one record")
	}
	assert.Equal(t, 1, repo.insertCount)
}

func TestCustomerRoundTrip(t *testing.T) {
	r := NewResolver(newFakeRepo())
	ctx := context.Background()

	c, err := r.CreateCustomer(ctx, "Nimal Perera", "0770000000", "")
	require.NoError(t, err)

	got, err := r.GetCustomer(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Nimal Perera", got.Name)

	_, err = r.GetCustomer(ctx, id.New())
	assert.True(t, apperror.IsNotFound(err))
}

func TestCreateCustomer_EmptyName(t *testing.T) {
	r := NewResolver(newFakeRepo())
	_, err := r.CreateCustomer(context.Background(), "", "", "")
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
}
