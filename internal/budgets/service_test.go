package budgets

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBudgetsRepo struct {
	mu        sync.Mutex
	budgets   map[int64]Budget
	movements map[string]float64
	moveErr   error
	nextID    int64
}

func newFakeBudgetsRepo() *fakeBudgetsRepo {
	return &fakeBudgetsRepo{budgets: map[int64]Budget{}, movements: map[string]float64{}, nextID: 1}
}

func (f *fakeBudgetsRepo) UpsertBudget(_ context.Context, b Budget) (Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.budgets {
		if existing.AccountCode == b.AccountCode && existing.PeriodID == b.PeriodID {
			b.ID = id
			f.budgets[id] = b
			return b, nil
		}
	}
	b.ID = f.nextID
	f.nextID++
	f.budgets[b.ID] = b
	return b, nil
}

func (f *fakeBudgetsRepo) GetBudget(_ context.Context, id int64) (Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.budgets[id]
	if !ok {
		return Budget{}, ErrBudgetNotFound
	}
	return b, nil
}

func (f *fakeBudgetsRepo) DeleteBudget(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.budgets[id]; !ok {
		return ErrBudgetNotFound
	}
	delete(f.budgets, id)
	return nil
}

func (f *fakeBudgetsRepo) ListBudgets(_ context.Context, periodID int64) ([]Budget, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Budget
	for _, b := range f.budgets {
		if b.PeriodID == periodID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *fakeBudgetsRepo) AccountMovement(_ context.Context, accountCode string, periodID int64) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.moveErr != nil {
		return 0, f.moveErr
	}
	return f.movements[accountCode], nil
}

func TestUpsertBudgetReplacesExistingLine(t *testing.T) {
	repo := newFakeBudgetsRepo()
	svc := NewService(repo, nil)

	first, err := svc.UpsertBudget(context.Background(), UpsertBudgetInput{
		AccountCode: "5200", PeriodID: 1, Planned: 10000.005,
	})
	require.NoError(t, err)
	assert.Equal(t, 10000.01, first.Planned)

	second, err := svc.UpsertBudget(context.Background(), UpsertBudgetInput{
		AccountCode: "5200", PeriodID: 1, Planned: 12000,
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 12000.0, second.Planned)
}

func TestActualsComputesVariancePerLine(t *testing.T) {
	repo := newFakeBudgetsRepo()
	svc := NewService(repo, nil)

	lines := map[string]struct{ planned, actual float64 }{
		"5200": {planned: 10000, actual: 7500.25},
		"5100": {planned: 2000, actual: 2600},
		"4300": {planned: 50000, actual: 61000},
	}
	for code, l := range lines {
		_, err := svc.UpsertBudget(context.Background(), UpsertBudgetInput{AccountCode: code, PeriodID: 1, Planned: l.planned})
		require.NoError(t, err)
		repo.movements[code] = l.actual
	}

	actuals, err := svc.Actuals(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, actuals, 3)
	for _, a := range actuals {
		want := lines[a.AccountCode]
		assert.Equal(t, want.actual, a.Actual, a.AccountCode)
		assert.InDelta(t, want.planned-want.actual, a.Variance, 0.001, a.AccountCode)
	}
}

func TestActualsPropagatesMovementErrors(t *testing.T) {
	repo := newFakeBudgetsRepo()
	svc := NewService(repo, nil)
	_, err := svc.UpsertBudget(context.Background(), UpsertBudgetInput{AccountCode: "5200", PeriodID: 1, Planned: 100})
	require.NoError(t, err)

	repo.moveErr = errors.New("ledger unavailable")
	_, err = svc.Actuals(context.Background(), 1)
	require.ErrorContains(t, err, "ledger unavailable")
}

func TestActualsEmptyPeriod(t *testing.T) {
	svc := NewService(newFakeBudgetsRepo(), nil)
	actuals, err := svc.Actuals(context.Background(), 9)
	require.NoError(t, err)
	assert.Empty(t, actuals)
}
