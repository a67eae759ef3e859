package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeInventoryRepo struct {
	items     map[int64]Item
	movements []Movement
	nextID    int64
}

func newFakeInventoryRepo() *fakeInventoryRepo {
	return &fakeInventoryRepo{items: map[int64]Item{}, nextID: 1}
}

func (f *fakeInventoryRepo) addItem(code string, onHand, reorder float64) Item {
	item := Item{ID: f.nextID, Code: code, Name: code, Unit: "KG", QuantityOnHand: onHand, ReorderLevel: reorder, Active: true}
	f.nextID++
	f.items[item.ID] = item
	return item
}

func (f *fakeInventoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeInventoryTx{repo: f})
}

func (f *fakeInventoryRepo) InsertItem(_ context.Context, input CreateItemInput) (Item, error) {
	return f.addItem(input.Code, 0, input.ReorderLevel), nil
}

func (f *fakeInventoryRepo) GetItem(_ context.Context, id int64) (Item, error) {
	item, ok := f.items[id]
	if !ok {
		return Item{}, ErrItemNotFound
	}
	return item, nil
}

func (f *fakeInventoryRepo) ListItems(_ context.Context, activeOnly bool) ([]Item, error) {
	var out []Item
	for _, item := range f.items {
		out = append(out, item)
	}
	return out, nil
}

func (f *fakeInventoryRepo) ListLowStock(_ context.Context) ([]Item, error) {
	var out []Item
	for _, item := range f.items {
		if item.Active && item.QuantityOnHand <= item.ReorderLevel {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeInventoryRepo) ListMovements(_ context.Context, itemID int64) ([]Movement, error) {
	var out []Movement
	for _, m := range f.movements {
		if m.ItemID == itemID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeInventoryTx struct {
	repo *fakeInventoryRepo
}

func (t *fakeInventoryTx) GetItemForUpdate(_ context.Context, id int64) (Item, error) {
	return t.repo.GetItem(context.Background(), id)
}

func (t *fakeInventoryTx) UpdateItemQuantity(_ context.Context, id int64, quantity float64) error {
	item, ok := t.repo.items[id]
	if !ok {
		return ErrItemNotFound
	}
	item.QuantityOnHand = quantity
	t.repo.items[id] = item
	return nil
}

func (t *fakeInventoryTx) InsertMovement(_ context.Context, m Movement) (Movement, error) {
	m.ID = t.repo.nextID
	t.repo.nextID++
	t.repo.movements = append(t.repo.movements, m)
	return m, nil
}

func TestApplyMovement(t *testing.T) {
	cases := []struct {
		name     string
		current  float64
		typ      MovementType
		quantity float64
		want     float64
		wantErr  error
	}{
		{name: "in adds", current: 10, typ: MovementTypeIn, quantity: 5, want: 15},
		{name: "out subtracts", current: 10, typ: MovementTypeOut, quantity: 4, want: 6},
		{name: "out to zero", current: 10, typ: MovementTypeOut, quantity: 10, want: 0},
		{name: "out below zero", current: 10, typ: MovementTypeOut, quantity: 10.5, wantErr: ErrInsufficientStock},
		{name: "adjust sets absolute", current: 10, typ: MovementTypeAdjust, quantity: 3, want: 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := applyMovement(tc.current, tc.typ, tc.quantity)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := applyMovement(1, MovementType("TRANSFER"), 1)
	require.Error(t, err)
}

func TestRecordMovementWritesRunningBalance(t *testing.T) {
	repo := newFakeInventoryRepo()
	item := repo.addItem("GHEE", 20, 5)
	svc := NewService(repo, nil)

	out, err := svc.RecordMovement(context.Background(), RecordMovementInput{
		ItemID: item.ID, Type: MovementTypeOut, Quantity: 8, RefModule: "gurukul", RefID: "ORD-2025-0001",
	})
	require.NoError(t, err)
	assert.Equal(t, 12.0, out.Balance)
	assert.Equal(t, 12.0, repo.items[item.ID].QuantityOnHand)

	in, err := svc.RecordMovement(context.Background(), RecordMovementInput{
		ItemID: item.ID, Type: MovementTypeIn, Quantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 15.0, in.Balance)

	_, err = svc.RecordMovement(context.Background(), RecordMovementInput{
		ItemID: item.ID, Type: MovementTypeOut, Quantity: 100,
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, 15.0, repo.items[item.ID].QuantityOnHand, "failed movement must not change stock")
}

func TestListLowStock(t *testing.T) {
	repo := newFakeInventoryRepo()
	repo.addItem("DIYA", 2, 10)
	repo.addItem("CAMPHOR", 50, 10)
	svc := NewService(repo, nil)

	low, err := svc.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low, 1)
	assert.Equal(t, "DIYA", low[0].Code)
}
