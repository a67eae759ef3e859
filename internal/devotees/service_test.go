package devotees

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevoteesRepo struct {
	devotees map[int64]Devotee
	nextID   int64
}

func newFakeDevoteesRepo() *fakeDevoteesRepo {
	return &fakeDevoteesRepo{devotees: map[int64]Devotee{}, nextID: 1}
}

func (f *fakeDevoteesRepo) InsertDevotee(_ context.Context, input CreateDevoteeInput) (Devotee, error) {
	d := Devotee{
		ID: f.nextID, Name: input.Name, Phone: input.Phone, Email: input.Email,
		Gotra: input.Gotra, Address: input.Address, City: input.City, Active: true,
	}
	f.nextID++
	f.devotees[d.ID] = d
	return d, nil
}

func (f *fakeDevoteesRepo) UpdateDevotee(_ context.Context, id int64, input UpdateDevoteeInput) (Devotee, error) {
	d, ok := f.devotees[id]
	if !ok {
		return Devotee{}, ErrDevoteeNotFound
	}
	d.Name, d.Phone, d.Active = input.Name, input.Phone, input.Active
	f.devotees[id] = d
	return d, nil
}

func (f *fakeDevoteesRepo) GetDevotee(_ context.Context, id int64) (Devotee, error) {
	d, ok := f.devotees[id]
	if !ok {
		return Devotee{}, ErrDevoteeNotFound
	}
	return d, nil
}

func (f *fakeDevoteesRepo) ListDevotees(_ context.Context, filter ListDevoteesFilter) ([]Devotee, int, error) {
	var out []Devotee
	for _, d := range f.devotees {
		if filter.Search != "" && !strings.Contains(strings.ToLower(d.Name), strings.ToLower(filter.Search)) {
			continue
		}
		out = append(out, d)
	}
	return out, len(out), nil
}

func (f *fakeDevoteesRepo) AllDevotees(_ context.Context, fn func(Devotee) error) error {
	for i := int64(1); i < f.nextID; i++ {
		if d, ok := f.devotees[i]; ok {
			if err := fn(d); err != nil {
				return err
			}
		}
	}
	return nil
}

func TestExportCSVStreamsAllDevotees(t *testing.T) {
	repo := newFakeDevoteesRepo()
	svc := NewService(repo, nil)

	first, err := svc.CreateDevotee(context.Background(), 1, CreateDevoteeInput{
		Name: "Ramesh Kumar", Phone: "9876543210", City: "Varanasi",
	})
	require.NoError(t, err)
	_, err = svc.CreateDevotee(context.Background(), 1, CreateDevoteeInput{
		Name: "Sita Devi", Phone: "9123456780",
	})
	require.NoError(t, err)

	d := repo.devotees[first.ID]
	d.TotalDonations = 125000
	repo.devotees[first.ID] = d

	var buf bytes.Buffer
	require.NoError(t, svc.ExportCSV(context.Background(), &buf))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "name", records[0][1])
	assert.Equal(t, "Ramesh Kumar", records[1][1])
	assert.Equal(t, "₹1,25,000.00", records[1][8])
	assert.Equal(t, "Sita Devi", records[2][1])
	assert.Equal(t, "₹0.00", records[2][8])
}

func TestListDevoteesSearch(t *testing.T) {
	repo := newFakeDevoteesRepo()
	svc := NewService(repo, nil)
	_, err := svc.CreateDevotee(context.Background(), 1, CreateDevoteeInput{Name: "Ramesh Kumar", Phone: "1"})
	require.NoError(t, err)
	_, err = svc.CreateDevotee(context.Background(), 1, CreateDevoteeInput{Name: "Sita Devi", Phone: "2"})
	require.NoError(t, err)

	found, page, err := svc.ListDevotees(context.Background(), ListDevoteesFilter{Search: "ramesh", Page: 1, PerPage: 20})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Ramesh Kumar", found[0].Name)
	assert.Equal(t, 1, page.Total)
}
