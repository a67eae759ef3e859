package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEventsRepo struct {
	events        map[int64]TempleEvent
	registrations []Registration
	nextID        int64
}

func newFakeEventsRepo() *fakeEventsRepo {
	return &fakeEventsRepo{events: map[int64]TempleEvent{}, nextID: 1}
}

func (f *fakeEventsRepo) addEvent(capacity int, open bool, endsAt time.Time) TempleEvent {
	e := TempleEvent{
		ID: f.nextID, Name: "Janmashtami Celebration", Venue: "Main Hall",
		StartsAt: endsAt.Add(-4 * time.Hour), EndsAt: endsAt,
		Capacity: capacity, RegistrationOpen: open,
	}
	f.nextID++
	f.events[e.ID] = e
	return e
}

func (f *fakeEventsRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeEventsTx{repo: f})
}

func (f *fakeEventsRepo) InsertEvent(_ context.Context, input CreateEventInput) (TempleEvent, error) {
	e := TempleEvent{
		ID: f.nextID, Name: input.Name, Venue: input.Venue,
		StartsAt: input.StartsAt, EndsAt: input.EndsAt,
		Capacity: input.Capacity, RegistrationOpen: true,
	}
	f.nextID++
	f.events[e.ID] = e
	return e, nil
}

func (f *fakeEventsRepo) UpdateEvent(_ context.Context, id int64, input UpdateEventInput) (TempleEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return TempleEvent{}, ErrEventNotFound
	}
	e.Name = input.Name
	e.Capacity = input.Capacity
	e.RegistrationOpen = input.RegistrationOpen
	f.events[id] = e
	return e, nil
}

func (f *fakeEventsRepo) GetEvent(_ context.Context, id int64) (TempleEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return TempleEvent{}, ErrEventNotFound
	}
	return e, nil
}

func (f *fakeEventsRepo) ListEvents(_ context.Context, upcomingOnly bool) ([]TempleEvent, error) {
	var out []TempleEvent
	for _, e := range f.events {
		out = append(out, e)
	}
	return out, nil
}

func (f *fakeEventsRepo) GetRegistrationByCode(_ context.Context, code uuid.UUID) (Registration, error) {
	for _, r := range f.registrations {
		if r.Code == code {
			return r, nil
		}
	}
	return Registration{}, ErrRegistrationNotFound
}

func (f *fakeEventsRepo) MarkCheckedIn(_ context.Context, code uuid.UUID) (Registration, bool, error) {
	for i, r := range f.registrations {
		if r.Code != code {
			continue
		}
		if r.CheckedInAt != nil {
			return r, false, nil
		}
		now := time.Now()
		f.registrations[i].CheckedInAt = &now
		return f.registrations[i], true, nil
	}
	return Registration{}, false, ErrRegistrationNotFound
}

func (f *fakeEventsRepo) ListRegistrations(_ context.Context, eventID int64) ([]Registration, error) {
	var out []Registration
	for _, r := range f.registrations {
		if r.EventID == eventID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeEventsTx struct {
	repo *fakeEventsRepo
}

func (t *fakeEventsTx) GetEventForUpdate(_ context.Context, id int64) (TempleEvent, error) {
	return t.repo.GetEvent(context.Background(), id)
}

func (t *fakeEventsTx) CountRegistrations(_ context.Context, eventID int64) (int, error) {
	count := 0
	for _, r := range t.repo.registrations {
		if r.EventID == eventID {
			count++
		}
	}
	return count, nil
}

func (t *fakeEventsTx) InsertRegistration(_ context.Context, reg Registration) (Registration, error) {
	for _, existing := range t.repo.registrations {
		if existing.EventID == reg.EventID && existing.Email == reg.Email {
			return Registration{}, ErrDuplicateRegistration
		}
	}
	reg.ID = t.repo.nextID
	t.repo.nextID++
	reg.RegisteredAt = time.Now()
	t.repo.registrations = append(t.repo.registrations, reg)
	return reg, nil
}

func futureEnd() time.Time {
	return time.Now().Add(24 * time.Hour)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	repo := newFakeEventsRepo()
	event := repo.addEvent(100, true, futureEnd())
	svc := NewService(repo, nil)

	reg, err := svc.Register(context.Background(), event.ID, RegisterInput{
		Name:  "Asha Patel",
		Email: "  Asha.Patel@Example.com ",
		Phone: "9876543210",
	})
	require.NoError(t, err)
	assert.Equal(t, "asha.patel@example.com", reg.Email)
	assert.NotEqual(t, uuid.Nil, reg.Code)
}

func TestRegisterEnforcesCapacity(t *testing.T) {
	repo := newFakeEventsRepo()
	event := repo.addEvent(2, true, futureEnd())
	svc := NewService(repo, nil)

	for i, email := range []string{"a@x.in", "b@x.in"} {
		_, err := svc.Register(context.Background(), event.ID, RegisterInput{
			Name: "Devotee", Email: email,
		})
		require.NoError(t, err, "registration %d", i)
	}

	_, err := svc.Register(context.Background(), event.ID, RegisterInput{
		Name: "Devotee", Email: "c@x.in",
	})
	require.ErrorIs(t, err, ErrEventFull)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	repo := newFakeEventsRepo()
	event := repo.addEvent(10, true, futureEnd())
	svc := NewService(repo, nil)

	_, err := svc.Register(context.Background(), event.ID, RegisterInput{Name: "A", Email: "same@x.in"})
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), event.ID, RegisterInput{Name: "B", Email: "SAME@x.in"})
	require.ErrorIs(t, err, ErrDuplicateRegistration)
}

func TestRegisterClosedOrEndedEvent(t *testing.T) {
	repo := newFakeEventsRepo()
	closed := repo.addEvent(10, false, futureEnd())
	ended := repo.addEvent(10, true, time.Now().Add(-time.Hour))
	svc := NewService(repo, nil)

	_, err := svc.Register(context.Background(), closed.ID, RegisterInput{Name: "A", Email: "a@x.in"})
	require.ErrorIs(t, err, ErrRegistrationClosed)

	_, err = svc.Register(context.Background(), ended.ID, RegisterInput{Name: "A", Email: "a@x.in"})
	require.ErrorIs(t, err, ErrRegistrationClosed)
}

func TestScanIsIdempotent(t *testing.T) {
	repo := newFakeEventsRepo()
	event := repo.addEvent(10, true, futureEnd())
	svc := NewService(repo, nil)

	reg, err := svc.Register(context.Background(), event.ID, RegisterInput{Name: "A", Email: "a@x.in"})
	require.NoError(t, err)

	first, err := svc.Scan(context.Background(), reg.Code)
	require.NoError(t, err)
	assert.False(t, first.AlreadyCheckedIn)
	require.NotNil(t, first.Registration.CheckedInAt)

	second, err := svc.Scan(context.Background(), reg.Code)
	require.NoError(t, err)
	assert.True(t, second.AlreadyCheckedIn)

	_, err = svc.Scan(context.Background(), uuid.New())
	require.ErrorIs(t, err, ErrRegistrationNotFound)
}
