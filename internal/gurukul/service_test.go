package gurukul

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

type fakeGurukulRepo struct {
	materials   map[int64]StudyMaterial
	courses     map[int64]Course
	orders      map[uuid.UUID]Order
	orderItems  map[uuid.UUID][]OrderItem
	enrollments []Enrollment
	postings    []ledger.PostingInput
	seq         int64
	nextID      int64
	entryID     int64
}

func newFakeGurukulRepo() *fakeGurukulRepo {
	return &fakeGurukulRepo{
		materials:  map[int64]StudyMaterial{},
		courses:    map[int64]Course{},
		orders:     map[uuid.UUID]Order{},
		orderItems: map[uuid.UUID][]OrderItem{},
		nextID:     1,
	}
}

func (f *fakeGurukulRepo) addMaterial(title string, price float64, stock int) StudyMaterial {
	m := StudyMaterial{ID: f.nextID, Title: title, Author: "Swami Ji", Price: price, Stock: stock, Active: true}
	f.nextID++
	f.materials[m.ID] = m
	return m
}

func (f *fakeGurukulRepo) addCourse(title string, published bool) Course {
	c := Course{ID: f.nextID, Title: title, Published: published}
	f.nextID++
	f.courses[c.ID] = c
	return c
}

func (f *fakeGurukulRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeGurukulTx{repo: f})
}

func (f *fakeGurukulRepo) InsertMaterial(_ context.Context, input CreateMaterialInput) (StudyMaterial, error) {
	return f.addMaterial(input.Title, input.Price, input.Stock), nil
}

func (f *fakeGurukulRepo) UpdateMaterial(_ context.Context, id int64, input UpdateMaterialInput) (StudyMaterial, error) {
	m, ok := f.materials[id]
	if !ok {
		return StudyMaterial{}, ErrMaterialNotFound
	}
	m.Title, m.Price, m.Stock, m.Active = input.Title, input.Price, input.Stock, input.Active
	f.materials[id] = m
	return m, nil
}

func (f *fakeGurukulRepo) GetMaterial(_ context.Context, id int64) (StudyMaterial, error) {
	m, ok := f.materials[id]
	if !ok {
		return StudyMaterial{}, ErrMaterialNotFound
	}
	return m, nil
}

func (f *fakeGurukulRepo) ListMaterials(_ context.Context, activeOnly bool) ([]StudyMaterial, error) {
	var out []StudyMaterial
	for _, m := range f.materials {
		if activeOnly && !m.Active {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeGurukulRepo) InsertCourse(_ context.Context, input CreateCourseInput) (Course, error) {
	return f.addCourse(input.Title, false), nil
}

func (f *fakeGurukulRepo) UpdateCourse(_ context.Context, id int64, input UpdateCourseInput) (Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	c.Title, c.Published = input.Title, input.Published
	f.courses[id] = c
	return c, nil
}

func (f *fakeGurukulRepo) GetCourse(_ context.Context, id int64) (Course, error) {
	c, ok := f.courses[id]
	if !ok {
		return Course{}, ErrCourseNotFound
	}
	return c, nil
}

func (f *fakeGurukulRepo) ListCourses(_ context.Context, publishedOnly bool) ([]Course, error) {
	var out []Course
	for _, c := range f.courses {
		if publishedOnly && !c.Published {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeGurukulRepo) InsertModule(_ context.Context, courseID int64, input AddModuleInput) (CourseModule, error) {
	m := CourseModule{ID: f.nextID, CourseID: courseID, Title: input.Title, Position: input.Position}
	f.nextID++
	return m, nil
}

func (f *fakeGurukulRepo) InsertLesson(_ context.Context, moduleID int64, input AddLessonInput) (CourseLesson, error) {
	l := CourseLesson{ID: f.nextID, ModuleID: moduleID, Title: input.Title, Position: input.Position}
	f.nextID++
	return l, nil
}

func (f *fakeGurukulRepo) ListModules(_ context.Context, courseID int64) ([]CourseModule, error) {
	return nil, nil
}

func (f *fakeGurukulRepo) ListLessons(_ context.Context, moduleID int64) ([]CourseLesson, error) {
	return nil, nil
}

func (f *fakeGurukulRepo) GetOrder(_ context.Context, id uuid.UUID) (Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeGurukulRepo) ListOrders(_ context.Context, devoteeID int64, page shared.Pagination) ([]Order, int, error) {
	var out []Order
	for _, o := range f.orders {
		if devoteeID == 0 || o.DevoteeID == devoteeID {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (f *fakeGurukulRepo) InsertEnrollment(_ context.Context, input EnrollInput) (Enrollment, error) {
	for _, e := range f.enrollments {
		if e.DevoteeID == input.DevoteeID && e.CourseID == input.CourseID {
			return Enrollment{}, ErrAlreadyEnrolled
		}
	}
	e := Enrollment{ID: f.nextID, DevoteeID: input.DevoteeID, CourseID: input.CourseID}
	f.nextID++
	f.enrollments = append(f.enrollments, e)
	return e, nil
}

func (f *fakeGurukulRepo) UpdateEnrollmentProgress(_ context.Context, id int64, progress float64) (Enrollment, error) {
	for i, e := range f.enrollments {
		if e.ID == id {
			f.enrollments[i].Progress = progress
			return f.enrollments[i], nil
		}
	}
	return Enrollment{}, ErrEnrollmentNotFound
}

func (f *fakeGurukulRepo) ListEnrollments(_ context.Context, courseID int64) ([]Enrollment, error) {
	var out []Enrollment
	for _, e := range f.enrollments {
		if e.CourseID == courseID {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeGurukulTx struct {
	repo *fakeGurukulRepo
}

func (t *fakeGurukulTx) NextCode(_ context.Context, prefix string, at time.Time) (string, error) {
	t.repo.seq++
	return shared.FormatDocumentCode(prefix, at.Year(), t.repo.seq), nil
}

func (t *fakeGurukulTx) GetMaterialForUpdate(_ context.Context, id int64) (StudyMaterial, error) {
	return t.repo.GetMaterial(context.Background(), id)
}

func (t *fakeGurukulTx) DecrementMaterialStock(_ context.Context, id int64, quantity int) error {
	m, ok := t.repo.materials[id]
	if !ok || m.Stock < quantity {
		return ErrInsufficientStock
	}
	m.Stock -= quantity
	t.repo.materials[id] = m
	return nil
}

func (t *fakeGurukulTx) InsertOrder(_ context.Context, o Order) (Order, error) {
	t.repo.orders[o.ID] = o
	return o, nil
}

func (t *fakeGurukulTx) InsertOrderItem(_ context.Context, item OrderItem) (OrderItem, error) {
	item.ID = t.repo.nextID
	t.repo.nextID++
	t.repo.orderItems[item.OrderID] = append(t.repo.orderItems[item.OrderID], item)
	return item, nil
}

func (t *fakeGurukulTx) GetOrderForUpdate(_ context.Context, id uuid.UUID) (Order, error) {
	return t.repo.GetOrder(context.Background(), id)
}

func (t *fakeGurukulTx) ListOrderItems(_ context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	return t.repo.orderItems[orderID], nil
}

func (t *fakeGurukulTx) UpdateOrderStatus(_ context.Context, id uuid.UUID, status OrderStatus, entryID *int64) error {
	o, ok := t.repo.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	o.Status = status
	if entryID != nil {
		o.EntryID = entryID
	}
	t.repo.orders[id] = o
	return nil
}

func (t *fakeGurukulTx) PostLedger(_ context.Context, input ledger.PostingInput) (ledger.JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return ledger.JournalEntry{}, err
	}
	t.repo.postings = append(t.repo.postings, input)
	t.repo.entryID++
	return ledger.JournalEntry{ID: t.repo.entryID, PeriodID: 1}, nil
}

func newGurukulService(repo *fakeGurukulRepo) *Service {
	svc := NewService(repo, nil, nil)
	svc.WithNow(orderDate)
	return svc
}

func orderDate() time.Time {
	return time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)
}

func TestCreateOrderComputesTotals(t *testing.T) {
	repo := newFakeGurukulRepo()
	gita := repo.addMaterial("Bhagavad Gita", 250, 10)
	mala := repo.addMaterial("Tulsi Mala", 99.5, 5)
	svc := newGurukulService(repo)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		DevoteeID: 3,
		Items: []OrderItemInput{
			{MaterialID: gita.ID, Quantity: 2},
			{MaterialID: mala.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "ORD-2025-0001", order.Code)
	assert.Equal(t, OrderStatusPending, order.Status)
	assert.Equal(t, 599.5, order.Total)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 500.0, order.Items[0].LineTotal)

	// Stock is only checked at creation, not reserved.
	assert.Equal(t, 10, repo.materials[gita.ID].Stock)
}

func TestCreateOrderRejectsInsufficientStock(t *testing.T) {
	repo := newFakeGurukulRepo()
	gita := repo.addMaterial("Bhagavad Gita", 250, 1)
	svc := newGurukulService(repo)

	_, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		DevoteeID: 3,
		Items:     []OrderItemInput{{MaterialID: gita.ID, Quantity: 2}},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestPayOrderPostsSaleAndDecrementsStock(t *testing.T) {
	repo := newFakeGurukulRepo()
	gita := repo.addMaterial("Bhagavad Gita", 250, 10)
	svc := newGurukulService(repo)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		DevoteeID: 3,
		Items:     []OrderItemInput{{MaterialID: gita.ID, Quantity: 4}},
	})
	require.NoError(t, err)

	paid, err := svc.PayOrder(context.Background(), PayOrderInput{
		OrderID: order.ID, Date: orderDate(), Mode: "UPI",
	})
	require.NoError(t, err)
	assert.Equal(t, OrderStatusPaid, paid.Status)
	require.NotNil(t, paid.EntryID)
	assert.Equal(t, 6, repo.materials[gita.ID].Stock)

	require.Len(t, repo.postings, 1)
	lines := repo.postings[0].Lines
	assert.Equal(t, ledger.CodeCashBank, lines[0].AccountCode)
	assert.Equal(t, 1000.0, lines[0].Debit)
	assert.Equal(t, ledger.CodeDefaultIncome, lines[1].AccountCode)
	assert.Equal(t, 1000.0, lines[1].Credit)

	// Second payment attempt must fail: order is no longer pending.
	_, err = svc.PayOrder(context.Background(), PayOrderInput{
		OrderID: order.ID, Date: orderDate(), Mode: "UPI",
	})
	require.ErrorIs(t, err, ErrOrderNotPending)
}

func TestOrderLifecycleTransitions(t *testing.T) {
	repo := newFakeGurukulRepo()
	gita := repo.addMaterial("Bhagavad Gita", 250, 10)
	svc := newGurukulService(repo)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		DevoteeID: 3,
		Items:     []OrderItemInput{{MaterialID: gita.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	// Fulfilling before payment is rejected.
	_, err = svc.FulfillOrder(context.Background(), order.ID, 1)
	require.ErrorIs(t, err, ErrOrderNotPaid)

	_, err = svc.PayOrder(context.Background(), PayOrderInput{OrderID: order.ID, Date: orderDate(), Mode: "CASH"})
	require.NoError(t, err)

	fulfilled, err := svc.FulfillOrder(context.Background(), order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusFulfilled, fulfilled.Status)

	// A paid order cannot be cancelled.
	_, err = svc.CancelOrder(context.Background(), order.ID, 1)
	require.ErrorIs(t, err, ErrOrderNotPending)
}

func TestCancelPendingOrder(t *testing.T) {
	repo := newFakeGurukulRepo()
	gita := repo.addMaterial("Bhagavad Gita", 250, 10)
	svc := newGurukulService(repo)

	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		DevoteeID: 3,
		Items:     []OrderItemInput{{MaterialID: gita.ID, Quantity: 1}},
	})
	require.NoError(t, err)

	cancelled, err := svc.CancelOrder(context.Background(), order.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, OrderStatusCancelled, cancelled.Status)
	assert.Equal(t, 10, repo.materials[gita.ID].Stock)
}

func TestEnrollRequiresPublishedCourse(t *testing.T) {
	repo := newFakeGurukulRepo()
	draft := repo.addCourse("Sanskrit Basics", false)
	published := repo.addCourse("Vedanta Introduction", true)
	svc := newGurukulService(repo)

	_, err := svc.Enroll(context.Background(), EnrollInput{DevoteeID: 5, CourseID: draft.ID})
	require.ErrorIs(t, err, ErrCourseNotFound)

	enrollment, err := svc.Enroll(context.Background(), EnrollInput{DevoteeID: 5, CourseID: published.ID})
	require.NoError(t, err)
	assert.Equal(t, published.ID, enrollment.CourseID)

	_, err = svc.Enroll(context.Background(), EnrollInput{DevoteeID: 5, CourseID: published.ID})
	require.ErrorIs(t, err, ErrAlreadyEnrolled)
}

func TestCatalogReadsThroughRepo(t *testing.T) {
	repo := newFakeGurukulRepo()
	repo.addMaterial("Bhagavad Gita", 250, 10)
	inactive := repo.addMaterial("Old Pamphlet", 5, 0)
	m := repo.materials[inactive.ID]
	m.Active = false
	repo.materials[inactive.ID] = m
	repo.addCourse("Vedanta Introduction", true)
	repo.addCourse("Unpublished Draft", false)
	svc := newGurukulService(repo)

	catalog, err := svc.Catalog(context.Background())
	require.NoError(t, err)
	assert.Len(t, catalog.Materials, 1)
	assert.Len(t, catalog.Courses, 1)
}
