package gurukul

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// RepositoryPort abstracts gurukul storage.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	InsertMaterial(ctx context.Context, input CreateMaterialInput) (StudyMaterial, error)
	UpdateMaterial(ctx context.Context, id int64, input UpdateMaterialInput) (StudyMaterial, error)
	GetMaterial(ctx context.Context, id int64) (StudyMaterial, error)
	ListMaterials(ctx context.Context, activeOnly bool) ([]StudyMaterial, error)
	InsertCourse(ctx context.Context, input CreateCourseInput) (Course, error)
	UpdateCourse(ctx context.Context, id int64, input UpdateCourseInput) (Course, error)
	GetCourse(ctx context.Context, id int64) (Course, error)
	ListCourses(ctx context.Context, publishedOnly bool) ([]Course, error)
	InsertModule(ctx context.Context, courseID int64, input AddModuleInput) (CourseModule, error)
	InsertLesson(ctx context.Context, moduleID int64, input AddLessonInput) (CourseLesson, error)
	ListModules(ctx context.Context, courseID int64) ([]CourseModule, error)
	ListLessons(ctx context.Context, moduleID int64) ([]CourseLesson, error)
	GetOrder(ctx context.Context, id uuid.UUID) (Order, error)
	ListOrders(ctx context.Context, devoteeID int64, page shared.Pagination) ([]Order, int, error)
	InsertEnrollment(ctx context.Context, input EnrollInput) (Enrollment, error)
	UpdateEnrollmentProgress(ctx context.Context, id int64, progress float64) (Enrollment, error)
	ListEnrollments(ctx context.Context, courseID int64) ([]Enrollment, error)
}

// AuditPort records gurukul events.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service runs the gurukul storefront.
type Service struct {
	repo  RepositoryPort
	cache *CatalogCache
	audit AuditPort
	now   func() time.Time
}

// NewService constructs the gurukul service.
func NewService(repo RepositoryPort, cache *CatalogCache, audit AuditPort) *Service {
	return &Service{repo: repo, cache: cache, audit: audit, now: time.Now}
}

// WithNow overrides the clock for testing.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// CreateMaterial registers a study material.
func (s *Service) CreateMaterial(ctx context.Context, input CreateMaterialInput) (StudyMaterial, error) {
	material, err := s.repo.InsertMaterial(ctx, input)
	if err != nil {
		return StudyMaterial{}, err
	}
	s.cache.Invalidate(ctx)
	s.recordAudit(ctx, input.CreatedBy, "gurukul.material.create", strconv.FormatInt(material.ID, 10), map[string]any{"title": material.Title})
	return material, nil
}

// UpdateMaterial updates a study material.
func (s *Service) UpdateMaterial(ctx context.Context, id int64, input UpdateMaterialInput) (StudyMaterial, error) {
	material, err := s.repo.UpdateMaterial(ctx, id, input)
	if err != nil {
		return StudyMaterial{}, err
	}
	s.cache.Invalidate(ctx)
	s.recordAudit(ctx, input.CreatedBy, "gurukul.material.update", strconv.FormatInt(material.ID, 10), map[string]any{"title": material.Title})
	return material, nil
}

// GetMaterial loads one study material.
func (s *Service) GetMaterial(ctx context.Context, id int64) (StudyMaterial, error) {
	return s.repo.GetMaterial(ctx, id)
}

// ListMaterials lists study materials.
func (s *Service) ListMaterials(ctx context.Context, activeOnly bool) ([]StudyMaterial, error) {
	return s.repo.ListMaterials(ctx, activeOnly)
}

// CreateCourse registers a draft course.
func (s *Service) CreateCourse(ctx context.Context, input CreateCourseInput) (Course, error) {
	course, err := s.repo.InsertCourse(ctx, input)
	if err != nil {
		return Course{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "gurukul.course.create", strconv.FormatInt(course.ID, 10), map[string]any{"title": course.Title})
	return course, nil
}

// UpdateCourse updates a course. Publishing or unpublishing changes the
// catalog, so the cache is dropped.
func (s *Service) UpdateCourse(ctx context.Context, id int64, input UpdateCourseInput) (Course, error) {
	course, err := s.repo.UpdateCourse(ctx, id, input)
	if err != nil {
		return Course{}, err
	}
	s.cache.Invalidate(ctx)
	s.recordAudit(ctx, input.CreatedBy, "gurukul.course.update", strconv.FormatInt(course.ID, 10), map[string]any{"title": course.Title, "published": course.Published})
	return course, nil
}

// GetCourse loads one course.
func (s *Service) GetCourse(ctx context.Context, id int64) (Course, error) {
	return s.repo.GetCourse(ctx, id)
}

// ListCourses lists courses.
func (s *Service) ListCourses(ctx context.Context, publishedOnly bool) ([]Course, error) {
	return s.repo.ListCourses(ctx, publishedOnly)
}

// AddModule adds an ordered module to a course.
func (s *Service) AddModule(ctx context.Context, courseID int64, input AddModuleInput) (CourseModule, error) {
	if _, err := s.repo.GetCourse(ctx, courseID); err != nil {
		return CourseModule{}, err
	}
	return s.repo.InsertModule(ctx, courseID, input)
}

// AddLesson adds an ordered lesson to a module.
func (s *Service) AddLesson(ctx context.Context, moduleID int64, input AddLessonInput) (CourseLesson, error) {
	return s.repo.InsertLesson(ctx, moduleID, input)
}

// ListModules lists a course's modules.
func (s *Service) ListModules(ctx context.Context, courseID int64) ([]CourseModule, error) {
	return s.repo.ListModules(ctx, courseID)
}

// ListLessons lists a module's lessons.
func (s *Service) ListLessons(ctx context.Context, moduleID int64) ([]CourseLesson, error) {
	return s.repo.ListLessons(ctx, moduleID)
}

// Catalog returns the storefront view, served from redis when fresh.
func (s *Service) Catalog(ctx context.Context) (Catalog, error) {
	if catalog, ok := s.cache.Get(ctx); ok {
		return catalog, nil
	}
	courses, err := s.repo.ListCourses(ctx, true)
	if err != nil {
		return Catalog{}, err
	}
	materials, err := s.repo.ListMaterials(ctx, true)
	if err != nil {
		return Catalog{}, err
	}
	catalog := Catalog{Courses: courses, Materials: materials}
	s.cache.Set(ctx, catalog)
	return catalog, nil
}

// CreateOrder opens a pending order. Stock is checked but not reserved;
// payment is where the decrement happens.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	var order Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		code, err := tx.NextCode(ctx, shared.CodePrefixOrder, s.now())
		if err != nil {
			return err
		}
		orderID := uuid.New()
		var total float64
		items := make([]OrderItem, 0, len(input.Items))
		for _, line := range input.Items {
			material, err := tx.GetMaterialForUpdate(ctx, line.MaterialID)
			if err != nil {
				return err
			}
			if material.Stock < line.Quantity {
				return fmt.Errorf("%w: %s has %d", ErrInsufficientStock, material.Title, material.Stock)
			}
			lineTotal := shared.Round2(material.Price * float64(line.Quantity))
			total = shared.Round2(total + lineTotal)
			items = append(items, OrderItem{
				OrderID:    orderID,
				MaterialID: material.ID,
				Quantity:   line.Quantity,
				UnitPrice:  material.Price,
				LineTotal:  lineTotal,
			})
		}
		order, err = tx.InsertOrder(ctx, Order{
			ID:        orderID,
			Code:      code,
			DevoteeID: input.DevoteeID,
			Status:    OrderStatusPending,
			Total:     total,
			CreatedBy: input.CreatedBy,
		})
		if err != nil {
			return err
		}
		for i, item := range items {
			items[i], err = tx.InsertOrderItem(ctx, item)
			if err != nil {
				return err
			}
		}
		order.Items = items
		return nil
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, input.CreatedBy, "gurukul.order.create", order.ID.String(), map[string]any{"code": order.Code, "total": order.Total})
	return order, nil
}

// PayOrder records payment for a pending order: the sale posts debit cash /
// credit income, each material's stock is decremented, and the order flips to
// PAID, all in one transaction.
func (s *Service) PayOrder(ctx context.Context, input PayOrderInput) (Order, error) {
	var order Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, input.OrderID)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return fmt.Errorf("%w: status %s", ErrOrderNotPending, order.Status)
		}
		items, err := tx.ListOrderItems(ctx, input.OrderID)
		if err != nil {
			return err
		}
		for _, item := range items {
			if _, err := tx.GetMaterialForUpdate(ctx, item.MaterialID); err != nil {
				return err
			}
			if err := tx.DecrementMaterialStock(ctx, item.MaterialID, item.Quantity); err != nil {
				return err
			}
		}
		entry, err := tx.PostLedger(ctx, ledger.PostingInput{
			Date:          input.Date,
			Memo:          fmt.Sprintf("Gurukul order %s", order.Code),
			ReferenceType: "gurukul_order",
			ReferenceID:   order.ID,
			PostedBy:      input.CreatedBy,
			Lines: []ledger.PostingLine{
				{AccountCode: ledger.CodeCashBank, Debit: order.Total},
				{AccountCode: ledger.CodeDefaultIncome, Credit: order.Total},
			},
		})
		if err != nil {
			return err
		}
		order.Status = OrderStatusPaid
		order.EntryID = &entry.ID
		order.Items = items
		return tx.UpdateOrderStatus(ctx, order.ID, OrderStatusPaid, &entry.ID)
	})
	if err != nil {
		return Order{}, err
	}
	s.cache.Invalidate(ctx)
	s.recordAudit(ctx, input.CreatedBy, "gurukul.order.pay", order.ID.String(), map[string]any{"code": order.Code, "total": order.Total, "mode": input.Mode})
	return order, nil
}

// FulfillOrder marks a paid order fulfilled.
func (s *Service) FulfillOrder(ctx context.Context, id uuid.UUID, actorID int64) (Order, error) {
	var order Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPaid {
			return fmt.Errorf("%w: status %s", ErrOrderNotPaid, order.Status)
		}
		order.Status = OrderStatusFulfilled
		return tx.UpdateOrderStatus(ctx, id, OrderStatusFulfilled, nil)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, actorID, "gurukul.order.fulfill", order.ID.String(), map[string]any{"code": order.Code})
	return order, nil
}

// CancelOrder cancels a pending order.
func (s *Service) CancelOrder(ctx context.Context, id uuid.UUID, actorID int64) (Order, error) {
	var order Order
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		order, err = tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if order.Status != OrderStatusPending {
			return fmt.Errorf("%w: status %s", ErrOrderNotPending, order.Status)
		}
		order.Status = OrderStatusCancelled
		return tx.UpdateOrderStatus(ctx, id, OrderStatusCancelled, nil)
	})
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, actorID, "gurukul.order.cancel", order.ID.String(), map[string]any{"code": order.Code})
	return order, nil
}

// GetOrder loads one order.
func (s *Service) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ListOrders lists orders.
func (s *Service) ListOrders(ctx context.Context, devoteeID int64, page, perPage int) ([]Order, shared.Pagination, error) {
	p := shared.NewPagination(page, perPage, 0)
	orders, total, err := s.repo.ListOrders(ctx, devoteeID, p)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return orders, shared.NewPagination(page, perPage, total), nil
}

// Enroll enrolls a devotee in a published course.
func (s *Service) Enroll(ctx context.Context, input EnrollInput) (Enrollment, error) {
	course, err := s.repo.GetCourse(ctx, input.CourseID)
	if err != nil {
		return Enrollment{}, err
	}
	if !course.Published {
		return Enrollment{}, ErrCourseNotFound
	}
	return s.repo.InsertEnrollment(ctx, input)
}

// UpdateProgress sets enrollment progress.
func (s *Service) UpdateProgress(ctx context.Context, id int64, progress float64) (Enrollment, error) {
	return s.repo.UpdateEnrollmentProgress(ctx, id, progress)
}

// ListEnrollments lists enrollments for a course.
func (s *Service) ListEnrollments(ctx context.Context, courseID int64) ([]Enrollment, error) {
	return s.repo.ListEnrollments(ctx, courseID)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   "gurukul",
		EntityID: entityID,
		Meta:     meta,
		At:       s.now(),
	})
}
