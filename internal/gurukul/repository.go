package gurukul

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mandir-erp/mandir-erp/internal/ledger"
	"github.com/mandir-erp/mandir-erp/internal/platform/db"
	"github.com/mandir-erp/mandir-erp/internal/shared"
)

// Repository persists gurukul entities and bridges order payments into the
// ledger.
type Repository struct {
	pool       *pgxpool.Pool
	ledgerRepo *ledger.Repository
	ledgerSvc  *ledger.Service
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool, ledgerRepo *ledger.Repository, ledgerSvc *ledger.Service) *Repository {
	return &Repository{pool: pool, ledgerRepo: ledgerRepo, ledgerSvc: ledgerSvc}
}

// TxRepository exposes the order operations that must share one transaction.
type TxRepository interface {
	NextCode(ctx context.Context, prefix string, at time.Time) (string, error)
	GetMaterialForUpdate(ctx context.Context, id int64) (StudyMaterial, error)
	DecrementMaterialStock(ctx context.Context, id int64, quantity int) error
	InsertOrder(ctx context.Context, o Order) (Order, error)
	InsertOrderItem(ctx context.Context, item OrderItem) (OrderItem, error)
	GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status OrderStatus, entryID *int64) error
	PostLedger(ctx context.Context, input ledger.PostingInput) (ledger.JournalEntry, error)
}

type txRepository struct {
	tx         pgx.Tx
	ledgerRepo *ledger.Repository
	ledgerSvc  *ledger.Service
}

// WithTx executes fn within a repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx, ledgerRepo: r.ledgerRepo, ledgerSvc: r.ledgerSvc})
	})
}

func (r *txRepository) NextCode(ctx context.Context, prefix string, at time.Time) (string, error) {
	return shared.NextDocumentCode(ctx, r.tx, prefix, at)
}

func (r *txRepository) PostLedger(ctx context.Context, input ledger.PostingInput) (ledger.JournalEntry, error) {
	return r.ledgerSvc.PostIn(ctx, r.ledgerRepo.Bind(r.tx), input)
}

const materialColumns = `id, title, author, price, cover_path, stock, active, created_at, updated_at`

func scanMaterial(row pgx.Row) (StudyMaterial, error) {
	var m StudyMaterial
	err := row.Scan(&m.ID, &m.Title, &m.Author, &m.Price, &m.CoverPath, &m.Stock, &m.Active, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

// InsertMaterial stores a new study material.
func (r *Repository) InsertMaterial(ctx context.Context, input CreateMaterialInput) (StudyMaterial, error) {
	return scanMaterial(r.pool.QueryRow(ctx, `INSERT INTO study_materials (title, author, price, cover_path, stock, active)
VALUES ($1,$2,$3,$4,$5,true) RETURNING `+materialColumns,
		input.Title, input.Author, input.Price, input.CoverPath, input.Stock))
}

// UpdateMaterial updates a study material.
func (r *Repository) UpdateMaterial(ctx context.Context, id int64, input UpdateMaterialInput) (StudyMaterial, error) {
	m, err := scanMaterial(r.pool.QueryRow(ctx, `UPDATE study_materials
SET title=$2, author=$3, price=$4, cover_path=$5, stock=$6, active=$7, updated_at=now() WHERE id=$1
RETURNING `+materialColumns, id, input.Title, input.Author, input.Price, input.CoverPath, input.Stock, input.Active))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StudyMaterial{}, ErrMaterialNotFound
		}
		return StudyMaterial{}, err
	}
	return m, nil
}

// GetMaterial loads one study material.
func (r *Repository) GetMaterial(ctx context.Context, id int64) (StudyMaterial, error) {
	m, err := scanMaterial(r.pool.QueryRow(ctx, `SELECT `+materialColumns+` FROM study_materials WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StudyMaterial{}, ErrMaterialNotFound
		}
		return StudyMaterial{}, err
	}
	return m, nil
}

// ListMaterials lists study materials.
func (r *Repository) ListMaterials(ctx context.Context, activeOnly bool) ([]StudyMaterial, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+materialColumns+` FROM study_materials
WHERE ($1 = false OR active) ORDER BY title`, activeOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var materials []StudyMaterial
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	return materials, rows.Err()
}

const courseColumns = `id, title, description, price, published, created_at, updated_at`

func scanCourse(row pgx.Row) (Course, error) {
	var c Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Price, &c.Published, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// InsertCourse stores a new unpublished course.
func (r *Repository) InsertCourse(ctx context.Context, input CreateCourseInput) (Course, error) {
	return scanCourse(r.pool.QueryRow(ctx, `INSERT INTO courses (title, description, price, published)
VALUES ($1,$2,$3,false) RETURNING `+courseColumns, input.Title, input.Description, input.Price))
}

// UpdateCourse updates a course.
func (r *Repository) UpdateCourse(ctx context.Context, id int64, input UpdateCourseInput) (Course, error) {
	c, err := scanCourse(r.pool.QueryRow(ctx, `UPDATE courses
SET title=$2, description=$3, price=$4, published=$5, updated_at=now() WHERE id=$1
RETURNING `+courseColumns, id, input.Title, input.Description, input.Price, input.Published))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// GetCourse loads one course.
func (r *Repository) GetCourse(ctx context.Context, id int64) (Course, error) {
	c, err := scanCourse(r.pool.QueryRow(ctx, `SELECT `+courseColumns+` FROM courses WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Course{}, ErrCourseNotFound
		}
		return Course{}, err
	}
	return c, nil
}

// ListCourses lists courses, optionally published only.
func (r *Repository) ListCourses(ctx context.Context, publishedOnly bool) ([]Course, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+courseColumns+` FROM courses
WHERE ($1 = false OR published) ORDER BY title`, publishedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var courses []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

// InsertModule adds a module to a course.
func (r *Repository) InsertModule(ctx context.Context, courseID int64, input AddModuleInput) (CourseModule, error) {
	var m CourseModule
	err := r.pool.QueryRow(ctx, `INSERT INTO course_modules (course_id, title, position)
VALUES ($1,$2,$3) RETURNING id, course_id, title, position`, courseID, input.Title, input.Position).
		Scan(&m.ID, &m.CourseID, &m.Title, &m.Position)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return CourseModule{}, ErrCourseNotFound
		}
		return CourseModule{}, err
	}
	return m, nil
}

// InsertLesson adds a lesson to a module.
func (r *Repository) InsertLesson(ctx context.Context, moduleID int64, input AddLessonInput) (CourseLesson, error) {
	var l CourseLesson
	err := r.pool.QueryRow(ctx, `INSERT INTO course_lessons (module_id, title, content, video_ref, position)
VALUES ($1,$2,$3,$4,$5) RETURNING id, module_id, title, content, video_ref, position`,
		moduleID, input.Title, input.Content, input.VideoRef, input.Position).
		Scan(&l.ID, &l.ModuleID, &l.Title, &l.Content, &l.VideoRef, &l.Position)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return CourseLesson{}, ErrModuleNotFound
		}
		return CourseLesson{}, err
	}
	return l, nil
}

// ListModules lists a course's modules in position order, lessons included.
func (r *Repository) ListModules(ctx context.Context, courseID int64) ([]CourseModule, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, course_id, title, position FROM course_modules
WHERE course_id=$1 ORDER BY position, id`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var modules []CourseModule
	for rows.Next() {
		var m CourseModule
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Position); err != nil {
			return nil, err
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

// ListLessons lists a module's lessons in position order.
func (r *Repository) ListLessons(ctx context.Context, moduleID int64) ([]CourseLesson, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, module_id, title, content, video_ref, position FROM course_lessons
WHERE module_id=$1 ORDER BY position, id`, moduleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var lessons []CourseLesson
	for rows.Next() {
		var l CourseLesson
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.Title, &l.Content, &l.VideoRef, &l.Position); err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

const orderColumns = `id, code, devotee_id, status, total, entry_id, created_by, created_at, updated_at`

func scanOrder(row pgx.Row) (Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.Code, &o.DevoteeID, &o.Status, &o.Total, &o.EntryID, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	return o, err
}

// GetOrder loads one order with its items.
func (r *Repository) GetOrder(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(r.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM gurukul_orders WHERE id=$1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	o.Items, err = queryOrderItems(ctx, r.pool, id)
	return o, err
}

// ListOrders lists orders newest first with the total count.
func (r *Repository) ListOrders(ctx context.Context, devoteeID int64, page shared.Pagination) ([]Order, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM gurukul_orders WHERE ($1 = 0 OR devotee_id = $1)`, devoteeID).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+` FROM gurukul_orders
WHERE ($1 = 0 OR devotee_id = $1) ORDER BY created_at DESC LIMIT $2 OFFSET $3`, devoteeID, page.PerPage, page.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var orders []Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryOrderItems(ctx context.Context, q querier, orderID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.Query(ctx, `SELECT oi.id, oi.order_id, oi.material_id, m.title, oi.quantity, oi.unit_price, oi.line_total
FROM gurukul_order_items oi JOIN study_materials m ON m.id = oi.material_id
WHERE oi.order_id=$1 ORDER BY oi.id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []OrderItem
	for rows.Next() {
		var item OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.MaterialID, &item.Title, &item.Quantity, &item.UnitPrice, &item.LineTotal); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *txRepository) GetMaterialForUpdate(ctx context.Context, id int64) (StudyMaterial, error) {
	m, err := scanMaterial(r.tx.QueryRow(ctx, `SELECT `+materialColumns+` FROM study_materials WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return StudyMaterial{}, ErrMaterialNotFound
		}
		return StudyMaterial{}, err
	}
	return m, nil
}

func (r *txRepository) DecrementMaterialStock(ctx context.Context, id int64, quantity int) error {
	tag, err := r.tx.Exec(ctx, `UPDATE study_materials SET stock = stock - $2, updated_at=now()
WHERE id=$1 AND stock >= $2`, id, quantity)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func (r *txRepository) InsertOrder(ctx context.Context, o Order) (Order, error) {
	row := r.tx.QueryRow(ctx, `INSERT INTO gurukul_orders (id, code, devotee_id, status, total, created_by)
VALUES ($1,$2,$3,$4,$5,$6) RETURNING created_at, updated_at`,
		o.ID, o.Code, o.DevoteeID, o.Status, o.Total, o.CreatedBy)
	if err := row.Scan(&o.CreatedAt, &o.UpdatedAt); err != nil {
		return Order{}, err
	}
	return o, nil
}

func (r *txRepository) InsertOrderItem(ctx context.Context, item OrderItem) (OrderItem, error) {
	err := r.tx.QueryRow(ctx, `INSERT INTO gurukul_order_items (order_id, material_id, quantity, unit_price, line_total)
VALUES ($1,$2,$3,$4,$5) RETURNING id`,
		item.OrderID, item.MaterialID, item.Quantity, item.UnitPrice, item.LineTotal).Scan(&item.ID)
	if err != nil {
		return OrderItem{}, err
	}
	return item, nil
}

func (r *txRepository) GetOrderForUpdate(ctx context.Context, id uuid.UUID) (Order, error) {
	o, err := scanOrder(r.tx.QueryRow(ctx, `SELECT `+orderColumns+` FROM gurukul_orders WHERE id=$1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrOrderNotFound
		}
		return Order{}, err
	}
	return o, nil
}

func (r *txRepository) ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]OrderItem, error) {
	return queryOrderItems(ctx, r.tx, orderID)
}

func (r *txRepository) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status OrderStatus, entryID *int64) error {
	_, err := r.tx.Exec(ctx, `UPDATE gurukul_orders SET status=$2, entry_id=COALESCE($3, entry_id), updated_at=now() WHERE id=$1`, id, status, entryID)
	return err
}

// InsertEnrollment enrolls a devotee in a course.
func (r *Repository) InsertEnrollment(ctx context.Context, input EnrollInput) (Enrollment, error) {
	var e Enrollment
	err := r.pool.QueryRow(ctx, `INSERT INTO enrollments (devotee_id, course_id, progress)
VALUES ($1,$2,0) RETURNING id, devotee_id, course_id, progress, enrolled_at`,
		input.DevoteeID, input.CourseID).
		Scan(&e.ID, &e.DevoteeID, &e.CourseID, &e.Progress, &e.EnrolledAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return Enrollment{}, ErrAlreadyEnrolled
			case "23503":
				return Enrollment{}, ErrCourseNotFound
			}
		}
		return Enrollment{}, err
	}
	return e, nil
}

// UpdateEnrollmentProgress sets progress for an enrollment.
func (r *Repository) UpdateEnrollmentProgress(ctx context.Context, id int64, progress float64) (Enrollment, error) {
	var e Enrollment
	err := r.pool.QueryRow(ctx, `UPDATE enrollments SET progress=$2 WHERE id=$1
RETURNING id, devotee_id, course_id, progress, enrolled_at`, id, progress).
		Scan(&e.ID, &e.DevoteeID, &e.CourseID, &e.Progress, &e.EnrolledAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Enrollment{}, ErrEnrollmentNotFound
		}
		return Enrollment{}, err
	}
	return e, nil
}

// ListEnrollments lists enrollments for a course.
func (r *Repository) ListEnrollments(ctx context.Context, courseID int64) ([]Enrollment, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, devotee_id, course_id, progress, enrolled_at
FROM enrollments WHERE course_id=$1 ORDER BY enrolled_at`, courseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var enrollments []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.DevoteeID, &e.CourseID, &e.Progress, &e.EnrolledAt); err != nil {
			return nil, err
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}
