// Package gurukul runs the e-learning storefront: study materials, courses
// with ordered modules and lessons, material orders, and course enrollments.
package gurukul

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusFulfilled OrderStatus = "FULFILLED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
)

// StudyMaterial is a physical item sold through the storefront.
type StudyMaterial struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Price     float64   `json:"price"`
	CoverPath string    `json:"cover_path,omitempty"`
	Stock     int       `json:"stock"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Course is a published or draft course.
type Course struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CourseModule is an ordered section of a course.
type CourseModule struct {
	ID       int64  `json:"id"`
	CourseID int64  `json:"course_id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

// CourseLesson is an ordered lesson inside a module.
type CourseLesson struct {
	ID       int64  `json:"id"`
	ModuleID int64  `json:"module_id"`
	Title    string `json:"title"`
	Content  string `json:"content,omitempty"`
	VideoRef string `json:"video_ref,omitempty"`
	Position int    `json:"position"`
}

// Order is a material purchase by a devotee.
type Order struct {
	ID        uuid.UUID   `json:"id"`
	Code      string      `json:"code"`
	DevoteeID int64       `json:"devotee_id"`
	Status    OrderStatus `json:"status"`
	Total     float64     `json:"total"`
	EntryID   *int64      `json:"entry_id,omitempty"`
	Items     []OrderItem `json:"items,omitempty"`
	CreatedBy int64       `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID         int64     `json:"id"`
	OrderID    uuid.UUID `json:"order_id"`
	MaterialID int64     `json:"material_id"`
	Title      string    `json:"title,omitempty"`
	Quantity   int       `json:"quantity"`
	UnitPrice  float64   `json:"unit_price"`
	LineTotal  float64   `json:"line_total"`
}

// Enrollment links a devotee to a course.
type Enrollment struct {
	ID         int64     `json:"id"`
	DevoteeID  int64     `json:"devotee_id"`
	CourseID   int64     `json:"course_id"`
	Progress   float64   `json:"progress"`
	EnrolledAt time.Time `json:"enrolled_at"`
}

// Catalog is the public storefront view: published courses plus in-stock
// active materials.
type Catalog struct {
	Courses   []Course        `json:"courses"`
	Materials []StudyMaterial `json:"materials"`
}

// CreateMaterialInput carries fields for a new study material.
type CreateMaterialInput struct {
	Title     string  `json:"title" validate:"required,max=200"`
	Author    string  `json:"author" validate:"required,max=120"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	CoverPath string  `json:"cover_path" validate:"omitempty,max=300,startswith=gurukul/covers/"`
	Stock     int     `json:"stock" validate:"gte=0"`
	CreatedBy int64   `json:"created_by"`
}

// UpdateMaterialInput carries updatable material fields.
type UpdateMaterialInput struct {
	Title     string  `json:"title" validate:"required,max=200"`
	Author    string  `json:"author" validate:"required,max=120"`
	Price     float64 `json:"price" validate:"required,gt=0"`
	CoverPath string  `json:"cover_path" validate:"omitempty,max=300,startswith=gurukul/covers/"`
	Stock     int     `json:"stock" validate:"gte=0"`
	Active    bool    `json:"active"`
	CreatedBy int64   `json:"created_by"`
}

// CreateCourseInput carries fields for a new course.
type CreateCourseInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	CreatedBy   int64   `json:"created_by"`
}

// UpdateCourseInput carries updatable course fields.
type UpdateCourseInput struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=2000"`
	Price       float64 `json:"price" validate:"gte=0"`
	Published   bool    `json:"published"`
	CreatedBy   int64   `json:"created_by"`
}

// AddModuleInput adds an ordered module to a course.
type AddModuleInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Position int    `json:"position" validate:"gte=0"`
}

// AddLessonInput adds an ordered lesson to a module.
type AddLessonInput struct {
	Title    string `json:"title" validate:"required,max=200"`
	Content  string `json:"content" validate:"max=20000"`
	VideoRef string `json:"video_ref" validate:"max=300"`
	Position int    `json:"position" validate:"gte=0"`
}

// OrderItemInput is one requested order line.
type OrderItemInput struct {
	MaterialID int64 `json:"material_id" validate:"required,gt=0"`
	Quantity   int   `json:"quantity" validate:"required,gt=0"`
}

// CreateOrderInput carries fields for a new order.
type CreateOrderInput struct {
	DevoteeID int64            `json:"devotee_id" validate:"required,gt=0"`
	Items     []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	CreatedBy int64            `json:"created_by"`
}

// PayOrderInput records payment for a pending order.
type PayOrderInput struct {
	OrderID   uuid.UUID `json:"-"`
	Date      time.Time `json:"date" validate:"required"`
	Mode      string    `json:"mode" validate:"required,oneof=CASH UPI CARD BANK CHEQUE"`
	CreatedBy int64     `json:"created_by"`
}

// EnrollInput enrolls a devotee in a course.
type EnrollInput struct {
	DevoteeID int64 `json:"devotee_id" validate:"required,gt=0"`
	CourseID  int64 `json:"course_id" validate:"required,gt=0"`
}

// UpdateProgressInput updates enrollment progress.
type UpdateProgressInput struct {
	Progress float64 `json:"progress" validate:"gte=0,lte=100"`
}

// Sentinel errors.
var (
	ErrMaterialNotFound   = errors.New("gurukul: study material not found")
	ErrCourseNotFound     = errors.New("gurukul: course not found")
	ErrModuleNotFound     = errors.New("gurukul: course module not found")
	ErrOrderNotFound      = errors.New("gurukul: order not found")
	ErrEnrollmentNotFound = errors.New("gurukul: enrollment not found")
	ErrOrderNotPending    = errors.New("gurukul: order is not pending")
	ErrOrderNotPaid       = errors.New("gurukul: order is not paid")
	ErrInsufficientStock  = errors.New("gurukul: insufficient material stock")
	ErrAlreadyEnrolled    = errors.New("gurukul: devotee already enrolled in course")
)
