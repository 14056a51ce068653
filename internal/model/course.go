package model

import "time"

// Course levels
const (
	LevelBeginner     = "Beginner"
	LevelIntermediate = "Intermediate"
	LevelAdvanced     = "Advanced"
)

// Course represents a purchasable course in the catalogue.
// Price is stored in minor currency units.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Teacher     string    `json:"teacher"`
	Level       string    `json:"level"`
	Duration    string    `json:"duration"`
	Price       int64     `json:"price"`
	Image       string    `json:"image,omitempty"`
	Rating      float64   `json:"rating"`
	Students    int       `json:"students"`
	Published   bool      `json:"published"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Lesson belongs to exactly one course. VideoRef is only exposed to
// callers that pass the access gate.
type Lesson struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"courseId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	VideoRef    string    `json:"videoUrl,omitempty"`
	Duration    string    `json:"duration,omitempty"`
	Order       int       `json:"order"`
	Locked      bool      `json:"locked,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// CourseRequest is the payload for creating or updating a course.
type CourseRequest struct {
	Title       string  `json:"title" validate:"required,max=200"`
	Description string  `json:"description" validate:"max=5000"`
	Teacher     string  `json:"teacher" validate:"required"`
	Level       string  `json:"level" validate:"required,oneof=Beginner Intermediate Advanced"`
	Duration    string  `json:"duration"`
	Price       int64   `json:"price" validate:"required,gt=0"`
	Image       string  `json:"image"`
	Rating      float64 `json:"rating" validate:"gte=0,lte=5"`
	Students    int     `json:"students" validate:"gte=0"`
	Published   *bool   `json:"published"`
}

// LessonRequest is the payload for creating or updating a lesson.
type LessonRequest struct {
	CourseID    string `json:"courseId" validate:"required"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description"`
	VideoRef    string `json:"videoUrl"`
	Duration    string `json:"duration"`
	Order       int    `json:"order" validate:"gte=0"`
}

// CourseDetail is a course with its lessons, gated for the caller.
type CourseDetail struct {
	Course    Course   `json:"course"`
	Lessons   []Lesson `json:"lessons"`
	HasAccess bool     `json:"hasAccess"`
}

// LessonProgress records completion of a single lesson by a user.
type LessonProgress struct {
	UserID    string    `json:"userId"`
	CourseID  string    `json:"courseId"`
	LessonID  string    `json:"lessonId"`
	Completed bool      `json:"completed"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProgressRequest is the payload for recording lesson progress.
type ProgressRequest struct {
	Completed bool `json:"completed"`
}
