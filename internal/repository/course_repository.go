package repository

import (
	"context"
	"fmt"
	"sort"

	"course-market/internal/model"
	"course-market/internal/store"

	"github.com/rs/zerolog"
)

// courseRepository implements CourseRepository.
type courseRepository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(s store.Store, logger zerolog.Logger) CourseRepository {
	return &courseRepository{
		store:  s,
		logger: logger.With().Str("repository", "course").Logger(),
	}
}

func (r *courseRepository) List(ctx context.Context) ([]model.Course, error) {
	return listByPrefix[model.Course](ctx, r.store, prefixCourse, r.logger)
}

func (r *courseRepository) GetByID(ctx context.Context, id string) (*model.Course, error) {
	course, err := getOne[model.Course](ctx, r.store, courseKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get course %s: %w", id, err)
	}
	return course, nil
}

func (r *courseRepository) Save(ctx context.Context, course *model.Course) error {
	if err := r.store.Set(ctx, courseKey(course.ID), course); err != nil {
		return fmt.Errorf("failed to save course %s: %w", course.ID, err)
	}
	return nil
}

// Delete removes the course record first so a partially failed cascade
// leaves orphaned lessons rather than a course with missing lessons.
func (r *courseRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, courseKey(id)); err != nil {
		return fmt.Errorf("failed to delete course %s: %w", id, err)
	}

	entries, err := r.store.GetByPrefix(ctx, courseLessonsPrefix(id))
	if err != nil {
		return fmt.Errorf("failed to list lessons of course %s: %w", id, err)
	}
	if len(entries) == 0 {
		return nil
	}

	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	if err := r.store.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete lessons of course %s: %w", id, err)
	}

	r.logger.Debug().Str("course_id", id).Int("lessons", len(keys)).Msg("course lessons deleted")
	return nil
}

// lessonRepository implements LessonRepository.
type lessonRepository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewLessonRepository creates a new lesson repository.
func NewLessonRepository(s store.Store, logger zerolog.Logger) LessonRepository {
	return &lessonRepository{
		store:  s,
		logger: logger.With().Str("repository", "lesson").Logger(),
	}
}

func (r *lessonRepository) ListByCourse(ctx context.Context, courseID string) ([]model.Lesson, error) {
	lessons, err := listByPrefix[model.Lesson](ctx, r.store, courseLessonsPrefix(courseID), r.logger)
	if err != nil {
		return nil, err
	}
	SortLessons(lessons)
	return lessons, nil
}

func (r *lessonRepository) GetByID(ctx context.Context, id string) (*model.Lesson, error) {
	lesson, err := getOne[model.Lesson](ctx, r.store, lessonKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get lesson %s: %w", id, err)
	}
	return lesson, nil
}

func (r *lessonRepository) Save(ctx context.Context, lesson *model.Lesson) error {
	if err := r.store.Set(ctx, lessonKey(lesson.ID), lesson); err != nil {
		return fmt.Errorf("failed to save lesson %s: %w", lesson.ID, err)
	}
	return nil
}

func (r *lessonRepository) Delete(ctx context.Context, id string) error {
	if err := r.store.Del(ctx, lessonKey(id)); err != nil {
		return fmt.Errorf("failed to delete lesson %s: %w", id, err)
	}
	return nil
}

// SortLessons orders lessons by their Order field, ties by creation.
func SortLessons(lessons []model.Lesson) {
	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Order != lessons[j].Order {
			return lessons[i].Order < lessons[j].Order
		}
		if !lessons[i].CreatedAt.Equal(lessons[j].CreatedAt) {
			return lessons[i].CreatedAt.Before(lessons[j].CreatedAt)
		}
		return lessons[i].ID < lessons[j].ID
	})
}
