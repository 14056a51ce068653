package repository

import (
	"context"
	"fmt"

	"course-market/internal/model"
	"course-market/internal/store"

	"github.com/rs/zerolog"
)

// userRepository implements UserRepository.
type userRepository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewUserRepository creates a new user profile repository.
func NewUserRepository(s store.Store, logger zerolog.Logger) UserRepository {
	return &userRepository{
		store:  s,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*model.UserProfile, error) {
	profile, err := getOne[model.UserProfile](ctx, r.store, userKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}
	return profile, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.UserProfile, error) {
	return listByPrefix[model.UserProfile](ctx, r.store, prefixUser, r.logger)
}

// Save never persists EnrolledCourses; it is rebuilt from enrollments on read.
func (r *userRepository) Save(ctx context.Context, profile *model.UserProfile) error {
	stored := *profile
	stored.EnrolledCourses = nil
	if err := r.store.Set(ctx, userKey(profile.ID), &stored); err != nil {
		return fmt.Errorf("failed to save user %s: %w", profile.ID, err)
	}
	return nil
}

// progressRepository implements ProgressRepository.
type progressRepository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewProgressRepository creates a new lesson progress repository.
func NewProgressRepository(s store.Store, logger zerolog.Logger) ProgressRepository {
	return &progressRepository{
		store:  s,
		logger: logger.With().Str("repository", "progress").Logger(),
	}
}

func (r *progressRepository) Save(ctx context.Context, p *model.LessonProgress) error {
	key := progressKey(p.UserID, p.CourseID, p.LessonID)
	if err := r.store.Set(ctx, key, p); err != nil {
		return fmt.Errorf("failed to save progress %s: %w", key, err)
	}
	return nil
}

func (r *progressRepository) ListByUserCourse(ctx context.Context, userID, courseID string) ([]model.LessonProgress, error) {
	return listByPrefix[model.LessonProgress](ctx, r.store, userCourseProgressPrefix(userID, courseID), r.logger)
}
