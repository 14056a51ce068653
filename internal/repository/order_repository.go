package repository

import (
	"context"
	"errors"
	"fmt"

	"course-market/internal/model"
	"course-market/internal/store"

	"github.com/rs/zerolog"
)

// orderRepository implements OrderRepository.
type orderRepository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewOrderRepository creates a new order repository.
func NewOrderRepository(s store.Store, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		store:  s,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	if err := r.store.Set(ctx, order.ID, order); err != nil {
		return fmt.Errorf("failed to create order %s: %w", order.ID, err)
	}
	return nil
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*model.Order, error) {
	if _, _, ok := ParseOrderKey(id); !ok {
		return nil, nil
	}
	order, err := getOne[model.Order](ctx, r.store, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order %s: %w", id, err)
	}
	return order, nil
}

func (r *orderRepository) List(ctx context.Context) ([]model.Order, error) {
	return listByPrefix[model.Order](ctx, r.store, prefixOrder, r.logger)
}

func (r *orderRepository) ListByUser(ctx context.Context, userID string) ([]model.Order, error) {
	return listByPrefix[model.Order](ctx, r.store, userOrdersPrefix(userID), r.logger)
}

func (r *orderRepository) ListByUserCourse(ctx context.Context, userID, courseID string) ([]model.Order, error) {
	return listByPrefix[model.Order](ctx, r.store, userCourseOrdersPrefix(userID, courseID), r.logger)
}

// Transition watches both the order and the enrollment it may produce, so
// two concurrent transitions of the same order cannot both commit.
func (r *orderRepository) Transition(ctx context.Context, id string, mutate OrderMutation) (*model.Order, error) {
	userID, courseID, ok := ParseOrderKey(id)
	if !ok {
		return nil, model.ErrOrderNotFound
	}
	eKey := enrollmentKey(userID, courseID)

	var result model.Order
	err := r.store.Atomic(ctx, []string{id, eKey}, func(tx store.Tx) error {
		var order model.Order
		if err := tx.Get(ctx, id, &order); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return model.ErrOrderNotFound
			}
			return err
		}

		enrollment, err := mutate(&order)
		if err != nil {
			return err
		}

		if err := tx.Set(ctx, id, &order); err != nil {
			return err
		}

		if enrollment != nil {
			var existing model.Enrollment
			err := tx.Get(ctx, eKey, &existing)
			switch {
			case errors.Is(err, store.ErrNotFound):
				if err := tx.Set(ctx, eKey, enrollment); err != nil {
					return err
				}
			case err != nil:
				return err
			}
		}

		result = order
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

// enrollmentRepository implements EnrollmentRepository.
type enrollmentRepository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewEnrollmentRepository creates a new enrollment repository.
func NewEnrollmentRepository(s store.Store, logger zerolog.Logger) EnrollmentRepository {
	return &enrollmentRepository{
		store:  s,
		logger: logger.With().Str("repository", "enrollment").Logger(),
	}
}

func (r *enrollmentRepository) Get(ctx context.Context, userID, courseID string) (*model.Enrollment, error) {
	enrollment, err := getOne[model.Enrollment](ctx, r.store, enrollmentKey(userID, courseID))
	if err != nil {
		return nil, fmt.Errorf("failed to get enrollment %s/%s: %w", userID, courseID, err)
	}
	return enrollment, nil
}

func (r *enrollmentRepository) ListByUser(ctx context.Context, userID string) ([]model.Enrollment, error) {
	return listByPrefix[model.Enrollment](ctx, r.store, userEnrollmentsPrefix(userID), r.logger)
}

func (r *enrollmentRepository) EnsureExists(ctx context.Context, enrollment *model.Enrollment) (bool, error) {
	key := enrollmentKey(enrollment.UserID, enrollment.CourseID)
	created := false

	err := r.store.Atomic(ctx, []string{key}, func(tx store.Tx) error {
		created = false
		var existing model.Enrollment
		err := tx.Get(ctx, key, &existing)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		created = true
		return tx.Set(ctx, key, enrollment)
	})
	if err != nil {
		return false, fmt.Errorf("failed to ensure enrollment %s: %w", key, err)
	}

	return created, nil
}
