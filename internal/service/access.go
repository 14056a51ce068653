package service

import (
	"context"
	"fmt"

	"course-market/internal/model"
)

// CheckAccess grants access when an enrollment exists. Without one, a
// confirmed order still grants access and the missing enrollment is
// rebuilt.
func (s *orderService) CheckAccess(ctx context.Context, userID, courseID string) (bool, error) {
	if userID == "" || courseID == "" {
		return false, nil
	}

	enrollment, err := s.enrollmentRepo.Get(ctx, userID, courseID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("failed to get enrollment")
		return false, upstream(err)
	}
	if enrollment != nil {
		return true, nil
	}

	orders, err := s.orderRepo.ListByUserCourse(ctx, userID, courseID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Str("course_id", courseID).Msg("failed to list orders")
		return false, upstream(err)
	}

	for _, o := range orders {
		if o.Status != model.OrderStatusConfirmed {
			continue
		}
		if _, err := s.ensureEnrollment(ctx, &o); err != nil {
			s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("failed to rebuild enrollment")
		}
		return true, nil
	}

	return false, nil
}

func (s *orderService) ReconcileEnrollment(ctx context.Context, orderID string) error {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return upstream(err)
	}
	if order == nil {
		return model.ErrOrderNotFound
	}
	if order.Status != model.OrderStatusConfirmed {
		s.logger.Debug().Str("order_id", orderID).Str("status", string(order.Status)).Msg("order not confirmed, nothing to reconcile")
		return nil
	}

	if _, err := s.ensureEnrollment(ctx, order); err != nil {
		return upstream(err)
	}
	return nil
}

func (s *orderService) ensureEnrollment(ctx context.Context, order *model.Order) (bool, error) {
	enrolledAt := order.CreatedAt
	if order.ConfirmedAt != nil {
		enrolledAt = *order.ConfirmedAt
	}

	created, err := s.enrollmentRepo.EnsureExists(ctx, &model.Enrollment{
		UserID:          order.UserID,
		CourseID:        order.CourseID,
		EnrolledAt:      enrolledAt,
		PurchaseOrderID: order.ID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to ensure enrollment for %s: %w", order.ID, err)
	}
	if created {
		s.logger.Info().Str("order_id", order.ID).Msg("enrollment rebuilt from confirmed order")
	}
	return created, nil
}
