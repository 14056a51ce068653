package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"course-market/internal/events"
	"course-market/internal/model"
	"course-market/internal/promo"
	"course-market/internal/repository"

	"github.com/rs/zerolog"
)

// orderService implements OrderService.
type orderService struct {
	orderRepo      repository.OrderRepository
	enrollmentRepo repository.EnrollmentRepository
	courseRepo     repository.CourseRepository
	lessonRepo     repository.LessonRepository
	userRepo       repository.UserRepository
	promoRepo      repository.PromoRepository
	publisher      events.Publisher
	now            func() time.Time
	logger         zerolog.Logger
}

// NewOrderService creates a new order service. publisher may be nil.
func NewOrderService(
	orderRepo repository.OrderRepository,
	enrollmentRepo repository.EnrollmentRepository,
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	userRepo repository.UserRepository,
	promoRepo repository.PromoRepository,
	publisher events.Publisher,
	logger zerolog.Logger,
) OrderService {
	return &orderService{
		orderRepo:      orderRepo,
		enrollmentRepo: enrollmentRepo,
		courseRepo:     courseRepo,
		lessonRepo:     lessonRepo,
		userRepo:       userRepo,
		promoRepo:      promoRepo,
		publisher:      publisher,
		now:            func() time.Time { return time.Now().UTC() },
		logger:         logger.With().Str("service", "order").Logger(),
	}
}

// CreateOrder creates a pending order. An unknown or inactive promo code is
// ignored rather than rejected.
func (s *orderService) CreateOrder(ctx context.Context, caller Caller, req *model.OrderRequest) (*model.Order, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	courseID := strings.TrimSpace(req.CourseID)
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if courseID == "" || paymentMethod == "" {
		return nil, model.InvalidInput("courseId and paymentMethod are required")
	}

	course, err := s.courseRepo.GetByID(ctx, courseID)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", courseID).Msg("failed to get course")
		return nil, upstream(err)
	}
	if course == nil {
		return nil, model.ErrCourseNotFound
	}

	profile, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("failed to get profile")
		return nil, upstream(err)
	}
	if profile == nil {
		return nil, model.ErrProfileNotFound
	}

	existing, err := s.orderRepo.ListByUserCourse(ctx, caller.UserID, courseID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Str("course_id", courseID).Msg("failed to list orders")
		return nil, upstream(err)
	}
	for _, o := range existing {
		if o.Status == model.OrderStatusConfirmed {
			s.logger.Info().
				Str("user_id", caller.UserID).
				Str("course_id", courseID).
				Msg("course already purchased")
			return nil, model.ErrAlreadyPurchased
		}
	}

	discount, finalPrice := int64(0), course.Price
	var appliedCode *string

	if req.PromoCode != nil {
		if code := promo.Normalise(*req.PromoCode); code != "" {
			p, err := s.promoRepo.Get(ctx, code)
			if err != nil {
				s.logger.Error().Err(err).Str("promo_code", code).Msg("failed to get promo")
				return nil, upstream(err)
			}
			if p != nil && p.Active {
				discount, finalPrice = promo.Quote(course.Price, p.DiscountPercent)
				appliedCode = &code
			} else {
				s.logger.Debug().Str("promo_code", code).Msg("promo code not applicable, ignoring")
			}
		}
	}

	now := s.now()
	order := &model.Order{
		ID:            repository.OrderKey(caller.UserID, courseID, now.UnixNano()),
		UserID:        caller.UserID,
		UserName:      profile.Name,
		UserEmail:     profile.Email,
		UserPhone:     profile.Phone,
		CourseID:      course.ID,
		CourseTitle:   course.Title,
		CoursePrice:   course.Price,
		Discount:      discount,
		FinalPrice:    finalPrice,
		PromoCode:     appliedCode,
		PaymentMethod: paymentMethod,
		Status:        model.OrderStatusPending,
		CreatedAt:     now,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Str("order_id", order.ID).Msg("failed to create order")
		return nil, upstream(err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Int64("final_price", order.FinalPrice).
		Bool("promo_applied", appliedCode != nil).
		Msg("order created successfully")

	return order, nil
}

// ConfirmPayment moves a pending order to confirmed and creates the
// enrollment in the same transaction. An existing enrollment for the same
// user and course is kept as is.
func (s *orderService) ConfirmPayment(ctx context.Context, orderID, adminID string) (*model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, model.InvalidInput("orderId is required")
	}

	now := s.now()
	order, err := s.orderRepo.Transition(ctx, orderID, func(o *model.Order) (*model.Enrollment, error) {
		if o.Status != model.OrderStatusPending {
			return nil, model.ErrOrderNotPending
		}
		o.Status = model.OrderStatusConfirmed
		o.ConfirmedAt = &now
		o.ConfirmedBy = &adminID

		return &model.Enrollment{
			UserID:          o.UserID,
			CourseID:        o.CourseID,
			EnrolledAt:      now,
			Progress:        0,
			PurchaseOrderID: o.ID,
		}, nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID).Msg("failed to confirm order")
		return nil, upstream(err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("admin_id", adminID).
		Msg("order confirmed")

	s.publish(ctx, events.TopicOrderConfirmed, order, adminID)

	return order, nil
}

// CancelOrder cancels a pending order. Confirmed orders cannot be
// cancelled, so cancellation never has to revoke access.
func (s *orderService) CancelOrder(ctx context.Context, orderID, adminID string) (*model.Order, error) {
	if strings.TrimSpace(orderID) == "" {
		return nil, model.InvalidInput("orderId is required")
	}

	now := s.now()
	order, err := s.orderRepo.Transition(ctx, orderID, func(o *model.Order) (*model.Enrollment, error) {
		if o.Status != model.OrderStatusPending {
			return nil, model.ErrOrderNotPending
		}
		o.Status = model.OrderStatusCancelled
		o.CancelledAt = &now
		o.CancelledBy = &adminID
		return nil, nil
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", orderID).Msg("failed to cancel order")
		return nil, upstream(err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("admin_id", adminID).
		Msg("order cancelled")

	s.publish(ctx, events.TopicOrderCancelled, order, adminID)

	return order, nil
}

// publish is best-effort. The enrollment is already committed and CheckAccess
// heals from confirmed orders, so a lost event only delays the projector.
func (s *orderService) publish(ctx context.Context, topic string, order *model.Order, actorID string) {
	if s.publisher == nil {
		return
	}

	err := s.publisher.Publish(ctx, topic, events.OrderEvent{
		OrderID:    order.ID,
		UserID:     order.UserID,
		CourseID:   order.CourseID,
		Status:     string(order.Status),
		ActorID:    actorID,
		OccurredAt: s.now(),
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("order_id", order.ID).Str("topic", topic).Msg("failed to publish order event")
	}
}

func (s *orderService) ListOrders(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, upstream(err)
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (s *orderService) ListUserOrders(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list user orders")
		return nil, upstream(err)
	}
	sortOrdersNewestFirst(orders)
	return orders, nil
}

func (s *orderService) ListEnrollments(ctx context.Context, userID string) ([]model.Enrollment, error) {
	enrollments, err := s.enrollmentRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list enrollments")
		return nil, upstream(err)
	}
	return enrollments, nil
}

// PurchasedCourses lists confirmed purchases. Purchases of deleted courses
// are skipped.
func (s *orderService) PurchasedCourses(ctx context.Context, userID string) ([]model.PurchasedCourse, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list user orders")
		return nil, upstream(err)
	}
	sortOrdersNewestFirst(orders)

	seen := make(map[string]bool)
	purchased := make([]model.PurchasedCourse, 0)

	for _, o := range orders {
		if o.Status != model.OrderStatusConfirmed || seen[o.CourseID] {
			continue
		}
		seen[o.CourseID] = true

		course, err := s.courseRepo.GetByID(ctx, o.CourseID)
		if err != nil || course == nil {
			s.logger.Warn().Err(err).Str("course_id", o.CourseID).Msg("skipping purchased course")
			continue
		}

		lessons, err := s.lessonRepo.ListByCourse(ctx, o.CourseID)
		if err != nil {
			s.logger.Warn().Err(err).Str("course_id", o.CourseID).Msg("skipping purchased course")
			continue
		}

		purchaseDate := o.CreatedAt
		if o.ConfirmedAt != nil {
			purchaseDate = *o.ConfirmedAt
		}

		purchased = append(purchased, model.PurchasedCourse{
			Course:       *course,
			Lessons:      lessons,
			OrderID:      o.ID,
			PurchaseDate: purchaseDate,
		})
	}

	return purchased, nil
}

func sortOrdersNewestFirst(orders []model.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
