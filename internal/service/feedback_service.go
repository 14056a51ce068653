package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"course-market/internal/model"
	"course-market/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// feedbackService implements FeedbackService.
type feedbackService struct {
	repo   repository.FeedbackRepository
	now    func() time.Time
	logger zerolog.Logger
}

// NewFeedbackService creates a new feedback service.
func NewFeedbackService(repo repository.FeedbackRepository, logger zerolog.Logger) FeedbackService {
	return &feedbackService{
		repo:   repo,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger.With().Str("service", "feedback").Logger(),
	}
}

func (s *feedbackService) SubmitFeedback(ctx context.Context, req *model.FeedbackRequest) (*model.Feedback, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, model.InvalidInput("Rating must be between 1 and 5")
	}

	feedback := &model.Feedback{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Rating:    req.Rating,
		Message:   req.Message,
		CreatedAt: s.now(),
	}

	if err := s.repo.SaveFeedback(ctx, feedback); err != nil {
		s.logger.Error().Err(err).Msg("failed to save feedback")
		return nil, upstream(err)
	}

	s.logger.Info().Str("feedback_id", feedback.ID).Int("rating", feedback.Rating).Msg("feedback received")
	return feedback, nil
}

func (s *feedbackService) SubmitContact(ctx context.Context, req *model.ContactRequest) (*model.ContactMessage, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	msg := &model.ContactMessage{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Phone:     strings.TrimSpace(req.Phone),
		Message:   req.Message,
		CreatedAt: s.now(),
	}

	if err := s.repo.SaveContact(ctx, msg); err != nil {
		s.logger.Error().Err(err).Msg("failed to save contact message")
		return nil, upstream(err)
	}

	s.logger.Info().Str("contact_id", msg.ID).Msg("contact message received")
	return msg, nil
}

func (s *feedbackService) ListFeedback(ctx context.Context) ([]model.Feedback, error) {
	items, err := s.repo.ListFeedback(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list feedback")
		return nil, upstream(err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (s *feedbackService) ListContacts(ctx context.Context) ([]model.ContactMessage, error) {
	items, err := s.repo.ListContacts(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list contact messages")
		return nil, upstream(err)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}
