package repository

import (
	"context"
	"fmt"

	"course-market/internal/model"
	"course-market/internal/store"

	"github.com/rs/zerolog"
)

// feedbackRepository implements FeedbackRepository.
type feedbackRepository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(s store.Store, logger zerolog.Logger) FeedbackRepository {
	return &feedbackRepository{
		store:  s,
		logger: logger.With().Str("repository", "feedback").Logger(),
	}
}

func (r *feedbackRepository) SaveFeedback(ctx context.Context, f *model.Feedback) error {
	if err := r.store.Set(ctx, feedbackKey(f.ID), f); err != nil {
		return fmt.Errorf("failed to save feedback %s: %w", f.ID, err)
	}
	return nil
}

func (r *feedbackRepository) ListFeedback(ctx context.Context) ([]model.Feedback, error) {
	return listByPrefix[model.Feedback](ctx, r.store, prefixFeedback, r.logger)
}

func (r *feedbackRepository) SaveContact(ctx context.Context, m *model.ContactMessage) error {
	if err := r.store.Set(ctx, contactKey(m.ID), m); err != nil {
		return fmt.Errorf("failed to save contact message %s: %w", m.ID, err)
	}
	return nil
}

func (r *feedbackRepository) ListContacts(ctx context.Context) ([]model.ContactMessage, error) {
	return listByPrefix[model.ContactMessage](ctx, r.store, prefixContact, r.logger)
}
