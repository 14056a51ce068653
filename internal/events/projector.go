package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"course-market/internal/model"

	"github.com/rs/zerolog"
)

// EnrollmentReconciler makes sure a confirmed order has its enrollment.
type EnrollmentReconciler interface {
	ReconcileEnrollment(ctx context.Context, orderID string) error
}

// Projector consumes order.confirmed events and reconciles enrollments.
// Reconciliation is idempotent so redelivered events are harmless.
type Projector struct {
	bus        *Bus
	reconciler EnrollmentReconciler
	retryDelay time.Duration
	logger     zerolog.Logger
}

// NewProjector creates a new enrollment projector.
func NewProjector(bus *Bus, reconciler EnrollmentReconciler, logger zerolog.Logger) *Projector {
	return &Projector{
		bus:        bus,
		reconciler: reconciler,
		retryDelay: time.Second,
		logger:     logger.With().Str("component", "enrollment-projector").Logger(),
	}
}

// Start subscribes and processes events in the background until ctx is done.
func (p *Projector) Start(ctx context.Context) error {
	messages, err := p.bus.Subscribe(ctx, TopicOrderConfirmed)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			p.handle(ctx, msg.UUID, msg.Payload, msg.Ack, msg.Nack)
		}
		p.logger.Info().Msg("enrollment projector stopped")
	}()

	p.logger.Info().Msg("enrollment projector started")
	return nil
}

func (p *Projector) handle(ctx context.Context, id string, payload []byte, ack func() bool, nack func() bool) {
	var event OrderEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		p.logger.Error().Err(err).Str("message_id", id).Msg("dropping undecodable event")
		ack()
		return
	}

	err := p.reconciler.ReconcileEnrollment(ctx, event.OrderID)
	if errors.Is(err, model.ErrOrderNotFound) {
		p.logger.Error().Str("order_id", event.OrderID).Str("message_id", id).Msg("dropping event for unknown order")
		ack()
		return
	}
	if err != nil {
		p.logger.Warn().Err(err).Str("order_id", event.OrderID).Msg("enrollment reconciliation failed, redelivering")
		select {
		case <-time.After(p.retryDelay):
			nack()
		case <-ctx.Done():
		}
		return
	}

	ack()
}
