package repository

import (
	"context"
	"errors"
	"fmt"

	"course-market/internal/model"
	"course-market/internal/store"

	"github.com/rs/zerolog"
)

// promoRepository implements PromoRepository.
type promoRepository struct {
	store  store.Store
	logger zerolog.Logger
}

// NewPromoRepository creates a new promo code repository.
func NewPromoRepository(s store.Store, logger zerolog.Logger) PromoRepository {
	return &promoRepository{
		store:  s,
		logger: logger.With().Str("repository", "promo").Logger(),
	}
}

func (r *promoRepository) Get(ctx context.Context, code string) (*model.PromoCode, error) {
	promo, err := getOne[model.PromoCode](ctx, r.store, promoKey(code))
	if err != nil {
		return nil, fmt.Errorf("failed to get promo %s: %w", code, err)
	}
	return promo, nil
}

func (r *promoRepository) List(ctx context.Context) ([]model.PromoCode, error) {
	return listByPrefix[model.PromoCode](ctx, r.store, prefixPromo, r.logger)
}

func (r *promoRepository) Create(ctx context.Context, promo *model.PromoCode) (bool, error) {
	key := promoKey(promo.Code)
	created := false

	err := r.store.Atomic(ctx, []string{key}, func(tx store.Tx) error {
		created = false
		var existing model.PromoCode
		err := tx.Get(ctx, key, &existing)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		created = true
		return tx.Set(ctx, key, promo)
	})
	if err != nil {
		return false, fmt.Errorf("failed to create promo %s: %w", promo.Code, err)
	}

	return created, nil
}

func (r *promoRepository) Save(ctx context.Context, promo *model.PromoCode) error {
	if err := r.store.Set(ctx, promoKey(promo.Code), promo); err != nil {
		return fmt.Errorf("failed to save promo %s: %w", promo.Code, err)
	}
	return nil
}

func (r *promoRepository) Delete(ctx context.Context, code string) error {
	if err := r.store.Del(ctx, promoKey(code)); err != nil {
		return fmt.Errorf("failed to delete promo %s: %w", code, err)
	}
	return nil
}
