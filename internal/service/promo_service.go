package service

import (
	"context"
	"sort"
	"time"

	"course-market/internal/model"
	"course-market/internal/promo"
	"course-market/internal/repository"

	"github.com/rs/zerolog"
)

// promoService implements PromoService.
type promoService struct {
	promoRepo  repository.PromoRepository
	courseRepo repository.CourseRepository
	now        func() time.Time
	logger     zerolog.Logger
}

// NewPromoService creates a new promo service.
func NewPromoService(
	promoRepo repository.PromoRepository,
	courseRepo repository.CourseRepository,
	logger zerolog.Logger,
) PromoService {
	return &promoService{
		promoRepo:  promoRepo,
		courseRepo: courseRepo,
		now:        func() time.Time { return time.Now().UTC() },
		logger:     logger.With().Str("service", "promo").Logger(),
	}
}

// Validate previews a code. Unknown and inactive codes are reported in the
// result rather than as errors.
func (s *promoService) Validate(ctx context.Context, code, courseID string) (*model.PromoValidation, error) {
	code = promo.Normalise(code)
	if code == "" {
		return nil, model.InvalidInput("Promo code is required")
	}

	p, err := s.promoRepo.Get(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("promo_code", code).Msg("failed to get promo")
		return nil, upstream(err)
	}
	if p == nil {
		return &model.PromoValidation{Valid: false, Error: model.ErrPromoNotFound.Message}, nil
	}
	if !p.Active {
		return &model.PromoValidation{Valid: false, Error: model.ErrPromoInactive.Message}, nil
	}

	result := &model.PromoValidation{
		Valid: true,
		Promo: &model.PromoPreview{
			Code:            p.Code,
			DiscountPercent: p.DiscountPercent,
			Description:     p.Description,
		},
	}

	if courseID != "" {
		course, err := s.courseRepo.GetByID(ctx, courseID)
		if err != nil {
			s.logger.Error().Err(err).Str("course_id", courseID).Msg("failed to get course")
			return nil, upstream(err)
		}
		if course != nil {
			discount, final := promo.Quote(course.Price, p.DiscountPercent)
			result.Discount = &discount
			result.FinalPrice = &final
		}
	}

	return result, nil
}

func (s *promoService) Create(ctx context.Context, req *model.PromoRequest) (*model.PromoCode, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	code := promo.Normalise(req.Code)
	if code == "" {
		return nil, model.InvalidInput("Code is required")
	}
	if req.DiscountPercent < 1 || req.DiscountPercent > 100 {
		return nil, model.InvalidInput("Discount percent must be between 1 and 100")
	}

	p := &model.PromoCode{
		Code:            code,
		DiscountPercent: req.DiscountPercent,
		Description:     req.Description,
		Active:          true,
		CreatedAt:       s.now(),
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	created, err := s.promoRepo.Create(ctx, p)
	if err != nil {
		s.logger.Error().Err(err).Str("promo_code", code).Msg("failed to create promo")
		return nil, upstream(err)
	}
	if !created {
		return nil, model.ErrPromoExists
	}

	s.logger.Info().Str("promo_code", code).Int("discount_percent", p.DiscountPercent).Msg("promo created")
	return p, nil
}

func (s *promoService) Toggle(ctx context.Context, code string) (*model.PromoCode, error) {
	code = promo.Normalise(code)

	p, err := s.promoRepo.Get(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("promo_code", code).Msg("failed to get promo")
		return nil, upstream(err)
	}
	if p == nil {
		return nil, model.ErrPromoNotFound
	}

	p.Active = !p.Active
	if err := s.promoRepo.Save(ctx, p); err != nil {
		s.logger.Error().Err(err).Str("promo_code", code).Msg("failed to toggle promo")
		return nil, upstream(err)
	}

	s.logger.Info().Str("promo_code", code).Bool("active", p.Active).Msg("promo toggled")
	return p, nil
}

func (s *promoService) Delete(ctx context.Context, code string) error {
	code = promo.Normalise(code)

	p, err := s.promoRepo.Get(ctx, code)
	if err != nil {
		s.logger.Error().Err(err).Str("promo_code", code).Msg("failed to get promo")
		return upstream(err)
	}
	if p == nil {
		return model.ErrPromoNotFound
	}

	if err := s.promoRepo.Delete(ctx, code); err != nil {
		s.logger.Error().Err(err).Str("promo_code", code).Msg("failed to delete promo")
		return upstream(err)
	}
	return nil
}

func (s *promoService) List(ctx context.Context) ([]model.PromoCode, error) {
	promos, err := s.promoRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list promos")
		return nil, upstream(err)
	}

	sort.SliceStable(promos, func(i, j int) bool {
		return promos[i].CreatedAt.After(promos[j].CreatedAt)
	})
	return promos, nil
}

func (s *promoService) Import(ctx context.Context, seeds promo.SeedSet) (int, error) {
	if seeds == nil {
		return 0, nil
	}

	added := 0
	now := s.now()

	for _, seed := range seeds.All() {
		if seed.DiscountPercent < 1 || seed.DiscountPercent > 100 {
			s.logger.Warn().Str("promo_code", seed.Code).Int("discount_percent", seed.DiscountPercent).Msg("skipping seed with invalid discount")
			continue
		}

		created, err := s.promoRepo.Create(ctx, &model.PromoCode{
			Code:            promo.Normalise(seed.Code),
			DiscountPercent: seed.DiscountPercent,
			Description:     seed.Description,
			Active:          true,
			CreatedAt:       now,
		})
		if err != nil {
			return added, upstream(err)
		}
		if created {
			added++
		}
	}

	s.logger.Info().Int("seeds", seeds.Size()).Int("added", added).Msg("promo seeds imported")
	return added, nil
}
