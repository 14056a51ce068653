package service

import (
	"context"
	"testing"

	"course-market/internal/model"
	"course-market/internal/promo"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPromoServiceForTest(t *testing.T, env *testEnv) *promoService {
	t.Helper()
	svc := NewPromoService(env.promos, env.courses, zerolog.Nop()).(*promoService)
	svc.now = tickingClock()
	return svc
}

func TestPromoService_Validate(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 99999)
	env.seedPromo(t, "SAVE15", 15, true)
	env.seedPromo(t, "OLD", 50, false)
	svc := newPromoServiceForTest(t, env)

	tests := []struct {
		name          string
		code          string
		courseID      string
		expectValid   bool
		expectError   string
		expectPricing bool
		discount      int64
		finalPrice    int64
	}{
		{
			name:          "Valid code priced against a course",
			code:          "save15",
			courseID:      "c1",
			expectValid:   true,
			expectPricing: true,
			discount:      14999,
			finalPrice:    85000,
		},
		{
			name:        "Valid code without a course",
			code:        "SAVE15",
			expectValid: true,
		},
		{
			name:        "Valid code with an unknown course",
			code:        "SAVE15",
			courseID:    "missing",
			expectValid: true,
		},
		{
			name:        "Unknown code",
			code:        "NOPE",
			expectError: "Promo code not found",
		},
		{
			name:        "Inactive code",
			code:        "OLD",
			expectError: "Promo code is inactive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Validate(ctx, tt.code, tt.courseID)

			require.NoError(t, err)
			assert.Equal(t, tt.expectValid, result.Valid)
			assert.Equal(t, tt.expectError, result.Error)

			if tt.expectValid {
				require.NotNil(t, result.Promo)
				assert.Equal(t, "SAVE15", result.Promo.Code)
				assert.Equal(t, 15, result.Promo.DiscountPercent)
			} else {
				assert.Nil(t, result.Promo)
			}

			if tt.expectPricing {
				require.NotNil(t, result.Discount)
				require.NotNil(t, result.FinalPrice)
				assert.Equal(t, tt.discount, *result.Discount)
				assert.Equal(t, tt.finalPrice, *result.FinalPrice)
			} else {
				assert.Nil(t, result.Discount)
				assert.Nil(t, result.FinalPrice)
			}
		})
	}

	t.Run("Empty code", func(t *testing.T) {
		_, err := svc.Validate(ctx, "  ", "")
		assert.ErrorIs(t, err, model.InvalidInput(""))
	})
}

func TestPromoService_Create(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newPromoServiceForTest(t, env)

	created, err := svc.Create(ctx, &model.PromoRequest{Code: " welcome ", DiscountPercent: 10, Description: "Welcome"})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME", created.Code)
	assert.True(t, created.Active)

	_, err = svc.Create(ctx, &model.PromoRequest{Code: "WELCOME", DiscountPercent: 20})
	assert.ErrorIs(t, err, model.ErrPromoExists)

	inactive, err := svc.Create(ctx, &model.PromoRequest{Code: "LATER", DiscountPercent: 5, Active: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, inactive.Active)

	for _, percent := range []int{0, -5, 101} {
		_, err := svc.Create(ctx, &model.PromoRequest{Code: "BAD", DiscountPercent: percent})
		assert.ErrorIs(t, err, model.InvalidInput(""), "percent %d", percent)
	}

	_, err = svc.Create(ctx, &model.PromoRequest{Code: "  ", DiscountPercent: 10})
	assert.ErrorIs(t, err, model.InvalidInput(""))

	promos, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, promos, 2)
	assert.Equal(t, "LATER", promos[0].Code, "newest first")
}

func TestPromoService_ToggleAndDelete(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedPromo(t, "SUMMER", 25, true)
	svc := newPromoServiceForTest(t, env)

	toggled, err := svc.Toggle(ctx, "summer")
	require.NoError(t, err)
	assert.False(t, toggled.Active)

	toggled, err = svc.Toggle(ctx, "SUMMER")
	require.NoError(t, err)
	assert.True(t, toggled.Active)

	_, err = svc.Toggle(ctx, "MISSING")
	assert.ErrorIs(t, err, model.ErrPromoNotFound)

	require.NoError(t, svc.Delete(ctx, "SUMMER"))
	assert.ErrorIs(t, svc.Delete(ctx, "SUMMER"), model.ErrPromoNotFound)
}

func TestPromoService_Import(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedPromo(t, "EXISTING", 30, false)
	svc := newPromoServiceForTest(t, env)

	seeds := promo.NewSeedSet()
	seeds.Add(promo.Seed{Code: "EXISTING", DiscountPercent: 10})
	seeds.Add(promo.Seed{Code: "NEWYEAR", DiscountPercent: 40, Description: "New year"})
	seeds.Add(promo.Seed{Code: "BROKEN", DiscountPercent: 400})

	added, err := svc.Import(ctx, seeds)

	require.NoError(t, err)
	assert.Equal(t, 1, added)

	existing, err := env.promos.Get(ctx, "EXISTING")
	require.NoError(t, err)
	assert.Equal(t, 30, existing.DiscountPercent, "existing codes are kept")
	assert.False(t, existing.Active)

	imported, err := env.promos.Get(ctx, "NEWYEAR")
	require.NoError(t, err)
	require.NotNil(t, imported)
	assert.True(t, imported.Active)
	assert.Equal(t, "New year", imported.Description)

	broken, err := env.promos.Get(ctx, "BROKEN")
	require.NoError(t, err)
	assert.Nil(t, broken)

	added, err = svc.Import(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, added)
}
