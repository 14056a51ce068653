package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"course-market/internal/events"
	"course-market/internal/model"
	"course-market/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// tickingClock returns a clock that advances one second per call.
func tickingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func newOrderServiceForTest(t *testing.T, env *testEnv, pub events.Publisher) *orderService {
	t.Helper()
	svc := env.orderService(pub).(*orderService)
	svc.now = tickingClock()
	return svc
}

func strPtr(s string) *string { return &s }

func TestOrderService_CreateOrder(t *testing.T) {
	tests := []struct {
		name          string
		promos        map[string]bool
		promoCode     *string
		expectedDisc  int64
		expectedFinal int64
		expectedPromo *string
	}{
		{
			name:          "Success - no promo",
			expectedDisc:  0,
			expectedFinal: 100000,
		},
		{
			name:          "Success - active promo is normalised and applied",
			promos:        map[string]bool{"SAVE20": true},
			promoCode:     strPtr("  save20 "),
			expectedDisc:  20000,
			expectedFinal: 80000,
			expectedPromo: strPtr("SAVE20"),
		},
		{
			name:          "Inactive promo is ignored",
			promos:        map[string]bool{"SAVE20": false},
			promoCode:     strPtr("SAVE20"),
			expectedFinal: 100000,
		},
		{
			name:          "Unknown promo is ignored",
			promoCode:     strPtr("NOPE"),
			expectedFinal: 100000,
		},
		{
			name:          "Blank promo is ignored",
			promoCode:     strPtr("   "),
			expectedFinal: 100000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)
			env.seedCourse(t, "c1", 100000)
			env.seedUser(t, "u1")
			for code, active := range tt.promos {
				env.seedPromo(t, code, 20, active)
			}

			svc := newOrderServiceForTest(t, env, nil)

			order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{
				CourseID:      "c1",
				PaymentMethod: "qpay",
				PromoCode:     tt.promoCode,
			})

			require.NoError(t, err)
			require.NotNil(t, order)
			assert.Equal(t, model.OrderStatusPending, order.Status)
			assert.Equal(t, int64(100000), order.CoursePrice)
			assert.Equal(t, tt.expectedDisc, order.Discount)
			assert.Equal(t, tt.expectedFinal, order.FinalPrice)
			assert.Equal(t, tt.expectedPromo, order.PromoCode)
			assert.Equal(t, "User u1", order.UserName)
			assert.Equal(t, "u1@example.com", order.UserEmail)
			assert.Equal(t, "Course c1", order.CourseTitle)

			userID, courseID, ok := repository.ParseOrderKey(order.ID)
			require.True(t, ok)
			assert.Equal(t, "u1", userID)
			assert.Equal(t, "c1", courseID)

			stored, err := env.orders.GetByID(ctx, order.ID)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Equal(t, order.FinalPrice, stored.FinalPrice)
		})
	}
}

func TestOrderService_CreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name        string
		caller      Caller
		req         *model.OrderRequest
		expectedErr error
	}{
		{
			name:        "Nil request",
			caller:      Caller{UserID: "u1"},
			req:         nil,
			expectedErr: model.InvalidInput(""),
		},
		{
			name:        "Missing course id",
			caller:      Caller{UserID: "u1"},
			req:         &model.OrderRequest{PaymentMethod: "qpay"},
			expectedErr: model.InvalidInput(""),
		},
		{
			name:        "Missing payment method",
			caller:      Caller{UserID: "u1"},
			req:         &model.OrderRequest{CourseID: "c1", PaymentMethod: " "},
			expectedErr: model.InvalidInput(""),
		},
		{
			name:        "Unknown course",
			caller:      Caller{UserID: "u1"},
			req:         &model.OrderRequest{CourseID: "missing", PaymentMethod: "qpay"},
			expectedErr: model.ErrCourseNotFound,
		},
		{
			name:        "Caller without profile",
			caller:      Caller{UserID: "ghost"},
			req:         &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"},
			expectedErr: model.ErrProfileNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.seedCourse(t, "c1", 5000)
			env.seedUser(t, "u1")
			svc := newOrderServiceForTest(t, env, nil)

			order, err := svc.CreateOrder(context.Background(), tt.caller, tt.req)

			assert.Nil(t, order)
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestOrderService_CreateOrder_PendingDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")
	svc := newOrderServiceForTest(t, env, nil)

	req := &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"}
	first, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, req)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, req)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)

	orders, err := svc.ListUserOrders(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID, "newest first")
}

func TestOrderService_CreateOrder_AlreadyPurchased(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")
	svc := newOrderServiceForTest(t, env, nil)

	order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, order.ID, "admin")
	require.NoError(t, err)

	again, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})

	assert.Nil(t, again)
	assert.ErrorIs(t, err, model.ErrAlreadyPurchased)
}

func TestOrderService_ConfirmPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")

	pub := new(MockPublisher)
	svc := newOrderServiceForTest(t, env, pub)

	order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
	require.NoError(t, err)

	pub.On("Publish", mock.Anything, events.TopicOrderConfirmed, mock.MatchedBy(func(e events.OrderEvent) bool {
		return e.OrderID == order.ID && e.UserID == "u1" && e.CourseID == "c1" && e.ActorID == "admin-1"
	})).Return(nil).Once()

	confirmed, err := svc.ConfirmPayment(ctx, order.ID, "admin-1")

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, confirmed.Status)
	require.NotNil(t, confirmed.ConfirmedAt)
	require.NotNil(t, confirmed.ConfirmedBy)
	assert.Equal(t, "admin-1", *confirmed.ConfirmedBy)

	enrollment, err := env.enrollments.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	require.NotNil(t, enrollment)
	assert.Equal(t, order.ID, enrollment.PurchaseOrderID)
	assert.Equal(t, 0, enrollment.Progress)

	hasAccess, err := svc.CheckAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, hasAccess)

	pub.AssertExpectations(t)
}

func TestOrderService_ConfirmPayment_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	svc := newOrderServiceForTest(t, env, pub)

	order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, order.ID, "admin")
	require.NoError(t, err)

	t.Run("Already confirmed", func(t *testing.T) {
		_, err := svc.ConfirmPayment(ctx, order.ID, "admin")
		assert.ErrorIs(t, err, model.ErrOrderNotPending)
	})

	t.Run("Unknown order", func(t *testing.T) {
		_, err := svc.ConfirmPayment(ctx, repository.OrderKey("u1", "c1", 1), "admin")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Malformed order id", func(t *testing.T) {
		_, err := svc.ConfirmPayment(ctx, "not-an-order", "admin")
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})

	t.Run("Empty order id", func(t *testing.T) {
		_, err := svc.ConfirmPayment(ctx, "", "admin")
		assert.ErrorIs(t, err, model.InvalidInput(""))
	})
}

func TestOrderService_ConfirmPayment_SecondOrderKeepsEnrollment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")
	svc := newOrderServiceForTest(t, env, nil)

	req := &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"}
	first, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, req)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, req)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(ctx, first.ID, "admin")
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(ctx, second.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, confirmed.Status)

	enrollments, err := svc.ListEnrollments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, first.ID, enrollments[0].PurchaseOrderID)
}

func TestOrderService_ConfirmPayment_ConcurrentOrdersForSameCourse(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")
	svc := newOrderServiceForTest(t, env, nil)

	req := &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"}
	first, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, req)
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, req)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []string{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			_, errs[i] = svc.ConfirmPayment(ctx, id, "admin")
		}(i, id)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	enrollments, err := env.enrollments.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Contains(t, []string{first.ID, second.ID}, enrollments[0].PurchaseOrderID)

	owner, err := env.orders.GetByID(ctx, enrollments[0].PurchaseOrderID)
	require.NoError(t, err)
	require.NotNil(t, owner.ConfirmedAt)
	assert.True(t, enrollments[0].EnrolledAt.Equal(*owner.ConfirmedAt))
}

func TestOrderService_ConfirmPayment_PublishFailureIsIgnored(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")

	pub := new(MockPublisher)
	pub.On("Publish", mock.Anything, events.TopicOrderConfirmed, mock.Anything).Return(errors.New("broker down"))
	svc := newOrderServiceForTest(t, env, pub)

	order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmPayment(ctx, order.ID, "admin")

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusConfirmed, confirmed.Status)
	pub.AssertExpectations(t)
}

func TestOrderService_ConfirmPayment_Concurrent(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")
	svc := newOrderServiceForTest(t, env, nil)

	order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
	require.NoError(t, err)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.ConfirmPayment(ctx, order.ID, "admin"); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)

	enrollments, err := env.enrollments.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, enrollments, 1)
}

func TestOrderService_CancelOrder(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")

	pub := new(MockPublisher)
	svc := newOrderServiceForTest(t, env, pub)

	order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
	require.NoError(t, err)

	pub.On("Publish", mock.Anything, events.TopicOrderCancelled, mock.MatchedBy(func(e events.OrderEvent) bool {
		return e.OrderID == order.ID && e.Status == string(model.OrderStatusCancelled)
	})).Return(nil).Once()

	cancelled, err := svc.CancelOrder(ctx, order.ID, "admin-2")

	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledBy)
	assert.Equal(t, "admin-2", *cancelled.CancelledBy)
	assert.NotNil(t, cancelled.CancelledAt)

	enrollment, err := env.enrollments.Get(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.Nil(t, enrollment)

	_, err = svc.ConfirmPayment(ctx, order.ID, "admin")
	assert.ErrorIs(t, err, model.ErrOrderNotPending)

	pub.AssertExpectations(t)
}

func TestOrderService_CancelOrder_ConfirmedIsRejected(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")
	svc := newOrderServiceForTest(t, env, nil)

	order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
	require.NoError(t, err)
	_, err = svc.ConfirmPayment(ctx, order.ID, "admin")
	require.NoError(t, err)

	_, err = svc.CancelOrder(ctx, order.ID, "admin")
	assert.ErrorIs(t, err, model.ErrOrderNotPending)

	hasAccess, err := svc.CheckAccess(ctx, "u1", "c1")
	require.NoError(t, err)
	assert.True(t, hasAccess)
}

func TestOrderService_CheckAccess(t *testing.T) {
	ctx := context.Background()

	t.Run("No orders", func(t *testing.T) {
		env := newTestEnv(t)
		svc := newOrderServiceForTest(t, env, nil)

		hasAccess, err := svc.CheckAccess(ctx, "u1", "c1")
		require.NoError(t, err)
		assert.False(t, hasAccess)
	})

	t.Run("Empty identifiers", func(t *testing.T) {
		env := newTestEnv(t)
		svc := newOrderServiceForTest(t, env, nil)

		hasAccess, err := svc.CheckAccess(ctx, "", "c1")
		require.NoError(t, err)
		assert.False(t, hasAccess)
	})

	t.Run("Pending order grants nothing", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedCourse(t, "c1", 5000)
		env.seedUser(t, "u1")
		svc := newOrderServiceForTest(t, env, nil)

		_, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
		require.NoError(t, err)

		hasAccess, err := svc.CheckAccess(ctx, "u1", "c1")
		require.NoError(t, err)
		assert.False(t, hasAccess)
	})

	t.Run("Confirmed order without enrollment is healed", func(t *testing.T) {
		env := newTestEnv(t)
		svc := newOrderServiceForTest(t, env, nil)

		confirmedAt := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
		orderID := repository.OrderKey("u1", "c1", 100)
		require.NoError(t, env.orders.Create(ctx, &model.Order{
			ID:          orderID,
			UserID:      "u1",
			CourseID:    "c1",
			Status:      model.OrderStatusConfirmed,
			ConfirmedAt: &confirmedAt,
		}))

		hasAccess, err := svc.CheckAccess(ctx, "u1", "c1")
		require.NoError(t, err)
		assert.True(t, hasAccess)

		enrollment, err := env.enrollments.Get(ctx, "u1", "c1")
		require.NoError(t, err)
		require.NotNil(t, enrollment)
		assert.Equal(t, orderID, enrollment.PurchaseOrderID)
		assert.True(t, confirmedAt.Equal(enrollment.EnrolledAt))
	})

	t.Run("Store failure surfaces as upstream", func(t *testing.T) {
		env := newTestEnv(t)
		svc := newOrderServiceForTest(t, env, nil)
		env.mr.SetError("LOADING")

		_, err := svc.CheckAccess(ctx, "u1", "c1")
		assert.ErrorIs(t, err, model.ErrStoreFailure)
	})
}

func TestOrderService_ReconcileEnrollment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newOrderServiceForTest(t, env, nil)

	confirmedID := repository.OrderKey("u1", "c1", 100)
	pendingID := repository.OrderKey("u1", "c2", 200)
	require.NoError(t, env.orders.Create(ctx, &model.Order{ID: confirmedID, UserID: "u1", CourseID: "c1", Status: model.OrderStatusConfirmed}))
	require.NoError(t, env.orders.Create(ctx, &model.Order{ID: pendingID, UserID: "u1", CourseID: "c2", Status: model.OrderStatusPending}))

	require.NoError(t, svc.ReconcileEnrollment(ctx, confirmedID))
	require.NoError(t, svc.ReconcileEnrollment(ctx, confirmedID))
	require.NoError(t, svc.ReconcileEnrollment(ctx, pendingID))

	enrollments, err := env.enrollments.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	assert.Equal(t, "c1", enrollments[0].CourseID)

	err = svc.ReconcileEnrollment(ctx, repository.OrderKey("u1", "c9", 1))
	assert.ErrorIs(t, err, model.ErrOrderNotFound)
}

func TestOrderService_PurchasedCourses(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedCourse(t, "c2", 7000)
	env.seedCourse(t, "c3", 9000)
	env.seedLesson(t, "c1", 2, 20)
	env.seedLesson(t, "c1", 1, 10)
	env.seedUser(t, "u1")
	svc := newOrderServiceForTest(t, env, nil)

	for _, courseID := range []string{"c1", "c2", "c3"} {
		order, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: courseID, PaymentMethod: "qpay"})
		require.NoError(t, err)
		if courseID != "c3" {
			_, err = svc.ConfirmPayment(ctx, order.ID, "admin")
			require.NoError(t, err)
		}
	}

	require.NoError(t, env.courses.Delete(ctx, "c2"))

	purchased, err := svc.PurchasedCourses(ctx, "u1")

	require.NoError(t, err)
	require.Len(t, purchased, 1)
	assert.Equal(t, "c1", purchased[0].Course.ID)
	require.Len(t, purchased[0].Lessons, 2)
	assert.Equal(t, 1, purchased[0].Lessons[0].Order)
	assert.False(t, purchased[0].PurchaseDate.IsZero())
}

func TestOrderService_ListOrders(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedUser(t, "u1")
	env.seedUser(t, "u2")
	svc := newOrderServiceForTest(t, env, nil)

	first, err := svc.CreateOrder(ctx, Caller{UserID: "u1"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "qpay"})
	require.NoError(t, err)
	second, err := svc.CreateOrder(ctx, Caller{UserID: "u2"}, &model.OrderRequest{CourseID: "c1", PaymentMethod: "card"})
	require.NoError(t, err)

	orders, err := svc.ListOrders(ctx)

	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, second.ID, orders[0].ID)
	assert.Equal(t, first.ID, orders[1].ID)
}
