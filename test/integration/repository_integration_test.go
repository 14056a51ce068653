package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"course-market/internal/model"
	"course-market/internal/repository"
	"course-market/internal/store"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	kv := testDB.Store
	ctx := context.Background()

	t.Run("Get returns ErrNotFound for missing keys", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		var dest map[string]string
		err := kv.Get(ctx, "course:missing", &dest)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Set upserts and Del removes", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		require.NoError(t, kv.Set(ctx, "promo:A", model.PromoCode{Code: "A", DiscountPercent: 10}))
		require.NoError(t, kv.Set(ctx, "promo:A", model.PromoCode{Code: "A", DiscountPercent: 20}))

		var got model.PromoCode
		require.NoError(t, kv.Get(ctx, "promo:A", &got))
		assert.Equal(t, 20, got.DiscountPercent)

		require.NoError(t, kv.Del(ctx, "promo:A", "promo:never-existed"))
		assert.ErrorIs(t, kv.Get(ctx, "promo:A", &got), store.ErrNotFound)
	})

	t.Run("GetByPrefix treats LIKE wildcards literally", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		for _, key := range []string{"order:u_1:c1:1", "order:u_1:c1:2", "order:uX1:c1:1", "order:u%:c1:1"} {
			require.NoError(t, kv.Set(ctx, key, map[string]string{"id": key}))
		}

		entries, err := kv.GetByPrefix(ctx, "order:u_1:")
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "order:u_1:c1:1", entries[0].Key)
		assert.Equal(t, "order:u_1:c1:2", entries[1].Key)

		entries, err = kv.GetByPrefix(ctx, "order:u%:")
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("Atomic rolls back when fn fails", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		failure := errors.New("abort")
		err := kv.Atomic(ctx, []string{"user:u1"}, func(tx store.Tx) error {
			if err := tx.Set(ctx, "user:u1", model.UserProfile{ID: "u1"}); err != nil {
				return err
			}
			return failure
		})
		assert.ErrorIs(t, err, failure)

		var profile model.UserProfile
		assert.ErrorIs(t, kv.Get(ctx, "user:u1", &profile), store.ErrNotFound)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, kv.Ping(ctx))
	})
}

func TestOrderRepository_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	testDB := SetupTestDB(t)
	logger := zerolog.Nop()
	orders := repository.NewOrderRepository(testDB.Store, logger)
	enrollments := repository.NewEnrollmentRepository(testDB.Store, logger)
	ctx := context.Background()

	confirm := func(adminID string) repository.OrderMutation {
		return func(order *model.Order) (*model.Enrollment, error) {
			if order.Status != model.OrderStatusPending {
				return nil, model.ErrOrderNotPending
			}
			now := time.Now().UTC()
			order.Status = model.OrderStatusConfirmed
			order.ConfirmedAt = &now
			order.ConfirmedBy = &adminID
			return &model.Enrollment{
				UserID:          order.UserID,
				CourseID:        order.CourseID,
				EnrolledAt:      now,
				PurchaseOrderID: order.ID,
			}, nil
		}
	}

	t.Run("Concurrent confirmations commit once", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		id := repository.OrderKey("u1", "c1", time.Now().UnixNano())
		require.NoError(t, orders.Create(ctx, &model.Order{
			ID:       id,
			UserID:   "u1",
			CourseID: "c1",
			Status:   model.OrderStatusPending,
		}))

		const workers = 8
		var (
			wg        sync.WaitGroup
			succeeded atomic.Int32
			rejected  atomic.Int32
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := orders.Transition(ctx, id, confirm("admin-1"))
				switch {
				case err == nil:
					succeeded.Add(1)
				case errors.Is(err, model.ErrOrderNotPending):
					rejected.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), succeeded.Load())
		assert.Equal(t, int32(workers-1), rejected.Load())

		enrollment, err := enrollments.Get(ctx, "u1", "c1")
		require.NoError(t, err)
		require.NotNil(t, enrollment)
		assert.Equal(t, id, enrollment.PurchaseOrderID)
	})

	t.Run("A second confirmed order keeps the first enrollment", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		first := repository.OrderKey("u2", "c1", 1)
		second := repository.OrderKey("u2", "c1", 2)
		for _, id := range []string{first, second} {
			require.NoError(t, orders.Create(ctx, &model.Order{ID: id, UserID: "u2", CourseID: "c1", Status: model.OrderStatusPending}))
		}

		_, err := orders.Transition(ctx, first, confirm("admin-1"))
		require.NoError(t, err)
		_, err = orders.Transition(ctx, second, confirm("admin-1"))
		require.NoError(t, err)

		enrollment, err := enrollments.Get(ctx, "u2", "c1")
		require.NoError(t, err)
		require.NotNil(t, enrollment)
		assert.Equal(t, first, enrollment.PurchaseOrderID)

		list, err := enrollments.ListByUser(ctx, "u2")
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("Interleaved confirmations of two orders keep the first enrollment", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		slow := repository.OrderKey("u4", "c1", 1)
		fast := repository.OrderKey("u4", "c1", 2)
		for _, id := range []string{slow, fast} {
			require.NoError(t, orders.Create(ctx, &model.Order{ID: id, UserID: "u4", CourseID: "c1", Status: model.OrderStatusPending}))
		}

		inside := make(chan struct{})
		var once sync.Once
		slowErr := make(chan error, 1)

		go func() {
			_, err := orders.Transition(ctx, slow, func(order *model.Order) (*model.Enrollment, error) {
				once.Do(func() {
					close(inside)
					// Hold the transaction open while the other confirmation starts.
					time.Sleep(300 * time.Millisecond)
				})
				return confirm("admin-1")(order)
			})
			slowErr <- err
		}()

		<-inside
		_, err := orders.Transition(ctx, fast, confirm("admin-2"))
		require.NoError(t, err)
		require.NoError(t, <-slowErr)

		list, err := enrollments.ListByUser(ctx, "u4")
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, slow, list[0].PurchaseOrderID)
	})

	t.Run("Unknown order", func(t *testing.T) {
		CleanupDB(t, testDB.Pool)

		_, err := orders.Transition(ctx, repository.OrderKey("u3", "c1", 1), confirm("admin-1"))
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}
