package service

import (
	"context"
	"errors"
	"testing"

	"course-market/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAccessChecker is a mock implementation of AccessChecker.
type MockAccessChecker struct {
	mock.Mock
}

func (m *MockAccessChecker) CheckAccess(ctx context.Context, userID, courseID string) (bool, error) {
	args := m.Called(ctx, userID, courseID)
	return args.Bool(0), args.Error(1)
}

func newCatalogServiceForTest(t *testing.T, env *testEnv, access AccessChecker) *catalogService {
	t.Helper()
	svc := NewCatalogService(env.courses, env.lessons, env.progress, access, zerolog.Nop()).(*catalogService)
	svc.now = tickingClock()
	return svc
}

func boolPtr(b bool) *bool { return &b }

func validCourseRequest() *model.CourseRequest {
	return &model.CourseRequest{
		Title:       "  Go Basics ",
		Description: "Learn Go",
		Teacher:     "Bat",
		Level:       model.LevelBeginner,
		Duration:    "6 weeks",
		Price:       120000,
		Rating:      4.5,
	}
}

func TestCatalogService_GetCourse_Gating(t *testing.T) {
	tests := []struct {
		name        string
		caller      *Caller
		access      bool
		expectCheck bool
		expectVideo bool
	}{
		{
			name:        "Anonymous caller sees locked lessons",
			caller:      nil,
			expectVideo: false,
		},
		{
			name:        "Admin sees everything without an access check",
			caller:      &Caller{UserID: "admin", Admin: true},
			expectVideo: true,
		},
		{
			name:        "Buyer sees video references",
			caller:      &Caller{UserID: "u1"},
			access:      true,
			expectCheck: true,
			expectVideo: true,
		},
		{
			name:        "Non buyer sees locked lessons",
			caller:      &Caller{UserID: "u2"},
			access:      false,
			expectCheck: true,
			expectVideo: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			env := newTestEnv(t)
			env.seedCourse(t, "c1", 5000)
			env.seedLesson(t, "c1", 2, 20)
			env.seedLesson(t, "c1", 1, 10)

			access := new(MockAccessChecker)
			if tt.expectCheck {
				access.On("CheckAccess", mock.Anything, tt.caller.UserID, "c1").Return(tt.access, nil).Once()
			}
			svc := newCatalogServiceForTest(t, env, access)

			detail, err := svc.GetCourse(ctx, "c1", tt.caller)

			require.NoError(t, err)
			assert.Equal(t, "c1", detail.Course.ID)
			assert.Equal(t, tt.expectVideo, detail.HasAccess)
			require.Len(t, detail.Lessons, 2)
			assert.Equal(t, 1, detail.Lessons[0].Order)

			for _, l := range detail.Lessons {
				if tt.expectVideo {
					assert.NotEmpty(t, l.VideoRef)
					assert.False(t, l.Locked)
				} else {
					assert.Empty(t, l.VideoRef)
					assert.True(t, l.Locked)
				}
			}

			access.AssertExpectations(t)
		})
	}
}

func TestCatalogService_GetCourse_Errors(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)

	access := new(MockAccessChecker)
	access.On("CheckAccess", mock.Anything, "u1", "c1").Return(false, model.ErrStoreFailure)
	svc := newCatalogServiceForTest(t, env, access)

	_, err := svc.GetCourse(ctx, "missing", nil)
	assert.ErrorIs(t, err, model.ErrCourseNotFound)

	_, err = svc.GetCourse(ctx, " ", nil)
	assert.ErrorIs(t, err, model.InvalidInput(""))

	_, err = svc.GetCourse(ctx, "c1", &Caller{UserID: "u1"})
	assert.ErrorIs(t, err, model.ErrStoreFailure)
}

func TestCatalogService_CourseLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	svc := newCatalogServiceForTest(t, env, new(MockAccessChecker))

	course, err := svc.CreateCourse(ctx, validCourseRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	assert.Equal(t, "Go Basics", course.Title)
	assert.True(t, course.Published, "courses are published unless stated otherwise")
	assert.False(t, course.CreatedAt.IsZero())

	req := validCourseRequest()
	req.Title = "Go Advanced"
	req.Price = 150000
	req.Published = boolPtr(false)

	updated, err := svc.UpdateCourse(ctx, course.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Go Advanced", updated.Title)
	assert.Equal(t, int64(150000), updated.Price)
	assert.False(t, updated.Published)
	assert.True(t, updated.UpdatedAt.After(course.CreatedAt))
	assert.True(t, course.CreatedAt.Equal(updated.CreatedAt))

	second, err := svc.CreateCourse(ctx, validCourseRequest())
	require.NoError(t, err)

	courses, err := svc.ListCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, second.ID, courses[0].ID, "newest first")

	_, err = svc.UpdateCourse(ctx, "missing", validCourseRequest())
	assert.ErrorIs(t, err, model.ErrCourseNotFound)
}

func TestCatalogService_DeleteCourse_Cascades(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedCourse(t, "c10", 5000)
	env.seedLesson(t, "c1", 1, 10)
	env.seedLesson(t, "c1", 2, 20)
	other := env.seedLesson(t, "c10", 1, 30)
	svc := newCatalogServiceForTest(t, env, new(MockAccessChecker))

	require.NoError(t, svc.DeleteCourse(ctx, "c1"))

	course, err := env.courses.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Nil(t, course)

	lessons, err := env.lessons.ListByCourse(ctx, "c1")
	require.NoError(t, err)
	assert.Empty(t, lessons)

	kept, err := env.lessons.GetByID(ctx, other.ID)
	require.NoError(t, err)
	assert.NotNil(t, kept, "lessons of other courses survive")

	err = svc.DeleteCourse(ctx, "c1")
	assert.ErrorIs(t, err, model.ErrCourseNotFound)
}

func TestCatalogService_LessonLifecycle(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	env.seedCourse(t, "c2", 5000)
	svc := newCatalogServiceForTest(t, env, new(MockAccessChecker))

	lesson, err := svc.CreateLesson(ctx, &model.LessonRequest{
		CourseID: "c1",
		Title:    "Intro",
		VideoRef: "https://video.example/intro",
		Order:    1,
	})
	require.NoError(t, err)
	assert.Equal(t, "c1", lesson.CourseID)
	assert.Contains(t, lesson.ID, "c1:")

	_, err = svc.CreateLesson(ctx, &model.LessonRequest{CourseID: "missing", Title: "x"})
	assert.ErrorIs(t, err, model.ErrCourseNotFound)

	updated, err := svc.UpdateLesson(ctx, lesson.ID, &model.LessonRequest{
		CourseID: "c1",
		Title:    "Introduction",
		VideoRef: "https://video.example/intro-v2",
		Order:    3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Introduction", updated.Title)
	assert.Equal(t, 3, updated.Order)

	_, err = svc.UpdateLesson(ctx, lesson.ID, &model.LessonRequest{CourseID: "c2", Title: "Moved"})
	assert.ErrorIs(t, err, model.InvalidInput(""))

	_, err = svc.UpdateLesson(ctx, "c1:404", &model.LessonRequest{Title: "x"})
	assert.ErrorIs(t, err, model.ErrLessonNotFound)

	require.NoError(t, svc.DeleteLesson(ctx, lesson.ID))
	assert.ErrorIs(t, svc.DeleteLesson(ctx, lesson.ID), model.ErrLessonNotFound)
}

func TestCatalogService_RecordProgress(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.seedCourse(t, "c1", 5000)
	lesson := env.seedLesson(t, "c1", 1, 10)

	t.Run("Success", func(t *testing.T) {
		access := new(MockAccessChecker)
		access.On("CheckAccess", mock.Anything, "u1", "c1").Return(true, nil)
		svc := newCatalogServiceForTest(t, env, access)

		progress, err := svc.RecordProgress(ctx, Caller{UserID: "u1"}, "c1", lesson.ID, true)
		require.NoError(t, err)
		assert.True(t, progress.Completed)

		rows, err := env.progress.ListByUserCourse(ctx, "u1", "c1")
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, lesson.ID, rows[0].LessonID)
	})

	t.Run("Without access", func(t *testing.T) {
		access := new(MockAccessChecker)
		access.On("CheckAccess", mock.Anything, "u2", "c1").Return(false, nil)
		svc := newCatalogServiceForTest(t, env, access)

		_, err := svc.RecordProgress(ctx, Caller{UserID: "u2"}, "c1", lesson.ID, true)
		assert.ErrorIs(t, err, model.ErrAccessDenied)
	})

	t.Run("Lesson of another course", func(t *testing.T) {
		svc := newCatalogServiceForTest(t, env, new(MockAccessChecker))

		_, err := svc.RecordProgress(ctx, Caller{UserID: "u1"}, "c2", lesson.ID, true)
		assert.ErrorIs(t, err, model.ErrLessonNotFound)
	})

	t.Run("Access check failure", func(t *testing.T) {
		access := new(MockAccessChecker)
		access.On("CheckAccess", mock.Anything, "u3", "c1").Return(false, errors.New("boom"))
		svc := newCatalogServiceForTest(t, env, access)

		_, err := svc.RecordProgress(ctx, Caller{UserID: "u3"}, "c1", lesson.ID, true)
		assert.Error(t, err)
	})
}
