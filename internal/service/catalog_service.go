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

// catalogService implements CatalogService.
type catalogService struct {
	courseRepo   repository.CourseRepository
	lessonRepo   repository.LessonRepository
	progressRepo repository.ProgressRepository
	access       AccessChecker
	now          func() time.Time
	logger       zerolog.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	courseRepo repository.CourseRepository,
	lessonRepo repository.LessonRepository,
	progressRepo repository.ProgressRepository,
	access AccessChecker,
	logger zerolog.Logger,
) CatalogService {
	return &catalogService{
		courseRepo:   courseRepo,
		lessonRepo:   lessonRepo,
		progressRepo: progressRepo,
		access:       access,
		now:          func() time.Time { return time.Now().UTC() },
		logger:       logger.With().Str("service", "catalog").Logger(),
	}
}

func (s *catalogService) ListCourses(ctx context.Context) ([]model.Course, error) {
	courses, err := s.courseRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list courses")
		return nil, upstream(err)
	}

	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})

	s.logger.Debug().Int("count", len(courses)).Msg("retrieved courses")
	return courses, nil
}

func (s *catalogService) GetCourse(ctx context.Context, id string, caller *Caller) (*model.CourseDetail, error) {
	if strings.TrimSpace(id) == "" {
		return nil, model.InvalidInput("course id is required")
	}

	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", id).Msg("failed to get course")
		return nil, upstream(err)
	}
	if course == nil {
		return nil, model.ErrCourseNotFound
	}

	lessons, err := s.lessonRepo.ListByCourse(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", id).Msg("failed to list lessons")
		return nil, upstream(err)
	}

	hasAccess := false
	if caller != nil {
		if caller.Admin {
			hasAccess = true
		} else if hasAccess, err = s.access.CheckAccess(ctx, caller.UserID, id); err != nil {
			return nil, err
		}
	}

	if !hasAccess {
		for i := range lessons {
			lessons[i].VideoRef = ""
			lessons[i].Locked = true
		}
	}

	return &model.CourseDetail{
		Course:    *course,
		Lessons:   lessons,
		HasAccess: hasAccess,
	}, nil
}

func (s *catalogService) CreateCourse(ctx context.Context, req *model.CourseRequest) (*model.Course, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	now := s.now()
	course := &model.Course{
		ID:        uuid.NewString(),
		CreatedAt: now,
	}
	applyCourseRequest(course, req, now)
	if req.Published == nil {
		course.Published = true
	}

	if err := s.courseRepo.Save(ctx, course); err != nil {
		s.logger.Error().Err(err).Msg("failed to create course")
		return nil, upstream(err)
	}

	s.logger.Info().Str("course_id", course.ID).Str("title", course.Title).Msg("course created")
	return course, nil
}

func (s *catalogService) UpdateCourse(ctx context.Context, id string, req *model.CourseRequest) (*model.Course, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", id).Msg("failed to get course")
		return nil, upstream(err)
	}
	if course == nil {
		return nil, model.ErrCourseNotFound
	}

	applyCourseRequest(course, req, s.now())

	if err := s.courseRepo.Save(ctx, course); err != nil {
		s.logger.Error().Err(err).Str("course_id", id).Msg("failed to update course")
		return nil, upstream(err)
	}

	s.logger.Info().Str("course_id", id).Msg("course updated")
	return course, nil
}

func applyCourseRequest(course *model.Course, req *model.CourseRequest, now time.Time) {
	course.Title = strings.TrimSpace(req.Title)
	course.Description = req.Description
	course.Teacher = strings.TrimSpace(req.Teacher)
	course.Level = req.Level
	course.Duration = req.Duration
	course.Price = req.Price
	course.Image = req.Image
	course.Rating = req.Rating
	course.Students = req.Students
	if req.Published != nil {
		course.Published = *req.Published
	}
	course.UpdatedAt = now
}

func (s *catalogService) DeleteCourse(ctx context.Context, id string) error {
	course, err := s.courseRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", id).Msg("failed to get course")
		return upstream(err)
	}
	if course == nil {
		return model.ErrCourseNotFound
	}

	if err := s.courseRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("course_id", id).Msg("failed to delete course")
		return upstream(err)
	}

	s.logger.Info().Str("course_id", id).Msg("course deleted with lessons")
	return nil
}

func (s *catalogService) CreateLesson(ctx context.Context, req *model.LessonRequest) (*model.Lesson, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	course, err := s.courseRepo.GetByID(ctx, req.CourseID)
	if err != nil {
		s.logger.Error().Err(err).Str("course_id", req.CourseID).Msg("failed to get course")
		return nil, upstream(err)
	}
	if course == nil {
		return nil, model.ErrCourseNotFound
	}

	now := s.now()
	lesson := &model.Lesson{
		ID:          repository.LessonID(course.ID, now.UnixNano()),
		CourseID:    course.ID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		VideoRef:    req.VideoRef,
		Duration:    req.Duration,
		Order:       req.Order,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.lessonRepo.Save(ctx, lesson); err != nil {
		s.logger.Error().Err(err).Str("course_id", course.ID).Msg("failed to create lesson")
		return nil, upstream(err)
	}

	s.logger.Info().Str("lesson_id", lesson.ID).Msg("lesson created")
	return lesson, nil
}

// UpdateLesson changes lesson content. A lesson cannot move between
// courses because its ID is scoped to the course.
func (s *catalogService) UpdateLesson(ctx context.Context, id string, req *model.LessonRequest) (*model.Lesson, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("lesson_id", id).Msg("failed to get lesson")
		return nil, upstream(err)
	}
	if lesson == nil {
		return nil, model.ErrLessonNotFound
	}
	if req.CourseID != "" && req.CourseID != lesson.CourseID {
		return nil, model.InvalidInput("lesson cannot be moved to another course")
	}

	lesson.Title = strings.TrimSpace(req.Title)
	lesson.Description = req.Description
	lesson.VideoRef = req.VideoRef
	lesson.Duration = req.Duration
	lesson.Order = req.Order
	lesson.UpdatedAt = s.now()

	if err := s.lessonRepo.Save(ctx, lesson); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", id).Msg("failed to update lesson")
		return nil, upstream(err)
	}

	return lesson, nil
}

func (s *catalogService) DeleteLesson(ctx context.Context, id string) error {
	lesson, err := s.lessonRepo.GetByID(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("lesson_id", id).Msg("failed to get lesson")
		return upstream(err)
	}
	if lesson == nil {
		return model.ErrLessonNotFound
	}

	if err := s.lessonRepo.Delete(ctx, id); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", id).Msg("failed to delete lesson")
		return upstream(err)
	}
	return nil
}

func (s *catalogService) RecordProgress(ctx context.Context, caller Caller, courseID, lessonID string, completed bool) (*model.LessonProgress, error) {
	lesson, err := s.lessonRepo.GetByID(ctx, lessonID)
	if err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Msg("failed to get lesson")
		return nil, upstream(err)
	}
	if lesson == nil || lesson.CourseID != courseID {
		return nil, model.ErrLessonNotFound
	}

	hasAccess, err := s.access.CheckAccess(ctx, caller.UserID, courseID)
	if err != nil {
		return nil, err
	}
	if !hasAccess {
		return nil, model.ErrAccessDenied
	}

	progress := &model.LessonProgress{
		UserID:    caller.UserID,
		CourseID:  courseID,
		LessonID:  lessonID,
		Completed: completed,
		UpdatedAt: s.now(),
	}

	if err := s.progressRepo.Save(ctx, progress); err != nil {
		s.logger.Error().Err(err).Str("lesson_id", lessonID).Msg("failed to save progress")
		return nil, upstream(err)
	}

	s.logger.Debug().
		Str("user_id", caller.UserID).
		Str("lesson_id", lessonID).
		Bool("completed", completed).
		Msg("progress recorded")

	return progress, nil
}
