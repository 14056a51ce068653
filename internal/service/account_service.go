package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"course-market/internal/identity"
	"course-market/internal/model"
	"course-market/internal/repository"

	"github.com/rs/zerolog"
)

// accountService implements AccountService.
type accountService struct {
	provider       identity.Provider
	userRepo       repository.UserRepository
	enrollmentRepo repository.EnrollmentRepository
	now            func() time.Time
	logger         zerolog.Logger
}

// NewAccountService creates a new account service.
func NewAccountService(
	provider identity.Provider,
	userRepo repository.UserRepository,
	enrollmentRepo repository.EnrollmentRepository,
	logger zerolog.Logger,
) AccountService {
	return &accountService{
		provider:       provider,
		userRepo:       userRepo,
		enrollmentRepo: enrollmentRepo,
		now:            func() time.Time { return time.Now().UTC() },
		logger:         logger.With().Str("service", "account").Logger(),
	}
}

// SignUp registers the account at the identity provider, then stores the
// profile under the provider's user id.
func (s *accountService) SignUp(ctx context.Context, req *model.SignupRequest) (*model.UserProfile, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || req.Password == "" || name == "" {
		return nil, model.InvalidInput("Email, password, and name are required")
	}

	user, err := s.provider.SignUp(ctx, email, req.Password, name, req.Phone)
	if err != nil {
		if errors.Is(err, identity.ErrUserExists) {
			return nil, model.ErrAccountExists
		}
		s.logger.Error().Err(err).Msg("identity provider rejected signup")
		return nil, model.ErrIdentityFailure
	}

	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	profile := &model.UserProfile{
		ID:              user.ID,
		Email:           email,
		Name:            name,
		Phone:           req.Phone,
		EnrolledCourses: []string{},
		CreatedAt:       createdAt,
	}

	if err := s.userRepo.Save(ctx, profile); err != nil {
		s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to save profile")
		return nil, upstream(err)
	}

	s.logger.Info().Str("user_id", user.ID).Msg("account created")
	return profile, nil
}

func (s *accountService) SignIn(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if req == nil || strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return nil, model.InvalidInput("Email and password are required")
	}

	token, err := s.provider.SignIn(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, model.ErrInvalidCredential
		}
		s.logger.Error().Err(err).Msg("identity provider sign-in failed")
		return nil, model.ErrIdentityFailure
	}

	return &model.LoginResponse{
		AccessToken: token.AccessToken,
		TokenType:   token.TokenType,
		ExpiresAt:   token.Expiry,
	}, nil
}

func (s *accountService) GetProfile(ctx context.Context, caller Caller) (*model.UserProfile, error) {
	profile, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("failed to get profile")
		return nil, upstream(err)
	}
	if profile == nil {
		return nil, model.ErrProfileNotFound
	}

	if err := s.fillEnrolledCourses(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateProfile applies the given fields. A caller without a stored profile
// gets one built from the token identity.
func (s *accountService) UpdateProfile(ctx context.Context, caller Caller, req *model.ProfileUpdateRequest) (*model.UserProfile, error) {
	if req == nil {
		return nil, model.InvalidInput("request cannot be nil")
	}

	profile, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("failed to get profile")
		return nil, upstream(err)
	}
	if profile == nil {
		profile = &model.UserProfile{
			ID:        caller.UserID,
			Email:     caller.Email,
			Name:      caller.Name,
			CreatedAt: s.now(),
		}
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, model.InvalidInput("Name cannot be empty")
		}
		profile.Name = name
	}
	if req.Phone != nil {
		profile.Phone = strings.TrimSpace(*req.Phone)
	}

	if err := s.userRepo.Save(ctx, profile); err != nil {
		s.logger.Error().Err(err).Str("user_id", caller.UserID).Msg("failed to save profile")
		return nil, upstream(err)
	}

	if err := s.fillEnrolledCourses(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func (s *accountService) fillEnrolledCourses(ctx context.Context, profile *model.UserProfile) error {
	enrollments, err := s.enrollmentRepo.ListByUser(ctx, profile.ID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", profile.ID).Msg("failed to list enrollments")
		return upstream(err)
	}

	profile.EnrolledCourses = make([]string, 0, len(enrollments))
	for _, e := range enrollments {
		profile.EnrolledCourses = append(profile.EnrolledCourses, e.CourseID)
	}
	return nil
}
