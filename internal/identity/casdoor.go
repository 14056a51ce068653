package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"course-market/internal/config"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// casdoorClient is the subset of the Casdoor SDK client in use.
type casdoorClient interface {
	ParseJwtToken(token string) (*casdoorsdk.Claims, error)
	AddUser(user *casdoorsdk.User) (bool, error)
	GetUsers() ([]*casdoorsdk.User, error)
	GetUserByEmail(email string) (*casdoorsdk.User, error)
}

// casdoorProvider implements Provider on a Casdoor application.
type casdoorProvider struct {
	client       casdoorClient
	oauth        *oauth2.Config
	organization string
	logger       zerolog.Logger
}

// NewCasdoorProvider creates a Provider backed by Casdoor.
func NewCasdoorProvider(cfg config.IdentityConfig, logger zerolog.Logger) Provider {
	client := casdoorsdk.NewClient(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.OrganizationName,
		cfg.ApplicationName,
	)
	return newCasdoorProvider(client, cfg, logger)
}

func newCasdoorProvider(client casdoorClient, cfg config.IdentityConfig, logger zerolog.Logger) *casdoorProvider {
	endpoint := strings.TrimRight(cfg.Endpoint, "/")
	return &casdoorProvider{
		client: client,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint: oauth2.Endpoint{
				AuthURL:   endpoint + "/login/oauth/authorize",
				TokenURL:  endpoint + "/api/login/oauth/access_token",
				AuthStyle: oauth2.AuthStyleInParams,
			},
			Scopes: []string{"openid", "profile", "email"},
		},
		organization: cfg.OrganizationName,
		logger:       logger.With().Str("component", "casdoor").Logger(),
	}
}

func (p *casdoorProvider) Resolve(_ context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims, err := p.client.ParseJwtToken(token)
	if err != nil {
		p.logger.Debug().Err(err).Msg("token rejected")
		return nil, ErrInvalidToken
	}

	if claims.User.Id == "" {
		return nil, ErrInvalidToken
	}

	return &Identity{
		UserID:     claims.User.Id,
		Email:      claims.User.Email,
		Name:       claims.User.DisplayName,
		AdminClaim: claims.User.IsAdmin,
	}, nil
}

func (p *casdoorProvider) SignUp(_ context.Context, email, password, name, phone string) (*User, error) {
	existing, err := p.client.GetUserByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up %s: %w", email, err)
	}
	if existing != nil && existing.Id != "" {
		return nil, ErrUserExists
	}

	now := time.Now().UTC()
	id := uuid.NewString()
	user := &casdoorsdk.User{
		Owner:         p.organization,
		Name:          id,
		Id:            id,
		Type:          "normal-user",
		Password:      password,
		DisplayName:   name,
		Email:         email,
		EmailVerified: true,
		Phone:         phone,
		CreatedTime:   now.Format(time.RFC3339),
	}

	ok, err := p.client.AddUser(user)
	if err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", email, err)
	}
	if !ok {
		return nil, fmt.Errorf("casdoor rejected user %s", email)
	}

	p.logger.Info().Str("user_id", id).Msg("user registered")

	return &User{
		ID:        id,
		Email:     email,
		Name:      name,
		Phone:     phone,
		CreatedAt: now,
	}, nil
}

// SignIn uses the OAuth2 resource owner password grant. Casdoor accepts the
// email in the username field.
func (p *casdoorProvider) SignIn(ctx context.Context, email, password string) (*Token, error) {
	tok, err := p.oauth.PasswordCredentialsToken(ctx, email, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to sign in: %w", err)
	}

	return &Token{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
		Expiry:      tok.Expiry,
	}, nil
}

func (p *casdoorProvider) ListUsers(_ context.Context) ([]User, error) {
	users, err := p.client.GetUsers()
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	result := make([]User, 0, len(users))
	for _, u := range users {
		if u == nil {
			continue
		}
		result = append(result, convertUser(u))
	}
	return result, nil
}

func convertUser(u *casdoorsdk.User) User {
	var createdAt time.Time
	if u.CreatedTime != "" {
		createdAt, _ = time.Parse(time.RFC3339, u.CreatedTime)
	}

	name := u.DisplayName
	if name == "" {
		name = u.Name
	}

	return User{
		ID:        u.Id,
		Email:     u.Email,
		Name:      name,
		Phone:     u.Phone,
		CreatedAt: createdAt,
	}
}
