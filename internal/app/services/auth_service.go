package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"unicode"

	"github.com/rs/zerolog"
	"github.com/yigit/acadtrack/internal/app/auth"
	"github.com/yigit/acadtrack/internal/app/models"
	"github.com/yigit/acadtrack/internal/app/models/dto"
	"github.com/yigit/acadtrack/internal/pkg/apperrors"
	pkgauth "github.com/yigit/acadtrack/internal/pkg/auth"
	"github.com/yigit/acadtrack/internal/pkg/validation"
)

// AuthService handles registration, login and token rotation
type AuthService struct {
	accounts   AccountStore
	tokens     TokenStore
	resolver   *auth.IdentityResolver
	jwtService *pkgauth.JWTService
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	accounts AccountStore,
	tokens TokenStore,
	resolver *auth.IdentityResolver,
	jwtService *pkgauth.JWTService,
	logger zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts:   accounts,
		tokens:     tokens,
		resolver:   resolver,
		jwtService: jwtService,
		logger:     logger,
		now:        time.Now,
	}
}

// validatePassword checks if password meets requirements
func (s *AuthService) validatePassword(password string) error {
	if len(password) < validation.PasswordMinLength {
		return fmt.Errorf("%w: password must be at least %d characters long", apperrors.ErrInvalidPassword, validation.PasswordMinLength)
	}

	var hasLetter, hasDigit bool
	for _, char := range password {
		switch {
		case unicode.IsLetter(char):
			hasLetter = true
		case unicode.IsDigit(char):
			hasDigit = true
		}
	}
	if !hasLetter {
		return fmt.Errorf("%w: password must contain at least one letter", apperrors.ErrInvalidPassword)
	}
	if !hasDigit {
		return fmt.Errorf("%w: password must contain at least one digit", apperrors.ErrInvalidPassword)
	}

	return nil
}

// Register creates an active account. The profile is not linked here; it is
// discovered at first login.
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*models.Account, error) {
	if !req.Role.Valid() {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", req.Role))
	}
	if err := s.validatePassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := pkgauth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		Email:    validation.NormalizeEmail(req.Email),
		Password: hash,
		Role:     req.Role,
		IsActive: true,
	}
	id, err := s.accounts.Create(ctx, account)
	if err != nil {
		return nil, err
	}
	account.ID = id

	s.logger.Info().Int64("accountID", id).Str("role", string(account.Role)).Msg("Account registered")
	return account, nil
}

func principalOf(a *models.Account) auth.Principal {
	return auth.Principal{
		AccountID: a.ID,
		Role:      a.Role,
		Email:     a.Email,
		ProfileID: a.ProfileID,
	}
}

// Login verifies credentials, links a newly discovered profile and issues a
// token pair
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	account, err := s.accounts.GetByEmail(ctx, validation.NormalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrAccountNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !pkgauth.CheckPassword(account.Password, req.Password) {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	profile, err := s.resolver.Resolve(ctx, principalOf(account))
	switch {
	case errors.Is(err, apperrors.ErrProfileNotFound):
		s.logger.Warn().Int64("accountID", account.ID).Msg("No profile found for account at login")
	case err != nil:
		return nil, err
	case account.ProfileID == nil:
		if err := s.accounts.LinkProfile(ctx, account.ID, profile.ID); err != nil {
			s.logger.Error().Err(err).Int64("accountID", account.ID).Msg("Failed to persist profile link")
		} else {
			account.ProfileID = &profile.ID
		}
	}

	if err := s.accounts.UpdateLastLogin(ctx, account.ID, s.now()); err != nil {
		s.logger.Warn().Err(err).Int64("accountID", account.ID).Msg("Failed to update last login")
	}

	token, err := s.issueTokens(ctx, account)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:   *token,
		Account: dto.NewAccountResponse(account),
		Profile: profile,
	}, nil
}

// RefreshToken rotates a refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	accountID, err := s.tokens.GetAccountIDByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, apperrors.ErrAccountDisabled
	}

	if err := s.tokens.RevokeToken(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, account)
}

// Logout revokes a refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.tokens.RevokeToken(ctx, refreshToken)
}

// Me returns the caller's account and resolved profile; the profile is nil
// when none can be found
func (s *AuthService) Me(ctx context.Context, p auth.Principal) (*dto.MeResponse, error) {
	account, err := s.accounts.GetByID(ctx, p.AccountID)
	if err != nil {
		return nil, err
	}

	profile, err := s.resolver.Resolve(ctx, principalOf(account))
	if err != nil && !errors.Is(err, apperrors.ErrProfileNotFound) {
		return nil, err
	}

	return &dto.MeResponse{Account: dto.NewAccountResponse(account), Profile: profile}, nil
}

func (s *AuthService) issueTokens(ctx context.Context, account *models.Account) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(account)
	if err != nil {
		return nil, err
	}

	if err := s.tokens.CreateToken(ctx, pair.RefreshToken, account.ID, s.jwtService.GetRefreshTokenExpiry()); err != nil {
		return nil, err
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             pair.ExpiresIn,
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: pair.RefreshExpiresIn,
	}, nil
}
