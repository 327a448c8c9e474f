package dto

import "github.com/yigit/acadtrack/internal/app/models"

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType"`
	ExpiresIn             int64  `json:"expiresIn"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterRequest creates an account. The profile is linked at first login.
type RegisterRequest struct {
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=8"`
	Role     models.Role `json:"role" binding:"required,account_role"`
}

// AccountResponse is the public view of an account
type AccountResponse struct {
	ID        int64       `json:"id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
	ProfileID *int64      `json:"profileId,omitempty"`
}

// NewAccountResponse maps an account row to its response
func NewAccountResponse(a *models.Account) AccountResponse {
	return AccountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Role:      a.Role,
		ProfileID: a.ProfileID,
	}
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token   TokenResponse   `json:"token"`
	Account AccountResponse `json:"account"`
	Profile *models.Profile `json:"profile"`
}

// MeResponse is returned by GET /auth/me. Profile is null when no profile
// could be resolved for the account.
type MeResponse struct {
	Account AccountResponse `json:"account"`
	Profile *models.Profile `json:"profile"`
}
